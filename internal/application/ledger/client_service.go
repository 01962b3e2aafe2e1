package ledger

import (
	"context"

	"github.com/noloworld/oribeti-app-sub000/internal/domain/ledger"
	"go.uber.org/zap"
)

// ClientInput carries a client's contact details
type ClientInput struct {
	Name    string
	Phone   string
	Email   string
	Address string
}

// ClientService manages the client directory
type ClientService struct {
	clients ledger.ClientRepository
	audit   AuditSink
	logger  *zap.Logger
}

// NewClientService creates a new ClientService
func NewClientService(clients ledger.ClientRepository, audit AuditSink, logger *zap.Logger) *ClientService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientService{clients: clients, audit: audit, logger: logger}
}

// Create adds a client
func (s *ClientService) Create(ctx context.Context, actorID string, in ClientInput) (*ledger.Client, error) {
	client, err := ledger.NewClient(in.Name, in.Phone, in.Email, in.Address)
	if err != nil {
		return nil, err
	}
	if err := s.clients.Save(ctx, client); err != nil {
		return nil, err
	}
	recordAudit(ctx, s.audit, s.logger, actorID, ActionClientCreated, map[string]any{
		"client_id": client.ID.String(),
		"name":      client.Name,
	})
	return client, nil
}

// Update replaces a client's contact details
func (s *ClientService) Update(ctx context.Context, actorID string, id ledger.ClientID, in ClientInput) (*ledger.Client, error) {
	client, err := s.clients.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := client.Update(in.Name, in.Phone, in.Email, in.Address); err != nil {
		return nil, err
	}
	if err := s.clients.Save(ctx, client); err != nil {
		return nil, err
	}
	recordAudit(ctx, s.audit, s.logger, actorID, ActionClientUpdated, map[string]any{
		"client_id": id.String(),
		"name":      client.Name,
	})
	return client, nil
}

// Delete removes a client. Clients with sales cannot be deleted.
func (s *ClientService) Delete(ctx context.Context, actorID string, id ledger.ClientID) error {
	if err := s.clients.Delete(ctx, id); err != nil {
		return err
	}
	recordAudit(ctx, s.audit, s.logger, actorID, ActionClientDeleted, map[string]any{
		"client_id": id.String(),
	})
	return nil
}

// Get returns one client
func (s *ClientService) Get(ctx context.Context, id ledger.ClientID) (*ledger.Client, error) {
	return s.clients.FindByID(ctx, id)
}

// List lists clients by name
func (s *ClientService) List(ctx context.Context, filter ledger.ClientFilter) ([]ledger.Client, int64, error) {
	return s.clients.FindAll(ctx, filter)
}

// Exists reports whether a client exists
func (s *ClientService) Exists(ctx context.Context, id ledger.ClientID) (bool, error) {
	return s.clients.Exists(ctx, id)
}
