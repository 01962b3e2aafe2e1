package ledger

import (
	"context"

	"github.com/noloworld/oribeti-app-sub000/internal/domain/ledger"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/shared/valueobject"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// ReportService answers the read-only debt and sales questions. Every call
// recomputes from sales, lines and payments loaded in one read; nothing is cached.
type ReportService struct {
	reader      ledger.LedgerReader
	clients     ledger.ClientRepository
	reportYears int
	logger      *zap.Logger
}

// NewReportService creates a new ReportService. reportYears caps SalesByYear.
func NewReportService(reader ledger.LedgerReader, clients ledger.ClientRepository, reportYears int, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		reader:      reader,
		clients:     clients,
		reportYears: reportYears,
		logger:      logger,
	}
}

// ListDebtors returns one snapshot per client with an open sale or a settled
// installment sale, largest outstanding first.
func (s *ReportService) ListDebtors(ctx context.Context) ([]ledger.DebtSnapshot, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "report", "list_debtors")
	defer span.End()

	records, err := s.reader.LoadRecords(ctx, ledger.RecordFilter{})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	names, err := s.clientNames(ctx, records)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	debtors := ledger.BuildDebtSnapshots(names, records)
	telemetry.SetAttributes(span, "debtors", len(debtors), "sales", len(records))
	return debtors, nil
}

// TopSpenders ranks clients by face value of their settled sales
func (s *ReportService) TopSpenders(ctx context.Context, n int) ([]ledger.RankedClient, error) {
	if n <= 0 {
		return []ledger.RankedClient{}, nil
	}
	records, err := s.reader.LoadRecords(ctx, ledger.RecordFilter{})
	if err != nil {
		return nil, err
	}
	names, err := s.clientNames(ctx, records)
	if err != nil {
		return nil, err
	}
	return ledger.RankTopSpenders(names, salesOf(records), n), nil
}

// SalesByMonth returns the face value sold in each month of year, January first
func (s *ReportService) SalesByMonth(ctx context.Context, year int) ([12]valueobject.Amount, error) {
	records, err := s.reader.LoadRecords(ctx, ledger.RecordFilter{Year: &year})
	if err != nil {
		return [12]valueobject.Amount{}, err
	}
	return ledger.MonthlyTotals(salesOf(records), year), nil
}

// SalesByYear returns face value per year with activity, most recent first
func (s *ReportService) SalesByYear(ctx context.Context) ([]ledger.YearlyTotal, error) {
	records, err := s.reader.LoadRecords(ctx, ledger.RecordFilter{})
	if err != nil {
		return nil, err
	}
	return ledger.YearlyTotals(salesOf(records), s.reportYears), nil
}

// ClientStatement returns every sale of one client with its balance
func (s *ReportService) ClientStatement(ctx context.Context, clientID ledger.ClientID) (*ledger.ClientStatement, error) {
	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	records, err := s.reader.LoadRecords(ctx, ledger.RecordFilter{ClientID: &clientID})
	if err != nil {
		return nil, err
	}
	st := ledger.BuildClientStatement(client, records)
	return &st, nil
}

// clientNames resolves the names of every client appearing in records.
// A sale whose client row is gone keeps an empty name.
func (s *ReportService) clientNames(ctx context.Context, records []ledger.SaleRecord) (map[ledger.ClientID]string, error) {
	seen := make(map[ledger.ClientID]struct{})
	ids := make([]ledger.ClientID, 0)
	for _, rec := range records {
		if _, ok := seen[rec.Sale.ClientID]; ok {
			continue
		}
		seen[rec.Sale.ClientID] = struct{}{}
		ids = append(ids, rec.Sale.ClientID)
	}

	clients, err := s.clients.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[ledger.ClientID]string, len(clients))
	for id, c := range clients {
		names[id] = c.Name
	}
	if missing := len(ids) - len(clients); missing > 0 {
		s.logger.Warn("Sales reference unknown clients", zap.Int("count", missing))
	}
	return names, nil
}

func salesOf(records []ledger.SaleRecord) []*ledger.Sale {
	sales := make([]*ledger.Sale, len(records))
	for i, rec := range records {
		sales[i] = rec.Sale
	}
	return sales
}
