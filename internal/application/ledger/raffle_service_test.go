package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	appledger "github.com/noloworld/oribeti-app-sub000/internal/application/ledger"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/ledger"
	"github.com/noloworld/oribeti-app-sub000/internal/infrastructure/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRaffleService_ClaimNumber(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	svc := appledger.NewRaffleService(persistence.NewGormRaffleRepository(h.db), h.clients, h.audit, nil)
	ana := h.client(t, "Ana")
	bia := h.client(t, "Bia")

	raffle, err := svc.CreateRaffle(ctx, "Christmas", 10, nil)
	require.NoError(t, err)

	t.Run("exactly one of many concurrent claims wins", func(t *testing.T) {
		const claimers = 8
		var (
			wg     sync.WaitGroup
			mu     sync.Mutex
			won    int
			taken  int
			others []error
		)
		for i := 0; i < claimers; i++ {
			client := ana.ID
			if i%2 == 1 {
				client = bia.ID
			}
			wg.Add(1)
			go func(client ledger.ClientID) {
				defer wg.Done()
				_, err := svc.ClaimNumber(ctx, "user-1", raffle.ID, 3, client)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					won++
				case errors.Is(err, ledger.ErrRaffleNumberUsed):
					taken++
				default:
					others = append(others, err)
				}
			}(client)
		}
		wg.Wait()

		assert.Empty(t, others)
		assert.Equal(t, 1, won)
		assert.Equal(t, claimers-1, taken)
	})

	t.Run("out of range and unknown client", func(t *testing.T) {
		_, err := svc.ClaimNumber(ctx, "user-1", raffle.ID, 11, ana.ID)
		assert.Error(t, err)

		_, err = svc.ClaimNumber(ctx, "user-1", raffle.ID, 4, ledger.NewClientID())
		assert.True(t, errors.Is(err, ledger.ErrClientNotFound))
	})

	t.Run("board lists the free numbers", func(t *testing.T) {
		board, err := svc.Board(ctx, raffle.ID)
		require.NoError(t, err)
		require.Len(t, board.Tickets, 1)
		assert.Equal(t, 3, board.Tickets[0].Number)
		assert.Equal(t, []int{1, 2, 4, 5, 6, 7, 8, 9, 10}, board.Available)

		raffles, err := svc.ListRaffles(ctx)
		require.NoError(t, err)
		assert.Len(t, raffles, 1)
	})
}
