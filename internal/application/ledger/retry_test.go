package ledger

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/noloworld/oribeti-app-sub000/internal/domain/ledger"
	"github.com/noloworld/oribeti-app-sub000/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// conflictingScope fails the first n executions with a concurrency conflict
type conflictingScope struct {
	conflicts int
	calls     int
}

func (s *conflictingScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	s.calls++
	if s.calls <= s.conflicts {
		return fmt.Errorf("save sale: %w", shared.ErrConcurrencyConflict)
	}
	return fn(nil)
}

func newRetryService(scope TransactionScope, retries int, log *zap.Logger) *SaleService {
	return NewSaleService(scope, nil, nil, nil, RetryPolicy{MaxRetries: retries, Backoff: time.Microsecond}, log)
}

func TestSaleService_withRetry(t *testing.T) {
	ctx := context.Background()
	ok := func(TransactionalRepositories) error { return nil }

	t.Run("succeeds after transient conflicts", func(t *testing.T) {
		scope := &conflictingScope{conflicts: 2}
		err := newRetryService(scope, 3, nil).withRetry(ctx, "add_payment", ok)

		assert.NoError(t, err)
		assert.Equal(t, 3, scope.calls)
	})

	t.Run("surfaces the conflict once retries are exhausted", func(t *testing.T) {
		scope := &conflictingScope{conflicts: 10}
		core, logs := observer.New(zap.WarnLevel)
		err := newRetryService(scope, 3, zap.New(core)).withRetry(ctx, "add_payment", ok)

		assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))
		assert.Equal(t, 4, scope.calls)
		assert.Equal(t, 1, logs.FilterMessage("Sale mutation gave up after concurrency conflicts").Len())
	})

	t.Run("other errors are not retried", func(t *testing.T) {
		scope := &conflictingScope{}
		err := newRetryService(scope, 3, nil).withRetry(ctx, "add_payment", func(TransactionalRepositories) error {
			return ledger.ErrOverpayment
		})

		assert.True(t, errors.Is(err, ledger.ErrOverpayment))
		assert.Equal(t, 1, scope.calls)
	})

	t.Run("zero retries runs once", func(t *testing.T) {
		scope := &conflictingScope{conflicts: 1}
		err := newRetryService(scope, 0, nil).withRetry(ctx, "add_payment", ok)

		assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))
		assert.Equal(t, 1, scope.calls)
	})

	t.Run("a cancelled context stops the backoff", func(t *testing.T) {
		scope := &conflictingScope{conflicts: 10}
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		svc := NewSaleService(scope, nil, nil, nil, RetryPolicy{MaxRetries: 5, Backoff: time.Hour}, nil)

		err := svc.withRetry(cctx, "add_payment", ok)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, scope.calls)
	})
}

func TestStaticRecipients(t *testing.T) {
	got, err := StaticRecipients{"a", "b"}.Recipients(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)
}
