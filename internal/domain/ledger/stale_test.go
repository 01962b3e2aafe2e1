package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStalePolicy(t *testing.T) {
	policy := DefaultStalePolicy()
	now := date(2024, 5, 15)

	assert.Equal(t, date(2024, 3, 15), policy.Cutoff(now))
	assert.Equal(t, now.Add(-24*time.Hour), policy.DedupSince(now))

	c := NewClientID()
	tests := []struct {
		name  string
		sale  *Sale
		stale bool
	}{
		{"pending and old", saleFor(t, c, date(2024, 3, 14), "10"), true},
		{"pending exactly at cutoff", saleFor(t, c, date(2024, 3, 15), "10"), false},
		{"pending and recent", saleFor(t, c, date(2024, 5, 1), "10"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.stale, policy.IsStale(tt.sale, now))
		})
	}

	t.Run("settled sale is never stale", func(t *testing.T) {
		sale := saleFor(t, c, date(2023, 1, 1), "10")
		require.NoError(t, sale.ApplyPayment(amt("10")))
		assert.False(t, policy.IsStale(sale, now))
	})
}

func TestNoticeFor(t *testing.T) {
	sale := saleFor(t, NewClientID(), date(2024, 1, 1), "75")
	require.NoError(t, sale.ApplyPayment(amt("25")))

	notice := NoticeFor(StaleSale{Sale: sale, ClientName: "Eva"}, date(2024, 3, 11))
	assert.Equal(t, sale.ID, notice.SaleID)
	assert.Contains(t, notice.Body, "Eva")
	assert.Contains(t, notice.Body, "50.00")
	assert.Contains(t, notice.Body, "70 days")
	assert.Equal(t, NotificationSourceSweep, notice.Payload["source"])
	assert.Equal(t, sale.ID.String(), notice.Payload["sale_id"])
}
