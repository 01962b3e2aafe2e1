package ledger

import (
	"fmt"
	"time"
)

// NotificationKindStaleDebt tags notifications emitted by the stale-debt sweep
const NotificationKindStaleDebt = "STALE_DEBT"

// NotificationSourceSweep marks notifications generated by a periodic sweep
const NotificationSourceSweep = "sweep"

// StalePolicy decides when a pending sale is stale and how long a sweep stays
// silent after it last notified.
type StalePolicy struct {
	AfterMonths int
	DedupWindow time.Duration
}

// DefaultStalePolicy flags sales pending for more than two months and notifies at most once a day
func DefaultStalePolicy() StalePolicy {
	return StalePolicy{AfterMonths: 2, DedupWindow: 24 * time.Hour}
}

// Cutoff returns the date before which a pending sale is stale
func (p StalePolicy) Cutoff(now time.Time) time.Time {
	return now.AddDate(0, -p.AfterMonths, 0)
}

// DedupSince returns the start of the window that suppresses a new sweep
func (p StalePolicy) DedupSince(now time.Time) time.Time {
	return now.Add(-p.DedupWindow)
}

// IsStale reports whether the sale is still pending and dated before the cutoff
func (p StalePolicy) IsStale(sale *Sale, now time.Time) bool {
	return sale.Status == SaleStatusPending && sale.Date.Before(p.Cutoff(now))
}

// StaleSale is a pending sale past the threshold, with the client name for the message
type StaleSale struct {
	Sale       *Sale
	ClientName string
}

// StaleNotice is the content of one stale-debt notification
type StaleNotice struct {
	SaleID  SaleID
	Title   string
	Body    string
	Payload map[string]any
}

// NoticeFor renders the notification content for a stale sale
func NoticeFor(s StaleSale, now time.Time) StaleNotice {
	days := int(now.Sub(s.Sale.Date).Hours() / 24)
	outstanding := s.Sale.Outstanding()
	return StaleNotice{
		SaleID: s.Sale.ID,
		Title:  "Overdue payment",
		Body: fmt.Sprintf("%s has owed %s since %s (%d days)",
			s.ClientName, outstanding, s.Sale.Date.Format("2006-01-02"), days),
		Payload: map[string]any{
			"sale_id":     s.Sale.ID.String(),
			"client_id":   s.Sale.ClientID.String(),
			"outstanding": outstanding.String(),
			"sale_date":   s.Sale.Date.Format("2006-01-02"),
			"source":      NotificationSourceSweep,
		},
	}
}
