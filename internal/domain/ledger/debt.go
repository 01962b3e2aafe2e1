package ledger

import (
	"sort"
	"time"

	"github.com/noloworld/oribeti-app-sub000/internal/domain/shared/valueobject"
)

// SaleRecord is a sale together with its full payment set, the unit every
// report is computed from.
type SaleRecord struct {
	Sale     *Sale
	Payments []Payment
}

// IsInstallmentSettled reports whether the sale is settled and was paid by more than one payment
func (r SaleRecord) IsInstallmentSettled() bool {
	return !r.Sale.IsOpen() && len(r.Payments) > 1
}

// SaleSummary is the reporting view of one sale
type SaleSummary struct {
	SaleID          SaleID             `json:"sale_id"`
	Date            time.Time          `json:"date"`
	FaceValue       valueobject.Amount `json:"face_value"`
	Paid            valueobject.Amount `json:"paid"`
	Outstanding     valueobject.Amount `json:"outstanding"`
	Excess          valueobject.Amount `json:"excess"`
	Status          SaleStatus         `json:"status"`
	PaymentCount    int                `json:"payment_count"`
	LastPaymentDate *time.Time         `json:"last_payment_date,omitempty"`
}

// Summarize builds the reporting view of a sale record
func (r SaleRecord) Summarize() SaleSummary {
	s := SaleSummary{
		SaleID:       r.Sale.ID,
		Date:         r.Sale.Date,
		FaceValue:    r.Sale.FaceValue(),
		Paid:         r.Sale.Paid,
		Outstanding:  r.Sale.Outstanding(),
		Excess:       r.Sale.Excess(),
		Status:       r.Sale.Status,
		PaymentCount: len(r.Payments),
	}
	if latest, ok := LatestPayment(r.Payments); ok {
		d := latest.Date
		s.LastPaymentDate = &d
	}
	return s
}

// DebtSnapshot is the per-client debt view
type DebtSnapshot struct {
	ClientID           ClientID           `json:"client_id"`
	ClientName         string             `json:"client_name"`
	OpenSales          []SaleSummary      `json:"open_sales"`
	InstallmentSales   []SaleSummary      `json:"installment_sales"`
	OpenCount          int                `json:"open_count"`
	InstallmentCount   int                `json:"installment_count"`
	TotalOutstanding   valueobject.Amount `json:"total_outstanding"`
	MaxOwed            valueobject.Amount `json:"max_owed"`
	OldestOpenSaleDate *time.Time         `json:"oldest_open_sale_date,omitempty"`
	LastSaleDate       *time.Time         `json:"last_sale_date,omitempty"`
	LastPaymentDate    *time.Time         `json:"last_payment_date,omitempty"`
}

// BuildDebtSnapshots aggregates sale records into one snapshot per debtor.
// A client is a debtor with at least one open sale, or one settled sale paid
// in more than one installment. MaxOwed is the maximum face value over the
// qualifying sales, not a sum. Last sale and last payment dates span all of
// the client's sales. Result is ordered by TotalOutstanding desc, then name.
func BuildDebtSnapshots(names map[ClientID]string, records []SaleRecord) []DebtSnapshot {
	byClient := make(map[ClientID]*DebtSnapshot)
	order := make([]ClientID, 0)

	for _, rec := range records {
		clientID := rec.Sale.ClientID
		snap, ok := byClient[clientID]
		if !ok {
			snap = &DebtSnapshot{
				ClientID:         clientID,
				ClientName:       names[clientID],
				OpenSales:        []SaleSummary{},
				InstallmentSales: []SaleSummary{},
				TotalOutstanding: valueobject.ZeroAmount(),
				MaxOwed:          valueobject.ZeroAmount(),
			}
			byClient[clientID] = snap
			order = append(order, clientID)
		}

		summary := rec.Summarize()
		snap.LastSaleDate = laterOf(snap.LastSaleDate, &summary.Date)
		snap.LastPaymentDate = laterOf(snap.LastPaymentDate, summary.LastPaymentDate)

		switch {
		case rec.Sale.IsOpen():
			snap.OpenSales = append(snap.OpenSales, summary)
			snap.OpenCount++
			snap.TotalOutstanding = snap.TotalOutstanding.Add(summary.Outstanding)
			snap.MaxOwed = snap.MaxOwed.Max(summary.FaceValue)
			if snap.OldestOpenSaleDate == nil || summary.Date.Before(*snap.OldestOpenSaleDate) {
				d := summary.Date
				snap.OldestOpenSaleDate = &d
			}
		case rec.IsInstallmentSettled():
			snap.InstallmentSales = append(snap.InstallmentSales, summary)
			snap.InstallmentCount++
			snap.MaxOwed = snap.MaxOwed.Max(summary.FaceValue)
		}
	}

	debtors := make([]DebtSnapshot, 0, len(order))
	for _, id := range order {
		snap := byClient[id]
		if snap.OpenCount == 0 && snap.InstallmentCount == 0 {
			continue
		}
		debtors = append(debtors, *snap)
	}

	sort.SliceStable(debtors, func(i, j int) bool {
		if c := debtors[i].TotalOutstanding.Cmp(debtors[j].TotalOutstanding); c != 0 {
			return c > 0
		}
		if debtors[i].ClientName != debtors[j].ClientName {
			return debtors[i].ClientName < debtors[j].ClientName
		}
		return debtors[i].ClientID.String() < debtors[j].ClientID.String()
	})
	return debtors
}

func laterOf(current, candidate *time.Time) *time.Time {
	if candidate == nil {
		return current
	}
	if current == nil || candidate.After(*current) {
		d := *candidate
		return &d
	}
	return current
}

// RankedClient is one entry of the top-spender ranking
type RankedClient struct {
	ClientID   ClientID           `json:"client_id"`
	ClientName string             `json:"client_name"`
	TotalSpent valueobject.Amount `json:"total_spent"`
}

// RankTopSpenders sums face value over settled sales per client, sorted
// descending with ties ordered by client id, truncated to n.
func RankTopSpenders(names map[ClientID]string, sales []*Sale, n int) []RankedClient {
	if n <= 0 {
		return []RankedClient{}
	}
	totals := make(map[ClientID]valueobject.Amount)
	for _, sale := range sales {
		if sale.Status != SaleStatusSettled {
			continue
		}
		totals[sale.ClientID] = totals[sale.ClientID].Add(sale.FaceValue())
	}

	ranked := make([]RankedClient, 0, len(totals))
	for id, total := range totals {
		ranked = append(ranked, RankedClient{ClientID: id, ClientName: names[id], TotalSpent: total})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if c := ranked[i].TotalSpent.Cmp(ranked[j].TotalSpent); c != 0 {
			return c > 0
		}
		return ranked[i].ClientID.String() < ranked[j].ClientID.String()
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// MonthlyTotals buckets face value by the month of the sale date for one year.
// Index 0 is January; all 12 entries are always present.
func MonthlyTotals(sales []*Sale, year int) [12]valueobject.Amount {
	var buckets [12]valueobject.Amount
	for i := range buckets {
		buckets[i] = valueobject.ZeroAmount()
	}
	for _, sale := range sales {
		if sale.Date.Year() != year {
			continue
		}
		m := int(sale.Date.Month()) - 1
		buckets[m] = buckets[m].Add(sale.FaceValue())
	}
	return buckets
}

// YearlyTotal is the face value sold in one calendar year
type YearlyTotal struct {
	Year  int                `json:"year"`
	Total valueobject.Amount `json:"total"`
}

// YearlyTotals buckets face value by year, covering only years with activity,
// most recent first, capped to limit entries (limit <= 0 means no cap).
func YearlyTotals(sales []*Sale, limit int) []YearlyTotal {
	totals := make(map[int]valueobject.Amount)
	for _, sale := range sales {
		y := sale.Date.Year()
		totals[y] = totals[y].Add(sale.FaceValue())
	}
	years := make([]YearlyTotal, 0, len(totals))
	for y, total := range totals {
		years = append(years, YearlyTotal{Year: y, Total: total})
	}
	sort.Slice(years, func(i, j int) bool { return years[i].Year > years[j].Year })
	if limit > 0 && len(years) > limit {
		years = years[:limit]
	}
	return years
}

// ClientStatement is the full account of one client
type ClientStatement struct {
	ClientID         ClientID           `json:"client_id"`
	ClientName       string             `json:"client_name"`
	Sales            []SaleSummary      `json:"sales"`
	TotalFaceValue   valueobject.Amount `json:"total_face_value"`
	TotalPaid        valueobject.Amount `json:"total_paid"`
	TotalOutstanding valueobject.Amount `json:"total_outstanding"`
	TotalExcess      valueobject.Amount `json:"total_excess"`
}

// BuildClientStatement summarizes every sale of one client, most recent first
func BuildClientStatement(client *Client, records []SaleRecord) ClientStatement {
	st := ClientStatement{
		ClientID:         client.ID,
		ClientName:       client.Name,
		Sales:            make([]SaleSummary, 0, len(records)),
		TotalFaceValue:   valueobject.ZeroAmount(),
		TotalPaid:        valueobject.ZeroAmount(),
		TotalOutstanding: valueobject.ZeroAmount(),
		TotalExcess:      valueobject.ZeroAmount(),
	}
	for _, rec := range records {
		if rec.Sale.ClientID != client.ID {
			continue
		}
		s := rec.Summarize()
		st.Sales = append(st.Sales, s)
		st.TotalFaceValue = st.TotalFaceValue.Add(s.FaceValue)
		st.TotalPaid = st.TotalPaid.Add(s.Paid)
		st.TotalOutstanding = st.TotalOutstanding.Add(s.Outstanding)
		st.TotalExcess = st.TotalExcess.Add(s.Excess)
	}
	sort.SliceStable(st.Sales, func(i, j int) bool { return st.Sales[i].Date.After(st.Sales[j].Date) })
	return st
}
