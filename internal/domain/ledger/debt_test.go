package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func saleFor(t *testing.T, client ClientID, d time.Time, face string) *Sale {
	t.Helper()
	sale, err := NewSale(client, d, []ProductLine{line(t, "Item", 1, face)})
	require.NoError(t, err)
	return sale
}

func record(t *testing.T, sale *Sale, payments ...string) SaleRecord {
	t.Helper()
	rec := SaleRecord{Sale: sale}
	for i, p := range payments {
		require.NoError(t, sale.ApplyPayment(amt(p)))
		rec.Payments = append(rec.Payments, Payment{
			ID:       NewPaymentID(),
			SaleID:   sale.ID,
			Amount:   amt(p),
			Date:     sale.Date.AddDate(0, 0, i+1),
			Sequence: int64(i + 1),
		})
	}
	return rec
}

func TestBuildDebtSnapshots(t *testing.T) {
	t.Run("open sale plus installment-settled sale", func(t *testing.T) {
		c := NewClientID()
		a := record(t, saleFor(t, c, date(2024, 1, 5), "50"), "20")
		b := record(t, saleFor(t, c, date(2024, 2, 1), "30"), "10", "20")

		debtors := BuildDebtSnapshots(map[ClientID]string{c: "Carla"}, []SaleRecord{a, b})
		require.Len(t, debtors, 1)

		snap := debtors[0]
		assert.Equal(t, "Carla", snap.ClientName)
		assert.Equal(t, "30.00", snap.TotalOutstanding.String())
		assert.Equal(t, 1, snap.OpenCount)
		assert.Equal(t, 1, snap.InstallmentCount)
		require.Len(t, snap.InstallmentSales, 1)
		assert.Equal(t, b.Sale.ID, snap.InstallmentSales[0].SaleID)
		assert.Equal(t, "50.00", snap.MaxOwed.String())
		assert.Equal(t, date(2024, 1, 5), *snap.OldestOpenSaleDate)
		assert.Equal(t, date(2024, 2, 1), *snap.LastSaleDate)
		assert.Equal(t, date(2024, 2, 3), *snap.LastPaymentDate)
	})

	t.Run("single-payment settled sale does not make a debtor", func(t *testing.T) {
		c := NewClientID()
		rec := record(t, saleFor(t, c, date(2024, 1, 5), "40"), "40")
		assert.Empty(t, BuildDebtSnapshots(map[ClientID]string{c: "Paid Up"}, []SaleRecord{rec}))
	})

	t.Run("unpaid sale without payments is open", func(t *testing.T) {
		c := NewClientID()
		rec := record(t, saleFor(t, c, date(2024, 1, 5), "40"))
		debtors := BuildDebtSnapshots(nil, []SaleRecord{rec})
		require.Len(t, debtors, 1)
		assert.Nil(t, debtors[0].LastPaymentDate)
		assert.Equal(t, "40.00", debtors[0].TotalOutstanding.String())
	})

	t.Run("ordered by outstanding then name", func(t *testing.T) {
		x, y, z := NewClientID(), NewClientID(), NewClientID()
		names := map[ClientID]string{x: "Xavier", y: "Yolanda", z: "Ana"}
		records := []SaleRecord{
			record(t, saleFor(t, x, date(2024, 1, 1), "10")),
			record(t, saleFor(t, y, date(2024, 1, 1), "90")),
			record(t, saleFor(t, z, date(2024, 1, 1), "10")),
		}
		debtors := BuildDebtSnapshots(names, records)
		require.Len(t, debtors, 3)
		assert.Equal(t, "Yolanda", debtors[0].ClientName)
		assert.Equal(t, "Ana", debtors[1].ClientName)
		assert.Equal(t, "Xavier", debtors[2].ClientName)
	})
}

func TestRankTopSpenders(t *testing.T) {
	a, b, c := NewClientID(), NewClientID(), NewClientID()
	settled := func(client ClientID, face string) *Sale {
		s := saleFor(t, client, date(2024, 1, 1), face)
		require.NoError(t, s.ApplyPayment(amt(face)))
		return s
	}
	sales := []*Sale{
		settled(a, "100"),
		settled(a, "50"),
		settled(b, "200"),
		saleFor(t, c, date(2024, 1, 1), "1000"), // pending, ignored
	}

	ranked := RankTopSpenders(map[ClientID]string{a: "A", b: "B"}, sales, 5)
	require.Len(t, ranked, 2)
	assert.Equal(t, b, ranked[0].ClientID)
	assert.Equal(t, "200.00", ranked[0].TotalSpent.String())
	assert.Equal(t, "150.00", ranked[1].TotalSpent.String())

	assert.Len(t, RankTopSpenders(nil, sales, 1), 1)
	assert.Empty(t, RankTopSpenders(nil, sales, 0))
}

func TestMonthlyTotals(t *testing.T) {
	c := NewClientID()
	sales := []*Sale{
		saleFor(t, c, date(2024, 3, 2), "40"),
		saleFor(t, c, date(2024, 3, 28), "10"),
		saleFor(t, c, date(2023, 3, 1), "999"),
	}

	buckets := MonthlyTotals(sales, 2024)
	assert.Len(t, buckets, 12)
	for i, total := range buckets {
		if i == 2 {
			assert.Equal(t, "50.00", total.String())
			continue
		}
		assert.True(t, total.IsZero(), "month %d should be zero", i+1)
	}
}

func TestYearlyTotals(t *testing.T) {
	c := NewClientID()
	var sales []*Sale
	for y := 2017; y <= 2024; y++ {
		sales = append(sales, saleFor(t, c, date(y, 6, 1), "10"))
	}
	sales = append(sales, saleFor(t, c, date(2024, 7, 1), "5"))

	years := YearlyTotals(sales, 5)
	require.Len(t, years, 5)
	assert.Equal(t, 2024, years[0].Year)
	assert.Equal(t, "15.00", years[0].Total.String())
	assert.Equal(t, 2020, years[4].Year)

	assert.Len(t, YearlyTotals(sales, 0), 8)
	assert.Empty(t, YearlyTotals(nil, 5))
}

func TestBuildClientStatement(t *testing.T) {
	client, err := NewClient("Dora", "", "", "")
	require.NoError(t, err)

	older := record(t, saleFor(t, client.ID, date(2024, 1, 1), "100"), "100")
	newer := record(t, saleFor(t, client.ID, date(2024, 4, 1), "60"), "10")
	require.NoError(t, older.Sale.ReplaceLines([]ProductLine{line(t, "Item", 1, "90")}))
	other := record(t, saleFor(t, NewClientID(), date(2024, 4, 1), "60"))

	st := BuildClientStatement(client, []SaleRecord{older, newer, other})
	require.Len(t, st.Sales, 2)
	assert.Equal(t, newer.Sale.ID, st.Sales[0].SaleID)
	assert.Equal(t, "150.00", st.TotalFaceValue.String())
	assert.Equal(t, "110.00", st.TotalPaid.String())
	assert.Equal(t, "50.00", st.TotalOutstanding.String())
	assert.Equal(t, "10.00", st.TotalExcess.String())
}
