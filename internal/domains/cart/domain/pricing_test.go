package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestIsInnerCity(t *testing.T) {
	for _, p := range []string{"Hà Nội", "hanoi", "  Ha Noi ", "TP Hồ Chí Minh", "HCMC", "Saigon"} {
		assert.True(t, IsInnerCity(p), p)
	}
	for _, p := range []string{"", "Da Nang", "Hue"} {
		assert.False(t, IsInnerCity(p), p)
	}
}

func TestDeliveryFee(t *testing.T) {
	tests := []struct {
		name     string
		province string
		weight   float64
		subtotal int64
		rush     bool
		want     int64
	}{
		{"inner base", "Hanoi", 3, 50000, false, 22000},
		{"inner one step", "Hanoi", 3.5, 50000, false, 24500},
		{"inner partial step", "Hanoi", 3.6, 50000, false, 27000},
		{"outer base", "Da Nang", 0.5, 50000, false, 30000},
		{"outer steps", "Da Nang", 1.2, 50000, false, 35000},
		{"free shipping under cap", "Hanoi", 3, 100000, false, 0},
		{"free shipping over cap", "Da Nang", 5, 100000, false, 27500},
		{"rush never waived", "Hanoi", 3, 200000, true, 22000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeliveryFee(tt.province, tt.weight, dec(tt.subtotal), tt.rush)
			assert.True(t, dec(tt.want).Equal(got), "want %d got %s", tt.want, got)
		})
	}
}

func TestShippingDiscount(t *testing.T) {
	assert.True(t, ShippingDiscount(dec(99999), dec(22000)).IsZero())
	assert.True(t, dec(22000).Equal(ShippingDiscount(dec(100000), dec(22000))))
	assert.True(t, dec(2500).Equal(ShippingDiscount(dec(100000), dec(30000))))
}

func TestTotalIncludingVAT(t *testing.T) {
	got := TotalIncludingVAT(dec(100), VATRate)
	assert.True(t, dec(1000).Equal(got), got.String())
	final := FinalAmount(dec(100), VATRate, dec(22000))
	assert.True(t, dec(23000).Equal(final), final.String())
}

func line(id int64, price int64, weight float64, stock, qty int, rush bool) QuoteLine {
	return QuoteLine{
		Product:  ProductView{ID: id, Title: "p", Price: dec(price), Weight: weight, Quantity: stock, RushEligible: rush},
		Quantity: qty,
	}
}

func TestQuote_TotalIsSubtotalTaxAndFee(t *testing.T) {
	totals := Quote([]QuoteLine{
		line(1, 20000, 0.4, 10, 2, false),
		line(2, 15000, 3.5, 10, 1, false),
	}, "Hanoi", false)

	assert.True(t, dec(55000).Equal(totals.Subtotal))
	assert.True(t, dec(5500).Equal(totals.Tax))
	assert.True(t, dec(24500).Equal(totals.DeliveryFee))
	assert.True(t, totals.Subtotal.Add(totals.Tax).Add(totals.DeliveryFee).Equal(totals.Total))
	assert.InDelta(t, 3.5, totals.HeaviestWeight, 1e-9)
	assert.True(t, totals.AllItemsAvailable)
	require.Len(t, totals.Items, 2)
	assert.True(t, dec(40000).Equal(totals.Items[0].Subtotal))
}

func TestQuote_EmptyCartStillChargesBaseFee(t *testing.T) {
	totals := Quote(nil, "Da Nang", false)
	assert.True(t, totals.Subtotal.IsZero())
	assert.True(t, dec(30000).Equal(totals.DeliveryFee))
}

func TestRushQuote_SplitsGroups(t *testing.T) {
	totals := RushQuote([]QuoteLine{
		line(1, 50000, 1, 5, 1, true),
		line(2, 30000, 4, 5, 2, false),
		line(3, 10000, 1, 1, 3, true),
	}, "Hanoi")

	assert.False(t, totals.AllItemsAvailable)
	require.Len(t, totals.OutOfStock, 1)
	assert.Equal(t, int64(3), totals.OutOfStock[0].ProductID)
	assert.Equal(t, "Insufficient stock", totals.OutOfStock[0].Message)
	require.Len(t, totals.Items, 2)

	assert.True(t, dec(60000).Equal(totals.RushSubtotal), totals.RushSubtotal.String())
	assert.True(t, dec(60000).Equal(totals.NormalSubtotal))
	assert.True(t, dec(120000).Equal(totals.Subtotal))
	assert.True(t, dec(12000).Equal(totals.Tax))
	assert.True(t, dec(22000).Equal(totals.RushDeliveryFee))
	assert.True(t, dec(27000).Equal(totals.DeliveryFee))
	// the normal group fee is reported but not added to the total
	assert.True(t, dec(154000).Equal(totals.Total), totals.Total.String())
}

func TestRushQuote_NoRushLines(t *testing.T) {
	totals := RushQuote([]QuoteLine{line(1, 20000, 1, 5, 1, false)}, "Hanoi")
	assert.True(t, totals.RushDeliveryFee.IsZero())
	assert.True(t, dec(22000).Equal(totals.DeliveryFee))
	assert.True(t, dec(22000).Equal(totals.Total))
}

func TestRushQuote_RepeatedProductUsesLastQuantity(t *testing.T) {
	totals := RushQuote([]QuoteLine{
		line(1, 50000, 1, 5, 1, true),
		line(2, 30000, 1, 5, 1, false),
		line(1, 50000, 1, 5, 3, true),
	}, "Hanoi")

	require.Len(t, totals.Items, 2)
	assert.Equal(t, int64(1), totals.Items[0].ProductID)
	assert.Equal(t, 3, totals.Items[0].Quantity)
	assert.True(t, dec(180000).Equal(totals.RushSubtotal), totals.RushSubtotal.String())
	assert.True(t, dec(30000).Equal(totals.NormalSubtotal))
}

func TestMergeQuoteLines_StockCheckedAgainstMergedQuantity(t *testing.T) {
	totals := RushQuote([]QuoteLine{
		line(1, 50000, 1, 2, 5, true),
		line(1, 50000, 1, 2, 2, true),
	}, "Hanoi")
	assert.True(t, totals.AllItemsAvailable)
	require.Len(t, totals.Items, 1)
	assert.Equal(t, 2, totals.Items[0].Quantity)
}
