package domain

import (
	"github.com/shopspring/decimal"
)

// QuoteLine pairs a requested quantity with the live product it refers to.
type QuoteLine struct {
	Product  ProductView
	Quantity int
}

// LineDetail is one priced line of a quote.
type LineDetail struct {
	ProductID int64
	Title     string
	Price     decimal.Decimal
	Quantity  int
	Subtotal  decimal.Decimal
	ImageURL  string
	Category  string
	Weight    float64
}

// Shortage reports a requested quantity that live stock cannot serve.
type Shortage struct {
	ProductID int64
	Title     string
	Requested int
	Available int
	Message   string
}

// Totals is the priced result of a checkout calculation.
type Totals struct {
	Items             []LineDetail
	Subtotal          decimal.Decimal
	Tax               decimal.Decimal
	DeliveryFee       decimal.Decimal
	Total             decimal.Decimal
	HeaviestWeight    float64
	AllItemsAvailable bool
	OutOfStock        []Shortage
}

// RushTotals extends Totals with the rush group fee. Total excludes DeliveryFee, which covers the
// normal group and is reported only.
type RushTotals struct {
	Totals
	NormalSubtotal  decimal.Decimal
	RushSubtotal    decimal.Decimal
	RushDeliveryFee decimal.Decimal
}

// InventoryReport lists every cart line that exceeds live stock.
type InventoryReport struct {
	AllAvailable bool
	OutOfStock   []Shortage
}

// Quote prices every line; stock is not checked.
func Quote(lines []QuoteLine, province string, rush bool) Totals {
	totals := Totals{Items: make([]LineDetail, 0, len(lines)), AllItemsAvailable: true, OutOfStock: []Shortage{}}
	subtotal := decimal.Zero
	for _, line := range lines {
		detail := priceLine(line, line.Product.Price)
		subtotal = subtotal.Add(detail.Subtotal)
		totals.HeaviestWeight = max(totals.HeaviestWeight, line.Product.Weight)
		totals.Items = append(totals.Items, detail)
	}
	totals.Subtotal = subtotal
	totals.Tax = VAT(subtotal)
	totals.DeliveryFee = DeliveryFee(province, totals.HeaviestWeight, subtotal, rush)
	totals.Total = subtotal.Add(totals.Tax).Add(totals.DeliveryFee)
	return totals
}

// MergeQuoteLines collapses repeated products into one line. The last quantity wins and the
// line keeps the position of its first occurrence.
func MergeQuoteLines(lines []QuoteLine) []QuoteLine {
	merged := make([]QuoteLine, 0, len(lines))
	at := make(map[int64]int, len(lines))
	for _, line := range lines {
		if i, seen := at[line.Product.ID]; seen {
			merged[i] = line
			continue
		}
		at[line.Product.ID] = len(merged)
		merged = append(merged, line)
	}
	return merged
}

// RushQuote splits lines into rush-eligible and normal groups after merging repeated products.
// Lines exceeding stock are reported and skipped, rush lines carry RushSurchargePerUnit, and each
// group is charged its own delivery fee.
func RushQuote(lines []QuoteLine, province string) RushTotals {
	lines = MergeQuoteLines(lines)
	result := RushTotals{Totals: Totals{Items: make([]LineDetail, 0, len(lines)), AllItemsAvailable: true, OutOfStock: []Shortage{}}}
	normalSubtotal, rushSubtotal := decimal.Zero, decimal.Zero
	var normalHeaviest, rushHeaviest float64
	rushCount := 0

	for _, line := range lines {
		p := line.Product
		if p.Quantity < line.Quantity {
			result.AllItemsAvailable = false
			result.OutOfStock = append(result.OutOfStock, Shortage{
				ProductID: p.ID,
				Title:     p.Title,
				Requested: line.Quantity,
				Available: p.Quantity,
				Message:   "Insufficient stock",
			})
			continue
		}
		price := p.Price
		if p.RushEligible {
			price = price.Add(RushSurchargePerUnit)
		}
		detail := priceLine(line, price)
		result.Items = append(result.Items, detail)
		if p.RushEligible {
			rushSubtotal = rushSubtotal.Add(detail.Subtotal)
			rushHeaviest = max(rushHeaviest, p.Weight)
			rushCount++
		} else {
			normalSubtotal = normalSubtotal.Add(detail.Subtotal)
			normalHeaviest = max(normalHeaviest, p.Weight)
		}
	}

	result.NormalSubtotal = normalSubtotal
	result.RushSubtotal = rushSubtotal
	result.Subtotal = normalSubtotal.Add(rushSubtotal)
	result.HeaviestWeight = max(normalHeaviest, rushHeaviest)
	result.Tax = VAT(result.Subtotal)
	result.DeliveryFee = decimal.Zero
	if normalSubtotal.IsPositive() {
		result.DeliveryFee = DeliveryFee(province, normalHeaviest, normalSubtotal, false)
	}
	result.RushDeliveryFee = decimal.Zero
	if rushCount > 0 {
		result.RushDeliveryFee = DeliveryFee(province, rushHeaviest, rushSubtotal, true)
	}
	result.Total = result.Subtotal.Add(result.Tax).Add(result.RushDeliveryFee)
	return result
}

func priceLine(line QuoteLine, price decimal.Decimal) LineDetail {
	p := line.Product
	return LineDetail{
		ProductID: p.ID,
		Title:     p.Title,
		Price:     price,
		Quantity:  line.Quantity,
		Subtotal:  price.Mul(decimal.NewFromInt(int64(line.Quantity))),
		ImageURL:  p.ImageURL,
		Category:  p.Category,
		Weight:    p.Weight,
	}
}
