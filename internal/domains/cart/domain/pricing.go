package domain

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	VATRate               = decimal.NewFromFloat(0.1)
	FreeShippingThreshold = decimal.NewFromInt(100000)
	FreeShippingCap       = decimal.NewFromInt(25000)
	RushSurchargePerUnit  = decimal.NewFromInt(10000)

	innerCityBaseFee = decimal.NewFromInt(22000)
	outerBaseFee     = decimal.NewFromInt(30000)
	halfKiloFee      = decimal.NewFromInt(2500)
	discountCeiling  = decimal.NewFromInt(2500)
)

const (
	innerCityBaseWeight = 3.0
	outerBaseWeight     = 0.5
	weightStep          = 0.5
)

var innerCityKeywords = []string{"hanoi", "hà nội", "ha noi", "ho chi minh", "hồ chí minh", "hcmc", "saigon", "sài gòn"}

// IsInnerCity reports whether the province names Hanoi or Ho Chi Minh City.
func IsInnerCity(province string) bool {
	normalized := strings.ToLower(strings.TrimSpace(province))
	if normalized == "" {
		return false
	}
	for _, keyword := range innerCityKeywords {
		if strings.Contains(normalized, keyword) {
			return true
		}
	}
	return false
}

// DeliveryFee prices a shipment by destination and heaviest item weight. Non-rush shipments
// with subtotal >= FreeShippingThreshold get up to FreeShippingCap waived.
func DeliveryFee(province string, heaviestKg float64, subtotal decimal.Decimal, rush bool) decimal.Decimal {
	fee, base := outerBaseFee, outerBaseWeight
	if IsInnerCity(province) {
		fee, base = innerCityBaseFee, innerCityBaseWeight
	}
	if heaviestKg > base {
		steps := int64(math.Ceil((heaviestKg - base) / weightStep))
		fee = fee.Add(halfKiloFee.Mul(decimal.NewFromInt(steps)))
	}
	if !rush && subtotal.GreaterThanOrEqual(FreeShippingThreshold) {
		if fee.LessThanOrEqual(FreeShippingCap) {
			return decimal.Zero
		}
		return fee.Sub(FreeShippingCap)
	}
	return fee
}

// VAT returns the tax due on subtotal.
func VAT(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(VATRate)
}

// IsEligibleForFreeShipping reports whether a cart total qualifies for the shipping waiver.
func IsEligibleForFreeShipping(totalBeforeVAT decimal.Decimal) bool {
	return totalBeforeVAT.GreaterThanOrEqual(FreeShippingThreshold)
}

// ShippingDiscount is the legacy discount helper: 2,500 when fee exceeds the cap, else the whole fee,
// and nothing for carts below the free shipping threshold.
func ShippingDiscount(totalBeforeVAT, fee decimal.Decimal) decimal.Decimal {
	if !IsEligibleForFreeShipping(totalBeforeVAT) {
		return decimal.Zero
	}
	if fee.GreaterThan(FreeShippingCap) {
		return discountCeiling
	}
	return fee
}

// TotalIncludingVAT multiplies the total by itself and by rate. It is kept for API compatibility
// with existing invoice consumers and is not used by Quote.
func TotalIncludingVAT(totalBeforeVAT, rate decimal.Decimal) decimal.Decimal {
	return totalBeforeVAT.Mul(totalBeforeVAT).Mul(rate)
}

// FinalAmount combines TotalIncludingVAT with the delivery fee net of ShippingDiscount.
func FinalAmount(totalBeforeVAT, rate, fee decimal.Decimal) decimal.Decimal {
	return TotalIncludingVAT(totalBeforeVAT, rate).Add(fee.Sub(ShippingDiscount(totalBeforeVAT, fee)))
}
