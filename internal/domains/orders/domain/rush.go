package domain

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrRushIneligible         = errors.New("rush delivery not available")
	ErrRushAddressUnsupported = errors.New("Not supported address")
	ErrRushItemsUnsupported   = errors.New("Not supported items")
)

const rushProvince = "hanoi"

// InnerDistricts are the Hanoi districts served by rush delivery, compared without diacritics.
var InnerDistricts = []string{
	"Ba Dinh",
	"Hoan Kiem",
	"Tay Ho",
	"Long Bien",
	"Cau Giay",
	"Dong Da",
	"Hai Ba Trung",
	"Hoang Mai",
	"Thanh Xuan",
}

// IsRushAddress reports whether province and district are inside the rush delivery zone.
func IsRushAddress(province, district string) bool {
	if strings.ReplaceAll(fold(province), " ", "") != rushProvince {
		return false
	}
	d := fold(district)
	d = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(d, "quan "), "q. "))
	for _, inner := range InnerDistricts {
		if fold(inner) == d {
			return true
		}
	}
	return false
}

// fold lower-cases s, strips Vietnamese diacritics and collapses inner whitespace.
func fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	out = strings.NewReplacer("đ", "d", "Đ", "D").Replace(out)
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// StockLine compares one invoiced cart line against live stock.
type StockLine struct {
	ProductID int64
	Title     string
	Requested int
	Available int
}

func (l StockLine) Short() bool {
	return l.Requested > l.Available
}

// ShortageReason describes every short line as "title (requested: n, available: m)", joined by ", ".
// ok is false when every line is covered.
func ShortageReason(lines []StockLine) (reason string, ok bool) {
	var parts []string
	for _, line := range lines {
		if line.Short() {
			parts = append(parts, fmt.Sprintf("%s (requested: %d, available: %d)", line.Title, line.Requested, line.Available))
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return "Order automatically rejected due to insufficient stock: " + strings.Join(parts, ", "), true
}
