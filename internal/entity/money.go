package entity

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

var amountNoise = strings.NewReplacer("$", "", ",", "", " ", "", "\t", "")

// ParseAmount normalizes a captured money string ("$2,000", "1,250.00") to an
// exact decimal. Empty input resolves to zero.
func ParseAmount(s string) (decimal.Decimal, error) {
	clean := amountNoise.Replace(strings.TrimSpace(s))
	if clean == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(clean)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return d, nil
}

// FormatMoney renders d with thousands separators and exactly two decimals,
// without a currency symbol: 1250 -> "1,250.00".
func FormatMoney(d decimal.Decimal) string {
	d = d.Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	whole := d.Truncate(0)
	cents := d.Sub(whole).Shift(2).IntPart()
	return fmt.Sprintf("%s%s.%02d", sign, humanize.Comma(whole.IntPart()), cents)
}

// CheckAmount reports whether a captured amount can be billed. A missing
// amount is allowed and bills as zero.
func CheckAmount(p *string) error {
	if p == nil {
		return nil
	}
	_, err := ParseAmount(*p)
	return err
}

// DisplayAmount parses a captured amount and formats it as "$1,250.00".
// Callers check unparseable input with CheckAmount first; here it displays
// as zero.
func DisplayAmount(p *string) string {
	var d decimal.Decimal
	if p != nil {
		if v, err := ParseAmount(*p); err == nil {
			d = v
		}
	}
	return "$" + FormatMoney(d)
}
