package cli

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/AdityaKumar3594/Kishan-Saathi/internal/money"
)

// indian groups digits the way rupee amounts are read aloud:
// 12,34,567 rather than 1,234,567.
var indian = message.NewPrinter(language.MustParse("en-IN"))

// formatPaise renders a paise amount as rupees, e.g. "₹1,23,456.07".
func formatPaise(p money.Paise) string {
	sign := ""
	if p < 0 {
		sign = "-"
		p = -p
	}
	rupees := int64(p) / 100
	paise := int64(p) % 100
	return indian.Sprintf("%s₹%v.%02d", sign, number.Decimal(rupees), paise)
}
