package pricing

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var vnd = currency.MustParseISO("VND")

// Format renders a VND amount for display in lang. It is never fed back into pricing.
func Format(amount decimal.Decimal, lang language.Tag) string {
	p := message.NewPrinter(lang)
	return p.Sprint(currency.Symbol(vnd.Amount(amount.Round(0).InexactFloat64())))
}
