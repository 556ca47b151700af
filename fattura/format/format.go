// Package format holds the locale-aware field formatting used both by
// the extractor and by the layout engine: amount rendering, currency
// symbols and the FatturaPA code tables.
package format

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alapierre/go-fattura/fattura/model"
)

// Amount parses v as a decimal number and renders it with exactly two
// fraction digits in the Italian convention ("." thousands separator,
// "," decimal separator). Unparsable input yields the N/A sentinel.
func Amount(v string) string {
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return model.NotAvailable
	}

	fixed := d.StringFixed(2)

	neg := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	dot := strings.IndexByte(fixed, '.')
	intPart, fracPart := fixed[:dot], fixed[dot+1:]

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	b.WriteByte(',')
	b.WriteString(fracPart)

	return b.String()
}

var currencySymbols = map[string]string{
	"EUR": "€",
	"USD": "$",
	"GBP": "£",
	"CHF": "Fr.",
	"JPY": "¥",
	"CNY": "¥",
	"CAD": "C$",
	"AUD": "A$",
	"SEK": "kr",
	"NOK": "kr",
	"DKK": "kr",
	"PLN": "zł",
	"CZK": "Kč",
	"HUF": "Ft",
	"RON": "lei",
}

// WithCurrency prefixes a formatted amount with the display symbol of
// the given ISO currency code. Unknown or empty codes leave the value
// untouched, and the N/A sentinel is never decorated.
func WithCurrency(formatted, code string) string {
	if formatted == model.NotAvailable {
		return formatted
	}
	symbol, ok := currencySymbols[strings.ToUpper(strings.TrimSpace(code))]
	if !ok {
		return formatted
	}
	return symbol + " " + formatted
}

// Percent renders a formatted rate with a percent suffix. The sentinel
// passes through unchanged.
func Percent(v string) string {
	formatted := Amount(v)
	if formatted == model.NotAvailable {
		return formatted
	}
	return formatted + "%"
}

// PaymentMethod maps a FatturaPA ModalitaPagamento code to its
// description. Unknown codes are returned unchanged, the mapping never
// fails.
func PaymentMethod(code string) string {
	if desc, ok := paymentMethods[code]; ok {
		return desc
	}
	return code
}

// DocumentType maps a FatturaPA TipoDocumento code to its description.
// Unknown codes are returned unchanged.
func DocumentType(code string) string {
	if desc, ok := documentTypes[code]; ok {
		return desc
	}
	return code
}
