// Package qr builds the verification code printed on the rendered
// document. The payload ties the paper copy to the stored record:
// seller VAT id, document number, date and total, pipe separated.
package qr

import (
	"fmt"

	"github.com/skip2/go-qrcode"

	"github.com/alapierre/go-fattura/fattura/model"
)

// Payload returns the verification string for one invoice.
func Payload(inv *model.Invoice) string {
	return fmt.Sprintf("%s|%s|%s|%s", inv.Seller.TaxID, inv.Number, inv.Date, inv.Total)
}

// Encode renders the payload as a PNG image.
func Encode(content string) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Medium, 300)
}
