// Package model defines the canonical invoice record produced by the
// normalizer and consumed by the layout engine and the store.
package model

import (
	"fmt"
	"strings"
)

// NotAvailable is the sentinel stored in required fields that could not
// be extracted from the source document.
const NotAvailable = "N/A"

type Status int

const (
	StatusPending Status = iota
	StatusApproved
	StatusRejected
)

// String returns the persisted form of the status. The values match the
// workflow states of the approval database.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "in_attesa"
	case StatusApproved:
		return "approvato"
	case StatusRejected:
		return "rifiutato"
	}
	panic("invalid invoice status")
}

func (s *Status) UnmarshalText(text []byte) error {
	val := strings.ToLower(strings.TrimSpace(string(text)))

	switch val {
	case "in_attesa":
		*s = StatusPending
	case "approvato":
		*s = StatusApproved
	case "rifiutato":
		*s = StatusRejected
	default:
		return fmt.Errorf("invalid invoice status: %q (allowed: in_attesa, approvato, rifiutato)", val)
	}
	return nil
}

// Party is one side of the invoice, either the seller (cedente) or the
// buyer (cessionario). Seller-only fields stay empty on the buyer.
type Party struct {
	Name         string
	TaxID        string
	FiscalCode   string
	FiscalRegime string
	Address      string
	StreetNumber string
	PostalCode   string
	Municipality string
	Province     string
	Country      string
	Email        string
	Phone        string
	Registration *BusinessRegistration
}

// BusinessRegistration is the REA registry group of the seller. It is
// present as a whole or not at all.
type BusinessRegistration struct {
	Office            string
	Number            string
	ShareCapital      string
	SoleShareholder   string
	LiquidationStatus string
}

type LineItem struct {
	LineNumber          string
	ArticleCode         string
	Description         string
	Quantity            string
	UnitOfMeasure       string
	UnitPrice           string
	DiscountOrSurcharge string
	VATRate             string
	Total               string
}

type PaymentInstallment struct {
	MethodCode        string
	MethodDescription string
	ReferenceDate     string
	TermDays          string
	DueDate           string
	Amount            string
	Beneficiary       string
	IBAN              string
	BIC               string
}

type Intermediary struct {
	Name       string
	TaxID      string
	FiscalCode string
}

// Invoice is the canonical record for one source document. It is built
// once by the extractor and never mutated by the core pipeline; only
// the workflow changes Status, Note and Approver through the store.
type Invoice struct {
	ID       int64
	Status   Status
	Note     string
	Approver string

	Number                  string
	Date                    string
	DocumentType            string
	DocumentTypeDescription string
	Currency                string
	TaxRegimeArticle        string
	Reason                  string
	RecipientCode           string
	RecipientPEC            string

	Seller Party
	Buyer  Party

	Lines []LineItem

	Total         string
	TaxableAmount string
	TaxAmount     string
	VATRate       string
	VATCollection string

	PaymentTerms string
	Installments []PaymentInstallment

	Intermediary *Intermediary
	IssuerRole   string
}
