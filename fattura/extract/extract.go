// Package extract normalizes a parsed FatturaPA tree into the
// canonical invoice record. Structural sections (root, header, body)
// are mandatory; every other field degrades to a sentinel or to absent
// instead of failing.
package extract

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/alapierre/go-fattura/fattura/format"
	"github.com/alapierre/go-fattura/fattura/model"
	"github.com/alapierre/go-fattura/fattura/xmltree"
)

var logger = logrus.WithField("component", "fattura.extract")

// rootMarker identifies the document family in the top-level tag,
// whatever namespace prefix the sender used.
const rootMarker = "FatturaElettronica"

// ExtractionError reports a missing structural section. It aborts the
// whole document, no partial record is produced.
type ExtractionError struct {
	Section string
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("fattura: missing %s", e.Section)
}

// Extract builds a complete invoice record from the generic tree. The
// returned record has no id and the pending status; required fields
// missing from the source carry the N/A sentinel, optional fields stay
// empty and optional groups stay nil.
func Extract(tree *xmltree.Node) (*model.Invoice, error) {
	root := tree.FindRoot(rootMarker)
	if root == nil {
		return nil, &ExtractionError{Section: "root"}
	}

	header := root.FirstOf("FatturaElettronicaHeader", "p:FatturaElettronicaHeader")
	if header == nil {
		return nil, &ExtractionError{Section: "header"}
	}
	body := root.FirstOf("FatturaElettronicaBody", "p:FatturaElettronicaBody")
	if body == nil {
		return nil, &ExtractionError{Section: "body"}
	}

	general := body.First("DatiGenerali", "DatiGeneraliDocumento")
	goods := body.First("DatiBeniServizi")
	summary := goods.First("DatiRiepilogo")
	payment := body.First("DatiPagamento")

	// The document currency is resolved once and reused for every
	// monetary field so formatting stays consistent.
	currency := opt(general.First("Divisa"))
	money := func(raw string) string {
		return format.WithCurrency(format.Amount(raw), currency)
	}

	docType := req(general.First("TipoDocumento"))

	inv := &model.Invoice{
		Status: model.StatusPending,

		Number:                  req(general.First("Numero")),
		Date:                    req(general.First("Data")),
		DocumentType:            docType,
		DocumentTypeDescription: format.DocumentType(docType),
		Currency:                currency,
		TaxRegimeArticle:        req(general.First("Art73")),
		Reason:                  opt(general.First("Causale")),
		RecipientCode:           req(header.First("DatiTrasmissione", "CodiceDestinatario")),
		RecipientPEC:            opt(header.First("DatiTrasmissione", "PECDestinatario")),

		Seller: extractSeller(header.First("CedentePrestatore")),
		Buyer:  extractBuyer(header.First("CessionarioCommittente")),

		Lines: extractLines(goods, money),

		Total:         money(documentTotal(general, summary)),
		TaxableAmount: money(req(summary.First("ImponibileImporto"))),
		TaxAmount:     money(req(summary.First("Imposta"))),
		VATRate:       req(summary.First("AliquotaIVA")),
		VATCollection: opt(summary.First("EsigibilitaIVA")),

		PaymentTerms: opt(payment.First("CondizioniPagamento")),
		Installments: extractInstallments(payment, money),

		Intermediary: extractIntermediary(header.First("TerzoIntermediarioOSoggettoEmittente")),
		IssuerRole:   opt(header.First("SoggettoEmittente")),
	}

	logger.WithFields(logrus.Fields{
		"number": inv.Number,
		"date":   inv.Date,
		"lines":  len(inv.Lines),
	}).Debug("invoice extracted")

	return inv, nil
}

// req resolves a required leaf, falling back to the N/A sentinel.
func req(n *xmltree.Node) string {
	return n.Text(model.NotAvailable)
}

// opt resolves an optional leaf, falling back to absent.
func opt(n *xmltree.Node) string {
	return n.Text("")
}

// documentTotal resolves the document total from its two legal
// locations, primary path first.
func documentTotal(general, summary *xmltree.Node) string {
	if v := opt(general.First("ImportoTotaleDocumento")); v != "" {
		return v
	}
	logger.Debug("document total missing from general data, trying summary")
	return opt(summary.First("ImportoTotaleDocumento"))
}

func extractSeller(n *xmltree.Node) model.Party {
	anag := n.First("DatiAnagrafici")
	seat := n.First("Sede")
	contacts := n.First("Contatti")

	return model.Party{
		Name:         req(anag.First("Anagrafica", "Denominazione")),
		TaxID:        req(anag.First("IdFiscaleIVA", "IdCodice")),
		FiscalCode:   opt(anag.First("CodiceFiscale")),
		FiscalRegime: opt(anag.First("RegimeFiscale")),
		Address:      req(seat.First("Indirizzo")),
		StreetNumber: opt(seat.First("NumeroCivico")),
		PostalCode:   req(seat.First("CAP")),
		Municipality: req(seat.First("Comune")),
		Province:     req(seat.First("Provincia")),
		Country:      opt(seat.First("Nazione")),
		Email:        opt(contacts.First("Email")),
		Phone:        opt(contacts.First("Telefono")),
		Registration: extractRegistration(n.First("IscrizioneREA")),
	}
}

func extractBuyer(n *xmltree.Node) model.Party {
	anag := n.First("DatiAnagrafici")
	seat := n.First("Sede")

	return model.Party{
		Name:         req(anag.First("Anagrafica", "Denominazione")),
		TaxID:        req(anag.First("IdFiscaleIVA", "IdCodice")),
		FiscalCode:   opt(anag.First("CodiceFiscale")),
		Address:      req(seat.First("Indirizzo")),
		StreetNumber: opt(seat.First("NumeroCivico")),
		PostalCode:   req(seat.First("CAP")),
		Municipality: req(seat.First("Comune")),
		Province:     req(seat.First("Provincia")),
		Country:      opt(seat.First("Nazione")),
	}
}

// extractRegistration builds the REA group only when its anchor field
// is present, so a group of bare sentinels is never emitted.
func extractRegistration(n *xmltree.Node) *model.BusinessRegistration {
	office := opt(n.First("Ufficio"))
	if office == "" {
		return nil
	}
	return &model.BusinessRegistration{
		Office:            office,
		Number:            opt(n.First("NumeroREA")),
		ShareCapital:      opt(n.First("CapitaleSociale")),
		SoleShareholder:   opt(n.First("SocioUnico")),
		LiquidationStatus: opt(n.First("StatoLiquidazione")),
	}
}

func extractIntermediary(n *xmltree.Node) *model.Intermediary {
	anag := n.First("DatiAnagrafici")
	name := opt(anag.First("Anagrafica", "Denominazione"))
	if name == "" {
		return nil
	}
	return &model.Intermediary{
		Name:       name,
		TaxID:      opt(anag.First("IdFiscaleIVA", "IdCodice")),
		FiscalCode: opt(anag.First("CodiceFiscale")),
	}
}

func extractLines(goods *xmltree.Node, money func(string) string) []model.LineItem {
	var lines []model.LineItem
	for _, line := range goods.All("DettaglioLinee") {
		lines = append(lines, model.LineItem{
			LineNumber:          opt(line.First("NumeroLinea")),
			ArticleCode:         opt(line.First("CodiceArticolo", "CodiceValore")),
			Description:         req(line.First("Descrizione")),
			Quantity:            format.Amount(req(line.First("Quantita"))),
			UnitOfMeasure:       opt(line.First("UnitaMisura")),
			UnitPrice:           money(req(line.First("PrezzoUnitario"))),
			DiscountOrSurcharge: opt(line.First("ScontoMaggiorazione", "Percentuale")),
			VATRate:             opt(line.First("AliquotaIVA")),
			Total:               money(lineTotal(line)),
		})
	}
	return lines
}

// lineTotal mirrors the two spellings of the line amount found in the
// wild: PrezzoTotale first, ImportoLinea as fallback.
func lineTotal(line *xmltree.Node) string {
	if v := opt(line.First("PrezzoTotale")); v != "" {
		return v
	}
	return opt(line.First("ImportoLinea"))
}

func extractInstallments(payment *xmltree.Node, money func(string) string) []model.PaymentInstallment {
	var out []model.PaymentInstallment
	for _, d := range payment.All("DettaglioPagamento") {
		code := req(d.First("ModalitaPagamento"))

		amount := opt(d.First("ImportoPagamento"))
		if amount != "" {
			amount = money(amount)
		}

		out = append(out, model.PaymentInstallment{
			MethodCode:        code,
			MethodDescription: format.PaymentMethod(code),
			ReferenceDate:     opt(d.First("DataRiferimentoTerminiPagamento")),
			TermDays:          opt(d.First("GiorniTerminiPagamento")),
			DueDate:           opt(d.First("DataScadenzaPagamento")),
			Amount:            amount,
			Beneficiary:       opt(d.First("Beneficiario")),
			IBAN:              opt(d.First("IBAN")),
			BIC:               opt(d.First("BIC")),
		})
	}
	return out
}
