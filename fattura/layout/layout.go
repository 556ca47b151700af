// Package layout renders the canonical invoice record as a paginated
// A4 PDF. The drawing state is a single explicit cursor value threaded
// through the section routines; it only ever advances.
package layout

import (
	"bytes"
	"strconv"

	"github.com/go-pdf/fpdf"
	"github.com/sirupsen/logrus"

	"github.com/alapierre/go-fattura/fattura/format"
	"github.com/alapierre/go-fattura/fattura/model"
	"github.com/alapierre/go-fattura/fattura/qr"
)

var logger = logrus.WithField("component", "fattura.layout")

// MeasureFunc measures the wrapped height of a text at a given column
// width. The default measures with the document's own font metrics; a
// replacement can be injected for tests.
type MeasureFunc func(text string, width float64) float64

type Renderer struct {
	withQR  bool
	measure MeasureFunc
}

type Option func(*Renderer)

// WithQR embeds a verification QR code in the title block.
func WithQR() Option {
	return func(r *Renderer) { r.withQR = true }
}

// WithMeasure replaces the text measurement primitive.
func WithMeasure(m MeasureFunc) Option {
	return func(r *Renderer) { r.measure = m }
}

func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render produces the finished document. The record is read only; all
// mutable drawing state lives in the per-call doc.
func (r *Renderer) Render(inv *model.Invoice) ([]byte, error) {
	pdf, err := r.render(inv)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"number": inv.Number,
		"pages":  pdf.PageCount(),
		"bytes":  buf.Len(),
	}).Debug("document rendered")

	return buf.Bytes(), nil
}

func (r *Renderer) render(inv *model.Invoice) (*fpdf.Fpdf, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(marginLeft, marginTop, marginRight)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	d := &doc{
		pdf:     pdf,
		tr:      pdf.UnicodeTranslatorFromDescriptor(""),
		measure: r.measure,
	}

	if r.withQR {
		png, err := qr.Encode(qr.Payload(inv))
		if err != nil {
			return nil, err
		}
		d.qrPNG = png
	}

	c := cursor{page: 1, x: marginLeft, y: marginTop}
	c = d.titleBlock(c, inv)
	c = d.partiesBlock(c, inv)
	c = d.lineTable(c, inv)
	c = d.totalsBlock(c, inv)
	d.paymentBlock(c, inv)

	if pdf.Err() {
		return nil, pdf.Error()
	}
	return pdf, nil
}

// cursor is the drawing position. Section routines take it by value
// and return the advanced position.
type cursor struct {
	page int
	x    float64
	y    float64
}

type doc struct {
	pdf     *fpdf.Fpdf
	tr      func(string) string
	measure MeasureFunc
	qrPNG   []byte

	headerRows int // table header draws, one per page carrying rows
}

// breakPage starts a new page and resets the cursor to the top margin.
func (d *doc) breakPage(c cursor) cursor {
	d.pdf.AddPage()
	c.page++
	c.y = marginTop
	return c
}

// ensure breaks the page when the next block of the given height would
// cross the bottom margin.
func (d *doc) ensure(c cursor, height float64) cursor {
	if c.y+height > pageHeight-marginBottom {
		c = d.breakPage(c)
	}
	return c
}

func (d *doc) text(x, y float64, s string) {
	d.pdf.Text(x, y, d.tr(s))
}

// titleBlock draws the centered document title, the "number | date"
// subtitle and a horizontal rule. Fixed height.
func (d *doc) titleBlock(c cursor, inv *model.Invoice) cursor {
	if d.qrPNG != nil {
		opts := fpdf.ImageOptions{ImageType: "PNG"}
		d.pdf.RegisterImageOptionsReader("verification-qr", opts, bytes.NewReader(d.qrPNG))
		d.pdf.ImageOptions("verification-qr", contentRight-qrSize, c.y-14, qrSize, qrSize, false, opts, 0, "")
	}

	title := inv.DocumentTypeDescription
	if title == "" || title == model.NotAvailable {
		title = "Fattura Elettronica"
	}

	d.pdf.SetFont("Helvetica", "B", titleFontSize)
	w := d.pdf.GetStringWidth(d.tr(title))
	d.text(marginLeft+(contentWidth-w)/2, c.y+titleFontSize, title)
	c.y += titleFontSize + 10

	d.pdf.SetFont("Helvetica", "", subtitleFontSize)
	d.text(marginLeft, c.y+subtitleFontSize, "Numero: "+inv.Number+" | Data: "+inv.Date)
	c.y += subtitleFontSize + 10

	d.pdf.Line(marginLeft, c.y, contentRight, c.y)
	c.y += 12

	return c
}

// partyLine is one label/value pair of the parties block. Conditional
// lines are omitted by the callers, never blanked.
func (d *doc) partyLine(c cursor, label, value string) cursor {
	d.pdf.SetFont("Helvetica", "B", partyFontSize)
	d.text(marginLeft+10, c.y+partyFontSize, label+":")
	d.pdf.SetFont("Helvetica", "", partyFontSize)
	d.text(marginLeft+150, c.y+partyFontSize, value)
	c.y += partyLineHeight
	return c
}

func (d *doc) partyHeader(c cursor, title string) cursor {
	c = d.ensure(c, 6*partyLineHeight)
	d.pdf.SetFont("Helvetica", "B", sectionFontSize)
	d.text(marginLeft, c.y+sectionFontSize, title)
	c.y += partyLineHeight + 4
	return c
}

// partiesBlock draws the stacked seller and buyer groups, then the
// optional intermediary. Its height depends on how many optional
// fields are present.
func (d *doc) partiesBlock(c cursor, inv *model.Invoice) cursor {
	c = d.partyHeader(c, "Cedente/Prestatore (fornitore)")
	c = d.partyLines(c, inv.Seller, true)
	c.y += 6

	c = d.partyHeader(c, "Cessionario/Committente")
	c = d.partyLines(c, inv.Buyer, false)
	c.y += 6

	if inv.Intermediary != nil {
		c = d.partyHeader(c, "Terzo intermediario o soggetto emittente")
		c = d.partyLine(c, "Denominazione", inv.Intermediary.Name)
		if inv.Intermediary.TaxID != "" {
			c = d.partyLine(c, "Identificativo fiscale ai fini IVA", inv.Intermediary.TaxID)
		}
		if inv.Intermediary.FiscalCode != "" {
			c = d.partyLine(c, "Codice Fiscale", inv.Intermediary.FiscalCode)
		}
		if inv.IssuerRole != "" {
			c = d.partyLine(c, "Soggetto emittente", inv.IssuerRole)
		}
		c.y += 6
	}

	c.y += 4
	return c
}

func (d *doc) partyLines(c cursor, p model.Party, seller bool) cursor {
	c = d.partyLine(c, "Denominazione", p.Name)
	c = d.partyLine(c, "Identificativo fiscale ai fini IVA", p.TaxID)
	if p.FiscalCode != "" {
		c = d.partyLine(c, "Codice Fiscale", p.FiscalCode)
	}
	if seller && p.FiscalRegime != "" {
		c = d.partyLine(c, "Regime fiscale", p.FiscalRegime)
	}

	address := p.Address
	if p.StreetNumber != "" {
		address += " " + p.StreetNumber
	}
	c = d.partyLine(c, "Indirizzo", address)
	c = d.partyLine(c, "Comune", p.Municipality+" ("+p.Province+")")
	c = d.partyLine(c, "Cap", p.PostalCode)
	if p.Country != "" {
		c = d.partyLine(c, "Nazione", p.Country)
	}
	if seller && p.Phone != "" {
		c = d.partyLine(c, "Telefono", p.Phone)
	}
	if seller && p.Email != "" {
		c = d.partyLine(c, "Email", p.Email)
	}
	if p.Registration != nil {
		c = d.partyLine(c, "REA", p.Registration.Office+"-"+p.Registration.Number)
		if p.Registration.ShareCapital != "" {
			c = d.partyLine(c, "Capitale sociale", format.Amount(p.Registration.ShareCapital))
		}
		if p.Registration.LiquidationStatus != "" {
			c = d.partyLine(c, "Stato liquidazione", p.Registration.LiquidationStatus)
		}
	}
	return c
}

// tableHeader draws the column header band and advances the cursor.
func (d *doc) tableHeader(c cursor) cursor {
	d.headerRows++

	d.pdf.SetFillColor(0xF0, 0xF0, 0xF0)
	d.pdf.Rect(marginLeft, c.y, contentWidth, headerRowHeight, "F")

	d.pdf.SetFont("Helvetica", "B", tableFontSize)
	for i, col := range tableColumns {
		d.text(columnX(i)+2, c.y+headerRowHeight-5, col.title)
	}
	c.y += headerRowHeight
	return c
}

// rowHeight computes the height of one table row from the wrapped
// height of its description, clamped so a single row can never exceed
// the page.
func (d *doc) rowHeight(line model.LineItem) float64 {
	descWidth := tableColumns[2].width - 4
	measured := d.wrappedHeight(line.Description, descWidth)

	h := measured + rowPadding
	if h < baseRowHeight {
		h = baseRowHeight
	}
	if h > maxRowHeight {
		h = maxRowHeight
	}
	return h
}

func (d *doc) wrappedHeight(text string, width float64) float64 {
	if d.measure != nil {
		return d.measure(text, width)
	}
	d.pdf.SetFont("Helvetica", "", tableFontSize)
	lines := d.pdf.SplitText(d.tr(text), width)
	if len(lines) == 0 {
		return descLineHeight
	}
	return float64(len(lines)) * descLineHeight
}

// lineTable draws the line-items table. A row never splits across
// pages: when it would cross the bottom margin the page breaks first
// and the header band is redrawn.
func (d *doc) lineTable(c cursor, inv *model.Invoice) cursor {
	c = d.ensure(c, headerRowHeight+baseRowHeight)
	c = d.tableHeader(c)

	for i, line := range inv.Lines {
		h := d.rowHeight(line)

		if c.y+h > pageHeight-marginBottom {
			c = d.breakPage(c)
			c = d.tableHeader(c)
		}

		if i%2 == 0 {
			d.pdf.SetFillColor(0xFA, 0xFA, 0xFA)
			d.pdf.Rect(marginLeft, c.y, contentWidth, h, "F")
		}

		d.lineRow(c, line, h)
		c.y += h
	}

	c.y += 10
	return c
}

// lineRow draws one row at the cursor without advancing it; the caller
// owns the advance.
func (d *doc) lineRow(c cursor, line model.LineItem, h float64) {
	d.pdf.SetFont("Helvetica", "", tableFontSize)

	cell := func(i int, v string) {
		if v == "" {
			v = "-"
		}
		d.text(columnX(i)+2, c.y+baseRowHeight-4, v)
	}

	cell(0, line.LineNumber)
	cell(1, line.ArticleCode)
	cell(3, line.Quantity)
	cell(4, line.UnitOfMeasure)
	cell(5, line.UnitPrice)
	if line.VATRate != "" {
		cell(6, format.Percent(line.VATRate))
	} else {
		cell(6, "")
	}
	cell(7, line.Total)

	// Description wraps inside its column; lines that no longer fit
	// the clamped row height are truncated.
	descWidth := tableColumns[2].width - 4
	wrapped := d.pdf.SplitText(d.tr(line.Description), descWidth)
	maxLines := int((h - rowPadding) / descLineHeight)
	if maxLines < 1 {
		maxLines = 1
	}
	if len(wrapped) > maxLines {
		wrapped = wrapped[:maxLines]
	}
	y := c.y + baseRowHeight - 4
	for _, ln := range wrapped {
		d.pdf.Text(columnX(2)+2, y, ln)
		y += descLineHeight
	}
}

// totalsBlock draws taxable amount, tax with its rate and the grand
// total between two rules.
func (d *doc) totalsBlock(c cursor, inv *model.Invoice) cursor {
	c = d.ensure(c, 4*totalsFontSize+30)

	d.pdf.SetFont("Helvetica", "B", totalsFontSize)
	d.text(marginLeft, c.y+totalsFontSize, "Totale imponibile: "+inv.TaxableAmount)
	c.y += totalsFontSize + 6
	d.text(marginLeft, c.y+totalsFontSize, "IVA ("+format.Percent(inv.VATRate)+"): "+inv.TaxAmount)
	c.y += totalsFontSize + 8

	d.pdf.Line(marginLeft, c.y, contentRight, c.y)
	c.y += 4
	d.pdf.SetFont("Helvetica", "B", grandFontSize)
	d.text(marginLeft, c.y+grandFontSize, "TOTALE: "+inv.Total)
	c.y += grandFontSize + 6
	d.pdf.Line(marginLeft, c.y, contentRight, c.y)
	c.y += 14

	return c
}

// paymentBlock draws the payment terms and one sub-block per
// installment. Omitted entirely when there are no installments.
func (d *doc) paymentBlock(c cursor, inv *model.Invoice) cursor {
	if len(inv.Installments) == 0 {
		return c
	}

	c = d.ensure(c, 5*partyLineHeight)
	d.pdf.SetFont("Helvetica", "B", sectionFontSize)
	d.text(marginLeft, c.y+sectionFontSize, "Dati pagamento")
	c.y += partyLineHeight + 4

	if inv.PaymentTerms != "" {
		c = d.partyLine(c, "Condizioni di pagamento", inv.PaymentTerms)
	}

	numbered := len(inv.Installments) > 1
	for i, in := range inv.Installments {
		c = d.ensure(c, 7*partyLineHeight)

		if numbered {
			d.pdf.SetFont("Helvetica", "B", partyFontSize)
			d.text(marginLeft, c.y+partyFontSize, "Rata "+strconv.Itoa(i+1))
			c.y += partyLineHeight
		}

		c = d.partyLine(c, "Modalità", in.MethodDescription+" ("+in.MethodCode+")")
		if in.Amount != "" {
			c = d.partyLine(c, "Importo", in.Amount)
		}
		if in.DueDate != "" {
			c = d.partyLine(c, "Scadenza", in.DueDate)
		}
		if in.ReferenceDate != "" {
			c = d.partyLine(c, "Data riferimento termini", in.ReferenceDate)
		}
		if in.TermDays != "" {
			c = d.partyLine(c, "Giorni termini", in.TermDays)
		}
		if in.IBAN != "" {
			c = d.partyLine(c, "IBAN", in.IBAN)
		}
		if in.BIC != "" {
			c = d.partyLine(c, "BIC", in.BIC)
		}
		if in.Beneficiary != "" {
			c = d.partyLine(c, "Beneficiario", in.Beneficiary)
		}
		c.y += 4
	}
	return c
}
