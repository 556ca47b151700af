package layout

import (
	"bytes"
	"math"
	"testing"

	"github.com/go-pdf/fpdf"
	"github.com/stretchr/testify/assert"

	"github.com/alapierre/go-fattura/fattura/model"
)

func sampleInvoice(lines int) *model.Invoice {
	inv := &model.Invoice{
		Number:                  "42",
		Date:                    "2024-03-15",
		DocumentType:            "TD01",
		DocumentTypeDescription: "Fattura",
		Currency:                "EUR",
		Seller: model.Party{
			Name: "Acme Srl", TaxID: "01234567890",
			Address: "Via Roma", PostalCode: "00100", Municipality: "Roma", Province: "RM",
		},
		Buyer: model.Party{
			Name: "Beta Spa", TaxID: "09876543210",
			Address: "Corso Milano", PostalCode: "20100", Municipality: "Milano", Province: "MI",
		},
		Total:         "€ 122,00",
		TaxableAmount: "€ 100,00",
		TaxAmount:     "€ 22,00",
		VATRate:       "22.00",
	}
	for i := 0; i < lines; i++ {
		inv.Lines = append(inv.Lines, model.LineItem{
			Description: "Consulting",
			Quantity:    "1,00",
			UnitPrice:   "€ 100,00",
			Total:       "€ 100,00",
		})
	}
	return inv
}

func newTestDoc(measure MeasureFunc) *doc {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	return &doc{
		pdf:     pdf,
		tr:      pdf.UnicodeTranslatorFromDescriptor(""),
		measure: measure,
	}
}

func TestRender_SinglePage(t *testing.T) {
	out, err := NewRenderer().Render(sampleInvoice(1))
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")), "output should be a PDF stream")
}

func TestRender_OneRowOnePage(t *testing.T) {
	r := NewRenderer()
	pdf, err := r.render(sampleInvoice(1))
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	assert.Equal(t, 1, pdf.PageCount())
}

func TestRender_WithQR(t *testing.T) {
	out, err := NewRenderer(WithQR()).Render(sampleInvoice(1))
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestRowHeight_BaseWhenShort(t *testing.T) {
	d := &doc{measure: func(string, float64) float64 { return descLineHeight }}

	h := d.rowHeight(model.LineItem{Description: "corta"})
	assert.Equal(t, baseRowHeight, h, "short descriptions use the base row height")
}

func TestRowHeight_MeasuredPlusPadding(t *testing.T) {
	d := &doc{measure: func(string, float64) float64 { return 50 }}

	h := d.rowHeight(model.LineItem{Description: "lunga"})
	assert.Equal(t, 54.0, h, "tall rows are measured height plus padding")
}

func TestRowHeight_Clamped(t *testing.T) {
	d := &doc{measure: func(string, float64) float64 { return 10000 }}

	h := d.rowHeight(model.LineItem{Description: "fuori misura"})
	assert.Equal(t, maxRowHeight, h)
}

func TestLineTable_EmptyEmitsOnlyHeader(t *testing.T) {
	d := newTestDoc(nil)
	c := cursor{page: 1, x: marginLeft, y: marginTop}

	out := d.lineTable(c, sampleInvoice(0))

	assert.Equal(t, 1, d.headerRows)
	assert.Equal(t, 1, out.page)
	assert.InDelta(t, marginTop+headerRowHeight+10, out.y, 0.01)
}

func TestLineTable_CursorAdvancesByRowHeight(t *testing.T) {
	d := newTestDoc(func(string, float64) float64 { return 50 })
	c := cursor{page: 1, x: marginLeft, y: marginTop}

	out := d.lineTable(c, sampleInvoice(2))

	// Two rows of 50+4 each beneath the header, plus trailing spacing.
	assert.InDelta(t, marginTop+headerRowHeight+2*54+10, out.y, 0.01)
}

func TestLineTable_PageBreaks(t *testing.T) {
	const rowH = 100.0 // 96 measured + 4 padding
	const n = 20

	d := newTestDoc(func(string, float64) float64 { return rowH - rowPadding })
	c := cursor{page: 1, x: marginLeft, y: marginTop}

	out := d.lineTable(c, sampleInvoice(n))

	// Every page carrying rows starts with the header band; the rest
	// of the content height holds floor(h/rowH) rows.
	perPage := math.Floor((pageHeight - marginTop - marginBottom - headerRowHeight) / rowH)
	wantPages := int(math.Ceil(n / perPage))

	assert.Equal(t, wantPages, out.page)
	assert.Equal(t, wantPages, d.pdf.PageCount())
	assert.Equal(t, wantPages, d.headerRows, "header is redrawn on every page containing rows")
}

func TestColumnGeometry(t *testing.T) {
	var sum float64
	for _, col := range tableColumns {
		sum += col.width
	}
	assert.InDelta(t, contentWidth, sum, 0.01, "column widths fill the usable width")
	assert.InDelta(t, marginLeft+tableColumns[0].width, columnX(1), 0.01)
}
