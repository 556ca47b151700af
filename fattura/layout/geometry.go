package layout

// A4 portrait in points, 40pt margins all around, matching the fixed
// geometry of the approval frontend's print view.
const (
	pageWidth    = 595.28
	pageHeight   = 841.89
	marginLeft   = 40.0
	marginTop    = 40.0
	marginRight  = 40.0
	marginBottom = 40.0

	contentWidth = pageWidth - marginLeft - marginRight
	contentRight = pageWidth - marginRight
)

const (
	titleFontSize    = 16.0
	subtitleFontSize = 10.0
	sectionFontSize  = 10.0
	partyFontSize    = 8.0
	tableFontSize    = 9.0
	totalsFontSize   = 11.0
	grandFontSize    = 12.0

	partyLineHeight = 11.0
	descLineHeight  = 10.0

	headerRowHeight = 18.0
	baseRowHeight   = 15.0
	rowPadding      = 4.0
	// Bounds runaway wrapping of a single description; anything taller
	// is truncated visually.
	maxRowHeight = 120.0

	qrSize = 56.0
)

type column struct {
	title string
	width float64
}

// Fixed eight column layout of the line-items table. Widths sum to the
// usable content width.
var tableColumns = []column{
	{"Nr", 25},
	{"Codice", 60},
	{"Descrizione", 170.28},
	{"Qta", 40},
	{"UM", 30},
	{"Prezzo Unit.", 70},
	{"IVA %", 40},
	{"Importo", 80},
}

// columnX returns the left edge of column i.
func columnX(i int) float64 {
	x := marginLeft
	for j := 0; j < i; j++ {
		x += tableColumns[j].width
	}
	return x
}
