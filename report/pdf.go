package report

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

// PDF core fonts are cp1252 and have no guaraní sign.
const pdfCurrency = "Gs. "

const (
	margin      = 14.0
	bottomLimit = 20.0
	footerY     = 10.0
	tableStartY = 110.0
	headerRowH  = 10.0
	lineH       = 4.5
	rowPadY     = 2.5
	cellPadX    = 2.5
)

// Relative column widths for date, client, service and amount.
var columnWeights = [4]float64{28, 50, 72, 36}

var columnTitles = [4]string{"Fecha", "Cliente", "Servicio", "Monto"}

type rgb struct{ r, g, b int }

var (
	colorDark    = rgb{25, 25, 35}
	colorAccent  = rgb{132, 189, 0}
	colorPanel   = rgb{240, 240, 245}
	colorStripe  = rgb{248, 248, 250}
	colorWhite   = rgb{255, 255, 255}
	colorText    = rgb{40, 40, 40}
	colorMuted   = rgb{100, 100, 120}
	colorFooter  = rgb{120, 120, 120}
	colorRule    = rgb{220, 220, 220}
	colorSubtext = rgb{200, 200, 200}
)

// RenderPDF lays out the A4 work registry report.
func RenderPDF(in Input) ([]byte, error) {
	return renderPDF(in, true)
}

func renderPDF(in Input, compress bool) ([]byte, error) {
	if len(in.Records) == 0 {
		return nil, ErrNothingToExport
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(compress)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, bottomLimit)
	pdf.SetCellMargin(cellPadX)
	pdf.SetTitle(Title, true)
	pdf.SetCreator(BusinessName, true)
	pdf.SetCreationDate(in.GeneratedAt)
	pdf.SetModificationDate(in.GeneratedAt)

	w := &pdfWriter{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor(""), in: in}
	w.pageW, w.pageH = pdf.GetPageSize()
	w.widths = columnWidths(w.pageW - 2*margin)

	pdf.SetFooterFunc(w.footer)
	pdf.AddPage()
	w.header()
	w.summary()
	w.table()

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// columnWidths scales columnWeights to the printable width.
func columnWidths(printable float64) [4]float64 {
	var sum float64
	for _, c := range columnWeights {
		sum += c
	}
	var out [4]float64
	for i, c := range columnWeights {
		out[i] = printable * c / sum
	}
	return out
}

type pdfWriter struct {
	pdf    *fpdf.Fpdf
	tr     func(string) string
	in     Input
	pageW  float64
	pageH  float64
	widths [4]float64
}

func (w *pdfWriter) fill(c rgb)      { w.pdf.SetFillColor(c.r, c.g, c.b) }
func (w *pdfWriter) textColor(c rgb) { w.pdf.SetTextColor(c.r, c.g, c.b) }
func (w *pdfWriter) drawColor(c rgb) { w.pdf.SetDrawColor(c.r, c.g, c.b) }

func (w *pdfWriter) centered(y, h float64, s string) {
	w.pdf.SetXY(0, y)
	w.pdf.CellFormat(w.pageW, h, w.tr(s), "", 0, "C", false, 0, "")
}

func (w *pdfWriter) header() {
	pdf := w.pdf

	w.fill(colorDark)
	pdf.Rect(0, 0, w.pageW, 45, "F")

	w.textColor(colorWhite)
	pdf.SetFont("Helvetica", "B", 24)
	w.centered(11, 12, BusinessName)

	pdf.SetFont("Helvetica", "", 14)
	w.centered(24, 8, Title)

	pdf.SetFont("Helvetica", "", 9)
	w.textColor(colorSubtext)
	w.centered(34, 6, "Generado: "+w.in.GeneratedAt.Format("02/01/2006 15:04"))

	w.drawColor(colorAccent)
	pdf.SetLineWidth(1)
	pdf.Line(margin, 48, w.pageW-margin, 48)
	pdf.SetLineWidth(0.2)

	w.textColor(rgb{60, 60, 60})
	pdf.SetFont("Helvetica", "B", 10)
	label := w.tr("Período: ")
	pdf.SetXY(margin, 53)
	pdf.CellFormat(pdf.GetStringWidth(label)+2*cellPadX, 6, label, "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, w.tr(PeriodLabel(w.in.Filter)), "", 1, "L", false, 0, "")
}

func (w *pdfWriter) summary() {
	const (
		cardY = 68.0
		cardH = 24.0
		gap   = 7.0
	)
	cardW := (w.pageW - 2*margin - 2*gap) / 3
	stats := w.in.Stats

	w.card(margin, cardY, cardW, cardH, colorPanel, colorMuted, colorDark,
		"TRABAJOS REALIZADOS", fmt.Sprintf("%d", stats.Count), 16)
	w.card(margin+cardW+gap, cardY, cardW, cardH, colorAccent, colorWhite, colorWhite,
		"TOTAL GANANCIAS", FormatMoney(pdfCurrency, stats.Total), 14)
	w.card(margin+2*(cardW+gap), cardY, cardW, cardH, colorPanel, colorMuted, colorDark,
		"PROMEDIO", FormatMoney(pdfCurrency, stats.Average), 14)

	w.textColor(colorDark)
	w.pdf.SetFont("Helvetica", "B", 12)
	w.pdf.SetXY(margin-cellPadX, 100)
	w.pdf.CellFormat(0, 8, "Detalle de Trabajos", "", 1, "L", false, 0, "")
}

func (w *pdfWriter) card(x, y, cw, ch float64, bg, labelColor, valueColor rgb, label, value string, valueSize float64) {
	pdf := w.pdf
	w.fill(bg)
	pdf.RoundedRect(x, y, cw, ch, 3, "1234", "F")

	w.textColor(labelColor)
	pdf.SetFont("Helvetica", "", 8)
	pdf.SetXY(x, y+3)
	pdf.CellFormat(cw, 6, w.tr(label), "", 0, "C", false, 0, "")

	w.textColor(valueColor)
	pdf.SetFont("Helvetica", "B", valueSize)
	pdf.SetXY(x, y+11)
	pdf.CellFormat(cw, 9, w.tr(value), "", 0, "C", false, 0, "")
}

func (w *pdfWriter) tableHeader(y float64) float64 {
	pdf := w.pdf
	w.fill(colorDark)
	w.textColor(colorWhite)
	pdf.SetFont("Helvetica", "B", 10)
	x := margin
	for i, title := range columnTitles {
		align := "L"
		if i == 3 {
			align = "R"
		}
		pdf.SetXY(x, y)
		pdf.CellFormat(w.widths[i], headerRowH, title, "", 0, align, true, 0, "")
		x += w.widths[i]
	}
	return y + headerRowH
}

// setCellFont selects the font a column is both measured and drawn with.
func (w *pdfWriter) setCellFont(col int) {
	if col == 3 {
		w.pdf.SetFont("Helvetica", "B", 9)
		w.textColor(colorAccent)
		return
	}
	w.pdf.SetFont("Helvetica", "", 9)
	w.textColor(colorText)
}

// wrap splits s into lines that fit the column, honouring explicit newlines.
func (w *pdfWriter) wrap(col int, s string) [][]byte {
	w.setCellFont(col)
	var lines [][]byte
	for _, part := range strings.Split(s, "\n") {
		split := w.pdf.SplitLines([]byte(w.tr(part)), w.widths[col])
		if len(split) == 0 {
			split = [][]byte{nil}
		}
		lines = append(lines, split...)
	}
	return lines
}

func (w *pdfWriter) table() {
	pdf := w.pdf
	y := w.tableHeader(tableStartY)
	limit := w.pageH - bottomLimit

	for i := range w.in.Records {
		rec := &w.in.Records[i]
		cells := [4][][]byte{
			w.wrap(0, rec.ServiceDate.Format()),
			w.wrap(1, rec.ClientLabel("\n")),
			w.wrap(2, rec.ServiceDescription),
			w.wrap(3, pdfCurrency+FormatAmount(rec.AmountCharged)),
		}
		n := 1
		for _, c := range cells {
			if len(c) > n {
				n = len(c)
			}
		}
		rowH := float64(n)*lineH + 2*rowPadY

		if y+rowH > limit {
			pdf.AddPage()
			y = w.tableHeader(margin)
		}

		bg := colorWhite
		if i%2 == 1 {
			bg = colorStripe
		}
		w.fill(bg)
		pdf.Rect(margin, y, w.pageW-2*margin, rowH, "F")
		w.drawColor(colorRule)
		pdf.SetLineWidth(0.1)
		pdf.Line(margin, y+rowH, w.pageW-margin, y+rowH)

		x := margin
		for col, lines := range cells {
			w.setCellFont(col)
			align := "L"
			if col == 3 {
				align = "R"
			}
			for j, line := range lines {
				pdf.SetXY(x, y+rowPadY+float64(j)*lineH)
				pdf.CellFormat(w.widths[col], lineH, string(line), "", 0, align, false, 0, "")
			}
			x += w.widths[col]
		}
		y += rowH
	}
}

func (w *pdfWriter) footer() {
	pdf := w.pdf
	pdf.SetFont("Helvetica", "", 8)
	w.textColor(colorFooter)
	y := w.pageH - footerY

	page := w.tr(fmt.Sprintf("Página %d", pdf.PageNo()))
	pdf.Text((w.pageW-pdf.GetStringWidth(page))/2, y, page)
	pdf.Text(margin, y, w.tr(FooterLabel))
}
