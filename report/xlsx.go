package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	SheetName    = "Trabajos"
	xlsxFirstRow = 6
	amountFormat = "#,##0"
)

// RenderXLSX writes the same rows as the PDF plus a totals block.
func RenderXLSX(in Input) ([]byte, error) {
	if len(in.Records) == 0 {
		return nil, ErrNothingToExport
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:   Title,
		Creator: BusinessName,
		Created: in.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}); err != nil {
		return nil, err
	}

	styles, err := newXLSXStyles(f)
	if err != nil {
		return nil, err
	}

	set := func(cell string, v any) {
		if err == nil {
			err = f.SetCellValue(SheetName, cell, v)
		}
	}
	style := func(from, to string, id int) {
		if err == nil {
			err = f.SetCellStyle(SheetName, from, to, id)
		}
	}

	set("A1", BusinessName)
	style("A1", "A1", styles.title)
	set("A2", Title)
	set("A3", "Generado: "+in.GeneratedAt.Format("02/01/2006 15:04"))
	set("A4", "Período: "+PeriodLabel(in.Filter))

	for i, title := range columnTitles {
		set(cellName(i+1, xlsxFirstRow-1), title)
	}
	style(cellName(1, xlsxFirstRow-1), cellName(4, xlsxFirstRow-1), styles.header)

	row := xlsxFirstRow
	for i := range in.Records {
		rec := &in.Records[i]
		set(cellName(1, row), rec.ServiceDate.Format())
		set(cellName(2, row), rec.ClientLabel(" / "))
		set(cellName(3, row), rec.ServiceDescription)
		set(cellName(4, row), rec.AmountCharged.InexactFloat64())
		row++
	}
	style(cellName(4, xlsxFirstRow), cellName(4, row-1), styles.amount)

	row++
	totals := []struct {
		label string
		value any
	}{
		{"Trabajos realizados", in.Stats.Count},
		{"Total ganancias", in.Stats.Total.InexactFloat64()},
		{"Promedio", in.Stats.Average.Round(0).InexactFloat64()},
	}
	for _, t := range totals {
		set(cellName(3, row), t.label)
		set(cellName(4, row), t.value)
		style(cellName(3, row), cellName(3, row), styles.bold)
		style(cellName(4, row), cellName(4, row), styles.amount)
		row++
	}

	for col, width := range []float64{12, 32, 48, 16} {
		c, _ := excelize.ColumnNumberToName(col + 1)
		if err == nil {
			err = f.SetColWidth(SheetName, c, c, width)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

type xlsxStyles struct {
	title, header, amount, bold int
}

func newXLSXStyles(f *excelize.File) (xlsxStyles, error) {
	var s xlsxStyles
	var err error
	numFmt := amountFormat
	if s.title, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}}); err != nil {
		return s, err
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"191923"}},
	}); err != nil {
		return s, err
	}
	if s.amount, err = f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt}); err != nil {
		return s, err
	}
	if s.bold, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return s, err
	}
	return s, nil
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
