// Package report renders a filtered work registry as a downloadable document.
package report

import (
	"errors"
	"fmt"
	"time"

	"barberpro-backend/models"
	"barberpro-backend/services"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

const (
	BusinessName = "302 BARBER"
	Title        = "Registro de Trabajos"
	FooterLabel  = "302 Barber - Sistema de Gestión"

	filePrefix = "302-barber-registro-"
)

// ErrNothingToExport is returned before any rendering when there are no
// records.
var ErrNothingToExport = errors.New("no hay datos para descargar")

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatPDF:
		return FormatPDF, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "application/pdf"
}

// Input is everything a renderer needs. GeneratedAt is in business-local time.
type Input struct {
	Records     []models.WorkRecord
	Stats       services.AggregateStats
	Filter      services.DateFilter
	GeneratedAt time.Time
}

func FromAggregate(a *services.Aggregate) Input {
	return Input{
		Records:     a.Records,
		Stats:       a.Stats,
		Filter:      a.Filter,
		GeneratedAt: a.GeneratedAt,
	}
}

// Render produces the document bytes for format.
func Render(format Format, in Input) ([]byte, error) {
	if len(in.Records) == 0 {
		return nil, ErrNothingToExport
	}
	switch format {
	case FormatPDF:
		return RenderPDF(in)
	case FormatXLSX:
		return RenderXLSX(in)
	}
	return nil, fmt.Errorf("unsupported export format %q", format)
}

// PeriodLabel is the human-readable description of the filter.
func PeriodLabel(f services.DateFilter) string {
	switch f.Kind {
	case services.FilterToday:
		return "Hoy"
	case services.FilterMonth:
		return "Este mes"
	case services.FilterCustom:
		to := f.To
		if to.IsZero() {
			to = f.From
		}
		return f.From.Format() + " - " + to.Format()
	}
	return "Todos los registros"
}

// FormatAmount renders whole currency units with '.' thousands separators,
// e.g. 130000 -> "130.000".
func FormatAmount(d decimal.Decimal) string {
	return humanize.FormatInteger("#.###,", int(d.Round(0).IntPart()))
}

// FormatMoney prefixes FormatAmount with symbol.
func FormatMoney(symbol string, d decimal.Decimal) string {
	return symbol + FormatAmount(d)
}

// FileName embeds the generation time to the minute.
func FileName(format Format, at time.Time) string {
	return filePrefix + at.Format("2006-01-02-1504") + "." + string(format)
}
