package report

import (
	"testing"
	"time"

	"barberpro-backend/models"
	"barberpro-backend/services"
	"barberpro-backend/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var generatedAt = time.Date(2025, 6, 20, 9, 5, 0, 0, time.FixedZone("PYT", -3*60*60))

func sampleInput(n int) Input {
	records := make([]models.WorkRecord, 0, n)
	for i := 0; i < n; i++ {
		var opts []testutil.WorkRecordOption
		switch i % 3 {
		case 0:
			opts = append(opts, testutil.WithClientName("Juan"))
		case 1:
			opts = append(opts, testutil.WithDescription("Corte degradé con diseño, perfilado de barba y lavado"))
		}
		w := testutil.NewTestWorkRecord(models.NewDate(2025, 6, 1+i%28), int64(50000+i*1000), opts...)
		if i%3 == 2 {
			w.Client = &models.Client{Name: "Carlos Benítez", IDNumber: "4.567.890"}
		}
		records = append(records, *w)
	}
	return Input{
		Records:     records,
		Stats:       services.ComputeStats(records),
		Filter:      services.CurrentMonth(),
		GeneratedAt: generatedAt,
	}
}

func TestPeriodLabel(t *testing.T) {
	assert.Equal(t, "Hoy", PeriodLabel(services.Today()))
	assert.Equal(t, "Este mes", PeriodLabel(services.CurrentMonth()))
	assert.Equal(t, "Todos los registros", PeriodLabel(services.AllRecords()))
	assert.Equal(t, "01/06/2025 - 15/06/2025",
		PeriodLabel(services.CustomRange(models.NewDate(2025, 6, 1), models.NewDate(2025, 6, 15))))
	assert.Equal(t, "01/06/2025 - 01/06/2025",
		PeriodLabel(services.CustomRange(models.NewDate(2025, 6, 1), models.Date{})))
}

func TestFormatAmount(t *testing.T) {
	tests := map[string]string{
		"0":         "0",
		"999":       "999",
		"130000":    "130.000",
		"1234567":   "1.234.567",
		"65000.4":   "65.000",
		"18333.5":   "18.334",
		"100000000": "100.000.000",
	}
	for in, want := range tests {
		assert.Equal(t, want, FormatAmount(decimal.RequireFromString(in)), in)
	}
	assert.Equal(t, "₲130.000", FormatMoney("₲", decimal.NewFromInt(130000)))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "302-barber-registro-2025-06-20-0905.pdf", FileName(FormatPDF, generatedAt))
	assert.Equal(t, "302-barber-registro-2025-06-20-0905.xlsx", FileName(FormatXLSX, generatedAt))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, f)

	f, err = ParseFormat("xlsx")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)
	assert.Contains(t, f.ContentType(), "spreadsheetml")

	_, err = ParseFormat("docx")
	assert.Error(t, err)
}

func TestRender_NothingToExport(t *testing.T) {
	empty := Input{Filter: services.Today(), GeneratedAt: generatedAt}

	for _, format := range []Format{FormatPDF, FormatXLSX} {
		data, err := Render(format, empty)
		assert.ErrorIs(t, err, ErrNothingToExport)
		assert.Nil(t, data)
	}
	_, err := RenderPDF(empty)
	assert.ErrorIs(t, err, ErrNothingToExport)
	_, err = RenderXLSX(empty)
	assert.ErrorIs(t, err, ErrNothingToExport)
}

func TestRender_Dispatch(t *testing.T) {
	in := sampleInput(2)

	pdf, err := Render(FormatPDF, in)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(pdf[:5]))

	xlsx, err := Render(FormatXLSX, in)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(xlsx[:2]))
}

func TestColumnWidths(t *testing.T) {
	widths := columnWidths(182)
	var sum float64
	for _, w := range widths {
		sum += w
	}
	assert.InDelta(t, 182, sum, 1e-9)
	assert.InDelta(t, 0.15, widths[0]/182, 0.01)
	assert.InDelta(t, 0.27, widths[1]/182, 0.01)
	assert.InDelta(t, 0.39, widths[2]/182, 0.01)
	assert.InDelta(t, 0.19, widths[3]/182, 0.01)
}
