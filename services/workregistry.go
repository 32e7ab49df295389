package services

import (
	"context"
	"fmt"
	"time"

	"barberpro-backend/models"
	"barberpro-backend/repository"
	"barberpro-backend/validation"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("barberpro-backend/services")

type FilterKind string

const (
	FilterAll    FilterKind = "all"
	FilterToday  FilterKind = "today"
	FilterMonth  FilterKind = "month"
	FilterCustom FilterKind = "custom"
)

// DateFilter selects which work records are in scope. From and To are only
// meaningful for FilterCustom and encode as null otherwise.
type DateFilter struct {
	Kind FilterKind  `json:"kind"`
	From models.Date `json:"from"`
	To   models.Date `json:"to"`
}

func AllRecords() DateFilter   { return DateFilter{Kind: FilterAll} }
func Today() DateFilter        { return DateFilter{Kind: FilterToday} }
func CurrentMonth() DateFilter { return DateFilter{Kind: FilterMonth} }

// CustomRange builds an inclusive range. A zero to collapses the range to the
// single day from.
func CustomRange(from, to models.Date) DateFilter {
	if to.IsZero() {
		to = from
	}
	return DateFilter{Kind: FilterCustom, From: from, To: to}
}

// ParseDateFilter reads the filter from query parameters. An empty kind means
// all records.
func ParseDateFilter(kind, from, to string) (DateFilter, error) {
	switch FilterKind(kind) {
	case "", FilterAll:
		return AllRecords(), nil
	case FilterToday:
		return Today(), nil
	case FilterMonth:
		return CurrentMonth(), nil
	case FilterCustom:
		if from == "" {
			return DateFilter{}, validation.NewError("from", "La fecha inicial es obligatoria para un rango personalizado")
		}
		start, err := models.ParseDate(from)
		if err != nil {
			return DateFilter{}, validation.NewError("from", "from debe ser una fecha válida (AAAA-MM-DD)")
		}
		var end models.Date
		if to != "" {
			if end, err = models.ParseDate(to); err != nil {
				return DateFilter{}, validation.NewError("to", "to debe ser una fecha válida (AAAA-MM-DD)")
			}
			if end.Before(start) {
				return DateFilter{}, validation.NewError("to", "La fecha final no puede ser anterior a la inicial")
			}
		}
		return CustomRange(start, end), nil
	default:
		return DateFilter{}, validation.NewError("filter", fmt.Sprintf("Filtro desconocido: %q", kind))
	}
}

// Bounds translates the filter into inclusive service_date bounds evaluated
// against the calendar day of now. Both are nil for FilterAll.
func (f DateFilter) Bounds(now time.Time) (from, to *models.Date) {
	today := models.DateOf(now)
	switch f.Kind {
	case FilterToday:
		return &today, &today
	case FilterMonth:
		first, last := today.FirstOfMonth(), today.LastOfMonth()
		return &first, &last
	case FilterCustom:
		start, end := f.From, f.To
		if end.IsZero() {
			end = start
		}
		return &start, &end
	}
	return nil, nil
}

// AggregateStats is derived from a filtered record set and never stored.
type AggregateStats struct {
	Count   int             `json:"count"`
	Total   decimal.Decimal `json:"total"`
	Average decimal.Decimal `json:"average"`
}

// ComputeStats sums amounts exactly. The average of an empty set is zero.
func ComputeStats(records []models.WorkRecord) AggregateStats {
	total := decimal.Zero
	for _, r := range records {
		total = total.Add(r.AmountCharged)
	}
	stats := AggregateStats{Count: len(records), Total: total, Average: decimal.Zero}
	if len(records) > 0 {
		stats.Average = total.Div(decimal.NewFromInt(int64(len(records))))
	}
	return stats
}

// Aggregate is one evaluation of a DateFilter.
type Aggregate struct {
	Filter      DateFilter          `json:"filter"`
	Records     []models.WorkRecord `json:"records"`
	Stats       AggregateStats      `json:"stats"`
	GeneratedAt time.Time           `json:"generated_at"`
}

type WorkRegistry struct {
	repo *repository.Repository[models.WorkRecord]
	now  func() time.Time
}

// NewWorkRegistry builds the aggregator. now supplies the business-local
// current time.
func NewWorkRegistry(repo *repository.Repository[models.WorkRecord], now func() time.Time) *WorkRegistry {
	if now == nil {
		now = time.Now
	}
	return &WorkRegistry{repo: repo, now: now}
}

// Aggregate issues a single read for the filter and computes stats over
// exactly the returned set. On a failed read no stats are produced.
func (w *WorkRegistry) Aggregate(ctx context.Context, filter DateFilter) (*Aggregate, error) {
	ctx, span := tracer.Start(ctx, "WorkRegistry.Aggregate")
	defer span.End()
	span.SetAttributes(attribute.String("filter.kind", string(filter.Kind)))

	now := w.now()
	from, to := filter.Bounds(now)

	qs := []repository.Query{
		repository.Preload("Client", func(db *gorm.DB) *gorm.DB {
			return db.Select("id", "name", "id_number")
		}),
		repository.OrderBy("service_date DESC, created_at ASC"),
	}
	if from != nil {
		qs = append(qs, repository.Between("service_date", *from, *to))
	}

	records, err := w.repo.List(ctx, qs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "list work records")
		return nil, err
	}
	if records == nil {
		records = []models.WorkRecord{}
	}
	span.SetAttributes(attribute.Int("records", len(records)))

	return &Aggregate{
		Filter:      filter,
		Records:     records,
		Stats:       ComputeStats(records),
		GeneratedAt: now,
	}, nil
}
