package services_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"barberpro-backend/models"
	"barberpro-backend/repository"
	"barberpro-backend/services"
	"barberpro-backend/testutil"
	"barberpro-backend/validation"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var asuncion = time.FixedZone("PYT", -3*60*60)

func newRegistry(t *testing.T, now time.Time) (*services.WorkRegistry, *repository.Repository[models.WorkRecord], *gorm.DB) {
	t.Helper()
	db := testutil.NewTestDB(t)
	repo := repository.New[models.WorkRecord](db, "work_records")
	return services.NewWorkRegistry(repo, testutil.FixedClock(now)), repo, db
}

func seed(t *testing.T, repo *repository.Repository[models.WorkRecord], records ...*models.WorkRecord) {
	t.Helper()
	for _, r := range records {
		require.NoError(t, repo.Create(context.Background(), r))
	}
}

func assertDecimal(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(decimal.NewFromInt(want)), "want %d, got %s", want, got)
}

func TestParseDateFilter(t *testing.T) {
	tests := []struct {
		name     string
		kind     string
		from, to string
		want     services.DateFilter
		errField string
	}{
		{name: "empty is all", want: services.AllRecords()},
		{name: "all", kind: "all", want: services.AllRecords()},
		{name: "today", kind: "today", want: services.Today()},
		{name: "month", kind: "month", want: services.CurrentMonth()},
		{
			name: "custom range",
			kind: "custom", from: "2025-06-01", to: "2025-06-10",
			want: services.DateFilter{Kind: services.FilterCustom, From: models.NewDate(2025, 6, 1), To: models.NewDate(2025, 6, 10)},
		},
		{
			name: "custom without to collapses to one day",
			kind: "custom", from: "2025-06-01",
			want: services.DateFilter{Kind: services.FilterCustom, From: models.NewDate(2025, 6, 1), To: models.NewDate(2025, 6, 1)},
		},
		{name: "custom without from", kind: "custom", errField: "from"},
		{name: "bad from", kind: "custom", from: "01/06/2025", errField: "from"},
		{name: "bad to", kind: "custom", from: "2025-06-01", to: "nope", errField: "to"},
		{name: "to before from", kind: "custom", from: "2025-06-10", to: "2025-06-01", errField: "to"},
		{name: "unknown kind", kind: "week", errField: "filter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := services.ParseDateFilter(tt.kind, tt.from, tt.to)
			if tt.errField != "" {
				var verr *validation.Error
				require.ErrorAs(t, err, &verr)
				assert.Contains(t, verr.Fields, tt.errField)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDateFilter_JSON(t *testing.T) {
	b, err := json.Marshal(services.Today())
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"today","from":null,"to":null}`, string(b))

	custom := services.CustomRange(models.NewDate(2025, 6, 1), models.NewDate(2025, 6, 30))
	b, err = json.Marshal(custom)
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"custom","from":"2025-06-01","to":"2025-06-30"}`, string(b))

	var back services.DateFilter
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, custom, back)
}

func TestDateFilter_Bounds(t *testing.T) {
	// late evening locally is already the next day in UTC
	now := time.Date(2025, 6, 20, 23, 30, 0, 0, asuncion)

	from, to := services.AllRecords().Bounds(now)
	assert.Nil(t, from)
	assert.Nil(t, to)

	from, to = services.Today().Bounds(now)
	assert.Equal(t, models.NewDate(2025, 6, 20), *from)
	assert.Equal(t, models.NewDate(2025, 6, 20), *to)

	from, to = services.CurrentMonth().Bounds(now)
	assert.Equal(t, models.NewDate(2025, 6, 1), *from)
	assert.Equal(t, models.NewDate(2025, 6, 30), *to)

	from, to = services.CurrentMonth().Bounds(time.Date(2024, 2, 10, 9, 0, 0, 0, asuncion))
	assert.Equal(t, models.NewDate(2024, 2, 1), *from)
	assert.Equal(t, models.NewDate(2024, 2, 29), *to)

	from, to = services.DateFilter{Kind: services.FilterCustom, From: models.NewDate(2025, 5, 3)}.Bounds(now)
	assert.Equal(t, models.NewDate(2025, 5, 3), *from)
	assert.Equal(t, models.NewDate(2025, 5, 3), *to)
}

func TestComputeStats(t *testing.T) {
	empty := services.ComputeStats(nil)
	assert.Equal(t, 0, empty.Count)
	assertDecimal(t, 0, empty.Total)
	assertDecimal(t, 0, empty.Average)

	records := []models.WorkRecord{
		*testutil.NewTestWorkRecord(models.NewDate(2025, 6, 1), 10000),
		*testutil.NewTestWorkRecord(models.NewDate(2025, 6, 1), 20000),
		*testutil.NewTestWorkRecord(models.NewDate(2025, 6, 1), 25000),
	}
	stats := services.ComputeStats(records)
	assert.Equal(t, 3, stats.Count)
	assertDecimal(t, 55000, stats.Total)
	assert.Equal(t, "18333", stats.Average.Round(0).String())

	// no float drift on fractional amounts
	records = []models.WorkRecord{
		{AmountCharged: decimal.RequireFromString("0.1")},
		{AmountCharged: decimal.RequireFromString("0.2")},
	}
	assert.Equal(t, "0.3", services.ComputeStats(records).Total.String())
}

func TestWorkRegistry_CurrentMonth(t *testing.T) {
	reg, repo, _ := newRegistry(t, time.Date(2025, 6, 20, 10, 0, 0, 0, asuncion))
	seed(t, repo,
		testutil.NewTestWorkRecord(models.NewDate(2025, 6, 1), 50000),
		testutil.NewTestWorkRecord(models.NewDate(2025, 6, 15), 80000),
		testutil.NewTestWorkRecord(models.NewDate(2025, 7, 1), 30000),
		testutil.NewTestWorkRecord(models.NewDate(2025, 5, 31), 99000),
	)

	agg, err := reg.Aggregate(context.Background(), services.CurrentMonth())
	require.NoError(t, err)

	require.Len(t, agg.Records, 2)
	assert.Equal(t, models.NewDate(2025, 6, 15), agg.Records[0].ServiceDate)
	assert.Equal(t, models.NewDate(2025, 6, 1), agg.Records[1].ServiceDate)
	for _, r := range agg.Records {
		assert.False(t, r.ServiceDate.Before(models.NewDate(2025, 6, 1)))
		assert.False(t, r.ServiceDate.After(models.NewDate(2025, 6, 30)))
	}
	assert.Equal(t, 2, agg.Stats.Count)
	assertDecimal(t, 130000, agg.Stats.Total)
	assertDecimal(t, 65000, agg.Stats.Average)
}

func TestWorkRegistry_TodayEmpty(t *testing.T) {
	reg, repo, _ := newRegistry(t, time.Date(2025, 6, 20, 10, 0, 0, 0, asuncion))
	seed(t, repo, testutil.NewTestWorkRecord(models.NewDate(2025, 6, 19), 50000))

	agg, err := reg.Aggregate(context.Background(), services.Today())
	require.NoError(t, err)

	assert.Empty(t, agg.Records)
	assert.NotNil(t, agg.Records)
	assert.Equal(t, 0, agg.Stats.Count)
	assertDecimal(t, 0, agg.Stats.Total)
	assertDecimal(t, 0, agg.Stats.Average)
}

func TestWorkRegistry_CustomRangeSingleDay(t *testing.T) {
	reg, repo, _ := newRegistry(t, time.Date(2025, 6, 20, 10, 0, 0, 0, asuncion))
	seed(t, repo,
		testutil.NewTestWorkRecord(models.NewDate(2025, 6, 9), 1000),
		testutil.NewTestWorkRecord(models.NewDate(2025, 6, 10), 2000),
		testutil.NewTestWorkRecord(models.NewDate(2025, 6, 10), 3000),
		testutil.NewTestWorkRecord(models.NewDate(2025, 6, 11), 4000),
	)

	filter, err := services.ParseDateFilter("custom", "2025-06-10", "")
	require.NoError(t, err)
	agg, err := reg.Aggregate(context.Background(), filter)
	require.NoError(t, err)

	require.Len(t, agg.Records, 2)
	assertDecimal(t, 5000, agg.Stats.Total)
	// same day keeps insertion order
	assertDecimal(t, 2000, agg.Records[0].AmountCharged)
	assertDecimal(t, 3000, agg.Records[1].AmountCharged)
}

func TestWorkRegistry_ClientLabels(t *testing.T) {
	reg, repo, db := newRegistry(t, time.Date(2025, 6, 20, 10, 0, 0, 0, asuncion))
	client := testutil.NewTestClient("Carlos Benítez")
	require.NoError(t, db.Create(client).Error)

	seed(t, repo,
		testutil.NewTestWorkRecord(models.NewDate(2025, 6, 3), 1000, testutil.WithClient(client)),
		testutil.NewTestWorkRecord(models.NewDate(2025, 6, 2), 1000, testutil.WithClientName("Juan")),
		testutil.NewTestWorkRecord(models.NewDate(2025, 6, 1), 1000),
	)

	agg, err := reg.Aggregate(context.Background(), services.AllRecords())
	require.NoError(t, err)
	require.Len(t, agg.Records, 3)

	assert.Equal(t, "Carlos Benítez / "+client.IDNumber, agg.Records[0].ClientLabel(" / "))
	assert.Equal(t, "Juan", agg.Records[1].ClientLabel(" / "))
	assert.Equal(t, models.NoClientLabel, agg.Records[2].ClientLabel(" / "))
}

func TestWorkRegistry_Idempotent(t *testing.T) {
	reg, repo, _ := newRegistry(t, time.Date(2025, 6, 20, 10, 0, 0, 0, asuncion))
	seed(t, repo,
		testutil.NewTestWorkRecord(models.NewDate(2025, 6, 1), 50000),
		testutil.NewTestWorkRecord(models.NewDate(2025, 6, 15), 80000),
	)

	first, err := reg.Aggregate(context.Background(), services.CurrentMonth())
	require.NoError(t, err)
	second, err := reg.Aggregate(context.Background(), services.CurrentMonth())
	require.NoError(t, err)

	require.Len(t, second.Records, len(first.Records))
	for i := range first.Records {
		assert.Equal(t, first.Records[i].ID, second.Records[i].ID)
	}
	assert.Equal(t, first.Stats.Count, second.Stats.Count)
	assert.True(t, first.Stats.Total.Equal(second.Stats.Total))
	assert.True(t, first.Stats.Average.Equal(second.Stats.Average))
}

func TestWorkRegistry_ReadFailure(t *testing.T) {
	reg, _, _ := newRegistry(t, time.Date(2025, 6, 20, 10, 0, 0, 0, asuncion))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agg, err := reg.Aggregate(ctx, services.AllRecords())
	require.Error(t, err)
	assert.Nil(t, agg)
	assert.Equal(t, repository.CodeUnavailable, repository.CodeOf(err))
}
