package services_test

import (
	"context"
	"testing"
	"time"

	"barberpro-backend/cache"
	"barberpro-backend/models"
	"barberpro-backend/repository"
	"barberpro-backend/services"
	"barberpro-backend/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDashboard(t *testing.T, now time.Time) (*services.Dashboard, *cache.Memory) {
	t.Helper()
	db := testutil.NewTestDB(t)
	mem := cache.NewMemory()
	d := services.NewDashboard(
		repository.New[models.Reservation](db, "reservations"),
		repository.New[models.Service](db, "services"),
		repository.New[models.Client](db, "clients"),
		repository.New[models.WorkRecord](db, "work_records"),
		mem,
		testutil.FixedClock(now),
	)
	d.Reservations.OnMutate(d.Invalidate)
	d.Services.OnMutate(d.Invalidate)
	d.Clients.OnMutate(d.Invalidate)
	d.WorkRecords.OnMutate(d.Invalidate)
	return d, mem
}

func TestDashboard_Stats(t *testing.T) {
	now := time.Date(2025, 6, 20, 10, 0, 0, 0, asuncion)
	d, _ := newDashboard(t, now)
	ctx := context.Background()

	require.NoError(t, d.Services.Create(ctx, testutil.NewTestService("Corte")))
	require.NoError(t, d.Clients.Create(ctx, testutil.NewTestClient("Ana")))
	for _, w := range []*models.WorkRecord{
		testutil.NewTestWorkRecord(models.NewDate(2025, 6, 1), 50000),
		testutil.NewTestWorkRecord(models.NewDate(2025, 6, 15), 80000),
		testutil.NewTestWorkRecord(models.NewDate(2025, 5, 30), 30000),
	} {
		require.NoError(t, d.WorkRecords.Create(ctx, w))
	}
	for _, r := range []*models.Reservation{
		testutil.NewTestReservation("Pedro", models.NewDate(2025, 6, 21), "10:00", testutil.WithStatus(models.StatusConfirmed)),
		testutil.NewTestReservation("Luis", models.NewDate(2025, 6, 20), "15:00"),
		testutil.NewTestReservation("Old", models.NewDate(2025, 6, 1), "09:00"),
		testutil.NewTestReservation("Gone", models.NewDate(2025, 6, 22), "09:00", testutil.WithStatus(models.StatusCancelled)),
	} {
		require.NoError(t, d.Reservations.Create(ctx, r))
	}

	stats, cached, err := d.Stats(ctx)
	require.NoError(t, err)
	assert.False(t, cached)

	assert.EqualValues(t, 4, stats.Reservations)
	assert.EqualValues(t, 2, stats.PendingReservations)
	assert.EqualValues(t, 1, stats.Services)
	assert.EqualValues(t, 1, stats.Clients)
	assertDecimal(t, 160000, stats.Earnings)
	assertDecimal(t, 130000, stats.MonthlyEarnings)

	require.Len(t, stats.Upcoming, 2)
	assert.Equal(t, "Luis", stats.Upcoming[0].ClientName)
	assert.Equal(t, "Hoy", stats.Upcoming[0].When)
	assert.Equal(t, "Pedro", stats.Upcoming[1].ClientName)
	assert.Equal(t, "Mañana", stats.Upcoming[1].When)
}

func TestDashboard_CacheAndInvalidation(t *testing.T) {
	d, mem := newDashboard(t, time.Date(2025, 6, 20, 10, 0, 0, 0, asuncion))
	ctx := context.Background()

	first, cached, err := d.Stats(ctx)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.EqualValues(t, 0, first.Services)

	var stored services.DashboardStats
	ok, err := mem.GetObject(ctx, services.DashboardCacheKey, &stored)
	require.NoError(t, err)
	require.True(t, ok)

	_, cached, err = d.Stats(ctx)
	require.NoError(t, err)
	assert.True(t, cached)

	require.NoError(t, d.Services.Create(ctx, testutil.NewTestService("Barba")))
	ok, _ = mem.GetObject(ctx, services.DashboardCacheKey, &stored)
	assert.False(t, ok)

	after, cached, err := d.Stats(ctx)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.EqualValues(t, 1, after.Services)
}

// spyCache records the expiry of each write and can run a hook when a read
// misses.
type spyCache struct {
	*cache.Memory
	onMiss  func()
	expires []time.Duration
}

func (c *spyCache) GetObject(ctx context.Context, key string, dest any) (bool, error) {
	ok, err := c.Memory.GetObject(ctx, key, dest)
	if !ok && c.onMiss != nil {
		c.onMiss()
	}
	return ok, err
}

func (c *spyCache) SetObject(ctx context.Context, key string, obj any, exp time.Duration) error {
	c.expires = append(c.expires, exp)
	return c.Memory.SetObject(ctx, key, obj, exp)
}

func newSpyDashboard(t *testing.T, clock *time.Time) (*services.Dashboard, *spyCache) {
	t.Helper()
	db := testutil.NewTestDB(t)
	spy := &spyCache{Memory: cache.NewMemory()}
	d := services.NewDashboard(
		repository.New[models.Reservation](db, "reservations"),
		repository.New[models.Service](db, "services"),
		repository.New[models.Client](db, "clients"),
		repository.New[models.WorkRecord](db, "work_records"),
		spy,
		func() time.Time { return *clock },
	)
	d.Services.OnMutate(d.Invalidate)
	d.Reservations.OnMutate(d.Invalidate)
	return d, spy
}

func TestDashboard_WhenFollowsTheClockOnCachedStats(t *testing.T) {
	clock := time.Date(2025, 6, 20, 23, 58, 0, 0, asuncion)
	d, _ := newSpyDashboard(t, &clock)
	ctx := context.Background()

	require.NoError(t, d.Reservations.Create(ctx,
		testutil.NewTestReservation("Pedro", models.NewDate(2025, 6, 21), "10:00")))

	first, cached, err := d.Stats(ctx)
	require.NoError(t, err)
	assert.False(t, cached)
	require.Len(t, first.Upcoming, 1)
	assert.Equal(t, "Mañana", first.Upcoming[0].When)

	clock = time.Date(2025, 6, 21, 0, 1, 0, 0, asuncion)
	second, cached, err := d.Stats(ctx)
	require.NoError(t, err)
	assert.True(t, cached)
	require.Len(t, second.Upcoming, 1)
	assert.Equal(t, "Hoy", second.Upcoming[0].When)
}

func TestDashboard_TTLEndsAtLocalMidnight(t *testing.T) {
	clock := time.Date(2025, 6, 20, 23, 58, 0, 0, asuncion)
	d, spy := newSpyDashboard(t, &clock)
	ctx := context.Background()

	_, _, err := d.Stats(ctx)
	require.NoError(t, err)

	clock = time.Date(2025, 6, 21, 10, 0, 0, 0, asuncion)
	require.NoError(t, spy.Remove(ctx, services.DashboardCacheKey))
	_, _, err = d.Stats(ctx)
	require.NoError(t, err)

	require.Len(t, spy.expires, 2)
	assert.Equal(t, 2*time.Minute, spy.expires[0])
	assert.Equal(t, 5*time.Minute, spy.expires[1])
}

func TestDashboard_InvalidationDuringComputeIsNotOverwritten(t *testing.T) {
	clock := time.Date(2025, 6, 20, 10, 0, 0, 0, asuncion)
	d, spy := newSpyDashboard(t, &clock)
	ctx := context.Background()

	spy.onMiss = func() {
		spy.onMiss = nil
		require.NoError(t, d.Services.Create(ctx, testutil.NewTestService("Barba")))
	}

	_, cached, err := d.Stats(ctx)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Empty(t, spy.expires)

	var stored services.DashboardStats
	ok, err := spy.Memory.GetObject(ctx, services.DashboardCacheKey, &stored)
	require.NoError(t, err)
	assert.False(t, ok)

	after, cached, err := d.Stats(ctx)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.EqualValues(t, 1, after.Services)
}
