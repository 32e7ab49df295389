package services

import (
	"context"
	"sync/atomic"
	"time"

	"barberpro-backend/cache"
	"barberpro-backend/config"
	"barberpro-backend/models"
	"barberpro-backend/repository"
	"barberpro-backend/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DashboardCacheKey = "dashboard:stats"
	dashboardTTL      = 5 * time.Minute
	upcomingLimit     = 5
)

type UpcomingReservation struct {
	ID         uuid.UUID                `json:"id"`
	ClientName string                   `json:"client_name"`
	Date       models.Date              `json:"date"`
	Time       string                   `json:"time"`
	Status     models.ReservationStatus `json:"status"`
	// When is relative to the request, never to the cached computation.
	When string `json:"when"`
}

type DashboardStats struct {
	Reservations        int64                 `json:"reservations"`
	PendingReservations int64                 `json:"pending_reservations"`
	Services            int64                 `json:"services"`
	Clients             int64                 `json:"clients"`
	Earnings            decimal.Decimal       `json:"earnings"`
	MonthlyEarnings     decimal.Decimal       `json:"monthly_earnings"`
	Upcoming            []UpcomingReservation `json:"upcoming"`
	ComputedAt          time.Time             `json:"computed_at"`
}

type Dashboard struct {
	Reservations *repository.Repository[models.Reservation]
	Services     *repository.Repository[models.Service]
	Clients      *repository.Repository[models.Client]
	WorkRecords  *repository.Repository[models.WorkRecord]

	cache cache.Cache
	now   func() time.Time
	// generation changes on every invalidation; a computation started under
	// an older generation is not cached.
	generation atomic.Uint64
}

func NewDashboard(
	reservations *repository.Repository[models.Reservation],
	services *repository.Repository[models.Service],
	clients *repository.Repository[models.Client],
	workRecords *repository.Repository[models.WorkRecord],
	c cache.Cache,
	now func() time.Time,
) *Dashboard {
	if now == nil {
		now = time.Now
	}
	return &Dashboard{
		Reservations: reservations,
		Services:     services,
		Clients:      clients,
		WorkRecords:  workRecords,
		cache:        c,
		now:          now,
	}
}

// Stats returns the cached overview when present, computing and caching it
// otherwise. cached reports which path was taken.
func (d *Dashboard) Stats(ctx context.Context) (stats *DashboardStats, cached bool, err error) {
	logger := config.GetLogger()
	now := d.now()
	gen := d.generation.Load()

	var hit DashboardStats
	found, err := d.cache.GetObject(ctx, DashboardCacheKey, &hit)
	if err != nil {
		logger.WithError(err).Warn("dashboard cache read failed")
	} else if found {
		hit.label(now)
		return &hit, true, nil
	}

	stats, err = d.compute(ctx, now)
	if err != nil {
		return nil, false, err
	}
	if d.generation.Load() == gen {
		if err := d.cache.SetObject(ctx, DashboardCacheKey, stats, cacheTTL(now)); err != nil {
			logger.WithError(err).Warn("dashboard cache write failed")
		}
	}
	stats.label(now)
	return stats, false, nil
}

// Invalidate drops the cached overview. It is registered as the mutation hook
// of every repository the dashboard reads.
func (d *Dashboard) Invalidate(ctx context.Context, entity string) {
	d.generation.Add(1)
	if err := d.cache.Remove(ctx, DashboardCacheKey); err != nil {
		config.GetLogger().WithError(err).WithField("entity", entity).Warn("dashboard cache invalidation failed")
	}
}

// cacheTTL never lets an entry outlive the local day it was computed on, since
// the upcoming list and the monthly total both depend on today.
func cacheTTL(now time.Time) time.Duration {
	untilMidnight := utils.BeginningOfDay(now).AddDate(0, 0, 1).Sub(now)
	if untilMidnight < dashboardTTL {
		return untilMidnight
	}
	return dashboardTTL
}

func (s *DashboardStats) label(now time.Time) {
	for i := range s.Upcoming {
		r := &s.Upcoming[i]
		r.When = utils.RelativeDay(utils.DaysBetween(now, r.Date.In(now.Location())))
	}
}

func (d *Dashboard) compute(ctx context.Context, now time.Time) (*DashboardStats, error) {
	today := models.DateOf(now)

	var (
		out DashboardStats
		err error
	)
	if out.Reservations, err = d.Reservations.Count(ctx); err != nil {
		return nil, err
	}
	if out.PendingReservations, err = d.Reservations.Count(ctx, repository.Where("status = ?", models.StatusPending)); err != nil {
		return nil, err
	}
	if out.Services, err = d.Services.Count(ctx); err != nil {
		return nil, err
	}
	if out.Clients, err = d.Clients.Count(ctx); err != nil {
		return nil, err
	}

	amounts, err := d.WorkRecords.List(ctx, repository.Select("amount_charged", "service_date"))
	if err != nil {
		return nil, err
	}
	out.Earnings = ComputeStats(amounts).Total

	first, last := today.FirstOfMonth(), today.LastOfMonth()
	monthly := make([]models.WorkRecord, 0, len(amounts))
	for _, w := range amounts {
		if !w.ServiceDate.Before(first) && !w.ServiceDate.After(last) {
			monthly = append(monthly, w)
		}
	}
	out.MonthlyEarnings = ComputeStats(monthly).Total

	upcoming, err := d.Reservations.List(ctx,
		repository.Where("reservation_date >= ?", today),
		repository.Where("status IN ?", []string{string(models.StatusPending), string(models.StatusConfirmed)}),
		repository.OrderBy("reservation_date ASC, reservation_time ASC"),
		repository.Limit(upcomingLimit))
	if err != nil {
		return nil, err
	}
	out.Upcoming = make([]UpcomingReservation, 0, len(upcoming))
	for _, r := range upcoming {
		out.Upcoming = append(out.Upcoming, UpcomingReservation{
			ID:         r.ID,
			ClientName: r.ClientName,
			Date:       r.ReservationDate,
			Time:       r.ReservationTime,
			Status:     r.Status,
		})
	}

	out.ComputedAt = now
	return &out, nil
}
