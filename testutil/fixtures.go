package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"barberpro-backend/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var idNumberCounter atomic.Int64

// FixedClock returns a clock frozen at the given local time.
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func NewTestClient(name string) *models.Client {
	n := idNumberCounter.Add(1)
	return &models.Client{
		ID:       uuid.New(),
		Name:     name,
		IDNumber: fmt.Sprintf("%07d", 1000000+n),
		Phone:    "0981123456",
	}
}

// Work record options
type WorkRecordOption func(*models.WorkRecord)

func WithClient(c *models.Client) WorkRecordOption {
	return func(w *models.WorkRecord) {
		id := c.ID
		w.ClientID = &id
	}
}

func WithClientName(name string) WorkRecordOption {
	return func(w *models.WorkRecord) {
		w.ClientName = &name
	}
}

func WithDescription(d string) WorkRecordOption {
	return func(w *models.WorkRecord) {
		w.ServiceDescription = d
	}
}

func WithNotes(n string) WorkRecordOption {
	return func(w *models.WorkRecord) {
		w.Notes = &n
	}
}

func NewTestWorkRecord(date models.Date, amount int64, opts ...WorkRecordOption) *models.WorkRecord {
	w := &models.WorkRecord{
		ID:                 uuid.New(),
		ServiceDate:        date,
		ServiceDescription: "Corte clásico",
		AmountCharged:      decimal.NewFromInt(amount),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Reservation options
type ReservationOption func(*models.Reservation)

func WithStatus(s models.ReservationStatus) ReservationOption {
	return func(r *models.Reservation) {
		r.Status = s
	}
}

func WithPhone(p string) ReservationOption {
	return func(r *models.Reservation) {
		r.ClientPhone = &p
	}
}

func NewTestReservation(name string, date models.Date, slot string, opts ...ReservationOption) *models.Reservation {
	r := &models.Reservation{
		ID:              uuid.New(),
		ClientName:      name,
		ReservationDate: date,
		ReservationTime: slot,
		Status:          models.StatusPending,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func NewTestService(name string) *models.Service {
	return &models.Service{
		ID:   uuid.New(),
		Name: name,
	}
}
