package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"barberpro-backend/models"
	"barberpro-backend/repository"
	"barberpro-backend/validation"

	"github.com/go-playground/locales/es"
)

// TimeSlots are the bookable start times of a day.
var TimeSlots = []string{
	"09:00", "10:00", "11:00", "12:00", "13:00",
	"14:00", "15:00", "16:00", "17:00", "18:00", "19:00",
}

var (
	ErrSlotTaken = errors.New("time slot already booked")
	ErrPastDate  = errors.New("reservation date is in the past")
)

var spanish = es.New()

// DayMonth renders d as "21 de junio".
func DayMonth(d models.Date) string {
	return fmt.Sprintf("%d de %s", d.Day, spanish.MonthWide(d.Month))
}

// ValidSlot reports whether t is one of TimeSlots.
func ValidSlot(t string) bool {
	for _, s := range TimeSlots {
		if s == t {
			return true
		}
	}
	return false
}

type Slot struct {
	Time   string `json:"time"`
	Booked bool   `json:"booked"`
}

type Booking struct {
	reservations *repository.Repository[models.Reservation]
	services     *repository.Repository[models.Service]
	now          func() time.Time

	// serialises the check-then-insert of Book within this process
	mu sync.Mutex
}

func NewBooking(reservations *repository.Repository[models.Reservation], services *repository.Repository[models.Service], now func() time.Time) *Booking {
	if now == nil {
		now = time.Now
	}
	return &Booking{reservations: reservations, services: services, now: now}
}

// Availability lists every slot of date with whether a live reservation
// already holds it. Cancelled reservations free their slot.
func (b *Booking) Availability(ctx context.Context, date models.Date) ([]Slot, error) {
	taken, err := b.reservations.List(ctx,
		repository.Select("reservation_time"),
		repository.Where("reservation_date = ?", date),
		repository.Where("status <> ?", string(models.StatusCancelled)))
	if err != nil {
		return nil, err
	}
	booked := make(map[string]bool, len(taken))
	for _, r := range taken {
		booked[r.ReservationTime] = true
	}

	slots := make([]Slot, 0, len(TimeSlots))
	for _, t := range TimeSlots {
		slots = append(slots, Slot{Time: t, Booked: booked[t]})
	}
	return slots, nil
}

// Book stores r as a pending reservation when its slot is free and not in
// the past.
func (b *Booking) Book(ctx context.Context, r *models.Reservation) error {
	if !ValidSlot(r.ReservationTime) {
		return validation.NewError("reservation_time", "Horario no disponible")
	}
	now := b.now()
	today := models.DateOf(now)
	if r.ReservationDate.Before(today) {
		return ErrPastDate
	}
	if r.ReservationDate == today && r.ReservationTime <= now.Format("15:04") {
		return ErrPastDate
	}
	if r.ServiceID != nil {
		if _, err := b.services.Get(ctx, *r.ServiceID, repository.Select("id")); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return validation.NewError("service_id", "El servicio seleccionado no existe")
			}
			return err
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	n, err := b.reservations.Count(ctx,
		repository.Where("reservation_date = ?", r.ReservationDate),
		repository.Where("reservation_time = ?", r.ReservationTime),
		repository.Where("status <> ?", string(models.StatusCancelled)))
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrSlotTaken
	}

	r.Status = models.StatusPending
	return b.reservations.Create(ctx, r)
}

// ConfirmationMessage is shown to the customer after a successful booking.
func ConfirmationMessage(r *models.Reservation) string {
	return fmt.Sprintf("Tu cita para el %s a las %s ha sido registrada.", DayMonth(r.ReservationDate), r.ReservationTime)
}
