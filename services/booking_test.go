package services_test

import (
	"context"
	"testing"
	"time"

	"barberpro-backend/models"
	"barberpro-backend/repository"
	"barberpro-backend/services"
	"barberpro-backend/testutil"
	"barberpro-backend/validation"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBooking(t *testing.T, now time.Time) (*services.Booking, *repository.Repository[models.Reservation], *repository.Repository[models.Service]) {
	t.Helper()
	db := testutil.NewTestDB(t)
	reservations := repository.New[models.Reservation](db, "reservations")
	catalog := repository.New[models.Service](db, "services")
	return services.NewBooking(reservations, catalog, testutil.FixedClock(now)), reservations, catalog
}

func TestBooking_Availability(t *testing.T) {
	b, reservations, _ := newBooking(t, time.Date(2025, 6, 20, 10, 0, 0, 0, asuncion))
	ctx := context.Background()
	day := models.NewDate(2025, 6, 21)

	require.NoError(t, reservations.Create(ctx, testutil.NewTestReservation("Ana", day, "10:00")))
	require.NoError(t, reservations.Create(ctx, testutil.NewTestReservation("Bea", day, "11:00", testutil.WithStatus(models.StatusCancelled))))
	require.NoError(t, reservations.Create(ctx, testutil.NewTestReservation("Caro", models.NewDate(2025, 6, 22), "12:00")))

	slots, err := b.Availability(ctx, day)
	require.NoError(t, err)
	require.Len(t, slots, len(services.TimeSlots))

	booked := map[string]bool{}
	for _, s := range slots {
		booked[s.Time] = s.Booked
	}
	assert.True(t, booked["10:00"])
	assert.False(t, booked["11:00"])
	assert.False(t, booked["12:00"])
	assert.Equal(t, "09:00", slots[0].Time)
	assert.Equal(t, "19:00", slots[len(slots)-1].Time)
}

func TestBooking_Book(t *testing.T) {
	b, reservations, _ := newBooking(t, time.Date(2025, 6, 20, 10, 30, 0, 0, asuncion))
	ctx := context.Background()
	day := models.NewDate(2025, 6, 21)

	r := testutil.NewTestReservation("Ana", day, "10:00", testutil.WithStatus(models.StatusConfirmed))
	require.NoError(t, b.Book(ctx, r))
	assert.Equal(t, models.StatusPending, r.Status)

	got, err := reservations.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, "10:00", got.ReservationTime)

	err = b.Book(ctx, testutil.NewTestReservation("Bea", day, "10:00"))
	assert.ErrorIs(t, err, services.ErrSlotTaken)

	// a cancelled reservation frees the slot
	require.NoError(t, reservations.Patch(ctx, r.ID, map[string]any{"status": models.StatusCancelled}))
	assert.NoError(t, b.Book(ctx, testutil.NewTestReservation("Bea", day, "10:00")))
}

func TestBooking_Book_Rejections(t *testing.T) {
	b, _, _ := newBooking(t, time.Date(2025, 6, 20, 10, 30, 0, 0, asuncion))
	ctx := context.Background()
	today := models.NewDate(2025, 6, 20)

	assert.ErrorIs(t, b.Book(ctx, testutil.NewTestReservation("A", models.NewDate(2025, 6, 19), "10:00")), services.ErrPastDate)
	assert.ErrorIs(t, b.Book(ctx, testutil.NewTestReservation("A", today, "10:00")), services.ErrPastDate)
	assert.NoError(t, b.Book(ctx, testutil.NewTestReservation("A", today, "11:00")))

	var verr *validation.Error
	require.ErrorAs(t, b.Book(ctx, testutil.NewTestReservation("A", today, "10:30")), &verr)
	assert.Contains(t, verr.Fields, "reservation_time")

	missing := uuid.New()
	r := testutil.NewTestReservation("A", today, "12:00")
	r.ServiceID = &missing
	require.ErrorAs(t, b.Book(ctx, r), &verr)
	assert.Contains(t, verr.Fields, "service_id")
}

func TestBooking_BookWithService(t *testing.T) {
	b, reservations, catalog := newBooking(t, time.Date(2025, 6, 20, 10, 30, 0, 0, asuncion))
	ctx := context.Background()

	s := testutil.NewTestService("Corte")
	require.NoError(t, catalog.Create(ctx, s))

	r := testutil.NewTestReservation("Ana", models.NewDate(2025, 6, 21), "16:00")
	r.ServiceID = &s.ID
	require.NoError(t, b.Book(ctx, r))

	got, err := reservations.Get(ctx, r.ID, repository.Preload("Service"))
	require.NoError(t, err)
	require.NotNil(t, got.Service)
	assert.Equal(t, "Corte", got.Service.Name)
}

func TestConfirmationMessage(t *testing.T) {
	r := testutil.NewTestReservation("Ana", models.NewDate(2025, 6, 21), "16:00")
	assert.Equal(t, "Tu cita para el 21 de junio a las 16:00 ha sido registrada.", services.ConfirmationMessage(r))
}
