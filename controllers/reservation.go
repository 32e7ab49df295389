package controllers

import (
	"errors"
	"net/http"
	"strings"

	"barberpro-backend/config"
	"barberpro-backend/models"
	"barberpro-backend/repository"
	"barberpro-backend/services"
	"barberpro-backend/utils"
	"barberpro-backend/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ReservationInput is the public booking form.
type ReservationInput struct {
	ClientName      string `json:"client_name" validate:"required,max=100" label:"nombre"`
	ClientPhone     string `json:"client_phone" validate:"omitempty,max=20,phone" label:"teléfono"`
	ServiceID       string `json:"service_id" validate:"omitempty,uuid" label:"servicio"`
	ReservationDate string `json:"reservation_date" validate:"required,date" label:"fecha"`
	ReservationTime string `json:"reservation_time" validate:"required" label:"horario"`
	Notes           string `json:"notes" validate:"max=500" label:"notas"`
}

func (in *ReservationInput) Normalize() {
	in.ClientName = strings.TrimSpace(in.ClientName)
	in.ClientPhone = strings.TrimSpace(in.ClientPhone)
	in.ServiceID = strings.TrimSpace(in.ServiceID)
	in.ReservationDate = strings.TrimSpace(in.ReservationDate)
	in.ReservationTime = strings.TrimSpace(in.ReservationTime)
	in.Notes = strings.TrimSpace(in.Notes)
}

type StatusInput struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed completed cancelled" label:"estado"`
}

type ReservationController struct {
	Reservations *repository.Repository[models.Reservation]
	Booking      *services.Booking
	Validator    *validation.Validator
	Settings     *config.Settings
}

// GetAvailability lists the slots of ?date= with their booked flag.
func (rc *ReservationController) GetAvailability(c *gin.Context) {
	date, err := models.ParseDate(c.Query("date"))
	if err != nil {
		utils.RespondWithFields(c, http.StatusBadRequest, invalidInput, map[string]string{"date": "fecha debe ser una fecha válida (AAAA-MM-DD)"})
		return
	}
	slots, err := rc.Booking.Availability(c.Request.Context(), date)
	if err != nil {
		respondDataError(c, "GetAvailability", "obtener los horarios", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": date, "slots": slots})
}

// CreateReservation books a slot from the public site. The reservation
// starts as pending until the shop confirms it.
func (rc *ReservationController) CreateReservation(c *gin.Context) {
	var input ReservationInput
	if !bindForm(c, rc.Validator, &input) {
		return
	}

	date, _ := models.ParseDate(input.ReservationDate)
	r := &models.Reservation{
		ClientName:      input.ClientName,
		ReservationDate: date,
		ReservationTime: input.ReservationTime,
		Notes:           optionalString(input.Notes),
	}
	if input.ClientPhone != "" {
		phone := utils.NormalizePhone(input.ClientPhone, rc.Settings.PhoneRegion)
		r.ClientPhone = &phone
	}
	if input.ServiceID != "" {
		id := uuid.MustParse(input.ServiceID)
		r.ServiceID = &id
	}

	err := rc.Booking.Book(c.Request.Context(), r)
	switch {
	case err == nil:
	case errors.Is(err, services.ErrSlotTaken):
		utils.RespondWithError(c, http.StatusConflict, "El horario seleccionado ya está reservado")
		return
	case errors.Is(err, services.ErrPastDate):
		utils.RespondWithFields(c, http.StatusBadRequest, invalidInput, map[string]string{"reservation_date": "No se puede reservar en una fecha u hora pasada"})
		return
	case respondValidation(c, err):
		return
	default:
		respondDataError(c, "CreateReservation", "registrar la reserva", err, "")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":     services.ConfirmationMessage(r),
		"reservation": r,
	})
}

// GetReservations lists reservations by date and time. ?date= and ?status=
// narrow the list.
func (rc *ReservationController) GetReservations(c *gin.Context) {
	qs := []repository.Query{
		repository.Preload("Service"),
		repository.OrderBy("reservation_date ASC, reservation_time ASC"),
	}
	if raw := c.Query("date"); raw != "" {
		date, err := models.ParseDate(raw)
		if err != nil {
			utils.RespondWithFields(c, http.StatusBadRequest, invalidInput, map[string]string{"date": "fecha debe ser una fecha válida (AAAA-MM-DD)"})
			return
		}
		qs = append(qs, repository.Where("reservation_date = ?", date))
	}
	if status := c.Query("status"); status != "" {
		if !models.ReservationStatus(status).Valid() {
			utils.RespondWithFields(c, http.StatusBadRequest, invalidInput, map[string]string{"status": "estado no válido"})
			return
		}
		qs = append(qs, repository.Where("status = ?", status))
	}

	reservations, err := rc.Reservations.List(c.Request.Context(), qs...)
	if err != nil {
		respondDataError(c, "GetReservations", "obtener las reservas", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservations": reservations})
}

func (rc *ReservationController) GetReservation(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	r, err := rc.Reservations.Get(c.Request.Context(), id, repository.Preload("Service"))
	if err != nil {
		respondDataError(c, "GetReservation", "obtener la reserva", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reservation": r})
}

func (rc *ReservationController) UpdateReservationStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var input StatusInput
	if !bindForm(c, rc.Validator, &input) {
		return
	}

	if err := rc.Reservations.Patch(c.Request.Context(), id, map[string]any{"status": input.Status}); err != nil {
		respondDataError(c, "UpdateReservationStatus", "actualizar la reserva", err, "")
		return
	}
	r, err := rc.Reservations.Get(c.Request.Context(), id)
	if err != nil {
		respondDataError(c, "UpdateReservationStatus", "actualizar la reserva", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reserva actualizada", "reservation": r})
}

func (rc *ReservationController) DeleteReservation(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := rc.Reservations.Delete(c.Request.Context(), id); err != nil {
		respondDataError(c, "DeleteReservation", "eliminar la reserva", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Reserva eliminada"})
}
