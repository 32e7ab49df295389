package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
	StatusCompleted ReservationStatus = "completed"
	StatusCancelled ReservationStatus = "cancelled"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

type Reservation struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	ClientName      string            `gorm:"size:100;not null" json:"client_name"`
	ClientPhone     *string           `gorm:"size:20" json:"client_phone"`
	ReservationDate Date              `gorm:"index:idx_reservation_slot;not null" json:"reservation_date"`
	ReservationTime string            `gorm:"size:5;index:idx_reservation_slot;not null" json:"reservation_time"`
	ServiceID       *uuid.UUID        `gorm:"type:uuid;index" json:"service_id"`
	Status          ReservationStatus `gorm:"size:20;not null;default:pending" json:"status"`
	Notes           *string           `gorm:"size:500" json:"notes"`

	Service *Service `gorm:"foreignKey:ServiceID;constraint:OnDelete:SET NULL" json:"service,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Reservation) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = StatusPending
	}
	return
}
