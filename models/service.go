package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service is a catalog item shown on the public services page.
type Service struct {
	ID              uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string              `gorm:"size:100;not null" json:"name"`
	Description     *string             `gorm:"size:500" json:"description"`
	Price           decimal.NullDecimal `gorm:"type:decimal(14,2)" json:"price"`
	DurationMinutes *int                `json:"duration_minutes"`
	ImageURL        *string             `json:"image_url"`
	ThumbnailURL    *string             `json:"thumbnail_url"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Service) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}
