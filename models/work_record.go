package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// NoClientLabel is shown when a work record has neither a client nor a free-text name.
const NoClientLabel = "Sin cliente"

// WorkRecord is one billable service event in the earnings ledger.
type WorkRecord struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ServiceDate        Date            `gorm:"index;not null" json:"service_date"`
	ClientID           *uuid.UUID      `gorm:"type:uuid;index" json:"client_id"`
	ClientName         *string         `gorm:"size:100" json:"client_name"`
	ServiceDescription string          `gorm:"size:500;not null" json:"service_description"`
	AmountCharged      decimal.Decimal `gorm:"type:decimal(14,2);not null" json:"amount_charged"`
	Notes              *string         `gorm:"size:500" json:"notes"`

	// Client is only populated with name and id_number.
	Client *Client `gorm:"foreignKey:ClientID;constraint:OnDelete:SET NULL" json:"client,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (w *WorkRecord) BeforeCreate(tx *gorm.DB) (err error) {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return
}

// ClientLabel resolves the display identity: the referenced client wins over
// the free-text name.
func (w *WorkRecord) ClientLabel(sep string) string {
	if w.Client != nil && w.Client.Name != "" {
		return w.Client.Name + sep + w.Client.IDNumber
	}
	if w.ClientName != nil && *w.ClientName != "" {
		return *w.ClientName
	}
	return NoClientLabel
}
