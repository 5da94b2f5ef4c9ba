package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Booking records that a user paid for a tour.
type Booking struct {
	ID        uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	TourID    uuid.UUID       `json:"tourId" gorm:"type:char(36);not null;index"`
	UserID    uuid.UUID       `json:"userId" gorm:"type:char(36);not null;index"`
	Price     decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Paid      bool            `json:"paid" gorm:"not null;default:true"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"-"`

	Tour *Tour `json:"tour,omitempty" gorm:"foreignKey:TourID"`
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// BeforeCreate sets UUID before creating the record.
func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
