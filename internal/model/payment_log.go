package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentEvent names a step of the checkout flow.
type PaymentEvent string

const (
	PaymentEventSessionCreated    PaymentEvent = "session_created"
	PaymentEventCheckoutCompleted PaymentEvent = "checkout_completed"
)

// PaymentStatus is the outcome of a checkout step.
type PaymentStatus string

const (
	PaymentStatusAccepted PaymentStatus = "accepted"
	PaymentStatusFailed   PaymentStatus = "failed"
)

// PaymentLog is an append-only record of every checkout step, successful or not.
type PaymentLog struct {
	ID           uuid.UUID     `json:"id" gorm:"type:char(36);primaryKey"`
	SessionID    string        `json:"sessionId,omitempty" gorm:"size:255;index"`
	TourID       uuid.UUID     `json:"tourId" gorm:"type:char(36);index"`
	UserEmail    string        `json:"userEmail,omitempty" gorm:"size:255"`
	Event        PaymentEvent  `json:"event" gorm:"type:varchar(40);not null"`
	Status       PaymentStatus `json:"status" gorm:"type:varchar(20);not null;index"`
	ErrorMessage string        `json:"errorMessage,omitempty" gorm:"type:text"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// BeforeCreate sets UUID before creating the record.
func (pl *PaymentLog) BeforeCreate(tx *gorm.DB) error {
	if pl.ID == uuid.Nil {
		pl.ID = uuid.New()
	}
	return nil
}
