package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is a user's rating of a tour. A user reviews a tour at most once.
type Review struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Review    string    `json:"review" gorm:"type:text;not null"`
	Rating    int       `json:"rating" gorm:"not null"`
	TourID    uuid.UUID `json:"tour" gorm:"type:char(36);not null;uniqueIndex:idx_reviews_tour_user"`
	UserID    uuid.UUID `json:"-" gorm:"type:char(36);not null;uniqueIndex:idx_reviews_tour_user"`
	User      *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`
}

// BeforeCreate sets UUID before creating the record.
func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Validate checks the document level constraints of a review.
func (r *Review) Validate() error {
	var v validation
	v.check(strings.TrimSpace(r.Review) != "", "Review can not be empty!")
	v.check(r.Rating >= 1 && r.Rating <= 5, "Rating must be between 1 and 5")
	v.check(r.TourID != uuid.Nil, "Review must belong to a tour.")
	v.check(r.UserID != uuid.Nil, "Review must belong to a user")
	return v.err()
}

// RatingSummary is the aggregate of all reviews of one tour.
type RatingSummary struct {
	Quantity int
	Average  float64
}

// Apply copies the summary onto the tour, resetting to defaults when no
// reviews remain.
func (s RatingSummary) Apply(t *Tour) {
	if s.Quantity == 0 {
		t.RatingsQuantity = 0
		t.RatingsAverage = DefaultRatingsAverage
		return
	}
	t.RatingsQuantity = s.Quantity
	t.RatingsAverage = RoundRating(s.Average)
}
