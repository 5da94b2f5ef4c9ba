package model

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Difficulty grades a tour.
type Difficulty string

const (
	DifficultyEasy      Difficulty = "easy"
	DifficultyMedium    Difficulty = "medium"
	DifficultyDifficult Difficulty = "difficult"
)

const DefaultRatingsAverage = 4.5

// Location is a GeoJSON point with a description. Coordinates are [lng, lat].
type Location struct {
	Type        string     `json:"type"`
	Coordinates [2]float64 `json:"coordinates"`
	Address     string     `json:"address,omitempty"`
	Description string     `json:"description,omitempty"`
	Day         int        `json:"day,omitempty"`
}

func (l Location) Lng() float64 { return l.Coordinates[0] }
func (l Location) Lat() float64 { return l.Coordinates[1] }

// Tour is a bookable tour.
type Tour struct {
	ID              uuid.UUID        `json:"id" gorm:"type:char(36);primaryKey"`
	Name            string           `json:"name" gorm:"uniqueIndex;size:40;not null"`
	Slug            string           `json:"slug" gorm:"size:64;index"`
	Duration        int              `json:"duration" gorm:"not null"`
	DurationWeeks   float64          `json:"durationWeeks" gorm:"-"`
	MaxGroupSize    int              `json:"maxGroupSize" gorm:"not null"`
	Difficulty      Difficulty       `json:"difficulty" gorm:"type:varchar(20);not null"`
	RatingsAverage  float64          `json:"ratingsAverage" gorm:"not null;default:4.5"`
	RatingsQuantity int              `json:"ratingsQuantity" gorm:"not null;default:0"`
	Price           decimal.Decimal  `json:"price" gorm:"type:decimal(10,2);not null"`
	PriceDiscount   *decimal.Decimal `json:"priceDiscount,omitempty" gorm:"type:decimal(10,2)"`
	Summary         string           `json:"summary" gorm:"size:255;not null"`
	Description     string           `json:"description,omitempty" gorm:"type:text"`
	ImageCover      string           `json:"imageCover" gorm:"size:255;not null"`
	Images          []string         `json:"images" gorm:"serializer:json"`
	StartDates      []time.Time      `json:"startDates" gorm:"serializer:json"`
	SecretTour      bool             `json:"-" gorm:"not null;default:false;index"`
	StartLocation   Location         `json:"startLocation" gorm:"serializer:json"`
	Locations       []Location       `json:"locations" gorm:"serializer:json"`
	Guides          []User           `json:"guides" gorm:"many2many:tour_guides"`
	Reviews         []Review         `json:"reviews,omitempty" gorm:"foreignKey:TourID"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"-"`
}

// BeforeCreate sets UUID before creating the record.
func (t *Tour) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// BeforeSave derives the slug and normalizes the rating.
func (t *Tour) BeforeSave(tx *gorm.DB) error {
	t.Normalize()
	return nil
}

// AfterFind fills derived fields.
func (t *Tour) AfterFind(tx *gorm.DB) error {
	t.DurationWeeks = float64(t.Duration) / 7
	return nil
}

// Normalize trims the name, derives the slug and rounds the rating average to
// one decimal place.
func (t *Tour) Normalize() {
	t.Name = strings.TrimSpace(t.Name)
	t.Slug = slug.Make(t.Name)
	t.RatingsAverage = RoundRating(t.RatingsAverage)
	if t.StartLocation.Type == "" {
		t.StartLocation.Type = "Point"
	}
	for i := range t.Locations {
		if t.Locations[i].Type == "" {
			t.Locations[i].Type = "Point"
		}
	}
	t.DurationWeeks = float64(t.Duration) / 7
}

// Validate checks the document level constraints of a tour.
func (t *Tour) Validate() error {
	var v validation
	name := strings.TrimSpace(t.Name)
	chars := utf8.RuneCountInString(name)
	v.check(name != "", "A tour must have a name")
	v.check(name == "" || chars <= 40, "A tour name must have less or equal then 40 characters")
	v.check(name == "" || chars >= 10, "A tour name must have more or equal then 10 characters")
	v.check(t.Duration > 0, "A tour must have a duration")
	v.check(t.MaxGroupSize > 0, "A tour must have a group size")
	v.check(t.Difficulty == DifficultyEasy || t.Difficulty == DifficultyMedium || t.Difficulty == DifficultyDifficult,
		"Difficulty is either: easy, medium, difficult")
	v.check(t.RatingsAverage == 0 || (t.RatingsAverage >= 1 && t.RatingsAverage <= 5), "Rating must be between 1.0 and 5.0")
	v.check(t.Price.IsPositive(), "A tour must have a price")
	if t.PriceDiscount != nil {
		v.check(t.PriceDiscount.LessThan(t.Price),
			"Discount price ("+t.PriceDiscount.String()+") should be below regular price")
	}
	v.check(strings.TrimSpace(t.Summary) != "", "A tour must have a summary")
	v.check(t.ImageCover != "", "A tour must have a cover image")
	return v.err()
}

// RoundRating rounds a rating average to one decimal place.
func RoundRating(v float64) float64 {
	return math.Round(v*10) / 10
}
