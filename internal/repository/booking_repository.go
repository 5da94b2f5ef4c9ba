package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"natours/internal/model"
)

// BookingRepository defines booking persistence operations.
type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	Update(ctx context.Context, booking *model.Booking) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	List(ctx context.Context) ([]model.Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Booking, error)
}

type bookingRepository struct {
	db *gorm.DB
}

// NewBookingRepository creates a new booking repository.
func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func withBookingRefs(db *gorm.DB) *gorm.DB {
	return db.
		Preload("User", func(tx *gorm.DB) *gorm.DB { return tx.Select("id", "name", "email", "photo") }).
		Preload("Tour", func(tx *gorm.DB) *gorm.DB { return tx.Select("id", "name", "slug", "price", "duration") })
}

func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	return r.db.WithContext(ctx).Omit("Tour", "User").Create(booking).Error
}

func (r *bookingRepository) Update(ctx context.Context, booking *model.Booking) error {
	return r.db.WithContext(ctx).Omit("Tour", "User").Save(booking).Error
}

func (r *bookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Booking{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	var booking model.Booking
	if err := r.db.WithContext(ctx).Scopes(withBookingRefs).Where("id = ?", id).First(&booking).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) List(ctx context.Context) ([]model.Booking, error) {
	var bookings []model.Booking
	if err := r.db.WithContext(ctx).Scopes(withBookingRefs).Order("created_at DESC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *bookingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Booking, error) {
	var bookings []model.Booking
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&bookings).Error; err != nil {
		return nil, err
	}
	return bookings, nil
}
