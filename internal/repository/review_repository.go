package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"natours/internal/model"
)

// ReviewRepository defines review persistence operations. Every write
// recomputes the ratings of the affected tour in the same transaction.
type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	Update(ctx context.Context, review *model.Review) error
	Delete(ctx context.Context, review *model.Review) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Review, error)
	List(ctx context.Context, tourID *uuid.UUID) ([]model.Review, error)
}

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository creates a new review repository.
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("User").Create(review).Error; err != nil {
			return err
		}
		return recalcRatings(tx, review.TourID)
	})
}

func (r *reviewRepository) Update(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("User").Save(review).Error; err != nil {
			return err
		}
		return recalcRatings(tx, review.TourID)
	})
}

func (r *reviewRepository) Delete(ctx context.Context, review *model.Review) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.Review{}, "id = ?", review.ID).Error; err != nil {
			return err
		}
		return recalcRatings(tx, review.TourID)
	})
}

func (r *reviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	var review model.Review
	err := r.db.WithContext(ctx).
		Preload("User", func(tx *gorm.DB) *gorm.DB { return tx.Select("id", "name", "photo") }).
		Where("id = ?", id).First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *reviewRepository) List(ctx context.Context, tourID *uuid.UUID) ([]model.Review, error) {
	var reviews []model.Review
	db := r.db.WithContext(ctx).
		Preload("User", func(tx *gorm.DB) *gorm.DB { return tx.Select("id", "name", "photo") })
	if tourID != nil {
		db = db.Where("tour_id = ?", *tourID)
	}
	if err := db.Order("created_at DESC").Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

func recalcRatings(tx *gorm.DB, tourID uuid.UUID) error {
	var row struct {
		Quantity int
		Average  float64
	}
	err := tx.Model(&model.Review{}).
		Select("COUNT(*) AS quantity, COALESCE(AVG(rating), 0) AS average").
		Where("tour_id = ?", tourID).
		Scan(&row).Error
	if err != nil {
		return err
	}

	var tour model.Tour
	model.RatingSummary{Quantity: row.Quantity, Average: row.Average}.Apply(&tour)
	return tx.Model(&model.Tour{}).Where("id = ?", tourID).Updates(map[string]interface{}{
		"ratings_quantity": tour.RatingsQuantity,
		"ratings_average":  tour.RatingsAverage,
	}).Error
}
