package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"natours/internal/model"
)

// TourColumns lists the tour fields clients may filter, sort and select.
var TourColumns = Columns{
	"name":            "name",
	"slug":            "slug",
	"duration":        "duration",
	"maxGroupSize":    "max_group_size",
	"difficulty":      "difficulty",
	"ratingsAverage":  "ratings_average",
	"ratingsQuantity": "ratings_quantity",
	"price":           "price",
	"priceDiscount":   "price_discount",
	"summary":         "summary",
	"description":     "description",
	"imageCover":      "image_cover",
	"images":          "images",
	"startDates":      "start_dates",
	"startLocation":   "start_location",
	"locations":       "locations",
	"createdAt":       "created_at",
}

// TourStats is one row of the per-difficulty statistics.
type TourStats struct {
	Difficulty string  `json:"difficulty"`
	NumTours   int     `json:"numTours"`
	NumRatings int     `json:"numRatings"`
	AvgRating  float64 `json:"avgRating"`
	AvgPrice   float64 `json:"avgPrice"`
	MinPrice   float64 `json:"minPrice"`
	MaxPrice   float64 `json:"maxPrice"`
}

// Public hides secret tours.
func Public(db *gorm.DB) *gorm.DB {
	return db.Where("secret_tour = ?", false)
}

func withGuides(db *gorm.DB) *gorm.DB {
	return db.Preload("Guides", func(tx *gorm.DB) *gorm.DB {
		return tx.Scopes(Active).Select("id", "name", "email", "photo", "role")
	})
}

// TourRepository defines tour persistence operations.
type TourRepository interface {
	Create(ctx context.Context, tour *model.Tour) error
	Update(ctx context.Context, tour *model.Tour) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Tour, error)
	FindBySlug(ctx context.Context, slug string) (*model.Tour, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Tour, error)
	List(ctx context.Context, q Query) ([]model.Tour, error)
	ListAll(ctx context.Context) ([]model.Tour, error)
	Stats(ctx context.Context, minRating float64) ([]TourStats, error)
}

type tourRepository struct {
	db *gorm.DB
}

// NewTourRepository creates a new tour repository.
func NewTourRepository(db *gorm.DB) TourRepository {
	return &tourRepository{db: db}
}

func (r *tourRepository) Create(ctx context.Context, tour *model.Tour) error {
	return r.db.WithContext(ctx).Omit("Guides.*", "Reviews").Create(tour).Error
}

// Update saves all columns and replaces the guide list.
func (r *tourRepository) Update(ctx context.Context, tour *model.Tour) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Guides", "Reviews").Save(tour).Error; err != nil {
			return err
		}
		return tx.Model(tour).Association("Guides").Replace(tour.Guides)
	})
}

func (r *tourRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tour := model.Tour{ID: id}
		if err := tx.Model(&tour).Association("Guides").Clear(); err != nil {
			return err
		}
		if err := tx.Where("tour_id = ?", id).Delete(&model.Review{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&tour)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *tourRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Tour, error) {
	var tour model.Tour
	err := r.db.WithContext(ctx).Scopes(Public, withGuides).
		Preload("Reviews.User", func(tx *gorm.DB) *gorm.DB { return tx.Select("id", "name", "photo") }).
		Where("id = ?", id).First(&tour).Error
	if err != nil {
		return nil, err
	}
	return &tour, nil
}

func (r *tourRepository) FindBySlug(ctx context.Context, slug string) (*model.Tour, error) {
	var tour model.Tour
	err := r.db.WithContext(ctx).Scopes(Public, withGuides).
		Preload("Reviews", func(tx *gorm.DB) *gorm.DB { return tx.Order("created_at DESC") }).
		Preload("Reviews.User", func(tx *gorm.DB) *gorm.DB { return tx.Select("id", "name", "photo") }).
		Where("slug = ?", slug).First(&tour).Error
	if err != nil {
		return nil, err
	}
	return &tour, nil
}

func (r *tourRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Tour, error) {
	var tours []model.Tour
	if len(ids) == 0 {
		return tours, nil
	}
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&tours).Error; err != nil {
		return nil, err
	}
	return tours, nil
}

func (r *tourRepository) List(ctx context.Context, q Query) ([]model.Tour, error) {
	var tours []model.Tour
	db := q.Apply(r.db.WithContext(ctx).Scopes(Public))
	if len(q.Fields) == 0 {
		db = db.Scopes(withGuides)
	}
	if err := db.Find(&tours).Error; err != nil {
		return nil, err
	}
	return tours, nil
}

func (r *tourRepository) ListAll(ctx context.Context) ([]model.Tour, error) {
	var tours []model.Tour
	if err := r.db.WithContext(ctx).Scopes(Public).Order("created_at").Find(&tours).Error; err != nil {
		return nil, err
	}
	return tours, nil
}

func (r *tourRepository) Stats(ctx context.Context, minRating float64) ([]TourStats, error) {
	var stats []TourStats
	err := r.db.WithContext(ctx).Model(&model.Tour{}).Scopes(Public).
		Select(`UPPER(difficulty) AS difficulty,
			COUNT(*) AS num_tours,
			SUM(ratings_quantity) AS num_ratings,
			AVG(ratings_average) AS avg_rating,
			AVG(price) AS avg_price,
			MIN(price) AS min_price,
			MAX(price) AS max_price`).
		Where("ratings_average >= ?", minRating).
		Group("difficulty").
		Order("avg_price").
		Scan(&stats).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}
