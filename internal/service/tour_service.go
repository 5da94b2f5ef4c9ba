package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"natours/internal/cache"
	"natours/internal/model"
	"natours/internal/repository"
)

const (
	tourStatsKey   = "tours:stats"
	tourCacheTTL   = 5 * time.Minute
	topStatsRating = 4.5
	maxPlanMonths  = 12
)

func monthlyPlanKey(year int) string {
	return fmt.Sprintf("tours:plan:%d", year)
}

// TourInput carries tour fields from a create or patch request. Nil fields are
// left untouched.
type TourInput struct {
	Name          *string           `json:"name"`
	Duration      *int              `json:"duration"`
	MaxGroupSize  *int              `json:"maxGroupSize"`
	Difficulty    *model.Difficulty `json:"difficulty"`
	Price         *decimal.Decimal  `json:"price"`
	PriceDiscount *decimal.Decimal  `json:"priceDiscount"`
	Summary       *string           `json:"summary"`
	Description   *string           `json:"description"`
	ImageCover    *string           `json:"imageCover"`
	Images        *[]string         `json:"images"`
	StartDates    *[]time.Time      `json:"startDates"`
	SecretTour    *bool             `json:"secretTour"`
	StartLocation *model.Location   `json:"startLocation"`
	Locations     *[]model.Location `json:"locations"`
	Guides        *[]uuid.UUID      `json:"guides"`
}

func (in TourInput) apply(t *model.Tour) {
	if in.Name != nil {
		t.Name = *in.Name
	}
	if in.Duration != nil {
		t.Duration = *in.Duration
	}
	if in.MaxGroupSize != nil {
		t.MaxGroupSize = *in.MaxGroupSize
	}
	if in.Difficulty != nil {
		t.Difficulty = *in.Difficulty
	}
	if in.Price != nil {
		t.Price = *in.Price
	}
	if in.PriceDiscount != nil {
		d := *in.PriceDiscount
		t.PriceDiscount = &d
	}
	if in.Summary != nil {
		t.Summary = *in.Summary
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.ImageCover != nil {
		t.ImageCover = *in.ImageCover
	}
	if in.Images != nil {
		t.Images = *in.Images
	}
	if in.StartDates != nil {
		t.StartDates = *in.StartDates
	}
	if in.SecretTour != nil {
		t.SecretTour = *in.SecretTour
	}
	if in.StartLocation != nil {
		t.StartLocation = *in.StartLocation
	}
	if in.Locations != nil {
		t.Locations = *in.Locations
	}
}

// MonthlyPlan is the number of tours starting in one month.
type MonthlyPlan struct {
	Month         int      `json:"month"`
	NumTourStarts int      `json:"numTourStarts"`
	Tours         []string `json:"tours"`
}

// TourService exposes tour operations. Aggregates are cached in Redis when it
// is configured and dropped on every write.
type TourService interface {
	Create(ctx context.Context, in TourInput) (*model.Tour, error)
	Update(ctx context.Context, id uuid.UUID, in TourInput) (*model.Tour, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*model.Tour, error)
	GetBySlug(ctx context.Context, slug string) (*model.Tour, error)
	List(ctx context.Context, q repository.Query) ([]model.Tour, error)
	ListAll(ctx context.Context) ([]model.Tour, error)
	Stats(ctx context.Context) ([]repository.TourStats, error)
	MonthlyPlan(ctx context.Context, year int) ([]MonthlyPlan, error)
	Within(ctx context.Context, dist float64, center Point, unit Unit) ([]model.Tour, error)
	Distances(ctx context.Context, center Point, unit Unit) ([]TourDistance, error)
	InvalidateAggregates(ctx context.Context, years ...int)
}

type tourService struct {
	tours repository.TourRepository
	users repository.UserRepository
	cache *cache.Client
}

// NewTourService creates a new tour service.
func NewTourService(tours repository.TourRepository, users repository.UserRepository, cache *cache.Client) TourService {
	return &tourService{tours: tours, users: users, cache: cache}
}

func (s *tourService) Create(ctx context.Context, in TourInput) (*model.Tour, error) {
	tour := &model.Tour{RatingsAverage: model.DefaultRatingsAverage}
	in.apply(tour)
	if err := s.prepare(ctx, tour, in.Guides); err != nil {
		return nil, err
	}
	if err := s.tours.Create(ctx, tour); err != nil {
		return nil, fmt.Errorf("create tour: %w", err)
	}
	s.InvalidateAggregates(ctx, startYears(tour)...)
	return tour, nil
}

func (s *tourService) Update(ctx context.Context, id uuid.UUID, in TourInput) (*model.Tour, error) {
	tour, err := s.tours.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	years := startYears(tour)

	in.apply(tour)
	tour.Reviews = nil
	if err := s.prepare(ctx, tour, in.Guides); err != nil {
		return nil, err
	}
	if err := s.tours.Update(ctx, tour); err != nil {
		return nil, fmt.Errorf("update tour: %w", err)
	}
	s.InvalidateAggregates(ctx, append(years, startYears(tour)...)...)
	return tour, nil
}

// prepare normalizes and validates the tour and resolves guide IDs to users.
func (s *tourService) prepare(ctx context.Context, tour *model.Tour, guideIDs *[]uuid.UUID) error {
	tour.Normalize()
	if err := tour.Validate(); err != nil {
		return err
	}
	if guideIDs == nil {
		return nil
	}

	guides, err := s.users.FindByIDs(ctx, *guideIDs)
	if err != nil {
		return fmt.Errorf("load guides: %w", err)
	}
	if len(guides) != len(uniqueIDs(*guideIDs)) {
		return &model.ValidationError{Messages: []string{"Every guide must be an existing user"}}
	}
	tour.Guides = guides
	return nil
}

func (s *tourService) Delete(ctx context.Context, id uuid.UUID) error {
	tour, err := s.tours.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.tours.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete tour: %w", err)
	}
	s.InvalidateAggregates(ctx, startYears(tour)...)
	return nil
}

func (s *tourService) Get(ctx context.Context, id uuid.UUID) (*model.Tour, error) {
	return s.tours.FindByID(ctx, id)
}

func (s *tourService) GetBySlug(ctx context.Context, slug string) (*model.Tour, error) {
	return s.tours.FindBySlug(ctx, slug)
}

func (s *tourService) List(ctx context.Context, q repository.Query) ([]model.Tour, error) {
	return s.tours.List(ctx, q)
}

func (s *tourService) ListAll(ctx context.Context) ([]model.Tour, error) {
	return s.tours.ListAll(ctx)
}

func (s *tourService) Stats(ctx context.Context) ([]repository.TourStats, error) {
	var stats []repository.TourStats
	if s.cache.GetJSON(ctx, tourStatsKey, &stats) {
		return stats, nil
	}

	stats, err := s.tours.Stats(ctx, topStatsRating)
	if err != nil {
		return nil, fmt.Errorf("tour stats: %w", err)
	}
	s.cache.SetJSON(ctx, tourStatsKey, stats, tourCacheTTL)
	return stats, nil
}

// MonthlyPlan counts tour start dates per month of year, busiest month first.
func (s *tourService) MonthlyPlan(ctx context.Context, year int) ([]MonthlyPlan, error) {
	key := monthlyPlanKey(year)
	var plan []MonthlyPlan
	if s.cache.GetJSON(ctx, key, &plan) {
		return plan, nil
	}

	tours, err := s.tours.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("monthly plan: %w", err)
	}
	plan = buildMonthlyPlan(tours, year)
	s.cache.SetJSON(ctx, key, plan, tourCacheTTL)
	return plan, nil
}

func buildMonthlyPlan(tours []model.Tour, year int) []MonthlyPlan {
	byMonth := map[int]*MonthlyPlan{}
	for _, t := range tours {
		for _, d := range t.StartDates {
			d = d.UTC()
			if d.Year() != year {
				continue
			}
			m := int(d.Month())
			p, ok := byMonth[m]
			if !ok {
				p = &MonthlyPlan{Month: m}
				byMonth[m] = p
			}
			p.NumTourStarts++
			p.Tours = append(p.Tours, t.Name)
		}
	}

	plan := make([]MonthlyPlan, 0, len(byMonth))
	for _, p := range byMonth {
		plan = append(plan, *p)
	}
	sort.Slice(plan, func(i, j int) bool {
		if plan[i].NumTourStarts != plan[j].NumTourStarts {
			return plan[i].NumTourStarts > plan[j].NumTourStarts
		}
		return plan[i].Month < plan[j].Month
	})
	if len(plan) > maxPlanMonths {
		plan = plan[:maxPlanMonths]
	}
	return plan
}

func (s *tourService) Within(ctx context.Context, dist float64, center Point, unit Unit) ([]model.Tour, error) {
	tours, err := s.tours.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return withinRadius(tours, center, dist, unit), nil
}

func (s *tourService) Distances(ctx context.Context, center Point, unit Unit) ([]TourDistance, error) {
	tours, err := s.tours.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	return distancesFrom(tours, center, unit), nil
}

// InvalidateAggregates drops the cached stats and the monthly plans of years.
func (s *tourService) InvalidateAggregates(ctx context.Context, years ...int) {
	keys := []string{tourStatsKey}
	for _, y := range years {
		keys = append(keys, monthlyPlanKey(y))
	}
	_ = s.cache.Delete(ctx, keys...)
}

func startYears(t *model.Tour) []int {
	seen := map[int]bool{}
	var years []int
	for _, d := range t.StartDates {
		y := d.UTC().Year()
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	return years
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
