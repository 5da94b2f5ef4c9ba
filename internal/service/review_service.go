package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	apperrors "natours/internal/errors"
	"natours/internal/model"
	"natours/internal/repository"
)

// ReviewInput carries the editable fields of a review.
type ReviewInput struct {
	Review *string `json:"review"`
	Rating *int    `json:"rating"`
}

// ReviewService exposes review operations.
type ReviewService interface {
	List(ctx context.Context, tourID *uuid.UUID) ([]model.Review, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Review, error)
	Create(ctx context.Context, review *model.Review) (*model.Review, error)
	Update(ctx context.Context, actor *model.User, id uuid.UUID, in ReviewInput) (*model.Review, error)
	Delete(ctx context.Context, actor *model.User, id uuid.UUID) error
}

type reviewService struct {
	reviews repository.ReviewRepository
	tours   repository.TourRepository
	tourSvc TourService
}

// NewReviewService creates a new review service. tourSvc is told about every
// write so cached tour aggregates follow the recomputed ratings.
func NewReviewService(reviews repository.ReviewRepository, tours repository.TourRepository, tourSvc TourService) ReviewService {
	return &reviewService{reviews: reviews, tours: tours, tourSvc: tourSvc}
}

func (s *reviewService) List(ctx context.Context, tourID *uuid.UUID) ([]model.Review, error) {
	return s.reviews.List(ctx, tourID)
}

func (s *reviewService) Get(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	return s.reviews.FindByID(ctx, id)
}

func (s *reviewService) Create(ctx context.Context, review *model.Review) (*model.Review, error) {
	if err := review.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.tours.FindByID(ctx, review.TourID); err != nil {
		return nil, err
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, fmt.Errorf("create review: %w", err)
	}
	s.tourSvc.InvalidateAggregates(ctx)
	return review, nil
}

func (s *reviewService) Update(ctx context.Context, actor *model.User, id uuid.UUID, in ReviewInput) (*model.Review, error) {
	review, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if in.Review != nil {
		review.Review = *in.Review
	}
	if in.Rating != nil {
		review.Rating = *in.Rating
	}
	if err := review.Validate(); err != nil {
		return nil, err
	}
	if err := s.reviews.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	s.tourSvc.InvalidateAggregates(ctx)
	return review, nil
}

func (s *reviewService) Delete(ctx context.Context, actor *model.User, id uuid.UUID) error {
	review, err := s.owned(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, review); err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	s.tourSvc.InvalidateAggregates(ctx)
	return nil
}

// owned loads a review that actor may change: their own, or any for admins.
func (s *reviewService) owned(ctx context.Context, actor *model.User, id uuid.UUID) (*model.Review, error) {
	review, err := s.reviews.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != model.RoleAdmin && review.UserID != actor.ID {
		return nil, apperrors.ErrForbidden
	}
	return review, nil
}
