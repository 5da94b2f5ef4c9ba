package handler

import (
	"context"
	"mime/multipart"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"natours/internal/model"
	"natours/internal/payment"
	"natours/internal/repository"
	"natours/internal/service"
)

// MockAuthService is a mock implementation of service.AuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Signup(ctx context.Context, in service.SignupInput, welcomeURL string) (*service.Session, error) {
	args := m.Called(ctx, in, welcomeURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Session), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*service.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Session), args.Error(1)
}

func (m *MockAuthService) ForgotPassword(ctx context.Context, email string, resetURL func(token string) string) error {
	args := m.Called(ctx, email, resetURL)
	return args.Error(0)
}

func (m *MockAuthService) ResetPassword(ctx context.Context, token, password string) (*service.Session, error) {
	args := m.Called(ctx, token, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Session), args.Error(1)
}

func (m *MockAuthService) UpdatePassword(ctx context.Context, userID uuid.UUID, current, password string) (*service.Session, error) {
	args := m.Called(ctx, userID, current, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Session), args.Error(1)
}

func (m *MockAuthService) Authenticate(ctx context.Context, token string) (*model.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

// MockUserService is a mock implementation of service.UserService.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) ListUsers(ctx context.Context, q repository.Query) ([]model.User, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserService) UpdateMe(ctx context.Context, id uuid.UUID, in service.UpdateMeInput) (*model.User, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) DeleteMe(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockUserService) UpdateUser(ctx context.Context, id uuid.UUID, in service.UpdateUserInput) (*model.User, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) DeleteUser(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockTourService is a mock implementation of service.TourService.
type MockTourService struct {
	mock.Mock
}

func (m *MockTourService) Create(ctx context.Context, in service.TourInput) (*model.Tour, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Tour), args.Error(1)
}

func (m *MockTourService) Update(ctx context.Context, id uuid.UUID, in service.TourInput) (*model.Tour, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Tour), args.Error(1)
}

func (m *MockTourService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTourService) Get(ctx context.Context, id uuid.UUID) (*model.Tour, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Tour), args.Error(1)
}

func (m *MockTourService) GetBySlug(ctx context.Context, slug string) (*model.Tour, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Tour), args.Error(1)
}

func (m *MockTourService) List(ctx context.Context, q repository.Query) ([]model.Tour, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Tour), args.Error(1)
}

func (m *MockTourService) ListAll(ctx context.Context) ([]model.Tour, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Tour), args.Error(1)
}

func (m *MockTourService) Stats(ctx context.Context) ([]repository.TourStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]repository.TourStats), args.Error(1)
}

func (m *MockTourService) MonthlyPlan(ctx context.Context, year int) ([]service.MonthlyPlan, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.MonthlyPlan), args.Error(1)
}

func (m *MockTourService) Within(ctx context.Context, dist float64, center service.Point, unit service.Unit) ([]model.Tour, error) {
	args := m.Called(ctx, dist, center, unit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Tour), args.Error(1)
}

func (m *MockTourService) Distances(ctx context.Context, center service.Point, unit service.Unit) ([]service.TourDistance, error) {
	args := m.Called(ctx, center, unit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.TourDistance), args.Error(1)
}

func (m *MockTourService) InvalidateAggregates(ctx context.Context, years ...int) {
	m.Called(ctx, years)
}

// MockReviewService is a mock implementation of service.ReviewService.
type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) List(ctx context.Context, tourID *uuid.UUID) ([]model.Review, error) {
	args := m.Called(ctx, tourID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Review), args.Error(1)
}

func (m *MockReviewService) Get(ctx context.Context, id uuid.UUID) (*model.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Review), args.Error(1)
}

func (m *MockReviewService) Create(ctx context.Context, review *model.Review) (*model.Review, error) {
	args := m.Called(ctx, review)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Review), args.Error(1)
}

func (m *MockReviewService) Update(ctx context.Context, actor *model.User, id uuid.UUID, in service.ReviewInput) (*model.Review, error) {
	args := m.Called(ctx, actor, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Review), args.Error(1)
}

func (m *MockReviewService) Delete(ctx context.Context, actor *model.User, id uuid.UUID) error {
	return m.Called(ctx, actor, id).Error(0)
}

// MockBookingService is a mock implementation of service.BookingService.
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) Checkout(ctx context.Context, user *model.User, tourID uuid.UUID, baseURL string) (*payment.Session, error) {
	args := m.Called(ctx, user, tourID, baseURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Session), args.Error(1)
}

func (m *MockBookingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	return m.Called(ctx, payload, signature).Error(0)
}

func (m *MockBookingService) MyTours(ctx context.Context, userID uuid.UUID) ([]model.Tour, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Tour), args.Error(1)
}

func (m *MockBookingService) List(ctx context.Context) ([]model.Booking, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Booking), args.Error(1)
}

func (m *MockBookingService) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingService) Create(ctx context.Context, in service.BookingInput) (*model.Booking, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingService) Update(ctx context.Context, id uuid.UUID, in service.BookingInput) (*model.Booking, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Booking), args.Error(1)
}

func (m *MockBookingService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockImageStore is a mock implementation of ImageStore.
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) UserPhoto(userID uuid.UUID, fh *multipart.FileHeader) (string, error) {
	args := m.Called(userID, fh)
	return args.String(0), args.Error(1)
}

func (m *MockImageStore) TourImages(tourID uuid.UUID, cover *multipart.FileHeader, images []*multipart.FileHeader) (string, []string, error) {
	args := m.Called(tourID, cover, images)
	names, _ := args.Get(1).([]string)
	return args.String(0), names, args.Error(2)
}
