package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "natours/internal/errors"
	"natours/internal/model"
	"natours/internal/payment"
	"natours/internal/repository"
)

// BookingInput carries booking fields for administrative create and update.
type BookingInput struct {
	Tour  *uuid.UUID       `json:"tour"`
	User  *uuid.UUID       `json:"user"`
	Price *decimal.Decimal `json:"price"`
	Paid  *bool            `json:"paid"`
}

func (in BookingInput) apply(b *model.Booking) {
	if in.Tour != nil {
		b.TourID = *in.Tour
	}
	if in.User != nil {
		b.UserID = *in.User
	}
	if in.Price != nil {
		b.Price = *in.Price
	}
	if in.Paid != nil {
		b.Paid = *in.Paid
	}
}

func validateBooking(b *model.Booking) error {
	var msgs []string
	if b.TourID == uuid.Nil {
		msgs = append(msgs, "Booking must belong to a Tour!")
	}
	if b.UserID == uuid.Nil {
		msgs = append(msgs, "Booking must belong to a User!")
	}
	if !b.Price.IsPositive() {
		msgs = append(msgs, "Booking must have a price.")
	}
	if len(msgs) > 0 {
		return &model.ValidationError{Messages: msgs}
	}
	return nil
}

// BookingService handles checkout and booking management.
type BookingService interface {
	Checkout(ctx context.Context, user *model.User, tourID uuid.UUID, baseURL string) (*payment.Session, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
	MyTours(ctx context.Context, userID uuid.UUID) ([]model.Tour, error)
	List(ctx context.Context) ([]model.Booking, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Booking, error)
	Create(ctx context.Context, in BookingInput) (*model.Booking, error)
	Update(ctx context.Context, id uuid.UUID, in BookingInput) (*model.Booking, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type bookingService struct {
	bookings repository.BookingRepository
	tours    repository.TourRepository
	users    repository.UserRepository
	gateway  payment.Gateway
	payLog   *PaymentLogger
	logger   *slog.Logger
}

// NewBookingService creates a booking service. A nil gateway disables checkout.
func NewBookingService(
	bookings repository.BookingRepository,
	tours repository.TourRepository,
	users repository.UserRepository,
	gateway payment.Gateway,
	payLog *PaymentLogger,
	logger *slog.Logger,
) BookingService {
	if logger == nil {
		logger = slog.Default()
	}
	return &bookingService{
		bookings: bookings,
		tours:    tours,
		users:    users,
		gateway:  gateway,
		payLog:   payLog,
		logger:   logger,
	}
}

// Checkout creates a hosted checkout session for one tour.
func (s *bookingService) Checkout(ctx context.Context, user *model.User, tourID uuid.UUID, baseURL string) (*payment.Session, error) {
	if s.gateway == nil {
		return nil, apperrors.ErrPaymentUnavailable
	}
	tour, err := s.tours.FindByID(ctx, tourID)
	if err != nil {
		return nil, err
	}

	req := payment.CheckoutRequest{
		ClientReferenceID: tour.ID.String(),
		CustomerEmail:     user.Email,
		ProductName:       tour.Name + " Tour",
		Description:       tour.Summary,
		Amount:            tour.Price,
		SuccessURL:        baseURL + "/my-tours?alert=booking",
		CancelURL:         baseURL + "/tour/" + tour.Slug,
	}
	if tour.ImageCover != "" {
		req.ImageURL = baseURL + "/img/tours/" + tour.ImageCover
	}

	sess, err := s.gateway.CreateCheckoutSession(ctx, req)
	entry := model.PaymentLog{TourID: tour.ID, UserEmail: user.Email, Event: model.PaymentEventSessionCreated}
	if err != nil {
		entry.Status = model.PaymentStatusFailed
		entry.ErrorMessage = err.Error()
		s.payLog.Log(ctx, entry)
		return nil, err
	}
	entry.SessionID = sess.ID
	entry.Status = model.PaymentStatusAccepted
	s.payLog.Log(ctx, entry)
	return sess, nil
}

// HandleWebhook verifies a payment webhook and books the paid tour. Events
// other than a completed checkout are acknowledged and ignored.
func (s *bookingService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	if s.gateway == nil {
		return apperrors.ErrPaymentUnavailable
	}
	done, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrIgnoredEvent) {
			return nil
		}
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidWebhook, err)
	}

	entry := model.PaymentLog{
		SessionID: done.SessionID,
		UserEmail: done.CustomerEmail,
		Event:     model.PaymentEventCheckoutCompleted,
		Status:    model.PaymentStatusAccepted,
	}
	if err := s.bookCheckout(ctx, done, &entry); err != nil {
		entry.Status = model.PaymentStatusFailed
		entry.ErrorMessage = err.Error()
		s.payLog.Log(ctx, entry)
		s.logger.ErrorContext(ctx, "booking from checkout failed", "session_id", done.SessionID, "error", err)
		return err
	}
	s.payLog.Log(ctx, entry)
	return nil
}

func (s *bookingService) bookCheckout(ctx context.Context, done *payment.CompletedCheckout, entry *model.PaymentLog) error {
	tourID, err := uuid.Parse(done.ClientReferenceID)
	if err != nil {
		return fmt.Errorf("checkout reference %q: %w", done.ClientReferenceID, err)
	}
	entry.TourID = tourID

	user, err := s.users.FindByEmail(ctx, done.CustomerEmail)
	if err != nil {
		return fmt.Errorf("checkout customer: %w", err)
	}
	booking := &model.Booking{TourID: tourID, UserID: user.ID, Price: done.Amount, Paid: true}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

// MyTours returns the tours userID has booked.
func (s *bookingService) MyTours(ctx context.Context, userID uuid.UUID) ([]model.Tour, error) {
	bookings, err := s.bookings.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(bookings))
	for _, b := range bookings {
		ids = append(ids, b.TourID)
	}
	return s.tours.FindByIDs(ctx, uniqueIDs(ids))
}

func (s *bookingService) List(ctx context.Context) ([]model.Booking, error) {
	return s.bookings.List(ctx)
}

func (s *bookingService) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	return s.bookings.FindByID(ctx, id)
}

func (s *bookingService) Create(ctx context.Context, in BookingInput) (*model.Booking, error) {
	booking := &model.Booking{Paid: true}
	in.apply(booking)
	if err := validateBooking(booking); err != nil {
		return nil, err
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	return booking, nil
}

func (s *bookingService) Update(ctx context.Context, id uuid.UUID, in BookingInput) (*model.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(booking)
	booking.Tour, booking.User = nil, nil
	if err := validateBooking(booking); err != nil {
		return nil, err
	}
	if err := s.bookings.Update(ctx, booking); err != nil {
		return nil, fmt.Errorf("update booking: %w", err)
	}
	return booking, nil
}

func (s *bookingService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.bookings.Delete(ctx, id)
}
