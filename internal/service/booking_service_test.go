package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "natours/internal/errors"
	"natours/internal/model"
	"natours/internal/payment"
)

type bookingFixture struct {
	bookings *MockBookingRepository
	tours    *MockTourRepository
	users    *MockUserRepository
	gateway  *MockGateway
	logs     *recordingLogRepo
	svc      BookingService
}

func newBookingFixture(withGateway bool) *bookingFixture {
	f := &bookingFixture{
		bookings: new(MockBookingRepository),
		tours:    new(MockTourRepository),
		users:    new(MockUserRepository),
		gateway:  new(MockGateway),
		logs:     &recordingLogRepo{},
	}
	var gw payment.Gateway
	if withGateway {
		gw = f.gateway
	}
	// no Run: a full queue falls back to synchronous writes, an unread queue
	// is inspected directly
	payLog := NewPaymentLogger(f.logs, discardLogger())
	payLog.ch = make(chan model.PaymentLog)
	f.svc = NewBookingService(f.bookings, f.tours, f.users, gw, payLog, discardLogger())
	return f
}

func TestBookingService_Checkout(t *testing.T) {
	tour := &model.Tour{ID: uuid.New(), Name: "The Park Camper", Slug: "the-park-camper", Price: decimal.NewFromInt(1497), ImageCover: "tour-5-cover.jpg"}
	user := &model.User{ID: uuid.New(), Email: "ann@example.com"}

	t.Run("creates a session and logs it", func(t *testing.T) {
		f := newBookingFixture(true)
		f.tours.On("FindByID", mock.Anything, tour.ID).Return(tour, nil)
		f.gateway.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(req payment.CheckoutRequest) bool {
			return req.ClientReferenceID == tour.ID.String() &&
				req.CustomerEmail == "ann@example.com" &&
				req.SuccessURL == "https://natours.dev/my-tours?alert=booking" &&
				req.CancelURL == "https://natours.dev/tour/the-park-camper" &&
				req.ImageURL == "https://natours.dev/img/tours/tour-5-cover.jpg" &&
				req.Amount.Equal(decimal.NewFromInt(1497))
		})).Return(&payment.Session{ID: "cs_1", URL: "https://checkout.stripe.com/c/cs_1"}, nil)

		sess, err := f.svc.Checkout(context.Background(), user, tour.ID, "https://natours.dev")
		require.NoError(t, err)
		assert.Equal(t, "cs_1", sess.ID)

		logs := f.logs.snapshot()
		require.Len(t, logs, 1)
		assert.Equal(t, model.PaymentEventSessionCreated, logs[0].Event)
		assert.Equal(t, model.PaymentStatusAccepted, logs[0].Status)
		assert.Equal(t, "cs_1", logs[0].SessionID)
	})

	t.Run("gateway failure is logged", func(t *testing.T) {
		f := newBookingFixture(true)
		f.tours.On("FindByID", mock.Anything, tour.ID).Return(tour, nil)
		f.gateway.On("CreateCheckoutSession", mock.Anything, mock.Anything).Return(nil, errors.New("card_declined"))

		_, err := f.svc.Checkout(context.Background(), user, tour.ID, "https://natours.dev")
		assert.Error(t, err)

		logs := f.logs.snapshot()
		require.Len(t, logs, 1)
		assert.Equal(t, model.PaymentStatusFailed, logs[0].Status)
		assert.Equal(t, "card_declined", logs[0].ErrorMessage)
	})

	t.Run("no gateway configured", func(t *testing.T) {
		f := newBookingFixture(false)
		_, err := f.svc.Checkout(context.Background(), user, tour.ID, "https://natours.dev")
		assert.ErrorIs(t, err, apperrors.ErrPaymentUnavailable)
	})
}

func TestBookingService_HandleWebhook(t *testing.T) {
	tourID := uuid.New()
	user := &model.User{ID: uuid.New(), Email: "ann@example.com"}
	payload := []byte(`{}`)

	t.Run("completed checkout books the tour", func(t *testing.T) {
		f := newBookingFixture(true)
		f.gateway.On("ParseWebhook", payload, "sig").Return(&payment.CompletedCheckout{
			SessionID: "cs_1", ClientReferenceID: tourID.String(), CustomerEmail: "ann@example.com", Amount: decimal.NewFromInt(497),
		}, nil)
		f.users.On("FindByEmail", mock.Anything, "ann@example.com").Return(user, nil)
		f.bookings.On("Create", mock.Anything, mock.MatchedBy(func(b *model.Booking) bool {
			return b.TourID == tourID && b.UserID == user.ID && b.Paid && b.Price.Equal(decimal.NewFromInt(497))
		})).Return(nil)

		require.NoError(t, f.svc.HandleWebhook(context.Background(), payload, "sig"))
		f.bookings.AssertExpectations(t)

		logs := f.logs.snapshot()
		require.Len(t, logs, 1)
		assert.Equal(t, model.PaymentEventCheckoutCompleted, logs[0].Event)
		assert.Equal(t, tourID, logs[0].TourID)
	})

	t.Run("ignored events are acknowledged", func(t *testing.T) {
		f := newBookingFixture(true)
		f.gateway.On("ParseWebhook", payload, "sig").Return(nil, payment.ErrIgnoredEvent)

		assert.NoError(t, f.svc.HandleWebhook(context.Background(), payload, "sig"))
		f.bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("bad signature", func(t *testing.T) {
		f := newBookingFixture(true)
		f.gateway.On("ParseWebhook", payload, "bad").Return(nil, errors.New("signature mismatch"))

		err := f.svc.HandleWebhook(context.Background(), payload, "bad")
		assert.ErrorIs(t, err, apperrors.ErrInvalidWebhook)
	})

	t.Run("unknown customer is logged as failed", func(t *testing.T) {
		f := newBookingFixture(true)
		f.gateway.On("ParseWebhook", payload, "sig").Return(&payment.CompletedCheckout{
			SessionID: "cs_2", ClientReferenceID: tourID.String(), CustomerEmail: "ghost@example.com",
		}, nil)
		f.users.On("FindByEmail", mock.Anything, "ghost@example.com").Return(nil, gorm.ErrRecordNotFound)

		err := f.svc.HandleWebhook(context.Background(), payload, "sig")
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

		logs := f.logs.snapshot()
		require.Len(t, logs, 1)
		assert.Equal(t, model.PaymentStatusFailed, logs[0].Status)
	})
}

func TestBookingService_MyTours(t *testing.T) {
	f := newBookingFixture(false)
	userID := uuid.New()
	a, b := uuid.New(), uuid.New()
	f.bookings.On("ListByUser", mock.Anything, userID).Return([]model.Booking{{TourID: a}, {TourID: b}, {TourID: a}}, nil)
	f.tours.On("FindByIDs", mock.Anything, []uuid.UUID{a, b}).Return([]model.Tour{{ID: a}, {ID: b}}, nil)

	tours, err := f.svc.MyTours(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, tours, 2)
	f.tours.AssertExpectations(t)
}

func TestBookingService_CreateValidates(t *testing.T) {
	f := newBookingFixture(false)

	_, err := f.svc.Create(context.Background(), BookingInput{})
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Messages, 3)
	f.bookings.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPaymentLogger_FlushesOnShutdown(t *testing.T) {
	repo := &recordingLogRepo{}
	l := NewPaymentLogger(repo, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		l.Run(ctx)
		close(done)
	}()

	for i := 0; i < 3; i++ {
		l.Log(context.Background(), model.PaymentLog{Event: model.PaymentEventSessionCreated, Status: model.PaymentStatusAccepted})
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("payment logger did not stop")
	}
	assert.Len(t, repo.snapshot(), 3)
}

func TestPaymentLogger_NilDiscards(t *testing.T) {
	var l *PaymentLogger
	assert.NotPanics(t, func() { l.Log(context.Background(), model.PaymentLog{}) })
}
