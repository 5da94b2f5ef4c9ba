package repository

import (
	"context"

	"gorm.io/gorm"

	"natours/internal/model"
)

// PaymentLogRepository defines payment log persistence operations.
type PaymentLogRepository interface {
	Create(ctx context.Context, log *model.PaymentLog) error
	CreateBatch(ctx context.Context, logs []model.PaymentLog) error
}

type paymentLogRepository struct {
	db *gorm.DB
}

// NewPaymentLogRepository creates a new payment log repository.
func NewPaymentLogRepository(db *gorm.DB) PaymentLogRepository {
	return &paymentLogRepository{db: db}
}

// Create creates a new payment log entry.
func (r *paymentLogRepository) Create(ctx context.Context, log *model.PaymentLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// CreateBatch creates multiple payment log entries in batches of 100.
func (r *paymentLogRepository) CreateBatch(ctx context.Context, logs []model.PaymentLog) error {
	if len(logs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(logs, 100).Error
}
