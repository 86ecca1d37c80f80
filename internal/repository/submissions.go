package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/estefaniii/mautik-checkout/internal/domain"
)

var ErrSubmissionNotFound = errors.New("submission not found")

// Submission is one attempt to post an order, keyed by the checkout
// session's idempotency key. A duplicate provider callback finds the
// existing row and is absorbed instead of producing a second order.
type Submission struct {
	ID             string
	UserID         string
	IdempotencyKey string
	Status         domain.CheckoutStatus
	OrderRef       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// SubmissionStore is the consumer-side contract; *Repository implements it.
type SubmissionStore interface {
	GetByIdempotencyKey(ctx context.Context, key string) (*Submission, error)
	Create(ctx context.Context, submission *Submission) error
	MarkSubmitted(ctx context.Context, key, orderRef string) error
}

func (r *Repository) GetByIdempotencyKey(ctx context.Context, key string) (*Submission, error) {
	const query = `
		SELECT id, user_id, idempotency_key, status, COALESCE(order_ref, ''), created_at, updated_at
		FROM order_submissions
		WHERE idempotency_key = $1`

	var s Submission
	err := r.db.QueryRowContext(ctx, query, key).Scan(
		&s.ID, &s.UserID, &s.IdempotencyKey, &s.Status, &s.OrderRef, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSubmissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query submission: %w", err)
	}
	return &s, nil
}

func (r *Repository) Create(ctx context.Context, submission *Submission) error {
	if submission.ID == "" {
		submission.ID = uuid.NewString()
	}
	const query = `
		INSERT INTO order_submissions (id, user_id, idempotency_key, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())`

	if _, err := r.db.ExecContext(ctx, query,
		submission.ID, submission.UserID, submission.IdempotencyKey, submission.Status,
	); err != nil {
		return fmt.Errorf("failed to create submission: %w", err)
	}
	return nil
}

func (r *Repository) MarkSubmitted(ctx context.Context, key, orderRef string) error {
	const query = `
		UPDATE order_submissions
		SET status = $1, order_ref = $2, updated_at = NOW()
		WHERE idempotency_key = $3`

	result, err := r.db.ExecContext(ctx, query, domain.CheckoutStatusSubmitted, orderRef, key)
	if err != nil {
		return fmt.Errorf("failed to mark submission: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrSubmissionNotFound
	}
	return nil
}
