package draft

import (
	"context"
	"errors"

	"github.com/estefaniii/mautik-checkout/internal/domain"
)

// Store persists the in-progress checkout draft. Save overwrites
// unconditionally on every change; Clear is idempotent and runs once an
// order has been accepted.
type Store interface {
	Load(ctx context.Context, userID string) (*domain.CheckoutDraft, error)
	Save(ctx context.Context, userID string, draft *domain.CheckoutDraft) error
	Clear(ctx context.Context, userID string) error
}

// ErrDraftNotFound covers both a missing key and an unreadable blob.
// Restore is best-effort: a corrupt draft must never block checkout.
var ErrDraftNotFound = errors.New("checkout draft not found")
