package stock

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/estefaniii/mautik-checkout/internal/backend"
	"github.com/estefaniii/mautik-checkout/internal/cart"
)

// Fetcher provides authoritative stock. *backend.Client satisfies it.
type Fetcher interface {
	GetProduct(ctx context.Context, productID string) (*backend.Product, error)
}

// Advisory is a per-line message surfaced to the user when a quantity was
// clamped.
type Advisory struct {
	ProductID string `json:"product_id"`
	Message   string `json:"message"`
}

// Reconciler keeps local cart quantities in line with server stock.
// It remembers the last stock each user's cart observed per product so the
// periodic check can tell a decrease apart from a plain mismatch: the
// advisory fires only on a downward transition.
type Reconciler struct {
	fetcher Fetcher
	cart    cart.Store
	sfg     singleflight.Group // Collapses concurrent fetches for same product

	mu       sync.Mutex
	lastSeen map[string]int // userID+productID -> last observed stock
}

func NewReconciler(fetcher Fetcher, cartStore cart.Store) *Reconciler {
	return &Reconciler{
		fetcher:  fetcher,
		cart:     cartStore,
		lastSeen: make(map[string]int),
	}
}

// CheckOnce is one periodic reconciliation pass for a user's cart.
// A line is clamped and gets an advisory only when authoritative stock has
// decreased since the last observation AND sits below the current quantity.
// A fetch failure for one product never touches the other lines.
func (r *Reconciler) CheckOnce(ctx context.Context, userID string) []Advisory {
	lines, err := r.cart.Lines(ctx, userID)
	if err != nil {
		return nil // empty or unreadable cart, nothing to reconcile
	}

	var advisories []Advisory
	for _, line := range lines {
		stock, errFetch := r.fetchStock(ctx, line.ProductID)
		if errFetch != nil {
			log.Printf("stock check for product %s failed: %v", line.ProductID, errFetch)
			continue
		}

		prev := r.observe(userID, line.ProductID, line.KnownStock, stock)

		if stock < prev && stock < line.Quantity {
			if errSet := r.cart.SetQuantity(ctx, userID, line.ProductID, stock); errSet != nil {
				log.Printf("failed to clamp quantity for product %s: %v", line.ProductID, errSet)
				continue
			}
			advisories = append(advisories, Advisory{
				ProductID: line.ProductID,
				Message:   fmt.Sprintf("stock for %s has decreased, your cart was adjusted", line.ProductID),
			})
		}
	}
	return advisories
}

// PresubmitCheck is the blocking variant run right before an order POST.
// Any line whose requested quantity exceeds current stock is clamped and
// fails the check. A per-line fetch failure is treated as satisfiable so one
// flaky product does not block the whole cart.
func (r *Reconciler) PresubmitCheck(ctx context.Context, userID string) (bool, []Advisory, error) {
	lines, err := r.cart.Lines(ctx, userID)
	if err != nil {
		if errors.Is(err, cart.ErrCartNotFound) {
			return true, nil, nil // nothing to check
		}
		return false, nil, fmt.Errorf("failed to read cart: %w", err)
	}

	ok := true
	var advisories []Advisory
	for _, line := range lines {
		stock, errFetch := r.fetchStock(ctx, line.ProductID)
		if errFetch != nil {
			log.Printf("presubmit stock check for product %s failed: %v", line.ProductID, errFetch)
			continue
		}

		r.observe(userID, line.ProductID, line.KnownStock, stock)

		if stock < line.Quantity {
			if errSet := r.cart.SetQuantity(ctx, userID, line.ProductID, stock); errSet != nil {
				log.Printf("failed to clamp quantity for product %s: %v", line.ProductID, errSet)
			}
			advisories = append(advisories, Advisory{
				ProductID: line.ProductID,
				Message:   fmt.Sprintf("only %d of %s left in stock, your cart was adjusted", stock, line.ProductID),
			})
			ok = false
		}
	}
	return ok, advisories, nil
}

// observe records the new stock value and returns the previous one, seeding
// from the line's known stock on first sight. Observations are tracked per
// user so one cart's poll cannot mask a decrease for another cart holding
// the same product.
func (r *Reconciler) observe(userID, productID string, knownStock, stock int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := userID + "|" + productID
	prev, seen := r.lastSeen[key]
	if !seen {
		prev = knownStock
	}
	r.lastSeen[key] = stock
	return prev
}

func (r *Reconciler) fetchStock(ctx context.Context, productID string) (int, error) {
	v, err, _ := r.sfg.Do(productID, func() (interface{}, error) {
		p, errGet := r.fetcher.GetProduct(ctx, productID)
		if errGet != nil {
			return nil, errGet
		}
		return p.Stock, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}
