package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/greenbasket/storefront/internal/model"
)

// GuestGate defers cart and buy-now actions for visitors without an
// identity. The flow is a small state machine per guest session:
// idle -> a gated action is captured and the visitor is prompted to
// sign in -> on success the action replays exactly once -> idle.
// Dismissing the prompt discards the action. A second capture while
// one is pending overwrites the first; only one prompt can be open at
// a time, so no queueing.
type GuestGate struct {
	cart *CartService
	log  *slog.Logger

	mu      sync.Mutex
	pending map[string]model.PendingGuestAction
}

func NewGuestGate(cart *CartService, log *slog.Logger) *GuestGate {
	return &GuestGate{
		cart:    cart,
		log:     log,
		pending: make(map[string]model.PendingGuestAction),
	}
}

// Capture records the action a guest attempted. No remote call is made
// here; guest gating always precedes any cart traffic.
func (g *GuestGate) Capture(sessionID string, action model.PendingGuestAction) {
	g.mu.Lock()
	g.pending[sessionID] = action
	g.mu.Unlock()
}

// Pending returns the captured action without consuming it, or nil.
func (g *GuestGate) Pending(sessionID string) *model.PendingGuestAction {
	g.mu.Lock()
	defer g.mu.Unlock()
	if action, ok := g.pending[sessionID]; ok {
		return &action
	}
	return nil
}

// Dismiss discards the captured action without replaying it.
func (g *GuestGate) Dismiss(sessionID string) {
	g.mu.Lock()
	delete(g.pending, sessionID)
	g.mu.Unlock()
}

// Replay applies the captured action under the now-authenticated
// identity. The action is consumed before the remote call, so it runs
// at most once even if the replay itself fails. Add-to-cart actions go
// through the cart service; buy-now payloads are handed back to the
// caller to continue into checkout. Returns nil when nothing was
// pending.
func (g *GuestGate) Replay(ctx context.Context, sessionID string, userID uuid.UUID) (*model.PendingGuestAction, error) {
	g.mu.Lock()
	action, ok := g.pending[sessionID]
	if ok {
		delete(g.pending, sessionID)
	}
	g.mu.Unlock()

	if !ok {
		return nil, nil
	}

	if action.Kind == model.ActionAddToCart {
		if err := g.cart.Add(ctx, userID, action.Item); err != nil {
			g.log.Error("replay guest add-to-cart", "user_id", userID, "error", err)
			return &action, fmt.Errorf("replay add to cart: %w", err)
		}
	}
	return &action, nil
}
