package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/greenbasket/storefront/internal/model"
	"github.com/greenbasket/storefront/internal/remote"
)

var ErrQuantityTooLow = errors.New("quantity must be at least 1")

const cartCollection = "cart"

// CartService mirrors each signed-in user's remote cart rows into local
// state. Every mutation runs the remote call first and applies the
// local transition only on success, so the mirror never claims a write
// the remote store rejected. The one exception is sign-out, where the
// mirror is dropped immediately (a logged-out user must not see stale
// cart data).
//
// Every operation is a silent no-op when no identity is active for the
// given user id; diverting unauthenticated visitors is the guest gate's
// job, not the cart's.
type CartService struct {
	store    remote.Store
	sessions *SessionService
	log      *slog.Logger

	mu      sync.Mutex
	mirrors map[uuid.UUID]*cartMirror
}

type cartMirror struct {
	mu    sync.Mutex
	items []model.CartItem
}

func NewCartService(store remote.Store, sessions *SessionService, log *slog.Logger) *CartService {
	return &CartService{
		store:    store,
		sessions: sessions,
		log:      log,
		mirrors:  make(map[uuid.UUID]*cartMirror),
	}
}

// BindSessions subscribes the cart to identity transitions: sign-in
// refetches the mirror, sign-out drops it without waiting on any remote
// call.
func (s *CartService) BindSessions() {
	s.sessions.Subscribe(func(ev SessionEvent) {
		switch ev.Kind {
		case SignedIn:
			if err := s.Fetch(context.Background(), ev.Identity.ID); err != nil {
				s.log.Error("cart fetch on sign-in", "user_id", ev.Identity.ID, "error", err)
			}
		case SignedOut:
			s.drop(ev.Identity.ID)
		}
	})
}

// Fetch replaces the local mirror wholesale with the remote cart rows
// for the active identity.
func (s *CartService) Fetch(ctx context.Context, userID uuid.UUID) error {
	if s.sessions.Current(userID) == nil {
		return nil
	}
	rows, err := s.store.Select(ctx, cartCollection, remote.Eq("user_id", userID))
	if err != nil {
		return fmt.Errorf("fetch cart: %w", err)
	}
	var items []model.CartItem
	if err := remote.DecodeRows(rows, &items); err != nil {
		return fmt.Errorf("decode cart: %w", err)
	}
	s.apply(userID, cartCommand{kind: cartSet, items: items})
	return nil
}

// Add upserts the item remotely, keyed by (user, product); the server
// merges on conflict, last write wins. The local append happens only
// after the upsert succeeds.
func (s *CartService) Add(ctx context.Context, userID uuid.UUID, item model.CartItem) error {
	if s.sessions.Current(userID) == nil {
		return nil
	}
	row := remote.Row{
		"user_id":    userID,
		"product_id": item.ProductID,
		"name":       item.Name,
		"weight":     item.Weight,
		"price":      item.Price,
		"quantity":   item.Quantity,
		"image_url":  item.ImageURL,
	}
	if err := s.store.Upsert(ctx, cartCollection, row); err != nil {
		return fmt.Errorf("add to cart: %w", err)
	}
	s.apply(userID, cartCommand{kind: cartAdd, item: item})
	return nil
}

// UpdateQuantity rejects quantities below 1 before any remote call.
// The remote update is scoped by item id and owning user id, so one
// user cannot patch another's row by guessing ids.
func (s *CartService) UpdateQuantity(ctx context.Context, userID uuid.UUID, id int64, quantity int) error {
	if quantity < 1 {
		return ErrQuantityTooLow
	}
	if s.sessions.Current(userID) == nil {
		return nil
	}
	patch := remote.Row{"quantity": quantity}
	if err := s.store.Update(ctx, cartCollection, patch, remote.Eq("id", id), remote.Eq("user_id", userID)); err != nil {
		return fmt.Errorf("update quantity: %w", err)
	}
	s.apply(userID, cartCommand{kind: cartUpdateQuantity, id: id, quantity: quantity})
	return nil
}

func (s *CartService) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	if s.sessions.Current(userID) == nil {
		return nil
	}
	if err := s.store.Delete(ctx, cartCollection, remote.Eq("id", id), remote.Eq("user_id", userID)); err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	s.apply(userID, cartCommand{kind: cartRemove, id: id})
	return nil
}

// Clear bulk-deletes the user's remote cart rows and resets the mirror
// on success. Runs after successful order placement.
func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	if s.sessions.Current(userID) == nil {
		return nil
	}
	if err := s.store.Delete(ctx, cartCollection, remote.Eq("user_id", userID)); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	s.apply(userID, cartCommand{kind: cartClear})
	return nil
}

// Items returns a snapshot of the mirror; nil when no identity is
// active.
func (s *CartService) Items(userID uuid.UUID) []model.CartItem {
	if s.sessions.Current(userID) == nil {
		return nil
	}
	m := s.mirror(userID)
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.CartItem, len(m.items))
	copy(out, m.items)
	return out
}

func (s *CartService) mirror(userID uuid.UUID) *cartMirror {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mirrors[userID]
	if !ok {
		m = &cartMirror{}
		s.mirrors[userID] = m
	}
	return m
}

func (s *CartService) drop(userID uuid.UUID) {
	s.mu.Lock()
	delete(s.mirrors, userID)
	s.mu.Unlock()
}

func (s *CartService) apply(userID uuid.UUID, cmd cartCommand) {
	m := s.mirror(userID)
	m.mu.Lock()
	m.items = applyCartCommand(m.items, cmd)
	m.mu.Unlock()
}

type cartCommandKind int

const (
	cartSet cartCommandKind = iota
	cartAdd
	cartUpdateQuantity
	cartRemove
	cartClear
)

type cartCommand struct {
	kind     cartCommandKind
	items    []model.CartItem
	item     model.CartItem
	id       int64
	quantity int
}

// applyCartCommand is the single transition function for the cart
// mirror. It operates on the state handed in under the mirror lock,
// never a stale capture, and does not mutate its input slice.
func applyCartCommand(items []model.CartItem, cmd cartCommand) []model.CartItem {
	switch cmd.kind {
	case cartSet:
		out := make([]model.CartItem, len(cmd.items))
		copy(out, cmd.items)
		return out
	case cartAdd:
		out := make([]model.CartItem, len(items), len(items)+1)
		copy(out, items)
		return append(out, cmd.item)
	case cartUpdateQuantity:
		out := make([]model.CartItem, len(items))
		copy(out, items)
		for i := range out {
			if out[i].ID == cmd.id {
				out[i].Quantity = cmd.quantity
			}
		}
		return out
	case cartRemove:
		out := make([]model.CartItem, 0, len(items))
		for _, item := range items {
			if item.ID != cmd.id {
				out = append(out, item)
			}
		}
		return out
	case cartClear:
		return nil
	}
	return items
}
