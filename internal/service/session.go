package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/greenbasket/storefront/internal/model"
	"github.com/greenbasket/storefront/internal/remote"
)

var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrIdentityNotFound      = errors.New("identity not found")
	ErrDuplicateRegistration = errors.New("account already registered")
)

const profilesCollection = "profiles"

type SessionEventKind int

const (
	SignedIn SessionEventKind = iota
	SignedOut
)

// SessionEvent announces an identity transition to subscribers. Events
// are delivered synchronously, so by the time SignIn returns, every
// subscriber has already observed the new identity.
type SessionEvent struct {
	Kind     SessionEventKind
	Identity model.Identity
}

// SessionService owns the set of active identities and their profiles.
// Sign-in and sign-up delegate credentials to the hosted auth service;
// profile rows live in the profiles collection keyed by the auth user
// id.
type SessionService struct {
	auth  remote.Auth
	store remote.Store
	log   *slog.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*sessionState
	subs     []func(SessionEvent)
}

type sessionState struct {
	identity model.Identity
	profile  *model.Profile
}

func NewSessionService(auth remote.Auth, store remote.Store, log *slog.Logger) *SessionService {
	return &SessionService{
		auth:     auth,
		store:    store,
		log:      log,
		sessions: make(map[uuid.UUID]*sessionState),
	}
}

// Subscribe registers a callback for identity transitions. Callbacks
// run synchronously on the goroutine performing the transition.
func (s *SessionService) Subscribe(fn func(SessionEvent)) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

func (s *SessionService) notify(ev SessionEvent) {
	s.mu.RLock()
	subs := make([]func(SessionEvent), len(s.subs))
	copy(subs, s.subs)
	s.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}

// Current returns the active identity for the user, or nil.
func (s *SessionService) Current(userID uuid.UUID) *model.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.sessions[userID]
	if !ok {
		return nil
	}
	identity := state.identity
	return &identity
}

// SignIn authenticates by email or mobile number. A mobile identifier
// is resolved to its email through the profiles collection first; an
// unknown mobile fails before any credential is sent.
func (s *SessionService) SignIn(ctx context.Context, identifier, password string) (*model.Identity, error) {
	email := identifier
	if !strings.Contains(identifier, "@") {
		resolved, err := s.emailForMobile(ctx, identifier)
		if err != nil {
			return nil, err
		}
		email = resolved
	}

	session, err := s.auth.SignIn(ctx, email, password)
	if err != nil {
		var remoteErr *remote.Error
		if errors.As(err, &remoteErr) && (remoteErr.Status == 400 || remoteErr.Status == 401) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("sign in: %w", err)
	}

	identity := model.Identity{ID: session.UserID, Email: session.Email, AccessToken: session.AccessToken}

	profile, err := s.fetchProfile(ctx, session.UserID)
	if err != nil {
		s.log.Warn("fetch profile on sign-in", "user_id", session.UserID, "error", err)
	}

	s.mu.Lock()
	s.sessions[session.UserID] = &sessionState{identity: identity, profile: profile}
	s.mu.Unlock()

	s.notify(SessionEvent{Kind: SignedIn, Identity: identity})
	return &identity, nil
}

func (s *SessionService) emailForMobile(ctx context.Context, mobile string) (string, error) {
	rows, err := s.store.Select(ctx, profilesCollection, remote.Eq("mobile", mobile))
	if err != nil {
		return "", fmt.Errorf("resolve mobile: %w", err)
	}
	if len(rows) == 0 {
		return "", ErrIdentityNotFound
	}
	email, _ := rows[0]["email"].(string)
	if email == "" {
		return "", ErrIdentityNotFound
	}
	return email, nil
}

// SignUp creates the auth account and its profile row, then discards
// the session the auth service handed back: registration ends at the
// sign-in screen, not signed in.
func (s *SessionService) SignUp(ctx context.Context, name, email, mobile, password string) error {
	session, err := s.auth.SignUp(ctx, email, password)
	if err != nil {
		var remoteErr *remote.Error
		if errors.As(err, &remoteErr) {
			switch remoteErr.Status {
			case 400, 409, 422:
				return ErrDuplicateRegistration
			}
		}
		return fmt.Errorf("sign up: %w", err)
	}

	row := remote.Row{
		"id":     session.UserID,
		"name":   name,
		"email":  email,
		"mobile": mobile,
	}
	if err := s.store.Insert(ctx, profilesCollection, []remote.Row{row}); err != nil {
		return fmt.Errorf("create profile: %w", err)
	}

	if err := s.auth.SignOut(ctx, session.AccessToken); err != nil {
		s.log.Warn("sign out after registration", "user_id", session.UserID, "error", err)
	}
	return nil
}

// SignOut drops the local session first and notifies subscribers, so
// the user's state resets even when the remote revocation fails. The
// remote call is best effort.
func (s *SessionService) SignOut(ctx context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	state, ok := s.sessions[userID]
	if ok {
		delete(s.sessions, userID)
	}
	s.mu.Unlock()
	if !ok {
		return nil
	}

	s.notify(SessionEvent{Kind: SignedOut, Identity: state.identity})

	if err := s.auth.SignOut(ctx, state.identity.AccessToken); err != nil {
		s.log.Warn("remote sign out", "user_id", userID, "error", err)
	}
	return nil
}

// Ensure registers an externally verified identity (a valid access
// token seen by the middleware) if it is not active yet. Registration
// announces a sign-in so dependent state repopulates after a restart.
func (s *SessionService) Ensure(identity model.Identity) {
	s.mu.Lock()
	if _, ok := s.sessions[identity.ID]; ok {
		s.sessions[identity.ID].identity = identity
		s.mu.Unlock()
		return
	}
	s.sessions[identity.ID] = &sessionState{identity: identity}
	s.mu.Unlock()

	s.notify(SessionEvent{Kind: SignedIn, Identity: identity})
}

// CurrentProfile returns the cached profile for the identity, fetching
// it lazily. Nil means no active identity or no profile row; both are
// tolerated.
func (s *SessionService) CurrentProfile(ctx context.Context, userID uuid.UUID) *model.Profile {
	s.mu.RLock()
	state, ok := s.sessions[userID]
	var cached *model.Profile
	if ok {
		cached = state.profile
	}
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	if cached != nil {
		return cached
	}

	profile, err := s.fetchProfile(ctx, userID)
	if err != nil {
		s.log.Warn("fetch profile", "user_id", userID, "error", err)
		return nil
	}
	if profile == nil {
		return nil
	}

	s.mu.Lock()
	if state, ok := s.sessions[userID]; ok {
		state.profile = profile
	}
	s.mu.Unlock()
	return profile
}

func (s *SessionService) fetchProfile(ctx context.Context, userID uuid.UUID) (*model.Profile, error) {
	rows, err := s.store.Select(ctx, profilesCollection, remote.Eq("id", userID))
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	var profiles []model.Profile
	if err := remote.DecodeRows(rows, &profiles); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &profiles[0], nil
}

// ListProfiles returns every registered profile, for the admin panel.
func (s *SessionService) ListProfiles(ctx context.Context) ([]model.Profile, error) {
	rows, err := s.store.Select(ctx, profilesCollection)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	var profiles []model.Profile
	if err := remote.DecodeRows(rows, &profiles); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	return profiles, nil
}

// DeleteProfile removes the profile row and any active session for the
// user.
func (s *SessionService) DeleteProfile(ctx context.Context, userID uuid.UUID) error {
	if err := s.store.Delete(ctx, profilesCollection, remote.Eq("id", userID)); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	s.mu.Lock()
	state, ok := s.sessions[userID]
	if ok {
		delete(s.sessions, userID)
	}
	s.mu.Unlock()
	if ok {
		s.notify(SessionEvent{Kind: SignedOut, Identity: state.identity})
	}
	return nil
}
