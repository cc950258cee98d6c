package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greenbasket/storefront/internal/model"
	"github.com/greenbasket/storefront/internal/remote"
)

type mockAuth struct {
	userID uuid.UUID

	signInCalls  []string
	signInErr    error
	signUpCalls  []string
	signUpErr    error
	signOutCalls int
	signOutErr   error
}

func (m *mockAuth) SignIn(_ context.Context, email, password string) (*remote.Session, error) {
	m.signInCalls = append(m.signInCalls, email)
	if m.signInErr != nil {
		return nil, m.signInErr
	}
	return &remote.Session{UserID: m.userID, Email: email, AccessToken: "token-1"}, nil
}

func (m *mockAuth) SignUp(_ context.Context, email, password string) (*remote.Session, error) {
	m.signUpCalls = append(m.signUpCalls, email)
	if m.signUpErr != nil {
		return nil, m.signUpErr
	}
	return &remote.Session{UserID: m.userID, Email: email, AccessToken: "token-1"}, nil
}

func (m *mockAuth) SignOut(_ context.Context, accessToken string) error {
	m.signOutCalls++
	return m.signOutErr
}

func TestSessionService_SignIn_Email(t *testing.T) {
	store := newMockStore()
	auth := &mockAuth{userID: uuid.New()}
	svc := NewSessionService(auth, store, testLogger())

	var events []SessionEvent
	svc.Subscribe(func(ev SessionEvent) { events = append(events, ev) })

	identity, err := svc.SignIn(context.Background(), "u1@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, auth.userID, identity.ID)
	assert.Equal(t, "token-1", identity.AccessToken)
	assert.Equal(t, []string{"u1@example.com"}, auth.signInCalls)

	require.Len(t, events, 1, "subscribers hear the sign-in before SignIn returns")
	assert.Equal(t, SignedIn, events[0].Kind)
	assert.Equal(t, auth.userID, events[0].Identity.ID)

	require.NotNil(t, svc.Current(auth.userID))
}

func TestSessionService_SignIn_MobileResolvesEmail(t *testing.T) {
	store := newMockStore()
	auth := &mockAuth{userID: uuid.New()}
	store.rows["profiles"] = []remote.Row{{
		"id": auth.userID.String(), "name": "U One", "email": "u1@example.com", "mobile": "9876543210",
	}}
	svc := NewSessionService(auth, store, testLogger())

	_, err := svc.SignIn(context.Background(), "9876543210", "secret123")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1@example.com"}, auth.signInCalls)
}

func TestSessionService_SignIn_UnknownMobile(t *testing.T) {
	store := newMockStore()
	auth := &mockAuth{userID: uuid.New()}
	svc := NewSessionService(auth, store, testLogger())

	_, err := svc.SignIn(context.Background(), "9876543210", "secret123")
	assert.ErrorIs(t, err, ErrIdentityNotFound)
	assert.Empty(t, auth.signInCalls, "no credential leaves the process for an unknown mobile")
}

func TestSessionService_SignIn_BadCredentials(t *testing.T) {
	store := newMockStore()
	auth := &mockAuth{userID: uuid.New(), signInErr: &remote.Error{Status: 400, Message: "invalid login credentials"}}
	svc := NewSessionService(auth, store, testLogger())

	_, err := svc.SignIn(context.Background(), "u1@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Nil(t, svc.Current(auth.userID))
}

func TestSessionService_SignUp_CreatesProfileAndSignsOut(t *testing.T) {
	store := newMockStore()
	auth := &mockAuth{userID: uuid.New()}
	svc := NewSessionService(auth, store, testLogger())

	err := svc.SignUp(context.Background(), "U One", "u1@example.com", "9876543210", "secret123")
	require.NoError(t, err)

	require.Len(t, store.rows["profiles"], 1)
	row := store.rows["profiles"][0]
	assert.Equal(t, "U One", row["name"])
	assert.Equal(t, "9876543210", row["mobile"])

	assert.Equal(t, 1, auth.signOutCalls, "registration must not leave a live session behind")
	assert.Nil(t, svc.Current(auth.userID))
}

func TestSessionService_SignUp_Duplicate(t *testing.T) {
	store := newMockStore()
	auth := &mockAuth{userID: uuid.New(), signUpErr: &remote.Error{Status: 422, Message: "user already registered"}}
	svc := NewSessionService(auth, store, testLogger())

	err := svc.SignUp(context.Background(), "U One", "u1@example.com", "9876543210", "secret123")
	assert.ErrorIs(t, err, ErrDuplicateRegistration)
	assert.Empty(t, store.rows["profiles"])
}

func TestSessionService_SignOut_DeliversEventDespiteRemoteFailure(t *testing.T) {
	store := newMockStore()
	auth := &mockAuth{userID: uuid.New(), signOutErr: assert.AnError}
	svc := NewSessionService(auth, store, testLogger())

	var events []SessionEvent
	svc.Subscribe(func(ev SessionEvent) { events = append(events, ev) })

	_, err := svc.SignIn(context.Background(), "u1@example.com", "secret123")
	require.NoError(t, err)

	require.NoError(t, svc.SignOut(context.Background(), auth.userID))
	assert.Nil(t, svc.Current(auth.userID))
	require.Len(t, events, 2)
	assert.Equal(t, SignedOut, events[1].Kind)
}

func TestSessionService_CurrentProfile_LazyFetch(t *testing.T) {
	store := newMockStore()
	auth := &mockAuth{userID: uuid.New()}
	svc := NewSessionService(auth, store, testLogger())
	svc.Ensure(model.Identity{ID: auth.userID, Email: "u1@example.com"})

	// Tolerated: identity without a profile row.
	assert.Nil(t, svc.CurrentProfile(context.Background(), auth.userID))
	assert.NotNil(t, svc.Current(auth.userID))

	store.rows["profiles"] = []remote.Row{{
		"id": auth.userID.String(), "name": "Admin", "email": "u1@example.com", "is_admin": true,
	}}
	profile := svc.CurrentProfile(context.Background(), auth.userID)
	require.NotNil(t, profile)
	assert.True(t, profile.IsAdmin)

	// Cached now; a second call must not refetch.
	selects := store.callCount("select")
	_ = svc.CurrentProfile(context.Background(), auth.userID)
	assert.Equal(t, selects, store.callCount("select"))
}

func TestSessionService_Ensure_AnnouncesOnce(t *testing.T) {
	store := newMockStore()
	svc := NewSessionService(&mockAuth{}, store, testLogger())

	var events []SessionEvent
	svc.Subscribe(func(ev SessionEvent) { events = append(events, ev) })

	id := model.Identity{ID: uuid.New(), Email: "u1@example.com", AccessToken: "t"}
	svc.Ensure(id)
	svc.Ensure(id)
	assert.Len(t, events, 1, "re-seeing a live token is not a fresh sign-in")
}
