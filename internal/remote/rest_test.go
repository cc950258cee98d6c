package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRESTStore_Select(t *testing.T) {
	var gotPath, gotQuery, gotAPIKey, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotAPIKey = r.Header.Get("apikey")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id": 1, "name": "Rice"}]`))
	}))
	defer srv.Close()

	store := NewRESTStore(srv.URL, "service-key")
	rows, err := store.Select(context.Background(), "cart", Eq("user_id", "u-1"))
	require.NoError(t, err)

	assert.Equal(t, "/rest/v1/cart", gotPath)
	assert.Equal(t, "user_id=eq.u-1", gotQuery)
	assert.Equal(t, "service-key", gotAPIKey)
	assert.Equal(t, "Bearer service-key", gotAuth)
	require.Len(t, rows, 1)
	assert.Equal(t, "Rice", rows[0]["name"])
}

func TestRESTStore_Upsert(t *testing.T) {
	var gotMethod, gotPrefer string
	var gotBody []Row
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPrefer = r.Header.Get("Prefer")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	store := NewRESTStore(srv.URL, "service-key")
	err := store.Upsert(context.Background(), "cart", Row{"product_id": 10, "quantity": 2})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "resolution=merge-duplicates,return=minimal", gotPrefer)
	require.Len(t, gotBody, 1)
	assert.EqualValues(t, 2, gotBody[0]["quantity"])
}

func TestRESTStore_Update(t *testing.T) {
	var gotMethod, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	store := NewRESTStore(srv.URL, "service-key")
	err := store.Update(context.Background(), "cart", Row{"quantity": 3}, Eq("id", 1), Eq("user_id", "u-1"))
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "id=eq.1&user_id=eq.u-1", gotQuery)
}

func TestRESTStore_ErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"message": "duplicate key"}`))
	}))
	defer srv.Close()

	store := NewRESTStore(srv.URL, "service-key")
	err := store.Insert(context.Background(), "profiles", []Row{{"id": "u-1"}})
	require.Error(t, err)

	var remoteErr *Error
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusConflict, remoteErr.Status)
	assert.Equal(t, "duplicate key", remoteErr.Message)
}

func TestAuthClient_SignIn(t *testing.T) {
	var gotPath, gotQuery string
	var gotCreds map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		json.NewDecoder(r.Body).Decode(&gotCreds)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token": "tok-1", "user": {"id": "7f9c24e5-2f31-4a4b-8f64-9a8f6f7f3f11", "email": "u1@example.com"}}`))
	}))
	defer srv.Close()

	client := NewAuthClient(srv.URL, "anon-key")
	sess, err := client.SignIn(context.Background(), "u1@example.com", "secret123")
	require.NoError(t, err)

	assert.Equal(t, "/auth/v1/token", gotPath)
	assert.Equal(t, "grant_type=password", gotQuery)
	assert.Equal(t, "secret123", gotCreds["password"])
	assert.Equal(t, "tok-1", sess.AccessToken)
	assert.Equal(t, "u1@example.com", sess.Email)
	assert.Equal(t, "7f9c24e5-2f31-4a4b-8f64-9a8f6f7f3f11", sess.UserID.String())
}

func TestAuthClient_SignIn_BadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"msg": "invalid login credentials"}`))
	}))
	defer srv.Close()

	client := NewAuthClient(srv.URL, "anon-key")
	_, err := client.SignIn(context.Background(), "u1@example.com", "wrong")

	var remoteErr *Error
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, http.StatusBadRequest, remoteErr.Status)
	assert.Equal(t, "invalid login credentials", remoteErr.Message)
}

func TestAuthClient_SignOut_UsesUserToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewAuthClient(srv.URL, "anon-key")
	require.NoError(t, client.SignOut(context.Background(), "user-token"))
	assert.Equal(t, "Bearer user-token", gotAuth)
}

func TestDecodeRows(t *testing.T) {
	rows := []Row{{"id": 1, "name": "Rice"}, {"id": 2, "name": "Dal"}}

	var out []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, DecodeRows(rows, &out))
	require.Len(t, out, 2)
	assert.Equal(t, int64(2), out[1].ID)
	assert.Equal(t, "Dal", out[1].Name)
}
