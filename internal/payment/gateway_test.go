package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_CreateCheckout(t *testing.T) {
	var gotPath string
	var gotUser, gotPass string
	var gotBody linkRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser, gotPass, _ = r.BasicAuth()
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "plink_1", "short_url": "https://rzp.io/l/abc"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key-id", "key-secret", "https://shop.example/payment/callback")
	checkout, err := client.CreateCheckout(context.Background(), 19000, "INR", "u-1")
	require.NoError(t, err)

	assert.Equal(t, "/v1/payment_links", gotPath)
	assert.Equal(t, "key-id", gotUser)
	assert.Equal(t, "key-secret", gotPass)
	assert.Equal(t, int64(19000), gotBody.Amount)
	assert.Equal(t, "INR", gotBody.Currency)
	assert.Equal(t, "u-1", gotBody.ReferenceID)
	assert.Equal(t, "https://shop.example/payment/callback", gotBody.CallbackURL)

	assert.Equal(t, "plink_1", checkout.ID)
	assert.Equal(t, "https://rzp.io/l/abc", checkout.RedirectURL)
}

func TestClient_CreateCheckout_MissingCredentials(t *testing.T) {
	client := NewClient("http://unused.example", "", "", "")
	_, err := client.CreateCheckout(context.Background(), 19000, "INR", "u-1")
	assert.Error(t, err)
}

func TestClient_CreateCheckout_InvalidAmount(t *testing.T) {
	client := NewClient("http://unused.example", "key-id", "key-secret", "")
	_, err := client.CreateCheckout(context.Background(), 0, "INR", "u-1")
	assert.Error(t, err)
}

func TestClient_CreateCheckout_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"description": "bad key"}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key-id", "key-secret", "")
	_, err := client.CreateCheckout(context.Background(), 19000, "INR", "u-1")
	assert.Error(t, err)
}
