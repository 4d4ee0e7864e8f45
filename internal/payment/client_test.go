package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/littleseedlimited/caseview-bot/pkg/config"
)

func TestInitializeReturnsCheckoutURL(t *testing.T) {
	var got InitRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transaction/initialize", r.URL.Path)
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": true, "data": {"authorization_url": "https://pay.example.com/ck/123"}}`))
	}))
	defer srv.Close()

	client := New(config.PaymentConfig{BaseURL: srv.URL, SecretKey: "sk_test"})
	url, err := client.Initialize(context.Background(), InitRequest{
		Email: "ada@example.com", AmountMinor: 1_500_000, Plan: "PRO", AccountRef: "a1", Currency: "NGN",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/ck/123", url)
	assert.Equal(t, "Bearer sk_test", auth)
	assert.Equal(t, int64(1_500_000), got.AmountMinor)
}

func TestInitializeUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status": false}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := New(config.PaymentConfig{BaseURL: srv.URL, SecretKey: "bad"})
	_, err := client.Initialize(context.Background(), InitRequest{Email: "a@b.c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestInitializeMissingURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": true, "data": {}}`))
	}))
	defer srv.Close()

	client := New(config.PaymentConfig{BaseURL: srv.URL})
	_, err := client.Initialize(context.Background(), InitRequest{Email: "a@b.c"})
	require.Error(t, err)
}
