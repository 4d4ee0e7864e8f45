package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/littleseedlimited/caseview-bot/internal/reply"
	"github.com/littleseedlimited/caseview-bot/pkg/config"
)

func TestHTTPDelivererPostsMessage(t *testing.T) {
	var got outboundMessage
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewHTTPDeliverer(config.BotConfig{DeliveryURL: srv.URL, DeliveryToken: "tok"}, zap.NewNop())
	err := d.Deliver(context.Background(), 42, reply.Text("your export is ready").
		WithButtons(reply.Button{Label: "Open", Action: reply.ActionViewCase, CaseID: "c1"}))
	require.NoError(t, err)

	assert.Equal(t, int64(42), got.PlatformID)
	assert.Equal(t, "your export is ready", got.Text)
	require.Len(t, got.Buttons, 1)
	assert.Equal(t, "Bearer tok", auth)
}

func TestHTTPDelivererSurfacesUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	d := NewHTTPDeliverer(config.BotConfig{DeliveryURL: srv.URL}, zap.NewNop())
	err := d.Deliver(context.Background(), 42, reply.Text("hi"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestHTTPDelivererNoURLDropsSilently(t *testing.T) {
	d := NewHTTPDeliverer(config.BotConfig{}, zap.NewNop())
	assert.NoError(t, d.Deliver(context.Background(), 42, reply.Text("hi")))
}
