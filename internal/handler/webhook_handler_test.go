package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/littleseedlimited/caseview-bot/internal/flow"
	"github.com/littleseedlimited/caseview-bot/internal/middleware"
	"github.com/littleseedlimited/caseview-bot/internal/models"
	"github.com/littleseedlimited/caseview-bot/internal/reply"
)

type stubAccounts struct{}

func (stubAccounts) FindOrCreateByPlatformID(ctx context.Context, platformID int64) (*models.Account, error) {
	return &models.Account{ID: "a1", PlatformID: platformID, Approval: models.ApprovalApproved}, nil
}
func (stubAccounts) Update(ctx context.Context, acct *models.Account) error { return nil }

func testRouter(t *testing.T, token string) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	engine := flow.NewEngine(flow.EngineDeps{Accounts: stubAccounts{}, Logger: zap.NewNop()})
	h := NewWebhookHandler(engine, zap.NewNop())

	r := gin.New()
	r.POST("/webhook", middleware.WebhookAuth(token), h.Receive)
	return r
}

func postUpdate(t *testing.T, r *gin.Engine, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestWebhookRepliesToIdleText(t *testing.T) {
	r := testRouter(t, "")
	rec := postUpdate(t, r, `{"platform_id": 42, "text": "hello"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var msg reply.Message
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	assert.Contains(t, msg.Text, "/start")
}

func TestWebhookRejectsMalformedBody(t *testing.T) {
	r := testRouter(t, "")
	rec := postUpdate(t, r, `{"text": "no platform id"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookAuthToken(t *testing.T) {
	r := testRouter(t, "hunter2")

	rec := postUpdate(t, r, `{"platform_id": 42, "text": "hello"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postUpdate(t, r, `{"platform_id": 42, "text": "hello"}`,
		map[string]string{middleware.WebhookTokenHeader: "hunter2"})
	assert.Equal(t, http.StatusOK, rec.Code)
}
