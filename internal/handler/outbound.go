package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/littleseedlimited/caseview-bot/internal/reply"
	"github.com/littleseedlimited/caseview-bot/pkg/config"
)

// HTTPDeliverer pushes bot-initiated messages (export links, notices) to the
// chat platform's delivery endpoint.
type HTTPDeliverer struct {
	url    string
	token  string
	client *http.Client
	logger *zap.Logger
}

// NewHTTPDeliverer constructs a deliverer from bot config.
func NewHTTPDeliverer(cfg config.BotConfig, logger *zap.Logger) *HTTPDeliverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPDeliverer{
		url:    cfg.DeliveryURL,
		token:  cfg.DeliveryToken,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
	}
}

type outboundMessage struct {
	PlatformID int64 `json:"platform_id"`
	reply.Message
}

// Deliver posts one message to the platform for the given chat identity.
func (d *HTTPDeliverer) Deliver(ctx context.Context, platformID int64, msg reply.Message) error {
	if d.url == "" {
		d.logger.Warn("delivery url not configured, dropping outbound message",
			zap.Int64("platform_id", platformID))
		return nil
	}

	body, err := json.Marshal(outboundMessage{PlatformID: platformID, Message: msg})
	if err != nil {
		return fmt.Errorf("marshal outbound message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build delivery request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.token != "" {
		req.Header.Set("Authorization", "Bearer "+d.token)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("deliver message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("delivery endpoint returned %d", resp.StatusCode)
	}
	return nil
}
