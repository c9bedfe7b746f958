package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"newspush/internal/domain/entity"
	"newspush/internal/observability/logging"
	"newspush/internal/resilience/circuitbreaker"
	"newspush/internal/resilience/retry"
	"newspush/internal/usecase/dispatch"
)

// FCMConfig contains configuration for the Firebase Cloud Messaging gateway.
type FCMConfig struct {
	// Endpoint is the FCM HTTP send endpoint.
	Endpoint string

	// ServerKey is the FCM server key used in the Authorization header.
	ServerKey string

	// Timeout is the HTTP request timeout for send calls.
	Timeout time.Duration

	// RequestsPerSecond is the sustained outbound request rate.
	RequestsPerSecond float64

	// Burst is the rate limiter burst capacity.
	Burst int
}

// DefaultFCMConfig returns the production defaults for the FCM gateway.
func DefaultFCMConfig() FCMConfig {
	return FCMConfig{
		Endpoint:          "https://fcm.googleapis.com/fcm/send",
		Timeout:           30 * time.Second,
		RequestsPerSecond: 100,
		Burst:             32,
	}
}

// FCMGateway delivers Android push messages through FCM. Sends happen one
// message per HTTP request inside Submit; Flush is a no-op. Per-send logging
// goes through the run-scoped logger carried in the context.
type FCMGateway struct {
	config      FCMConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
	breaker     *circuitbreaker.CircuitBreaker
}

// NewFCMGateway creates an FCM gateway with rate limiting and a circuit
// breaker tuned for project-level throttling.
func NewFCMGateway(config FCMConfig) *FCMGateway {
	return &FCMGateway{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimiter: NewRateLimiter(config.RequestsPerSecond, config.Burst),
		breaker:     circuitbreaker.New(circuitbreaker.FCMConfig()),
	}
}

// fcmRequest is the JSON body of one FCM send call.
type fcmRequest struct {
	To       string  `json:"to"`
	Priority string  `json:"priority"`
	Data     fcmData `json:"data"`
}

// fcmData is the data block delivered to the Android client. The client
// renders the notification itself, so everything it needs rides in data
// rather than in a notification block.
type fcmData struct {
	Title       string `json:"title"`
	Type        string `json:"type"`
	ID          string `json:"id"`
	Image       string `json:"image"`
	TriggerID   string `json:"trigger-id"`
	Description string `json:"description"`
}

// fcmResponse is the JSON body FCM returns for a single-recipient send.
type fcmResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
	Results []struct {
		MessageID string `json:"message_id"`
		Error     string `json:"error"`
	} `json:"results"`
}

// Platform implements dispatch.Gateway.
func (g *FCMGateway) Platform() entity.Platform {
	return entity.PlatformAndroid
}

// BuildMessage composes the FCM send body for one recipient. The trigger-id
// data key carries the delivery correlation id so client-side events can be
// joined with the delivery ledger.
func (g *FCMGateway) BuildMessage(article *entity.Article, token, correlationID string) (dispatch.Message, error) {
	if token == "" {
		return dispatch.Message{}, fmt.Errorf("build fcm message: %w", ErrInvalidToken)
	}

	body, err := json.Marshal(fcmRequest{
		To:       token,
		Priority: "high",
		Data: fcmData{
			Title:       article.Title,
			Type:        "article",
			ID:          strconv.FormatInt(article.ID, 10),
			Image:       article.PreviewImageURL,
			TriggerID:   correlationID,
			Description: article.Description,
		},
	})
	if err != nil {
		return dispatch.Message{}, fmt.Errorf("marshal fcm payload: %w", err)
	}

	return dispatch.Message{
		Token:         token,
		CorrelationID: correlationID,
		Payload:       body,
	}, nil
}

// Submit sends one message to FCM. The call is rate limited, retried once on
// transient failure and guarded by the circuit breaker; a returned error is
// final for this attempt.
func (g *FCMGateway) Submit(ctx context.Context, msg dispatch.Message) error {
	if err := g.rateLimiter.Allow(ctx); err != nil {
		return fmt.Errorf("fcm rate limiter: %w", err)
	}

	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, retry.WithBackoff(ctx, retry.ProviderConfig(), func() error {
			return g.send(ctx, msg)
		})
	})
	return err
}

// Flush implements dispatch.Gateway. FCM sends are synchronous, so there is
// nothing to flush.
func (g *FCMGateway) Flush(ctx context.Context) error {
	return nil
}

func (g *FCMGateway) send(ctx context.Context, msg dispatch.Message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.Endpoint, bytes.NewReader(msg.Payload))
	if err != nil {
		return fmt.Errorf("create fcm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "key="+g.config.ServerKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute fcm request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	if err := classifyStatus(resp.StatusCode, string(body)); err != nil {
		return err
	}

	// A 200 can still carry a per-recipient failure in the body.
	var fcmResp fcmResponse
	if err := json.Unmarshal(body, &fcmResp); err != nil {
		// Tolerate an unparseable success body; the provider accepted it.
		logging.FromContext(ctx).Warn("unparseable fcm response body",
			slog.String("delivery_id", msg.CorrelationID))
		return nil
	}
	if fcmResp.Failure > 0 && len(fcmResp.Results) > 0 {
		reason := fcmResp.Results[0].Error
		if reason == "NotRegistered" || reason == "InvalidRegistration" {
			return fmt.Errorf("fcm rejected recipient: %w", ErrInvalidToken)
		}
		return &ClientError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("fcm send failed: %s", reason),
		}
	}
	return nil
}
