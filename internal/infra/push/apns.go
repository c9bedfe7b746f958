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
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"newspush/internal/domain/entity"
	"newspush/internal/observability/logging"
	"newspush/internal/resilience/circuitbreaker"
	"newspush/internal/resilience/retry"
	"newspush/internal/usecase/dispatch"
)

// APNSConfig contains configuration for the Apple Push Notification service
// gateway.
type APNSConfig struct {
	// Endpoint is the APNs server base URL.
	Endpoint string

	// Topic is the apns-topic header value, normally the app bundle id.
	Topic string

	// AuthToken is the provider authentication token for the bearer header.
	AuthToken string

	// Timeout is the HTTP request timeout per device send.
	Timeout time.Duration

	// RequestsPerSecond is the sustained outbound request rate during a
	// flush.
	RequestsPerSecond float64

	// Burst is the rate limiter burst capacity.
	Burst int

	// FlushConcurrency caps concurrent device sends within one flush.
	FlushConcurrency int
}

// DefaultAPNSConfig returns the production defaults for the APNs gateway.
func DefaultAPNSConfig() APNSConfig {
	return APNSConfig{
		Endpoint:          "https://api.push.apple.com",
		Timeout:           30 * time.Second,
		RequestsPerSecond: 200,
		Burst:             64,
		FlushConcurrency:  32,
	}
}

// APNSGateway delivers iOS push messages through APNs. Submit only enqueues;
// the queued page is delivered by Flush, which the dispatch engine calls at
// every page boundary. Flush logs through the run-scoped logger carried in
// the context.
type APNSGateway struct {
	config      APNSConfig
	httpClient  *http.Client
	rateLimiter *RateLimiter
	breaker     *circuitbreaker.CircuitBreaker

	mu    sync.Mutex
	queue []dispatch.Message
}

// NewAPNSGateway creates an APNs gateway. The breaker is more sensitive than
// the FCM one because APNs rejections usually indicate a connection or
// certificate problem affecting every queued message.
func NewAPNSGateway(config APNSConfig) *APNSGateway {
	if config.FlushConcurrency <= 0 {
		config.FlushConcurrency = 32
	}
	return &APNSGateway{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimiter: NewRateLimiter(config.RequestsPerSecond, config.Burst),
		breaker:     circuitbreaker.New(circuitbreaker.APNSConfig()),
	}
}

// apnsPayload is the JSON body of one APNs device send. Custom keys ride at
// the top level next to the aps dictionary.
type apnsPayload struct {
	APS       apnsAPS `json:"aps"`
	Type      string  `json:"type"`
	ID        string  `json:"id"`
	Image     string  `json:"image"`
	TriggerID string  `json:"trigger-id"`
}

type apnsAPS struct {
	Alert          apnsAlert `json:"alert"`
	Sound          string    `json:"sound"`
	MutableContent int       `json:"mutable-content"`
}

type apnsAlert struct {
	Body string `json:"body"`
}

// apnsErrorResponse is the JSON body APNs returns for a rejected send.
type apnsErrorResponse struct {
	Reason string `json:"reason"`
}

// Platform implements dispatch.Gateway.
func (g *APNSGateway) Platform() entity.Platform {
	return entity.PlatformIOS
}

// BuildMessage composes the APNs payload for one device. The alert body is
// the article title; mutable-content lets the iOS notification extension
// attach the preview image before display.
func (g *APNSGateway) BuildMessage(article *entity.Article, token, correlationID string) (dispatch.Message, error) {
	if token == "" {
		return dispatch.Message{}, fmt.Errorf("build apns message: %w", ErrInvalidToken)
	}

	body, err := json.Marshal(apnsPayload{
		APS: apnsAPS{
			Alert:          apnsAlert{Body: article.Title},
			Sound:          "default",
			MutableContent: 1,
		},
		Type:      "article",
		ID:        strconv.FormatInt(article.ID, 10),
		Image:     article.PreviewImageURL,
		TriggerID: correlationID,
	})
	if err != nil {
		return dispatch.Message{}, fmt.Errorf("marshal apns payload: %w", err)
	}

	return dispatch.Message{
		Token:         token,
		CorrelationID: correlationID,
		Payload:       body,
	}, nil
}

// Submit enqueues one message for the next Flush. A nil return means
// "irrevocably enqueued"; delivery outcomes surface through Flush logging
// and metrics.
func (g *APNSGateway) Submit(ctx context.Context, msg dispatch.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	g.queue = append(g.queue, msg)
	g.mu.Unlock()
	return nil
}

// Flush delivers every queued message with bounded concurrency. Individual
// device rejections are logged and do not fail the flush; an error is
// returned only when nothing could be delivered at all, which points at a
// connection or credential problem rather than bad tokens.
func (g *APNSGateway) Flush(ctx context.Context) error {
	g.mu.Lock()
	batch := g.queue
	g.queue = nil
	g.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	logger := logging.FromContext(ctx)

	var failures atomic.Int64
	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.config.FlushConcurrency)

	for _, msg := range batch {
		msg := msg
		eg.Go(func() error {
			if err := g.rateLimiter.Allow(egctx); err != nil {
				failures.Add(1)
				return nil
			}

			_, err := g.breaker.Execute(func() (interface{}, error) {
				return nil, retry.WithBackoff(egctx, retry.ProviderConfig(), func() error {
					return g.send(egctx, msg)
				})
			})
			if err != nil {
				failures.Add(1)
				logger.Warn("apns send failed",
					slog.String("delivery_id", msg.CorrelationID),
					slog.Any("error", err))
			}
			return nil
		})
	}
	_ = eg.Wait()

	failed := int(failures.Load())
	logger.Info("apns flush finished",
		slog.Int("queued", len(batch)),
		slog.Int("failed", failed))

	if failed == len(batch) {
		return fmt.Errorf("apns flush: all %d sends failed", failed)
	}
	return nil
}

func (g *APNSGateway) send(ctx context.Context, msg dispatch.Message) error {
	url := g.config.Endpoint + "/3/device/" + msg.Token
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(msg.Payload))
	if err != nil {
		return fmt.Errorf("create apns request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "bearer "+g.config.AuthToken)
	req.Header.Set("apns-topic", g.config.Topic)
	req.Header.Set("apns-push-type", "alert")
	req.Header.Set("apns-priority", "10")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute apns request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	// 410 Gone and the token rejection reasons mean the device is no
	// longer reachable under this token.
	var apnsErr apnsErrorResponse
	_ = json.Unmarshal(body, &apnsErr)
	if resp.StatusCode == http.StatusGone ||
		apnsErr.Reason == "BadDeviceToken" ||
		apnsErr.Reason == "Unregistered" {
		return fmt.Errorf("apns rejected device: %w", ErrInvalidToken)
	}

	return classifyStatus(resp.StatusCode, string(body))
}
