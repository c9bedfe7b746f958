package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"newspush/internal/domain/entity"
	"newspush/internal/observability/logging"
	"newspush/internal/observability/tracing"
	"newspush/internal/repository"
	"newspush/internal/resilience/retry"
)

// PageConfig controls the shape of one platform's fan-out.
type PageConfig struct {
	// BatchSize is the subscriber page size streamed from the store.
	BatchSize int

	// MaxInFlight caps concurrent Submit calls within a page.
	MaxInFlight int

	// SendTimeout bounds a single Submit call.
	SendTimeout time.Duration
}

// DefaultAndroidPageConfig returns the fan-out shape for FCM dispatch.
func DefaultAndroidPageConfig() PageConfig {
	return PageConfig{
		BatchSize:   1000,
		MaxInFlight: 32,
		SendTimeout: 30 * time.Second,
	}
}

// DefaultIOSPageConfig returns the fan-out shape for APNs dispatch. The
// larger page suits the enqueue-then-flush submission style.
func DefaultIOSPageConfig() PageConfig {
	return PageConfig{
		BatchSize:   3000,
		MaxInFlight: 32,
		SendTimeout: 30 * time.Second,
	}
}

func (c PageConfig) withDefaults() PageConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = 1000
	}
	if c.MaxInFlight <= 0 {
		c.MaxInFlight = 32
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 30 * time.Second
	}
	return c
}

// Result summarizes one dispatch run.
type Result struct {
	RunID     string
	ArticleID int64
	Platform  entity.Platform

	// Skipped is true when the ledger already held rows for this
	// (article, platform) pair and the run did nothing.
	Skipped bool

	// Considered counts subscribers streamed from the store.
	Considered int

	// Eligible counts subscribers that passed the eligibility filter; it
	// equals the number of ledger rows the run attempted to write.
	Eligible int

	// Dispatched counts sends the provider accepted.
	Dispatched int

	// Failed counts sends the provider rejected. Failed attempts still get
	// ledger rows.
	Failed int

	// Pages counts subscriber pages processed.
	Pages int
}

// Service runs push fan-outs. One Dispatch call covers exactly one
// (article, platform) pair; the sweep in cmd/dispatcher invokes it once per
// configured platform for every fresh article.
type Service struct {
	apps     repository.AppRepository
	ledger   repository.DeliveryRepository
	gateways map[entity.Platform]Gateway
	pacer    Pacer
	configs  map[entity.Platform]PageConfig
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPacer replaces the inter-page pacer.
func WithPacer(p Pacer) Option {
	return func(s *Service) { s.pacer = p }
}

// WithPageConfig sets the fan-out shape for one platform.
func WithPageConfig(platform entity.Platform, cfg PageConfig) Option {
	return func(s *Service) { s.configs[platform] = cfg.withDefaults() }
}

// WithLogger replaces the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock replaces the time source. Tests use this to pin CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a dispatch service. Gateways determine which platforms
// can be dispatched; a platform without a gateway yields
// ErrUnsupportedPlatform.
func NewService(
	apps repository.AppRepository,
	ledger repository.DeliveryRepository,
	gateways []Gateway,
	opts ...Option,
) *Service {
	s := &Service{
		apps:     apps,
		ledger:   ledger,
		gateways: make(map[entity.Platform]Gateway, len(gateways)),
		pacer:    NewRatePacer(30 * time.Second),
		configs: map[entity.Platform]PageConfig{
			entity.PlatformAndroid: DefaultAndroidPageConfig(),
			entity.PlatformIOS:     DefaultIOSPageConfig(),
		},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, g := range gateways {
		s.gateways[g.Platform()] = g
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Dispatch fans an article out to all eligible subscribers on one platform.
//
// The run is idempotent per (article, platform): if the delivery ledger
// already holds any row for the pair the run returns immediately with
// Result.Skipped set and no provider traffic. Otherwise subscribers are
// streamed in pages; within a page sends run concurrently up to the
// platform's MaxInFlight cap, the gateway is flushed, and the page's ledger
// rows are committed in one insert-or-ignore statement before the next page
// starts. A ledger write failure aborts the run with ErrLedgerWrite; rows
// committed by earlier pages stay in place and shield their recipients from
// a repeat on the retry run.
func (s *Service) Dispatch(ctx context.Context, article *entity.Article, platform entity.Platform) (*Result, error) {
	if article == nil || article.ID == 0 || article.Country == "" || article.Language == "" {
		return nil, ErrInvalidArticle
	}

	gw, ok := s.gateways[platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, platform)
	}

	runID := uuid.New().String()
	logger := logging.WithRunID(s.logger, runID).With(
		slog.Int64("article_id", article.ID),
		slog.String("platform", string(platform)),
	)
	ctx = logging.WithLogger(ctx, logger)

	ctx, span := tracing.GetTracer().Start(ctx, "dispatch.run")
	defer span.End()
	span.SetAttributes(
		attribute.String("dispatch.run_id", runID),
		attribute.Int64("article.id", article.ID),
		attribute.String("dispatch.platform", string(platform)),
	)

	result := &Result{
		RunID:     runID,
		ArticleID: article.ID,
		Platform:  platform,
	}

	done, err := s.ledger.Exists(ctx, article.ID, platform)
	if err != nil {
		span.SetStatus(codes.Error, "ledger lookup failed")
		RecordRun(string(platform), "aborted")
		return nil, fmt.Errorf("Dispatch: check ledger: %w", err)
	}
	if done {
		logger.Info("dispatch already recorded, skipping run")
		span.SetAttributes(attribute.Bool("dispatch.skipped", true))
		RecordRun(string(platform), "skipped")
		result.Skipped = true
		return result, nil
	}

	cfg, ok := s.configs[platform]
	if !ok {
		cfg = PageConfig{}.withDefaults()
	}

	logger.Info("dispatch run started",
		slog.Int("batch_size", cfg.BatchSize),
		slog.Int("max_in_flight", cfg.MaxInFlight))

	offset := 0
	for {
		// The first page starts immediately; the pacer gates the rest.
		if result.Pages > 0 {
			if err := s.pacer.Wait(ctx); err != nil {
				span.SetStatus(codes.Error, "pacing interrupted")
				RecordRun(string(platform), "aborted")
				return result, fmt.Errorf("Dispatch: wait for next page: %w", err)
			}
		}

		apps, err := s.apps.FindSubscribers(ctx, repository.SubscriberQuery{
			Platform: platform,
			Country:  article.Country,
			Language: article.Language,
			Offset:   offset,
			Limit:    cfg.BatchSize,
		})
		if err != nil {
			span.SetStatus(codes.Error, "subscriber query failed")
			RecordRun(string(platform), "aborted")
			return result, fmt.Errorf("Dispatch: %w: %v", ErrSubscriberStore, err)
		}
		if len(apps) == 0 {
			break
		}

		result.Pages++
		result.Considered += len(apps)
		RecordPage(string(platform), len(apps))

		records := make([]*entity.DeliveryRecord, 0, len(apps))
		tokens := make(map[int64]string, len(apps))
		for _, app := range apps {
			if !Eligible(article, app, platform) {
				continue
			}
			records = append(records, entity.NewDeliveryRecord(article, app, s.now()))
			tokens[app.ID] = app.PushToken
		}
		result.Eligible += len(records)

		pageFailed := s.sendPage(ctx, gw, article, records, tokens, cfg, logger)

		if err := s.flush(ctx, gw, platform, logger); err != nil {
			// A failed flush loses the page's enqueued sends but the
			// attempts are still committed to the ledger below, keeping
			// the dedup guard intact.
			pageFailed += s.downgradeUnflushed(records)
		}
		result.Dispatched += len(records) - pageFailed
		result.Failed += pageFailed

		if err := s.commitPage(ctx, records); err != nil {
			span.SetStatus(codes.Error, "ledger write failed")
			RecordRun(string(platform), "aborted")
			return result, fmt.Errorf("Dispatch: %w: %v", ErrLedgerWrite, err)
		}
		RecordLedgerRows(string(platform), len(records))

		logger.Info("page committed",
			slog.Int("page", result.Pages),
			slog.Int("considered", len(apps)),
			slog.Int("eligible", len(records)),
			slog.Int("offset", offset))

		if len(apps) < cfg.BatchSize {
			break
		}
		offset += len(apps)
	}

	// Safety net for batching gateways in case the loop exited between a
	// submit and its page flush.
	_ = s.flush(ctx, gw, platform, logger)

	logger.Info("dispatch run finished",
		slog.Int("pages", result.Pages),
		slog.Int("considered", result.Considered),
		slog.Int("eligible", result.Eligible),
		slog.Int("dispatched", result.Dispatched),
		slog.Int("failed", result.Failed))
	span.SetAttributes(
		attribute.Int("dispatch.considered", result.Considered),
		attribute.Int("dispatch.eligible", result.Eligible),
		attribute.Int("dispatch.failed", result.Failed),
	)
	RecordRun(string(platform), "completed")

	return result, nil
}

// sendPage submits one page of records through the gateway with bounded
// concurrency and returns the number of failed submits. Each goroutine owns
// exactly one record: on submit failure the record's status is downgraded in
// place and no error is propagated, so one bad token never cancels its page
// siblings.
func (s *Service) sendPage(
	ctx context.Context,
	gw Gateway,
	article *entity.Article,
	records []*entity.DeliveryRecord,
	tokens map[int64]string,
	cfg PageConfig,
	logger *slog.Logger,
) int {
	var failures atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.MaxInFlight)

	for _, rec := range records {
		rec := rec
		g.Go(func() error {
			token := tokens[rec.AppID]
			msg, err := gw.BuildMessage(article, token, rec.ID)
			if err != nil {
				logger.Warn("message build failed",
					slog.Int64("app_id", rec.AppID),
					slog.Any("error", err))
				rec.Status = entity.DeliveryFailed
				failures.Add(1)
				return nil
			}

			IncrementInFlightSends()
			start := time.Now()
			sendCtx, cancel := context.WithTimeout(gctx, cfg.SendTimeout)
			err = gw.Submit(sendCtx, msg)
			cancel()
			DecrementInFlightSends()
			RecordSend(string(rec.Platform), err != nil, time.Since(start))

			if err != nil {
				logger.Warn("push submit failed",
					slog.Int64("app_id", rec.AppID),
					slog.String("delivery_id", rec.ID),
					slog.Any("error", err))
				rec.Status = entity.DeliveryFailed
				failures.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	return int(failures.Load())
}

func (s *Service) flush(ctx context.Context, gw Gateway, platform entity.Platform, logger *slog.Logger) error {
	if err := gw.Flush(ctx); err != nil {
		logger.Warn("gateway flush failed", slog.Any("error", err))
		RecordFlushError(string(platform))
		return err
	}
	return nil
}

// downgradeUnflushed marks every still-sent record of the page as failed
// after a flush error and returns how many were downgraded.
func (s *Service) downgradeUnflushed(records []*entity.DeliveryRecord) int {
	n := 0
	for _, rec := range records {
		if rec.Status == entity.DeliverySent {
			rec.Status = entity.DeliveryFailed
			n++
		}
	}
	return n
}

// commitPage writes the page's ledger rows with a short retry for transient
// database trouble. Insert-or-ignore semantics in the repository make the
// retry safe against partial application.
func (s *Service) commitPage(ctx context.Context, records []*entity.DeliveryRecord) error {
	if len(records) == 0 {
		return nil
	}
	return retry.WithBackoff(ctx, retry.DBConfig(), func() error {
		return s.ledger.BulkInsert(ctx, records)
	})
}
