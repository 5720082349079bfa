package ingest

import (
	"context"
	"errors"
	"hash/fnv"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/mcoot/pokerstats/internal/dependencies/clock"
	"github.com/mcoot/pokerstats/internal/dependencies/ids"
	"github.com/mcoot/pokerstats/internal/model"
	"github.com/mcoot/pokerstats/internal/storage"
)

// Config controls batch processing
type Config struct {
	// Workers is the number of rows processed concurrently. Rows for the
	// same username always go to the same worker, in input order.
	Workers int

	// StoreTimeout bounds every individual store call
	StoreTimeout time.Duration

	// RetryBackoff is the initial wait before retrying a timed-out row
	RetryBackoff time.Duration

	// BatchTimeout bounds a whole upload; remaining rows are left unprocessed
	BatchTimeout time.Duration

	// DefaultPlatform is used when an upload names none
	DefaultPlatform model.Platform
}

// DefaultConfig returns sensible defaults for ingestion
func DefaultConfig() Config {
	return Config{
		Workers:         1,
		StoreTimeout:    5 * time.Second,
		RetryBackoff:    200 * time.Millisecond,
		BatchTimeout:    2 * time.Minute,
		DefaultPlatform: model.PlatformPokerBaazi,
	}
}

const queueDepth = 64

// Upload is one submitted file
type Upload struct {
	Platform    model.Platform // empty means the configured default
	FileName    string
	ContentType string
	Data        []byte
}

// Pipeline turns uploads into catalog rows: normalize, resolve identity,
// write statistics, and report per-row outcomes.
type Pipeline struct {
	storage  storage.Storage
	resolver *Resolver
	upserter *Upserter
	parsers  ParserFactory
	clock    clock.Clock
	ids      ids.Generator
	logger   *slog.Logger
	metrics  *Metrics
	tracer   trace.Tracer
	cfg      Config
}

// NewPipeline creates a new Pipeline
func NewPipeline(
	store storage.Storage,
	clock clock.Clock,
	ids ids.Generator,
	logger *slog.Logger,
	metrics *Metrics,
	tracer trace.Tracer,
	cfg Config,
) *Pipeline {
	bounded := newBoundedStore(store, cfg.StoreTimeout)
	return &Pipeline{
		storage:  store,
		resolver: NewResolver(bounded, clock, ids),
		upserter: NewUpserter(bounded, clock),
		parsers:  NewFactory(),
		clock:    clock,
		ids:      ids,
		logger:   logger,
		metrics:  metrics,
		tracer:   tracer,
		cfg:      cfg,
	}
}

// Resolver exposes the identity resolver for manual alias linking
func (p *Pipeline) Resolver() *Resolver {
	return p.resolver
}

// Run parses and ingests one upload. It fails only when the upload cannot
// be parsed, in which case nothing is written. Row-level problems are
// reported in the returned ImportReport.
func (p *Pipeline) Run(ctx context.Context, upload Upload) (*model.ImportReport, error) {
	platform := upload.Platform
	if platform == "" {
		platform = p.cfg.DefaultPlatform
	}

	ctx, span := p.tracer.Start(ctx, "ingest.Pipeline.Run", trace.WithAttributes(
		attribute.String("ingest.platform", string(platform)),
		attribute.String("ingest.file_name", upload.FileName),
		attribute.Int("ingest.bytes", len(upload.Data)),
	))
	defer span.End()

	started := time.Now()
	batch, err := p.parse(upload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failure")
		p.metrics.observeBatch(BatchParseFailure, time.Since(started))
		p.logger.WarnContext(ctx, "upload rejected",
			"platform", platform,
			"file_name", upload.FileName,
			"error", err,
		)
		return nil, err
	}

	return p.Import(ctx, platform, upload.FileName, batch), nil
}

func (p *Pipeline) parse(upload Upload) (*Batch, error) {
	parser, err := p.parsers.GetParser(upload.FileName, upload.ContentType)
	if err != nil {
		return nil, err
	}
	table, err := parser.Parse(upload.Data)
	if err != nil {
		return nil, err
	}
	return Normalize(table)
}

// Import ingests an already-normalized batch and persists its report
func (p *Pipeline) Import(ctx context.Context, platform model.Platform, fileName string, batch *Batch) *model.ImportReport {
	started := time.Now()
	if p.cfg.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.BatchTimeout)
		defer cancel()
	}

	importID := model.ImportID(p.ids.NewID())
	agg := NewAggregator(importID, platform, fileName, batch.Len(), p.clock.Now())
	session := p.resolver.NewSession()

	var interrupted atomic.Bool
	workers := max(p.cfg.Workers, 1)
	queues := make([]chan Record, workers)

	var g errgroup.Group
	for i := range queues {
		queue := make(chan Record, queueDepth)
		queues[i] = queue
		g.Go(func() error {
			for rec := range queue {
				// Drain without processing once cancelled
				if ctx.Err() != nil {
					interrupted.Store(true)
					continue
				}
				if !p.processRow(ctx, session, importID, platform, rec, agg) {
					interrupted.Store(true)
				}
			}
			return nil
		})
	}

dispatch:
	for rec := range batch.Records() {
		if ctx.Err() != nil {
			interrupted.Store(true)
			break
		}
		if rec.Err != nil {
			p.reject(ctx, agg, importID, platform, rec.Err)
			continue
		}
		select {
		case queues[route(rec.Username, workers)] <- rec:
		case <-ctx.Done():
			interrupted.Store(true)
			break dispatch
		}
	}
	for _, queue := range queues {
		close(queue)
	}
	_ = g.Wait()

	if interrupted.Load() {
		agg.Cancel()
	}
	report := agg.Finish(p.clock.Now())
	p.save(ctx, report)

	status := BatchCompleted
	if report.Cancelled {
		status = BatchCancelled
	}
	p.metrics.observeBatch(status, time.Since(started))
	p.logger.InfoContext(ctx, "import finished",
		"import_id", report.ID,
		"platform", report.Platform,
		"total", report.TotalRows,
		"inserted", report.Inserted,
		"skipped", report.Skipped,
		"rejected", report.Rejected,
		"unprocessed", report.Unprocessed,
		"cancelled", report.Cancelled,
		"duration", time.Since(started),
	)
	return report
}

// processRow ingests one row, retrying once after a store timeout. It
// returns false if the batch was cancelled before the row finished; such
// rows get no outcome.
func (p *Pipeline) processRow(ctx context.Context, session *Session, importID model.ImportID, platform model.Platform, rec Record, agg *Aggregator) bool {
	ctx, span := p.tracer.Start(ctx, "ingest.processRow", trace.WithAttributes(
		attribute.Int("ingest.row", rec.Row),
	))
	defer span.End()

	var outcome model.Outcome
	op := func() error {
		var err error
		outcome, err = p.ingestRow(ctx, session, importID, platform, rec)
		if err != nil && !errors.Is(err, model.ErrStoreTimeout) {
			return backoff.Permanent(err)
		}
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.cfg.RetryBackoff
	bo.MaxElapsedTime = 0
	err := backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(bo, 1), ctx), func(err error, wait time.Duration) {
		p.metrics.observeRetry()
		p.logger.DebugContext(ctx, "retrying row after store timeout",
			"import_id", importID,
			"row", rec.Row,
			"wait", wait,
		)
	})
	if err != nil && ctx.Err() != nil {
		return false
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "row rejected")
		p.reject(ctx, agg, importID, platform, &model.RowError{
			Row:    rec.Row,
			Code:   classify(err),
			Reason: err.Error(),
		})
		return true
	}

	span.SetAttributes(attribute.String("ingest.outcome", string(outcome)))
	agg.Record(outcome, nil)
	p.metrics.observeRow(platform, outcome, nil)
	return true
}

func (p *Pipeline) ingestRow(ctx context.Context, session *Session, importID model.ImportID, platform model.Platform, rec Record) (model.Outcome, error) {
	playerID, err := session.Resolve(ctx, rec.Username, platform)
	if err != nil {
		return model.OutcomeRejected, err
	}
	return p.upserter.Upsert(ctx, playerID, rec.Fields, importID)
}

func (p *Pipeline) reject(ctx context.Context, agg *Aggregator, importID model.ImportID, platform model.Platform, rowErr *model.RowError) {
	agg.Record(model.OutcomeRejected, rowErr)
	p.metrics.observeRow(platform, model.OutcomeRejected, rowErr)
	p.logger.WarnContext(ctx, "row rejected",
		"import_id", importID,
		"row", rowErr.Row,
		"code", rowErr.Code,
		"reason", rowErr.Reason,
	)
}

// save persists the report even when the batch itself was cancelled
func (p *Pipeline) save(ctx context.Context, report *model.ImportReport) {
	saveCtx := context.WithoutCancel(ctx)
	if p.cfg.StoreTimeout > 0 {
		var cancel context.CancelFunc
		saveCtx, cancel = context.WithTimeout(saveCtx, p.cfg.StoreTimeout)
		defer cancel()
	}
	if err := p.storage.SaveImport(saveCtx, report); err != nil {
		trace.SpanFromContext(ctx).RecordError(err)
		p.logger.ErrorContext(ctx, "failed to save import report",
			"import_id", report.ID,
			"error", err,
		)
	}
}

// Report returns a previously saved import report
func (p *Pipeline) Report(ctx context.Context, id model.ImportID) (*model.ImportReport, error) {
	return p.storage.GetImport(ctx, id)
}

func classify(err error) model.RowErrorCode {
	switch {
	case errors.Is(err, model.ErrStoreTimeout):
		return model.CodeStoreTimeout
	case errors.Is(err, model.ErrIdentityCreateFailed):
		return model.CodeIdentityCreateFailed
	default:
		return model.CodeStoreError
	}
}

// route picks the worker for a username
func route(username string, workers int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(username))
	return int(h.Sum32() % uint32(workers))
}
