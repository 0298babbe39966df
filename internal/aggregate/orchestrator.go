package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ppiankov/parcelscore/internal/model"
	"github.com/ppiankov/parcelscore/internal/score"
	"github.com/ppiankov/parcelscore/internal/source"
)

// DefaultAdapterTimeout bounds a single adapter call when no timeout is configured
const DefaultAdapterTimeout = 10 * time.Second

// ErrNoAdapter is reported for a toggle naming a category nobody serves
var ErrNoAdapter = errors.New("no adapter registered")

const tracerName = "github.com/ppiankov/parcelscore/internal/aggregate"

// RateLimiter throttles calls per key. worker.CategoryLimiter satisfies it.
type RateLimiter interface {
	Wait(ctx context.Context, key string) error
}

// Orchestrator fans a request out to one adapter per requested category,
// waits for every call to settle and scores whatever data came back.
// A failing, slow or panicking adapter only affects its own category.
type Orchestrator struct {
	registry      *source.Registry
	scorer        *score.Scorer
	timeout       time.Duration
	defaultRadius int
	limiter       RateLimiter
	tracer        trace.Tracer
	logger        *slog.Logger
	now           func() time.Time
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithTimeout sets the per-adapter timeout
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithDefaultRadius sets the radius used when a request omits one
func WithDefaultRadius(meters int) Option {
	return func(o *Orchestrator) {
		if meters > 0 {
			o.defaultRadius = meters
		}
	}
}

// WithRateLimiter throttles adapter calls per category
func WithRateLimiter(l RateLimiter) Option {
	return func(o *Orchestrator) { o.limiter = l }
}

// WithTracer overrides the tracer taken from the global provider
func WithTracer(t trace.Tracer) Option {
	return func(o *Orchestrator) { o.tracer = t }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithClock sets the clock used to stamp queriedAt
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// New creates an orchestrator over registry
func New(registry *source.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry:      registry,
		scorer:        score.NewScorer(),
		timeout:       DefaultAdapterTimeout,
		defaultRadius: model.DefaultRadiusMeters,
		tracer:        otel.Tracer(tracerName),
		logger:        slog.Default(),
		now:           func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Aggregate validates the request, collects every requested category and
// computes the composite score over the data actually obtained. The only
// error it returns is a validation error; adapter failures land in the
// response's Errors map.
func (o *Orchestrator) Aggregate(ctx context.Context, req model.AggregationRequest) (*model.AggregationResponse, error) {
	ctx, span := o.tracer.Start(ctx, "aggregate", trace.WithAttributes(
		attribute.Float64("lat", req.Lat),
		attribute.Float64("lng", req.Lng),
	))
	defer span.End()

	start := time.Now()

	result, err := o.Collect(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	composite := o.scorer.Calculate(result)

	span.SetAttributes(
		attribute.Int("succeeded", len(result.Data)),
		attribute.Int("failed", len(result.Errors)),
		attribute.Int("score", composite.Score),
	)

	o.logger.Info("aggregation complete",
		"lat", req.Lat,
		"lng", req.Lng,
		"requested", len(result.Data)+len(result.Errors),
		"succeeded", len(result.Data),
		"failed", len(result.Errors),
		"score", composite.Score,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &model.AggregationResponse{
		Success:       true,
		Data:          result.Data,
		PropertyScore: composite,
		Errors:        result.Errors,
		QueriedAt:     o.now(),
	}, nil
}

// Collect dispatches one adapter call per requested category, all at once,
// and returns after every call has settled. Every requested category ends
// up in exactly one of Data or Errors.
func (o *Orchestrator) Collect(ctx context.Context, req model.AggregationRequest) (model.AggregationResult, error) {
	if err := req.Validate(); err != nil {
		return model.AggregationResult{}, err
	}

	adapters, unregistered := o.resolve(req.Toggles)

	result := model.NewAggregationResult()
	for _, c := range unregistered {
		result.Errors[c] = ErrNoAdapter.Error()
	}

	radius := req.Radius
	if radius <= 0 {
		radius = o.defaultRadius
	}
	q := source.Query{
		Lat:      req.Lat,
		Lng:      req.Lng,
		Address:  req.Address,
		FIPSCode: req.FIPSCode,
		Radius:   radius,
	}

	// One slot per adapter; each goroutine writes only its own slot
	outcomes := make([]outcome, len(adapters))
	var wg sync.WaitGroup

	for i, a := range adapters {
		wg.Add(1)
		go func(idx int, adapter source.Adapter) {
			defer wg.Done()
			outcomes[idx] = o.fetchOne(ctx, adapter, q)
		}(i, a)
	}

	wg.Wait()

	for i, a := range adapters {
		c := a.Category()
		if err := outcomes[i].err; err != nil {
			result.Errors[c] = sourceMessage(err)
			o.logger.Warn("source unavailable", "category", c, "error", err)
			continue
		}
		result.Data[c] = outcomes[i].record
	}

	return result, nil
}

type outcome struct {
	record model.Record
	err    error
}

// resolve normalizes toggles into the adapters to call and the categories
// nobody serves. "all" expands to every registered category; duplicates
// collapse.
func (o *Orchestrator) resolve(toggles []string) ([]source.Adapter, []model.Category) {
	var adapters []source.Adapter
	var unregistered []model.Category
	seen := make(map[model.Category]bool)

	add := func(c model.Category) {
		if seen[c] {
			return
		}
		seen[c] = true
		if a, ok := o.registry.Lookup(c); ok {
			adapters = append(adapters, a)
			return
		}
		unregistered = append(unregistered, c)
	}

	for _, t := range toggles {
		toggle := strings.ToLower(strings.TrimSpace(t))
		if toggle == "" {
			continue
		}
		if toggle == model.ToggleAll {
			for _, c := range o.registry.Categories() {
				add(c)
			}
			continue
		}
		add(model.Category(toggle))
	}

	return adapters, unregistered
}

// sourceMessage is the per-category text reported in the errors map
func sourceMessage(err error) string {
	var se *model.SourceError
	if errors.As(err, &se) && se.Err != nil {
		return se.Err.Error()
	}
	return err.Error()
}

// fetchOne runs a single adapter under the per-adapter timeout, which also
// covers any wait on the rate limiter. The call runs in its own goroutine so
// an adapter that ignores its context still cannot hold up the request past
// the deadline. Failures come back as *model.SourceError.
func (o *Orchestrator) fetchOne(ctx context.Context, a source.Adapter, q source.Query) (out outcome) {
	category := a.Category()

	ctx, span := o.tracer.Start(ctx, "adapter.fetch", trace.WithAttributes(
		attribute.String("category", string(category)),
	))
	defer func() {
		result := "ok"
		if out.err != nil {
			out.err = &model.SourceError{Category: category, Err: out.err}
			result = "error"
			span.RecordError(out.err)
			span.SetStatus(codes.Error, out.err.Error())
		}
		span.SetAttributes(attribute.String("outcome", result))
		span.End()
	}()

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	if o.limiter != nil {
		if err := o.limiter.Wait(callCtx, string(category)); err != nil {
			if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
				return outcome{err: fmt.Errorf("timed out after %s waiting for rate limit", o.timeout)}
			}
			return outcome{err: fmt.Errorf("rate limit: %w", err)}
		}
	}

	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("adapter panicked: %v", r)}
			}
		}()
		rec, err := a.Fetch(callCtx, q)
		done <- outcome{record: rec, err: err}
	}()

	select {
	case out = <-done:
	case <-callCtx.Done():
		out = outcome{err: callCtx.Err()}
	}

	if out.err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			out.err = fmt.Errorf("timed out after %s", o.timeout)
		}
		out.record = nil
		return out
	}
	if out.record == nil {
		out.err = errors.New("adapter returned no data")
	}
	return out
}
