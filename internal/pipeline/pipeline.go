package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/parcelscore/internal/aggregate"
	"github.com/ppiankov/parcelscore/internal/llm"
	"github.com/ppiankov/parcelscore/internal/match"
	"github.com/ppiankov/parcelscore/internal/model"
	"github.com/ppiankov/parcelscore/internal/source"
	"github.com/ppiankov/parcelscore/internal/worker"
)

// Pipeline wires the aggregation and matching engines to one configuration
type Pipeline struct {
	registry     *source.Registry
	orchestrator *aggregate.Orchestrator
	engine       *match.Engine
	narrator     *llm.Narrator // Optional (nil if disabled)
	renderer     *Renderer
	config       *model.Config
	logger       *slog.Logger
	now          func() time.Time
}

// NewPipeline builds adapters from the sources section and creates a pipeline over them
func NewPipeline(cfg *model.Config, logger *slog.Logger) (*Pipeline, error) {
	registry, err := source.FromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build sources: %w", err)
	}
	return NewPipelineWithRegistry(cfg, registry, logger), nil
}

// NewPipelineWithRegistry creates a pipeline over an existing registry
func NewPipelineWithRegistry(cfg *model.Config, registry *source.Registry, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}

	// Narrative is optional; a broken provider config only disables it
	var narrator *llm.Narrator
	if cfg.LLM.Provider != "" {
		provider, err := llm.NewProvider(llm.ConfigFromModel(cfg))
		if err != nil {
			logger.Warn("narrative disabled", "provider", cfg.LLM.Provider, "error", err)
		} else {
			narrator = llm.NewNarrator(provider)
		}
	}

	limiter := worker.NewCategoryLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)

	orchestrator := aggregate.New(registry,
		aggregate.WithTimeout(cfg.Aggregation.AdapterTimeout),
		aggregate.WithDefaultRadius(cfg.Aggregation.DefaultRadius),
		aggregate.WithRateLimiter(limiter),
		aggregate.WithLogger(logger),
	)

	return &Pipeline{
		registry:     registry,
		orchestrator: orchestrator,
		engine:       match.NewEngine(),
		narrator:     narrator,
		renderer:     NewRenderer(cfg.Output.Pretty),
		config:       cfg,
		logger:       logger,
		now:          time.Now,
	}
}

// Registry returns the adapters the pipeline dispatches to
func (p *Pipeline) Registry() *source.Registry {
	return p.registry
}

// Renderer returns the output renderer
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// NarrativeEnabled reports whether an LLM provider is configured
func (p *Pipeline) NarrativeEnabled() bool {
	return p.narrator != nil
}

// Aggregate collects and scores one location. It satisfies worker.Aggregator.
func (p *Pipeline) Aggregate(ctx context.Context, req model.AggregationRequest) (*model.AggregationResponse, error) {
	return p.orchestrator.Aggregate(ctx, req)
}

// AggregateWithNarrative aggregates and, when enabled, attaches a narrative.
// The narrative is generated after scoring and never affects the score; a
// narrative failure is logged and the response returned without one.
func (p *Pipeline) AggregateWithNarrative(ctx context.Context, req model.AggregationRequest) (*model.AggregationResponse, error) {
	resp, err := p.orchestrator.Aggregate(ctx, req)
	if err != nil {
		return nil, err
	}

	if p.narrator == nil {
		return resp, nil
	}

	narrative, err := p.narrator.Narrate(ctx, req.Address, resp)
	if err != nil {
		p.logger.Warn("narrative generation failed", "error", err)
		return resp, nil
	}
	resp.Narrative = narrative
	return resp, nil
}

// Match scores one candidate. A zero AsOf is stamped with the current time.
func (p *Pipeline) Match(c model.PropertyCandidate, prefs model.ScoringPreferences, u model.UserContext) (model.PropertyScore, error) {
	return p.engine.Score(c, prefs, p.stamp(u))
}

// Rank scores every candidate and returns them best first
func (p *Pipeline) Rank(candidates []model.PropertyCandidate, prefs model.ScoringPreferences, u model.UserContext) ([]model.PropertyScore, error) {
	return p.engine.ScoreAll(candidates, prefs, p.stamp(u))
}

func (p *Pipeline) stamp(u model.UserContext) model.UserContext {
	if u.AsOf.IsZero() {
		u.AsOf = p.now().UTC()
	}
	return u
}
