package aggregate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/ppiankov/parcelscore/internal/model"
	"github.com/ppiankov/parcelscore/internal/source"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func returning(c model.Category, rec model.Record) source.Adapter {
	return source.NewFuncAdapter(c, func(ctx context.Context, q source.Query) (model.Record, error) {
		return rec, nil
	})
}

func failing(c model.Category, msg string) source.Adapter {
	return source.NewFuncAdapter(c, func(ctx context.Context, q source.Query) (model.Record, error) {
		return nil, errors.New(msg)
	})
}

func newTestOrchestrator(adapters []source.Adapter, opts ...Option) *Orchestrator {
	opts = append([]Option{WithLogger(quietLogger)}, opts...)
	return New(source.NewRegistry(adapters...), opts...)
}

func TestOrchestrator_Aggregate_PartialFailure(t *testing.T) {
	o := newTestOrchestrator([]source.Adapter{
		returning(model.CategoryFlood, &model.FloodRecord{Zone: "AE"}),
		failing(model.CategoryWeather, "weather service unavailable"),
	})

	resp, err := o.Aggregate(context.Background(), model.AggregationRequest{
		Lat:     26.14,
		Lng:     -81.79,
		Toggles: []string{"flood", "weather"},
	})
	if err != nil {
		t.Fatalf("Aggregate() error = %v", err)
	}

	if !resp.Success {
		t.Error("Expected success")
	}
	if _, ok := resp.Data[model.CategoryFlood]; !ok {
		t.Error("Expected flood data")
	}
	if _, ok := resp.Data[model.CategoryWeather]; ok {
		t.Error("Expected no weather data")
	}
	if resp.Errors[model.CategoryWeather] != "weather service unavailable" {
		t.Errorf("Unexpected weather error: %q", resp.Errors[model.CategoryWeather])
	}

	found := false
	for _, f := range resp.PropertyScore.Factors {
		if f.Name == "Flood Risk" && f.Impact == -20 {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected Flood Risk -20 factor, got %+v", resp.PropertyScore.Factors)
	}
	if resp.PropertyScore.Score != 50 {
		t.Errorf("Expected score 50, got %d", resp.PropertyScore.Score)
	}
}

func TestOrchestrator_Collect_KeySetsPartitionRequest(t *testing.T) {
	adapters := []source.Adapter{
		returning(model.CategoryFlood, &model.FloodRecord{Zone: "X"}),
		failing(model.CategoryDisasters, "boom"),
		returning(model.CategoryEnvironment, &model.EnvironmentRecord{}),
		failing(model.CategorySeismic, "down"),
		returning(model.CategoryWeather, &model.WeatherRecord{}),
		returning(model.CategoryWalkability, &model.WalkabilityRecord{}),
	}
	o := newTestOrchestrator(adapters)

	all := []string{"flood", "disasters", "environment", "seismic", "weather", "walkability", "places"}

	// Every subset of the toggles
	for mask := 0; mask < 1<<len(all); mask++ {
		var toggles []string
		for i, tg := range all {
			if mask&(1<<i) != 0 {
				toggles = append(toggles, tg)
			}
		}

		result, err := o.Collect(context.Background(), model.AggregationRequest{Lat: 40, Lng: -74, Toggles: toggles})
		if err != nil {
			t.Fatalf("mask %d: %v", mask, err)
		}

		if got := result.Requested(); len(got) != len(toggles) {
			t.Fatalf("mask %d: expected %d categories, got %d data + %d errors",
				mask, len(toggles), len(result.Data), len(result.Errors))
		}
		for _, tg := range toggles {
			c := model.Category(tg)
			_, inData := result.Data[c]
			_, inErrors := result.Errors[c]
			if inData == inErrors {
				t.Fatalf("mask %d: category %s in data=%v errors=%v", mask, c, inData, inErrors)
			}
		}
	}
}

func TestOrchestrator_Collect_ValidationSkipsDispatch(t *testing.T) {
	var calls atomic.Int32
	counting := source.NewFuncAdapter(model.CategoryFlood, func(ctx context.Context, q source.Query) (model.Record, error) {
		calls.Add(1)
		return &model.FloodRecord{}, nil
	})
	o := newTestOrchestrator([]source.Adapter{counting})

	tests := []struct {
		name  string
		lat   float64
		lng   float64
		field string
	}{
		{"lat too high", 90.5, 0, "lat"},
		{"lat too low", -91, 0, "lat"},
		{"lng too high", 0, 180.01, "lng"},
		{"lng too low", 0, -200, "lng"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := o.Aggregate(context.Background(), model.AggregationRequest{Lat: tt.lat, Lng: tt.lng, Toggles: []string{"flood"}})
			if !errors.Is(err, model.ErrValidation) {
				t.Fatalf("Expected validation error, got %v", err)
			}
			var vErr *model.ValidationError
			if !errors.As(err, &vErr) || vErr.Field != tt.field {
				t.Errorf("Expected field %s, got %v", tt.field, err)
			}
		})
	}

	if calls.Load() != 0 {
		t.Errorf("Expected no adapter calls, got %d", calls.Load())
	}

	// Boundaries are valid
	if _, err := o.Collect(context.Background(), model.AggregationRequest{Lat: -90, Lng: 180, Toggles: []string{"flood"}}); err != nil {
		t.Errorf("Expected boundary coordinates to be valid, got %v", err)
	}
}

func TestOrchestrator_Collect_TimeoutIsolated(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	// Ignores its context entirely
	stuck := source.NewFuncAdapter(model.CategoryWeather, func(ctx context.Context, q source.Query) (model.Record, error) {
		<-release
		return &model.WeatherRecord{}, nil
	})

	o := newTestOrchestrator([]source.Adapter{
		stuck,
		returning(model.CategoryFlood, &model.FloodRecord{Zone: "X"}),
	}, WithTimeout(50*time.Millisecond))

	start := time.Now()
	result, err := o.Collect(context.Background(), model.AggregationRequest{Lat: 1, Lng: 1, Toggles: []string{"weather", "flood"}})
	if err != nil {
		t.Fatal(err)
	}

	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Collect waited %v for a stuck adapter", elapsed)
	}
	if result.Errors[model.CategoryWeather] != "timed out after 50ms" {
		t.Errorf("Unexpected weather error: %q", result.Errors[model.CategoryWeather])
	}
	if _, ok := result.Data[model.CategoryFlood]; !ok {
		t.Error("Expected flood data despite sibling timeout")
	}

	out := o.fetchOne(context.Background(), stuck, source.Query{})
	if !errors.Is(out.err, model.ErrSourceUnavailable) {
		t.Fatalf("Expected ErrSourceUnavailable, got %v", out.err)
	}
	var se *model.SourceError
	if !errors.As(out.err, &se) || se.Category != model.CategoryWeather {
		t.Errorf("Expected SourceError for weather, got %#v", out.err)
	}
	if out.record != nil {
		t.Error("Expected no record on timeout")
	}
}

func TestOrchestrator_Collect_ContextAwareTimeout(t *testing.T) {
	slow := source.NewFuncAdapter(model.CategoryWeather, func(ctx context.Context, q source.Query) (model.Record, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	o := newTestOrchestrator([]source.Adapter{slow}, WithTimeout(20*time.Millisecond))

	result, err := o.Collect(context.Background(), model.AggregationRequest{Toggles: []string{"weather"}})
	if err != nil {
		t.Fatal(err)
	}
	if result.Errors[model.CategoryWeather] != "timed out after 20ms" {
		t.Errorf("Unexpected weather error: %q", result.Errors[model.CategoryWeather])
	}
}

func TestOrchestrator_Collect_PanicIsolated(t *testing.T) {
	panicky := source.NewFuncAdapter(model.CategorySeismic, func(ctx context.Context, q source.Query) (model.Record, error) {
		panic("index out of range")
	})

	o := newTestOrchestrator([]source.Adapter{
		panicky,
		returning(model.CategoryFlood, &model.FloodRecord{Zone: "X"}),
	})

	result, err := o.Collect(context.Background(), model.AggregationRequest{Toggles: []string{"seismic", "flood"}})
	if err != nil {
		t.Fatal(err)
	}

	if result.Errors[model.CategorySeismic] != "adapter panicked: index out of range" {
		t.Errorf("Unexpected seismic error: %q", result.Errors[model.CategorySeismic])
	}
	if _, ok := result.Data[model.CategoryFlood]; !ok {
		t.Error("Expected flood data despite sibling panic")
	}
}

func TestOrchestrator_Collect_NilRecordIsError(t *testing.T) {
	o := newTestOrchestrator([]source.Adapter{returning(model.CategoryPlaces, nil)})

	result, err := o.Collect(context.Background(), model.AggregationRequest{Toggles: []string{"places"}})
	if err != nil {
		t.Fatal(err)
	}
	if result.Errors[model.CategoryPlaces] == "" {
		t.Error("Expected an error for an adapter returning nothing")
	}
}

func TestOrchestrator_Collect_RunsConcurrently(t *testing.T) {
	const n = 5
	categories := model.AllCategories()[:n]

	var started sync.WaitGroup
	started.Add(n)
	allStarted := make(chan struct{})
	go func() {
		started.Wait()
		close(allStarted)
	}()

	var adapters []source.Adapter
	for _, c := range categories {
		adapters = append(adapters, source.NewFuncAdapter(c, func(ctx context.Context, q source.Query) (model.Record, error) {
			started.Done()
			// Only returns once every sibling is in flight
			select {
			case <-allStarted:
				return model.NewRecord(c), nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}))
	}

	o := newTestOrchestrator(adapters, WithTimeout(5*time.Second))

	result, err := o.Collect(context.Background(), model.AggregationRequest{Toggles: []string{"all"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Data) != n {
		t.Errorf("Expected %d successes, got data=%v errors=%v", n, len(result.Data), result.Errors)
	}
}

func TestOrchestrator_Collect_Toggles(t *testing.T) {
	var calls atomic.Int32
	counting := func(c model.Category) source.Adapter {
		return source.NewFuncAdapter(c, func(ctx context.Context, q source.Query) (model.Record, error) {
			calls.Add(1)
			return model.NewRecord(c), nil
		})
	}

	o := newTestOrchestrator([]source.Adapter{counting(model.CategoryFlood), counting(model.CategoryWeather)})

	result, err := o.Collect(context.Background(), model.AggregationRequest{
		Toggles: []string{" FLOOD ", "flood", "all", "zoning", ""},
	})
	if err != nil {
		t.Fatal(err)
	}

	if calls.Load() != 2 {
		t.Errorf("Expected one call per category, got %d", calls.Load())
	}

	var keys []string
	for c := range result.Data {
		keys = append(keys, string(c))
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "flood" || keys[1] != "weather" {
		t.Errorf("Unexpected data keys: %v", keys)
	}
	if result.Errors["zoning"] != ErrNoAdapter.Error() {
		t.Errorf("Expected unregistered toggle error, got %v", result.Errors)
	}
}

func TestOrchestrator_Collect_QueryDefaults(t *testing.T) {
	var got source.Query
	capture := source.NewFuncAdapter(model.CategoryAmenities, func(ctx context.Context, q source.Query) (model.Record, error) {
		got = q
		return &model.AmenitiesRecord{}, nil
	})

	o := newTestOrchestrator([]source.Adapter{capture})
	_, err := o.Collect(context.Background(), model.AggregationRequest{
		Lat:      26.14,
		Lng:      -81.79,
		Address:  "1 Main St",
		FIPSCode: "12021",
		Radius:   -5,
		Toggles:  []string{"amenities"},
	})
	if err != nil {
		t.Fatal(err)
	}

	if got.Radius != model.DefaultRadiusMeters {
		t.Errorf("Expected default radius, got %d", got.Radius)
	}
	if got.Address != "1 Main St" || got.FIPSCode != "12021" || got.Lat != 26.14 {
		t.Errorf("Unexpected query: %+v", got)
	}
}

type failingLimiter struct{}

func (failingLimiter) Wait(ctx context.Context, key string) error {
	return errors.New("context canceled")
}

func TestOrchestrator_Collect_RateLimiterFailure(t *testing.T) {
	o := newTestOrchestrator(
		[]source.Adapter{returning(model.CategoryFlood, &model.FloodRecord{})},
		WithRateLimiter(failingLimiter{}),
	)

	result, err := o.Collect(context.Background(), model.AggregationRequest{Toggles: []string{"flood"}})
	if err != nil {
		t.Fatal(err)
	}
	if result.Errors[model.CategoryFlood] != "rate limit: context canceled" {
		t.Errorf("Unexpected error: %q", result.Errors[model.CategoryFlood])
	}
}

// blockingLimiter never grants a token before ctx ends
type blockingLimiter struct{}

func (blockingLimiter) Wait(ctx context.Context, key string) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestOrchestrator_Collect_RateLimitWaitCountsAgainstTimeout(t *testing.T) {
	o := newTestOrchestrator(
		[]source.Adapter{returning(model.CategoryFlood, &model.FloodRecord{})},
		WithRateLimiter(blockingLimiter{}),
		WithTimeout(20*time.Millisecond),
	)

	done := make(chan model.AggregationResult, 1)
	go func() {
		result, err := o.Collect(context.Background(), model.AggregationRequest{Toggles: []string{"flood"}})
		if err != nil {
			t.Error(err)
		}
		done <- result
	}()

	select {
	case result := <-done:
		if result.Errors[model.CategoryFlood] != "timed out after 20ms waiting for rate limit" {
			t.Errorf("Unexpected error: %q", result.Errors[model.CategoryFlood])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("limiter wait was not bounded by the adapter timeout")
	}
}

func TestOrchestrator_Aggregate_ClockAndSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	fixed := time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)

	o := newTestOrchestrator(
		[]source.Adapter{
			returning(model.CategoryFlood, &model.FloodRecord{Zone: "X"}),
			failing(model.CategoryWeather, "down"),
		},
		WithTracer(tp.Tracer("test")),
		WithClock(func() time.Time { return fixed }),
	)

	resp, err := o.Aggregate(context.Background(), model.AggregationRequest{Toggles: []string{"all"}})
	if err != nil {
		t.Fatal(err)
	}
	if !resp.QueriedAt.Equal(fixed) {
		t.Errorf("Expected queriedAt %v, got %v", fixed, resp.QueriedAt)
	}

	spans := recorder.Ended()
	counts := map[string]int{}
	for _, s := range spans {
		counts[s.Name()]++
	}
	if counts["aggregate"] != 1 || counts["adapter.fetch"] != 2 {
		t.Errorf("Unexpected spans: %v", counts)
	}
}
