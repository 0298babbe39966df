package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/parcelscore/internal/model"
)

// Aggregator runs one aggregation request
type Aggregator interface {
	Aggregate(ctx context.Context, req model.AggregationRequest) (*model.AggregationResponse, error)
}

// LocationJob aggregates one location of a batch
type LocationJob struct {
	Index      int
	Request    model.AggregationRequest
	Aggregator Aggregator
}

// Execute executes the aggregation
func (j *LocationJob) Execute(ctx context.Context) Result {
	resp, err := j.Aggregator.Aggregate(ctx, j.Request)
	return &LocationResult{
		Index:    j.Index,
		Request:  j.Request,
		Response: resp,
		Error:    err,
	}
}

// LocationResult is the outcome of one LocationJob
type LocationResult struct {
	Index    int
	Request  model.AggregationRequest
	Response *model.AggregationResponse
	Error    error
}

// GetError returns the request-level error (validation); per-category
// failures live in Response.Errors
func (r *LocationResult) GetError() error {
	return r.Error
}

// BatchProcessor aggregates many locations with bounded concurrency
type BatchProcessor struct {
	aggregator  Aggregator
	concurrency int
	progress    func(*LocationResult)
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(aggregator Aggregator, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		aggregator:  aggregator,
		concurrency: concurrency,
	}
}

// OnProgress registers a callback invoked as each location completes
func (b *BatchProcessor) OnProgress(fn func(*LocationResult)) {
	b.progress = fn
}

// ProcessLocations aggregates every request and returns results in input order
func (b *BatchProcessor) ProcessLocations(ctx context.Context, reqs []model.AggregationRequest) []*LocationResult {
	if len(reqs) == 0 {
		return []*LocationResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	if b.progress != nil {
		pool.OnResult(func(r Result) { b.progress(r.(*LocationResult)) })
	}
	pool.Start()

	for i, req := range reqs {
		if !pool.Submit(&LocationJob{Index: i, Request: req, Aggregator: b.aggregator}) {
			break
		}
	}

	results := pool.Wait()

	out := make([]*LocationResult, 0, len(reqs))
	done := make(map[int]bool, len(results))
	for _, r := range results {
		lr := r.(*LocationResult)
		done[lr.Index] = true
		out = append(out, lr)
	}

	// Locations dropped because ctx ended still get a result
	for i, req := range reqs {
		if !done[i] {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			out = append(out, &LocationResult{Index: i, Request: req, Error: err})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// ProcessFile reads locations from a file and aggregates them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string, toggles []string) ([]*LocationResult, error) {
	reqs, err := ReadLocationsFromFile(filePath, toggles)
	if err != nil {
		return nil, fmt.Errorf("read locations: %w", err)
	}

	return b.ProcessLocations(ctx, reqs), nil
}

// ReadLocationsFromFile reads one location per line as "lat,lng[,address]".
// Blank lines and lines starting with # are skipped; duplicates are dropped.
func ReadLocationsFromFile(filePath string, toggles []string) ([]model.AggregationRequest, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var reqs []model.AggregationRequest
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		req, err := ParseLocation(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		if seen[line] {
			continue
		}
		seen[line] = true

		req.Toggles = toggles
		reqs = append(reqs, req)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return reqs, nil
}

// ParseLocation parses "lat,lng[,address]". The address may itself contain commas.
func ParseLocation(line string) (model.AggregationRequest, error) {
	parts := strings.SplitN(line, ",", 3)
	if len(parts) < 2 {
		return model.AggregationRequest{}, fmt.Errorf("expected lat,lng[,address], got %q", line)
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return model.AggregationRequest{}, fmt.Errorf("invalid latitude %q", parts[0])
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return model.AggregationRequest{}, fmt.Errorf("invalid longitude %q", parts[1])
	}

	req := model.AggregationRequest{Lat: lat, Lng: lng}
	if len(parts) == 3 {
		req.Address = strings.TrimSpace(parts[2])
	}
	return req, nil
}
