package llm

import (
	"context"
	"fmt"
	"sort"

	"github.com/ppiankov/parcelscore/internal/model"
)

// Narrator attaches an LLM narrative to an already-scored aggregation
type Narrator struct {
	provider Provider
}

// NewNarrator wraps a provider. A nil provider yields a nil Narrator.
func NewNarrator(provider Provider) *Narrator {
	if provider == nil {
		return nil
	}
	return &Narrator{provider: provider}
}

// Narrate explains resp.PropertyScore. It reads resp but never modifies it.
func (n *Narrator) Narrate(ctx context.Context, address string, resp *model.AggregationResponse) (*model.Narrative, error) {
	if resp == nil {
		return nil, fmt.Errorf("nothing to narrate")
	}

	req := NarrateRequest{
		Address:     address,
		Score:       resp.PropertyScore,
		Available:   make([]model.Category, 0, len(resp.Data)),
		Unavailable: resp.Errors,
	}
	for c := range resp.Data {
		req.Available = append(req.Available, c)
	}

	out, err := n.provider.Narrate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%s narrative: %w", n.provider.Name(), err)
	}

	return &model.Narrative{
		Provider: n.provider.Name(),
		Model:    out.Model,
		Text:     out.Text,
		Warnings: unavailableWarnings(resp.Errors),
	}, nil
}

func unavailableWarnings(failed map[model.Category]string) []string {
	if len(failed) == 0 {
		return nil
	}
	warnings := make([]string, 0, len(failed))
	for c := range failed {
		warnings = append(warnings, fmt.Sprintf("%s data unavailable; score does not reflect it", c))
	}
	sort.Strings(warnings)
	return warnings
}
