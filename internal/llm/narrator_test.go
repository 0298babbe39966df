package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ppiankov/parcelscore/internal/model"
)

type fakeProvider struct {
	text string
	err  error
	got  NarrateRequest
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) IsAvailable(context.Context) bool { return true }

func (f *fakeProvider) Narrate(_ context.Context, req NarrateRequest) (*NarrateResponse, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &NarrateResponse{Text: f.text, Model: "fake-1"}, nil
}

func TestNewNarrator_NilProvider(t *testing.T) {
	if NewNarrator(nil) != nil {
		t.Error("nil provider should disable narration")
	}
}

func TestNarrator_Narrate(t *testing.T) {
	fp := &fakeProvider{text: "Flood risk dominates."}
	n := NewNarrator(fp)

	resp := &model.AggregationResponse{
		Success:       true,
		Data:          map[model.Category]model.Record{model.CategoryFlood: model.FloodRecord{Zone: "AE"}},
		Errors:        map[model.Category]string{model.CategoryWeather: "upstream 503"},
		PropertyScore: floodScore(),
	}

	got, err := n.Narrate(context.Background(), "1 Main St", resp)
	if err != nil {
		t.Fatalf("Narrate: %v", err)
	}

	if got.Provider != "fake" || got.Model != "fake-1" || got.Text != "Flood risk dominates." {
		t.Errorf("unexpected narrative %+v", got)
	}
	if len(got.Warnings) != 1 || !strings.HasPrefix(got.Warnings[0], "weather") {
		t.Errorf("Warnings = %v", got.Warnings)
	}
	if fp.got.Address != "1 Main St" || len(fp.got.Available) != 1 || fp.got.Available[0] != model.CategoryFlood {
		t.Errorf("request = %+v", fp.got)
	}

	// Narration never touches the score
	if resp.PropertyScore.Score != 50 || resp.Narrative != nil {
		t.Error("response was modified")
	}
}

func TestNarrator_ProviderError(t *testing.T) {
	n := NewNarrator(&fakeProvider{err: errors.New("quota")})
	_, err := n.Narrate(context.Background(), "", &model.AggregationResponse{})
	if err == nil || !strings.Contains(err.Error(), "fake narrative") {
		t.Fatalf("err = %v", err)
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(NarrateRequest{
		Score:       floodScore(),
		Available:   []model.Category{model.CategoryFlood},
		Unavailable: map[model.Category]string{model.CategoryWeather: "down", model.CategoryAmenities: "down"},
	})

	for _, want := range []string{"50/100", "grade C-", "Flood Risk (-20)", "amenities, weather", "(unnamed location)"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(Config{})
	if err != nil || p != nil {
		t.Errorf("empty provider should be disabled, got %v, %v", p, err)
	}

	p, err = NewProvider(Config{Provider: "OpenAI", APIKey: "k"})
	if err != nil || p == nil || p.Name() != "openai" {
		t.Errorf("openai provider: %v, %v", p, err)
	}

	if _, err := NewProvider(Config{Provider: "ollama"}); err == nil {
		t.Error("expected error for unsupported provider")
	}
}

func TestConfigFromModel(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.LLM.Provider = "openai"
	cfg.LLM.APIKey = "k"
	cfg.HTTP.HTTPSProxy = "http://proxy:3128"

	got := ConfigFromModel(cfg)
	if got.Provider != "openai" || got.APIKey != "k" || !got.StrictScore {
		t.Errorf("unexpected config %+v", got)
	}
	if got.HTTPSProxy != "http://proxy:3128" || got.Model != cfg.LLM.Model {
		t.Errorf("proxy/model not carried: %+v", got)
	}
}
