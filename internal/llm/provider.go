package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ppiankov/parcelscore/internal/model"
)

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Narrate writes a plain-language explanation of a composite score
	Narrate(ctx context.Context, req NarrateRequest) (*NarrateResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// NarrateRequest contains the input for narrative generation
type NarrateRequest struct {
	// Address is the location label, may be empty
	Address string

	// Score is the computed composite score. The narrative may restate it but never change it.
	Score model.CompositeScore

	// Available lists the categories whose data was obtained
	Available []model.Category

	// Unavailable maps failed categories to their error text
	Unavailable map[model.Category]string

	// Prompt is an optional custom prompt (if empty, use default)
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// NarrateResponse contains the generated narrative
type NarrateResponse struct {
	// Text is the narrative
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai" or "" for disabled
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI
	APIKey string

	// BaseURL for OpenAI-compatible endpoints
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// StrictScore rejects narratives that state a score other than the computed one
	StrictScore bool

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "", // Disabled by default
		Timeout:     30,
		StrictScore: true,
		MaxTokens:   600,
	}
}

// BuildPrompt constructs the default narrative prompt
func BuildPrompt(req NarrateRequest) string {
	location := req.Address
	if location == "" {
		location = "(unnamed location)"
	}

	prompt := fmt.Sprintf(`You are explaining a livability and risk score for a property location. The score was computed by fixed rules; you do not compute or adjust it.

RULES:
1. The score is %d/100 (grade %s). If you state the score, state exactly this value.
2. Only discuss the factors listed below. Do not invent data, numbers or sources.
3. Data for these categories could not be obtained: %s. Say that the score does not reflect them.
4. Do not give financial or insurance advice.

Location: %s
Summary: %s

Factors:
`, req.Score.Score, req.Score.Grade, joinUnavailable(req.Unavailable), location, req.Score.Summary)

	if len(req.Score.Factors) == 0 {
		prompt += "- (no adjustments applied)\n"
	}
	for _, f := range req.Score.Factors {
		prompt += fmt.Sprintf("- %s (%+g): %s\n", f.Name, f.Impact, f.Reason)
	}

	prompt += fmt.Sprintf("\nData obtained for: %s\n", joinCategories(req.Available))
	prompt += "\nWrite 3-4 plain sentences for a home buyer."

	return prompt
}

func joinCategories(categories []model.Category) string {
	if len(categories) == 0 {
		return "none"
	}
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = string(c)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func joinUnavailable(failed map[model.Category]string) string {
	if len(failed) == 0 {
		return "none"
	}
	names := make([]model.Category, 0, len(failed))
	for c := range failed {
		names = append(names, c)
	}
	return joinCategories(names)
}
