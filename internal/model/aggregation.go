package model

import (
	"math"
	"time"
)

// DefaultRadiusMeters is the search radius used when a request omits one (one mile)
const DefaultRadiusMeters = 1609

// AggregationRequest asks for data around one location
type AggregationRequest struct {
	Lat      float64  `json:"lat"`
	Lng      float64  `json:"lng"`
	Address  string   `json:"address,omitempty"`
	Toggles  []string `json:"toggles"`
	FIPSCode string   `json:"fipsCode,omitempty"`
	Radius   int      `json:"radius,omitempty"` // meters
}

// Validate checks coordinates before any dispatch
func (r AggregationRequest) Validate() error {
	if math.IsNaN(r.Lat) || r.Lat < -90 || r.Lat > 90 {
		return &ValidationError{Field: "lat", Message: "must be between -90 and 90"}
	}
	if math.IsNaN(r.Lng) || r.Lng < -180 || r.Lng > 180 {
		return &ValidationError{Field: "lng", Message: "must be between -180 and 180"}
	}
	return nil
}

// AggregationResult holds every requested category in exactly one of Data or Errors
type AggregationResult struct {
	Data   map[Category]Record `json:"data"`
	Errors map[Category]string `json:"errors,omitempty"`
}

// NewAggregationResult returns an empty result with both maps allocated
func NewAggregationResult() AggregationResult {
	return AggregationResult{
		Data:   make(map[Category]Record),
		Errors: make(map[Category]string),
	}
}

// Requested returns the union of categories present in the result
func (r AggregationResult) Requested() []Category {
	out := make([]Category, 0, len(r.Data)+len(r.Errors))
	for c := range r.Data {
		out = append(out, c)
	}
	for c := range r.Errors {
		out = append(out, c)
	}
	return out
}

// RiskFactor is one explainable adjustment applied by the composite scorer
type RiskFactor struct {
	Name   string  `json:"name"`
	Impact float64 `json:"impact"`
	Reason string  `json:"reason"`
}

// CompositeScore is the livability/risk score derived from aggregated data
type CompositeScore struct {
	Score   int          `json:"score"`   // 0-100
	Grade   string       `json:"grade"`   // A+ .. F
	Summary string       `json:"summary"` // Strengths / concerns sentence
	Factors []RiskFactor `json:"factors"`
}

// AggregationResponse is the wire shape returned for an aggregation request
type AggregationResponse struct {
	Success       bool                `json:"success"`
	Data          map[Category]Record `json:"data"`
	PropertyScore CompositeScore      `json:"propertyScore"`
	Errors        map[Category]string `json:"errors,omitempty"`
	QueriedAt     time.Time           `json:"queriedAt"`
	Narrative     *Narrative          `json:"narrative,omitempty"` // Optional, never affects the score
}

// Narrative is an optional LLM-written explanation of a composite score
type Narrative struct {
	Provider string   `json:"provider"`
	Model    string   `json:"model"`
	Text     string   `json:"text"`
	Warnings []string `json:"warnings,omitempty"`
}
