package source

import (
	"fmt"
	"strings"

	"github.com/ppiankov/parcelscore/internal/model"
)

// FromConfig builds a registry from the sources section. A category with an
// endpoint gets an HTTP adapter; otherwise, when a fixture directory is set
// and holds <category>.json, it gets a fixture adapter.
func FromConfig(cfg *model.Config) (*Registry, error) {
	reg := NewRegistry()

	for key, endpoint := range cfg.Sources.Endpoints {
		if strings.TrimSpace(endpoint) == "" {
			continue
		}
		category, ok := model.ParseCategory(key)
		if !ok {
			return nil, fmt.Errorf("sources.endpoints: unknown category %q", key)
		}

		adapter, err := NewHTTPAdapter(category, endpoint, HTTPOptions{
			UserAgent:  cfg.HTTP.UserAgent,
			MaxBytes:   cfg.HTTP.MaxBodyBytes,
			APIKey:     cfg.Sources.APIKeys[string(category)],
			HTTPProxy:  cfg.HTTP.HTTPProxy,
			HTTPSProxy: cfg.HTTP.HTTPSProxy,
			NoProxy:    cfg.HTTP.NoProxy,
		})
		if err != nil {
			return nil, err
		}
		reg.Register(adapter)
	}

	if cfg.Sources.FixtureDir != "" {
		for _, c := range FixtureCategories(cfg.Sources.FixtureDir) {
			if _, exists := reg.Lookup(c); exists {
				continue
			}
			reg.Register(NewFixtureAdapter(c, cfg.Sources.FixtureDir))
		}
	}

	return reg, nil
}
