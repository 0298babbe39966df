package match

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/parcelscore/internal/model"
)

// ApplyPreset merges overrides onto a copy of prefs. Only factors present in
// both prefs and overrides change; nothing is added or removed. When an id
// appears more than once in overrides the last entry wins.
func ApplyPreset(prefs model.ScoringPreferences, overrides []model.FactorOverride) model.ScoringPreferences {
	byID := make(map[string]model.FactorOverride, len(overrides))
	for _, o := range overrides {
		byID[o.ID] = o
	}

	out := prefs.Clone()
	for i, f := range out.Factors {
		o, ok := byID[f.ID]
		if !ok {
			continue
		}
		if o.Weight != nil {
			out.Factors[i].Weight = *o.Weight
		}
		if o.Enabled != nil {
			out.Factors[i].Enabled = *o.Enabled
		}
	}
	return out
}

// Catalog is a named set of presets. The zero value is not usable; use
// NewCatalog or DefaultCatalog.
type Catalog struct {
	mu      sync.RWMutex
	presets map[string]model.Preset
}

// NewCatalog creates a catalog holding the given presets
func NewCatalog(presets ...model.Preset) *Catalog {
	c := &Catalog{presets: make(map[string]model.Preset, len(presets))}
	for _, p := range presets {
		c.Add(p)
	}
	return c
}

// DefaultCatalog returns a catalog of the built-in presets
func DefaultCatalog() *Catalog {
	return NewCatalog(BuiltinPresets()...)
}

// Add registers or replaces a preset. Names are case-insensitive.
func (c *Catalog) Add(p model.Preset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.presets[presetKey(p.Name)] = p
}

// Get looks up a preset by name
func (c *Catalog) Get(name string) (model.Preset, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.presets[presetKey(name)]
	if !ok {
		return model.Preset{}, fmt.Errorf("%w: %q", model.ErrPresetNotFound, name)
	}
	return p, nil
}

// List returns every preset sorted by name
func (c *Catalog) List() []model.Preset {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]model.Preset, 0, len(c.presets))
	for _, p := range c.presets {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Apply merges the named preset onto prefs and tags the result with its name
func (c *Catalog) Apply(prefs model.ScoringPreferences, name string) (model.ScoringPreferences, error) {
	p, err := c.Get(name)
	if err != nil {
		return model.ScoringPreferences{}, err
	}
	out := ApplyPreset(prefs, p.Overrides)
	out.Preset = p.Name
	return out, nil
}

// ApplyNamedPreset applies a built-in preset by name
func ApplyNamedPreset(prefs model.ScoringPreferences, name string) (model.ScoringPreferences, error) {
	return DefaultCatalog().Apply(prefs, name)
}

// presetFile is the on-disk shape of user-defined presets
type presetFile struct {
	Presets []model.Preset `yaml:"presets"`
}

// LoadPresetFile adds the presets defined in a YAML file to the catalog.
// Presets with the same name as an existing one replace it.
func (c *Catalog) LoadPresetFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read preset file: %w", err)
	}

	var pf presetFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return fmt.Errorf("failed to parse preset file: %w", err)
	}

	for _, p := range pf.Presets {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("preset file %s: preset without a name", path)
		}
		for _, o := range p.Overrides {
			if _, ok := LookupFactor(o.ID); !ok {
				return model.InvalidConfigf("preset %q overrides unknown factor %q", p.Name, o.ID)
			}
		}
		c.Add(p)
	}
	return nil
}

func presetKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
