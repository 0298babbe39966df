package model

import "time"

// Config holds every configurable setting. Field tags serve both the YAML
// config file and viper's mapstructure decoding.
type Config struct {
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Aggregation  AggregationConfig  `yaml:"aggregation" mapstructure:"aggregation"`
	Sources      SourcesConfig      `yaml:"sources" mapstructure:"sources"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
	Telemetry    TelemetryConfig    `yaml:"telemetry" mapstructure:"telemetry"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port"`
	RequestTimeout  time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// HTTPConfig configures outbound adapter requests
type HTTPConfig struct {
	UserAgent    string `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes int64  `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	HTTPProxy    string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy   string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy      string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// AggregationConfig configures the orchestrator
type AggregationConfig struct {
	AdapterTimeout time.Duration `yaml:"adapter_timeout" mapstructure:"adapter_timeout"`
	DefaultRadius  int           `yaml:"default_radius" mapstructure:"default_radius"` // meters
}

// SourcesConfig tells the registry where each category's data comes from.
// Endpoints maps a category to an HTTP JSON endpoint; FixtureDir, when set,
// serves categories without an endpoint from <dir>/<category>.json.
type SourcesConfig struct {
	Endpoints  map[string]string `yaml:"endpoints" mapstructure:"endpoints"`
	APIKeys    map[string]string `yaml:"api_keys,omitempty" mapstructure:"api_keys"`
	FixtureDir string            `yaml:"fixture_dir" mapstructure:"fixture_dir"`
}

// ConcurrencyConfig bounds batch processing
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitingConfig throttles calls per category. Zero disables limiting.
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// StoreConfig selects the preferences store backend: memory, file or redis
type StoreConfig struct {
	Backend       string `yaml:"backend" mapstructure:"backend"`
	Dir           string `yaml:"dir" mapstructure:"dir"`
	RedisAddress  string `yaml:"redis_address" mapstructure:"redis_address"`
	RedisPassword string `yaml:"redis_password,omitempty" mapstructure:"redis_password"`
	RedisDB       int    `yaml:"redis_db" mapstructure:"redis_db"`
}

// LLMConfig configures the optional narrative generator
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // "" disables, "openai"
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"-" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// TelemetryConfig configures OpenTelemetry tracing
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled" mapstructure:"enabled"`
	Endpoint    string `yaml:"endpoint" mapstructure:"endpoint"`
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
}

// OutputConfig controls CLI output
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
	Pretty  bool `yaml:"pretty" mapstructure:"pretty"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			RequestTimeout:  60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		HTTP: HTTPConfig{
			UserAgent:    "parcelscore/0.1 (+https://github.com/ppiankov/parcelscore)",
			MaxBodyBytes: 2_000_000,
		},
		Aggregation: AggregationConfig{
			AdapterTimeout: 10 * time.Second,
			DefaultRadius:  DefaultRadiusMeters,
		},
		Sources: SourcesConfig{
			Endpoints: map[string]string{},
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 0,
			BurstSize:         5,
		},
		Store: StoreConfig{
			Backend:      "memory",
			Dir:          "./parcelscore-prefs",
			RedisAddress: "localhost:6379",
		},
		LLM: LLMConfig{
			Provider:  "",
			Model:     "gpt-4o-mini",
			Timeout:   30,
			MaxTokens: 600,
		},
		Telemetry: TelemetryConfig{
			Enabled:     false,
			ServiceName: "parcelscore",
		},
		Output: OutputConfig{
			Pretty: true,
		},
	}
}
