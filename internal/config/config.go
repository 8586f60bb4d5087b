// Package config provides configuration loading and validation for the CLI and services.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Config represents the configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or come from the
// environment and CLI flags.
type Config struct {
	Extraction Extraction `json:"extraction"`
	JobSearch  JobSearch  `json:"job_search"`
	Server     Server     `json:"server"`
	Worker     Worker     `json:"worker"`
	Storage    Storage    `json:"storage"`
	LLM        LLM        `json:"llm"`

	Verbose bool `json:"verbose,omitempty"` // Print detailed debug information
}

// Extraction holds the profile extractor's thresholds. Cutoffs are pointers
// so that an explicit 0 survives merging; nil means the default.
type Extraction struct {
	CityMatchThreshold  *float64 `json:"city_match_threshold,omitempty" validate:"omitempty,gte=0,lte=100"`
	TitleScanRatio      float64  `json:"title_scan_ratio,omitempty" validate:"gte=0,lte=1"`
	MinTitleLines       int      `json:"min_title_lines,omitempty" validate:"gte=0"`
	MinTitleLen         int      `json:"min_title_len,omitempty" validate:"gte=0"`
	FuzzyTitleCutoff    *float64 `json:"fuzzy_title_cutoff,omitempty" validate:"omitempty,gte=0,lte=100"`
	RoleCanonicalCutoff *float64 `json:"role_canonical_cutoff,omitempty" validate:"omitempty,gte=0,lte=100"`
	MaxYears            int      `json:"max_years,omitempty" validate:"gte=0,lte=100"`
	Reconcile           string   `json:"reconcile,omitempty" validate:"omitempty,oneof=max latest"` // "max" or "latest"
	Debug               bool     `json:"debug,omitempty"`                                           // Include the experience trace in profiles
}

// JobSearch configures the job search API client
type JobSearch struct {
	APIKey            string   `json:"api_key,omitempty"`
	URL               string   `json:"url,omitempty" validate:"omitempty,url"`
	PageSize          int      `json:"page_size,omitempty" validate:"gte=0,lte=500"`
	TimeoutSeconds    int      `json:"timeout_seconds,omitempty" validate:"gte=0"`
	TitleFilterCutoff *float64 `json:"title_filter_cutoff,omitempty" validate:"omitempty,gte=0,lte=100"`
	ExperienceCushion *float64 `json:"experience_cushion,omitempty" validate:"omitempty,gte=0"` // 0 means no cushion
}

// Server configures the HTTP API
type Server struct {
	Port        int      `json:"port,omitempty" validate:"gte=0,lte=65535"`
	CORSOrigins []string `json:"cors_origins,omitempty"`
	RateLimit   *bool    `json:"rate_limit,omitempty"` // nil means enabled
}

// RateLimitEnabled reports whether the token-bucket limiter should run
func (s Server) RateLimitEnabled() bool {
	return s.RateLimit == nil || *s.RateLimit
}

// Worker configures the queue consumer
type Worker struct {
	AMQPURL  string `json:"amqp_url,omitempty" validate:"omitempty,url"`
	Queue    string `json:"queue,omitempty"`
	Exchange string `json:"exchange,omitempty"`
	Workers  int    `json:"workers,omitempty" validate:"gte=0,lte=64"`
}

// Storage configures the database and object store
type Storage struct {
	DatabaseURL string `json:"database_url,omitempty"` // PostgreSQL connection URL
	S3Bucket    string `json:"s3_bucket,omitempty"`
	S3Region    string `json:"s3_region,omitempty"`
	S3Endpoint  string `json:"s3_endpoint,omitempty" validate:"omitempty,url"`
	S3AccessKey string `json:"s3_access_key,omitempty"`
	S3SecretKey string `json:"-"`
}

// LLM configures the optional place-name recognizer
type LLM struct {
	APIKey   string `json:"api_key,omitempty"` // Gemini API key
	Model    string `json:"model,omitempty"`
	Mentions bool   `json:"mentions,omitempty"` // Ask the model for place mentions
}

// Float returns a pointer to v, for filling optional thresholds
func Float(v float64) *float64 {
	return &v
}

// Defaults returns the built-in configuration
func Defaults() Config {
	return Config{
		Extraction: Extraction{
			CityMatchThreshold:  Float(90),
			TitleScanRatio:      0.25,
			MinTitleLines:       3,
			MinTitleLen:         6,
			FuzzyTitleCutoff:    Float(80),
			RoleCanonicalCutoff: Float(80),
			MaxYears:            50,
			Reconcile:           "max",
		},
		JobSearch: JobSearch{
			URL:               "https://api.apijobs.dev/v1/job/search",
			PageSize:          50,
			TimeoutSeconds:    30,
			TitleFilterCutoff: Float(78),
			ExperienceCushion: Float(1.0),
		},
		Server: Server{
			Port:        8080,
			CORSOrigins: []string{"*"},
		},
		Worker: Worker{
			Queue:    "profile_requests",
			Exchange: "profile_updates",
			Workers:  3,
		},
		Storage: Storage{
			S3Region: "auto",
		},
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Load reads the optional config file, fills defaults and applies the
// environment. An empty path means defaults plus environment only.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	merged := cfg.MergeWithDefaults(Defaults())
	merged.ApplyEnv(os.LookupEnv)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those depend on
// which command runs.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("config error: '%s' failed '%s' (value %v)", fieldPath(fe.Namespace()), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// fieldPath turns "Config.Extraction.MaxYears" into "extraction.max_years"
func fieldPath(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = snakeCase(p)
	}
	return strings.Join(parts, ".")
}

func snakeCase(s string) string {
	var sb strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			if prevLower || nextLower {
				sb.WriteByte('_')
			}
		}
		if upper {
			r += 'a' - 'A'
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// MergeWithDefaults returns a new Config with zero fields filled from defaults.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	e, d := &result.Extraction, defaults.Extraction
	if e.CityMatchThreshold == nil {
		e.CityMatchThreshold = d.CityMatchThreshold
	}
	if e.TitleScanRatio == 0 {
		e.TitleScanRatio = d.TitleScanRatio
	}
	if e.MinTitleLines == 0 {
		e.MinTitleLines = d.MinTitleLines
	}
	if e.MinTitleLen == 0 {
		e.MinTitleLen = d.MinTitleLen
	}
	if e.FuzzyTitleCutoff == nil {
		e.FuzzyTitleCutoff = d.FuzzyTitleCutoff
	}
	if e.RoleCanonicalCutoff == nil {
		e.RoleCanonicalCutoff = d.RoleCanonicalCutoff
	}
	if e.MaxYears == 0 {
		e.MaxYears = d.MaxYears
	}
	if e.Reconcile == "" {
		e.Reconcile = d.Reconcile
	}

	j, dj := &result.JobSearch, defaults.JobSearch
	if j.APIKey == "" {
		j.APIKey = dj.APIKey
	}
	if j.URL == "" {
		j.URL = dj.URL
	}
	if j.PageSize == 0 {
		j.PageSize = dj.PageSize
	}
	if j.TimeoutSeconds == 0 {
		j.TimeoutSeconds = dj.TimeoutSeconds
	}
	if j.TitleFilterCutoff == nil {
		j.TitleFilterCutoff = dj.TitleFilterCutoff
	}
	if j.ExperienceCushion == nil {
		j.ExperienceCushion = dj.ExperienceCushion
	}

	if result.Server.Port == 0 {
		result.Server.Port = defaults.Server.Port
	}
	if len(result.Server.CORSOrigins) == 0 {
		result.Server.CORSOrigins = defaults.Server.CORSOrigins
	}

	w, dw := &result.Worker, defaults.Worker
	if w.AMQPURL == "" {
		w.AMQPURL = dw.AMQPURL
	}
	if w.Queue == "" {
		w.Queue = dw.Queue
	}
	if w.Exchange == "" {
		w.Exchange = dw.Exchange
	}
	if w.Workers == 0 {
		w.Workers = dw.Workers
	}

	s, ds := &result.Storage, defaults.Storage
	if s.DatabaseURL == "" {
		s.DatabaseURL = ds.DatabaseURL
	}
	if s.S3Bucket == "" {
		s.S3Bucket = ds.S3Bucket
	}
	if s.S3Region == "" {
		s.S3Region = ds.S3Region
	}
	if s.S3Endpoint == "" {
		s.S3Endpoint = ds.S3Endpoint
	}

	if result.LLM.APIKey == "" {
		result.LLM.APIKey = defaults.LLM.APIKey
	}
	if result.LLM.Model == "" {
		result.LLM.Model = defaults.LLM.Model
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// ApplyEnv overrides settings from environment variables that are set
// and non-empty. Secrets are expected to come from here rather than the file.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	str("APIJOBS_KEY", &c.JobSearch.APIKey)
	str("APIJOBS_URL", &c.JobSearch.URL)
	str("DATABASE_URL", &c.Storage.DatabaseURL)
	str("GEMINI_API_KEY", &c.LLM.APIKey)
	str("RABBITMQ_URL", &c.Worker.AMQPURL)
	str("S3_BUCKET", &c.Storage.S3Bucket)
	str("S3_REGION", &c.Storage.S3Region)
	str("S3_ENDPOINT", &c.Storage.S3Endpoint)
	str("S3_ACCESS_KEY_ID", &c.Storage.S3AccessKey)
	str("S3_SECRET_ACCESS_KEY", &c.Storage.S3SecretKey)

	if v, ok := lookup("PORT"); ok && v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}
