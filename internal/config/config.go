// Package config loads the server configuration from a JSON file with
// environment overrides for secrets.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Config is the top-level server configuration.
type Config struct {
	Database      Database `json:"database"`
	LLM           LLM      `json:"llm"`
	Security      Security `json:"security"`
	Limits        Limits   `json:"limits"`
	DomainContext string   `json:"domain_context,omitempty"`
}

// Database selects the driver and connection string.
type Database struct {
	// Driver is one of "sqlite", "postgres", "mysql", "sqlserver".
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
}

// LLM configures the OpenAI-compatible completion provider.
type LLM struct {
	BaseURL        string `json:"base_url"`
	APIKey         string `json:"api_key,omitempty"`
	Model          string `json:"model,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
	MaxTokens      int    `json:"max_tokens,omitempty"`
}

// Security selects the response sanitization mode.
type Security struct {
	// Mode is "restricted" (default) or "permissive".
	Mode string `json:"mode,omitempty"`
}

// Limits bounds resource consumption across the pipeline.
type Limits struct {
	MaxRows             int `json:"max_rows,omitempty"`
	PromptBudgetChars   int `json:"prompt_budget_chars,omitempty"`
	QueryTimeoutSeconds int `json:"query_timeout_seconds,omitempty"`
	SchemaTTLSeconds    int `json:"schema_ttl_seconds,omitempty"`
	SampleRows          int `json:"sample_rows,omitempty"`
}

const (
	defaultMaxRows      = 1000
	defaultPromptBudget = 12000
	defaultQueryTimeout = 30
	defaultSampleRows   = 3
)

// LoadFromFile reads and validates the configuration, applying defaults
// and env overrides (LLM_API_KEY, DATABASE_URL take priority over the
// file so secrets can stay out of it).
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if key := os.Getenv("LLM_API_KEY"); key != "" {
		cfg.LLM.APIKey = key
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.Database.DSN = dsn
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Limits.MaxRows <= 0 {
		c.Limits.MaxRows = defaultMaxRows
	}
	if c.Limits.PromptBudgetChars <= 0 {
		c.Limits.PromptBudgetChars = defaultPromptBudget
	}
	if c.Limits.QueryTimeoutSeconds <= 0 {
		c.Limits.QueryTimeoutSeconds = defaultQueryTimeout
	}
	if c.Limits.SampleRows <= 0 {
		c.Limits.SampleRows = defaultSampleRows
	}
}

func (c *Config) validate() error {
	if c.Database.Driver == "" {
		return fmt.Errorf("database.driver is required")
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required (or set DATABASE_URL)")
	}
	if c.LLM.BaseURL == "" {
		return fmt.Errorf("llm.base_url is required")
	}
	return nil
}

func (c *Config) QueryTimeout() time.Duration {
	return time.Duration(c.Limits.QueryTimeoutSeconds) * time.Second
}

func (c *Config) LLMTimeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// SchemaTTL returns the staleness bound for the schema cache; zero
// disables TTL-driven refresh.
func (c *Config) SchemaTTL() time.Duration {
	return time.Duration(c.Limits.SchemaTTLSeconds) * time.Second
}
