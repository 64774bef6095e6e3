// Package config loads the research agent's runtime configuration from a
// YAML file, environment variables, and CLI flags via viper.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the full research-agent configuration.
type Config struct {
	LLM    LLMConfig    `mapstructure:"llm"`
	Search SearchConfig `mapstructure:"search"`
	Agent  AgentConfig  `mapstructure:"agent"`
	Server ServerConfig `mapstructure:"server"`
}

// LLMConfig selects and configures the language model backend.
type LLMConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// SearchConfig configures the composite search provider.
type SearchConfig struct {
	APIEndpoint string `mapstructure:"api_endpoint"`
	APIKey      string `mapstructure:"api_key"`
	UseHTML     bool   `mapstructure:"use_html"`
}

// AgentConfig mirrors agent.Config's tunables for CLI/file/env override.
type AgentConfig struct {
	MaxBadAttempts   int    `mapstructure:"max_bad_attempts"`
	TokenBudget      int    `mapstructure:"token_budget"`
	MaxSearchQueries int    `mapstructure:"max_search_queries"`
	MinSources       int    `mapstructure:"min_sources"`
	Definitiveness   string `mapstructure:"definitiveness"` // "strict" | "lenient"
	TranscriptDir    string `mapstructure:"transcript_dir"`
}

// ServerConfig configures the MCP server entry point.
type ServerConfig struct {
	Transport string `mapstructure:"transport"` // "stdio" | "http"
	Addr      string `mapstructure:"addr"`
}

// Load unmarshals viper's bound configuration (file + env + flags) and
// applies defaults for anything left unset.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	applyDefaults(cfg)
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = "gemini-2.0-flash"
	}
	if cfg.Agent.MaxBadAttempts <= 0 {
		cfg.Agent.MaxBadAttempts = 3
	}
	if cfg.Agent.TokenBudget <= 0 {
		cfg.Agent.TokenBudget = 900_000
	}
	if cfg.Agent.MaxSearchQueries <= 0 {
		cfg.Agent.MaxSearchQueries = 5
	}
	if cfg.Agent.MinSources <= 0 {
		cfg.Agent.MinSources = 2
	}
	if cfg.Agent.Definitiveness == "" {
		cfg.Agent.Definitiveness = "strict"
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8090"
	}
	if cfg.Server.Transport == "" {
		cfg.Server.Transport = "stdio"
	}
}

// RequestTimeout bounds a single research_ask or ask invocation.
const RequestTimeout = 10 * time.Minute
