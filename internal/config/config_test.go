package config

import "testing"

func TestApplyDefaults_FillsUnsetFields(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	if cfg.LLM.Model != "gemini-2.0-flash" {
		t.Errorf("LLM.Model = %q, want default", cfg.LLM.Model)
	}
	if cfg.Agent.MaxBadAttempts != 3 {
		t.Errorf("Agent.MaxBadAttempts = %d, want 3", cfg.Agent.MaxBadAttempts)
	}
	if cfg.Agent.TokenBudget != 900_000 {
		t.Errorf("Agent.TokenBudget = %d, want 900000", cfg.Agent.TokenBudget)
	}
	if cfg.Agent.Definitiveness != "strict" {
		t.Errorf("Agent.Definitiveness = %q, want strict", cfg.Agent.Definitiveness)
	}
	if cfg.Server.Addr != ":8090" {
		t.Errorf("Server.Addr = %q, want :8090", cfg.Server.Addr)
	}
	if cfg.Server.Transport != "stdio" {
		t.Errorf("Server.Transport = %q, want stdio", cfg.Server.Transport)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{Agent: AgentConfig{MaxBadAttempts: 7, Definitiveness: "lenient"}}
	applyDefaults(cfg)

	if cfg.Agent.MaxBadAttempts != 7 {
		t.Errorf("MaxBadAttempts overridden: got %d, want 7", cfg.Agent.MaxBadAttempts)
	}
	if cfg.Agent.Definitiveness != "lenient" {
		t.Errorf("Definitiveness overridden: got %q, want lenient", cfg.Agent.Definitiveness)
	}
}
