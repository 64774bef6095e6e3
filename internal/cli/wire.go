package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/deepresearch/agent"
	"github.com/hazyhaar/deepresearch/extract"
	"github.com/hazyhaar/deepresearch/internal/config"
	"github.com/hazyhaar/deepresearch/llm"
	"github.com/hazyhaar/deepresearch/search"
	"github.com/hazyhaar/deepresearch/internal/browser"
)

// buildAgent assembles an *agent.Agent from cfg: the LLM provider, the
// search provider (API and/or HTML-scraping, unioned if both are
// configured), and the host-dispatching extraction factory.
func buildAgent(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*agent.Agent, error) {
	llmProvider, err := llm.NewGenAIProvider(ctx, llm.GenAIConfig{
		APIKey: cfg.LLM.APIKey,
		Model:  cfg.LLM.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("research: llm provider: %w", err)
	}

	searchProvider, err := buildSearchProvider(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("research: search provider: %w", err)
	}

	extractor := buildExtractor(logger)

	definitiveness := agent.DefinitivenessStrict
	if cfg.Agent.Definitiveness == "lenient" {
		definitiveness = agent.DefinitivenessLenient
	}

	agentCfg := agent.Config{
		MaxBadAttempts:   cfg.Agent.MaxBadAttempts,
		TokenBudget:      cfg.Agent.TokenBudget,
		MaxSearchQueries: cfg.Agent.MaxSearchQueries,
		MinSources:       cfg.Agent.MinSources,
		Definitiveness:   definitiveness,
		TranscriptDir:    cfg.Agent.TranscriptDir,
	}

	return agent.New(searchProvider, extractor, llmProvider, agentCfg, logger), nil
}

func buildSearchProvider(cfg *config.Config, logger *slog.Logger) (search.Provider, error) {
	var providers []search.Provider

	if cfg.Search.APIEndpoint != "" {
		providers = append(providers, search.NewAPIProvider(search.APIConfig{
			Endpoint: cfg.Search.APIEndpoint,
			Headers:  map[string]string{"Authorization": "Bearer " + cfg.Search.APIKey},
		}))
	}

	if cfg.Search.UseHTML || len(providers) == 0 {
		mgr := browser.NewManager(browser.Config{Logger: logger})
		providers = append(providers, search.NewHTMLProvider(search.HTMLConfig{
			SearchURLTemplate: "https://duckduckgo.com/html/?q={query}",
			Selectors: search.Selectors{
				ResultItem: ".result",
				Title:      ".result__title a",
				Link:       ".result__title a",
				Snippet:    ".result__snippet",
			},
			Logger: logger,
		}, mgr))
	}

	if len(providers) == 1 {
		return providers[0], nil
	}
	return search.NewCompositeProvider(providers...), nil
}

func buildExtractor(logger *slog.Logger) *extract.Factory {
	web := extract.NewWebExtractor(extract.WebConfig{Logger: logger})
	socialCfg := extract.SocialConfig{Logger: logger}
	social := extract.NewSocialExtractor(socialCfg, extract.ModeThread)
	hosts := []string{"old.reddit.com", "www.reddit.com", "reddit.com"}
	return extract.NewFactory(social, hosts, web)
}
