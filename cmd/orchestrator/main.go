/*
Copyright 2025 The Inkwell Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// The orchestrator service wires the execution substrate — provider
// gates, retry policy, agents, fallbacks, discovery — and serves the
// operational HTTP surface.
package main

import (
	"context"
	"flag"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/inkwell-ai/inkwell/internal/config"
	"github.com/inkwell-ai/inkwell/internal/database"
	"github.com/inkwell-ai/inkwell/pkg/agent"
	"github.com/inkwell-ai/inkwell/pkg/agents/citation"
	"github.com/inkwell-ai/inkwell/pkg/agents/concepts"
	"github.com/inkwell-ai/inkwell/pkg/agents/discoveryagent"
	"github.com/inkwell-ai/inkwell/pkg/agents/metadata"
	"github.com/inkwell-ai/inkwell/pkg/agents/paperproc"
	"github.com/inkwell-ai/inkwell/pkg/agents/quality"
	"github.com/inkwell-ai/inkwell/pkg/agents/research"
	"github.com/inkwell-ai/inkwell/pkg/agents/summarizer"
	"github.com/inkwell-ai/inkwell/pkg/ai/llm"
	"github.com/inkwell-ai/inkwell/pkg/cache"
	"github.com/inkwell-ai/inkwell/pkg/discovery"
	"github.com/inkwell-ai/inkwell/pkg/discovery/sources"
	"github.com/inkwell-ai/inkwell/pkg/metrics"
	"github.com/inkwell-ai/inkwell/pkg/orchestration"
	"github.com/inkwell-ai/inkwell/pkg/provider"
	"github.com/inkwell-ai/inkwell/pkg/retry"
	"github.com/inkwell-ai/inkwell/pkg/storage"
	"github.com/inkwell-ai/inkwell/pkg/storage/postgres"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("loading configuration")
	}

	log := newLogger(cfg.Logging)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	providerMetrics := metrics.NewProviderMetrics(prometheus.DefaultRegisterer)
	providers := provider.NewRegistry(quotasFrom(cfg), provider.BreakerConfig{
		FailureThreshold: cfg.Breaker.FailureThreshold,
		CoolDown:         cfg.Breaker.CoolDown.Std(),
		ProbeMax:         cfg.Breaker.ProbeMax,
	}, providerMetrics, log)

	retryExec := retry.NewExecutor(retryConfigFrom(cfg), retryOverridesFrom(cfg), log)

	store := openStore(ctx, cfg, log)
	responseCache := openCache(cfg, log)

	prompters, err := buildPrompters(cfg, providers, log)
	if err != nil {
		log.WithError(err).Fatal("building provider clients")
	}

	coordinator := buildCoordinator(cfg, providers, prompters, responseCache, log)

	fallbacks := buildFallbacks(cfg, store, prompters, log)
	runner := agent.NewRunner(retryExec, fallbacks, providerMetrics, log)
	orch := orchestration.NewWithRunner(providers, runner, log,
		buildAgents(cfg, prompters, store, coordinator, log)...)

	stopWatch, err := config.Watch(*configPath, log, func(fresh *config.Config) {
		for name, quota := range quotasFrom(fresh) {
			if err := orch.UpdateProviderRate(name, float64(quota.RequestsPerSecond), quota.Burst); err != nil {
				log.WithError(err).WithField("provider", name).Warn("rate update skipped")
			}
		}
	})
	if err != nil {
		log.WithError(err).Warn("config watcher unavailable, rate hot-reload disabled")
	} else {
		defer stopWatch()
	}

	server := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: newRouter(orch, log),
	}
	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("orchestrator listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("http server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("shutdown incomplete")
	}
}

func newLogger(cfg config.LoggingConfig) *logrus.Logger {
	log := logrus.New()
	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		log.SetLevel(level)
	}
	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}

func quotasFrom(cfg *config.Config) map[provider.Name]provider.Quota {
	quotas := provider.DefaultQuotas()
	for name, quota := range cfg.Providers {
		providerName := provider.Name(name)
		if !provider.Valid(providerName) || quota.Rate == 0 {
			continue
		}
		limit := rate.Limit(quota.Rate)
		if quota.Rate < 0 {
			limit = rate.Inf
		}
		burst := quota.Burst
		if burst <= 0 {
			burst = 1
		}
		quotas[providerName] = provider.Quota{RequestsPerSecond: limit, Burst: burst}
	}
	return quotas
}

func retryConfigFrom(cfg *config.Config) retry.Config {
	return retry.Config{
		MaxAttempts:           cfg.Retry.MaxAttempts,
		RateLimitMaxAttempts:  cfg.Retry.RateLimitMaxAttempts,
		InitialDelay:          cfg.Retry.InitialDelay.Std(),
		RateLimitInitialDelay: cfg.Retry.RateLimitInitialDelay.Std(),
		MaxDelay:              cfg.Retry.MaxDelay.Std(),
		BackoffMultiplier:     cfg.Retry.BackoffMultiplier,
		Jitter:                cfg.Retry.JitterEnabled(),
		ProviderDownAfter:     cfg.Retry.ProviderDownAfter,
	}
}

func retryOverridesFrom(cfg *config.Config) map[provider.Name]retry.Config {
	if len(cfg.Retry.Overrides) == 0 {
		return nil
	}
	base := retryConfigFrom(cfg)
	overrides := make(map[provider.Name]retry.Config, len(cfg.Retry.Overrides))
	for name, o := range cfg.Retry.Overrides {
		providerName := provider.Name(name)
		if !provider.Valid(providerName) {
			continue
		}
		merged := base
		if o.MaxAttempts > 0 {
			merged.MaxAttempts = o.MaxAttempts
		}
		if o.RateLimitMaxAttempts > 0 {
			merged.RateLimitMaxAttempts = o.RateLimitMaxAttempts
		}
		if o.InitialDelay > 0 {
			merged.InitialDelay = o.InitialDelay.Std()
		}
		if o.MaxDelay > 0 {
			merged.MaxDelay = o.MaxDelay.Std()
		}
		overrides[providerName] = merged
	}
	return overrides
}

func openStore(ctx context.Context, cfg *config.Config, log *logrus.Logger) *storage.Store {
	if cfg.Database.DSN == "" {
		log.Warn("no database configured, persistence disabled")
		return &storage.Store{}
	}
	db, err := database.Connect(ctx, database.Config{
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime.Std(),
	}, log)
	if err != nil {
		log.WithError(err).Fatal("connecting to database")
	}
	return postgres.NewStore(db)
}

func openCache(cfg *config.Config, log *logrus.Logger) cache.ResponseCache {
	if !cfg.Cache.Enabled {
		return cache.NewNoopCache()
	}
	return cache.NewRedisCache(cache.Config{
		Enabled:    true,
		Addr:       cfg.Cache.Addr,
		Password:   cfg.Cache.Password,
		DB:         cfg.Cache.DB,
		DefaultTTL: cfg.Cache.DefaultTTL.Std(),
	}, log)
}

// prompterSet holds the gate-guarded clients keyed by role.
type prompterSet struct {
	primary  llm.Prompter // cloud AI for the analysis agents
	research llm.Prompter // web research provider
	local    llm.Prompter // locally hosted fallback model, may be nil
}

func buildPrompters(cfg *config.Config, providers *provider.Registry, log *logrus.Logger) (*prompterSet, error) {
	set := &prompterSet{}
	for name, llmCfg := range cfg.LLM {
		client, err := llm.NewClient(llm.Config{
			Provider:    llmCfg.Provider,
			Endpoint:    llmCfg.Endpoint,
			APIKey:      llmCfg.APIKey,
			Model:       llmCfg.Model,
			Timeout:     llmCfg.Timeout.Std(),
			MaxTokens:   llmCfg.MaxTokens,
			Temperature: llmCfg.Temperature,
		}, log)
		if err != nil {
			return nil, err
		}
		gate, err := providers.Gate(client.Provider())
		if err != nil {
			return nil, err
		}
		guarded := llm.NewGuardedClient(gate, client)
		switch client.Provider() {
		case provider.Perplexity:
			set.research = guarded
		case provider.Ollama:
			set.local = guarded
		default:
			if set.primary == nil || name == "primary" {
				set.primary = guarded
			}
		}
	}
	if set.primary == nil {
		return nil, errNoPrimary
	}
	if set.research == nil {
		set.research = set.primary
	}
	return set, nil
}

var errNoPrimary = &configError{"no cloud AI provider configured under llm:"}

type configError struct{ msg string }

func (e *configError) Error() string { return e.msg }

func buildCoordinator(cfg *config.Config, providers *provider.Registry, prompters *prompterSet, responseCache cache.ResponseCache, log *logrus.Logger) *discovery.Coordinator {
	crossrefClient := sources.NewCrossrefClient(
		cfg.Discovery.CrossrefEndpoint,
		cfg.Discovery.CrossrefMailto,
		providers.MustGate(provider.Crossref),
		responseCache,
		log,
	)
	return discovery.NewCoordinator(log,
		sources.NewCitationNetworkSource(crossrefClient),
		sources.NewAuthorNetworkSource(crossrefClient),
		sources.NewVenueNetworkSource(crossrefClient),
		sources.NewSemanticScholarSource(
			cfg.Discovery.SemanticEndpoint,
			cfg.Discovery.SemanticAPIKey,
			providers.MustGate(provider.SemanticScholar),
			responseCache,
			log,
		),
		sources.NewOpenEndedResearchSource(prompters.research, log),
	)
}

func discoveryDefaults(cfg *config.Config) discovery.Config {
	defaults := discovery.ComprehensiveConfig()
	if preset, ok := discovery.ConfigByName(cfg.Discovery.Preset); ok {
		defaults = preset
	}
	if cfg.Discovery.MaxTotalPapers > 0 {
		defaults.MaxTotalPapers = cfg.Discovery.MaxTotalPapers
	}
	if cfg.Discovery.MinRelevance > 0 {
		defaults.MinRelevance = cfg.Discovery.MinRelevance
	}
	if cfg.Discovery.TimeoutSeconds > 0 {
		defaults.TimeoutSeconds = cfg.Discovery.TimeoutSeconds
	}
	if cfg.Discovery.ParallelExecution != nil {
		defaults.ParallelExecution = *cfg.Discovery.ParallelExecution
	}
	if len(cfg.Discovery.EnabledSources) > 0 {
		defaults.EnabledSources = cfg.Discovery.EnabledSources
	}
	return defaults
}

func buildFallbacks(cfg *config.Config, store *storage.Store, prompters *prompterSet, log *logrus.Logger) *agent.FallbackRegistry {
	var enabled []agent.Agent
	if cfg.Fallbacks.CitationFormatter {
		enabled = append(enabled, citation.NewFallbackFormatter(store, log))
	}
	if cfg.Fallbacks.QualityChecker {
		enabled = append(enabled, quality.NewFallbackChecker(log))
	}
	if cfg.Fallbacks.ContentSummarizer && prompters.local != nil {
		enabled = append(enabled, summarizer.NewSummarizer(prompters.local, store, log))
	}
	return agent.NewFallbackRegistry(enabled...)
}

func buildAgents(cfg *config.Config, prompters *prompterSet, store *storage.Store, coordinator *discovery.Coordinator, log *logrus.Logger) []agent.Agent {
	return []agent.Agent{
		paperproc.NewProcessor(prompters.primary, store, log),
		metadata.NewEnhancer(prompters.primary, store, log),
		summarizer.NewSummarizer(prompters.primary, store, log),
		concepts.NewExplainer(prompters.primary, store, log),
		citation.NewFormatter(prompters.primary, store, log),
		quality.NewChecker(prompters.primary, log),
		research.NewResearcher(prompters.research, store, log),
		discoveryagent.New(coordinator, store, discoveryDefaults(cfg), log),
	}
}
