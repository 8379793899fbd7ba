package cmd

import (
	"fmt"
	"os"

	"github.com/spiffcs/claimwatch/config"
	gh "github.com/spiffcs/claimwatch/internal/github"
	"github.com/spiffcs/claimwatch/internal/log"
	"github.com/spiffcs/claimwatch/internal/output"
	"github.com/spiffcs/claimwatch/internal/quality"
	"github.com/spiffcs/claimwatch/internal/reconcile"
	"github.com/spiffcs/claimwatch/internal/store"
)

// runtime bundles everything a reconciliation command needs.
type runtime struct {
	cfg        *config.Config
	store      *store.Store
	reconciler *reconcile.Reconciler
}

// setupRuntime loads config, authenticates against GitHub and wires the
// reconciliation pipeline.
func setupRuntime(opts *Options) (*runtime, error) {
	log.Initialize(opts.Verbosity, os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if opts.Repo != "" {
		cfg.Repos = []string{opts.Repo}
	}
	if opts.Workers > 0 {
		if cfg.Watch == nil {
			cfg.Watch = &config.WatchOverrides{}
		}
		cfg.Watch.Workers = &opts.Workers
	}

	token := cfg.GetGitHubToken()
	if token == "" {
		return nil, fmt.Errorf("GitHub token not configured. Set the GITHUB_TOKEN environment variable")
	}

	client, err := gh.NewClient(token)
	if err != nil {
		return nil, err
	}

	st, err := store.NewStore()
	if err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}

	var analyzer quality.Analyzer
	if key := cfg.GetAnthropicKey(); key != "" {
		llm, err := quality.NewLLMAnalyzer(key)
		if err != nil {
			return nil, err
		}
		analyzer = llm
		log.Debug("quality analyzer enabled")
	}

	reconciler, err := reconcile.NewReconciler(cfg, client, st, analyzer)
	if err != nil {
		return nil, err
	}

	return &runtime{
		cfg:        cfg,
		store:      st,
		reconciler: reconciler,
	}, nil
}

// openStore is the lighter setup for read-only commands that only need
// local state.
func openStore(opts *Options) (*config.Config, *store.Store, error) {
	log.Initialize(opts.Verbosity, os.Stderr)

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	st, err := store.NewStore()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open state store: %w", err)
	}

	return cfg, st, nil
}

// resolveFormat picks the output format from the flag or the config default.
func resolveFormat(opts *Options, cfg *config.Config) output.Format {
	if opts.Format != "" {
		return output.Format(opts.Format)
	}
	if cfg.DefaultFormat != "" {
		return output.Format(cfg.DefaultFormat)
	}
	return output.FormatTable
}
