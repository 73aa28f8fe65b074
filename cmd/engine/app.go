package main

import (
	"fmt"
	"io"
	"log"
	"path/filepath"

	"jobalert-engine/internal/companies"
	"jobalert-engine/internal/config"
	"jobalert-engine/internal/filter"
	"jobalert-engine/internal/normalize"
	"jobalert-engine/internal/notify"
	"jobalert-engine/internal/pipeline"
	"jobalert-engine/internal/scrape"
	"jobalert-engine/internal/scrape/util"
	"jobalert-engine/internal/secrets"
	"jobalert-engine/internal/store"
)

// app holds the wired components for one process.
type app struct {
	cfg    config.Config
	runner *pipeline.Runner
	seen   *store.Seen
	lease  *store.Lease
}

func (a *app) Close() {
	if err := a.seen.Close(); err != nil {
		log.Printf("[engine] close store: %v", err)
	}
}

// resolvePath makes p relative to base unless it is already absolute.
func resolvePath(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

type buildOptions struct {
	dryRun bool
	stdout io.Writer
	hooks  pipeline.Options // OnState / OnDone only
}

func build(cfg config.Config, opts buildOptions) (*app, error) {
	src, err := companies.Open(cfg.Companies.Path, cfg.Companies.Sheet)
	if err != nil {
		return nil, err
	}

	keys, err := normalize.StrategyByName(cfg.Keys.Strategy)
	if err != nil {
		return nil, err
	}

	backend, err := store.OpenBackend(cfg.Store.Driver, cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	seen := store.NewSeen(backend)
	lease := store.NewLease(cfg.Store.Path, cfg.LockTimeout())

	var sender notify.Sender
	if opts.dryRun {
		sender = notify.WriterSender{W: opts.stdout}
	} else {
		pw, err := secrets.SMTPPassword(cfg)
		if err != nil {
			_ = seen.Close()
			return nil, err
		}
		sender = notify.NewSMTPSender(cfg.Notify.SMTPHost, cfg.Notify.SMTPPort, cfg.Notify.Username, pw, cfg.Notify.ImplicitTLS)
	}
	from := cfg.Notify.From
	if from == "" {
		from = "jobalert@localhost"
	}
	recipient := cfg.Notify.Recipient
	if recipient == "" && opts.dryRun {
		recipient = "dry-run@localhost"
	}

	parsers := scrape.DefaultParsers()
	fetcher := scrape.NewFetcher(scrape.FetcherConfig{
		UserAgent:    cfg.Fetch.UserAgent,
		MaxBodyBytes: cfg.Fetch.MaxBodyBytes,
		Limiter:      util.NewHostLimiter(cfg.Fetch.RequestsPerSecond, cfg.Fetch.Burst),
		Resolve:      parsers.Endpoint,
	})

	runner := pipeline.New(pipeline.Deps{
		Companies:  src,
		Fetcher:    fetcher,
		Parsers:    parsers,
		Normalizer: normalize.New(keys),
		Filter:     filter.New(cfg),
		Seen:       seen,
		Lease:      lease,
		Notifier: notify.New(sender, notify.Options{
			From:          from,
			SubjectPrefix: cfg.Notify.SubjectPrefix,
			Timeout:       cfg.NotifyTimeout(),
		}),
	}, pipeline.Options{
		Concurrency:  cfg.Fetch.Concurrency,
		FetchTimeout: cfg.FetchTimeout(),
		Retries:      cfg.Fetch.Retries,
		RetryBackoff: cfg.RetryBackoff(),
		Recipient:    recipient,
		DryRun:       opts.dryRun,
		OnState:      opts.hooks.OnState,
		OnDone:       opts.hooks.OnDone,
	})

	log.Printf("[engine] companies=%s store=%s driver=%s keys=%s concurrency=%d timeout=%s",
		cfg.Companies.Path, cfg.Store.Path, cfg.Store.Driver, keys.Name(), cfg.Fetch.Concurrency, cfg.FetchTimeout())

	return &app{cfg: cfg, runner: runner, seen: seen, lease: lease}, nil
}

// loadConfig resolves the config file, overlays the environment and
// validates. Relative paths in the file are taken relative to its directory.
func loadConfig(cfgPath, dataDir string) (config.Config, error) {
	if cfgPath == "" {
		p, err := config.EnsureUserConfig(dataDir)
		if err != nil {
			return config.Config{}, fmt.Errorf("config bootstrap failed: %w", err)
		}
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("config load failed (%s): %w", cfgPath, err)
	}
	config.OverlayEnv(&cfg, nil)

	base := filepath.Dir(cfgPath)
	cfg.Companies.Path = resolvePath(base, cfg.Companies.Path)
	cfg.Store.Path = resolvePath(base, cfg.Store.Path)

	cfg, v := config.NormalizeAndValidate(cfg)
	for _, w := range v.Warnings {
		log.Printf("[config] warning: %s", w)
	}
	if !v.OK() {
		return config.Config{}, v
	}
	log.Printf("[config] loaded %s", cfgPath)
	return cfg, nil
}
