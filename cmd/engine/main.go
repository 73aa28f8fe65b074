package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"jobalert-engine/internal/config"
	"jobalert-engine/internal/events"
	"jobalert-engine/internal/httpapi"
	"jobalert-engine/internal/pipeline"
	"jobalert-engine/internal/scheduler"
	"jobalert-engine/internal/secrets"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		cfgPath     = flag.String("config", os.Getenv("JOBALERT_CONFIG"), "config file (default <data-dir>/config.yml)")
		dataDir     = flag.String("data-dir", os.Getenv("JOBALERT_DATA_DIR"), "directory for config, company list and state")
		serve       = flag.Bool("serve", false, "run on the daily schedule and serve the HTTP API")
		dryRun      = flag.Bool("dry-run", false, "print the email instead of sending it and do not persist state")
		prune       = flag.Duration("prune", 0, "remove seen keys first seen longer ago than this (e.g. 2160h) and exit")
		setPassword = flag.Bool("set-password", false, "read the SMTP password from stdin into the OS keychain and exit")
		delPassword = flag.Bool("delete-password", false, "remove the SMTP password from the OS keychain and exit")
	)
	flag.Parse()

	if *dataDir == "" {
		*dataDir = "."
	}
	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		log.Printf("[engine] %v", err)
		return 1
	}
	config.LoadDotEnv(filepath.Join(*dataDir, ".env"), ".env")

	cfg, err := loadConfig(*cfgPath, *dataDir)
	if err != nil {
		log.Printf("[engine] %v", err)
		return 1
	}

	switch {
	case *setPassword:
		return storePassword(cfg)
	case *delPassword:
		if err := secrets.DeleteSMTPPassword(cfg); err != nil {
			log.Printf("[engine] delete password: %v", err)
			return 1
		}
		log.Printf("[engine] removed SMTP password for %s", secrets.SMTPKeyringAccount(cfg))
		return 0
	}

	if !*dryRun && *prune == 0 {
		if cfg.Notify.Username == "" || cfg.Notify.Recipient == "" {
			log.Printf("[engine] EMAIL_USER and RECIPIENT_EMAIL must be set (or use -dry-run)")
			return 1
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var hub *events.Hub
	hooks := pipeline.Options{}
	if *serve {
		hub = events.NewHub()
		hooks.OnState = func(runID string, s pipeline.State) {
			hub.Publish(events.RunState(runID, string(s)))
		}
		hooks.OnDone = func(rep pipeline.Report) {
			hub.Publish(events.New(rep.RunID, events.TypeRunDone, rep))
		}
	}

	a, err := build(cfg, buildOptions{dryRun: *dryRun || *prune > 0, stdout: os.Stdout, hooks: hooks})
	if err != nil {
		log.Printf("[engine] %v", err)
		return 1
	}
	defer a.Close()

	switch {
	case *prune > 0:
		return runPrune(ctx, a, *prune)
	case *serve:
		return runServe(ctx, a, hub)
	default:
		rep, _ := a.runner.Run(ctx)
		return rep.ExitCode()
	}
}

func runPrune(ctx context.Context, a *app, olderThan time.Duration) int {
	if err := a.lease.Acquire(ctx); err != nil {
		log.Printf("[prune] %v", err)
		return 1
	}
	defer func() { _ = a.lease.Release() }()

	if _, err := a.seen.Load(ctx); err != nil {
		log.Printf("[prune] %v", err)
		return 1
	}
	before := a.seen.Len()
	removed, err := a.seen.Prune(ctx, time.Now().Add(-olderThan))
	if err != nil {
		log.Printf("[prune] %v", err)
		return 1
	}
	log.Printf("[prune] removed=%d kept=%d (older than %s)", removed, before-removed, olderThan)
	return 0
}

func runServe(ctx context.Context, a *app, hub *events.Hub) int {
	loc, err := time.LoadLocation(a.cfg.Schedule.Timezone)
	if err != nil {
		log.Printf("[engine] timezone %q: %v", a.cfg.Schedule.Timezone, err)
		return 1
	}

	ln, err := net.Listen("tcp", a.cfg.Server.Addr)
	if err != nil {
		log.Printf("[engine] listen %s: %v", a.cfg.Server.Addr, err)
		return 1
	}
	srv := &http.Server{
		Handler:           httpapi.NewHandler(httpapi.Deps{Runner: a.runner, Hub: hub, BaseContext: ctx}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("[engine] listening on http://%s", ln.Addr())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[engine] http: %v", err)
		}
	}()

	task := func(ctx context.Context) error {
		_, err := a.runner.Run(ctx)
		return err
	}
	if every := a.cfg.Interval(); every > 0 {
		log.Printf("[engine] polling every %s", every)
		go scheduler.Every(ctx, every, "schedule", task)
	} else {
		go func() {
			if err := scheduler.Daily(ctx, a.cfg.Schedule.DailyAt, loc, "schedule", task); err != nil {
				log.Printf("[engine] scheduler: %v", err)
			}
		}()
	}

	<-ctx.Done()
	log.Printf("[engine] shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(sctx)
	return 0
}

func storePassword(cfg config.Config) int {
	fmt.Fprintf(os.Stderr, "SMTP password for %s: ", cfg.Notify.Username)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		log.Printf("[engine] read password: %v", err)
		return 1
	}
	if err := secrets.SetSMTPPassword(cfg, strings.TrimRight(line, "\r\n")); err != nil {
		log.Printf("[engine] store password: %v", err)
		return 1
	}
	log.Printf("[engine] stored SMTP password for %s", secrets.SMTPKeyringAccount(cfg))
	return 0
}
