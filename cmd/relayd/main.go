package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattjoyce/relay/internal/api"
	"github.com/mattjoyce/relay/internal/audit"
	"github.com/mattjoyce/relay/internal/builtin"
	"github.com/mattjoyce/relay/internal/config"
	"github.com/mattjoyce/relay/internal/ipc"
	"github.com/mattjoyce/relay/internal/log"
	"github.com/mattjoyce/relay/internal/plugin"
)

const version = "0.1.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("relayd", flag.ContinueOnError)
	configPath := fs.String("config", "config.yaml", "Path to config file")
	showVersion := fs.Bool("version", false, "Print version and exit")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	if *showVersion {
		fmt.Printf("relayd version %s\n", version)
		return 0
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	log.Setup(cfg.Service.LogLevel)
	logger := log.WithComponent("main")

	fingerprint, err := config.Fingerprint(*configPath)
	if err != nil {
		logger.Error("failed to fingerprint config", "error", err)
		return 1
	}
	logger.Info("starting", "service", cfg.Service.Name, "version", version,
		"config", *configPath, "fingerprint", fingerprint)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := audit.Open(ctx, cfg.Audit.Path)
	if err != nil {
		logger.Error("failed to open audit store", "error", err)
		return 1
	}
	defer db.Close()

	recorder := audit.NewRecorder(db)
	if err := recorder.SetMeta(ctx, "config_fingerprint", fingerprint); err != nil {
		logger.Warn("failed to record config fingerprint", "error", err)
	}

	// Registration phase: build providers, attach consumers, then start.
	opts := ipc.Options{
		MaxEndpoints: cfg.IPC.MaxEndpoints,
		BodyTimeout:  cfg.IPC.BodyTimeout,
	}

	registry := plugin.NewRegistry()
	providers := []*plugin.Plugin{
		builtin.NewStatus(opts, recorder.Wrap),
		builtin.NewParams(opts, recorder.Wrap),
	}
	for _, p := range providers {
		if err := registry.Add(p); err != nil {
			logger.Error("failed to register provider", "plugin", p.Name, "error", err)
			return 1
		}
	}

	var apiServer *api.Server
	if cfg.API.Enabled {
		apiServer, err = api.New(api.Config{
			Listen:       cfg.API.Listen,
			APIKey:       cfg.API.APIKey,
			ReplyTimeout: cfg.IPC.ReplyTimeout,
		}, registry, recorder)
		if err != nil {
			logger.Error("failed to build api server", "error", err)
			return 1
		}
	}

	if err := registry.StartAll(ctx); err != nil {
		logger.Error("failed to start providers", "error", err)
		return 1
	}
	defer registry.StopAll()

	if apiServer != nil {
		if err := apiServer.Start(ctx); err != nil {
			logger.Error("api server failed", "error", err)
			return 1
		}
	} else {
		<-ctx.Done()
	}

	logger.Info("shutting down")
	return 0
}
