package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"ai-router/internal/catalogue"
	"ai-router/internal/config"
	"ai-router/internal/metrics"
	providerfactory "ai-router/internal/provider/factory"
	"ai-router/internal/router"
	"ai-router/internal/server"
)

const serveUsage = `Usage:
  ai-router serve [--config <path>] [--port <port>]

Flags:
  --config string   Path to YAML configuration file (defaults and environment only when omitted)
  --port   int      Override server port from configuration`

func serve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, serveUsage)
	}

	var cfgPath string
	var overridePort int
	fs.StringVar(&cfgPath, "config", "", "path to configuration file")
	fs.IntVar(&overridePort, "port", 0, "override server port")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("parse serve flags: %w", err)
	}

	cfg, err := loadConfig(cfgPath, overridePort)
	if err != nil {
		return err
	}

	srv, err := buildServer(cfg)
	if err != nil {
		return err
	}

	return srv.Run(ctx)
}

func loadConfig(path string, overridePort int) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}

	if overridePort != 0 {
		if overridePort < 0 || overridePort > 65535 {
			return config.Config{}, fmt.Errorf("port override %d must be a valid TCP port", overridePort)
		}
		cfg.Server.Port = overridePort
	}
	return cfg, nil
}

func buildServer(cfg config.Config) (*server.Server, error) {
	cat := catalogue.Default()

	providers, err := providerfactory.Build(cfg, cat)
	if err != nil {
		return nil, err
	}

	recorder := metrics.New()

	rt, err := router.New(providers.Registry,
		router.WithTimeout(cfg.Upstream.Timeout),
		router.WithMetrics(recorder),
	)
	if err != nil {
		return nil, err
	}

	return server.New(cfg, server.Deps{
		Router:    rt,
		Catalogue: cat,
		Status:    providers.Status,
		Metrics:   recorder,
	})
}
