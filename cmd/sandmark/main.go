package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/p-arndt/sandmark/internal/bench"
	"github.com/p-arndt/sandmark/internal/config"
	dockerprovider "github.com/p-arndt/sandmark/internal/provider/docker"
	"github.com/p-arndt/sandmark/internal/provider/e2b"
	"github.com/p-arndt/sandmark/internal/provider/sandkasten"
	"github.com/p-arndt/sandmark/internal/report"
)

func main() {
	var (
		cfgPath   = flag.String("config", "", "path to sandmark.yaml")
		runs      = flag.Int("runs", 0, "runs per provider (overrides config)")
		delayMs   = flag.Int("delay-ms", -1, "delay between runs in ms (overrides config)")
		failFast  = flag.Bool("fail-fast", false, "stop a provider's sweep after its first failed run")
		verbose   = flag.Bool("verbose", false, "per-run output instead of progress symbols")
		providers = flag.String("providers", "", "comma-separated provider filter (sandkasten, docker, e2b)")
		noColor   = flag.Bool("no-color", false, "disable colored output")
	)
	flag.Parse()

	if *noColor {
		color.NoColor = true
	}

	// Credentials for cloud providers commonly live in a local .env.
	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sandmark: load config: %v\n", err)
		os.Exit(1)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "runs":
			cfg.Runs = *runs
		case "delay-ms":
			cfg.DelayBetweenRunsMs = *delayMs
		case "fail-fast":
			cfg.FailFast = *failFast
		case "verbose":
			cfg.Verbose = *verbose
		}
	})

	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	samplers := buildSamplers(ctx, cfg, parseFilter(*providers), logger)
	if len(samplers) == 0 {
		logger.Warn("no providers enabled")
		report.New(cfg.Verbose).Render(os.Stdout, nil)
		return
	}

	progress := report.NewConsoleProgress(os.Stdout, cfg.Verbose)
	runner := bench.NewRunner(bench.Options{
		Runs:     cfg.Runs,
		Delay:    time.Duration(cfg.DelayBetweenRunsMs) * time.Millisecond,
		FailFast: cfg.FailFast,
	}, logger, progress)

	var results []*bench.Result
	for _, p := range samplers {
		res, err := runner.RunSweep(ctx, p.name, p.sampler)
		if err != nil {
			// A failed sweep drops this provider from the report; the rest
			// still run.
			logger.Error("sweep failed", "provider", p.name, "error", err)
			continue
		}
		results = append(results, res)
	}

	fmt.Fprintln(os.Stdout)
	report.New(cfg.Verbose).Render(os.Stdout, results)
}

type provider struct {
	name    string
	sampler bench.Sampler
}

// buildSamplers assembles the enabled providers in a fixed order. Providers
// whose prerequisites are missing are logged and skipped rather than failing
// the whole invocation.
func buildSamplers(ctx context.Context, cfg *config.Config, filter map[string]bool, logger *slog.Logger) []provider {
	var out []provider
	include := func(name string, enabled bool) bool {
		if len(filter) > 0 {
			return filter[name]
		}
		return enabled
	}

	if include("sandkasten", cfg.Providers.Sandkasten.Enabled) {
		p := cfg.Providers.Sandkasten
		out = append(out, provider{
			name:    "sandkasten",
			sampler: sandkasten.New(p.Host, p.APIKey, p.Image, p.TTLSeconds),
		})
	}

	if include("docker", cfg.Providers.Docker.Enabled) {
		p := cfg.Providers.Docker
		s, err := dockerprovider.New(p.Image, p.MemLimitMB)
		if err != nil {
			logger.Warn("docker provider skipped", "error", err)
		} else if err := s.Ping(ctx); err != nil {
			logger.Warn("docker provider skipped: daemon unreachable", "error", err)
			s.Close()
		} else {
			out = append(out, provider{name: "docker", sampler: s})
		}
	}

	if include("e2b", cfg.Providers.E2B.Enabled) {
		p := cfg.Providers.E2B
		if p.APIKey == "" {
			logger.Warn("e2b provider skipped: no API key (set E2B_API_KEY)")
		} else {
			out = append(out, provider{
				name:    "e2b",
				sampler: e2b.New(p.BaseURL, p.APIKey, p.Template),
			})
		}
	}

	return out
}

func parseFilter(csv string) map[string]bool {
	csv = strings.TrimSpace(csv)
	if csv == "" {
		return nil
	}
	out := make(map[string]bool)
	for _, part := range strings.Split(csv, ",") {
		if name := strings.ToLower(strings.TrimSpace(part)); name != "" {
			out[name] = true
		}
	}
	return out
}
