// Package commands implements the iznik-probe subcommands.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.opentelemetry.io/otel"

	"github.com/freegle/iznik-api/api"
	"github.com/freegle/iznik-api/config"
	restclient "github.com/freegle/iznik-api/http"
	"github.com/freegle/iznik-api/logger"
	"github.com/freegle/iznik-api/report"
)

// GlobalOptions are shared by every subcommand.
type GlobalOptions struct {
	ConfigFile string
	BaseURL    string
	Env        string
}

type runtimeDeps struct {
	cfg    *config.Config
	log    logger.Logger
	client *api.Client
	close  func() error
}

func loadConfig(opts *GlobalOptions) (*config.Config, error) {
	if opts.ConfigFile != "" {
		return config.LoadFile(opts.ConfigFile)
	}
	environ := os.Environ
	if opts.Env != "" || opts.BaseURL != "" {
		environ = func() []string {
			env := os.Environ()
			if opts.Env != "" {
				env = append(env, "APP_ENV="+opts.Env)
			}
			if opts.BaseURL != "" {
				env = append(env, "API_BASE="+opts.BaseURL)
			}
			return env
		}
	}
	return config.LoadWithOptions(config.Options{Environ: environ})
}

// setup builds the client stack from configuration. Logs go to logOut so
// command output stays clean.
func setup(opts *GlobalOptions, logOut io.Writer) (*runtimeDeps, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	if opts.ConfigFile != "" && opts.BaseURL != "" {
		cfg.API.Base = opts.BaseURL
	}

	log := logger.NewWithWriter(logOut, cfg.Log.Level, cfg.Log.Pretty, logger.DefaultFilterConfig())

	transport := restclient.NewBuilder(log).
		WithTimeout(cfg.API.Timeout).
		WithRateLimit(cfg.API.Rate.Limit, cfg.API.Rate.Burst).
		WithPayloadLogging(cfg.API.Log.Payloads, cfg.API.Log.MaxBytes).
		WithTraceParent(true).
		Build()

	sink, closeSink, err := report.FromConfig(cfg, log, otel.GetTracerProvider())
	if err != nil {
		return nil, fmt.Errorf("report sink: %w", err)
	}

	client, err := api.New(
		api.WithBaseURL(cfg.API.Base),
		api.WithTransport(transport),
		api.WithLogger(log),
		api.WithReporter(sink),
		api.WithRetryDelay(cfg.API.Retry.Delay),
	)
	if err != nil {
		_ = closeSink()
		return nil, err
	}

	return &runtimeDeps{cfg: cfg, log: log, client: client, close: closeSink}, nil
}

// signalContext is cancelled on interrupt, which also releases suspended calls.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
