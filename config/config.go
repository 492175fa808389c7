// Package config loads the request layer's settings from defaults, YAML files
// and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Environment names. They select the default API base and config.<env>.yaml.
const (
	EnvProduction  = "production"
	EnvDevelopment = "development"
	EnvDebug       = "debug"
)

// Report sink names.
const (
	SinkLog  = "log"
	SinkOTel = "otel"
	SinkAMQP = "amqp"
	SinkNone = "none"
)

// Config is the full configuration.
type Config struct {
	App    AppConfig    `koanf:"app"`
	API    APIConfig    `koanf:"api"`
	Report ReportConfig `koanf:"report"`
	Log    LogConfig    `koanf:"log"`
}

// AppConfig identifies the running application.
type AppConfig struct {
	Name string `koanf:"name" validate:"required"`
	Env  string `koanf:"env" validate:"oneof=production development debug"`
}

// APIConfig configures the backend client.
type APIConfig struct {
	Base    string        `koanf:"base" validate:"required,url"`
	Timeout time.Duration `koanf:"timeout" validate:"gte=0"`
	Retry   RetryConfig   `koanf:"retry"`
	Rate    RateConfig    `koanf:"rate"`
	Log     PayloadConfig `koanf:"log"`
}

// RetryConfig configures the post-timeout retry.
type RetryConfig struct {
	Delay time.Duration `koanf:"delay" validate:"gte=0"`
}

// RateConfig configures the client-side limiter. A zero limit disables it.
type RateConfig struct {
	Limit float64 `koanf:"limit" validate:"gte=0"`
	Burst int     `koanf:"burst" validate:"gte=0"`
}

// PayloadConfig controls debug logging of request and response bodies.
type PayloadConfig struct {
	Payloads bool `koanf:"payloads"`
	MaxBytes int  `koanf:"maxbytes" validate:"gte=0"`
}

// ReportConfig selects where fatal outcomes are reported.
type ReportConfig struct {
	Sink string     `koanf:"sink" validate:"oneof=log otel amqp none"`
	AMQP AMQPConfig `koanf:"amqp"`
}

// AMQPConfig is the broker target for the amqp sink.
type AMQPConfig struct {
	URL        string `koanf:"url" validate:"omitempty,url"`
	Exchange   string `koanf:"exchange"`
	RoutingKey string `koanf:"routingkey"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Pretty bool   `koanf:"pretty"`
}

// Options controls where Load looks for its sources.
type Options struct {
	// Dir holds config.yaml and config.<env>.yaml. Defaults to the working directory.
	Dir string
	// Environ returns the environment as KEY=value pairs. Defaults to os.Environ.
	Environ func() []string
}

// Load reads configuration with priority, lowest first: defaults, config.yaml,
// config.<env>.yaml, environment variables. Missing files are skipped.
func Load() (*Config, error) {
	return LoadWithOptions(Options{})
}

// LoadWithOptions is Load with explicit sources.
func LoadWithOptions(opts Options) (*Config, error) {
	k := koanf.New(".")
	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := loadOptionalFile(k, filepath.Join(opts.Dir, "config.yaml")); err != nil {
		return nil, err
	}
	// the environment may pick the env file, so peek at it first
	envOnly := koanf.New(".")
	if err := loadEnv(envOnly, opts.Environ); err != nil {
		return nil, err
	}
	appEnv := k.String("app.env")
	if v := envOnly.String("app.env"); v != "" {
		appEnv = v
	}
	if appEnv != "" {
		if err := loadOptionalFile(k, filepath.Join(opts.Dir, fmt.Sprintf("config.%s.yaml", appEnv))); err != nil {
			return nil, err
		}
	}
	if err := k.Merge(envOnly); err != nil {
		return nil, fmt.Errorf("failed to merge environment variables: %w", err)
	}

	return finish(k)
}

// LoadFile reads defaults, then path, then the process environment.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")
	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	if err := loadEnv(k, nil); err != nil {
		return nil, err
	}
	return finish(k)
}

// LoadBytes reads defaults and then the YAML document in data. The
// environment is not consulted.
func LoadBytes(data []byte) (*Config, error) {
	k := koanf.New(".")
	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	return finish(k)
}

func loadOptionalFile(k *koanf.Koanf, path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// envSections are the top-level keys environment variables may set.
var envSections = []string{"app", "api", "report", "log"}

// loadEnv maps API_RETRY_DELAY to api.retry.delay. Variables outside the known
// sections are ignored.
func loadEnv(k *koanf.Koanf, environ func() []string) error {
	if environ == nil {
		environ = os.Environ
	}
	provider := env.Provider(".", env.Opt{
		EnvironFunc: environ,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ReplaceAll(strings.ToLower(key), "_", ".")
			for _, section := range envSections {
				if strings.HasPrefix(key, section+".") {
					return key, value
				}
			}
			return "", nil
		},
	})
	if err := k.Load(provider, nil); err != nil {
		return fmt.Errorf("failed to load environment variables: %w", err)
	}
	return nil
}

func finish(k *koanf.Koanf) (*Config, error) {
	if k.String("api.base") == "" {
		if base, ok := defaultAPIBase[k.String("app.env")]; ok {
			if err := k.Set("api.base", base); err != nil {
				return nil, fmt.Errorf("failed to set default api base: %w", err)
			}
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.API.Base = strings.TrimRight(cfg.API.Base, "/")

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
