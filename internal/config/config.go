package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type SandkastenConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Host       string `yaml:"host"`
	APIKey     string `yaml:"api_key"`
	Image      string `yaml:"image"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

type DockerConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Image      string `yaml:"image"`
	MemLimitMB int    `yaml:"mem_limit_mb"`
}

type E2BConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	Template string `yaml:"template"`
}

type Providers struct {
	Sandkasten SandkastenConfig `yaml:"sandkasten"`
	Docker     DockerConfig     `yaml:"docker"`
	E2B        E2BConfig        `yaml:"e2b"`
}

type Config struct {
	Runs               int  `yaml:"runs"`
	DelayBetweenRunsMs int  `yaml:"delay_between_runs_ms"`
	FailFast           bool `yaml:"fail_fast"`
	Verbose            bool `yaml:"verbose"`
	// Accepted for config-file compatibility; aggregation does not filter
	// outliers.
	OutlierDetection bool      `yaml:"outlier_detection"`
	Providers        Providers `yaml:"providers"`
}

func Load(yamlPath string) (*Config, error) {
	cfg := &Config{
		Runs:               5,
		DelayBetweenRunsMs: 1000,
		FailFast:           false,
		Verbose:            false,
		OutlierDetection:   true,
		Providers: Providers{
			Sandkasten: SandkastenConfig{
				Enabled:    false,
				Host:       "http://127.0.0.1:8080",
				TTLSeconds: 300,
			},
			Docker: DockerConfig{
				Enabled:    true,
				Image:      "python:3.12-slim",
				MemLimitMB: 512,
			},
			E2B: E2BConfig{
				Enabled:  false,
				BaseURL:  "https://api.e2b.dev",
				Template: "base",
			},
		},
	}

	if yamlPath != "" {
		data, err := os.ReadFile(yamlPath)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, err
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SANDMARK_RUNS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Runs = n
		}
	}
	if v := os.Getenv("SANDMARK_DELAY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DelayBetweenRunsMs = n
		}
	}
	if v := os.Getenv("SANDMARK_FAIL_FAST"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.FailFast = b
		}
	}
	if v := os.Getenv("SANDMARK_VERBOSE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Verbose = b
		}
	}
	if v := os.Getenv("SANDMARK_OUTLIER_DETECTION"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.OutlierDetection = b
		}
	}

	if v := os.Getenv("SANDMARK_SANDKASTEN_HOST"); v != "" {
		cfg.Providers.Sandkasten.Host = v
	}
	if v := firstEnv("SANDMARK_SANDKASTEN_API_KEY", "SANDKASTEN_API_KEY"); v != "" {
		cfg.Providers.Sandkasten.APIKey = v
	}
	if v := os.Getenv("SANDMARK_SANDKASTEN_IMAGE"); v != "" {
		cfg.Providers.Sandkasten.Image = v
	}

	if v := os.Getenv("SANDMARK_DOCKER_IMAGE"); v != "" {
		cfg.Providers.Docker.Image = v
	}

	if v := firstEnv("SANDMARK_E2B_API_KEY", "E2B_API_KEY"); v != "" {
		cfg.Providers.E2B.APIKey = v
	}
	if v := os.Getenv("SANDMARK_E2B_BASE_URL"); v != "" {
		cfg.Providers.E2B.BaseURL = v
	}
	if v := os.Getenv("SANDMARK_E2B_TEMPLATE"); v != "" {
		cfg.Providers.E2B.Template = v
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}
