package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/dmorgan81/imagegen/internal/image"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderRouter    = "router"
	ProviderStability = "stability"
)

type Config struct {
	Provider    string
	Endpoint    string
	Model       string
	APIKey      string
	APIKeyParam string
	Timeout     time.Duration
	Attempts    int

	OutDir    string
	NoDisplay bool
	Verbose   bool

	Bucket       string
	Distribution string
	PromptsParam string
	SiteURL      string
}

// LoadDotEnv loads a .env file from the working directory when one exists.
func LoadDotEnv(filenames ...string) error {
	if err := godotenv.Load(filenames...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("error loading .env file: %w", err)
	}
	return nil
}

// New returns a viper instance with defaults and environment bindings.
// Callers bind command line flags onto the same keys.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("provider", ProviderRouter)
	v.SetDefault("model", image.DefaultModel)
	v.SetDefault("timeout", image.DefaultTimeout)
	v.SetDefault("attempts", image.DefaultAttempts)
	v.SetDefault("out_dir", ".")

	for key, env := range map[string]string{
		"provider":      "IMAGEGEN_PROVIDER",
		"endpoint":      "IMAGEGEN_ENDPOINT",
		"model":         "IMAGEGEN_MODEL",
		"api_key":       "HF_API_KEY",
		"api_key_param": "HF_API_KEY_PARAM",
		"timeout":       "IMAGEGEN_TIMEOUT",
		"attempts":      "IMAGEGEN_ATTEMPTS",
		"out_dir":       "IMAGEGEN_OUT_DIR",
		"no_display":    "IMAGEGEN_NO_DISPLAY",
		"verbose":       "IMAGEGEN_VERBOSE",
		"bucket":        "BUCKET",
		"distribution":  "DISTRIBUTION",
		"prompts_param": "PROMPTS_PARAM",
		"site_url":      "SITE_URL",
	} {
		_ = v.BindEnv(key, env)
	}
	return v
}

func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Provider:     v.GetString("provider"),
		Endpoint:     v.GetString("endpoint"),
		Model:        v.GetString("model"),
		APIKey:       v.GetString("api_key"),
		APIKeyParam:  v.GetString("api_key_param"),
		Timeout:      v.GetDuration("timeout"),
		Attempts:     v.GetInt("attempts"),
		OutDir:       v.GetString("out_dir"),
		NoDisplay:    v.GetBool("no_display"),
		Verbose:      v.GetBool("verbose"),
		Bucket:       v.GetString("bucket"),
		Distribution: v.GetString("distribution"),
		PromptsParam: v.GetString("prompts_param"),
		SiteURL:      v.GetString("site_url"),
	}

	if cfg.Endpoint == "" {
		switch cfg.Provider {
		case ProviderRouter:
			cfg.Endpoint = image.RouterURL(cfg.Model)
		case ProviderStability:
			cfg.Endpoint = image.StabilityURL
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Provider != ProviderRouter && c.Provider != ProviderStability {
		return fmt.Errorf("unknown provider %q, expected %s or %s", c.Provider, ProviderRouter, ProviderStability)
	}
	if c.APIKey == "" && c.APIKeyParam == "" {
		return fmt.Errorf("HF_API_KEY is required")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Attempts <= 0 {
		return fmt.Errorf("attempts must be positive, got %d", c.Attempts)
	}
	return nil
}
