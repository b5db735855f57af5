package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmorgan81/imagegen/internal/config"
	"github.com/dmorgan81/imagegen/internal/image"
	"github.com/dmorgan81/imagegen/internal/inject"
	"github.com/dmorgan81/imagegen/internal/log"
	"github.com/samber/do"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var v = config.New()

var rootCmd = &cobra.Command{
	Use:   "imagegen",
	Short: "Generate images from text prompts",
	Long: `Interactive text-to-image client for the Hugging Face inference router.

Examples:
  $ HF_API_KEY=hf_xxx imagegen
  $ imagegen --model black-forest-labs/FLUX.1-schnell --out-dir images
  $ imagegen --provider stability --no-display`,
	SilenceUsage: true,
	RunE:         runInteractive,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("provider", config.ProviderRouter, "image provider, router or stability")
	flags.String("endpoint", "", "override the provider endpoint URL")
	flags.String("model", image.DefaultModel, "model id used to build the router URL")
	flags.String("out-dir", ".", "directory saved images are written to")
	flags.Bool("no-display", false, "do not open generated images in a viewer")
	flags.Duration("timeout", image.DefaultTimeout, "per request timeout")
	flags.Int("attempts", image.DefaultAttempts, "submissions per payload variant on 502/503/504")
	flags.BoolP("verbose", "v", false, "log debug diagnostics to stderr")

	for key, flag := range map[string]string{
		"provider":   "provider",
		"endpoint":   "endpoint",
		"model":      "model",
		"out_dir":    "out-dir",
		"no_display": "no-display",
		"timeout":    "timeout",
		"attempts":   "attempts",
		"verbose":    "verbose",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}

	rootCmd.AddCommand(interactiveCmd, lambdaCmd, pagesCmd)
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration and returns a logging context and a wired injector.
func setup(ctx context.Context, v *viper.Viper) (context.Context, *do.Injector, error) {
	if err := config.LoadDotEnv(); err != nil {
		return ctx, nil, err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return ctx, nil, err
	}

	logger := log.New(os.Stderr, log.Level(cfg.Verbose))
	ctx = log.NewContext(ctx, logger)
	logger.Debug("loaded configuration",
		"provider", cfg.Provider,
		"endpoint", cfg.Endpoint,
		"timeout", cfg.Timeout.Round(time.Second).String(),
		"attempts", cfg.Attempts,
	)
	return ctx, inject.Setup(ctx, cfg), nil
}
