package inject

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/dmorgan81/imagegen/internal/cli"
	"github.com/dmorgan81/imagegen/internal/config"
	"github.com/dmorgan81/imagegen/internal/display"
	"github.com/dmorgan81/imagegen/internal/feed"
	"github.com/dmorgan81/imagegen/internal/handler"
	"github.com/dmorgan81/imagegen/internal/image"
	"github.com/dmorgan81/imagegen/internal/log"
	"github.com/dmorgan81/imagegen/internal/page"
	"github.com/dmorgan81/imagegen/internal/param"
	"github.com/dmorgan81/imagegen/internal/prompt"
	"github.com/dmorgan81/imagegen/internal/store"
	"github.com/samber/do"
)

// PromptsEnv holds newline separated prompts when no parameter path is configured.
const PromptsEnv = "PROMPTS"

func Setup(ctx context.Context, cfg *config.Config) *do.Injector {
	log := log.FromContextOrDiscard(ctx)

	injector := do.NewWithOpts(&do.InjectorOpts{
		Logf: func(format string, args ...any) {
			log.Debug(fmt.Sprintf(format, args...))
		},
	})
	do.Provide[aws.Config](injector, func(i *do.Injector) (aws.Config, error) {
		return awsconfig.LoadDefaultConfig(ctx)
	})
	do.Provide[*ssm.Client](injector, func(i *do.Injector) (*ssm.Client, error) {
		return ssm.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.Provide[*s3.Client](injector, func(i *do.Injector) (*s3.Client, error) {
		return s3.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.Provide[*cloudfront.Client](injector, func(i *do.Injector) (*cloudfront.Client, error) {
		return cloudfront.NewFromConfig(do.MustInvoke[aws.Config](i)), nil
	})
	do.ProvideValue[*http.Client](injector, &http.Client{Timeout: cfg.Timeout})

	do.ProvideNamedValue[string](injector, "endpoint", cfg.Endpoint)
	do.ProvideNamedValue[int](injector, "attempts", cfg.Attempts)
	do.ProvideNamedValue[string](injector, "bucket", cfg.Bucket)
	do.ProvideNamedValue[string](injector, "distribution", cfg.Distribution)
	do.ProvideNamedValue[string](injector, "site_url", cfg.SiteURL)

	do.Provide[param.Fetcher](injector, param.NewParameterStoreFetcher)
	do.ProvideNamed[string](injector, "api_token", func(i *do.Injector) (string, error) {
		if cfg.APIKey != "" {
			return cfg.APIKey, nil
		}
		return do.MustInvoke[param.Fetcher](i).Fetch(ctx, cfg.APIKeyParam)
	})
	do.ProvideNamed[[]string](injector, "prompts", func(i *do.Injector) ([]string, error) {
		if cfg.PromptsParam != "" {
			return do.MustInvoke[param.Fetcher](i).FetchAll(ctx, cfg.PromptsParam)
		}
		prompts, err := param.EnvFetcher{}.FetchAll(ctx, PromptsEnv)
		if err != nil {
			log.Warn("no prompts available for randomizing", "error", err)
			return []string{}, nil
		}
		return prompts, nil
	})

	switch cfg.Provider {
	case config.ProviderStability:
		do.Provide[image.Generator](injector, image.NewStabilityGenerator)
	default:
		do.Provide[image.Generator](injector, image.NewRouterGenerator)
	}

	do.ProvideNamedValue[store.Uploader](injector, "local", &store.FileUploader{Dir: cfg.OutDir})
	if cfg.Bucket != "" {
		do.Provide[store.Uploader](injector, store.NewS3Uploader)
		do.Provide[*feed.Generator](injector, feed.NewS3Generator)
	} else {
		do.ProvideValue[store.Uploader](injector, &store.FileUploader{Dir: cfg.OutDir})
	}
	if cfg.Distribution != "" {
		do.Provide[store.Invalidator](injector, store.NewCloudFrontInvalidator)
	} else {
		do.ProvideValue[store.Invalidator](injector, store.NopInvalidator{})
	}

	if cfg.NoDisplay {
		do.ProvideValue[display.Viewer](injector, display.NopViewer{})
	} else {
		do.ProvideValue[display.Viewer](injector, display.NewSystemViewer())
	}

	do.Provide[*page.Templator](injector, page.NewTemplator)
	do.Provide[*prompt.Randomizer](injector, prompt.NewRandomizer)
	do.Provide[*cli.Loop](injector, cli.NewLoop)
	do.Provide[*handler.Handler](injector, handler.NewHandler)
	do.Provide[*handler.PageHandler](injector, handler.NewPageHandler)

	return injector
}
