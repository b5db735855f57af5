package inject

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmorgan81/imagegen/internal/cli"
	"github.com/dmorgan81/imagegen/internal/config"
	"github.com/dmorgan81/imagegen/internal/display"
	"github.com/dmorgan81/imagegen/internal/feed"
	"github.com/dmorgan81/imagegen/internal/handler"
	"github.com/dmorgan81/imagegen/internal/image"
	"github.com/dmorgan81/imagegen/internal/param"
	"github.com/dmorgan81/imagegen/internal/store"
	"github.com/samber/do"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func localConfig() *config.Config {
	return &config.Config{
		Provider:  config.ProviderRouter,
		Endpoint:  "http://localhost:8080/generate",
		APIKey:    "hf_abc",
		Timeout:   time.Minute,
		Attempts:  3,
		OutDir:    "out",
		NoDisplay: true,
	}
}

func TestSetup_Local(t *testing.T) {
	t.Setenv(PromptsEnv, "a red fox\na blue whale | blurry\n")
	injector := Setup(context.Background(), localConfig())
	t.Cleanup(func() { _ = injector.Shutdown() })

	loop, err := do.Invoke[*cli.Loop](injector)
	require.NoError(t, err)
	assert.IsType(t, display.NopViewer{}, loop.Viewer)
	assert.Equal(t, &store.FileUploader{Dir: "out"}, loop.Uploader)

	gen, ok := loop.Generator.(*image.RouterGenerator)
	require.True(t, ok)
	assert.Equal(t, "hf_abc", gen.Token)
	assert.Equal(t, "http://localhost:8080/generate", gen.Endpoint)
	assert.Equal(t, time.Minute, gen.Client.Timeout)

	_, err = do.Invoke[*handler.Handler](injector)
	require.NoError(t, err)

	uploader, err := do.Invoke[store.Uploader](injector)
	require.NoError(t, err)
	assert.IsType(t, &store.FileUploader{}, uploader)

	invalidator, err := do.Invoke[store.Invalidator](injector)
	require.NoError(t, err)
	assert.IsType(t, store.NopInvalidator{}, invalidator)

	_, err = do.Invoke[*feed.Generator](injector)
	assert.Error(t, err)
}

func TestSetup_Stability(t *testing.T) {
	cfg := localConfig()
	cfg.Provider = config.ProviderStability
	injector := Setup(context.Background(), cfg)

	gen, err := do.Invoke[image.Generator](injector)
	require.NoError(t, err)
	assert.IsType(t, &image.StabilityGenerator{}, gen)
}

type failingFetcher struct {
	err error
}

func (f failingFetcher) Fetch(context.Context, string) (string, error) {
	return "", f.err
}

func (f failingFetcher) FetchAll(context.Context, string) ([]string, error) {
	return nil, f.err
}

func TestSetup_TokenFetchFails(t *testing.T) {
	cfg := localConfig()
	cfg.APIKey = ""
	cfg.APIKeyParam = "/imagegen/token"
	injector := Setup(context.Background(), cfg)

	denied := errors.New("access denied")
	do.OverrideValue[param.Fetcher](injector, failingFetcher{denied})

	assert.NotPanics(t, func() {
		_, err := do.Invoke[*cli.Loop](injector)
		assert.ErrorContains(t, err, "access denied")
	})
}
