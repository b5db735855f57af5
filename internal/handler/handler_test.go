package handler

import (
	"context"
	"errors"
	goimage "image"
	"testing"
	"time"

	"github.com/dmorgan81/imagegen/internal/image"
	"github.com/dmorgan81/imagegen/internal/page"
	"github.com/dmorgan81/imagegen/internal/prompt"
	"github.com/dmorgan81/imagegen/internal/store"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	got image.Params
	err error
}

func (f *fakeGenerator) Generate(_ context.Context, p image.Params) (*image.Result, error) {
	f.got = p
	if f.err != nil {
		return nil, f.err
	}
	return &image.Result{Image: goimage.NewNRGBA(goimage.Rect(0, 0, 2, 2)), Variant: 1, Attempts: 1}, nil
}

type fakeUploader struct {
	uploads []store.UploadParams
}

func (f *fakeUploader) Upload(_ context.Context, p store.UploadParams) error {
	f.uploads = append(f.uploads, p)
	return nil
}

type fakeInvalidator struct {
	paths []string
}

func (f *fakeInvalidator) Invalidate(_ context.Context, paths []string) error {
	f.paths = paths
	return nil
}

type fakeFeed struct{}

func (fakeFeed) Generate(context.Context) ([]byte, error) {
	return []byte("<rss/>"), nil
}

func newTestHandler(prompts ...string) (*Handler, *fakeGenerator, *fakeUploader, *fakeInvalidator) {
	gen := &fakeGenerator{}
	up := &fakeUploader{}
	inv := &fakeInvalidator{}
	return &Handler{
		randomizer:  prompt.New(prompts, 1),
		generator:   gen,
		uploader:    up,
		invalidator: inv,
		templator:   &page.Templator{},
		now:         func() time.Time { return time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC) },
	}, gen, up, inv
}

func names(uploads []store.UploadParams) []string {
	return lo.Map(uploads, func(u store.UploadParams, _ int) string { return u.Name })
}

func TestHandle_RandomPromptToday(t *testing.T) {
	h, gen, up, inv := newTestHandler("a red fox | blurry")
	h.feed = fakeFeed{}

	out, err := h.Handle(context.Background(), Input{})
	require.NoError(t, err)

	assert.Equal(t, "20261018", out.Date)
	assert.Equal(t, "20261018", out.Name)
	assert.Equal(t, "a red fox", out.Prompt)
	require.NotNil(t, out.NegativePrompt)
	assert.Equal(t, "blurry", *out.NegativePrompt)
	assert.Equal(t, "a red fox", gen.got.Prompt)

	assert.Equal(t, []string{"20261018.png", "20261018.html", "latest.png", "latest.html", "feed.xml"}, names(up.uploads))
	assert.Equal(t, "image/png", up.uploads[0].ContentType)
	assert.Equal(t, "blurry", up.uploads[0].Metadata["negative-prompt"])
	assert.Equal(t, "application/rss+xml", up.uploads[4].ContentType)
	assert.Equal(t, []string{"/20261018.png", "/20261018.html", "/latest.png", "/latest.html", "/feed.xml"}, inv.paths)
}

func TestHandle_ExplicitInput(t *testing.T) {
	h, gen, up, inv := newTestHandler()

	out, err := h.Handle(context.Background(), Input{Date: "20261001", Name: "my fox!", Prompt: "a fox"})
	require.NoError(t, err)

	assert.Equal(t, "myfox", out.Name)
	assert.Nil(t, gen.got.NegativePrompt)
	assert.Equal(t, []string{"myfox.png", "myfox.html"}, names(up.uploads))
	assert.NotContains(t, up.uploads[0].Metadata, "negative-prompt")
	assert.Equal(t, []string{"/myfox.png", "/myfox.html"}, inv.paths)
}

func TestHandle_NoPrompts(t *testing.T) {
	h, _, up, _ := newTestHandler()

	_, err := h.Handle(context.Background(), Input{})
	assert.ErrorIs(t, err, prompt.ErrNoPrompts)
	assert.Empty(t, up.uploads)
}

func TestHandle_GenerationError(t *testing.T) {
	h, gen, up, inv := newTestHandler()
	gen.err = &image.GenerationError{Message: "Model is overloaded"}

	_, err := h.Handle(context.Background(), Input{Prompt: "a fox"})

	var genErr *image.GenerationError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, "Model is overloaded", genErr.Message)
	assert.Empty(t, up.uploads)
	assert.Nil(t, inv.paths)
}
