package handler

import (
	"context"
	"time"

	"github.com/dmorgan81/imagegen/internal/feed"
	"github.com/dmorgan81/imagegen/internal/image"
	"github.com/dmorgan81/imagegen/internal/log"
	"github.com/dmorgan81/imagegen/internal/page"
	"github.com/dmorgan81/imagegen/internal/prompt"
	"github.com/dmorgan81/imagegen/internal/store"
	"github.com/samber/do"
	"github.com/samber/lo"
)

type Input struct {
	Date           string  `json:"date,omitempty"`
	Name           string  `json:"name,omitempty"`
	Prompt         string  `json:"prompt,omitempty"`
	NegativePrompt *string `json:"negative_prompt,omitempty"`
}

func (i Input) toImageParams() image.Params {
	return image.Params{
		Prompt:         i.Prompt,
		NegativePrompt: i.NegativePrompt,
	}
}

func (i Input) toPageParams() page.Params {
	return page.Params{
		Image:          i.Name + ".png",
		Prompt:         i.Prompt,
		NegativePrompt: lo.FromPtr(i.NegativePrompt),
		Date:           i.Date,
	}
}

func (i Input) toMetadata() map[string]string {
	meta := map[string]string{
		"date":   i.Date,
		"name":   i.Name,
		"prompt": i.Prompt,
	}
	if i.NegativePrompt != nil {
		meta["negative-prompt"] = *i.NegativePrompt
	}
	return meta
}

type Output Input

type FeedGenerator interface {
	Generate(context.Context) ([]byte, error)
}

type Handler struct {
	randomizer  *prompt.Randomizer
	generator   image.Generator
	uploader    store.Uploader
	invalidator store.Invalidator
	templator   *page.Templator
	feed        FeedGenerator
	now         func() time.Time
}

func NewHandler(i *do.Injector) (*Handler, error) {
	h := &Handler{
		randomizer:  do.MustInvoke[*prompt.Randomizer](i),
		generator:   do.MustInvoke[image.Generator](i),
		uploader:    do.MustInvoke[store.Uploader](i),
		invalidator: do.MustInvoke[store.Invalidator](i),
		templator:   do.MustInvoke[*page.Templator](i),
		now:         time.Now,
	}
	if g, err := do.Invoke[*feed.Generator](i); err == nil {
		h.feed = g
	}
	return h, nil
}

func (h *Handler) Handle(ctx context.Context, input Input) (Output, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("Handler").With("input", input)
	log.Info("handling invocation")

	if input.Prompt == "" {
		params, err := h.randomizer.Randomize(ctx)
		if err != nil {
			return Output{}, err
		}
		input.Prompt = params.Prompt
		if input.NegativePrompt == nil {
			input.NegativePrompt = params.NegativePrompt
		}
	}

	latest := false
	if input.Date == "" {
		input.Date = h.now().UTC().Format("20060102")
		latest = true
	}
	input.Name = store.SanitizeName(lo.Ternary(input.Name != "", input.Name, input.Date))

	res, err := h.generator.Generate(ctx, input.toImageParams())
	if err != nil {
		return Output{}, err
	}
	img, err := store.EncodePNG(res.Image)
	if err != nil {
		return Output{}, err
	}

	html, err := h.templator.Template(ctx, input.toPageParams())
	if err != nil {
		return Output{}, err
	}

	metadata := input.toMetadata()
	uploads := []store.UploadParams{
		{Name: input.Name + ".png", Data: img, ContentType: "image/png", Metadata: metadata},
		{Name: input.Name + ".html", Data: html, ContentType: "text/html", Metadata: metadata},
	}
	if latest {
		uploads = append(uploads,
			store.UploadParams{Name: "latest.png", Data: img, ContentType: "image/png", Metadata: metadata},
			store.UploadParams{Name: "latest.html", Data: html, ContentType: "text/html", Metadata: metadata},
		)
	}
	for _, u := range uploads {
		if err := h.uploader.Upload(ctx, u); err != nil {
			return Output{}, err
		}
	}

	if h.feed != nil {
		rss, err := h.feed.Generate(ctx)
		if err != nil {
			return Output{}, err
		}
		u := store.UploadParams{Name: feed.Name, Data: rss, ContentType: "application/rss+xml"}
		if err := h.uploader.Upload(ctx, u); err != nil {
			return Output{}, err
		}
		uploads = append(uploads, u)
	}

	paths := lo.Map(uploads, func(u store.UploadParams, _ int) string { return "/" + u.Name })
	if err := h.invalidator.Invalidate(ctx, paths); err != nil {
		return Output{}, err
	}

	return Output(input), nil
}
