package image

import (
	"bytes"
	"context"
	goimage "image"

	"github.com/disintegration/imaging"
)

type Params struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt *string `json:"negative_prompt,omitempty"`
}

// Result is the first image an upstream API returned for a Params.
type Result struct {
	Image       goimage.Image
	Data        []byte
	ContentType string

	// Variant and Attempts locate the submission that produced the image.
	Variant  int
	Attempts int
}

type Generator interface {
	Generate(context.Context, Params) (*Result, error)
}

func decode(data []byte) (goimage.Image, error) {
	return imaging.Decode(bytes.NewReader(data))
}
