package image

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/dmorgan81/imagegen/internal/log"
	"github.com/samber/do"
	"github.com/tidwall/gjson"
)

const StabilityURL = "https://api.stability.ai/v2beta/stable-image/generate/core"

// StabilityGenerator talks to the Stability image API, which takes a
// multipart form and answers with base64 encoded image JSON. It makes a
// single submission per call.
type StabilityGenerator struct {
	Client   *http.Client
	Endpoint string
	Token    string
}

func NewStabilityGenerator(i *do.Injector) (Generator, error) {
	return &StabilityGenerator{
		Client:   do.MustInvoke[*http.Client](i),
		Endpoint: do.MustInvokeNamed[string](i, "endpoint"),
		Token:    do.MustInvokeNamed[string](i, "api_token"),
	}, nil
}

func (g *StabilityGenerator) Generate(ctx context.Context, params Params) (*Result, error) {
	logger := log.FromContextOrDiscard(ctx).WithGroup("stability").With("endpoint", g.Endpoint)
	logger.Info("generating image")

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fields := [][2]string{{"prompt", params.Prompt}, {"output_format", "png"}}
	if neg := params.NegativePrompt; neg != nil && *neg != "" {
		fields = append(fields, [2]string{"negative_prompt", *neg})
	}
	for _, f := range fields {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", f[0], err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.Endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+g.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, &GenerationError{Message: "Request failed: " + err.Error()}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &GenerationError{Message: "Request failed: " + err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("%d: %s", resp.StatusCode, errorMessage(resp.StatusCode, data))
		logger.Warn("upstream rejected request", "status", resp.StatusCode, "error", msg)
		return nil, &GenerationError{Message: msg}
	}

	encoded := gjson.GetBytes(data, "image").String()
	if encoded == "" {
		return nil, &GenerationError{Message: noImageMessage}
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, &GenerationError{Message: fmt.Sprintf("cannot decode image: %v", err)}
	}
	img, err := decode(raw)
	if err != nil {
		return nil, &GenerationError{Message: fmt.Sprintf("cannot decode image: %v", err)}
	}

	logger.Info("received image", "bytes", len(raw), "finish_reason", gjson.GetBytes(data, "finish_reason").String())
	return &Result{Image: img, Data: raw, ContentType: "image/png", Attempts: 1}, nil
}
