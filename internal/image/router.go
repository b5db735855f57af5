package image

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dmorgan81/imagegen/internal/log"
	"github.com/samber/do"
	"github.com/samber/lo"
)

const (
	DefaultModel    = "stabilityai/stable-diffusion-3-medium-diffusers"
	DefaultTimeout  = 120 * time.Second
	DefaultAttempts = 3

	routerBaseURL = "https://router.huggingface.co/hf-inference/models/"
)

func RouterURL(model string) string {
	return routerBaseURL + model
}

var retryableStatus = map[int]bool{
	http.StatusBadGateway:         true,
	http.StatusServiceUnavailable: true,
	http.StatusGatewayTimeout:     true,
}

// RouterGenerator submits prompts to a hosted inference endpoint that
// answers with raw image bytes. The exact body shape the deployment accepts
// is not known up front, so every shape from Payloads is tried in turn.
type RouterGenerator struct {
	Client   *http.Client
	Endpoint string
	Token    string

	// Attempts caps submissions per payload; zero means DefaultAttempts.
	Attempts int

	// Sleep waits between retries of the same payload. Nil sleeps on the wall clock.
	Sleep func(context.Context, time.Duration) error
}

func NewRouterGenerator(i *do.Injector) (Generator, error) {
	return &RouterGenerator{
		Client:   do.MustInvoke[*http.Client](i),
		Endpoint: do.MustInvokeNamed[string](i, "endpoint"),
		Token:    do.MustInvokeNamed[string](i, "api_token"),
		Attempts: do.MustInvokeNamed[int](i, "attempts"),
	}, nil
}

type reply struct {
	status      int
	contentType string
	body        []byte
}

func (g *RouterGenerator) Generate(ctx context.Context, params Params) (*Result, error) {
	logger := log.FromContextOrDiscard(ctx).WithGroup("router").With("endpoint", g.Endpoint)
	payloads := Payloads(params)
	attempts := lo.Ternary(g.Attempts > 0, g.Attempts, DefaultAttempts)

	var lastErr string
	for v, payload := range payloads {
		body, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}

		for attempt := 0; attempt < attempts; attempt++ {
			logger.Info("submitting payload", "variant", v+1, "of", len(payloads), "attempt", attempt+1)

			r, err := g.post(ctx, body)
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				lastErr = "Request failed: " + err.Error()
				logger.Warn("request failed", "variant", v+1, "error", err)
				break
			}

			if r.status == http.StatusOK && strings.HasPrefix(r.contentType, "image/") {
				img, err := decode(r.body)
				if err == nil {
					logger.Info("received image", "variant", v+1, "content_type", r.contentType, "bytes", len(r.body))
					return &Result{
						Image:       img,
						Data:        r.body,
						ContentType: r.contentType,
						Variant:     v,
						Attempts:    attempt + 1,
					}, nil
				}
				return nil, &GenerationError{Message: fmt.Sprintf("%d: cannot decode image: %v", r.status, err)}
			}

			lastErr = fmt.Sprintf("%d: %s", r.status, errorMessage(r.status, r.body))
			logger.Warn("upstream rejected payload", "variant", v+1, "status", r.status, "error", lastErr)

			if !retryableStatus[r.status] {
				break
			}
			if attempt+1 < attempts {
				wait := time.Duration(1+attempt) * time.Second
				logger.Debug("waiting before retry", "wait", wait)
				if err := g.sleep(ctx, wait); err != nil {
					return nil, err
				}
			}
		}
	}

	return nil, &GenerationError{Message: lo.Ternary(lastErr != "", lastErr, noImageMessage)}
}

func (g *RouterGenerator) post(ctx context.Context, body []byte) (*reply, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+g.Token)
	req.Header.Set("Accept", "image/png")
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	return &reply{
		status:      resp.StatusCode,
		contentType: strings.ToLower(resp.Header.Get("Content-Type")),
		body:        data,
	}, nil
}

func (g *RouterGenerator) sleep(ctx context.Context, d time.Duration) error {
	if g.Sleep != nil {
		return g.Sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
