package image

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStabilityGenerator(t *testing.T) {
	img := pngBytes(t)

	t.Run("decodes base64 image", func(t *testing.T) {
		var form map[string]string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			if assert.NoError(t, r.ParseMultipartForm(1<<20)) {
				form = map[string]string{
					"prompt":          r.FormValue("prompt"),
					"negative_prompt": r.FormValue("negative_prompt"),
					"output_format":   r.FormValue("output_format"),
				}
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"image":"` + base64.StdEncoding.EncodeToString(img) + `","finish_reason":"SUCCESS","seed":1}`))
		}))
		defer srv.Close()

		g := &StabilityGenerator{Client: srv.Client(), Endpoint: srv.URL, Token: "sk-test"}
		res, err := g.Generate(context.Background(), Params{Prompt: "a red fox", NegativePrompt: lo.ToPtr("blurry")})
		require.NoError(t, err)

		assert.Equal(t, map[string]string{"prompt": "a red fox", "negative_prompt": "blurry", "output_format": "png"}, form)
		assert.Equal(t, img, res.Data)
		assert.Equal(t, 4, res.Image.Bounds().Dy())
	})

	t.Run("reports upstream error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"name":"forbidden","errors":["bad key"]}`))
		}))
		defer srv.Close()

		g := &StabilityGenerator{Client: srv.Client(), Endpoint: srv.URL, Token: "sk-test"}
		_, err := g.Generate(context.Background(), Params{Prompt: "a red fox"})
		assert.EqualError(t, err, `403: {"name":"forbidden","errors":["bad key"]}`)
	})

	t.Run("missing image field", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"finish_reason":"CONTENT_FILTERED"}`))
		}))
		defer srv.Close()

		g := &StabilityGenerator{Client: srv.Client(), Endpoint: srv.URL, Token: "sk-test"}
		_, err := g.Generate(context.Background(), Params{Prompt: "a red fox"})
		assert.EqualError(t, err, noImageMessage)
	})
}
