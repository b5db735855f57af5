package page

import (
	"bytes"
	"context"
	_ "embed"
	"html/template"
	"sync"

	"github.com/dmorgan81/imagegen/internal/log"
	"github.com/samber/do"
)

//go:embed assets/image.html
var imageTmpl string

type Params struct {
	Image          string
	Prompt         string
	NegativePrompt string
	Date           string
}

type Templator struct {
	tmpl *template.Template
	once sync.Once
}

func NewTemplator(*do.Injector) (*Templator, error) {
	return &Templator{}, nil
}

func (g *Templator) Template(ctx context.Context, params Params) ([]byte, error) {
	g.once.Do(func() {
		g.tmpl = template.Must(template.New("image").Parse(imageTmpl))
	})

	log.FromContextOrDiscard(ctx).WithGroup("templator").Info("generating page", "image", params.Image)

	var data bytes.Buffer
	if err := g.tmpl.Execute(&data, params); err != nil {
		return nil, err
	}
	return data.Bytes(), nil
}
