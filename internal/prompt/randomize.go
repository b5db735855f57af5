package prompt

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/dmorgan81/imagegen/internal/image"
	"github.com/dmorgan81/imagegen/internal/log"
	"github.com/samber/do"
)

var ErrNoPrompts = errors.New("no prompts configured")

// Randomizer picks one of a stored list of "prompt|negative prompt" lines.
// The negative part is optional.
type Randomizer struct {
	prompts []string
	rnd     *rand.Rand
}

func New(prompts []string, seed int64) *Randomizer {
	return &Randomizer{prompts, rand.New(rand.NewSource(seed))}
}

func NewRandomizer(i *do.Injector) (*Randomizer, error) {
	prompts := do.MustInvokeNamed[[]string](i, "prompts")
	return New(prompts, time.Now().UTC().Unix()), nil
}

func (r *Randomizer) Randomize(ctx context.Context) (image.Params, error) {
	log := log.FromContextOrDiscard(ctx).WithGroup("randomizer")
	if len(r.prompts) == 0 {
		return image.Params{}, ErrNoPrompts
	}

	idx := r.rnd.Intn(len(r.prompts))
	log.Info("picked random prompt", "index", idx, "of", len(r.prompts))
	return Parse(r.prompts[idx]), nil
}

func Parse(line string) image.Params {
	prompt, neg, found := strings.Cut(line, "|")
	params := image.Params{Prompt: strings.TrimSpace(prompt)}
	if neg = strings.TrimSpace(neg); found && neg != "" {
		params.NegativePrompt = &neg
	}
	return params
}
