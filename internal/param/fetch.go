package param

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/samber/lo"
)

type Fetcher interface {
	Fetch(context.Context, string) (string, error)
	FetchAll(context.Context, string) ([]string, error)
}

// EnvFetcher reads parameters from environment variables. FetchAll splits
// the variable on newlines and drops blank lines.
type EnvFetcher struct{}

func (EnvFetcher) Fetch(_ context.Context, name string) (string, error) {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return "", fmt.Errorf("%s is not set", name)
	}
	return v, nil
}

func (f EnvFetcher) FetchAll(ctx context.Context, name string) ([]string, error) {
	v, err := f.Fetch(ctx, name)
	if err != nil {
		return nil, err
	}
	lines := lo.Map(strings.Split(v, "\n"), func(s string, _ int) string { return strings.TrimSpace(s) })
	return lo.Filter(lines, func(s string, _ int) bool { return s != "" }), nil
}
