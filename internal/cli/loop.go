package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dmorgan81/imagegen/internal/display"
	"github.com/dmorgan81/imagegen/internal/image"
	"github.com/dmorgan81/imagegen/internal/log"
	"github.com/dmorgan81/imagegen/internal/store"
	"github.com/samber/do"
	"github.com/samber/lo"
)

var separator = strings.Repeat("-", 70)

// Loop is the interactive prompt → image → save session.
type Loop struct {
	In        io.Reader
	Out       io.Writer
	Generator image.Generator
	Uploader  store.Uploader
	Viewer    display.Viewer
}

func NewLoop(i *do.Injector) (*Loop, error) {
	return &Loop{
		In:        os.Stdin,
		Out:       os.Stdout,
		Generator: do.MustInvoke[image.Generator](i),
		Uploader:  do.MustInvokeNamed[store.Uploader](i, "local"),
		Viewer:    do.MustInvoke[display.Viewer](i),
	}, nil
}

func (l *Loop) Run(ctx context.Context) error {
	logger := log.FromContextOrDiscard(ctx).WithGroup("cli")
	in := bufio.NewScanner(l.In)

	ask := func(question string) (string, bool) {
		fmt.Fprint(l.Out, question)
		if !in.Scan() {
			return "", false
		}
		return strings.TrimSpace(in.Text()), true
	}

	fmt.Fprintln(l.Out, "=== Text-to-Image Generator ===")
	fmt.Fprint(l.Out, "Type 'exit' to quit.\n\n")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		prompt, ok := ask("Enter a text prompt:\n> ")
		if !ok {
			fmt.Fprintln(l.Out, "\nGoodbye!")
			return in.Err()
		}
		if strings.EqualFold(prompt, "exit") {
			fmt.Fprintln(l.Out, "Goodbye!")
			return nil
		}
		if prompt == "" {
			fmt.Fprint(l.Out, "A prompt is required.\n\n")
			continue
		}

		neg, ok := ask("Enter a negative prompt (or press Enter to skip):\n> ")
		if !ok {
			fmt.Fprintln(l.Out, "\nGoodbye!")
			return in.Err()
		}
		params := image.Params{Prompt: prompt, NegativePrompt: lo.Ternary[*string](neg != "", &neg, nil)}

		fmt.Fprintln(l.Out, "\nGenerating image with the following parameters:")
		fmt.Fprintf(l.Out, " Prompt: %s\n", prompt)
		fmt.Fprintf(l.Out, " Negative Prompt: %s\n", lo.Ternary(neg != "", neg, "(None)"))
		fmt.Fprint(l.Out, "Please wait...\n\n")

		if err := l.round(ctx, params, ask); err != nil {
			logger.Error("generation failed", "error", err)
			fmt.Fprintf(l.Out, "An error occurred: %v\n\n", err)
		}

		fmt.Fprint(l.Out, separator+"\n\n")
	}
}

func (l *Loop) round(ctx context.Context, params image.Params, ask func(string) (string, bool)) error {
	res, err := l.Generator.Generate(ctx, params)
	if err != nil {
		return err
	}

	png, err := store.EncodePNG(res.Image)
	if err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}

	if err := l.Viewer.Show(ctx, store.DefaultName, png); err != nil {
		log.FromContextOrDiscard(ctx).Warn("cannot display image", "error", err)
		fmt.Fprintf(l.Out, "Could not display the image: %v\n", err)
	}

	answer, _ := ask("Do you want to save this image? (yes/no): ")
	if strings.ToLower(answer) != "yes" {
		return nil
	}

	name, _ := ask("Enter a name for the image file (without extension): ")
	file := store.SanitizeName(name) + ".png"
	err = l.Uploader.Upload(ctx, store.UploadParams{
		Name:        file,
		Data:        png,
		ContentType: "image/png",
	})
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", file, err)
	}

	fmt.Fprintf(l.Out, "Image saved as %s\n\n", file)
	return nil
}
