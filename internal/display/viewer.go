package display

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/dmorgan81/imagegen/internal/log"
)

type Viewer interface {
	Show(ctx context.Context, name string, png []byte) error
}

// SystemViewer hands the image to the desktop's default image viewer. The
// temporary file is left behind for the viewer to read.
type SystemViewer struct {
	GOOS  string
	Start func(ctx context.Context, name string, args ...string) error
}

func NewSystemViewer() *SystemViewer {
	return &SystemViewer{GOOS: runtime.GOOS, Start: startDetached}
}

func (v *SystemViewer) Show(ctx context.Context, name string, png []byte) error {
	f, err := os.CreateTemp("", name+"-*.png")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := f.Write(png); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", f.Name(), err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	cmd, args := opener(v.GOOS, f.Name())
	log.FromContextOrDiscard(ctx).Debug("opening image viewer", "command", cmd, "file", f.Name())
	if err := v.Start(ctx, cmd, args...); err != nil {
		return fmt.Errorf("failed to open image viewer: %w", err)
	}
	return nil
}

func opener(goos, path string) (string, []string) {
	switch goos {
	case "darwin":
		return "open", []string{path}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", path}
	default:
		return "xdg-open", []string{path}
	}
}

func startDetached(_ context.Context, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait() //nolint:errcheck
	return nil
}

type NopViewer struct{}

func (NopViewer) Show(context.Context, string, []byte) error {
	return nil
}
