package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmorgan81/imagegen/internal/log"
)

type UploadParams struct {
	Name        string
	Data        []byte
	ContentType string
	Metadata    map[string]string
}

type Uploader interface {
	Upload(context.Context, UploadParams) error
}

// FileUploader writes uploads below Dir, creating it when missing.
type FileUploader struct {
	Dir string
}

func (u *FileUploader) Upload(ctx context.Context, params UploadParams) error {
	path := filepath.Join(u.Dir, params.Name)
	log.FromContextOrDiscard(ctx).WithGroup("file").Info("writing", "file", path, "bytes", len(params.Data))

	if u.Dir != "" {
		if err := os.MkdirAll(u.Dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", u.Dir, err)
		}
	}
	return os.WriteFile(path, params.Data, 0o600)
}
