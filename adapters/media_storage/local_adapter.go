package media_storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/khoahotran/profile-portal/internal/application/service"
	"github.com/khoahotran/profile-portal/internal/domain/upload"
	"github.com/khoahotran/profile-portal/pkg/logger"
)

// PublicPrefix is the leading segment of every reference the local adapter
// hands out, and the URL prefix under which the files are served.
const PublicPrefix = "uploads"

type localAdapter struct {
	baseDir string
	logger  logger.Logger
}

// NewLocalAdapter stores files under baseDir/<slot dir>/<name> and returns
// references of the form uploads/<slot dir>/<name>.
func NewLocalAdapter(baseDir string, log logger.Logger) (service.FileStorage, error) {
	for _, slot := range upload.Slots() {
		if err := os.MkdirAll(filepath.Join(baseDir, slot.Dir()), 0o755); err != nil {
			return nil, fmt.Errorf("create upload dir: %w", err)
		}
	}
	log.Info("Local file storage ready at " + baseDir)
	return &localAdapter{baseDir: baseDir, logger: log}, nil
}

func (a *localAdapter) Store(ctx context.Context, slot upload.Slot, fileName string, file io.Reader) (string, error) {
	if fileName == "" || fileName != filepath.Base(fileName) {
		return "", fmt.Errorf("invalid file name %q", fileName)
	}
	target := filepath.Join(a.baseDir, slot.Dir(), fileName)

	// Write next to the target and rename so readers never see partial files.
	tmp, err := os.CreateTemp(filepath.Dir(target), ".incoming-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, readerWithContext(ctx, file)); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close upload: %w", err)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return "", fmt.Errorf("move upload into place: %w", err)
	}

	return path.Join(PublicPrefix, slot.Dir(), fileName), nil
}

func (a *localAdapter) Delete(_ context.Context, ref string) error {
	p, err := a.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete upload: %w", err)
	}
	return nil
}

// resolve maps a reference back to a path inside baseDir, refusing anything
// that would escape it.
func (a *localAdapter) resolve(ref string) (string, error) {
	rel, ok := strings.CutPrefix(path.Clean("/"+ref), "/"+PublicPrefix+"/")
	if !ok || rel == "" {
		return "", fmt.Errorf("reference %q is not a local upload", ref)
	}
	return filepath.Join(a.baseDir, filepath.FromSlash(rel)), nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
