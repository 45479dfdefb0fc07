// Package artifacts persists generated calendar images. Every backend files
// images under a per-calendar namespace keyed by month number and returns a
// reference clients can fetch directly.
package artifacts

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/tbourn/pet-calendar-backend/internal/config"
)

// Store writes generated images.
type Store interface {
	// Prepare ensures the namespace for calendarID exists. It is idempotent.
	Prepare(ctx context.Context, calendarID uint) error
	// Put writes the image for one month and returns its public reference.
	Put(ctx context.Context, calendarID uint, month int, data []byte, contentType string) (string, error)
}

// ObjectKey is the storage key of a month image, relative to the store root.
func ObjectKey(calendarID uint, month int) string {
	return "generated/" + strconv.FormatUint(uint64(calendarID), 10) + "/" + strconv.Itoa(month) + ".png"
}

// New builds the Store selected by cfg.Backend.
func New(ctx context.Context, cfg config.ArtifactConfig) (Store, error) {
	switch cfg.Backend {
	case config.ArtifactLocal, "":
		return NewLocal(cfg.Dir), nil
	case config.ArtifactGCS:
		return NewGCS(ctx, cfg)
	case config.ArtifactS3:
		return NewS3(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown artifact backend %q", cfg.Backend)
	}
}

// Local stores images on the filesystem under Root/<id>/<month>.png. The
// directory is served by the HTTP layer at /generated.
type Local struct {
	Root string
}

// NewLocal returns a filesystem store rooted at dir.
func NewLocal(dir string) *Local { return &Local{Root: dir} }

func (l *Local) dir(calendarID uint) string {
	return filepath.Join(l.Root, strconv.FormatUint(uint64(calendarID), 10))
}

// Prepare creates the calendar directory.
func (l *Local) Prepare(_ context.Context, calendarID uint) error {
	return os.MkdirAll(l.dir(calendarID), 0o755)
}

// Put writes to a temp file and renames it so readers never see a partial
// image.
func (l *Local) Put(ctx context.Context, calendarID uint, month int, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir := l.dir(calendarID)
	tmp, err := os.CreateTemp(dir, ".month-*.tmp")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, strconv.Itoa(month)+".png")); err != nil {
		return "", err
	}
	return "/" + ObjectKey(calendarID, month), nil
}

// copyAll is a small io.Copy wrapper that closes w and reports the first
// error of either step.
func copyAll(w io.WriteCloser, r io.Reader) error {
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
