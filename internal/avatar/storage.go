// Package avatar stores profile pictures on local disk and removes them when
// they are replaced or their owner is deleted.
package avatar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	nanoid "github.com/jaevor/go-nanoid"

	"github.com/phrazzld/taskflow-api/internal/platform/logger"
)

// URLPrefix is the public path avatars are served under.
const URLPrefix = "/uploads/avatars/"

const subdir = "avatars"

var (
	ErrTooLarge        = errors.New("avatar exceeds the maximum size")
	ErrUnsupportedType = errors.New("avatar must be a raster image")
	ErrEmpty           = errors.New("avatar file is empty")
)

// Stored describes a saved avatar.
type Stored struct {
	FileName    string
	URL         string
	ContentType string
	Size        int64
}

// DiskStorage writes avatars to <root>/avatars.
type DiskStorage struct {
	dir      string
	maxBytes int64
	newID    func() string
	logger   *slog.Logger
}

// NewDiskStorage creates the avatar directory under root if needed.
func NewDiskStorage(root string, maxBytes int64, logger *slog.Logger) (*DiskStorage, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dir := filepath.Join(root, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create avatar directory: %w", err)
	}
	gen, err := nanoid.Standard(16)
	if err != nil {
		return nil, fmt.Errorf("failed to create id generator: %w", err)
	}
	return &DiskStorage{
		dir:      dir,
		maxBytes: maxBytes,
		newID:    gen,
		logger:   logger.With(slog.String("component", "avatar_storage")),
	}, nil
}

// Dir is the directory avatars are written to.
func (s *DiskStorage) Dir() string {
	return s.dir
}

// Save reads at most maxBytes from r, checks the content is a raster image by
// sniffing it, and writes it as avatar_<userID>_<random><ext>. SVG is refused
// since avatars are served from the API origin and SVG can carry script.
func (s *DiskStorage) Save(ctx context.Context, userID uuid.UUID, r io.Reader) (*Stored, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read avatar: %w", err)
	}
	switch {
	case len(data) == 0:
		return nil, ErrEmpty
	case int64(len(data)) > s.maxBytes:
		return nil, ErrTooLarge
	}

	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") || mime.Is("image/svg+xml") {
		log.Debug("rejected avatar upload",
			slog.String("user_id", userID.String()),
			slog.String("content_type", mime.String()))
		return nil, ErrUnsupportedType
	}

	name := fmt.Sprintf("avatar_%s_%s%s", userID, s.newID(), mime.Extension())
	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create avatar file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return nil, fmt.Errorf("failed to write avatar: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("failed to write avatar: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return nil, fmt.Errorf("failed to set avatar permissions: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, name)); err != nil {
		return nil, fmt.Errorf("failed to store avatar: %w", err)
	}

	log.Info("avatar stored",
		slog.String("user_id", userID.String()),
		slog.String("file", name),
		slog.Int("bytes", len(data)))

	return &Stored{
		FileName:    name,
		URL:         URLPrefix + name,
		ContentType: mime.String(),
		Size:        int64(len(data)),
	}, nil
}

// Remove deletes the file behind url. URLs that do not point into local
// storage, such as provider-hosted OAuth pictures, are ignored, as are files
// that are already gone.
func (s *DiskStorage) Remove(ctx context.Context, url string) error {
	name, ok := s.fileName(url)
	if !ok {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove avatar: %w", err)
	}
	logger.FromContextOrDefault(ctx, s.logger).Debug("avatar removed", slog.String("file", name))
	return nil
}

// IsLocal reports whether url refers to a stored avatar.
func (s *DiskStorage) IsLocal(url string) bool {
	_, ok := s.fileName(url)
	return ok
}

func (s *DiskStorage) fileName(url string) (string, bool) {
	name, ok := strings.CutPrefix(url, URLPrefix)
	if !ok || name == "" || name != filepath.Base(name) || !strings.HasPrefix(name, "avatar_") {
		return "", false
	}
	return name, true
}
