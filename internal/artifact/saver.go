package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Saver persists a certificate document and reports where it went.
type Saver interface {
	Save(ctx context.Context, filename string, data []byte) (string, error)
}

// FileSaver writes artifacts into a directory.
type FileSaver struct {
	dir string
	log zerolog.Logger
}

// NewFileSaver creates a FileSaver rooted at dir.
func NewFileSaver(dir string, log zerolog.Logger) *FileSaver {
	return &FileSaver{
		dir: dir,
		log: log.With().Str("component", "artifact_saver").Logger(),
	}
}

// Save writes data to dir/filename. The write goes to a temp file first and
// is renamed into place so a partial certificate is never left behind.
func (s *FileSaver) Save(_ context.Context, filename string, data []byte) (string, error) {
	if filename == "" || filename != filepath.Base(filename) {
		return "", fmt.Errorf("invalid artifact name %q", filename)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".certificate-*")
	if err != nil {
		return "", fmt.Errorf("create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close artifact: %w", err)
	}

	dst := filepath.Join(s.dir, filename)
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return "", fmt.Errorf("move artifact: %w", err)
	}

	s.log.Info().Str("path", dst).Int("bytes", len(data)).Msg("Certificate saved")
	return dst, nil
}
