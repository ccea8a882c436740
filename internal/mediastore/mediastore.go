// Package mediastore stores frame and audio blobs on the local filesystem
// under a date-partitioned layout (frames/YYYY/MM/DD/..., audio/YYYY/MM/DD/...).
// All writes are confined to the configured base path.
package mediastore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tphakala/signbridge-go/internal/errors"
)

// Store writes media assets below BasePath. Collisions on an identical
// relative path overwrite the previous asset.
type Store struct {
	basePath string
}

// New creates a media store rooted at basePath, creating the directory if
// needed.
func New(basePath string) (*Store, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, errors.New(err).
			Component("mediastore").
			Category(errors.CategoryMediaStore).
			Context("base_path", basePath).
			Build()
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, errors.New(err).
			Component("mediastore").
			Category(errors.CategoryMediaStore).
			Context("base_path", basePath).
			Build()
	}
	return &Store{basePath: abs}, nil
}

// BasePath returns the absolute root of the store.
func (s *Store) BasePath() string {
	return s.basePath
}

// SaveFrame writes a frame snapshot and returns its store-relative path,
// e.g. frames/2026/08/28/frame_12_153045_a1b2c3d4.jpg.
func (s *Store) SaveFrame(name string, ts time.Time, data []byte) (string, error) {
	return s.save("frames", name, ts, data)
}

// SaveAudio writes a generated TTS audio asset under audio/YYYY/MM/DD.
func (s *Store) SaveAudio(name string, ts time.Time, data []byte) (string, error) {
	return s.save("audio", name, ts, data)
}

// Read returns the contents of a previously stored asset.
func (s *Store) Read(relPath string) ([]byte, error) {
	full, err := s.resolve(relPath)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, errors.New(err).
			Component("mediastore").
			Category(errors.CategoryMediaStore).
			Context("path", relPath).
			Build()
	}
	return data, nil
}

// Remove deletes a stored asset. Missing assets are not an error.
func (s *Store) Remove(relPath string) error {
	full, err := s.resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return errors.New(err).
			Component("mediastore").
			Category(errors.CategoryMediaStore).
			Context("path", relPath).
			Build()
	}
	return nil
}

func (s *Store) save(kind, name string, ts time.Time, data []byte) (string, error) {
	relPath := filepath.Join(kind, ts.Format("2006"), ts.Format("01"), ts.Format("02"), name)
	full, err := s.resolve(relPath)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", errors.New(err).
			Component("mediastore").
			Category(errors.CategoryMediaStore).
			Context("path", relPath).
			Build()
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", errors.New(err).
			Component("mediastore").
			Category(errors.CategoryMediaStore).
			Context("path", relPath).
			Build()
	}
	return filepath.ToSlash(relPath), nil
}

// resolve joins relPath to the base path and rejects traversal outside it.
func (s *Store) resolve(relPath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(relPath))
	if filepath.IsAbs(cleaned) || strings.HasPrefix(cleaned, "..") {
		return "", errors.Newf("path escapes media store: %s", relPath).
			Component("mediastore").
			Category(errors.CategoryValidation).
			Build()
	}
	full := filepath.Join(s.basePath, cleaned)
	if !strings.HasPrefix(full, s.basePath+string(os.PathSeparator)) && full != s.basePath {
		return "", errors.Newf("path escapes media store: %s", relPath).
			Component("mediastore").
			Category(errors.CategoryValidation).
			Build()
	}
	return full, nil
}

// FrameName builds the conventional frame asset name for a session. The
// uuid suffix keeps same-second frames from colliding; a true collision
// overwrites, which is acceptable.
func FrameName(sessionID uint, ts time.Time, suffix string) string {
	return fmt.Sprintf("frame_%d_%s_%s.jpg", sessionID, ts.Format("150405"), suffix)
}
