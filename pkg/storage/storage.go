// Package storage keeps generated files (QR images) on a filesystem and
// builds their public URLs.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path"
	"strings"

	"github.com/spf13/afero"
)

type Storage interface {
	// Put writes data under key and returns its public URL
	Put(key string, data []byte) (string, error)
	Delete(key string) error
	URL(key string) string
	// KeyFromURL reverses URL; ok is false for foreign URLs
	KeyFromURL(rawURL string) (key string, ok bool)
}

type fileStorage struct {
	fs        afero.Fs
	publicURL string
}

// New stores files under root on the OS filesystem
func New(root, publicURL string) Storage {
	return NewWithFs(afero.NewBasePathFs(afero.NewOsFs(), root), publicURL)
}

// NewWithFs stores files on an arbitrary afero filesystem
func NewWithFs(fsys afero.Fs, publicURL string) Storage {
	return &fileStorage{fs: fsys, publicURL: strings.TrimRight(publicURL, "/")}
}

func cleanKey(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return strings.TrimPrefix(clean, "/"), nil
}

func (s *fileStorage) Put(key string, data []byte) (string, error) {
	key, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if err := s.fs.MkdirAll(path.Dir(key), 0o755); err != nil {
		return "", fmt.Errorf("create directory for %s: %w", key, err)
	}
	if err := afero.WriteFile(s.fs, key, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	return s.URL(key), nil
}

// Delete is a no-op for missing files
func (s *fileStorage) Delete(key string) error {
	key, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(key); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (s *fileStorage) URL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	return s.publicURL + "/" + strings.TrimPrefix(escaped, "/")
}

func (s *fileStorage) KeyFromURL(rawURL string) (string, bool) {
	prefix := s.publicURL + "/"
	if !strings.HasPrefix(rawURL, prefix) {
		return "", false
	}
	key, err := url.PathUnescape(strings.TrimPrefix(rawURL, prefix))
	if err != nil || key == "" {
		return "", false
	}
	return key, true
}
