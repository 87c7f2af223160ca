// Package uploads stores pickup photos on the local filesystem under
// generated names, so a client-supplied filename never reaches the disk.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/erazemk/ewaste/internal/imaging"
)

// MaxUploadSize caps a pickup submission including its photo.
const MaxUploadSize = 5 << 20

// ErrDisallowedType is returned for files that are not png, jpg, jpeg or gif,
// by name or by content.
var ErrDisallowedType = errors.New("file type not allowed")

var allowedExt = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"gif":  true,
}

// AllowedFile reports whether filename has an accepted image extension.
func AllowedFile(filename string) bool {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return false
	}
	return allowedExt[strings.ToLower(filename[i+1:])]
}

// Store is a directory of processed photos keyed by generated filenames.
type Store struct {
	Dir string
}

// NewStore creates dir if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}
	return &Store{Dir: dir}, nil
}

// Save checks filename, normalizes the image read from r, and writes it.
// It returns the key the photo is stored under.
func (s *Store) Save(filename string, r io.Reader) (string, error) {
	if !AllowedFile(filename) {
		return "", fmt.Errorf("%w: %s", ErrDisallowedType, filepath.Base(filename))
	}

	photo, err := imaging.Process(r)
	if errors.Is(err, imaging.ErrUnsupported) {
		return "", fmt.Errorf("%w: %v", ErrDisallowedType, err)
	}
	if err != nil {
		return "", err
	}

	key := uuid.NewString() + photo.Ext

	tmp, err := os.CreateTemp(s.Dir, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(photo.Data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing photo: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing photo: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.Dir, key)); err != nil {
		return "", fmt.Errorf("storing photo: %w", err)
	}

	return key, nil
}

// Open returns the stored photo for key.
func (s *Store) Open(key string) (*os.File, error) {
	if !ValidKey(key) {
		return nil, os.ErrNotExist
	}
	return os.Open(filepath.Join(s.Dir, key))
}

// Remove deletes the stored photo for key. Missing photos are not an error.
func (s *Store) Remove(key string) error {
	if !ValidKey(key) {
		return nil
	}
	err := os.Remove(filepath.Join(s.Dir, key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing photo: %w", err)
	}
	return nil
}

// ValidKey reports whether key has the shape Save produces.
func ValidKey(key string) bool {
	id, ok := strings.CutSuffix(key, ".jpg")
	if !ok {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil && len(id) == 36
}
