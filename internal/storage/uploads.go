package storage

import (
	"errors"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrUnsupportedType is returned for uploads whose extension is not an
// allowed image type.
var ErrUnsupportedType = errors.New("unsupported file type")

var allowedExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// Store saves uploaded images under a single configured directory and hands
// back the generated filename that gets persisted on the owning row.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	return &Store{dir: dir}, nil
}

// Save writes the upload to disk under a fresh uuid-based name. prefix lets
// callers tag the file kind ("avatar_"); it may be empty.
func (s *Store) Save(file *multipart.FileHeader, prefix string) (string, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))

	if !allowedExtensions[ext] {
		return "", ErrUnsupportedType
	}

	name := prefix + uuid.New().String() + ext

	src, err := file.Open()

	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.dir, name))

	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(filepath.Join(s.dir, name))
		return "", err
	}

	return name, nil
}

// Remove deletes a stored file. Missing files are not an error; the row
// referencing them is already gone or about to be.
func (s *Store) Remove(name string) {
	if name == "" {
		return
	}

	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		log.Warn().Err(err).Str("file", name).Msg("failed to remove stored file")
	}
}

// Exists reports whether a stored file is present on disk.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(filepath.Join(s.dir, name))
	return err == nil
}
