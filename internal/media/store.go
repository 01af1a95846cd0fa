// Package media stores recipe images submitted as base64 data URIs. Clients
// send images inline ("data:image/png;base64,...."); the store decodes the
// payload, writes it under the configured media directory with a random
// filename, and returns the media-relative path persisted on the recipe.
package media

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalidDataURI is returned when the submitted image is not a decodable
// base64 data URI of a supported image type.
var ErrInvalidDataURI = errors.New("invalid image data uri")

// ErrBadName is returned by Remove when the filename is not a bare name.
var ErrBadName = errors.New("invalid media filename")

// extByMIME maps the accepted image MIME types to file extensions.
var extByMIME = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/jpg":  ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// ParseDataURI splits and decodes a base64 image data URI, returning the
// raw bytes and the file extension for its MIME type.
func ParseDataURI(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "data:") {
		return nil, "", ErrInvalidDataURI
	}
	meta, payload, ok := strings.Cut(s[len("data:"):], ",")
	if !ok {
		return nil, "", ErrInvalidDataURI
	}
	mime, enc, ok := strings.Cut(meta, ";")
	if !ok || enc != "base64" {
		return nil, "", ErrInvalidDataURI
	}
	ext, ok := extByMIME[strings.ToLower(mime)]
	if !ok {
		return nil, "", ErrInvalidDataURI
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil || len(raw) == 0 {
		return nil, "", ErrInvalidDataURI
	}
	return raw, ext, nil
}

// Store writes decoded images into a single directory.
type Store struct {
	Dir string // media root directory; must exist
}

// NewStore creates the media directory if needed and returns a Store
// rooted there.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{Dir: dir}, nil
}

// SaveDataURI decodes a data URI and writes it under the store directory
// with a random filename. It returns the bare filename (no directory), which
// callers join with the public media URL prefix.
func (s *Store) SaveDataURI(dataURI string) (string, error) {
	raw, ext, err := ParseDataURI(dataURI)
	if err != nil {
		return "", err
	}
	name := uuid.NewString() + ext
	if err := os.WriteFile(filepath.Join(s.Dir, name), raw, 0o644); err != nil {
		return "", fmt.Errorf("write media file: %w", err)
	}
	return name, nil
}

// Remove deletes a previously stored file. Missing files are not an error,
// so recipe deletion stays idempotent.
func (s *Store) Remove(name string) error {
	if name == "" {
		return nil
	}
	// Never allow traversal out of the media directory.
	if filepath.Base(name) != name {
		return ErrBadName
	}
	err := os.Remove(filepath.Join(s.Dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
