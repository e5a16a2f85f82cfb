package utils

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ImageURLPrefix is where stored images are served from.
const ImageURLPrefix = "/images/"

var (
	// ErrInvalidMIME rejects uploads whose declared type is not in the MIME map.
	ErrInvalidMIME = errors.New("invalid mime type")
	// ErrImageTooLarge rejects uploads above the configured size.
	ErrImageTooLarge = errors.New("image too large")
)

// ImageStore writes uploaded post images to a local directory.
//
// Names are unique only to the millisecond: two uploads with the same
// original name in the same millisecond overwrite each other.
type ImageStore struct {
	Dir       string
	MIMETypes map[string]string
	MaxBytes  int64
	Now       func() time.Time
}

// NewImageStore builds a store accepting the given MIME -> extension map.
func NewImageStore(dir string, mimeTypes map[string]string, maxBytes int64) *ImageStore {
	types := make(map[string]string, len(mimeTypes))
	for k, v := range mimeTypes {
		types[strings.ToLower(k)] = v
	}
	return &ImageStore{Dir: dir, MIMETypes: types, MaxBytes: maxBytes, Now: time.Now}
}

// Extension returns the stored extension for a declared content type.
func (s *ImageStore) Extension(contentType string) (string, bool) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}
	ext, ok := s.MIMETypes[strings.ToLower(strings.TrimSpace(mediaType))]
	return ext, ok
}

// FileName builds "<lowercased-name-with-dashes>-<unix millis>.<ext>".
func (s *ImageStore) FileName(original, contentType string) (string, error) {
	ext, ok := s.Extension(contentType)
	if !ok {
		return "", ErrInvalidMIME
	}
	name := strings.ToLower(filepath.Base(filepath.ToSlash(original)))
	if name == "." || name == "/" {
		name = ""
	}
	name = strings.Join(strings.Split(name, " "), "-")
	return fmt.Sprintf("%s-%d.%s", name, s.Now().UnixMilli(), ext), nil
}

// Save validates and persists an uploaded file and returns its path and generated name.
func (s *ImageStore) Save(fh *multipart.FileHeader) (string, string, error) {
	filename, err := s.FileName(fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		return "", "", err
	}
	if s.MaxBytes > 0 && fh.Size > s.MaxBytes {
		return "", "", ErrImageTooLarge
	}

	src, err := fh.Open()
	if err != nil {
		return "", "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create image directory: %w", err)
	}
	dst := filepath.Join(s.Dir, filename)
	out, err := os.Create(dst)
	if err != nil {
		return "", "", fmt.Errorf("create image file: %w", err)
	}

	var r io.Reader = src
	if s.MaxBytes > 0 {
		r = &io.LimitedReader{R: src, N: s.MaxBytes + 1}
	}
	written, err := io.Copy(out, r)
	closeErr := out.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(dst)
		return "", "", fmt.Errorf("write image file: %w", err)
	}
	if s.MaxBytes > 0 && written > s.MaxBytes {
		_ = os.Remove(dst)
		return "", "", ErrImageTooLarge
	}
	return dst, filename, nil
}
