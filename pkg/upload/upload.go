// Package upload validates and stores track media. Extensions are
// checked against fixed allow-lists and every stored file gets a random
// name, so a client-supplied filename never reaches the filesystem.
package upload

import (
	"context"
	"fmt"
	"mime/multipart"
	"path"

	"github.com/google/uuid"

	"github.com/soundrift/soundrift/pkg/file"
)

// MaxFileSize is the upper bound for a single uploaded file.
const MaxFileSize = 30 << 20 // 30MB

var (
	audioExtensions = map[string]bool{
		".mp3": true,
		".wav": true,
		".ogg": true,
		".m4a": true,
		".aac": true,
	}

	imageExtensions = map[string]bool{
		".png":  true,
		".jpg":  true,
		".jpeg": true,
		".webp": true,
	}
)

// Kind selects which allow-list applies to an upload.
type Kind string

const (
	KindAudio Kind = "audio"
	KindCover Kind = "cover"
)

// Saver validates uploads and writes them to the configured storage.
type Saver struct {
	storage file.Storage
}

// NewSaver creates a Saver on top of a storage backend.
func NewSaver(storage file.Storage) *Saver {
	return &Saver{storage: storage}
}

// Save validates the file and stores it under a random name inside the
// kind's subdirectory. The returned relative path is stored verbatim on
// the track record.
func (s *Saver) Save(ctx context.Context, fh *multipart.FileHeader, kind Kind) (string, error) {
	if fh == nil {
		return "", file.ErrNilFileHeader
	}
	if fh.Size > MaxFileSize {
		return "", fmt.Errorf("%w: %d bytes", ErrFileTooLarge, fh.Size)
	}

	ext := file.GetExtension(fh)
	if !allowed(kind, ext) {
		return "", fmt.Errorf("%w: %q for %s", ErrExtensionNotAllowed, ext, kind)
	}

	// Random filename prevents collisions and path tricks.
	dest := path.Join(string(kind), uuid.NewString()+ext)
	saved, err := s.storage.Save(ctx, fh, dest)
	if err != nil {
		return "", fmt.Errorf("store %s upload: %w", kind, err)
	}
	return saved.RelativePath, nil
}

// URL resolves a stored relative path to its public URL.
func (s *Saver) URL(relPath string) string {
	return s.storage.URL(relPath)
}

func allowed(kind Kind, ext string) bool {
	switch kind {
	case KindAudio:
		return audioExtensions[ext]
	case KindCover:
		return imageExtensions[ext]
	default:
		return false
	}
}
