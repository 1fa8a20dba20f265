// Package media stores uploaded files under the media root.
package media

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// ErrEmptyFile is returned for zero-byte uploads.
var ErrEmptyFile = errors.New("the submitted file is empty")

// maxNameAttempts bounds the suffix retries on name collisions.
const maxNameAttempts = 100

var unsafeChars = regexp.MustCompile(`[^-\w.]`)

// Stored describes a file written by Save.
type Stored struct {
	Name        string // slash-separated, relative to the root
	ContentType string
	Size        int64
}

// Storage writes files below Root.
type Storage struct {
	Root string
}

// NewStorage returns a Storage rooted at root, creating it if needed.
func NewStorage(root string) (*Storage, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create media root: %w", err)
	}
	return &Storage{Root: root}, nil
}

// Save copies the upload to dir/<sanitized original name>. When that name is
// taken a random "_xxxxxxx" suffix is inserted before the extension.
func (s *Storage) Save(dir string, fh *multipart.FileHeader) (*Stored, error) {
	if fh == nil || fh.Size == 0 {
		return nil, ErrEmptyFile
	}

	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return nil, fmt.Errorf("sniff upload: %w", err)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewind upload: %w", err)
	}

	if err := os.MkdirAll(filepath.Join(s.Root, filepath.FromSlash(dir)), 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	dst, name, err := s.create(dir, ValidFilename(fh.Filename))
	if err != nil {
		return nil, err
	}

	n, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(s.Path(name))
		return nil, fmt.Errorf("write upload: %w", err)
	}

	return &Stored{Name: name, ContentType: mtype.String(), Size: n}, nil
}

// create opens a new file exclusively so concurrent uploads with the same
// name never overwrite each other.
func (s *Storage) create(dir, filename string) (*os.File, string, error) {
	ext := path.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)

	candidate := filename
	for i := 0; i < maxNameAttempts; i++ {
		name := path.Join(dir, candidate)
		f, err := os.OpenFile(s.Path(name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, name, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("create %s: %w", name, err)
		}
		candidate = fmt.Sprintf("%s_%s%s", stem, randomSuffix(), ext)
	}
	return nil, "", fmt.Errorf("could not find a free name for %q", filename)
}

// Path resolves a stored name to a filesystem path.
func (s *Storage) Path(name string) string {
	return filepath.Join(s.Root, filepath.FromSlash(name))
}

// Delete removes a stored file; a missing file is not an error.
func (s *Storage) Delete(name string) error {
	err := os.Remove(s.Path(name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// ValidFilename strips directories, turns spaces into underscores and drops
// anything outside [-\w.].
func ValidFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeChars.ReplaceAllString(name, "")
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "upload"
	}
	return name
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:7]
}
