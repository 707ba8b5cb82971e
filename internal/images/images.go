// Package images stores uploaded style pictures and their thumbnails.
package images

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

var (
	ErrUnsupported = errors.New("unsupported image type")
	ErrInvalid     = errors.New("invalid image data")
)

const thumbMaxSize = 300

var allowedExt = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// Storage writes images under a single upload directory.
type Storage struct {
	dir string
}

// Saved names the files written for one upload, relative to the directory.
type Saved struct {
	Filename      string
	ThumbFilename string
}

func New(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %s: %w", dir, err)
	}
	return &Storage{dir: dir}, nil
}

func (s *Storage) Dir() string {
	return s.dir
}

// Allowed reports whether a file name has an accepted image extension.
func Allowed(name string) bool {
	return allowedExt[strings.ToLower(filepath.Ext(name))]
}

// Save writes the upload as style_<id>_<uuid>.<ext> and a JPEG thumbnail no
// larger than 300px on either side. Nothing is kept when the data is not a
// decodable image.
func (s *Storage) Save(styleID int64, originalName string, r io.Reader) (Saved, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExt[ext] {
		return Saved{}, fmt.Errorf("%w: %q", ErrUnsupported, ext)
	}

	id := uuid.NewString()
	saved := Saved{
		Filename:      fmt.Sprintf("style_%d_%s%s", styleID, id, ext),
		ThumbFilename: fmt.Sprintf("style_%d_%s_thumb.jpg", styleID, id),
	}
	path := filepath.Join(s.dir, saved.Filename)

	if err := writeFile(path, r); err != nil {
		return Saved{}, err
	}

	img, err := imaging.Open(path)
	if err != nil {
		_ = os.Remove(path)
		return Saved{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	thumb := imaging.Fit(img, thumbMaxSize, thumbMaxSize, imaging.Lanczos)
	if err := imaging.Save(thumb, filepath.Join(s.dir, saved.ThumbFilename), imaging.JPEGQuality(85)); err != nil {
		_ = os.Remove(path)
		return Saved{}, fmt.Errorf("save thumbnail: %w", err)
	}

	return saved, nil
}

func writeFile(path string, r io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image file: %w", err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = os.Remove(path)
		return fmt.Errorf("write image file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("close image file: %w", err)
	}
	return nil
}

// Remove deletes stored files by name. Missing files are ignored.
func (s *Storage) Remove(names ...string) error {
	var errs []error
	for _, name := range names {
		if name == "" {
			continue
		}
		err := os.Remove(filepath.Join(s.dir, filepath.Base(name)))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
