package images

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

func pngBytes(t *testing.T, w, h int) *bytes.Buffer {
	t.Helper()

	img := imaging.New(w, h, color.NRGBA{R: 20, G: 40, B: 120, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return &buf
}

func TestSaveWritesImageAndThumbnail(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}

	saved, err := storage.Save(7, "Front View.PNG", pngBytes(t, 600, 400))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(saved.Filename, "style_7_") || !strings.HasSuffix(saved.Filename, ".png") {
		t.Fatalf("unexpected filename %q", saved.Filename)
	}
	if !strings.HasSuffix(saved.ThumbFilename, "_thumb.jpg") {
		t.Fatalf("unexpected thumbnail name %q", saved.ThumbFilename)
	}

	thumb, err := imaging.Open(filepath.Join(storage.Dir(), saved.ThumbFilename))
	if err != nil {
		t.Fatalf("open thumbnail: %v", err)
	}
	if got := thumb.Bounds().Size(); got != (image.Point{X: 300, Y: 200}) {
		t.Fatalf("thumbnail size = %v, want 300x200", got)
	}

	if err := storage.Remove(saved.Filename, saved.ThumbFilename, "missing.jpg"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	entries, err := os.ReadDir(storage.Dir())
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty upload dir, found %d files", len(entries))
	}
}

func TestSaveKeepsSmallImagesSmall(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}

	saved, err := storage.Save(1, "tiny.png", pngBytes(t, 40, 20))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	thumb, err := imaging.Open(filepath.Join(storage.Dir(), saved.ThumbFilename))
	if err != nil {
		t.Fatalf("open thumbnail: %v", err)
	}
	if got := thumb.Bounds().Size(); got != (image.Point{X: 40, Y: 20}) {
		t.Fatalf("thumbnail size = %v, want 40x20", got)
	}
}

func TestSaveRejectsBadUploads(t *testing.T) {
	storage, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new storage: %v", err)
	}

	if _, err := storage.Save(1, "notes.pdf", strings.NewReader("%PDF")); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if _, err := storage.Save(1, "fake.jpg", strings.NewReader("not an image")); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}

	entries, err := os.ReadDir(storage.Dir())
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("rejected uploads should leave no files, found %d", len(entries))
	}
}

func TestAllowed(t *testing.T) {
	for name, want := range map[string]bool{"a.png": true, "b.JPEG": true, "c.gif": true, "d.bmp": false, "e": false} {
		if got := Allowed(name); got != want {
			t.Errorf("Allowed(%q) = %v, want %v", name, got, want)
		}
	}
}
