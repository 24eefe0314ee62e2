package snapshot

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestFromPixelsFlipsRows(t *testing.T) {
	// Bottom row red, top row blue, as OpenGL returns them.
	pixels := []byte{
		255, 0, 0, 255, 255, 0, 0, 255,
		0, 0, 255, 255, 0, 0, 255, 255,
	}

	img, err := FromPixels(pixels, 2, 2)
	if err != nil {
		t.Fatalf("FromPixels() error: %v", err)
	}

	if got := img.RGBAAt(0, 0); got != (color.RGBA{B: 255, A: 255}) {
		t.Errorf("top-left = %v, want blue", got)
	}
	if got := img.RGBAAt(1, 1); got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("bottom-right = %v, want red", got)
	}
}

func TestFromPixelsValidates(t *testing.T) {
	tests := []struct {
		name          string
		pixels        int
		width, height int
	}{
		{"short buffer", 15, 2, 2},
		{"long buffer", 17, 2, 2},
		{"zero width", 0, 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromPixels(make([]byte, tt.pixels), tt.width, tt.height); err == nil {
				t.Error("FromPixels() error = nil")
			}
		})
	}
}

func TestWritePixels(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	w := NewWriter(dir, "modelview")
	w.now = func() time.Time { return time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC) }

	path, err := w.WritePixels(make([]byte, 3*2*4), 3, 2)
	if err != nil {
		t.Fatalf("WritePixels() error: %v", err)
	}
	if want := filepath.Join(dir, "modelview_2024-05-01_12-30-00.000.png"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decoding written PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 3 || b.Dy() != 2 {
		t.Errorf("image bounds = %v, want 3x2", b)
	}
}

func TestFilenameWithoutDir(t *testing.T) {
	w := NewWriter("", "shot")
	if got := w.Filename(); strings.ContainsRune(got, filepath.Separator) || !strings.HasPrefix(got, "shot_") {
		t.Errorf("Filename() = %q, want bare shot_*.png", got)
	}
}
