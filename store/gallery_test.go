package store

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/example/inkdraw"
	"github.com/example/inkdraw/bmp"
	"github.com/example/inkdraw/image1bit"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

// testBMP encodes a 16x8 drawing with one ink pixel at (3, 2), the way a
// saved drawing is exported: ink as the set bit.
func testBMP() []byte {
	img := image1bit.NewPacked(image.Rect(0, 0, 16, 8))
	img.SetBit(3, 2, image1bit.On)
	return bmp.Marshal(img, bmp.DefaultPalette)
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	img.SetGray(1, 1, color.Gray{Y: 0xFF})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestListImages(t *testing.T) {
	root := t.TempDir()
	d := Open(root, nil)
	for _, name := range []string{"b.png", "a.bmp", "c.JPG", "d.jpeg", "notes.txt", ".drawing_1.bmp.123.tmp"} {
		writeFile(t, filepath.Join(d.ImagesDir(), name), []byte("x"))
	}
	if err := os.Mkdir(filepath.Join(d.ImagesDir(), "sub.png"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := d.ListImages()
	if err != nil {
		t.Fatalf("ListImages: %v", err)
	}
	want := []string{"a.bmp", "b.png", "c.JPG", "d.jpeg"}
	if !slices.Equal(got, want) {
		t.Errorf("ListImages = %v, want %v", got, want)
	}
}

func TestListImagesMissingDir(t *testing.T) {
	got, err := Open(t.TempDir(), nil).ListImages()
	if err != nil || len(got) != 0 {
		t.Errorf("ListImages = %v, %v; want none", got, err)
	}
}

func TestLoadImage(t *testing.T) {
	d := Open(t.TempDir(), nil)
	writeFile(t, filepath.Join(d.ImagesDir(), "drawing_0.bmp"), testBMP())
	writeFile(t, filepath.Join(d.ImagesDir(), "pic.png"), testPNG(t))

	img, err := d.LoadImage("drawing_0.bmp")
	if err != nil {
		t.Fatalf("LoadImage(bmp): %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 16, 8) {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	if r, _, _, _ := img.At(3, 2).RGBA(); r != 0 {
		t.Error("ink pixel not black")
	}
	if r, _, _, _ := img.At(4, 2).RGBA(); r != 0xFFFF {
		t.Error("paper pixel not white")
	}

	img, err = d.LoadImage("pic.png")
	if err != nil {
		t.Fatalf("LoadImage(png): %v", err)
	}
	if r, _, _, _ := img.At(1, 1).RGBA(); r != 0xFFFF {
		t.Error("png pixel (1,1) not white")
	}
}

func TestLoadImageFailures(t *testing.T) {
	d := Open(t.TempDir(), nil)
	writeFile(t, filepath.Join(d.ImagesDir(), "broken.bmp"), []byte("BM not really"))

	for _, name := range []string{"broken.bmp", "absent.png", "../escape.png", ""} {
		if _, err := d.LoadImage(name); !errors.Is(err, inkdraw.ErrStorageRead) {
			t.Errorf("LoadImage(%q) error = %v, want ErrStorageRead", name, err)
		}
	}
}

func TestLoadBadge(t *testing.T) {
	root := t.TempDir()
	d := Open(root, nil)

	if _, err := d.LoadBadge(); !errors.Is(err, inkdraw.ErrStorageRead) || !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("LoadBadge without a badge = %v", err)
	}

	writeFile(t, filepath.Join(root, "badges", "badge.png"), testPNG(t))
	img, err := d.LoadBadge()
	if err != nil {
		t.Fatalf("LoadBadge(png): %v", err)
	}
	if img.Bounds().Dx() != 4 {
		t.Errorf("badge width = %d, want the png", img.Bounds().Dx())
	}

	writeFile(t, filepath.Join(root, "badges", "badge.bmp"), testBMP())
	if img, err = d.LoadBadge(); err != nil {
		t.Fatalf("LoadBadge(bmp): %v", err)
	}
	if img.Bounds().Dx() != 16 {
		t.Errorf("badge width = %d, want badge.bmp preferred", img.Bounds().Dx())
	}
}

func TestLoadBadgeCorrupt(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "badges", "badge.bmp"), []byte("garbage"))
	if _, err := Open(root, nil).LoadBadge(); !errors.Is(err, inkdraw.ErrStorageRead) {
		t.Errorf("LoadBadge error = %v, want ErrStorageRead", err)
	}
}

func TestViewerStateRoundtrip(t *testing.T) {
	d := Open(t.TempDir(), nil)
	if _, err := d.LoadViewerState(); !errors.Is(err, inkdraw.ErrStorageRead) {
		t.Errorf("LoadViewerState before save = %v", err)
	}
	want := inkdraw.ViewerState{Current: 3, ShowInfo: true}
	if err := d.SaveViewerState(want); err != nil {
		t.Fatalf("SaveViewerState: %v", err)
	}
	got, err := d.LoadViewerState()
	if err != nil || got != want {
		t.Errorf("LoadViewerState = %+v, %v; want %+v", got, err, want)
	}
	if filepath.Base(d.ViewerStatePath()) != "image.json" {
		t.Errorf("viewer state path = %s", d.ViewerStatePath())
	}
}

func TestLoadViewerStateRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"negative index", `{"version":1,"current_image":-1,"show_info":false}`},
		{"missing field", `{"version":1,"current_image":0}`},
		{"unknown field", `{"version":1,"current_image":0,"show_info":true,"zoom":2}`},
		{"wrong version", `{"version":2,"current_image":0,"show_info":true}`},
		{"not json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Open(t.TempDir(), nil)
			writeFile(t, d.ViewerStatePath(), []byte(tt.body))
			if _, err := d.LoadViewerState(); !errors.Is(err, inkdraw.ErrStorageRead) {
				t.Errorf("LoadViewerState error = %v, want ErrStorageRead", err)
			}
		})
	}
}
