package store

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jsummers/gobmp"

	"github.com/example/inkdraw"
)

// viewerVersion is the version written into new viewer documents.
const viewerVersion = 1

// imageExts are the extensions the viewer shows, lower case.
var imageExts = map[string]bool{".bmp": true, ".png": true, ".jpg": true, ".jpeg": true}

// badgeNames are tried in order by LoadBadge.
var badgeNames = []string{"badge.bmp", "badge.png", "badge.jpg"}

// BadgesDir returns the directory the badge image is read from.
func (d *Dir) BadgesDir() string { return d.badges }

// ViewerStatePath returns the path of the viewer state document.
func (d *Dir) ViewerStatePath() string { return d.viewer }

// ListImages returns the viewable images in the images directory, sorted by
// name. Hidden files, such as interrupted writes, are skipped. A missing
// directory holds no images.
func (d *Dir) ListImages() ([]string, error) {
	entries, err := os.ReadDir(d.images)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", inkdraw.ErrStorageRead, err)
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if imageExts[strings.ToLower(filepath.Ext(name))] {
			names = append(names, name)
		}
	}
	return names, nil
}

// LoadImage decodes name from the images directory. BMP (any bit depth), PNG
// and JPEG are understood.
func (d *Dir) LoadImage(name string) (image.Image, error) {
	if name == "" || filepath.Base(name) != name {
		return nil, fmt.Errorf("%w: bad image name %q", inkdraw.ErrStorageRead, name)
	}
	return d.decodeFile(filepath.Join(d.images, name))
}

// LoadBadge decodes the first of badge.bmp, badge.png and badge.jpg found
// in the badges directory.
func (d *Dir) LoadBadge() (image.Image, error) {
	for _, name := range badgeNames {
		path := filepath.Join(d.badges, name)
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return d.decodeFile(path)
	}
	return nil, fmt.Errorf("%w: no badge in %s: %w", inkdraw.ErrStorageRead, d.badges, fs.ErrNotExist)
}

func (d *Dir) decodeFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", inkdraw.ErrStorageRead, err)
	}
	defer f.Close()
	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", inkdraw.ErrStorageRead, path, err)
	}
	d.log.Debug("image decoded", slog.String("path", path), slog.String("format", format))
	return img, nil
}

// viewerDoc is the on-disk form of inkdraw.ViewerState.
type viewerDoc struct {
	Version      int  `json:"version"`
	CurrentImage int  `json:"current_image"`
	ShowInfo     bool `json:"show_info"`
}

// LoadViewerState reads the viewer position. Every failure wraps
// inkdraw.ErrStorageRead.
func (d *Dir) LoadViewerState() (inkdraw.ViewerState, error) {
	data, err := os.ReadFile(d.viewer)
	if err != nil {
		return inkdraw.ViewerState{}, fmt.Errorf("%w: %w", inkdraw.ErrStorageRead, err)
	}
	var doc viewerDoc
	if err := decodeDoc(viewerSchema, data, &doc); err != nil {
		return inkdraw.ViewerState{}, fmt.Errorf("%w: %s: %w", inkdraw.ErrStorageRead, d.viewer, err)
	}
	return inkdraw.ViewerState{Current: doc.CurrentImage, ShowInfo: doc.ShowInfo}, nil
}

// SaveViewerState persists v. Every failure wraps inkdraw.ErrStorageWrite.
func (d *Dir) SaveViewerState(v inkdraw.ViewerState) error {
	doc := viewerDoc{Version: viewerVersion, CurrentImage: v.Current, ShowInfo: v.ShowInfo}
	if err := writeDoc(d.viewer, doc); err != nil {
		return fmt.Errorf("%w: %w", inkdraw.ErrStorageWrite, err)
	}
	d.log.Debug("viewer state saved", slog.String("path", d.viewer), slog.Int("current", v.Current))
	return nil
}
