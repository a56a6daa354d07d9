package inkdraw

import (
	"context"
	"image"
	"log/slog"
	"path/filepath"
	"strings"

	xdraw "golang.org/x/image/draw"

	"github.com/example/inkdraw/image1bit"
)

// ViewerState is the persisted position of the image viewer.
type ViewerState struct {
	Current  int  // index into the sorted image list
	ShowInfo bool // name label and position squares
}

// Gallery gives the image viewer read access to stored images.
type Gallery interface {
	// ListImages returns the names of the viewable images in display order.
	ListImages() ([]string, error)
	// LoadImage decodes the image called name. Errors wrap ErrStorageRead.
	LoadImage(name string) (image.Image, error)
	// LoadViewerState returns the last saved position. Errors wrap
	// ErrStorageRead.
	LoadViewerState() (ViewerState, error)
	// SaveViewerState persists v. Errors wrap ErrStorageWrite.
	SaveViewerState(v ViewerState) error
}

// Viewer pages through the stored images: UP and DOWN step backwards and
// forwards with wraparound, A toggles the info overlay. Each press acts once,
// however long it is held.
type Viewer struct {
	opts    Options
	log     *slog.Logger
	panel   Panel
	buttons ButtonReader
	gallery Gallery
	sched   *Scheduler

	names   []string
	state   ViewerState
	held    Buttons
	page    *image1bit.Packed // current image, nil if it failed to load
	loadErr error
}

// NewViewer lists the images of gallery and restores the last position.
// Listing and state errors leave an empty list and the first image
// respectively.
func NewViewer(panel Panel, buttons ButtonReader, gallery Gallery, opts *Options) *Viewer {
	o := opts.withDefaults()
	v := &Viewer{
		opts:    o,
		log:     o.Logger.With(slog.String("component", "viewer")),
		panel:   panel,
		buttons: buttons,
		gallery: gallery,
	}
	v.sched = NewScheduler(panel, v, o.Logger.With(slog.String("component", "refresh")))

	names, err := gallery.ListImages()
	if err != nil {
		v.log.Warn("cannot list images", slog.Any("err", err))
	}
	v.names = names
	if st, err := gallery.LoadViewerState(); err != nil {
		v.log.Debug("using default viewer state", slog.Any("err", err))
	} else {
		v.state = st
	}
	if v.state.Current < 0 || v.state.Current >= len(v.names) {
		v.state.Current = 0
	}
	return v
}

// State returns the current viewer position.
func (v *Viewer) State() ViewerState { return v.state }

// Images returns the image names being paged through.
func (v *Viewer) Images() []string { return v.names }

// Start lights the LED and shows the current image.
func (v *Viewer) Start() error {
	setLED(v.opts.LED, v.log, true)
	v.load()
	return v.sched.RequestFull()
}

// Poll samples the buttons and acts on the ones pressed since the last poll.
func (v *Viewer) Poll(ctx context.Context) (bool, error) {
	return v.Handle(Sample(v.buttons))
}

// Handle applies the buttons in b that were not held on the previous call.
// UP, DOWN and A are handled independently, in that order. It reports
// whether the screen changed.
func (v *Viewer) Handle(b Buttons) (bool, error) {
	pressed := b &^ v.held
	v.held = b
	if pressed == 0 || len(v.names) == 0 {
		return false, nil
	}

	prev, changed := v.state, false
	n := len(v.names)
	if pressed.Has(ButtonUp) {
		v.state.Current = (v.state.Current - 1 + n) % n
		changed = true
	}
	if pressed.Has(ButtonDown) {
		v.state.Current = (v.state.Current + 1) % n
		changed = true
	}
	if pressed.Has(ButtonA) {
		v.state.ShowInfo = !v.state.ShowInfo
		changed = true
	}
	if !changed {
		return false, nil
	}

	if v.state.Current != prev.Current {
		v.load()
	}
	err := v.sched.RequestFull()
	if serr := v.gallery.SaveViewerState(v.state); serr != nil {
		v.log.Warn("cannot save viewer state", slog.Any("err", serr))
	}
	return true, err
}

func (v *Viewer) load() {
	v.page, v.loadErr = nil, nil
	if len(v.names) == 0 {
		return
	}
	name := v.names[v.state.Current]
	img, err := v.gallery.LoadImage(name)
	if err != nil {
		v.log.Warn("cannot load image", slog.String("name", name), slog.Any("err", err))
		v.loadErr = err
		return
	}
	v.page = pageOf(img, v.panel.Bounds())
	v.log.Debug("image loaded", slog.String("name", name), slog.Any("size", img.Bounds().Size()))
}

// Compose implements Composer.
func (v *Viewer) Compose(dst *image1bit.Packed, r image.Rectangle) error {
	b := dst.Rect
	dst.FillRect(r, image1bit.On)
	switch {
	case len(v.names) == 0:
		drawText(dst, r, b.Min.X+10, b.Min.Y+40, "No images found")
		drawText(dst, r, b.Min.X+10, b.Min.Y+60, "Copy 1-bit 296x128 images to /images")
		return nil
	case v.page != nil:
		dst.CopyRect(v.page, r)
	default:
		drawText(dst, r, b.Min.X+10, b.Min.Y+b.Dy()/2-6,
			fitText("Cannot load "+v.names[v.state.Current], b.Dx()-20))
	}
	if v.state.ShowInfo {
		v.drawInfo(dst, r)
	}
	return nil
}

// drawInfo draws the "name (ext)" label in the bottom-left corner and one
// square per image on the right edge, the current one filled.
func (v *Viewer) drawInfo(dst *image1bit.Packed, r image.Rectangle) {
	b := dst.Rect
	label := infoLabel(v.names[v.state.Current])
	w := textWidth(label)
	dst.FillRect(image.Rect(b.Min.X, b.Max.Y-21, b.Min.X+w+11, b.Max.Y).Intersect(r), image1bit.Off)
	dst.FillRect(image.Rect(b.Min.X, b.Max.Y-20, b.Min.X+w+10, b.Max.Y).Intersect(r), image1bit.On)
	drawText(dst, r, b.Min.X+5, b.Max.Y-17, label)

	n := len(v.names)
	for i := range n {
		sq := positionSquare(b, n, i)
		dst.FillRect(sq.Intersect(r), image1bit.Off)
		if i != v.state.Current {
			dst.FillRect(sq.Inset(1).Intersect(r), image1bit.On)
		}
	}
}

// positionSquare is the 8x8 marker of image i out of n, stacked 10 pixels
// apart and centered vertically, 10 pixels from the right edge.
func positionSquare(b image.Rectangle, n, i int) image.Rectangle {
	x := b.Max.X - 10
	y := b.Min.Y + b.Dy()/2 - n*5 + i*10
	return image.Rect(x, y, x+8, y+8)
}

// infoLabel turns "drawing_3.bmp" into "drawing_3 (bmp)".
func infoLabel(name string) string {
	ext := filepath.Ext(name)
	if ext == "" {
		return name
	}
	return strings.TrimSuffix(name, ext) + " (" + ext[1:] + ")"
}

// pageOf renders img on a white page covering bounds. Images that fit are
// drawn unscaled at the top-left corner; larger ones are scaled down to fit,
// keeping their aspect ratio.
func pageOf(img image.Image, bounds image.Rectangle) *image1bit.Packed {
	page := image1bit.NewPacked(bounds)
	page.Fill(image1bit.On)
	sr := img.Bounds()
	dr := fitRect(sr.Size(), bounds)
	if dr.Size() == sr.Size() {
		xdraw.Copy(page, dr.Min, img, sr, xdraw.Over, nil)
	} else {
		xdraw.NearestNeighbor.Scale(page, dr, img, sr, xdraw.Over, nil)
	}
	return page
}

func fitRect(s image.Point, bounds image.Rectangle) image.Rectangle {
	w, h := s.X, s.Y
	bw, bh := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return image.Rectangle{Min: bounds.Min, Max: bounds.Min}
	}
	if w > bw || h > bh {
		if w*bh > h*bw {
			w, h = bw, h*bw/w
		} else {
			w, h = w*bh/h, bh
		}
	}
	return image.Rectangle{Min: bounds.Min, Max: bounds.Min.Add(image.Pt(w, h))}
}
