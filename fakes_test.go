package inkdraw

import (
	"fmt"
	"image"

	"github.com/example/inkdraw/image1bit"
)

type fakePanel struct {
	frame     *image1bit.Packed
	fulls     int
	partials  []image.Rectangle
	err       error
	onRefresh func()
}

func newFakePanel(w, h int) *fakePanel {
	return &fakePanel{frame: image1bit.NewPacked(image.Rect(0, 0, w, h))}
}

func (p *fakePanel) Bounds() image.Rectangle  { return p.frame.Rect }
func (p *fakePanel) Frame() *image1bit.Packed { return p.frame }

func (p *fakePanel) Refresh() error {
	p.fulls++
	if p.onRefresh != nil {
		p.onRefresh()
	}
	return p.err
}

func (p *fakePanel) RefreshRect(r image.Rectangle) error {
	p.partials = append(p.partials, r)
	if p.onRefresh != nil {
		p.onRefresh()
	}
	return p.err
}

type fakeStore struct {
	state *CursorState
	saves []CursorState

	next       uint32
	found      bool
	recoverErr error

	files    map[string][]byte
	writeErr error
	onWrite  func()
}

func (s *fakeStore) LoadState() (CursorState, error) {
	if s.state == nil {
		return CursorState{}, fmt.Errorf("%w: no state", ErrStorageRead)
	}
	return *s.state, nil
}

func (s *fakeStore) SaveState(c CursorState) error {
	s.saves = append(s.saves, c)
	return nil
}

func (s *fakeStore) RecoverSaveCount() (uint32, bool, error) {
	return s.next, s.found, s.recoverErr
}

func (s *fakeStore) WriteImage(name string, data []byte) (string, error) {
	if s.onWrite != nil {
		s.onWrite()
	}
	if s.writeErr != nil {
		return "", s.writeErr
	}
	if s.files == nil {
		s.files = make(map[string][]byte)
	}
	s.files[name] = append([]byte(nil), data...)
	return "/images/" + name, nil
}

type fakeButtons struct {
	held         Buttons
	reads        int
	releaseAfter int
}

func (b *fakeButtons) Pressed(btn Button) bool {
	b.reads++
	if b.releaseAfter > 0 && b.reads > b.releaseAfter {
		b.held = 0
	}
	return b.held.Has(btn)
}

type fakeLED struct {
	states []bool
}

func (l *fakeLED) SetLED(on bool) error {
	l.states = append(l.states, on)
	return nil
}


type fakeGallery struct {
	names   []string
	images  map[string]image.Image
	listErr error
	state   *ViewerState
	saves   []ViewerState
}

func (g *fakeGallery) ListImages() ([]string, error) {
	return g.names, g.listErr
}

func (g *fakeGallery) LoadImage(name string) (image.Image, error) {
	img, ok := g.images[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s: no such image", ErrStorageRead, name)
	}
	return img, nil
}

func (g *fakeGallery) LoadViewerState() (ViewerState, error) {
	if g.state == nil {
		return ViewerState{}, fmt.Errorf("%w: no viewer state", ErrStorageRead)
	}
	return *g.state, nil
}

func (g *fakeGallery) SaveViewerState(v ViewerState) error {
	g.saves = append(g.saves, v)
	return nil
}

type fakeBadgeSource struct {
	img image.Image
	err error
}

func (b *fakeBadgeSource) LoadBadge() (image.Image, error) {
	return b.img, b.err
}
