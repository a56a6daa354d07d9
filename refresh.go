package inkdraw

import (
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/example/inkdraw/image1bit"
)

// Composer renders the pixels of r into the panel framebuffer.
type Composer interface {
	Compose(dst *image1bit.Packed, r image.Rectangle) error
}

// Scheduler turns redraw requests into panel refreshes. It composes the
// requested region into the panel framebuffer and then issues exactly one
// blocking refresh; a request made while another is running is rejected.
type Scheduler struct {
	panel    Panel
	composer Composer
	log      *slog.Logger

	inFlight bool
}

// NewScheduler creates a Scheduler for panel that composes frames with c.
func NewScheduler(panel Panel, c Composer, log *slog.Logger) *Scheduler {
	if log == nil {
		log = nopLogger()
	}
	return &Scheduler{panel: panel, composer: c, log: log}
}

// RequestFull composes the whole frame and refreshes the whole panel.
func (s *Scheduler) RequestFull() error {
	return s.refresh(s.panel.Bounds(), true)
}

// RequestPartial composes r and refreshes only r. The rectangle is clamped to
// the panel and must not be empty afterwards.
func (s *Scheduler) RequestPartial(r image.Rectangle) error {
	r = r.Intersect(s.panel.Bounds())
	if r.Empty() {
		return ErrEmptyRect
	}
	return s.refresh(r, false)
}

func (s *Scheduler) refresh(r image.Rectangle, full bool) error {
	if s.inFlight {
		return ErrRefreshInFlight
	}
	s.inFlight = true
	defer func() { s.inFlight = false }()

	if err := s.composer.Compose(s.panel.Frame(), r); err != nil {
		return err
	}

	start := time.Now()
	var err error
	if full {
		err = s.panel.Refresh()
	} else {
		err = s.panel.RefreshRect(r)
	}
	if err != nil {
		return fmt.Errorf("inkdraw: refresh %v: %w", r, err)
	}
	s.log.Debug("refresh", slog.Bool("full", full), slog.String("rect", r.String()), slog.Duration("took", time.Since(start)))
	return nil
}
