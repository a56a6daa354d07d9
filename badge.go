package inkdraw

import (
	"context"
	"image"
	"log/slog"

	"github.com/example/inkdraw/image1bit"
)

// BadgeSource provides the name badge image.
type BadgeSource interface {
	// LoadBadge decodes the badge image. Errors wrap ErrStorageRead.
	LoadBadge() (image.Image, error)
}

// Badge shows the name badge and nothing else. When the badge image cannot
// be loaded an error message is shown instead.
type Badge struct {
	opts   Options
	log    *slog.Logger
	panel  Panel
	source BadgeSource
	sched  *Scheduler

	page *image1bit.Packed
}

// NewBadge creates a Badge on panel.
func NewBadge(panel Panel, source BadgeSource, opts *Options) *Badge {
	o := opts.withDefaults()
	b := &Badge{
		opts:   o,
		log:    o.Logger.With(slog.String("component", "badge")),
		panel:  panel,
		source: source,
	}
	b.sched = NewScheduler(panel, b, o.Logger.With(slog.String("component", "refresh")))
	return b
}

// Start lights the LED, loads the badge and draws it.
func (b *Badge) Start() error {
	setLED(b.opts.LED, b.log, true)
	img, err := b.source.LoadBadge()
	if err != nil {
		b.log.Warn("cannot load badge", slog.Any("err", err))
		b.page = nil
	} else {
		b.page = pageOf(img, b.panel.Bounds())
	}
	return b.sched.RequestFull()
}

// Poll does nothing; the badge is static.
func (b *Badge) Poll(ctx context.Context) (bool, error) {
	return false, nil
}

// Loaded reports whether the badge image is shown.
func (b *Badge) Loaded() bool { return b.page != nil }

// Compose implements Composer.
func (b *Badge) Compose(dst *image1bit.Packed, r image.Rectangle) error {
	if b.page != nil {
		dst.CopyRect(b.page, r)
		return nil
	}
	dst.FillRect(r, image1bit.On)
	drawText(dst, r, dst.Rect.Min.X+20, dst.Rect.Min.Y+dst.Rect.Dy()/2-6, "Error loading badge")
	return nil
}
