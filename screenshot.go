package inkdraw

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/example/inkdraw/image1bit"
)

// ScreenshotName returns the file name of a screenshot taken at t.
func ScreenshotName(t time.Time) string {
	return fmt.Sprintf("screen_%d.bmp", t.Unix())
}

// Screenshotter is the screenshot utility: B+UP writes the current panel
// contents to screen_<unix time>.bmp.
type Screenshotter struct {
	opts    Options
	log     *slog.Logger
	panel   Panel
	buttons ButtonReader
	store   Store
	sched   *Scheduler

	inverted bool
	banner   string
}

// NewScreenshotter creates a Screenshotter on panel.
func NewScreenshotter(panel Panel, buttons ButtonReader, store Store, opts *Options) *Screenshotter {
	o := opts.withDefaults()
	s := &Screenshotter{
		opts:    o,
		log:     o.Logger.With(slog.String("component", "screenshot")),
		panel:   panel,
		buttons: buttons,
		store:   store,
	}
	s.sched = NewScheduler(panel, s, o.Logger.With(slog.String("component", "refresh")))
	return s
}

// Start lights the LED and draws the instructions.
func (s *Screenshotter) Start() error {
	setLED(s.opts.LED, s.log, true)
	return s.sched.RequestFull()
}

// Poll takes a screenshot when B and UP are held, then waits until both are
// released so one press gives one file. The wait ends early when ctx is done.
func (s *Screenshotter) Poll(ctx context.Context) (bool, error) {
	if !Sample(s.buttons).Has(ButtonB | ButtonUp) {
		return false, nil
	}
	if _, err := s.Capture(); err != nil {
		s.log.Warn("screenshot failed", slog.Any("err", err))
	}
	for ctx.Err() == nil && (s.buttons.Pressed(ButtonB) || s.buttons.Pressed(ButtonUp)) {
		s.opts.Sleep(100 * time.Millisecond)
	}
	return true, nil
}

// Capture refreshes the panel so its framebuffer is current, writes the
// framebuffer out, and reports the result on screen.
func (s *Screenshotter) Capture() (string, error) {
	path, err := s.capture()
	if err != nil {
		s.showBanner("Screenshot failed!", 2*time.Second)
	} else {
		s.log.Info("saved screenshot", slog.String("path", path))
		s.flash()
		s.showBanner("Saved: "+path, s.opts.BannerDuration)
	}
	if rerr := s.sched.RequestFull(); rerr != nil {
		s.log.Warn("redraw", slog.Any("err", rerr))
	}
	return path, err
}

func (s *Screenshotter) capture() (string, error) {
	if err := s.sched.RequestFull(); err != nil {
		return "", err
	}
	name := ScreenshotName(s.opts.Now())
	return exportInverted(s.panel.Frame(), &s.inverted, *s.opts.Palette, func(data []byte) (string, error) {
		return s.store.WriteImage(name, data)
	})
}

// flash blinks the LED three times and leaves it lit, the state Start put it
// in. A failing LED stops the blinking.
func (s *Screenshotter) flash() {
	if s.opts.LED == nil {
		return
	}
	for i := 0; i < 3; i++ {
		for _, on := range []bool{false, true} {
			if !setLED(s.opts.LED, s.log, on) {
				return
			}
			s.opts.Sleep(100 * time.Millisecond)
		}
	}
}

func (s *Screenshotter) showBanner(text string, d time.Duration) {
	s.banner = text
	if err := s.sched.RequestFull(); err != nil {
		s.log.Warn("banner", slog.Any("err", err))
	}
	s.opts.Sleep(d)
	s.banner = ""
}

// Compose implements Composer.
func (s *Screenshotter) Compose(dst *image1bit.Packed, r image.Rectangle) error {
	if s.inverted {
		return ErrBufferInverted
	}
	dst.FillRect(r, image1bit.On)
	b := dst.Rect
	drawText(dst, r, b.Min.X+10, b.Min.Y+10, "Screenshot Utility")
	for i, line := range []string{
		"Press B + UP to take a screenshot",
		"Screenshots save to /images",
		"LED will flash when complete",
	} {
		drawText(dst, r, b.Min.X+10, b.Min.Y+40+20*i, line)
	}
	if s.banner != "" {
		s.drawBanner(dst, r)
	}
	return nil
}

// drawBanner uses a wide strip near the bottom, as the help text fills the
// middle of the screen.
func (s *Screenshotter) drawBanner(dst *image1bit.Packed, r image.Rectangle) {
	b := dst.Rect
	br := image.Rect(b.Min.X+10, b.Max.Y-40, b.Max.X-10, b.Max.Y-10).Intersect(b)
	dst.FillRect(br.Intersect(r), image1bit.On)
	drawText(dst, r.Intersect(br), br.Min.X+10, br.Min.Y+8, fitText(s.banner, br.Dx()-20))
}
