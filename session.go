package inkdraw

import (
	"context"
	"image"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/example/inkdraw/bmp"
	"github.com/example/inkdraw/image1bit"
)

// Store persists the cursor state and saved images.
type Store interface {
	// LoadState returns the last checkpointed state. Errors wrap ErrStorageRead.
	LoadState() (CursorState, error)
	// SaveState checkpoints c. Errors wrap ErrStorageWrite.
	SaveState(c CursorState) error
	// RecoverSaveCount returns one past the highest index among saved
	// drawings, and whether any saved drawing was found.
	RecoverSaveCount() (next uint32, found bool, err error)
	// WriteImage stores an encoded image under name and returns its path.
	// Errors wrap ErrDirectory or ErrStorageWrite.
	WriteImage(name string, data []byte) (string, error)
}

// Options configures any of the apps. The zero value is usable.
type Options struct {
	// Step is how far UP and DOWN move the cursor. Default 3.
	Step int
	// DefaultBrush is the brush size of a fresh session. Default 2.
	DefaultBrush int
	// BannerDuration is how long save banners stay up. Default 1s.
	BannerDuration time.Duration
	// Palette maps exported bits to colors. Default bmp.DefaultPalette.
	Palette *bmp.Palette
	// LED, when set, is lit while the app runs and flashes after a
	// screenshot.
	LED LED
	// Logger receives diagnostics. Default discards.
	Logger *slog.Logger
	// Sleep and Now replace time.Sleep and time.Now.
	Sleep func(time.Duration)
	Now   func() time.Time
}

func (o *Options) withDefaults() Options {
	var opts Options
	if o != nil {
		opts = *o
	}
	if opts.Step <= 0 {
		opts.Step = 3
	}
	if opts.DefaultBrush < MinBrushSize || opts.DefaultBrush > MaxBrushSize {
		opts.DefaultBrush = DefaultBrushSize
	}
	if opts.BannerDuration <= 0 {
		opts.BannerDuration = time.Second
	}
	if opts.Palette == nil {
		opts.Palette = &bmp.DefaultPalette
	}
	if opts.Logger == nil {
		opts.Logger = nopLogger()
	}
	if opts.Sleep == nil {
		opts.Sleep = time.Sleep
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return opts
}

// Session is one drawing session: the canvas, the cursor and the devices it
// is drawn on. It is driven by a single poll loop and is not safe for
// concurrent use.
type Session struct {
	opts    Options
	log     *slog.Logger
	panel   Panel
	buttons ButtonReader
	store   Store
	sched   *Scheduler

	canvas *image1bit.Packed
	cursor CursorState
	// saved holds the checkpoint fields of the last successful checkpoint.
	saved checkpointFields

	inverted bool
	banner   string
}

// New creates a Session on panel. The canvas starts blank. The cursor state is
// restored from store when possible and the save counter is recovered from
// the saved drawings; storage read failures silently fall back to defaults.
func New(panel Panel, buttons ButtonReader, store Store, opts *Options) *Session {
	o := opts.withDefaults()
	s := &Session{
		opts:    o,
		log:     o.Logger.With(slog.String("component", "canvas")),
		panel:   panel,
		buttons: buttons,
		store:   store,
		canvas:  image1bit.NewPacked(panel.Bounds()),
	}
	s.canvas.Fill(image1bit.On)
	s.sched = NewScheduler(panel, s, o.Logger.With(slog.String("component", "refresh")))

	bounds := panel.Bounds()
	s.cursor = DefaultCursorState(bounds)
	s.cursor.BrushSize = o.DefaultBrush
	if st, err := store.LoadState(); err != nil {
		s.log.Debug("using default state", slog.Any("err", err))
	} else {
		s.cursor = st.sanitized(bounds)
		s.saved = s.cursor.checkpointFields()
	}

	next, found, err := store.RecoverSaveCount()
	switch {
	case err != nil:
		s.log.Warn("cannot recover save counter", slog.Any("err", err))
	case found:
		s.cursor.SaveCount = next
	}
	return s
}

// Canvas returns the drawing buffer. Ink is image1bit.Off.
func (s *Session) Canvas() *image1bit.Packed { return s.canvas }

// Cursor returns a copy of the current cursor state.
func (s *Session) Cursor() CursorState { return s.cursor }

// Scheduler returns the refresh scheduler of the session.
func (s *Session) Scheduler() *Scheduler { return s.sched }

// Start lights the LED and draws the initial screen.
func (s *Session) Start() error {
	setLED(s.opts.LED, s.log, true)
	return s.sched.RequestFull()
}

// Poll samples the buttons and handles them. Handling never waits for
// input; ctx is unused.
func (s *Session) Poll(ctx context.Context) (bool, error) {
	return s.Handle(Sample(s.buttons))
}

// Handle applies at most one transition for the held buttons. It reports
// whether a transition fired. Storage failures are logged and shown on
// screen, never returned; display failures are returned.
func (s *Session) Handle(b Buttons) (bool, error) {
	handled, err := s.apply(b)
	if handled {
		s.log.Debug("input", slog.String("buttons", b.String()),
			slog.Int("x", s.cursor.X), slog.Int("y", s.cursor.Y))
	}
	if handled && s.cursor.checkpointFields() != s.saved {
		s.checkpoint()
	}
	return handled, err
}

// apply evaluates transitions in priority order. Combos come before the
// buttons they contain.
func (s *Session) apply(b Buttons) (bool, error) {
	switch {
	case b.Has(ButtonB|ButtonUp) && !b.Any(ButtonA):
		if _, err := s.Save(); err != nil {
			s.log.Warn("save failed", slog.Any("err", err))
		}
		return true, nil
	case b.Has(ButtonUp) && !b.Any(ButtonA|ButtonB):
		return true, s.move(-1)
	case b.Has(ButtonDown):
		return true, s.move(1)
	case b.Has(ButtonA | ButtonUp):
		return true, s.Clear()
	case b.Has(ButtonA):
		return true, s.Paint()
	case b.Has(ButtonB):
		s.cursor.ToggleAxis()
		return true, s.refreshChrome()
	case b.Has(ButtonC):
		s.cursor.NextBrush()
		return true, s.refreshChrome()
	}
	return false, nil
}

// move steps the cursor; dir -1 is UP, 1 is DOWN.
func (s *Session) move(dir int) error {
	b := s.canvas.Rect
	old := cursorBox(s.cursor.X, s.cursor.Y)
	switch s.cursor.Axis {
	case Vertical:
		s.cursor.Y = clamp(s.cursor.Y+dir*s.opts.Step, b.Min.Y, b.Max.Y-1)
	case Horizontal:
		s.cursor.X = clamp(s.cursor.X-dir*s.opts.Step, b.Min.X, b.Max.X-1)
	}
	s.cursor.Drawing = false
	return s.sched.RequestPartial(old.Union(cursorBox(s.cursor.X, s.cursor.Y)))
}

// Paint hides the UI if shown and dabs the brush at the cursor.
func (s *Session) Paint() error {
	if s.cursor.UIVisible {
		s.cursor.UIVisible = false
		if err := s.sched.RequestFull(); err != nil {
			return err
		}
	}
	s.cursor.Drawing = true
	r := fillDisk(s.canvas, s.cursor.X, s.cursor.Y, s.cursor.BrushSize, image1bit.Off)
	return s.sched.RequestPartial(r)
}

// Clear blanks the canvas.
func (s *Session) Clear() error {
	s.canvas.Fill(image1bit.On)
	s.cursor.Drawing = false
	return s.sched.RequestFull()
}

func (s *Session) refreshChrome() error {
	if !s.cursor.UIVisible {
		return nil
	}
	return s.sched.RequestFull()
}

func (s *Session) checkpoint() {
	if err := s.store.SaveState(s.cursor); err != nil {
		s.log.Warn("checkpoint failed", slog.Any("err", err))
		return
	}
	s.saved = s.cursor.checkpointFields()
}

// Compose implements Composer: canvas, then UI text, cursor and banner.
func (s *Session) Compose(dst *image1bit.Packed, r image.Rectangle) error {
	if s.inverted {
		return ErrBufferInverted
	}
	dst.CopyRect(s.canvas, r)
	if s.cursor.UIVisible {
		s.drawChrome(dst, r)
	}
	if !s.cursor.Drawing {
		drawCursor(dst, r, s.cursor.X, s.cursor.Y)
	}
	if s.banner != "" {
		drawBanner(dst, r, s.banner)
	}
	return nil
}

func (s *Session) drawChrome(dst *image1bit.Packed, r image.Rectangle) {
	b := dst.Rect
	left, bottom := b.Min.X+5, b.Max.Y
	drawText(dst, r, left, b.Min.Y+5, "Drawing App")
	lines := []string{
		"A: Draw/Toggle UI",
		"B: " + strings.ToUpper(s.cursor.Axis.String()),
		"C: Size " + strconv.Itoa(s.cursor.BrushSize),
		"UP/DOWN: Move",
	}
	for i, line := range lines {
		drawText(dst, r, left, bottom-60+15*i, line)
	}
}

// showBanner displays text, waits, then restores the previous screen.
func (s *Session) showBanner(text string) {
	s.banner = text
	if err := s.sched.RequestFull(); err != nil {
		s.log.Warn("banner", slog.Any("err", err))
	}
	s.opts.Sleep(s.opts.BannerDuration)
	s.banner = ""

	var err error
	if s.cursor.UIVisible {
		err = s.sched.RequestFull()
	} else {
		err = s.sched.RequestPartial(bannerRect(s.canvas.Rect))
	}
	if err != nil {
		s.log.Warn("banner restore", slog.Any("err", err))
	}
}
