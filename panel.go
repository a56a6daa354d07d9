package inkdraw

import (
	"image"
	"log/slog"

	"github.com/example/inkdraw/image1bit"
)

// Panel is a monochrome e-paper panel with its own framebuffer. Refresh and
// RefreshRect block until the panel has finished updating.
type Panel interface {
	// Bounds returns the addressable area.
	Bounds() image.Rectangle
	// Frame returns the framebuffer transferred on refresh. On is white.
	Frame() *image1bit.Packed
	// Refresh redraws the whole panel (slow, full contrast).
	Refresh() error
	// RefreshRect redraws only r (fast, reduced contrast).
	RefreshRect(r image.Rectangle) error
}

// LED is an optional activity indicator.
type LED interface {
	SetLED(on bool) error
}

// setLED switches led when there is one and reports whether that worked.
// Failures are logged only.
func setLED(led LED, log *slog.Logger, on bool) bool {
	if led == nil {
		return true
	}
	if err := led.SetLED(on); err != nil {
		log.Warn("set LED", slog.Bool("on", on), slog.Any("err", err))
		return false
	}
	return true
}
