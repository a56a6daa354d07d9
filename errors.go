package inkdraw

import (
	"errors"

	"github.com/example/inkdraw/image1bit"
)

// Error kinds. Storage implementations wrap one of the storage kinds together
// with the underlying cause, so callers can test both with errors.Is.
var (
	// ErrStorageRead reports missing or corrupt persisted state. Callers fall
	// back to defaults.
	ErrStorageRead = errors.New("inkdraw: storage read failed")
	// ErrStorageWrite reports a failed durable write (disk full, I/O fault).
	ErrStorageWrite = errors.New("inkdraw: storage write failed")
	// ErrDirectory reports that a target directory could not be created.
	ErrDirectory = errors.New("inkdraw: cannot create directory")
	// ErrBounds reports a coordinate outside the canvas.
	ErrBounds = image1bit.ErrBounds

	// ErrRefreshInFlight is returned when a refresh is requested while another
	// one has not completed.
	ErrRefreshInFlight = errors.New("inkdraw: refresh already in flight")
	// ErrEmptyRect is returned for a partial refresh that covers no pixels
	// once clamped to the panel.
	ErrEmptyRect = errors.New("inkdraw: empty refresh rectangle")
	// ErrBufferInverted is returned when a frame is composed while the canvas
	// is temporarily inverted for export.
	ErrBufferInverted = errors.New("inkdraw: canvas is inverted")
)
