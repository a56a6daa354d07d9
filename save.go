package inkdraw

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/example/inkdraw/bmp"
	"github.com/example/inkdraw/image1bit"
)

// DrawingName returns the file name of the drawing saved with index n.
func DrawingName(n uint32) string {
	return fmt.Sprintf("drawing_%d.bmp", n)
}

// Save exports the canvas as drawing_<SaveCount>.bmp, advances and
// checkpoints the save counter, and shows a confirmation banner. On failure a
// "Save failed!" banner is shown and the error is returned. The canvas is
// left exactly as it was in both cases.
//
// The last index, math.MaxUint32, is never used: once the counter reaches it
// every save fails with ErrStorageWrite instead of wrapping around onto an
// existing drawing.
func (s *Session) Save() (string, error) {
	if s.cursor.SaveCount == math.MaxUint32 {
		s.showBanner("Save failed!")
		return "", fmt.Errorf("%w: save counter exhausted", ErrStorageWrite)
	}
	name := DrawingName(s.cursor.SaveCount)
	path, err := exportInverted(s.canvas, &s.inverted, *s.opts.Palette, func(data []byte) (string, error) {
		return s.store.WriteImage(name, data)
	})
	if err != nil {
		s.showBanner("Save failed!")
		return "", err
	}

	s.log.Info("saved drawing", slog.String("path", path), slog.Uint64("index", uint64(s.cursor.SaveCount)))
	s.cursor.SaveCount++
	s.checkpoint()
	s.showBanner("Saved as " + path)
	return path, nil
}

// exportInverted encodes img with its bits flipped and hands the bytes to
// write. The inversion maps ink (Off) onto the palette's On entry. img is
// flipped back on every return path, and *inverted is set for the duration so
// that no frame is composed from the flipped buffer.
func exportInverted(img *image1bit.Packed, inverted *bool, p bmp.Palette, write func([]byte) (string, error)) (string, error) {
	img.InvertAll()
	*inverted = true
	defer func() {
		img.InvertAll()
		*inverted = false
	}()
	return write(bmp.Marshal(img, p))
}
