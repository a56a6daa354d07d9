// Package inkdraw is a pixel drawing application for a 1-bit e-paper badge
// with five buttons.
//
// A Session owns a canvas (an image1bit.Packed the size of the panel), the
// cursor state, and the devices: a Panel to draw on, a ButtonReader to poll
// and a Store for checkpoints and saved drawings. The caller runs a single
// cooperative loop:
//
//	s := inkdraw.New(panel, buttons, store, &inkdraw.Options{Logger: logger})
//	if err := s.Start(); err != nil {
//		return err
//	}
//	for ctx.Err() == nil {
//		if _, err := s.Poll(ctx); err != nil {
//			logger.Error("poll", "err", err)
//		}
//		time.Sleep(50 * time.Millisecond)
//	}
//
// # Buttons
//
// At most one action runs per poll. Combos are checked before the single
// buttons they contain:
//
//	B + UP      save the canvas as drawing_<n>.bmp (ignored while A is held)
//	UP          move the cursor up (vertical) or right (horizontal)
//	DOWN        move the cursor down (vertical) or left (horizontal)
//	A + UP      clear the canvas
//	A           hide the help text if shown, then paint a disk at the cursor
//	B           toggle the movement axis
//	C           cycle the brush radius 1..5
//
// Changes to the brush, axis, UI visibility or save counter are checkpointed
// to the Store after the screen has been updated. Brush dabs are not: only an
// explicit save writes pixels to storage.
//
// # Refreshing
//
// E-paper refreshes are slow and block. The Scheduler composes the canvas,
// help text, cursor cross and banners into the panel framebuffer for the
// requested region and then runs one refresh. Cursor moves and brush dabs use
// partial refreshes of a few pixels; UI changes and clears use full refreshes.
// A refresh is never started while another is running.
//
// # Saving
//
// Working pixels use the panel convention: ink is image1bit.Off. For export
// the canvas is inverted so ink becomes a set bit, encoded with package bmp,
// written through the Store, and inverted back on every return path. No frame
// is composed while the canvas is inverted. The save counter is recovered at
// startup from the highest drawing_<n> file present plus one.
//
// The counter never wraps: once it reaches math.MaxUint32 saves are refused,
// and a Store never replaces an existing image.
//
// # Other applications
//
// The Screenshotter writes the whole panel framebuffer to
// screen_<unix time>.bmp when B and UP are pressed. The Viewer pages through
// the images of a Gallery (UP/DOWN with wraparound, A for a name label and
// position markers) and remembers where it was. The Badge shows a single
// badge image, or an error message when it cannot be loaded.
package inkdraw
