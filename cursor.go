package inkdraw

import (
	"fmt"
	"image"
)

// Axis selects which coordinate UP and DOWN move the cursor along.
type Axis uint8

const (
	// Vertical: UP decreases y, DOWN increases y.
	Vertical Axis = iota
	// Horizontal: UP increases x, DOWN decreases x.
	Horizontal
)

func (a Axis) String() string {
	if a == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

// ParseAxis is the inverse of Axis.String.
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "vertical":
		return Vertical, nil
	case "horizontal":
		return Horizontal, nil
	}
	return Vertical, fmt.Errorf("inkdraw: unknown axis %q", s)
}

// Brush size limits.
const (
	MinBrushSize     = 1
	MaxBrushSize     = 5
	DefaultBrushSize = 2
)

// CursorState is the drawing session state that survives a power cycle.
type CursorState struct {
	X, Y      int
	BrushSize int
	Axis      Axis
	UIVisible bool
	// Drawing suppresses the cursor glyph. It is not persisted.
	Drawing bool
	// SaveCount is the index used for the next saved drawing.
	SaveCount uint32
}

// DefaultCursorState returns the state of a fresh session on a canvas with
// the given bounds: cursor centered, brush 2, vertical movement, UI shown.
func DefaultCursorState(bounds image.Rectangle) CursorState {
	return CursorState{
		X:         bounds.Min.X + bounds.Dx()/2,
		Y:         bounds.Min.Y + bounds.Dy()/2,
		BrushSize: DefaultBrushSize,
		Axis:      Vertical,
		UIVisible: true,
	}
}

// NextBrush advances the brush size cyclically through [1, 5].
func (c *CursorState) NextBrush() {
	if c.BrushSize < MinBrushSize || c.BrushSize > MaxBrushSize {
		c.BrushSize = MinBrushSize
		return
	}
	c.BrushSize = c.BrushSize%MaxBrushSize + 1
}

// ToggleAxis flips between Vertical and Horizontal.
func (c *CursorState) ToggleAxis() {
	if c.Axis == Vertical {
		c.Axis = Horizontal
	} else {
		c.Axis = Vertical
	}
}

// sanitized clamps a loaded state into bounds and valid ranges.
func (c CursorState) sanitized(bounds image.Rectangle) CursorState {
	c.X = clamp(c.X, bounds.Min.X, bounds.Max.X-1)
	c.Y = clamp(c.Y, bounds.Min.Y, bounds.Max.Y-1)
	if c.BrushSize < MinBrushSize || c.BrushSize > MaxBrushSize {
		c.BrushSize = DefaultBrushSize
	}
	if c.Axis != Vertical && c.Axis != Horizontal {
		c.Axis = Vertical
	}
	c.Drawing = false
	return c
}

// checkpointFields holds the fields whose change triggers a checkpoint.
type checkpointFields struct {
	BrushSize int
	Axis      Axis
	UIVisible bool
	SaveCount uint32
}

func (c CursorState) checkpointFields() checkpointFields {
	return checkpointFields{
		BrushSize: c.BrushSize,
		Axis:      c.Axis,
		UIVisible: c.UIVisible,
		SaveCount: c.SaveCount,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
