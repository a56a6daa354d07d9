// Package image1bit provides a 1-bit monochrome image format for e-paper panels.
//
// Pixels are packed 8 per byte, MSB = leftmost pixel. See doc.go for details.
package image1bit

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
)

// Bit is a 1-bit color. On renders white, Off renders black.
type Bit bool

const (
	On  = Bit(true)
	Off = Bit(false)
)

// RGBA implements color.Color.
func (b Bit) RGBA() (r, g, bl, a uint32) {
	if b {
		return 0xFFFF, 0xFFFF, 0xFFFF, 0xFFFF
	}
	return 0, 0, 0, 0xFFFF
}

func (b Bit) String() string {
	if b {
		return "On"
	}
	return "Off"
}

// toBit converts any color.Color to Bit by thresholding its luminance.
func toBit(c color.Color) color.Color {
	if b, ok := c.(Bit); ok {
		return b
	}
	r, g, b, _ := c.RGBA()
	// Standard grayscale conversion: 0.299R + 0.587G + 0.114B
	y := (299*r + 587*g + 114*b + 500) / 1000
	return Bit(y >= 0x8000)
}

// BitModel converts colors to Bit.
var BitModel = color.ModelFunc(toBit)

// ErrBounds is wrapped by BoundsError.
var ErrBounds = errors.New("image1bit: coordinate out of bounds")

// BoundsError reports a coordinate outside of an image. It is only raised in
// builds with the inkdebug tag; release builds clamp.
type BoundsError struct {
	X, Y int
	Rect image.Rectangle
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("image1bit: (%d,%d) outside %v", e.X, e.Y, e.Rect)
}

func (e *BoundsError) Unwrap() error { return ErrBounds }

// Packed is a 1-bit image where 8 horizontally adjacent pixels share a byte.
type Packed struct {
	Pix    []byte          // Pixel data, MSB first
	Stride int             // Bytes per row
	Rect   image.Rectangle // Image bounds
}

// NewPacked creates a new Packed image with the specified bounds. All pixels
// start Off.
func NewPacked(r image.Rectangle) *Packed {
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return &Packed{Rect: r}
	}
	stride := (w + 7) / 8
	return &Packed{
		Pix:    make([]byte, stride*h),
		Stride: stride,
		Rect:   r,
	}
}

// ColorModel returns the color model of the image.
func (p *Packed) ColorModel() color.Model {
	return BitModel
}

// Bounds returns the image bounds.
func (p *Packed) Bounds() image.Rectangle {
	return p.Rect
}

// At returns the color of the pixel at (x, y), or Off outside the bounds.
// It implements the image.Image interface.
func (p *Packed) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return Off
	}
	return p.bit(x, y)
}

// Set sets the color of the pixel at (x, y). Coordinates outside the image are
// ignored, which lets glyph and shape rasterizers clip naturally.
func (p *Packed) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	p.setBit(x, y, BitModel.Convert(c).(Bit))
}

// BitAt returns the Bit at (x, y). Out-of-range coordinates are clamped.
func (p *Packed) BitAt(x, y int) Bit {
	x, y = p.clamp(x, y)
	return p.bit(x, y)
}

// SetBit sets the Bit at (x, y). Out-of-range coordinates are clamped.
func (p *Packed) SetBit(x, y int, b Bit) {
	x, y = p.clamp(x, y)
	p.setBit(x, y, b)
}

// InvertAll flips every pixel in place. Two calls in a row restore the exact
// previous contents; padding bits stay zero.
func (p *Packed) InvertAll() {
	tail := p.tailMask()
	for row := 0; row+p.Stride <= len(p.Pix); row += p.Stride {
		line := p.Pix[row : row+p.Stride]
		for i := range line {
			line[i] = ^line[i]
		}
		line[len(line)-1] &= tail
	}
}

// Fill sets every pixel to b.
func (p *Packed) Fill(b Bit) {
	v := byte(0)
	if b {
		v = 0xFF
	}
	tail := p.tailMask()
	for row := 0; row+p.Stride <= len(p.Pix); row += p.Stride {
		line := p.Pix[row : row+p.Stride]
		for i := range line {
			line[i] = v
		}
		line[len(line)-1] &= tail
	}
}

// FillRect sets every pixel of r that lies inside the image to b.
func (p *Packed) FillRect(r image.Rectangle, b Bit) {
	r = r.Intersect(p.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			p.setBit(x, y, b)
		}
	}
}

// CopyRect copies the pixels of r from src into p. Only the part of r inside
// both images is copied.
func (p *Packed) CopyRect(src *Packed, r image.Rectangle) {
	r = r.Intersect(p.Rect).Intersect(src.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			p.setBit(x, y, src.bit(x, y))
		}
	}
}

// Row returns the packed bytes of row y, including padding bits. The returned
// slice aliases Pix.
func (p *Packed) Row(y int) []byte {
	start := (y - p.Rect.Min.Y) * p.Stride
	return p.Pix[start : start+p.Stride]
}

// Clone returns a deep copy of the image.
func (p *Packed) Clone() *Packed {
	c := &Packed{Stride: p.Stride, Rect: p.Rect}
	c.Pix = append([]byte(nil), p.Pix...)
	return c
}

// Equal reports whether p and q have the same bounds and pixels.
func (p *Packed) Equal(q *Packed) bool {
	return p.Rect == q.Rect && bytes.Equal(p.Pix, q.Pix)
}

func (p *Packed) bit(x, y int) Bit {
	offset, mask := p.pixOffset(x, y)
	return Bit(p.Pix[offset]&mask != 0)
}

func (p *Packed) setBit(x, y int, b Bit) {
	offset, mask := p.pixOffset(x, y)
	if b {
		p.Pix[offset] |= mask
	} else {
		p.Pix[offset] &^= mask
	}
}

// pixOffset returns the byte offset and bit mask for the pixel at (x, y).
// Column 0 of each byte is bit 7 (mask 0x80), column 7 is bit 0 (mask 0x01).
func (p *Packed) pixOffset(x, y int) (offset int, mask byte) {
	col := x - p.Rect.Min.X
	offset = (y-p.Rect.Min.Y)*p.Stride + col/8
	mask = 0x80 >> uint(col&7)
	return
}

// tailMask keeps the meaningful bits of the last byte of a row.
func (p *Packed) tailMask() byte {
	if rem := p.Rect.Dx() % 8; rem != 0 {
		return byte(0xFF << uint(8-rem))
	}
	return 0xFF
}

func (p *Packed) clamp(x, y int) (int, int) {
	if (image.Point{X: x, Y: y}.In(p.Rect)) {
		return x, y
	}
	if strictBounds {
		panic(&BoundsError{X: x, Y: y, Rect: p.Rect})
	}
	return clampInt(x, p.Rect.Min.X, p.Rect.Max.X-1), clampInt(y, p.Rect.Min.Y, p.Rect.Max.Y-1)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
