package inkdraw

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/example/inkdraw/image1bit"
)

// face is the only font on the device.
var face font.Face = basicfont.Face7x13

const (
	cursorArm    = 2 // half length of the cursor cross
	cursorMargin = 4 // half size of the region refreshed around the cursor
	bannerHeight = 30
)

// clipped restricts drawing on a Packed image to a rectangle.
type clipped struct {
	*image1bit.Packed
	r image.Rectangle
}

func (c clipped) Bounds() image.Rectangle { return c.r }

func (c clipped) Set(x, y int, col color.Color) {
	if (image.Point{X: x, Y: y}.In(c.r)) {
		c.Packed.Set(x, y, col)
	}
}

// drawText draws s in black with its top-left corner at (x, y).
func drawText(dst *image1bit.Packed, clip image.Rectangle, x, y int, s string) {
	d := font.Drawer{
		Dst:  clipped{Packed: dst, r: clip.Intersect(dst.Rect)},
		Src:  image.Black,
		Face: face,
		Dot:  fixed.P(x, y+face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(s)
}

// textWidth returns the advance width of s in pixels.
func textWidth(s string) int {
	return font.MeasureString(face, s).Ceil()
}

// fitText shortens s from the left until it fits into width pixels.
func fitText(s string, width int) string {
	if textWidth(s) <= width {
		return s
	}
	const ellipsis = ".."
	for i := 1; i < len(s); i++ {
		t := ellipsis + s[i:]
		if textWidth(t) <= width {
			return t
		}
	}
	return ""
}

// cursorBox is the region redrawn when the cursor glyph appears or goes away.
func cursorBox(x, y int) image.Rectangle {
	return image.Rect(x-cursorMargin, y-cursorMargin, x+cursorMargin, y+cursorMargin)
}

// drawCursor draws a small cross at (x, y) in the opposite color of whatever
// is beneath it, so it stays visible over ink.
func drawCursor(dst *image1bit.Packed, clip image.Rectangle, x, y int) {
	clip = clip.Intersect(dst.Rect)
	flip := func(px, py int) {
		if (image.Point{X: px, Y: py}.In(clip)) {
			dst.SetBit(px, py, !dst.BitAt(px, py))
		}
	}
	for d := -cursorArm; d <= cursorArm; d++ {
		flip(x+d, y)
		if d != 0 {
			flip(x, y+d)
		}
	}
}

// fillDisk paints every pixel within radius r of (cx, cy) with b and returns
// the refresh region: the disk's bounding box grown by one pixel.
func fillDisk(img *image1bit.Packed, cx, cy, r int, b image1bit.Bit) image.Rectangle {
	box := image.Rect(cx-r, cy-r, cx+r+1, cy+r+1).Intersect(img.Rect)
	for y := box.Min.Y; y < box.Max.Y; y++ {
		for x := box.Min.X; x < box.Max.X; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= r*r {
				img.SetBit(x, y, b)
			}
		}
	}
	return image.Rect(cx-r-1, cy-r-1, cx+r+2, cy+r+2)
}

// bannerRect is where save confirmations are shown.
func bannerRect(bounds image.Rectangle) image.Rectangle {
	w, h := bounds.Dx(), bounds.Dy()
	origin := bounds.Min.Add(image.Pt(w/4, h/3))
	return image.Rectangle{Min: origin, Max: origin.Add(image.Pt(w/2, bannerHeight))}.Intersect(bounds)
}

// drawBanner blanks the banner area and prints text in it.
func drawBanner(dst *image1bit.Packed, clip image.Rectangle, text string) {
	br := bannerRect(dst.Rect)
	dst.FillRect(br.Intersect(clip), image1bit.On)
	drawText(dst, clip.Intersect(br), br.Min.X+5, br.Min.Y+8, fitText(text, br.Dx()-10))
}
