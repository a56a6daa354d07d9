//go:build !inkdebug

package image1bit

import (
	"image"
	"testing"
)

func TestPackedClampsOutOfRange(t *testing.T) {
	img := NewPacked(image.Rect(0, 0, 10, 4))

	img.SetBit(-5, -5, On)
	if img.BitAt(0, 0) != On {
		t.Error("SetBit(-5, -5) should clamp to (0, 0)")
	}

	img.SetBit(50, 50, On)
	if img.BitAt(9, 3) != On {
		t.Error("SetBit(50, 50) should clamp to (9, 3)")
	}
	if img.BitAt(100, 100) != On {
		t.Error("BitAt(100, 100) should read the clamped corner")
	}

	// Clamping never touches padding.
	if img.Row(3)[1]&0x3F != 0 {
		t.Errorf("padding bits set: 0x%02X", img.Row(3)[1])
	}
}
