// Package image1bit provides a 1-bit monochrome image format matching the RAM
// layout of black/white e-paper controllers.
//
// Pixels are packed 8 per byte, most significant bit first, so the leftmost
// pixel of a byte is bit 7. Rows are Stride bytes long where
// Stride = ceil(width/8). Any bits past the last column of a row are padding
// and are kept at zero by every method of Packed.
//
// Memory layout example for a 10-pixel row:
//
//	Pixels: 0 1 2 3 4 5 6 7 | 8 9
//	Values: 1 0 1 1 0 0 0 1 | 1 1
//	Bytes:  0xB1              0xC0
//	        (0xC0 = pixels 8 and 9 in bits 7 and 6, six zero padding bits)
//
// A set bit is On and renders white (the bare paper); a cleared bit is Off and
// renders black (ink). This is the convention the panel hardware uses, and the
// one the drawing code works in.
//
// Example usage:
//
//	img := image1bit.NewPacked(image.Rect(0, 0, 296, 128))
//	img.Fill(image1bit.On)
//	img.SetBit(10, 20, image1bit.Off)
//	fmt.Println(img.BitAt(10, 20)) // Off
//
//	// Works with the standard image/draw and x/image/font packages.
//	draw.Draw(img, image.Rect(0, 0, 8, 8), image.Black, image.Point{}, draw.Src)
//
// Out-of-range coordinates passed to BitAt and SetBit are clamped onto the
// nearest edge pixel. Building with the inkdebug tag turns them into a panic
// carrying a *BoundsError instead, so logic errors surface during development.
// At and Set follow the standard library image types and ignore out-of-range
// coordinates.
package image1bit
