// Package bmp writes 1-bit Windows bitmap files from image1bit images.
//
// The output is an uncompressed, bottom-up BMP with a BITMAPINFOHEADER and a
// two entry color table, which every common image viewer can open. No imaging
// library is involved; the bytes are laid out here directly.
package bmp

import (
	"encoding/binary"
	"fmt"
	"image/color"
	"io"

	"github.com/example/inkdraw/image1bit"
)

const (
	fileHeaderLen = 14
	infoHeaderLen = 40
	paletteLen    = 2 * 4

	// PixelOffset is the offset of the pixel array from the start of the file.
	PixelOffset = fileHeaderLen + infoHeaderLen + paletteLen
)

// Palette maps the two bit values to colors. Entry 0 is Off, entry 1 is On.
type Palette struct {
	Off color.Color
	On  color.Color
}

// DefaultPalette stores clear bits as white and set bits as black, so an image
// whose set bits are ink opens as black drawing on white paper.
var DefaultPalette = Palette{Off: color.White, On: color.Black}

// Header holds the decoded fields of the file and info headers.
type Header struct {
	FileSize    uint32
	PixelOffset uint32
	Width       int32
	Height      int32
	Planes      uint16
	BitCount    uint16
	Compression uint32
	ImageSize   uint32
	ColorsUsed  uint32
	Important   uint32
}

// RowBytes returns the size in bytes of one stored row of a 1-bit image of
// width w, including the padding to a 4 byte boundary.
func RowBytes(w int) int {
	return (w + 31) / 32 * 4
}

// ImageSize returns the size of the pixel array for a w×h image.
func ImageSize(w, h int) int {
	return RowBytes(w) * h
}

// FileSize returns the total size of the encoded file for a w×h image.
func FileSize(w, h int) int {
	return PixelOffset + ImageSize(w, h)
}

// Marshal encodes img as a 1-bit BMP. Each bit of img is stored unchanged and
// looked up in p. It does not modify img and always returns the same bytes for
// the same image.
func Marshal(img *image1bit.Packed, p Palette) []byte {
	w, h := img.Rect.Dx(), img.Rect.Dy()
	buf := make([]byte, FileSize(w, h))

	putHeader(buf, w, h)
	putColor(buf[fileHeaderLen+infoHeaderLen:], p.Off)
	putColor(buf[fileHeaderLen+infoHeaderLen+4:], p.On)

	rowBytes := RowBytes(w)
	used := (w + 7) / 8
	tail := byte(0xFF)
	if rem := w % 8; rem != 0 {
		tail = byte(0xFF << uint(8-rem))
	}

	pixels := buf[PixelOffset:]
	for i := 0; i < h; i++ {
		// Bottom-up: the first stored row is the last image row.
		src := img.Row(img.Rect.Max.Y - 1 - i)
		dst := pixels[i*rowBytes : (i+1)*rowBytes]
		copy(dst, src[:used])
		if used > 0 {
			dst[used-1] &= tail
		}
	}
	return buf
}

// Encode writes img to w as a 1-bit BMP.
func Encode(w io.Writer, img *image1bit.Packed, p Palette) error {
	data := Marshal(img, p)
	n, err := w.Write(data)
	if err != nil {
		return fmt.Errorf("bmp: write: %w", err)
	}
	if n != len(data) {
		return fmt.Errorf("bmp: write: %w", io.ErrShortWrite)
	}
	return nil
}

// ReadHeader parses the file and info headers at the start of data.
func ReadHeader(data []byte) (Header, error) {
	var h Header
	if len(data) < fileHeaderLen+infoHeaderLen {
		return h, fmt.Errorf("bmp: header truncated at %d bytes", len(data))
	}
	if data[0] != 'B' || data[1] != 'M' {
		return h, fmt.Errorf("bmp: bad magic %q", data[:2])
	}
	le := binary.LittleEndian
	if size := le.Uint32(data[14:]); size != infoHeaderLen {
		return h, fmt.Errorf("bmp: unsupported info header size %d", size)
	}
	h.FileSize = le.Uint32(data[2:])
	h.PixelOffset = le.Uint32(data[10:])
	h.Width = int32(le.Uint32(data[18:]))
	h.Height = int32(le.Uint32(data[22:]))
	h.Planes = le.Uint16(data[26:])
	h.BitCount = le.Uint16(data[28:])
	h.Compression = le.Uint32(data[30:])
	h.ImageSize = le.Uint32(data[34:])
	h.ColorsUsed = le.Uint32(data[46:])
	h.Important = le.Uint32(data[50:])
	return h, nil
}

func putHeader(buf []byte, w, h int) {
	le := binary.LittleEndian

	// File header
	buf[0], buf[1] = 'B', 'M'
	le.PutUint32(buf[2:], uint32(FileSize(w, h)))
	le.PutUint32(buf[6:], 0) // reserved
	le.PutUint32(buf[10:], PixelOffset)

	// Info header
	info := buf[fileHeaderLen:]
	le.PutUint32(info[0:], infoHeaderLen)
	le.PutUint32(info[4:], uint32(int32(w)))
	le.PutUint32(info[8:], uint32(int32(h))) // positive: bottom-up
	le.PutUint16(info[12:], 1)               // planes
	le.PutUint16(info[14:], 1)               // bits per pixel
	le.PutUint32(info[16:], 0)               // BI_RGB
	le.PutUint32(info[20:], uint32(ImageSize(w, h)))
	le.PutUint32(info[24:], 0) // x pixels per meter
	le.PutUint32(info[28:], 0) // y pixels per meter
	le.PutUint32(info[32:], 2) // colors used
	le.PutUint32(info[36:], 2) // important colors
}

// putColor stores c as a B,G,R,0 quad.
func putColor(buf []byte, c color.Color) {
	r, g, b, _ := c.RGBA()
	buf[0] = byte(b >> 8)
	buf[1] = byte(g >> 8)
	buf[2] = byte(r >> 8)
	buf[3] = 0
}
