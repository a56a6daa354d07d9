package uc8151

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"

	"github.com/example/inkdraw/image1bit"
)

// Opts is the configuration for the UC8151 panel.
type Opts struct {
	// Landscape dimensions in pixels. W is the gate count and H the source
	// count; H must be a multiple of 8.
	W int // Width (default: 296)
	H int // Height (default: 128)

	// Rotated flips gate and source scan order (180° rotation).
	Rotated bool

	// Speed is the SPI clock (default: 12MHz).
	Speed physic.Frequency

	// Optional hardware reset pin
	RST gpio.PinOut
}

// Commands.
const (
	cmdPSR  = 0x00 // panel setting
	cmdPWR  = 0x01 // power setting
	cmdPOF  = 0x02 // power off
	cmdPFS  = 0x03 // power off sequence
	cmdPON  = 0x04 // power on
	cmdBTST = 0x06 // booster soft start
	cmdDSLP = 0x07 // deep sleep
	cmdDTM2 = 0x13 // data transmission 2 (new frame)
	cmdDSP  = 0x11 // data stop
	cmdDRF  = 0x12 // display refresh
	cmdPLL  = 0x30
	cmdTSE  = 0x41 // temperature sensor
	cmdCDI  = 0x50 // VCOM and data interval
	cmdTCON = 0x60
	cmdPTL  = 0x90 // partial window
	cmdPTIN = 0x91 // partial in
	cmdPTOU = 0x92 // partial out
)

// PSR bits.
const (
	res96x230  = 0x00
	res96x252  = 0x40
	res128x296 = 0x80
	res160x296 = 0xC0
	formatBW   = 0x10
	scanUp     = 0x08
	shiftRight = 0x04
	boosterOn  = 0x02
	resetNone  = 0x01
)

// deepSleepCheck is the DSLP parameter that confirms the request.
const deepSleepCheck = 0xA5

var resolutions = map[image.Point]byte{
	{X: 230, Y: 96}:  res96x230,
	{X: 252, Y: 96}:  res96x252,
	{X: 296, Y: 128}: res128x296,
	{X: 296, Y: 160}: res160x296,
}

var errHalted = errors.New("uc8151: halted")

// Dev is the device handle for the UC8151 panel.
//
// Dev keeps the frame in landscape orientation, bit set = white. It is sent
// to the controller one gate (column) at a time.
type Dev struct {
	// Communication
	c    conn.Conn
	dc   gpio.PinOut
	busy gpio.PinIn
	rst  gpio.PinOut

	rect  image.Rectangle
	psr   byte
	frame *image1bit.Packed
	shown *image1bit.Packed // what the panel displays since the last refresh

	sleep  func(time.Duration)
	halted bool
}

// NewSPI creates a new UC8151 device connected via SPI.
//
// The SPI port is configured for Mode0, 8-bit transfers. dc selects between
// command (low) and data (high) bytes; busy reads low while the controller
// is working.
//
// opts can be nil to use defaults (296x128 panel).
func NewSPI(p spi.Port, dc gpio.PinOut, busy gpio.PinIn, opts *Opts) (*Dev, error) {
	o, err := checkOpts(opts)
	if err != nil {
		return nil, err
	}
	if err := busy.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("uc8151: busy pin: %w", err)
	}
	c, err := p.Connect(o.Speed, spi.Mode0, 8)
	if err != nil {
		return nil, err
	}
	return newDev(c, dc, busy, o)
}

func checkOpts(opts *Opts) (*Opts, error) {
	o := Opts{W: 296, H: 128}
	if opts != nil {
		o = *opts
	}
	if o.Speed == 0 {
		o.Speed = 12 * physic.MegaHertz
	}
	if o.W <= 0 || o.H <= 0 {
		return nil, errors.New("uc8151: width and height must be positive")
	}
	if o.H%8 != 0 {
		return nil, errors.New("uc8151: height must be a multiple of 8")
	}
	if _, ok := resolutions[image.Pt(o.W, o.H)]; !ok {
		return nil, fmt.Errorf("uc8151: unsupported resolution %dx%d", o.W, o.H)
	}
	return &o, nil
}

func newDev(c conn.Conn, dc gpio.PinOut, busy gpio.PinIn, opts *Opts) (*Dev, error) {
	o, err := checkOpts(opts)
	if err != nil {
		return nil, err
	}
	rect := image.Rect(0, 0, o.W, o.H)
	d := &Dev{
		c:     c,
		dc:    dc,
		busy:  busy,
		rst:   o.RST,
		rect:  rect,
		psr:   resolutions[rect.Max] | formatBW | boosterOn | resetNone,
		frame: image1bit.NewPacked(rect),
		shown: image1bit.NewPacked(rect),
		sleep: time.Sleep,
	}
	if !o.Rotated {
		d.psr |= scanUp | shiftRight
	}
	d.frame.Fill(image1bit.On)
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

// init sends the initialization sequence to the panel.
func (d *Dev) init() error {
	if d.rst != nil {
		if err := d.rst.Out(gpio.Low); err != nil {
			return fmt.Errorf("uc8151: failed to pull RST low: %w", err)
		}
		d.sleep(10 * time.Millisecond)
		if err := d.rst.Out(gpio.High); err != nil {
			return fmt.Errorf("uc8151: failed to pull RST high: %w", err)
		}
		d.sleep(10 * time.Millisecond)
	}
	d.waitBusy()

	seq := []struct {
		cmd  byte
		data []byte
	}{
		{cmdPSR, []byte{d.psr}},
		{cmdPWR, []byte{0x03, 0x00, 0x2B, 0x2B, 0x2B}}, // internal VDH/VDL, ±11V
		{cmdPON, nil},
		{cmdBTST, []byte{0x17, 0x17, 0x17}},
		{cmdPFS, []byte{0x00}},
		{cmdTSE, []byte{0x00}},
		{cmdTCON, []byte{0x22}},
		{cmdCDI, []byte{0x4C}}, // white border, data bit 1 = white
		{cmdPLL, []byte{0x3A}}, // 100Hz
		{cmdPOF, nil},
	}
	for _, s := range seq {
		if err := d.command(s.cmd, s.data...); err != nil {
			return err
		}
		if s.cmd == cmdPON || s.cmd == cmdPOF {
			d.waitBusy()
		}
	}
	return nil
}

// command sends cmd followed by its parameter bytes, if any.
func (d *Dev) command(cmd byte, data ...byte) error {
	if err := d.sendCommand(cmd); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return d.sendData(data)
}

// sendCommand sends a single command byte.
func (d *Dev) sendCommand(cmd byte) error {
	if err := d.dc.Out(gpio.Low); err != nil {
		return err
	}
	return d.c.Tx([]byte{cmd}, nil)
}

// sendData sends a slice of data bytes.
func (d *Dev) sendData(data []byte) error {
	if err := d.dc.Out(gpio.High); err != nil {
		return err
	}
	return d.c.Tx(data, nil)
}

// waitBusy blocks until the controller releases BUSY. There is no timeout: a
// refresh always runs to completion.
func (d *Dev) waitBusy() {
	for d.busy.Read() == gpio.Low {
		d.sleep(5 * time.Millisecond)
	}
}

// ColorModel returns the color model of the panel.
func (d *Dev) ColorModel() color.Model {
	return image1bit.BitModel
}

// Bounds returns the image bounds of the panel.
func (d *Dev) Bounds() image.Rectangle {
	return d.rect
}

// Frame returns the framebuffer. Changes show up on the next Refresh or
// RefreshRect.
func (d *Dev) Frame() *image1bit.Packed {
	return d.frame
}

// Refresh sends the whole frame and runs a full refresh.
func (d *Dev) Refresh() error {
	if d.halted {
		return errHalted
	}
	if err := d.command(cmdPON); err != nil {
		return err
	}
	d.waitBusy()
	if err := d.command(cmdPTOU); err != nil {
		return err
	}
	if err := d.update(d.rect); err != nil {
		return err
	}
	d.shown.CopyRect(d.frame, d.rect)
	return nil
}

// RefreshRect sends the part of the frame covering r and runs a partial
// refresh of that window. r is clipped to the panel and its vertical edges
// are widened to multiples of 8.
func (d *Dev) RefreshRect(r image.Rectangle) error {
	if d.halted {
		return errHalted
	}
	r = d.window(r)
	if r.Empty() {
		return nil
	}
	if err := d.command(cmdPON); err != nil {
		return err
	}
	d.waitBusy()
	x0, x1 := r.Min.X, r.Max.X-1
	if err := d.command(cmdPTIN); err != nil {
		return err
	}
	if err := d.command(cmdPTL,
		byte(r.Min.Y), byte(r.Max.Y-1),
		byte(x0>>8), byte(x0), byte(x1>>8), byte(x1),
		0x01, // scan inside the window only
	); err != nil {
		return err
	}
	if err := d.update(r); err != nil {
		return err
	}
	d.shown.CopyRect(d.frame, r)
	return nil
}

// window clips r to the panel and aligns it to whole source bytes.
func (d *Dev) window(r image.Rectangle) image.Rectangle {
	r = r.Intersect(d.rect)
	if r.Empty() {
		return image.Rectangle{}
	}
	r.Min.Y &^= 7
	r.Max.Y = (r.Max.Y + 7) &^ 7
	return r
}

// update writes r of the frame to the controller, refreshes and powers the
// booster down again.
func (d *Dev) update(r image.Rectangle) error {
	if err := d.command(cmdDTM2); err != nil {
		return err
	}
	if err := d.sendData(d.gates(r)); err != nil {
		return err
	}
	for _, cmd := range []byte{cmdDSP, cmdDRF} {
		if err := d.command(cmd); err != nil {
			return err
		}
	}
	d.waitBusy()
	if err := d.command(cmdPOF); err != nil {
		return err
	}
	d.waitBusy()
	return nil
}

// gates transposes the byte-aligned region r into controller order: one
// run of r.Dy()/8 bytes per gate (landscape column), MSB at the top.
func (d *Dev) gates(r image.Rectangle) []byte {
	rows := r.Dy() / 8
	out := make([]byte, r.Dx()*rows)
	i := 0
	for x := r.Min.X; x < r.Max.X; x++ {
		for y := r.Min.Y; y < r.Max.Y; y += 8 {
			var b byte
			for k := 0; k < 8; k++ {
				if d.frame.BitAt(x, y+k) == image1bit.On {
					b |= 0x80 >> k
				}
			}
			out[i] = b
			i++
		}
	}
	return out
}

// Draw draws src onto the frame and refreshes the smallest window covering
// the pixels that changed, if any.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	if d.halted {
		return errHalted
	}
	dst = dst.Intersect(d.rect)
	if dst.Empty() {
		return nil
	}
	draw.Draw(d.frame, dst, src, sp, draw.Src)
	changed := diffRect(d.shown, d.frame)
	if changed.Empty() {
		return nil
	}
	return d.RefreshRect(changed)
}

// diffRect returns the smallest rectangle covering every byte that differs
// between a and b, or an empty rectangle when they are identical. Both must
// share bounds.
func diffRect(a, b *image1bit.Packed) image.Rectangle {
	minX, minY := a.Rect.Dx(), a.Rect.Dy()
	maxX, maxY := -1, -1
	for y := a.Rect.Min.Y; y < a.Rect.Max.Y; y++ {
		ra, rb := a.Row(y), b.Row(y)
		if bytes.Equal(ra, rb) {
			continue
		}
		row := y - a.Rect.Min.Y
		minY = min(minY, row)
		maxY = max(maxY, row)
		for i := range ra {
			if ra[i] != rb[i] {
				minX = min(minX, i*8)
				maxX = max(maxX, i*8+7)
			}
		}
	}
	if maxY < 0 {
		return image.Rectangle{}
	}
	r := image.Rect(minX, minY, maxX+1, maxY+1).Add(a.Rect.Min)
	return r.Intersect(a.Rect)
}

// Halt powers the panel off and puts the controller into deep sleep. The
// image stays visible. After Halt the device needs a hardware reset before
// it responds again.
func (d *Dev) Halt() error {
	if d.halted {
		return nil
	}
	d.halted = true
	if err := d.command(cmdPOF); err != nil {
		return err
	}
	d.waitBusy()
	return d.command(cmdDSLP, deepSleepCheck)
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("uc8151.Dev{%dx%d}", d.rect.Dx(), d.rect.Dy())
}

var _ display.Drawer = (*Dev)(nil)
