// Package uc8151 controls a UC8151 (IL0373) black and white e-paper panel
// via SPI.
//
// The controller drives up to 160 sources by 296 gates. This driver addresses
// the panel in landscape orientation: gates run along the X axis and sources
// along the Y axis, so a 128x296 panel is used as a 296x128 image. It
// implements the display.Drawer interface from periph.io.
//
// # Hardware Connection
//
//	Panel Pin → System Pin
//	GND       → GND
//	VCC       → 3.3V
//	SCL/CLK   → SPI Clock (SCLK)
//	SDA/MOSI  → SPI Data (MOSI)
//	CS        → SPI Chip Select
//	DC        → GPIO (any available pin)
//	BUSY      → GPIO input, low while the controller is working
//	RES       → Optional: GPIO for hardware reset
//
// # Basic Usage
//
//	host.Init()
//	port, _ := spireg.Open("")
//	dev, _ := uc8151.NewSPI(port, gpioreg.ByName("GPIO20"), gpioreg.ByName("GPIO26"), &uc8151.Opts{
//		W:   296,
//		H:   128,
//		RST: gpioreg.ByName("GPIO21"),
//	})
//	defer dev.Halt()
//
//	frame := dev.Frame()
//	frame.FillRect(image.Rect(10, 10, 60, 40), image1bit.Off)
//	dev.Refresh()
//
// # Refresh Modes
//
// Refresh sends the whole frame and runs the slow full waveform, which
// clears ghosting. RefreshRect sends a window and runs a partial refresh
// inside it only; the window's top and bottom are widened to multiples of 8
// because the controller addresses sources a byte at a time. Draw renders an
// image into the frame and partially refreshes the bytes that changed since
// the panel was last updated.
//
// All calls block until BUSY is released. There is no timeout.
//
// # Pixel Format
//
// The frame is an image1bit.Packed where On is white and Off is black, the
// same as the controller's RAM with the CDI setting used here.
package uc8151
