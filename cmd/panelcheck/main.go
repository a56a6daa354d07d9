// Command panelcheck exercises the badge panel and buttons without the
// drawing app, for bring-up of a new board.
//
// It shows:
// - a checkerboard with a full refresh
// - a row of boxes, each with its own partial refresh
// - text drawn through the display.Drawer interface
// - the buttons currently held, until interrupted (-demo buttons)
//
// Hardware Setup: see cmd/inkdraw; the same config file is read.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/example/inkdraw"
	"github.com/example/inkdraw/board"
	"github.com/example/inkdraw/image1bit"
	"github.com/example/inkdraw/internal/config"
	inklog "github.com/example/inkdraw/internal/log"
	"github.com/example/inkdraw/uc8151"
)

var (
	configPath = flag.String("config", "/etc/inkdraw.yaml", "Configuration file")
	demoMode   = flag.String("demo", "all", "Demo to run: all, checker, partial, text, buttons")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	b, err := board.Open(cfg, inklog.WithComponent("board"))
	if err != nil {
		log.Fatalf("Failed to open board: %v", err)
	}
	defer b.Close()

	dev := b.Panel
	fmt.Printf("Display initialized: %v\n", dev)

	switch *demoMode {
	case "all":
		runAllDemos(dev)
	case "checker":
		runCheckerDemo(dev)
	case "partial":
		runPartialDemo(dev)
	case "text":
		runTextDemo(dev)
	case "buttons":
		runButtonDemo(dev, b.Buttons)
	default:
		fmt.Printf("Unknown demo: %s\n", *demoMode)
	}

	fmt.Println("Demo complete")
}

func runAllDemos(dev *uc8151.Dev) {
	fmt.Println("1. Checker Demo")
	runCheckerDemo(dev)
	time.Sleep(3 * time.Second)

	fmt.Println("2. Partial Demo")
	runPartialDemo(dev)
	time.Sleep(3 * time.Second)

	fmt.Println("3. Text Demo")
	runTextDemo(dev)
	time.Sleep(3 * time.Second)

	// Leave the panel blank.
	dev.Frame().Fill(image1bit.On)
	if err := dev.Refresh(); err != nil {
		fmt.Printf("  Error clearing: %v\n", err)
	}
}

// runCheckerDemo fills the frame with 8px squares and runs a full refresh.
func runCheckerDemo(dev *uc8151.Dev) {
	frame := dev.Frame()
	r := frame.Bounds()
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			frame.SetBit(x, y, image1bit.Bit((x/8+y/8)%2 == 0))
		}
	}
	start := time.Now()
	if err := dev.Refresh(); err != nil {
		fmt.Printf("  Error: %v\n", err)
		return
	}
	fmt.Printf("  Full refresh took %v\n", time.Since(start))
}

// runPartialDemo blanks the panel, then fills boxes one at a time with
// partial refreshes.
func runPartialDemo(dev *uc8151.Dev) {
	frame := dev.Frame()
	frame.Fill(image1bit.On)
	if err := dev.Refresh(); err != nil {
		fmt.Printf("  Error: %v\n", err)
		return
	}
	r := frame.Bounds()
	for i := 0; i < 8; i++ {
		box := image.Rect(8+i*36, r.Dy()/2-12, 8+i*36+24, r.Dy()/2+12).Intersect(r)
		frame.FillRect(box, image1bit.Off)
		start := time.Now()
		if err := dev.RefreshRect(box); err != nil {
			fmt.Printf("  Error: %v\n", err)
			return
		}
		fmt.Printf("  Box %d refreshed in %v\n", i, time.Since(start))
	}
}

// runTextDemo renders text into an image and hands it to Draw, which only
// refreshes what changed.
func runTextDemo(dev *uc8151.Dev) {
	img := image1bit.NewPacked(dev.Bounds())
	img.Fill(image1bit.On)
	d := font.Drawer{Dst: img, Src: image.Black, Face: basicfont.Face7x13}
	for i, line := range []string{"inkdraw panel check", dev.String(), time.Now().Format(time.DateTime)} {
		d.Dot = fixed.P(10, 20+18*i)
		d.DrawString(line)
	}
	if err := dev.Draw(dev.Bounds(), img, image.Point{}); err != nil {
		fmt.Printf("  Error: %v\n", err)
	}
}

// runButtonDemo prints the held buttons on the panel until interrupted.
func runButtonDemo(dev *uc8151.Dev, buttons inkdraw.ButtonReader) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	last := inkdraw.Buttons(0xFF)
	line := image.Rect(0, 56, dev.Bounds().Dx(), 72)
	for ctx.Err() == nil {
		held := inkdraw.Sample(buttons)
		if held != last {
			last = held
			frame := dev.Frame()
			frame.FillRect(line, image1bit.On)
			d := font.Drawer{Dst: frame, Src: image.Black, Face: basicfont.Face7x13, Dot: fixed.P(10, 68)}
			d.DrawString("held: " + held.String())
			if err := dev.RefreshRect(line); err != nil {
				fmt.Printf("  Error: %v\n", err)
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
}
