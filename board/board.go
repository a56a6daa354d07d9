// Package board wires the badge hardware through periph.io: the UC8151 panel
// on SPI, five active-high buttons and the activity LED.
package board

import (
	"errors"
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/example/inkdraw"
	"github.com/example/inkdraw/internal/config"
	"github.com/example/inkdraw/uc8151"
)

// Board holds the opened devices. Close releases them.
type Board struct {
	Panel   *uc8151.Dev
	Buttons *Buttons
	LED     *LED // nil when no LED pin is configured

	port spi.PortCloser
	log  *slog.Logger
}

// Open initializes the host drivers, the buttons, the LED and the panel.
func Open(cfg config.Config, log *slog.Logger) (*Board, error) {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("board: host init: %w", err)
	}
	for _, f := range state.Failed {
		log.Debug("driver failed", slog.String("driver", f.D.String()), slog.Any("err", f.Err))
	}

	buttons, err := openButtons(cfg.Buttons)
	if err != nil {
		return nil, err
	}
	var led *LED
	if cfg.Buttons.LED != "" {
		if led, err = openLED(cfg.Buttons.LED); err != nil {
			return nil, err
		}
	}

	d := cfg.Display
	dc, err := outPin("display.dc", d.DC)
	if err != nil {
		return nil, err
	}
	busy, err := pinByName("display.busy", d.Busy)
	if err != nil {
		return nil, err
	}
	var rst gpio.PinOut
	if d.RST != "" {
		if rst, err = outPin("display.rst", d.RST); err != nil {
			return nil, err
		}
	}

	port, err := spireg.Open(d.SPI)
	if err != nil {
		return nil, fmt.Errorf("board: open SPI %q: %w", d.SPI, err)
	}
	panel, err := uc8151.NewSPI(port, dc, busy, &uc8151.Opts{
		W:       d.Width,
		H:       d.Height,
		Rotated: d.Rotated,
		Speed:   physic.Frequency(d.SPIHz) * physic.Hertz,
		RST:     rst,
	})
	if err != nil {
		port.Close()
		return nil, fmt.Errorf("board: %w", err)
	}
	log.Info("board ready", slog.String("panel", panel.String()), slog.String("spi", port.String()))
	return &Board{Panel: panel, Buttons: buttons, LED: led, port: port, log: log}, nil
}

// Close puts the panel into deep sleep, turns the LED off and releases the
// SPI port.
func (b *Board) Close() error {
	var errs []error
	if err := b.Panel.Halt(); err != nil {
		errs = append(errs, fmt.Errorf("board: halt panel: %w", err))
	}
	if b.LED != nil {
		if err := b.LED.SetLED(false); err != nil {
			errs = append(errs, err)
		}
	}
	if err := b.port.Close(); err != nil {
		errs = append(errs, fmt.Errorf("board: close SPI: %w", err))
	}
	return errors.Join(errs...)
}

func pinByName(setting, name string) (gpio.PinIO, error) {
	if name == "" {
		return nil, fmt.Errorf("board: %s: no pin configured", setting)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("board: %s: GPIO pin %s not found", setting, name)
	}
	return p, nil
}

func outPin(setting, name string) (gpio.PinIO, error) {
	p, err := pinByName(setting, name)
	if err != nil {
		return nil, err
	}
	if err := p.Out(gpio.High); err != nil {
		return nil, fmt.Errorf("board: %s: %w", setting, err)
	}
	return p, nil
}

// Buttons reads the badge buttons. A button is pressed while its pin reads
// high; the pins are pulled down.
type Buttons struct {
	pins map[inkdraw.Button]gpio.PinIn
}

var _ inkdraw.ButtonReader = (*Buttons)(nil)

func openButtons(cfg config.ButtonsConfig) (*Buttons, error) {
	names := map[inkdraw.Button]string{
		inkdraw.ButtonUp:   cfg.Up,
		inkdraw.ButtonDown: cfg.Down,
		inkdraw.ButtonA:    cfg.A,
		inkdraw.ButtonB:    cfg.B,
		inkdraw.ButtonC:    cfg.C,
	}
	pins := make(map[inkdraw.Button]gpio.PinIn, len(names))
	for btn, name := range names {
		p, err := pinByName("buttons."+btn.String(), name)
		if err != nil {
			return nil, err
		}
		pins[btn] = p
	}
	return NewButtons(pins)
}

// NewButtons configures each pin as a pulled-down input.
func NewButtons(pins map[inkdraw.Button]gpio.PinIn) (*Buttons, error) {
	for btn, p := range pins {
		if err := p.In(gpio.PullDown, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("board: button %s on %s: %w", btn, p, err)
		}
	}
	return &Buttons{pins: pins}, nil
}

// Pressed implements inkdraw.ButtonReader. Buttons without a pin are never
// pressed.
func (b *Buttons) Pressed(btn inkdraw.Button) bool {
	p, ok := b.pins[btn]
	return ok && p.Read() == gpio.High
}

// LED drives the activity LED.
type LED struct {
	pin gpio.PinOut
}

var _ inkdraw.LED = (*LED)(nil)

func openLED(name string) (*LED, error) {
	p, err := pinByName("buttons.led", name)
	if err != nil {
		return nil, err
	}
	return NewLED(p), nil
}

// NewLED wraps pin.
func NewLED(pin gpio.PinOut) *LED { return &LED{pin: pin} }

// SetLED implements inkdraw.LED.
func (l *LED) SetLED(on bool) error {
	if err := l.pin.Out(gpio.Level(on)); err != nil {
		return fmt.Errorf("board: LED: %w", err)
	}
	return nil
}
