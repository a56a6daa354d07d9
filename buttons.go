package inkdraw

import "strings"

// Button identifies one of the badge's momentary buttons.
type Button uint8

// The badge buttons. A is the primary (draw) button, B toggles the movement
// axis and acts as the save modifier, C cycles the brush size.
const (
	ButtonUp Button = 1 << iota
	ButtonDown
	ButtonA
	ButtonB
	ButtonC
)

// AllButtons lists every button in sampling order.
var AllButtons = []Button{ButtonUp, ButtonDown, ButtonA, ButtonB, ButtonC}

func (b Button) String() string {
	switch b {
	case ButtonUp:
		return "UP"
	case ButtonDown:
		return "DOWN"
	case ButtonA:
		return "A"
	case ButtonB:
		return "B"
	case ButtonC:
		return "C"
	}
	return "?"
}

// Buttons is the set of buttons held during one poll.
type Buttons uint8

// Has reports whether every button in mask is held.
func (s Buttons) Has(mask Button) bool {
	return Buttons(mask)&s == Buttons(mask)
}

// Any reports whether at least one button in mask is held.
func (s Buttons) Any(mask Button) bool {
	return Buttons(mask)&s != 0
}

func (s Buttons) String() string {
	var names []string
	for _, b := range AllButtons {
		if s.Has(b) {
			names = append(names, b.String())
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "+")
}

// ButtonReader reports whether a debounced button is currently held.
type ButtonReader interface {
	Pressed(b Button) bool
}

// Sample reads every button once.
func Sample(r ButtonReader) Buttons {
	var s Buttons
	for _, b := range AllButtons {
		if r.Pressed(b) {
			s |= Buttons(b)
		}
	}
	return s
}
