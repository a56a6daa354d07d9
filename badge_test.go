package inkdraw

import (
	"context"
	"fmt"
	"testing"

	"github.com/example/inkdraw/image1bit"
)

func TestBadgeShowsImage(t *testing.T) {
	panel := newFakePanel(296, 128)
	led := &fakeLED{}
	b := NewBadge(panel, &fakeBadgeSource{img: markedImage(296, 128, 42)}, &Options{LED: led})
	if err := b.Start(); err != nil {
		t.Fatal(err)
	}
	if !b.Loaded() {
		t.Fatal("badge not loaded")
	}
	if panel.Frame().BitAt(42, 64) != image1bit.Off || panel.Frame().BitAt(41, 64) != image1bit.On {
		t.Error("badge image not on the panel")
	}
	if panel.fulls != 1 {
		t.Errorf("full refreshes = %d, want 1", panel.fulls)
	}
	if fmt.Sprint(led.states) != "[true]" {
		t.Errorf("LED = %v, want [true]", led.states)
	}
	if handled, err := b.Poll(context.Background()); handled || err != nil {
		t.Errorf("Poll() = %v, %v", handled, err)
	}
}

func TestBadgeLoadError(t *testing.T) {
	panel := newFakePanel(296, 128)
	b := NewBadge(panel, &fakeBadgeSource{err: fmt.Errorf("%w: no badge", ErrStorageRead)}, nil)
	if err := b.Start(); err != nil {
		t.Fatalf("Start() = %v, a missing badge is shown, not returned", err)
	}
	if b.Loaded() {
		t.Error("Loaded() = true")
	}
	if !hasInk(panel.Frame()) {
		t.Error("no error text drawn")
	}
}
