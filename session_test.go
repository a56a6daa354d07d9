package inkdraw

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"testing"
	"time"

	"github.com/jsummers/gobmp"

	"github.com/example/inkdraw/image1bit"
)

func newTestSession(t *testing.T, st *fakeStore) (*Session, *fakePanel) {
	t.Helper()
	panel := newFakePanel(296, 128)
	s := New(panel, &fakeButtons{}, st, &Options{Sleep: func(time.Duration) {}})
	return s, panel
}

func TestNewDefaults(t *testing.T) {
	s, _ := newTestSession(t, &fakeStore{})
	want := CursorState{X: 148, Y: 64, BrushSize: 2, Axis: Vertical, UIVisible: true}
	if got := s.Cursor(); got != want {
		t.Errorf("Cursor() = %+v, want %+v", got, want)
	}
	for y := 0; y < 128; y++ {
		for x := 0; x < 296; x++ {
			if s.Canvas().BitAt(x, y) != image1bit.On {
				t.Fatalf("canvas pixel (%d,%d) not blank", x, y)
			}
		}
	}
}

func TestNewRestoresState(t *testing.T) {
	st := &fakeStore{state: &CursorState{X: 10, Y: 20, BrushSize: 4, Axis: Horizontal, SaveCount: 3}}
	s, _ := newTestSession(t, st)
	want := CursorState{X: 10, Y: 20, BrushSize: 4, Axis: Horizontal, SaveCount: 3}
	if got := s.Cursor(); got != want {
		t.Errorf("Cursor() = %+v, want %+v", got, want)
	}
}

func TestNewSanitizesState(t *testing.T) {
	st := &fakeStore{state: &CursorState{X: 999, Y: -4, BrushSize: 9, Axis: Axis(7), Drawing: true}}
	s, _ := newTestSession(t, st)
	got := s.Cursor()
	if got.X != 295 || got.Y != 0 {
		t.Errorf("position = (%d,%d), want (295,0)", got.X, got.Y)
	}
	if got.BrushSize != DefaultBrushSize {
		t.Errorf("BrushSize = %d, want %d", got.BrushSize, DefaultBrushSize)
	}
	if got.Axis != Vertical {
		t.Errorf("Axis = %v, want vertical", got.Axis)
	}
	if got.Drawing {
		t.Error("Drawing should be reset on load")
	}
}

func TestNewRecoveredSaveCountWins(t *testing.T) {
	st := &fakeStore{state: &CursorState{BrushSize: 2, SaveCount: 3}, next: 5, found: true}
	s, _ := newTestSession(t, st)
	if got := s.Cursor().SaveCount; got != 5 {
		t.Errorf("SaveCount = %d, want 5", got)
	}
}

func TestNewRecoverErrorKeepsPersistedCount(t *testing.T) {
	st := &fakeStore{state: &CursorState{BrushSize: 2, SaveCount: 3}, recoverErr: errors.New("io")}
	s, _ := newTestSession(t, st)
	if got := s.Cursor().SaveCount; got != 3 {
		t.Errorf("SaveCount = %d, want 3", got)
	}
}

func TestMoveDownScenario(t *testing.T) {
	s, panel := newTestSession(t, &fakeStore{})

	for i := 0; i < 3; i++ {
		handled, err := s.Handle(Buttons(ButtonDown))
		if !handled || err != nil {
			t.Fatalf("Handle(DOWN) = %v, %v", handled, err)
		}
	}

	c := s.Cursor()
	if c.X != 148 || c.Y != 73 {
		t.Errorf("cursor = (%d,%d), want (148,73)", c.X, c.Y)
	}
	if c.Drawing {
		t.Error("Drawing should be false after moving")
	}
	if panel.fulls != 0 {
		t.Errorf("full refreshes = %d, want 0", panel.fulls)
	}
	if len(panel.partials) != 3 {
		t.Fatalf("partial refreshes = %d, want 3", len(panel.partials))
	}
	for _, r := range panel.partials {
		if r.Dx() > 8 || r.Dy() > 8+3 {
			t.Errorf("partial refresh %v larger than the cursor region", r)
		}
	}
	if want := image.Rect(144, 60, 152, 71); panel.partials[0] != want {
		t.Errorf("first partial = %v, want %v", panel.partials[0], want)
	}
}

func TestPaintScenario(t *testing.T) {
	s, panel := newTestSession(t, &fakeStore{})
	for i := 0; i < 3; i++ {
		s.Handle(Buttons(ButtonDown))
	}
	panel.partials = nil

	if _, err := s.Handle(Buttons(ButtonA)); err != nil {
		t.Fatalf("Handle(A): %v", err)
	}

	c := s.Cursor()
	if c.UIVisible {
		t.Error("UI should be hidden after the first dab")
	}
	if !c.Drawing {
		t.Error("Drawing should be true after a dab")
	}
	if panel.fulls != 1 {
		t.Errorf("full refreshes = %d, want 1", panel.fulls)
	}
	if len(panel.partials) != 1 {
		t.Fatalf("partial refreshes = %d, want 1", len(panel.partials))
	}
	if want := image.Rect(145, 70, 152, 77); panel.partials[0] != want {
		t.Errorf("partial = %v, want %v", panel.partials[0], want)
	}

	canvas := s.Canvas()
	inked := []image.Point{{148, 73}, {146, 73}, {150, 73}, {148, 71}, {148, 75}, {149, 74}}
	for _, p := range inked {
		if canvas.BitAt(p.X, p.Y) != image1bit.Off {
			t.Errorf("pixel %v should be inked", p)
		}
	}
	blank := []image.Point{{151, 73}, {149, 75}, {146, 71}, {145, 73}}
	for _, p := range blank {
		if canvas.BitAt(p.X, p.Y) != image1bit.On {
			t.Errorf("pixel %v should be blank", p)
		}
	}

	// The second dab does not refresh the whole panel again.
	s.Handle(Buttons(ButtonA))
	if panel.fulls != 1 {
		t.Errorf("full refreshes after second dab = %d, want 1", panel.fulls)
	}
}

func TestPaintNearEdgeIsClamped(t *testing.T) {
	st := &fakeStore{state: &CursorState{X: 0, Y: 127, BrushSize: 5}}
	s, panel := newTestSession(t, st)
	if _, err := s.Handle(Buttons(ButtonA)); err != nil {
		t.Fatalf("Handle(A): %v", err)
	}
	if want := image.Rect(0, 121, 7, 128); panel.partials[0] != want {
		t.Errorf("partial = %v, want %v", panel.partials[0], want)
	}
	if s.Canvas().BitAt(0, 127) != image1bit.Off {
		t.Error("corner pixel should be inked")
	}
}

func TestSaveScenario(t *testing.T) {
	st := &fakeStore{state: &CursorState{X: 148, Y: 64, BrushSize: 3, UIVisible: true, SaveCount: 5}}
	s, panel := newTestSession(t, st)
	s.Handle(Buttons(ButtonA))
	s.Handle(Buttons(ButtonDown))
	s.Handle(Buttons(ButtonA))
	before := s.Canvas().Clone()
	cursorBefore := s.Cursor()
	savesBefore := len(st.saves)
	fullsBefore := panel.fulls

	handled, err := s.Handle(Buttons(ButtonB | ButtonUp))
	if !handled || err != nil {
		t.Fatalf("Handle(B+UP) = %v, %v", handled, err)
	}

	data, ok := st.files["drawing_5.bmp"]
	if !ok {
		t.Fatalf("drawing_5.bmp not written, files: %v", st.files)
	}
	if got := s.Cursor().SaveCount; got != 6 {
		t.Errorf("SaveCount = %d, want 6", got)
	}
	if got := len(st.saves) - savesBefore; got != 1 {
		t.Fatalf("checkpoints = %d, want 1", got)
	}
	if got := st.saves[len(st.saves)-1].SaveCount; got != 6 {
		t.Errorf("checkpointed SaveCount = %d, want 6", got)
	}
	if !s.Canvas().Equal(before) {
		t.Error("canvas not restored after save")
	}
	after := s.Cursor()
	after.SaveCount = cursorBefore.SaveCount
	if after != cursorBefore {
		t.Errorf("cursor after save = %+v, want %+v", after, cursorBefore)
	}
	// UI hidden: banner shown with a full refresh and cleared with a partial one.
	if got := panel.fulls - fullsBefore; got != 1 {
		t.Errorf("full refreshes during save = %d, want 1", got)
	}
	if last := panel.partials[len(panel.partials)-1]; last != bannerRect(s.Canvas().Rect) {
		t.Errorf("last partial = %v, want banner region", last)
	}

	decoded, err := gobmp.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("gobmp.Decode: %v", err)
	}
	for y := 0; y < 128; y++ {
		for x := 0; x < 296; x++ {
			r, _, _, _ := decoded.At(x, y).RGBA()
			ink := before.BitAt(x, y) == image1bit.Off
			if (r == 0) != ink {
				t.Fatalf("pixel (%d,%d): black = %v, want %v", x, y, r == 0, ink)
			}
		}
	}
}

func TestSaveWithUIVisibleRedrawsUI(t *testing.T) {
	s, panel := newTestSession(t, &fakeStore{})
	if _, err := s.Handle(Buttons(ButtonB | ButtonUp)); err != nil {
		t.Fatal(err)
	}
	if panel.fulls != 2 {
		t.Errorf("full refreshes = %d, want 2 (banner, UI)", panel.fulls)
	}
	if !s.Cursor().UIVisible {
		t.Error("UI should still be visible")
	}
}

func TestSaveFailure(t *testing.T) {
	st := &fakeStore{writeErr: fmt.Errorf("%w: disk full", ErrStorageWrite)}
	s, _ := newTestSession(t, st)
	s.Handle(Buttons(ButtonA))
	before := s.Canvas().Clone()
	savesBefore := len(st.saves)

	if _, err := s.Save(); !errors.Is(err, ErrStorageWrite) {
		t.Errorf("Save() error = %v, want ErrStorageWrite", err)
	}
	if !s.Canvas().Equal(before) {
		t.Error("canvas not restored after failed save")
	}
	if got := s.Cursor().SaveCount; got != 0 {
		t.Errorf("SaveCount = %d, want 0", got)
	}
	if len(st.saves) != savesBefore {
		t.Error("failed save should not checkpoint")
	}

	handled, err := s.Handle(Buttons(ButtonB | ButtonUp))
	if !handled || err != nil {
		t.Errorf("Handle(B+UP) on failing storage = %v, %v; want true, nil", handled, err)
	}
}

func TestSaveCounterExhausted(t *testing.T) {
	st := &fakeStore{next: math.MaxUint32 - 1, found: true}
	s, panel := newTestSession(t, st)

	path, err := s.Save()
	if err != nil {
		t.Fatalf("Save() = %v", err)
	}
	if path != "/images/drawing_4294967294.bmp" {
		t.Errorf("path = %q", path)
	}
	if got := s.Cursor().SaveCount; got != math.MaxUint32 {
		t.Fatalf("SaveCount = %d, want %d", got, uint32(math.MaxUint32))
	}

	fulls := panel.fulls
	for i := 0; i < 2; i++ {
		if _, err := s.Save(); !errors.Is(err, ErrStorageWrite) {
			t.Errorf("Save() at exhausted counter = %v, want ErrStorageWrite", err)
		}
	}
	if got := s.Cursor().SaveCount; got != math.MaxUint32 {
		t.Errorf("SaveCount = %d after refused saves, want it unchanged", got)
	}
	if len(st.files) != 1 {
		t.Errorf("files = %v, want only the first drawing", len(st.files))
	}
	if _, ok := st.files["drawing_0.bmp"]; ok {
		t.Error("counter wrapped onto drawing_0.bmp")
	}
	if panel.fulls == fulls {
		t.Error("refused save showed no banner")
	}
}

func TestNoFrameComposedWhileInverted(t *testing.T) {
	st := &fakeStore{}
	s, _ := newTestSession(t, st)
	var composeErr error
	st.onWrite = func() { composeErr = s.Scheduler().RequestFull() }

	if _, err := s.Save(); err != nil {
		t.Fatal(err)
	}
	if !errors.Is(composeErr, ErrBufferInverted) {
		t.Errorf("refresh during export = %v, want ErrBufferInverted", composeErr)
	}
}

func TestComboPriority(t *testing.T) {
	st := &fakeStore{}
	s, panel := newTestSession(t, st)
	s.Handle(Buttons(ButtonA))
	fulls := panel.fulls

	handled, err := s.Handle(Buttons(ButtonA | ButtonB | ButtonUp))
	if !handled || err != nil {
		t.Fatalf("Handle = %v, %v", handled, err)
	}
	blank := image1bit.NewPacked(s.Canvas().Rect)
	blank.Fill(image1bit.On)
	if !s.Canvas().Equal(blank) {
		t.Error("clear combo should have cleared the canvas")
	}
	if len(st.files) != 0 {
		t.Error("clear combo should not save")
	}
	if panel.fulls != fulls+1 {
		t.Errorf("full refreshes = %d, want %d", panel.fulls, fulls+1)
	}
	if s.Cursor().Drawing {
		t.Error("Drawing should be false after clear")
	}
}

func TestUpWithModifierSaves(t *testing.T) {
	st := &fakeStore{}
	s, _ := newTestSession(t, st)
	y := s.Cursor().Y
	s.Handle(Buttons(ButtonB | ButtonUp))
	if s.Cursor().Y != y {
		t.Error("B+UP should not move the cursor")
	}
	if len(st.files) != 1 {
		t.Errorf("files = %d, want 1", len(st.files))
	}
}

func TestBrushWraps(t *testing.T) {
	st := &fakeStore{state: &CursorState{BrushSize: 5, UIVisible: true}}
	s, panel := newTestSession(t, st)

	s.Handle(Buttons(ButtonC))
	if got := s.Cursor().BrushSize; got != 1 {
		t.Fatalf("BrushSize after 5 = %d, want 1", got)
	}
	for i := 0; i < 4; i++ {
		s.Handle(Buttons(ButtonC))
	}
	if got := s.Cursor().BrushSize; got != 5 {
		t.Errorf("BrushSize after four more = %d, want 5", got)
	}
	if panel.fulls != 5 {
		t.Errorf("full refreshes = %d, want 5", panel.fulls)
	}
	if len(st.saves) != 5 {
		t.Errorf("checkpoints = %d, want 5", len(st.saves))
	}
}

func TestBrushChangeWithoutUI(t *testing.T) {
	st := &fakeStore{state: &CursorState{BrushSize: 2}}
	s, panel := newTestSession(t, st)
	s.Handle(Buttons(ButtonC))
	if panel.fulls != 0 || len(panel.partials) != 0 {
		t.Errorf("refreshes = %d full, %d partial; want none", panel.fulls, len(panel.partials))
	}
	if len(st.saves) != 1 {
		t.Errorf("checkpoints = %d, want 1", len(st.saves))
	}
}

func TestCursorClampsAtTop(t *testing.T) {
	st := &fakeStore{state: &CursorState{X: 50, Y: 0, BrushSize: 2}}
	s, _ := newTestSession(t, st)
	for i := 0; i < 5; i++ {
		if _, err := s.Handle(Buttons(ButtonUp)); err != nil {
			t.Fatal(err)
		}
		if y := s.Cursor().Y; y != 0 {
			t.Fatalf("y = %d, want 0", y)
		}
	}
}

func TestHorizontalMovement(t *testing.T) {
	st := &fakeStore{state: &CursorState{X: 293, Y: 10, BrushSize: 2, Axis: Horizontal}}
	s, _ := newTestSession(t, st)

	s.Handle(Buttons(ButtonUp))
	if x := s.Cursor().X; x != 295 {
		t.Errorf("x after UP = %d, want 295", x)
	}
	s.Handle(Buttons(ButtonDown))
	if x := s.Cursor().X; x != 292 {
		t.Errorf("x after DOWN = %d, want 292", x)
	}
	if y := s.Cursor().Y; y != 10 {
		t.Errorf("y = %d, want 10", y)
	}
}

func TestToggleAxisCheckpoints(t *testing.T) {
	st := &fakeStore{}
	s, _ := newTestSession(t, st)

	s.Handle(Buttons(ButtonB))
	if s.Cursor().Axis != Horizontal {
		t.Errorf("Axis = %v, want horizontal", s.Cursor().Axis)
	}
	if len(st.saves) != 1 {
		t.Fatalf("checkpoints after toggle = %d, want 1", len(st.saves))
	}
	s.Handle(Buttons(ButtonDown))
	if len(st.saves) != 1 {
		t.Errorf("checkpoints after move = %d, want 1", len(st.saves))
	}
	s.Handle(Buttons(ButtonA))
	if len(st.saves) != 2 {
		t.Errorf("checkpoints after hiding UI = %d, want 2", len(st.saves))
	}
	s.Handle(Buttons(ButtonA))
	if len(st.saves) != 2 {
		t.Errorf("checkpoints after second dab = %d, want 2", len(st.saves))
	}
}

func TestNoInput(t *testing.T) {
	st := &fakeStore{}
	s, panel := newTestSession(t, st)
	handled, err := s.Handle(0)
	if handled || err != nil {
		t.Errorf("Handle(0) = %v, %v; want false, nil", handled, err)
	}
	if panel.fulls != 0 || len(panel.partials) != 0 || len(st.saves) != 0 {
		t.Error("no input should not refresh or checkpoint")
	}
}

func TestPollSamplesButtons(t *testing.T) {
	panel := newFakePanel(296, 128)
	buttons := &fakeButtons{held: Buttons(ButtonDown)}
	s := New(panel, buttons, &fakeStore{}, nil)
	handled, err := s.Poll(context.Background())
	if !handled || err != nil {
		t.Fatalf("Poll() = %v, %v", handled, err)
	}
	if s.Cursor().Y != 67 {
		t.Errorf("y = %d, want 67", s.Cursor().Y)
	}
}

func TestComposeDrawsCursorAndChrome(t *testing.T) {
	s, panel := newTestSession(t, &fakeStore{})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	frame := panel.Frame()
	if frame.BitAt(148, 64) != image1bit.Off {
		t.Error("cursor center should be drawn")
	}
	if frame.BitAt(151, 64) != image1bit.On {
		t.Error("pixel past the cursor arm should be blank")
	}

	inked := 0
	for y := 0; y < 20; y++ {
		for x := 0; x < 100; x++ {
			if frame.BitAt(x, y) == image1bit.Off {
				inked++
			}
		}
	}
	if inked == 0 {
		t.Error("title text not drawn")
	}
	// Chrome lives in the frame only.
	if s.Canvas().BitAt(148, 64) != image1bit.On {
		t.Error("canvas should not contain the cursor")
	}
}

func TestComposeHidesCursorWhileDrawing(t *testing.T) {
	st := &fakeStore{state: &CursorState{X: 100, Y: 50, BrushSize: 1}}
	s, panel := newTestSession(t, st)
	s.Handle(Buttons(ButtonA))
	if err := s.Scheduler().RequestFull(); err != nil {
		t.Fatal(err)
	}
	// (102,50) is outside the dab but on the cross's right arm.
	if panel.Frame().BitAt(102, 50) != image1bit.On {
		t.Error("cursor cross should not be drawn while drawing")
	}
}

func TestNewDefaultBrushOption(t *testing.T) {
	tests := []struct {
		brush int
		want  int
	}{
		{4, 4},
		{0, DefaultBrushSize},
		{6, DefaultBrushSize},
	}
	for _, tt := range tests {
		s := New(newFakePanel(296, 128), &fakeButtons{}, &fakeStore{}, &Options{DefaultBrush: tt.brush})
		if got := s.Cursor().BrushSize; got != tt.want {
			t.Errorf("DefaultBrush %d: BrushSize = %d, want %d", tt.brush, got, tt.want)
		}
	}
}

func TestStartLightsLED(t *testing.T) {
	led := &fakeLED{}
	s := New(newFakePanel(296, 128), &fakeButtons{}, &fakeStore{}, &Options{LED: led})
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(led.states) != "[true]" {
		t.Errorf("LED = %v, want [true]", led.states)
	}
}
