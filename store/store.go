package store

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	gojsonschema "github.com/xeipuuv/gojsonschema"

	"github.com/example/inkdraw"
)

// stateVersion is the version written into new state documents.
const stateVersion = 1

var (
	//go:embed state.schema.json
	stateSchemaJSON []byte
	//go:embed viewer.schema.json
	viewerSchemaJSON []byte
)

var (
	stateSchema  = mustSchema("state", stateSchemaJSON)
	viewerSchema = mustSchema("viewer", viewerSchemaJSON)
)

func mustSchema(name string, b []byte) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(b))
	if err != nil {
		panic(fmt.Sprintf("store: bad %s schema: %v", name, err))
	}
	return s
}

// Options configures a Dir. Relative paths are resolved against the root.
type Options struct {
	ImagesDir       string // default "images"
	BadgesDir       string // default "badges"
	StateFile       string // default "state/draw.json"
	ViewerStateFile string // default "state/image.json"
	Logger          *slog.Logger
}

// Dir is an inkdraw.Store, inkdraw.Gallery and inkdraw.BadgeSource backed by
// a directory.
type Dir struct {
	images string
	badges string
	state  string
	viewer string
	log    *slog.Logger
}

var (
	_ inkdraw.Store       = (*Dir)(nil)
	_ inkdraw.Gallery     = (*Dir)(nil)
	_ inkdraw.BadgeSource = (*Dir)(nil)
)

// Open returns a Dir rooted at root. Nothing is created until the first
// write.
func Open(root string, opts *Options) *Dir {
	var o Options
	if opts != nil {
		o = *opts
	}
	if o.ImagesDir == "" {
		o.ImagesDir = "images"
	}
	if o.BadgesDir == "" {
		o.BadgesDir = "badges"
	}
	if o.StateFile == "" {
		o.StateFile = filepath.Join("state", "draw.json")
	}
	if o.ViewerStateFile == "" {
		o.ViewerStateFile = filepath.Join("state", "image.json")
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return &Dir{
		images: resolve(root, o.ImagesDir),
		badges: resolve(root, o.BadgesDir),
		state:  resolve(root, o.StateFile),
		viewer: resolve(root, o.ViewerStateFile),
		log:    o.Logger.With(slog.String("component", "store")),
	}
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// ImagesDir returns the directory images are written to.
func (d *Dir) ImagesDir() string { return d.images }

// StatePath returns the path of the state document.
func (d *Dir) StatePath() string { return d.state }

// stateDoc is the on-disk form of inkdraw.CursorState.
type stateDoc struct {
	Version   int    `json:"version"`
	CursorX   int    `json:"cursor_x"`
	CursorY   int    `json:"cursor_y"`
	BrushSize int    `json:"brush_size"`
	Axis      string `json:"axis"`
	UIVisible bool   `json:"ui_visible"`
	SaveCount uint32 `json:"save_count"`
}

// LoadState reads the checkpointed state. Every failure wraps
// inkdraw.ErrStorageRead.
func (d *Dir) LoadState() (inkdraw.CursorState, error) {
	data, err := os.ReadFile(d.state)
	if err != nil {
		return inkdraw.CursorState{}, fmt.Errorf("%w: %w", inkdraw.ErrStorageRead, err)
	}
	doc, err := decodeState(data)
	if err != nil {
		return inkdraw.CursorState{}, fmt.Errorf("%w: %s: %w", inkdraw.ErrStorageRead, d.state, err)
	}
	axis, err := inkdraw.ParseAxis(doc.Axis)
	if err != nil {
		return inkdraw.CursorState{}, fmt.Errorf("%w: %w", inkdraw.ErrStorageRead, err)
	}
	return inkdraw.CursorState{
		X:         doc.CursorX,
		Y:         doc.CursorY,
		BrushSize: doc.BrushSize,
		Axis:      axis,
		UIVisible: doc.UIVisible,
		SaveCount: doc.SaveCount,
	}, nil
}

func decodeState(data []byte) (stateDoc, error) {
	var doc stateDoc
	err := decodeDoc(stateSchema, data, &doc)
	return doc, err
}

// decodeDoc validates data against schema and unmarshals it into v.
func decodeDoc(schema *gojsonschema.Schema, data []byte, v any) error {
	res, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return err
	}
	if !res.Valid() {
		msgs := make([]string, 0, len(res.Errors()))
		for _, e := range res.Errors() {
			msgs = append(msgs, e.String())
		}
		return errors.New("invalid state: " + strings.Join(msgs, "; "))
	}
	return json.Unmarshal(data, v)
}

// writeDoc writes v as indented JSON to path, creating its directory.
func writeDoc(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return writeFileAtomic(path, append(data, '\n'))
}

// SaveState checkpoints c. Every failure wraps inkdraw.ErrStorageWrite.
func (d *Dir) SaveState(c inkdraw.CursorState) error {
	doc := stateDoc{
		Version:   stateVersion,
		CursorX:   c.X,
		CursorY:   c.Y,
		BrushSize: c.BrushSize,
		Axis:      c.Axis.String(),
		UIVisible: c.UIVisible,
		SaveCount: c.SaveCount,
	}
	if err := writeDoc(d.state, doc); err != nil {
		return fmt.Errorf("%w: %w", inkdraw.ErrStorageWrite, err)
	}
	d.log.Debug("state saved", slog.String("path", d.state), slog.Uint64("save_count", uint64(c.SaveCount)))
	return nil
}

// RecoverSaveCount scans the images directory for saved drawings and
// returns one past the highest index. Names that do not parse are skipped.
// A missing directory means nothing was saved yet.
func (d *Dir) RecoverSaveCount() (uint32, bool, error) {
	entries, err := os.ReadDir(d.images)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%w: %w", inkdraw.ErrStorageRead, err)
	}
	var (
		highest uint32
		found   bool
	)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		n, ok := ParseDrawingName(e.Name())
		if !ok {
			continue
		}
		if !found || n > highest {
			highest = n
		}
		found = true
	}
	if !found {
		return 0, false, nil
	}
	if highest == math.MaxUint32 {
		d.log.Warn("save counter exhausted", slog.Uint64("highest", uint64(highest)))
		return highest, true, nil
	}
	return highest + 1, true, nil
}

// ParseDrawingName extracts N from drawing_N.bmp or the older
// drawing_N.png.
func ParseDrawingName(name string) (uint32, bool) {
	rest, ok := strings.CutPrefix(name, "drawing_")
	if !ok {
		return 0, false
	}
	ext := filepath.Ext(rest)
	if ext != ".bmp" && ext != ".png" {
		return 0, false
	}
	digits := strings.TrimSuffix(rest, ext)
	if digits == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(digits, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

// WriteImage writes data to name inside the images directory, creating the
// directory if needed, and returns the file's path. Images are never
// replaced: writing a name that exists fails with fs.ErrExist.
func (d *Dir) WriteImage(name string, data []byte) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("%w: bad image name %q", inkdraw.ErrStorageWrite, name)
	}
	if err := os.MkdirAll(d.images, 0o755); err != nil {
		return "", fmt.Errorf("%w: %s: %w", inkdraw.ErrDirectory, d.images, err)
	}
	path := filepath.Join(d.images, name)
	if err := writeFileExclusive(path, data); err != nil {
		return "", fmt.Errorf("%w: %w", inkdraw.ErrStorageWrite, err)
	}
	d.log.Debug("image written", slog.String("path", path), slog.Int("bytes", len(data)))
	return path, nil
}

// writeFileExclusive reserves path with O_EXCL, then fills it through
// writeFileAtomic. The rename only ever replaces the empty reservation. The
// reservation is removed again when the write fails.
func writeFileExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return err
	}
	if err := writeFileAtomic(path, data); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}

// writeFileAtomic writes data to a temporary file next to path, syncs it and
// renames it over path.
func writeFileAtomic(path string, data []byte) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	temp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(temp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(temp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(temp)
		return err
	}
	if err := os.Chmod(temp, 0o644); err != nil {
		os.Remove(temp)
		return err
	}
	if err := os.Rename(temp, path); err != nil {
		os.Remove(temp)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
