// Package tui is the rendering contract the dispatcher publishes to a
// drawing backend (spec §4.5, §6). It is the stand-in for the out-of-scope
// Wayland/X11 layer-shell backends: the core only ever supplies strings,
// geometry hints, and color roles through this interface.
package tui

import (
	"github.com/lucasb-eyer/go-colorful"

	"github.com/wkmenu/wk/internal/chord"
)

// EventType enumerates the event kinds a Renderer can hand back from
// PollEvent (spec §4.5/§5: keystrokes, focus loss, window-close, resize).
type EventType int

const (
	EventKey EventType = iota
	EventFocusLost
	EventClose
	EventResize
)

// Event is one input event surfaced by the backend. For EventKey, either
// Special is non-NONE or Rune is set (never both): the backend has already
// done keysym→SpecialKey mapping and shift-significance resolution before
// handing the event to the dispatcher (spec §4.5 "Keystroke classification").
type Event struct {
	Type             EventType
	Special          chord.SpecialKey
	Rune             rune
	Mods             chord.Modifier
	ShiftSignificant bool
	ModifierOnly     bool
	KeysymName       string // "mystery key" fallback repr, spec §4.5 rule 3
}

// Color is a resolved RGBA color role.
type Color struct {
	R, G, B, A uint8
}

func ColorFromHex(s string) (Color, error) {
	if s == "" {
		return Color{}, nil
	}
	c, err := colorful.Hex(normalizeHex(s))
	if err != nil {
		return Color{}, err
	}
	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b, A: 0xff}, nil
}

// normalizeHex accepts both #RRGGBB and #RRGGBBAA (spec §6); go-colorful
// only parses the 6-digit form, so the alpha suffix is trimmed here (alpha
// compositing is left to the backend's surface format).
func normalizeHex(s string) string {
	if len(s) == 9 && s[0] == '#' {
		return s[:7]
	}
	return s
}

// ColorRoles names every color slot the rendering contract publishes (spec
// §4.5 "color roles (key, delimiter, prefix, chord, title, goto,
// background, border)").
type ColorRoles struct {
	Key       Color
	Delimiter Color
	Prefix    Color
	Chord     Color
	Title     Color
	Goto      Color
	Background Color
	Border    Color
}

// Geometry carries the layout hints a backend needs to size its surface
// (spec §4.5/§6).
type Geometry struct {
	BorderWidth  int
	BorderRadius int
	MaxColumns   int
	MenuWidth    int
	MenuHeight   int
	MenuGap      int
	WidthPadding int
	HeightPadding int
	Top          bool // position: top or bottom
	Font         string
}

// View is the read-only snapshot the dispatcher hands the backend once per
// frame (spec §6 "Rendering protocol (to backends)"): the active chord
// list plus everything needed to lay it out.
type View struct {
	Chords    []*chord.KeyChord
	Delimiter string
	Colors    ColorRoles
	Geometry  Geometry
}

// CellKind selects which color role a rendered chord cell uses (spec §4.5:
// "prefix color when the chord has children, goto color when it is a goto,
// otherwise chord color").
type CellKind int

const (
	CellChord CellKind = iota
	CellPrefix
	CellGoto
)

func CellKindOf(c *chord.KeyChord) CellKind {
	switch {
	case c.IsPrefix():
		return CellPrefix
	case c.Goto() != "":
		return CellGoto
	default:
		return CellChord
	}
}

// Renderer is the backend abstraction (spec §9 "Dynamic dispatch": "a small
// interface: init, run, free, cleanup, async_cleanup"). A concrete backend
// (Tcell here; Wayland/X11 in the original) implements this.
type Renderer interface {
	Init() error
	Render(view View) error
	PollEvent() Event
	Cleanup()
	AsyncCleanup() // called by the dispatcher in its own process just before each spawn (not inside the child); must not tear down the live screen
	Close() error
}

// HasFullscreenRenderer reports whether the build was linked against a real
// windowed backend. Defined per backend file (tcell.go / dummy.go),
// selected by build tag exactly like src/tui/tcell.go / src/tui/dummy.go.
