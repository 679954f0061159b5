//go:build tcell

package tui

import (
	"os"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"github.com/pkg/errors"

	"github.com/wkmenu/wk/internal/chord"
)

// HasFullscreenRenderer reports that this build links the real tcell
// backend (grounded on src/tui/tcell.go's build-tagged variant).
func HasFullscreenRenderer() bool { return true }

// TcellRenderer draws the active chord menu to a real terminal screen via
// gdamore/tcell/v2, replacing the teacher's archived tcell v1 binding
// (spec §4.5 "Rendering contract (to the backend)").
type TcellRenderer struct {
	screen tcell.Screen
}

func NewTcellRenderer() *TcellRenderer {
	return &TcellRenderer{}
}

func (r *TcellRenderer) Init() error {
	if os.Getenv("TERM") == "cygwin" {
		os.Setenv("TERM", "")
	}
	s, err := tcell.NewScreen()
	if err != nil {
		return errors.Wrap(err, "tcell: new screen")
	}
	if err := s.Init(); err != nil {
		return errors.Wrap(err, "tcell: init screen")
	}
	s.DisableMouse()
	r.screen = s
	return nil
}

func (r *TcellRenderer) Close() error {
	r.screen.Fini()
	return nil
}

func (r *TcellRenderer) Cleanup() {
	r.screen.Fini()
}

// AsyncCleanup is invoked by the dispatcher in the wk process itself, just
// before each BEFORE/COMMAND/AFTER spawn; it does not run inside the child.
// It must never touch the live screen handle, so it does nothing here.
func (r *TcellRenderer) AsyncCleanup() {}

func (r *TcellRenderer) Render(view View) error {
	r.screen.Clear()
	width, height := r.screen.Size()
	if g := view.Geometry.MenuWidth; g > 0 && g < width {
		width = g
	}
	if g := view.Geometry.MenuHeight; g > 0 && g < height {
		height = g
	}
	r.drawBorder(width, height, view.Geometry, view.Colors)

	style := tcell.StyleDefault.
		Foreground(tcellColor(view.Colors.Chord)).
		Background(tcellColor(view.Colors.Background))

	row := view.Geometry.HeightPadding
	col := view.Geometry.WidthPadding
	columns := view.Geometry.MaxColumns
	if columns <= 0 {
		columns = len(view.Chords)
		if columns == 0 {
			columns = 1
		}
	}
	colWidth := width / columns
	if colWidth <= 0 {
		colWidth = width
	}

	for i, c := range view.Chords {
		cellStyle := style
		switch CellKindOf(c) {
		case CellPrefix:
			cellStyle = cellStyle.Foreground(tcellColor(view.Colors.Prefix))
		case CellGoto:
			cellStyle = cellStyle.Foreground(tcellColor(view.Colors.Goto))
		}
		cellCol := col + (i%columns)*colWidth
		cellRow := row + i/columns
		r.drawCell(cellCol, cellRow, colWidth, c, view.Delimiter, cellStyle, view.Colors)
	}

	r.screen.Show()
	return nil
}

func (r *TcellRenderer) drawCell(x, y, maxWidth int, c *chord.KeyChord, delim string, style tcell.Style, colors ColorRoles) {
	keyStyle := style.Foreground(tcellColor(colors.Key))
	x = r.putString(x, y, maxWidth, c.Key.String(), keyStyle)

	delimStyle := style.Foreground(tcellColor(colors.Delimiter))
	x = r.putString(x, y, maxWidth, delim, delimStyle)

	desc := c.Description()
	if desc == "" && c.Title() != "" {
		desc = c.Title()
	}
	r.putString(x, y, maxWidth, truncate(desc, maxWidth), style)
}

func (r *TcellRenderer) putString(x, y, limit int, s string, style tcell.Style) int {
	for _, ru := range s {
		if x >= limit {
			break
		}
		r.screen.SetContent(x, y, ru, nil, style)
		x += runewidth.RuneWidth(ru)
	}
	return x
}

func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

func (r *TcellRenderer) drawBorder(width, height int, g Geometry, colors ColorRoles) {
	if g.BorderWidth <= 0 {
		return
	}
	style := tcell.StyleDefault.Foreground(tcellColor(colors.Border)).Background(tcellColor(colors.Background))
	for x := 0; x < width; x++ {
		r.screen.SetContent(x, 0, tcell.RuneHLine, nil, style)
		r.screen.SetContent(x, height-1, tcell.RuneHLine, nil, style)
	}
	for y := 0; y < height; y++ {
		r.screen.SetContent(0, y, tcell.RuneVLine, nil, style)
		r.screen.SetContent(width-1, y, tcell.RuneVLine, nil, style)
	}
}

func (r *TcellRenderer) PollEvent() Event {
	switch ev := r.screen.PollEvent().(type) {
	case *tcell.EventResize:
		return Event{Type: EventResize}
	case *tcell.EventKey:
		return translateKey(ev)
	default:
		return Event{Type: EventFocusLost}
	}
}

func translateKey(ev *tcell.EventKey) Event {
	mods := translateMods(ev.Modifiers())
	if sp, ok := specialFromTcell[ev.Key()]; ok {
		return Event{Type: EventKey, Special: sp, Mods: mods, ShiftSignificant: false}
	}
	if ev.Key() == tcell.KeyEscape {
		return Event{Type: EventKey, Special: chord.Escape, Mods: mods}
	}
	if ev.Key() == tcell.KeyRune {
		return Event{Type: EventKey, Rune: ev.Rune(), Mods: mods, ShiftSignificant: ev.Modifiers()&tcell.ModShift != 0}
	}
	return Event{Type: EventKey, KeysymName: ev.Name(), Mods: mods}
}

func translateMods(m tcell.ModMask) chord.Modifier {
	var out chord.Modifier
	if m&tcell.ModCtrl != 0 {
		out |= chord.ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		out |= chord.ModMeta
	}
	if m&tcell.ModMeta != 0 {
		out |= chord.ModHyper
	}
	if m&tcell.ModShift != 0 {
		out |= chord.ModShift
	}
	return out
}

var specialFromTcell = map[tcell.Key]chord.SpecialKey{
	tcell.KeyLeft:   chord.Left,
	tcell.KeyRight:  chord.Right,
	tcell.KeyUp:     chord.Up,
	tcell.KeyDown:   chord.Down,
	tcell.KeyTab:    chord.Tab,
	tcell.KeyEnter:  chord.Return,
	tcell.KeyDelete: chord.Delete,
	tcell.KeyHome:   chord.Home,
	tcell.KeyPgUp:   chord.PageUp,
	tcell.KeyPgDn:   chord.PageDown,
	tcell.KeyEnd:    chord.End,
}

func tcellColor(c Color) tcell.Color {
	if c == (Color{}) {
		return tcell.ColorDefault
	}
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
