package chord

import "strings"

// Modifier is a bitwise union of the four modifier keys a chord can carry.
type Modifier uint8

const (
	ModNone Modifier = 0
	ModCtrl Modifier = 1 << iota
	ModMeta
	ModHyper
	ModShift
)

func (m Modifier) Has(bit Modifier) bool { return m&bit != 0 }

// String renders the modifier prefixes in the DSL's own order (C- M- H- S-).
func (m Modifier) String() string {
	var b strings.Builder
	if m.Has(ModCtrl) {
		b.WriteString("C-")
	}
	if m.Has(ModMeta) {
		b.WriteString("M-")
	}
	if m.Has(ModHyper) {
		b.WriteString("H-")
	}
	if m.Has(ModShift) {
		b.WriteString("S-")
	}
	return b.String()
}

// SpecialKey is the closed enumeration of named (non-printable) keys.
type SpecialKey int

const (
	NONE SpecialKey = iota
	Left
	Right
	Up
	Down
	Tab
	Space
	Return
	Delete
	Escape
	Home
	PageUp
	PageDown
	End
	Begin
	VolDown
	VolUp
	Mute
	Play
	Stop
	Prev
	Next
)

// F1..F35 are appended after the named block so special-key arithmetic
// (SpecialKey(Left)+n) never collides with them.
const f1Base = 1000

func F(n int) SpecialKey { return SpecialKey(f1Base + n) }

var specialNames = map[SpecialKey]string{
	NONE: "", Left: "Left", Right: "Right", Up: "Up", Down: "Down",
	Tab: "TAB", Space: "SPC", Return: "RET", Delete: "DEL", Escape: "ESC",
	Home: "Home", PageUp: "Page_Up", PageDown: "Page_Down", End: "End", Begin: "Begin",
	VolDown: "Vol_Down", VolUp: "Vol_Up", Mute: "Mute",
	Play: "Play", Stop: "Stop", Prev: "Prev", Next: "Next",
}

var namesBySpecial = func() map[string]SpecialKey {
	m := make(map[string]SpecialKey, len(specialNames)+35)
	for k, v := range specialNames {
		if k != NONE {
			m[v] = k
		}
	}
	for n := 1; n <= 35; n++ {
		m[fnName(n)] = F(n)
	}
	return m
}()

func fnName(n int) string {
	return "F" + itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var b [4]byte
	i := len(b)
	for n > 0 {
		i--
		b[i] = byte('0' + n%10)
		n /= 10
	}
	return string(b[i:])
}

// SpecialKeyRepr returns the canonical textual form of a special key, or ""
// for NONE.
func SpecialKeyRepr(k SpecialKey) string {
	if k >= F(1) && k <= F(35) {
		return fnName(int(k - f1Base))
	}
	return specialNames[k]
}

// LookupSpecial resolves a DSL spelling ("Left", "F12", "RET", …) to its
// SpecialKey, reporting ok=false if the name isn't recognized.
func LookupSpecial(name string) (SpecialKey, bool) {
	k, ok := namesBySpecial[name]
	return k, ok
}

// Key is a physical key plus the modifiers held while it was pressed.
type Key struct {
	Repr    string
	Mods    Modifier
	Special SpecialKey
}

func (k Key) IsSpecial() bool { return k.Special != NONE }

// String renders the key the way it appears in compiled diagnostics/headers:
// modifiers followed by the repr (special name or printable rune).
func (k Key) String() string {
	return k.Mods.String() + k.Repr
}

// Equal compares two keys. When shiftSignificant is false the SHIFT bit is
// masked out of both modifier sets before comparison (spec §4.1/§4.5).
func Equal(a, b Key, shiftSignificant bool) bool {
	am, bm := a.Mods, b.Mods
	if !shiftSignificant {
		am &^= ModShift
		bm &^= ModShift
	}
	if am != bm {
		return false
	}
	if a.Special != NONE || b.Special != NONE {
		return a.Special == b.Special
	}
	return a.Repr == b.Repr
}
