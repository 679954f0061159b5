package menu

import (
	"os"

	"github.com/wkmenu/wk/internal/chord"
	"github.com/wkmenu/wk/internal/diag"
	"github.com/wkmenu/wk/internal/shellexec"
	"github.com/wkmenu/wk/internal/tui"
)

// Status is the dispatcher's state machine result (spec §4.5 "Status
// machine: RUNNING → DAMAGED → RUNNING → EXIT_OK | EXIT_SOFTWARE").
type Status int

const (
	Running Status = iota
	Damaged
	ExitOK
	ExitSoftware
)

// Dispatcher owns the active sibling list and drives the keystroke ->
// match -> execute loop (spec §4.5), the single-threaded cooperative
// event loop fzf's Loop() runs as a multi-goroutine reqBox pump for --
// simplified here to match the spec's explicit "single-threaded
// cooperative" scheduling model (grounded on the shape, not the
// mechanism, of src/terminal.go's Loop/executeCommand).
type Dispatcher struct {
	renderer tui.Renderer
	root     []*chord.KeyChord
	active   []*chord.KeyChord
	cfg      *Config
	log      *diag.Logger
}

func NewDispatcher(renderer tui.Renderer, tree *chord.ChordTree, cfg *Config, log *diag.Logger) *Dispatcher {
	return &Dispatcher{
		renderer: renderer,
		root:     tree.Roots,
		active:   tree.Roots,
		cfg:      cfg,
		log:      log,
	}
}

// Press feeds a single keystroke through the matching and execution rules
// (spec §4.5 "Matching" and "Execution of a matched chord").
func (d *Dispatcher) Press(ev tui.Event) Status {
	if ev.Type == tui.EventFocusLost || ev.Type == tui.EventClose {
		return ExitOK
	}
	if ev.Type != tui.EventKey {
		return Running
	}
	if ev.ModifierOnly {
		return Running
	}
	if ev.Special == chord.Escape {
		return ExitOK
	}

	match := d.match(ev)
	if match == nil {
		d.log.Printf("unmatched keystroke: %s", eventRepr(ev))
		return ExitSoftware
	}

	if match.IsPrefix() {
		d.active = match.KeyChords
		return Damaged
	}

	d.runChord(match)
	if match.Flags.Has(chord.FlagKeep) {
		return Running
	}
	return ExitOK
}

// match implements spec §4.5 "Matching": special-key exact match, or
// non-special match under the shift-significance rule, or the mystery-key
// fallback keyed on backend-supplied name.
func (d *Dispatcher) match(ev tui.Event) *chord.KeyChord {
	key := eventToKey(ev)
	for _, c := range d.active {
		if c.Key.Special != chord.NONE || key.Special != chord.NONE {
			if c.Key.Special == key.Special && c.Key.Mods == key.Mods {
				return c
			}
			continue
		}
		if chord.Equal(c.Key, key, ev.ShiftSignificant) {
			return c
		}
	}
	if ev.KeysymName != "" {
		for _, c := range d.active {
			if c.Key.Special == chord.NONE && c.Key.Repr == ev.KeysymName {
				return c
			}
		}
	}
	return nil
}

func eventToKey(ev tui.Event) chord.Key {
	if ev.Special != chord.NONE {
		return chord.Key{Special: ev.Special, Mods: ev.Mods}
	}
	return chord.Key{Repr: string(ev.Rune), Mods: ev.Mods}
}

func eventRepr(ev tui.Event) string {
	k := eventToKey(ev)
	return k.String()
}

// runChord executes BEFORE -> COMMAND -> AFTER in order (spec §5
// "Ordering"), respecting each hook's own SYNC_* flag and the WRITE /
// WRAP_CMD rules from spec §4.5 "Execution of a matched chord".
func (d *Dispatcher) runChord(c *chord.KeyChord) {
	if before := c.Before(); before != "" {
		d.spawn(before, c.Flags.Has(chord.FlagSyncBefore))
	}

	if cmd := c.Command(); cmd != "" {
		if c.Flags.Has(chord.FlagWrite) {
			os.Stdout.WriteString(cmd + "\n")
		} else {
			effective := d.effectiveCommand(c, cmd)
			d.spawn(effective, c.Flags.Has(chord.FlagSyncCommand))
		}
	}

	if after := c.After(); after != "" {
		d.spawn(after, c.Flags.Has(chord.FlagSyncAfter))
	}
}

// effectiveCommand applies the chord's own WRAP_CMD, falling back to the
// dispatcher-wide wrap, unless UNWRAP is set (spec §4.5 "the chord's own
// WRAP_CMD taking precedence over the global").
func (d *Dispatcher) effectiveCommand(c *chord.KeyChord, cmd string) string {
	if c.Flags.Has(chord.FlagUnwrap) {
		return cmd
	}
	wrap := c.WrapCmd()
	if wrap == "" {
		wrap = d.cfg.WrapCmd
	}
	if wrap == "" {
		return cmd
	}
	return wrap + " " + cmd
}

func (d *Dispatcher) spawn(text string, sync bool) {
	d.renderer.AsyncCleanup()
	var err error
	if sync {
		err = shellexec.Run(d.cfg.Shell, text)
	} else {
		err = shellexec.Start(d.cfg.Shell, text)
	}
	if err != nil {
		d.log.Printf("spawn failed: %v", err)
	}
}

// View builds the read-only rendering snapshot for the current level
// (spec §4.5 "Rendering contract (to the backend)").
func (d *Dispatcher) View() tui.View {
	return tui.View{
		Chords:    d.active,
		Delimiter: d.cfg.Delimiter,
		Colors:    d.cfg.Colors,
		Geometry: tui.Geometry{
			BorderWidth:   d.cfg.BorderWidth,
			BorderRadius:  d.cfg.BorderRadius,
			MaxColumns:    d.cfg.MaxColumns,
			MenuWidth:     d.cfg.MenuWidth,
			MenuHeight:    d.cfg.MenuHeight,
			MenuGap:       d.cfg.MenuGap,
			WidthPadding:  d.cfg.WidthPadding,
			HeightPadding: d.cfg.HeightPadding,
			Top:           d.cfg.Top,
			Font:          d.cfg.Font,
		},
	}
}

// Run drives the event loop to completion: render, poll, press, repeat
// until an exit status is reached (spec §5 "Scheduling model").
func (d *Dispatcher) Run() Status {
	for {
		if err := d.renderer.Render(d.View()); err != nil {
			d.log.Printf("render failed: %v", err)
			return ExitSoftware
		}
		ev := d.renderer.PollEvent()
		switch st := d.Press(ev); st {
		case Running, Damaged:
			continue
		default:
			return st
		}
	}
}

// PrePress feeds a pre-press sequence (-k/--press) before the interactive
// loop starts (spec §6 "-k KEYS/--press: pre-press a keystroke sequence
// before showing the menu").
func (d *Dispatcher) PrePress(keys []string) Status {
	for _, k := range keys {
		var ev tui.Event
		if sp, ok := specialByName[k]; ok {
			ev = tui.Event{Type: tui.EventKey, Special: sp}
		} else {
			runes := []rune(k)
			if len(runes) != 1 {
				d.log.Printf("ignoring malformed pre-press token %q", k)
				continue
			}
			ev = tui.Event{Type: tui.EventKey, Rune: runes[0]}
		}
		if st := d.Press(ev); st != Running && st != Damaged {
			return st
		}
	}
	return Running
}

var specialByName = map[string]chord.SpecialKey{
	"Escape": chord.Escape,
	"Return": chord.Return,
	"Tab":    chord.Tab,
	"Space":  chord.Space,
}
