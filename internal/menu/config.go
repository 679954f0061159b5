package menu

import (
	"fmt"
	"os"
	"strconv"

	"github.com/mattn/go-isatty"
	"github.com/mattn/go-shellwords"
	"github.com/pkg/errors"

	"github.com/wkmenu/wk/internal/chord"
	"github.com/wkmenu/wk/internal/tui"
)

// Config is the flat, fully-resolved runtime record the dispatcher and
// renderer consume, built from a RawConfig (parsed :directives) layered
// under CLI flags (grounded on src/options.go's Options struct and
// defaultOptions/parseOptions pattern).
type Config struct {
	Shell        string
	WrapCmd      string
	Delimiter    string
	Top          bool
	MaxColumns   int
	BorderWidth  int
	BorderRadius int
	MenuWidth    int
	MenuHeight   int
	MenuGap      int
	WidthPadding int
	HeightPadding int
	Font         string
	Sort         bool
	Debug        bool

	Colors tui.ColorRoles

	PressSequence string
	ScriptStdin   bool
	ChordsFile    string
	ParseOnly     bool
	ParseOutFile  string
	Help          bool
	Version       bool
}

// DefaultConfig mirrors defaultOptions(): every field populated with a
// sane default before CLI/DSL overrides are layered on.
func DefaultConfig() *Config {
	return &Config{
		Shell:         os.Getenv("SHELL"),
		Delimiter:     " → ",
		MaxColumns:    0,
		BorderWidth:   1,
		WidthPadding:  1,
		HeightPadding: 0,
		Sort:          false,
	}
}

// ApplyRaw layers a parsed RawConfig's :directives onto the config
// (DSL-level settings take the place fzf gives to shell-exported
// defaults; cmd/wk runs ParseArgs again afterwards so CLI flags still win).
func (c *Config) ApplyRaw(raw *chord.RawConfig) error {
	if raw == nil {
		return nil
	}
	c.Debug = c.Debug || raw.Debug
	c.Top = raw.Top
	if raw.Bottom {
		c.Top = false
	}
	if raw.BorderWidth > 0 {
		c.BorderWidth = raw.BorderWidth
	}
	c.BorderRadius = raw.BorderRadius
	if raw.MaxColumns > 0 {
		c.MaxColumns = raw.MaxColumns
	}
	if raw.MenuWidth > 0 {
		c.MenuWidth = raw.MenuWidth
	}
	c.MenuGap = raw.MenuGap
	if raw.WidthPadding > 0 {
		c.WidthPadding = raw.WidthPadding
	}
	c.HeightPadding = raw.HeightPadding
	if raw.Font != "" {
		c.Font = raw.Font
	}
	if raw.Shell != "" {
		c.Shell = raw.Shell
	}
	if raw.Wrap != "" {
		c.WrapCmd = raw.Wrap
	}
	c.Sort = raw.Sort

	for _, kv := range []struct {
		dst *tui.Color
		hex string
	}{
		{&c.Colors.Key, raw.FgKey},
		{&c.Colors.Delimiter, raw.FgDelimiter},
		{&c.Colors.Prefix, raw.FgPrefix},
		{&c.Colors.Chord, raw.FgChord},
		{&c.Colors.Title, raw.FgTitle},
		{&c.Colors.Background, raw.BgColor},
		{&c.Colors.Border, raw.BdColor},
	} {
		if kv.hex == "" {
			continue
		}
		col, err := tui.ColorFromHex(kv.hex)
		if err != nil {
			// spec §7: color parse failure warns and substitutes the default.
			fmt.Fprintf(os.Stderr, "wk: invalid color %q, using default\n", kv.hex)
			continue
		}
		*kv.dst = col
	}
	return nil
}

// ArgSpec is one recognized CLI flag, named the way fzf's parseOptions
// groups its case arms by long/short alias (spec §6 "CLI").
type ArgSpec struct {
	Long, Short string
	HasArg      bool
}

var argSpecs = []ArgSpec{
	{"--help", "-h", false},
	{"--version", "-v", false},
	{"--debug", "-D", false},
	{"--top", "-t", false},
	{"--bottom", "-b", false},
	{"--script", "-s", false},
	{"--delimiter", "-d", true},
	{"--max-cols", "-m", true},
	{"--press", "-k", true},
	{"--parse", "-p", true},
	{"--chords", "-c", true},
	{"--win-width", "", true},
	{"--win-height", "", true},
	{"--border-width", "", true},
	{"--fg", "", true},
	{"--bg", "", true},
	{"--bd", "", true},
	{"--shell", "", true},
	{"--font", "", true},
}

func lookupArg(tok string) (ArgSpec, bool) {
	for _, a := range argSpecs {
		if tok == a.Long || (a.Short != "" && tok == a.Short) {
			return a, true
		}
	}
	return ArgSpec{}, false
}

// ParseArgs layers argv onto cfg, following the same "index walked by
// reference, switch over flag name" shape as parseOptions in
// src/options.go (simplified: no "=" attached-value form, to keep the
// flag surface to what spec §6 actually lists).
func (c *Config) ParseArgs(args []string) error {
	for i := 0; i < len(args); i++ {
		tok := args[i]
		spec, ok := lookupArg(tok)
		if !ok {
			return errors.Errorf("unknown option: %s", tok)
		}
		var val string
		if spec.HasArg {
			i++
			if i >= len(args) {
				return errors.Errorf("%s requires an argument", tok)
			}
			val = args[i]
		}
		if err := c.applyFlag(spec.Long, val); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) applyFlag(long, val string) error {
	switch long {
	case "--help":
		c.Help = true
	case "--version":
		c.Version = true
	case "--debug":
		c.Debug = true
	case "--top":
		c.Top = true
	case "--bottom":
		c.Top = false
	case "--script":
		c.ScriptStdin = true
	case "--delimiter":
		c.Delimiter = val
	case "--max-cols":
		n, err := strconv.Atoi(val)
		if err != nil || n < 0 {
			return errors.Errorf("--max-cols expects an integer >= 0, got %q", val)
		}
		c.MaxColumns = n
	case "--press":
		c.PressSequence = val
	case "--parse":
		c.ParseOnly = true
		c.ParseOutFile = val
	case "--chords":
		c.ChordsFile = val
	case "--win-width":
		n, err := strconv.Atoi(val)
		if err != nil {
			return errors.Errorf("--win-width expects an integer, got %q", val)
		}
		c.MenuWidth = n
	case "--win-height":
		n, err := strconv.Atoi(val)
		if err != nil {
			return errors.Errorf("--win-height expects an integer, got %q", val)
		}
		c.MenuHeight = n
	case "--border-width":
		n, err := strconv.Atoi(val)
		if err != nil {
			return errors.Errorf("--border-width expects an integer, got %q", val)
		}
		c.BorderWidth = n
	case "--fg":
		col, err := tui.ColorFromHex(val)
		if err != nil {
			return errors.Wrap(err, "--fg")
		}
		c.Colors.Chord = col
	case "--bg":
		col, err := tui.ColorFromHex(val)
		if err != nil {
			return errors.Wrap(err, "--bg")
		}
		c.Colors.Background = col
	case "--bd":
		col, err := tui.ColorFromHex(val)
		if err != nil {
			return errors.Wrap(err, "--bd")
		}
		c.Colors.Border = col
	case "--shell":
		c.Shell = val
	case "--font":
		c.Font = val
	}
	return nil
}

// SplitPressSequence tokenizes a -k/--press argument into individual
// keystrokes, reusing mattn/go-shellwords rather than hand-rolling a
// quoting parser.
func SplitPressSequence(seq string) ([]string, error) {
	if seq == "" {
		return nil, nil
	}
	parser := shellwords.NewParser()
	return parser.Parse(seq)
}

// IsInteractive reports whether f is a real terminal (grounded on
// mattn/go-isatty). cmd/wk does not call it: the rendering backend is
// chosen by build tag alone (tui.HasFullscreenRenderer).
func IsInteractive(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
