package main

import (
	"fmt"
	"io"
	"os"

	"github.com/wkmenu/wk/internal/chord"
	"github.com/wkmenu/wk/internal/diag"
	"github.com/wkmenu/wk/internal/menu"
	"github.com/wkmenu/wk/internal/sandbox"
	"github.com/wkmenu/wk/internal/tui"
)

// sysexits.h codes named in spec §6; no library in the retrieved pack
// wraps these, so they stay plain constants (DESIGN.md "stdlib-only"
// entry) rather than a hand-rolled package for three integers.
const (
	exOK       = 0
	exSoftware = 70
	exDataErr  = 65
	exIOErr    = 74
)

var version = "0.1.0"

func main() {
	sandbox.Protect()
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cfg := menu.DefaultConfig()
	if err := cfg.ParseArgs(args); err != nil {
		fmt.Fprintln(os.Stderr, "wk:", err)
		return exDataErr
	}

	if cfg.Help {
		printHelp()
		return exOK
	}
	if cfg.Version {
		fmt.Println("wk", version)
		return exOK
	}

	log := diag.New(os.Stderr, cfg.Debug)

	src, filepath, err := loadSource(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "wk:", err)
		return exIOErr
	}

	tree, raw, err := chord.Parse(src, chord.Options{
		ImplicitKeys: "asdfghjkl",
		Filepath:     filepath,
		Include:      chord.NewFileInclude(baseDir(filepath)),
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exDataErr
	}
	if err := cfg.ApplyRaw(raw); err != nil {
		fmt.Fprintln(os.Stderr, "wk:", err)
		return exDataErr
	}
	// Re-apply the command line so CLI flags take precedence over :directives.
	if err := cfg.ParseArgs(args); err != nil {
		fmt.Fprintln(os.Stderr, "wk:", err)
		return exDataErr
	}

	if err := chord.Transform(tree, chord.ResolveEnv{WrapCmd: cfg.WrapCmd}, cfg.Sort); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exDataErr
	}
	if err := tree.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exDataErr
	}

	if cfg.ParseOnly {
		return transpile(tree, cfg)
	}

	if cfg.Debug {
		chord.DumpTree(os.Stderr, tree)
	}

	return interact(tree, cfg, log)
}

func loadSource(cfg *menu.Config) ([]byte, string, error) {
	switch {
	case cfg.ScriptStdin:
		data, err := io.ReadAll(os.Stdin)
		return data, "<stdin>", err
	case cfg.ChordsFile != "":
		data, err := os.ReadFile(cfg.ChordsFile)
		return data, cfg.ChordsFile, err
	default:
		data, err := os.ReadFile(defaultChordsPath())
		return data, defaultChordsPath(), err
	}
}

func defaultChordsPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return xdg + "/wk/chords.wk"
	}
	home, _ := os.UserHomeDir()
	return home + "/.config/wk/chords.wk"
}

func baseDir(filepath string) string {
	idx := -1
	for i := len(filepath) - 1; i >= 0; i-- {
		if filepath[i] == '/' {
			idx = i
			break
		}
	}
	if idx < 0 {
		return os.Getenv("PWD")
	}
	return filepath[:idx]
}

func transpile(tree *chord.ChordTree, cfg *menu.Config) int {
	out := os.Stdout
	if cfg.ParseOutFile != "" && cfg.ParseOutFile != "-" {
		f, err := os.Create(cfg.ParseOutFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "wk:", err)
			return exIOErr
		}
		defer f.Close()
		out = f
	}
	if err := chord.WriteHeader(out, tree, "wk_chords"); err != nil {
		fmt.Fprintln(os.Stderr, "wk:", err)
		return exSoftware
	}
	return exOK
}

func interact(tree *chord.ChordTree, cfg *menu.Config, log *diag.Logger) int {
	renderer := newRenderer(cfg)
	if err := renderer.Init(); err != nil {
		fmt.Fprintln(os.Stderr, "wk:", err)
		return exSoftware
	}
	defer renderer.Cleanup()
	defer renderer.Close()

	d := menu.NewDispatcher(renderer, tree, cfg, log)

	if cfg.PressSequence != "" {
		keys, err := menu.SplitPressSequence(cfg.PressSequence)
		if err != nil {
			fmt.Fprintln(os.Stderr, "wk:", err)
			return exDataErr
		}
		switch st := d.PrePress(keys); st {
		case menu.ExitOK:
			return exOK
		case menu.ExitSoftware:
			return exSoftware
		}
	}

	switch d.Run() {
	case menu.ExitOK:
		return exOK
	default:
		return exSoftware
	}
}

func newRenderer(cfg *menu.Config) tui.Renderer {
	if tui.HasFullscreenRenderer() {
		return tui.NewTcellRenderer()
	}
	return tui.NewDummyRenderer()
}

func printHelp() {
	fmt.Println(`usage: wk [options]

  -h, --help              print this help and exit
  -v, --version           print version and exit
  -D, --debug             verbose diagnostic output to stderr
  -t, --top               show the menu at the top of the screen
  -b, --bottom            show the menu at the bottom of the screen
  -s, --script            read menu source from stdin
  -d, --delimiter STRING  override the key/description delimiter
  -m, --max-cols N        maximum columns (0 = unbounded)
  -k, --press KEYS        pre-press a keystroke sequence
  -p, --parse FILE        transpile to a C header and exit
  -c, --chords FILE       load menu source from FILE
  --win-width N           window width
  --win-height N          window height
  --border-width N        border width
  --fg, --bg, --bd COLOR  colors as #RRGGBB or #RRGGBBAA
  --shell STRING          shell used to run BEFORE/COMMAND/AFTER
  --font STRING           font name`)
}
