package chord

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// flagNames lists ChordFlag bits in declaration order, for both the header
// emitter and --debug dumps.
var flagNames = []struct {
	bit  ChordFlag
	name string
}{
	{FlagKeep, "KEEP"}, {FlagClose, "CLOSE"}, {FlagInherit, "INHERIT"},
	{FlagIgnore, "IGNORE"}, {FlagUnhook, "UNHOOK"}, {FlagDeflag, "DEFLAG"},
	{FlagNoBefore, "NO_BEFORE"}, {FlagNoAfter, "NO_AFTER"}, {FlagWrite, "WRITE"},
	{FlagExecute, "EXECUTE"}, {FlagSyncCommand, "SYNC_COMMAND"},
	{FlagSyncBefore, "SYNC_BEFORE"}, {FlagSyncAfter, "SYNC_AFTER"}, {FlagUnwrap, "UNWRAP"},
}

func flagString(f ChordFlag) string {
	var names []string
	for _, fn := range flagNames {
		if f.Has(fn.bit) {
			names = append(names, fn.name)
		}
	}
	if len(names) == 0 {
		return "0"
	}
	return strings.Join(names, "|")
}

// WriteHeader emits a self-contained C header declaring the compiled tree
// as a static const array, matching the field layout the dispatcher expects
// (spec §6 "Pre-compiled C-header target"). Used by `-p/--parse`.
func WriteHeader(w io.Writer, tree *ChordTree, arrayName string) error {
	bw := &errWriter{w: w}
	bw.printf("// Generated by wk -p. Do not edit by hand.\n")
	bw.printf("#ifndef WK_CHORDS_GENERATED_H\n#define WK_CHORDS_GENERATED_H\n\n")
	bw.printf("#include \"chord.h\"\n\n")
	n := emitSpan(bw, tree.Roots, "wk_chords_root", 0)
	bw.printf("\nstatic const size_t %s_count = %d;\n", arrayName, n)
	bw.printf("#define %s wk_chords_root\n\n", arrayName)
	bw.printf("#endif // WK_CHORDS_GENERATED_H\n")
	return bw.err
}

// emitSpan recursively emits one KeyChord array literal per prefix level,
// depth-first, and returns the root span's length.
func emitSpan(bw *errWriter, siblings []*KeyChord, varName string, depth int) int {
	childVars := make([]string, len(siblings))
	for i, c := range siblings {
		if c.IsPrefix() {
			childVars[i] = fmt.Sprintf("%s_%d", varName, i)
			emitSpan(bw, c.KeyChords, childVars[i], depth+1)
		}
	}
	bw.printf("static const KeyChord %s[%d] = {\n", varName, len(siblings))
	for i, c := range siblings {
		childRef, childLen := "NULL", 0
		if c.IsPrefix() {
			childRef, childLen = childVars[i], len(c.KeyChords)
		}
		bw.printf("  { .key = %s, .flags = %s, .description = %s, .command = %s, "+
			".before = %s, .after = %s, .wrap = %s, .title = %s, .goTo = %s, "+
			".keyChords = %s, .keyChordsCount = %d },\n",
			keyLiteral(c.Key), flagString(c.Flags),
			cstr(c.Description()), cstr(c.Command()), cstr(c.Before()),
			cstr(c.After()), cstr(c.WrapCmd()), cstr(c.Title()), cstr(c.Goto()),
			childRef, childLen)
	}
	bw.printf("};\n")
	return len(siblings)
}

func keyLiteral(k Key) string {
	special := "NONE"
	if k.IsSpecial() {
		special = "SPECIAL_" + strings.ToUpper(SpecialKeyRepr(k.Special))
	}
	return fmt.Sprintf("{ .repr = %s, .mods = %d, .special = %s }", cstr(k.Repr), int(k.Mods), special)
}

func cstr(s string) string {
	if s == "" {
		return "NULL"
	}
	return strconv.Quote(s)
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

// DumpTree writes a human-readable, indented trace of the compiled tree —
// the --debug dump described in SPEC_FULL.md (grounded on the original
// implementation's src/common/debug.c chord dump).
func DumpTree(w io.Writer, tree *ChordTree) {
	for _, c := range tree.Roots {
		dumpChord(w, c, 0)
	}
}

func dumpChord(w io.Writer, c *KeyChord, depth int) {
	indent := strings.Repeat("  ", depth)
	kind := "leaf"
	if c.IsPrefix() {
		kind = "prefix"
	}
	fmt.Fprintf(w, "%s%s [%s] flags=%s desc=%q", indent, c.Key, kind, flagString(c.Flags), c.Description())
	if c.Command() != "" {
		fmt.Fprintf(w, " cmd=%q", c.Command())
	}
	if c.Goto() != "" {
		fmt.Fprintf(w, " goto=%q", c.Goto())
	}
	fmt.Fprintln(w)
	for _, child := range c.KeyChords {
		dumpChord(w, child, depth+1)
	}
}
