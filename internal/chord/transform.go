package chord

import (
	"strconv"
	"strings"
	"unicode"
)

// ResolveEnv supplies the values the resolution pass needs beyond the tree
// itself (spec §4.4.3): user-defined variables and the configured wrap
// command.
type ResolveEnv struct {
	UserVars map[string]string
	WrapCmd  string
}

// Transform runs the four-pass pipeline of spec §4.4 over a freshly parsed
// tree, in order: dedup, inheritance, resolution, (optional) sort. It
// mutates the tree in place and returns the first resolver error, if any —
// resolver errors mark the compilation failed per spec §7 even though
// parsing itself succeeded.
func Transform(tree *ChordTree, env ResolveEnv, sort bool) error {
	tree.Roots = dedupSiblings(tree.Roots)
	for _, c := range tree.Roots {
		dedupSubtree(c)
	}

	for _, c := range tree.Roots {
		propagateInheritance(nil, c)
	}

	var firstErr error
	for i, c := range tree.Roots {
		resolveSubtree(c, i, len(tree.Roots), env, &firstErr)
	}
	if firstErr != nil {
		return firstErr
	}

	if sort {
		sortSiblings(tree.Roots)
		for _, c := range tree.Roots {
			sortSubtree(c)
		}
	}
	return nil
}

// --- 4.4.1 Deduplication --------------------------------------------------

// dedupSiblings collapses duplicate keys within one sibling list: "the
// later wins" (spec §4.4.1).
func dedupSiblings(siblings []*KeyChord) []*KeyChord {
	keep := make([]bool, len(siblings))
	for i := range siblings {
		keep[i] = true
	}
	for i := 0; i < len(siblings); i++ {
		if !keep[i] {
			continue
		}
		for j := i + 1; j < len(siblings); j++ {
			if keep[j] && Equal(siblings[i].Key, siblings[j].Key, true) {
				keep[i] = false // the later (j) wins
				break
			}
		}
	}
	out := make([]*KeyChord, 0, len(siblings))
	for i, c := range siblings {
		if keep[i] {
			out = append(out, c)
		}
	}
	return out
}

func dedupSubtree(c *KeyChord) {
	if !c.IsPrefix() {
		return
	}
	c.KeyChords = dedupSiblings(c.KeyChords)
	for _, child := range c.KeyChords {
		dedupSubtree(child)
	}
}

// --- 4.4.2 Inheritance propagation (top-down) -----------------------------

func propagateInheritance(parent, c *KeyChord) {
	if parent != nil && !c.Flags.Has(FlagIgnore) {
		// A prefix child only inherits when it carries INHERIT itself;
		// otherwise hooks/flags/wrap/title stop at the prefix boundary and
		// do not leak through to its own children (spec §4.4.2 final
		// bullet; original_source/src/compiler/transform.c's
		// setHooksAndFlagsSpan: shouldInherit = !isPrefix || FLAG_INHERIT).
		if !c.IsPrefix() || c.Flags.Has(FlagInherit) {
			inherit(parent, c)
		}
	}
	if !c.IsPrefix() {
		return
	}
	for _, child := range c.KeyChords {
		propagateInheritance(c, child)
	}
}

func inherit(parent, c *KeyChord) {
	// Hooks.
	if !c.Flags.Has(FlagUnhook) {
		if !c.Flags.Has(FlagNoBefore) && !c.Props[PropBefore].IsSet() && parent.Props[PropBefore].IsSet() {
			c.Props[PropBefore] = parent.Props[PropBefore]
			if parent.Flags.Has(FlagSyncBefore) {
				c.Flags |= FlagSyncBefore
			}
		}
		if !c.Flags.Has(FlagNoAfter) && !c.Props[PropAfter].IsSet() && parent.Props[PropAfter].IsSet() {
			c.Props[PropAfter] = parent.Props[PropAfter]
			if parent.Flags.Has(FlagSyncAfter) {
				c.Flags |= FlagSyncAfter
			}
		}
	}

	// Flags.
	if !c.Flags.Has(FlagDeflag) {
		if parent.Flags.Has(FlagKeep) && !c.Flags.Has(FlagClose) {
			c.Flags |= FlagKeep
		}
		if parent.Flags.Has(FlagWrite) && !c.Flags.Has(FlagExecute) {
			c.Flags |= FlagWrite
		}
		if parent.Flags.Has(FlagSyncCommand) {
			c.Flags |= FlagSyncCommand
		}
	}

	// Wrap command.
	if !c.Flags.Has(FlagUnwrap) && !c.Props[PropWrapCmd].IsSet() && parent.Props[PropWrapCmd].IsSet() {
		c.Props[PropWrapCmd] = parent.Props[PropWrapCmd]
	}

	// Title on prefixes.
	if c.IsPrefix() && !c.Props[PropTitle].IsSet() && parent.Props[PropTitle].IsSet() {
		c.Props[PropTitle] = parent.Props[PropTitle]
	}
}

// --- 4.4.3 Resolution ------------------------------------------------------

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

func resolveSubtree(c *KeyChord, index, siblingCount int, env ResolveEnv, firstErr *error) {
	for slot := PropSlot(0); slot < NProps; slot++ {
		resolveProp(c, slot, index, env, firstErr)
	}
	for i, child := range c.KeyChords {
		resolveSubtree(child, i, len(c.KeyChords), env, firstErr)
	}
}

func resolveProp(c *KeyChord, slot PropSlot, index int, env ResolveEnv, firstErr *error) {
	p := &c.Props[slot]
	if p.Kind != PropArray {
		return
	}
	var b strings.Builder
	for _, t := range p.Tokens {
		switch t.Kind {
		case TokDescription, TokCommand:
			b.WriteString(t.Text)
		case TokIdent:
			b.WriteString(resolveIdent(c, t, index, env, firstErr))
		}
	}
	out := b.String()
	if slot == PropDescription {
		out = strings.TrimRight(out, " \t")
	} else {
		out = strings.TrimRight(out, " \t\r\n")
	}
	if out == "" {
		*p = Property{Kind: PropNone}
		return
	}
	*p = Property{Kind: PropString, Str: out}
}

func resolveIdent(c *KeyChord, t Token, index int, env ResolveEnv, firstErr *error) string {
	switch t.Text {
	case "key":
		return c.Key.Repr
	case "index":
		return strconv.Itoa(index)
	case "index+1":
		return strconv.Itoa(index + 1)
	case "desc":
		return resolvedOrEmpty(c.Props[PropDescription])
	case "desc^":
		return upperFirst(resolvedOrEmpty(c.Props[PropDescription]))
	case "desc,":
		return lowerFirst(resolvedOrEmpty(c.Props[PropDescription]))
	case "desc^^":
		return strings.ToUpper(resolvedOrEmpty(c.Props[PropDescription]))
	case "desc,,":
		return strings.ToLower(resolvedOrEmpty(c.Props[PropDescription]))
	case "wrap":
		return env.WrapCmd
	default:
		if v, ok := env.UserVars[t.Text]; ok {
			return v
		}
		if *firstErr == nil {
			*firstErr = t.err("undefined interpolation variable %(" + t.Text + ")")
		}
		return ""
	}
}

func resolvedOrEmpty(p Property) string {
	if p.Kind == PropString {
		return p.Str
	}
	return ""
}

// --- 4.4.4 Optional sort ---------------------------------------------------

type keyCategory int

const (
	catSpecial keyCategory = iota
	catNumber
	catLetter
	catSymbol
)

func categoryOf(k Key) keyCategory {
	switch {
	case k.IsSpecial():
		return catSpecial
	case len(k.Repr) == 1 && k.Repr[0] >= '0' && k.Repr[0] <= '9':
		return catNumber
	case len(k.Repr) >= 1 && isASCIILetter(k.Repr[0]):
		return catLetter
	default:
		return catSymbol
	}
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

// sortSiblings stable-sorts by the composite key of spec §4.4.4.
func sortSiblings(siblings []*KeyChord) {
	// Insertion sort: stable, and the comparator is cheap enough that
	// sibling lists (menu rows) never warrant anything fancier.
	for i := 1; i < len(siblings); i++ {
		for j := i; j > 0 && less(siblings[j], siblings[j-1]); j-- {
			siblings[j], siblings[j-1] = siblings[j-1], siblings[j]
		}
	}
}

func less(a, b *KeyChord) bool {
	ca, cb := categoryOf(a.Key), categoryOf(b.Key)
	if ca != cb {
		return ca < cb
	}
	aMod := a.Key.Mods != ModNone
	bMod := b.Key.Mods != ModNone
	if aMod != bMod {
		return !aMod // unmodified first
	}
	if ca == catLetter {
		al, bl := strings.ToLower(a.Key.Repr), strings.ToLower(b.Key.Repr)
		if al != bl {
			return al < bl
		}
		// case-insensitive tie: lowercase precedes uppercase
		aLower := a.Key.Repr == al
		bLower := b.Key.Repr == bl
		if aLower != bLower {
			return aLower
		}
	}
	return a.Key.Repr < b.Key.Repr
}

func sortSubtree(c *KeyChord) {
	if !c.IsPrefix() {
		return
	}
	sortSiblings(c.KeyChords)
	for _, child := range c.KeyChords {
		sortSubtree(child)
	}
}
