// Package chord implements the key-chord compilation pipeline: scanning and
// parsing the menu DSL into a tree of KeyChord nodes, then transforming that
// tree (dedup, inheritance, string resolution, sort) into its final,
// immutable form.
package chord

import "fmt"

// ChordFlag is the 14-bit execution-flag set carried by every chord.
type ChordFlag uint16

const (
	FlagKeep ChordFlag = 1 << iota
	FlagClose
	FlagInherit
	FlagIgnore
	FlagUnhook
	FlagDeflag
	FlagNoBefore
	FlagNoAfter
	FlagWrite
	FlagExecute
	FlagSyncCommand
	FlagSyncBefore
	FlagSyncAfter
	FlagUnwrap
)

func (f ChordFlag) Has(bit ChordFlag) bool { return f&bit != 0 }

// PropSlot indexes a chord's Property array.
type PropSlot int

const (
	PropDescription PropSlot = iota
	PropCommand
	PropBefore
	PropAfter
	PropWrapCmd
	PropTitle
	PropGoto
	NProps
)

// PropKind tags which variant of Property is populated.
type PropKind int

const (
	PropNone PropKind = iota
	PropString
	PropArray // token list, pre-resolution only
)

// Property is the tagged union described in spec §3. During parsing,
// string-valued properties are populated as PropArray (a token list); the
// transformer's resolution pass collapses every PropArray to PropString.
type Property struct {
	Kind   PropKind
	Str    string
	Tokens []Token
}

func (p Property) IsSet() bool { return p.Kind != PropNone }

// SourceError is a diagnostic carrying the filepath:line:column: location
// required by spec §7.
type SourceError struct {
	Filepath string
	Line     int
	Column   int
	Msg      string
}

func (e *SourceError) Error() string {
	if e.Filepath == "" {
		return fmt.Sprintf("%d:%d: %s", e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("%s:%d:%d: %s", e.Filepath, e.Line, e.Column, e.Msg)
}

// KeyChord is one node of the compiled tree: a key, its resolved property
// slots, its execution flags, and (if non-empty) its children.
type KeyChord struct {
	Key       Key
	Props     [NProps]Property
	Flags     ChordFlag
	KeyChords []*KeyChord
}

// IsPrefix reports whether the chord has children (spec §3: "A node with
// non-empty keyChords is a prefix; COMMAND is not read for prefixes.").
func (c *KeyChord) IsPrefix() bool { return len(c.KeyChords) > 0 }

func (c *KeyChord) prop(slot PropSlot) string {
	p := c.Props[slot]
	if p.Kind == PropString {
		return p.Str
	}
	return ""
}

func (c *KeyChord) Description() string { return c.prop(PropDescription) }
func (c *KeyChord) Command() string     { return c.prop(PropCommand) }
func (c *KeyChord) Before() string      { return c.prop(PropBefore) }
func (c *KeyChord) After() string       { return c.prop(PropAfter) }
func (c *KeyChord) WrapCmd() string     { return c.prop(PropWrapCmd) }
func (c *KeyChord) Title() string       { return c.prop(PropTitle) }
func (c *KeyChord) Goto() string        { return c.prop(PropGoto) }

// ChordTree is the immutable, fully-resolved result of compilation: a span
// of root chords.
type ChordTree struct {
	Roots []*KeyChord
}

// Validate checks the universal invariants from spec §8 that a correctly
// built tree must satisfy. It never mutates the tree; cmd/wk runs it after
// every compile, and tests use it to assert the transformer did its job.
func (t *ChordTree) Validate() error {
	return validateSiblings(t.Roots)
}

func validateSiblings(siblings []*KeyChord) error {
	for i, c := range siblings {
		if c.Props[PropCommand].IsSet() && c.Props[PropGoto].IsSet() {
			return fmt.Errorf("chord %q: COMMAND and GOTO are mutually exclusive", c.Key)
		}
		if c.Props[PropBefore].IsSet() && c.Props[PropGoto].IsSet() {
			return fmt.Errorf("chord %q: BEFORE and GOTO are mutually exclusive", c.Key)
		}
		if c.Props[PropAfter].IsSet() && c.Props[PropGoto].IsSet() {
			return fmt.Errorf("chord %q: AFTER and GOTO are mutually exclusive", c.Key)
		}
		for _, p := range c.Props {
			if p.Kind == PropArray {
				return fmt.Errorf("chord %q: property left unresolved (ARRAY) after transform", c.Key)
			}
		}
		for j := i + 1; j < len(siblings); j++ {
			if Equal(c.Key, siblings[j].Key, true) {
				return fmt.Errorf("duplicate sibling key %q after dedup pass", c.Key)
			}
		}
		if err := validateSiblings(c.KeyChords); err != nil {
			return err
		}
	}
	return nil
}
