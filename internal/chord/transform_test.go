package chord

import "testing"

func TestKeyEqualShiftSignificance(t *testing.T) {
	a := Key{Repr: "a", Mods: ModShift}
	b := Key{Repr: "a"}
	if Equal(a, b, true) {
		t.Errorf("shift-significant compare should distinguish Shift-a from a")
	}
	if !Equal(a, b, false) {
		t.Errorf("shift-insignificant compare should equate Shift-a and a")
	}
	if !Equal(a, a, true) || !Equal(a, a, false) {
		t.Errorf("Equal must be reflexive")
	}
}

func TestSortIdempotent(t *testing.T) {
	tree := compile(t, `
z "z" %{{z}}
1 "one" %{{1}}
C-a "ctrl a" %{{ca}}
B "cap b" %{{b}}
a "low a" %{{a}}
`)
	sortSiblings(tree.Roots)
	first := make([]string, len(tree.Roots))
	for i, c := range tree.Roots {
		first[i] = c.Key.String()
	}
	sortSiblings(tree.Roots)
	for i, c := range tree.Roots {
		if c.Key.String() != first[i] {
			t.Errorf("sorting twice changed order at %d: %q vs %q", i, c.Key.String(), first[i])
		}
	}
}

func TestWrapCmdInheritanceAndUnwrap(t *testing.T) {
	tree := compile(t, `
p "p" +wrap "uwsm app --" {
    a "a" %{{firefox}}
    b "b" +unwrap %{{alacritty}}
}
`)
	p := tree.Roots[0]
	if p.WrapCmd() != "uwsm app --" {
		t.Fatalf("got wrap %q", p.WrapCmd())
	}
	a, b := p.KeyChords[0], p.KeyChords[1]
	if a.WrapCmd() != "uwsm app --" {
		t.Errorf("a should inherit wrap, got %q", a.WrapCmd())
	}
	if b.WrapCmd() != "" || !b.Flags.Has(FlagUnwrap) {
		t.Errorf("b has +unwrap, should not inherit a wrap command")
	}
}
