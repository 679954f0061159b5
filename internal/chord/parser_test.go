package chord

import "testing"

func compile(t *testing.T, src string) *ChordTree {
	t.Helper()
	tree, cfg, err := Parse([]byte(src), Options{ImplicitKeys: "asdf"})
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if err := Transform(tree, ResolveEnv{WrapCmd: ""}, cfg.Sort); err != nil {
		t.Fatalf("transform error: %v", err)
	}
	if err := tree.Validate(); err != nil {
		t.Fatalf("invariant violated: %v", err)
	}
	return tree
}

// S1: simple leaf with write.
func TestSimpleLeafWithWrite(t *testing.T) {
	tree := compile(t, `a "Say hi" %{{echo hi}} +write`)
	if len(tree.Roots) != 1 {
		t.Fatalf("want 1 root, got %d", len(tree.Roots))
	}
	c := tree.Roots[0]
	if c.Key.Repr != "a" || c.Description() != "Say hi" || c.Command() != "echo hi" {
		t.Errorf("got key=%q desc=%q cmd=%q", c.Key.Repr, c.Description(), c.Command())
	}
	if !c.Flags.Has(FlagWrite) {
		t.Errorf("expected FlagWrite set")
	}
}

// S2: prefix with inherited hook.
func TestPrefixInheritedHook(t *testing.T) {
	tree := compile(t, `p "prefix" ^before %{{pre}} { a "do" %{{cmd}} }`)
	p := tree.Roots[0]
	a := p.KeyChords[0]
	if a.Before() != "pre" {
		t.Errorf("expected inherited BEFORE=pre, got %q", a.Before())
	}
	if a.Flags.Has(FlagSyncBefore) {
		t.Errorf("did not expect SYNC_BEFORE to propagate from a plain ^before")
	}
}

// S3: +keep in a prefix, overridden by +close.
func TestKeepAndClose(t *testing.T) {
	tree := compile(t, `p "stay" { a "x" +keep %{{echo x}} b "y" +close %{{echo y}} }`)
	p := tree.Roots[0]
	a, b := p.KeyChords[0], p.KeyChords[1]
	if !a.Flags.Has(FlagKeep) {
		t.Errorf("a should carry its own +keep")
	}
	if !b.Flags.Has(FlagClose) || b.Flags.Has(FlagKeep) {
		t.Errorf("b's +close must override inherited keep: flags=%v", b.Flags)
	}
}

// S4: interpolation and case transforms.
func TestInterpolationCaseTransforms(t *testing.T) {
	tree := compile(t, `a "Hello" %{{echo %(desc) / %(desc^) / %(desc,,) / %(key) / %(index+1)}}`)
	want := "echo Hello / Hello / hello / a / 1"
	if got := tree.Roots[0].Command(); got != want {
		t.Errorf("got %q want %q", got, want)
	}
}

// S5: option group <...> with ellipsis, consuming implicit keys in order.
func TestOptionGroupEllipsis(t *testing.T) {
	src := `
<...> "one" %{{echo 1}}
<...> "two" %{{echo 2}}
<...> "three" %{{echo 3}}
<...> "four" %{{echo 4}}
`
	tree := compile(t, src)
	want := []string{"a", "s", "d", "f"}
	for i, c := range tree.Roots {
		if c.Key.Repr != want[i] {
			t.Errorf("root %d: got key %q want %q", i, c.Key.Repr, want[i])
		}
	}

	_, _, err := Parse([]byte(src+`<...> "five" %{{echo 5}}`), Options{ImplicitKeys: "asdf"})
	if err == nil {
		t.Errorf("expected an error once all implicit keys are bound")
	}
}

func TestGotoExcludesCommand(t *testing.T) {
	_, _, err := Parse([]byte(`a "x" %{{echo hi}} @goto "y"`), Options{})
	if err == nil {
		t.Errorf("expected error: COMMAND and GOTO are mutually exclusive")
	}
}

func TestDeduplicationLaterWins(t *testing.T) {
	tree := compile(t, `
a "first" %{{one}}
a "second" %{{two}}
`)
	if len(tree.Roots) != 1 {
		t.Fatalf("want 1 root after dedup, got %d", len(tree.Roots))
	}
	if tree.Roots[0].Command() != "two" {
		t.Errorf("expected the later binding to win, got %q", tree.Roots[0].Command())
	}
}

func TestUndefinedUserVariableErrors(t *testing.T) {
	_, _, err := Parse([]byte(`a "x" %{{echo %(nope)}}`), Options{})
	if err != nil {
		t.Fatalf("parse should succeed, resolver fails at Transform: %v", err)
	}
	tree, _, _ := Parse([]byte(`a "x" %{{echo %(nope)}}`), Options{})
	if err := Transform(tree, ResolveEnv{}, false); err == nil {
		t.Errorf("expected undefined %%(nope) to fail resolution")
	}
}

func TestArgsBlockPositional(t *testing.T) {
	tree := compile(t, `+args "one" "two" { a "first is %($1)" %{{echo %($1) %($2)}} }`)
	c := tree.Roots[0]
	if c.Description() != "first is one" {
		t.Errorf("got description %q", c.Description())
	}
	if c.Command() != "echo one two" {
		t.Errorf("got command %q", c.Command())
	}
}

func TestMaxDepthExceeded(t *testing.T) {
	src := ""
	open := ""
	for i := 0; i < MaxDepth+2; i++ {
		src += "a \"d\" {"
		open += "}"
	}
	src += "z \"leaf\" %{{echo}}" + open
	_, _, err := Parse([]byte(src), Options{})
	if err == nil {
		t.Errorf("expected a MAX_DEPTH parse error")
	}
}
