package chord

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// MaxDepth bounds prefix nesting (spec §8: "one beyond [MAX_DEPTH] is a
// parse error").
const MaxDepth = 32

// IncludeResolver reads the contents of an :include'd file, resolving path
// relative to the including file's directory (spec §6).
type IncludeResolver interface {
	Read(path string) ([]byte, string, error) // returns (contents, resolved filepath, error)
}

// argsEnv is one +args scope: $1, $2, … resolve against it.
type argsEnv struct {
	values []string
}

// Options configures a parse run.
type Options struct {
	ImplicitKeys string // seed for `<...>` ellipsis expansion
	Filepath     string
	Include      IncludeResolver
}

// Parser turns a token stream into a tree of KeyChord nodes plus a
// best-effort Config record built from directive statements.
type Parser struct {
	sc       *Scanner
	cur      Token
	opts     Options
	userVars map[string]string
	argsStk  []*argsEnv
	depth    int
	errs     []error
	panic    bool
	cfg      *RawConfig

	lastInclude []*KeyChord // roots spliced by the most recent :include
}

// RawConfig accumulates the :directive-set geometry/color/shell/font values
// found while parsing (spec §4.3, §6). It is handed to internal/menu to
// build the runtime Config.
type RawConfig struct {
	Debug                                              bool
	Top                                                bool
	Bottom                                             bool
	BorderWidth, BorderRadius                          int
	BgColor, BdColor                                   string
	MaxColumns                                         int
	MenuWidth, MenuGap                                 int
	WidthPadding, HeightPadding                        int
	Fg, FgKey, FgDelimiter, FgPrefix, FgChord, FgTitle string
	Font, Shell, Wrap                                  string
	Sort                                               bool
}

// Parse compiles src into a ChordTree plus the directives seen. It never
// stops at the first error: recoverable errors are collected and the
// scanner is re-synchronized (spec §4.3/§7); the returned error, if any, is
// the joined set.
func Parse(src []byte, opts Options) (*ChordTree, *RawConfig, error) {
	p := &Parser{
		sc:       NewScanner(src, opts.Filepath, opts.ImplicitKeys),
		opts:     opts,
		userVars: map[string]string{},
		cfg:      &RawConfig{MaxColumns: 5, BorderWidth: 1},
	}
	p.advance()

	var roots []*KeyChord
	for p.cur.Kind != TokEOF {
		p.parseStmt(&roots)
	}

	tree := &ChordTree{Roots: roots}
	if len(p.errs) > 0 {
		msgs := make([]string, len(p.errs))
		for i, e := range p.errs {
			msgs[i] = e.Error()
		}
		return tree, p.cfg, errors.New(strings.Join(msgs, "\n"))
	}
	return tree, p.cfg, nil
}

func (p *Parser) advance() { p.cur = p.sc.Next() }

func (p *Parser) errf(t Token, format string, args ...interface{}) {
	p.panic = true
	p.errs = append(p.errs, t.err(fmt.Sprintf(format, args...)))
}

func (p *Parser) expectErr(t Token, expected string) {
	p.errf(t, "expected %s but got %q", expected, t.Text)
}

// recover implements panic-mode resync: consume tokens until a
// synchronizing token (spec §4.3/§7).
func (p *Parser) recover() {
	p.sc.Resync()
	p.panic = false
	p.advance()
}

func isKeyStart(k TokenKind) bool {
	switch k {
	case TokModCtrl, TokModMeta, TokModHyper, TokModShift, TokKey, TokSpecialKey, TokLess:
		return true
	}
	return false
}

func (p *Parser) parseStmt(dest *[]*KeyChord) {
	switch {
	case p.cur.Kind == TokError:
		p.errf(p.cur, "%s", p.cur.Text)
		p.recover()
	case isKeyStart(p.cur.Kind):
		p.parseChordOrPrefix(dest)
	case p.cur.Kind == TokDirective:
		p.lastInclude = nil
		p.parseDirective()
		if p.lastInclude != nil {
			*dest = append(*dest, p.lastInclude...)
			p.lastInclude = nil
		}
	case p.cur.Kind == TokVarAssign:
		p.parseVarAssign()
	case p.cur.Kind == TokFlagArgs:
		p.parseArgsBlock(dest)
	case p.cur.Kind == TokRBrace:
		// handled by caller (parseChordOrPrefix's '{' loop); reaching here
		// at top level is a stray brace.
		p.errf(p.cur, "unexpected '}'")
		p.advance()
	default:
		p.expectErr(p.cur, "a key, directive, or ':var'")
		p.recover()
	}
}

// parseChordOrPrefix implements spec §4.3's chord/prefix productions:
//
//	chord  := modifiers? key description hook* flag* (command | goto) (hook | flag)*
//	prefix := modifiers? key description hook* flag* '{' stmt* '}'
func (p *Parser) parseChordOrPrefix(dest *[]*KeyChord) {
	key, ok := p.parseKeySpec(*dest)
	if !ok {
		p.recover()
		return
	}
	c := &KeyChord{Key: key}

	if p.cur.Kind == TokDescription || p.cur.Kind == TokDescInterp {
		p.parseDescriptionInto(&c.Props[PropDescription], false)
	}

	p.parseHooksAndFlags(c)

	switch p.cur.Kind {
	case TokLBrace:
		p.advance()
		p.depth++
		if p.depth > MaxDepth {
			p.errf(p.cur, "prefix nesting exceeds MAX_DEPTH (%d)", MaxDepth)
		}
		var children []*KeyChord
		for p.cur.Kind != TokRBrace && p.cur.Kind != TokEOF {
			p.parseStmt(&children)
		}
		if p.cur.Kind == TokRBrace {
			p.advance()
		} else {
			p.errf(p.cur, "unterminated prefix body, expected '}'")
		}
		p.depth--
		c.KeyChords = children
	case TokCommand, TokCommInterp:
		p.parseDescriptionInto(&c.Props[PropCommand], true)
		p.parseHooksAndFlags(c)
	case TokGoto:
		if c.Props[PropBefore].IsSet() || c.Props[PropAfter].IsSet() || c.Props[PropCommand].IsSet() {
			p.errf(p.cur, "@goto cannot combine with BEFORE, AFTER, or COMMAND")
		}
		p.advance()
		p.parseDescriptionInto(&c.Props[PropGoto], false)
		p.parseHooksAndFlags(c)
	default:
		p.expectErr(p.cur, "a command, '@goto', or '{'")
	}

	*dest = append(*dest, c)
}

func (p *Parser) parseKeySpec(dest []*KeyChord) (Key, bool) {
	var mods Modifier
	for {
		switch p.cur.Kind {
		case TokModCtrl:
			mods |= ModCtrl
		case TokModMeta:
			mods |= ModMeta
		case TokModHyper:
			mods |= ModHyper
		case TokModShift:
			mods |= ModShift
		default:
			goto gotMods
		}
		p.advance()
	}
gotMods:
	switch p.cur.Kind {
	case TokKey:
		k := Key{Repr: p.cur.Text, Mods: mods}
		p.advance()
		return k, true
	case TokSpecialKey:
		sk, _ := LookupSpecial(p.cur.Text)
		k := Key{Repr: SpecialKeyRepr(sk), Mods: mods, Special: sk}
		p.advance()
		return k, true
	case TokLess:
		return p.parseOptionGroup(mods, dest)
	default:
		p.expectErr(p.cur, "a key, special key, or '<'")
		return Key{}, false
	}
}

// parseOptionGroup implements handleLessThan: `<a b …>` picks the first
// alternative not already bound among dest's siblings (spec §4.3, §8).
func (p *Parser) parseOptionGroup(outerMods Modifier, dest []*KeyChord) (Key, bool) {
	open := p.cur
	p.advance() // '<'

	var alts []Key
	for p.cur.Kind != TokGreater && p.cur.Kind != TokEOF {
		var mods Modifier
		for {
			switch p.cur.Kind {
			case TokModCtrl:
				mods |= ModCtrl
			case TokModMeta:
				mods |= ModMeta
			case TokModHyper:
				mods |= ModHyper
			case TokModShift:
				mods |= ModShift
			default:
				goto gotOptMods
			}
			p.advance()
		}
	gotOptMods:
		switch p.cur.Kind {
		case TokKey:
			alts = append(alts, Key{Repr: p.cur.Text, Mods: outerMods | mods})
			p.advance()
		case TokSpecialKey:
			sk, _ := LookupSpecial(p.cur.Text)
			alts = append(alts, Key{Repr: SpecialKeyRepr(sk), Mods: outerMods | mods, Special: sk})
			p.advance()
		case TokEllipsis:
			for _, r := range p.opts.ImplicitKeys {
				alts = append(alts, Key{Repr: string(r), Mods: outerMods | mods})
			}
			p.advance()
		default:
			p.expectErr(p.cur, "a key, special key, or '...'")
			return Key{}, false
		}
	}
	if p.cur.Kind == TokGreater {
		p.advance()
	} else {
		p.errf(open, "unterminated option group, expected '>'")
	}

	for _, alt := range alts {
		bound := false
		for _, sib := range dest {
			if Equal(alt, sib.Key, true) {
				bound = true
				break
			}
		}
		if !bound {
			return alt, true
		}
	}
	p.errf(open, "all key options already bound")
	return Key{}, false
}

// parseHooksAndFlags consumes the `hook* flag*` run common to chords and
// prefixes.
func (p *Parser) parseHooksAndFlags(c *KeyChord) {
	for {
		switch p.cur.Kind {
		case TokHookBefore:
			p.advance()
			if c.Props[PropGoto].IsSet() {
				p.errf(p.cur, "^before cannot follow @goto")
			}
			p.parseDescriptionInto(&c.Props[PropBefore], true)
		case TokHookAfter:
			p.advance()
			if c.Props[PropGoto].IsSet() {
				p.errf(p.cur, "^after cannot follow @goto")
			}
			p.parseDescriptionInto(&c.Props[PropAfter], true)
		case TokHookSyncBefore:
			p.advance()
			c.Flags |= FlagSyncBefore
			p.parseDescriptionInto(&c.Props[PropBefore], true)
		case TokHookSyncAfter:
			p.advance()
			c.Flags |= FlagSyncAfter
			p.parseDescriptionInto(&c.Props[PropAfter], true)
		case TokFlagKeep:
			c.Flags |= FlagKeep
			p.advance()
		case TokFlagClose:
			c.Flags |= FlagClose
			p.advance()
		case TokFlagInherit:
			c.Flags |= FlagInherit
			p.advance()
		case TokFlagIgnore:
			c.Flags |= FlagIgnore
			p.advance()
		case TokFlagUnhook:
			c.Flags |= FlagUnhook
			p.advance()
		case TokFlagDeflag:
			c.Flags |= FlagDeflag
			p.advance()
		case TokFlagNoBefore:
			c.Flags |= FlagNoBefore
			p.advance()
		case TokFlagNoAfter:
			c.Flags |= FlagNoAfter
			p.advance()
		case TokFlagWrite:
			c.Flags |= FlagWrite
			p.advance()
		case TokFlagExecute:
			c.Flags |= FlagExecute
			p.advance()
		case TokFlagSyncCommand:
			c.Flags |= FlagSyncCommand
			p.advance()
		case TokFlagUnwrap:
			c.Flags |= FlagUnwrap
			p.advance()
		case TokFlagTitle:
			p.advance()
			if p.cur.Kind == TokDescription || p.cur.Kind == TokDescInterp {
				p.parseDescriptionInto(&c.Props[PropTitle], false)
			} else {
				// Bare +title: verbatim copy of the chord's own
				// description, reusing the %(desc) resolution path.
				c.Props[PropTitle] = Property{Kind: PropArray, Tokens: []Token{{Kind: TokIdent, Text: "desc"}}}
			}
		case TokFlagWrap:
			p.advance()
			p.parseDescriptionInto(&c.Props[PropWrapCmd], false)
		default:
			return
		}
	}
}

// parseDescriptionInto collects a description-shaped token sequence
// (literal fragments + interpolations) into prop, stopping at the
// terminating literal token. allowDesc, when true, permits %(desc)
// variants (legal inside COMMAND/hooks); pass allowDesc=false when filling
// DESCRIPTION itself, where they would be a description within a
// description.
func (p *Parser) parseDescriptionInto(prop *Property, allowDesc bool) {
	var toks []Token

	collectFrag := func(t Token) {
		if t.Text != "" {
			toks = append(toks, Token{Kind: TokDescription, Text: t.Text})
		}
	}

	for {
		switch p.cur.Kind {
		case TokDescription, TokCommand:
			collectFrag(p.cur)
			p.advance()
			goto done
		case TokDescInterp, TokCommInterp:
			collectFrag(p.cur)
			p.advance()
			if p.cur.Kind == TokPositional {
				toks = append(toks, p.resolvePositional(p.cur))
				p.advance()
				continue
			}
			if p.cur.Kind != TokIdent {
				p.expectErr(p.cur, "an interpolation identifier")
				goto done
			}
			name := p.cur.Text
			if !allowDesc && (name == "desc" || name == "desc^" || name == "desc," || name == "desc^^" || name == "desc,,") {
				p.errf(p.cur, "%%(%s) cannot be used while still resolving this chord's own description", name)
			}
			switch name {
			case "key", "index", "index+1", "desc", "desc^", "desc,", "desc^^", "desc,,", "wrap":
				toks = append(toks, p.cur)
			default:
				// A :var defined earlier in the source is substituted here;
				// any other name is left for the resolution pass.
				if v, ok := p.userVars[name]; ok {
					toks = append(toks, Token{Kind: TokDescription, Text: v})
				} else {
					toks = append(toks, p.cur)
				}
			}
			p.advance()
		case TokPositional:
			toks = append(toks, p.resolvePositional(p.cur))
			p.advance()
		default:
			p.expectErr(p.cur, "a description or command literal")
			goto done
		}
	}
done:
	*prop = Property{Kind: PropArray, Tokens: toks}
}

func (p *Parser) resolvePositional(t Token) Token {
	n, err := strconv.Atoi(t.Text)
	if err != nil {
		p.errf(t, "invalid positional argument $%s", t.Text)
		return Token{Kind: TokDescription, Text: ""}
	}
	for i := len(p.argsStk) - 1; i >= 0; i-- {
		env := p.argsStk[i]
		if n >= 1 && n <= len(env.values) {
			return Token{Kind: TokDescription, Text: env.values[n-1]}
		}
	}
	p.errf(t, "undefined positional argument $%d", n)
	return Token{Kind: TokDescription, Text: ""}
}

// parseArgsBlock implements handleArgs: `+args "a" "b" … { stmt* }` (spec
// §4.3, grammar addendum in SPEC_FULL.md).
func (p *Parser) parseArgsBlock(dest *[]*KeyChord) {
	p.advance() // '+args'
	env := &argsEnv{}
	for p.cur.Kind == TokDescription || p.cur.Kind == TokDescInterp {
		var prop Property
		p.parseDescriptionInto(&prop, true)
		env.values = append(env.values, flattenLiteral(prop))
	}
	if p.cur.Kind != TokLBrace {
		p.expectErr(p.cur, "'{' to open an +args block")
		return
	}
	p.advance()
	p.argsStk = append(p.argsStk, env)
	for p.cur.Kind != TokRBrace && p.cur.Kind != TokEOF {
		p.parseStmt(dest)
	}
	p.argsStk = p.argsStk[:len(p.argsStk)-1]
	if p.cur.Kind == TokRBrace {
		p.advance()
	} else {
		p.errf(p.cur, "unterminated +args block, expected '}'")
	}
}

func flattenLiteral(prop Property) string {
	var b strings.Builder
	for _, t := range prop.Tokens {
		b.WriteString(t.Text)
	}
	return b.String()
}

func (p *Parser) parseVarAssign() {
	p.advance() // ':var'
	if p.cur.Kind != TokIdent {
		p.expectErr(p.cur, "a variable name")
		p.recover()
		return
	}
	name := p.cur.Text
	p.advance()
	if p.cur.Kind != TokDescription && p.cur.Kind != TokDescInterp {
		p.expectErr(p.cur, "a string value for :var")
		p.recover()
		return
	}
	var prop Property
	p.parseDescriptionInto(&prop, true)
	p.userVars[name] = flattenLiteral(prop)
}

// parseDirective handles the preprocessor/config directives of spec §4.2 —
// :include is expanded inline; the rest populate RawConfig.
func (p *Parser) parseDirective() {
	name := p.cur.Text
	tok := p.cur
	p.advance()

	readArg := func() string {
		if p.cur.Kind == TokDescription || p.cur.Kind == TokDescInterp {
			var prop Property
			p.parseDescriptionInto(&prop, true)
			return flattenLiteral(prop)
		}
		return ""
	}

	switch name {
	case ":include":
		path := readArg()
		p.expandInclude(tok, path)
	case ":debug":
		p.cfg.Debug = true
	case ":top":
		p.cfg.Top = true
	case ":bottom":
		p.cfg.Bottom = true
	case ":border-width":
		p.cfg.BorderWidth = atoiArg(readArg())
	case ":border-radius":
		p.cfg.BorderRadius = atoiArg(readArg())
	case ":bg-color":
		p.cfg.BgColor = readArg()
	case ":bd-color":
		p.cfg.BdColor = readArg()
	case ":max-columns":
		p.cfg.MaxColumns = atoiArg(readArg())
	case ":menu-width":
		p.cfg.MenuWidth = atoiArg(readArg())
	case ":menu-gap":
		p.cfg.MenuGap = atoiArg(readArg())
	case ":width-padding":
		p.cfg.WidthPadding = atoiArg(readArg())
	case ":height-padding":
		p.cfg.HeightPadding = atoiArg(readArg())
	case ":fg":
		p.cfg.Fg = readArg()
	case ":fg-key":
		p.cfg.FgKey = readArg()
	case ":fg-delimiter":
		p.cfg.FgDelimiter = readArg()
	case ":fg-prefix":
		p.cfg.FgPrefix = readArg()
	case ":fg-chord":
		p.cfg.FgChord = readArg()
	case ":font":
		p.cfg.Font = readArg()
	case ":shell":
		p.cfg.Shell = readArg()
	case ":wrap":
		p.cfg.Wrap = readArg()
	case ":sort":
		p.cfg.Sort = true
	default:
		p.errf(tok, "unrecognized directive %q", name)
	}
}

func atoiArg(s string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(s))
	return n
}

// expandInclude re-enters the scanner over the :include'd file's contents,
// splicing its statements directly into the outer token stream by
// re-parsing it with a fresh Parser sharing this one's userVars and
// appending its roots — effectively a textual pre-pass (spec §6).
func (p *Parser) expandInclude(at Token, path string) {
	if p.opts.Include == nil {
		p.errf(at, ":include unsupported (no file resolver configured)")
		return
	}
	data, resolved, err := p.opts.Include.Read(path)
	if err != nil {
		p.errf(at, ":include %q: %v", path, err)
		return
	}
	include := p.opts.Include
	if _, ok := include.(*FileInclude); ok {
		// Paths inside the included file resolve against its own directory.
		include = &FileInclude{BaseDir: filepath.Dir(resolved)}
	}
	sub := &Parser{
		sc:       NewScanner(data, resolved, p.opts.ImplicitKeys),
		opts:     Options{ImplicitKeys: p.opts.ImplicitKeys, Filepath: resolved, Include: include},
		userVars: p.userVars,
		cfg:      p.cfg,
	}
	sub.advance()
	var included []*KeyChord
	for sub.cur.Kind != TokEOF {
		sub.parseStmt(&included)
	}
	p.errs = append(p.errs, sub.errs...)
	// Splice into whatever destination the caller is currently filling:
	// callers of parseDirective already hold the dest slice, so expose the
	// result via the parser's last-include field and have parseStmt's
	// TokDirective case (above) append it.
	p.lastInclude = included
}
