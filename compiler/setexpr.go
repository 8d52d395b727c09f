package compiler

import (
	"strings"
	"unicode"

	"github.com/coregx/uregex/internal/ucd"
	"github.com/coregx/uregex/opcode"
)

// pendingSetOp tags a binary set operator waiting for its right-hand operand.
type pendingSetOp int

const (
	pendingNone pendingSetOp = iota
	pendingUnion
	pendingDifference
	pendingIntersection
)

// parseSet parses a full [...] expression starting immediately after the
// '[' token (already consumed by the caller) and returns the resulting Set.
// Items combine left to right: adjacent items implicitly union, and -- / &&
// apply between the set accumulated so far and the next item, mirroring
// ICU's UnicodeSet pattern grammar (spec §4.2, "Set expressions"). A leading
// '^' complements the whole finished expression.
func (b *builder) parseSet() (*ucd.Set, *Error) {
	negateWhole := false
	if r, ok := b.lx.peekRune(); ok && r == '^' {
		b.lx.advancePos(1)
		negateWhole = true
	}
	var acc *ucd.Set
	pending := pendingNone
	first := true
	combine := func(item *ucd.Set) *Error {
		switch {
		case acc == nil:
			acc = item
		case pending == pendingDifference:
			acc.RemoveAll(item)
			pending = pendingNone
		case pending == pendingIntersection:
			acc.RetainAll(item)
			pending = pendingNone
		default:
			acc.AddAll(item)
		}
		return nil
	}
	for {
		tok, err := b.lx.Next()
		if err != nil {
			return nil, err
		}
		if tok.isEOF {
			return nil, b.errHere(MissingCloseBracket, "unterminated character class")
		}
		if !tok.quoted && tok.r == ']' && !first {
			break
		}
		first = false
		switch {
		case !tok.quoted && tok.r == '[' && peekIsRune(b.lx, ':'):
			posix, perr := b.parsePosixClass()
			if perr != nil {
				return nil, perr
			}
			if cerr := combine(posix); cerr != nil {
				return nil, cerr
			}
		case !tok.quoted && tok.r == '[':
			nested, nerr := b.parseSet()
			if nerr != nil {
				return nil, nerr
			}
			if cerr := combine(nested); cerr != nil {
				return nil, cerr
			}
		case !tok.quoted && tok.r == '-' && peekIsRune(b.lx, '-') && acc != nil:
			b.lx.advancePos(1)
			pending = pendingDifference
		case !tok.quoted && tok.r == '&' && peekIsRune(b.lx, '&') && acc != nil:
			b.lx.advancePos(1)
			pending = pendingIntersection
		default:
			item, ierr := b.classAtomOrRange(tok)
			if ierr != nil {
				return nil, ierr
			}
			if cerr := combine(item); cerr != nil {
				return nil, cerr
			}
		}
	}
	if acc == nil {
		acc = ucd.NewSet()
	}
	if b.flags.has(CaseInsensitive) {
		acc.CloseOverCaseInsensitive()
	}
	if negateWhole {
		acc.Complement()
	}
	return acc, nil
}

func peekIsRune(lx *lexer, want rune) bool {
	r, ok := lx.peekRune()
	return ok && r == want
}

// classAtomOrRange resolves one item inside [...]: a predefined class
// (\d, \w, \s, \h, \v, \p{...}), or a literal character possibly starting a
// lo-hi range via a following "-hi".
func (b *builder) classAtomOrRange(tok token) (*ucd.Set, *Error) {
	if !tok.quoted {
		switch tok.r {
		case 'd':
			return ucd.FromRangeTable(unicode.Nd), nil
		case 'D':
			s := ucd.FromRangeTable(unicode.Nd).Clone()
			s.Complement()
			return s, nil
		case 'w':
			s, _ := ucd.ApplyPropertyAlias("word")
			return s.Clone(), nil
		case 'W':
			s, _ := ucd.ApplyPropertyAlias("word")
			s = s.Clone()
			s.Complement()
			return s, nil
		case 's':
			return classS(), nil
		case 'S':
			s := classS()
			s.Complement()
			return s, nil
		case 'h':
			return classH(), nil
		case 'v':
			return classV(), nil
		case 'p', 'P':
			return b.parsePropertyEscape(tok.r == 'P')
		}
	}
	if r, ok := b.lx.peekRune(); ok && r == '-' {
		if r2, ok2 := b.lx.peekRuneAt(1); ok2 && r2 != ']' && r2 != '-' {
			b.lx.advancePos(1) // consume '-'
			endTok, terr := b.lx.Next()
			if terr != nil {
				return nil, terr
			}
			if tok.r > endTok.r {
				return nil, b.errHere(InvalidRange, "range out of order")
			}
			return ucd.NewSetRange(tok.r, endTok.r), nil
		}
	}
	return ucd.NewSetRange(tok.r, tok.r), nil
}

func classS() *ucd.Set {
	s := ucd.NewSet()
	s.AddRange(0x09, 0x0d)
	s.AddAll(ucd.FromRangeTable(unicode.Zs))
	return s
}

func classH() *ucd.Set {
	s := ucd.NewSet()
	s.Add(0x09)
	s.AddAll(ucd.FromRangeTable(unicode.Zs))
	return s
}

func classV() *ucd.Set {
	s := ucd.NewSet()
	s.AddRange(0x0a, 0x0d)
	s.Add(0x85)
	s.Add(0x2028)
	s.Add(0x2029)
	return s
}

// compileSet lowers a finished Set into bytecode, following spec §4.2's
// three-way collapse: an empty set is unmatchable, a singleton compiles as a
// plain literal character, everything else becomes a SETREF into the
// pattern's set pool.
func (b *builder) compileSet(set *ucd.Set) block {
	var blk block
	switch {
	case set.IsEmpty():
		blk, _ = blk.emit(opcode.BACKTRACK, 0)
	case set.Size() == 1:
		blk, _ = blk.emit(opcode.ONECHAR, int(set.CharAt(0)))
	default:
		idx := b.internSet(set)
		blk, _ = blk.emit(opcode.SETREF, idx)
	}
	return blk
}

// internSet adds set to the pattern's shared set pool, returning its index.
func (b *builder) internSet(set *ucd.Set) int {
	set.Freeze()
	b.setPool = append(b.setPool, set)
	return len(b.setPool) - 1
}

// posixClasses is the fixed POSIX bracket-expression class table: ASCII-only
// C-locale ranges, the traditional meaning of [:name:] inside grep/awk/RE2
// bracket expressions (distinct from \p{...}'s Unicode property lookup).
var posixClasses = map[string]*ucd.Set{
	"alpha":  ucd.NewSetRange('a', 'z'),
	"digit":  ucd.NewSetRange('0', '9'),
	"alnum":  nil, // filled in by init below
	"upper":  ucd.NewSetRange('A', 'Z'),
	"lower":  ucd.NewSetRange('a', 'z'),
	"punct":  nil,
	"space":  nil,
	"blank":  nil,
	"cntrl":  nil,
	"graph":  nil,
	"print":  nil,
	"xdigit": nil,
}

func init() {
	posixClasses["alpha"].AddRange('A', 'Z')

	alnum := posixClasses["alpha"].Clone()
	alnum.AddAll(posixClasses["digit"])
	posixClasses["alnum"] = alnum

	punct := ucd.NewSetRange('!', '/')
	punct.AddRange(':', '@')
	punct.AddRange('[', '`')
	punct.AddRange('{', '~')
	posixClasses["punct"] = punct

	space := ucd.NewSetRange('\t', '\r')
	space.Add(' ')
	posixClasses["space"] = space

	blank := ucd.NewSet()
	blank.Add('\t')
	blank.Add(' ')
	posixClasses["blank"] = blank

	cntrl := ucd.NewSetRange(0x00, 0x1f)
	cntrl.Add(0x7f)
	posixClasses["cntrl"] = cntrl

	graph := ucd.NewSetRange('!', '~')
	posixClasses["graph"] = graph

	print := ucd.NewSetRange(' ', '~')
	posixClasses["print"] = print

	xdigit := ucd.NewSetRange('0', '9')
	xdigit.AddRange('A', 'F')
	xdigit.AddRange('a', 'f')
	posixClasses["xdigit"] = xdigit
}

// parsePosixClass parses a POSIX [:name:] or negated [:^name:] bracket class.
// The caller has already consumed the opening '[' and confirmed the next
// rune is ':'.
func (b *builder) parsePosixClass() (*ucd.Set, *Error) {
	b.lx.advancePos(1) // consume ':'
	negate := false
	if r, ok := b.lx.peekRune(); ok && r == '^' {
		b.lx.advancePos(1)
		negate = true
	}
	start := b.lx.Pos()
	for {
		r, ok := b.lx.peekRune()
		if !ok {
			return nil, b.errHere(MissingCloseBracket, "unterminated POSIX class")
		}
		if r == ':' {
			if r2, ok2 := b.lx.peekRuneAt(1); ok2 && r2 == ']' {
				break
			}
		}
		b.lx.advancePos(1)
	}
	name := string(b.lx.src[start:b.lx.Pos()])
	b.lx.advancePos(2) // consume ":]"
	set, ok := posixClasses[name]
	if !ok {
		return nil, b.errHere(PropertySyntax, "unrecognized POSIX class: "+name)
	}
	set = set.Clone()
	if negate {
		set.Complement()
	}
	return set, nil
}

// parsePropertyEscape parses the payload of \p{...} / \P{...} (the leading
// p/P token has already been consumed) and resolves it via ucd's property
// alias table, per spec §4.2 "Property escapes".
func (b *builder) parsePropertyEscape(negate bool) (*ucd.Set, *Error) {
	r, ok := b.lx.peekRune()
	if !ok {
		return nil, b.errHere(PropertySyntax, "truncated property escape")
	}
	var name string
	if r == '{' {
		b.lx.advancePos(1)
		start := b.lx.Pos()
		for {
			r, ok := b.lx.peekRune()
			if !ok {
				return nil, b.errHere(PropertySyntax, "unterminated \\p{...}")
			}
			if r == '}' {
				break
			}
			b.lx.advancePos(1)
		}
		name = string(b.lx.src[start:b.lx.Pos()])
		b.lx.advancePos(1) // consume '}'
	} else {
		b.lx.advancePos(1)
		name = string(r)
	}
	var set *ucd.Set
	var err error
	if idx := strings.IndexByte(name, '='); idx >= 0 {
		set, err = ucd.ApplyIntPropertyValue(name[:idx], name[idx+1:])
	} else {
		set, err = ucd.ApplyPropertyAlias(name)
	}
	if err != nil {
		return nil, b.errHere(PropertySyntax, err.Error())
	}
	set = set.Clone()
	if negate {
		set.Complement()
	}
	return set, nil
}
