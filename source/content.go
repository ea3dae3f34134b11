package source

import (
	"encoding/hex"
	"math"
	"strconv"
	"strings"
)

// kerningThreshold is the gap, in thousandths of text space, above which
// two glyphs of a TJ array belong to different table cells.
const kerningThreshold = 500

type tokenKind int

const (
	tokString   tokenKind = iota // (text)
	tokHex                       // <0041>
	tokNumber                    // 12, -4.5
	tokName                      // /F1
	tokOperator                  // Tj, TD, Tf...
	tokArray                     // [...]
)

type token struct {
	kind     tokenKind
	value    string
	children []token
}

// textState tracks what the text operators need between tokens: the
// character spacing, the active font's ToUnicode map and the items
// emitted so far.
type textState struct {
	fonts map[string]CMap
	cmap  CMap
	tc    float64
	items []string
}

// extractTextItems interprets a content stream's text operators and
// returns the shown strings in stream order. An empty item marks every
// move to a new line (Td/TD with a vertical offset, T*, ', ", Tm).
func extractTextItems(stream []byte, fonts map[string]CMap) []string {
	st := &textState{fonts: fonts}
	lx := &lexer{s: string(stream)}
	var operands []token
	for {
		t, ok := lx.next()
		if !ok {
			break
		}
		if t.kind != tokOperator {
			operands = append(operands, t)
			continue
		}
		st.apply(t.value, operands)
		operands = operands[:0]
	}
	return st.items
}

func (st *textState) apply(op string, operands []token) {
	last := func() (token, bool) {
		if len(operands) == 0 {
			return token{}, false
		}
		return operands[len(operands)-1], true
	}

	switch op {
	case "Tf":
		st.cmap = nil
		for _, o := range operands {
			if o.kind == tokName {
				st.cmap = st.fonts[o.value]
			}
		}
	case "Tc":
		if o, ok := last(); ok && o.kind == tokNumber {
			if v, err := strconv.ParseFloat(o.value, 64); err == nil {
				st.tc = v
			}
		}
	case "Tj":
		if o, ok := last(); ok {
			st.showString(o)
		}
	case "'", "\"":
		st.items = append(st.items, "")
		if o, ok := last(); ok {
			st.showString(o)
		}
	case "TJ":
		if o, ok := last(); ok && o.kind == tokArray {
			st.items = append(st.items, st.splitArray(o.children)...)
		}
	case "Td", "TD":
		if len(operands) >= 2 {
			ty, err := strconv.ParseFloat(operands[len(operands)-1].value, 64)
			if err == nil && ty != 0 {
				st.items = append(st.items, "")
			}
		}
	case "T*", "Tm":
		st.items = append(st.items, "")
	}
}

// showString emits a Tj operand. With a large character spacing every
// glyph sits in its own column, so each one becomes an item.
func (st *textState) showString(t token) {
	if t.kind != tokString && t.kind != tokHex {
		return
	}
	s := st.text(t)
	if math.Abs(st.tc*1000) > kerningThreshold {
		for _, r := range s {
			st.items = append(st.items, string(r))
		}
		return
	}
	st.items = append(st.items, s)
}

// splitArray turns a TJ array into items. The gap before a glyph is the
// character spacing minus any displacement number in between; a gap wider
// than kerningThreshold starts a new item.
func (st *textState) splitArray(children []token) []string {
	var items []string
	var cur strings.Builder
	spacing := st.tc * 1000
	gap := 0.0
	for _, c := range children {
		switch c.kind {
		case tokString, tokHex:
			for _, r := range st.text(c) {
				if cur.Len() > 0 && math.Abs(gap) > kerningThreshold {
					items = append(items, cur.String())
					cur.Reset()
				}
				cur.WriteRune(r)
				gap = spacing
			}
		case tokNumber:
			if v, err := strconv.ParseFloat(c.value, 64); err == nil {
				gap -= v
			}
		}
	}
	if cur.Len() > 0 {
		items = append(items, cur.String())
	}
	return items
}

// text decodes a string operand. Hex strings go through the active font's
// ToUnicode map when there is one; otherwise their bytes are taken as
// Latin-1.
func (st *textState) text(t token) string {
	if t.kind != tokHex {
		return t.value
	}
	if st.cmap != nil {
		return DecodeHexString(t.value, st.cmap)
	}
	b, err := hex.DecodeString(compactHex(t.value))
	if err != nil {
		return ""
	}
	var sb strings.Builder
	for _, c := range b {
		sb.WriteRune(rune(c))
	}
	return sb.String()
}

func compactHex(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\n' || r == '\r' || r == '\t' {
			return -1
		}
		return r
	}, s)
	if len(s)%2 == 1 {
		s += "0"
	}
	return s
}

// lexer splits a content stream into tokens. It understands just enough
// of the syntax for text extraction: literal and hex strings, numbers,
// names, arrays and operators. Dictionaries are skipped.
type lexer struct {
	s   string
	pos int
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}

func isDelimiter(c byte) bool {
	return isSpace(c) || strings.IndexByte("()<>[]{}/%", c) >= 0
}

func (lx *lexer) next() (token, bool) {
	for lx.pos < len(lx.s) {
		c := lx.s[lx.pos]
		switch {
		case isSpace(c):
			lx.pos++
		case c == '%':
			for lx.pos < len(lx.s) && lx.s[lx.pos] != '\n' && lx.s[lx.pos] != '\r' {
				lx.pos++
			}
		case c == '(':
			return token{kind: tokString, value: lx.literal()}, true
		case c == '<':
			if strings.HasPrefix(lx.s[lx.pos:], "<<") {
				lx.pos += 2
				continue
			}
			return token{kind: tokHex, value: lx.hexString()}, true
		case c == '>' || c == ']' || c == '{' || c == '}':
			lx.pos++
		case c == '[':
			lx.pos++
			return token{kind: tokArray, children: lx.array()}, true
		case c == '/':
			lx.pos++
			return token{kind: tokName, value: lx.word()}, true
		case c == '-' || c == '+' || c == '.' || (c >= '0' && c <= '9'):
			return token{kind: tokNumber, value: lx.number()}, true
		default:
			if w := lx.word(); w != "" {
				return token{kind: tokOperator, value: w}, true
			}
			lx.pos++
		}
	}
	return token{}, false
}

func (lx *lexer) word() string {
	start := lx.pos
	for lx.pos < len(lx.s) && !isDelimiter(lx.s[lx.pos]) {
		lx.pos++
	}
	return lx.s[start:lx.pos]
}

func (lx *lexer) number() string {
	start := lx.pos
	if c := lx.s[lx.pos]; c == '-' || c == '+' {
		lx.pos++
	}
	for lx.pos < len(lx.s) && (lx.s[lx.pos] == '.' || (lx.s[lx.pos] >= '0' && lx.s[lx.pos] <= '9')) {
		lx.pos++
	}
	return lx.s[start:lx.pos]
}

func (lx *lexer) hexString() string {
	lx.pos++ // '<'
	start := lx.pos
	for lx.pos < len(lx.s) && lx.s[lx.pos] != '>' {
		lx.pos++
	}
	v := lx.s[start:lx.pos]
	if lx.pos < len(lx.s) {
		lx.pos++
	}
	return v
}

// literal reads a parenthesised string, handling nesting and the escape
// sequences of the PDF syntax.
func (lx *lexer) literal() string {
	var buf strings.Builder
	lx.pos++ // '('
	depth := 1
	for lx.pos < len(lx.s) {
		c := lx.s[lx.pos]
		lx.pos++
		switch c {
		case '\\':
			if lx.pos >= len(lx.s) {
				return buf.String()
			}
			e := lx.s[lx.pos]
			lx.pos++
			switch e {
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			case 'b':
				buf.WriteByte('\b')
			case 'f':
				buf.WriteByte('\f')
			case '\r', '\n':
				// line continuation
			default:
				if e >= '0' && e <= '7' {
					oct := []byte{e}
					for len(oct) < 3 && lx.pos < len(lx.s) && lx.s[lx.pos] >= '0' && lx.s[lx.pos] <= '7' {
						oct = append(oct, lx.s[lx.pos])
						lx.pos++
					}
					v, _ := strconv.ParseUint(string(oct), 8, 8)
					buf.WriteRune(rune(v))
					continue
				}
				buf.WriteRune(rune(e))
			}
		case '(':
			depth++
			buf.WriteByte(c)
		case ')':
			depth--
			if depth == 0 {
				return buf.String()
			}
			buf.WriteByte(c)
		default:
			buf.WriteRune(rune(c))
		}
	}
	return buf.String()
}

func (lx *lexer) array() []token {
	var children []token
	for lx.pos < len(lx.s) {
		c := lx.s[lx.pos]
		if isSpace(c) {
			lx.pos++
			continue
		}
		if c == ']' {
			lx.pos++
			break
		}
		t, ok := lx.next()
		if !ok {
			break
		}
		children = append(children, t)
	}
	return children
}
