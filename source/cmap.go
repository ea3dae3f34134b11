package source

import (
	"encoding/hex"
	"strings"
	"unicode/utf16"
)

// CMap maps 2-byte glyph codes to text, as declared by a font's ToUnicode
// stream.
type CMap map[uint16]string

// ParseCMap reads the bfchar and bfrange blocks of a ToUnicode stream.
// Destinations are UTF-16BE and may span several code units (ligatures,
// surrogate pairs); bfrange destinations may be a single start code or an
// array with one entry per source code.
func ParseCMap(data []byte) CMap {
	cm := make(CMap)
	s := string(data)
	for _, block := range sections(s, "beginbfchar", "endbfchar") {
		toks := hexTokens(block)
		for i := 0; i+1 < len(toks); i += 2 {
			cm[glyphCode(toks[i].hex)] = utf16Text(toks[i+1].hex)
		}
	}
	for _, block := range sections(s, "beginbfrange", "endbfrange") {
		parseRanges(block, cm)
	}
	return cm
}

func sections(s, begin, end string) []string {
	var out []string
	for {
		i := strings.Index(s, begin)
		if i < 0 {
			return out
		}
		s = s[i+len(begin):]
		j := strings.Index(s, end)
		if j < 0 {
			return out
		}
		out = append(out, s[:j])
		s = s[j+len(end):]
	}
}

type hexToken struct {
	hex     string
	inArray bool
	arrayID int
}

// hexTokens returns the <...> tokens of a block, remembering which [...]
// array, if any, each one belongs to.
func hexTokens(s string) []hexToken {
	var toks []hexToken
	depth, arrays := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[':
			depth++
			arrays++
		case ']':
			if depth > 0 {
				depth--
			}
		case '<':
			j := strings.IndexByte(s[i+1:], '>')
			if j < 0 {
				return toks
			}
			toks = append(toks, hexToken{hex: s[i+1 : i+1+j], inArray: depth > 0, arrayID: arrays})
			i += j + 1
		}
	}
	return toks
}

func parseRanges(block string, cm CMap) {
	toks := hexTokens(block)
	for i := 0; i+2 < len(toks); {
		lo, hi := glyphCode(toks[i].hex), glyphCode(toks[i+1].hex)
		if !toks[i+2].inArray {
			dst := utf16Units(toks[i+2].hex)
			for g := uint32(lo); g <= uint32(hi) && len(dst) > 0; g++ {
				units := append([]uint16(nil), dst...)
				units[len(units)-1] += uint16(g - uint32(lo))
				cm[uint16(g)] = string(utf16.Decode(units))
			}
			i += 3
			continue
		}
		id := toks[i+2].arrayID
		j := i + 2
		g := uint32(lo)
		for ; j < len(toks) && toks[j].inArray && toks[j].arrayID == id; j++ {
			if g <= uint32(hi) {
				cm[uint16(g)] = utf16Text(toks[j].hex)
			}
			g++
		}
		i = j
	}
}

func glyphCode(h string) uint16 {
	u := utf16Units(h)
	if len(u) == 0 {
		return 0
	}
	return u[0]
}

func utf16Units(h string) []uint16 {
	b, err := hex.DecodeString(compactHex(h))
	if err != nil {
		return nil
	}
	if len(b) == 1 {
		return []uint16{uint16(b[0])}
	}
	units := make([]uint16, 0, len(b)/2)
	for i := 0; i+1 < len(b); i += 2 {
		units = append(units, uint16(b[i])<<8|uint16(b[i+1]))
	}
	return units
}

func utf16Text(h string) string {
	return string(utf16.Decode(utf16Units(h)))
}

// DecodeHexString decodes a hex string of 2-byte glyph codes through cm.
// Codes missing from the map are dropped.
func DecodeHexString(h string, cm CMap) string {
	units := utf16Units(h)
	var sb strings.Builder
	for _, g := range units {
		if s, ok := cm[g]; ok {
			sb.WriteString(s)
		}
	}
	return sb.String()
}
