package scanner

import (
	"unicode/utf8"

	"github.com/willabides/corevalyaml/token"
)

func (s *Scanner) fetchFlowScalar(single bool) error {
	if err := s.saveSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = false
	start := s.mark
	if single {
		text, err := s.scanSingleQuoted()
		if err != nil {
			return err
		}
		s.appendToken(token.Token{Kind: token.Scalar, Start: start, End: s.mark, Text: text, Style: token.SingleQuoted})
		return nil
	}
	text, err := s.scanDoubleQuoted()
	if err != nil {
		return err
	}
	s.appendToken(token.Token{Kind: token.Scalar, Start: start, End: s.mark, Text: text, Style: token.DoubleQuoted})
	return nil
}

func (s *Scanner) scanSingleQuoted() (string, error) {
	s.advance(1)
	var out []byte
	for {
		switch {
		case s.isZ(0):
			return "", &ScanError{Kind: ErrUnterminated, At: s.mark, Msg: "found unexpected end of stream while scanning a quoted scalar"}
		case s.at(0) == '\'' && s.at(1) == '\'':
			out = append(out, '\'')
			s.advance(2)
		case s.at(0) == '\'':
			s.advance(1)
			return foldScalarWhitespace(out), nil
		case s.isBreak(0):
			out = s.foldLineBreakInto(out)
		case s.isBlank(0):
			out = s.collectBlanksInto(out)
		default:
			out = append(out, s.at(0))
			s.advanceRune()
		}
	}
}

func (s *Scanner) scanDoubleQuoted() (string, error) {
	s.advance(1)
	var out []byte
	for {
		switch {
		case s.isZ(0):
			return "", &ScanError{Kind: ErrUnterminated, At: s.mark, Msg: "found unexpected end of stream while scanning a quoted scalar"}
		case s.at(0) == '"':
			s.advance(1)
			return foldScalarWhitespace(out), nil
		case s.at(0) == '\\' && s.isBreak(1):
			s.advance(1)
			s.skipLineBreak()
			out = s.collectBlanksInto(out)
		case s.at(0) == '\\':
			r, err := s.scanEscape()
			if err != nil {
				return "", err
			}
			var buf [utf8.UTFMax]byte
			n := utf8.EncodeRune(buf[:], r)
			out = append(out, buf[:n]...)
		case s.isBreak(0):
			out = s.foldLineBreakInto(out)
		case s.isBlank(0):
			out = s.collectBlanksInto(out)
		default:
			out = append(out, s.at(0))
			s.advanceRune()
		}
	}
}

// collectBlanksInto appends run of blanks verbatim unless it turns out
// to precede a line break, in which case foldLineBreakInto handles the
// fold and this run is discarded (a single space is folded to nothing,
// matching YAML's "trailing blanks before a break are insignificant").
func (s *Scanner) collectBlanksInto(out []byte) []byte {
	start := s.pos
	for s.isBlank(0) {
		s.advance(1)
	}
	if s.isBreak(0) {
		return out
	}
	return append(out, s.buf[start:s.pos]...)
}

// foldLineBreakInto implements YAML's line-folding rule: a single line
// break folds to a space; two or more consecutive breaks fold to
// (n-1) newlines.
func (s *Scanner) foldLineBreakInto(out []byte) []byte {
	breaks := 0
	for s.isBreak(0) {
		s.skipLineBreak()
		for s.isBlank(0) {
			s.advance(1)
		}
		breaks++
	}
	if breaks == 1 {
		return append(out, ' ')
	}
	for i := 0; i < breaks-1; i++ {
		out = append(out, '\n')
	}
	return out
}

func foldScalarWhitespace(b []byte) string { return string(b) }

func (s *Scanner) scanEscape() (rune, error) {
	s.advance(1)
	c := s.at(0)
	simple := map[byte]rune{
		'0': 0, 'a': '\a', 'b': '\b', 't': '\t', '\t': '\t', 'n': '\n',
		'v': '\v', 'f': '\f', 'r': '\r', 'e': 0x1B, ' ': ' ', '"': '"',
		'/': '/', '\\': '\\', 'N': 0x85, '_': 0xA0, 'L': 0x2028, 'P': 0x2029,
	}
	if r, ok := simple[c]; ok {
		s.advance(1)
		return r, nil
	}
	var width int
	switch c {
	case 'x':
		width = 2
	case 'u':
		width = 4
	case 'U':
		width = 8
	default:
		return 0, &ScanError{Kind: ErrBadScalar, At: s.mark, Msg: "found unknown escape character"}
	}
	s.advance(1)
	var v rune
	for i := 0; i < width; i++ {
		if !isHex(s.at(0)) {
			return 0, &ScanError{Kind: ErrBadScalar, At: s.mark, Msg: "did not find expected hexadecimal number"}
		}
		v = v<<4 | rune(hexVal(s.at(0)))
		s.advance(1)
	}
	return v, nil
}

// fetchPlainScalar scans a plain (unquoted) scalar, which may span
// multiple lines as long as each continuation line is indented past
// the enclosing block's indentation level. Grounded on
// yaml_parser_scan_plain_scalar's two-phase loop: scan one line's
// worth of content, then decide whether a following line break
// continues the scalar or ends it.
func (s *Scanner) fetchPlainScalar() error {
	if err := s.saveSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = false
	start := s.mark
	indent := s.indent + 1

	var out []byte
	for {
		for {
			if s.isZ(0) {
				s.appendToken(token.Token{Kind: token.Scalar, Start: start, End: s.mark, Text: string(out), Style: token.Plain})
				return nil
			}
			if s.at(0) == '#' && len(out) > 0 && (out[len(out)-1] == ' ' || out[len(out)-1] == '\t') {
				break
			}
			if s.at(0) == '#' && s.mark.Index == start.Index {
				break
			}
			if s.isBreak(0) {
				break
			}
			if s.at(0) == ':' && s.isBlankZ(1) {
				break
			}
			if s.flowLevel > 0 && s.at(0) == ':' && s.isFlowPlainScalarEnd(1) {
				break
			}
			if s.flowLevel > 0 {
				switch s.at(0) {
				case ',', '[', ']', '{', '}':
					s.appendToken(token.Token{Kind: token.Scalar, Start: start, End: s.mark, Text: string(out), Style: token.Plain})
					return nil
				}
			}
			if s.isBlank(0) {
				out = s.collectBlanksInto(out)
				continue
			}
			out = append(out, s.at(0))
			s.advanceRune()
		}

		if !s.isBreak(0) {
			break
		}
		if !s.plainScalarContinues(indent) {
			break
		}
		out = s.foldLineBreakInto(out)
	}

	s.appendToken(token.Token{Kind: token.Scalar, Start: start, End: s.mark, Text: string(out), Style: token.Plain})
	return nil
}

// plainScalarContinues looks ahead, without consuming anything, past
// the line break(s) and any blank-only lines that follow, to decide
// whether a plain scalar continues onto the next content line: it
// does if that line's first non-blank byte lands at a column >
// indent and isn't a '#', a document marker, or end of stream.
func (s *Scanner) plainScalarContinues(indent int) bool {
	i := s.pos
	for {
		switch {
		case i+1 < len(s.buf) && s.buf[i] == '\r' && s.buf[i+1] == '\n':
			i += 2
		case s.buf[i] == '\r' || s.buf[i] == '\n':
			i++
		default:
			goto afterBreaks
		}
	}
afterBreaks:
	for {
		column := 1
		for i < len(s.buf) && s.buf[i] == ' ' {
			i++
			column++
		}
		if i >= len(s.buf) || s.buf[i] == 0 {
			return false
		}
		if s.buf[i] == '\r' || s.buf[i] == '\n' {
			// A blank line: it neither ends nor, by itself, confirms
			// continuation; keep looking at the line after it.
			if s.buf[i] == '\r' && i+1 < len(s.buf) && s.buf[i+1] == '\n' {
				i += 2
			} else {
				i++
			}
			continue
		}
		if s.buf[i] == '#' {
			return false
		}
		if column == 1 && i+3 <= len(s.buf) {
			rest := string(s.buf[i : i+3])
			if rest == "---" || rest == "..." {
				return false
			}
		}
		return s.flowLevel > 0 || column-1 >= indent
	}
}

func (s *Scanner) isFlowPlainScalarEnd(off int) bool {
	if s.isBlankZ(off) {
		return true
	}
	switch s.at(off) {
	case ',', '[', ']', '{', '}':
		return true
	}
	return false
}
