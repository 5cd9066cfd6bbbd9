package scanner

import "github.com/willabides/corevalyaml/token"

// chomping controls how a block scalar's trailing line breaks are
// represented in its final value.
type chomping int

const (
	chompClip chomping = iota
	chompStrip
	chompKeep
)

// fetchBlockScalar scans a literal ('|') or folded ('>') block
// scalar. Grounded on yaml_parser_scan_block_scalar: an indentation
// indicator and/or chomping indicator header, followed by lines
// indented at least as deep as the block's own indentation (or an
// explicit indentation indicator), which set the block's effective
// indent from its first non-blank line if no indicator was given.
func (s *Scanner) fetchBlockScalar(style token.QuoteStyle) error {
	s.removeSimpleKey()
	s.simpleKeyAllowed = true
	start := s.mark
	s.advance(1)

	chomp := chompClip
	indicator := 0
	for i := 0; i < 2; i++ {
		switch {
		case s.at(0) == '+' && chomp == chompClip:
			chomp = chompKeep
		case s.at(0) == '-' && chomp == chompClip:
			chomp = chompStrip
		case isDigit(s.at(0)) && indicator == 0:
			indicator = int(s.at(0) - '0')
			if indicator == 0 {
				return &ScanError{Kind: ErrBadScalar, At: s.mark, Msg: "found an indentation indicator equal to 0"}
			}
		default:
			goto header
		}
		s.advance(1)
	}
header:
	for s.at(0) == ' ' || s.at(0) == '\t' {
		s.advance(1)
	}
	if s.at(0) == '#' {
		for !s.isBreak(0) && !s.isZ(0) {
			s.advanceRune()
		}
	}
	if !s.isBreak(0) && !s.isZ(0) {
		return &ScanError{Kind: ErrBadScalar, At: s.mark, Msg: "did not find expected comment or line break"}
	}
	s.skipLineBreak()

	blockIndent := s.indent + 1
	if indicator > 0 {
		blockIndent = s.indent + indicator
	}

	var lines [][]byte
	indentKnown := indicator > 0

	for {
		for s.at(0) == ' ' {
			s.advance(1)
		}
		col := s.mark.Column - 1
		if !indentKnown && (s.isBreak(0) || s.isZ(0)) {
			// A leading blank line doesn't fix the indentation yet.
		} else if !indentKnown {
			blockIndent = col
			if blockIndent < s.indent+1 {
				blockIndent = s.indent + 1
			}
			indentKnown = true
		}
		if col < blockIndent {
			if s.isBreak(0) || s.isZ(0) {
				lines = append(lines, nil)
				if s.isZ(0) {
					break
				}
				s.skipLineBreak()
				continue
			}
			break
		}
		var line []byte
		extra := col - blockIndent
		for i := 0; i < extra; i++ {
			line = append(line, ' ')
		}
		for !s.isBreak(0) && !s.isZ(0) {
			line = append(line, s.at(0))
			s.advanceRune()
		}
		lines = append(lines, line)
		if s.isZ(0) {
			break
		}
		s.skipLineBreak()
	}

	text := joinBlockLines(lines, style == token.Folded, chomp)
	s.appendToken(token.Token{Kind: token.Scalar, Start: start, End: s.mark, Text: text, Style: style})
	return nil
}

// joinBlockLines assembles a block scalar's final text from its raw
// content lines, applying literal/folded line-break semantics and the
// requested chomping.
func joinBlockLines(lines [][]byte, folded bool, chomp chomping) string {
	trailingBlank := 0
	for trailingBlank < len(lines) && lines[len(lines)-1-trailingBlank] == nil {
		trailingBlank++
	}
	content := lines[:len(lines)-trailingBlank]

	var out []byte
	prevBlank := true
	for i, l := range content {
		if i > 0 {
			switch {
			case l == nil:
				out = append(out, '\n')
			case folded && !prevBlank && len(l) > 0 && l[0] != ' ':
				out = append(out, ' ')
			default:
				out = append(out, '\n')
			}
		}
		out = append(out, l...)
		prevBlank = l == nil
	}

	switch chomp {
	case chompStrip:
		// no trailing break at all
	case chompKeep:
		if len(content) > 0 {
			out = append(out, '\n')
		}
		for i := 0; i < trailingBlank; i++ {
			out = append(out, '\n')
		}
	default: // chompClip
		if len(content) > 0 {
			out = append(out, '\n')
		}
	}
	return string(out)
}
