// Package scanner is a lexer turning a YAML byte buffer into a stream
// of Tokens.
//
// Unlike a streaming scanner that refills a raw buffer from an
// io.Reader and transcodes UTF-16 on the fly, this Scanner takes the
// whole document as a single in-memory []byte up front: UTF-8 only,
// with a BOM stripped if present. The algorithmic shape of token
// recognition, indentation tracking, and simple-key lookahead follows
// libyaml's scanner: the indent stack and its BLOCK_END-emitting
// roll/unroll, the one-candidate-per-flow-level simple key slot with
// retroactive Key-token insertion, and the fetch dispatch keyed on the
// current lookahead byte, all adapted to operate on a fixed buffer
// instead of a refillable one.
package scanner

import (
	"fmt"
	"unicode/utf8"

	"github.com/willabides/corevalyaml/position"
	"github.com/willabides/corevalyaml/token"
)

// ErrorKind classifies a ScanError.
type ErrorKind int

const (
	ErrBadUTF8 ErrorKind = iota
	ErrBadIndent
	ErrBadSimpleKey
	ErrBadScalar
	ErrBadTag
	ErrBadAnchor
	ErrBadDirective
	ErrUnterminated
	ErrLimit
)

// ScanError reports a lexical failure at a specific buffer position.
type ScanError struct {
	Kind ErrorKind
	At   position.Position
	Msg  string
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("yaml: scan error: %s at %s", e.Msg, e.At)
}

// IndentStyle classifies the leading-whitespace character a document
// uses for block indentation, tracked the way
// original_source/src/scanner/indentation.rs's IndentationManager
// does: recorded from the first indented line, then checked against
// every later line so a document that switches from one style to the
// other is rejected as Mixed.
type IndentStyle int

const (
	IndentUnknown IndentStyle = iota
	IndentSpaces
	IndentTabs
	IndentMixed
)

// simpleKey is a candidate position where a Key token might need to be
// retroactively inserted once a ':' confirms it, one slot per flow
// level, mirroring yaml_simple_key_t.
type simpleKey struct {
	possible    bool
	required    bool
	tokenNumber int
	mark        position.Position
	flowLevel   int
}

// Scanner turns a byte buffer into a sequence of Tokens via NextToken.
type Scanner struct {
	buf []byte
	pos int
	mark position.Position

	streamStartProduced bool
	streamEndProduced   bool

	indents []int
	indent  int

	indentStyle IndentStyle
	indentWidth int

	flowLevel int

	simpleKeys    []simpleKey
	simpleKeyAllowed bool

	tokens     []token.Token
	tokensHead int
	tokensParsed int

	err  error
	done bool
}

// DetectedIndentStyle reports the block-indentation style inferred so
// far (IndentUnknown until the first indented content line has been
// scanned) and, for IndentSpaces, the width of that first line's
// indent.
func (s *Scanner) DetectedIndentStyle() (IndentStyle, int) {
	return s.indentStyle, s.indentWidth
}

const maxPad = 4

// New returns a Scanner over data. data is copied into an internal
// buffer with a trailing NUL pad so lookahead helpers never need an
// explicit bounds check. A UTF-8 byte-order mark, if present, is
// stripped first; any other invalid UTF-8 is reported immediately as
// a ScanError from the first NextToken call.
func New(data []byte) *Scanner {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		data = data[3:]
	}
	buf := make([]byte, len(data)+maxPad)
	copy(buf, data)
	s := &Scanner{
		buf:              buf,
		mark:             position.Start,
		indent:           -1,
		simpleKeyAllowed: true,
	}
	s.simpleKeys = append(s.simpleKeys, simpleKey{flowLevel: 0})
	if !utf8.Valid(data) {
		s.err = &ScanError{Kind: ErrBadUTF8, At: position.Start, Msg: "invalid UTF-8"}
	}
	return s
}

// NextToken returns the next Token in the stream, or an error. Once
// StreamEnd has been returned, subsequent calls keep returning
// StreamEnd.
func (s *Scanner) NextToken() (token.Token, error) {
	if s.err != nil {
		return token.Token{}, s.err
	}
	if err := s.fetchMoreTokens(); err != nil {
		s.err = err
		return token.Token{}, err
	}
	if s.tokensHead >= len(s.tokens) && s.streamEndProduced {
		return s.tokens[len(s.tokens)-1], nil
	}
	if s.tokensHead >= len(s.tokens) {
		return token.Token{}, fmt.Errorf("yaml: scanner: no token available")
	}
	t := s.tokens[s.tokensHead]
	s.tokensHead++
	s.tokensParsed++
	return t, nil
}

// fetchMoreTokens ensures at least one token is queued past
// tokensHead, fetching raw tokens until the simple-key ambiguity (if
// any) at the front of the queue is resolved.
func (s *Scanner) fetchMoreTokens() error {
	for {
		if s.tokensHead < len(s.tokens) {
			// A queued token is only safe to hand out once no
			// not-yet-decided simple key could still retroactively
			// insert a Key token ahead of it.
			needMore := false
			for i := range s.simpleKeys {
				if s.simpleKeys[i].possible {
					needMore = true
					break
				}
			}
			if !needMore {
				return nil
			}
		}
		if s.done {
			if s.tokensHead < len(s.tokens) {
				return nil
			}
			return nil
		}
		if err := s.fetchNextToken(); err != nil {
			return err
		}
	}
}

func (s *Scanner) insertToken(pos int, t token.Token) {
	idx := s.tokensHead + pos
	if pos < 0 || idx >= len(s.tokens) {
		s.tokens = append(s.tokens, t)
		return
	}
	s.tokens = append(s.tokens, token.Token{})
	copy(s.tokens[idx+1:], s.tokens[idx:])
	s.tokens[idx] = t
}

func (s *Scanner) appendToken(t token.Token) {
	s.tokens = append(s.tokens, t)
}

func (s *Scanner) fetchNextToken() error {
	if !s.streamStartProduced {
		s.streamStartProduced = true
		s.appendToken(token.Token{Kind: token.StreamStart, Start: s.mark, End: s.mark})
		return nil
	}

	if err := s.scanToNextToken(); err != nil {
		return err
	}
	if err := s.staleSimpleKeys(); err != nil {
		return err
	}
	s.unrollIndent(s.mark.Column - 1)

	if s.isZ(0) {
		return s.fetchStreamEnd()
	}

	switch {
	case s.mark.Column == 1 && s.at(0) == '%':
		return s.fetchDirective()
	case s.mark.Column == 1 && s.isDocMarker("---"):
		return s.fetchDocumentIndicator(token.DocumentStart)
	case s.mark.Column == 1 && s.isDocMarker("..."):
		return s.fetchDocumentIndicator(token.DocumentEnd)
	case s.at(0) == '[':
		return s.fetchFlowCollectionStart(token.FlowSequenceStart)
	case s.at(0) == '{':
		return s.fetchFlowCollectionStart(token.FlowMappingStart)
	case s.at(0) == ']':
		return s.fetchFlowCollectionEnd(token.FlowSequenceEnd)
	case s.at(0) == '}':
		return s.fetchFlowCollectionEnd(token.FlowMappingEnd)
	case s.at(0) == ',':
		return s.fetchFlowEntry()
	case s.at(0) == '-' && s.isPlainScalarBoundary(1):
		return s.fetchBlockEntry()
	case s.at(0) == '?' && (s.flowLevel > 0 || s.isPlainScalarBoundary(1)):
		return s.fetchKey()
	case s.at(0) == ':' && (s.flowLevel > 0 || s.isPlainScalarBoundary(1)):
		return s.fetchValue()
	case s.at(0) == '*':
		return s.fetchAnchorOrAlias(token.Alias)
	case s.at(0) == '&':
		return s.fetchAnchorOrAlias(token.Anchor)
	case s.at(0) == '!':
		return s.fetchTag()
	case s.at(0) == '|' && s.flowLevel == 0:
		return s.fetchBlockScalar(token.Literal)
	case s.at(0) == '>' && s.flowLevel == 0:
		return s.fetchBlockScalar(token.Folded)
	case s.at(0) == '\'':
		return s.fetchFlowScalar(true)
	case s.at(0) == '"':
		return s.fetchFlowScalar(false)
	case s.isPlainScalarStart():
		return s.fetchPlainScalar()
	}
	return &ScanError{Kind: ErrBadScalar, At: s.mark, Msg: fmt.Sprintf("found character %q that cannot start any token", s.at(0))}
}

func (s *Scanner) isDocMarker(marker string) bool {
	if s.at(0) != marker[0] || s.at(1) != marker[1] || s.at(2) != marker[2] {
		return false
	}
	return s.isBlankZ(3)
}

func (s *Scanner) fetchStreamEnd() error {
	s.unrollIndent(-1)
	s.simpleKeys[len(s.simpleKeys)-1].possible = false
	s.simpleKeyAllowed = false
	s.streamEndProduced = true
	s.done = true
	s.appendToken(token.Token{Kind: token.StreamEnd, Start: s.mark, End: s.mark})
	return nil
}

// advance moves pos/mark past n raw bytes (no rune awareness needed
// for single-byte indicator characters).
func (s *Scanner) advance(n int) {
	for i := 0; i < n; i++ {
		b := s.at(0)
		if s.isCRLF(0) {
			s.pos++
			b = '\n' // normalize CRLF's second byte so mark math below matches a single line break
			s.mark.Index++
		}
		s.mark = s.mark.Advance(b)
		s.pos++
	}
}

// advanceRune moves pos/mark past one UTF-8 encoded rune.
func (s *Scanner) advanceRune() {
	w := s.width(0)
	r, sz := utf8.DecodeRune(s.buf[s.pos:])
	if sz > 0 {
		w = sz
	}
	s.mark = s.mark.AdvanceRune(r, w)
	s.pos += w
}

func (s *Scanner) skipLineBreak() {
	if s.isCRLF(0) {
		s.mark = s.mark.Advance('\n')
		s.mark.Index++
		s.pos += 2
		return
	}
	if s.isBreak(0) {
		s.mark = s.mark.Advance('\n')
		s.pos++
	}
}

func (s *Scanner) isPlainScalarBoundary(off int) bool {
	return s.isBlankZ(off)
}

func (s *Scanner) isPlainScalarStart() bool {
	b := s.at(0)
	switch b {
	case '-', '?', ':', ',', '[', ']', '{', '}', '#', '&', '*', '!', '|', '>', '\'', '"', '%', '@', '`':
		return false
	}
	return true
}

// scanToNextToken skips whitespace, comments, and line breaks; it
// stops at the first byte of the next token.
func (s *Scanner) scanToNextToken() error {
	for {
		if err := s.checkIndentStyle(); err != nil {
			return err
		}
		for s.at(0) == ' ' {
			s.advance(1)
		}
		for s.at(0) == '\t' {
			s.advance(1)
		}
		if s.at(0) == '#' {
			for !s.isBreak(0) && !s.isZ(0) {
				s.advanceRune()
			}
		}
		if s.isBreak(0) {
			s.skipLineBreak()
			if s.flowLevel == 0 {
				s.simpleKeyAllowed = true
			}
			continue
		}
		return nil
	}
}

// checkIndentStyle peeks the leading whitespace run of a new
// block-context line and folds it into the document's detected
// IndentStyle, grounded on original_source/src/scanner/indentation.rs's
// IndentationManager: the first indented content line fixes the style
// to Spaces(n) or Tabs; a later content line using the other
// character -- or a single line mixing both -- sets Mixed and fails.
// A pure-tab-indented document is valid; only mixing the two styles
// is an error. Comment-only and blank lines don't participate, since
// their indentation carries no block-structure meaning.
func (s *Scanner) checkIndentStyle() error {
	if s.flowLevel > 0 || s.mark.Column != 1 {
		return nil
	}
	spaces, tabs := 0, 0
	for s.at(spaces+tabs) == ' ' || s.at(spaces+tabs) == '\t' {
		if s.at(spaces+tabs) == ' ' {
			spaces++
		} else {
			tabs++
		}
	}
	if spaces == 0 && tabs == 0 {
		return nil
	}
	switch s.at(spaces + tabs) {
	case '#', 0, '\r', '\n':
		return nil // comment-only or blank line: not indentation-significant
	}
	if spaces > 0 && tabs > 0 {
		s.indentStyle = IndentMixed
		return &ScanError{Kind: ErrBadIndent, At: s.mark, Msg: "mixed indentation: tabs and spaces used together"}
	}
	switch s.indentStyle {
	case IndentUnknown:
		if tabs > 0 {
			s.indentStyle = IndentTabs
		} else {
			s.indentStyle = IndentSpaces
			s.indentWidth = spaces
		}
	case IndentSpaces:
		if tabs > 0 {
			s.indentStyle = IndentMixed
			return &ScanError{Kind: ErrBadIndent, At: s.mark, Msg: "mixed indentation: document uses spaces, this line uses a tab"}
		}
	case IndentTabs:
		if spaces > 0 {
			s.indentStyle = IndentMixed
			return &ScanError{Kind: ErrBadIndent, At: s.mark, Msg: "mixed indentation: document uses tabs, this line uses a space"}
		}
	}
	return nil
}

func (s *Scanner) staleSimpleKeys() error {
	for i := range s.simpleKeys {
		sk := &s.simpleKeys[i]
		if sk.possible && (sk.mark.Line != s.mark.Line || s.mark.Index-sk.mark.Index > 1024) {
			if sk.required {
				return &ScanError{Kind: ErrBadSimpleKey, At: s.mark, Msg: "could not find expected ':'"}
			}
			sk.possible = false
		}
	}
	return nil
}

func (s *Scanner) saveSimpleKey() error {
	required := s.flowLevel == 0 && s.indent == s.mark.Column-1
	if s.simpleKeyAllowed {
		s.removeSimpleKey()
		tokenNumber := s.tokensParsed + (len(s.tokens) - s.tokensHead)
		s.simpleKeys[len(s.simpleKeys)-1] = simpleKey{
			possible:    true,
			required:    required,
			tokenNumber: tokenNumber,
			mark:        s.mark,
			flowLevel:   s.flowLevel,
		}
	}
	return nil
}

func (s *Scanner) removeSimpleKey() error {
	sk := &s.simpleKeys[len(s.simpleKeys)-1]
	if sk.possible && sk.required {
		return &ScanError{Kind: ErrBadSimpleKey, At: s.mark, Msg: "could not find expected ':'"}
	}
	sk.possible = false
	return nil
}

func (s *Scanner) increaseFlowLevel() {
	s.simpleKeys = append(s.simpleKeys, simpleKey{flowLevel: s.flowLevel + 1})
	s.flowLevel++
}

func (s *Scanner) decreaseFlowLevel() {
	if s.flowLevel > 0 {
		s.flowLevel--
		s.simpleKeys = s.simpleKeys[:len(s.simpleKeys)-1]
	}
}

// rollIndent pushes a new indentation level and emits the
// corresponding *Start token when column exceeds the current indent.
// Callers pass the mark's 1-based column; indents are 0-based.
func (s *Scanner) rollIndent(column int, number int, kind token.Kind, mark position.Position) {
	if s.flowLevel > 0 {
		return
	}
	column--
	if s.indent < column {
		s.indents = append(s.indents, s.indent)
		s.indent = column
		t := token.Token{Kind: kind, Start: mark, End: mark}
		if number < 0 {
			s.appendToken(t)
		} else {
			s.insertToken(number-s.tokensParsed, t)
		}
	}
}

// unrollIndent pops indentation levels back down to column, emitting
// a BlockEnd token for each one.
func (s *Scanner) unrollIndent(column int) {
	if s.flowLevel > 0 {
		return
	}
	for s.indent > column {
		t := token.Token{Kind: token.BlockEnd, Start: s.mark, End: s.mark}
		s.appendToken(t)
		s.indent = s.indents[len(s.indents)-1]
		s.indents = s.indents[:len(s.indents)-1]
	}
}
