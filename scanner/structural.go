package scanner

import (
	"fmt"
	"strconv"

	"github.com/willabides/corevalyaml/position"
	"github.com/willabides/corevalyaml/token"
)

func (s *Scanner) fetchDocumentIndicator(kind token.Kind) error {
	s.unrollIndent(-1)
	s.removeSimpleKey()
	s.simpleKeyAllowed = false
	start := s.mark
	s.advance(3)
	s.appendToken(token.Token{Kind: kind, Start: start, End: s.mark})
	return nil
}

func (s *Scanner) fetchFlowCollectionStart(kind token.Kind) error {
	if err := s.saveSimpleKey(); err != nil {
		return err
	}
	s.increaseFlowLevel()
	s.simpleKeyAllowed = true
	start := s.mark
	s.advance(1)
	s.appendToken(token.Token{Kind: kind, Start: start, End: s.mark})
	return nil
}

func (s *Scanner) fetchFlowCollectionEnd(kind token.Kind) error {
	if err := s.removeSimpleKey(); err != nil {
		return err
	}
	s.decreaseFlowLevel()
	s.simpleKeyAllowed = false
	start := s.mark
	s.advance(1)
	s.appendToken(token.Token{Kind: kind, Start: start, End: s.mark})
	return nil
}

func (s *Scanner) fetchFlowEntry() error {
	if err := s.removeSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = true
	start := s.mark
	s.advance(1)
	s.appendToken(token.Token{Kind: token.FlowEntry, Start: start, End: s.mark})
	return nil
}

func (s *Scanner) fetchBlockEntry() error {
	if s.flowLevel == 0 {
		if !s.simpleKeyAllowed {
			return &ScanError{Kind: ErrBadIndent, At: s.mark, Msg: "block sequence entries are not allowed in this context"}
		}
		s.rollIndent(s.mark.Column, -1, token.BlockSequenceStart, s.mark)
	}
	if err := s.removeSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = true
	start := s.mark
	s.advance(1)
	s.appendToken(token.Token{Kind: token.BlockEntry, Start: start, End: s.mark})
	return nil
}

func (s *Scanner) fetchKey() error {
	if s.flowLevel == 0 {
		if !s.simpleKeyAllowed {
			return &ScanError{Kind: ErrBadIndent, At: s.mark, Msg: "mapping keys are not allowed in this context"}
		}
		s.rollIndent(s.mark.Column, -1, token.BlockMappingStart, s.mark)
	}
	if err := s.removeSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = s.flowLevel == 0
	start := s.mark
	s.advance(1)
	s.appendToken(token.Token{Kind: token.Key, Start: start, End: s.mark})
	return nil
}

func (s *Scanner) fetchValue() error {
	sk := s.simpleKeys[len(s.simpleKeys)-1]
	if sk.possible {
		s.simpleKeys[len(s.simpleKeys)-1].possible = false
		start := sk.mark
		keyTok := token.Token{Kind: token.Key, Start: start, End: start}
		s.insertToken(sk.tokenNumber-s.tokensParsed, keyTok)
		if s.flowLevel == 0 {
			s.rollIndent(sk.mark.Column, sk.tokenNumber, token.BlockMappingStart, sk.mark)
		}
		s.simpleKeyAllowed = false
	} else {
		if s.flowLevel == 0 {
			if !s.simpleKeyAllowed {
				return &ScanError{Kind: ErrBadIndent, At: s.mark, Msg: "mapping values are not allowed in this context"}
			}
			s.rollIndent(s.mark.Column, -1, token.BlockMappingStart, s.mark)
		}
		s.simpleKeyAllowed = s.flowLevel == 0
	}
	start := s.mark
	s.advance(1)
	s.appendToken(token.Token{Kind: token.Value, Start: start, End: s.mark})
	return nil
}

func (s *Scanner) fetchAnchorOrAlias(kind token.Kind) error {
	if err := s.saveSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = false
	start := s.mark
	s.advance(1)
	var name []byte
	for isAlpha(s.at(0)) {
		name = append(name, s.at(0))
		s.advance(1)
	}
	if len(name) == 0 {
		return &ScanError{Kind: ErrBadAnchor, At: s.mark, Msg: "did not find expected alphabetic or numeric character"}
	}
	s.appendToken(token.Token{Kind: kind, Start: start, End: s.mark, Text: string(name)})
	return nil
}

// isTagSuffixEnd reports whether the current position ends a tag
// suffix: whitespace/break/EOF always end it, and inside flow context
// the flow indicator characters do too, since an unquoted tag suffix
// may sit directly against a ',', ']', or '}'.
func (s *Scanner) isTagSuffixEnd() bool {
	if s.isBlankZ(0) {
		return true
	}
	if s.flowLevel > 0 {
		switch s.at(0) {
		case ',', '[', ']', '{', '}':
			return true
		}
	}
	return false
}

func (s *Scanner) fetchTag() error {
	if err := s.saveSimpleKey(); err != nil {
		return err
	}
	s.simpleKeyAllowed = false
	start := s.mark

	var handle, suffix string
	switch {
	case s.at(1) == '<':
		s.advance(2)
		var uri []byte
		for s.at(0) != '>' {
			if s.isZ(0) || s.isBlankZ(0) {
				return &ScanError{Kind: ErrBadTag, At: s.mark, Msg: "did not find expected '>'"}
			}
			uri = append(uri, s.at(0))
			s.advance(1)
		}
		s.advance(1)
		suffix = string(uri)
	case s.at(1) == '!' || s.at(1) == 0 || s.isBlankZ(1):
		// Either the secondary handle "!!" and its suffix, or a lone
		// "!" followed by a blank (empty suffix).
		s.advance(1)
		handle = "!"
		if s.at(0) == '!' {
			handle = "!!"
			s.advance(1)
		}
		var sb []byte
		for !s.isTagSuffixEnd() {
			sb = append(sb, s.at(0))
			s.advance(1)
		}
		suffix = string(sb)
	default:
		// A named handle, "!foo!suffix".
		s.advance(1)
		var hb []byte
		for isAlpha(s.at(0)) {
			hb = append(hb, s.at(0))
			s.advance(1)
		}
		var sb []byte
		if s.at(0) == '!' {
			s.advance(1)
			handle = "!" + string(hb) + "!"
		} else {
			// No closing '!': a local tag "!foo", i.e. the primary
			// handle "!" with hb as the start of its suffix.
			handle = "!"
			sb = hb
		}
		for !s.isTagSuffixEnd() {
			sb = append(sb, s.at(0))
			s.advance(1)
		}
		suffix = string(sb)
	}
	s.appendToken(token.Token{Kind: token.Tag, Start: start, End: s.mark, Handle: handle, Suffix: suffix})
	return nil
}

func (s *Scanner) fetchDirective() error {
	s.unrollIndent(-1)
	s.removeSimpleKey()
	s.simpleKeyAllowed = false
	start := s.mark
	s.advance(1)

	var name []byte
	for isAlpha(s.at(0)) {
		name = append(name, s.at(0))
		s.advance(1)
	}

	switch string(name) {
	case "YAML":
		return s.fetchVersionDirective(start)
	case "TAG":
		return s.fetchTagDirective(start)
	default:
		for !s.isBreak(0) && !s.isZ(0) {
			s.advanceRune()
		}
		return &ScanError{Kind: ErrBadDirective, At: start, Msg: fmt.Sprintf("found unknown directive name %q", string(name))}
	}
}

func (s *Scanner) fetchVersionDirective(start position.Position) error {
	s.skipBlanks()
	major, err := s.scanDirectiveNumber()
	if err != nil {
		return err
	}
	if s.at(0) != '.' {
		return &ScanError{Kind: ErrBadDirective, At: s.mark, Msg: "did not find expected digit"}
	}
	s.advance(1)
	minor, err := s.scanDirectiveNumber()
	if err != nil {
		return err
	}
	s.appendToken(token.Token{
		Kind:   token.VersionDirective,
		Start:  start,
		End:    s.mark,
		Params: []string{strconv.Itoa(major), strconv.Itoa(minor)},
	})
	return nil
}

func (s *Scanner) fetchTagDirective(start position.Position) error {
	s.skipBlanks()
	handle, err := s.scanTagHandle()
	if err != nil {
		return err
	}
	s.skipBlanks()
	prefix, err := s.scanTagPrefix()
	if err != nil {
		return err
	}
	s.appendToken(token.Token{
		Kind:   token.TagDirective,
		Start:  start,
		End:    s.mark,
		Params: []string{handle, prefix},
	})
	return nil
}

func (s *Scanner) skipBlanks() {
	for s.at(0) == ' ' || s.at(0) == '\t' {
		s.advance(1)
	}
}

func (s *Scanner) scanDirectiveNumber() (int, error) {
	start := s.pos
	for isDigit(s.at(0)) {
		s.advance(1)
	}
	if s.pos == start {
		return 0, &ScanError{Kind: ErrBadDirective, At: s.mark, Msg: "did not find expected digit"}
	}
	n, err := strconv.Atoi(string(s.buf[start:s.pos]))
	if err != nil {
		return 0, &ScanError{Kind: ErrBadDirective, At: s.mark, Msg: "directive number out of range"}
	}
	return n, nil
}

func (s *Scanner) scanTagHandle() (string, error) {
	if s.at(0) != '!' {
		return "", &ScanError{Kind: ErrBadTag, At: s.mark, Msg: "did not find expected '!'"}
	}
	hb := []byte{'!'}
	s.advance(1)
	for isAlpha(s.at(0)) {
		hb = append(hb, s.at(0))
		s.advance(1)
	}
	if s.at(0) == '!' {
		hb = append(hb, '!')
		s.advance(1)
	}
	return string(hb), nil
}

func (s *Scanner) scanTagPrefix() (string, error) {
	var sb []byte
	for !s.isBlankZ(0) {
		sb = append(sb, s.at(0))
		s.advance(1)
	}
	if len(sb) == 0 {
		return "", &ScanError{Kind: ErrBadTag, At: s.mark, Msg: "did not find expected tag prefix"}
	}
	return string(sb), nil
}
