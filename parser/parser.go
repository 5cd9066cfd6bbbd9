// Package parser turns a Token stream into an Event stream: a
// grammar-level pass handling tag-handle expansion, anchor/alias
// surfacing, and the block/flow node grammar.
//
// The state machine's shape and state names follow libyaml's
// yaml_parser_state_machine and its PARSE_*_STATE constants, adapted
// here to consume a token.Token stream produced by this module's own
// scanner package instead of libyaml's C event/token structs, and to
// return typed ParseError values instead of a flat error string.
package parser

import (
	"fmt"

	"github.com/willabides/corevalyaml/event"
	"github.com/willabides/corevalyaml/position"
	"github.com/willabides/corevalyaml/token"
)

// TokenSource is anything that can feed the Parser tokens; satisfied
// by *scanner.Scanner without importing it directly, avoiding an
// import cycle and letting tests feed a Parser a canned token list.
type TokenSource interface {
	NextToken() (token.Token, error)
}

// ErrorKind classifies a ParseError.
type ErrorKind int

const (
	ErrUnexpectedToken ErrorKind = iota
	ErrBadAnchor
	ErrBadTagHandle
	ErrBadDirective
	ErrDuplicateAnchor
)

// ParseError reports a grammar failure at a specific token.
type ParseError struct {
	Kind ErrorKind
	At   position.Position
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("yaml: parse error: %s at %s", e.Msg, e.At)
}

type state int

const (
	stateStreamStart state = iota
	stateImplicitDocumentStart
	stateDocumentStart
	stateDocumentContent
	stateDocumentEnd
	stateBlockNode
	stateBlockSequenceFirstEntry
	stateBlockSequenceEntry
	stateBlockMappingFirstKey
	stateBlockMappingKey
	stateBlockMappingValue
	stateFlowNode
	stateFlowSequenceFirstEntry
	stateFlowSequenceEntry
	stateFlowSequenceEntryMappingKey
	stateFlowSequenceEntryMappingValue
	stateFlowSequenceEntryMappingEnd
	stateFlowMappingFirstKey
	stateFlowMappingKey
	stateFlowMappingValue
	stateFlowMappingEmptyValue
	stateEnd
)

// Parser turns a Token stream into an Event stream.
type Parser struct {
	src TokenSource

	cur    token.Token
	curSet bool

	state  state
	states []state

	tags    map[string]string
	anchors map[string]bool

	streamEnded bool
	err         error
}

// New returns a Parser reading tokens from src.
func New(src TokenSource) *Parser {
	return &Parser{src: src, state: stateStreamStart, anchors: map[string]bool{}}
}

func (p *Parser) peek() (token.Token, error) {
	if p.curSet {
		return p.cur, nil
	}
	t, err := p.src.NextToken()
	if err != nil {
		return token.Token{}, err
	}
	p.cur = t
	p.curSet = true
	return t, nil
}

func (p *Parser) skip() {
	p.curSet = false
}

func (p *Parser) push(s state) { p.states = append(p.states, s) }
func (p *Parser) pop() state {
	n := len(p.states) - 1
	s := p.states[n]
	p.states = p.states[:n]
	return s
}

// NextEvent returns the next Event in the grammar, or an error. Once
// an Event with Kind == event.StreamEnd has been returned, subsequent
// calls keep returning it.
func (p *Parser) NextEvent() (event.Event, error) {
	if p.err != nil {
		return event.Event{}, p.err
	}
	ev, err := p.step()
	if err != nil {
		p.err = err
		return event.Event{}, err
	}
	return ev, nil
}

func (p *Parser) step() (event.Event, error) {
	switch p.state {
	case stateStreamStart:
		return p.parseStreamStart()
	case stateImplicitDocumentStart:
		return p.parseDocumentStart(true)
	case stateDocumentStart:
		return p.parseDocumentStart(false)
	case stateDocumentContent:
		return p.parseDocumentContent()
	case stateDocumentEnd:
		return p.parseDocumentEnd()
	case stateBlockNode:
		return p.parseNode(true, false)
	case stateBlockSequenceFirstEntry:
		return p.parseBlockSequenceEntry(true)
	case stateBlockSequenceEntry:
		return p.parseBlockSequenceEntry(false)
	case stateBlockMappingFirstKey:
		return p.parseBlockMappingKey(true)
	case stateBlockMappingKey:
		return p.parseBlockMappingKey(false)
	case stateBlockMappingValue:
		return p.parseBlockMappingValue()
	case stateFlowNode:
		return p.parseNode(false, false)
	case stateFlowSequenceFirstEntry:
		return p.parseFlowSequenceEntry(true)
	case stateFlowSequenceEntry:
		return p.parseFlowSequenceEntry(false)
	case stateFlowSequenceEntryMappingKey:
		return p.parseFlowSequenceEntryMappingKey()
	case stateFlowSequenceEntryMappingValue:
		return p.parseFlowSequenceEntryMappingValue()
	case stateFlowSequenceEntryMappingEnd:
		return p.parseFlowSequenceEntryMappingEnd()
	case stateFlowMappingFirstKey:
		return p.parseFlowMappingKey(true)
	case stateFlowMappingKey:
		return p.parseFlowMappingKey(false)
	case stateFlowMappingValue:
		return p.parseFlowMappingValue(false)
	case stateFlowMappingEmptyValue:
		return p.parseFlowMappingValue(true)
	case stateEnd:
		return event.Event{Kind: event.StreamEnd}, nil
	}
	return event.Event{}, fmt.Errorf("yaml: parser: unreachable state %d", p.state)
}

func (p *Parser) parseStreamStart() (event.Event, error) {
	t, err := p.peek()
	if err != nil {
		return event.Event{}, err
	}
	if t.Kind != token.StreamStart {
		return event.Event{}, &ParseError{Kind: ErrUnexpectedToken, At: t.Start, Msg: "did not find expected <stream-start>"}
	}
	p.skip()
	p.state = stateImplicitDocumentStart
	return event.Event{Kind: event.StreamStart, Start: t.Start, End: t.End}, nil
}

func (p *Parser) parseDocumentStart(implicitOK bool) (event.Event, error) {
	t, err := p.peek()
	if err != nil {
		return event.Event{}, err
	}
	for t.Kind == token.DocumentEnd {
		p.skip()
		t, err = p.peek()
		if err != nil {
			return event.Event{}, err
		}
	}
	if t.Kind == token.StreamEnd {
		p.skip()
		p.state = stateEnd
		return event.Event{Kind: event.StreamEnd, Start: t.Start, End: t.End}, nil
	}

	p.tags = map[string]string{
		"!":  "!",
		"!!": "tag:yaml.org,2002:",
	}
	var version *event.Version
	start := t.Start

	for t.Kind == token.VersionDirective || t.Kind == token.TagDirective {
		if t.Kind == token.VersionDirective {
			if len(t.Params) == 2 {
				var maj, min int
				fmt.Sscanf(t.Params[0], "%d", &maj)
				fmt.Sscanf(t.Params[1], "%d", &min)
				version = &event.Version{Major: maj, Minor: min}
			}
		} else {
			if len(t.Params) == 2 {
				p.tags[t.Params[0]] = t.Params[1]
			}
		}
		p.skip()
		t, err = p.peek()
		if err != nil {
			return event.Event{}, err
		}
	}

	implicit := true
	if t.Kind == token.DocumentStart {
		implicit = false
		p.skip()
		t, err = p.peek()
		if err != nil {
			return event.Event{}, err
		}
	} else if !implicitOK {
		return event.Event{}, &ParseError{Kind: ErrUnexpectedToken, At: t.Start, Msg: "did not find expected <document start>"}
	}

	var tagDirectives []event.TagDirective
	for h, pr := range p.tags {
		if h == "!" && pr == "!" {
			continue
		}
		if h == "!!" && pr == "tag:yaml.org,2002:" {
			continue
		}
		tagDirectives = append(tagDirectives, event.TagDirective{Handle: h, Prefix: pr})
	}

	p.anchors = map[string]bool{}
	p.push(stateDocumentEnd)
	p.state = stateDocumentContent
	return event.Event{
		Kind:             event.DocumentStart,
		Start:            start,
		End:              t.Start,
		VersionDirective: version,
		TagDirectives:    tagDirectives,
		Implicit:         implicit,
	}, nil
}

func (p *Parser) parseDocumentContent() (event.Event, error) {
	t, err := p.peek()
	if err != nil {
		return event.Event{}, err
	}
	switch t.Kind {
	case token.VersionDirective, token.TagDirective, token.DocumentStart, token.DocumentEnd, token.StreamEnd:
		p.state = p.pop()
		return event.Event{Kind: event.Scalar, Start: t.Start, End: t.Start, PlainImplicit: true, QuotedImplicit: false}, nil
	}
	return p.parseNode(true, false)
}

func (p *Parser) parseDocumentEnd() (event.Event, error) {
	t, err := p.peek()
	if err != nil {
		return event.Event{}, err
	}
	implicit := true
	start := t.Start
	if t.Kind == token.DocumentEnd {
		implicit = false
		p.skip()
	}
	p.state = stateImplicitDocumentStart
	return event.Event{Kind: event.DocumentEnd, Start: start, End: start, Implicit: implicit}, nil
}

// expandTag resolves a Tag token's handle/suffix into a full tag URI.
func (p *Parser) expandTag(h token.Token) (string, error) {
	if h.Handle == "" {
		return h.Suffix, nil
	}
	prefix, ok := p.tags[h.Handle]
	if !ok {
		return "", &ParseError{Kind: ErrBadTagHandle, At: h.Start, Msg: fmt.Sprintf("found undefined tag handle %q", h.Handle)}
	}
	return prefix + h.Suffix, nil
}

// parseNode parses a single node: an optional alias, or an optional
// anchor/tag pair followed by a scalar/sequence/mapping, dispatching
// into the block or flow sub-grammar depending on block.
func (p *Parser) parseNode(block, indentlessSeq bool) (event.Event, error) {
	t, err := p.peek()
	if err != nil {
		return event.Event{}, err
	}
	start := t.Start

	if t.Kind == token.Alias {
		p.skip()
		p.state = p.pop()
		return event.Event{Kind: event.Alias, Start: start, End: t.End, Anchor: t.Text}, nil
	}

	var anchor, tag string
	var haveTag bool
	if t.Kind == token.Anchor {
		anchor = t.Text
		p.skip()
		t, err = p.peek()
		if err != nil {
			return event.Event{}, err
		}
		if t.Kind == token.Tag {
			tag, err = p.expandTag(t)
			if err != nil {
				return event.Event{}, err
			}
			haveTag = true
			p.skip()
			t, err = p.peek()
			if err != nil {
				return event.Event{}, err
			}
		}
	} else if t.Kind == token.Tag {
		tag, err = p.expandTag(t)
		if err != nil {
			return event.Event{}, err
		}
		haveTag = true
		p.skip()
		t, err = p.peek()
		if err != nil {
			return event.Event{}, err
		}
		if t.Kind == token.Anchor {
			anchor = t.Text
			p.skip()
			t, err = p.peek()
			if err != nil {
				return event.Event{}, err
			}
		}
	}
	if anchor != "" {
		if p.anchors[anchor] {
			return event.Event{}, &ParseError{Kind: ErrDuplicateAnchor, At: t.Start, Msg: fmt.Sprintf("found duplicate anchor %q; first occurrence", anchor)}
		}
		p.anchors[anchor] = true
	}

	switch t.Kind {
	case token.Scalar:
		p.skip()
		style := event.PlainStyle
		plainImplicit := !haveTag
		quotedImplicit := false
		switch t.Style {
		case token.SingleQuoted:
			style = event.SingleQuotedStyle
		case token.DoubleQuoted:
			style = event.DoubleQuotedStyle
		case token.Literal:
			style = event.LiteralStyle
		case token.Folded:
			style = event.FoldedStyle
		default:
			if !haveTag {
				quotedImplicit = true
			}
		}
		if t.Style != token.Plain && !haveTag {
			quotedImplicit = true
			plainImplicit = false
		}
		p.state = p.pop()
		return event.Event{
			Kind: event.Scalar, Start: start, End: t.End,
			Anchor: anchor, Tag: tag, Value: t.Text, Style: style,
			PlainImplicit: plainImplicit, QuotedImplicit: quotedImplicit,
		}, nil

	case token.FlowSequenceStart:
		p.skip()
		p.state = stateFlowSequenceFirstEntry
		return event.Event{Kind: event.SequenceStart, Start: start, End: t.End, Anchor: anchor, Tag: tag, Style: event.FlowStyle}, nil

	case token.FlowMappingStart:
		p.skip()
		p.state = stateFlowMappingFirstKey
		return event.Event{Kind: event.MappingStart, Start: start, End: t.End, Anchor: anchor, Tag: tag, Style: event.FlowStyle}, nil

	case token.BlockSequenceStart:
		if block {
			p.skip()
			p.state = stateBlockSequenceFirstEntry
			return event.Event{Kind: event.SequenceStart, Start: start, End: t.End, Anchor: anchor, Tag: tag, Style: event.BlockStyle}, nil
		}

	case token.BlockMappingStart:
		if block {
			p.skip()
			p.state = stateBlockMappingFirstKey
			return event.Event{Kind: event.MappingStart, Start: start, End: t.End, Anchor: anchor, Tag: tag, Style: event.BlockStyle}, nil
		}

	case token.BlockEntry:
		if indentlessSeq {
			p.state = stateBlockSequenceEntry
			return event.Event{Kind: event.SequenceStart, Start: start, End: t.End, Anchor: anchor, Tag: tag, Style: event.BlockStyle}, nil
		}
	}

	if anchor != "" || haveTag {
		p.state = p.pop()
		return event.Event{Kind: event.Scalar, Start: start, End: start, Anchor: anchor, Tag: tag, PlainImplicit: !haveTag, QuotedImplicit: haveTag}, nil
	}
	return event.Event{}, &ParseError{Kind: ErrUnexpectedToken, At: t.Start, Msg: "did not find expected node content"}
}

func (p *Parser) parseBlockSequenceEntry(first bool) (event.Event, error) {
	t, err := p.peek()
	if err != nil {
		return event.Event{}, err
	}
	if t.Kind == token.BlockEntry {
		p.skip()
		t, err = p.peek()
		if err != nil {
			return event.Event{}, err
		}
		if t.Kind != token.BlockEntry && t.Kind != token.BlockEnd {
			p.push(stateBlockSequenceEntry)
			return p.parseNode(true, false)
		}
		p.state = stateBlockSequenceEntry
		return event.Event{Kind: event.Scalar, Start: t.Start, End: t.Start, PlainImplicit: true}, nil
	}
	if t.Kind != token.BlockEnd {
		return event.Event{}, &ParseError{Kind: ErrUnexpectedToken, At: t.Start, Msg: "did not find expected '-' indicator"}
	}
	p.skip()
	p.state = p.pop()
	return event.Event{Kind: event.SequenceEnd, Start: t.Start, End: t.End}, nil
}

func (p *Parser) parseBlockMappingKey(first bool) (event.Event, error) {
	t, err := p.peek()
	if err != nil {
		return event.Event{}, err
	}
	if t.Kind == token.Key {
		p.skip()
		t, err = p.peek()
		if err != nil {
			return event.Event{}, err
		}
		if t.Kind != token.Key && t.Kind != token.Value && t.Kind != token.BlockEnd {
			p.push(stateBlockMappingValue)
			return p.parseNode(true, true)
		}
		p.state = stateBlockMappingValue
		return event.Event{Kind: event.Scalar, Start: t.Start, End: t.Start, PlainImplicit: true}, nil
	}
	if t.Kind != token.BlockEnd {
		return event.Event{}, &ParseError{Kind: ErrUnexpectedToken, At: t.Start, Msg: "did not find expected key"}
	}
	p.skip()
	p.state = p.pop()
	return event.Event{Kind: event.MappingEnd, Start: t.Start, End: t.End}, nil
}

func (p *Parser) parseBlockMappingValue() (event.Event, error) {
	t, err := p.peek()
	if err != nil {
		return event.Event{}, err
	}
	if t.Kind == token.Value {
		p.skip()
		t, err = p.peek()
		if err != nil {
			return event.Event{}, err
		}
		if t.Kind != token.Key && t.Kind != token.Value && t.Kind != token.BlockEnd {
			p.push(stateBlockMappingKey)
			return p.parseNode(true, true)
		}
		p.state = stateBlockMappingKey
		return event.Event{Kind: event.Scalar, Start: t.Start, End: t.Start, PlainImplicit: true}, nil
	}
	p.state = stateBlockMappingKey
	return event.Event{Kind: event.Scalar, Start: t.Start, End: t.Start, PlainImplicit: true}, nil
}

func (p *Parser) parseFlowSequenceEntry(first bool) (event.Event, error) {
	if !first {
		t, err := p.peek()
		if err != nil {
			return event.Event{}, err
		}
		if t.Kind == token.FlowEntry {
			p.skip()
		} else if t.Kind != token.FlowSequenceEnd {
			return event.Event{}, &ParseError{Kind: ErrUnexpectedToken, At: t.Start, Msg: "did not find expected ',' or ']'"}
		}
	}
	t, err := p.peek()
	if err != nil {
		return event.Event{}, err
	}
	if t.Kind == token.FlowSequenceEnd {
		p.skip()
		p.state = p.pop()
		return event.Event{Kind: event.SequenceEnd, Start: t.Start, End: t.End}, nil
	}
	if t.Kind == token.Key {
		p.state = stateFlowSequenceEntryMappingKey
		p.skip()
		return event.Event{Kind: event.MappingStart, Start: t.Start, End: t.End, Style: event.FlowStyle}, nil
	}
	p.push(stateFlowSequenceEntry)
	return p.parseNode(false, false)
}

func (p *Parser) parseFlowSequenceEntryMappingKey() (event.Event, error) {
	t, err := p.peek()
	if err != nil {
		return event.Event{}, err
	}
	if t.Kind != token.Value && t.Kind != token.FlowEntry && t.Kind != token.FlowSequenceEnd {
		p.push(stateFlowSequenceEntryMappingValue)
		return p.parseNode(false, false)
	}
	p.state = stateFlowSequenceEntryMappingValue
	return event.Event{Kind: event.Scalar, Start: t.Start, End: t.Start, PlainImplicit: true}, nil
}

func (p *Parser) parseFlowSequenceEntryMappingValue() (event.Event, error) {
	t, err := p.peek()
	if err != nil {
		return event.Event{}, err
	}
	if t.Kind == token.Value {
		p.skip()
		t, err = p.peek()
		if err != nil {
			return event.Event{}, err
		}
		if t.Kind != token.FlowEntry && t.Kind != token.FlowSequenceEnd {
			p.push(stateFlowSequenceEntryMappingEnd)
			return p.parseNode(false, false)
		}
	}
	p.state = stateFlowSequenceEntryMappingEnd
	return event.Event{Kind: event.Scalar, Start: t.Start, End: t.Start, PlainImplicit: true}, nil
}

func (p *Parser) parseFlowSequenceEntryMappingEnd() (event.Event, error) {
	p.state = stateFlowSequenceEntry
	t, err := p.peek()
	if err != nil {
		return event.Event{}, err
	}
	return event.Event{Kind: event.MappingEnd, Start: t.Start, End: t.Start}, nil
}

func (p *Parser) parseFlowMappingKey(first bool) (event.Event, error) {
	if !first {
		t, err := p.peek()
		if err != nil {
			return event.Event{}, err
		}
		if t.Kind == token.FlowEntry {
			p.skip()
		} else if t.Kind != token.FlowMappingEnd {
			return event.Event{}, &ParseError{Kind: ErrUnexpectedToken, At: t.Start, Msg: "did not find expected ',' or '}'"}
		}
	}
	t, err := p.peek()
	if err != nil {
		return event.Event{}, err
	}
	if t.Kind == token.FlowMappingEnd {
		p.skip()
		p.state = p.pop()
		return event.Event{Kind: event.MappingEnd, Start: t.Start, End: t.End}, nil
	}
	if t.Kind == token.Key {
		p.skip()
		t, err = p.peek()
		if err != nil {
			return event.Event{}, err
		}
		if t.Kind != token.Value && t.Kind != token.FlowEntry && t.Kind != token.FlowMappingEnd {
			p.push(stateFlowMappingValue)
			return p.parseNode(false, false)
		}
		p.state = stateFlowMappingValue
		return event.Event{Kind: event.Scalar, Start: t.Start, End: t.Start, PlainImplicit: true}, nil
	}
	// JSON-flavored flow mapping: a bare key with no '?' indicator.
	p.push(stateFlowMappingEmptyValue)
	return p.parseNode(false, false)
}

func (p *Parser) parseFlowMappingValue(empty bool) (event.Event, error) {
	t, err := p.peek()
	if err != nil {
		return event.Event{}, err
	}
	if empty {
		p.state = stateFlowMappingKey
		return event.Event{Kind: event.Scalar, Start: t.Start, End: t.Start, PlainImplicit: true}, nil
	}
	if t.Kind == token.Value {
		p.skip()
		t, err = p.peek()
		if err != nil {
			return event.Event{}, err
		}
		if t.Kind != token.FlowEntry && t.Kind != token.FlowMappingEnd {
			p.push(stateFlowMappingKey)
			return p.parseNode(false, false)
		}
	}
	p.state = stateFlowMappingKey
	return event.Event{Kind: event.Scalar, Start: t.Start, End: t.Start, PlainImplicit: true}, nil
}
