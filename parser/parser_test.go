package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willabides/corevalyaml/event"
	"github.com/willabides/corevalyaml/parser"
	"github.com/willabides/corevalyaml/scanner"
	"github.com/willabides/corevalyaml/token"
)

// fakeTokens lets a test feed the Parser a canned token list instead of
// a real Scanner, isolating parser grammar bugs from scanner bugs.
type fakeTokens struct {
	toks []token.Token
	i    int
}

func (f *fakeTokens) NextToken() (token.Token, error) {
	if f.i >= len(f.toks) {
		return f.toks[len(f.toks)-1], nil
	}
	t := f.toks[f.i]
	f.i++
	return t, nil
}

func tok(kind token.Kind) token.Token { return token.Token{Kind: kind} }

// events drains every event from src, failing the test on a parse
// error and returning the events.
func events(t *testing.T, src parser.TokenSource) []event.Event {
	t.Helper()
	p := parser.New(src)
	var evs []event.Event
	for {
		ev, err := p.NextEvent()
		require.NoError(t, err)
		evs = append(evs, ev)
		if ev.Kind == event.StreamEnd {
			return evs
		}
		if len(evs) > 10_000 {
			t.Fatal("parser did not terminate")
		}
	}
}

func evKinds(evs []event.Event) []event.Kind {
	out := make([]event.Kind, len(evs))
	for i, e := range evs {
		out[i] = e.Kind
	}
	return out
}

func scanAll(t *testing.T, data string) *fakeTokens {
	t.Helper()
	s := scanner.New([]byte(data))
	var toks []token.Token
	for {
		tk, err := s.NextToken()
		require.NoError(t, err)
		toks = append(toks, tk)
		if tk.Kind == token.StreamEnd {
			break
		}
	}
	return &fakeTokens{toks: toks}
}

func TestParseEmptyDocument(t *testing.T) {
	evs := events(t, scanAll(t, ""))
	want := []event.Kind{event.StreamStart, event.StreamEnd}
	assert.Equal(t, want, evKinds(evs))
}

func TestParseScalarDocument(t *testing.T) {
	evs := events(t, scanAll(t, "hello\n"))
	want := []event.Kind{
		event.StreamStart, event.DocumentStart, event.Scalar, event.DocumentEnd, event.StreamEnd,
	}
	assert.Equal(t, want, evKinds(evs))
	assert.Equal(t, "hello", evs[2].Value)
}

func TestParseBlockMapping(t *testing.T) {
	evs := events(t, scanAll(t, "a: 1\nb: 2\n"))
	want := []event.Kind{
		event.StreamStart, event.DocumentStart,
		event.MappingStart,
		event.Scalar, event.Scalar,
		event.Scalar, event.Scalar,
		event.MappingEnd,
		event.DocumentEnd, event.StreamEnd,
	}
	assert.Equal(t, want, evKinds(evs))
}

func TestParseBlockSequence(t *testing.T) {
	evs := events(t, scanAll(t, "- x\n- y\n"))
	want := []event.Kind{
		event.StreamStart, event.DocumentStart,
		event.SequenceStart,
		event.Scalar, event.Scalar,
		event.SequenceEnd,
		event.DocumentEnd, event.StreamEnd,
	}
	assert.Equal(t, want, evKinds(evs))
}

func TestParseFlowMapping(t *testing.T) {
	evs := events(t, scanAll(t, "{a: 1, b: 2}\n"))
	var mapStart event.Event
	for _, e := range evs {
		if e.Kind == event.MappingStart {
			mapStart = e
		}
	}
	assert.Equal(t, event.FlowStyle, mapStart.Style)
}

func TestParseJSONFlowCompactMapping(t *testing.T) {
	// A bare key with no explicit value colon is valid JSON-flavored
	// flow-mapping syntax: {a, b} is {a: null, b: null}.
	evs := events(t, scanAll(t, "{a, b}\n"))
	got := evKinds(evs)
	want := []event.Kind{
		event.StreamStart, event.DocumentStart,
		event.MappingStart,
		event.Scalar, event.Scalar,
		event.Scalar, event.Scalar,
		event.MappingEnd,
		event.DocumentEnd, event.StreamEnd,
	}
	assert.Equal(t, want, got)
}

func TestParseAnchorAndAlias(t *testing.T) {
	evs := events(t, scanAll(t, "a: &x 1\nb: *x\n"))
	var anchorEv, aliasEv event.Event
	for _, e := range evs {
		if e.Kind == event.Scalar && e.Anchor == "x" {
			anchorEv = e
		}
		if e.Kind == event.Alias {
			aliasEv = e
		}
	}
	assert.Equal(t, "x", anchorEv.Anchor)
	assert.Equal(t, "x", aliasEv.Anchor)
}

func TestParseDuplicateAnchorErrors(t *testing.T) {
	_, err := drain(scanAll(t, "- &x 1\n- &x 2\n"))
	require.Error(t, err)
	var pe *parser.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, parser.ErrDuplicateAnchor, pe.Kind)
}

func TestParseTagHandleExpansion(t *testing.T) {
	evs := events(t, scanAll(t, "%TAG !e! tag:example.com,2000:\n---\n!e!foo bar\n"))
	var scalar event.Event
	for _, e := range evs {
		if e.Kind == event.Scalar && e.Tag != "" {
			scalar = e
		}
	}
	assert.Equal(t, "tag:example.com,2000:foo", scalar.Tag)
}

func TestParseUnknownTagHandleErrors(t *testing.T) {
	_, err := drain(scanAll(t, "!e!foo bar\n"))
	require.Error(t, err)
	var pe *parser.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, parser.ErrBadTagHandle, pe.Kind)
}

func TestParseVersionDirective(t *testing.T) {
	evs := events(t, scanAll(t, "%YAML 1.2\n---\na: 1\n"))
	require.NotNil(t, evs[1].VersionDirective)
	assert.Equal(t, 1, evs[1].VersionDirective.Major)
	assert.Equal(t, 2, evs[1].VersionDirective.Minor)
}

func TestParseMultiDocument(t *testing.T) {
	evs := events(t, scanAll(t, "---\na: 1\n---\nb: 2\n"))
	count := 0
	for _, e := range evs {
		if e.Kind == event.DocumentStart {
			count++
		}
	}
	assert.Equal(t, 2, count)
}

func TestParseWellNestedness(t *testing.T) {
	evs := events(t, scanAll(t, "a:\n  - 1\n  - {b: [c, d]}\n"))
	depth := 0
	for _, e := range evs {
		switch e.Kind {
		case event.SequenceStart, event.MappingStart:
			depth++
		case event.SequenceEnd, event.MappingEnd:
			depth--
			require.GreaterOrEqual(t, depth, 0, "closed more collections than opened")
		}
	}
	assert.Equal(t, 0, depth)
}

func TestParseMissingStreamStartErrors(t *testing.T) {
	src := &fakeTokens{toks: []token.Token{tok(token.Scalar)}}
	_, err := drain(src)
	require.Error(t, err)
	var pe *parser.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, parser.ErrUnexpectedToken, pe.Kind)
}

// drain runs the parser to completion (or first error) without
// asserting anything, returning the final error encountered.
func drain(src parser.TokenSource) ([]event.Event, error) {
	p := parser.New(src)
	var evs []event.Event
	for {
		ev, err := p.NextEvent()
		if err != nil {
			return evs, err
		}
		evs = append(evs, ev)
		if ev.Kind == event.StreamEnd {
			return evs, nil
		}
		if len(evs) > 10_000 {
			return evs, nil
		}
	}
}
