package scanner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willabides/corevalyaml/scanner"
	"github.com/willabides/corevalyaml/token"
)

// tokenize drains every token from data, failing the test on scan
// error and returning the tokens (StreamStart/StreamEnd included) for
// assertion.
func tokenize(t *testing.T, data string) []token.Token {
	t.Helper()
	s := scanner.New([]byte(data))
	var toks []token.Token
	for {
		tok, err := s.NextToken()
		require.NoError(t, err, "scanning %q", data)
		toks = append(toks, tok)
		if tok.Kind == token.StreamEnd {
			return toks
		}
		if len(toks) > 10_000 {
			t.Fatalf("scanner did not terminate on %q", data)
		}
	}
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tk := range toks {
		out[i] = tk.Kind
	}
	return out
}

func TestScanEmpty(t *testing.T) {
	toks := tokenize(t, "")
	assert.Equal(t, []token.Kind{token.StreamStart, token.StreamEnd}, kinds(toks))
}

func TestScanPlainScalar(t *testing.T) {
	toks := tokenize(t, "hello\n")
	assert.Equal(t, []token.Kind{token.StreamStart, token.Scalar, token.StreamEnd}, kinds(toks))
	assert.Equal(t, "hello", toks[1].Text)
	assert.Equal(t, token.Plain, toks[1].Style)
}

func TestScanBlockMapping(t *testing.T) {
	toks := tokenize(t, "a: 1\nb: 2\n")
	got := kinds(toks)
	want := []token.Kind{
		token.StreamStart,
		token.BlockMappingStart,
		token.Key, token.Scalar, token.Value, token.Scalar,
		token.Key, token.Scalar, token.Value, token.Scalar,
		token.BlockEnd,
		token.StreamEnd,
	}
	assert.Equal(t, want, got)
}

func TestScanBlockSequence(t *testing.T) {
	toks := tokenize(t, "- x\n- y\n")
	got := kinds(toks)
	want := []token.Kind{
		token.StreamStart,
		token.BlockSequenceStart,
		token.BlockEntry, token.Scalar,
		token.BlockEntry, token.Scalar,
		token.BlockEnd,
		token.StreamEnd,
	}
	assert.Equal(t, want, got)
}

func TestScanNestedBlockBalancesEnds(t *testing.T) {
	toks := tokenize(t, "a:\n  b:\n    c: 1\n  d: 2\n")
	starts, ends := 0, 0
	for _, tk := range toks {
		switch tk.Kind {
		case token.BlockSequenceStart, token.BlockMappingStart:
			starts++
		case token.BlockEnd:
			ends++
		}
	}
	assert.Equal(t, starts, ends, "every Block{Sequence,Mapping}Start needs exactly one matching BlockEnd")
}

func TestScanFlowCollectionsBalance(t *testing.T) {
	cases := []string{
		"[1, 2, 3]\n",
		"{a: 1, b: 2}\n",
		"[a, {b: 1}, [c, d]]\n",
	}
	for _, in := range cases {
		toks := tokenize(t, in)
		depth := 0
		for _, tk := range toks {
			switch tk.Kind {
			case token.FlowSequenceStart, token.FlowMappingStart:
				depth++
			case token.FlowSequenceEnd, token.FlowMappingEnd:
				depth--
				require.GreaterOrEqual(t, depth, 0, "unbalanced flow bracket in %q", in)
			}
		}
		assert.Equal(t, 0, depth, "flow brackets unbalanced in %q", in)
	}
}

func TestScanFlowSequence(t *testing.T) {
	toks := tokenize(t, "[1, 2, 3]\n")
	got := kinds(toks)
	want := []token.Kind{
		token.StreamStart,
		token.FlowSequenceStart,
		token.Scalar, token.FlowEntry,
		token.Scalar, token.FlowEntry,
		token.Scalar,
		token.FlowSequenceEnd,
		token.StreamEnd,
	}
	assert.Equal(t, want, got)
}

func TestScanSingleQuoted(t *testing.T) {
	toks := tokenize(t, "'it''s fine'\n")
	assert.Equal(t, "it's fine", toks[1].Text)
	assert.Equal(t, token.SingleQuoted, toks[1].Style)
}

func TestScanDoubleQuotedEscapes(t *testing.T) {
	toks := tokenize(t, `"a\nb\tc"` + "\n")
	assert.Equal(t, "a\nb\tc", toks[1].Text)
	assert.Equal(t, token.DoubleQuoted, toks[1].Style)
}

func TestScanDoubleQuotedUnicodeEscape(t *testing.T) {
	toks := tokenize(t, `"\u0041\u00e9"` + "\n")
	assert.Equal(t, "A\u00e9", toks[1].Text)
}

func TestScanAnchorAliasTag(t *testing.T) {
	toks := tokenize(t, "a: &x 1\nb: *x\nc: !!str 2\n")
	var anchorText, aliasText string
	var tagHandle, tagSuffix string
	for _, tk := range toks {
		switch tk.Kind {
		case token.Anchor:
			anchorText = tk.Text
		case token.Alias:
			aliasText = tk.Text
		case token.Tag:
			tagHandle, tagSuffix = tk.Handle, tk.Suffix
		}
	}
	assert.Equal(t, "x", anchorText)
	assert.Equal(t, "x", aliasText)
	assert.Equal(t, "!!", tagHandle)
	assert.Equal(t, "str", tagSuffix)
}

func TestScanLiteralBlockScalar(t *testing.T) {
	toks := tokenize(t, "a: |\n  line one\n  line two\n")
	var scalar token.Token
	for _, tk := range toks {
		if tk.Kind == token.Scalar && tk.Style == token.Literal {
			scalar = tk
		}
	}
	assert.Equal(t, "line one\nline two\n", scalar.Text)
}

func TestScanFoldedBlockScalar(t *testing.T) {
	toks := tokenize(t, "a: >\n  folded\n  text\n")
	var scalar token.Token
	for _, tk := range toks {
		if tk.Kind == token.Scalar && tk.Style == token.Folded {
			scalar = tk
		}
	}
	assert.Equal(t, "folded text\n", scalar.Text)
}

func TestScanBlockScalarChomping(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"clip", "a: |\n  x\n\n\n", "x\n"},
		{"strip", "a: |-\n  x\n\n\n", "x"},
		{"keep", "a: |+\n  x\n\n\nb: 1\n", "x\n\n\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			toks := tokenize(t, c.in)
			var scalar token.Token
			found := false
			for _, tk := range toks {
				if tk.Kind == token.Scalar && tk.Style == token.Literal {
					scalar = tk
					found = true
					break
				}
			}
			require.True(t, found)
			assert.Equal(t, c.want, scalar.Text)
		})
	}
}

func TestScanDocumentMarkers(t *testing.T) {
	toks := tokenize(t, "---\na: 1\n...\n---\nb: 2\n")
	got := kinds(toks)
	assert.Contains(t, got, token.DocumentStart)
	assert.Contains(t, got, token.DocumentEnd)
}

func TestScanDirectives(t *testing.T) {
	toks := tokenize(t, "%YAML 1.2\n%TAG !e! tag:example.com,2000:\n---\na: 1\n")
	var version, tagDir token.Token
	for _, tk := range toks {
		if tk.Kind == token.VersionDirective {
			version = tk
		}
		if tk.Kind == token.TagDirective {
			tagDir = tk
		}
	}
	require.Equal(t, []string{"1", "2"}, version.Params)
	require.Equal(t, []string{"!e!", "tag:example.com,2000:"}, tagDir.Params)
}

func TestScanTabOnlyIndentSucceeds(t *testing.T) {
	toks := tokenize(t, "a:\n\tb: 1\n")
	assert.Contains(t, kinds(toks), token.BlockMappingStart)
	assert.Contains(t, kinds(toks), token.BlockEnd)

	s := scanner.New([]byte("a:\n\tb: 1\n"))
	for {
		tok, err := s.NextToken()
		require.NoError(t, err)
		if tok.Kind == token.StreamEnd {
			break
		}
	}
	style, _ := s.DetectedIndentStyle()
	assert.Equal(t, scanner.IndentTabs, style)
}

func TestScanMixedTabSpaceIndentFails(t *testing.T) {
	s := scanner.New([]byte("a:\n  b: 1\n\tc: 2\n"))
	var err error
	for {
		var tok token.Token
		tok, err = s.NextToken()
		if err != nil || tok.Kind == token.StreamEnd {
			break
		}
	}
	require.Error(t, err)
	var scanErr *scanner.ScanError
	require.ErrorAs(t, err, &scanErr)
	assert.Equal(t, scanner.ErrBadIndent, scanErr.Kind)
}

func TestScanUnterminatedQuoteFails(t *testing.T) {
	s := scanner.New([]byte("a: 'unterminated\n"))
	var err error
	for {
		var tok token.Token
		tok, err = s.NextToken()
		if err != nil || tok.Kind == token.StreamEnd {
			break
		}
	}
	require.Error(t, err)
	var scanErr *scanner.ScanError
	require.ErrorAs(t, err, &scanErr)
	assert.Equal(t, scanner.ErrUnterminated, scanErr.Kind)
}

func TestScanBadUTF8Fails(t *testing.T) {
	s := scanner.New([]byte{0xff, 0xfe, 0x00})
	_, err := s.NextToken()
	require.Error(t, err)
	var scanErr *scanner.ScanError
	require.ErrorAs(t, err, &scanErr)
	assert.Equal(t, scanner.ErrBadUTF8, scanErr.Kind)
}

func TestScanBOMStripped(t *testing.T) {
	toks := tokenize(t, "\uFEFFa: 1\n")
	// BOM is stripped before scanning begins; the first content token
	// starts at column 1 as if it were never there.
	var key token.Token
	for _, tk := range toks {
		if tk.Kind == token.Scalar {
			key = tk
			break
		}
	}
	assert.Equal(t, 1, key.Start.Column)
}

func TestPositionMonotonicity(t *testing.T) {
	inputs := []string{
		"a: 1\nb: [2, 3]\nc:\n  - x\n  - y\n",
		"foo: &b {k: 1}\nref: *b\n",
		"lit: |\n  one\n  two\nfold: >\n  one\n  two\n",
	}
	for _, in := range inputs {
		toks := tokenize(t, in)
		for i := 1; i < len(toks); i++ {
			prevEnd := toks[i-1].End
			curStart := toks[i].Start
			assert.False(t, curStart.Less(prevEnd), "token %d (%v) starts before token %d (%v) ends, in %q", i, toks[i].Kind, i-1, toks[i-1].Kind, in)
		}
	}
}

func TestStreamEndIsSticky(t *testing.T) {
	s := scanner.New([]byte("a: 1\n"))
	var last token.Token
	for {
		tok, err := s.NextToken()
		require.NoError(t, err)
		last = tok
		if tok.Kind == token.StreamEnd {
			break
		}
	}
	again, err := s.NextToken()
	require.NoError(t, err)
	assert.Equal(t, token.StreamEnd, again.Kind)
	assert.Equal(t, last.Kind, again.Kind)
}
