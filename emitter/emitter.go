// Package emitter is the inverse of Scanner+Parser+Composer: it walks
// a Value tree directly into bytes (block or flow style, with
// directives and multi-document stream separators) rather than
// reflecting an arbitrary Go value into a node tree first.
//
// Scalar style selection follows libyaml's analyzeScalar
// (plain/single-quoted/block-eligibility flags, driven by
// leading/trailing space, special characters, and flow/block
// indicator characters) plus a re-resolution check: a plain-looking
// string is force-quoted if it would resolve back to a tag other than
// str. That check is writeScalar's core decision, working directly
// off a Value instead of a reflect.Value.
package emitter

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/willabides/corevalyaml/resolver"
	"github.com/willabides/corevalyaml/token"
	"github.com/willabides/corevalyaml/value"
)

// ErrorKind classifies an EmitError.
type ErrorKind int

const (
	ErrUnsupportedValue ErrorKind = iota
	ErrIO
)

// EmitError reports a failure while writing a document.
type EmitError struct {
	Kind ErrorKind
	Msg  string
}

func (e *EmitError) Error() string { return fmt.Sprintf("yaml: emit error: %s", e.Msg) }

// Config bundles the Emitter's tunables.
type Config struct {
	// Indent is the number of spaces used per block nesting level.
	// Zero selects the default of 2.
	Indent int
	// LineWidth is stored on the Emitter (zero selects 80) but is not
	// consulted when writing: scalars are never wrapped.
	LineWidth int
	// ExplicitDocumentMarkers always emits "---" even for a single
	// implicit document. It does not emit "..."; ExplicitEnd does.
	ExplicitDocumentMarkers bool
	// ExplicitEnd emits a trailing "..." after every document.
	ExplicitEnd bool
	// DefaultFlowStyle forces every collection to be written in flow
	// style ("[a, b]", "{k: v}") instead of the block-style default.
	DefaultFlowStyle bool
	// YAMLVersion, if non-nil, emits a "%YAML major.minor" directive
	// before the document (which forces an explicit "---").
	YAMLVersion *Version
	// TagDirectives emits one "%TAG handle prefix" line per entry
	// before the document (which forces an explicit "---").
	TagDirectives []token.Directive
	// CanonicalTags is accepted but not consulted when writing: no
	// scalar is written with an explicit tag, whatever its value.
	CanonicalTags bool
	Schema        resolver.Schema
}

// Version is a %YAML directive's major.minor pair.
type Version struct {
	Major int
	Minor int
}

// DefaultConfig returns the Emitter's default tunables.
func DefaultConfig() Config {
	return Config{Indent: 2, LineWidth: 80, Schema: resolver.Core}
}

// Emitter writes Value trees to an io.Writer-like byte buffer.
type Emitter struct {
	cfg Config
	buf bytes.Buffer

	column int
	indent int
}

// New returns an Emitter configured by cfg.
func New(cfg Config) *Emitter {
	if cfg.Indent <= 0 {
		cfg.Indent = 2
	}
	if cfg.LineWidth == 0 {
		cfg.LineWidth = 80
	}
	return &Emitter{cfg: cfg}
}

// EmitDocument appends one document (with a leading "---" if explicit
// is true, or if a previous document was written to this Emitter) to
// the output.
func (e *Emitter) EmitDocument(v value.Value, explicit bool) error {
	if e.cfg.ExplicitDocumentMarkers {
		explicit = true
	}
	hasDirectives := e.cfg.YAMLVersion != nil || len(e.cfg.TagDirectives) > 0
	if hasDirectives {
		if e.cfg.YAMLVersion != nil {
			e.writeLine(fmt.Sprintf("%%YAML %d.%d", e.cfg.YAMLVersion.Major, e.cfg.YAMLVersion.Minor))
		}
		for _, td := range e.cfg.TagDirectives {
			e.writeLine(fmt.Sprintf("%%TAG %s %s", td.Handle, td.Prefix))
		}
		explicit = true
	}
	if e.buf.Len() > 0 || explicit {
		e.writeLine("---")
	}
	if err := e.writeNode(v, 0); err != nil {
		return err
	}
	if e.column != 0 {
		e.buf.WriteByte('\n')
		e.column = 0
	}
	if e.cfg.ExplicitEnd {
		e.writeLine("...")
	}
	return nil
}

// Bytes returns the accumulated output.
func (e *Emitter) Bytes() []byte { return e.buf.Bytes() }

func (e *Emitter) writeLine(s string) {
	if e.column != 0 {
		e.buf.WriteByte('\n')
		e.column = 0
	}
	e.buf.WriteString(s)
	e.buf.WriteByte('\n')
}

func (e *Emitter) writeRaw(s string) {
	e.buf.WriteString(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		e.column = len(s) - i - 1
	} else {
		e.column += len(s)
	}
}

func (e *Emitter) writeIndent(level int) {
	if e.column != 0 {
		e.buf.WriteByte('\n')
		e.column = 0
	}
	n := level * e.cfg.Indent
	e.buf.WriteString(strings.Repeat(" ", n))
	e.column = n
}

func (e *Emitter) writeNode(v value.Value, level int) error {
	switch v.Kind {
	case value.Null, value.Bool, value.Int, value.Float, value.String:
		e.writeScalar(v)
		return nil
	case value.Sequence:
		return e.writeSequence(v, level)
	case value.MappingKind:
		return e.writeMapping(v, level)
	}
	return &EmitError{Kind: ErrUnsupportedValue, Msg: fmt.Sprintf("value has invalid kind %v", v.Kind)}
}

func (e *Emitter) writeSequence(v value.Value, level int) error {
	if len(v.Sequence) == 0 {
		e.writeRaw("[]")
		return nil
	}
	if e.cfg.DefaultFlowStyle {
		return e.writeFlowSequence(v)
	}
	for _, item := range v.Sequence {
		e.writeIndent(level)
		e.writeRaw("- ")
		if err := e.writeNode(item, level+1); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) writeFlowSequence(v value.Value) error {
	e.writeRaw("[")
	for i, item := range v.Sequence {
		if i > 0 {
			e.writeRaw(", ")
		}
		if err := e.writeNode(item, 0); err != nil {
			return err
		}
	}
	e.writeRaw("]")
	return nil
}

func (e *Emitter) writeMapping(v value.Value, level int) error {
	if v.Mapping.Len() == 0 {
		e.writeRaw("{}")
		return nil
	}
	if e.cfg.DefaultFlowStyle {
		return e.writeFlowMapping(v)
	}
	for _, p := range v.Mapping.Pairs {
		e.writeIndent(level)
		if err := e.writeNode(p.Key, level); err != nil {
			return err
		}
		e.writeRaw(":")
		if p.Value.Kind == value.Sequence && len(p.Value.Sequence) > 0 && !e.cfg.DefaultFlowStyle {
			// Block sequences start on the next line, one indent
			// level under the key.
			e.buf.WriteByte('\n')
			e.column = 0
			if err := e.writeSequence(p.Value, level+1); err != nil {
				return err
			}
			continue
		}
		e.writeRaw(" ")
		if err := e.writeNode(p.Value, level+1); err != nil {
			return err
		}
	}
	return nil
}

func (e *Emitter) writeFlowMapping(v value.Value) error {
	e.writeRaw("{")
	for i, p := range v.Mapping.Pairs {
		if i > 0 {
			e.writeRaw(", ")
		}
		if err := e.writeNode(p.Key, 0); err != nil {
			return err
		}
		e.writeRaw(": ")
		if err := e.writeNode(p.Value, 0); err != nil {
			return err
		}
	}
	e.writeRaw("}")
	return nil
}

func (e *Emitter) writeScalar(v value.Value) {
	text, forceQuote := scalarText(v)
	style := e.chooseStyle(v, text, forceQuote)
	switch style {
	case token.SingleQuoted:
		e.writeRaw(singleQuote(text))
	case token.DoubleQuoted:
		e.writeRaw(doubleQuote(text))
	default:
		e.writeRaw(text)
	}
}

// scalarText renders v's value as the plain text it would have if
// written unquoted, and reports whether quoting must be forced
// because that plain text wouldn't round-trip back to v's own tag.
func scalarText(v value.Value) (text string, forceQuote bool) {
	switch v.Kind {
	case value.Null:
		return "null", false
	case value.Bool:
		if v.Bool {
			return "true", false
		}
		return "false", false
	case value.Int:
		return strconv.FormatInt(v.Int, 10), false
	case value.Float:
		return formatFloat(v.Float), false
	case value.String:
		return v.String, true
	}
	return "", false
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// chooseStyle decides how to write text, following analyzeScalar's
// eligibility rules: plain is allowed only when the text has no
// leading/trailing/only blanks, no line breaks, no document or flow
// indicator at the start, and would resolve back to v's own tag if
// left unquoted.
func (e *Emitter) chooseStyle(v value.Value, text string, forceQuote bool) token.QuoteStyle {
	if v.Kind != value.String {
		return token.Plain
	}
	if !plainEligible(text) {
		return token.DoubleQuoted
	}
	if forceQuote {
		resolved := resolver.Resolve(e.cfg.Schema, text)
		if resolved != token.StrTag {
			return token.SingleQuoted
		}
	}
	return token.Plain
}

func plainEligible(s string) bool {
	if s == "" {
		return false
	}
	if s[0] == ' ' || s[len(s)-1] == ' ' {
		return false
	}
	if strings.HasPrefix(s, "...") {
		return false
	}
	switch s[0] {
	case '-', '?', ':', ',', '[', ']', '{', '}', '#', '&', '*', '!', '|', '>', '\'', '"', '%', '@', '`':
		return false
	}
	for _, r := range s {
		if r == '\n' || r == '\t' || unicode.IsControl(r) {
			return false
		}
	}
	if strings.Contains(s, ": ") || strings.HasSuffix(s, ":") || strings.Contains(s, " #") {
		return false
	}
	return true
}

func singleQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func doubleQuote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if unicode.IsControl(r) {
				fmt.Fprintf(&b, `\x%02x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}
