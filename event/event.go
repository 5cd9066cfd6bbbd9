// Package event defines the Parser's output vocabulary: the Event
// tagged variant produced by one production step of the grammar.
//
// The shape follows libyaml's yaml_event_t, narrowed from one struct
// holding every field libyaml ever needs to the subset the Composer
// actually consumes. The Emitter does not use events; it walks a
// value.Value directly.
package event

import "github.com/willabides/corevalyaml/position"

// Kind identifies which variant of Event this value holds.
type Kind int

const (
	Invalid Kind = iota
	StreamStart
	StreamEnd
	DocumentStart
	DocumentEnd
	Alias
	Scalar
	SequenceStart
	SequenceEnd
	MappingStart
	MappingEnd
)

func (k Kind) String() string {
	switch k {
	case StreamStart:
		return "StreamStart"
	case StreamEnd:
		return "StreamEnd"
	case DocumentStart:
		return "DocumentStart"
	case DocumentEnd:
		return "DocumentEnd"
	case Alias:
		return "Alias"
	case Scalar:
		return "Scalar"
	case SequenceStart:
		return "SequenceStart"
	case SequenceEnd:
		return "SequenceEnd"
	case MappingStart:
		return "MappingStart"
	case MappingEnd:
		return "MappingEnd"
	}
	return "Invalid"
}

// Style distinguishes the lexical form a node was (or should be)
// written in. For scalars it tracks the quote style; for collections
// it tracks block vs flow.
type Style int

const (
	AnyStyle Style = iota
	PlainStyle
	SingleQuotedStyle
	DoubleQuotedStyle
	LiteralStyle
	FoldedStyle
	BlockStyle
	FlowStyle
)

// Version is a %YAML directive's major.minor pair.
type Version struct {
	Major int
	Minor int
}

// TagDirective is a %TAG handle -> prefix mapping collected by a
// DocumentStart event.
type TagDirective struct {
	Handle string
	Prefix string
}

// Event is a single step of the grammar, produced by the Parser and
// consumed by the Composer.
type Event struct {
	Kind  Kind
	Start position.Position
	End   position.Position

	// DocumentStart fields.
	VersionDirective *Version
	TagDirectives    []TagDirective
	Implicit         bool // DocumentStart: no "---" seen; DocumentEnd: no "..." seen

	// Node fields (Scalar, SequenceStart, MappingStart, Alias).
	Anchor string
	Tag    string
	Value  string // Scalar only

	// Scalar: whether Tag was inferred rather than explicit, split by
	// whether the scalar was quoted. A quoted scalar's implicit tag
	// can only ever be str, so the Composer treats the two booleans
	// distinctly.
	PlainImplicit bool
	QuotedImplicit bool

	Style Style
}
