// Package token defines the Scanner's output vocabulary: the Token
// tagged variant and its associated scalar quote styles, the %TAG
// Directive type with the two default handles, and the well-known
// YAML 1.2 Core schema tag URIs.
//
// The shape follows libyaml's yaml_token_t, generalized from a fixed
// struct of every possible field to a Kind-tagged struct with a
// narrower, named-by-purpose field set.
package token

import "github.com/willabides/corevalyaml/position"

// Kind identifies which variant of Token this value holds.
type Kind int

const (
	Invalid Kind = iota
	StreamStart
	StreamEnd
	DocumentStart
	DocumentEnd
	BlockSequenceStart
	BlockMappingStart
	BlockEnd
	FlowSequenceStart
	FlowSequenceEnd
	FlowMappingStart
	FlowMappingEnd
	BlockEntry
	FlowEntry
	Key
	Value
	Scalar
	Anchor
	Alias
	Tag
	VersionDirective
	TagDirective
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
	case BlockSequenceStart:
		return "BlockSequenceStart"
	case BlockMappingStart:
		return "BlockMappingStart"
	case BlockEnd:
		return "BlockEnd"
	case FlowSequenceStart:
		return "FlowSequenceStart"
	case FlowSequenceEnd:
		return "FlowSequenceEnd"
	case FlowMappingStart:
		return "FlowMappingStart"
	case FlowMappingEnd:
		return "FlowMappingEnd"
	case BlockEntry:
		return "BlockEntry"
	case FlowEntry:
		return "FlowEntry"
	case Key:
		return "Key"
	case Value:
		return "Value"
	case Scalar:
		return "Scalar"
	case Anchor:
		return "Anchor"
	case Alias:
		return "Alias"
	case Tag:
		return "Tag"
	case VersionDirective:
		return "VersionDirective"
	case TagDirective:
		return "TagDirective"
	}
	return "Invalid"
}

// QuoteStyle distinguishes the lexical form a scalar was written in.
type QuoteStyle int

const (
	Plain QuoteStyle = iota
	SingleQuoted
	DoubleQuoted
	Literal
	Folded
)

func (s QuoteStyle) String() string {
	switch s {
	case SingleQuoted:
		return "SingleQuoted"
	case DoubleQuoted:
		return "DoubleQuoted"
	case Literal:
		return "Literal"
	case Folded:
		return "Folded"
	}
	return "Plain"
}

// Token is a single lexical unit produced by the Scanner.
type Token struct {
	Kind  Kind
	Start position.Position
	End   position.Position

	// Text carries the Scalar value or the Anchor/Alias name.
	// Directive tokens leave it empty and use Params.
	Text string

	// Style holds the scalar quote style (Kind == Scalar).
	Style QuoteStyle

	// Handle/Suffix hold a Tag token's two halves ("!!", "str").
	Handle string
	Suffix string

	// Params holds a directive token's parameters: for
	// VersionDirective, len==2 ("1", "2"); for TagDirective, len==2
	// (handle, prefix).
	Params []string
}

// Directive is a %TAG handle -> prefix mapping, active from the
// DocumentStart it precedes until the following DocumentEnd.
type Directive struct {
	Handle string
	Prefix string
}

// DefaultDirectives are the two implicit handles every document
// starts with, per the YAML 1.2 spec.
func DefaultDirectives() []Directive {
	return []Directive{
		{Handle: "!", Prefix: "!"},
		{Handle: "!!", Prefix: "tag:yaml.org,2002:"},
	}
}

// Well-known YAML 1.2 Core schema tags.
const (
	NullTag   = "tag:yaml.org,2002:null"
	BoolTag   = "tag:yaml.org,2002:bool"
	StrTag    = "tag:yaml.org,2002:str"
	IntTag    = "tag:yaml.org,2002:int"
	FloatTag  = "tag:yaml.org,2002:float"
	SeqTag    = "tag:yaml.org,2002:seq"
	MapTag    = "tag:yaml.org,2002:map"
	BinaryTag = "tag:yaml.org,2002:binary"
	MergeTag  = "tag:yaml.org,2002:merge"

	DefaultScalarTag   = StrTag
	DefaultSequenceTag = SeqTag
	DefaultMappingTag  = MapTag
)
