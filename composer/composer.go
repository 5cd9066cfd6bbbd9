// Package composer consumes an Event stream into a Value tree,
// resolving anchors and aliases, expanding merge keys, and coercing
// explicit tags.
//
// Anchor/alias bookkeeping uses a depth counter and a "currently
// being composed" guard against self-referential aliases
// (anchors plus underConstruction below). Merge-key expansion
// (explicit keys win, first merge source wins) is applyMerge. Rather
// than a single fixed alias-expansion-ratio heuristic, pathological
// documents are bounded by the explicit value.Limits counters.
package composer

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/willabides/corevalyaml/event"
	"github.com/willabides/corevalyaml/position"
	"github.com/willabides/corevalyaml/resolver"
	"github.com/willabides/corevalyaml/token"
	"github.com/willabides/corevalyaml/value"
)

// EventSource is anything that can feed the Composer events; satisfied
// by *parser.Parser without an import cycle.
type EventSource interface {
	NextEvent() (event.Event, error)
}

// ErrorKind classifies a ComposeError.
type ErrorKind int

const (
	ErrUndefinedAlias ErrorKind = iota
	ErrCyclicAlias
	ErrTagMismatch
	ErrBadMergeValue
	ErrBadBinary
	ErrDuplicateKey
)

// ComposeError reports a semantic failure while building the Value
// tree (as opposed to a lexical or grammatical one).
type ComposeError struct {
	Kind ErrorKind
	At   position.Position
	Msg  string
}

func (e *ComposeError) Error() string {
	return fmt.Sprintf("yaml: compose error: %s at %s", e.Msg, e.At)
}

// LimitExceeded reports that composing the current document would
// cross one of the configured value.Limits.
type LimitExceeded struct {
	Limit string
	At    position.Position
}

func (e *LimitExceeded) Error() string {
	return fmt.Sprintf("yaml: limit exceeded: %s at %s", e.Limit, e.At)
}

// MergeKeyPolicy controls how a mapping's "<<" keys are handled.
type MergeKeyPolicy int

const (
	// MergeKeysEnabled expands "<<" entries per the merge-key
	// convention: explicit keys win over merged ones, and of several
	// merge sources (a sequence of mappings under a single "<<"), an
	// earlier source's keys win over a later source's.
	MergeKeysEnabled MergeKeyPolicy = iota
	// MergeKeysDisabled treats "<<" as an ordinary string key.
	MergeKeysDisabled
)

// Config bundles the Composer's tunables.
type Config struct {
	Limits   value.Limits
	Schema   resolver.Schema
	MergeKey MergeKeyPolicy
}

// DefaultConfig returns the Composer's default tunables: the default
// resource limits, Core schema resolution, merge keys enabled.
func DefaultConfig() Config {
	return Config{Limits: value.Default(), Schema: resolver.Core, MergeKey: MergeKeysEnabled}
}

// Composer builds a Value tree from an Event stream.
type Composer struct {
	src EventSource
	cfg Config

	anchors          map[string]value.Value
	underConstruction map[string]bool
	anchorCount      int
	aliasCount       int
	nodeCount        int
}

// New returns a Composer reading events from src.
func New(src EventSource, cfg Config) *Composer {
	return &Composer{
		src:               src,
		cfg:               cfg,
		anchors:           map[string]value.Value{},
		underConstruction: map[string]bool{},
	}
}

// ComposeDocument composes the next document in the stream. ok is
// false once the stream is exhausted (StreamEnd reached with no
// further DocumentStart).
func (c *Composer) ComposeDocument() (v value.Value, ok bool, err error) {
	ev, err := c.src.NextEvent()
	if err != nil {
		return value.Value{}, false, err
	}
	for ev.Kind == event.StreamStart {
		ev, err = c.src.NextEvent()
		if err != nil {
			return value.Value{}, false, err
		}
	}
	if ev.Kind == event.StreamEnd {
		return value.Value{}, false, nil
	}
	if ev.Kind != event.DocumentStart {
		return value.Value{}, false, &ComposeError{Kind: ErrTagMismatch, At: ev.Start, Msg: "expected document start"}
	}

	c.anchors = map[string]value.Value{}
	c.underConstruction = map[string]bool{}
	c.anchorCount = 0
	c.aliasCount = 0
	c.nodeCount = 0

	root, err := c.composeNode(0)
	if err != nil {
		return value.Value{}, false, err
	}

	ev, err = c.src.NextEvent()
	if err != nil {
		return value.Value{}, false, err
	}
	if ev.Kind != event.DocumentEnd {
		return value.Value{}, false, &ComposeError{Kind: ErrTagMismatch, At: ev.Start, Msg: "expected document end"}
	}
	return root, true, nil
}

func (c *Composer) checkDepth(depth int, at position.Position) error {
	if c.cfg.Limits.MaxDepth >= 0 && depth > c.cfg.Limits.MaxDepth {
		return &LimitExceeded{Limit: "max_depth", At: at}
	}
	return nil
}

func (c *Composer) countNode(at position.Position) error {
	c.nodeCount++
	if c.cfg.Limits.MaxDocumentSize >= 0 && c.nodeCount > c.cfg.Limits.MaxDocumentSize {
		return &LimitExceeded{Limit: "max_document_size", At: at}
	}
	return nil
}

func (c *Composer) composeNode(depth int) (value.Value, error) {
	ev, err := c.src.NextEvent()
	if err != nil {
		return value.Value{}, err
	}
	return c.composeNodeFrom(ev, depth)
}

func (c *Composer) registerAnchor(anchor string, at position.Position) error {
	if anchor == "" {
		return nil
	}
	c.anchorCount++
	if c.cfg.Limits.MaxAnchors >= 0 && c.anchorCount > c.cfg.Limits.MaxAnchors {
		return &LimitExceeded{Limit: "max_anchors", At: at}
	}
	return nil
}

func (c *Composer) composeScalar(ev event.Event) (value.Value, error) {
	if err := c.registerAnchor(ev.Anchor, ev.Start); err != nil {
		return value.Value{}, err
	}
	if c.cfg.Limits.MaxStringLength >= 0 && len(ev.Value) > c.cfg.Limits.MaxStringLength {
		return value.Value{}, &LimitExceeded{Limit: "max_string_length", At: ev.Start}
	}

	tag := ev.Tag
	if tag == "" {
		if ev.PlainImplicit {
			tag = resolver.Resolve(c.cfg.Schema, ev.Value)
		} else {
			tag = token.StrTag
		}
	}

	v, err := scalarValue(tag, ev.Value, c.cfg.Schema, ev.Start)
	if err != nil {
		return value.Value{}, err
	}
	v.Anchor = ev.Anchor
	if ev.Anchor != "" {
		c.anchors[ev.Anchor] = v
	}
	return v, nil
}

func scalarValue(tag, text string, schema resolver.Schema, at position.Position) (value.Value, error) {
	switch tag {
	case token.NullTag:
		return value.Value{Kind: value.Null, Tag: tag}, nil
	case token.BoolTag:
		b, ok := resolver.BoolValue(schema, text)
		if !ok {
			return value.Value{}, &ComposeError{Kind: ErrTagMismatch, At: at, Msg: fmt.Sprintf("cannot resolve %q as bool", text)}
		}
		return value.Value{Kind: value.Bool, Tag: tag, Bool: b}, nil
	case token.IntTag:
		i, ok := resolver.ParseInt(text)
		if !ok {
			f, ok2 := resolver.ParseFloat(text)
			if !ok2 {
				return value.Value{}, &ComposeError{Kind: ErrTagMismatch, At: at, Msg: fmt.Sprintf("cannot resolve %q as int", text)}
			}
			return value.Value{Kind: value.Float, Tag: token.FloatTag, Float: f}, nil
		}
		return value.Value{Kind: value.Int, Tag: tag, Int: i}, nil
	case token.FloatTag:
		f, ok := resolver.ParseFloat(text)
		if !ok {
			return value.Value{}, &ComposeError{Kind: ErrTagMismatch, At: at, Msg: fmt.Sprintf("cannot resolve %q as float", text)}
		}
		return value.Value{Kind: value.Float, Tag: tag, Float: f}, nil
	case token.BinaryTag:
		raw, err := base64.StdEncoding.DecodeString(strings.Join(strings.Fields(text), ""))
		if err != nil {
			return value.Value{}, &ComposeError{Kind: ErrBadBinary, At: at, Msg: "invalid base64 in !!binary scalar"}
		}
		return value.Value{Kind: value.String, Tag: tag, String: string(raw)}, nil
	default:
		return value.Value{Kind: value.String, Tag: token.StrTag, String: text}, nil
	}
}

func (c *Composer) composeSequence(ev event.Event, depth int) (value.Value, error) {
	if err := c.registerAnchor(ev.Anchor, ev.Start); err != nil {
		return value.Value{}, err
	}
	tag := ev.Tag
	if tag == "" {
		tag = token.SeqTag
	}
	if tag != token.SeqTag {
		return value.Value{}, &ComposeError{Kind: ErrTagMismatch, At: ev.Start, Msg: fmt.Sprintf("tag %q is not a sequence tag", tag)}
	}

	seq := value.Value{Kind: value.Sequence, Tag: tag, Anchor: ev.Anchor}
	if ev.Anchor != "" {
		c.underConstruction[ev.Anchor] = true
		defer delete(c.underConstruction, ev.Anchor)
	}
	for {
		ev2, err := c.src.NextEvent()
		if err != nil {
			return value.Value{}, err
		}
		if ev2.Kind == event.SequenceEnd {
			break
		}
		item, err := c.composeNodeFrom(ev2, depth+1)
		if err != nil {
			return value.Value{}, err
		}
		if c.cfg.Limits.MaxCollectionSize >= 0 && len(seq.Sequence)+1 > c.cfg.Limits.MaxCollectionSize {
			return value.Value{}, &LimitExceeded{Limit: "max_collection_size", At: ev2.Start}
		}
		seq.Sequence = append(seq.Sequence, item)
	}
	if ev.Anchor != "" {
		c.anchors[ev.Anchor] = seq
	}
	return seq, nil
}

// composeNodeFrom composes a node given an event already read off the
// stream (used by composeSequence/composeMapping, which must peek one
// event to check for SequenceEnd/MappingEnd/Key before they know
// whether a nested call is needed).
func (c *Composer) composeNodeFrom(ev event.Event, depth int) (value.Value, error) {
	if err := c.checkDepth(depth, ev.Start); err != nil {
		return value.Value{}, err
	}
	if err := c.countNode(ev.Start); err != nil {
		return value.Value{}, err
	}
	switch ev.Kind {
	case event.Alias:
		c.aliasCount++
		if c.cfg.Limits.MaxAliases >= 0 && c.aliasCount > c.cfg.Limits.MaxAliases {
			return value.Value{}, &LimitExceeded{Limit: "max_aliases", At: ev.Start}
		}
		if c.underConstruction[ev.Anchor] {
			return value.Value{}, &ComposeError{Kind: ErrCyclicAlias, At: ev.Start, Msg: fmt.Sprintf("cyclic alias to %q", ev.Anchor)}
		}
		v, ok := c.anchors[ev.Anchor]
		if !ok {
			return value.Value{}, &ComposeError{Kind: ErrUndefinedAlias, At: ev.Start, Msg: fmt.Sprintf("unknown anchor %q", ev.Anchor)}
		}
		return v, nil
	case event.Scalar:
		return c.composeScalar(ev)
	case event.SequenceStart:
		return c.composeSequence(ev, depth)
	case event.MappingStart:
		return c.composeMapping(ev, depth)
	}
	return value.Value{}, &ComposeError{Kind: ErrTagMismatch, At: ev.Start, Msg: "expected a node"}
}

func (c *Composer) composeMapping(ev event.Event, depth int) (value.Value, error) {
	if err := c.registerAnchor(ev.Anchor, ev.Start); err != nil {
		return value.Value{}, err
	}
	tag := ev.Tag
	if tag == "" {
		tag = token.MapTag
	}
	if tag != token.MapTag {
		return value.Value{}, &ComposeError{Kind: ErrTagMismatch, At: ev.Start, Msg: fmt.Sprintf("tag %q is not a mapping tag", tag)}
	}

	m := value.NewMapping()
	mv := value.Value{Kind: value.MappingKind, Tag: tag, Mapping: m, Anchor: ev.Anchor}
	if ev.Anchor != "" {
		c.underConstruction[ev.Anchor] = true
		defer delete(c.underConstruction, ev.Anchor)
	}

	// explicit tracks which keys were set by a plain key: value entry
	// (as opposed to merge expansion), so a later explicit key can
	// silently override an earlier merge-supplied one while two
	// explicit entries for the same key are still a DuplicateKey
	// error.
	explicit := value.NewMapping()

	for {
		keyEv, err := c.src.NextEvent()
		if err != nil {
			return value.Value{}, err
		}
		if keyEv.Kind == event.MappingEnd {
			break
		}
		key, err := c.composeNodeFrom(keyEv, depth+1)
		if err != nil {
			return value.Value{}, err
		}
		valEv, err := c.src.NextEvent()
		if err != nil {
			return value.Value{}, err
		}
		val, err := c.composeNodeFrom(valEv, depth+1)
		if err != nil {
			return value.Value{}, err
		}

		if c.cfg.MergeKey == MergeKeysEnabled && key.Kind == value.String && key.String == "<<" {
			if err := c.applyMerge(m, val, keyEv.Start); err != nil {
				return value.Value{}, err
			}
			continue
		}

		if explicit.Has(key) {
			return value.Value{}, &ComposeError{Kind: ErrDuplicateKey, At: keyEv.Start, Msg: "duplicate mapping key"}
		}
		if c.cfg.Limits.MaxCollectionSize >= 0 && !m.Has(key) && m.Len() >= c.cfg.Limits.MaxCollectionSize {
			return value.Value{}, &LimitExceeded{Limit: "max_collection_size", At: keyEv.Start}
		}
		explicit.Set(key, value.Value{Kind: value.Null})
		m.Set(key, val)
	}
	if ev.Anchor != "" {
		c.anchors[ev.Anchor] = mv
	}
	return mv, nil
}

// applyMerge expands a "<<" value per the merge-key convention. val
// may be a single mapping, or a sequence of mappings (each one a
// separate merge source); explicit keys already in m, and keys from
// earlier sources in a sequence, take priority over later ones.
func (c *Composer) applyMerge(m *value.Mapping, val value.Value, at position.Position) error {
	switch val.Kind {
	case value.MappingKind:
		for _, p := range val.Mapping.Pairs {
			if !m.Has(p.Key) {
				m.Set(p.Key, p.Value)
			}
		}
		return nil
	case value.Sequence:
		for _, item := range val.Sequence {
			if item.Kind != value.MappingKind {
				return &ComposeError{Kind: ErrBadMergeValue, At: at, Msg: "merge key sequence entries must be mappings"}
			}
			for _, p := range item.Mapping.Pairs {
				if !m.Has(p.Key) {
					m.Set(p.Key, p.Value)
				}
			}
		}
		return nil
	default:
		return &ComposeError{Kind: ErrBadMergeValue, At: at, Msg: "merge key value must be a mapping or sequence of mappings"}
	}
}
