// Package value implements the document tree: the tagged-union node
// type the Composer builds and the Emitter walks, plus the
// insertion-ordered Mapping it's built from and the Limits used to
// bound pathological documents.
//
// Value models sum types as a Kind-tagged struct rather than an
// interface hierarchy; Mapping's slice-plus-index shape mirrors the
// content-slice-of-pairs convention used for building !!map nodes
// before they're turned into Go maps or structs elsewhere.
package value

import (
	"math"
	"strconv"
)

// Kind identifies which variant of Value this value holds.
type Kind int

const (
	Invalid Kind = iota
	Null
	Bool
	Int
	Float
	String
	Sequence
	// MappingKind is named with a suffix (rather than plain "Mapping")
	// to avoid colliding with the Mapping collection type below; the
	// teacher's own Node.Kind constants use the same "Node"-suffixed
	// pattern (MappingNode, SequenceNode) for the same reason.
	MappingKind
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "Null"
	case Bool:
		return "Bool"
	case Int:
		return "Int"
	case Float:
		return "Float"
	case String:
		return "String"
	case Sequence:
		return "Sequence"
	case MappingKind:
		return "Mapping"
	}
	return "Invalid"
}

// Value is one node of a composed document tree.
type Value struct {
	Kind Kind
	Tag  string // resolved or explicit tag URI

	Bool   bool
	Int    int64
	Float  float64
	String string

	Sequence []Value
	Mapping  *Mapping

	// Anchor is the name this node was anchored under, if any; empty
	// otherwise. Not currently consulted by the emitter, which always
	// writes a fully expanded tree rather than re-introducing
	// anchors/aliases for repeated subtrees.
	Anchor string
}

// Pair is one key/value entry of a Mapping, in source order.
type Pair struct {
	Key   Value
	Value Value
}

// Mapping is an insertion-ordered set of key/value pairs. Lookup by
// key is O(1) via index; iteration follows Pairs' order, so mapping
// order is preserved through a compose/emit round trip.
type Mapping struct {
	Pairs []Pair
	index map[string]int
}

// NewMapping returns an empty Mapping ready for Set.
func NewMapping() *Mapping {
	return &Mapping{index: make(map[string]int)}
}

// indexKey produces a lookup key for v. Null, Bool, Int and String
// keys participate in O(1) lookup; Float keys and non-scalar keys
// (sequences/mappings as keys, which YAML permits but which this
// library treats as valid-but-rare) fall back to linear scan in
// Get/Set.
func indexKey(v Value) (string, bool) {
	switch v.Kind {
	case Null:
		return "\x00null", true
	case Bool:
		if v.Bool {
			return "\x00true", true
		}
		return "\x00false", true
	case Int:
		return "\x00i" + strconv.FormatInt(v.Int, 10), true
	case String:
		return "\x00s" + v.String, true
	default:
		return "", false
	}
}

// Get returns the value associated with key and whether it was found.
func (m *Mapping) Get(key Value) (Value, bool) {
	if k, ok := indexKey(key); ok {
		if i, found := m.index[k]; found {
			return m.Pairs[i].Value, true
		}
		return Value{}, false
	}
	for _, p := range m.Pairs {
		if Equal(p.Key, key) {
			return p.Value, true
		}
	}
	return Value{}, false
}

// GetStr is a convenience for the common case of a plain string key.
func (m *Mapping) GetStr(key string) (Value, bool) {
	return m.Get(Value{Kind: String, Tag: "tag:yaml.org,2002:str", String: key})
}

// Set inserts or overwrites the entry for key, returning true if an
// existing entry was overwritten.
func (m *Mapping) Set(key, val Value) (overwrote bool) {
	if k, ok := indexKey(key); ok {
		if i, found := m.index[k]; found {
			m.Pairs[i].Value = val
			return true
		}
		m.index[k] = len(m.Pairs)
		m.Pairs = append(m.Pairs, Pair{Key: key, Value: val})
		return false
	}
	for i, p := range m.Pairs {
		if Equal(p.Key, key) {
			m.Pairs[i].Value = val
			return true
		}
	}
	m.Pairs = append(m.Pairs, Pair{Key: key, Value: val})
	return false
}

// Has reports whether key is already present, via Get. Used by
// merge-key composition to implement "explicit keys always win".
func (m *Mapping) Has(key Value) bool {
	_, ok := m.Get(key)
	return ok
}

// Len returns the number of entries.
func (m *Mapping) Len() int { return len(m.Pairs) }

// Equal reports deep equality between a and b, following spec.md's
// documented Float semantics: NaN is never equal to anything
// (including another NaN), and +0 equals -0.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Null:
		return true
	case Bool:
		return a.Bool == b.Bool
	case Int:
		return a.Int == b.Int
	case Float:
		if math.IsNaN(a.Float) || math.IsNaN(b.Float) {
			return false
		}
		return a.Float == b.Float
	case String:
		return a.String == b.String
	case Sequence:
		if len(a.Sequence) != len(b.Sequence) {
			return false
		}
		for i := range a.Sequence {
			if !Equal(a.Sequence[i], b.Sequence[i]) {
				return false
			}
		}
		return true
	case MappingKind:
		if a.Mapping.Len() != b.Mapping.Len() {
			return false
		}
		for _, p := range a.Mapping.Pairs {
			bv, ok := b.Mapping.Get(p.Key)
			if !ok || !Equal(p.Value, bv) {
				return false
			}
		}
		return true
	}
	return false
}
