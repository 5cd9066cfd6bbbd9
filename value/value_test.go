package value_test

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willabides/corevalyaml/value"
)

// valueComparer lets cmp.Diff walk a Value tree using the package's own
// Equal semantics (NaN-never-equal, +0/-0 equivalence, key-order
// independence) instead of reflecting into Mapping's unexported index,
// so a mismatched nested tree still gets a legible diff.
var valueComparer = cmp.Comparer(func(a, b value.Value) bool { return value.Equal(a, b) })

func strVal(s string) value.Value {
	return value.Value{Kind: value.String, Tag: "tag:yaml.org,2002:str", String: s}
}

func TestMappingSetGetOrder(t *testing.T) {
	m := value.NewMapping()
	overwrote := m.Set(strVal("a"), value.Value{Kind: value.Int, Int: 1})
	assert.False(t, overwrote)
	overwrote = m.Set(strVal("b"), value.Value{Kind: value.Int, Int: 2})
	assert.False(t, overwrote)
	overwrote = m.Set(strVal("a"), value.Value{Kind: value.Int, Int: 99})
	assert.True(t, overwrote, "re-setting an existing key should report an overwrite")

	require.Equal(t, 2, m.Len())
	// Insertion order is preserved: "a" stays first even though its
	// value was later overwritten.
	assert.Equal(t, "a", m.Pairs[0].Key.String)
	assert.Equal(t, "b", m.Pairs[1].Key.String)

	v, ok := m.GetStr("a")
	require.True(t, ok)
	assert.Equal(t, int64(99), v.Int)

	_, ok = m.GetStr("missing")
	assert.False(t, ok)
}

func TestMappingHas(t *testing.T) {
	m := value.NewMapping()
	assert.False(t, m.Has(strVal("k")))
	m.Set(strVal("k"), value.Value{Kind: value.Null})
	assert.True(t, m.Has(strVal("k")))
}

func TestMappingNonScalarKey(t *testing.T) {
	// Sequence/mapping keys fall back to linear scan rather than the
	// O(1) index, but must still round-trip through Set/Get/Has.
	key := value.Value{Kind: value.Sequence, Tag: "tag:yaml.org,2002:seq", Sequence: []value.Value{
		{Kind: value.Int, Int: 1}, {Kind: value.Int, Int: 2},
	}}
	m := value.NewMapping()
	m.Set(key, strVal("listed"))
	assert.True(t, m.Has(key))
	got, ok := m.Get(key)
	require.True(t, ok)
	assert.Equal(t, "listed", got.String)

	other := value.Value{Kind: value.Sequence, Tag: "tag:yaml.org,2002:seq", Sequence: []value.Value{
		{Kind: value.Int, Int: 3},
	}}
	assert.False(t, m.Has(other))
}

func TestEqualScalars(t *testing.T) {
	assert.True(t, value.Equal(value.Value{Kind: value.Null}, value.Value{Kind: value.Null}))
	assert.True(t, value.Equal(value.Value{Kind: value.Bool, Bool: true}, value.Value{Kind: value.Bool, Bool: true}))
	assert.False(t, value.Equal(value.Value{Kind: value.Bool, Bool: true}, value.Value{Kind: value.Bool, Bool: false}))
	assert.True(t, value.Equal(value.Value{Kind: value.Int, Int: 5}, value.Value{Kind: value.Int, Int: 5}))
	assert.False(t, value.Equal(value.Value{Kind: value.Int, Int: 5}, value.Value{Kind: value.Float, Float: 5}))
	assert.True(t, value.Equal(strVal("x"), strVal("x")))
	assert.False(t, value.Equal(strVal("x"), strVal("y")))
}

func TestEqualFloatSemantics(t *testing.T) {
	nan := value.Value{Kind: value.Float, Float: math.NaN()}
	assert.False(t, value.Equal(nan, nan), "NaN must never equal itself")

	posZero := value.Value{Kind: value.Float, Float: 0}
	negZero := value.Value{Kind: value.Float, Float: math.Copysign(0, -1)}
	assert.True(t, value.Equal(posZero, negZero), "+0 must equal -0")
}

func TestEqualSequence(t *testing.T) {
	a := value.Value{Kind: value.Sequence, Sequence: []value.Value{{Kind: value.Int, Int: 1}, strVal("x")}}
	b := value.Value{Kind: value.Sequence, Sequence: []value.Value{{Kind: value.Int, Int: 1}, strVal("x")}}
	c := value.Value{Kind: value.Sequence, Sequence: []value.Value{{Kind: value.Int, Int: 1}}}
	assert.True(t, value.Equal(a, b))
	assert.False(t, value.Equal(a, c))
}

func TestEqualMapping(t *testing.T) {
	m1 := value.NewMapping()
	m1.Set(strVal("a"), value.Value{Kind: value.Int, Int: 1})
	m1.Set(strVal("b"), value.Value{Kind: value.Int, Int: 2})

	// Same entries, different insertion order: mapping equality is by
	// key/value content, not Pairs order.
	m2 := value.NewMapping()
	m2.Set(strVal("b"), value.Value{Kind: value.Int, Int: 2})
	m2.Set(strVal("a"), value.Value{Kind: value.Int, Int: 1})

	a := value.Value{Kind: value.MappingKind, Mapping: m1}
	b := value.Value{Kind: value.MappingKind, Mapping: m2}
	assert.True(t, value.Equal(a, b))

	m3 := value.NewMapping()
	m3.Set(strVal("a"), value.Value{Kind: value.Int, Int: 1})
	c := value.Value{Kind: value.MappingKind, Mapping: m3}
	assert.False(t, value.Equal(a, c))
}

func TestEqualMappingDiffIsLegible(t *testing.T) {
	m1 := value.NewMapping()
	m1.Set(strVal("a"), value.Value{Kind: value.Int, Int: 1})
	m1.Set(strVal("b"), value.Value{Kind: value.Sequence, Sequence: []value.Value{strVal("x"), strVal("y")}})
	a := value.Value{Kind: value.MappingKind, Mapping: m1}

	m2 := value.NewMapping()
	m2.Set(strVal("a"), value.Value{Kind: value.Int, Int: 1})
	m2.Set(strVal("b"), value.Value{Kind: value.Sequence, Sequence: []value.Value{strVal("x"), strVal("y")}})
	b := value.Value{Kind: value.MappingKind, Mapping: m2}

	if diff := cmp.Diff(a, b, valueComparer); diff != "" {
		t.Fatalf("expected equal trees, got diff:\n%s", diff)
	}

	m3 := value.NewMapping()
	m3.Set(strVal("a"), value.Value{Kind: value.Int, Int: 1})
	m3.Set(strVal("b"), value.Value{Kind: value.Sequence, Sequence: []value.Value{strVal("x"), strVal("z")}})
	c := value.Value{Kind: value.MappingKind, Mapping: m3}

	diff := cmp.Diff(a, c, valueComparer)
	assert.NotEmpty(t, diff, "differing trees must produce a non-empty diff")
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "Null", value.Null.String())
	assert.Equal(t, "Mapping", value.MappingKind.String())
	assert.Equal(t, "Invalid", value.Kind(999).String())
}
