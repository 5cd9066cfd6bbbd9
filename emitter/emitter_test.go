package emitter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/willabides/corevalyaml/emitter"
	"github.com/willabides/corevalyaml/token"
	"github.com/willabides/corevalyaml/value"
)

func strVal(s string) value.Value {
	return value.Value{Kind: value.String, Tag: "tag:yaml.org,2002:str", String: s}
}

func intVal(i int64) value.Value {
	return value.Value{Kind: value.Int, Tag: "tag:yaml.org,2002:int", Int: i}
}

func emitOne(v value.Value, cfg emitter.Config) string {
	e := emitter.New(cfg)
	if err := e.EmitDocument(v, false); err != nil {
		panic(err)
	}
	return string(e.Bytes())
}

func TestEmitPlainScalar(t *testing.T) {
	got := emitOne(strVal("hello"), emitter.DefaultConfig())
	assert.Equal(t, "hello\n", got)
}

func TestEmitForceQuotesAmbiguousString(t *testing.T) {
	// A string that looks like an int must be quoted, or it would
	// resolve back to tag:yaml.org,2002:int on reload.
	got := emitOne(strVal("42"), emitter.DefaultConfig())
	assert.Equal(t, "'42'\n", got)
}

func TestEmitDoesNotQuotePlainInt(t *testing.T) {
	got := emitOne(intVal(42), emitter.DefaultConfig())
	assert.Equal(t, "42\n", got)
}

func TestEmitDoubleQuotesWhenPlainIneligible(t *testing.T) {
	got := emitOne(strVal("line\nbreak"), emitter.DefaultConfig())
	assert.Equal(t, "\"line\\nbreak\"\n", got)
}

func TestEmitEmptyCollections(t *testing.T) {
	seq := value.Value{Kind: value.Sequence}
	assert.Equal(t, "[]\n", emitOne(seq, emitter.DefaultConfig()))

	m := value.Value{Kind: value.MappingKind, Mapping: value.NewMapping()}
	assert.Equal(t, "{}\n", emitOne(m, emitter.DefaultConfig()))
}

func TestEmitBlockMapping(t *testing.T) {
	m := value.NewMapping()
	m.Set(strVal("a"), intVal(1))
	m.Set(strVal("b"), intVal(2))
	v := value.Value{Kind: value.MappingKind, Mapping: m}
	got := emitOne(v, emitter.DefaultConfig())
	assert.Equal(t, "a: 1\nb: 2\n", got)
}

func TestEmitBlockSequence(t *testing.T) {
	v := value.Value{Kind: value.Sequence, Sequence: []value.Value{intVal(1), intVal(2)}}
	got := emitOne(v, emitter.DefaultConfig())
	assert.Equal(t, "- 1\n- 2\n", got)
}

func TestEmitFlowStyle(t *testing.T) {
	cfg := emitter.DefaultConfig()
	cfg.DefaultFlowStyle = true

	m := value.NewMapping()
	m.Set(strVal("a"), intVal(1))
	m.Set(strVal("b"), intVal(2))
	mv := value.Value{Kind: value.MappingKind, Mapping: m}
	assert.Equal(t, "{a: 1, b: 2}\n", emitOne(mv, cfg))

	sv := value.Value{Kind: value.Sequence, Sequence: []value.Value{intVal(1), intVal(2), intVal(3)}}
	assert.Equal(t, "[1, 2, 3]\n", emitOne(sv, cfg))
}

func TestEmitExplicitEnd(t *testing.T) {
	cfg := emitter.DefaultConfig()
	cfg.ExplicitEnd = true
	got := emitOne(strVal("hi"), cfg)
	assert.Equal(t, "hi\n...\n", got)
}

func TestEmitVersionDirective(t *testing.T) {
	cfg := emitter.DefaultConfig()
	cfg.YAMLVersion = &emitter.Version{Major: 1, Minor: 2}
	got := emitOne(strVal("hi"), cfg)
	assert.Equal(t, "%YAML 1.2\n---\nhi\n", got)
}

func TestEmitTagDirectives(t *testing.T) {
	cfg := emitter.DefaultConfig()
	cfg.TagDirectives = []token.Directive{{Handle: "!e!", Prefix: "tag:example.com,2000:"}}
	got := emitOne(strVal("hi"), cfg)
	assert.Equal(t, "%TAG !e! tag:example.com,2000:\n---\nhi\n", got)
}

func TestEmitMultiDocumentStream(t *testing.T) {
	e := emitter.New(emitter.DefaultConfig())
	require.NoError(t, e.EmitDocument(strVal("first"), false))
	require.NoError(t, e.EmitDocument(strVal("second"), false))
	assert.Equal(t, "first\n---\nsecond\n", string(e.Bytes()))
}

func TestEmitDocumentExplicitParam(t *testing.T) {
	cfg := emitter.DefaultConfig()
	got := emitOne(strVal("hi"), cfg)
	// A lone document isn't preceded by "---" unless explicitly asked.
	assert.Equal(t, "hi\n", got)

	e := emitter.New(cfg)
	require.NoError(t, e.EmitDocument(strVal("hi"), true))
	assert.Equal(t, "---\nhi\n", string(e.Bytes()))
}
