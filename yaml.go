// Package yaml is a YAML 1.2 Core schema processor built from four
// independently usable stages: scanner, parser, composer, and
// emitter. Load/LoadAll/Dump/DumpAll are the thin façade most callers
// want; Configure exposes the Composer's Limits and the Emitter's
// formatting knobs; the stage packages themselves (scanner, parser,
// composer, emitter) are exported directly for callers who want to
// drive the pipeline by hand.
//
// Unlike a reflection-driven Marshal/Unmarshal API, Load/Dump operate
// directly on the value.Value tree instead of reflecting into or out
// of arbitrary Go types.
package yaml

import (
	"github.com/willabides/corevalyaml/composer"
	"github.com/willabides/corevalyaml/emitter"
	"github.com/willabides/corevalyaml/parser"
	"github.com/willabides/corevalyaml/resolver"
	"github.com/willabides/corevalyaml/scanner"
	"github.com/willabides/corevalyaml/token"
	"github.com/willabides/corevalyaml/value"
)

// Config bundles every tunable the pipeline exposes and binds the
// Load/LoadAll/Dump/DumpAll convenience methods to it. The package
// level functions of the same name are equivalent to calling them on
// Configure()'s zero-option result.
type Config struct {
	composer composer.Config
	emitter  emitter.Config
}

// Option configures a Config built by Configure.
type Option func(*Config)

// WithLimits overrides the Composer's resource ceilings.
func WithLimits(l value.Limits) Option {
	return func(c *Config) { c.composer.Limits = l }
}

// WithSchema selects Core (default) or JSON implicit-resolution rules
// for both composing and emitting.
func WithSchema(s resolver.Schema) Option {
	return func(c *Config) {
		c.composer.Schema = s
		c.emitter.Schema = s
	}
}

// WithoutMergeKeys disables "<<" merge-key expansion, treating it as
// an ordinary string key.
func WithoutMergeKeys() Option {
	return func(c *Config) { c.composer.MergeKey = composer.MergeKeysDisabled }
}

// WithIndent overrides the Emitter's block indent width.
func WithIndent(n int) Option {
	return func(c *Config) { c.emitter.Indent = n }
}

// WithExplicitDocumentMarkers always emits "---" even for a lone
// implicit document.
func WithExplicitDocumentMarkers() Option {
	return func(c *Config) { c.emitter.ExplicitDocumentMarkers = true }
}

// WithExplicitEnd emits a trailing "..." after every document.
func WithExplicitEnd() Option {
	return func(c *Config) { c.emitter.ExplicitEnd = true }
}

// WithFlowStyle forces every emitted collection into flow style
// ("[a, b]", "{k: v}") instead of the block-style default.
func WithFlowStyle() Option {
	return func(c *Config) { c.emitter.DefaultFlowStyle = true }
}

// WithYAMLVersion emits a "%YAML major.minor" directive before each
// document, which implies explicit "---" markers.
func WithYAMLVersion(major, minor int) Option {
	return func(c *Config) { c.emitter.YAMLVersion = &emitter.Version{Major: major, Minor: minor} }
}

// WithTagDirective emits a "%TAG handle prefix" directive before each
// document, which implies explicit "---" markers.
func WithTagDirective(handle, prefix string) Option {
	return func(c *Config) {
		c.emitter.TagDirectives = append(c.emitter.TagDirectives, token.Directive{Handle: handle, Prefix: prefix})
	}
}

// Configure builds a Config from opts, starting from the package
// defaults (value.Default limits, Core schema, merge keys enabled).
func Configure(opts ...Option) *Config {
	c := &Config{composer: composer.DefaultConfig(), emitter: emitter.DefaultConfig()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load composes the single document in data and returns it. It is an
// error for data to contain more than one document; use LoadAll for
// multi-document streams.
func (c *Config) Load(data []byte) (value.Value, error) {
	comp := c.firstPipeline(data)
	v, ok, err := comp.ComposeDocument()
	if err != nil {
		return value.Value{}, err
	}
	if !ok {
		return value.Value{}, &EmptyStreamError{}
	}
	if _, ok, err := comp.ComposeDocument(); err != nil {
		return value.Value{}, err
	} else if ok {
		return value.Value{}, &MultiDocumentError{}
	}
	return v, nil
}

// LoadAll composes every document in data.
func (c *Config) LoadAll(data []byte) ([]value.Value, error) {
	comp := c.firstPipeline(data)
	var docs []value.Value
	for {
		v, ok, err := comp.ComposeDocument()
		if err != nil {
			return nil, err
		}
		if !ok {
			return docs, nil
		}
		docs = append(docs, v)
	}
}

func (c *Config) firstPipeline(data []byte) *composer.Composer {
	sc := scanner.New(data)
	p := parser.New(sc)
	return composer.New(p, c.composer)
}

// Dump renders v as a single YAML document.
func (c *Config) Dump(v value.Value) ([]byte, error) {
	e := emitter.New(c.emitter)
	explicit := c.emitter.ExplicitDocumentMarkers
	if err := e.EmitDocument(v, explicit); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// DumpAll renders docs as a "---"-separated multi-document stream.
func (c *Config) DumpAll(docs []value.Value) ([]byte, error) {
	e := emitter.New(c.emitter)
	for i, v := range docs {
		explicit := i > 0 || c.emitter.ExplicitDocumentMarkers
		if err := e.EmitDocument(v, explicit); err != nil {
			return nil, err
		}
	}
	return e.Bytes(), nil
}

var defaultConfig = Configure()

// Load composes the single document in data using default settings;
// like Config.Load, it returns an error if data holds more than one.
func Load(data []byte) (value.Value, error) { return defaultConfig.Load(data) }

// LoadAll composes every document in data using default settings.
func LoadAll(data []byte) ([]value.Value, error) { return defaultConfig.LoadAll(data) }

// Dump renders v as a single YAML document using default settings.
func Dump(v value.Value) ([]byte, error) { return defaultConfig.Dump(v) }

// DumpAll renders docs as a multi-document stream using default
// settings.
func DumpAll(docs []value.Value) ([]byte, error) { return defaultConfig.DumpAll(docs) }

// EmptyStreamError is returned by Load when data contains no
// documents at all (as opposed to one empty/null document).
type EmptyStreamError struct{}

func (e *EmptyStreamError) Error() string { return "yaml: stream contains no documents" }

// MultiDocumentError is returned by Load when data contains more than
// one document; call LoadAll instead.
type MultiDocumentError struct{}

func (e *MultiDocumentError) Error() string {
	return "yaml: stream contains more than one document, use LoadAll"
}

// re-exported so callers who only import the root package can still
// name these concrete types in error handling without reaching into
// the stage packages directly.
type (
	ScanError     = scanner.ScanError
	ParseError    = parser.ParseError
	ComposeError  = composer.ComposeError
	LimitExceeded = composer.LimitExceeded
	EmitError     = emitter.EmitError
)

// Value is the composed document tree type; re-exported so callers
// who only import the root package never need to import value
// directly.
type Value = value.Value

// Equal reports deep equality between two Values, per value.Equal's
// documented Float semantics (NaN never equals anything, +0 equals
// -0).
func Equal(a, b Value) bool { return value.Equal(a, b) }

// Limits re-exports value.Limits and its presets for the same reason.
type Limits = value.Limits

func DefaultLimits() Limits   { return value.Default() }
func StrictLimits() Limits    { return value.Strict() }
func UnlimitedLimits() Limits { return value.Unlimited() }
