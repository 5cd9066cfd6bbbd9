package value

// Limits bounds the cost of composing a single document with
// explicit, independently tunable ceilings rather than a single
// fixed alias-expansion-ratio heuristic.
//
// A zero Limits is not valid on its own; callers use Default,
// Strict, or Unlimited as a starting point and override individual
// fields.
type Limits struct {
	// MaxDepth bounds nesting: a Sequence/Mapping containing a
	// Sequence/Mapping counts as depth 2, and so on.
	MaxDepth int
	// MaxAnchors bounds the number of distinct &anchor definitions in
	// a single document.
	MaxAnchors int
	// MaxAliases bounds the number of *alias references resolved in a
	// single document, independent of how many anchors exist.
	MaxAliases int
	// MaxCollectionSize bounds the number of entries any one
	// Sequence or Mapping may hold.
	MaxCollectionSize int
	// MaxStringLength bounds the byte length of any one scalar.
	MaxStringLength int
	// MaxDocumentSize bounds the number of nodes composed for one
	// document, counting one per scalar, sequence, mapping or alias
	// event. An alias counts as one node whatever subtree it resolves
	// to; the expanded size of aliased subtrees is not counted.
	MaxDocumentSize int
}

// Default is a conservative ceiling suitable for parsing untrusted
// input: generous enough for legitimate configuration documents.
// Aliases share the anchored Value rather than copying it, so an
// alias chain does not multiply the composed tree in memory. Such a
// chain ("billion laughs") is rejected only when its literal alias
// references exceed MaxAliases (or it breaks another limit); its
// expanded size is not checked.
func Default() Limits {
	return Limits{
		MaxDepth:          200,
		MaxAnchors:        10_000,
		MaxAliases:        100_000,
		MaxCollectionSize: 1_000_000,
		MaxStringLength:   10 << 20, // 10 MiB
		MaxDocumentSize:   1_000_000,
	}
}

// Strict tightens Default for adversarial input where documents are
// expected to be small.
func Strict() Limits {
	return Limits{
		MaxDepth:          50,
		MaxAnchors:        100,
		MaxAliases:        1_000,
		MaxCollectionSize: 10_000,
		MaxStringLength:   1 << 20,
		MaxDocumentSize:   50_000,
	}
}

// Unlimited disables every check. Intended for trusted input only.
func Unlimited() Limits {
	return Limits{
		MaxDepth:          -1,
		MaxAnchors:        -1,
		MaxAliases:        -1,
		MaxCollectionSize: -1,
		MaxStringLength:   -1,
		MaxDocumentSize:   -1,
	}
}
