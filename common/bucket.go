// Package common holds the few enums shared between the build-time compiler
// and the runtime router. Cascade bucket ordering is load-bearing on both
// sides, so it lives here rather than in either package.
package common

// Bucket is one cascade-ordering category. The declaration order below is
// the precedence order: it encodes the CSS link/visited/focus/hover/active
// rule with at-rules last. Do not reorder.
type Bucket int

const (
	BucketCatchAll Bucket = iota
	BucketLink
	BucketVisited
	BucketFocusWithin
	BucketFocus
	BucketFocusVisible
	BucketHover
	BucketActive
	BucketAtRule

	NumBuckets = int(BucketAtRule) + 1
)

var bucketNames = [NumBuckets]string{
	"catch-all",
	"link",
	"visited",
	"focus-within",
	"focus",
	"focus-visible",
	"hover",
	"active",
	"at-rule",
}

func (b Bucket) String() string {
	if b < 0 || int(b) >= NumBuckets {
		return "catch-all"
	}
	return bucketNames[b]
}

var pseudoBuckets = map[string]Bucket{
	"link":          BucketLink,
	"visited":       BucketVisited,
	"focus-within":  BucketFocusWithin,
	"focus":         BucketFocus,
	"focus-visible": BucketFocusVisible,
	"hover":         BucketHover,
	"active":        BucketActive,
}

// PseudoBucket maps a pseudo-class name (without the leading colon) to its
// cascade bucket. Unrecognized or absent pseudo-classes land in the
// catch-all bucket: a mis-ordered style beats a missing one.
func PseudoBucket(pseudo string) Bucket {
	if b, ok := pseudoBuckets[pseudo]; ok {
		return b
	}
	return BucketCatchAll
}
