package bptree

// Ordered is the total-order constraint required of both the key and
// value half of a KeyPair. Types with a natural order (FixedString, or
// any application type) should implement CompareTo directly; types that
// have none can be wrapped in HashKey, which derives a degraded but
// deterministic order from the byte image (see hashkey.go).
type Ordered[T any] interface {
	// CompareTo returns <0, 0 or >0 as the receiver sorts before, equal
	// to, or after other.
	CompareTo(other T) int
}
