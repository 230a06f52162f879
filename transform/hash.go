package transform

import (
	"github.com/cespare/xxhash/v2"
)

const (
	classTokenLen = 8
	base36digits  = "0123456789abcdefghijklmnopqrstuvwxyz"
)

func encodeBase36(v uint64, n int) string {
	buf := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		buf[i] = base36digits[v%36]
		v /= 36
	}
	return string(buf)
}

// hashName derives a deterministic class name from the given parts. xxhash
// is stable and seed-free, so identical parts yield the same name on every
// machine and every run; Go's own runtime hashing is seeded per process and
// must never be used here. The optional prefix both namespaces the visible
// token and participates in the hash, keeping independently-compiled sources
// from colliding.
func hashName(prefix string, parts ...string) string {
	h := xxhash.New()
	_, _ = h.WriteString(prefix)
	for _, p := range parts {
		_, _ = h.Write([]byte{0})
		_, _ = h.WriteString(p)
	}
	return "_" + prefix + encodeBase36(h.Sum64(), classTokenLen)
}
