package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// The HTTP server scopes its keys so that CLI runs and API requests sharing
// one Redis instance never read each other's entries.
//
// Example usage:
//
//	serverKeyer := NewScopedKeyer(NewDefaultKeyer(), "server:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// MatchKey generates a prefixed key for match result caching.
func (k *ScopedKeyer) MatchKey(targetsDigest, queryDigest string, opts MatchKeyOpts) string {
	return k.prefix + k.inner.MatchKey(targetsDigest, queryDigest, opts)
}

// RenderKey generates a prefixed key for rendered output caching.
func (k *ScopedKeyer) RenderKey(matchKey string, opts RenderKeyOpts) string {
	return k.prefix + k.inner.RenderKey(matchKey, opts)
}
