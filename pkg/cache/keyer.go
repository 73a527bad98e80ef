package cache

import "fmt"

// keyVersion is bumped whenever the cached value layout changes.
const keyVersion = "v1"

// Keyer generates cache keys.
type Keyer interface {
	// MatchKey returns the key of one query's result against a target set.
	MatchKey(targetsDigest, queryDigest string, opts MatchKeyOpts) string

	// RenderKey returns the key of a rendered embedding.
	RenderKey(matchKey string, opts RenderKeyOpts) string
}

// MatchKeyOpts holds the options that change a match result. Options that
// only affect speed (worker count, iterative search) are deliberately absent.
type MatchKeyOpts struct {
	Lookahead string `json:"lookahead"`
	MaxVisits int    `json:"max_visits"`
	All       bool   `json:"all"`
	Limit     int    `json:"limit"`
}

// RenderKeyOpts holds the options that change a rendering.
type RenderKeyOpts struct {
	Target string `json:"target"`
	Format string `json:"format"`
	Index  int    `json:"index"`
}

// DefaultKeyer is the standard Keyer.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard Keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// MatchKey implements Keyer.
func (DefaultKeyer) MatchKey(targetsDigest, queryDigest string, opts MatchKeyOpts) string {
	return hashKey(fmt.Sprintf("match:%s", keyVersion), targetsDigest, queryDigest, opts)
}

// RenderKey implements Keyer.
func (DefaultKeyer) RenderKey(matchKey string, opts RenderKeyOpts) string {
	return hashKey(fmt.Sprintf("render:%s", keyVersion), matchKey, opts)
}
