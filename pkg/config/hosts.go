package config

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

// HostRules gates navigation targets with allow and deny glob patterns,
// compiled once up front. Matching is case-insensitive. Deny patterns take
// precedence over allow patterns.
type HostRules struct {
	allowed []glob.Glob
	denied  []glob.Glob
}

// NewHostRules compiles the given patterns. Patterns use glob syntax, e.g.
// "*.example.com" or "internal-*".
func NewHostRules(allowed, denied []string) (*HostRules, error) {
	rules := &HostRules{}

	for _, pattern := range allowed {
		g, err := glob.Compile(strings.ToLower(pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid allowed pattern '%s': %w", pattern, err)
		}
		rules.allowed = append(rules.allowed, g)
	}

	for _, pattern := range denied {
		g, err := glob.Compile(strings.ToLower(pattern))
		if err != nil {
			return nil, fmt.Errorf("invalid denied pattern '%s': %w", pattern, err)
		}
		rules.denied = append(rules.denied, g)
	}

	return rules, nil
}

// Allows reports whether navigation to host is permitted. Nil rules allow
// every host. An empty allow list allows everything not denied.
func (r *HostRules) Allows(host string) bool {
	if r == nil {
		return true
	}

	host = strings.ToLower(host)

	for _, g := range r.denied {
		if g.Match(host) {
			return false
		}
	}

	if len(r.allowed) == 0 {
		return true
	}
	for _, g := range r.allowed {
		if g.Match(host) {
			return true
		}
	}
	return false
}
