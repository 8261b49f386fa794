package policy

import (
	"log"
	"regexp"
	"strings"
	"sync"
)

// Config is the declarative, serialisable part of a protection policy.
type Config struct {
	// Enabled gates the whole feature; when false nothing requires approval
	// regardless of patterns.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Patterns is an ordered list of regular expressions matched against the
	// full resource name.  A resource matching any pattern requires approval.
	Patterns []string `json:"patterns,omitempty" yaml:"patterns,omitempty"`
}

// rule is a single compiled pattern.  matcher is nil when the expression was
// malformed; such rules never match.
type rule struct {
	expr    string
	matcher *regexp.Regexp
}

// Policy decides whether a named resource requires prior approval.  It is
// read-heavy and safe for concurrent use: evaluation works on an immutable
// rule snapshot that Update swaps atomically, so readers always see the
// latest committed configuration without a staleness window.
type Policy struct {
	mu      sync.RWMutex
	enabled bool
	rules   []rule
}

// New creates a policy from cfg; a nil cfg yields a disabled policy.
func New(cfg *Config) *Policy {
	ret := &Policy{}
	ret.Update(cfg)
	return ret
}

// Update replaces the active configuration.  Malformed patterns are logged
// and kept as never-matching so that one bad expression does not block
// protection checks for the others.
func (p *Policy) Update(cfg *Config) {
	var enabled bool
	var rules []rule
	if cfg != nil {
		enabled = cfg.Enabled
		rules = compile(cfg.Patterns)
	}
	p.mu.Lock()
	p.enabled = enabled
	p.rules = rules
	p.mu.Unlock()
}

// RequiresApproval reports whether resource matches any configured pattern.
// Patterns are evaluated in configuration order with a full-string match,
// short-circuiting on the first hit.
func (p *Policy) RequiresApproval(resource string) bool {
	p.mu.RLock()
	enabled, rules := p.enabled, p.rules
	p.mu.RUnlock()

	if !enabled || len(rules) == 0 {
		return false
	}
	for _, r := range rules {
		if r.matcher == nil {
			continue
		}
		if r.matcher.MatchString(resource) {
			return true
		}
	}
	return false
}

// InvalidPatterns returns the configured expressions that failed to compile,
// for surfacing in configuration validation.
func (p *Policy) InvalidPatterns() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var ret []string
	for _, r := range p.rules {
		if r.matcher == nil {
			ret = append(ret, r.expr)
		}
	}
	return ret
}

func compile(patterns []string) []rule {
	rules := make([]rule, 0, len(patterns))
	for _, expr := range patterns {
		expr = strings.TrimSpace(expr)
		if expr == "" {
			continue
		}
		matcher, err := regexp.Compile(`\A(?:` + expr + `)\z`)
		if err != nil {
			log.Printf("policy: skipping malformed pattern %q: %v", expr, err)
			rules = append(rules, rule{expr: expr})
			continue
		}
		rules = append(rules, rule{expr: expr, matcher: matcher})
	}
	return rules
}

// ParseList splits a comma or newline separated pattern string into the
// ordered pattern list, dropping empty segments.
func ParseList(patterns string) []string {
	if strings.TrimSpace(patterns) == "" {
		return nil
	}
	var ret []string
	for _, part := range strings.FieldsFunc(patterns, func(r rune) bool { return r == ',' || r == '\n' }) {
		if part = strings.TrimSpace(part); part != "" {
			ret = append(ret, part)
		}
	}
	return ret
}
