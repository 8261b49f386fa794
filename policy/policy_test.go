package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_RequiresApproval(t *testing.T) {
	testCases := []struct {
		name     string
		config   *Config
		resource string
		expect   bool
	}{
		{
			name:     "disabled policy never matches",
			config:   &Config{Enabled: false, Patterns: []string{".*"}},
			resource: "prod-deploy",
			expect:   false,
		},
		{
			name:     "enabled without patterns never matches",
			config:   &Config{Enabled: true},
			resource: "prod-deploy",
			expect:   false,
		},
		{
			name:     "prefix pattern matches",
			config:   &Config{Enabled: true, Patterns: []string{"prod-.*"}},
			resource: "prod-deploy",
			expect:   true,
		},
		{
			name:     "match is full-string, not substring",
			config:   &Config{Enabled: true, Patterns: []string{"prod"}},
			resource: "prod-deploy",
			expect:   false,
		},
		{
			name:     "second pattern still evaluated",
			config:   &Config{Enabled: true, Patterns: []string{"staging-.*", "prod-.*"}},
			resource: "prod-deploy",
			expect:   true,
		},
		{
			name:     "malformed pattern is skipped, not fatal",
			config:   &Config{Enabled: true, Patterns: []string{"[invalid", "prod-.*"}},
			resource: "prod-deploy",
			expect:   true,
		},
		{
			name:     "malformed pattern alone never matches",
			config:   &Config{Enabled: true, Patterns: []string{"[invalid"}},
			resource: "prod-deploy",
			expect:   false,
		},
		{
			name:     "nested path resource",
			config:   &Config{Enabled: true, Patterns: []string{"deploy/production/.*"}},
			resource: "deploy/production/api",
			expect:   true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := New(tc.config)
			assert.Equal(t, tc.expect, p.RequiresApproval(tc.resource))
		})
	}
}

func TestPolicy_Update(t *testing.T) {
	p := New(&Config{Enabled: true, Patterns: []string{"prod-.*"}})
	assert.True(t, p.RequiresApproval("prod-deploy"))

	p.Update(&Config{Enabled: true, Patterns: []string{"staging-.*"}})
	assert.False(t, p.RequiresApproval("prod-deploy"))
	assert.True(t, p.RequiresApproval("staging-deploy"))

	p.Update(nil)
	assert.False(t, p.RequiresApproval("staging-deploy"))
}

func TestPolicy_InvalidPatterns(t *testing.T) {
	p := New(&Config{Enabled: true, Patterns: []string{"prod-.*", "[bad", "(worse"}})
	assert.Equal(t, []string{"[bad", "(worse"}, p.InvalidPatterns())
}

func TestParseList(t *testing.T) {
	testCases := []struct {
		name   string
		input  string
		expect []string
	}{
		{name: "empty", input: "  ", expect: nil},
		{name: "comma separated", input: "a,b , c", expect: []string{"a", "b", "c"}},
		{name: "newline separated", input: "a\nb\n\nc", expect: []string{"a", "b", "c"}},
		{name: "mixed", input: ".*-prod-.*,\n.*maintenance.*", expect: []string{".*-prod-.*", ".*maintenance.*"}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, ParseList(tc.input))
		})
	}
}
