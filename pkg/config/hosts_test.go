package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostRules(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		denied  []string
		host    string
		want    bool
	}{
		{
			name: "no rules allows everything",
			host: "example.com",
			want: true,
		},
		{
			name:    "allow list admits match",
			allowed: []string{"*.mollydookerwines.com.au", "example.com"},
			host:    "shop.mollydookerwines.com.au",
			want:    true,
		},
		{
			name:    "allow list blocks non-match",
			allowed: []string{"example.com"},
			host:    "other.com",
			want:    false,
		},
		{
			name:   "deny blocks match",
			denied: []string{"*.internal"},
			host:   "jenkins.internal",
			want:   false,
		},
		{
			name:    "deny wins over allow",
			allowed: []string{"*"},
			denied:  []string{"tracker.example.com"},
			host:    "tracker.example.com",
			want:    false,
		},
		{
			name:    "deny alone allows the rest",
			denied:  []string{"*.internal"},
			host:    "example.com",
			want:    true,
		},
		{
			name:    "matching is case-insensitive",
			allowed: []string{"Example.COM"},
			host:    "EXAMPLE.com",
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules, err := NewHostRules(tt.allowed, tt.denied)
			require.NoError(t, err)
			assert.Equal(t, tt.want, rules.Allows(tt.host))
		})
	}
}

func TestNewHostRulesRejectsBadPattern(t *testing.T) {
	_, err := NewHostRules([]string{"[broken"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid allowed pattern")
}

func TestNilRulesAllowEverything(t *testing.T) {
	var rules *HostRules
	assert.True(t, rules.Allows("example.com"))
}
