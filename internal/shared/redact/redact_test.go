package redact

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecrets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		in      string
		secrets []string
		want    string
	}{
		{"no secrets", "plain error", nil, "plain error"},
		{"query param", `Get "https://x/coins?x_cg_demo_api_key=abc123": timeout`, []string{"abc123"}, `Get "https://x/coins?x_cg_demo_api_key=***": timeout`},
		{"repeated", "abc abc", []string{"abc"}, "*** ***"},
		{"empty secret ignored", "keep me", []string{"", "  "}, "keep me"},
		{"multiple secrets", "k1 and k2", []string{"k1", "k2"}, "*** and ***"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Secrets(tt.in, tt.secrets...))
		})
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc", Truncate("abcdef", 3))
	assert.Equal(t, "ab", Truncate("ab", 3))
	assert.Equal(t, "äöü", Truncate("äöüß", 3))
	assert.Equal(t, "abcdef", Truncate("abcdef", 0))
}
