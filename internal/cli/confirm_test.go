package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func TestPromptConfirmer(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		want   bool
	}{
		{"y", "y\n", true},
		{"yes mixed case", "  YeS \n", true},
		{"no", "n\n", false},
		{"empty line", "\n", false},
		{"EOF without newline", "yes", true},
		{"EOF", "", false},
		{"anything else", "sure\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			c := NewPromptConfirmer(strings.NewReader(tt.answer), &out)

			ok, err := c.Confirm(context.Background(), "Add 2 missing transaction(s) to Card?")

			require.NoError(t, err)
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, "Add 2 missing transaction(s) to Card? [y/N] ", out.String())
		})
	}
}

func TestPromptConfirmer_ReadsSuccessiveAnswers(t *testing.T) {
	c := NewPromptConfirmer(strings.NewReader("yes\nno\n"), &bytes.Buffer{})

	first, err := c.Confirm(context.Background(), "first?")
	require.NoError(t, err)
	second, err := c.Confirm(context.Background(), "second?")
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second)
}

func TestPromptConfirmer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var out bytes.Buffer

	ok, err := NewPromptConfirmer(strings.NewReader("y\n"), &out).Confirm(ctx, "go?")

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)
	assert.Empty(t, out.String())
}
