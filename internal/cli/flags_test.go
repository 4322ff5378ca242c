package cli

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBankFlags_ToRequest(t *testing.T) {
	prompt := NewPromptConfirmer(nil, nil)

	req := BankFlags{AccountID: "card", File: "s.qif"}.ToRequest(prompt)
	assert.Equal(t, "card", req.AccountID)
	assert.Equal(t, "s.qif", req.FilePath)
	assert.True(t, req.Refresh)
	assert.Same(t, prompt, req.Confirmer)

	req = BankFlags{AccountID: "card", Yes: true, Offline: true}.ToRequest(prompt)
	assert.False(t, req.Refresh)
	ok, err := req.Confirmer.Confirm(context.Background(), "push?")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPeerFlags_ToRequest(t *testing.T) {
	t.Run("open-ended window", func(t *testing.T) {
		req, err := PeerFlags{From: "2025-06-01", MyPayee: "Bob", TheirPayee: "Alice", ExpenseAccount: "cash"}.ToRequest(nil)

		require.NoError(t, err)
		assert.Equal(t, "2025-06-01", req.From.String())
		assert.True(t, req.To.IsZero())
		assert.Equal(t, "cash", req.ExpenseAccountID)
		assert.True(t, req.Refresh)
	})

	t.Run("bounded window with --yes", func(t *testing.T) {
		req, err := PeerFlags{From: "2025-06-01", To: "2025-06-30", Yes: true, DryRun: true}.ToRequest(nil)

		require.NoError(t, err)
		assert.Equal(t, "2025-06-30", req.To.String())
		assert.True(t, req.DryRun)
		ok, err := req.Confirmer.Confirm(context.Background(), "push?")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("inverted window", func(t *testing.T) {
		_, err := PeerFlags{From: "2025-06-30", To: "2025-06-01"}.ToRequest(nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "is before --from")
	})

	t.Run("bad to date", func(t *testing.T) {
		_, err := PeerFlags{From: "2025-06-01", To: "tomorrow"}.ToRequest(nil)

		assert.ErrorContains(t, err, "invalid --to")
	})
}
