// ABOUTME: Tests for the vault service layer
// ABOUTME: Covers pattern lookup, transient URI tokens, and backup orchestration

package vault

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andreax79/freakotp/internal/otp"
	"github.com/andreax79/freakotp/internal/store"
)

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "freakotp.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s)
}

func addToken(t *testing.T, v *Vault, issuer, label string) *otp.Token {
	t.Helper()
	secret, err := otp.SecretFromBase32("GEZDGNBVGY3TQOJQ")
	require.NoError(t, err)
	token := otp.NewToken(otp.TypeTOTP)
	token.Secret = secret
	token.SetIssuer(issuer)
	token.Label = label
	require.NoError(t, v.Add(context.Background(), token))
	return token
}

func TestFind_SubstringMatch(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)
	addToken(t, v, "GitHub", "alice")
	addToken(t, v, "GitLab", "alice")
	addToken(t, v, "AWS", "bob")

	tokens, err := v.Find(ctx, "git")
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "GitHub:alice", tokens[0].String())
	assert.Equal(t, "GitLab:alice", tokens[1].String())
}

func TestFind_CaseInsensitive(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)
	addToken(t, v, "GitHub", "alice")

	tokens, err := v.Find(ctx, "GITHUB")
	require.NoError(t, err)
	assert.Len(t, tokens, 1)
}

func TestFind_TokenMatchedOnce(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)
	addToken(t, v, "GitHub", "alice")

	// Both patterns match the same token
	tokens, err := v.Find(ctx, "github", "alice")
	require.NoError(t, err)
	assert.Len(t, tokens, 1)
}

func TestFind_TransientURITokensFirst(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)
	addToken(t, v, "GitHub", "alice")

	tokens, err := v.Find(ctx, "github", "otpauth://totp/Acme:carol?secret=GEZDGNBVGY3TQOJQ")
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "Acme:carol", tokens[0].String())
	assert.Equal(t, int64(0), tokens[0].RowID, "URI token should be transient")
	assert.Equal(t, "GitHub:alice", tokens[1].String())
}

func TestFind_BadURI(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)

	_, err := v.Find(ctx, "otpauth://motp/x?secret=GEZA")
	assert.Error(t, err)
}

func TestFind_NoMatch(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)
	addToken(t, v, "GitHub", "alice")

	tokens, err := v.Find(ctx, "nothing")
	require.NoError(t, err)
	assert.Empty(t, tokens)
}

func TestAddURI(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)

	token, err := v.AddURI(ctx, "otpauth://totp/Acme:carol?secret=GEZDGNBVGY3TQOJQ&digits=8")
	require.NoError(t, err)
	assert.NotZero(t, token.RowID)

	all, err := v.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 8, all[0].Digits)
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)
	token := addToken(t, v, "GitHub", "alice")

	require.NoError(t, v.Remove(ctx, token))
	all, err := v.All(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	// Transient tokens cannot be removed
	transient := otp.NewToken(otp.TypeTOTP)
	assert.ErrorIs(t, v.Remove(ctx, transient), otp.ErrNotBound)
}

func TestIncrementCounter(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)

	secret, err := otp.SecretFromBase32("GEZDGNBVGY3TQOJQ")
	require.NoError(t, err)
	token := otp.NewToken(otp.TypeHOTP)
	token.Secret = secret
	token.Label = "alice"
	require.NoError(t, v.Add(ctx, token))

	require.NoError(t, v.IncrementCounter(ctx, token))
	all, err := v.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), all[0].Counter)

	// TOTP tokens are untouched
	totpTok := addToken(t, v, "Acme", "bob")
	require.NoError(t, v.IncrementCounter(ctx, totpTok))
	assert.Equal(t, int64(0), totpTok.Counter)
}

func TestImportExportRoundTrip(t *testing.T) {
	ctx := context.Background()
	v := newTestVault(t)
	addToken(t, v, "GitHub", "alice")
	addToken(t, v, "AWS", "bob")

	path := filepath.Join(t.TempDir(), "backup.json")
	exported, err := v.Export(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 2, exported)

	other := newTestVault(t)
	imported, err := other.Import(ctx, path, false)
	require.NoError(t, err)
	assert.Equal(t, 2, imported)

	tokens, err := other.All(ctx)
	require.NoError(t, err)
	require.Len(t, tokens, 2)
	assert.Equal(t, "GitHub:alice", tokens[0].String())
}
