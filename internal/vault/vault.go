// ABOUTME: Vault service layer joining the token store and OTP engine
// ABOUTME: Implements pattern lookup, ad hoc URI tokens, and add/remove orchestration

package vault

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/andreax79/freakotp/internal/otp"
	"github.com/andreax79/freakotp/internal/store"
)

// Vault is the application service over a token store.
type Vault struct {
	store  store.TokenStore
	logger *slog.Logger
}

// New creates a vault over the given store.
func New(s store.TokenStore) *Vault {
	return &Vault{
		store:  s,
		logger: slog.Default().With("component", "vault"),
	}
}

// All returns every token in the vault in storage order.
func (v *Vault) All(ctx context.Context) ([]*otp.Token, error) {
	return v.store.List(ctx)
}

// Find resolves patterns into tokens. Patterns starting with
// "otpauth://" are parsed into transient, unstored tokens. The
// remaining patterns are matched case-insensitively as substrings of
// each stored token's display identity; a stored token appears at most
// once, in storage order, after any transient tokens.
func (v *Vault) Find(ctx context.Context, patterns ...string) ([]*otp.Token, error) {
	var result []*otp.Token
	for _, pattern := range patterns {
		if strings.HasPrefix(pattern, "otpauth://") {
			token, err := otp.ParseURI(pattern)
			if err != nil {
				return nil, fmt.Errorf("parsing %q: %w", pattern, err)
			}
			result = append(result, token)
		}
	}

	tokens, err := v.store.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, token := range tokens {
		identity := strings.TrimSpace(strings.ToLower(token.String()))
		for _, pattern := range patterns {
			if strings.Contains(identity, strings.ToLower(pattern)) {
				result = append(result, token)
				break
			}
		}
	}
	return result, nil
}

// Add persists a token.
func (v *Vault) Add(ctx context.Context, token *otp.Token) error {
	if err := v.store.Insert(ctx, token); err != nil {
		return err
	}
	v.logger.Info("token added", "token", token.String())
	return nil
}

// AddURI parses an otpauth:// URI and persists the resulting token.
func (v *Vault) AddURI(ctx context.Context, uri string) (*otp.Token, error) {
	token, err := otp.ParseURI(uri)
	if err != nil {
		return nil, err
	}
	if err := v.Add(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// Remove deletes a stored token. Transient tokens are rejected.
func (v *Vault) Remove(ctx context.Context, token *otp.Token) error {
	if err := token.Delete(ctx); err != nil {
		return err
	}
	v.logger.Info("token removed", "token", token.String())
	return nil
}

// IncrementCounter advances an HOTP token's counter and persists it.
// Called after a code has been shown so the next code differs.
func (v *Vault) IncrementCounter(ctx context.Context, token *otp.Token) error {
	if token.Type != otp.TypeHOTP || token.RowID == 0 {
		return nil
	}
	token.Counter++
	return v.store.Update(ctx, token)
}

// Import loads a FreeOTP backup file, optionally replacing the current
// contents, and returns the number of tokens imported.
func (v *Vault) Import(ctx context.Context, path string, deleteExisting bool) (int, error) {
	backup, err := store.ReadBackup(path)
	if err != nil {
		return 0, err
	}
	count, err := v.store.ImportBackup(ctx, backup, deleteExisting)
	if err != nil {
		return 0, err
	}
	v.logger.Info("backup imported", "path", path, "tokens", count)
	return count, nil
}

// Export writes all tokens to a FreeOTP backup file and returns the
// number of tokens exported.
func (v *Vault) Export(ctx context.Context, path string) (int, error) {
	backup, err := v.store.ExportBackup(ctx)
	if err != nil {
		return 0, err
	}
	if err := store.WriteBackup(path, backup); err != nil {
		return 0, err
	}
	v.logger.Info("backup exported", "path", path, "tokens", len(backup.Tokens))
	return len(backup.Tokens), nil
}
