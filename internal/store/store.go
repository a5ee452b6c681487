// ABOUTME: Store interface and errors for token persistence
// ABOUTME: Defines the TokenStore contract implemented by the SQLite backend

package store

import (
	"context"
	"errors"

	"github.com/andreax79/freakotp/internal/otp"
)

// ErrNotFound is returned when a requested token does not exist
var ErrNotFound = errors.New("not found")

// TokenStore is the persistence contract for the token database.
// Tokens returned by List and Insert are bound to the store so that
// Token.Delete works without further plumbing.
type TokenStore interface {
	// List returns all tokens in insertion (rowid) order.
	List(ctx context.Context) ([]*otp.Token, error)

	// Insert persists a new token and binds it to its assigned rowid.
	Insert(ctx context.Context, token *otp.Token) error

	// Update rewrites all fields of an existing token.
	// Returns ErrNotFound if the rowid is unknown.
	Update(ctx context.Context, token *otp.Token) error

	// Delete removes a token by rowid. Deleting a missing rowid is not
	// an error.
	Delete(ctx context.Context, rowid int64) error

	// Truncate removes all tokens.
	Truncate(ctx context.Context) error

	// ImportBackup loads tokens from a backup, optionally replacing the
	// existing contents. Returns the number of tokens imported.
	ImportBackup(ctx context.Context, backup *Backup, deleteExisting bool) (int, error)

	// ExportBackup snapshots all tokens into a backup document.
	ExportBackup(ctx context.Context) (*Backup, error)

	// Close releases the underlying database handle.
	Close() error
}
