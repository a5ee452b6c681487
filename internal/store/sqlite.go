// ABOUTME: SQLite implementation of the TokenStore interface using modernc.org/sqlite
// ABOUTME: Provides token persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/andreax79/freakotp/internal/otp"
)

// SQLiteStore implements the TokenStore interface using SQLite
type SQLiteStore struct {
	db      *sql.DB
	logger  *slog.Logger
	securid otp.SecurIDComputer
}

// NewSQLiteStore creates a new SQLite token store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Debug("SQLite store initialized", "path", path)
	return s, nil
}

// SetSecurIDComputer installs an external code computer attached to
// SecurID tokens loaded from this store.
func (s *SQLiteStore) SetSecurIDComputer(c otp.SecurIDComputer) {
	s.securid = c
}

const tokenSchema = `
	CREATE TABLE IF NOT EXISTS token (
		type text,
		algo text,
		counter integer,
		digits integer,
		issuer_int text,
		issuer_ext text,
		label text,
		period integer,
		exp_date text,
		pin text,
		serial text,
		secret text
	);
`

// createSchema creates the token table if it doesn't exist
func (s *SQLiteStore) createSchema() error {
	_, err := s.db.Exec(tokenSchema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// List returns all tokens in rowid order, bound to this store.
func (s *SQLiteStore) List(ctx context.Context) ([]*otp.Token, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT rowid, type, algo, counter, digits, issuer_int, issuer_ext,
		       label, period, exp_date, pin, serial, secret
		FROM token ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("listing tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*otp.Token
	for rows.Next() {
		token, err := s.scanToken(rows)
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing tokens: %w", err)
	}
	return tokens, nil
}

// scanToken builds a Token from one row of the token table.
func (s *SQLiteStore) scanToken(rows *sql.Rows) (*otp.Token, error) {
	var (
		rowid     int64
		typ       string
		algo      sql.NullString
		counter   sql.NullInt64
		digits    sql.NullInt64
		issuerInt sql.NullString
		issuerExt sql.NullString
		label     sql.NullString
		period    sql.NullInt64
		expDate   sql.NullString
		pin       sql.NullString
		serial    sql.NullString
		secretB32 sql.NullString
	)
	if err := rows.Scan(&rowid, &typ, &algo, &counter, &digits, &issuerInt,
		&issuerExt, &label, &period, &expDate, &pin, &serial, &secretB32); err != nil {
		return nil, fmt.Errorf("scanning token row: %w", err)
	}

	tokenType, err := otp.ParseType(typ)
	if err != nil {
		return nil, fmt.Errorf("token %d: %w", rowid, err)
	}
	token := otp.NewToken(tokenType)
	if algo.Valid {
		token.Algorithm = algo.String
	}
	if counter.Valid {
		token.Counter = counter.Int64
	}
	if digits.Valid {
		token.Digits = int(digits.Int64)
	}
	token.IssuerInt = issuerInt.String
	token.IssuerExt = issuerExt.String
	if issuerInt.String != "" {
		token.Issuer = issuerInt.String
	} else {
		token.Issuer = issuerExt.String
	}
	token.Label = label.String
	if period.Valid {
		token.Period = int(period.Int64)
	}
	token.ExpDate = expDate.String
	token.PIN = pin.String
	token.Serial = serial.String
	if secretB32.Valid && secretB32.String != "" {
		secret, err := otp.SecretFromBase32(secretB32.String)
		if err != nil {
			return nil, fmt.Errorf("token %d: %w", rowid, err)
		}
		token.Secret = secret
	}
	token.SecurID = s.securid
	token.Bind(s, rowid)
	return token, nil
}

// Insert persists a new token and binds it to its rowid.
func (s *SQLiteStore) Insert(ctx context.Context, token *otp.Token) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO token (type, algo, counter, digits, issuer_int, issuer_ext,
		                   label, period, exp_date, pin, serial, secret)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		insertArgs(token)...)
	if err != nil {
		return fmt.Errorf("inserting token: %w", err)
	}
	rowid, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("inserting token: %w", err)
	}
	token.Bind(s, rowid)
	s.logger.Debug("token inserted", "rowid", rowid, "token", token.String())
	return nil
}

// Update rewrites all fields of an existing token.
func (s *SQLiteStore) Update(ctx context.Context, token *otp.Token) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE token SET type = ?, algo = ?, counter = ?, digits = ?,
		       issuer_int = ?, issuer_ext = ?, label = ?, period = ?,
		       exp_date = ?, pin = ?, serial = ?, secret = ?
		WHERE rowid = ?`,
		append(insertArgs(token), token.RowID)...)
	if err != nil {
		return fmt.Errorf("updating token %d: %w", token.RowID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating token %d: %w", token.RowID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a token by rowid. Missing rowids are ignored.
func (s *SQLiteStore) Delete(ctx context.Context, rowid int64) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM token WHERE rowid = ?", rowid); err != nil {
		return fmt.Errorf("deleting token %d: %w", rowid, err)
	}
	s.logger.Debug("token deleted", "rowid", rowid)
	return nil
}

// Truncate removes all tokens and resets rowid numbering.
func (s *SQLiteStore) Truncate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS token"); err != nil {
		return fmt.Errorf("truncating tokens: %w", err)
	}
	if err := s.createSchema(); err != nil {
		return fmt.Errorf("truncating tokens: %w", err)
	}
	s.logger.Debug("token table truncated")
	return nil
}

// insertArgs returns the column values for INSERT and UPDATE in schema
// order. The counter column is NULL for non-HOTP tokens.
func insertArgs(token *otp.Token) []any {
	var counter any
	if token.Type == otp.TypeHOTP {
		counter = token.Counter
	}
	return []any{
		string(token.Type),
		token.Algorithm,
		counter,
		token.Digits,
		nullString(token.IssuerInt),
		nullString(token.IssuerExt),
		nullString(token.Label),
		token.Period,
		nullString(token.ExpDate),
		nullString(token.PIN),
		nullString(token.Serial),
		token.Secret.Base32(),
	}
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
