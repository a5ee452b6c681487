// ABOUTME: FreeOTP-compatible backup serialization for the token store
// ABOUTME: Implements JSON import/export with transactional restore

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/andreax79/freakotp/internal/otp"
)

// Backup is the FreeOTP-compatible backup document.
type Backup struct {
	TokenOrder []string      `json:"tokenOrder"`
	Tokens     []BackupToken `json:"tokens"`
}

// BackupToken is a single token entry in a backup document. The secret
// is a list of signed bytes for FreeOTP compatibility. Pointer fields
// distinguish absent values from empty ones.
type BackupToken struct {
	Type      string  `json:"type"`
	Algo      string  `json:"algo"`
	Counter   *int64  `json:"counter"`
	Digits    int     `json:"digits"`
	IssuerInt *string `json:"issuerInt"`
	IssuerExt *string `json:"issuerExt"`
	Label     *string `json:"label"`
	Period    int     `json:"period"`
	Secret    []int   `json:"secret"`
	ExpDate   string  `json:"exp_date,omitempty"`
	PIN       string  `json:"pin,omitempty"`
	Serial    string  `json:"serial,omitempty"`
}

// token converts a backup entry into a Token, validating the type and
// secret encoding.
func (b *BackupToken) token() (*otp.Token, error) {
	tokenType, err := otp.ParseType(b.Type)
	if err != nil {
		return nil, err
	}
	token := otp.NewToken(tokenType)
	if b.Algo != "" {
		token.Algorithm = b.Algo
	}
	if b.Counter != nil {
		token.Counter = *b.Counter
	}
	if b.Digits > 0 {
		token.Digits = b.Digits
	}
	if b.IssuerInt != nil {
		token.IssuerInt = *b.IssuerInt
	}
	if b.IssuerExt != nil {
		token.IssuerExt = *b.IssuerExt
	}
	if token.IssuerInt != "" {
		token.Issuer = token.IssuerInt
	} else {
		token.Issuer = token.IssuerExt
	}
	if b.Label != nil {
		token.Label = *b.Label
	}
	if b.Period > 0 {
		token.Period = b.Period
	}
	token.ExpDate = b.ExpDate
	token.PIN = b.PIN
	token.Serial = b.Serial
	token.Secret = otp.SecretFromIntList(b.Secret)
	return token, nil
}

// ImportBackup loads all tokens from a backup inside a single
// transaction. Any invalid entry aborts the whole import. When
// deleteExisting is set the current contents are replaced.
func (s *SQLiteStore) ImportBackup(ctx context.Context, backup *Backup, deleteExisting bool) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("importing backup: %w", err)
	}
	defer tx.Rollback()

	if deleteExisting {
		if _, err := tx.ExecContext(ctx, "DELETE FROM token"); err != nil {
			return 0, fmt.Errorf("importing backup: %w", err)
		}
	}

	count := 0
	for i, entry := range backup.Tokens {
		token, err := entry.token()
		if err != nil {
			return 0, fmt.Errorf("importing backup entry %d: %w", i, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO token (type, algo, counter, digits, issuer_int, issuer_ext,
			                   label, period, exp_date, pin, serial, secret)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			insertArgs(token)...); err != nil {
			return 0, fmt.Errorf("importing backup entry %d: %w", i, err)
		}
		count++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("importing backup: %w", err)
	}
	s.logger.Info("backup imported", "tokens", count, "replaced", deleteExisting)
	return count, nil
}

// ExportBackup snapshots the store into a backup document. Issuer
// fields are exported verbatim, preserving any divergence between the
// internal and external issuer.
func (s *SQLiteStore) ExportBackup(ctx context.Context) (*Backup, error) {
	tokens, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	backup := &Backup{
		TokenOrder: make([]string, 0, len(tokens)),
		Tokens:     make([]BackupToken, 0, len(tokens)),
	}
	for _, token := range tokens {
		var counter *int64
		if token.Type == otp.TypeHOTP {
			c := token.Counter
			counter = &c
		}
		issuerInt := token.IssuerInt
		issuerExt := token.IssuerExt
		entry := BackupToken{
			Type:      string(token.Type),
			Algo:      token.Algorithm,
			Counter:   counter,
			Digits:    token.Digits,
			IssuerInt: &issuerInt,
			IssuerExt: &issuerExt,
			Label:     nullableString(token.Label),
			Period:    token.Period,
			Secret:    token.Secret.IntList(),
			ExpDate:   token.ExpDate,
			PIN:       token.PIN,
			Serial:    token.Serial,
		}
		backup.Tokens = append(backup.Tokens, entry)
		backup.TokenOrder = append(backup.TokenOrder, fmt.Sprintf("%s:%s", issuerInt, token.Label))
	}
	return backup, nil
}

// nullableString maps an absent value to JSON null.
func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ReadBackup parses a backup document from a JSON file.
func ReadBackup(path string) (*Backup, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading backup: %w", err)
	}
	defer f.Close()
	return DecodeBackup(f)
}

// DecodeBackup parses a backup document from a reader.
func DecodeBackup(r io.Reader) (*Backup, error) {
	var backup Backup
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("decoding backup: %w", err)
	}
	return &backup, nil
}

// WriteBackup writes a backup document to a JSON file.
func WriteBackup(path string, backup *Backup) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing backup: %w", err)
	}
	defer f.Close()
	if err := EncodeBackup(f, backup); err != nil {
		return err
	}
	return f.Close()
}

// EncodeBackup writes a backup document to a writer as indented JSON.
func EncodeBackup(w io.Writer, backup *Backup) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(backup); err != nil {
		return fmt.Errorf("encoding backup: %w", err)
	}
	return nil
}
