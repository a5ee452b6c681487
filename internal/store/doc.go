// ABOUTME: Package documentation for the token persistence layer
// ABOUTME: Describes the SQLite schema and the backup format

// Package store persists tokens in a local SQLite database.
//
// # Schema
//
// Tokens live in a single "token" table keyed by SQLite's implicit
// rowid. The schema is created on open and matches the FreakOTP
// database layout, so existing databases can be opened directly. The
// counter column is NULL for tokens that do not use one.
//
// # Backups
//
// The Backup type mirrors the FreeOTP backup JSON document, with
// secrets encoded as lists of byte values. Imports run in a single
// transaction and abort entirely on the first invalid entry.
package store
