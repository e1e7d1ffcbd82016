// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package accounts persists user credentials in SQLite and handles the
// OTP email step of registration.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"
)

// Store manages the user credential database.
type Store struct {
	db *sql.DB
}

// dummyHash is compared against when the username does not exist, so a
// failed login takes the same time either way.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), bcrypt.DefaultCost)

// NewStore opens or creates the credential database at dbPath and creates
// the schema if it does not exist.
func NewStore(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS users (
		username TEXT PRIMARY KEY,
		password BLOB NOT NULL,
		email TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// Register creates a new account and reports whether it was created. A
// taken username returns false with no error and leaves the existing
// record untouched.
func (s *Store) Register(ctx context.Context, username, password, email string) (bool, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("hashing password: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (username, password, email) VALUES (?, ?, ?)`,
		username, hash, email,
	)
	if err != nil {
		return false, fmt.Errorf("inserting user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("checking insert result: %w", err)
	}
	return n == 1, nil
}

// Verify reports whether username and password name a valid account. An
// unknown username is indistinguishable from a wrong password: both
// return false after a hash comparison.
func (s *Store) Verify(ctx context.Context, username, password string) (bool, error) {
	var hash []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT password FROM users WHERE username = ?`, username,
	).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying user: %w", err)
	}

	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil, nil
}

// Email returns the address on file for username, or "" when the account
// does not exist.
func (s *Store) Email(ctx context.Context, username string) (string, error) {
	var email string
	err := s.db.QueryRowContext(ctx,
		`SELECT email FROM users WHERE username = ?`, username,
	).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("querying email: %w", err)
	}
	return email, nil
}
