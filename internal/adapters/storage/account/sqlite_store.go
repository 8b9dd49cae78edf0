package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"eventtracker/internal/adapters/storage"
	domain "eventtracker/internal/domain/account"
)

const columns = "id, email, password_hash, role, created_at, failed_logins, locked_until"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new account store.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an Account by its ID.
// POST: returns ErrNotFound when no row matches
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM account WHERE id = ?", id)
	return scanAccount(row)
}

// GetByEmail retrieves an Account by e-mail, ignoring case.
// POST: returns ErrNotFound when no row matches
func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+columns+" FROM account WHERE email = ?", domain.NormalizeEmail(email))
	return scanAccount(row)
}

// Save inserts or updates an Account.
// PRE: value has been validated
// POST: the row matches value; ErrDuplicateEmail when the address is taken by another id
func (s *SQLiteStore) Save(ctx context.Context, value domain.Account) error {
	var lockedUntil any
	if !value.LockedUntil.IsZero() {
		lockedUntil = value.LockedUntil.UTC().Format(time.RFC3339Nano)
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO account (`+columns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			email=excluded.email,
			password_hash=excluded.password_hash,
			role=excluded.role,
			failed_logins=excluded.failed_logins,
			locked_until=excluded.locked_until`,
		value.ID,
		domain.NormalizeEmail(value.Email),
		value.PasswordHash,
		value.Role,
		value.CreatedAt.UTC().Format(time.RFC3339Nano),
		value.FailedLogins,
		lockedUntil,
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed: account.email") {
		return fmt.Errorf("%w: %s", ErrDuplicateEmail, value.Email)
	}
	return err
}

// Count returns the total number of accounts.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM account").Scan(&n)
	return n, err
}

func scanAccount(row *sql.Row) (domain.Account, error) {
	var a domain.Account
	var createdAt string
	var lockedUntil sql.NullString
	err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Role, &createdAt, &a.FailedLogins, &lockedUntil)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, ErrNotFound
	}
	if err != nil {
		return domain.Account{}, err
	}
	if a.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return domain.Account{}, fmt.Errorf("account %s created_at: %w", a.ID, err)
	}
	if lockedUntil.Valid && lockedUntil.String != "" {
		if a.LockedUntil, err = time.Parse(time.RFC3339Nano, lockedUntil.String); err != nil {
			return domain.Account{}, fmt.Errorf("account %s locked_until: %w", a.ID, err)
		}
	}
	return a, nil
}
