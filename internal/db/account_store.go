package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Account is the stored user account row in a user database.
type Account struct {
	UserID       string
	Email        string
	PasswordHash sql.NullString
	DisplayName  sql.NullString
	CreatedAt    int64
	LastLogin    sql.NullInt64
}

// CreateAccount inserts the account record for this user database.
func (u *UserDB) CreateAccount(ctx context.Context, acct Account) error {
	_, err := u.db.ExecContext(ctx, `
		INSERT INTO account (user_id, email, password_hash, display_name, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, acct.UserID, acct.Email, acct.PasswordHash, acct.DisplayName, acct.CreatedAt)
	if err != nil {
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

// GetAccountByEmail fetches the account record by email.
func (u *UserDB) GetAccountByEmail(ctx context.Context, email string) (Account, error) {
	var acct Account
	err := u.db.QueryRowContext(ctx, `
		SELECT user_id, email, password_hash, display_name, created_at, last_login
		FROM account WHERE email = ?
	`, email).Scan(&acct.UserID, &acct.Email, &acct.PasswordHash, &acct.DisplayName, &acct.CreatedAt, &acct.LastLogin)
	if err != nil {
		return Account{}, err
	}
	return acct, nil
}

// GetAccount fetches the account record by user ID.
func (u *UserDB) GetAccount(ctx context.Context, userID string) (Account, error) {
	var acct Account
	err := u.db.QueryRowContext(ctx, `
		SELECT user_id, email, password_hash, display_name, created_at, last_login
		FROM account WHERE user_id = ?
	`, userID).Scan(&acct.UserID, &acct.Email, &acct.PasswordHash, &acct.DisplayName, &acct.CreatedAt, &acct.LastLogin)
	if err != nil {
		return Account{}, err
	}
	return acct, nil
}

// UpdateAccountPasswordHash replaces the stored password hash.
func (u *UserDB) UpdateAccountPasswordHash(ctx context.Context, userID, passwordHash string) error {
	_, err := u.db.ExecContext(ctx, `
		UPDATE account SET password_hash = ? WHERE user_id = ?
	`, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("update password hash: %w", err)
	}
	return nil
}

// TouchLastLogin records the most recent successful login time.
func (u *UserDB) TouchLastLogin(ctx context.Context, userID string, when int64) error {
	_, err := u.db.ExecContext(ctx, `
		UPDATE account SET last_login = ? WHERE user_id = ?
	`, when, userID)
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}
