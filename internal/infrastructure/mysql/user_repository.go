package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"art-auction/internal/domain"
)

const userColumns = `id, name, phone_number, email, last_session_id, created_at`

func (t *sqlTx) UserByPhone(ctx context.Context, phone string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE phone_number = ?`
	return t.scanUser(t.tx.QueryRowContext(ctx, query, phone))
}

func (t *sqlTx) UserByPhoneForUpdate(ctx context.Context, phone string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE phone_number = ? FOR UPDATE`
	return t.scanUser(t.tx.QueryRowContext(ctx, query, phone))
}

func (t *sqlTx) scanUser(row *sql.Row) (*domain.User, error) {
	var user domain.User
	var lastSessionID sql.NullString

	err := row.Scan(&user.ID, &user.Name, &user.PhoneNumber, &user.Email,
		&lastSessionID, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if lastSessionID.Valid {
		user.LastSessionID = &lastSessionID.String
	}
	return &user, nil
}

func (t *sqlTx) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
        INSERT INTO users (id, name, phone_number, email, created_at)
        VALUES (?, ?, ?, ?, ?)
    `
	_, err := t.tx.ExecContext(ctx, query,
		user.ID, user.Name, user.PhoneNumber, user.Email, user.CreatedAt)
	if isDuplicateEntry(err) {
		return fmt.Errorf("create user %s: %w", user.PhoneNumber, domain.ErrUserExists)
	}
	return err
}

func (t *sqlTx) SetLastSession(ctx context.Context, userID string, sessionID *string) error {
	query := `UPDATE users SET last_session_id = ? WHERE id = ?`
	_, err := t.tx.ExecContext(ctx, query, sessionID, userID)
	return err
}

func (t *sqlTx) SessionByID(ctx context.Context, id string) (*domain.Session, error) {
	query := `SELECT id, user_id, created_at, expires_at FROM sessions WHERE id = ?`

	var session domain.Session
	err := t.tx.QueryRowContext(ctx, query, id).Scan(
		&session.ID, &session.UserID, &session.CreatedAt, &session.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}

	return &session, nil
}

func (t *sqlTx) CreateSession(ctx context.Context, session *domain.Session) error {
	query := `
        INSERT INTO sessions (id, user_id, created_at, expires_at)
        VALUES (?, ?, ?, ?)
    `
	_, err := t.tx.ExecContext(ctx, query,
		session.ID, session.UserID, session.CreatedAt, session.ExpiresAt)
	return err
}

func (t *sqlTx) DeleteSession(ctx context.Context, id string) error {
	_, err := t.tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}
