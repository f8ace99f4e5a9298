package auth

import (
	"context"
	"database/sql"
	"time"
)

type SQLStore struct {
	DB *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{DB: db} }

const userCols = `id::text, email, username, password_hash,
       COALESCE(token_version,1) AS token_version,
       status, role, date_of_birth, photo_key, created_at, updated_at`

func scanUser(row *sql.Row) (User, error) {
	var u User
	var dob sql.NullTime
	var photo sql.NullString
	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.TokenVersion,
		&u.Status, &u.Role, &dob, &photo, &u.CreatedAt, &u.UpdatedAt,
	)
	if dob.Valid {
		u.DateOfBirth = &dob.Time
	}
	if photo.Valid {
		u.PhotoKey = &photo.String
	}
	return u, err
}

func (s *SQLStore) CreateUser(ctx context.Context, email, username, passwordHash string, dateOfBirth *time.Time) (User, error) {
	const q = `
		INSERT INTO users (email, username, password_hash, date_of_birth)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userCols + `;`
	return scanUser(s.DB.QueryRowContext(ctx, q, email, username, passwordHash, dateOfBirth))
}

func (s *SQLStore) FindUserByEmail(ctx context.Context, email string) (User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE lower(email) = lower($1) LIMIT 1;`
	return scanUser(s.DB.QueryRowContext(ctx, q, email))
}

func (s *SQLStore) FindUserByID(ctx context.Context, id string) (User, error) {
	const q = `SELECT ` + userCols + ` FROM users WHERE id = $1 LIMIT 1;`
	return scanUser(s.DB.QueryRowContext(ctx, q, id))
}

func (s *SQLStore) UpdateUserPasswordHash(ctx context.Context, userID, newHash string) error {
	const q = `UPDATE users SET password_hash = $1, updated_at = now() WHERE id = $2;`
	_, err := s.DB.ExecContext(ctx, q, newHash, userID)
	return err
}

func (s *SQLStore) TokenVersion(ctx context.Context, userID string) (int, error) {
	var tv int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COALESCE(token_version,1) FROM users WHERE id = $1`, userID).Scan(&tv)
	return tv, err
}

func (s *SQLStore) BumpTokenVersion(ctx context.Context, userID string) error {
	_, err := s.DB.ExecContext(ctx,
		`UPDATE users SET token_version = COALESCE(token_version,1) + 1, updated_at = now() WHERE id = $1`, userID)
	return err
}

func (s *SQLStore) SetPasswordAndBump(ctx context.Context, userID, newHash string) error {
	_, err := s.DB.ExecContext(ctx,
		`UPDATE users
		   SET password_hash = $1, token_version = COALESCE(token_version,1) + 1, updated_at = now()
		 WHERE id = $2`, newHash, userID)
	return err
}
