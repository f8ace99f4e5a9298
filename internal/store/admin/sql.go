// Package adminstore is the SQL store behind the admin endpoints. It reuses
// the handler package's row/filter types to avoid a second set of DTOs.
package adminstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	handlers "github.com/openshelf/library-api/internal/api/handlers/admin"
)

type Store struct {
	DB *sql.DB
}

func New(db *sql.DB) handlers.Store { return &Store{DB: db} }

const userColumns = `id::text, email, username, role, status, date_of_birth, created_at`

func scanUser(row *sql.Row) (*handlers.UserRow, error) {
	var u handlers.UserRow
	var dob sql.NullTime
	if err := row.Scan(&u.ID, &u.Email, &u.Username, &u.Role, &u.Status, &dob, &u.CreatedAt); err != nil {
		return nil, err
	}
	if dob.Valid {
		u.DateOfBirth = &dob.Time
	}
	return &u, nil
}

func (s *Store) ListUsers(ctx context.Context, f handlers.ListFilter) ([]handlers.UserRow, int, error) {
	where := []string{"1=1"}
	args := []any{}
	i := 1

	if q := strings.TrimSpace(f.Query); q != "" {
		where = append(where, fmt.Sprintf("(email ILIKE $%d OR username ILIKE $%d)", i, i))
		args = append(args, "%"+q+"%")
		i++
	}
	if f.Role != "" {
		where = append(where, fmt.Sprintf("role = $%d", i))
		args = append(args, f.Role)
		i++
	}
	if f.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", i))
		args = append(args, f.Status)
		i++
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		userColumns, cond, i, i+1)
	args = append(args, f.Size, (f.Page-1)*f.Size)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]handlers.UserRow, 0, f.Size)
	for rows.Next() {
		var u handlers.UserRow
		var dob sql.NullTime
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.Role, &u.Status, &dob, &u.CreatedAt); err != nil {
			return nil, 0, err
		}
		if dob.Valid {
			u.DateOfBirth = &dob.Time
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

func (s *Store) GetUser(ctx context.Context, id string) (*handlers.UserRow, error) {
	return scanUser(s.DB.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *Store) SetUserStatus(ctx context.Context, id, status string) error {
	return s.exactlyOneUser(ctx, `UPDATE users SET status = $2, updated_at = now() WHERE id = $1`, id, status)
}

func (s *Store) SetUserRole(ctx context.Context, id, role string) error {
	return s.exactlyOneUser(ctx, `UPDATE users SET role = $2, updated_at = now() WHERE id = $1`, id, role)
}

// BumpTokenVersion invalidates every outstanding token for the user. Access
// tokens die on their next auth check, refresh tokens on their next use.
func (s *Store) BumpTokenVersion(ctx context.Context, id string) error {
	return s.exactlyOneUser(ctx,
		`UPDATE users SET token_version = COALESCE(token_version, 1) + 1, updated_at = now() WHERE id = $1`, id)
}

func (s *Store) exactlyOneUser(ctx context.Context, query string, args ...any) error {
	res, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ===== Stats =====

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}

func (s *Store) CountCatalog(ctx context.Context) (books, authors, libraries int, err error) {
	err = s.DB.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM books),
			(SELECT COUNT(*) FROM authors),
			(SELECT COUNT(*) FROM libraries)`).Scan(&books, &authors, &libraries)
	return books, authors, libraries, err
}

func (s *Store) CountSignupsLast24h(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE created_at >= now() - interval '24 hours'`).Scan(&n)
	return n, err
}

func (s *Store) AdminCount(ctx context.Context) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE role = 'admin' AND status = 'active'`).Scan(&n)
	return n, err
}

// ===== Audit =====

func (s *Store) InsertAudit(ctx context.Context, actorID, action, targetType, targetID string, detail any) error {
	var detailJSON []byte
	if detail != nil {
		b, err := json.Marshal(detail)
		if err != nil {
			return err
		}
		detailJSON = b
	}
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO audit_log (actor_id, action, target_type, target_id, detail)
		 VALUES (NULLIF($1,'')::uuid, $2, $3, NULLIF($4,''), $5)`,
		actorID, action, targetType, targetID, detailJSON)
	return err
}

func (s *Store) ListAudit(ctx context.Context, f handlers.AuditFilter) ([]handlers.AuditRow, int, error) {
	where := []string{"1=1"}
	args := []any{}
	i := 1

	add := func(cond string, val any) {
		where = append(where, fmt.Sprintf(cond, i))
		args = append(args, val)
		i++
	}
	if f.ActorID != "" {
		add("actor_id = $%d::uuid", f.ActorID)
	}
	if f.TargetID != "" {
		add("target_id = $%d", f.TargetID)
	}
	if f.TargetType != "" {
		add("target_type = $%d", f.TargetType)
	}
	if f.Action != "" {
		add("action = $%d", f.Action)
	}
	if f.Since != nil {
		add("created_at >= $%d", *f.Since)
	}
	if f.Until != nil {
		add("created_at < $%d", *f.Until)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM audit_log WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(
		`SELECT id, actor_id::text, action, target_type, target_id, detail, created_at
		 FROM audit_log WHERE %s ORDER BY id DESC LIMIT $%d OFFSET $%d`, cond, i, i+1)
	args = append(args, f.Size, (f.Page-1)*f.Size)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]handlers.AuditRow, 0, f.Size)
	for rows.Next() {
		var a handlers.AuditRow
		var actor, target sql.NullString
		var detail []byte
		if err := rows.Scan(&a.ID, &actor, &a.Action, &a.TargetType, &target, &detail, &a.CreatedAt); err != nil {
			return nil, 0, err
		}
		if actor.Valid {
			a.ActorID = &actor.String
		}
		if target.Valid {
			a.TargetID = &target.String
		}
		if len(detail) > 0 {
			var v any
			if json.Unmarshal(detail, &v) == nil {
				a.Detail = v
			}
		}
		out = append(out, a)
	}
	return out, total, rows.Err()
}
