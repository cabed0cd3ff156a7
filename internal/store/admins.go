package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/stationtrail/api/internal/quest"
)

// AdminStore backs the content-admin login. Password hashes are bcrypt;
// comparison happens in the handler layer.
type AdminStore struct {
	db *sql.DB
}

// AdminSession identifies an authenticated admin.
type AdminSession struct {
	ID      string
	AdminID string
	Email   string
}

func (s *AdminStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM admins`).Scan(&n)
	return n, err
}

func (s *AdminStore) Create(ctx context.Context, email, passwordHash string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admins (id, email, password_hash, created_at)
		VALUES (?, ?, ?, ?)`,
		uuid.NewString(), email, passwordHash, formatTime(time.Now().UTC()),
	)
	return err
}

func (s *AdminStore) ByEmail(ctx context.Context, email string) (adminID, passwordHash string, err error) {
	err = s.db.QueryRowContext(ctx,
		`SELECT id, password_hash FROM admins WHERE email = ?`, email,
	).Scan(&adminID, &passwordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", quest.ErrNotFound
	}
	return adminID, passwordHash, err
}

func (s *AdminStore) CreateSession(ctx context.Context, adminID string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admin_sessions (id, admin_id, created_at) VALUES (?, ?, ?)`,
		id, adminID, formatTime(time.Now().UTC()),
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (s *AdminStore) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE id = ?`, sessionID)
	return err
}

func (s *AdminStore) FromSession(ctx context.Context, sessionID string) (AdminSession, error) {
	var sess AdminSession
	err := s.db.QueryRowContext(ctx, `
		SELECT s.id, a.id, a.email
		FROM admin_sessions s
		JOIN admins a ON a.id = s.admin_id
		WHERE s.id = ?`, sessionID,
	).Scan(&sess.ID, &sess.AdminID, &sess.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return AdminSession{}, quest.ErrNotFound
	}
	return sess, err
}
