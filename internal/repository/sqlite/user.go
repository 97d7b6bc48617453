package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/garnizeh/questionnaire/pkg/models"
)

const userColumns = `id, login, email, updated, COALESCE(password_hash, '') AS password_hash`

func (r *SQLiteRepo) CreateUser(ctx context.Context, u *models.User) (int64, error) {
	if u == nil {
		return 0, fmt.Errorf("user: %w", errNilEntity)
	}

	res, err := r.conn.Exec(ctx, `INSERT INTO users (login, email, updated, password_hash) VALUES (?, ?, ?, ?)`, u.Login, u.Email, now(), u.PasswordHash)
	if err != nil {
		return 0, err
	}

	return res.LastInsertId()
}

func (r *SQLiteRepo) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE login = ?`, login)
}

func (r *SQLiteRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getUser(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

func (r *SQLiteRepo) getUser(ctx context.Context, q string, arg any) (*models.User, error) {
	var u models.User
	if err := r.conn.Get(ctx, &u, q, arg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
