package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const userColumns = `id, name, email, password_hash, developer, created_at, updated_at`

// CreateUser は利用者を登録する。開発者権限は付与しない。
// メールアドレスが登録済みの場合は ErrDuplicateEmail を返す。
func (s *Store) CreateUser(ctx context.Context, in NewUser) (*User, error) {
	now := s.now()
	u := &User{
		ID:           s.newID(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Developer, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("利用者の登録に失敗: %w", err)
	}
	return u, nil
}

// GetUserByID はIDで利用者を取得する。
func (s *Store) GetUserByID(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByEmail はメールアドレスで利用者を取得する。
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// SetDeveloper はメールアドレスで指定した利用者の開発者権限を変更する。
func (s *Store) SetDeveloper(ctx context.Context, email string, developer bool) (*User, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET developer = ?, updated_at = ? WHERE email = ?`,
		developer, s.now(), email,
	)
	if err != nil {
		return nil, fmt.Errorf("開発者権限の更新に失敗: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("更新件数の取得に失敗: %w", err)
	} else if n == 0 {
		return nil, ErrNotFound
	}
	return s.GetUserByEmail(ctx, email)
}

func scanUser(row scanner) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Developer, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("利用者の取得に失敗: %w", err)
	}
	return &u, nil
}
