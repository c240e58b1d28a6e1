package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const commentColumns = `id, post_id, author_id, text, created_at, updated_at`

// AddComment は投稿にコメントを追加し、コメントを含む投稿を返す。
func (s *Store) AddComment(ctx context.Context, postID, authorID, text string) (*Post, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := postExists(ctx, tx, postID); err != nil {
		return nil, err
	}

	now := s.now()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO comments (`+commentColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		s.newID(), postID, authorID, text, now, now,
	); err != nil {
		return nil, fmt.Errorf("コメントの追加に失敗: %w", err)
	}

	p, err := getPost(ctx, tx, postID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("コミットに失敗: %w", err)
	}
	return p, nil
}

// GetComment は投稿に属するコメントを取得する。
func (s *Store) GetComment(ctx context.Context, postID, commentID string) (*Comment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE id = ? AND post_id = ?`, commentID, postID)
	return scanComment(row)
}

// UpdateComment はコメント本文を更新し、コメントを含む投稿を返す。
func (s *Store) UpdateComment(ctx context.Context, postID, commentID, text string) (*Post, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE comments SET text = ?, updated_at = ? WHERE id = ? AND post_id = ?`,
		text, s.now(), commentID, postID,
	)
	if err != nil {
		return nil, fmt.Errorf("コメントの更新に失敗: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}
	return s.GetPost(ctx, postID)
}

// DeleteComment はコメントを削除し、残りのコメントを含む投稿を返す。
func (s *Store) DeleteComment(ctx context.Context, postID, commentID string) (*Post, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM comments WHERE id = ? AND post_id = ?`, commentID, postID)
	if err != nil {
		return nil, fmt.Errorf("コメントの削除に失敗: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}
	return s.GetPost(ctx, postID)
}

func listComments(ctx context.Context, q querier, postID string) ([]Comment, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE post_id = ? ORDER BY created_at, rowid`, postID)
	if err != nil {
		return nil, fmt.Errorf("コメントの取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	comments := []Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

func postExists(ctx context.Context, q querier, postID string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM posts WHERE id = ?`, postID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("投稿の確認に失敗: %w", err)
	}
	return nil
}

func scanComment(row scanner) (*Comment, error) {
	var c Comment
	err := row.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Text, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("コメントの読み取りに失敗: %w", err)
	}
	return &c, nil
}
