package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const postColumns = `id, author_id, author_name, title, body, category, private, image, created_at, updated_at`

// querier は *sql.DB と *sql.Tx の共通インターフェース。
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// CreatePost は投稿を作成する。カテゴリが空の場合は DefaultCategory を使う。
func (s *Store) CreatePost(ctx context.Context, in NewPost) (*Post, error) {
	now := s.now()
	p := &Post{
		ID:         s.newID(),
		AuthorID:   in.AuthorID,
		AuthorName: in.AuthorName,
		Title:      in.Title,
		Body:       in.Body,
		Category:   in.Category,
		Private:    in.Private,
		Image:      in.Image,
		Comments:   []Comment{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if p.Category == "" {
		p.Category = DefaultCategory
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO posts (`+postColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.AuthorID, p.AuthorName, p.Title, p.Body, p.Category, p.Private, p.Image, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("投稿の作成に失敗: %w", err)
	}
	return p, nil
}

// GetPost はコメントを含めて投稿を取得する。
func (s *Store) GetPost(ctx context.Context, id string) (*Post, error) {
	return getPost(ctx, s.db, id)
}

// ListPosts は投稿を新しい順に返す。
// 非公開投稿は params.ViewerID が投稿者と一致する場合のみ含める。
func (s *Store) ListPosts(ctx context.Context, params ListParams) ([]Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE (private = 0 OR author_id = ?)`
	args := []any{params.ViewerID}
	if params.Category != "" {
		query += ` AND category = ?`
		args = append(args, params.Category)
	}
	query += ` ORDER BY created_at DESC, rowid DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("投稿一覧の取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	posts := []Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("投稿一覧の取得に失敗: %w", err)
	}

	if err := s.attachComments(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// UpdatePost は投稿を部分更新し、更新後の投稿を返す。
func (s *Store) UpdatePost(ctx context.Context, id string, in PostUpdate) (*Post, error) {
	var sets []string
	var args []any
	if in.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *in.Title)
	}
	if in.Body != nil {
		sets = append(sets, "body = ?")
		args = append(args, *in.Body)
	}
	if in.Category != nil {
		category := *in.Category
		if category == "" {
			category = DefaultCategory
		}
		sets = append(sets, "category = ?")
		args = append(args, category)
	}
	if in.Private != nil {
		sets = append(sets, "private = ?")
		args = append(args, *in.Private)
	}
	if in.Image != nil {
		sets = append(sets, "image = ?")
		args = append(args, *in.Image)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, s.now(), id)

	res, err := s.db.ExecContext(ctx,
		`UPDATE posts SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("投稿の更新に失敗: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}
	return s.GetPost(ctx, id)
}

// DeletePost は投稿とそのコメントを削除する。
func (s *Store) DeletePost(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクション開始に失敗: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE post_id = ?`, id); err != nil {
		return fmt.Errorf("コメントの削除に失敗: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("投稿の削除に失敗: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return err
	}
	return tx.Commit()
}

func getPost(ctx context.Context, q querier, id string) (*Post, error) {
	row := q.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id)
	p, err := scanPost(row)
	if err != nil {
		return nil, err
	}

	comments, err := listComments(ctx, q, id)
	if err != nil {
		return nil, err
	}
	p.Comments = comments
	return p, nil
}

// attachComments は投稿一覧にコメントをまとめて読み込む。
func (s *Store) attachComments(ctx context.Context, posts []Post) error {
	if len(posts) == 0 {
		return nil
	}

	index := make(map[string]int, len(posts))
	placeholders := make([]string, len(posts))
	args := make([]any, len(posts))
	for i := range posts {
		posts[i].Comments = []Comment{}
		index[posts[i].ID] = i
		placeholders[i] = "?"
		args[i] = posts[i].ID
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+commentColumns+` FROM comments WHERE post_id IN (`+strings.Join(placeholders, ", ")+`)
		 ORDER BY created_at, rowid`, args...)
	if err != nil {
		return fmt.Errorf("コメントの取得に失敗: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return err
		}
		i := index[c.PostID]
		posts[i].Comments = append(posts[i].Comments, *c)
	}
	return rows.Err()
}

// scanner は *sql.Row と *sql.Rows の共通インターフェース。
type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (*Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.AuthorID, &p.AuthorName, &p.Title, &p.Body, &p.Category, &p.Private, &p.Image, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("投稿の読み取りに失敗: %w", err)
	}
	return &p, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新件数の取得に失敗: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
