package store

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// setupTestStore はテスト用のインメモリStoreを生成する。
// 時刻は呼び出しごとに1秒ずつ進む。
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(t.Context(), ":memory:?_pragma=foreign_keys(1)", zerolog.Nop())
	if err != nil {
		t.Fatalf("Storeの作成に失敗: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var tick atomic.Int64
	s.now = func() time.Time {
		return base.Add(time.Duration(tick.Add(1)) * time.Second)
	}
	return s
}

// createTestUser はテスト用の利用者を登録する。
func createTestUser(t *testing.T, s *Store, email string) *User {
	t.Helper()

	u, err := s.CreateUser(t.Context(), NewUser{Name: "name-" + email, Email: email, PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("CreateUser()でエラーが発生: %v", err)
	}
	return u
}

// createTestPost はテスト用の投稿を作成する。
func createTestPost(t *testing.T, s *Store, author *User, in NewPost) *Post {
	t.Helper()

	in.AuthorID = author.ID
	in.AuthorName = author.Name
	p, err := s.CreatePost(t.Context(), in)
	if err != nil {
		t.Fatalf("CreatePost()でエラーが発生: %v", err)
	}
	return p
}

// TestOpen はデータベースの初期化を検証する。
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("マイグレーションが適用されること", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t)
		if err := s.Ping(t.Context()); err != nil {
			t.Fatalf("Ping()でエラーが発生: %v", err)
		}
		var n int
		if err := s.db.QueryRowContext(t.Context(), `SELECT COUNT(*) FROM schema_migrations`).Scan(&n); err != nil {
			t.Fatalf("schema_migrationsの取得に失敗: %v", err)
		}
		if n != 2 {
			t.Errorf("適用済みマイグレーション数 = %d, want 2", n)
		}
	})

	t.Run("キャンセル済みのコンテキストではエラーを返すこと", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(t.Context())
		cancel()
		if _, err := Open(ctx, ":memory:", zerolog.Nop()); err == nil {
			t.Error("キャンセル済みのコンテキストでエラーにならない")
		}
	})
}

// TestUsers は利用者の登録と取得を検証する。
func TestUsers(t *testing.T) {
	t.Parallel()

	t.Run("登録した利用者をIDとメールアドレスで取得できること", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t)
		u := createTestUser(t, s, "alice@example.com")
		if u.ID == "" {
			t.Fatal("IDが採番されていない")
		}
		if u.Developer {
			t.Error("登録直後に開発者権限が付与されている")
		}

		byID, err := s.GetUserByID(t.Context(), u.ID)
		if err != nil {
			t.Fatalf("GetUserByID()でエラーが発生: %v", err)
		}
		byEmail, err := s.GetUserByEmail(t.Context(), "alice@example.com")
		if err != nil {
			t.Fatalf("GetUserByEmail()でエラーが発生: %v", err)
		}
		if byID.ID != byEmail.ID || byID.PasswordHash != "hash" {
			t.Errorf("取得結果が一致しない: %+v / %+v", byID, byEmail)
		}
		if !byID.CreatedAt.Equal(u.CreatedAt) {
			t.Errorf("CreatedAt = %v, want %v", byID.CreatedAt, u.CreatedAt)
		}
	})

	t.Run("メールアドレスが重複する場合はErrDuplicateEmailを返すこと", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t)
		createTestUser(t, s, "dup@example.com")
		_, err := s.CreateUser(t.Context(), NewUser{Name: "other", Email: "dup@example.com", PasswordHash: "x"})
		if !errors.Is(err, ErrDuplicateEmail) {
			t.Errorf("err = %v, want ErrDuplicateEmail", err)
		}
	})

	t.Run("存在しない利用者はErrNotFoundを返すこと", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t)
		if _, err := s.GetUserByID(t.Context(), "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetUserByID() err = %v, want ErrNotFound", err)
		}
		if _, err := s.GetUserByEmail(t.Context(), "missing@example.com"); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetUserByEmail() err = %v, want ErrNotFound", err)
		}
		if _, err := s.SetDeveloper(t.Context(), "missing@example.com", true); !errors.Is(err, ErrNotFound) {
			t.Errorf("SetDeveloper() err = %v, want ErrNotFound", err)
		}
	})

	t.Run("開発者権限を付与できること", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t)
		u := createTestUser(t, s, "dev@example.com")
		promoted, err := s.SetDeveloper(t.Context(), "dev@example.com", true)
		if err != nil {
			t.Fatalf("SetDeveloper()でエラーが発生: %v", err)
		}
		if !promoted.Developer || promoted.ID != u.ID {
			t.Errorf("SetDeveloper() = %+v, want developer", promoted)
		}
	})
}

// TestPosts は投稿の作成・取得・更新・削除を検証する。
func TestPosts(t *testing.T) {
	t.Parallel()

	t.Run("カテゴリ未指定の場合はgeneralになること", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t)
		author := createTestUser(t, s, "author@example.com")
		p := createTestPost(t, s, author, NewPost{Title: "T", Body: "B"})

		got, err := s.GetPost(t.Context(), p.ID)
		if err != nil {
			t.Fatalf("GetPost()でエラーが発生: %v", err)
		}
		if got.Category != DefaultCategory {
			t.Errorf("Category = %q, want %q", got.Category, DefaultCategory)
		}
		if got.AuthorName != author.Name {
			t.Errorf("AuthorName = %q, want %q", got.AuthorName, author.Name)
		}
		if got.Comments == nil || len(got.Comments) != 0 {
			t.Errorf("Comments = %v, want empty slice", got.Comments)
		}
	})

	t.Run("一覧は新しい順で非公開投稿は本人にのみ含まれること", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t)
		author := createTestUser(t, s, "author@example.com")
		other := createTestUser(t, s, "other@example.com")
		first := createTestPost(t, s, author, NewPost{Title: "first", Body: "b", Category: "go"})
		secret := createTestPost(t, s, author, NewPost{Title: "secret", Body: "b", Private: true})
		last := createTestPost(t, s, author, NewPost{Title: "last", Body: "b"})

		tests := []struct {
			name   string
			params ListParams
			want   []string
		}{
			{name: "匿名", params: ListParams{}, want: []string{last.ID, first.ID}},
			{name: "他人", params: ListParams{ViewerID: other.ID}, want: []string{last.ID, first.ID}},
			{name: "本人", params: ListParams{ViewerID: author.ID}, want: []string{last.ID, secret.ID, first.ID}},
			{name: "カテゴリ指定", params: ListParams{Category: "go"}, want: []string{first.ID}},
			{name: "該当なし", params: ListParams{Category: "none"}, want: []string{}},
		}
		for _, tt := range tests {
			posts, err := s.ListPosts(t.Context(), tt.params)
			if err != nil {
				t.Fatalf("%s: ListPosts()でエラーが発生: %v", tt.name, err)
			}
			got := make([]string, len(posts))
			for i, p := range posts {
				got[i] = p.ID
			}
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("%s: ListPosts() = %v, want %v", tt.name, got, tt.want)
			}
		}
	})

	t.Run("一覧にコメントが含まれること", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t)
		author := createTestUser(t, s, "author@example.com")
		p1 := createTestPost(t, s, author, NewPost{Title: "1", Body: "b"})
		createTestPost(t, s, author, NewPost{Title: "2", Body: "b"})
		if _, err := s.AddComment(t.Context(), p1.ID, author.ID, "hello"); err != nil {
			t.Fatalf("AddComment()でエラーが発生: %v", err)
		}

		posts, err := s.ListPosts(t.Context(), ListParams{})
		if err != nil {
			t.Fatalf("ListPosts()でエラーが発生: %v", err)
		}
		for _, p := range posts {
			want := 0
			if p.ID == p1.ID {
				want = 1
			}
			if len(p.Comments) != want {
				t.Errorf("投稿%sのコメント数 = %d, want %d", p.Title, len(p.Comments), want)
			}
		}
	})

	t.Run("指定した項目のみ更新されること", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t)
		author := createTestUser(t, s, "author@example.com")
		p := createTestPost(t, s, author, NewPost{Title: "old", Body: "body", Category: "go", Image: "https://example.com/a.png"})

		title := "new"
		private := true
		got, err := s.UpdatePost(t.Context(), p.ID, PostUpdate{Title: &title, Private: &private})
		if err != nil {
			t.Fatalf("UpdatePost()でエラーが発生: %v", err)
		}
		if got.Title != "new" || !got.Private {
			t.Errorf("更新が反映されていない: %+v", got)
		}
		if got.Body != "body" || got.Category != "go" || got.Image != "https://example.com/a.png" {
			t.Errorf("未指定の項目が変更された: %+v", got)
		}
		if !got.UpdatedAt.After(p.UpdatedAt) {
			t.Errorf("UpdatedAt = %v, want after %v", got.UpdatedAt, p.UpdatedAt)
		}
	})

	t.Run("存在しない投稿の更新と削除はErrNotFoundを返すこと", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t)
		title := "x"
		if _, err := s.UpdatePost(t.Context(), "missing", PostUpdate{Title: &title}); !errors.Is(err, ErrNotFound) {
			t.Errorf("UpdatePost() err = %v, want ErrNotFound", err)
		}
		if err := s.DeletePost(t.Context(), "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("DeletePost() err = %v, want ErrNotFound", err)
		}
		if _, err := s.GetPost(t.Context(), "missing"); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetPost() err = %v, want ErrNotFound", err)
		}
	})

	t.Run("投稿の削除でコメントも削除されること", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t)
		author := createTestUser(t, s, "author@example.com")
		p := createTestPost(t, s, author, NewPost{Title: "t", Body: "b"})
		withComment, err := s.AddComment(t.Context(), p.ID, author.ID, "c")
		if err != nil {
			t.Fatalf("AddComment()でエラーが発生: %v", err)
		}

		if err := s.DeletePost(t.Context(), p.ID); err != nil {
			t.Fatalf("DeletePost()でエラーが発生: %v", err)
		}
		if _, err := s.GetPost(t.Context(), p.ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("削除後のGetPost() err = %v, want ErrNotFound", err)
		}
		if _, err := s.GetComment(t.Context(), p.ID, withComment.Comments[0].ID); !errors.Is(err, ErrNotFound) {
			t.Errorf("削除後のGetComment() err = %v, want ErrNotFound", err)
		}
	})
}

// TestComments はコメントの追加・更新・削除を検証する。
func TestComments(t *testing.T) {
	t.Parallel()

	t.Run("追加したコメントが作成順に含まれること", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t)
		author := createTestUser(t, s, "author@example.com")
		reader := createTestUser(t, s, "reader@example.com")
		p := createTestPost(t, s, author, NewPost{Title: "t", Body: "b"})

		if _, err := s.AddComment(t.Context(), p.ID, reader.ID, "first"); err != nil {
			t.Fatalf("AddComment()でエラーが発生: %v", err)
		}
		got, err := s.AddComment(t.Context(), p.ID, author.ID, "second")
		if err != nil {
			t.Fatalf("AddComment()でエラーが発生: %v", err)
		}
		if len(got.Comments) != 2 {
			t.Fatalf("コメント数 = %d, want 2", len(got.Comments))
		}
		if got.Comments[0].Text != "first" || got.Comments[0].AuthorID != reader.ID {
			t.Errorf("Comments[0] = %+v", got.Comments[0])
		}
		if got.Comments[1].Text != "second" {
			t.Errorf("Comments[1] = %+v", got.Comments[1])
		}
	})

	t.Run("存在しない投稿へのコメントはErrNotFoundを返すこと", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t)
		author := createTestUser(t, s, "author@example.com")
		if _, err := s.AddComment(t.Context(), "missing", author.ID, "x"); !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("コメントを更新・削除できること", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t)
		author := createTestUser(t, s, "author@example.com")
		p := createTestPost(t, s, author, NewPost{Title: "t", Body: "b"})
		added, err := s.AddComment(t.Context(), p.ID, author.ID, "before")
		if err != nil {
			t.Fatalf("AddComment()でエラーが発生: %v", err)
		}
		commentID := added.Comments[0].ID

		updated, err := s.UpdateComment(t.Context(), p.ID, commentID, "after")
		if err != nil {
			t.Fatalf("UpdateComment()でエラーが発生: %v", err)
		}
		if updated.Comments[0].Text != "after" {
			t.Errorf("Text = %q, want %q", updated.Comments[0].Text, "after")
		}

		c, err := s.GetComment(t.Context(), p.ID, commentID)
		if err != nil {
			t.Fatalf("GetComment()でエラーが発生: %v", err)
		}
		if c.AuthorID != author.ID {
			t.Errorf("AuthorID = %q, want %q", c.AuthorID, author.ID)
		}

		deleted, err := s.DeleteComment(t.Context(), p.ID, commentID)
		if err != nil {
			t.Fatalf("DeleteComment()でエラーが発生: %v", err)
		}
		if len(deleted.Comments) != 0 {
			t.Errorf("削除後のコメント数 = %d, want 0", len(deleted.Comments))
		}
	})

	t.Run("別の投稿のIDを指定した場合はErrNotFoundを返すこと", func(t *testing.T) {
		t.Parallel()

		s := setupTestStore(t)
		author := createTestUser(t, s, "author@example.com")
		p1 := createTestPost(t, s, author, NewPost{Title: "1", Body: "b"})
		p2 := createTestPost(t, s, author, NewPost{Title: "2", Body: "b"})
		added, err := s.AddComment(t.Context(), p1.ID, author.ID, "c")
		if err != nil {
			t.Fatalf("AddComment()でエラーが発生: %v", err)
		}
		commentID := added.Comments[0].ID

		if _, err := s.GetComment(t.Context(), p2.ID, commentID); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetComment() err = %v, want ErrNotFound", err)
		}
		if _, err := s.UpdateComment(t.Context(), p2.ID, commentID, "x"); !errors.Is(err, ErrNotFound) {
			t.Errorf("UpdateComment() err = %v, want ErrNotFound", err)
		}
		if _, err := s.DeleteComment(t.Context(), p2.ID, commentID); !errors.Is(err, ErrNotFound) {
			t.Errorf("DeleteComment() err = %v, want ErrNotFound", err)
		}
	})
}
