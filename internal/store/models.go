package store

import "time"

// DefaultCategory は投稿カテゴリの既定値。
const DefaultCategory = "general"

// User はブログの利用者。
type User struct {
	// ID は利用者の一意識別子。
	ID string `json:"id"`
	// Name は表示名。
	Name string `json:"name"`
	// Email はログインに使うメールアドレス。
	Email string `json:"email"`
	// PasswordHash はパスワードのダイジェスト。レスポンスには含めない。
	PasswordHash string `json:"-"`
	// Developer は投稿の作成・編集・削除を許可する権限。
	Developer bool `json:"developer"`
	// CreatedAt は作成日時。
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt は更新日時。
	UpdatedAt time.Time `json:"updated_at"`
}

// Post はブログ投稿。
type Post struct {
	// ID は投稿の一意識別子。
	ID string `json:"id"`
	// AuthorID は投稿者のID。
	AuthorID string `json:"author_id"`
	// AuthorName は作成時点の投稿者の表示名。
	AuthorName string `json:"author_name"`
	// Title はタイトル。
	Title string `json:"title"`
	// Body は本文。
	Body string `json:"body"`
	// Category はカテゴリ。
	Category string `json:"category"`
	// Private は投稿者本人にのみ表示する場合にtrue。
	Private bool `json:"private"`
	// Image は画像URL。
	Image string `json:"image,omitempty"`
	// Comments は作成日時順のコメント。
	Comments []Comment `json:"comments"`
	// CreatedAt は作成日時。
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt は更新日時。
	UpdatedAt time.Time `json:"updated_at"`
}

// Comment は投稿へのコメント。
type Comment struct {
	// ID はコメントの一意識別子。
	ID string `json:"id"`
	// PostID はコメント先の投稿ID。
	PostID string `json:"post_id"`
	// AuthorID はコメントした利用者のID。
	AuthorID string `json:"author_id"`
	// Text は本文。
	Text string `json:"text"`
	// CreatedAt は作成日時。
	CreatedAt time.Time `json:"created_at"`
	// UpdatedAt は更新日時。
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser はユーザー作成の入力。
type NewUser struct {
	Name         string
	Email        string
	PasswordHash string
}

// NewPost は投稿作成の入力。
type NewPost struct {
	AuthorID   string
	AuthorName string
	Title      string
	Body       string
	Category   string
	Private    bool
	Image      string
}

// PostUpdate は投稿更新の入力。nilの項目は変更しない。
type PostUpdate struct {
	Title    *string
	Body     *string
	Category *string
	Private  *bool
	Image    *string
}

// ListParams は投稿一覧の絞り込み条件。
type ListParams struct {
	// Category が空でなければそのカテゴリのみ返す。
	Category string
	// ViewerID が空でなければその利用者の非公開投稿も含める。
	ViewerID string
}
