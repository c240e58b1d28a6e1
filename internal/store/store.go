// Package store はブログの利用者・投稿・コメントをSQLiteに永続化する。
//
// スキーマは migrations/ 配下のSQLを embed して起動時に適用する。
// すべての操作は1文または1トランザクションで完結する。
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nao1215/blog/pkg/migration"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DefaultDSN はファイルベースのデータベースの既定接続文字列。
const DefaultDSN = "file:blog.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

// Store はSQLiteを用いたブログデータのストア。
type Store struct {
	// db はSQLiteデータベース接続。
	db *sql.DB
	// now は時刻の取得関数。テストで差し替える。
	now func() time.Time
	// newID はIDの生成関数。
	newID func() string
}

// Open はデータベースに接続し、未適用のマイグレーションを適用する。
func Open(ctx context.Context, dsn string, log zerolog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}
	// インメモリDBは接続ごとに別のデータベースになるため1接続に制限する
	if isMemoryDSN(dsn) {
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("データベースへの疎通確認に失敗: %w", err)
	}

	n, err := migration.Run(ctx, db, migrationsFS, "migrations", log)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("マイグレーションに失敗: %w", err)
	}
	log.Debug().Int("applied", n).Msg("スキーマを確認しました")

	return New(db), nil
}

// New は接続済みのデータベースからStoreを生成する。
// スキーマは適用済みである必要がある。
func New(db *sql.DB) *Store {
	return &Store{
		db:    db,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
}

// Ping はデータベースへの疎通を確認する。
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close はデータベース接続を閉じる。
func (s *Store) Close() error {
	return s.db.Close()
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
