package blog

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/nao1215/blog/internal/config"
	"github.com/nao1215/blog/internal/store"
	"github.com/nao1215/blog/pkg/apperror"
	"github.com/nao1215/blog/pkg/middleware"
	"github.com/nao1215/blog/pkg/password"
	"github.com/nao1215/blog/pkg/token"
	"github.com/rs/zerolog"
)

// serviceName はヘルスチェックとログに使うサービス名。
const serviceName = "blog"

var registerValidatorOnce sync.Once

// Server はブログAPIのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// store は利用者・投稿・コメントの永続化先。
	store *store.Store
	// tokens はトークンの発行と検証を行う。
	tokens *token.Service
	// hasher は新規登録時のパスワードハッシュを計算する。
	hasher *password.Hasher
	// log は構造化ロガー。
	log zerolog.Logger
	// addr はリッスンアドレス。
	addr string
	// shutdownTimeout はグレースフルシャットダウンの待ち時間。
	shutdownTimeout time.Duration
}

// NewServer は新しいブログサーバーを生成する。
func NewServer(cfg *config.Config, st *store.Store, log zerolog.Logger) (*Server, error) {
	hasher, err := password.NewHasher(password.Scheme(cfg.PasswordScheme))
	if err != nil {
		return nil, fmt.Errorf("パスワードハッシュの初期化に失敗: %w", err)
	}

	registerValidatorOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			apperror.UseJSONFieldNames(v)
		}
	})

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(log))
	// パニック時もリクエストログに500として残るようRequestLoggerの内側で回復する
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORSOrigins))

	s := &Server{
		router:          router,
		store:           st,
		tokens:          token.NewService(cfg.JWTSecret),
		hasher:          hasher,
		log:             log,
		addr:            cfg.Addr(),
		shutdownTimeout: cfg.ShutdownTimeout,
	}
	s.setupRoutes()

	return s, nil
}

// Handler はHTTPハンドラを返す。
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run はHTTPサーバーを起動し、ctxがキャンセルされるまで待つ。
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("%s のバインドに失敗: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve はlnでリクエストを受け付ける。
// ctxがキャンセルされると処理中のリクエストを待ってから停止する。
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()
	s.log.Info().Str("addr", ln.Addr().String()).Msg("ブログサービスを起動しました")

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTPサーバーが停止しました: %w", err)
	case <-ctx.Done():
	}

	s.log.Info().Msg("ブログサービスを停止します")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTPサーバーの停止に失敗: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	auth := middleware.Auth(s.tokens)
	optional := middleware.OptionalAuth(s.tokens)
	developer := s.requireDeveloper()

	// 利用者登録
	s.router.POST("/user", s.handleRegister())
	// ログイン
	s.router.POST("/login", s.handleLogin())
	// ログイン中の利用者取得
	s.router.GET("/login", auth, s.handleMe())

	posts := s.router.Group("/post")
	{
		posts.POST("", auth, developer, s.handleCreatePost())
		posts.GET("", optional, s.handleListPosts())
		posts.GET("/:id", optional, s.handleGetPost())
		posts.PUT("/:id", auth, developer, s.handleUpdatePost())
		posts.DELETE("/:id", auth, developer, s.handleDeletePost())

		// コメント
		posts.POST("/:id", auth, s.handleAddComment())
		posts.PUT("/:id/:cid", auth, s.handleUpdateComment())
		posts.DELETE("/:id/:cid", auth, s.handleDeleteComment())
	}

	// ヘルスチェック
	s.router.GET("/health", s.handleHealth())
}

// handleHealth はヘルスチェックを処理するハンドラを返す。
func (s *Server) handleHealth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.store.Ping(c.Request.Context()); err != nil {
			s.log.Error().Err(err).Msg("データベースに接続できません")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "service": serviceName})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": serviceName})
	}
}
