package blog

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/blog/internal/store"
	"github.com/nao1215/blog/pkg/apperror"
	"github.com/nao1215/blog/pkg/password"
	"github.com/nao1215/blog/pkg/token"
)

// errBadCredentials はメールアドレスの不一致とパスワードの不一致で共通のエラー。
var errBadCredentials = apperror.Authentication("メールアドレスまたはパスワードが正しくありません")

// registerRequest は利用者登録リクエストのJSON構造。
type registerRequest struct {
	// Name は表示名。
	Name string `json:"name" binding:"required"`
	// Email はメールアドレス。
	Email string `json:"email" binding:"required,email"`
	// Password は平文のパスワード。
	Password string `json:"password" binding:"required"`
}

// loginRequest はログインリクエストのJSON構造。
type loginRequest struct {
	// Email はメールアドレス。
	Email string `json:"email" binding:"required,email"`
	// Password は平文のパスワード。
	Password string `json:"password" binding:"required"`
}

// tokenResponse はトークンを返すレスポンスのJSON構造。
type tokenResponse struct {
	// Token は認証トークン。
	Token string `json:"token"`
}

// handleRegister は利用者登録を処理するハンドラを返す。
// 登録直後の利用者は開発者権限を持たない。
func (s *Server) handleRegister() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if !s.bindJSON(c, &req) {
			return
		}

		digest, err := s.hasher.Hash(req.Password)
		if errors.Is(err, password.ErrTooLong) {
			s.respondError(c, apperror.Validation("入力内容に誤りがあります",
				apperror.FieldError{Field: "password", Message: "72バイト以下で入力してください"}))
			return
		}
		if err != nil {
			s.respondError(c, apperror.Internal("パスワードのハッシュ化に失敗しました", err))
			return
		}

		user, err := s.store.CreateUser(c.Request.Context(), store.NewUser{
			Name:         req.Name,
			Email:        req.Email,
			PasswordHash: digest,
		})
		if errors.Is(err, store.ErrDuplicateEmail) {
			s.respondError(c, apperror.Validation("利用者は既に登録されています",
				apperror.FieldError{Field: "email", Message: "登録済みのメールアドレスです"}))
			return
		}
		if err != nil {
			s.respondError(c, apperror.Internal("利用者の登録に失敗しました", err))
			return
		}

		s.log.Info().Str("user_id", user.ID).Msg("利用者を登録しました")
		s.respondToken(c, user)
	}
}

// handleLogin はログインを処理するハンドラを返す。
func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if !s.bindJSON(c, &req) {
			return
		}

		user, err := s.store.GetUserByEmail(c.Request.Context(), req.Email)
		if errors.Is(err, store.ErrNotFound) {
			s.respondError(c, errBadCredentials)
			return
		}
		if err != nil {
			s.respondError(c, apperror.Internal("利用者の取得に失敗しました", err))
			return
		}

		if !s.hasher.Verify(req.Password, user.PasswordHash) {
			s.respondError(c, errBadCredentials)
			return
		}

		s.respondToken(c, user)
	}
}

// handleMe はログイン中の利用者をパスワードを除いて返すハンドラを返す。
func (s *Server) handleMe() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.liveUser(c)
		if errors.Is(err, errUnknownUser) {
			s.respondError(c, apperror.NotFound("利用者が見つかりません"))
			return
		}
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, user)
	}
}

// respondToken は利用者のトークンを発行して返す。
func (s *Server) respondToken(c *gin.Context, user *store.User) {
	tokenString, err := s.tokens.Issue(token.Identity{UserID: user.ID, Developer: user.Developer})
	if err != nil {
		s.respondError(c, apperror.Internal("トークンの発行に失敗しました", err))
		return
	}
	c.JSON(http.StatusOK, tokenResponse{Token: tokenString})
}
