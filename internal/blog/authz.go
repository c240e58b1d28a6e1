package blog

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/blog/internal/store"
	"github.com/nao1215/blog/pkg/apperror"
	"github.com/nao1215/blog/pkg/middleware"
)

// contextKeyUser はGinコンテキストにストアから取得した利用者を格納するキー。
const contextKeyUser = "user"

var (
	errUnknownUser   = apperror.Authentication("利用者が存在しません")
	errNotDeveloper  = apperror.Authorization("開発者権限が必要です")
	errNotCommenter  = apperror.Authorization("このコメントを変更する権限がありません")
	errPostNotFound  = apperror.NotFound("投稿が見つかりません")
	errCommentAbsent = apperror.NotFound("コメントが見つかりません")
)

// requireDeveloper は開発者権限を確認するGinミドルウェアを返す。
// トークンのdevクレームは使わず、ストアから利用者を取得して判定する。
// Authの後に適用する必要がある。
func (s *Server) requireDeveloper() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.liveUser(c)
		if err != nil {
			s.respondError(c, err)
			return
		}
		if !user.Developer {
			s.respondError(c, errNotDeveloper)
			return
		}
		c.Set(contextKeyUser, user)
		c.Next()
	}
}

// liveUser はトークンが示す利用者をストアから取得する。
func (s *Server) liveUser(c *gin.Context) (*store.User, error) {
	if v, ok := c.Get(contextKeyUser); ok {
		if user, ok := v.(*store.User); ok {
			return user, nil
		}
	}

	userID := middleware.GetUserID(c)
	if userID == "" {
		return nil, middleware.ErrMissingHeader
	}
	user, err := s.store.GetUserByID(c.Request.Context(), userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errUnknownUser
	}
	if err != nil {
		return nil, apperror.Internal("利用者の取得に失敗しました", err)
	}
	return user, nil
}

// canView は閲覧者が投稿を参照できるかを返す。非公開投稿は投稿者のみ参照できる。
func canView(p *store.Post, viewerID string) bool {
	return !p.Private || p.AuthorID == viewerID
}
