package blog

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/blog/internal/store"
	"github.com/nao1215/blog/pkg/apperror"
	"github.com/nao1215/blog/pkg/middleware"
)

// createPostRequest は投稿作成リクエストのJSON構造。
type createPostRequest struct {
	// Title はタイトル。
	Title string `json:"title" binding:"required"`
	// Body は本文。
	Body string `json:"body" binding:"required"`
	// Category はカテゴリ。省略時は general。
	Category string `json:"category" binding:"max=64"`
	// PrivatePost は投稿者のみに表示する場合にtrue。
	PrivatePost bool `json:"privatePost"`
	// Image は画像URL。
	Image string `json:"image" binding:"omitempty,url"`
}

// updatePostRequest は投稿更新リクエストのJSON構造。省略した項目は変更しない。
type updatePostRequest struct {
	// Title はタイトル。空文字は指定できない。
	Title *string `json:"title" binding:"omitempty,min=1"`
	// Body は本文。空文字は指定できない。
	Body *string `json:"body" binding:"omitempty,min=1"`
	// Category はカテゴリ。空文字は general に戻す。
	Category *string `json:"category" binding:"omitempty,max=64"`
	// PrivatePost は投稿者のみに表示する場合にtrue。
	PrivatePost *bool `json:"privatePost"`
	// Image は画像URL。空文字は画像を外す。
	Image *string `json:"image" binding:"omitempty,url|len=0"`
}

func (r updatePostRequest) empty() bool {
	return r.Title == nil && r.Body == nil && r.Category == nil && r.PrivatePost == nil && r.Image == nil
}

// handleCreatePost は投稿作成を処理するハンドラを返す。
// 投稿者の表示名は作成時点の値を保存する。
func (s *Server) handleCreatePost() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := s.liveUser(c)
		if err != nil {
			s.respondError(c, err)
			return
		}

		var req createPostRequest
		if !s.bindJSON(c, &req) {
			return
		}

		post, err := s.store.CreatePost(c.Request.Context(), store.NewPost{
			AuthorID:   user.ID,
			AuthorName: user.Name,
			Title:      req.Title,
			Body:       req.Body,
			Category:   req.Category,
			Private:    req.PrivatePost,
			Image:      req.Image,
		})
		if err != nil {
			s.respondError(c, apperror.Internal("投稿の作成に失敗しました", err))
			return
		}

		c.JSON(http.StatusOK, post)
	}
}

// handleListPosts は投稿一覧取得を処理するハンドラを返す。
// ログイン中であれば自分の非公開投稿も含める。
func (s *Server) handleListPosts() gin.HandlerFunc {
	return func(c *gin.Context) {
		posts, err := s.store.ListPosts(c.Request.Context(), store.ListParams{
			Category: c.Query("category"),
			ViewerID: middleware.GetUserID(c),
		})
		if err != nil {
			s.respondError(c, apperror.Internal("投稿一覧の取得に失敗しました", err))
			return
		}
		c.JSON(http.StatusOK, posts)
	}
}

// handleGetPost は投稿詳細取得を処理するハンドラを返す。
func (s *Server) handleGetPost() gin.HandlerFunc {
	return func(c *gin.Context) {
		post, err := s.visiblePost(c)
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, post)
	}
}

// handleUpdatePost は投稿更新を処理するハンドラを返す。
func (s *Server) handleUpdatePost() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updatePostRequest
		if !s.bindJSON(c, &req) {
			return
		}
		if req.empty() {
			s.respondError(c, apperror.Validation("更新する項目がありません"))
			return
		}

		post, err := s.store.UpdatePost(c.Request.Context(), c.Param("id"), store.PostUpdate{
			Title:    req.Title,
			Body:     req.Body,
			Category: req.Category,
			Private:  req.PrivatePost,
			Image:    req.Image,
		})
		if errors.Is(err, store.ErrNotFound) {
			s.respondError(c, errPostNotFound)
			return
		}
		if err != nil {
			s.respondError(c, apperror.Internal("投稿の更新に失敗しました", err))
			return
		}

		c.JSON(http.StatusOK, post)
	}
}

// handleDeletePost は投稿とそのコメントの削除を処理するハンドラを返す。
func (s *Server) handleDeletePost() gin.HandlerFunc {
	return func(c *gin.Context) {
		postID := c.Param("id")
		err := s.store.DeletePost(c.Request.Context(), postID)
		if errors.Is(err, store.ErrNotFound) {
			s.respondError(c, errPostNotFound)
			return
		}
		if err != nil {
			s.respondError(c, apperror.Internal("投稿の削除に失敗しました", err))
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "投稿を削除しました", "id": postID})
	}
}

// visiblePost はパスの投稿を取得する。閲覧できない非公開投稿は存在しないものとして扱う。
func (s *Server) visiblePost(c *gin.Context) (*store.Post, error) {
	post, err := s.store.GetPost(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		return nil, errPostNotFound
	}
	if err != nil {
		return nil, apperror.Internal("投稿の取得に失敗しました", err)
	}
	if !canView(post, middleware.GetUserID(c)) {
		return nil, errPostNotFound
	}
	return post, nil
}
