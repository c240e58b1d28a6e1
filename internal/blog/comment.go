package blog

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/blog/internal/store"
	"github.com/nao1215/blog/pkg/apperror"
	"github.com/nao1215/blog/pkg/middleware"
)

// commentRequest はコメントの追加・更新リクエストのJSON構造。
type commentRequest struct {
	// Text はコメント本文。
	Text string `json:"text" binding:"required"`
}

// handleAddComment はコメント追加を処理するハンドラを返す。
// 閲覧できない投稿にはコメントできない。
func (s *Server) handleAddComment() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req commentRequest
		if !s.bindJSON(c, &req) {
			return
		}

		post, err := s.visiblePost(c)
		if err != nil {
			s.respondError(c, err)
			return
		}

		updated, err := s.store.AddComment(c.Request.Context(), post.ID, middleware.GetUserID(c), req.Text)
		if errors.Is(err, store.ErrNotFound) {
			s.respondError(c, errPostNotFound)
			return
		}
		if err != nil {
			s.respondError(c, apperror.Internal("コメントの追加に失敗しました", err))
			return
		}

		c.JSON(http.StatusOK, updated)
	}
}

// handleUpdateComment はコメント更新を処理するハンドラを返す。
// コメントした本人のみ更新できる。
func (s *Server) handleUpdateComment() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req commentRequest
		if !s.bindJSON(c, &req) {
			return
		}

		comment, err := s.findComment(c)
		if err != nil {
			s.respondError(c, err)
			return
		}
		if comment.AuthorID != middleware.GetUserID(c) {
			s.respondError(c, errNotCommenter)
			return
		}

		post, err := s.store.UpdateComment(c.Request.Context(), comment.PostID, comment.ID, req.Text)
		if errors.Is(err, store.ErrNotFound) {
			s.respondError(c, errCommentAbsent)
			return
		}
		if err != nil {
			s.respondError(c, apperror.Internal("コメントの更新に失敗しました", err))
			return
		}

		c.JSON(http.StatusOK, post)
	}
}

// handleDeleteComment はコメント削除を処理するハンドラを返す。
// コメントした本人と開発者が削除できる。
func (s *Server) handleDeleteComment() gin.HandlerFunc {
	return func(c *gin.Context) {
		comment, err := s.findComment(c)
		if err != nil {
			s.respondError(c, err)
			return
		}
		if comment.AuthorID != middleware.GetUserID(c) {
			user, err := s.liveUser(c)
			if err != nil {
				s.respondError(c, err)
				return
			}
			if !user.Developer {
				s.respondError(c, errNotCommenter)
				return
			}
		}

		post, err := s.store.DeleteComment(c.Request.Context(), comment.PostID, comment.ID)
		if errors.Is(err, store.ErrNotFound) {
			s.respondError(c, errCommentAbsent)
			return
		}
		if err != nil {
			s.respondError(c, apperror.Internal("コメントの削除に失敗しました", err))
			return
		}

		c.JSON(http.StatusOK, post)
	}
}

// findComment はパスの投稿に属するコメントを取得する。
func (s *Server) findComment(c *gin.Context) (*store.Comment, error) {
	post, err := s.visiblePost(c)
	if err != nil {
		return nil, err
	}

	comment, err := s.store.GetComment(c.Request.Context(), post.ID, c.Param("cid"))
	if errors.Is(err, store.ErrNotFound) {
		return nil, errCommentAbsent
	}
	if err != nil {
		return nil, apperror.Internal("コメントの取得に失敗しました", err)
	}
	return comment, nil
}
