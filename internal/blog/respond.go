package blog

import (
	"github.com/gin-gonic/gin"
	"github.com/nao1215/blog/pkg/apperror"
	"github.com/nao1215/blog/pkg/middleware"
)

// respondError はエラーをJSONで返してリクエストを中断する。
// 内部エラーの原因はログにのみ出力する。
func (s *Server) respondError(c *gin.Context, err error) {
	appErr := apperror.From(err)
	if appErr.Kind == apperror.KindInternal {
		s.log.Error().
			Err(appErr.Cause).
			Str("request_id", middleware.GetRequestID(c)).
			Str("path", c.Request.URL.Path).
			Msg(appErr.Message)
	}
	c.AbortWithStatusJSON(appErr.Status(), appErr.Body())
}

// bindJSON はリクエストボディをdstにバインドする。
// 失敗した場合は400を返してfalseを返す。
func (s *Server) bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		s.respondError(c, apperror.FromBinding(err))
		return false
	}
	return true
}
