package middleware

import (
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/nao1215/blog/pkg/apperror"
	"github.com/rs/zerolog"
)

// Recovery はパニックからの回復を行うGinミドルウェアを返す。
// パニック発生時にスタックトレースをログに出力し、500エラーを返す。
func Recovery(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error().
					Str("method", c.Request.Method).
					Str("path", c.Request.URL.Path).
					Str("request_id", GetRequestID(c)).
					Interface("panic", r).
					Bytes("stack", debug.Stack()).
					Msg("パニックから回復しました")
				abort(c, apperror.Internal("内部サーバーエラーが発生しました", nil))
			}
		}()
		c.Next()
	}
}
