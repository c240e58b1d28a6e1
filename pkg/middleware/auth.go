package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/nao1215/blog/pkg/apperror"
	"github.com/nao1215/blog/pkg/token"
)

// HeaderAuthToken は認証トークンを受け取るリクエストヘッダー名。
const HeaderAuthToken = "x-auth-token"

// contextKeyIdentity はGinコンテキストに認証済み利用者を格納するキー。
const contextKeyIdentity = "identity"

var (
	// ErrMissingHeader はトークンヘッダーが無い場合のエラー。
	ErrMissingHeader = apperror.Authentication("x-auth-token ヘッダーが必要です")
	// ErrInvalidToken はトークンの検証に失敗した場合のエラー。
	ErrInvalidToken = apperror.Authentication("トークンが無効です")
)

// TokenVerifier はトークンを検証して利用者を返す。
type TokenVerifier interface {
	Verify(tokenString string) (*token.Identity, error)
}

// Auth はx-auth-tokenヘッダーのトークンを検証するGinミドルウェアを返す。
// 検証に失敗した場合は401で中断し、後続のハンドラを呼ばない。
func Auth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := c.GetHeader(HeaderAuthToken)
		if tokenString == "" {
			abort(c, ErrMissingHeader)
			return
		}

		id, err := verifier.Verify(tokenString)
		if err != nil {
			abort(c, ErrInvalidToken)
			return
		}

		c.Set(contextKeyIdentity, id)
		c.Next()
	}
}

// OptionalAuth は有効なトークンがあれば利用者をコンテキストに設定するGinミドルウェアを返す。
// トークンが無い、または無効な場合は匿名のまま後続を実行する。
func OptionalAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if tokenString := c.GetHeader(HeaderAuthToken); tokenString != "" {
			if id, err := verifier.Verify(tokenString); err == nil {
				c.Set(contextKeyIdentity, id)
			}
		}
		c.Next()
	}
}

// GetIdentity はGinコンテキストから認証済み利用者を取得する。
func GetIdentity(c *gin.Context) (*token.Identity, bool) {
	v, ok := c.Get(contextKeyIdentity)
	if !ok {
		return nil, false
	}
	id, ok := v.(*token.Identity)
	return id, ok && id != nil
}

// GetUserID はGinコンテキストから利用者IDを取得する。未認証の場合は空文字列を返す。
func GetUserID(c *gin.Context) string {
	if id, ok := GetIdentity(c); ok {
		return id.UserID
	}
	return ""
}

// abort はエラーをJSONで返してリクエストを中断する。
func abort(c *gin.Context, err *apperror.Error) {
	c.AbortWithStatusJSON(err.Status(), err.Body())
}
