// Package middleware はブログAPIで使用するGinミドルウェアを提供する。
//
// x-auth-token ヘッダーによるトークン認証、リクエストIDの付与、
// 構造化リクエストログ、パニックリカバリ、CORS設定を含む。
package middleware
