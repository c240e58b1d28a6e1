// Package blog はブログAPIのHTTPサーバーを提供する。
//
// 利用者の登録とログイン、投稿とコメントのCRUDを扱う。
// 投稿の作成・編集・削除には開発者権限が必要で、権限は毎回ストアから最新の値を確認する。
// トークンは x-auth-token ヘッダーで受け取る。
package blog
