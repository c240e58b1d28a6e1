// Package password はパスワードのハッシュ化と照合を提供する。
//
// 既存ユーザーのハッシュと互換性を保つため、既定では塩なしの
// SHA-512 → 16進文字列 → Base64 形式（legacy）を使う。
// 設定で bcrypt を選択でき、照合時はダイジェストの接頭辞で方式を判別する。
package password
