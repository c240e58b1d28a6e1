package password

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Scheme はパスワードハッシュの方式を表す。
type Scheme string

const (
	// SchemeLegacy は塩なしSHA-512を16進文字列化してBase64符号化する方式。
	SchemeLegacy Scheme = "legacy"
	// SchemeBcrypt はbcryptによる塩付きハッシュ方式。
	SchemeBcrypt Scheme = "bcrypt"
)

// bcryptPrefix はbcryptダイジェストの共通接頭辞。legacy形式はBase64なので"$"を含まない。
const bcryptPrefix = "$2"

// ErrUnknownScheme は未対応のハッシュ方式が指定された場合のエラー。
var ErrUnknownScheme = errors.New("未対応のパスワードハッシュ方式です")

// ErrTooLong はハッシュ方式が扱える長さを超えるパスワードのエラー。bcryptは72バイトまで。
var ErrTooLong = errors.New("パスワードが長すぎます")

// LegacyHash はlegacy形式のダイジェストを返す。
// SHA-512の16進文字列（小文字）をテキストとしてBase64符号化する。
func LegacyHash(plaintext string) string {
	sum := sha512.Sum512([]byte(plaintext))
	return base64.StdEncoding.EncodeToString([]byte(hex.EncodeToString(sum[:])))
}

// Hasher は設定された方式でパスワードをハッシュ化する。
// 照合は方式に関係なく保存済みダイジェストの形式で判別する。
type Hasher struct {
	// scheme は新規ハッシュ化に使う方式。
	scheme Scheme
	// cost はbcryptのコスト。
	cost int
}

// NewHasher は指定方式のHasherを生成する。空文字はlegacyとして扱う。
func NewHasher(scheme Scheme) (*Hasher, error) {
	switch scheme {
	case "", SchemeLegacy:
		return &Hasher{scheme: SchemeLegacy}, nil
	case SchemeBcrypt:
		return &Hasher{scheme: SchemeBcrypt, cost: bcrypt.DefaultCost}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}
}

// Scheme は新規ハッシュ化に使う方式を返す。
func (h *Hasher) Scheme() Scheme {
	return h.scheme
}

// Hash はパスワードのダイジェストを返す。
func (h *Hasher) Hash(plaintext string) (string, error) {
	if h.scheme != SchemeBcrypt {
		return LegacyHash(plaintext), nil
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: %w", ErrTooLong, err)
	}
	if err != nil {
		return "", fmt.Errorf("bcryptハッシュの生成に失敗: %w", err)
	}
	return string(digest), nil
}

// Verify はパスワードが保存済みダイジェストと一致するかを返す。
func (h *Hasher) Verify(plaintext, stored string) bool {
	return Verify(plaintext, stored)
}

// Verify はパスワードが保存済みダイジェストと一致するかを返す。
// legacy形式は定数時間で比較する。
func Verify(plaintext, stored string) bool {
	if strings.HasPrefix(stored, bcryptPrefix) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plaintext)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(LegacyHash(plaintext)), []byte(stored)) == 1
}
