// Package token はAPIの認証トークン（JWT）の発行と検証を提供する。
//
// トークンには利用者を特定する最小限のクレーム（sub, dev, iat, exp）のみを含め、
// パスワードハッシュ等の利用者レコードは埋め込まない。
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultTTL はトークンの有効期間（360000秒 = 100時間）。
const DefaultTTL = 360000 * time.Second

var (
	// ErrSigning は署名鍵が未設定などの理由でトークンを署名できない場合のエラー。
	ErrSigning = errors.New("トークンの署名に失敗しました")
	// ErrInvalidToken は署名不正・形式不正・期限切れのトークンを表すエラー。
	ErrInvalidToken = errors.New("トークンが無効です")
)

// Identity はトークンが表明する利用者。
type Identity struct {
	// UserID は利用者の一意識別子。
	UserID string
	// Developer は発行時点の開発者権限。権限判定には使わず、参考情報として扱う。
	Developer bool
}

// Claims はトークンのペイロード。
type Claims struct {
	jwt.RegisteredClaims
	// Developer は発行時点の開発者権限。
	Developer bool `json:"dev"`
}

// Service は共有秘密鍵でトークンを発行・検証する。
// 生成後は読み取り専用なので、複数のリクエストから並行に使ってよい。
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Option はServiceの設定を変更する。
type Option func(*Service)

// WithClock は現在時刻の取得関数を差し替える。
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithTTL は有効期間を差し替える。
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// NewService は新しいServiceを生成する。
func NewService(secret string, opts ...Option) *Service {
	s := &Service{
		secret: []byte(secret),
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue は利用者のトークンを発行する。
func (s *Service) Issue(id Identity) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("%w: 署名鍵が設定されていません", ErrSigning)
	}

	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Developer: id.Developer,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSigning, err)
	}
	return signed, nil
}

// Verify はトークンの署名と有効期限を検証し、表明された利用者を返す。
func (s *Service) Verify(tokenString string) (*Identity, error) {
	if len(s.secret) == 0 {
		return nil, fmt.Errorf("%w: 署名鍵が設定されていません", ErrInvalidToken)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &Identity{
		UserID:    claims.Subject,
		Developer: claims.Developer,
	}, nil
}
