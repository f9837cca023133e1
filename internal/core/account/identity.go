// Package account 處理使用者身分與收藏食譜
package account

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"ulam-ai/internal/infrastructure/config"
	"ulam-ai/internal/pkg/common"

	"github.com/golang-jwt/jwt/v5"
)

// Identity 已驗證的使用者
type Identity struct {
	UserID         string
	Email          string
	EmailConfirmed bool
}

// CanSave 只有確認過信箱的使用者可以收藏
func (i *Identity) CanSave() bool {
	return i != nil && i.UserID != "" && i.EmailConfirmed
}

// Claims 身分權杖內容
type Claims struct {
	Email            string       `json:"email"`
	EmailConfirmedAt string       `json:"email_confirmed_at,omitempty"`
	UserMetadata     userMetadata `json:"user_metadata"`
	jwt.RegisteredClaims
}

type userMetadata struct {
	EmailVerified bool `json:"email_verified"`
}

// Verifier 以 HS256 驗證身分權杖
type Verifier struct {
	secret   []byte
	issuer   string
	audience string
}

// NewVerifier 創建權杖驗證器，未設定密鑰時回傳 nil
func NewVerifier(cfg *config.AuthConfig) *Verifier {
	if cfg == nil || cfg.JWTSecret == "" {
		return nil
	}
	return &Verifier{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
	}
}

// Verify 驗證權杖並取出身分
func (v *Verifier) Verify(tokenString string) (*Identity, error) {
	if v == nil {
		return nil, common.ErrUnauthorized.Wrap(errors.New("identity verification is not configured"))
	}
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return nil, common.ErrUnauthorized
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, common.ErrUnauthorized.Wrap(err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, common.ErrUnauthorized.Wrap(errors.New("token has no subject"))
	}

	return &Identity{
		UserID:         claims.Subject,
		Email:          claims.Email,
		EmailConfirmed: claims.EmailConfirmedAt != "" || claims.UserMetadata.EmailVerified,
	}, nil
}

// Issue 簽發權杖，供本機開發與測試使用
func (v *Verifier) Issue(identity Identity, ttl time.Duration) (string, error) {
	if v == nil {
		return "", errors.New("identity verification is not configured")
	}
	now := time.Now()
	claims := Claims{
		Email: identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if v.audience != "" {
		claims.Audience = jwt.ClaimStrings{v.audience}
	}
	if identity.EmailConfirmed {
		claims.EmailConfirmedAt = now.UTC().Format(time.RFC3339)
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
