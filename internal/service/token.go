package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Kiran8658/FSD-Even-project/internal/clock"
	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken 令牌缺失、签名不符或已过期
var ErrInvalidToken = errors.New("invalid or expired token")

const tokenIssuer = "learnpulse"

// TokenClaims 只携带账户 ID（Subject）
type TokenClaims struct {
	jwt.RegisteredClaims
}

// TokenIssuer 签发并校验 HS256 访问令牌
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	clock  clock.Clock
	parser *jwt.Parser
}

// NewTokenIssuer 构造 TokenIssuer；ttl<=0 时使用 72 小时
func NewTokenIssuer(secret string, ttl time.Duration, clk clock.Clock) *TokenIssuer {
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &TokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		clock:  clk,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(tokenIssuer),
			jwt.WithTimeFunc(clk.Now),
		),
	}
}

// Issue 为账户签发访问令牌
func (t *TokenIssuer) Issue(accountID string) (string, time.Time, error) {
	now := t.clock.Now()
	expiresAt := now.Add(t.ttl)
	claims := TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify 校验令牌并返回其中的账户 ID
func (t *TokenIssuer) Verify(token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidToken
	}

	parsed, err := t.parser.ParseWithClaims(token, &TokenClaims{}, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(*TokenClaims)
	if !ok || !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
