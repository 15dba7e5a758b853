package service

import (
	"errors"
	"strings"
	"time"

	"github.com/wasl-next/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

// 内部令牌校验错误
var (
	ErrTokenSecretMissing = errors.New("internal api jwt secret is not configured")
	ErrTokenInvalid       = errors.New("internal api token invalid")
)

// ServiceClaims 内部调用方 JWT 声明
type ServiceClaims struct {
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}

// IssueServiceToken 为内部调用方签发 JWT Token
func IssueServiceToken(cfg config.InternalAPIConfig, clientID string) (string, time.Time, error) {
	secret := strings.TrimSpace(cfg.JWTSecret)
	if secret == "" {
		return "", time.Time{}, ErrTokenSecretMissing
	}
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		return "", time.Time{}, ErrTokenInvalid
	}
	expireHours := cfg.ExpireHours
	if expireHours <= 0 {
		expireHours = 24
	}
	now := time.Now()
	expiresAt := now.Add(time.Duration(expireHours) * time.Hour)

	claims := ServiceClaims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseServiceToken 解析并校验内部调用方 JWT Token
func ParseServiceToken(cfg config.InternalAPIConfig, tokenString string) (*ServiceClaims, error) {
	secret := strings.TrimSpace(cfg.JWTSecret)
	if secret == "" {
		return nil, ErrTokenSecretMissing
	}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &ServiceClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || strings.TrimSpace(claims.ClientID) == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
