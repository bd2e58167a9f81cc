// Package auth issues and verifies the bearer tokens the task API accepts.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrInvalidClaims = errors.New("invalid claims")
	ErrEmptySecret   = errors.New("jwt secret is empty")
)

// Issuer signs and verifies HS256 tokens carrying a user_id claim.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an Issuer. A ttl of zero means tokens never expire.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// GenerateToken returns a signed token for userID.
func (i *Issuer) GenerateToken(userID string) (string, error) {
	if len(i.secret) == 0 {
		return "", ErrEmptySecret
	}
	if userID == "" {
		return "", ErrInvalidClaims
	}
	now := i.now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"iat":     now.Unix(),
	}
	if i.ttl > 0 {
		claims["exp"] = now.Add(i.ttl).Unix()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// ExpiresAt returns when a token issued now would expire, or the zero time.
func (i *Issuer) ExpiresAt() time.Time {
	if i.ttl <= 0 {
		return time.Time{}
	}
	return i.now().Add(i.ttl)
}

// ParseToken verifies tokenStr and returns its user id.
func (i *Issuer) ParseToken(tokenStr string) (string, error) {
	if len(i.secret) == 0 {
		return "", ErrEmptySecret
	}
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(i.now))
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidClaims
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", ErrInvalidClaims
	}
	return userID, nil
}
