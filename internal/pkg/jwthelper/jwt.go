package jwthelper

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTTL = 12 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserAgent string `json:"user_agent"`
	jwt.RegisteredClaims
}

func GenerateToken(key []byte, userID uint, userAgent string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserAgent: userAgent,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key)
	if err != nil {
		return "", fmt.Errorf("token.SignedString() -> %w", err)
	}

	return signed, nil
}

// ParseToken verifies the signature and expiry of tokenString and returns
// the user ID it was issued for.
func ParseToken(key []byte, tokenString string) (uint, *Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return 0, nil, ErrInvalidToken
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil || id == 0 {
		return 0, nil, ErrInvalidToken
	}

	return uint(id), claims, nil
}
