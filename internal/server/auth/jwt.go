// Package auth issues and checks the identity tokens a dialog session
// carries once the user has logged in.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/ermil/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims holds the account an identity token was issued for.
type Claims struct {
	jwt.RegisteredClaims
	AccountID string `json:"aid"`
	UserName  string `json:"name"`
}

// Identity is what a valid token proves.
type Identity struct {
	AccountID string
	UserName  string
}

func GenerateToken(id Identity, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
			Subject:   id.AccountID,
		},
		AccountID: id.AccountID,
		UserName:  id.UserName,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken validates the signature and expiry. Every failure is reported
// as common.ErrInvalidToken so callers can treat it as "not logged in".
func ParseToken(tokenString string, secretKey []byte) (Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, fmt.Errorf("token expired: %w", common.ErrInvalidToken)
		}
		return Identity{}, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}

	if !token.Valid || claims.AccountID == "" {
		return Identity{}, common.ErrInvalidToken
	}

	return Identity{AccountID: claims.AccountID, UserName: claims.UserName}, nil
}
