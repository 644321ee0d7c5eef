// Package auth issues and verifies service tokens: HS256 JWTs signed with
// the shared worker key and accepted in place of the raw X-API-Key header.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/memorylocks/internal/common"
)

// Issuer is written to and required in every service token.
const Issuer = "memorylocks"

// Claims are the registered claims of a service token; Subject names the
// calling worker.
type Claims struct {
	jwt.RegisteredClaims
}

func GenerateToken(subject string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    Issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies the signature, issuer and expiry and returns the
// subject. Expired tokens yield common.ErrTokenExpired, anything else
// common.ErrInvalidToken.
func ParseToken(tokenString string, secretKey []byte) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(Issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}

	if !token.Valid {
		return "", common.ErrInvalidToken
	}

	return claims.Subject, nil
}
