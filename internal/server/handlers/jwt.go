package handlers

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// contextKey is the type of context keys set by the auth middleware.
type contextKey string

// OwnerKey carries the authenticated owner through the request context.
const OwnerKey contextKey = "owner"

// JWTConfig configures token issuance and validation.
type JWTConfig struct {
	Secret   []byte
	TokenTTL time.Duration
}

// CustomClaims are the JWT claims issued by the server.
type CustomClaims struct {
	Owner string `json:"owner"`
	jwt.RegisteredClaims
}

// GenerateAccessToken creates a signed HS256 token for owner.
// Returns the token and its lifetime in seconds.
func GenerateAccessToken(cfg JWTConfig, owner string) (string, int64, error) {
	now := time.Now()

	claims := CustomClaims{
		Owner: owner,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "timevault",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(cfg.Secret)
	if err != nil {
		return "", 0, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, int64(cfg.TokenTTL.Seconds()), nil
}

// ValidateAccessToken validates and parses an access token.
func ValidateAccessToken(cfg JWTConfig, tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return cfg.Secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
