package authorization

import (
	"time"

	"github.com/cristalhq/jwt/v4"

	"github.com/jcchakradhar/homenest/domain"
)

const TokenDuration = 24 * time.Hour

// GenerateJWT issues an HS256 token carrying the canonical identity claims.
func GenerateJWT(user *domain.User, key []byte) (string, error) {
	signer, err := jwt.NewSignerHS(jwt.HS256, key)
	if err != nil {
		return "", err
	}

	builder := jwt.NewBuilder(signer)

	claims := &domain.Claims{
		UserID:    user.ID.Hex(),
		Username:  user.Username,
		Email:     user.Email,
		Role:      "User",
		ExpiresAt: time.Now().Add(TokenDuration),
	}

	token, err := builder.Build(claims)
	if err != nil {
		return "", err
	}

	return token.String(), nil
}

// ParseClaims verifies the token signature and decodes its claims.
func ParseClaims(tokenString string, key []byte) (*domain.Claims, error) {
	verifier, err := jwt.NewVerifierHS(jwt.HS256, key)
	if err != nil {
		return nil, err
	}

	var claims domain.Claims
	err = jwt.ParseClaims([]byte(tokenString), verifier, &claims)
	if err != nil {
		return nil, err
	}

	return &claims, nil
}
