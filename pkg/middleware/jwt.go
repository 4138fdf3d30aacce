package middleware

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// HMACValidator returns a TokenValidator that verifies HS256-signed tokens
// with the given shared secret. The user ID is read from the "user_id" claim,
// falling back to "sub".
func HMACValidator(secret string) TokenValidator {
	return func(tokenString string) (*Claims, error) {
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil {
			return nil, fmt.Errorf("parse token: %w", err)
		}
		if !token.Valid {
			return nil, jwt.ErrTokenUnverifiable
		}

		mapClaims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return nil, fmt.Errorf("unexpected claims type")
		}

		userID, _ := mapClaims["user_id"].(string)
		if userID == "" {
			userID, _ = mapClaims["sub"].(string)
		}
		if userID == "" {
			return nil, fmt.Errorf("token has no user identity")
		}

		email, _ := mapClaims["email"].(string)

		return &Claims{UserID: userID, Email: email}, nil
	}
}
