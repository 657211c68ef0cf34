package auth

import (
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"

	"servicehub/internal/common"
)

// Claims is the JWT payload.
type Claims struct {
	UserID         string   `json:"userId"`
	OrganizationID string   `json:"organizationId"`
	Roles          []string `json:"roles"`
	jwt.StandardClaims
}

// IssueToken signs an HS256 token for a.
func IssueToken(secret string, a Actor, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		UserID:         a.ID,
		OrganizationID: a.OrganizationID,
		Roles:          a.Roles,
		StandardClaims: jwt.StandardClaims{
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
			Subject:   a.ID,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseToken verifies tokenString and returns its actor.
func ParseToken(secret, tokenString string) (Actor, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return Actor{}, common.ErrTokenInvalid
	}
	if claims.UserID == "" {
		return Actor{}, common.ErrTokenInvalid
	}
	return Actor{ID: claims.UserID, Roles: claims.Roles, OrganizationID: claims.OrganizationID}, nil
}
