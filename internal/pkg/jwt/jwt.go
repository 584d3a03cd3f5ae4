package jwt

import (
	"errors"
	"time"

	"edvisa-admin/internal/core/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const issuer = "edvisa-admin"

var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("token is invalid")
)

// Claims represents the access token claims. Permissions is a snapshot
// taken at issuance; it is not re-evaluated until the next login/refresh.
type Claims struct {
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

// Principal rebuilds the authenticated identity from the claims. Names
// that are not in the permission catalog grant nothing and are dropped.
func (c *Claims) Principal() (domain.Principal, error) {
	role, err := domain.ParseRole(c.Role)
	if err != nil {
		return domain.Principal{}, ErrTokenInvalid
	}
	perms := domain.NewPermissionSet()
	for _, name := range c.Permissions {
		if p, err := domain.ParsePermission(name); err == nil {
			perms[p] = struct{}{}
		}
	}
	return domain.Principal{SubjectID: c.Subject, Role: role, Permissions: perms}, nil
}

// GenerateAccessToken signs an access token for principal, valid for ttl from now
func GenerateAccessToken(principal domain.Principal, secret string, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		Role:        string(principal.Role),
		Permissions: principal.Permissions.Strings(),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   principal.SubjectID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateAccessToken validates an access token and returns claims
func ValidateAccessToken(tokenString, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.Subject != "" {
		return claims, nil
	}

	return nil, ErrTokenInvalid
}
