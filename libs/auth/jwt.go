package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
)

var ErrInvalidToken = errors.New("invalid token")

const issuer = "meetslot"

// Claims identify a host. Subject is the host id that owns event types.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.StandardClaims
}

func (c *Claims) HostID() string {
	return c.Subject
}

// SignHS256 issues a host token valid for ttl.
func SignHS256(hostID, email string, ttl time.Duration, secret string) (string, error) {
	if strings.TrimSpace(hostID) == "" {
		return "", errors.New("host id is required")
	}
	now := time.Now()
	claims := Claims{
		Email: email,
		StandardClaims: jwt.StandardClaims{
			Subject:   hostID,
			Issuer:    issuer,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseAndVerifyHS256 checks signature, algorithm, expiry and subject.
func ParseAndVerifyHS256(token, secret string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
