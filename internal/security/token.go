package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/kurlerprudent/kubo-backend-go/internal/models"
)

// ErrNoSecret means the codec was built without a signing secret. Both
// directions fail closed: no tokens are minted and none verify.
var ErrNoSecret = errors.New("token codec: signing secret not configured")

// ErrInvalidToken covers every verification failure the caller is
// allowed to observe: malformed, bad signature, expired.
var ErrInvalidToken = errors.New("invalid token")

type SessionClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenCodec mints and verifies the stateless bearer tokens that prove
// a prior successful login. Nothing is persisted; expiry is the only
// invalidation mechanism.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenCodec builds a codec; a zero ttl falls back to one hour.
func NewTokenCodec(secret string, ttl time.Duration) *TokenCodec {
	if ttl == 0 {
		ttl = time.Hour
	}
	return &TokenCodec{secret: []byte(secret), ttl: ttl}
}

func (c *TokenCodec) Issue(subjectID string, role models.Role) (string, error) {
	if len(c.secret) == 0 {
		return "", ErrNoSecret
	}

	now := time.Now()
	claims := SessionClaims{
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("sign jwt: %w", err)
	}
	return signed, nil
}

// Verify returns the principal carried by a valid token. All failure
// modes collapse into ErrInvalidToken so no detail leaks to the caller.
func (c *TokenCodec) Verify(tokenStr string) (models.Principal, error) {
	if len(c.secret) == 0 {
		return models.Principal{}, ErrNoSecret
	}

	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil {
		return models.Principal{}, ErrInvalidToken
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return models.Principal{}, ErrInvalidToken
	}

	role := models.Role(claims.Role)
	if claims.Subject == "" || !role.Valid() {
		return models.Principal{}, ErrInvalidToken
	}

	return models.Principal{ID: claims.Subject, Role: role}, nil
}
