package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token TTLs used across the service. Cookie maxAge for each token must match
// the embedded expiry, so handlers derive cookie lifetimes from these.
const (
	AccessTokenTTL  = 15 * time.Minute
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// Verification failure kinds. Expired is deliberately distinct from Invalid
// so clients can react to an expired access token by calling /refresh.
var (
	ErrExpired = errors.New("token expired")
	ErrInvalid = errors.New("token invalid")
)

// Claims is the fixed payload carried by both access and refresh tokens.
// Access tokens include the email; refresh tokens leave it empty.
type Claims struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Issue signs the claims with HS256 and the given secret, stamping issued-at
// and expires-at from the provided ttl.
func Issue(secret string, c Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	c.IssuedAt = jwt.NewNumericDate(now)
	c.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	jt := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return jt.SignedString([]byte(secret))
}

// Verify parses and validates a signed token. It returns ErrExpired when the
// embedded expiry has elapsed and ErrInvalid for any other failure (bad
// signature, malformed structure, wrong secret, unexpected algorithm).
func Verify(secret, raw string) (*Claims, error) {
	var c Claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpired
		}
		return nil, ErrInvalid
	}
	if c.UserID == "" {
		return nil, ErrInvalid
	}
	return &c, nil
}
