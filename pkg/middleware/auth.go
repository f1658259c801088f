package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/aswaq/aswaq-backend/internal/apierrors"
	"github.com/aswaq/aswaq-backend/internal/models"
	"github.com/aswaq/aswaq-backend/internal/tokens"
	"github.com/aswaq/aswaq-backend/pkg/metrics"
)

// Cookie names used for token transport.
const (
	CookieAccessToken  = "token"
	CookieRefreshToken = "refreshToken"
)

// Context keys set by the two gates.
const (
	ContextUserKey = "user"     // *models.User, set by VerifyToken
	ContextAuthKey = "authUser" // AuthUser, set by AuthenticateUser
)

const bearerPrefix = "Bearer "

// AuthUser is the claims-only identity attached by AuthenticateUser.
type AuthUser struct {
	ID   string
	Role string
}

// UserLoader resolves the full user record for a token subject. A nil result
// means the account no longer exists (or the store failed; the loader
// contains that distinction).
type UserLoader interface {
	FindByID(ctx context.Context, id string) *models.User
}

// extractToken pulls a token from the named cookies (in order), falling back
// to the Authorization header. A header that is present but not Bearer-shaped
// is a hard rejection, reported through the second return.
func extractToken(c *gin.Context, cookieOrder ...string) (string, bool) {
	for _, name := range cookieOrder {
		if v, err := c.Cookie(name); err == nil && v != "" {
			return v, true
		}
	}
	auth := c.GetHeader("Authorization")
	if auth == "" {
		return "", true
	}
	if !strings.HasPrefix(auth, bearerPrefix) {
		return "", false
	}
	return strings.TrimPrefix(auth, bearerPrefix), true
}

// VerifyToken is Strategy A: access cookie first, then bearer header, decode,
// then load the full user record into the request context. An expired token
// is reported distinctly (tokenExpired flag) so the client can call /refresh
// instead of forcing a re-login.
func VerifyToken(secret string, loader UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := extractToken(c, CookieAccessToken)
		if !ok {
			apierrors.Abort(c, apierrors.InvalidHeaderFormat)
			return
		}
		if raw == "" {
			apierrors.Abort(c, apierrors.MissingToken)
			return
		}
		claims, err := tokens.Verify(secret, raw)
		if err != nil {
			if err == tokens.ErrExpired {
				metrics.TokenVerifications.WithLabelValues("full_user", "expired").Inc()
				apierrors.Abort(c, apierrors.TokenExpired)
				return
			}
			metrics.TokenVerifications.WithLabelValues("full_user", "invalid").Inc()
			apierrors.Abort(c, apierrors.InvalidToken)
			return
		}
		u := loader.FindByID(c.Request.Context(), claims.UserID)
		if u == nil {
			// account deleted after token issuance, or store failure
			// contained by the loader
			apierrors.Abort(c, apierrors.UserNotFound)
			return
		}
		metrics.TokenVerifications.WithLabelValues("full_user", "ok").Inc()
		c.Set(ContextUserKey, u)
		c.Next()
	}
}

// AuthenticateUser is Strategy B: refresh cookie, then access cookie, then
// bearer header, and only the decoded {id, role} is attached — no store
// round-trip. Expiry is not reported distinctly here; routes using this gate
// (logout, stats) have no use for a refresh hint.
func AuthenticateUser(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, ok := extractToken(c, CookieRefreshToken, CookieAccessToken)
		if !ok {
			apierrors.Abort(c, apierrors.InvalidHeaderFormat)
			return
		}
		if raw == "" {
			apierrors.Abort(c, apierrors.MissingToken)
			return
		}
		claims, err := tokens.Verify(secret, raw)
		if err != nil {
			metrics.TokenVerifications.WithLabelValues("claims_only", "invalid").Inc()
			apierrors.Abort(c, apierrors.InvalidToken)
			return
		}
		metrics.TokenVerifications.WithLabelValues("claims_only", "ok").Inc()
		c.Set(ContextAuthKey, AuthUser{ID: claims.UserID, Role: claims.Role})
		c.Next()
	}
}

// RequireRole gates a route on the role of the Strategy-A user in context.
// Must run after VerifyToken.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := UserFromContext(c)
		if u == nil || u.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"status":  "error",
				"message": "insufficient permissions",
				"code":    "FORBIDDEN",
			})
			return
		}
		c.Next()
	}
}

// UserFromContext returns the full user set by VerifyToken, or nil.
func UserFromContext(c *gin.Context) *models.User {
	if v, ok := c.Get(ContextUserKey); ok {
		if u, ok2 := v.(*models.User); ok2 {
			return u
		}
	}
	return nil
}

// AuthFromContext returns the claims-only identity set by AuthenticateUser.
func AuthFromContext(c *gin.Context) (AuthUser, bool) {
	if v, ok := c.Get(ContextAuthKey); ok {
		if a, ok2 := v.(AuthUser); ok2 {
			return a, true
		}
	}
	return AuthUser{}, false
}
