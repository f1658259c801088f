package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestRateLimitMiddleware_AllowsUnderLimit(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(10, 2)) // generous rate
	r.GET("/ok", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	// distinct address keeps this test's bucket isolated
	req := httptest.NewRequest("GET", "/ok", nil)
	req.RemoteAddr = "10.1.0.1:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	req2 := httptest.NewRequest("GET", "/ok", nil)
	req2.RemoteAddr = "10.1.0.1:1234"
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req2)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, http.StatusOK, w2.Code)
}

func TestRateLimitMiddleware_BlocksWhenExceeded(t *testing.T) {
	r := gin.New()
	// very low rate to force rejections
	r.Use(RateLimitMiddleware(0.5, 1))
	r.GET("/limited", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	mk := func() (*httptest.ResponseRecorder, *http.Request) {
		rq := httptest.NewRequest("GET", "/limited", nil)
		rq.RemoteAddr = "10.1.0.2:1234"
		return httptest.NewRecorder(), rq
	}

	w1, rq1 := mk()
	r.ServeHTTP(w1, rq1)
	require.Equal(t, http.StatusOK, w1.Code)

	// immediate second request -> should be rate-limited
	w2, rq2 := mk()
	r.ServeHTTP(w2, rq2)
	require.Equal(t, http.StatusTooManyRequests, w2.Code)
	require.Equal(t, "1", w2.Header().Get("Retry-After"))

	// wait long enough to replenish one token
	time.Sleep(2100 * time.Millisecond)
	w3, rq3 := mk()
	r.ServeHTTP(w3, rq3)
	require.Equal(t, http.StatusOK, w3.Code)
}

func TestRateLimitMiddleware_KeysByAuthenticatedUser(t *testing.T) {
	r := gin.New()
	// inject the claims-only identity before the limiter, as the gate would
	r.Use(func(c *gin.Context) {
		c.Set(ContextAuthKey, AuthUser{ID: "user-123", Role: "user"})
		c.Next()
	})
	r.Use(RateLimitMiddleware(0.5, 1))
	r.GET("/u", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })

	rq1 := httptest.NewRequest("GET", "/u", nil)
	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, rq1)
	require.Equal(t, http.StatusOK, w1.Code)

	// immediate second request => rejected for same subject
	rq2 := httptest.NewRequest("GET", "/u", nil)
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, rq2)
	require.Equal(t, http.StatusTooManyRequests, w2.Code)
}

func TestRateLimitMiddleware_SeparatesUsers(t *testing.T) {
	mkRouter := func(id string) *gin.Engine {
		r := gin.New()
		r.Use(func(c *gin.Context) {
			c.Set(ContextAuthKey, AuthUser{ID: id, Role: "user"})
			c.Next()
		})
		r.Use(RateLimitMiddleware(0.5, 1))
		r.GET("/u", func(c *gin.Context) { c.JSON(200, gin.H{"ok": true}) })
		return r
	}

	ra := mkRouter("user-a")
	rb := mkRouter("user-b")

	wa := httptest.NewRecorder()
	ra.ServeHTTP(wa, httptest.NewRequest("GET", "/u", nil))
	require.Equal(t, http.StatusOK, wa.Code)

	// a different user has an untouched bucket
	wb := httptest.NewRecorder()
	rb.ServeHTTP(wb, httptest.NewRequest("GET", "/u", nil))
	require.Equal(t, http.StatusOK, wb.Code)
}
