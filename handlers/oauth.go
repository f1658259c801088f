package handlers

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/aswaq/aswaq-backend/internal/config"
	"github.com/aswaq/aswaq-backend/internal/oauth"
	"github.com/aswaq/aswaq-backend/internal/sessions"
	"github.com/aswaq/aswaq-backend/internal/tokens"
	"github.com/aswaq/aswaq-backend/internal/users"
	"github.com/aswaq/aswaq-backend/pkg/logger"
	"github.com/aswaq/aswaq-backend/pkg/metrics"
	"github.com/aswaq/aswaq-backend/pkg/middleware"
)

// sessionCookie carries the handshake session id between the redirect to the
// provider and the callback.
const sessionCookie = "sid"

// OAuthHandler drives the federated login handshake:
// redirect → provider callback → reconcile → token mint + success redirect.
// Every failure along the way lands the browser on the login page; this flow
// never answers with a JSON error.
type OAuthHandler struct {
	cfg         *config.Config
	providers   oauth.Registry
	usersSvc    *users.Service
	sessionsSvc *sessions.Service
}

func NewOAuthHandler(cfg *config.Config, p oauth.Registry, u *users.Service, s *sessions.Service) *OAuthHandler {
	return &OAuthHandler{cfg: cfg, providers: p, usersSvc: u, sessionsSvc: s}
}

func (h *OAuthHandler) Register(r *gin.Engine) {
	a := r.Group("/auth")
	a.GET("/:provider", h.Begin)
	a.GET("/:provider/callback", h.Callback)
}

func (h *OAuthHandler) loginURL() string {
	return h.cfg.App.FrontendURL + "/login"
}

func (h *OAuthHandler) successURL(token string) string {
	return h.cfg.App.FrontendURL + "/auth/success?token=" + url.QueryEscape(token)
}

// Begin sends the browser to the provider's consent screen, anchoring the
// handshake in a short-lived session that carries the anti-forgery state.
func (h *OAuthHandler) Begin(c *gin.Context) {
	p := h.providers.Lookup(c.Param("provider"))
	if p == nil {
		c.Status(http.StatusNotFound)
		return
	}
	sess, err := h.sessionsSvc.Begin(c.Request.Context(), p.Name())
	if err != nil {
		logger.Errorf("oauth begin: session create failed: %v", err)
		c.Redirect(http.StatusFound, h.loginURL())
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(sessionCookie, sess.ID, 600, "/", "", h.cfg.Server.Production(), true)
	c.Redirect(http.StatusFound, p.AuthCodeURL(sess.State))
}

// Callback receives the provider redirect, exchanges the code for an asserted
// identity, reconciles it with a local user, establishes the logged-in
// session, and hands the browser a freshly minted access token. Unlike local
// login only the access token is cookie-bound here; the token also rides the
// success URL so the client app can adopt it.
func (h *OAuthHandler) Callback(c *gin.Context) {
	p := h.providers.Lookup(c.Param("provider"))
	if p == nil {
		c.Status(http.StatusNotFound)
		return
	}
	fail := func(outcome, format string, v ...interface{}) {
		// never leak provider error detail into the redirect URL
		logger.Warnf("oauth %s callback: "+format, append([]interface{}{p.Name()}, v...)...)
		metrics.OAuthCallbacks.WithLabelValues(p.Name(), outcome).Inc()
		c.Redirect(http.StatusFound, h.loginURL())
	}

	if errParam := c.Query("error"); errParam != "" {
		fail("provider_error", "provider reported: %s", errParam)
		return
	}

	sid, err := c.Cookie(sessionCookie)
	if err != nil || sid == "" {
		fail("no_session", "missing handshake session cookie")
		return
	}
	sess, err := h.sessionsSvc.Get(c.Request.Context(), sid)
	if err != nil || sess == nil || sess.Provider != p.Name() {
		fail("no_session", "handshake session not found or mismatched")
		return
	}
	if state := c.Query("state"); state == "" || state != sess.State {
		fail("bad_state", "state mismatch")
		return
	}
	code := c.Query("code")
	if code == "" {
		fail("no_code", "missing authorization code")
		return
	}

	ident, err := p.Exchange(c.Request.Context(), code)
	if err != nil {
		fail("exchange_failed", "code exchange failed: %v", err)
		return
	}

	u, err := h.usersSvc.ReconcileExternal(c.Request.Context(), ident.Provider, ident.ID, ident.Email, ident.Name)
	if errors.Is(err, users.ErrEmailRequired) {
		fail("no_email", "provider supplied no usable email")
		return
	}
	if err != nil {
		fail("reconcile_failed", "user reconcile failed: %v", err)
		return
	}

	// bridge the provider handshake into a logged-in session; failure here
	// is treated the same as a provider failure
	if err := h.sessionsSvc.Establish(c.Request.Context(), sess, u.ID.Hex()); err != nil {
		fail("session_failed", "session establish failed: %v", err)
		return
	}

	access, err := tokens.Issue(h.cfg.JWT.Secret, tokens.Claims{
		UserID: u.ID.Hex(),
		Role:   u.Role,
		Email:  u.Email,
	}, tokens.AccessTokenTTL)
	if err != nil {
		fail("token_failed", "access token issue failed: %v", err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.CookieAccessToken, access, int(tokens.AccessTokenTTL.Seconds()), "/", "", h.cfg.Server.Production(), true)
	metrics.OAuthCallbacks.WithLabelValues(p.Name(), "ok").Inc()
	c.Redirect(http.StatusFound, h.successURL(access))
}
