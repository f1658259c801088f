package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aswaq/aswaq-backend/internal/apierrors"
	"github.com/aswaq/aswaq-backend/internal/config"
	"github.com/aswaq/aswaq-backend/internal/mailer"
	"github.com/aswaq/aswaq-backend/internal/models"
	"github.com/aswaq/aswaq-backend/internal/tokens"
	"github.com/aswaq/aswaq-backend/internal/users"
	"github.com/aswaq/aswaq-backend/pkg/logger"
	"github.com/aswaq/aswaq-backend/pkg/metrics"
	"github.com/aswaq/aswaq-backend/pkg/middleware"
)

// SignupRequest is validated by gin's binding layer; limits mirror the web
// client's form rules.
type SignupRequest struct {
	Username string `json:"username" binding:"required,min=3"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type NewPasswordRequest struct {
	Password string `json:"password" binding:"required,min=6"`
}

// AuthHandler owns the token lifecycle endpoints: signup, login, logout,
// refresh, and the email verification / password reset family.
type AuthHandler struct {
	cfg      *config.Config
	usersSvc *users.Service
	mail     mailer.Sender
}

func NewAuthHandler(cfg *config.Config, u *users.Service, m mailer.Sender) *AuthHandler {
	return &AuthHandler{cfg: cfg, usersSvc: u, mail: m}
}

// Register mounts the lifecycle endpoints. Logout runs behind the
// claims-only gate; /auth/me and /auth/me/info behind the full-user gate.
func (h *AuthHandler) Register(r *gin.Engine) {
	secret := h.cfg.JWT.Secret

	r.POST("/signup", h.Signup)
	r.POST("/login", h.Login)
	r.POST("/logout", middleware.AuthenticateUser(secret), h.Logout)
	r.POST("/refresh", h.Refresh)
	r.POST("/resend-verification", h.ResendVerification)
	r.GET("/verify-email/:token", h.VerifyEmail)
	r.POST("/reset-password", h.RequestReset)
	r.GET("/verify-reset-token/:token", h.VerifyResetToken)
	r.POST("/reset-password/:token", h.ResetPassword)

	a := r.Group("/auth")
	a.GET("/me", middleware.VerifyToken(secret, h.usersSvc), h.Me)
	a.GET("/me/info", middleware.VerifyToken(secret, h.usersSvc), h.MeInfo)
}

// setAuthCookies sets both token cookies. Cookie maxAge always equals the
// token's own embedded expiry so the two cannot drift apart.
func (h *AuthHandler) setAuthCookies(c *gin.Context, access, refresh string) {
	secure := h.cfg.Server.Production()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.CookieAccessToken, access, int(tokens.AccessTokenTTL.Seconds()), "/", "", secure, true)
	if refresh != "" {
		c.SetCookie(middleware.CookieRefreshToken, refresh, int(tokens.RefreshTokenTTL.Seconds()), "/", "", secure, true)
	}
}

func (h *AuthHandler) clearAuthCookies(c *gin.Context) {
	secure := h.cfg.Server.Production()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.CookieAccessToken, "", -1, "/", "", secure, true)
	c.SetCookie(middleware.CookieRefreshToken, "", -1, "/", "", secure, true)
}

// issueTokens mints the access/refresh pair for a user. The refresh token
// carries no email claim.
func (h *AuthHandler) issueTokens(u *models.User) (access, refresh string, err error) {
	access, err = tokens.Issue(h.cfg.JWT.Secret, tokens.Claims{
		UserID: u.ID.Hex(),
		Role:   u.Role,
		Email:  u.Email,
	}, tokens.AccessTokenTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err = tokens.Issue(h.cfg.JWT.Secret, tokens.Claims{
		UserID: u.ID.Hex(),
		Role:   u.Role,
	}, tokens.RefreshTokenTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.JSONMsg(c, apierrors.ValidationFailed, err.Error())
		return
	}

	u, _, err := h.usersSvc.Signup(c.Request.Context(), req.Username, req.Email, req.Password)
	switch err {
	case nil:
	case users.ErrEmailTaken:
		apierrors.JSON(c, apierrors.EmailTaken)
		return
	case users.ErrUsernameTaken:
		apierrors.JSON(c, apierrors.UsernameTaken)
		return
	default:
		logger.Errorf("signup failed: %v", err)
		apierrors.JSON(c, apierrors.ServerFault)
		return
	}

	access, refresh, err := h.issueTokens(u)
	if err != nil {
		logger.Errorf("token issue failed: %v", err)
		apierrors.JSON(c, apierrors.ServerFault)
		return
	}
	h.setAuthCookies(c, access, refresh)

	c.JSON(http.StatusCreated, gin.H{
		"success":     true,
		"message":     "account created, please verify your email",
		"accessToken": access,
		"user":        u.Public(),
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.JSONMsg(c, apierrors.ValidationFailed, err.Error())
		return
	}

	u, err := h.usersSvc.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err == users.ErrInvalidCredentials {
		metrics.LoginAttempts.WithLabelValues("rejected").Inc()
		apierrors.JSON(c, apierrors.InvalidCredentials)
		return
	}
	if err != nil {
		logger.Errorf("login failed: %v", err)
		apierrors.JSON(c, apierrors.ServerFault)
		return
	}

	access, refresh, err := h.issueTokens(u)
	if err != nil {
		logger.Errorf("token issue failed: %v", err)
		apierrors.JSON(c, apierrors.ServerFault)
		return
	}
	h.setAuthCookies(c, access, refresh)
	metrics.LoginAttempts.WithLabelValues("ok").Inc()

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "logged in",
		"accessToken": access,
		"user":        u.Public(),
	})
}

// Logout clears both cookies. Idempotent: the gate only proves the caller
// held some valid token; nothing server-side is revoked.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.clearAuthCookies(c)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "logged out"})
}

// Refresh mints a new access token from the refresh cookie. The refresh token
// is a stateless signed artifact: verify and decode, then confirm the user
// still exists — no token lookup in the store.
func (h *AuthHandler) Refresh(c *gin.Context) {
	raw, err := c.Cookie(middleware.CookieRefreshToken)
	if err != nil || raw == "" {
		apierrors.JSONMsg(c, apierrors.MissingToken, "refresh token required")
		return
	}
	claims, err := tokens.Verify(h.cfg.JWT.Secret, raw)
	if err != nil {
		apierrors.JSONMsg(c, apierrors.InvalidToken, "invalid refresh token")
		return
	}
	u := h.usersSvc.FindByID(c.Request.Context(), claims.UserID)
	if u == nil {
		apierrors.JSON(c, apierrors.UserNotFound)
		return
	}
	access, err := tokens.Issue(h.cfg.JWT.Secret, tokens.Claims{
		UserID: u.ID.Hex(),
		Role:   u.Role,
		Email:  u.Email,
	}, tokens.AccessTokenTTL)
	if err != nil {
		logger.Errorf("token issue failed: %v", err)
		apierrors.JSON(c, apierrors.ServerFault)
		return
	}
	h.setAuthCookies(c, access, "")

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "token refreshed",
		"token":   access,
		"user":    u.Public(),
	})
}

// Me returns the authenticated user's public record.
func (h *AuthHandler) Me(c *gin.Context) {
	u := middleware.UserFromContext(c)
	if u == nil {
		apierrors.JSON(c, apierrors.UserNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": u.Public()})
}

// MeInfo returns the extended profile, including provider linkage.
func (h *AuthHandler) MeInfo(c *gin.Context) {
	u := middleware.UserFromContext(c)
	if u == nil {
		apierrors.JSON(c, apierrors.UserNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":         u.ID.Hex(),
		"email":      u.Email,
		"username":   u.Username,
		"googleId":   u.GoogleID,
		"githubId":   u.GithubID,
		"isVerified": u.IsVerified,
	})
}

func (h *AuthHandler) ResendVerification(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.JSONMsg(c, apierrors.ValidationFailed, err.Error())
		return
	}
	token, err := h.usersSvc.ResendVerification(c.Request.Context(), req.Email)
	switch err {
	case nil:
	case users.ErrEmailNotFound:
		apierrors.JSON(c, apierrors.EmailNotFound)
		return
	case users.ErrAlreadyVerified:
		apierrors.JSON(c, apierrors.AlreadyVerified)
		return
	default:
		logger.Errorf("resend verification failed: %v", err)
		apierrors.JSON(c, apierrors.ServerFault)
		return
	}
	subject, body := mailer.VerificationEmail(h.cfg.App.FrontendURL, token)
	if err := h.mail.Send(req.Email, subject, body); err != nil {
		logger.Errorf("verification mail dispatch failed: %v", err)
		apierrors.JSON(c, apierrors.ServerFault)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "verification email sent"})
}

func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	err := h.usersSvc.VerifyEmail(c.Request.Context(), c.Param("token"))
	if err == users.ErrTokenInvalid {
		apierrors.JSON(c, apierrors.InvalidOrExpiredToken)
		return
	}
	if err != nil {
		logger.Errorf("verify email failed: %v", err)
		apierrors.JSON(c, apierrors.ServerFault)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "account verified"})
}

func (h *AuthHandler) RequestReset(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.JSONMsg(c, apierrors.ValidationFailed, err.Error())
		return
	}
	token, err := h.usersSvc.RequestReset(c.Request.Context(), req.Email)
	if err == users.ErrEmailNotFound {
		apierrors.JSON(c, apierrors.EmailNotFound)
		return
	}
	if err != nil {
		logger.Errorf("request reset failed: %v", err)
		apierrors.JSON(c, apierrors.ServerFault)
		return
	}
	subject, body := mailer.ResetPasswordEmail(h.cfg.App.FrontendURL, token)
	if err := h.mail.Send(req.Email, subject, body); err != nil {
		logger.Errorf("reset mail dispatch failed: %v", err)
		apierrors.JSON(c, apierrors.ServerFault)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "password reset email sent"})
}

// VerifyResetToken is an informational check only; nothing is consumed.
func (h *AuthHandler) VerifyResetToken(c *gin.Context) {
	err := h.usersSvc.CheckResetToken(c.Request.Context(), c.Param("token"))
	if err == users.ErrTokenInvalid {
		apierrors.JSON(c, apierrors.InvalidOrExpiredToken)
		return
	}
	if err != nil {
		logger.Errorf("verify reset token failed: %v", err)
		apierrors.JSON(c, apierrors.ServerFault)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "reset token valid"})
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req NewPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.JSONMsg(c, apierrors.ValidationFailed, err.Error())
		return
	}
	err := h.usersSvc.ResetPassword(c.Request.Context(), c.Param("token"), req.Password)
	if err == users.ErrTokenInvalid {
		apierrors.JSON(c, apierrors.InvalidOrExpiredToken)
		return
	}
	if err != nil {
		logger.Errorf("reset password failed: %v", err)
		apierrors.JSON(c, apierrors.ServerFault)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "password reset"})
}
