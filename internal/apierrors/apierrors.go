package apierrors

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind enumerates every authentication failure the API can report. Handlers
// and middleware translate all failures through this table so clients always
// see the same JSON shape and no store or library error leaks out.
type Kind int

const (
	MissingToken Kind = iota
	InvalidHeaderFormat
	InvalidToken
	TokenExpired
	UserNotFound
	InvalidCredentials
	EmailTaken
	UsernameTaken
	InvalidOrExpiredToken
	AlreadyVerified
	EmailNotFound
	ValidationFailed
	ProviderAuthFailed
	ServerFault
)

type def struct {
	status  int
	code    string
	message string
}

var table = map[Kind]def{
	MissingToken:          {http.StatusUnauthorized, "MISSING_TOKEN", "access token required"},
	InvalidHeaderFormat:   {http.StatusUnauthorized, "INVALID_HEADER_FORMAT", "invalid authorization header format"},
	InvalidToken:          {http.StatusUnauthorized, "INVALID_TOKEN", "invalid access token"},
	TokenExpired:          {http.StatusUnauthorized, "TOKEN_EXPIRED", "access token expired"},
	UserNotFound:          {http.StatusUnauthorized, "USER_NOT_FOUND", "user not found"},
	InvalidCredentials:    {http.StatusUnauthorized, "INVALID_CREDENTIALS", "email or password does not match"},
	EmailTaken:            {http.StatusBadRequest, "EMAIL_TAKEN", "user with this email already exists"},
	UsernameTaken:         {http.StatusBadRequest, "USERNAME_TAKEN", "user with this username already exists"},
	InvalidOrExpiredToken: {http.StatusUnauthorized, "INVALID_OR_EXPIRED_TOKEN", "token is invalid or expired"},
	AlreadyVerified:       {http.StatusBadRequest, "ALREADY_VERIFIED", "account is already verified"},
	EmailNotFound:         {http.StatusNotFound, "EMAIL_NOT_FOUND", "email is not registered"},
	ValidationFailed:      {http.StatusBadRequest, "VALIDATION_FAILED", "request validation failed"},
	ProviderAuthFailed:    {http.StatusUnauthorized, "PROVIDER_AUTH_FAILED", "provider authentication failed"},
	ServerFault:           {http.StatusInternalServerError, "SERVER_FAULT", "internal server error"},
}

// Response is the stable error body: {status, message, code}. TokenExpired
// additionally sets tokenExpired so clients know to call /refresh.
type Response struct {
	Status       string `json:"status"`
	Message      string `json:"message"`
	Code         string `json:"code"`
	TokenExpired bool   `json:"tokenExpired,omitempty"`
}

// Status returns the HTTP status associated with the kind.
func (k Kind) Status() int { return table[k].status }

// Code returns the machine-readable code associated with the kind.
func (k Kind) Code() string { return table[k].code }

// Message returns the default client message associated with the kind.
func (k Kind) Message() string { return table[k].message }

func body(k Kind, msg string) Response {
	d := table[k]
	if msg == "" {
		msg = d.message
	}
	return Response{Status: "error", Message: msg, Code: d.code, TokenExpired: k == TokenExpired}
}

// JSON writes the error without aborting the handler chain.
func JSON(c *gin.Context, k Kind) {
	c.JSON(table[k].status, body(k, ""))
}

// JSONMsg writes the error with a custom message (validation details and the
// like); the status and code still come from the kind.
func JSONMsg(c *gin.Context, k Kind, msg string) {
	c.JSON(table[k].status, body(k, msg))
}

// Abort writes the error and stops the middleware chain.
func Abort(c *gin.Context, k Kind) {
	c.AbortWithStatusJSON(table[k].status, body(k, ""))
}
