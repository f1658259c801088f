package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Header("Content-Type", "application/json")
		c.String(http.StatusOK, swaggerJSON)
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>aswaq-backend — Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

// Minimal OpenAPI document covering the account and session endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "aswaq-backend", "version": "v0.1.0" },
  "paths": {
    "/signup": {
      "post": {
        "summary": "Create an account",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"username":{"type":"string"},"email":{"type":"string"},"password":{"type":"string"}}}}}},
        "responses": { "201": { "description": "account created, verification mail sent" }, "400": { "description": "email or username taken" } }
      }
    },
    "/login": {
      "post": {
        "summary": "Exchange credentials for token cookies",
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"email":{"type":"string"},"password":{"type":"string"}}}}}},
        "responses": { "200": { "description": "access + refresh cookies set" }, "401": { "description": "invalid credentials" } }
      }
    },
    "/logout": {
      "post": { "summary": "Clear token cookies", "responses": { "200": { "description": "logged out" }, "401": { "description": "not authenticated" } } }
    },
    "/refresh": {
      "post": { "summary": "Mint a new access token from the refresh cookie", "responses": { "200": { "description": "new access token" }, "401": { "description": "invalid or expired refresh token" } } }
    },
    "/verify-email/{token}": {
      "get": { "summary": "Confirm an email address", "responses": { "200": { "description": "verified" }, "400": { "description": "invalid or expired token" } } }
    },
    "/reset-password": {
      "post": { "summary": "Request a password reset mail", "responses": { "200": { "description": "mail sent if account exists" } } }
    },
    "/reset-password/{token}": {
      "post": { "summary": "Set a new password", "responses": { "200": { "description": "password updated" }, "400": { "description": "invalid or expired token" } } }
    },
    "/auth/me": {
      "get": { "summary": "Current user", "responses": { "200": { "description": "user document" }, "401": { "description": "missing or invalid token" } } }
    },
    "/auth/{provider}": {
      "get": { "summary": "Start a federated login", "responses": { "302": { "description": "redirect to provider consent" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
