package oauth

import (
	"context"
	"fmt"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleIssuer = "https://accounts.google.com"

// Google authenticates via Google OAuth2 and verifies the returned ID token
// against Google's published keys.
type Google struct {
	conf     *oauth2.Config
	verifier *gooidc.IDTokenVerifier
}

// NewGoogle discovers Google's OIDC configuration and prepares the OAuth2
// config. redirectURL must match the URI registered with the client.
func NewGoogle(ctx context.Context, clientID, clientSecret, redirectURL string) (*Google, error) {
	provider, err := gooidc.NewProvider(ctx, googleIssuer)
	if err != nil {
		return nil, fmt.Errorf("discover google oidc: %w", err)
	}
	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gooidc.ScopeOpenID, "profile", "email"},
	}
	return &Google{
		conf:     conf,
		verifier: provider.Verifier(&gooidc.Config{ClientID: clientID}),
	}, nil
}

func (g *Google) Name() string { return "google" }

// AuthCodeURL requests a refreshable grant and forces the consent screen,
// matching the parameters the web client expects.
func (g *Google) AuthCodeURL(state string) string {
	return g.conf.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (g *Google) Exchange(ctx context.Context, code string) (*Identity, error) {
	tok, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("google code exchange: %w", err)
	}
	rawID, ok := tok.Extra("id_token").(string)
	if !ok || rawID == "" {
		return nil, ErrNoIdentity
	}
	idt, err := g.verifier.Verify(ctx, rawID)
	if err != nil {
		return nil, fmt.Errorf("verify google id token: %w", err)
	}
	var claims struct {
		Sub   string `json:"sub"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := idt.Claims(&claims); err != nil {
		return nil, fmt.Errorf("parse google claims: %w", err)
	}
	if claims.Sub == "" {
		return nil, ErrNoIdentity
	}
	return &Identity{Provider: "google", ID: claims.Sub, Email: claims.Email, Name: claims.Name}, nil
}
