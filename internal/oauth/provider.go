package oauth

import (
	"context"
	"errors"
)

// Identity is what a provider asserts about the person who just consented.
type Identity struct {
	Provider string
	ID       string
	Email    string
	Name     string
}

// ErrNoIdentity is returned when the provider round-trip succeeds but yields
// no usable identity (missing subject/id).
var ErrNoIdentity = errors.New("provider returned no identity")

// Provider drives one external identity provider's half of the login
// handshake: building the consent redirect and exchanging the callback code
// for an asserted identity.
type Provider interface {
	Name() string
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Identity, error)
}

// Registry holds the configured providers keyed by name.
type Registry map[string]Provider

// Lookup returns the provider for the given name, or nil.
func (r Registry) Lookup(name string) Provider {
	return r[name]
}

// Register adds a provider under its own name.
func (r Registry) Register(p Provider) {
	r[p.Name()] = p
}
