package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// newGitHubAPIStub fakes the token endpoint and the two user API routes.
func newGitHubAPIStub(t *testing.T, profileEmail string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"at-1","token_type":"bearer"}`))
	})
	mux.HandleFunc("/user", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":42,"login":"octo","name":"Octo Cat","email":"` + profileEmail + `"}`))
	})
	mux.HandleFunc("/user/emails", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"email":"old@example.com","primary":false,"verified":true},{"email":"octo@example.com","primary":true,"verified":true}]`))
	})
	return httptest.NewServer(mux)
}

func stubGitHub(srv *httptest.Server) *GitHub {
	return &GitHub{
		conf: &oauth2.Config{
			ClientID:     "cid",
			ClientSecret: "secret",
			RedirectURL:  "http://localhost:3000/auth/github/callback",
			Endpoint: oauth2.Endpoint{
				AuthURL:  srv.URL + "/authorize",
				TokenURL: srv.URL + "/token",
			},
			Scopes: []string{"read:user", "user:email"},
		},
		apiBase: srv.URL,
	}
}

func TestGitHub_ExchangeProfileEmail(t *testing.T) {
	srv := newGitHubAPIStub(t, "visible@example.com")
	defer srv.Close()

	ident, err := stubGitHub(srv).Exchange(context.Background(), "code-1")
	require.NoError(t, err)
	require.Equal(t, "github", ident.Provider)
	require.Equal(t, "42", ident.ID)
	require.Equal(t, "visible@example.com", ident.Email)
	require.Equal(t, "Octo Cat", ident.Name)
}

func TestGitHub_ExchangeFallsBackToPrimaryEmail(t *testing.T) {
	// hidden profile email forces the /user/emails lookup
	srv := newGitHubAPIStub(t, "")
	defer srv.Close()

	ident, err := stubGitHub(srv).Exchange(context.Background(), "code-2")
	require.NoError(t, err)
	require.Equal(t, "octo@example.com", ident.Email)
}

func TestGitHub_AuthCodeURLCarriesState(t *testing.T) {
	g := NewGitHub("cid", "secret", "http://localhost:3000/auth/github/callback")
	u := g.AuthCodeURL("state-xyz")
	require.Contains(t, u, "state=state-xyz")
	require.Contains(t, u, "client_id=cid")
}

func TestRegistry_LookupAndRegister(t *testing.T) {
	reg := Registry{}
	g := NewGitHub("cid", "secret", "http://localhost/cb")
	reg.Register(g)
	require.Equal(t, g, reg.Lookup("github"))
	require.Nil(t, reg.Lookup("google"))
}
