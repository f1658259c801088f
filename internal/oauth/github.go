package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

const githubAPIBase = "https://api.github.com"

// GitHub authenticates via GitHub OAuth2 and resolves the identity through
// the user API (GitHub issues no ID token).
type GitHub struct {
	conf    *oauth2.Config
	apiBase string
}

// NewGitHub prepares the GitHub OAuth2 config. redirectURL must match the
// callback registered with the OAuth app.
func NewGitHub(clientID, clientSecret, redirectURL string) *GitHub {
	return &GitHub{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint:     github.Endpoint,
			Scopes:       []string{"read:user", "user:email"},
		},
		apiBase: githubAPIBase,
	}
}

func (g *GitHub) Name() string { return "github" }

func (g *GitHub) AuthCodeURL(state string) string {
	return g.conf.AuthCodeURL(state)
}

func (g *GitHub) Exchange(ctx context.Context, code string) (*Identity, error) {
	tok, err := g.conf.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("github code exchange: %w", err)
	}
	client := g.conf.Client(ctx, tok)

	var user struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := getJSON(ctx, client, g.apiBase+"/user", &user); err != nil {
		return nil, fmt.Errorf("github user lookup: %w", err)
	}
	if user.ID == 0 {
		return nil, ErrNoIdentity
	}
	email := user.Email
	if email == "" {
		// the profile email is often hidden; the emails endpoint lists the
		// verified primary address
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := getJSON(ctx, client, g.apiBase+"/user/emails", &emails); err == nil {
			for _, e := range emails {
				if e.Primary && e.Verified {
					email = e.Email
					break
				}
			}
		}
	}
	name := user.Name
	if name == "" {
		name = user.Login
	}
	return &Identity{Provider: "github", ID: strconv.FormatInt(user.ID, 10), Email: email, Name: name}, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, v interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github api returned %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}
