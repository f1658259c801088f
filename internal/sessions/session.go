package sessions

import "time"

// Session is the framework-level browser session used by the OAuth bridge.
// It is created when the browser is redirected to a provider (carrying the
// anti-forgery state) and, after a successful callback, bound to the resolved
// user. Normal request gating never consults it; tokens do that work.
type Session struct {
	ID        string    `bson:"_id" json:"id"`
	Provider  string    `bson:"provider" json:"provider"`
	State     string    `bson:"state" json:"state"`
	UserID    string    `bson:"userId,omitempty" json:"userId,omitempty"`
	ExpiresAt time.Time `bson:"expiresAt" json:"expiresAt"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// LoggedIn reports whether the session has been bound to a user.
func (s *Session) LoggedIn() bool { return s.UserID != "" }
