package xapi

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// TokenUpdateFunc is called whenever a user's token pair is refreshed so the
// new pair can be persisted.
type TokenUpdateFunc func(token *oauth2.Token) error

// Scopes required for reading posts and publishing replies on a user's behalf.
var oauthScopes = []string{"tweet.read", "tweet.write", "users.read", "offline.access"}

var xEndpoint = oauth2.Endpoint{
	AuthURL:  "https://twitter.com/i/oauth2/authorize",
	TokenURL: "https://api.twitter.com/2/oauth2/token",
}

// ErrInvalidState means the OAuth callback carried a state we never issued.
var ErrInvalidState = errors.New("invalid oauth state parameter")

type pendingAuth struct {
	userID    string
	verifier  string
	createdAt time.Time
}

// OAuthService drives the delegated-publish OAuth2 (PKCE) flow and builds
// token sources that transparently refresh expired access tokens.
type OAuthService struct {
	config *oauth2.Config

	mu      sync.Mutex
	pending map[string]pendingAuth
}

func NewOAuthService(clientID, clientSecret, callbackURL string) *OAuthService {
	return &OAuthService{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     xEndpoint,
			RedirectURL:  callbackURL,
			Scopes:       oauthScopes,
		},
		pending: make(map[string]pendingAuth),
	}
}

// AuthURL returns the authorization URL for a user and remembers the state
// and PKCE verifier until the callback arrives.
func (s *OAuthService) AuthURL(userID string) (string, error) {
	stateBytes := make([]byte, 32)
	if _, err := rand.Read(stateBytes); err != nil {
		return "", err
	}
	state := hex.EncodeToString(stateBytes)
	verifier := oauth2.GenerateVerifier()

	s.mu.Lock()
	s.pending[state] = pendingAuth{userID: userID, verifier: verifier, createdAt: time.Now()}
	// Drop states older than an hour so abandoned flows don't accumulate.
	for k, v := range s.pending {
		if time.Since(v.createdAt) > time.Hour {
			delete(s.pending, k)
		}
	}
	s.mu.Unlock()

	return s.config.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)), nil
}

// Exchange validates the callback state and trades the code for a token pair.
// Returns the token and the user id that initiated the flow.
func (s *OAuthService) Exchange(ctx context.Context, code, state string) (*oauth2.Token, string, error) {
	s.mu.Lock()
	p, ok := s.pending[state]
	if ok {
		delete(s.pending, state)
	}
	s.mu.Unlock()
	if !ok {
		return nil, "", ErrInvalidState
	}

	token, err := s.config.Exchange(ctx, code, oauth2.VerifierOption(p.verifier))
	if err != nil {
		return nil, "", err
	}
	return token, p.userID, nil
}

// TokenNotifier wraps a token source and invokes a callback when the access
// token changes, so refreshed pairs reach the database. It also remembers
// refresh failures so callers can tell "reconnect needed" apart from ordinary
// request errors.
type TokenNotifier struct {
	src      oauth2.TokenSource
	callback TokenUpdateFunc

	mu      sync.Mutex
	current *oauth2.Token
	err     error
}

func (n *TokenNotifier) Token() (*oauth2.Token, error) {
	t, err := n.src.Token()
	if err != nil {
		n.mu.Lock()
		n.err = err
		n.mu.Unlock()
		return nil, err
	}
	n.mu.Lock()
	changed := n.current.AccessToken != t.AccessToken
	if changed {
		n.current = t
	}
	n.mu.Unlock()
	if changed && n.callback != nil {
		// Publish proceeds with the fresh token either way; on a callback
		// failure the persisted pair just stays one refresh behind.
		_ = n.callback(t)
	}
	return t, nil
}

// RefreshError reports whether the wrapped source failed to refresh.
func (n *TokenNotifier) RefreshError() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.err
}

// UserHTTPClient builds an HTTP client acting as the user behind the stored
// token pair. An expired access token is refreshed on first use and the new
// pair handed to onRefresh. The returned notifier reports refresh failures.
func (s *OAuthService) UserHTTPClient(ctx context.Context, accessToken, refreshToken string, expiresAt time.Time, onRefresh TokenUpdateFunc) (*http.Client, *TokenNotifier) {
	token := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		Expiry:       expiresAt,
	}
	notifier := &TokenNotifier{
		src:      s.config.TokenSource(ctx, token),
		current:  token,
		callback: onRefresh,
	}
	return oauth2.NewClient(ctx, notifier), notifier
}
