package client

import (
	"context"
	"net/http"
	"sync"
	"time"
)

const userPath = "/api/user"

// AuthService holds the session token and tells listeners when the auth status changes.
type AuthService struct {
	api    *apiClient
	now    func() time.Time
	mu     sync.RWMutex
	token  string
	userID string
	expiry time.Time
	status *Broadcaster[bool]
}

// NewAuthService builds an auth service against baseURL. hc may be nil.
func NewAuthService(baseURL string, hc *http.Client) *AuthService {
	a := &AuthService{now: time.Now, status: NewBroadcaster[bool]()}
	a.api = newAPIClient(baseURL, hc, a)
	return a
}

// Signup creates an account; it does not log in.
func (a *AuthService) Signup(ctx context.Context, email, password string) error {
	return a.api.doJSON(ctx, http.MethodPost, userPath+"/signup", credentials{email, password}, nil)
}

// Login stores the issued token and broadcasts true.
func (a *AuthService) Login(ctx context.Context, email, password string) error {
	var resp struct {
		Token     string `json:"token"`
		ExpiresIn int64  `json:"expiresIn"`
		UserID    string `json:"userId"`
	}
	if err := a.api.doJSON(ctx, http.MethodPost, userPath+"/login", credentials{email, password}, &resp); err != nil {
		a.status.Publish(false)
		return err
	}

	a.mu.Lock()
	a.token = resp.Token
	a.userID = resp.UserID
	a.expiry = a.now().Add(time.Duration(resp.ExpiresIn) * time.Second)
	a.mu.Unlock()
	a.status.Publish(true)
	return nil
}

// Logout revokes the token on the server and always clears it locally.
func (a *AuthService) Logout(ctx context.Context) error {
	var err error
	if a.Token() != "" {
		err = a.api.doJSON(ctx, http.MethodPost, userPath+"/logout", nil, nil)
	}
	a.mu.Lock()
	a.token, a.userID, a.expiry = "", "", time.Time{}
	a.mu.Unlock()
	a.status.Publish(false)
	return err
}

// Token returns the bearer token, or "" once it has expired.
func (a *AuthService) Token() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.token == "" || !a.now().Before(a.expiry) {
		return ""
	}
	return a.token
}

// UserID returns the logged-in user's id.
func (a *AuthService) UserID() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.userID
}

// IsAuthenticated reports whether an unexpired token is held.
func (a *AuthService) IsAuthenticated() bool {
	return a.Token() != ""
}

// Subscribe returns a channel receiving every auth status change.
func (a *AuthService) Subscribe() (<-chan bool, func()) {
	return a.status.Subscribe()
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
