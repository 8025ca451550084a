package session

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/mylpd15/inventory-console/models"
	"github.com/mylpd15/inventory-console/odata"
)

// Clock abstracts time for the lazy token-expiry check.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// SystemClock is the default wall clock.
var SystemClock Clock = realClock{}

// Manager resolves the current actor from persisted state and runs the auth
// flows against the backend. All state lives in the injected Store; two
// managers over the same store observe the same session.
type Manager struct {
	api   *odata.Client
	store Store
	clock Clock
	// signOut ends the federated identity-provider session after a Google
	// login. Best-effort: local logout succeeds even when this fails.
	signOut func(ctx context.Context) error
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the wall clock, mainly for tests.
func WithClock(clock Clock) Option {
	return func(m *Manager) { m.clock = clock }
}

// WithFederatedSignOut registers the identity-provider sign-out hook invoked
// on Logout.
func WithFederatedSignOut(fn func(ctx context.Context) error) Option {
	return func(m *Manager) { m.signOut = fn }
}

// NewManager builds a session manager over the given backend client and
// store.
func NewManager(api *odata.Client, store Store, opts ...Option) *Manager {
	m := &Manager{api: api, store: store, clock: SystemClock}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Token returns the persisted access token, or "" when it is missing or its
// exp claim is in the past. Expiry is checked lazily at read time.
func (m *Manager) Token() string {
	token, err := m.store.Get(KeyAccessToken)
	if err != nil {
		return ""
	}
	if m.tokenExpired(token) {
		return ""
	}
	return token
}

// TokenSource adapts the manager for odata.Client injection.
func (m *Manager) TokenSource() odata.TokenSource {
	return m.Token
}

// IsAuthenticated reports whether a valid, unexpired credential is present.
func (m *Manager) IsAuthenticated() bool {
	return m.Token() != ""
}

// Current returns the persisted actor, or nil when no valid credential is
// present.
func (m *Manager) Current() *models.AppUser {
	if m.Token() == "" {
		return nil
	}
	raw, err := m.store.Get(KeyUser)
	if err != nil {
		return nil
	}
	var user models.AppUser
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		log.Printf("Warning: discarding undecodable persisted user: %v", err)
		return nil
	}
	return &user
}

// tokenExpired decodes the token's exp claim without verifying the
// signature; verification is the backend's job. Tokens that cannot be
// decoded, or carry no exp claim, count as expired.
func (m *Manager) tokenExpired(token string) bool {
	if token == "" {
		return true
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	exp, ok := claims["exp"].(float64)
	if !ok {
		return true
	}
	return time.Unix(int64(exp), 0).Before(m.clock.Now())
}

func (m *Manager) persist(resp models.LoginResponse) (*models.AppUser, error) {
	if err := m.store.Set(KeyAccessToken, resp.AccessToken.AccessToken); err != nil {
		return nil, err
	}
	raw, err := json.Marshal(resp.AppUser)
	if err != nil {
		return nil, err
	}
	if err := m.store.Set(KeyUser, string(raw)); err != nil {
		return nil, err
	}
	user := resp.AppUser
	return &user, nil
}

// Login exchanges a username/password pair for a token+actor pair and
// persists both. Invalid credentials surface as the backend's own error.
func (m *Manager) Login(ctx context.Context, cred models.UserCredential) (*models.AppUser, error) {
	var resp models.LoginResponse
	if err := m.api.PostJSON(ctx, "/api/Auth/Login", cred, &resp); err != nil {
		return nil, err
	}
	return m.persist(resp)
}

// GoogleLogin exchanges a Google ID token for a session.
func (m *Manager) GoogleLogin(ctx context.Context, idToken string, role models.UserRole) (*models.AppUser, error) {
	var resp models.LoginResponse
	payload := models.GoogleSignIn{IDToken: idToken, UserRole: role}
	if err := m.api.PostJSON(ctx, "/api/Auth/GoogleSignIn", payload, &resp); err != nil {
		return nil, err
	}
	return m.persist(resp)
}

// Signup registers a new account and logs it in.
func (m *Manager) Signup(ctx context.Context, dto models.CreateUser) (*models.AppUser, error) {
	var resp models.LoginResponse
	if err := m.api.PostJSON(ctx, "/api/Auth/Signup", dto, &resp); err != nil {
		return nil, err
	}
	return m.persist(resp)
}

// SendOTP asks the backend to mail a one-time password and replaces the
// persisted actor with the account the OTP was issued for.
func (m *Manager) SendOTP(ctx context.Context, dto models.SendOTP) error {
	var user models.AppUser
	if err := m.api.PostJSON(ctx, "/api/OTP/SendOTP", dto, &user); err != nil {
		return err
	}
	raw, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return m.store.Set(KeyUser, string(raw))
}

// VerifyOTP checks the one-time password without creating a session.
func (m *Manager) VerifyOTP(ctx context.Context, dto models.VerifyOTP) error {
	return m.api.PostJSON(ctx, "/api/Auth/VerifyOTP", dto, nil)
}

// OTPLogin exchanges a verified one-time password for a session.
func (m *Manager) OTPLogin(ctx context.Context, dto models.VerifyOTP) (*models.AppUser, error) {
	var resp models.LoginResponse
	if err := m.api.PostJSON(ctx, "/api/Auth/OTPLogin", dto, &resp); err != nil {
		return nil, err
	}
	return m.persist(resp)
}

// ForgetPassword starts the OTP-based reset flow. The odd casing in the path
// is the backend's.
func (m *Manager) ForgetPassword(ctx context.Context, dto models.ForgetPassword) error {
	return m.api.PostJSON(ctx, "/api/Auth/ForgetPassWord", dto, nil)
}

// ChangePassword updates the authenticated account's password.
func (m *Manager) ChangePassword(ctx context.Context, dto models.ChangePassword) error {
	return m.api.PutJSON(ctx, "/api/Auth/ChangePassWord", dto, nil)
}

// Logout clears the persisted token and actor, then tears down the federated
// identity-provider session when one was registered. Local logout succeeds
// even when the federated sign-out fails.
func (m *Manager) Logout(ctx context.Context) error {
	if err := m.store.Delete(KeyAccessToken); err != nil {
		return err
	}
	if err := m.store.Delete(KeyUser); err != nil {
		return err
	}
	if m.signOut != nil {
		if err := m.signOut(ctx); err != nil {
			log.Printf("Warning: federated sign-out failed: %v", err)
		}
	}
	return nil
}
