package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Manager issues, resolves and revokes sessions, and owns the session
// cookie on the HTTP boundary.
type Manager struct {
	store Store
	cfg   Config
}

// NewManager creates a session manager backed by the given store.
func NewManager(store Store, cfg Config) (*Manager, error) {
	if store == nil {
		return nil, ErrStoreNil
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "sid"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	return &Manager{store: store, cfg: cfg}, nil
}

// Start creates a session for the user and sets the session cookie.
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, userID uuid.UUID) (*Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	session := &Session{
		Token:     token,
		UserID:    userID,
		ExpiresAt: now.Add(m.cfg.TTL),
		CreatedAt: now,
	}
	if err := m.store.Create(ctx, session); err != nil {
		return nil, err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   m.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return session, nil
}

// Resolve loads the session referenced by the request cookie.
func (m *Manager) Resolve(ctx context.Context, r *http.Request) (*Session, error) {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err != nil || cookie.Value == "" {
		return nil, ErrSessionNotFound
	}

	session, err := m.store.Get(ctx, cookie.Value)
	if err != nil {
		return nil, err
	}
	if session.IsExpired() {
		_ = m.store.Delete(ctx, session.Token)
		return nil, ErrSessionExpired
	}
	return session, nil
}

// End revokes the request's session and expires the cookie.
func (m *Manager) End(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	cookie, err := r.Cookie(m.cfg.CookieName)
	if err == nil && cookie.Value != "" {
		if derr := m.store.Delete(ctx, cookie.Value); derr != nil && !errors.Is(derr, ErrSessionNotFound) {
			return derr
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.cfg.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
