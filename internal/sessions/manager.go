package sessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/campus-records/records/internal/principals"
	"github.com/campus-records/records/internal/shared"
)

// mintAttempts bounds retries on the (practically impossible) token collision.
const mintAttempts = 3

// Config controls token lifetime and cookie transport.
type Config struct {
	TTL        time.Duration
	CookieName string
	Secure     bool
}

// Manager mints, resolves and revokes session tokens.
type Manager struct {
	store  Store
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// NewManager constructs a Manager. A zero TTL defaults to two hours.
func NewManager(store Store, cfg Config, logger *slog.Logger) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = 2 * time.Hour
	}
	if cfg.CookieName == "" {
		cfg.CookieName = "token"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{store: store, cfg: cfg, logger: logger, now: time.Now}
}

// SetClock replaces the time source.
func (m *Manager) SetClock(now func() time.Time) {
	m.now = now
}

// Mint creates a new session for the principal. The binding becomes
// resolvable only once the store has accepted the complete record.
func (m *Manager) Mint(ctx context.Context, username string, role principals.Role) (Session, error) {
	if username == "" || role == principals.RoleUnknown {
		return Session{}, errors.New("sessions: mint requires username and role")
	}
	for attempt := 0; attempt < mintAttempts; attempt++ {
		token, err := newToken()
		if err != nil {
			return Session{}, err
		}
		issued := m.now()
		sess := Session{
			Token:     token,
			Username:  username,
			Role:      role,
			IssuedAt:  issued,
			ExpiresAt: issued.Add(m.cfg.TTL),
		}
		err = m.store.Put(ctx, sess)
		if errors.Is(err, ErrDuplicate) {
			continue
		}
		if err != nil {
			return Session{}, fmt.Errorf("sessions: mint: %w", err)
		}
		return sess, nil
	}
	return Session{}, errors.New("sessions: mint: token collisions exhausted")
}

// Resolve returns the session bound to token as captured at mint time.
func (m *Manager) Resolve(ctx context.Context, token string) (Session, error) {
	if !wellFormed(token) {
		return Session{}, shared.ErrUnauthenticated
	}
	sess, err := m.store.Get(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Session{}, shared.ErrUnauthenticated
		}
		return Session{}, fmt.Errorf("sessions: resolve: %w", err)
	}
	if sess.Expired(m.now()) {
		if err := m.store.Delete(ctx, token); err != nil {
			m.logger.Warn("delete expired session", slog.String("fingerprint", Fingerprint(token)), slog.Any("error", err))
		}
		return Session{}, shared.ErrUnauthenticated
	}
	return sess, nil
}

// Revoke invalidates token. Unknown or malformed tokens are ignored.
func (m *Manager) Revoke(ctx context.Context, token string) error {
	if !wellFormed(token) {
		return nil
	}
	if err := m.store.Delete(ctx, token); err != nil {
		return fmt.Errorf("sessions: revoke: %w", err)
	}
	return nil
}

// Sweep removes expired sessions from the store.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	return m.store.DeleteExpired(ctx, m.now())
}

// Run sweeps expired sessions every interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := m.Sweep(ctx)
			if err != nil {
				m.logger.Warn("session sweep", slog.Any("error", err))
				continue
			}
			if removed > 0 {
				m.logger.Debug("session sweep", slog.Int("removed", removed))
			}
		}
	}
}

// SetCookie writes the session cookie.
func (m *Manager) SetCookie(w http.ResponseWriter, sess Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  sess.ExpiresAt,
	})
}

// ClearCookie expires the session cookie on the client.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     m.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// TokenFromRequest extracts the token from the session cookie, falling
// back to an "Authorization: Bearer" header.
func (m *Manager) TokenFromRequest(r *http.Request) string {
	if r == nil {
		return ""
	}
	if c, err := r.Cookie(m.cfg.CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(auth[len("Bearer "):])
	}
	return ""
}
