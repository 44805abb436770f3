package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/campus-records/records/internal/observability"
	"github.com/campus-records/records/internal/platform/httpx"
	"github.com/campus-records/records/internal/sessions"
	"github.com/campus-records/records/internal/shared"
)

// Handler wires HTTP endpoints for the login handshake and session lifecycle.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *sessions.Manager
	policy         httpx.ErrorPolicy
	metrics        *observability.Metrics
	loginLimit     int
}

// HandlerConfig carries optional handler settings.
type HandlerConfig struct {
	Policy  httpx.ErrorPolicy
	Metrics *observability.Metrics
	// LoginLimit caps token requests per client IP per minute. Zero disables it.
	LoginLimit int
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, sessions *sessions.Manager, cfg HandlerConfig) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		policy:         cfg.Policy,
		metrics:        cfg.Metrics,
		loginLimit:     cfg.LoginLimit,
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/get/salt/{user}", h.handleSalt)
	r.With(h.limitLogins).Get("/get/token/{user}", h.handleToken)
	r.Post("/auth/logout", h.handleLogout)
	r.Get("/test/auth/{user}", h.handleProbe)
}

func (h *Handler) limitLogins(next http.Handler) http.Handler {
	if h.loginLimit <= 0 {
		return next
	}
	return httprate.Limit(h.loginLimit, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			h.metrics.AuthEvent(observability.EventLogin, "throttled")
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "")
		}),
	)(next)
}

func (h *Handler) handleSalt(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "user")
	salt, err := h.service.Salt(r.Context(), username)
	if err != nil {
		if errors.Is(err, shared.ErrUnknownPrincipal) {
			h.metrics.AuthEvent(observability.EventSalt, "unknown")
		} else {
			h.logger.Error("salt lookup", slog.String("user", username), slog.Any("error", err))
		}
		h.policy.RespondError(w, err)
		return
	}
	h.metrics.AuthEvent(observability.EventSalt, "ok")
	httpx.JSON(w, http.StatusOK, SaltResponse{Salt: salt})
}

func (h *Handler) handleToken(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "user")
	digest := strings.TrimSpace(r.Header.Get("Authorization"))

	sess, err := h.service.Verify(r.Context(), username, digest)
	if err != nil {
		if errors.Is(err, shared.ErrAuthenticationFailed) {
			h.metrics.AuthEvent(observability.EventLogin, "failure")
			h.logger.Info("login rejected", slog.String("user", username), slog.String("remote_addr", r.RemoteAddr))
		} else {
			h.logger.Error("login", slog.String("user", username), slog.Any("error", err))
		}
		h.policy.RespondError(w, err)
		return
	}

	if err := h.service.RegisterSession(r.Context(), sess, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}
	h.metrics.AuthEvent(observability.EventLogin, "success")
	h.logger.Info("login",
		slog.String("user", sess.Username),
		slog.String("role", sess.Role.String()),
		slog.String("session", sessions.Fingerprint(sess.Token)),
	)

	h.sessionManager.SetCookie(w, sess)
	httpx.JSON(w, http.StatusOK, TokenResponse{Token: sess.Token, Level: sess.Role.Tier()})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := h.sessionManager.TokenFromRequest(r)
	if token != "" {
		if err := h.sessionManager.Revoke(r.Context(), token); err != nil {
			h.logger.Error("revoke session", slog.Any("error", err))
			h.policy.RespondError(w, err)
			return
		}
		if err := h.service.RemoveSession(r.Context(), token); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.metrics.AuthEvent(observability.EventLogout, "success")
	}
	h.sessionManager.ClearCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleProbe lets clients confirm that their cookie resolves to the named user.
func (h *Handler) handleProbe(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessionManager.Resolve(r.Context(), h.sessionManager.TokenFromRequest(r))
	if err != nil {
		h.policy.RespondError(w, err)
		return
	}
	if sess.Username != chi.URLParam(r, "user") {
		h.policy.RespondError(w, shared.ErrForbidden)
		return
	}
	httpx.JSON(w, http.StatusOK, TokenResponse{Level: sess.Role.Tier()})
}
