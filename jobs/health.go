package jobs

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/campus-records/records/internal/platform/httpx"
)

// QueueInspector is the part of asynq.Inspector the health endpoints read.
type QueueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
	SchedulerEntries() ([]*asynq.SchedulerEntry, error)
}

// Handler exposes read-only queue state over HTTP.
type Handler struct {
	inspector QueueInspector
	logger    *slog.Logger
}

// NewHandler constructs a Handler. inspector may be nil when no Redis is
// configured; the endpoints then report an idle queue.
func NewHandler(inspector QueueInspector, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{inspector: inspector, logger: logger}
}

// MountRoutes attaches job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/health", h.health)
	r.Get("/schedule", h.schedule)
}

// QueueHealth is returned by the jobs health endpoint.
type QueueHealth struct {
	Queue     string `json:"queue"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Scheduled int    `json:"scheduled"`
	Retry     int    `json:"retry"`
	Failed    int    `json:"failed"`
	Paused    bool   `json:"paused"`
}

// ScheduleEntry describes one registered cron entry.
type ScheduleEntry struct {
	Task string    `json:"task"`
	Spec string    `json:"spec"`
	Next time.Time `json:"next"`
	Prev time.Time `json:"prev,omitzero"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	health := QueueHealth{Queue: QueueDefault}
	if h.inspector == nil {
		httpx.JSON(w, http.StatusOK, health)
		return
	}
	info, err := h.inspector.GetQueueInfo(QueueDefault)
	switch {
	case errors.Is(err, asynq.ErrQueueNotFound):
	case err != nil:
		h.unavailable(w, "jobs health", err)
		return
	case info != nil:
		health.Pending = info.Pending
		health.Active = info.Active
		health.Scheduled = info.Scheduled
		health.Retry = info.Retry
		health.Failed = info.Failed
		health.Paused = info.Paused
	}
	httpx.JSON(w, http.StatusOK, health)
}

func (h *Handler) schedule(w http.ResponseWriter, r *http.Request) {
	out := []ScheduleEntry{}
	if h.inspector == nil {
		httpx.JSON(w, http.StatusOK, out)
		return
	}
	entries, err := h.inspector.SchedulerEntries()
	if err != nil {
		h.unavailable(w, "jobs schedule", err)
		return
	}
	for _, e := range entries {
		entry := ScheduleEntry{Spec: e.Spec, Next: e.Next.UTC(), Prev: e.Prev.UTC()}
		if e.Task != nil {
			entry.Task = e.Task.Type()
		}
		out = append(out, entry)
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) unavailable(w http.ResponseWriter, op string, err error) {
	h.logger.Warn(op, slog.Any("error", err))
	httpx.Problem(w, http.StatusServiceUnavailable, http.StatusText(http.StatusServiceUnavailable), "")
}
