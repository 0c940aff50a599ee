package reflection

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"reflection-audio/internal/platform/metrics"
)

// Handler exposes the reflection HTTP endpoints using go-chi.
type Handler struct {
	repo    Repository
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewHandler returns a Handler that uses the given Repository. Metrics may be
// nil to disable metric recording (e.g. in tests).
func NewHandler(repo Repository, log *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{repo: repo, log: log, metrics: m}
}

// Create handles POST /api/reflections.
// Body: { "user_id": "...", "book_title": "...", "reflection_text": "...", "audio_url": "..." }.
// At least one of reflection_text and audio_url must be present.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var refl Reflection
	if err := json.NewDecoder(r.Body).Decode(&refl); err != nil {
		h.log.Debug("invalid reflection body", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "request body is not valid JSON"})
		return
	}

	created, err := h.repo.Create(refl)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyReflection),
			errors.Is(err, ErrMissingUser),
			errors.Is(err, ErrMissingBookTitle):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			h.log.Error("creating reflection failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save reflection"})
		}
		return
	}

	h.log.Info("reflection created",
		slog.String("id", created.ID),
		slog.String("user_id", created.UserID),
		slog.Bool("has_audio", created.AudioURL != ""))
	if h.metrics != nil {
		h.metrics.IncReflectionsCreated()
	}
	writeJSON(w, http.StatusCreated, created)
}

// List handles GET /api/reflections, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.repo.List())
}

// AttachAudio handles POST /api/reflections/{id}/audio.
// Body: { "audio_url": "/uploads/..." }.
func (h *Handler) AttachAudio(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var body struct {
		AudioURL string `json:"audio_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.AudioURL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "audio_url is required"})
		return
	}

	updated, err := h.repo.AttachAudio(id, body.AudioURL)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		h.log.Error("attaching audio failed", slog.String("id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to attach audio"})
		return
	}

	h.log.Info("audio attached to reflection", slog.String("id", id))
	writeJSON(w, http.StatusOK, updated)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
