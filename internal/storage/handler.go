package storage

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"reflection-audio/internal/asset"
	"reflection-audio/internal/platform/metrics"
)

const (
	uploadField      = "audio"
	publicPathPrefix = "/uploads/"

	// multipart boundaries and part headers ride inside the body limit, so
	// parsing keeps only a small amount in memory.
	multipartMemory = 64 << 10
)

// Client-generated object names are random identifiers plus a known audio
// extension. Anything else gets a fresh server-side name.
var objectNamePattern = regexp.MustCompile(`^[A-Za-z0-9-]+\.(webm|mp4|mp3|wav|ogg)$`)

// Handler exposes the audio storage HTTP endpoints: multipart upload and
// range-aware serving of stored objects.
type Handler struct {
	store      Store
	log        *slog.Logger
	metrics    *metrics.Metrics
	publicBase string
}

// NewHandler returns a Handler using the given Store. publicBase is prefixed
// to returned audio URLs; leave it empty for host-relative URLs. Metrics may
// be nil to disable metric recording (e.g. in tests).
func NewHandler(store Store, log *slog.Logger, m *metrics.Metrics, publicBase string) *Handler {
	return &Handler{
		store:      store,
		log:        log,
		metrics:    m,
		publicBase: strings.TrimSuffix(publicBase, "/"),
	}
}

// UploadAudio handles POST /api/upload-audio: a multipart body with a single
// field carrying the binary and its content type. Requests over 10 MiB and
// content types outside the accepted list are rejected before any storage
// write happens.
func (h *Handler) UploadAudio(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > asset.MaxUploadBytes {
		h.rejectUpload(w, http.StatusRequestEntityTooLarge, "audio exceeds the 10 MiB upload limit")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, asset.MaxUploadBytes)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.rejectUpload(w, http.StatusRequestEntityTooLarge, "audio exceeds the 10 MiB upload limit")
			return
		}
		h.log.Debug("invalid multipart body", slog.String("error", err.Error()))
		h.rejectUpload(w, http.StatusBadRequest, "request body is not valid multipart form data")
		return
	}

	file, header, err := r.FormFile(uploadField)
	if err != nil {
		h.rejectUpload(w, http.StatusBadRequest, "multipart field 'audio' is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if !asset.Allowed(contentType) {
		h.log.Info("upload rejected for content type",
			slog.String("content_type", contentType),
			slog.String("filename", header.Filename))
		h.rejectUpload(w, http.StatusUnsupportedMediaType,
			"unsupported audio format; accepted types are audio/webm, audio/mp4, audio/mpeg, audio/wav, audio/ogg")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.rejectUpload(w, http.StatusBadRequest, "audio payload could not be read")
		return
	}
	if len(data) == 0 {
		h.rejectUpload(w, http.StatusBadRequest, "audio payload is empty")
		return
	}

	filename := objectName(header.Filename, contentType)
	if err := h.store.Save(filename, data); err != nil {
		h.log.Error("storing audio failed", slog.String("filename", filename), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "failed to store audio; please try again later",
		})
		return
	}

	h.log.Info("audio stored",
		slog.String("filename", filename),
		slog.String("content_type", contentType),
		slog.Int("bytes", len(data)))
	if h.metrics != nil {
		h.metrics.IncUploadsStored()
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message":  "audio uploaded successfully",
		"audioUrl": h.publicBase + publicPathPrefix + filename,
		"filename": filename,
	})
}

// ServeAudio handles GET /uploads/{filename}. Serving goes through
// http.ServeContent so standard range requests work and players can seek.
func (h *Handler) ServeAudio(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if filename == "" || strings.ContainsAny(filename, "/\\") || strings.Contains(filename, "..") {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	rc, modTime, err := h.store.Open(filename)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.log.Error("opening audio failed", slog.String("filename", filename), slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	defer rc.Close()

	if dot := strings.LastIndexByte(filename, '.'); dot >= 0 {
		if mime, ok := asset.MimeForExtension(filename[dot+1:]); ok {
			w.Header().Set("Content-Type", mime)
		}
	}

	http.ServeContent(w, r, filename, modTime, rc)
}

func (h *Handler) rejectUpload(w http.ResponseWriter, status int, msg string) {
	if h.metrics != nil {
		h.metrics.IncUploadsRejected()
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

// objectName keeps a well-formed client-generated name and replaces anything
// else with a fresh random identifier plus the extension implied by the
// content type, so stored objects never collide.
func objectName(clientName, contentType string) string {
	if objectNamePattern.MatchString(clientName) {
		return clientName
	}
	ext, _ := asset.ExtensionFor(contentType)
	return uuid.NewString() + "." + ext
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
