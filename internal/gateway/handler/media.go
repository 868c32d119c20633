package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"fraudwatch/internal/cache/media"
	evidencerepo "fraudwatch/internal/gateway/repository/evidence"
)

// MediaFetcher resolves chat photo handles.
type MediaFetcher interface {
	Fetch(ctx context.Context, handle string) (media.Blob, error)
}

// EvidenceReader reads stored evidence objects.
type EvidenceReader interface {
	Get(ctx context.Context, key string) (evidencerepo.Object, error)
}

type MediaHandler struct {
	media    MediaFetcher
	evidence EvidenceReader
	log      *slog.Logger
}

func NewMediaHandler(m MediaFetcher, evidence EvidenceReader, logger *slog.Logger) *MediaHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaHandler{media: m, evidence: evidence, log: logger.With("component", "media")}
}

// HandleMedia serves GET /media/<handle>.
func (h *MediaHandler) HandleMedia(w http.ResponseWriter, r *http.Request) {
	handle := strings.TrimPrefix(r.URL.Path, "/media/")
	blob, err := h.media.Fetch(r.Context(), handle)
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.log.Warn("media fetch failed", "handle", handle, "error", err)
		http.Error(w, "media unavailable", http.StatusInternalServerError)
		return
	}
	writeBlob(w, blob.Data, blob.MIMEType, "private, max-age=3600")
}

// HandleEvidence serves GET /evidence/<key> from the evidence store. It is
// what in-memory evidence URLs point at.
func (h *MediaHandler) HandleEvidence(w http.ResponseWriter, r *http.Request) {
	if h.evidence == nil {
		http.NotFound(w, r)
		return
	}
	key := strings.TrimPrefix(r.URL.Path, "/evidence/")
	obj, err := h.evidence.Get(r.Context(), key)
	if err != nil {
		if errors.Is(err, evidencerepo.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		h.log.Warn("evidence fetch failed", "key", key, "error", err)
		http.Error(w, "evidence unavailable", http.StatusBadGateway)
		return
	}
	writeBlob(w, obj.Data, obj.ContentType, "public, max-age=86400")
}

func writeBlob(w http.ResponseWriter, data []byte, contentType, cacheControl string) {
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", cacheControl)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// HandleHealth serves GET /healthz.
func HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
