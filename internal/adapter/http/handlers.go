package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rakesh-nandakumar/contextd/internal/domain/grounding"
	"github.com/rakesh-nandakumar/contextd/internal/domain/manifest"
	"github.com/rakesh-nandakumar/contextd/internal/service"
)

const maxQueryLength = 2000

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Retrieval *service.RetrievalService
	Config    *service.ManifestConfigService
}

type contextRequest struct {
	Query     string `json:"query"`
	MaxTokens int    `json:"max_tokens"`
}

type contextResponse struct {
	grounding.Context
	Timestamp string `json:"timestamp"`
}

func newContextResponse(c grounding.Context) contextResponse {
	return contextResponse{Context: c, Timestamp: time.Now().UTC().Format(time.RFC3339)}
}

// AssembleContext handles POST /context. The query is advisory; retrieval
// is driven by the persisted manifest.
func (h *Handlers) AssembleContext(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[contextRequest](w, r)
	if !ok {
		return
	}
	if len(req.Query) > maxQueryLength {
		writeError(w, http.StatusBadRequest, "query too long")
		return
	}
	out := h.Retrieval.Retrieve(r.Context(), req.Query, req.MaxTokens)
	writeJSON(w, http.StatusOK, newContextResponse(out))
}

// AssembleContextGet handles GET /context with query and max_tokens
// parameters, for clients that cannot send a body.
func (h *Handlers) AssembleContextGet(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if len(query) > maxQueryLength {
		writeError(w, http.StatusBadRequest, "query too long")
		return
	}
	maxTokens := 0
	if raw := r.URL.Query().Get("max_tokens"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "max_tokens must be an integer")
			return
		}
		maxTokens = n
	}
	out := h.Retrieval.Retrieve(r.Context(), query, maxTokens)
	writeJSON(w, http.StatusOK, newContextResponse(out))
}

type manifestPayload struct {
	Manifest        manifest.Manifest        `json:"manifest"`
	EnabledSections manifest.EnabledSections `json:"enabled_sections"`
}

// GetManifest handles GET /admin/manifest. It returns the active manifest
// and toggle map, falling back to defaults when nothing is persisted.
func (h *Handlers) GetManifest(w http.ResponseWriter, r *http.Request) {
	m, enabled := h.Config.Load(r.Context())
	writeJSON(w, http.StatusOK, manifestPayload{Manifest: m, EnabledSections: enabled})
}

// SaveManifest handles PUT /admin/manifest. Validation failures return 400
// and leave the persisted configuration untouched.
func (h *Handlers) SaveManifest(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[manifestPayload](w, r)
	if !ok {
		return
	}
	if err := h.Config.Save(r.Context(), req.Manifest, req.EnabledSections); err != nil {
		writeDomainError(w, err, "manifest config not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

type previewRequest struct {
	Manifest        manifest.Manifest        `json:"manifest"`
	EnabledSections manifest.EnabledSections `json:"enabled_sections"`
	Query           string                   `json:"query"`
	MaxTokens       int                      `json:"max_tokens"`
}

// previewResponse adds the backing tables of the included sections, so the
// admin UI can report the candidate manifest by either keying.
type previewResponse struct {
	contextResponse
	Tables []string `json:"tables_included"`
}

// PreviewManifest handles POST /admin/manifest/preview. The candidate
// manifest is exercised against live data without being persisted.
func (h *Handlers) PreviewManifest(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[previewRequest](w, r)
	if !ok {
		return
	}
	if err := req.Manifest.Validate(); err != nil {
		writeDomainError(w, err, "invalid manifest")
		return
	}
	out := h.Retrieval.Preview(r.Context(), req.Manifest, req.EnabledSections, req.Query, req.MaxTokens)
	tables := make([]string, 0, len(out.Sections))
	for _, name := range out.Sections {
		tables = append(tables, req.Manifest.Sections[name].Table)
	}
	writeJSON(w, http.StatusOK, previewResponse{contextResponse: newContextResponse(out), Tables: tables})
}

// ClearCache handles POST /admin/cache/clear. It drops the cached manifest
// config on every instance so the next request re-reads storage.
func (h *Handlers) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.Config.Invalidate(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
