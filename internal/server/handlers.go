package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tracelight-dev/tracelight/internal/build"
	"github.com/tracelight-dev/tracelight/internal/store"
)

// Handlers provides the HTTP handlers for the lineage API.
type Handlers struct {
	store  *store.SQLiteStore
	logger *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(st *store.SQLiteStore, logger *slog.Logger) *Handlers {
	return &Handlers{store: st, logger: logger}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handlers) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// resolveBuild resolves the build query parameter, defaulting to the
// latest build. Returns nil with ok=false after writing the response
// when no build is available.
func (h *Handlers) resolveBuild(w http.ResponseWriter, r *http.Request) (*store.Build, bool) {
	if id := r.URL.Query().Get("build"); id != "" {
		b, err := h.store.GetBuild(id)
		if err != nil {
			h.writeError(w, http.StatusNotFound, err)
			return nil, false
		}
		return b, true
	}

	b, err := h.store.LatestBuild()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return nil, false
	}
	if b == nil {
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: "no builds recorded"})
		return nil, false
	}
	return b, true
}

// Health reports server liveness.
func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListBuilds returns all recorded builds, most recent first.
func (h *Handlers) ListBuilds(w http.ResponseWriter, _ *http.Request) {
	builds, err := h.store.ListBuilds()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if builds == nil {
		builds = []*store.Build{}
	}
	h.writeJSON(w, http.StatusOK, builds)
}

// ListDomains returns the domains of a build (latest by default).
func (h *Handlers) ListDomains(w http.ResponseWriter, r *http.Request) {
	b, ok := h.resolveBuild(w, r)
	if !ok {
		return
	}

	domains, err := h.store.ListDomains(b.ID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if domains == nil {
		domains = []string{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"build":   b.ID,
		"domains": domains,
	})
}

// GetGraph returns the lineage document of a build (latest by default).
// The physical parameter selects the scope without JOIN/WHERE markers,
// the domain parameter restricts the document to a single domain.
func (h *Handlers) GetGraph(w http.ResponseWriter, r *http.Request) {
	b, ok := h.resolveBuild(w, r)
	if !ok {
		return
	}

	scope := store.ScopeFull
	if r.URL.Query().Get("physical") == "true" {
		scope = store.ScopePhysical
	}

	doc, err := h.store.GetDocument(b.ID, scope)
	if err != nil {
		h.writeError(w, http.StatusNotFound, err)
		return
	}

	if domain := r.URL.Query().Get("domain"); domain != "" {
		doc = filterDomain(doc, domain)
	}

	h.writeJSON(w, http.StatusOK, doc)
}

// filterDomain restricts a document to the objects of one domain,
// dropping connections that lose an endpoint.
func filterDomain(doc *build.Document, domain string) *build.Document {
	kept := make(map[string]bool, len(doc.Objects))
	out := &build.Document{}
	for _, obj := range doc.Objects {
		if obj.Domain != domain {
			continue
		}
		kept[obj.ID] = true
		out.Objects = append(out.Objects, obj)
	}
	for _, conn := range doc.Connections {
		if kept[conn.Source] && kept[conn.Target] {
			out.Connections = append(out.Connections, conn)
		}
	}
	return out
}
