package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"factuboard/internal/dataset"
	"factuboard/internal/domain"
	"factuboard/internal/filter"
	"factuboard/internal/ingest"
	"factuboard/internal/metrics"
	"factuboard/internal/middleware"
)

// maxUploadBytes caps multipart uploads (64 MiB covers the largest monthly
// exports seen in practice with room to spare).
const maxUploadBytes = 64 << 20

// Handler serves the pipeline API.
type Handler struct {
	loader     *dataset.Loader
	ingestor   *ingest.Service
	rosterRepo domain.RosterRepository
	auditRepo  domain.AuditRepository
	logger     *slog.Logger
}

// NewHandler creates the API handler.
func NewHandler(
	loader *dataset.Loader,
	ingestor *ingest.Service,
	rosterRepo domain.RosterRepository,
	auditRepo domain.AuditRepository,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		loader:     loader,
		ingestor:   ingestor,
		rosterRepo: rosterRepo,
		auditRepo:  auditRepo,
		logger:     logger,
	}
}

// Healthz is the liveness probe.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListModules reports the lifecycle state of every module.
func (h *Handler) ListModules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.loader.Status(r.Context()))
}

// GetModule reports one module's state.
func (h *Handler) GetModule(w http.ResponseWriter, r *http.Request) {
	module := chi.URLParam(r, "module")
	for _, st := range h.loader.Status(r.Context()) {
		if st.Module == module {
			writeJSON(w, http.StatusOK, st)
			return
		}
	}
	writeError(w, domain.ErrNotFound("unknown module %q", module))
}

// IngestModule accepts a multipart spreadsheet upload and runs the
// ingestion pipeline, returning the full row accounting.
func (h *Handler) IngestModule(w http.ResponseWriter, r *http.Request) {
	module := chi.URLParam(r, "module")
	actor := h.actor(r)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, domain.ErrValidation("multipart field \"file\" is required: %v", err))
		return
	}
	defer file.Close() //nolint:errcheck

	report, err := h.loader.Ingest(r.Context(), actor, module, header.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// queryRequest is the filter selection as sent by the presentation layer.
type queryRequest struct {
	DateFrom   string   `json:"date_from,omitempty"`
	DateTo     string   `json:"date_to,omitempty"`
	Users      []string `json:"users,omitempty"`
	Agreements []string `json:"agreements,omitempty"`
	Statuses   []string `json:"statuses,omitempty"`
	Limit      int      `json:"limit,omitempty"`
}

func (q *queryRequest) selection() (domain.FilterSelection, error) {
	sel := domain.FilterSelection{
		Users:      q.Users,
		Agreements: q.Agreements,
		Statuses:   q.Statuses,
	}
	parse := func(s string) (*time.Time, error) {
		if s == "" {
			return nil, nil
		}
		t, err := time.Parse(domain.DateLayout, s)
		if err != nil {
			return nil, domain.ErrValidation("invalid date %q (want %s)", s, domain.DateLayout)
		}
		return &t, nil
	}
	var err error
	if sel.DateFrom, err = parse(q.DateFrom); err != nil {
		return sel, err
	}
	if sel.DateTo, err = parse(q.DateTo); err != nil {
		return sel, err
	}
	return sel, nil
}

// QueryModule returns the module's rows restricted to a filter selection.
func (h *Handler) QueryModule(w http.ResponseWriter, r *http.Request) {
	view, req, ok := h.filteredView(w, r)
	if !ok {
		return
	}

	rows := view.Rows
	truncated := false
	if req.Limit > 0 && len(rows) > req.Limit {
		rows = rows[:req.Limit]
		truncated = true
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"module":    view.Module,
		"columns":   view.Columns,
		"rows":      rows,
		"row_count": len(view.Rows),
		"truncated": truncated,
	})
}

// ModuleMetrics returns the KPIs for the module's filtered view.
func (h *Handler) ModuleMetrics(w http.ResponseWriter, r *http.Request) {
	view, _, ok := h.filteredView(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, metrics.Summarize(view))
}

// filteredView decodes the selection, loads the module snapshot, and
// applies the filter engine.
func (h *Handler) filteredView(w http.ResponseWriter, r *http.Request) (*domain.Table, *queryRequest, bool) {
	module := chi.URLParam(r, "module")

	var req queryRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, domain.ErrValidation("invalid request body: %v", err))
			return nil, nil, false
		}
	}
	sel, err := req.selection()
	if err != nil {
		writeError(w, err)
		return nil, nil, false
	}

	table, err := h.loader.GetModuleTable(r.Context(), module)
	if err != nil {
		writeError(w, err)
		return nil, nil, false
	}
	return filter.Apply(table, sel), &req, true
}

// GetRoster returns the stored roster, sorted by document ID.
func (h *Handler) GetRoster(w http.ResponseWriter, r *http.Request) {
	rosterMap, err := h.rosterRepo.All(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	users := make([]domain.AuthorizedUser, 0, len(rosterMap))
	for doc, name := range rosterMap {
		users = append(users, domain.AuthorizedUser{DocumentID: doc, FullName: name})
	}
	sort.Slice(users, func(i, j int) bool { return users[i].DocumentID < users[j].DocumentID })
	writeJSON(w, http.StatusOK, map[string]any{"count": len(users), "users": users})
}

// PutRoster replaces the stored roster from a multipart upload.
func (h *Handler) PutRoster(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, domain.ErrValidation("multipart field \"file\" is required: %v", err))
		return
	}
	defer file.Close() //nolint:errcheck

	count, err := h.ingestor.ReplaceRoster(r.Context(), h.actor(r), header.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"count": count})
}

// ListAudit returns recent ingestion audit entries.
func (h *Handler) ListAudit(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, domain.ErrValidation("invalid limit %q", v))
			return
		}
		limit = n
	}
	entries, err := h.auditRepo.List(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) actor(r *http.Request) string {
	if principal, ok := middleware.PrincipalFromContext(r.Context()); ok {
		return principal
	}
	return middleware.AnonymousPrincipal
}
