package main

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/bidwell-group/tender-cli/internal/assess"
	"github.com/bidwell-group/tender-cli/internal/ingest"
	"github.com/bidwell-group/tender-cli/internal/ledger"
	"github.com/bidwell-group/tender-cli/internal/model"
	"github.com/bidwell-group/tender-cli/internal/store"
)

// api holds the request-scoped engine entry points behind the HTTP routes.
type api struct {
	store    store.Store
	ledger   *ledger.Ledger
	ingestor *ingest.Ingestor
}

// buildRouter wires the JSON API over the store.
func buildRouter(st store.Store) chi.Router {
	a := &api{store: st, ledger: ledger.New(st), ingestor: ingest.New(st)}

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", a.health)
	r.Route("/projects", func(r chi.Router) {
		r.Post("/", a.createProject)
		r.Get("/", a.listProjects)
		r.Route("/{projectID}", func(r chi.Router) {
			r.Get("/", a.getProject)
			r.Post("/itt", a.replaceITT)
			r.Post("/responses", a.ingestResponse)
			r.Post("/suggestions", a.recordSuggestions)
			r.Get("/matches", a.listMatches)
			r.Post("/matches", a.createManualMatch)
			r.Post("/matches/{matchID}/accept", a.acceptMatch)
			r.Post("/matches/{matchID}/reject", a.rejectMatch)
			r.Post("/exceptions", a.flagException)
			r.Put("/exceptions/{exceptionID}/section", a.attachException)
			r.Get("/assessment", a.assessment)
		})
	})
	return r
}

func (a *api) health(w http.ResponseWriter, r *http.Request) {
	if err := a.store.Ping(r.Context()); err != nil {
		zap.L().Warn("api: store ping failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *api) createProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string `json:"name"`
		ClientName string `json:"client_name"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	if req.Name == "" {
		writeError(w, eris.Wrap(model.ErrValidation, "project name is required"))
		return
	}

	project, err := a.store.CreateProject(r.Context(), req.Name, req.ClientName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (a *api) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := a.store.ListProjects(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if projects == nil {
		projects = []model.Project{}
	}
	writeJSON(w, http.StatusOK, projects)
}

func (a *api) getProject(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	project, err := a.store.GetProject(r.Context(), projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	if project == nil {
		writeError(w, eris.Wrapf(model.ErrNotFound, "project not found: %s", projectID))
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (a *api) replaceITT(w http.ResponseWriter, r *http.Request) {
	var records []model.ParsedLineItem
	if !readJSON(w, r, &records) {
		return
	}

	result, err := a.ingestor.ITT(r.Context(), chi.URLParam(r, "projectID"), records)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *api) ingestResponse(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Contractor string                     `json:"contractor"`
		Items      []model.ParsedResponseItem `json:"items"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	result, err := a.ingestor.Response(r.Context(), chi.URLParam(r, "projectID"), req.Contractor, req.Items)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (a *api) recordSuggestions(w http.ResponseWriter, r *http.Request) {
	var suggestions []model.Suggestion
	if !readJSON(w, r, &suggestions) {
		return
	}

	report, err := a.ledger.RecordSuggestions(r.Context(), chi.URLParam(r, "projectID"), suggestions)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (a *api) listMatches(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	filter, err := model.ParseMatchFilter(r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}

	project, err := a.store.GetProject(r.Context(), projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	if project == nil {
		writeError(w, eris.Wrapf(model.ErrNotFound, "project not found: %s", projectID))
		return
	}

	matches, err := a.ledger.List(r.Context(), projectID, filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if matches == nil {
		matches = []model.Match{}
	}
	writeJSON(w, http.StatusOK, matches)
}

func (a *api) createManualMatch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ITTItemID      string `json:"itt_item_id"`
		ResponseItemID string `json:"response_item_id"`
		Comment        string `json:"comment"`
	}
	if !readJSON(w, r, &req) {
		return
	}

	m, err := a.ledger.CreateManual(r.Context(), chi.URLParam(r, "projectID"), req.ITTItemID, req.ResponseItemID, req.Comment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (a *api) acceptMatch(w http.ResponseWriter, r *http.Request) {
	a.settleMatch(w, r, model.MatchAccepted)
}

func (a *api) rejectMatch(w http.ResponseWriter, r *http.Request) {
	a.settleMatch(w, r, model.MatchRejected)
}

func (a *api) settleMatch(w http.ResponseWriter, r *http.Request, status model.MatchStatus) {
	var req struct {
		Comment string `json:"comment"`
	}
	// Settlement bodies are optional.
	if r.Body != nil && r.ContentLength != 0 {
		if !readJSON(w, r, &req) {
			return
		}
	}

	m, err := a.ledger.Settle(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "matchID"), status, req.Comment)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (a *api) flagException(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ResponseItemID string `json:"response_item_id"`
		Note           string `json:"note"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	if req.ResponseItemID == "" {
		writeError(w, eris.Wrap(model.ErrValidation, "response_item_id is required"))
		return
	}

	ex, err := a.ledger.FlagException(r.Context(), chi.URLParam(r, "projectID"), req.ResponseItemID, req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ex)
}

func (a *api) attachException(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SectionID string `json:"section_id"`
	}
	if !readJSON(w, r, &req) {
		return
	}
	if req.SectionID == "" {
		writeError(w, eris.Wrap(model.ErrValidation, "section_id is required"))
		return
	}

	ex, err := a.ledger.AttachException(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "exceptionID"), req.SectionID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

func (a *api) assessment(w http.ResponseWriter, r *http.Request) {
	snap, err := store.LoadSnapshot(r.Context(), a.store, chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, err)
		return
	}
	payload := assess.Build(*snap)
	writeJSON(w, http.StatusOK, payload)
}

// readJSON decodes the request body into v, answering 400 on malformed
// input. It reports whether decoding succeeded.
func readJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

// writeJSON writes v as the JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps engine error kinds onto HTTP statuses: NotFound 404,
// Validation and InvalidState 400, Conflict 409, anything else 500.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, model.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrInvalidState):
		status = http.StatusBadRequest
	case errors.Is(err, model.ErrConflict):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		zap.L().Error("api: internal error", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
