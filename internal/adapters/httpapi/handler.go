// Package httpapi exposes the ortholog engine over HTTP under /protein.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"orthocore/internal/graph/core"
	"orthocore/internal/orthology"
	"orthocore/internal/taxonomy"
)

// Resolver is the engine surface used by the handler.
type Resolver interface {
	IsValidTaxonomicLevel(level string) bool
	IsValidTissue(code string) bool
	TissueCodes() []string
	SpeciesTissues(speciesID string) ([]orthology.TissueTerm, error)
	Levels(speciesID string) ([]taxonomy.Level, error)
	ResolveLowestLevel(ctx context.Context, proteinID, speciesID, tissue string) (string, error)
	Tissues(ctx context.Context, proteinID, level string) (orthology.LevelTissues, error)
	Orthologs(ctx context.Context, proteinID, level string) (orthology.LevelOrthologs, error)
	TissuesAndOrthologs(ctx context.Context, proteinID, level string) (orthology.LevelOrthologs, error)
	Report(ctx context.Context, proteinID, tissue, level string) (orthology.AbundanceReport, error)
}

var _ Resolver = (*orthology.Engine)(nil)

// Handler routes API requests to the engine.
type Handler struct {
	Engine Resolver
	// Metrics, when set, is served at /metrics.
	Metrics http.Handler
	// Ready, when set, backs /healthz.
	Ready func(context.Context) error
}

// NewHandler constructs an API handler.
func NewHandler(engine Resolver) *Handler {
	return &Handler{Engine: engine}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Engine == nil {
		writeError(w, http.StatusInternalServerError, "ortholog engine not configured")
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	path := r.URL.Path
	switch {
	case path == "/":
		writeJSON(w, http.StatusOK, map[string]any{"service": "orthocore"})
	case path == "/healthz":
		h.handleHealth(w, r)
	case path == "/metrics":
		if h.Metrics == nil {
			http.NotFound(w, r)
			return
		}
		h.Metrics.ServeHTTP(w, r)
	case path == "/tissues":
		writeJSON(w, http.StatusOK, map[string]any{"tissues": h.Engine.TissueCodes()})
	case strings.HasPrefix(path, "/species/"):
		h.handleSpecies(w, strings.Trim(strings.TrimPrefix(path, "/species"), "/"))
	case path == "/protein" || strings.HasPrefix(path, "/protein/"):
		h.handleProtein(w, r, strings.Trim(strings.TrimPrefix(path, "/protein"), "/"))
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.Ready != nil {
		if err := h.Ready(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// handleSpecies serves /species/{id}/tissues.
func (h *Handler) handleSpecies(w http.ResponseWriter, remainder string) {
	segments := strings.Split(remainder, "/")
	if len(segments) != 2 || segments[1] != "tissues" {
		writeError(w, http.StatusNotFound, "endpoint not found")
		return
	}
	terms, err := h.Engine.SpeciesTissues(segments[0])
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"species": segments[0], "tissues": terms})
}

func (h *Handler) handleProtein(w http.ResponseWriter, r *http.Request, remainder string) {
	if remainder == "" {
		writeJSON(w, http.StatusOK, map[string]any{"protein": "homepage"})
		return
	}
	segments := strings.Split(remainder, "/")
	proteinID := segments[0]
	speciesID, err := orthology.ParseProteinID(proteinID)
	if err != nil {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Invalid protein id: %s, expecting: <species>.<identifier>", proteinID))
		return
	}
	if len(segments) < 2 || segments[1] != "ortholog_groups" {
		writeError(w, http.StatusNotFound, "endpoint not found")
		return
	}
	req := proteinRequest{proteinID: proteinID, speciesID: speciesID}
	switch len(segments) {
	case 2:
		h.handleLevels(w, req)
		return
	case 3, 4:
	default:
		writeError(w, http.StatusNotFound, "endpoint not found")
		return
	}

	if segments[2] == "get_lowest_level" {
		if len(segments) != 4 {
			writeError(w, http.StatusNotFound, "endpoint not found")
			return
		}
		var ok bool
		if req.tissue, ok = h.tissueParam(w, segments[3]); !ok {
			return
		}
		h.handleLowestLevel(w, r, req)
		return
	}

	req.level = strings.ToUpper(segments[2])
	if !h.Engine.IsValidTaxonomicLevel(req.level) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid taxonomic level: %s", segments[2]))
		return
	}
	if len(segments) == 3 {
		h.handleTissuesAndOrthologs(w, r, req)
		return
	}
	switch segments[3] {
	case "list_tissues":
		h.handleTissues(w, r, req)
	case "list_orthologs":
		h.handleOrthologs(w, r, req)
	default:
		var ok bool
		if req.tissue, ok = h.tissueParam(w, segments[3]); !ok {
			return
		}
		h.handleAbundances(w, r, req)
	}
}

type proteinRequest struct {
	proteinID string
	speciesID string
	level     string
	tissue    string
}

// tissueParam upper-cases and validates a tissue path segment.
func (h *Handler) tissueParam(w http.ResponseWriter, raw string) (string, bool) {
	tissue := strings.ToUpper(raw)
	if !h.Engine.IsValidTissue(tissue) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid tissue input: %s", raw))
		return "", false
	}
	return tissue, true
}

type levelsResponse struct {
	ProteinID       string           `json:"proteinId"`
	SpeciesID       string           `json:"speciesId"`
	TaxonomicLevels []taxonomy.Level `json:"taxonomicLevels"`
}

func (h *Handler) handleLevels(w http.ResponseWriter, req proteinRequest) {
	levels, err := h.Engine.Levels(req.speciesID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, levelsResponse{ProteinID: req.proteinID, SpeciesID: req.speciesID, TaxonomicLevels: levels})
}

func (h *Handler) handleLowestLevel(w http.ResponseWriter, r *http.Request, req proteinRequest) {
	level, err := h.Engine.ResolveLowestLevel(r.Context(), req.proteinID, req.speciesID, req.tissue)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(level))
}

type tissuesOrthologsResponse struct {
	ProteinID      string          `json:"proteinId"`
	TaxonomicLevel string          `json:"taxonomicLevel"`
	LevelID        string          `json:"taxonomicLevelId"`
	Tissues        []string        `json:"tissues,omitempty"`
	OntoTerms      []string        `json:"ontoTerms,omitempty"`
	Orthologs      []core.Ortholog `json:"orthologs,omitempty"`
}

func tissueColumns(terms []orthology.TissueTerm) ([]string, []string) {
	codes := make([]string, 0, len(terms))
	onto := make([]string, 0, len(terms))
	for _, t := range terms {
		codes = append(codes, t.Code)
		onto = append(onto, t.Term)
	}
	return codes, onto
}

func (h *Handler) handleTissuesAndOrthologs(w http.ResponseWriter, r *http.Request, req proteinRequest) {
	res, err := h.Engine.TissuesAndOrthologs(r.Context(), req.proteinID, req.level)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	out := tissuesOrthologsResponse{
		ProteinID:      req.proteinID,
		TaxonomicLevel: res.Level.Name,
		LevelID:        res.Level.ID,
		Orthologs:      res.Orthologs,
	}
	out.Tissues, out.OntoTerms = tissueColumns(res.Tissues)
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleTissues(w http.ResponseWriter, r *http.Request, req proteinRequest) {
	res, err := h.Engine.Tissues(r.Context(), req.proteinID, req.level)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	out := tissuesOrthologsResponse{ProteinID: req.proteinID, TaxonomicLevel: res.Level.Name, LevelID: res.Level.ID}
	out.Tissues, out.OntoTerms = tissueColumns(res.Tissues)
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleOrthologs(w http.ResponseWriter, r *http.Request, req proteinRequest) {
	res, err := h.Engine.Orthologs(r.Context(), req.proteinID, req.level)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tissuesOrthologsResponse{
		ProteinID:      req.proteinID,
		TaxonomicLevel: res.Level.Name,
		LevelID:        res.Level.ID,
		Orthologs:      res.Orthologs,
	})
}

type abundancesResponse struct {
	SpeciesID      string                       `json:"speciesId"`
	ProteinID      string                       `json:"proteinId"`
	Tissue         string                       `json:"tissue"`
	TaxonomicLevel string                       `json:"taxonomicLevel"`
	Results        []orthology.ProteinAbundance `json:"results"`
	Tree           any                          `json:"tree"`
}

func (h *Handler) handleAbundances(w http.ResponseWriter, r *http.Request, req proteinRequest) {
	report, err := h.Engine.Report(r.Context(), req.proteinID, req.tissue, req.level)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	out := abundancesResponse{
		SpeciesID:      req.speciesID,
		ProteinID:      req.proteinID,
		Tissue:         req.tissue,
		TaxonomicLevel: report.Level.Name,
		Results:        report.Abundances,
		Tree:           struct{}{},
	}
	if out.Results == nil {
		out.Results = []orthology.ProteinAbundance{}
	}
	if report.FamilyTree != nil {
		out.Tree = report.FamilyTree
	}
	writeJSON(w, http.StatusOK, out)
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	var (
		unknownSpecies taxonomy.UnknownSpeciesError
		unknownGroup   taxonomy.UnknownOrthogroupError
		failed         *orthology.ResolutionFailedError
	)
	switch {
	case errors.Is(err, orthology.ErrInvalidTaxonomicLevel),
		errors.Is(err, orthology.ErrInvalidTissue),
		errors.Is(err, orthology.ErrInvalidProteinID),
		errors.As(err, &unknownSpecies),
		errors.As(err, &unknownGroup):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case orthology.IsStoreUnavailable(err), errors.As(err, &failed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeEngineError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}
