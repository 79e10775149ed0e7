package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"mypgrade/internal/core"
	applog "mypgrade/internal/log"
	"mypgrade/internal/services"
)

// subjectResponse is a stored subject plus everything derived from it.
type subjectResponse struct {
	core.Subject
	Summary     core.SubjectSummary           `json:"summary"`
	RawAverages map[core.CriterionKey]float64 `json:"raw_averages"`
	Counts      map[core.CriterionKey]int     `json:"counts"`
}

func newSubjectResponse(s core.Subject) subjectResponse {
	resp := subjectResponse{
		Subject:     s,
		Summary:     core.Summarize(s),
		RawAverages: make(map[core.CriterionKey]float64, len(core.Criteria)),
		Counts:      make(map[core.CriterionKey]int, len(core.Criteria)),
	}
	for _, key := range core.Criteria {
		scores := s.Scores.Get(key)
		resp.RawAverages[key] = core.CriterionRawAverage(scores)
		resp.Counts[key] = len(scores)
	}
	return resp
}

type boundaryResponse struct {
	core.GradeBoundary
	Color string `json:"color"`
}

func (s *Server) handleListSubjects(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.grades.Subjects())
}

func (s *Server) handleGetSubject(w http.ResponseWriter, r *http.Request) {
	subject, err := s.grades.Subject(chi.URLParam(r, "id"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newSubjectResponse(subject))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.grades.Dashboard())
}

func (s *Server) handleBoundaries(w http.ResponseWriter, r *http.Request) {
	out := make([]boundaryResponse, len(core.GradeBoundaries))
	for i, b := range core.GradeBoundaries {
		out[i] = boundaryResponse{GradeBoundary: b, Color: core.GradeColor(b.Grade)}
	}
	respondJSON(w, http.StatusOK, out)
}

// handleUpdateCriterion replaces a criterion's list wholesale. Unknown
// subjects are a no-op and still answer with the collection.
func (s *Server) handleUpdateCriterion(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	key, err := core.ParseCriterionKey(chi.URLParam(r, "criterion"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	scores, err := NewRequestBodyParser(r).ParseScores()
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	subjects, err := s.grades.UpdateCriterion(r.Context(), id, key, scores)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondMutation(w, r, id, "Scores updated", subjects)
}

func (s *Server) handleAddScore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	key, err := core.ParseCriterionKey(chi.URLParam(r, "criterion"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	subject, err := s.grades.AddScore(r.Context(), id, key, p.Get("score"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondMutation(w, r, id, "Score added", newSubjectResponse(subject))
}

func (s *Server) handleRemoveScore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	key, err := core.ParseCriterionKey(chi.URLParam(r, "criterion"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	index, err := ParseScoreIndex(chi.URLParam(r, "index"))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	subject, err := s.grades.RemoveScore(r.Context(), id, key, index)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}
	s.respondMutation(w, r, id, "Score removed", newSubjectResponse(subject))
}

// handleReset wipes every score. It refuses with 428 unless the caller
// confirmed with confirm=yes.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	p := NewRequestBodyParser(r)
	if !IsConfirmed(r, p) {
		respondError(w, r, http.StatusPreconditionRequired,
			"Reset deletes every recorded score; repeat with confirm=yes")
		return
	}
	s.respondMutation(w, r, "", "All scores reset", s.grades.Reset(r.Context()))
}

// statusForError maps domain errors onto HTTP statuses.
func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrMalformedRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrInvalidScore), errors.Is(err, core.ErrScoreOutOfRange):
		return http.StatusUnprocessableEntity
	case errors.Is(err, services.ErrSubjectNotFound),
		errors.Is(err, core.ErrUnknownCriterion),
		errors.Is(err, core.ErrScoreIndex):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Grade request failed", err, applog.ComponentHTTP, r.Method+" "+r.URL.Path, nil)
		respondError(w, r, status, "Internal error")
		return
	}
	applog.FromContext(r.Context()).DebugContext(r.Context(), "Grade request rejected",
		applog.FieldError, err, applog.FieldStatusCode, status)
	respondError(w, r, status, err.Error())
}
