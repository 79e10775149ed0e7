package http

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"mypgrade/internal/core"
	applog "mypgrade/internal/log"
	appweb "mypgrade/web"
)

var errTemplatesNotLoaded = errors.New("templates not loaded")

func parseTemplates() (*template.Template, error) {
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}

type dashboardView struct {
	GPA         string
	TotalPoints int
	MaxPoints   int
	Subjects    []subjectCard
	Boundaries  []boundaryView
	MinScore    int
	MaxScore    int
}

type subjectCard struct {
	ID         string
	Name       string
	ShortName  string
	Total      int
	MaxTotal   int
	Grade      int
	Band       string
	BarPercent int
	Criteria   []criterionCard
}

type criterionCard struct {
	Key        core.CriterionKey
	Average    int
	RawAverage string
	Count      int
	Scores     []scoreChip
}

type scoreChip struct {
	Index int
	Value int
}

type boundaryView struct {
	Grade int
	Min   int
	Max   int
	Band  string
}

// newDashboardView projects one snapshot of the collection for templates.
func newDashboardView(subjects []core.Subject) dashboardView {
	dash := core.Aggregate(subjects)
	view := dashboardView{
		GPA:         fmt.Sprintf("%.2f", dash.GPA),
		TotalPoints: dash.TotalPoints,
		MaxPoints:   dash.MaxPoints,
		MinScore:    core.MinScore,
		MaxScore:    core.MaxScore,
	}

	for i, s := range subjects {
		sum := dash.Subjects[i]
		card := subjectCard{
			ID:         s.ID,
			Name:       s.Name,
			ShortName:  sum.ShortName,
			Total:      sum.Total,
			MaxTotal:   core.MaxTotal,
			Grade:      sum.Grade,
			Band:       core.GradeBand(sum.Grade),
			BarPercent: sum.Grade * 100 / core.MaxGrade,
		}
		for _, key := range core.Criteria {
			scores := s.Scores.Get(key)
			cc := criterionCard{
				Key:        key,
				Average:    sum.Averages[key],
				RawAverage: fmt.Sprintf("%.1f", core.CriterionRawAverage(scores)),
				Count:      len(scores),
			}
			for j, v := range scores {
				cc.Scores = append(cc.Scores, scoreChip{Index: j, Value: v})
			}
			card.Criteria = append(card.Criteria, cc)
		}
		view.Subjects = append(view.Subjects, card)
	}

	for _, b := range core.GradeBoundaries {
		view.Boundaries = append(view.Boundaries, boundaryView{
			Grade: b.Grade, Min: b.Min, Max: b.Max, Band: core.GradeBand(b.Grade),
		})
	}
	return view
}

func (s *Server) render(name string, data any) ([]byte, error) {
	if s.templates == nil {
		return nil, errTemplatesNotLoaded
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("execute %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	body, err := s.render("index.html", newDashboardView(s.grades.Subjects()))
	if err != nil {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Index render failed", err, applog.ComponentTemplate, applog.OpRender, nil)
		http.Error(w, "dashboard unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// respondMutation answers a successful write. htmx gets the re-rendered
// dashboard fragment, API clients get body as JSON.
func (s *Server) respondMutation(w http.ResponseWriter, r *http.Request, subjectID, message string, body any) {
	s.recordMutation()
	if !isHTMX(r) {
		respondJSON(w, http.StatusOK, body)
		return
	}

	fragment, err := s.render("dashboard", newDashboardView(s.grades.Subjects()))
	if err != nil {
		applog.NewStructuredLogger(applog.FromContext(r.Context())).
			LogError(r.Context(), "Dashboard fragment render failed", err, applog.ComponentTemplate, applog.OpRender, nil)
		ErrorResponse(http.StatusInternalServerError, "Saved, but the dashboard could not be refreshed").Write(w)
		return
	}
	NewHTMXResponse().
		TriggerGradesChanged(subjectID).
		TriggerFormReset().
		TriggerSuccessNotification(message).
		BodyHTML(string(fragment)).
		Write(w)
}
