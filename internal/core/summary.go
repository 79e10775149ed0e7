package core

// SubjectSummary is the per-subject projection used by the dashboard and chart.
type SubjectSummary struct {
	ID        string               `json:"id"`
	ShortName string               `json:"short_name"`
	Name      string               `json:"name"`
	Averages  map[CriterionKey]int `json:"averages"`
	Total     int                  `json:"total"`
	Grade     int                  `json:"grade"`
	Color     string               `json:"color"`
}

// Dashboard is a compact summary across all subjects.
type Dashboard struct {
	GPA         float64          `json:"gpa"`
	TotalPoints int              `json:"total_points"`
	MaxPoints   int              `json:"max_points"`
	Subjects    []SubjectSummary `json:"subjects"`
}

// Summarize derives the averages, total, and grade of one subject.
func Summarize(s Subject) SubjectSummary {
	averages := make(map[CriterionKey]int, len(Criteria))
	for _, key := range Criteria {
		averages[key] = CriterionAverage(s.Scores.Get(key))
	}
	total := TotalScore(s.Scores)
	grade := FinalGrade(total)
	return SubjectSummary{
		ID:        s.ID,
		ShortName: s.ShortName(),
		Name:      s.Name,
		Averages:  averages,
		Total:     total,
		Grade:     grade,
		Color:     GradeColor(grade),
	}
}

// Aggregate computes GPA and total points. An empty collection yields a
// zero dashboard instead of dividing by zero.
func Aggregate(subjects []Subject) Dashboard {
	d := Dashboard{Subjects: make([]SubjectSummary, 0, len(subjects))}
	if len(subjects) == 0 {
		return d
	}
	for _, s := range subjects {
		sum := Summarize(s)
		d.TotalPoints += sum.Grade
		d.Subjects = append(d.Subjects, sum)
	}
	d.MaxPoints = MaxGrade * len(subjects)
	d.GPA = float64(d.TotalPoints) / float64(len(subjects))
	return d
}

// GradeColor returns the chart colour for a grade. Grades 1 and 2 share red.
func GradeColor(grade int) string {
	switch grade {
	case 7:
		return "#059669"
	case 6:
		return "#16a34a"
	case 5:
		return "#2563eb"
	case 4:
		return "#ca8a04"
	case 3:
		return "#ea580c"
	default:
		return "#dc2626"
	}
}

// GradeBand names the colour band of a grade for CSS classes.
func GradeBand(grade int) string {
	switch grade {
	case 7:
		return "emerald"
	case 6:
		return "green"
	case 5:
		return "blue"
	case 4:
		return "yellow"
	case 3:
		return "orange"
	default:
		return "red"
	}
}
