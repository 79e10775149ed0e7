package core

import (
	"errors"
	"fmt"
	"strings"
)

const (
	CriterionA CriterionKey = "A"
	CriterionB CriterionKey = "B"
	CriterionC CriterionKey = "C"
	CriterionD CriterionKey = "D"
)

const (
	MinScore = 0
	MaxScore = 8

	MinGrade = 1
	MaxGrade = 7

	// MaxTotal is the highest total a subject can reach (four criteria at MaxScore).
	MaxTotal = 4 * MaxScore
)

type (
	CriterionKey string

	// CriteriaScores holds the recorded project scores per criterion.
	// Order is insertion order and only matters for display.
	CriteriaScores struct {
		A []int `json:"A"`
		B []int `json:"B"`
		C []int `json:"C"`
		D []int `json:"D"`
	}

	Subject struct {
		ID     string         `json:"id"`
		Name   string         `json:"name"`
		Scores CriteriaScores `json:"scores"`
	}

	GradeBoundary struct {
		Grade int `json:"grade"`
		Min   int `json:"min"`
		Max   int `json:"max"`
	}
)

var (
	ErrUnknownCriterion = errors.New("unknown criterion")
	ErrEmptySubjectID   = errors.New("empty subject id")
	ErrDuplicateSubject = errors.New("duplicate subject id")
)

// Criteria lists the criterion keys in display order.
var Criteria = []CriterionKey{CriterionA, CriterionB, CriterionC, CriterionD}

// GradeBoundaries is the standard MYP table over totals out of 32.
var GradeBoundaries = []GradeBoundary{
	{Grade: 1, Min: 0, Max: 5},
	{Grade: 2, Min: 6, Max: 9},
	{Grade: 3, Min: 10, Max: 14},
	{Grade: 4, Min: 15, Max: 18},
	{Grade: 5, Min: 19, Max: 23},
	{Grade: 6, Min: 24, Max: 27},
	{Grade: 7, Min: 28, Max: 32},
}

var defaultSubjects = []struct{ id, name string }{
	{"chn", "Chinese"},
	{"eng", "English"},
	{"math", "Mathematics"},
	{"bio", "Biology"},
	{"phys", "Physics"},
	{"dd", "Digital Design"},
	{"pd", "Product Design"},
	{"mus", "Music"},
	{"phe", "PHE"},
}

// DefaultSubjects returns a fresh copy of the first-run subject set with
// every criterion empty.
func DefaultSubjects() []Subject {
	out := make([]Subject, len(defaultSubjects))
	for i, s := range defaultSubjects {
		out[i] = Subject{ID: s.id, Name: s.name, Scores: EmptyScores()}
	}
	return out
}

// EmptyScores returns scores with all four criteria present and empty.
func EmptyScores() CriteriaScores {
	return CriteriaScores{A: []int{}, B: []int{}, C: []int{}, D: []int{}}
}

// ParseCriterionKey accepts "A".."D" in either case.
func ParseCriterionKey(s string) (CriterionKey, error) {
	k := CriterionKey(strings.ToUpper(strings.TrimSpace(s)))
	if k.Valid() {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCriterion, s)
}

// Valid reports whether k is one of the four criterion keys.
func (k CriterionKey) Valid() bool {
	switch k {
	case CriterionA, CriterionB, CriterionC, CriterionD:
		return true
	}
	return false
}

// Get returns the score list for the given criterion.
func (c CriteriaScores) Get(key CriterionKey) []int {
	switch key {
	case CriterionA:
		return c.A
	case CriterionB:
		return c.B
	case CriterionC:
		return c.C
	case CriterionD:
		return c.D
	}
	return nil
}

// With returns a copy of c where key's list is replaced by scores.
func (c CriteriaScores) With(key CriterionKey, scores []int) CriteriaScores {
	switch key {
	case CriterionA:
		c.A = scores
	case CriterionB:
		c.B = scores
	case CriterionC:
		c.C = scores
	case CriterionD:
		c.D = scores
	}
	return c
}

// Clone deep-copies every criterion list. Nil lists become empty.
func (c CriteriaScores) Clone() CriteriaScores {
	return CriteriaScores{
		A: cloneInts(c.A),
		B: cloneInts(c.B),
		C: cloneInts(c.C),
		D: cloneInts(c.D),
	}
}

// ShortName is the upper-cased id used as the chart label.
func (s Subject) ShortName() string {
	return strings.ToUpper(s.ID)
}

// ValidateSubjects checks id presence and uniqueness across the collection.
func ValidateSubjects(subjects []Subject) error {
	seen := make(map[string]struct{}, len(subjects))
	for _, s := range subjects {
		if strings.TrimSpace(s.ID) == "" {
			return ErrEmptySubjectID
		}
		if _, ok := seen[s.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateSubject, s.ID)
		}
		seen[s.ID] = struct{}{}
	}
	return nil
}

// CloneSubjects returns a deep copy safe to hand out to callers.
func CloneSubjects(subjects []Subject) []Subject {
	out := make([]Subject, len(subjects))
	for i, s := range subjects {
		out[i] = Subject{ID: s.ID, Name: s.Name, Scores: s.Scores.Clone()}
	}
	return out
}

func cloneInts(in []int) []int {
	out := make([]int, len(in))
	copy(out, in)
	return out
}
