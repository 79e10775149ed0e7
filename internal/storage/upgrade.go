package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"mypgrade/internal/core"
)

// StorageKey is the fixed key the subject collection is stored under.
const StorageKey = "myp-subjects-v1"

var ErrMalformedState = errors.New("malformed stored state")

type criterionShape int

const (
	shapeAbsent criterionShape = iota
	shapeScalar
	shapeList
)

// criterionValue is one stored criterion in any shape the app ever wrote:
// the current list of scores, the legacy single score, or nothing at all.
type criterionValue struct {
	shape  criterionShape
	values []int
}

func (v *criterionValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		v.shape = shapeAbsent
		return nil
	}

	switch data[0] {
	case 'n':
		*v = criterionValue{shape: shapeAbsent}
		return nil
	case '[':
		var list []int
		if err := json.Unmarshal(data, &list); err != nil {
			return fmt.Errorf("%w: criterion list: %v", ErrMalformedState, err)
		}
		if list == nil {
			list = []int{}
		}
		*v = criterionValue{shape: shapeList, values: list}
		return nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return fmt.Errorf("%w: criterion flag: %v", ErrMalformedState, err)
		}
		if b {
			return fmt.Errorf("%w: criterion cannot be true", ErrMalformedState)
		}
		*v = criterionValue{shape: shapeAbsent}
		return nil
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("%w: criterion string: %v", ErrMalformedState, err)
		}
		if s == "" {
			*v = criterionValue{shape: shapeAbsent}
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("%w: criterion string %q", ErrMalformedState, s)
		}
		return v.setScalar(float64(n))
	case '{':
		return fmt.Errorf("%w: criterion cannot be an object", ErrMalformedState)
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("%w: criterion scalar: %v", ErrMalformedState, err)
	}
	return v.setScalar(f)
}

// setScalar applies the legacy rule: a zero score counted as "no score".
func (v *criterionValue) setScalar(f float64) error {
	if f == 0 {
		*v = criterionValue{shape: shapeAbsent}
		return nil
	}
	if f != math.Trunc(f) {
		return fmt.Errorf("%w: criterion scalar %v is not an integer", ErrMalformedState, f)
	}
	if f < math.MinInt32 || f > math.MaxInt32 {
		return fmt.Errorf("%w: criterion scalar %v is out of range", ErrMalformedState, f)
	}
	*v = criterionValue{shape: shapeScalar, values: []int{int(f)}}
	return nil
}

// scores returns the normalized list; never nil.
func (v criterionValue) scores() []int {
	if v.shape == shapeAbsent || v.values == nil {
		return []int{}
	}
	out := make([]int, len(v.values))
	copy(out, v.values)
	return out
}

type storedScores struct {
	A criterionValue `json:"A"`
	B criterionValue `json:"B"`
	C criterionValue `json:"C"`
	D criterionValue `json:"D"`
}

type storedSubject struct {
	ID     string        `json:"id"`
	Name   string        `json:"name"`
	Scores *storedScores `json:"scores"`
}

// Upgrade normalizes a stored subject into the current schema. A missing
// scores object counts as four absent criteria.
func (s storedSubject) Upgrade() core.Subject {
	scores := storedScores{}
	if s.Scores != nil {
		scores = *s.Scores
	}
	return core.Subject{
		ID:   s.ID,
		Name: s.Name,
		Scores: core.CriteriaScores{
			A: scores.A.scores(),
			B: scores.B.scores(),
			C: scores.C.scores(),
			D: scores.D.scores(),
		},
	}
}

// DecodeSubjects parses a stored blob and upgrades every subject to the
// current shape. Already-current blobs pass through unchanged.
func DecodeSubjects(blob string) ([]core.Subject, error) {
	var stored []storedSubject
	if err := json.Unmarshal([]byte(blob), &stored); err != nil {
		return nil, fmt.Errorf("decode subjects: %w", err)
	}
	if stored == nil {
		return nil, fmt.Errorf("%w: expected a subject list", ErrMalformedState)
	}

	subjects := make([]core.Subject, len(stored))
	for i, s := range stored {
		subjects[i] = s.Upgrade()
	}
	if err := core.ValidateSubjects(subjects); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}
	return subjects, nil
}

// EncodeSubjects serializes the full collection. Empty criteria are written
// as [] so the blob never needs upgrading on the next load.
func EncodeSubjects(subjects []core.Subject) (string, error) {
	data, err := json.Marshal(core.CloneSubjects(subjects))
	if err != nil {
		return "", fmt.Errorf("encode subjects: %w", err)
	}
	return string(data), nil
}
