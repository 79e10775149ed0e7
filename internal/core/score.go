// Package core holds the MYP grade model: subjects, criterion scores, the
// grade boundary table and the math deriving grades from them.
//
// The grade math trusts its inputs; callers accepting user input run it
// through ParseScore or ValidateScores first.
package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidScore    = errors.New("invalid score")
	ErrScoreOutOfRange = errors.New("score out of range")
	ErrScoreIndex      = errors.New("score index out of range")
)

// ParseScore converts user input into a score. Only base-10 integers in
// [MinScore, MaxScore] are accepted; out-of-range values are rejected, never
// clamped.
//
// Examples:
//
//	ParseScore("7")   -> 7, nil
//	ParseScore(" 0 ") -> 0, nil
//	ParseScore("9")   -> 0, ErrScoreOutOfRange
//	ParseScore("6.5") -> 0, ErrInvalidScore
func ParseScore(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidScore
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidScore, s)
	}
	if err := ValidateScore(v); err != nil {
		return 0, err
	}
	return v, nil
}

func ValidateScore(v int) error {
	if v < MinScore || v > MaxScore {
		return fmt.Errorf("%w: %d not in [%d,%d]", ErrScoreOutOfRange, v, MinScore, MaxScore)
	}
	return nil
}

// ValidateScores checks every entry and reports the first offending index.
func ValidateScores(scores []int) error {
	for i, v := range scores {
		if err := ValidateScore(v); err != nil {
			return fmt.Errorf("scores[%d]: %w", i, err)
		}
	}
	return nil
}

// AppendScore returns a new list with v added at the end.
func AppendScore(scores []int, v int) ([]int, error) {
	if err := ValidateScore(v); err != nil {
		return nil, err
	}
	out := make([]int, 0, len(scores)+1)
	out = append(out, scores...)
	return append(out, v), nil
}

// RemoveScoreAt returns a new list without the entry at index i.
func RemoveScoreAt(scores []int, i int) ([]int, error) {
	if i < 0 || i >= len(scores) {
		return nil, fmt.Errorf("%w: %d", ErrScoreIndex, i)
	}
	out := make([]int, 0, len(scores)-1)
	out = append(out, scores[:i]...)
	return append(out, scores[i+1:]...), nil
}
