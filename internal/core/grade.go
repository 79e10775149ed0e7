package core

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// CriterionAverage returns the mean of scores rounded half-up to an integer.
// An empty list averages to 0.
//
//	CriterionAverage([]int{5, 6})    -> 6
//	CriterionAverage([]int{5, 5, 6}) -> 5
func CriterionAverage(scores []int) int {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, v := range scores {
		sum += v
	}
	return int(math.Floor(float64(sum)/float64(len(scores)) + 0.5))
}

// CriterionRawAverage returns the mean rounded half-up to one decimal.
// Display only; grading uses CriterionAverage.
func CriterionRawAverage(scores []int) float64 {
	if len(scores) == 0 {
		return 0
	}
	sum := 0
	for _, v := range scores {
		sum += v
	}
	// Work in integer tenths so 5.25 style means are not skewed by float error.
	tenths := (sum*100/len(scores) + 5) / 10
	return float64(tenths) / 10
}

// TotalScore sums the four criterion averages.
func TotalScore(scores CriteriaScores) int {
	total := 0
	for _, key := range Criteria {
		total += CriterionAverage(scores.Get(key))
	}
	return total
}

// FinalGrade maps a total score to a grade using GradeBoundaries.
func FinalGrade(total int) int {
	return FinalGradeIn(GradeBoundaries, total)
}

// FinalGradeIn returns the grade of the first boundary containing total.
// When no boundary matches, grade 1 is returned. The standard table covers
// every total, so this only matters for custom tables with gaps.
func FinalGradeIn(table []GradeBoundary, total int) int {
	for _, b := range table {
		if total >= b.Min && total <= b.Max {
			return b.Grade
		}
	}
	return MinGrade
}

var ErrInvalidBoundaries = errors.New("invalid grade boundaries")

// ValidateBoundaries checks that table partitions [0, MaxTotal] into
// contiguous, non-overlapping ranges with grades in [MinGrade, MaxGrade].
func ValidateBoundaries(table []GradeBoundary) error {
	if len(table) == 0 {
		return fmt.Errorf("%w: empty table", ErrInvalidBoundaries)
	}
	sorted := make([]GradeBoundary, len(table))
	copy(sorted, table)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Min < sorted[j].Min })

	next := 0
	for _, b := range sorted {
		if b.Grade < MinGrade || b.Grade > MaxGrade {
			return fmt.Errorf("%w: grade %d out of range", ErrInvalidBoundaries, b.Grade)
		}
		if b.Min > b.Max {
			return fmt.Errorf("%w: grade %d has min %d above max %d", ErrInvalidBoundaries, b.Grade, b.Min, b.Max)
		}
		if b.Min > next {
			return fmt.Errorf("%w: gap between %d and %d", ErrInvalidBoundaries, next, b.Min-1)
		}
		if b.Min < next {
			return fmt.Errorf("%w: grade %d overlaps at %d", ErrInvalidBoundaries, b.Grade, b.Min)
		}
		next = b.Max + 1
	}
	if next != MaxTotal+1 {
		return fmt.Errorf("%w: table ends at %d, want %d", ErrInvalidBoundaries, next-1, MaxTotal)
	}
	return nil
}
