package core

// UpdateCriterionScores returns a new collection where the subject with the
// given id has its criterion list replaced by a copy of newScores. Other
// subjects share their values with the input. An unknown id returns the
// collection unchanged.
func UpdateCriterionScores(subjects []Subject, id string, key CriterionKey, newScores []int) []Subject {
	idx := -1
	for i, s := range subjects {
		if s.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return subjects
	}

	out := make([]Subject, len(subjects))
	copy(out, subjects)
	target := out[idx]
	target.Scores = target.Scores.With(key, cloneInts(newScores))
	out[idx] = target
	return out
}

// Reset discards all recorded scores and returns the default subject set.
// Callers confirm with the user before invoking it.
func Reset() []Subject {
	return DefaultSubjects()
}

// FindSubject returns the subject with the given id.
func FindSubject(subjects []Subject, id string) (Subject, bool) {
	for _, s := range subjects {
		if s.ID == id {
			return s, true
		}
	}
	return Subject{}, false
}
