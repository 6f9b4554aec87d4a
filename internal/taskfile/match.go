package taskfile

import (
	"fmt"
	"strings"
)

// MatchConflictError reports an ambiguous fuzzy match with the candidate
// titles so the caller can disambiguate. It satisfies
// errors.Is(err, ErrConflict).
type MatchConflictError struct {
	Query   string
	Matches []*Task
}

func (e *MatchConflictError) Error() string {
	titles := make([]string, 0, len(e.Matches))
	for _, t := range e.Matches {
		titles = append(titles, t.Title)
	}
	return fmt.Sprintf("conflict: %q matches %d tasks: %s", e.Query, len(e.Matches), strings.Join(titles, "; "))
}

func (e *MatchConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Match resolves a user-supplied substring to exactly one task by
// case-insensitive containment against titles. Zero candidates is
// ErrNotFound; two or more is a conflict, unless exactly one of them equals
// the query outright — exact beats partial. Match never guesses.
func Match(tasks []*Task, query string) (*Task, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, fmt.Errorf("%w: empty match query", ErrInvalid)
	}
	var candidates []*Task
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Title), q) {
			candidates = append(candidates, t)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no task matches %q", ErrNotFound, query)
	}
	if len(candidates) == 1 {
		return candidates[0], nil
	}
	var exact []*Task
	for _, t := range candidates {
		if strings.ToLower(t.Title) == q {
			exact = append(exact, t)
		}
	}
	if len(exact) == 1 {
		return exact[0], nil
	}
	return nil, &MatchConflictError{Query: query, Matches: candidates}
}
