// Package extract turns unstructured prose (meeting notes) into candidate
// tasks using deterministic heuristics. Candidates are suggestions for a
// human to review, never written to a vault directly, and are kept as a
// distinct type so calling code cannot confuse them with parsed tasks.
package extract

import (
	"bytes"
	"crypto/sha1"
	"regexp"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/mjholt/taskmd/internal/taskfile"
)

// Candidate is one extracted action item. ID is derived from the segment
// text, so the same input always yields the same candidates, IDs included.
type Candidate struct {
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Owner    string            `json:"owner,omitempty"`
	Priority taskfile.Priority `json:"priority"`
}

var (
	bulletRe     = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)
	obligationRe = regexp.MustCompile(`^([A-Z][a-z]+)\s+(to|needs|owns)\b\s*(.*)$`)
	splitRe      = regexp.MustCompile(`[.!?;]+`)
)

// actionVerbs is the fixed cue lexicon. A segment starting with one of these
// is treated as an action item.
var actionVerbs = map[string]bool{
	"add": true, "ask": true, "book": true, "build": true, "buy": true,
	"call": true, "check": true, "confirm": true, "create": true,
	"draft": true, "email": true, "finish": true, "fix": true,
	"follow": true, "investigate": true, "order": true, "own": true,
	"pay": true, "plan": true, "prepare": true, "read": true,
	"renew": true, "reply": true, "review": true, "schedule": true,
	"send": true, "set": true, "ship": true, "submit": true,
	"sync": true, "test": true, "update": true, "write": true,
}

// urgencyCues promote a candidate from important to critical.
var urgencyCues = []string{
	"asap", "urgent", "urgently", "immediately", "deadline",
	"end of day", "eod", "today", "tomorrow",
}

// FromText segments prose into candidate tasks. Splitting happens on
// sentence-ending punctuation and enumeration markers; a segment qualifies
// only when it opens with an action verb or matches the
// "<Name> to/needs/owns ..." obligation pattern. Best effort by design:
// false positives and negatives are acceptable, nondeterminism is not.
func FromText(text string) []Candidate {
	var out []Candidate
	for _, segment := range segments(text) {
		c, ok := candidateFrom(segment)
		if !ok {
			continue
		}
		out = append(out, c)
	}
	return out
}

func segments(text string) []string {
	var segs []string
	for _, line := range strings.Split(text, "\n") {
		line = bulletRe.ReplaceAllString(strings.TrimRight(line, "\r"), "")
		for _, part := range splitRe.Split(line, -1) {
			part = strings.TrimSpace(part)
			if part != "" {
				segs = append(segs, part)
			}
		}
	}
	return segs
}

func candidateFrom(segment string) (Candidate, bool) {
	title := segment
	owner := ""

	if m := obligationRe.FindStringSubmatch(segment); m != nil {
		owner = strings.ToLower(m[1])
		switch m[2] {
		case "to":
			title = strings.TrimSpace(m[3])
		default:
			// "needs"/"owns" keep the obligation verb as the title head.
			title = strings.TrimSpace(m[2] + " " + m[3])
		}
		if title == "" {
			return Candidate{}, false
		}
	} else {
		first := strings.ToLower(firstWord(segment))
		if !actionVerbs[first] {
			return Candidate{}, false
		}
	}

	return Candidate{
		ID:       candidateID(segment),
		Title:    title,
		Owner:    owner,
		Priority: inferPriority(segment),
	}, true
}

func inferPriority(segment string) taskfile.Priority {
	lower := strings.ToLower(segment)
	for _, cue := range urgencyCues {
		if strings.Contains(lower, cue) {
			return taskfile.PriorityCritical
		}
	}
	return taskfile.PriorityImportant
}

func firstWord(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i]
	}
	return s
}

// candidateID derives a ULID from the segment text. Zero timestamp plus
// hash-seeded entropy keeps extraction deterministic.
func candidateID(segment string) string {
	sum := sha1.Sum([]byte(segment))
	id, err := ulid.New(0, bytes.NewReader(sum[:]))
	if err != nil {
		return "cand_0"
	}
	return "cand_" + id.String()
}
