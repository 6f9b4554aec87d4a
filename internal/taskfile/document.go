// Package taskfile parses and rewrites markdown task vaults organized into
// Eisenhower-matrix priority sections. The parser keeps every original line,
// so serializing an unmodified document reproduces its input byte for byte,
// and mutations patch only the lines they touch.
package taskfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	ErrInvalid  = errors.New("invalid")
)

// Status of a single task. Done comes from the checkbox marker; waiting and
// blocked come from the owning section, never from the line itself.
type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusDone       Status = "done"
	StatusBlocked    Status = "blocked"
	StatusWaiting    Status = "waiting"
)

// Priority is positional: it belongs to the section a task lives under.
// Moving a task between sections changes its effective priority.
type Priority string

const (
	PriorityCritical  Priority = "critical"
	PriorityImportant Priority = "important"
	PriorityWaiting   Priority = "waiting-external"
	PriorityTeam      Priority = "team-monitor"
	PriorityBacklog   Priority = "backlog"
)

// NormalizePriority maps user-facing aliases (high/medium/low, q1..q3) onto
// the canonical section priorities. Empty input defaults to backlog.
func NormalizePriority(p string) (Priority, bool) {
	switch strings.TrimSpace(strings.ToLower(p)) {
	case "critical", "crit", "high", "urgent", "q1":
		return PriorityCritical, true
	case "important", "medium", "med", "normal", "q2":
		return PriorityImportant, true
	case "waiting", "waiting-external", "blocked", "q3":
		return PriorityWaiting, true
	case "team", "team-monitor", "monitor":
		return PriorityTeam, true
	case "backlog", "low", "someday", "":
		return PriorityBacklog, true
	default:
		return "", false
	}
}

// WarningCode classifies parse anomalies that degrade instead of failing.
type WarningCode string

const (
	WarnParseDegraded WarningCode = "parse-degraded"
	WarnAmbiguousDate WarningCode = "ambiguous-date"
	WarnInvalidDate   WarningCode = "invalid-date"
)

// Warning is a non-fatal parse anomaly. The affected line is always kept
// verbatim in the document; Line is 1-based.
type Warning struct {
	Line   int
	Code   WarningCode
	Detail string
}

func (w Warning) String() string {
	return fmt.Sprintf("line %d: %s: %s", w.Line, w.Code, w.Detail)
}

// Task is one checkbox line plus its indented note lines. The line indexes
// point into the owning document's line buffer so mutations can patch in
// place.
type Task struct {
	Title  string
	Status Status
	Due    string // YYYY-MM-DD, empty when absent
	Area   string
	Goal   string
	Owner  string
	Notes  []string

	section *Section
	line    int // index of the task line
	endLine int // index of the last attached note line (== line when none)
}

// Priority reports the task's section-derived priority. Tasks under the Done
// section have none.
func (t *Task) Priority() Priority {
	if t.section == nil {
		return ""
	}
	return t.section.Priority
}

func (t *Task) Section() *Section { return t.section }

// Line reports the 1-based line number the task currently occupies.
func (t *Task) Line() int { return t.line + 1 }

func (t *Task) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Title    string   `json:"title"`
		Status   Status   `json:"status"`
		Priority Priority `json:"priority,omitempty"`
		Due      string   `json:"due,omitempty"`
		Area     string   `json:"area,omitempty"`
		Goal     string   `json:"goal,omitempty"`
		Owner    string   `json:"owner,omitempty"`
		Notes    []string `json:"notes,omitempty"`
		Section  string   `json:"section,omitempty"`
	}{t.Title, t.Status, t.Priority(), t.Due, t.Area, t.Goal, t.Owner, t.Notes, t.sectionLabel()})
}

func (t *Task) sectionLabel() string {
	if t.section == nil {
		return ""
	}
	return t.section.Label
}

// Section is a recognized heading and the region under it. Unrecognized
// content inside the region stays in the line buffer untouched.
type Section struct {
	Marker   string
	Label    string
	Priority Priority // empty for the Done section
	Done     bool
	Tasks    []*Task

	header int // index of the heading line
	end    int // index of the last line in the region
}

// Document is one parsed vault file: the verbatim line buffer plus the
// structure recovered from it.
type Document struct {
	Sections []*Section
	Warnings []Warning

	lines []string
	tasks []*Task
}

// Serialize joins the line buffer back into file content. For an unmodified
// document this is byte-identical to the parsed input.
func (d *Document) Serialize() []byte {
	return []byte(strings.Join(d.lines, "\n"))
}

// Tasks returns every task in document order: section order, then in-section
// order.
func (d *Document) Tasks() []*Task {
	out := make([]*Task, len(d.tasks))
	copy(out, d.tasks)
	return out
}

func (d *Document) warn(line int, code WarningCode, detail string) {
	d.Warnings = append(d.Warnings, Warning{Line: line + 1, Code: code, Detail: detail})
}

func (d *Document) sectionByPriority(p Priority) *Section {
	for _, s := range d.Sections {
		if !s.Done && s.Priority == p {
			return s
		}
	}
	return nil
}

func (d *Document) doneSection() *Section {
	for _, s := range d.Sections {
		if s.Done {
			return s
		}
	}
	return nil
}

// insertLines splices newLines into the buffer before index at and shifts all
// recorded spans. target is the section receiving the lines; its region is
// widened to cover them.
func (d *Document) insertLines(at int, newLines []string, target *Section) {
	n := len(newLines)
	d.lines = append(d.lines[:at], append(append([]string{}, newLines...), d.lines[at:]...)...)
	for _, t := range d.tasks {
		if t.line >= at {
			t.line += n
		}
		if t.endLine >= at {
			t.endLine += n
		}
	}
	for _, s := range d.Sections {
		if s.header >= at {
			s.header += n
		}
		if s.end >= at {
			s.end += n
		}
	}
	if target != nil && target.end < at+n-1 {
		target.end = at + n - 1
	}
}

// removeLines drops lines [from, to] from the buffer and shifts all recorded
// spans. Spans inside the removed range are the caller's to fix up.
func (d *Document) removeLines(from, to int) {
	n := to - from + 1
	d.lines = append(d.lines[:from], d.lines[to+1:]...)
	for _, t := range d.tasks {
		if t.line > to {
			t.line -= n
		}
		if t.endLine > to {
			t.endLine -= n
		}
	}
	for _, s := range d.Sections {
		if s.header > to {
			s.header -= n
		}
		if s.end > to {
			s.end -= n
		} else if s.end >= from {
			s.end = from - 1
		}
	}
}

func (d *Document) resortTasks() {
	sort.SliceStable(d.tasks, func(i, j int) bool { return d.tasks[i].line < d.tasks[j].line })
}

// insertionPoint finds where a new task line goes: right after the last
// non-blank line of the section, before any trailing blank padding.
func (s *Section) insertionPoint(d *Document) int {
	at := s.header + 1
	for i := s.header + 1; i <= s.end && i < len(d.lines); i++ {
		if strings.TrimSpace(strings.TrimRight(d.lines[i], "\r")) != "" {
			at = i + 1
		}
	}
	return at
}
