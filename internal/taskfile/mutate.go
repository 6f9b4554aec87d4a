package taskfile

import (
	"fmt"
	"strings"
	"time"
)

// DonePolicy controls what Complete does with the finished task's lines.
type DonePolicy string

const (
	// DoneInPlace flips the checkbox and leaves the task where it is.
	DoneInPlace DonePolicy = "in-place"
	// DoneRelocate additionally moves the task's lines (notes included)
	// under the Done section, when the document has one.
	DoneRelocate DonePolicy = "relocate"
)

// AddInput describes a task to append. Priority picks the target section
// (backlog when empty); Due must be YYYY-MM-DD when set.
type AddInput struct {
	Title    string
	Priority string
	Due      string
	Owner    string
	Area     string
	Goal     string
}

// Add renders exactly one new task line in the reserved format and splices
// it at the end of the target section. No other line of the document
// changes.
func (d *Document) Add(in AddInput) (*Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalid)
	}
	p, ok := NormalizePriority(in.Priority)
	if !ok {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalid, in.Priority)
	}
	due := strings.TrimSpace(in.Due)
	if due != "" {
		if _, err := time.Parse(dueLayout, due); err != nil {
			return nil, fmt.Errorf("%w: due date %q (want YYYY-MM-DD)", ErrInvalid, in.Due)
		}
	}
	sec := d.sectionByPriority(p)
	if sec == nil {
		return nil, fmt.Errorf("%w: no %s section in document", ErrNotFound, p)
	}

	line := renderTaskLine(title, due, in)
	at := sec.insertionPoint(d)
	d.insertLines(at, []string{line}, sec)

	t := &Task{
		Title:   title,
		Status:  StatusTodo,
		Due:     due,
		Area:    strings.TrimSpace(in.Area),
		Goal:    strings.TrimSpace(in.Goal),
		Owner:   strings.TrimSpace(in.Owner),
		section: sec,
		line:    at,
		endLine: at,
	}
	refineStatus(t, sec)
	sec.Tasks = append(sec.Tasks, t)
	d.tasks = append(d.tasks, t)
	d.resortTasks()
	return t, nil
}

func renderTaskLine(title, due string, in AddInput) string {
	var b strings.Builder
	b.WriteString("- [ ] **")
	b.WriteString(title)
	b.WriteString("**")
	if due != "" {
		b.WriteString(" " + dueMarker + variationSelector + due)
	}
	if v := strings.TrimSpace(in.Area); v != "" {
		b.WriteString(" area:: " + v)
	}
	if v := strings.TrimSpace(in.Goal); v != "" {
		b.WriteString(" goal:: " + v)
	}
	if v := strings.TrimSpace(in.Owner); v != "" {
		b.WriteString(" owner:: " + v)
	}
	return b.String()
}

// Complete resolves a target task via fuzzy match over open tasks and flips
// its checkbox marker in the original line. Under DoneRelocate the task's
// raw lines move to the end of the Done section, byte-identical apart from
// the marker. A failed match mutates nothing.
func (d *Document) Complete(query string, policy DonePolicy) (*Task, error) {
	var open []*Task
	for _, t := range d.tasks {
		if t.Status != StatusDone {
			open = append(open, t)
		}
	}
	t, err := Match(open, query)
	if err != nil {
		return nil, err
	}

	line := d.lines[t.line]
	switch {
	case strings.HasPrefix(line, "- [ ]"), strings.HasPrefix(line, "- [/]"):
		line = "- [x]" + line[len("- [x]"):]
	default:
		return nil, fmt.Errorf("%w: no open checkbox on line %d", ErrInvalid, t.line+1)
	}
	d.lines[t.line] = line
	t.Status = StatusDone

	if policy == DoneRelocate {
		if done := d.doneSection(); done != nil && t.section != done {
			d.relocate(t, done)
		}
	}
	return t, nil
}

// relocate moves the task's raw span to the end of dest, preserving notes
// and inline fields exactly.
func (d *Document) relocate(t *Task, dest *Section) {
	span := make([]string, t.endLine-t.line+1)
	copy(span, d.lines[t.line:t.endLine+1])

	src := t.section
	for i, st := range src.Tasks {
		if st == t {
			src.Tasks = append(src.Tasks[:i], src.Tasks[i+1:]...)
			break
		}
	}
	d.removeLines(t.line, t.endLine)

	at := dest.insertionPoint(d)
	d.insertLines(at, span, dest)
	t.line = at
	t.endLine = at + len(span) - 1
	t.section = dest
	dest.Tasks = append(dest.Tasks, t)
	d.resortTasks()
}
