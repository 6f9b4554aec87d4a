package taskfile

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

// dueMarker introduces the reserved due-date token (🗓️YYYY-MM-DD). The
// variation selector after the emoji is optional in the wild.
const (
	dueMarker         = "\U0001F5D3"
	variationSelector = "\uFE0F"
	dueLayout         = "2006-01-02"
)

var fieldKeyRe = regexp.MustCompile(`(?:^|\s)(area|goal|owner)::`)

// Parse reads vault content into a Document. It never fails: lines that
// cannot be understood are kept as opaque content and reported as warnings.
func Parse(content []byte) *Document {
	d := &Document{lines: strings.Split(string(content), "\n")}
	var cur *Section
	var curTask *Task
	for i, raw := range d.lines {
		line := strings.TrimRight(raw, "\r")
		lc := classifyLine(line)
		switch lc.kind {
		case lineSection:
			sec := &Section{
				Marker: lc.marker,
				Label:  lc.label,
				header: i,
				end:    i,
			}
			for _, m := range markerTable {
				if m.Marker == lc.marker {
					sec.Priority = m.Priority
					sec.Done = m.Done
				}
			}
			d.Sections = append(d.Sections, sec)
			cur = sec
			curTask = nil
		case lineTask:
			curTask = nil
			if cur == nil {
				d.warn(i, WarnParseDegraded, "task line outside any section")
				break
			}
			t := d.parseTaskLine(lc, i)
			if t == nil {
				break
			}
			t.section = cur
			refineStatus(t, cur)
			cur.Tasks = append(cur.Tasks, t)
			d.tasks = append(d.tasks, t)
			curTask = t
		case lineNote:
			if curTask != nil {
				curTask.Notes = append(curTask.Notes, strings.TrimSpace(line))
				curTask.endLine = i
			}
		case lineBlank:
			curTask = nil
		default:
			if lc.taskLike {
				d.warn(i, WarnParseDegraded, "task-like line with unrecognized marker")
			}
			curTask = nil
		}
		if cur != nil {
			cur.end = i
		}
	}
	return d
}

// refineStatus applies section-derived statuses. Only the waiting-external
// section overrides the line-level todo.
func refineStatus(t *Task, sec *Section) {
	if t.Status != StatusTodo || sec.Priority != PriorityWaiting {
		return
	}
	label := strings.ToLower(sec.Label)
	if strings.Contains(label, "block") && !strings.Contains(label, "wait") {
		t.Status = StatusBlocked
		return
	}
	t.Status = StatusWaiting
}

type tokenSpan struct {
	start, end int
	key        string // "due" or an inline field key
	value      string
}

// parseTaskLine turns a classified task line into a Task record. Malformed
// inline metadata degrades: the task keeps parsing, warnings carry the rest.
// A line whose title comes out empty is not a task; it stays opaque.
func (d *Document) parseTaskLine(lc lineClass, lineNo int) *Task {
	t := &Task{Status: StatusTodo, line: lineNo, endLine: lineNo}
	switch lc.mark {
	case 'x', 'X':
		t.Status = StatusDone
	case '/':
		t.Status = StatusInProgress
	}

	spans := scanTokens(lc.rest)

	var dues []tokenSpan
	seen := map[string]string{}
	for _, sp := range spans {
		if sp.key == "due" {
			dues = append(dues, sp)
			continue
		}
		if _, ok := seen[sp.key]; !ok {
			seen[sp.key] = sp.value
		}
	}
	t.Area = seen["area"]
	t.Goal = seen["goal"]
	t.Owner = seen["owner"]

	switch len(dues) {
	case 0:
	case 1:
		raw := dues[0].value
		if _, err := time.Parse(dueLayout, raw); err != nil {
			d.warn(lineNo, WarnInvalidDate, fmt.Sprintf("unparsable due token %q", raw))
			t.Notes = append(t.Notes, dueMarker+variationSelector+raw)
		} else {
			t.Due = raw
		}
	default:
		d.warn(lineNo, WarnAmbiguousDate, fmt.Sprintf("%d due tokens on one line", len(dues)))
	}

	t.Title = titleFromSpans(lc.rest, spans)
	if t.Title == "" {
		d.warn(lineNo, WarnParseDegraded, "task line has no title")
		return nil
	}
	return t
}

// scanTokens locates every reserved token in a task line remainder. Inline
// field values run until the next token or end of line.
func scanTokens(rest string) []tokenSpan {
	var spans []tokenSpan

	for pos := 0; ; {
		rel := strings.Index(rest[pos:], dueMarker)
		if rel < 0 {
			break
		}
		start := pos + rel
		cur := start + len(dueMarker)
		if strings.HasPrefix(rest[cur:], variationSelector) {
			cur += len(variationSelector)
		}
		for cur < len(rest) && rest[cur] == ' ' {
			cur++
		}
		vEnd := cur
		for vEnd < len(rest) && rest[vEnd] != ' ' && rest[vEnd] != '\t' {
			vEnd++
		}
		spans = append(spans, tokenSpan{start: start, end: vEnd, key: "due", value: rest[cur:vEnd]})
		pos = vEnd
	}

	for _, loc := range fieldKeyRe.FindAllStringSubmatchIndex(rest, -1) {
		spans = append(spans, tokenSpan{start: loc[2], end: loc[1], key: rest[loc[2]:loc[3]]})
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	for i := range spans {
		if spans[i].key == "due" {
			continue
		}
		vStart := spans[i].end
		for vStart < len(rest) && rest[vStart] == ' ' {
			vStart++
		}
		vEnd := len(rest)
		if i+1 < len(spans) {
			vEnd = spans[i+1].start
		}
		spans[i].value = strings.TrimSpace(rest[vStart:vEnd])
		spans[i].end = vEnd
	}
	return spans
}

// titleFromSpans collects the text not covered by any token, which is the
// task title. Bold markers around the whole title are presentation only.
func titleFromSpans(rest string, spans []tokenSpan) string {
	var parts []string
	pos := 0
	for _, sp := range spans {
		if sp.start > pos {
			if frag := strings.TrimSpace(rest[pos:sp.start]); frag != "" {
				parts = append(parts, frag)
			}
		}
		if sp.end > pos {
			pos = sp.end
		}
	}
	if pos < len(rest) {
		if frag := strings.TrimSpace(rest[pos:]); frag != "" {
			parts = append(parts, frag)
		}
	}
	title := strings.Join(parts, " ")
	if strings.HasPrefix(title, "**") && strings.HasSuffix(title, "**") && len(title) > 4 {
		title = strings.TrimSpace(title[2 : len(title)-2])
	}
	return title
}
