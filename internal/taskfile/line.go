package taskfile

import "strings"

type lineKind int

const (
	lineOther lineKind = iota
	lineBlank
	lineSection
	lineTask
	lineNote
)

type lineClass struct {
	kind   lineKind
	marker string // section: matched category marker
	label  string // section: heading text after the marker
	mark   byte   // task: checkbox character
	rest   string // task: remainder after the checkbox
	// taskLike flags lines that carry a checkbox-ish prefix but could not be
	// read as a task; the parser reports them and passes them through.
	taskLike bool
}

// markerTable is the fixed set of recognized section markers. Arbitrary
// heading text is opaque content.
var markerTable = []struct {
	Marker   string
	Priority Priority
	Done     bool
}{
	{"🔴", PriorityCritical, false},
	{"🟡", PriorityImportant, false},
	{"🟠", PriorityWaiting, false},
	{"👥", PriorityTeam, false},
	{"⚪", PriorityBacklog, false},
	{"✅", "", true},
}

func markerFor(p Priority) string {
	for _, m := range markerTable {
		if !m.Done && m.Priority == p {
			return m.Marker
		}
	}
	return ""
}

// classifyLine tags one line lexically. It performs no semantic validation;
// anything unrecognized is lineOther and survives rewrites verbatim.
func classifyLine(line string) lineClass {
	if strings.TrimSpace(line) == "" {
		return lineClass{kind: lineBlank}
	}
	if strings.HasPrefix(line, "## ") {
		rest := strings.TrimSpace(line[len("## "):])
		for _, m := range markerTable {
			if strings.HasPrefix(rest, m.Marker) {
				return lineClass{
					kind:   lineSection,
					marker: m.Marker,
					label:  strings.TrimSpace(strings.TrimPrefix(rest, m.Marker)),
				}
			}
		}
		return lineClass{kind: lineOther}
	}
	if line[0] == ' ' || line[0] == '\t' {
		return lineClass{kind: lineNote}
	}
	if strings.HasPrefix(line, "- [") {
		if len(line) >= len("- [x]") && line[4] == ']' {
			mark := line[3]
			switch mark {
			case ' ', 'x', 'X', '/':
				return lineClass{
					kind: lineTask,
					mark: mark,
					rest: strings.TrimSpace(line[5:]),
				}
			}
		}
		return lineClass{kind: lineOther, taskLike: true}
	}
	return lineClass{kind: lineOther}
}
