package taskfile

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Due window keywords accepted by Filter.Due alongside an exact YYYY-MM-DD
// date.
const (
	DueToday    = "today"
	DueThisWeek = "this-week"
	DueOverdue  = "overdue"
)

// Filter selects tasks from a flattened collection. All set criteria compose
// by AND. Results keep document order unless SortByDue is set.
type Filter struct {
	Statuses   []Status
	Priorities []Priority
	Due        string
	Owner      string
	SortByDue  bool
}

// Apply runs the filter against tasks. now anchors the rolling due windows:
// this-week is the 7-day window [today, today+6], boundaries inclusive.
func Apply(tasks []*Task, f Filter, now time.Time) ([]*Task, error) {
	var dueFrom, dueTo time.Time
	dueSet := strings.TrimSpace(strings.ToLower(f.Due)) != ""
	if dueSet {
		today := midnight(now)
		switch strings.TrimSpace(strings.ToLower(f.Due)) {
		case DueToday:
			dueFrom, dueTo = today, today
		case DueThisWeek:
			dueFrom, dueTo = today, today.AddDate(0, 0, 6)
		case DueOverdue:
			dueFrom, dueTo = time.Time{}, today.AddDate(0, 0, -1)
		default:
			d, err := time.Parse(dueLayout, strings.TrimSpace(f.Due))
			if err != nil {
				return nil, fmt.Errorf("%w: due filter %q", ErrInvalid, f.Due)
			}
			dueFrom, dueTo = d, d
		}
	}

	var out []*Task
	for _, t := range tasks {
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, t.Status) {
			continue
		}
		if len(f.Priorities) > 0 && !containsPriority(f.Priorities, t.Priority()) {
			continue
		}
		if f.Owner != "" && !strings.EqualFold(strings.TrimSpace(f.Owner), t.Owner) {
			continue
		}
		if dueSet {
			d, ok := parseDue(t.Due)
			if !ok {
				continue
			}
			if !dueFrom.IsZero() && d.Before(dueFrom) {
				continue
			}
			if d.After(dueTo) {
				continue
			}
		}
		out = append(out, t)
	}

	if f.SortByDue {
		sort.SliceStable(out, func(i, j int) bool {
			di, iok := parseDue(out[i].Due)
			dj, jok := parseDue(out[j].Due)
			if iok != jok {
				return iok // missing due dates sort last
			}
			if !iok {
				return false
			}
			return di.Before(dj)
		})
	}
	return out, nil
}

// Blockers returns open tasks the vault marks as waiting or blocked,
// optionally narrowed to one person by owner match.
func Blockers(tasks []*Task, person string) []*Task {
	person = strings.TrimSpace(strings.ToLower(person))
	var out []*Task
	for _, t := range tasks {
		if t.Status != StatusWaiting && t.Status != StatusBlocked {
			continue
		}
		if person != "" && !strings.Contains(strings.ToLower(t.Owner), person) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func parseDue(due string) (time.Time, bool) {
	if due == "" {
		return time.Time{}, false
	}
	d, err := time.Parse(dueLayout, due)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

func midnight(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func containsStatus(list []Status, s Status) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func containsPriority(list []Priority, p Priority) bool {
	for _, v := range list {
		if v == p {
			return true
		}
	}
	return false
}
