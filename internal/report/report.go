// Package report renders already-parsed task collections into standup,
// weekly-review and blockers text. It performs no parsing of its own.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/mjholt/taskmd/internal/taskfile"
)

const dateLayout = "2006-01-02"

// Standup renders the daily view: due today, overdue, and in-progress
// tasks.
func Standup(tasks []*taskfile.Task, now time.Time) string {
	today := now.UTC().Format(dateLayout)
	dueToday, overdue := splitByDue(tasks, now)
	var inProgress []*taskfile.Task
	for _, t := range tasks {
		if t.Status == taskfile.StatusInProgress {
			inProgress = append(inProgress, t)
		}
	}

	if len(dueToday)+len(overdue)+len(inProgress) == 0 {
		return fmt.Sprintf("Standup (%s) - nothing due, nothing in progress", today)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Standup (%s) - due %d, overdue %d, in progress %d\n\n",
		today, len(dueToday), len(overdue), len(inProgress)))
	writeSection(&b, "Due today", dueToday, false)
	writeSection(&b, "Overdue", overdue, true)
	writeSection(&b, "In progress", inProgress, true)
	return b.String()
}

// Weekly renders the review view over a rolling window of days starting at
// now: overdue first, then per-date buckets, then what got done.
func Weekly(tasks []*taskfile.Task, now time.Time, days int) string {
	if days <= 0 {
		days = 7
	}
	start := midnight(now)
	end := start.AddDate(0, 0, days-1)

	var overdue, done []*taskfile.Task
	byDate := map[string][]*taskfile.Task{}
	due := 0
	for _, t := range tasks {
		if t.Status == taskfile.StatusDone {
			done = append(done, t)
			continue
		}
		d, ok := dueOf(t)
		if !ok {
			continue
		}
		if d.Before(start) {
			overdue = append(overdue, t)
			continue
		}
		if d.After(end) {
			continue
		}
		key := d.Format(dateLayout)
		byDate[key] = append(byDate[key], t)
		due++
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Week (%d days) - %s -> %s - due %d, overdue %d, done %d\n\n",
		days, start.Format(dateLayout), end.Format(dateLayout), due, len(overdue), len(done)))
	writeSection(&b, "Overdue", overdue, true)
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i)
		key := d.Format(dateLayout)
		label := fmt.Sprintf("%s (%s)", key, d.Weekday().String()[:3])
		writeSection(&b, label, byDate[key], false)
	}
	writeSection(&b, "Done", done, false)
	return b.String()
}

// Blockers renders the waiting/blocked view, optionally for one person.
func Blockers(tasks []*taskfile.Task, person string) string {
	if len(tasks) == 0 {
		if person != "" {
			return fmt.Sprintf("No blocking tasks for %s.", person)
		}
		return "No blocking tasks."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Blocking tasks (%d)\n\n", len(tasks)))
	for _, t := range tasks {
		b.WriteString(taskLine(t, true))
		if t.Owner != "" {
			b.WriteString(fmt.Sprintf("      waiting on: %s\n", t.Owner))
		}
	}
	return b.String()
}

func writeSection(b *strings.Builder, title string, tasks []*taskfile.Task, includeDue bool) {
	if len(tasks) == 0 {
		return
	}
	b.WriteString(title + "\n")
	for _, t := range tasks {
		b.WriteString(taskLine(t, includeDue))
	}
	b.WriteString("\n")
}

func taskLine(t *taskfile.Task, includeDue bool) string {
	var b strings.Builder
	b.WriteString("  - ")
	if label := priorityLabel(t.Priority()); label != "" {
		b.WriteString(label)
	}
	b.WriteString(t.Title)
	if includeDue && t.Due != "" {
		b.WriteString(fmt.Sprintf(" (due %s)", t.Due))
	}
	b.WriteString("\n")
	return b.String()
}

func priorityLabel(p taskfile.Priority) string {
	switch p {
	case taskfile.PriorityCritical:
		return "[C] "
	case taskfile.PriorityImportant:
		return "[I] "
	case taskfile.PriorityWaiting:
		return "[W] "
	case taskfile.PriorityTeam:
		return "[T] "
	case taskfile.PriorityBacklog:
		return "[B] "
	default:
		return ""
	}
}

func splitByDue(tasks []*taskfile.Task, now time.Time) (dueToday, overdue []*taskfile.Task) {
	today := midnight(now)
	for _, t := range tasks {
		if t.Status == taskfile.StatusDone {
			continue
		}
		d, ok := dueOf(t)
		if !ok {
			continue
		}
		switch {
		case d.Equal(today):
			dueToday = append(dueToday, t)
		case d.Before(today):
			overdue = append(overdue, t)
		}
	}
	return dueToday, overdue
}

func dueOf(t *taskfile.Task) (time.Time, bool) {
	if t.Due == "" {
		return time.Time{}, false
	}
	d, err := time.Parse(dateLayout, t.Due)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

func midnight(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
