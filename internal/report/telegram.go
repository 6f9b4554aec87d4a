package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/mjholt/taskmd/internal/taskfile"
)

const telegramMaxChars = 3800

// IsTelegram reports whether a --format value asks for the compact Telegram
// rendering.
func IsTelegram(format string) bool {
	return strings.ToLower(strings.TrimSpace(format)) == "telegram"
}

func trimTelegramOutput(s string) string {
	s = strings.TrimRight(s, "\n")
	runes := []rune(s)
	if len(runes) <= telegramMaxChars {
		return s
	}
	suffix := "\n… (truncated)"
	suffixRunes := []rune(suffix)
	limit := telegramMaxChars - len(suffixRunes)
	if limit < 1 {
		return string(runes[:telegramMaxChars])
	}
	return string(runes[:limit]) + suffix
}

func telegramPriorityEmoji(p taskfile.Priority) string {
	switch p {
	case taskfile.PriorityCritical:
		return "🔴"
	case taskfile.PriorityImportant:
		return "🟡"
	case taskfile.PriorityWaiting:
		return "🟠"
	case taskfile.PriorityTeam:
		return "👥"
	case taskfile.PriorityBacklog:
		return "⚪"
	default:
		return ""
	}
}

func telegramTaskLine(t *taskfile.Task, includeDue bool) string {
	var b strings.Builder
	b.WriteString("• ")
	if emoji := telegramPriorityEmoji(t.Priority()); emoji != "" {
		b.WriteString(emoji)
		b.WriteString(" ")
	}
	b.WriteString(cleanTitle(t.Title))
	if includeDue && t.Due != "" {
		b.WriteString(fmt.Sprintf(" (due %s)", formatDueShort(t.Due, time.Now())))
	}
	b.WriteString("\n")
	return b.String()
}

func cleanTitle(title string) string {
	title = strings.ReplaceAll(title, "\n", " ")
	title = strings.TrimSpace(title)
	if title == "" {
		return "(untitled)"
	}
	return title
}

func formatDueShort(due string, now time.Time) string {
	d, err := time.Parse(dateLayout, due)
	if err != nil {
		return due
	}
	if d.Year() == now.UTC().Year() {
		return d.Format("Jan 02")
	}
	return d.Format("Jan 02 2006")
}

func writeTelegramSection(b *strings.Builder, title string, tasks []*taskfile.Task, includeDue bool) bool {
	if len(tasks) == 0 {
		return false
	}
	if title != "" {
		b.WriteString(title)
		b.WriteString("\n")
	}
	for _, t := range tasks {
		b.WriteString(telegramTaskLine(t, includeDue))
	}
	b.WriteString("\n")
	return true
}

// TelegramStandup is the compact standup rendering for chat delivery.
func TelegramStandup(tasks []*taskfile.Task, now time.Time) string {
	today := now.UTC().Format(dateLayout)
	dueToday, overdue := splitByDue(tasks, now)
	var inProgress []*taskfile.Task
	for _, t := range tasks {
		if t.Status == taskfile.StatusInProgress {
			inProgress = append(inProgress, t)
		}
	}

	var b strings.Builder
	header := fmt.Sprintf("📅 Standup — %s", today)
	if n := len(dueToday) + len(overdue) + len(inProgress); n > 0 {
		header = fmt.Sprintf("📅 Standup — %s (due %d, overdue %d)", today, len(dueToday), len(overdue))
	}
	b.WriteString(header)
	b.WriteString("\n\n")

	wrote := false
	if writeTelegramSection(&b, "⏰ Due today", dueToday, false) {
		wrote = true
	}
	if writeTelegramSection(&b, "⚠️ Overdue", overdue, true) {
		wrote = true
	}
	if writeTelegramSection(&b, "🔨 In progress", inProgress, true) {
		wrote = true
	}
	if !wrote {
		b.WriteString("No tasks due.\n")
	}
	return trimTelegramOutput(b.String())
}

// TelegramWeekly is the compact weekly review rendering.
func TelegramWeekly(tasks []*taskfile.Task, now time.Time, days int) string {
	if days <= 0 {
		days = 7
	}
	start := midnight(now)
	end := start.AddDate(0, 0, days-1)

	var overdue, done []*taskfile.Task
	byDate := map[string][]*taskfile.Task{}
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
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("📅 Week — %s → %s\n\n", start.Format(dateLayout), end.Format(dateLayout)))

	wrote := false
	if writeTelegramSection(&b, "⚠️ Overdue", overdue, true) {
		wrote = true
	}
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i)
		key := d.Format(dateLayout)
		items := byDate[key]
		if len(items) == 0 {
			continue
		}
		label := fmt.Sprintf("📆 %s (%s)", key, d.Weekday().String()[:3])
		if writeTelegramSection(&b, label, items, false) {
			wrote = true
		}
	}
	if writeTelegramSection(&b, "✅ Done", done, false) {
		wrote = true
	}
	if !wrote {
		b.WriteString("No upcoming tasks.\n")
	}
	return trimTelegramOutput(b.String())
}

// TelegramBlockers is the compact blockers rendering.
func TelegramBlockers(tasks []*taskfile.Task, person string) string {
	if len(tasks) == 0 {
		return "🚧 No blocking tasks."
	}
	var b strings.Builder
	title := "🚧 Blocking tasks"
	if person != "" {
		title = fmt.Sprintf("🚧 Blocking tasks — %s", person)
	}
	b.WriteString(fmt.Sprintf("%s (%d)\n\n", title, len(tasks)))
	for _, t := range tasks {
		b.WriteString(telegramTaskLine(t, true))
	}
	return trimTelegramOutput(b.String())
}
