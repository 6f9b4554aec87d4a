package taskfile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var queryNow = time.Date(2026, 1, 23, 15, 4, 5, 0, time.UTC)

func queryDoc(t *testing.T) *Document {
	t.Helper()
	input := "## 🔴 Q1\n" +
		"- [ ] **Fix outage** " + dueTok + "2026-01-23 owner:: ana\n" +
		"- [/] **Write postmortem** " + dueTok + "2026-01-25\n" +
		"\n## 🟡 Q2\n" +
		"- [ ] **Plan offsite** " + dueTok + "2026-02-10\n" +
		"- [ ] **Read design doc**\n" +
		"\n## 🟠 Waiting\n" +
		"- [ ] **Legal sign-off** " + dueTok + "2026-01-20 owner:: Bob\n" +
		"\n## ✅ Done\n" +
		"- [x] **Kickoff** " + dueTok + "2026-01-10\n"
	doc := Parse([]byte(input))
	require.Empty(t, doc.Warnings)
	require.Len(t, doc.Tasks(), 6)
	return doc
}

func titles(tasks []*Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Title)
	}
	return out
}

func TestApplyNoFilterKeepsDocumentOrder(t *testing.T) {
	doc := queryDoc(t)
	got, err := Apply(doc.Tasks(), Filter{}, queryNow)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Fix outage", "Write postmortem", "Plan offsite",
		"Read design doc", "Legal sign-off", "Kickoff",
	}, titles(got))
}

func TestApplyStatusFilter(t *testing.T) {
	doc := queryDoc(t)
	got, err := Apply(doc.Tasks(), Filter{Statuses: []Status{StatusInProgress, StatusWaiting}}, queryNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"Write postmortem", "Legal sign-off"}, titles(got))
}

func TestApplyPriorityFilter(t *testing.T) {
	doc := queryDoc(t)
	got, err := Apply(doc.Tasks(), Filter{Priorities: []Priority{PriorityCritical}}, queryNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"Fix outage", "Write postmortem"}, titles(got))
}

func TestApplyDueWindows(t *testing.T) {
	doc := queryDoc(t)

	got, err := Apply(doc.Tasks(), Filter{Due: DueToday}, queryNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"Fix outage"}, titles(got))

	// this-week is [today, today+6] inclusive: Jan 23 .. Jan 29.
	got, err = Apply(doc.Tasks(), Filter{Due: DueThisWeek}, queryNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"Fix outage", "Write postmortem"}, titles(got))

	got, err = Apply(doc.Tasks(), Filter{Due: DueOverdue}, queryNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"Legal sign-off", "Kickoff"}, titles(got))

	got, err = Apply(doc.Tasks(), Filter{Due: "2026-02-10"}, queryNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"Plan offsite"}, titles(got))
}

func TestApplyInvalidDueFilter(t *testing.T) {
	doc := queryDoc(t)
	_, err := Apply(doc.Tasks(), Filter{Due: "next tuesday"}, queryNow)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestApplyOwnerIsExactCaseInsensitive(t *testing.T) {
	doc := queryDoc(t)
	got, err := Apply(doc.Tasks(), Filter{Owner: "BOB"}, queryNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"Legal sign-off"}, titles(got))

	got, err = Apply(doc.Tasks(), Filter{Owner: "bo"}, queryNow)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestApplyCriteriaCompose(t *testing.T) {
	doc := queryDoc(t)
	got, err := Apply(doc.Tasks(), Filter{
		Statuses: []Status{StatusTodo},
		Due:      DueToday,
		Owner:    "ana",
	}, queryNow)
	require.NoError(t, err)
	assert.Equal(t, []string{"Fix outage"}, titles(got))
}

func TestApplySortByDuePutsMissingLast(t *testing.T) {
	doc := queryDoc(t)
	got, err := Apply(doc.Tasks(), Filter{
		Statuses:  []Status{StatusTodo, StatusInProgress, StatusWaiting},
		SortByDue: true,
	}, queryNow)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Legal sign-off", "Fix outage", "Write postmortem",
		"Plan offsite", "Read design doc",
	}, titles(got))
}

func TestBlockers(t *testing.T) {
	doc := queryDoc(t)

	got := Blockers(doc.Tasks(), "")
	assert.Equal(t, []string{"Legal sign-off"}, titles(got))

	got = Blockers(doc.Tasks(), "bob")
	assert.Equal(t, []string{"Legal sign-off"}, titles(got))

	got = Blockers(doc.Tasks(), "carol")
	assert.Empty(t, got)
}
