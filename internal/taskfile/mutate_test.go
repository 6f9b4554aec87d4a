package taskfile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const workDoc = "# Work Tasks\n" +
	"\n" +
	"## 🔴 Q1: Urgent & Important\n" +
	"\n" +
	"- [ ] **Fix outage**\n" +
	"\n" +
	"## ⚪ Backlog\n" +
	"\n" +
	"## ✅ Done\n"

func TestAddInsertsExactlyOneLine(t *testing.T) {
	doc := Parse([]byte(workDoc))
	before := strings.Split(workDoc, "\n")

	task, err := doc.Add(AddInput{Title: "Call mom", Priority: "high"})
	require.NoError(t, err)
	assert.Equal(t, "Call mom", task.Title)
	assert.Equal(t, PriorityCritical, task.Priority())
	assert.Equal(t, StatusTodo, task.Status)

	after := strings.Split(string(doc.Serialize()), "\n")
	require.Len(t, after, len(before)+1)

	// Every original line survives byte for byte; only one line is new.
	var added []string
	i := 0
	for _, line := range after {
		if i < len(before) && line == before[i] {
			i++
			continue
		}
		added = append(added, line)
	}
	require.Len(t, added, 1)
	assert.Equal(t, "- [ ] **Call mom**", added[0])
}

func TestAddToPersonalMustDoToday(t *testing.T) {
	personal := "# Personal Tasks\n" +
		"\n" +
		"## 🔴 Must Do Today\n" +
		"\n" +
		"## 🟡 Should Do This Week\n" +
		"\n" +
		"## ✅ Done\n"
	doc := Parse([]byte(personal))

	task, err := doc.Add(AddInput{Title: "Call mom", Priority: "high", Due: "2026-01-22"})
	require.NoError(t, err)
	assert.Equal(t, PriorityCritical, task.Priority())

	want := strings.Replace(personal,
		"## 🔴 Must Do Today\n",
		"## 🔴 Must Do Today\n- [ ] **Call mom** "+dueTok+"2026-01-22\n", 1)
	assert.Equal(t, want, string(doc.Serialize()))
}

func TestCompleteUniqueSubstring(t *testing.T) {
	input := "## 🟡 Should Do This Week\n- [ ] **Draft project proposal**\n"
	doc := Parse([]byte(input))

	task, err := doc.Complete("proposal", DoneInPlace)
	require.NoError(t, err)
	assert.Equal(t, "Draft project proposal", task.Title)
	assert.Equal(t, "## 🟡 Should Do This Week\n- [x] **Draft project proposal**\n",
		string(doc.Serialize()))
}

func TestAddDefaultsToBacklog(t *testing.T) {
	doc := Parse([]byte(workDoc))

	task, err := doc.Add(AddInput{Title: "Someday thing"})
	require.NoError(t, err)
	assert.Equal(t, PriorityBacklog, task.Priority())

	want := strings.Replace(workDoc,
		"## ⚪ Backlog\n",
		"## ⚪ Backlog\n- [ ] **Someday thing**\n", 1)
	assert.Equal(t, want, string(doc.Serialize()))
}

func TestAddRendersMetadataTokens(t *testing.T) {
	doc := Parse([]byte(workDoc))

	_, err := doc.Add(AddInput{
		Title:    "Book flights",
		Priority: "medium",
	})
	require.ErrorIs(t, err, ErrNotFound) // no 🟡 section in this doc

	task, err := doc.Add(AddInput{
		Title: "Book flights",
		Due:   "2026-03-01",
		Area:  "Travel",
		Owner: "sam",
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", task.Due)

	// The rendered line parses back to the same task.
	reparsed := Parse(doc.Serialize())
	require.Empty(t, reparsed.Warnings)
	got, err := Match(reparsed.Tasks(), "book flights")
	require.NoError(t, err)
	assert.Equal(t, "Book flights", got.Title)
	assert.Equal(t, "2026-03-01", got.Due)
	assert.Equal(t, "Travel", got.Area)
	assert.Equal(t, "sam", got.Owner)
	assert.Equal(t, PriorityBacklog, got.Priority())
}

func TestAddValidation(t *testing.T) {
	doc := Parse([]byte(workDoc))

	_, err := doc.Add(AddInput{Title: "   "})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = doc.Add(AddInput{Title: "T", Priority: "whenever"})
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = doc.Add(AddInput{Title: "T", Due: "tomorrow"})
	assert.ErrorIs(t, err, ErrInvalid)

	// Nothing was written.
	assert.Equal(t, workDoc, string(doc.Serialize()))
}

func TestCompleteInPlaceFlipsMarkerOnly(t *testing.T) {
	doc := Parse([]byte(workDoc))

	task, err := doc.Complete("outage", DoneInPlace)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, task.Status)

	want := strings.Replace(workDoc, "- [ ] **Fix outage**", "- [x] **Fix outage**", 1)
	assert.Equal(t, want, string(doc.Serialize()))
}

func TestCompleteInProgressTask(t *testing.T) {
	input := "## 🟡 Important\n- [/] **Migrate db**\n"
	doc := Parse([]byte(input))

	_, err := doc.Complete("migrate", DoneInPlace)
	require.NoError(t, err)
	assert.Equal(t, "## 🟡 Important\n- [x] **Migrate db**\n", string(doc.Serialize()))
}

func TestCompleteRelocateMovesSpanToDone(t *testing.T) {
	input := "## 🟡 Important\n" +
		"\n" +
		"- [ ] **Write report**\n" +
		"  draft first\n" +
		"\n" +
		"## ✅ Done\n" +
		"\n" +
		"- [x] **Old thing**\n"
	doc := Parse([]byte(input))

	task, err := doc.Complete("report", DoneRelocate)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, task.Status)
	assert.True(t, task.Section().Done)

	want := "## 🟡 Important\n" +
		"\n" +
		"\n" +
		"## ✅ Done\n" +
		"\n" +
		"- [x] **Old thing**\n" +
		"- [x] **Write report**\n" +
		"  draft first\n"
	assert.Equal(t, want, string(doc.Serialize()))
}

func TestCompleteRelocateWithoutDoneSectionStaysPut(t *testing.T) {
	input := "## 🟡 Important\n- [ ] **Lone task**\n"
	doc := Parse([]byte(input))

	_, err := doc.Complete("lone", DoneRelocate)
	require.NoError(t, err)
	assert.Equal(t, "## 🟡 Important\n- [x] **Lone task**\n", string(doc.Serialize()))
}

func TestCompleteSkipsDoneTasks(t *testing.T) {
	input := "## 🟡 Important\n" +
		"- [x] **Review budget**\n" +
		"- [ ] **Review roadmap**\n"
	doc := Parse([]byte(input))

	// "review" is unique among open tasks even though a done task matches.
	task, err := doc.Complete("review", DoneInPlace)
	require.NoError(t, err)
	assert.Equal(t, "Review roadmap", task.Title)
}

func TestCompleteConflictMutatesNothing(t *testing.T) {
	input := "## 🟡 Important\n" +
		"- [ ] **Review budget**\n" +
		"- [ ] **Review roadmap**\n"
	doc := Parse([]byte(input))

	_, err := doc.Complete("review", DoneInPlace)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, input, string(doc.Serialize()))
}

func TestCompleteNotFound(t *testing.T) {
	doc := Parse([]byte(workDoc))
	_, err := doc.Complete("does not exist", DoneInPlace)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, workDoc, string(doc.Serialize()))
}
