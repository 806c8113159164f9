package store

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/piersdd/things-3-mcp/internal/resolve"
	"github.com/piersdd/things-3-mcp/internal/things"
)

const testSchema = `
CREATE TABLE TMTask (
	uuid TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	type INTEGER NOT NULL DEFAULT 0,
	status INTEGER NOT NULL DEFAULT 0,
	start INTEGER NOT NULL DEFAULT 0,
	startDate INTEGER,
	deadline INTEGER,
	stopDate REAL,
	creationDate REAL,
	userModificationDate REAL,
	notes TEXT,
	project TEXT,
	area TEXT,
	heading TEXT,
	trashed INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE TMArea (
	uuid TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT ''
);
CREATE TABLE TMTag (
	uuid TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	shortcut TEXT
);
CREATE TABLE TMTaskTag (
	tasks TEXT NOT NULL,
	tags TEXT NOT NULL
);
CREATE TABLE TMChecklistItem (
	uuid TEXT PRIMARY KEY,
	task TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	status INTEGER NOT NULL DEFAULT 0,
	"index" INTEGER NOT NULL DEFAULT 0
);
`

type row struct {
	uuid      string
	title     string
	typ       int
	status    int
	start     int
	startDate *int64
	deadline  *int64
	stopDate  *float64
	created   float64
	notes     string
	project   *string
	area      *string
	heading   *string
	trashed   int
}

func unixDate(y int, m time.Month, d int) *int64 {
	v := time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix()
	return &v
}

func str(s string) *string { return &s }

func newTestStore(t *testing.T, rows []row) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.sqlite")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	for _, r := range rows {
		created := r.created
		if created == 0 {
			created = float64(time.Now().Unix())
		}
		_, err = db.Exec(`INSERT INTO TMTask
			(uuid, title, type, status, start, startDate, deadline, stopDate,
			 creationDate, userModificationDate, notes, project, area, heading, trashed)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.uuid, r.title, r.typ, r.status, r.start, r.startDate, r.deadline,
			r.stopDate, created, created, r.notes, r.project, r.area, r.heading, r.trashed)
		require.NoError(t, err)
	}
	return OpenDB(db, nil)
}

func uuids(tasks []things.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.UUID
	}
	return out
}

func TestInbox(t *testing.T) {
	st := newTestStore(t, []row{
		{uuid: "in1", title: "loose thought"},
		{uuid: "filed", title: "filed", project: str("p1")},
		{uuid: "scheduled", title: "anytime", start: 1},
		{uuid: "gone", title: "trashed", trashed: 1},
	})

	got, err := st.Inbox(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"in1"}, uuids(got))
}

func TestTodayAndUpcomingSplitOnStartDate(t *testing.T) {
	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	tomorrow := time.Now().UTC().AddDate(0, 0, 1)
	st := newTestStore(t, []row{
		{uuid: "past", title: "overdue", start: 1,
			startDate: unixDate(yesterday.Year(), yesterday.Month(), yesterday.Day())},
		{uuid: "future", title: "later", start: 1,
			startDate: unixDate(tomorrow.Year(), tomorrow.Month(), tomorrow.Day())},
		{uuid: "unscheduled", title: "free", start: 1},
	})

	today, err := st.Today(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"past"}, uuids(today))

	upcoming, err := st.Upcoming(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"future"}, uuids(upcoming))

	anytime, err := st.Anytime(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"past", "unscheduled"}, uuids(anytime))
}

func TestSomedayAndContext(t *testing.T) {
	st := newTestStore(t, []row{
		{uuid: "p-someday", title: "Dream project", typ: 1, start: 2},
		{uuid: "h1", title: "Phase 1", typ: 2, project: str("p-someday")},
		{uuid: "own", title: "own someday", start: 2},
		{uuid: "child", title: "inherits", start: 1, project: str("p-someday")},
		{uuid: "grandchild", title: "via heading", start: 1, heading: str("h1")},
	})

	someday, err := st.Someday(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"own"}, uuids(someday))

	sctx, err := st.SomedayContext(context.Background())
	require.NoError(t, err)
	assert.False(t, sctx.Empty())

	anytime, err := st.Anytime(context.Background())
	require.NoError(t, err)

	// The active view drops the inheriting children and the Someday view
	// picks them up.
	active := things.FilterInherited(anytime, sctx)
	assert.Empty(t, uuids(active))

	full := things.AugmentSomeday(someday, anytime, sctx)
	assert.ElementsMatch(t, []string{"own", "child", "grandchild"}, uuids(full))
}

func TestLogbookOrderAndWindow(t *testing.T) {
	old := float64(time.Now().AddDate(0, 0, -30).Unix())
	recent := float64(time.Now().AddDate(0, 0, -1).Unix())
	newer := float64(time.Now().Unix())
	st := newTestStore(t, []row{
		{uuid: "done-old", status: 3, stopDate: &old},
		{uuid: "done-recent", status: 3, stopDate: &recent},
		{uuid: "canceled-new", status: 2, stopDate: &newer},
	})

	got, err := st.Logbook(context.Background(), time.Now().AddDate(0, 0, -7))
	require.NoError(t, err)
	assert.Equal(t, []string{"canceled-new", "done-recent"}, uuids(got))
}

func TestDeadlinesIncludeProjects(t *testing.T) {
	st := newTestStore(t, []row{
		{uuid: "late", title: "todo", deadline: unixDate(2026, 9, 1)},
		{uuid: "proj", title: "project", typ: 1, deadline: unixDate(2026, 8, 30)},
		{uuid: "never", title: "no deadline"},
	})

	got, err := st.Deadlines(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"proj", "late"}, uuids(got))
}

func TestTagsAttachedInBatch(t *testing.T) {
	st := newTestStore(t, []row{
		{uuid: "t1", title: "tagged", start: 1},
		{uuid: "t2", title: "untagged", start: 1},
	})
	_, err := st.db.Exec(`INSERT INTO TMTag (uuid, title, shortcut) VALUES
		('tag1', 'errands', 'e'), ('tag2', 'home', NULL)`)
	require.NoError(t, err)
	_, err = st.db.Exec(`INSERT INTO TMTaskTag (tasks, tags) VALUES
		('t1', 'tag1'), ('t1', 'tag2')`)
	require.NoError(t, err)

	got, err := st.Anytime(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, task := range got {
		if task.UUID == "t1" {
			assert.ElementsMatch(t, []string{"errands", "home"}, task.Tags)
		} else {
			assert.Empty(t, task.Tags)
		}
	}

	tagged, err := st.TaggedTodos(context.Background(), "errands")
	require.NoError(t, err)
	assert.Equal(t, []string{"t1"}, uuids(tagged))
}

func TestSearch(t *testing.T) {
	st := newTestStore(t, []row{
		{uuid: "m1", title: "Buy groceries"},
		{uuid: "m2", title: "Call mom", notes: "about groceries"},
		{uuid: "m3", title: "Unrelated"},
	})

	got, err := st.Search(context.Background(), "groceries")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"m1", "m2"}, uuids(got))
}

func TestSearchAdvanced(t *testing.T) {
	st := newTestStore(t, []row{
		{uuid: "a", title: "open with deadline", deadline: unixDate(2026, 9, 10), area: str("ar1")},
		{uuid: "b", title: "done", status: 3},
		{uuid: "c", title: "open no deadline", area: str("ar1")},
	})

	got, err := st.SearchAdvanced(context.Background(), Filter{Status: "incomplete", AreaUUID: "ar1"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "c"}, uuids(got))

	got, err = st.SearchAdvanced(context.Background(), Filter{Deadline: "<=2026-09-30"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, uuids(got))

	_, err = st.SearchAdvanced(context.Background(), Filter{Status: "bogus"})
	assert.Error(t, err)

	_, err = st.SearchAdvanced(context.Background(), Filter{Deadline: "not-a-date"})
	assert.Error(t, err)
}

func TestGetByPrefixWithChecklist(t *testing.T) {
	st := newTestStore(t, []row{
		{uuid: "abcdef12-3456-7890", title: "with checklist"},
	})
	_, err := st.db.Exec(`INSERT INTO TMChecklistItem (uuid, task, title, status, "index") VALUES
		('c2', 'abcdef12-3456-7890', 'second', 0, 2),
		('c1', 'abcdef12-3456-7890', 'first', 3, 1)`)
	require.NoError(t, err)

	got, err := st.Get(context.Background(), "abcdef12")
	require.NoError(t, err)
	assert.Equal(t, "with checklist", got.Title)
	require.Len(t, got.Checklist, 2)
	assert.Equal(t, things.ChecklistItem{Title: "first", Done: true}, got.Checklist[0])
	assert.Equal(t, things.ChecklistItem{Title: "second", Done: false}, got.Checklist[1])

	_, err = st.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProjectTitlesAndCounts(t *testing.T) {
	st := newTestStore(t, []row{
		{uuid: "p1", title: "Renovation", typ: 1},
		{uuid: "t1", project: str("p1")},
		{uuid: "t2", project: str("p1")},
		{uuid: "t3", status: 3, project: str("p1")},
	})

	titles, err := st.ProjectTitles(context.Background(), []string{"p1", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"p1": "Renovation"}, titles)

	counts, err := st.ProjectCounts(context.Background(), []string{"p1"})
	require.NoError(t, err)
	assert.Equal(t, resolve.Counts{Open: 2, Done: 1}, counts["p1"])
}

func TestAreaTitles(t *testing.T) {
	st := newTestStore(t, nil)
	_, err := st.db.Exec(`INSERT INTO TMArea (uuid, title) VALUES ('ar1', 'Home')`)
	require.NoError(t, err)

	titles, err := st.AreaTitles(context.Background(), []string{"ar1", "ghost"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"ar1": "Home"}, titles)

	areas, err := st.Areas(context.Background())
	require.NoError(t, err)
	require.Len(t, areas, 1)
	assert.Equal(t, "Home", areas[0].Title)
}

func TestFindCreated(t *testing.T) {
	now := float64(time.Now().Unix())
	earlier := now - 3600
	st := newTestStore(t, []row{
		{uuid: "old", title: "Buy groceries", created: earlier},
		{uuid: "new", title: "Buy groceries", created: now},
	})

	got, err := st.FindCreated(context.Background(), "Buy groceries", time.Now().Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "new", got)

	_, err = st.FindCreated(context.Background(), "Nothing", time.Now().Add(-time.Minute))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"7d", 7 * 24 * time.Hour},
		{"2w", 14 * 24 * time.Hour},
		{"1m", 30 * 24 * time.Hour},
		{"1y", 365 * 24 * time.Hour},
	}
	for _, tt := range tests {
		got, err := ParsePeriod(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, bad := range []string{"", "d", "7", "7x", "-3d", "x1d"} {
		_, err := ParsePeriod(bad)
		assert.Error(t, err, bad)
	}
}
