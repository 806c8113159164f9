package mcpserver

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/piersdd/things-3-mcp/internal/resolve"
	"github.com/piersdd/things-3-mcp/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const fixtureSchema = `
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
CREATE TABLE TMArea (uuid TEXT PRIMARY KEY, title TEXT NOT NULL DEFAULT '');
CREATE TABLE TMTag (uuid TEXT PRIMARY KEY, title TEXT NOT NULL DEFAULT '', shortcut TEXT);
CREATE TABLE TMTaskTag (tasks TEXT NOT NULL, tags TEXT NOT NULL);
CREATE TABLE TMChecklistItem (
	uuid TEXT PRIMARY KEY,
	task TEXT NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	status INTEGER NOT NULL DEFAULT 0,
	"index" INTEGER NOT NULL DEFAULT 0
);
`

// newTestServer builds a Server over a fixture database with a Someday
// project, an inheriting child, and a few inbox items.
func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "main.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = db.Exec(fixtureSchema)
	require.NoError(t, err)

	now := float64(time.Now().Unix())
	insert := func(q string, args ...any) {
		_, err := db.Exec(q, args...)
		require.NoError(t, err)
	}
	insert(`INSERT INTO TMTask (uuid, title, type, status, start, creationDate, userModificationDate) VALUES
		('inbox-1', 'loose thought', 0, 0, 0, ?, ?),
		('inbox-2', 'another thought', 0, 0, 0, ?, ?)`, now, now, now+1, now+1)
	insert(`INSERT INTO TMTask (uuid, title, type, status, start, creationDate, userModificationDate) VALUES
		('proj-someday', 'Dream project', 1, 0, 2, ?, ?)`, now, now)
	insert(`INSERT INTO TMTask (uuid, title, type, status, start, project, creationDate, userModificationDate) VALUES
		('child', 'inherits someday', 0, 0, 1, 'proj-someday', ?, ?),
		('free', 'actually available', 0, 0, 1, NULL, ?, ?)`, now, now, now, now)
	insert(`INSERT INTO TMArea (uuid, title) VALUES ('area-1', 'Work')`)
	insert(`INSERT INTO TMTask (uuid, title, type, status, start, area, creationDate, userModificationDate) VALUES
		('proj-work', 'Ship release', 1, 0, 1, 'area-1', ?, ?),
		('area-todo', 'Standing errand', 0, 0, 1, 'area-1', ?, ?)`, now, now, now, now)
	insert(`INSERT INTO TMTask (uuid, title, type, status, start, project, creationDate, userModificationDate) VALUES
		('work-todo', 'Draft notes', 0, 0, 1, 'proj-work', ?, ?)`, now, now)

	st := store.OpenDB(db, nil)
	return &Server{
		cfg:      Config{},
		log:      discardLogger(),
		store:    st,
		resolver: resolve.New(st),
	}
}

func callReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestHandleGetInbox(t *testing.T) {
	s := newTestServer(t)
	res, err := s.handleGetInbox(context.Background(), callReq(nil))
	require.NoError(t, err)

	out := resultText(t, res)
	assert.Contains(t, out, "loose thought")
	assert.Contains(t, out, "another thought")
	assert.Contains(t, out, "[inbox-1]")
}

func TestHandleGetAnytimeHidesInheritedSomeday(t *testing.T) {
	s := newTestServer(t)
	res, err := s.handleGetAnytime(context.Background(), callReq(nil))
	require.NoError(t, err)

	out := resultText(t, res)
	assert.Contains(t, out, "actually available")
	assert.NotContains(t, out, "inherits someday")
}

func TestHandleGetSomedayIncludesInherited(t *testing.T) {
	s := newTestServer(t)
	res, err := s.handleGetSomeday(context.Background(), callReq(nil))
	require.NoError(t, err)

	out := resultText(t, res)
	assert.Contains(t, out, "inherits someday")
	assert.NotContains(t, out, "actually available")
}

func TestHandleShowItemBuiltinAndMissing(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleShowItem(context.Background(), callReq(map[string]any{"uuid": "inbox"}))
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "loose thought")

	res, err = s.handleShowItem(context.Background(), callReq(map[string]any{"uuid": "nonexistent"}))
	require.NoError(t, err)
	assert.Equal(t, "No item found with UUID: nonexistent", resultText(t, res))
}

func TestHandleShowItemDetailed(t *testing.T) {
	s := newTestServer(t)
	res, err := s.handleShowItem(context.Background(), callReq(map[string]any{"uuid": "inbox-1"}))
	require.NoError(t, err)

	out := resultText(t, res)
	assert.Contains(t, out, "Title: loose thought")
	assert.Contains(t, out, "UUID: inbox-1")
	assert.Contains(t, out, "List: Inbox")
}

func TestHandleGetSummaryCounts(t *testing.T) {
	s := newTestServer(t)
	res, err := s.handleGetSummary(context.Background(), callReq(nil))
	require.NoError(t, err)

	out := resultText(t, res)
	assert.Contains(t, out, "Inbox: 2 items")
	assert.Contains(t, out, "Anytime: 3 items")
	assert.Contains(t, out, "Someday: 1 items")
	assert.Contains(t, out, "Projects: 2 active")
}

func TestHandleGetProjectsIncludeItems(t *testing.T) {
	s := newTestServer(t)

	res, err := s.handleGetProjects(context.Background(), callReq(map[string]any{"include_items": true}))
	require.NoError(t, err)
	out := resultText(t, res)
	assert.Contains(t, out, "Title: Ship release")
	assert.Contains(t, out, "Tasks (1):")
	assert.Contains(t, out, "Draft notes")

	res, err = s.handleGetProjects(context.Background(), callReq(nil))
	require.NoError(t, err)
	assert.NotContains(t, resultText(t, res), "Draft notes")
}

func TestHandleGetAreasDetailedListsContents(t *testing.T) {
	s := newTestServer(t)
	res, err := s.handleGetAreas(context.Background(), callReq(map[string]any{"include_details": true}))
	require.NoError(t, err)

	out := resultText(t, res)
	assert.Contains(t, out, "Title: Work")
	assert.Contains(t, out, "Projects (1):")
	assert.Contains(t, out, "Ship release")
	assert.Contains(t, out, "Todos (1):")
	assert.Contains(t, out, "Standing errand")
}

func TestHandleGetLogbookRejectsBadPeriod(t *testing.T) {
	s := newTestServer(t)
	res, err := s.handleGetLogbook(context.Background(), callReq(map[string]any{"period": "soon"}))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.True(t, res.IsError)
}

func TestListLimit(t *testing.T) {
	s := newTestServer(t)
	res, err := s.handleGetInbox(context.Background(), callReq(map[string]any{"limit": 1}))
	require.NoError(t, err)

	out := resultText(t, res)
	assert.Contains(t, out, "… 1 more (use limit= to see more)")
}

func TestDefineToolsUniqueNames(t *testing.T) {
	s := &Server{log: discardLogger()}
	tools := s.defineTools()
	require.NotEmpty(t, tools)

	seen := make(map[string]bool)
	for _, tool := range tools {
		assert.False(t, seen[tool.Tool.Name], "duplicate tool %s", tool.Tool.Name)
		seen[tool.Tool.Name] = true
		assert.NotNil(t, tool.Handler, tool.Tool.Name)
		assert.NotEmpty(t, tool.Tool.Description, tool.Tool.Name)
	}
	for _, name := range []string{"get_inbox", "get_today", "get_someday", "add_todo", "json_import", "get_summary"} {
		assert.True(t, seen[name], "missing tool %s", name)
	}
}
