package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/piersdd/things-3-mcp/internal/resolve"
	"github.com/piersdd/things-3-mcp/internal/things"
)

const openTodo = "status = 0 AND trashed = 0 AND type = 0"

// Inbox returns unprocessed todos: no parent, no scheduling.
func (s *Store) Inbox(ctx context.Context) ([]things.Task, error) {
	return s.queryTasks(ctx,
		openTodo+` AND start = 0
		AND project IS NULL AND area IS NULL AND heading IS NULL`,
		"creationDate")
}

// Today returns todos scheduled for today or earlier. Things shows overdue
// scheduled items in Today as well.
func (s *Store) Today(ctx context.Context) ([]things.Task, error) {
	return s.queryTasks(ctx,
		openTodo+" AND startDate IS NOT NULL AND startDate <= ?",
		"startDate, creationDate", todayMidnight())
}

// Upcoming returns todos scheduled for a future date.
func (s *Store) Upcoming(ctx context.Context) ([]things.Task, error) {
	return s.queryTasks(ctx,
		openTodo+" AND startDate IS NOT NULL AND startDate > ?",
		"startDate, creationDate", todayMidnight())
}

// Anytime returns available todos: filed as Anytime and not deferred to a
// future date.
func (s *Store) Anytime(ctx context.Context) ([]things.Task, error) {
	return s.queryTasks(ctx,
		openTodo+" AND start = 1 AND (startDate IS NULL OR startDate <= ?)",
		"creationDate", todayMidnight())
}

// Someday returns todos carrying their own Someday marker. Tasks that only
// inherit Someday from their project are found via things.AugmentSomeday.
func (s *Store) Someday(ctx context.Context) ([]things.Task, error) {
	return s.queryTasks(ctx, openTodo+" AND start = 2", "creationDate")
}

// Logbook returns completed and canceled todos stopped at or after since,
// most recent first.
func (s *Store) Logbook(ctx context.Context, since time.Time) ([]things.Task, error) {
	return s.queryTasks(ctx,
		`status IN (2, 3) AND trashed = 0 AND type = 0
		AND stopDate IS NOT NULL AND stopDate >= ?`,
		"stopDate DESC", float64(since.Unix()))
}

// Trash returns trashed todos.
func (s *Store) Trash(ctx context.Context) ([]things.Task, error) {
	return s.queryTasks(ctx, "trashed = 1 AND type = 0", "userModificationDate DESC")
}

// Deadlines returns open items with a deadline, soonest first. Projects are
// included since their deadlines surface in the same Things view.
func (s *Store) Deadlines(ctx context.Context) ([]things.Task, error) {
	return s.queryTasks(ctx,
		`status = 0 AND trashed = 0 AND type IN (0, 1) AND deadline IS NOT NULL`,
		"deadline, creationDate")
}

// Todos returns open todos, optionally restricted to one project.
func (s *Store) Todos(ctx context.Context, projectUUID string) ([]things.Task, error) {
	if projectUUID != "" {
		return s.queryTasks(ctx, openTodo+" AND project = ?", "creationDate", projectUUID)
	}
	return s.queryTasks(ctx, openTodo, "creationDate")
}

// Projects returns active projects.
func (s *Store) Projects(ctx context.Context) ([]things.Task, error) {
	return s.queryTasks(ctx, "status = 0 AND trashed = 0 AND type = 1", "creationDate")
}

// Areas returns all areas.
func (s *Store) Areas(ctx context.Context) ([]things.Area, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT uuid, title FROM TMArea ORDER BY title")
	if err != nil {
		return nil, fmt.Errorf("query areas: %w", err)
	}
	defer rows.Close()
	var areas []things.Area
	for rows.Next() {
		var a things.Area
		if err := rows.Scan(&a.UUID, &a.Title); err != nil {
			return nil, err
		}
		areas = append(areas, a)
	}
	return areas, rows.Err()
}

// TagList returns all tags.
func (s *Store) TagList(ctx context.Context) ([]things.Tag, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT uuid, title, shortcut FROM TMTag ORDER BY title")
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()
	var tags []things.Tag
	for rows.Next() {
		var t things.Tag
		var shortcut sql.NullString
		if err := rows.Scan(&t.UUID, &t.Title, &shortcut); err != nil {
			return nil, err
		}
		t.Shortcut = shortcut.String
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// TaggedTodos returns open todos carrying the named tag.
func (s *Store) TaggedTodos(ctx context.Context, tag string) ([]things.Task, error) {
	return s.queryTasks(ctx,
		openTodo+` AND uuid IN (
			SELECT tt.tasks FROM TMTaskTag tt
			JOIN TMTag tg ON tg.uuid = tt.tags WHERE tg.title = ?)`,
		"creationDate", tag)
}

// Search matches open items whose title or notes contain the query.
func (s *Store) Search(ctx context.Context, query string) ([]things.Task, error) {
	like := "%" + query + "%"
	return s.queryTasks(ctx,
		"trashed = 0 AND type IN (0, 1) AND (title LIKE ? OR notes LIKE ?)",
		"creationDate", like, like)
}

// Recent returns items created at or after since.
func (s *Store) Recent(ctx context.Context, since time.Time) ([]things.Task, error) {
	return s.queryTasks(ctx,
		"trashed = 0 AND type = 0 AND creationDate >= ?",
		"creationDate DESC", float64(since.Unix()))
}

// Filter describes an advanced search. Zero values mean "no constraint".
// StartDate and Deadline accept an optional leading comparison operator,
// e.g. ">=2026-01-01" or "<=2026-03-01"; a bare date means equality.
type Filter struct {
	Status    string // incomplete, completed, canceled
	StartDate string
	Deadline  string
	Tag       string
	AreaUUID  string
	Type      string // to-do, project, heading
	Last      string // creation period, e.g. "3d"
}

// SearchAdvanced AND-combines every set field of f.
func (s *Store) SearchAdvanced(ctx context.Context, f Filter) ([]things.Task, error) {
	where := []string{"trashed = 0"}
	var args []any

	switch f.Status {
	case "":
		// any
	case "incomplete":
		where = append(where, "status = 0")
	case "completed":
		where = append(where, "status = 3")
	case "canceled":
		where = append(where, "status = 2")
	default:
		return nil, fmt.Errorf("invalid status filter %q", f.Status)
	}

	switch f.Type {
	case "":
		where = append(where, "type = 0")
	case "to-do":
		where = append(where, "type = 0")
	case "project":
		where = append(where, "type = 1")
	case "heading":
		where = append(where, "type = 2")
	default:
		return nil, fmt.Errorf("invalid type filter %q", f.Type)
	}

	if f.StartDate != "" {
		cond, arg, err := dateCondition("startDate", f.StartDate)
		if err != nil {
			return nil, err
		}
		where = append(where, cond)
		args = append(args, arg)
	}
	if f.Deadline != "" {
		cond, arg, err := dateCondition("deadline", f.Deadline)
		if err != nil {
			return nil, err
		}
		where = append(where, cond)
		args = append(args, arg)
	}
	if f.Tag != "" {
		where = append(where, `uuid IN (
			SELECT tt.tasks FROM TMTaskTag tt
			JOIN TMTag tg ON tg.uuid = tt.tags WHERE tg.title = ?)`)
		args = append(args, f.Tag)
	}
	if f.AreaUUID != "" {
		where = append(where, "area = ?")
		args = append(args, f.AreaUUID)
	}
	if f.Last != "" {
		d, err := ParsePeriod(f.Last)
		if err != nil {
			return nil, err
		}
		where = append(where, "creationDate >= ?")
		args = append(args, float64(time.Now().Add(-d).Unix()))
	}

	return s.queryTasks(ctx, strings.Join(where, " AND "), "creationDate", args...)
}

func dateCondition(column, expr string) (string, any, error) {
	op := "="
	for _, candidate := range []string{"<=", ">=", "<", ">"} {
		if strings.HasPrefix(expr, candidate) {
			op = candidate
			expr = expr[len(candidate):]
			break
		}
	}
	t, err := time.Parse("2006-01-02", expr)
	if err != nil {
		return "", nil, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", expr)
	}
	return fmt.Sprintf("%s %s ?", column, op), t.Unix(), nil
}

// Get returns a single item by UUID or UUID prefix, including completed and
// trashed ones, with tags and checklist attached. Returns ErrNotFound when
// nothing matches.
func (s *Store) Get(ctx context.Context, uuid string) (things.Task, error) {
	tasks, err := s.queryTasks(ctx, "uuid = ? OR uuid LIKE ?", "creationDate", uuid, uuid+"%")
	if err != nil {
		return things.Task{}, err
	}
	if len(tasks) == 0 {
		return things.Task{}, fmt.Errorf("%w: %s", ErrNotFound, uuid)
	}
	t := tasks[0]
	rows, err := s.db.QueryContext(ctx,
		`SELECT title, status FROM TMChecklistItem WHERE task = ? ORDER BY "index"`, t.UUID)
	if err != nil {
		return things.Task{}, fmt.Errorf("query checklist: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var title string
		var status int
		if err := rows.Scan(&title, &status); err != nil {
			return things.Task{}, err
		}
		t.Checklist = append(t.Checklist, things.ChecklistItem{
			Title: title,
			Done:  status == int(things.StatusCompleted),
		})
	}
	return t, rows.Err()
}

// SomedayContext builds the inheritance context for bucket classification:
// the Someday project set and the heading->project map for their headings.
// Two queries total, regardless of project count.
func (s *Store) SomedayContext(ctx context.Context) (things.SomedayContext, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT uuid FROM TMTask WHERE type = 1 AND status = 0 AND trashed = 0 AND start = 2")
	if err != nil {
		return things.SomedayContext{}, fmt.Errorf("query someday projects: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return things.SomedayContext{}, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return things.SomedayContext{}, err
	}
	rows.Close()

	headings := make(map[string]string)
	if len(ids) > 0 {
		args := make([]any, len(ids))
		for i, id := range ids {
			args[i] = id
		}
		hr, err := s.db.QueryContext(ctx,
			`SELECT uuid, project FROM TMTask
			WHERE type = 2 AND trashed = 0 AND project IN (`+placeholders(len(ids))+`)`, args...)
		if err != nil {
			return things.SomedayContext{}, fmt.Errorf("query someday headings: %w", err)
		}
		defer hr.Close()
		for hr.Next() {
			var h, p string
			if err := hr.Scan(&h, &p); err != nil {
				return things.SomedayContext{}, err
			}
			headings[h] = p
		}
		if err := hr.Err(); err != nil {
			return things.SomedayContext{}, err
		}
	}
	return things.NewSomedayContext(ids, headings), nil
}

// ProjectTitles resolves project UUIDs to titles in one query.
func (s *Store) ProjectTitles(ctx context.Context, ids []string) (map[string]string, error) {
	return s.titles(ctx, "SELECT uuid, title FROM TMTask WHERE type = 1 AND uuid IN", ids)
}

// AreaTitles resolves area UUIDs to titles in one query.
func (s *Store) AreaTitles(ctx context.Context, ids []string) (map[string]string, error) {
	return s.titles(ctx, "SELECT uuid, title FROM TMArea WHERE uuid IN", ids)
}

func (s *Store) titles(ctx context.Context, prefix string, ids []string) (map[string]string, error) {
	out := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx, prefix+" ("+placeholders(len(ids))+")", args...)
	if err != nil {
		return nil, fmt.Errorf("query titles: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var uuid, title string
		if err := rows.Scan(&uuid, &title); err != nil {
			return nil, err
		}
		out[uuid] = title
	}
	return out, rows.Err()
}

// ProjectCounts returns open/done todo counts per project in one aggregate
// query over the requested projects.
func (s *Store) ProjectCounts(ctx context.Context, ids []string) (map[string]resolve.Counts, error) {
	out := make(map[string]resolve.Counts, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT project, status, COUNT(*) FROM TMTask
		WHERE type = 0 AND trashed = 0 AND project IN (`+placeholders(len(ids))+`)
		GROUP BY project, status`, args...)
	if err != nil {
		return nil, fmt.Errorf("query project counts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var project string
		var status, n int
		if err := rows.Scan(&project, &status, &n); err != nil {
			return nil, err
		}
		c := out[project]
		if things.Status(status) == things.StatusCompleted {
			c.Done += n
		} else if things.Status(status) == things.StatusIncomplete {
			c.Open += n
		}
		out[project] = c
	}
	return out, rows.Err()
}

// FindCreated locates the most recently created task with the given title
// at or after since. The URL-scheme channel returns no identifier, so new
// items are recovered by this distinguishing-attribute re-query.
func (s *Store) FindCreated(ctx context.Context, title string, since time.Time) (string, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT uuid FROM TMTask
		WHERE title = ? AND trashed = 0 AND creationDate >= ?
		ORDER BY creationDate DESC LIMIT 1`,
		title, float64(since.Unix()))
	var uuid string
	if err := row.Scan(&uuid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: created item %q", ErrNotFound, title)
		}
		return "", err
	}
	return uuid, nil
}
