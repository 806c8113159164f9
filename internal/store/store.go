// Package store provides read-only access to the local Things 3 database.
//
// The database is the same SQLite file the app itself writes. Every method
// runs a fresh query; nothing is cached between calls, since the app can
// change the file at any moment.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/piersdd/things-3-mcp/internal/things"
)

// ErrNotFound is returned when a requested identifier resolves to nothing.
var ErrNotFound = errors.New("item not found")

// Store wraps the Things database connection.
type Store struct {
	db  *sql.DB
	log *slog.Logger
}

// Open opens the Things database read-only. An empty path selects the
// default location under the Things group container.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("things database: %w", err)
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open things database: %w", err)
	}
	logger.Debug("opened things database", "path", path)
	return &Store{db: db, log: logger}, nil
}

// OpenDB wraps an existing connection. Used by tests and by callers that
// manage the connection themselves.
func OpenDB(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, log: logger}
}

// DefaultPath locates the Things database inside the app's group container.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	pattern := filepath.Join(home,
		"Library", "Group Containers", "JLMPQHK86H.com.culturedcode.ThingsMac",
		"ThingsData-*", "Things Database.thingsdatabase", "main.sqlite")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("things database not found (is Things 3 installed?); set THINGS_DB to override")
	}
	return matches[0], nil
}

func (s *Store) Close() error { return s.db.Close() }

// ParsePeriod converts a things.py-style period ("3d", "2w", "1m", "1y")
// into a duration.
func ParsePeriod(period string) (time.Duration, error) {
	if len(period) < 2 {
		return 0, fmt.Errorf("invalid period %q (use e.g. 7d, 2w, 1m, 1y)", period)
	}
	n, err := strconv.Atoi(period[:len(period)-1])
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid period %q (use e.g. 7d, 2w, 1m, 1y)", period)
	}
	day := 24 * time.Hour
	switch period[len(period)-1] {
	case 'd':
		return time.Duration(n) * day, nil
	case 'w':
		return time.Duration(n) * 7 * day, nil
	case 'm':
		return time.Duration(n) * 30 * day, nil
	case 'y':
		return time.Duration(n) * 365 * day, nil
	}
	return 0, fmt.Errorf("invalid period unit in %q (use d, w, m, or y)", period)
}

const taskColumns = `uuid, title, type, status, start, startDate, deadline,
	stopDate, creationDate, userModificationDate, notes, project, area,
	heading, trashed`

func scanTask(rows *sql.Rows) (things.Task, error) {
	var (
		t                     things.Task
		typ, status, start    int
		startDate, deadline   sql.NullInt64
		stopDate, created     sql.NullFloat64
		modified              sql.NullFloat64
		notes, proj, area, hd sql.NullString
		trashed               int
	)
	err := rows.Scan(&t.UUID, &t.Title, &typ, &status, &start,
		&startDate, &deadline, &stopDate, &created, &modified,
		&notes, &proj, &area, &hd, &trashed)
	if err != nil {
		return t, err
	}
	t.Type = things.TaskType(typ)
	t.Status = things.Status(status)
	t.Start = things.Start(start)
	if startDate.Valid {
		d := time.Unix(startDate.Int64, 0).UTC()
		t.StartDate = &d
	}
	if deadline.Valid {
		d := time.Unix(deadline.Int64, 0).UTC()
		t.Deadline = &d
	}
	if stopDate.Valid {
		d := time.Unix(int64(stopDate.Float64), 0).UTC()
		t.StopDate = &d
	}
	if created.Valid {
		t.Created = time.Unix(int64(created.Float64), 0).UTC()
	}
	if modified.Valid {
		t.Modified = time.Unix(int64(modified.Float64), 0).UTC()
	}
	t.Notes = notes.String
	t.ProjectID = proj.String
	t.AreaID = area.String
	t.HeadingID = hd.String
	t.Trashed = trashed != 0
	return t, nil
}

func (s *Store) queryTasks(ctx context.Context, where string, order string, args ...any) ([]things.Task, error) {
	q := "SELECT " + taskColumns + " FROM TMTask WHERE " + where
	if order != "" {
		q += " ORDER BY " + order
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []things.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := s.loadTags(ctx, tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// loadTags attaches tag names to the given tasks with a single join query
// over the whole batch.
func (s *Store) loadTags(ctx context.Context, tasks []things.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	index := make(map[string]int, len(tasks))
	args := make([]any, 0, len(tasks))
	for i, t := range tasks {
		index[t.UUID] = i
		args = append(args, t.UUID)
	}
	q := `SELECT tt.tasks, tg.title
		FROM TMTaskTag tt JOIN TMTag tg ON tg.uuid = tt.tags
		WHERE tt.tasks IN (` + placeholders(len(args)) + `)`
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var taskUUID, name string
		if err := rows.Scan(&taskUUID, &name); err != nil {
			return err
		}
		if i, ok := index[taskUUID]; ok {
			tasks[i].Tags = append(tasks[i].Tags, name)
		}
	}
	return rows.Err()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func todayMidnight() int64 {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Unix()
}
