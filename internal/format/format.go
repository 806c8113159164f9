// Package format renders tasks, projects, areas, and tags in two tiers:
// a dense single line per item (default) or a multi-line detailed block.
// Formatters are pure projections over already-fetched, already-enriched
// data; they never query and never re-sort their input.
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/piersdd/things-3-mcp/internal/resolve"
	"github.com/piersdd/things-3-mcp/internal/things"
)

// ShortUUIDLen is the identifier prefix length used in concise output.
const ShortUUIDLen = 8

// NotesLimit truncates long notes even in detailed mode.
const NotesLimit = 500

// DetailItemCap bounds embedded item lists inside detailed blocks.
const DetailItemCap = 20

func glyph(s things.Status) string {
	switch s {
	case things.StatusCompleted:
		return "✓"
	case things.StatusCanceled:
		return "✗"
	default:
		return "□"
	}
}

func shortID(uuid string) string {
	if len(uuid) > ShortUUIDLen {
		return uuid[:ShortUUIDLen]
	}
	return uuid
}

// when renders the scheduling summary for concise output. A date equal to
// today renders as the literal "today"; future dates render as YYYY-MM-DD.
// Anytime renders as nothing at all, matching the omit-empty rule.
func when(t things.Task, now time.Time) string {
	if t.StartDate != nil {
		d := t.StartDate
		if d.Year() == now.Year() && d.YearDay() == now.YearDay() {
			return "today"
		}
		return d.Format("2006-01-02")
	}
	switch t.Start {
	case things.StartSomeday:
		return "someday"
	case things.StartInbox:
		return "inbox"
	}
	return ""
}

func tagList(tags []string) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = "#" + t
	}
	return strings.Join(parts, ",")
}

// TodoConcise renders one dense line: glyph, title, short id, scheduling
// summary, deadline, project context, tags. Empty fields are omitted
// entirely rather than rendered as placeholders.
func TodoConcise(t things.Task, batch resolve.Batch) string {
	return todoConcise(t, batch, time.Now())
}

func todoConcise(t things.Task, batch resolve.Batch, now time.Time) string {
	parts := []string{fmt.Sprintf("%s %s [%s]", glyph(t.Status), t.Title, shortID(t.UUID))}
	if w := when(t, now); w != "" {
		parts = append(parts, w)
	}
	if t.Deadline != nil {
		parts = append(parts, "deadline:"+t.Deadline.Format("2006-01-02"))
	}
	if t.ProjectID != "" {
		if name := batch.ProjectName(t.ProjectID); name != "" && name != resolve.UnresolvedName {
			parts = append(parts, "in:"+name)
		}
	}
	if len(t.Tags) > 0 {
		parts = append(parts, tagList(t.Tags))
	}
	return strings.Join(parts, " | ")
}

// ProjectConcise renders one line per project with open/done counts when
// the batch carries them.
func ProjectConcise(p things.Task, batch resolve.Batch) string {
	parts := []string{fmt.Sprintf("📋 %s [%s]", p.Title, shortID(p.UUID))}
	if p.Start == things.StartSomeday {
		parts = append(parts, "someday")
	}
	if c, ok := batch.ProjectCounts(p.UUID); ok {
		parts = append(parts, fmt.Sprintf("open:%d done:%d", c.Open, c.Done))
	}
	if p.Deadline != nil {
		parts = append(parts, "deadline:"+p.Deadline.Format("2006-01-02"))
	}
	if len(p.Tags) > 0 {
		parts = append(parts, tagList(p.Tags))
	}
	return strings.Join(parts, " | ")
}

// AreaConcise renders one line per area.
func AreaConcise(a things.Area) string {
	return fmt.Sprintf("📁 %s [%s]", a.Title, shortID(a.UUID))
}

// TagConcise renders one line per tag.
func TagConcise(t things.Tag) string {
	line := fmt.Sprintf("#%s [%s]", t.Title, shortID(t.UUID))
	if t.Shortcut != "" {
		line += " shortcut:" + t.Shortcut
	}
	return line
}

// TodoDetailed renders the multi-line block with notes, checklist, and
// timestamps. Absent fields produce no line.
func TodoDetailed(t things.Task, batch resolve.Batch) string {
	var lines []string
	lines = append(lines, "Title: "+t.Title)
	lines = append(lines, "UUID: "+t.UUID)
	lines = append(lines, "Status: "+t.Status.String())

	if t.StartDate == nil && t.Start != things.StartAnytime {
		lines = append(lines, "Start: "+t.Start.String())
	}
	if t.StartDate != nil {
		lines = append(lines, "Scheduled: "+t.StartDate.Format("2006-01-02"))
	}
	if t.Deadline != nil {
		lines = append(lines, "Deadline: "+t.Deadline.Format("2006-01-02"))
	}
	if t.ProjectID != "" {
		lines = append(lines, "Project: "+nameOr(batch.ProjectName(t.ProjectID), t.ProjectID))
	}
	if t.AreaID != "" {
		lines = append(lines, "Area: "+nameOr(batch.AreaName(t.AreaID), t.AreaID))
	}
	if len(t.Tags) > 0 {
		lines = append(lines, "Tags: "+strings.Join(t.Tags, ", "))
	}
	if t.Notes != "" {
		notes := t.Notes
		if len(notes) > NotesLimit {
			notes = notes[:NotesLimit] + "…"
		}
		lines = append(lines, "Notes: "+notes)
	}
	if len(t.Checklist) > 0 {
		lines = append(lines, "Checklist:")
		for _, item := range t.Checklist {
			check := "□"
			if item.Done {
				check = "✓"
			}
			lines = append(lines, "  "+check+" "+item.Title)
		}
	}
	if t.StopDate != nil {
		lines = append(lines, "Completed: "+t.StopDate.Format("2006-01-02"))
	}
	if !t.Created.IsZero() {
		lines = append(lines, "Created: "+t.Created.Format("2006-01-02"))
	}
	if !t.Modified.IsZero() {
		lines = append(lines, "Modified: "+t.Modified.Format("2006-01-02"))
	}
	return strings.Join(lines, "\n")
}

func nameOr(name, fallback string) string {
	if name == "" || name == resolve.UnresolvedName {
		return fallback
	}
	return name
}

// ProjectDetailed renders a project block, optionally with its task list.
func ProjectDetailed(p things.Task, batch resolve.Batch, items []things.Task) string {
	var lines []string
	lines = append(lines, "Title: "+p.Title)
	lines = append(lines, "UUID: "+p.UUID)
	lines = append(lines, "Status: "+p.Status.String())

	if p.Start == things.StartSomeday {
		lines = append(lines, "Start: someday")
	}
	if p.StartDate != nil {
		lines = append(lines, "Scheduled: "+p.StartDate.Format("2006-01-02"))
	}
	if p.Deadline != nil {
		lines = append(lines, "Deadline: "+p.Deadline.Format("2006-01-02"))
	}
	if p.AreaID != "" {
		lines = append(lines, "Area: "+nameOr(batch.AreaName(p.AreaID), p.AreaID))
	}
	if len(p.Tags) > 0 {
		lines = append(lines, "Tags: "+strings.Join(p.Tags, ", "))
	}
	if p.Notes != "" {
		notes := p.Notes
		if len(notes) > NotesLimit {
			notes = notes[:NotesLimit] + "…"
		}
		lines = append(lines, "Notes: "+notes)
	}
	if len(items) > 0 {
		lines = append(lines, fmt.Sprintf("Tasks (%d):", len(items)))
		for i, t := range items {
			if i == DetailItemCap {
				lines = append(lines, fmt.Sprintf("  … and %d more", len(items)-DetailItemCap))
				break
			}
			lines = append(lines, "  "+glyph(t.Status)+" "+t.Title)
		}
	}
	return strings.Join(lines, "\n")
}

// AreaDetailed renders an area block with its projects and todos.
func AreaDetailed(a things.Area, projects, todos []things.Task) string {
	var lines []string
	lines = append(lines, "Title: "+a.Title)
	lines = append(lines, "UUID: "+a.UUID)
	if len(projects) > 0 {
		lines = append(lines, fmt.Sprintf("Projects (%d):", len(projects)))
		for _, p := range projects {
			lines = append(lines, "  📋 "+p.Title)
		}
	}
	if len(todos) > 0 {
		lines = append(lines, fmt.Sprintf("Todos (%d):", len(todos)))
		for i, t := range todos {
			if i == DetailItemCap {
				lines = append(lines, fmt.Sprintf("  … and %d more", len(todos)-DetailItemCap))
				break
			}
			lines = append(lines, "  □ "+t.Title)
		}
	}
	return strings.Join(lines, "\n")
}

// ListOptions controls list rendering.
type ListOptions struct {
	Concise bool
	Limit   int
	// Items maps a project UUID to its open todos, shown in detailed blocks.
	Items map[string][]things.Task
}

// TodoList renders up to Limit todos with a truncation footer. Ordering is
// whatever the caller passed in.
func TodoList(todos []things.Task, opts ListOptions, batch resolve.Batch) string {
	total := len(todos)
	shown := todos
	if opts.Limit > 0 && total > opts.Limit {
		shown = todos[:opts.Limit]
	}
	if len(shown) == 0 {
		return "No items found."
	}

	if opts.Concise {
		lines := make([]string, len(shown))
		for i, t := range shown {
			lines[i] = TodoConcise(t, batch)
		}
		out := strings.Join(lines, "\n")
		if total > len(shown) {
			out += fmt.Sprintf("\n… %d more (use limit= to see more)", total-len(shown))
		}
		return out
	}

	blocks := make([]string, len(shown))
	for i, t := range shown {
		blocks[i] = TodoDetailed(t, batch)
	}
	return fmt.Sprintf("Showing %d/%d items\n\n%s", len(shown), total, strings.Join(blocks, "\n---\n"))
}

// ProjectList renders up to Limit projects.
func ProjectList(projects []things.Task, opts ListOptions, batch resolve.Batch) string {
	total := len(projects)
	shown := projects
	if opts.Limit > 0 && total > opts.Limit {
		shown = projects[:opts.Limit]
	}
	if len(shown) == 0 {
		return "No projects found."
	}

	if opts.Concise {
		lines := make([]string, len(shown))
		for i, p := range shown {
			lines[i] = ProjectConcise(p, batch)
		}
		out := strings.Join(lines, "\n")
		if total > len(shown) {
			out += fmt.Sprintf("\n… %d more (use limit= to see more)", total-len(shown))
		}
		return out
	}

	blocks := make([]string, len(shown))
	for i, p := range shown {
		blocks[i] = ProjectDetailed(p, batch, opts.Items[p.UUID])
	}
	return fmt.Sprintf("Showing %d/%d projects\n\n%s", len(shown), total, strings.Join(blocks, "\n---\n"))
}
