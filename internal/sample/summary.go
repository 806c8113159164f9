package sample

import (
	"fmt"
	"strings"
	"time"

	"github.com/piersdd/things-3-mcp/internal/things"
)

// DueSoonWindow is how far ahead the summary looks for deadlines.
const DueSoonWindow = 7 * 24 * time.Hour

// MaxDueSoon caps the deadlines listed in a summary.
const MaxDueSoon = 5

// Summary is a constant-size overview of the whole system. Its rendered
// form is bounded regardless of how many items exist.
type Summary struct {
	Inbox    int
	Today    int
	Upcoming int
	Anytime  int
	Someday  int
	Projects int
	Areas    int
	DueSoon  []Deadline
	DueTotal int
}

// Deadline is one near-term due item.
type Deadline struct {
	Title string
	Due   time.Time
}

// NearestDeadlines extracts items due within the window, soonest first,
// in one pass over an already deadline-sorted input.
func NearestDeadlines(tasks []things.Task, now time.Time, window time.Duration, max int) (kept []Deadline, total int) {
	cutoff := now.Add(window)
	for _, t := range tasks {
		if t.Deadline == nil || t.Deadline.After(cutoff) {
			continue
		}
		total++
		if len(kept) < max {
			kept = append(kept, Deadline{Title: t.Title, Due: *t.Deadline})
		}
	}
	return kept, total
}

// Render produces the summary text.
func (s Summary) Render() string {
	var b strings.Builder
	b.WriteString("=== Things 3 Summary ===\n")
	fmt.Fprintf(&b, "Inbox: %d items\n", s.Inbox)
	fmt.Fprintf(&b, "Today: %d items\n", s.Today)
	fmt.Fprintf(&b, "Upcoming: %d items\n", s.Upcoming)
	fmt.Fprintf(&b, "Anytime: %d items\n", s.Anytime)
	fmt.Fprintf(&b, "Someday: %d items\n", s.Someday)
	fmt.Fprintf(&b, "Projects: %d active\n", s.Projects)
	fmt.Fprintf(&b, "Areas: %d", s.Areas)

	if len(s.DueSoon) > 0 {
		fmt.Fprintf(&b, "\n\nDue this week (%d):", s.DueTotal)
		for _, d := range s.DueSoon {
			fmt.Fprintf(&b, "\n  ! %s — deadline:%s", d.Title, d.Due.Format("2006-01-02"))
		}
		if s.DueTotal > len(s.DueSoon) {
			fmt.Fprintf(&b, "\n  … and %d more", s.DueTotal-len(s.DueSoon))
		}
	}
	return b.String()
}
