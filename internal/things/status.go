package things

import "time"

// Bucket is the mutually exclusive list a task occupies in the Things UI.
type Bucket int

const (
	BucketInbox Bucket = iota
	BucketToday
	BucketUpcoming
	BucketAnytime
	BucketSomeday
	BucketLogbook
	BucketTrash
)

func (b Bucket) String() string {
	switch b {
	case BucketInbox:
		return "Inbox"
	case BucketToday:
		return "Today"
	case BucketUpcoming:
		return "Upcoming"
	case BucketAnytime:
		return "Anytime"
	case BucketSomeday:
		return "Someday"
	case BucketLogbook:
		return "Logbook"
	case BucketTrash:
		return "Trash"
	}
	return "Unknown"
}

// SomedayContext captures which projects are filed under Someday so that
// their children can be classified as Someday too. Things enforces this
// inheritance in its UI but the database rows of the children still say
// Anytime, so every bucket-filtered view needs this context.
//
// Headings complicate the walk: a task under a heading carries the heading's
// UUID instead of the project's, so the context also maps heading -> parent
// Someday project.
type SomedayContext struct {
	projects map[string]struct{}
	headings map[string]string
}

// NewSomedayContext builds a context from the Someday project IDs and the
// heading->project mapping for headings inside those projects.
func NewSomedayContext(projectIDs []string, headingToProject map[string]string) SomedayContext {
	ctx := SomedayContext{
		projects: make(map[string]struct{}, len(projectIDs)),
		headings: make(map[string]string, len(headingToProject)),
	}
	for _, id := range projectIDs {
		ctx.projects[id] = struct{}{}
	}
	for h, p := range headingToProject {
		ctx.headings[h] = p
	}
	return ctx
}

// Empty reports whether no Someday projects exist, in which case all the
// inheritance filtering is a no-op.
func (c SomedayContext) Empty() bool { return len(c.projects) == 0 }

// InheritsSomeday reports whether t belongs to a Someday project, either
// directly or through a heading, without carrying its own Someday marker.
func (c SomedayContext) InheritsSomeday(t Task) bool {
	if t.ProjectID != "" {
		_, ok := c.projects[t.ProjectID]
		return ok
	}
	if t.HeadingID != "" {
		_, ok := c.headings[t.HeadingID]
		return ok
	}
	return false
}

// Classify maps a task to the bucket the Things UI shows it in.
//
// Precedence: trashed beats everything, then completed/canceled land in the
// Logbook regardless of scheduling. Only then does the scheduling field
// matter: an explicit Someday marker is terminal, then inherited Someday via
// the parent project, then concrete dates (today or earlier -> Today, future
// -> Upcoming). Deadlines never participate in classification.
func Classify(t Task, ctx SomedayContext, now time.Time) Bucket {
	if t.Trashed {
		return BucketTrash
	}
	if t.Status == StatusCompleted || t.Status == StatusCanceled {
		return BucketLogbook
	}
	if t.Start == StartSomeday {
		return BucketSomeday
	}
	if ctx.InheritsSomeday(t) {
		return BucketSomeday
	}
	if t.StartDate != nil {
		today := midnight(now)
		if midnight(*t.StartDate).After(today) {
			return BucketUpcoming
		}
		// Today or overdue-scheduled: Things shows both in Today.
		return BucketToday
	}
	if t.Start == StartInbox && t.ProjectID == "" && t.AreaID == "" && t.HeadingID == "" {
		return BucketInbox
	}
	return BucketAnytime
}

// FilterInherited removes tasks that inherit Someday from their parent
// project. Applied to the Today, Upcoming, and Anytime views; checking the
// task's own Start field alone would leave these tasks in active lists
// where the Things UI hides them.
func FilterInherited(tasks []Task, ctx SomedayContext) []Task {
	if ctx.Empty() {
		return tasks
	}
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if !ctx.InheritsSomeday(t) {
			out = append(out, t)
		}
	}
	return out
}

// AugmentSomeday appends tasks from candidates that belong in Someday only
// by inheritance and are not already present. Applied to the Someday view,
// whose base query sees only tasks with their own Someday marker.
func AugmentSomeday(someday, candidates []Task, ctx SomedayContext) []Task {
	if ctx.Empty() {
		return someday
	}
	seen := make(map[string]struct{}, len(someday))
	for _, t := range someday {
		seen[t.UUID] = struct{}{}
	}
	for _, t := range candidates {
		if _, ok := seen[t.UUID]; ok {
			continue
		}
		if ctx.InheritsSomeday(t) {
			someday = append(someday, t)
		}
	}
	return someday
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
