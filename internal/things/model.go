// Package things defines the entity model for the local Things 3 database
// and the bucket-classification rules that mirror the app's UI.
package things

import "time"

// TaskType discriminates rows in the task table: ordinary to-dos, projects,
// and headings (section dividers inside projects) all live in TMTask.
type TaskType int

const (
	TypeTodo    TaskType = 0
	TypeProject TaskType = 1
	TypeHeading TaskType = 2
)

// Status is the completion state as stored by Things.
type Status int

const (
	StatusIncomplete Status = 0
	StatusCanceled   Status = 2
	StatusCompleted  Status = 3
)

func (s Status) String() string {
	switch s {
	case StatusCompleted:
		return "completed"
	case StatusCanceled:
		return "canceled"
	default:
		return "incomplete"
	}
}

// Start is the task's own scheduling keyword. A concrete scheduled date is
// carried separately in StartDate; Start only records which list the task
// was filed into.
type Start int

const (
	StartInbox   Start = 0
	StartAnytime Start = 1
	StartSomeday Start = 2
)

func (s Start) String() string {
	switch s {
	case StartInbox:
		return "inbox"
	case StartSomeday:
		return "someday"
	default:
		return "anytime"
	}
}

// Task is a to-do, project, or heading. IDs are opaque strings minted by
// Things; this system never generates them.
type Task struct {
	UUID      string
	Title     string
	Type      TaskType
	Status    Status
	Start     Start
	StartDate *time.Time // scheduled date, nil if unscheduled
	Deadline  *time.Time
	StopDate  *time.Time // completion/cancellation timestamp
	Created   time.Time
	Modified  time.Time
	Notes     string
	ProjectID string // parent project, "" if none
	AreaID    string // parent area, "" if none
	HeadingID string // heading within the parent project, "" if none
	Trashed   bool
	Tags      []string // tag names, deduplicated, order-irrelevant
	Checklist []ChecklistItem
}

// ChecklistItem exists only attached to a task; it has no identity beyond
// its position.
type ChecklistItem struct {
	Title string
	Done  bool
}

// Area is a top-level category. Areas carry no scheduling field.
type Area struct {
	UUID  string
	Title string
}

// Tag is a flat, case-sensitive label.
type Tag struct {
	UUID     string
	Title    string
	Shortcut string
}
