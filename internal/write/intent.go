package write

// Op names a mutation against the Things app.
type Op int

const (
	OpCreateTodo Op = iota
	OpCreateProject
	OpUpdateTodo
	OpUpdateProject
	OpBulkImport
)

func (o Op) String() string {
	switch o {
	case OpCreateTodo:
		return "create-todo"
	case OpCreateProject:
		return "create-project"
	case OpUpdateTodo:
		return "update-todo"
	case OpUpdateProject:
		return "update-project"
	case OpBulkImport:
		return "bulk-import"
	}
	return "unknown"
}

// IsUpdate reports whether the op mutates an existing item. Updates over
// the URL-scheme channel require the pre-provisioned auth token.
func (o Op) IsUpdate() bool { return o == OpUpdateTodo || o == OpUpdateProject }

// Intent is one mutation request. Zero-valued fields are "leave alone" for
// updates and "unset" for creates.
type Intent struct {
	Op       Op
	TargetID string // update target

	Title    string
	Notes    *string // nil leaves notes alone; pointer because "" clears
	When     string  // today, tomorrow, evening, anytime, someday, or YYYY-MM-DD
	Deadline string  // YYYY-MM-DD
	Tags     []string

	// Destination list. ID takes precedence over title.
	ListID    string
	ListTitle string
	HeadingID string
	Heading   string

	// AreaID/AreaTitle apply to projects.
	AreaID    string
	AreaTitle string

	Completed *bool
	Canceled  *bool

	// ChecklistItems force the fallback channel: the scripting bridge
	// cannot express checklist rows.
	ChecklistItems []string

	// Todos are initial child todos for a new project.
	Todos []string

	// Bulk payload for OpBulkImport.
	BulkItems []BulkItem
	Reveal    bool
}

// BulkItem is one element of the Things JSON import format.
type BulkItem struct {
	Type       string         `json:"type"` // to-do, project, heading
	Operation  string         `json:"operation,omitempty"`
	Attributes map[string]any `json:"attributes"`
}

// RequiresFallback reports whether the intent cannot go through the
// scripting bridge at all.
func (in Intent) RequiresFallback() bool {
	return in.Op == OpBulkImport || len(in.ChecklistItems) > 0
}

// Channel tags which write mechanism produced a result.
type Channel int

const (
	ChannelPrimary  Channel = iota // scripting bridge, synchronous ids
	ChannelFallback                // URL scheme, fire-and-forget
)

func (c Channel) String() string {
	if c == ChannelFallback {
		return "url-scheme"
	}
	return "applescript"
}

// Result is the outcome of one coordinated write. UUID may be empty when
// the fallback channel was used and re-resolution failed; Channel always
// records which mechanism applied the mutation.
type Result struct {
	UUID    string
	Channel Channel
	OK      bool
}
