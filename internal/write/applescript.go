package write

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultBridgeTimeout bounds one osascript invocation. A hang in Things
// blocks only the single request holding this call.
const DefaultBridgeTimeout = 10 * time.Second

// Bridge is the primary write channel: it drives Things through its
// AppleScript interface via osascript. Scripts are written to a temp file
// before execution so titles and notes never need shell escaping.
type Bridge struct {
	Timeout time.Duration
	log     *slog.Logger

	// run is swapped in tests to avoid invoking osascript.
	run func(ctx context.Context, script string, timeout time.Duration) (string, error)
}

func NewBridge(logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Bridge{Timeout: DefaultBridgeTimeout, log: logger}
	b.run = runOsascript
	return b
}

// Apply implements Primary.
func (b *Bridge) Apply(ctx context.Context, in Intent) (string, error) {
	var script string
	switch in.Op {
	case OpCreateTodo:
		script = addTodoScript(in)
	case OpCreateProject:
		script = addProjectScript(in)
	case OpUpdateTodo:
		script = updateScript(in, "to do")
	case OpUpdateProject:
		script = updateScript(in, "project")
	default:
		return "", fmt.Errorf("applescript channel cannot express %s", in.Op)
	}

	out, err := b.run(ctx, script, b.Timeout)
	if err != nil {
		return "", err
	}
	if strings.HasPrefix(out, "Error:") {
		return "", fmt.Errorf("applescript: %s", strings.TrimSpace(strings.TrimPrefix(out, "Error:")))
	}
	if in.Op.IsUpdate() {
		return in.TargetID, nil
	}
	return out, nil
}

// Ready reports whether Things is running and answering AppleScript.
func (b *Bridge) Ready(ctx context.Context) bool {
	script := `tell application "System Events"
	set isRunning to (exists process "Things3")
end tell
if isRunning then
	tell application "Things3"
		return name
	end tell
else
	return "not running"
end if`
	out, err := b.run(ctx, script, 5*time.Second)
	return err == nil && out != "not running"
}

// Show reveals an item in the Things window, trying it as a to-do first
// and then as a project.
func (b *Bridge) Show(ctx context.Context, itemID string) error {
	for _, kind := range []string{"to do", "project"} {
		script := fmt.Sprintf(`tell application "Things3"
	show %s id %s
	activate
end tell`, kind, escapeString(itemID))
		if _, err := b.run(ctx, script, b.Timeout); err == nil {
			return nil
		}
	}
	return fmt.Errorf("could not reveal %s in Things", itemID)
}

func runOsascript(ctx context.Context, script string, timeout time.Duration) (string, error) {
	path := filepath.Join(os.TempDir(), "things-"+uuid.NewString()+".applescript")
	if err := os.WriteFile(path, []byte(script), 0o600); err != nil {
		return "", fmt.Errorf("write script: %w", err)
	}
	defer os.Remove(path)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, "osascript", path).Output()
	if ctx.Err() == context.DeadlineExceeded {
		return "", fmt.Errorf("%w: applescript timed out", ErrExternalUnavailable)
	}
	if err != nil {
		var stderr string
		if ee, ok := err.(*exec.ExitError); ok {
			stderr = strings.TrimSpace(string(ee.Stderr))
		}
		if stderr == "" {
			stderr = err.Error()
		}
		return "", fmt.Errorf("%w: %s", ErrExternalUnavailable, stderr)
	}
	return strings.TrimSpace(string(out)), nil
}

// escapeString quotes s for AppleScript. AppleScript has no backslash
// escapes, so embedded double quotes become string concatenation with
// ASCII character 34.
func escapeString(s string) string {
	if s == "" {
		return `""`
	}
	parts := strings.Split(s, `"`)
	return `"` + strings.Join(parts, `" & (ASCII character 34) & "`) + `"`
}

func daysFromToday(dateStr string) (int, error) {
	target, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return 0, err
	}
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(target.Sub(today).Hours() / 24), nil
}

// whenLines schedules varName according to a when keyword or date.
func whenLines(varName, when string) []string {
	switch w := strings.ToLower(strings.TrimSpace(when)); w {
	case "today":
		return []string{fmt.Sprintf(`	move %s to list "Today"`, varName)}
	case "anytime":
		return []string{fmt.Sprintf(`	move %s to list "Anytime"`, varName)}
	case "someday":
		return []string{fmt.Sprintf(`	move %s to list "Someday"`, varName)}
	case "tomorrow", "evening":
		return []string{fmt.Sprintf(`	schedule %s for "%s"`, varName, w)}
	default:
		days, err := daysFromToday(w)
		if err != nil {
			return nil
		}
		if days == 0 {
			return []string{fmt.Sprintf(`	move %s to list "Today"`, varName)}
		}
		return []string{fmt.Sprintf(`	schedule %s for (current date) + %d * days`, varName, days)}
	}
}

func deadlineLines(varName, deadline string) []string {
	days, err := daysFromToday(deadline)
	if err != nil {
		return nil
	}
	return []string{fmt.Sprintf(`	set due date of %s to (current date) + %d * days`, varName, days)}
}

func tagLines(varName string, tags []string) []string {
	var lines []string
	for _, tag := range tags {
		lines = append(lines,
			fmt.Sprintf(`	set tagName to %s`, escapeString(tag)),
			`	set newTag to make new tag with properties {name:tagName}`,
			fmt.Sprintf(`	add newTag to tags of %s`, varName),
		)
	}
	return lines
}

// listAssignmentLines moves varName into a project or area identified by id
// or title. Projects are tried first, then areas.
func listAssignmentLines(varName, listID, listTitle string) []string {
	if listID == "" && listTitle == "" {
		return nil
	}
	target := escapeString(listID)
	byField := "id"
	if listID == "" {
		target = escapeString(listTitle)
		byField = "name"
	}
	return []string{
		`	try`,
		fmt.Sprintf(`		set targetProject to first project whose %s is %s`, byField, target),
		fmt.Sprintf(`		move %s to targetProject`, varName),
		`	on error`,
		`		try`,
		fmt.Sprintf(`			set targetArea to first area whose %s is %s`, byField, target),
		fmt.Sprintf(`			move %s to targetArea`, varName),
		`		end try`,
		`	end try`,
	}
}

func areaAssignmentLines(varName, areaID, areaTitle string) []string {
	if areaID == "" && areaTitle == "" {
		return nil
	}
	target := escapeString(areaID)
	byField := "id"
	if areaID == "" {
		target = escapeString(areaTitle)
		byField = "name"
	}
	return []string{
		`	try`,
		fmt.Sprintf(`		set targetArea to first area whose %s is %s`, byField, target),
		fmt.Sprintf(`		move %s to targetArea`, varName),
		`	end try`,
	}
}

func addTodoScript(in Intent) string {
	props := []string{"name:" + escapeString(in.Title)}
	if in.Notes != nil && *in.Notes != "" {
		props = append(props, "notes:"+escapeString(*in.Notes))
	}
	lines := []string{
		`tell application "Things3"`,
		`	try`,
		fmt.Sprintf(`	set newTodo to make new to do with properties {%s}`, strings.Join(props, ", ")),
	}
	if in.When != "" {
		lines = append(lines, whenLines("newTodo", in.When)...)
	}
	if in.Deadline != "" {
		lines = append(lines, deadlineLines("newTodo", in.Deadline)...)
	}
	lines = append(lines, tagLines("newTodo", in.Tags)...)
	lines = append(lines, listAssignmentLines("newTodo", in.ListID, in.ListTitle)...)
	lines = append(lines,
		`	return id of newTodo`,
		`	on error errMsg`,
		`	return "Error: " & errMsg`,
		`	end try`,
		`end tell`,
	)
	return strings.Join(lines, "\n")
}

func addProjectScript(in Intent) string {
	props := []string{"name:" + escapeString(in.Title)}
	if in.Notes != nil && *in.Notes != "" {
		props = append(props, "notes:"+escapeString(*in.Notes))
	}
	lines := []string{
		`tell application "Things3"`,
		`	try`,
		fmt.Sprintf(`	set newProj to make new project with properties {%s}`, strings.Join(props, ", ")),
	}
	if in.When != "" {
		lines = append(lines, whenLines("newProj", in.When)...)
	}
	if in.Deadline != "" {
		lines = append(lines, deadlineLines("newProj", in.Deadline)...)
	}
	lines = append(lines, tagLines("newProj", in.Tags)...)
	lines = append(lines, areaAssignmentLines("newProj", in.AreaID, in.AreaTitle)...)
	for _, title := range in.Todos {
		lines = append(lines, fmt.Sprintf(
			`	make new to do with properties {name:%s} at beginning of to dos of newProj`,
			escapeString(title)))
	}
	lines = append(lines,
		`	return id of newProj`,
		`	on error errMsg`,
		`	return "Error: " & errMsg`,
		`	end try`,
		`end tell`,
	)
	return strings.Join(lines, "\n")
}

func updateScript(in Intent, kind string) string {
	varName := "theItem"
	lines := []string{
		`tell application "Things3"`,
		`	try`,
		fmt.Sprintf(`	set %s to %s id %s`, varName, kind, escapeString(in.TargetID)),
	}
	if in.Title != "" {
		lines = append(lines, fmt.Sprintf(`	set name of %s to %s`, varName, escapeString(in.Title)))
	}
	if in.Notes != nil {
		lines = append(lines, fmt.Sprintf(`	set notes of %s to %s`, varName, escapeString(*in.Notes)))
	}
	if in.When != "" {
		lines = append(lines, whenLines(varName, in.When)...)
	}
	if in.Deadline != "" {
		lines = append(lines, deadlineLines(varName, in.Deadline)...)
	}
	lines = append(lines, tagLines(varName, in.Tags)...)
	if in.Op == OpUpdateProject {
		lines = append(lines, areaAssignmentLines(varName, in.AreaID, in.AreaTitle)...)
	} else {
		lines = append(lines, listAssignmentLines(varName, in.ListID, in.ListTitle)...)
	}
	switch {
	case in.Completed != nil && *in.Completed:
		lines = append(lines, fmt.Sprintf(`	set status of %s to completed`, varName))
	case in.Canceled != nil && *in.Canceled:
		lines = append(lines, fmt.Sprintf(`	set status of %s to canceled`, varName))
	case (in.Completed != nil && !*in.Completed) || (in.Canceled != nil && !*in.Canceled):
		lines = append(lines, fmt.Sprintf(`	set status of %s to open`, varName))
	}
	lines = append(lines,
		`	return "OK"`,
		`	on error errMsg`,
		`	return "Error: " & errMsg`,
		`	end try`,
		`end tell`,
	)
	return strings.Join(lines, "\n")
}
