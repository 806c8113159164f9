package write

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os/exec"
	"strings"
	"time"
)

// URLScheme is the fallback write channel: things:/// URLs handed to macOS.
// Dispatch is fire-and-forget; Things never reports back what it created,
// which is why the Coordinator re-resolves identifiers afterwards.
type URLScheme struct {
	// Token is the Things URL-scheme auth token. Update commands fail
	// inside Things without it.
	Token string
	log   *slog.Logger

	// open is swapped in tests to capture the URL instead of launching it.
	open func(ctx context.Context, u string) error
}

func NewURLScheme(token string, logger *slog.Logger) *URLScheme {
	if logger == nil {
		logger = slog.Default()
	}
	s := &URLScheme{Token: token, log: logger}
	s.open = openURL
	return s
}

// Dispatch implements Fallback.
func (s *URLScheme) Dispatch(ctx context.Context, in Intent) error {
	u, err := s.BuildURL(in)
	if err != nil {
		return err
	}
	s.log.Debug("dispatching url scheme", "op", in.Op.String())
	return s.open(ctx, u)
}

// BuildURL constructs the things:/// URL for an intent without executing it.
func (s *URLScheme) BuildURL(in Intent) (string, error) {
	v := url.Values{}
	set := func(key, val string) {
		if val != "" {
			v.Set(key, val)
		}
	}

	switch in.Op {
	case OpCreateTodo:
		set("title", in.Title)
		if in.Notes != nil {
			set("notes", *in.Notes)
		}
		set("when", in.When)
		set("deadline", in.Deadline)
		set("tags", strings.Join(in.Tags, ","))
		set("checklist-items", strings.Join(in.ChecklistItems, "\n"))
		set("list-id", in.ListID)
		set("list", in.ListTitle)
		set("heading-id", in.HeadingID)
		set("heading", in.Heading)
		return s.construct("add", v), nil

	case OpCreateProject:
		set("title", in.Title)
		if in.Notes != nil {
			set("notes", *in.Notes)
		}
		set("when", in.When)
		set("deadline", in.Deadline)
		set("tags", strings.Join(in.Tags, ","))
		set("area-id", in.AreaID)
		set("area", in.AreaTitle)
		set("to-dos", strings.Join(in.Todos, "\n"))
		return s.construct("add-project", v), nil

	case OpUpdateTodo, OpUpdateProject:
		set("id", in.TargetID)
		set("title", in.Title)
		if in.Notes != nil {
			set("notes", *in.Notes)
		}
		set("when", in.When)
		set("deadline", in.Deadline)
		set("tags", strings.Join(in.Tags, ","))
		if in.Completed != nil {
			v.Set("completed", fmt.Sprintf("%t", *in.Completed))
		}
		if in.Canceled != nil {
			v.Set("canceled", fmt.Sprintf("%t", *in.Canceled))
		}
		if in.Op == OpUpdateProject {
			set("area-id", in.AreaID)
			set("area", in.AreaTitle)
			return s.construct("update-project", v), nil
		}
		set("checklist-items", strings.Join(in.ChecklistItems, "\n"))
		set("list-id", in.ListID)
		set("list", in.ListTitle)
		set("heading-id", in.HeadingID)
		set("heading", in.Heading)
		return s.construct("update", v), nil

	case OpBulkImport:
		data, err := json.Marshal(in.BulkItems)
		if err != nil {
			return "", fmt.Errorf("encode bulk payload: %w", err)
		}
		v.Set("data", string(data))
		if in.Reveal {
			v.Set("reveal", "true")
		}
		for _, item := range in.BulkItems {
			if item.Operation == "update" {
				s.attachToken(v)
				break
			}
		}
		return "things:///json?" + v.Encode(), nil
	}
	return "", fmt.Errorf("url scheme cannot express %s", in.Op)
}

// construct assembles the final URL, attaching the auth token to update
// commands.
func (s *URLScheme) construct(command string, v url.Values) string {
	if command == "update" || command == "update-project" {
		s.attachToken(v)
	}
	return "things:///" + command + "?" + v.Encode()
}

func (s *URLScheme) attachToken(v url.Values) {
	if s.Token != "" && v.Get("auth-token") == "" {
		v.Set("auth-token", s.Token)
	}
}

// ShowURL navigates the Things window to an item or built-in list.
func (s *URLScheme) ShowURL(ctx context.Context, itemID string) error {
	v := url.Values{}
	v.Set("id", itemID)
	return s.open(ctx, "things:///show?"+v.Encode())
}

// SearchURL opens the Things search UI with a query.
func (s *URLScheme) SearchURL(ctx context.Context, query string) error {
	v := url.Values{}
	v.Set("query", query)
	return s.open(ctx, "things:///search?"+v.Encode())
}

// openURL launches a things:/// URL without stealing focus, falling back
// to plain open.
func openURL(ctx context.Context, u string) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	script := fmt.Sprintf(`open location "%s"`, u)
	if err := exec.CommandContext(ctx, "osascript", "-e", script).Run(); err == nil {
		return nil
	}
	if err := exec.CommandContext(ctx, "open", u).Run(); err != nil {
		return fmt.Errorf("%w: open url failed: %v", ErrExternalUnavailable, err)
	}
	return nil
}
