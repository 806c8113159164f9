package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/piersdd/things-3-mcp/internal/store"
	"github.com/piersdd/things-3-mcp/internal/things"
	"github.com/piersdd/things-3-mcp/internal/write"
)

// commaList splits the tool convention for multi-valued string params
// ("a, b, c") into trimmed elements, dropping empties.
func commaList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// triState parses an optional boolean param passed as a string, so absent
// and false stay distinguishable.
func triState(req mcp.CallToolRequest, key string) (*bool, error) {
	raw := req.GetString(key, "")
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, errors.New(key + " must be true or false")
	}
	return &v, nil
}

func notesParam(req mcp.CallToolRequest) *string {
	if _, ok := req.GetArguments()["notes"]; !ok {
		return nil
	}
	n := req.GetString("notes", "")
	return &n
}

func (s *Server) writeResult(res write.Result) (*mcp.CallToolResult, error) {
	return jsonResult(map[string]any{
		"success": res.OK,
		"uuid":    res.UUID,
		"channel": res.Channel.String(),
	}), nil
}

// ---------------------------------------------------------------------------
// Create tools
// ---------------------------------------------------------------------------

func (s *Server) handleAddTodo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return errResult(errors.New("title is required")), nil
	}
	in := write.Intent{
		Op:             write.OpCreateTodo,
		Title:          title,
		Notes:          notesParam(req),
		When:           req.GetString("when", ""),
		Deadline:       req.GetString("deadline", ""),
		Tags:           commaList(req.GetString("tags", "")),
		ChecklistItems: commaList(req.GetString("checklist_items", "")),
		ListID:         req.GetString("list_id", ""),
		ListTitle:      req.GetString("list_title", ""),
		HeadingID:      req.GetString("heading_id", ""),
		Heading:        req.GetString("heading", ""),
	}
	res, err := s.coord.Execute(ctx, in)
	if err != nil {
		return errResult(err), nil
	}
	return s.writeResult(res)
}

func (s *Server) handleAddProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return errResult(errors.New("title is required")), nil
	}
	in := write.Intent{
		Op:        write.OpCreateProject,
		Title:     title,
		Notes:     notesParam(req),
		When:      req.GetString("when", ""),
		Deadline:  req.GetString("deadline", ""),
		Tags:      commaList(req.GetString("tags", "")),
		AreaID:    req.GetString("area_id", ""),
		AreaTitle: req.GetString("area_title", ""),
		Todos:     commaList(req.GetString("todos", "")),
	}
	res, err := s.coord.Execute(ctx, in)
	if err != nil {
		return errResult(err), nil
	}
	return s.writeResult(res)
}

// ---------------------------------------------------------------------------
// Update tools
// ---------------------------------------------------------------------------

func (s *Server) updateIntent(req mcp.CallToolRequest, op write.Op) (write.Intent, error) {
	id, err := req.RequireString("uuid")
	if err != nil {
		return write.Intent{}, errors.New("uuid is required")
	}
	completed, err := triState(req, "completed")
	if err != nil {
		return write.Intent{}, err
	}
	canceled, err := triState(req, "canceled")
	if err != nil {
		return write.Intent{}, err
	}
	return write.Intent{
		Op:        op,
		TargetID:  id,
		Title:     req.GetString("title", ""),
		Notes:     notesParam(req),
		When:      req.GetString("when", ""),
		Deadline:  req.GetString("deadline", ""),
		Tags:      commaList(req.GetString("tags", "")),
		Completed: completed,
		Canceled:  canceled,
	}, nil
}

func (s *Server) handleUpdateTodo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in, err := s.updateIntent(req, write.OpUpdateTodo)
	if err != nil {
		return errResult(err), nil
	}
	in.ChecklistItems = commaList(req.GetString("checklist_items", ""))
	in.ListID = req.GetString("list_id", "")
	in.ListTitle = req.GetString("list_name", "")
	res, err := s.coord.Execute(ctx, in)
	if err != nil {
		return errResult(err), nil
	}
	return s.writeResult(res)
}

func (s *Server) handleUpdateProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in, err := s.updateIntent(req, write.OpUpdateProject)
	if err != nil {
		return errResult(err), nil
	}
	in.AreaID = req.GetString("area_id", "")
	in.AreaTitle = req.GetString("area_title", "")
	res, err := s.coord.Execute(ctx, in)
	if err != nil {
		return errResult(err), nil
	}
	return s.writeResult(res)
}

// ---------------------------------------------------------------------------
// Bulk import / export
// ---------------------------------------------------------------------------

func (s *Server) handleJSONImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("data")
	if err != nil {
		return errResult(errors.New("data is required")), nil
	}
	var items []write.BulkItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return errResult(errors.New("data must be a JSON array of Things import items")), nil
	}
	if len(items) == 0 {
		return errResult(errors.New("data contains no items")), nil
	}
	in := write.Intent{
		Op:        write.OpBulkImport,
		BulkItems: items,
		Reveal:    req.GetBool("reveal", false),
	}
	res, err := s.coord.Execute(ctx, in)
	if err != nil {
		return errResult(err), nil
	}
	return jsonResult(map[string]any{
		"success": res.OK,
		"count":   len(items),
		"channel": res.Channel.String(),
	}), nil
}

type exportTodo struct {
	UUID      string   `json:"uuid"`
	Title     string   `json:"title"`
	Status    string   `json:"status"`
	Notes     string   `json:"notes,omitempty"`
	StartDate string   `json:"start_date,omitempty"`
	Deadline  string   `json:"deadline,omitempty"`
	Project   string   `json:"project,omitempty"`
	Area      string   `json:"area,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

func (s *Server) handleJSONExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 50)
	var (
		tasks []things.Task
		err   error
	)
	if project := req.GetString("project_uuid", ""); project != "" {
		tasks, err = s.store.Todos(ctx, project)
	} else {
		tasks, err = s.store.SearchAdvanced(ctx, store.Filter{})
	}
	if err != nil {
		return errResult(err), nil
	}
	if limit > 0 && len(tasks) > limit {
		tasks = tasks[:limit]
	}

	batch, err := s.enrich(ctx, tasks, false)
	if err != nil {
		return errResult(err), nil
	}
	out := make([]exportTodo, 0, len(tasks))
	for _, t := range tasks {
		e := exportTodo{
			UUID:   t.UUID,
			Title:  t.Title,
			Status: t.Status.String(),
			Notes:  t.Notes,
			Tags:   t.Tags,
		}
		if t.StartDate != nil {
			e.StartDate = t.StartDate.Format("2006-01-02")
		}
		if t.Deadline != nil {
			e.Deadline = t.Deadline.Format("2006-01-02")
		}
		if t.ProjectID != "" {
			e.Project = batch.ProjectName(t.ProjectID)
		}
		if t.AreaID != "" {
			e.Area = batch.AreaName(t.AreaID)
		}
		out = append(out, e)
	}
	return jsonResult(out), nil
}

// ---------------------------------------------------------------------------
// Navigation tools
// ---------------------------------------------------------------------------

func (s *Server) handleShowInThings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("item_id")
	if err != nil {
		return errResult(errors.New("item_id is required")), nil
	}
	if err := s.bridge.Show(ctx, id); err != nil {
		s.log.Warn("scripting bridge show failed, using url scheme", "item_id", id, "error", err)
		if err := s.urls.ShowURL(ctx, id); err != nil {
			return errResult(err), nil
		}
	}
	return textResult("Revealed " + id + " in Things."), nil
}

func (s *Server) handleSearchInThings(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return errResult(errors.New("query is required")), nil
	}
	if err := s.urls.SearchURL(ctx, query); err != nil {
		return errResult(err), nil
	}
	return textResult("Opened Things search for: " + query), nil
}
