package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/piersdd/things-3-mcp/internal/format"
	"github.com/piersdd/things-3-mcp/internal/resolve"
	"github.com/piersdd/things-3-mcp/internal/sample"
	"github.com/piersdd/things-3-mcp/internal/store"
	"github.com/piersdd/things-3-mcp/internal/things"
)

// enrich runs one batch-resolution pass over the tasks about to be
// rendered. Scoped to the single invocation and discarded afterwards.
func (s *Server) enrich(ctx context.Context, tasks []things.Task, counts bool) (resolve.Batch, error) {
	return s.resolver.Resolve(ctx, tasks, resolve.Options{Counts: counts})
}

// activeView fetches a bucket view and strips tasks that inherit Someday
// from their parent project, matching the Things UI.
func (s *Server) activeView(ctx context.Context, fetch func(context.Context) ([]things.Task, error)) ([]things.Task, error) {
	tasks, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	sctx, err := s.store.SomedayContext(ctx)
	if err != nil {
		return nil, err
	}
	return things.FilterInherited(tasks, sctx), nil
}

func (s *Server) renderTodoList(ctx context.Context, req mcp.CallToolRequest, tasks []things.Task) (*mcp.CallToolResult, error) {
	concise, limit, _ := listParams(req)
	batch, err := s.enrich(ctx, tasks, false)
	if err != nil {
		return errResult(err), nil
	}
	return textResult(format.TodoList(tasks, format.ListOptions{Concise: concise, Limit: limit}, batch)), nil
}

// ---------------------------------------------------------------------------
// List view tools
// ---------------------------------------------------------------------------

func (s *Server) handleGetInbox(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tasks, err := s.store.Inbox(ctx)
	if err != nil {
		return errResult(err), nil
	}
	return s.renderTodoList(ctx, req, tasks)
}

func (s *Server) handleGetToday(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tasks, err := s.activeView(ctx, s.store.Today)
	if err != nil {
		return errResult(err), nil
	}
	return s.renderTodoList(ctx, req, tasks)
}

func (s *Server) handleGetUpcoming(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tasks, err := s.activeView(ctx, s.store.Upcoming)
	if err != nil {
		return errResult(err), nil
	}
	return s.renderTodoList(ctx, req, tasks)
}

func (s *Server) handleGetAnytime(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tasks, err := s.activeView(ctx, s.store.Anytime)
	if err != nil {
		return errResult(err), nil
	}
	return s.renderTodoList(ctx, req, tasks)
}

func (s *Server) handleGetSomeday(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tasks, err := s.store.Someday(ctx)
	if err != nil {
		return errResult(err), nil
	}
	sctx, err := s.store.SomedayContext(ctx)
	if err != nil {
		return errResult(err), nil
	}
	// Tasks inside Someday projects are stored as Anytime; pull them in.
	anytime, err := s.store.Anytime(ctx)
	if err != nil {
		return errResult(err), nil
	}
	tasks = things.AugmentSomeday(tasks, anytime, sctx)
	return s.renderTodoList(ctx, req, tasks)
}

func (s *Server) handleGetLogbook(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	period := req.GetString("period", "7d")
	d, err := store.ParsePeriod(period)
	if err != nil {
		return errResult(err), nil
	}
	tasks, err := s.store.Logbook(ctx, time.Now().Add(-d))
	if err != nil {
		return errResult(err), nil
	}
	return s.renderTodoList(ctx, req, tasks)
}

func (s *Server) handleGetTrash(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tasks, err := s.store.Trash(ctx)
	if err != nil {
		return errResult(err), nil
	}
	return s.renderTodoList(ctx, req, tasks)
}

func (s *Server) handleGetDeadlines(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tasks, err := s.store.Deadlines(ctx)
	if err != nil {
		return errResult(err), nil
	}
	return s.renderTodoList(ctx, req, tasks)
}

// ---------------------------------------------------------------------------
// Random sampling tools
// ---------------------------------------------------------------------------

func (s *Server) renderSample(ctx context.Context, req mcp.CallToolRequest, tasks []things.Task, kind string) (*mcp.CallToolResult, error) {
	count := req.GetInt("count", DefaultSampleCount)
	sampled := sample.Random(tasks, count)
	batch, err := s.enrich(ctx, sampled, false)
	if err != nil {
		return errResult(err), nil
	}
	out := sample.Header(len(sampled), len(tasks), kind)
	for _, t := range sampled {
		out += "\n" + format.TodoConcise(t, batch)
	}
	return textResult(out), nil
}

func (s *Server) handleRandomInbox(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tasks, err := s.store.Inbox(ctx)
	if err != nil {
		return errResult(err), nil
	}
	return s.renderSample(ctx, req, tasks, "inbox items")
}

func (s *Server) handleRandomToday(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tasks, err := s.activeView(ctx, s.store.Today)
	if err != nil {
		return errResult(err), nil
	}
	return s.renderSample(ctx, req, tasks, "today items")
}

func (s *Server) handleRandomAnytime(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tasks, err := s.activeView(ctx, s.store.Anytime)
	if err != nil {
		return errResult(err), nil
	}
	return s.renderSample(ctx, req, tasks, "anytime items")
}

func (s *Server) handleRandomTodos(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tasks, err := s.store.Todos(ctx, req.GetString("project_uuid", ""))
	if err != nil {
		return errResult(err), nil
	}
	return s.renderSample(ctx, req, tasks, "todos")
}

// ---------------------------------------------------------------------------
// Entity view tools
// ---------------------------------------------------------------------------

func (s *Server) handleGetTodos(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tasks, err := s.store.Todos(ctx, req.GetString("project_uuid", ""))
	if err != nil {
		return errResult(err), nil
	}
	return s.renderTodoList(ctx, req, tasks)
}

func (s *Server) handleGetProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	concise, limit, _ := listParams(req)
	includeItems := req.GetBool("include_items", false)
	if includeItems {
		concise = false
	}
	projects, err := s.store.Projects(ctx)
	if err != nil {
		return errResult(err), nil
	}
	batch, err := s.enrich(ctx, projects, concise)
	if err != nil {
		return errResult(err), nil
	}
	opts := format.ListOptions{Concise: concise, Limit: limit}
	if includeItems {
		todos, err := s.store.Todos(ctx, "")
		if err != nil {
			return errResult(err), nil
		}
		opts.Items = groupByProject(todos)
	}
	return textResult(format.ProjectList(projects, opts, batch)), nil
}

func groupByProject(todos []things.Task) map[string][]things.Task {
	m := make(map[string][]things.Task)
	for _, t := range todos {
		if t.ProjectID != "" {
			m[t.ProjectID] = append(m[t.ProjectID], t)
		}
	}
	return m
}

func groupByArea(tasks []things.Task) map[string][]things.Task {
	m := make(map[string][]things.Task)
	for _, t := range tasks {
		if t.AreaID != "" {
			m[t.AreaID] = append(m[t.AreaID], t)
		}
	}
	return m
}

func (s *Server) handleGetAreas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	concise, limit, _ := listParams(req)
	areas, err := s.store.Areas(ctx)
	if err != nil {
		return errResult(err), nil
	}
	total := len(areas)
	if limit > 0 && total > limit {
		areas = areas[:limit]
	}
	if len(areas) == 0 {
		return textResult("No areas found."), nil
	}
	var projectsByArea, todosByArea map[string][]things.Task
	if !concise {
		projects, err := s.store.Projects(ctx)
		if err != nil {
			return errResult(err), nil
		}
		todos, err := s.store.Todos(ctx, "")
		if err != nil {
			return errResult(err), nil
		}
		projectsByArea = groupByArea(projects)
		todosByArea = groupByArea(todos)
	}
	out := ""
	for i, a := range areas {
		if i > 0 {
			out += "\n"
		}
		if concise {
			out += format.AreaConcise(a)
		} else {
			out += format.AreaDetailed(a, projectsByArea[a.UUID], todosByArea[a.UUID])
		}
	}
	if total > len(areas) {
		out += fmt.Sprintf("\n… %d more (use limit= to see more)", total-len(areas))
	}
	return textResult(out), nil
}

func (s *Server) handleGetTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, limit, _ := listParams(req)
	tags, err := s.store.TagList(ctx)
	if err != nil {
		return errResult(err), nil
	}
	total := len(tags)
	if limit > 0 && total > limit {
		tags = tags[:limit]
	}
	if len(tags) == 0 {
		return textResult("No tags found."), nil
	}
	out := ""
	for i, t := range tags {
		if i > 0 {
			out += "\n"
		}
		out += format.TagConcise(t)
	}
	if total > len(tags) {
		out += fmt.Sprintf("\n… %d more (use limit= to see more)", total-len(tags))
	}
	return textResult(out), nil
}

func (s *Server) handleGetTaggedItems(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tag, err := req.RequireString("tag")
	if err != nil {
		return errResult(errors.New("tag is required")), nil
	}
	tasks, err := s.store.TaggedTodos(ctx, tag)
	if err != nil {
		return errResult(err), nil
	}
	return s.renderTodoList(ctx, req, tasks)
}

// ---------------------------------------------------------------------------
// Search and detail tools
// ---------------------------------------------------------------------------

func (s *Server) handleSearchTodos(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return errResult(errors.New("query is required")), nil
	}
	tasks, err := s.store.Search(ctx, query)
	if err != nil {
		return errResult(err), nil
	}
	return s.renderTodoList(ctx, req, tasks)
}

func (s *Server) handleSearchAdvanced(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := store.Filter{
		Status:    req.GetString("status", ""),
		StartDate: req.GetString("start_date", ""),
		Deadline:  req.GetString("deadline", ""),
		Tag:       req.GetString("tag", ""),
		AreaUUID:  req.GetString("area", ""),
		Type:      req.GetString("item_type", ""),
		Last:      req.GetString("last", ""),
	}
	tasks, err := s.store.SearchAdvanced(ctx, filter)
	if err != nil {
		return errResult(err), nil
	}
	return s.renderTodoList(ctx, req, tasks)
}

func (s *Server) handleGetRecent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	period, err := req.RequireString("period")
	if err != nil {
		return errResult(errors.New("period is required")), nil
	}
	d, err := store.ParsePeriod(period)
	if err != nil {
		return errResult(err), nil
	}
	tasks, err := s.store.Recent(ctx, time.Now().Add(-d))
	if err != nil {
		return errResult(err), nil
	}
	return s.renderTodoList(ctx, req, tasks)
}

var builtinLists = map[string]bool{
	"inbox": true, "today": true, "upcoming": true, "anytime": true,
	"someday": true, "logbook": true, "trash": true,
}

func (s *Server) handleShowItem(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	uuid, err := req.RequireString("uuid")
	if err != nil {
		return errResult(errors.New("uuid is required")), nil
	}
	if builtinLists[uuid] {
		return s.builtinList(ctx, req, uuid)
	}

	task, err := s.store.Get(ctx, uuid)
	if errors.Is(err, store.ErrNotFound) {
		// Missing single items are an explicit empty result, not an error.
		return textResult(fmt.Sprintf("No item found with UUID: %s", uuid)), nil
	}
	if err != nil {
		return errResult(err), nil
	}

	batch, err := s.enrich(ctx, []things.Task{task}, false)
	if err != nil {
		return errResult(err), nil
	}
	if !req.GetBool("include_details", true) {
		if task.Type == things.TypeProject {
			return textResult(format.ProjectConcise(task, batch)), nil
		}
		return textResult(format.TodoConcise(task, batch)), nil
	}
	if task.Type == things.TypeProject {
		items, err := s.store.Todos(ctx, task.UUID)
		if err != nil {
			return errResult(err), nil
		}
		return textResult(format.ProjectDetailed(task, batch, items)), nil
	}
	sctx, err := s.store.SomedayContext(ctx)
	if err != nil {
		return errResult(err), nil
	}
	bucket := things.Classify(task, sctx, time.Now())
	return textResult(format.TodoDetailed(task, batch) + "\nList: " + bucket.String()), nil
}

func (s *Server) builtinList(ctx context.Context, req mcp.CallToolRequest, name string) (*mcp.CallToolResult, error) {
	switch name {
	case "inbox":
		return s.handleGetInbox(ctx, req)
	case "today":
		return s.handleGetToday(ctx, req)
	case "upcoming":
		return s.handleGetUpcoming(ctx, req)
	case "anytime":
		return s.handleGetAnytime(ctx, req)
	case "someday":
		return s.handleGetSomeday(ctx, req)
	case "logbook":
		return s.handleGetLogbook(ctx, req)
	default:
		return s.handleGetTrash(ctx, req)
	}
}

// ---------------------------------------------------------------------------
// Summary tool
// ---------------------------------------------------------------------------

func (s *Server) handleGetSummary(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sctx, err := s.store.SomedayContext(ctx)
	if err != nil {
		return errResult(err), nil
	}

	var sum sample.Summary
	count := func(fetch func(context.Context) ([]things.Task, error), filtered bool) (int, error) {
		tasks, err := fetch(ctx)
		if err != nil {
			return 0, err
		}
		if filtered {
			tasks = things.FilterInherited(tasks, sctx)
		}
		return len(tasks), nil
	}

	if sum.Inbox, err = count(s.store.Inbox, false); err != nil {
		return errResult(err), nil
	}
	if sum.Today, err = count(s.store.Today, true); err != nil {
		return errResult(err), nil
	}
	if sum.Upcoming, err = count(s.store.Upcoming, true); err != nil {
		return errResult(err), nil
	}
	anytime, err := s.store.Anytime(ctx)
	if err != nil {
		return errResult(err), nil
	}
	sum.Anytime = len(things.FilterInherited(anytime, sctx))
	someday, err := s.store.Someday(ctx)
	if err != nil {
		return errResult(err), nil
	}
	sum.Someday = len(things.AugmentSomeday(someday, anytime, sctx))
	if sum.Projects, err = count(s.store.Projects, false); err != nil {
		return errResult(err), nil
	}
	areas, err := s.store.Areas(ctx)
	if err != nil {
		return errResult(err), nil
	}
	sum.Areas = len(areas)

	deadlines, err := s.store.Deadlines(ctx)
	if err != nil {
		return errResult(err), nil
	}
	sum.DueSoon, sum.DueTotal = sample.NearestDeadlines(deadlines, time.Now(), sample.DueSoonWindow, sample.MaxDueSoon)

	return textResult(sum.Render()), nil
}
