package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// listOpts are the arguments shared by every list-returning read tool.
func listOpts() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithBoolean("concise",
			mcp.Description("Return one-line summaries instead of full blocks (default true)")),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of items to return (default 10)")),
		mcp.WithBoolean("include_details",
			mcp.Description("Force the detailed multi-line format (default false)")),
	}
}

func readTool(name, desc string, extra ...mcp.ToolOption) mcp.Tool {
	opts := append([]mcp.ToolOption{mcp.WithDescription(desc)}, extra...)
	opts = append(opts, listOpts()...)
	return mcp.NewTool(name, opts...)
}

func sampleTool(name, desc string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(desc),
		mcp.WithNumber("count",
			mcp.Description("Number of random items to return (default 5)")),
	)
}

func (s *Server) defineTools() []server.ServerTool {
	return []server.ServerTool{
		// List views.
		{Tool: readTool("get_inbox", "Get todos from the Things inbox"), Handler: s.handleGetInbox},
		{Tool: readTool("get_today", "Get todos due today"), Handler: s.handleGetToday},
		{Tool: readTool("get_upcoming", "Get scheduled upcoming todos"), Handler: s.handleGetUpcoming},
		{Tool: readTool("get_anytime", "Get todos from the Anytime list"), Handler: s.handleGetAnytime},
		{Tool: readTool("get_someday", "Get todos from the Someday list, including todos inside Someday projects"), Handler: s.handleGetSomeday},
		{Tool: readTool("get_logbook", "Get completed and canceled todos from the logbook",
			mcp.WithString("period",
				mcp.Description("How far back to look, e.g. 3d, 2w, 1m, 1y (default 7d)"))), Handler: s.handleGetLogbook},
		{Tool: readTool("get_trash", "Get trashed todos"), Handler: s.handleGetTrash},
		{Tool: readTool("get_deadlines", "Get todos and projects with deadlines, soonest first"), Handler: s.handleGetDeadlines},

		// Random sampling.
		{Tool: sampleTool("get_random_inbox", "Get a random sample of inbox todos"), Handler: s.handleRandomInbox},
		{Tool: sampleTool("get_random_today", "Get a random sample of today's todos"), Handler: s.handleRandomToday},
		{Tool: sampleTool("get_random_anytime", "Get a random sample of Anytime todos"), Handler: s.handleRandomAnytime},
		{Tool: mcp.NewTool("get_random_todos",
			mcp.WithDescription("Get a random sample of open todos, optionally from one project"),
			mcp.WithString("project_uuid",
				mcp.Description("Restrict the sample to this project's todos")),
			mcp.WithNumber("count",
				mcp.Description("Number of random items to return (default 5)")),
		), Handler: s.handleRandomTodos},

		// Entity views.
		{Tool: readTool("get_todos", "Get open todos, optionally filtered by project",
			mcp.WithString("project_uuid",
				mcp.Description("Only return todos belonging to this project"))), Handler: s.handleGetTodos},
		{Tool: readTool("get_projects", "Get all active projects",
			mcp.WithBoolean("include_items",
				mcp.Description("Include each project's open todos"))), Handler: s.handleGetProjects},
		{Tool: readTool("get_areas", "Get all areas"), Handler: s.handleGetAreas},
		{Tool: readTool("get_tags", "Get all tags"), Handler: s.handleGetTags},
		{Tool: readTool("get_tagged_items", "Get open todos carrying a tag",
			mcp.WithString("tag",
				mcp.Description("Tag title to filter by"),
				mcp.Required())), Handler: s.handleGetTaggedItems},

		// Search.
		{Tool: readTool("search_todos", "Search todos by title or notes",
			mcp.WithString("query",
				mcp.Description("Text to search for"),
				mcp.Required())), Handler: s.handleSearchTodos},
		{Tool: readTool("search_advanced", "Search todos with structured filters",
			mcp.WithString("status",
				mcp.Description("Filter by status"),
				mcp.Enum("incomplete", "completed", "canceled")),
			mcp.WithString("start_date",
				mcp.Description("Start date filter, YYYY-MM-DD with optional <=, >=, <, > prefix")),
			mcp.WithString("deadline",
				mcp.Description("Deadline filter, YYYY-MM-DD with optional <=, >=, <, > prefix")),
			mcp.WithString("tag",
				mcp.Description("Filter by tag title")),
			mcp.WithString("area",
				mcp.Description("Filter by area UUID")),
			mcp.WithString("item_type",
				mcp.Description("Filter by item type"),
				mcp.Enum("to-do", "project", "heading")),
			mcp.WithString("last",
				mcp.Description("Only items created in the period, e.g. 3d, 1w, 2m"))), Handler: s.handleSearchAdvanced},
		{Tool: readTool("get_recent", "Get recently created items",
			mcp.WithString("period",
				mcp.Description("How far back to look, e.g. 3d, 2w, 1m, 1y"),
				mcp.Required())), Handler: s.handleGetRecent},

		// Detail and summary.
		{Tool: mcp.NewTool("show_item",
			mcp.WithDescription("Show one item by UUID (or UUID prefix), or a built-in list by name"),
			mcp.WithString("uuid",
				mcp.Description("Item UUID, UUID prefix, or one of: inbox, today, upcoming, anytime, someday, logbook, trash"),
				mcp.Required()),
			mcp.WithBoolean("include_details",
				mcp.Description("Return the detailed block for single items (default true)")),
			mcp.WithBoolean("concise",
				mcp.Description("One-line summaries when showing a built-in list")),
			mcp.WithNumber("limit",
				mcp.Description("Maximum items when showing a built-in list")),
		), Handler: s.handleShowItem},
		{Tool: mcp.NewTool("get_summary",
			mcp.WithDescription("Get a compact overview of all lists and near-term deadlines"),
		), Handler: s.handleGetSummary},

		// Writes.
		{Tool: mcp.NewTool("add_todo",
			mcp.WithDescription("Create a new todo in Things"),
			mcp.WithString("title",
				mcp.Description("Todo title"),
				mcp.Required()),
			mcp.WithString("notes", mcp.Description("Notes body")),
			mcp.WithString("when",
				mcp.Description("When to schedule: today, tomorrow, evening, anytime, someday, or YYYY-MM-DD")),
			mcp.WithString("deadline", mcp.Description("Deadline, YYYY-MM-DD")),
			mcp.WithString("tags", mcp.Description("Comma-separated tag titles")),
			mcp.WithString("checklist_items", mcp.Description("Comma-separated checklist items")),
			mcp.WithString("list_id", mcp.Description("UUID of the project or area to file into")),
			mcp.WithString("list_title", mcp.Description("Title of the project or area to file into")),
			mcp.WithString("heading_id", mcp.Description("UUID of the project heading to file under")),
			mcp.WithString("heading", mcp.Description("Title of the project heading to file under")),
		), Handler: s.handleAddTodo},
		{Tool: mcp.NewTool("add_project",
			mcp.WithDescription("Create a new project in Things"),
			mcp.WithString("title",
				mcp.Description("Project title"),
				mcp.Required()),
			mcp.WithString("notes", mcp.Description("Notes body")),
			mcp.WithString("when",
				mcp.Description("When to schedule: today, tomorrow, evening, anytime, someday, or YYYY-MM-DD")),
			mcp.WithString("deadline", mcp.Description("Deadline, YYYY-MM-DD")),
			mcp.WithString("tags", mcp.Description("Comma-separated tag titles")),
			mcp.WithString("area_id", mcp.Description("UUID of the area to file into")),
			mcp.WithString("area_title", mcp.Description("Title of the area to file into")),
			mcp.WithString("todos", mcp.Description("Comma-separated initial todos to create inside the project")),
		), Handler: s.handleAddProject},
		{Tool: mcp.NewTool("update_todo",
			mcp.WithDescription("Update an existing todo"),
			mcp.WithString("uuid",
				mcp.Description("UUID of the todo to update"),
				mcp.Required()),
			mcp.WithString("title", mcp.Description("New title")),
			mcp.WithString("notes", mcp.Description("New notes body, replaces existing notes")),
			mcp.WithString("when",
				mcp.Description("Reschedule: today, tomorrow, evening, anytime, someday, or YYYY-MM-DD")),
			mcp.WithString("deadline", mcp.Description("New deadline, YYYY-MM-DD")),
			mcp.WithString("tags", mcp.Description("Comma-separated tag titles, replaces existing tags")),
			mcp.WithString("checklist_items", mcp.Description("Comma-separated checklist items, replaces existing checklist")),
			mcp.WithString("list_id", mcp.Description("Move to a project or area by UUID")),
			mcp.WithString("list_name", mcp.Description("Move to a project or area by name")),
			mcp.WithString("completed", mcp.Description("Set true to complete, false to reopen")),
			mcp.WithString("canceled", mcp.Description("Set true to cancel, false to reopen")),
		), Handler: s.handleUpdateTodo},
		{Tool: mcp.NewTool("update_project",
			mcp.WithDescription("Update an existing project"),
			mcp.WithString("uuid",
				mcp.Description("UUID of the project to update"),
				mcp.Required()),
			mcp.WithString("title", mcp.Description("New title")),
			mcp.WithString("notes", mcp.Description("New notes body, replaces existing notes")),
			mcp.WithString("when",
				mcp.Description("Reschedule: today, tomorrow, evening, anytime, someday, or YYYY-MM-DD")),
			mcp.WithString("deadline", mcp.Description("New deadline, YYYY-MM-DD")),
			mcp.WithString("tags", mcp.Description("Comma-separated tag titles, replaces existing tags")),
			mcp.WithString("area_id", mcp.Description("Move to an area by UUID")),
			mcp.WithString("area_title", mcp.Description("Move to an area by name")),
			mcp.WithString("completed", mcp.Description("Set true to complete, false to reopen")),
			mcp.WithString("canceled", mcp.Description("Set true to cancel, false to reopen")),
		), Handler: s.handleUpdateProject},
		{Tool: mcp.NewTool("json_import",
			mcp.WithDescription("Create up to 250 items in one batch using the Things JSON import format"),
			mcp.WithString("data",
				mcp.Description("JSON array of import items, each with type, optional operation, and attributes"),
				mcp.Required()),
			mcp.WithBoolean("reveal",
				mcp.Description("Reveal the imported items in Things afterwards")),
		), Handler: s.handleJSONImport},
		{Tool: mcp.NewTool("json_export",
			mcp.WithDescription("Export open todos as JSON"),
			mcp.WithString("project_uuid",
				mcp.Description("Only export todos belonging to this project")),
			mcp.WithNumber("limit",
				mcp.Description("Maximum number of todos to export (default 50)")),
		), Handler: s.handleJSONExport},

		// Navigation.
		{Tool: mcp.NewTool("show_in_things",
			mcp.WithDescription("Bring Things to the foreground showing an item or list"),
			mcp.WithString("item_id",
				mcp.Description("UUID of the item, or a list name: inbox, today, upcoming, anytime, someday, logbook, trash"),
				mcp.Required()),
		), Handler: s.handleShowInThings},
		{Tool: mcp.NewTool("search_in_things",
			mcp.WithDescription("Open the Things search window with a query"),
			mcp.WithString("query",
				mcp.Description("Text to search for"),
				mcp.Required()),
		), Handler: s.handleSearchInThings},
	}
}
