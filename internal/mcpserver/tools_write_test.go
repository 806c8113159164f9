package mcpserver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/piersdd/things-3-mcp/internal/write"
)

type capturingPrimary struct {
	calls []write.Intent
	uuid  string
}

func (p *capturingPrimary) Apply(_ context.Context, in write.Intent) (string, error) {
	p.calls = append(p.calls, in)
	return p.uuid, nil
}

type capturingFallback struct {
	calls []write.Intent
}

func (f *capturingFallback) Dispatch(_ context.Context, in write.Intent) error {
	f.calls = append(f.calls, in)
	return nil
}

func newWriteServer(primary *capturingPrimary, fallback *capturingFallback) *Server {
	return &Server{
		log:   discardLogger(),
		coord: write.NewCoordinator(primary, fallback, nil, "tok", discardLogger()),
	}
}

func TestHandleUpdateTodoMovesToList(t *testing.T) {
	primary := &capturingPrimary{uuid: "t1"}
	fallback := &capturingFallback{}
	s := newWriteServer(primary, fallback)

	res, err := s.handleUpdateTodo(context.Background(), callReq(map[string]any{
		"uuid":      "t1",
		"title":     "renamed",
		"list_id":   "proj-9",
		"list_name": "Errands",
	}))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.False(t, res.IsError)

	require.Len(t, primary.calls, 1)
	in := primary.calls[0]
	assert.Equal(t, write.OpUpdateTodo, in.Op)
	assert.Equal(t, "t1", in.TargetID)
	assert.Equal(t, "renamed", in.Title)
	assert.Equal(t, "proj-9", in.ListID)
	assert.Equal(t, "Errands", in.ListTitle)
}

func TestHandleUpdateProjectMovesToArea(t *testing.T) {
	primary := &capturingPrimary{uuid: "p1"}
	fallback := &capturingFallback{}
	s := newWriteServer(primary, fallback)

	res, err := s.handleUpdateProject(context.Background(), callReq(map[string]any{
		"uuid":       "p1",
		"area_id":    "area-3",
		"area_title": "Work",
	}))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.False(t, res.IsError)

	require.Len(t, primary.calls, 1)
	in := primary.calls[0]
	assert.Equal(t, write.OpUpdateProject, in.Op)
	assert.Equal(t, "area-3", in.AreaID)
	assert.Equal(t, "Work", in.AreaTitle)
}

func TestHandleUpdateTodoChecklistGoesToURLScheme(t *testing.T) {
	primary := &capturingPrimary{}
	fallback := &capturingFallback{}
	s := newWriteServer(primary, fallback)

	res, err := s.handleUpdateTodo(context.Background(), callReq(map[string]any{
		"uuid":            "t1",
		"checklist_items": "milk, eggs",
	}))
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.False(t, res.IsError)

	assert.Empty(t, primary.calls, "checklist writes bypass applescript")
	require.Len(t, fallback.calls, 1)
	assert.Equal(t, []string{"milk", "eggs"}, fallback.calls[0].ChecklistItems)
}
