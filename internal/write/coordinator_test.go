package write

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePrimary struct {
	uuid  string
	err   error
	calls int
}

func (f *fakePrimary) Apply(context.Context, Intent) (string, error) {
	f.calls++
	return f.uuid, f.err
}

type fakeFallback struct {
	err   error
	calls int
	last  Intent
}

func (f *fakeFallback) Dispatch(_ context.Context, in Intent) error {
	f.calls++
	f.last = in
	return f.err
}

type fakeFinder struct {
	uuid string
	err  error
}

func (f *fakeFinder) FindCreated(context.Context, string, time.Time) (string, error) {
	return f.uuid, f.err
}

func newTestCoordinator(p *fakePrimary, fb *fakeFallback, fd *fakeFinder, token string) *Coordinator {
	var finder Finder
	if fd != nil {
		finder = fd
	}
	c := NewCoordinator(p, fb, finder, token, nil)
	c.now = func() time.Time { return time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC) }
	return c
}

func TestExecutePrimarySuccess(t *testing.T) {
	p := &fakePrimary{uuid: "new-uuid"}
	fb := &fakeFallback{}
	c := newTestCoordinator(p, fb, nil, "")

	res, err := c.Execute(context.Background(), Intent{Op: OpCreateTodo, Title: "x"})
	require.NoError(t, err)
	assert.Equal(t, "new-uuid", res.UUID)
	assert.Equal(t, ChannelPrimary, res.Channel)
	assert.True(t, res.OK)
	assert.Equal(t, 1, p.calls)
	assert.Equal(t, 0, fb.calls, "fallback must not run when primary succeeds")
}

func TestExecutePrimaryFailureFallsBack(t *testing.T) {
	p := &fakePrimary{err: errors.New("osascript exploded")}
	fb := &fakeFallback{}
	fd := &fakeFinder{uuid: "recovered-uuid"}
	c := newTestCoordinator(p, fb, fd, "")

	res, err := c.Execute(context.Background(), Intent{Op: OpCreateTodo, Title: "x"})
	require.NoError(t, err)
	assert.Equal(t, ChannelFallback, res.Channel)
	assert.Equal(t, "recovered-uuid", res.UUID)
	assert.Equal(t, 1, fb.calls)
}

func TestExecuteChecklistForcesFallback(t *testing.T) {
	p := &fakePrimary{uuid: "never"}
	fb := &fakeFallback{}
	c := newTestCoordinator(p, fb, nil, "")

	res, err := c.Execute(context.Background(), Intent{
		Op:             OpCreateTodo,
		Title:          "x",
		ChecklistItems: []string{"a", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0, p.calls, "checklist items cannot cross the scripting bridge")
	assert.Equal(t, 1, fb.calls)
	assert.Equal(t, ChannelFallback, res.Channel)
}

func TestExecuteFallbackCreateWithoutFinder(t *testing.T) {
	c := newTestCoordinator(&fakePrimary{err: errors.New("down")}, &fakeFallback{}, nil, "")

	res, err := c.Execute(context.Background(), Intent{Op: OpCreateTodo, Title: "x"})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Empty(t, res.UUID)
}

func TestExecuteFallbackCreateFinderFailureTolerated(t *testing.T) {
	fd := &fakeFinder{err: errors.New("not found")}
	c := newTestCoordinator(&fakePrimary{err: errors.New("down")}, &fakeFallback{}, fd, "")

	res, err := c.Execute(context.Background(), Intent{Op: OpCreateTodo, Title: "x"})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Empty(t, res.UUID)
}

func TestExecuteUpdateWithoutTokenNoDispatch(t *testing.T) {
	p := &fakePrimary{err: errors.New("down")}
	fb := &fakeFallback{}
	c := newTestCoordinator(p, fb, nil, "")

	_, err := c.Execute(context.Background(), Intent{Op: OpUpdateTodo, TargetID: "t1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthTokenMissing)
	assert.Equal(t, 0, fb.calls, "missing token is a config error, nothing may be dispatched")
}

func TestExecuteUpdateWithTokenFallsBack(t *testing.T) {
	p := &fakePrimary{err: errors.New("down")}
	fb := &fakeFallback{}
	c := newTestCoordinator(p, fb, nil, "secret")

	res, err := c.Execute(context.Background(), Intent{Op: OpUpdateTodo, TargetID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, "t1", res.UUID, "updates keep their known identifier")
	assert.Equal(t, ChannelFallback, res.Channel)
}

func TestExecuteDualFailure(t *testing.T) {
	primaryErr := errors.New("bridge down")
	fallbackErr := errors.New("open failed")
	c := newTestCoordinator(&fakePrimary{err: primaryErr}, &fakeFallback{err: fallbackErr}, nil, "secret")

	_, err := c.Execute(context.Background(), Intent{Op: OpCreateTodo, Title: "x"})
	require.Error(t, err)

	var dual *DualFailureError
	require.ErrorAs(t, err, &dual)
	assert.ErrorIs(t, err, primaryErr)
	assert.ErrorIs(t, err, fallbackErr)
}

func TestBulkImportAdmission(t *testing.T) {
	fb := &fakeFallback{}
	c := newTestCoordinator(&fakePrimary{}, fb, nil, "")

	items := func(n int) []BulkItem {
		out := make([]BulkItem, n)
		for i := range out {
			out[i] = BulkItem{Type: "to-do", Attributes: map[string]any{"title": "t"}}
		}
		return out
	}

	res, err := c.Execute(context.Background(), Intent{Op: OpBulkImport, BulkItems: items(AdmissionLimit)})
	require.NoError(t, err, "exactly the limit is admitted")
	assert.Equal(t, ChannelFallback, res.Channel)
	assert.Equal(t, 1, fb.calls)

	_, err = c.Execute(context.Background(), Intent{Op: OpBulkImport, BulkItems: items(AdmissionLimit + 1)})
	require.Error(t, err)
	var adm *AdmissionError
	require.ErrorAs(t, err, &adm)
	assert.Equal(t, AdmissionLimit, adm.Limit)
	assert.Equal(t, AdmissionLimit+1, adm.Attempted)
	assert.Equal(t, 1, fb.calls, "oversized payload is rejected whole, not truncated")
}

func TestBulkImportUpdateItemsNeedToken(t *testing.T) {
	fb := &fakeFallback{}
	c := newTestCoordinator(&fakePrimary{}, fb, nil, "")

	in := Intent{Op: OpBulkImport, BulkItems: []BulkItem{
		{Type: "to-do", Attributes: map[string]any{"title": "new"}},
		{Type: "to-do", Operation: "update", Attributes: map[string]any{"id": "t1"}},
	}}
	_, err := c.Execute(context.Background(), in)
	assert.ErrorIs(t, err, ErrAuthTokenMissing)
	assert.Equal(t, 0, fb.calls)
}
