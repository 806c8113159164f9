package write

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Primary is the scripting-bridge capability: synchronous, returns the
// created or updated identifier directly, needs no token.
type Primary interface {
	Apply(ctx context.Context, in Intent) (uuid string, err error)
}

// Fallback is the URL-dispatch capability: fire-and-forget, returns no
// identifier.
type Fallback interface {
	Dispatch(ctx context.Context, in Intent) error
}

// Finder recovers the identifier of an item the fallback channel created,
// by re-querying on a distinguishing attribute.
type Finder interface {
	FindCreated(ctx context.Context, title string, since time.Time) (string, error)
}

// Coordinator orchestrates the two write channels. It is a pure
// orchestration over the injected capabilities: each channel is tried at
// most once per call, and no state survives between calls. Repeated client
// calls carry no idempotency guarantee; within one call the accepted risk
// is a half-applied primary write followed by a fallback that applies again.
type Coordinator struct {
	primary  Primary
	fallback Fallback
	finder   Finder
	token    string // URL-scheme auth token, required for fallback updates
	log      *slog.Logger
	now      func() time.Time
}

// NewCoordinator wires the coordinator. finder may be nil when the caller
// never needs identifiers back from fallback creates.
func NewCoordinator(primary Primary, fallback Fallback, finder Finder, token string, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		primary:  primary,
		fallback: fallback,
		finder:   finder,
		token:    token,
		log:      logger,
		now:      time.Now,
	}
}

// Execute runs one mutation intent and reports the identifier and channel
// used. Failure policy: one primary attempt, then at most one fallback
// attempt, then done.
func (c *Coordinator) Execute(ctx context.Context, in Intent) (Result, error) {
	if in.Op == OpBulkImport {
		return c.bulkImport(ctx, in)
	}

	if in.RequiresFallback() {
		// Checklist items cannot cross the scripting bridge, so this
		// intent starts life on the fallback channel.
		return c.viaFallback(ctx, in, nil)
	}

	uuid, err := c.primary.Apply(ctx, in)
	if err == nil {
		return Result{UUID: uuid, Channel: ChannelPrimary, OK: true}, nil
	}
	c.log.Warn("primary write channel failed, trying url scheme",
		"op", in.Op.String(), "error", err)
	return c.viaFallback(ctx, in, err)
}

// viaFallback performs the single fallback attempt. primaryErr is non-nil
// when the primary channel was tried and failed.
func (c *Coordinator) viaFallback(ctx context.Context, in Intent, primaryErr error) (Result, error) {
	if in.Op.IsUpdate() && c.token == "" {
		// Configuration error, distinct from channel failure: report it
		// without dispatching anything.
		if primaryErr != nil {
			return Result{}, fmt.Errorf("applescript failed (%v) and %w", primaryErr, ErrAuthTokenMissing)
		}
		return Result{}, ErrAuthTokenMissing
	}

	started := c.now()
	if err := c.fallback.Dispatch(ctx, in); err != nil {
		if primaryErr != nil {
			return Result{}, &DualFailureError{Primary: primaryErr, Fallback: err}
		}
		return Result{}, fmt.Errorf("url scheme dispatch: %w", err)
	}

	res := Result{Channel: ChannelFallback, OK: true}
	switch in.Op {
	case OpCreateTodo, OpCreateProject:
		res.UUID = c.resolveCreated(ctx, in.Title, started)
	case OpUpdateTodo, OpUpdateProject:
		res.UUID = in.TargetID
	}
	return res, nil
}

// resolveCreated recovers the new item's identifier after a fire-and-forget
// create. Resolution failure does not fail the write: the mutation already
// happened, so the result just carries an empty identifier.
func (c *Coordinator) resolveCreated(ctx context.Context, title string, since time.Time) string {
	if c.finder == nil {
		return ""
	}
	uuid, err := c.finder.FindCreated(ctx, title, since.Add(-time.Second))
	if err != nil {
		c.log.Warn("could not resolve identifier of url-scheme create",
			"title", title, "error", err)
		return ""
	}
	return uuid
}

func (c *Coordinator) bulkImport(ctx context.Context, in Intent) (Result, error) {
	if len(in.BulkItems) > AdmissionLimit {
		return Result{}, &AdmissionError{Limit: AdmissionLimit, Attempted: len(in.BulkItems)}
	}
	for _, item := range in.BulkItems {
		if item.Operation == "update" && c.token == "" {
			return Result{}, ErrAuthTokenMissing
		}
	}
	if err := c.fallback.Dispatch(ctx, in); err != nil {
		return Result{}, fmt.Errorf("bulk import: %w", err)
	}
	return Result{Channel: ChannelFallback, OK: true}, nil
}
