// Package resolve enriches batches of tasks with parent names and project
// counts. The whole point is the batch shape: one lookup per distinct parent
// across the batch, never one per item.
package resolve

import (
	"context"

	"github.com/piersdd/things-3-mcp/internal/things"
)

// UnresolvedName marks a parent reference whose target no longer exists.
// A dangling reference degrades to this sentinel instead of failing the batch.
const UnresolvedName = "(unresolved)"

// Counts are the derived open/done todo counts of a project.
type Counts struct {
	Open int
	Done int
}

// Lookups is the external read capability the resolver orchestrates. Each
// method must resolve its whole id set in a single external query.
type Lookups interface {
	ProjectTitles(ctx context.Context, ids []string) (map[string]string, error)
	AreaTitles(ctx context.Context, ids []string) (map[string]string, error)
	ProjectCounts(ctx context.Context, ids []string) (map[string]Counts, error)
}

// Resolver batches parent lookups for task enrichment.
type Resolver struct {
	lookups Lookups
}

func New(lookups Lookups) *Resolver {
	return &Resolver{lookups: lookups}
}

// Batch holds resolved attributes for one enrichment pass. It is scoped to a
// single tool invocation and discarded afterwards.
type Batch struct {
	projects map[string]string
	areas    map[string]string
	counts   map[string]Counts
}

// ProjectName returns the resolved title for a project id, UnresolvedName
// for a dangling reference, and "" for an id that was not in the batch.
func (b Batch) ProjectName(id string) string { return b.projects[id] }

// AreaName behaves like ProjectName for areas.
func (b Batch) AreaName(id string) string { return b.areas[id] }

// ProjectCounts returns the open/done counts for a project id. The second
// return is false when counts were not requested for the batch.
func (b Batch) ProjectCounts(id string) (Counts, bool) {
	c, ok := b.counts[id]
	return c, ok
}

// Options controls what a Resolve pass fetches.
type Options struct {
	// Counts additionally fetches open/done counts for every project in
	// the batch (used by the concise project list).
	Counts bool
}

// Resolve gathers the distinct parent references across tasks and resolves
// them. External lookups are bounded by the number of distinct parents: one
// set-query per referenced entity kind, regardless of batch size.
func (r *Resolver) Resolve(ctx context.Context, tasks []things.Task, opts Options) (Batch, error) {
	projectIDs := make(map[string]struct{})
	areaIDs := make(map[string]struct{})
	for _, t := range tasks {
		if t.ProjectID != "" {
			projectIDs[t.ProjectID] = struct{}{}
		}
		if t.AreaID != "" {
			areaIDs[t.AreaID] = struct{}{}
		}
		if t.Type == things.TypeProject {
			projectIDs[t.UUID] = struct{}{}
		}
	}

	batch := Batch{
		projects: make(map[string]string, len(projectIDs)),
		areas:    make(map[string]string, len(areaIDs)),
	}

	if len(projectIDs) > 0 {
		ids := keys(projectIDs)
		titles, err := r.lookups.ProjectTitles(ctx, ids)
		if err != nil {
			return Batch{}, err
		}
		for _, id := range ids {
			if title, ok := titles[id]; ok {
				batch.projects[id] = title
			} else {
				batch.projects[id] = UnresolvedName
			}
		}
		if opts.Counts {
			counts, err := r.lookups.ProjectCounts(ctx, ids)
			if err != nil {
				return Batch{}, err
			}
			batch.counts = make(map[string]Counts, len(ids))
			for _, id := range ids {
				batch.counts[id] = counts[id]
			}
		}
	}

	if len(areaIDs) > 0 {
		ids := keys(areaIDs)
		titles, err := r.lookups.AreaTitles(ctx, ids)
		if err != nil {
			return Batch{}, err
		}
		for _, id := range ids {
			if title, ok := titles[id]; ok {
				batch.areas[id] = title
			} else {
				batch.areas[id] = UnresolvedName
			}
		}
	}

	return batch, nil
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
