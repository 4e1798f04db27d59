// Package metacache provides the lazy, concurrent metadata cache that backs
// the object model. A ChildCache owns every child object of one kind under a
// parent: it decides load-or-return-cached, merges refreshes by identity so
// existing instances survive, and keeps snapshots consistent under
// concurrent access from UI and background callers.
package metacache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/leapstack-labs/metabrowse/pkg/core"
)

// Config describes one ChildCache: where its rows come from and how rows
// become objects.
type Config[P comparable, C core.Object] struct {
	// Kind of the children this cache holds.
	Kind core.Kind

	// Source executes the metadata queries.
	Source core.Source

	// Scope maps a parent to the listing scope the source understands.
	Scope func(parent P) core.Scope

	// New constructs a child from one decoded row.
	New func(parent P, rec *core.Record) (C, error)

	// Identity extracts the stable identity from a row, before any object
	// is constructed. Used to match rows against cached instances.
	Identity func(rec *core.Record) core.ID

	// Logger may be nil; a discard logger is used.
	Logger *slog.Logger
}

// ChildCache is the generic lazy cache mapping a parent to its loaded
// children of one kind. Loads and refreshes are serialized per parent:
// concurrent callers join the in-flight operation's result instead of
// issuing duplicate queries. Caches for different parents operate
// independently.
type ChildCache[P comparable, C core.Object] struct {
	kind     core.Kind
	source   core.Source
	scope    func(P) core.Scope
	newChild func(P, *core.Record) (C, error)
	identity func(*core.Record) core.ID
	logger   *slog.Logger

	mu      sync.Mutex
	parents map[P]*parentState[C]
}

// parentState holds the cached snapshot for one parent. op serializes load
// and refresh (held across the remote query); mu guards the snapshot fields
// and is never held across I/O.
type parentState[C core.Object] struct {
	op sync.Mutex

	mu     sync.Mutex
	loaded bool
	items  []C
	byID   map[core.ID]C
}

// New creates a ChildCache from cfg.
func New[P comparable, C core.Object](cfg Config[P, C]) *ChildCache[P, C] {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ChildCache[P, C]{
		kind:     cfg.Kind,
		source:   cfg.Source,
		scope:    cfg.Scope,
		newChild: cfg.New,
		identity: cfg.Identity,
		logger:   logger,
		parents:  make(map[P]*parentState[C]),
	}
}

// Kind returns the kind of children this cache holds.
func (c *ChildCache[P, C]) Kind() core.Kind { return c.kind }

func (c *ChildCache[P, C]) state(parent P) *parentState[C] {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.parents[parent]
	if !ok {
		st = &parentState[C]{byID: make(map[core.ID]C)}
		c.parents[parent] = st
	}
	return st
}

// snapshot returns a copy of the cached items and whether the cache is
// loaded for this parent.
func (st *parentState[C]) snapshot() ([]C, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.loaded {
		return nil, false
	}
	return slices.Clone(st.items), true
}

// GetChildren returns all children of parent, loading them on first use.
// A loaded cache is returned as-is with no I/O; callers wanting fresh data
// must call Refresh. Concurrent callers on an unloaded parent share one
// underlying query.
func (c *ChildCache[P, C]) GetChildren(ctx context.Context, parent P) ([]C, error) {
	st := c.state(parent)
	if items, ok := st.snapshot(); ok {
		return items, nil
	}

	st.op.Lock()
	defer st.op.Unlock()

	// A concurrent load may have completed while we waited.
	if items, ok := st.snapshot(); ok {
		return items, nil
	}

	items, byID, err := c.loadAll(ctx, parent)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	st.items = items
	st.byID = byID
	st.loaded = true
	st.mu.Unlock()

	return slices.Clone(items), nil
}

// GetChild returns the child with the given name, loading the listing first
// if needed. An already-loaded cache is not re-queried (stale-but-present
// semantics). Returns NotFoundError when no child carries the name.
func (c *ChildCache[P, C]) GetChild(ctx context.Context, parent P, name string) (C, error) {
	var zero C
	items, err := c.GetChildren(ctx, parent)
	if err != nil {
		return zero, err
	}
	for _, item := range items {
		if item.Name() == name {
			return item, nil
		}
	}
	return zero, &core.NotFoundError{Kind: c.kind, Name: name}
}

// GetCachedChildren returns whatever is currently cached for parent without
// any I/O. Empty if never loaded. Used by non-blocking UI paths.
func (c *ChildCache[P, C]) GetCachedChildren(parent P) []C {
	st := c.state(parent)
	st.mu.Lock()
	defer st.mu.Unlock()
	return slices.Clone(st.items)
}

// Loaded reports whether a complete listing is cached for parent.
func (c *ChildCache[P, C]) Loaded(parent P) bool {
	st := c.state(parent)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.loaded
}

// Refresh re-queries the listing and merges it by identity: rows matching a
// cached identity update that instance in place, unmatched rows become new
// children, and cached children absent from the result are evicted. Holders
// of surviving children keep valid references. On error or cancellation the
// previous snapshot is untouched.
func (c *ChildCache[P, C]) Refresh(ctx context.Context, parent P) ([]C, error) {
	st := c.state(parent)
	st.op.Lock()
	defer st.op.Unlock()

	scope := c.scope(parent)
	if err := cancelled(ctx); err != nil {
		return nil, err
	}
	recs, err := c.source.ExecuteMetadataQuery(ctx, scope)
	if err != nil {
		return nil, wrapQueryErr(scope, err)
	}

	st.mu.Lock()
	old := st.byID
	st.mu.Unlock()

	// Construct replacements for unseen identities before touching the
	// snapshot, so a decode failure leaves the cache unchanged.
	type slot struct {
		child    C
		rec      *core.Record
		existing bool
	}
	plan := make([]slot, 0, len(recs))
	progress := core.ProgressFromContext(ctx)
	progress.BeginTask(scope.String(), len(recs))
	defer progress.Done()
	for _, rec := range recs {
		if err := cancelled(ctx); err != nil {
			return nil, err
		}
		id := c.identity(rec)
		if exist, ok := old[id]; ok && id != "" {
			plan = append(plan, slot{child: exist, rec: rec, existing: true})
		} else {
			child, err := c.newChild(parent, rec)
			if err != nil {
				return nil, wrapQueryErr(scope, err)
			}
			plan = append(plan, slot{child: child, rec: rec})
		}
		progress.Worked(1)
	}

	items := make([]C, len(plan))
	byID := make(map[core.ID]C, len(plan))
	st.mu.Lock()
	for i, s := range plan {
		if s.existing {
			s.child.UpdateFrom(s.rec)
		}
		items[i] = s.child
		byID[s.child.ObjectID()] = s.child
	}
	st.items = items
	st.byID = byID
	st.loaded = true
	st.mu.Unlock()

	c.logger.Debug("cache refreshed",
		slog.String("scope", scope.String()),
		slog.Int("count", len(items)))
	return slices.Clone(items), nil
}

// RefreshObject re-queries a single cached child and updates it in place,
// leaving its siblings untouched. If the remote object no longer exists the
// child is evicted and NotFoundError returned.
func (c *ChildCache[P, C]) RefreshObject(ctx context.Context, parent P, child C) (C, error) {
	var zero C
	st := c.state(parent)
	st.op.Lock()
	defer st.op.Unlock()

	scope := c.scope(parent)
	if err := cancelled(ctx); err != nil {
		return zero, err
	}
	rec, err := c.source.ExecuteSingleObjectQuery(ctx, scope, child.ObjectID())
	if errors.Is(err, core.ErrNoRow) {
		st.remove(child.ObjectID())
		return zero, &core.NotFoundError{Kind: c.kind, Name: child.Name()}
	}
	if err != nil {
		return zero, wrapQueryErr(scope, err)
	}

	st.mu.Lock()
	child.UpdateFrom(rec)
	if _, cached := st.byID[child.ObjectID()]; !cached {
		st.items = append(st.items, child)
		st.byID[child.ObjectID()] = child
	}
	st.mu.Unlock()
	return child, nil
}

// ClearObjectCache drops the cached children of parent only, forcing the
// next GetChildren to reload. Other parents' subsets are untouched; cascades
// to derived caches are the owner's responsibility.
func (c *ChildCache[P, C]) ClearObjectCache(parent P) {
	st := c.state(parent)
	st.mu.Lock()
	st.loaded = false
	st.items = nil
	st.byID = make(map[core.ID]C)
	st.mu.Unlock()
}

// ClearAll drops every parent's cached children. Used on container teardown
// and whole-container refresh.
func (c *ChildCache[P, C]) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.parents = make(map[P]*parentState[C])
}

// CacheObject inserts an already-constructed child into parent's snapshot
// without I/O. Used when a child is known by construction, e.g. while
// duplicating an object together with its columns. The insert serializes
// with in-flight loads and refreshes like every other mutation.
func (c *ChildCache[P, C]) CacheObject(parent P, child C) {
	st := c.state(parent)
	st.op.Lock()
	defer st.op.Unlock()
	st.mu.Lock()
	if _, dup := st.byID[child.ObjectID()]; !dup {
		st.items = append(st.items, child)
		st.byID[child.ObjectID()] = child
	}
	st.mu.Unlock()
}

func (st *parentState[C]) remove(id core.ID) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.byID[id]; !ok {
		return
	}
	delete(st.byID, id)
	st.items = slices.DeleteFunc(st.items, func(c C) bool {
		return c.ObjectID() == id
	})
}

// loadAll performs a full load for parent: one listing query, every row
// decoded into a fresh child. Nothing is published if any step fails.
func (c *ChildCache[P, C]) loadAll(ctx context.Context, parent P) ([]C, map[core.ID]C, error) {
	scope := c.scope(parent)
	if err := cancelled(ctx); err != nil {
		return nil, nil, err
	}

	recs, err := c.source.ExecuteMetadataQuery(ctx, scope)
	if err != nil {
		return nil, nil, wrapQueryErr(scope, err)
	}

	progress := core.ProgressFromContext(ctx)
	progress.BeginTask(scope.String(), len(recs))
	defer progress.Done()
	items := make([]C, 0, len(recs))
	byID := make(map[core.ID]C, len(recs))
	for _, rec := range recs {
		if err := cancelled(ctx); err != nil {
			return nil, nil, err
		}
		child, err := c.newChild(parent, rec)
		if err != nil {
			return nil, nil, wrapQueryErr(scope, err)
		}
		items = append(items, child)
		byID[child.ObjectID()] = child
		progress.Worked(1)
	}

	c.logger.Debug("cache loaded",
		slog.String("scope", scope.String()),
		slog.Int("count", len(items)))
	return items, byID, nil
}

func cancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return &core.CancelledError{Err: err}
	}
	return nil
}

// wrapQueryErr classifies a source failure: cancellation stays a
// CancelledError, everything else becomes a RemoteAccessError.
func wrapQueryErr(scope core.Scope, err error) error {
	if core.IsCancelled(err) {
		var ce *core.CancelledError
		if errors.As(err, &ce) {
			return ce
		}
		return &core.CancelledError{Err: err}
	}
	return &core.RemoteAccessError{Scope: scope, Err: fmt.Errorf("metadata query failed: %w", err)}
}
