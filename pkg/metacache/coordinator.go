package metacache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/metabrowse/pkg/core"
)

// Coordinator orchestrates cascading invalidation: refreshing an object
// first clears the caches derived from it, then performs the identity-scoped
// refresh through the object's owning cache. Reads elsewhere synchronize
// against in-flight refreshes through the per-parent serialization inside
// each ChildCache.
type Coordinator struct {
	registry *Registry
	logger   *slog.Logger
}

// NewCoordinator creates a Coordinator over the container's registry.
// A nil logger discards.
func NewCoordinator(registry *Registry, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Coordinator{registry: registry, logger: logger}
}

// Refresh re-reads obj from the remote server and returns the surviving
// instance. Derived caches (a table's constraint and index listings) are
// cleared before the refresh, because whatever triggered it may have changed
// them as a side effect. Cancellation surfaces as CancelledError with all
// cache state untouched.
func (c *Coordinator) Refresh(ctx context.Context, obj core.Object) (core.Object, error) {
	b, ok := c.registry.Binding(obj.ObjectKind())
	if !ok {
		return nil, fmt.Errorf("no cache binding for object kind %q", obj.ObjectKind())
	}
	if err := cancelled(ctx); err != nil {
		return nil, err
	}
	if b.ClearDependents != nil {
		b.ClearDependents(obj)
	}
	c.logger.Debug("refreshing object",
		slog.String("kind", string(obj.ObjectKind())),
		slog.String("name", obj.Name()))
	return b.Refresh(ctx, obj)
}

// Invalidate drops the cached listing containing obj without any I/O. The
// next read through the owning cache reloads from the server.
func (c *Coordinator) Invalidate(obj core.Object) error {
	b, ok := c.registry.Binding(obj.ObjectKind())
	if !ok {
		return fmt.Errorf("no cache binding for object kind %q", obj.ObjectKind())
	}
	if b.ClearDependents != nil {
		b.ClearDependents(obj)
	}
	if b.Clear != nil {
		b.Clear(obj)
	}
	return nil
}
