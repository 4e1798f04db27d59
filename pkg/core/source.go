package core

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoRow is returned by ExecuteSingleObjectQuery when the remote object
// does not exist. Callers translate it into a NotFoundError at the point
// where the missing object has a name.
var ErrNoRow = errors.New("no matching row")

// Scope describes one metadata listing: which kind of children, under which
// parent. Sources translate a Scope into the dialect-specific catalog query.
type Scope struct {
	// Kind of the children being listed.
	Kind Kind

	// Database and Schema qualify the listing. Schema is empty for
	// database-level listings (schemas, roles, tablespaces).
	Database string
	Schema   string

	// Parent is the identity of the owning object for object-scoped
	// listings (table columns, table constraints). Empty otherwise.
	Parent ID

	// ParentName is the display name matching Parent, for diagnostics.
	ParentName string
}

func (s Scope) String() string {
	switch {
	case s.Parent != "":
		return fmt.Sprintf("%s of %s.%s (%s)", s.Kind, s.Schema, s.ParentName, s.Parent)
	case s.Schema != "":
		return fmt.Sprintf("%s in schema %s", s.Kind, s.Schema)
	default:
		return fmt.Sprintf("%s in database %s", s.Kind, s.Database)
	}
}

// Source executes metadata queries against a live database. It is the only
// I/O boundary of the cache layer: everything above it works on Records.
type Source interface {
	// Connect establishes the connection described by cfg.
	Connect(ctx context.Context, cfg SourceConfig) error

	// Close releases the connection.
	Close() error

	// ExecuteMetadataQuery lists all rows for a scope, in remote listing
	// order. The order is preserved as cache iteration order.
	ExecuteMetadataQuery(ctx context.Context, scope Scope) ([]*Record, error)

	// ExecuteSingleObjectQuery fetches the row for one object identified by
	// id within the scope. Returns ErrNoRow if the object no longer exists.
	ExecuteSingleObjectQuery(ctx context.Context, scope Scope, id ID) (*Record, error)

	// Capabilities returns the static capability flags of the connected
	// server. No I/O.
	Capabilities() ServerCapabilities
}

// SourceConfig holds connection settings for a metadata source.
type SourceConfig struct {
	Type     string
	Path     string
	Host     string
	Port     int
	Database string
	Username string
	Password string
	Options  map[string]string
}

// ServerCapabilities answers feature-flag questions about the connected
// server type. Used to gate optional behavior; never performs I/O.
type ServerCapabilities interface {
	SupportsTablespaces() bool
	SupportsExtraComments() bool
	SupportsPartitions() bool
	SupportsMaterializedViews() bool
}
