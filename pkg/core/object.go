package core

// ID is the stable identity of a remote object. Server-assigned identifiers
// (OIDs, catalog ids) are rendered as strings; locally-created objects carry
// a generated ID until they are persisted remotely.
type ID string

// Kind classifies a cached metadata object.
type Kind string

// Object kind constants.
const (
	KindDatabase         Kind = "database"
	KindSchema           Kind = "schema"
	KindTable            Kind = "table"
	KindView             Kind = "view"
	KindMaterializedView Kind = "materialized_view"
	KindColumn           Kind = "column"
	KindConstraint       Kind = "constraint"
	KindIndex            Kind = "index"
	KindRole             Kind = "role"
	KindTablespace       Kind = "tablespace"
)

// Object is a cached in-memory representation of a remote structural entity
// (table, column, constraint, ...). Implementations keep their mutable
// attributes updatable in place so that holders of an Object keep a valid
// reference across refresh cycles.
type Object interface {
	// ObjectID returns the stable identity used to match this object across
	// successive loads of the same remote entity.
	ObjectID() ID

	// Name returns the display name. Names are mutable (rename).
	Name() string

	// SetName updates the display name.
	SetName(name string)

	// ObjectKind returns the kind tag of this object.
	ObjectKind() Kind

	// Persisted reports whether the object exists on the remote system.
	// Locally-created objects pending remote creation return false.
	Persisted() bool

	// UpdateFrom refreshes the object's mutable attributes from the latest
	// raw row. It must not replace identity and must not fail: absent or
	// mistyped row values decode to zero values.
	UpdateFrom(rec *Record)
}
