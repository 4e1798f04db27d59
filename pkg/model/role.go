package model

import (
	"github.com/leapstack-labs/metabrowse/pkg/core"
)

// Role is a server login or group role, used to resolve object owners.
type Role struct {
	base
	superuser bool
	canLogin  bool
}

func newRoleFromRecord(rec *core.Record) *Role {
	r := &Role{
		base: base{id: recordID(rec), kind: core.KindRole, persisted: true},
	}
	r.UpdateFrom(rec)
	return r
}

func (r *Role) UpdateFrom(rec *core.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if name := rec.String("name"); name != "" {
		r.name = name
	}
	r.superuser = rec.Bool("is_superuser")
	r.canLogin = rec.Bool("can_login")
}

// Superuser reports a superuser role.
func (r *Role) Superuser() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.superuser
}

// CanLogin reports a login-capable role.
func (r *Role) CanLogin() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.canLogin
}

// Tablespace is a server storage location. Listed only on servers that
// support tablespaces.
type Tablespace struct {
	base
	location string
	ownerID  core.ID
}

func newTablespaceFromRecord(rec *core.Record) *Tablespace {
	t := &Tablespace{
		base: base{id: recordID(rec), kind: core.KindTablespace, persisted: true},
	}
	t.UpdateFrom(rec)
	return t
}

func (t *Tablespace) UpdateFrom(rec *core.Record) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if name := rec.String("name"); name != "" {
		t.name = name
	}
	t.location = rec.String("location")
	t.ownerID = core.ID(rec.String("owner"))
}

// Location returns the filesystem location, when the server reports one.
func (t *Tablespace) Location() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.location
}
