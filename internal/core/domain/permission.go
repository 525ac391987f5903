package domain

import "sort"

// Permission is a named capability tied to a module and action. A permission
// with an empty OrgID is system-wide and visible to every organization; a
// non-empty OrgID marks a tenant-custom permission. Name is globally unique.
type Permission struct {
	Entity `bson:",inline"`
	Name   string `json:"name" bson:"name"`
	Module string `json:"module" bson:"module"`
	Action string `json:"action" bson:"action"`
}

// NewPermission creates a permission. Pass an empty orgID for a system-wide
// permission.
func NewPermission(name, module, action, orgID string) *Permission {
	return &Permission{
		Entity: NewEntity(orgID),
		Name:   name,
		Module: module,
		Action: action,
	}
}

// IsSystem reports whether the permission is system-wide rather than
// tenant-custom.
func (p *Permission) IsSystem() bool {
	return p.OrgID == ""
}

// PermissionSet is a resolved set of permission names. Authorization checks
// test by name, not by role, so the set is role-unqualified.
type PermissionSet map[string]struct{}

func NewPermissionSet(names ...string) PermissionSet {
	set := make(PermissionSet, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

// Add inserts a permission name.
func (s PermissionSet) Add(name string) {
	s[name] = struct{}{}
}

// Has reports whether name is in the set.
func (s PermissionSet) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// HasAny reports whether at least one of names is in the set.
func (s PermissionSet) HasAny(names ...string) bool {
	for _, n := range names {
		if s.Has(n) {
			return true
		}
	}
	return false
}

// HasAll reports whether every one of names is in the set.
func (s PermissionSet) HasAll(names ...string) bool {
	for _, n := range names {
		if !s.Has(n) {
			return false
		}
	}
	return true
}

// Names returns the set's members sorted, so identical sets always render
// identically.
func (s PermissionSet) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
