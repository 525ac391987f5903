package domain

// Role is a named bundle of permission IDs scoped to an organization.
// Name is unique within the org (persistence-enforced). An inactive role
// contributes nothing to permission resolution even while still assigned.
type Role struct {
	Entity        `bson:",inline"`
	Name          string   `json:"name" bson:"name"`
	Description   string   `json:"description,omitempty" bson:"description,omitempty"`
	Active        bool     `json:"is_active" bson:"active"`
	PermissionIDs []string `json:"permission_ids" bson:"permission_ids"`
}

// NewRole creates an active role and raises RoleCreated.
func NewRole(name, description, orgID string) *Role {
	r := &Role{
		Entity:      NewEntity(orgID),
		Name:        name,
		Description: description,
		Active:      true,
	}
	r.Raise(NewRoleCreated(r))
	return r
}

// Rename updates name and description and raises RoleUpdated.
func (r *Role) Rename(name, description string) {
	r.Name = name
	r.Description = description
	r.Touch()
	r.Raise(NewRoleUpdated(r))
}

// Activate enables the role and raises RoleUpdated. No-op when already active.
func (r *Role) Activate() {
	if r.Active {
		return
	}
	r.Active = true
	r.Touch()
	r.Raise(NewRoleUpdated(r))
}

// Deactivate disables the role and raises RoleUpdated. Deactivation is
// authoritative over assignment: assigned users lose the role's permissions
// immediately on the next resolution.
func (r *Role) Deactivate() {
	if !r.Active {
		return
	}
	r.Active = false
	r.Touch()
	r.Raise(NewRoleUpdated(r))
}

// SetPermissions replaces the role's permission set (deduplicated, input left
// untouched) and raises PermissionChanged.
func (r *Role) SetPermissions(permissionIDs []string) {
	seen := make(map[string]struct{}, len(permissionIDs))
	ids := make([]string, 0, len(permissionIDs))
	for _, id := range permissionIDs {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	r.PermissionIDs = ids
	r.Touch()
	r.Raise(NewPermissionChanged(r))
}
