package domain

import "time"

// DefaultMaxFailedLogins is the lock threshold applied when the configured
// value is missing or non-positive.
const DefaultMaxFailedLogins = 5

// User is an authenticated actor scoped to an organization. Role membership
// is held by reference (role IDs), never as embedded Role objects, so role
// mutation stays inside the Role aggregate.
type User struct {
	Entity       `bson:",inline"`
	Email        Email      `json:"email" bson:"email"`
	Username     string     `json:"username" bson:"username"`
	FirstName    string     `json:"first_name" bson:"first_name"`
	LastName     string     `json:"last_name" bson:"last_name"`
	PasswordHash string     `json:"-" bson:"password_hash"`
	Status       UserStatus `json:"status" bson:"status"`
	FailedLogins int        `json:"-" bson:"failed_logins"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty" bson:"last_login_at,omitempty"`
	RoleIDs      []string   `json:"role_ids" bson:"role_ids"`
}

// NewUser registers a user in orgID with status active and raises
// UserRegistered. Email/username uniqueness within the org is enforced at the
// persistence boundary, which surfaces violations as ErrDuplicateIdentity.
func NewUser(email Email, username, firstName, lastName, orgID string) *User {
	u := &User{
		Entity:    NewEntity(orgID),
		Email:     email,
		Username:  username,
		FirstName: firstName,
		LastName:  lastName,
		Status:    StatusActive,
	}
	u.Raise(NewUserRegistered(u))
	return u
}

// Name returns the user's display name.
func (u *User) Name() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// RecordLogin registers a successful login: resets the failed-login counter,
// stamps the login time and raises UserLoggedIn.
func (u *User) RecordLogin(at time.Time, ip, userAgent string) {
	u.FailedLogins = 0
	u.LastLoginAt = &at
	u.Touch()
	u.Raise(NewUserLoggedIn(u, at, ip, userAgent))
}

// RecordFailedLogin increments the failed-login counter and returns the new
// value. Once the counter exceeds threshold the account is locked.
func (u *User) RecordFailedLogin(threshold int) int {
	if threshold <= 0 {
		threshold = DefaultMaxFailedLogins
	}
	u.FailedLogins++
	if u.FailedLogins > threshold {
		u.Status = StatusLocked
	}
	u.Touch()
	return u.FailedLogins
}

// Lock transitions the account to locked.
func (u *User) Lock() {
	u.Status = StatusLocked
	u.Touch()
}

// Unlock restores a locked account to active and clears the counter.
func (u *User) Unlock() {
	u.Status = StatusActive
	u.FailedLogins = 0
	u.Touch()
}

// ChangeStatus sets the account status.
func (u *User) ChangeStatus(status UserStatus) {
	u.Status = status
	u.Touch()
}

// AssignRole adds roleID to the user's role set. Adding an already-assigned
// role is a no-op.
func (u *User) AssignRole(roleID string) {
	if u.HasRole(roleID) {
		return
	}
	u.RoleIDs = append(u.RoleIDs, roleID)
	u.Touch()
}

// UnassignRole removes roleID from the user's role set.
func (u *User) UnassignRole(roleID string) {
	for i, id := range u.RoleIDs {
		if id == roleID {
			u.RoleIDs = append(u.RoleIDs[:i], u.RoleIDs[i+1:]...)
			u.Touch()
			return
		}
	}
}

// HasRole reports whether roleID is in the user's role set.
func (u *User) HasRole(roleID string) bool {
	for _, id := range u.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}
