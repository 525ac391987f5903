package domain

// UserStatus is the closed set of account states.
type UserStatus string

const (
	StatusActive   UserStatus = "active"
	StatusInactive UserStatus = "inactive"
	StatusLocked   UserStatus = "locked"
)

// NewUserStatus validates membership in the closed set.
func NewUserStatus(value string) (UserStatus, error) {
	switch UserStatus(value) {
	case StatusActive, StatusInactive, StatusLocked:
		return UserStatus(value), nil
	default:
		return "", ErrInvalidStatus
	}
}

// CanLogin reports whether a user in this status may authenticate.
// Only active accounts may; transitions live on the User entity so that
// timestamp updates and event emission stay in one place.
func (s UserStatus) CanLogin() bool {
	return s == StatusActive
}
