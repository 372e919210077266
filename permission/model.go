package permission

import "time"

// Identity is the directory view of a subject.
type Identity struct {
	Subject string
	// User is the application's own user value, passed through untouched.
	User  any
	Roles []Role
	Bans  []Ban
}

// Role is a named role with the abilities it grants.
type Role struct {
	Name      string
	Abilities []string
}

// Ban denies a single role or ability until UntilAt. A nil UntilAt is permanent.
type Ban struct {
	Role    string
	Ability string
	Reason  string
	UntilAt *time.Time
}

// Active reports whether the ban still applies at now. A ban whose UntilAt equals
// now is still active.
func (b Ban) Active(now time.Time) bool {
	return b.UntilAt == nil || !b.UntilAt.Before(now)
}

// Valid reports whether exactly one of Role and Ability is set.
func (b Ban) Valid() bool {
	return (b.Role == "") != (b.Ability == "")
}
