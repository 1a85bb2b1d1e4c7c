package session

import (
	"encoding/json"
	"slices"
)

// RoleAdmin gates the inventory dashboard.
const RoleAdmin = "ROLE_ADMIN"

// Principal identifies the signed-in user.
type Principal struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Roles    RoleSet `json:"roles"`
}

// HasRole reports whether the principal carries the capability tag.
func (p Principal) HasRole(role string) bool {
	return p.Roles.Has(role)
}

func (p Principal) clone() Principal {
	p.Roles = p.Roles.clone()
	return p
}

// RoleSet is a set of capability tags. It is kept sorted and duplicate free so
// two sets with the same members compare and serialise identically.
type RoleSet []string

// NewRoleSet builds a set from tags in any order.
func NewRoleSet(roles ...string) RoleSet {
	out := make(RoleSet, 0, len(roles))
	for _, r := range roles {
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

func (s RoleSet) Has(role string) bool {
	_, ok := slices.BinarySearch(s, role)
	return ok
}

func (s RoleSet) clone() RoleSet {
	if s == nil {
		return nil
	}
	return slices.Clone(s)
}

// UnmarshalJSON accepts the backend's roles array and normalises it.
func (s *RoleSet) UnmarshalJSON(b []byte) error {
	var raw []string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = NewRoleSet(raw...)
	return nil
}
