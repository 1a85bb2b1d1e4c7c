package shop

import (
	"time"

	"github.com/ariefcatur/go-storefront.git/internal/session"
)

const RoleCustomer = "ROLE_CUSTOMER"

type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
}

// Principal is the public view of a user sent to clients.
func (u User) Principal() session.Principal {
	return session.Principal{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Roles:    session.NewRoleSet(u.Roles...),
	}
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Token string            `json:"token"`
	User  session.Principal `json:"user"`
}
