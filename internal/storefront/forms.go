package storefront

import (
	"net/mail"
	"strings"

	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-storefront.git/internal/shop"
)

type LoginForm struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (f LoginForm) Validate() error {
	fields := map[string]string{}
	if strings.TrimSpace(f.Username) == "" {
		fields["username"] = "Username is required"
	}
	if f.Password == "" {
		fields["password"] = "Password is required"
	}
	return fieldsErr(fields)
}

type RegisterForm struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (f RegisterForm) Validate() error {
	fields := map[string]string{}
	switch u := strings.TrimSpace(f.Username); {
	case u == "":
		fields["username"] = "Username is required"
	case len(u) < 3:
		fields["username"] = "Username must be at least 3 characters"
	}
	if msg := emailProblem(f.Email, "Email must be valid"); msg != "" {
		fields["email"] = msg
	}
	if msg := passwordProblem(f.Password); msg != "" {
		fields["password"] = msg
	} else if f.ConfirmPassword != f.Password {
		fields["password"] = "Passwords must match"
	}
	return fieldsErr(fields)
}

type ProfileForm struct {
	Email string `json:"email"`
}

func (f ProfileForm) Validate() error {
	fields := map[string]string{}
	if msg := emailProblem(f.Email, "Enter a valid email"); msg != "" {
		fields["email"] = msg
	}
	return fieldsErr(fields)
}

func emailProblem(email, invalid string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return "Email is required"
	}
	if a, err := mail.ParseAddress(email); err != nil || a.Address != email {
		return invalid
	}
	return ""
}

// passwordProblem applies the backend's strength rules so the form reports the
// same message the backend would.
func passwordProblem(pw string) string {
	if pw == "" {
		return "Password is required"
	}
	if err := shop.ValidatePassword(pw); err != nil {
		return err.Error()
	}
	return ""
}

func fieldsErr(fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}
	return &catalog.ValidationError{Fields: fields}
}
