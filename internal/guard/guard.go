package guard

import (
	"net/http"

	"github.com/ariefcatur/go-storefront.git/internal/session"
)

type Decision int

const (
	Allow Decision = iota
	RedirectToLogin
	RedirectToHome
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "Allow"
	case RedirectToLogin:
		return "RedirectToLogin"
	case RedirectToHome:
		return "RedirectToHome"
	default:
		return "Unknown"
	}
}

const (
	LoginPath = "/login"
	HomePath  = "/"
)

// Decide evaluates a navigation against the current session. An empty required
// capability only asks for a signed-in principal.
func Decide(s session.Session, required string) Decision {
	if s.Principal == nil {
		return RedirectToLogin
	}
	if required == "" || s.Principal.HasRole(required) {
		return Allow
	}
	return RedirectToHome
}

// SessionFunc resolves the session snapshot for the client behind a request.
type SessionFunc func(r *http.Request) session.Session

// Middleware runs Decide on every request and redirects with 303 See Other when
// the navigation is not allowed.
func Middleware(lookup SessionFunc, required string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch Decide(lookup(r), required) {
			case RedirectToLogin:
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
			case RedirectToHome:
				http.Redirect(w, r, HomePath, http.StatusSeeOther)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}

// RequireSignIn guards routes that only need a principal.
func RequireSignIn(lookup SessionFunc) func(http.Handler) http.Handler {
	return Middleware(lookup, "")
}

// RequireRole guards routes behind a capability tag.
func RequireRole(lookup SessionFunc, role string) func(http.Handler) http.Handler {
	return Middleware(lookup, role)
}
