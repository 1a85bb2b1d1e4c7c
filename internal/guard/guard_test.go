package guard

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ariefcatur/go-storefront.git/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func signedIn(roles ...string) session.Session {
	return session.Session{
		Principal: &session.Principal{ID: 1, Username: "u", Roles: session.NewRoleSet(roles...)},
		Token:     "tok",
	}
}

func TestDecide(t *testing.T) {
	tests := []struct {
		name     string
		sess     session.Session
		required string
		want     Decision
	}{
		{"anonymous without requirement", session.Session{}, "", RedirectToLogin},
		{"anonymous with requirement", session.Session{}, session.RoleAdmin, RedirectToLogin},
		{"anonymous while pending", session.Session{Pending: true}, "", RedirectToLogin},
		{"customer without requirement", signedIn("ROLE_CUSTOMER"), "", Allow},
		{"customer on admin route", signedIn("ROLE_CUSTOMER"), session.RoleAdmin, RedirectToHome},
		{"no roles on admin route", signedIn(), session.RoleAdmin, RedirectToHome},
		{"admin on admin route", signedIn("ROLE_CUSTOMER", session.RoleAdmin), session.RoleAdmin, Allow},
		{"unknown capability", signedIn(session.RoleAdmin), "ROLE_SUPPORT", RedirectToHome},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Decide(tc.sess, tc.required))
		})
	}
}

func TestDecisionString(t *testing.T) {
	assert.Equal(t, "Allow", Allow.String())
	assert.Equal(t, "RedirectToLogin", RedirectToLogin.String())
	assert.Equal(t, "RedirectToHome", RedirectToHome.String())
	assert.Equal(t, "Unknown", Decision(9).String())
}

func TestMiddleware(t *testing.T) {
	current := session.Session{}
	lookup := func(*http.Request) session.Session { return current }

	r := chi.NewRouter()
	r.With(RequireSignIn(lookup)).Get("/cart", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.With(RequireRole(lookup, session.RoleAdmin)).Get("/admin", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	do := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := do("/cart")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, LoginPath, rec.Header().Get("Location"))

	current = signedIn("ROLE_CUSTOMER")
	assert.Equal(t, http.StatusOK, do("/cart").Code)

	rec = do("/admin")
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, HomePath, rec.Header().Get("Location"))

	// evaluated per request, not cached
	current = signedIn(session.RoleAdmin)
	assert.Equal(t, http.StatusOK, do("/admin").Code)

	current = session.Session{}
	assert.Equal(t, LoginPath, do("/admin").Header().Get("Location"))
}
