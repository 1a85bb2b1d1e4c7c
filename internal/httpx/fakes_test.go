package httpx

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-storefront.git/internal/shop"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

type memUsers struct {
	mu   sync.Mutex
	rows []shop.User
}

func (m *memUsers) find(match func(shop.User) bool) (int, bool) {
	for i, u := range m.rows {
		if match(u) {
			return i, true
		}
	}
	return -1, false
}

func (m *memUsers) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows), nil
}

func (m *memUsers) ExistsByUsername(_ context.Context, username string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.find(func(u shop.User) bool { return u.Username == username })
	return ok, nil
}

func (m *memUsers) ExistsByEmail(_ context.Context, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.find(func(u shop.User) bool { return u.Email == email })
	return ok, nil
}

func (m *memUsers) Create(_ context.Context, u shop.User) (shop.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u.ID = int64(len(m.rows) + 1)
	u.CreatedAt = time.Now()
	m.rows = append(m.rows, u)
	return u, nil
}

func (m *memUsers) ByUsername(_ context.Context, username string) (shop.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.find(func(u shop.User) bool { return u.Username == username }); ok {
		return m.rows[i], nil
	}
	return shop.User{}, shop.ErrNotFound
}

func (m *memUsers) ByID(_ context.Context, id int64) (shop.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.find(func(u shop.User) bool { return u.ID == id }); ok {
		return m.rows[i], nil
	}
	return shop.User{}, shop.ErrNotFound
}

func (m *memUsers) UpdateEmail(_ context.Context, id int64, email string) (shop.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.find(func(u shop.User) bool { return u.ID == id })
	if !ok {
		return shop.User{}, shop.ErrNotFound
	}
	m.rows[i].Email = email
	return m.rows[i], nil
}

type memProducts struct {
	mu   sync.Mutex
	rows []catalog.Product
}

func (m *memProducts) active(keep func(catalog.Product) bool) []catalog.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []catalog.Product{}
	for _, p := range m.rows {
		if p.Active && keep(p) {
			out = append(out, p)
		}
	}
	return out
}

func (m *memProducts) ListActive(context.Context) ([]catalog.Product, error) {
	return m.active(func(catalog.Product) bool { return true }), nil
}

func (m *memProducts) ListByCategory(_ context.Context, c string) ([]catalog.Product, error) {
	return m.active(func(p catalog.Product) bool { return p.Category == c }), nil
}

func (m *memProducts) ListByBrand(_ context.Context, b string) ([]catalog.Product, error) {
	return m.active(func(p catalog.Product) bool { return p.Brand == b }), nil
}

func (m *memProducts) ByID(_ context.Context, id int64) (catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id < 1 || int(id) > len(m.rows) {
		return catalog.Product{}, shop.ErrNotFound
	}
	return m.rows[id-1], nil
}

func (m *memProducts) Create(_ context.Context, p catalog.Product) (catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = int64(len(m.rows) + 1)
	m.rows = append(m.rows, p)
	return p, nil
}

func (m *memProducts) Update(_ context.Context, id int64, p catalog.Product) (catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id < 1 || int(id) > len(m.rows) {
		return catalog.Product{}, shop.ErrNotFound
	}
	p.ID = id
	m.rows[id-1] = p
	return p, nil
}

func (m *memProducts) Deactivate(_ context.Context, id int64) (catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id < 1 || int(id) > len(m.rows) {
		return catalog.Product{}, shop.ErrNotFound
	}
	m.rows[id-1].Active = false
	return m.rows[id-1], nil
}

// newBackend serves the /api routes over in-memory repositories.
func newBackend(t *testing.T) (*httptest.Server, *memProducts) {
	t.Helper()
	products := &memProducts{}
	jwtm := shop.NewJWTManager("catalog-api", "test-secret", time.Hour)
	h := &APIHandler{
		Service: &shop.Service{Users: &memUsers{}, Products: products, Tokens: jwtm, Log: quiet},
		Tokens:  jwtm,
	}
	r := NewRouter(quiet)
	h.Register(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, products
}
