package storefront

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-storefront.git/internal/gateway"
	"github.com/ariefcatur/go-storefront.git/internal/redisx"
	"github.com/ariefcatur/go-storefront.git/internal/session"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeGateway is an in-memory backend. Tokens map to usernames; the token a
// call is made with comes from the TokenSource bound to the client.
type fakeGateway struct {
	mu       sync.Mutex
	products map[int64]catalog.Product
	users    map[string]session.Principal // by token
	nextID   int64
	calls    []string

	failNext error
	// emptyAuth makes login and registration answer 200 with nothing in it.
	emptyAuth bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{products: map[int64]catalog.Product{}, users: map[string]session.Principal{}, nextID: 100}
}

func (f *fakeGateway) seed(p catalog.Product) catalog.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[p.ID] = p
	return p
}

func (f *fakeGateway) record(call string) error {
	f.calls = append(f.calls, call)
	if err := f.failNext; err != nil {
		f.failNext = nil
		return err
	}
	return nil
}

func (f *fakeGateway) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// bound is the per-client view handed out by the factory.
type bound struct {
	*fakeGateway
	token func(context.Context) (string, error)
}

func (f *fakeGateway) factory(tokens Tokens) GatewayFactory {
	return func(clientID string) Gateway {
		return &bound{fakeGateway: f, token: func(ctx context.Context) (string, error) {
			return tokens.Get(ctx, clientID)
		}}
	}
}

func (b *bound) Authenticate(_ context.Context, username, password string) (gateway.AuthResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record("Authenticate"); err != nil || b.emptyAuth {
		return gateway.AuthResult{}, err
	}
	if password != "Secret#123" {
		return gateway.AuthResult{}, &gateway.Error{Kind: gateway.KindAuth, Status: 401, Message: "Bad credentials"}
	}
	roles := session.NewRoleSet("ROLE_CUSTOMER")
	if username == "admin" {
		roles = session.NewRoleSet(session.RoleAdmin)
	}
	p := session.Principal{ID: int64(len(b.users) + 1), Username: username, Email: username + "@example.com", Roles: roles}
	tok := "tok-" + username
	b.users[tok] = p
	return gateway.AuthResult{Token: tok, User: p}, nil
}

func (b *bound) CreateAccount(_ context.Context, username, email, _ string) (gateway.AuthResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record("CreateAccount"); err != nil || b.emptyAuth {
		return gateway.AuthResult{}, err
	}
	for _, u := range b.users {
		if u.Username == username {
			return gateway.AuthResult{}, &gateway.Error{Kind: gateway.KindConflict, Status: 409, Message: "Username already exists"}
		}
	}
	p := session.Principal{ID: int64(len(b.users) + 1), Username: username, Email: email, Roles: session.NewRoleSet("ROLE_CUSTOMER")}
	tok := "tok-" + username
	b.users[tok] = p
	return gateway.AuthResult{Token: tok, User: p}, nil
}

func (b *bound) list(keep func(catalog.Product) bool) []catalog.Product {
	out := []catalog.Product{}
	for _, p := range b.products {
		if p.Active && keep(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (b *bound) FetchProducts(context.Context) ([]catalog.Product, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record("FetchProducts"); err != nil {
		return nil, err
	}
	return b.list(func(catalog.Product) bool { return true }), nil
}

func (b *bound) FetchProduct(_ context.Context, id int64) (catalog.Product, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record("FetchProduct"); err != nil {
		return catalog.Product{}, err
	}
	p, ok := b.products[id]
	if !ok {
		return catalog.Product{}, &gateway.Error{Kind: gateway.KindNotFound, Status: 404}
	}
	return p, nil
}

func (b *bound) FetchByCategory(_ context.Context, c string) ([]catalog.Product, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record("FetchByCategory"); err != nil {
		return nil, err
	}
	return b.list(func(p catalog.Product) bool { return p.Category == c }), nil
}

func (b *bound) FetchByBrand(_ context.Context, brand string) ([]catalog.Product, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record("FetchByBrand"); err != nil {
		return nil, err
	}
	return b.list(func(p catalog.Product) bool { return p.Brand == brand }), nil
}

func (b *bound) CreateProduct(_ context.Context, p catalog.Product) (catalog.Product, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record("CreateProduct"); err != nil {
		return catalog.Product{}, err
	}
	b.nextID++
	p.ID = b.nextID
	b.products[p.ID] = p
	return p, nil
}

func (b *bound) UpdateProduct(_ context.Context, id int64, p catalog.Product) (catalog.Product, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record("UpdateProduct"); err != nil {
		return catalog.Product{}, err
	}
	if _, ok := b.products[id]; !ok {
		return catalog.Product{}, &gateway.Error{Kind: gateway.KindNotFound, Status: 404}
	}
	p.ID = id
	b.products[id] = p
	return p, nil
}

func (b *bound) DeleteProduct(_ context.Context, id int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record("DeleteProduct"); err != nil {
		return err
	}
	p, ok := b.products[id]
	if !ok {
		return &gateway.Error{Kind: gateway.KindNotFound, Status: 404}
	}
	p.Active = false
	b.products[id] = p
	return nil
}

func (b *bound) whoami(ctx context.Context) (string, session.Principal, error) {
	tok, err := b.token(ctx)
	if err != nil {
		return "", session.Principal{}, err
	}
	p, ok := b.users[tok]
	if !ok {
		return "", session.Principal{}, &gateway.Error{Kind: gateway.KindAuth, Status: 401}
	}
	return tok, p, nil
}

func (b *bound) FetchProfile(ctx context.Context) (session.Principal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record("FetchProfile"); err != nil {
		return session.Principal{}, err
	}
	_, p, err := b.whoami(ctx)
	return p, err
}

func (b *bound) UpdateProfile(ctx context.Context, u gateway.ProfileUpdate) (session.Principal, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.record("UpdateProfile"); err != nil {
		return session.Principal{}, err
	}
	tok, p, err := b.whoami(ctx)
	if err != nil {
		return session.Principal{}, err
	}
	p.Email = u.Email
	b.users[tok] = p
	return p, nil
}

func product(id int64, price string, stock int) catalog.Product {
	return catalog.Product{
		ID: id, Name: "Product", Description: "desc", Price: decimal.RequireFromString(price),
		StockQuantity: stock, Category: "Phones", Brand: "Acme", Active: true,
	}
}

type env struct {
	mr     *miniredis.Miniredis
	rdb    *redis.Client
	gw     *fakeGateway
	tokens *redisx.TokenStore
	carts  *redisx.CartStore
	cache  *redisx.CatalogCache
	reg    *Registry
}

func newEnv(t *testing.T, persistCarts bool) *env {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	e := &env{
		mr:     mr,
		rdb:    rdb,
		gw:     newFakeGateway(),
		tokens: &redisx.TokenStore{Redis: rdb},
		carts:  &redisx.CartStore{Redis: rdb},
		cache:  &redisx.CatalogCache{Redis: rdb},
	}
	deps := Deps{Gateway: e.gw.factory(e.tokens), Tokens: e.tokens, Catalog: e.cache, Log: quiet}
	if persistCarts {
		deps.Carts = e.carts
	}
	e.reg = NewRegistry(deps)
	return e
}
