package storefront

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ariefcatur/go-storefront.git/internal/cart"
	"github.com/ariefcatur/go-storefront.git/internal/session"
)

// Deps wires new clients. Carts and Catalog are optional: a nil Carts keeps
// carts in memory only and a nil Catalog sends every listing to the backend.
type Deps struct {
	Gateway     GatewayFactory
	Tokens      Tokens
	Carts       Carts
	Catalog     CatalogCache
	CartOptions []cart.Option
	Log         *slog.Logger
}

// Registry owns one Client per browser client id.
type Registry struct {
	deps Deps
	now  func() time.Time

	mu      sync.Mutex
	clients map[string]*Client
}

func NewRegistry(d Deps) *Registry {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	return &Registry{deps: d, now: time.Now, clients: map[string]*Client{}}
}

// Client returns the client for id, creating it on first use. Restore runs on
// every call until it succeeds, so a client that met a transient failure picks
// its session up on a later request.
func (r *Registry) Client(ctx context.Context, id string) *Client {
	r.mu.Lock()
	c, ok := r.clients[id]
	if !ok {
		c = r.build(id)
		r.clients[id] = c
	}
	r.mu.Unlock()

	c.touch(r.now())
	if err := c.Restore(ctx); err != nil {
		c.log.Warn("session restore failed", "err", err)
	}
	return c
}

func (r *Registry) build(id string) *Client {
	log := r.deps.Log.With("client_id", id)
	gw := r.deps.Gateway(id)
	c := &Client{
		ID:      id,
		Session: session.NewStore(),
		Cart:    cart.NewStore(r.deps.CartOptions...),
		gw:      gw,
		tokens:  r.deps.Tokens,
		carts:   r.deps.Carts,
		catalog: r.deps.Catalog,
		log:     log,
	}
	c.dash = &Dashboard{gw: gw, after: c.invalidateCatalog, log: log}
	return c
}

// Each calls fn for every live client.
func (r *Registry) Each(fn func(*Client)) {
	r.mu.Lock()
	clients := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	r.mu.Unlock()

	for _, c := range clients {
		fn(c)
	}
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.clients)
}

// Sweep forgets clients idle for longer than idle. Their token, and their cart
// when carts are persisted, stay in Redis and are restored on the next request.
// Without cart persistence a client holding a non-empty cart is kept.
func (r *Registry) Sweep(idle time.Duration) int {
	cutoff := r.now().Add(-idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, c := range r.clients {
		if r.deps.Carts == nil && len(c.Cart.Snapshot().Lines) > 0 {
			continue
		}
		if c.idleSince().Before(cutoff) {
			delete(r.clients, id)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, every, idle time.Duration) error {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			if n := r.Sweep(idle); n > 0 {
				r.deps.Log.Debug("swept idle clients", "count", n)
			}
		}
	}
}
