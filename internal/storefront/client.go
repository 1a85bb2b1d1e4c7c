package storefront

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ariefcatur/go-storefront.git/internal/cart"
	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-storefront.git/internal/gateway"
	"github.com/ariefcatur/go-storefront.git/internal/redisx"
	"github.com/ariefcatur/go-storefront.git/internal/session"
)

const (
	MsgLoginFailed        = "Invalid username or password"
	MsgRegisterFailed     = "Registration failed. Please try again."
	MsgProfileFailed      = "Failed to update profile"
	MsgBackendUnavailable = "The store is unreachable right now. Please try again."
)

var ErrNotSignedIn = errors.New("not signed in")

// persistTimeout bounds the Redis writes made from store listeners.
const persistTimeout = 2 * time.Second

// Client is one browser client: its session, its cart and the gateway that
// speaks for it. Views dispatch intents here and render store snapshots.
type Client struct {
	ID      string
	Session *session.Store
	Cart    *cart.Store

	gw      Gateway
	tokens  Tokens
	carts   Carts
	catalog CatalogCache
	log     *slog.Logger
	dash    *Dashboard

	restoreMu sync.Mutex
	restored  bool
	cartOnce  sync.Once
	hookOnce  sync.Once

	lastSeen time.Time
	seenMu   sync.Mutex
}

func (c *Client) touch(now time.Time) {
	c.seenMu.Lock()
	c.lastSeen = now
	c.seenMu.Unlock()
}

func (c *Client) idleSince() time.Time {
	c.seenMu.Lock()
	defer c.seenMu.Unlock()
	return c.lastSeen
}

// Restore rehydrates the client from persisted state. Cart lines are loaded
// once. The session is retried on every call until it settles: the persisted
// token was exchanged for the current profile, there was none, or the backend
// rejected it and it was discarded.
func (c *Client) Restore(ctx context.Context) error {
	c.restoreMu.Lock()
	defer c.restoreMu.Unlock()
	if c.restored {
		return nil
	}

	c.cartOnce.Do(func() { c.restoreCart(ctx) })
	err := c.restoreSession(ctx)
	c.hookOnce.Do(func() { c.Session.OnChange(c.saveToken) })
	if err != nil {
		return err
	}
	c.restored = true
	return nil
}

func (c *Client) restoreCart(ctx context.Context) {
	if c.carts == nil {
		return
	}
	lines, err := c.carts.Load(ctx, c.ID)
	if err != nil {
		c.log.Warn("cart restore failed", "err", err)
	} else if len(lines) > 0 {
		c.Cart.Restore(lines)
	}
	c.Cart.OnChange(c.saveCart)
}

func (c *Client) restoreSession(ctx context.Context) error {
	if c.Session.Snapshot().SignedIn() {
		return nil
	}
	tok, err := c.tokens.Get(ctx, c.ID)
	if err != nil || tok == "" {
		return err
	}
	p, err := c.gw.FetchProfile(ctx)
	switch {
	case errors.Is(err, gateway.ErrAuthRejected):
		c.log.Info("discarding rejected token")
		return c.tokens.Delete(ctx, c.ID)
	case err != nil:
		return err
	}
	// a login that finished meanwhile wins
	if !c.Session.Snapshot().SignedIn() {
		c.Session.AuthSucceeded(p, tok)
	}
	return nil
}

func (c *Client) saveToken(s session.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	var err error
	if s.Token != "" {
		err = c.tokens.Put(ctx, c.ID, s.Token)
	} else if !s.Pending {
		err = c.tokens.Delete(ctx, c.ID)
	}
	if err != nil {
		c.log.Error("token persist failed", "err", err)
	}
}

func (c *Client) saveCart(snap cart.Cart) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := c.carts.Save(ctx, c.ID, snap); err != nil {
		c.log.Error("cart persist failed", "err", err)
	}
}

// Login validates the form, then runs the auth round trip through the session
// store. Every backend rejection is reported with the same message.
func (c *Client) Login(ctx context.Context, f LoginForm) error {
	if err := f.Validate(); err != nil {
		return err
	}
	c.Session.BeginAuth()
	res, err := c.gw.Authenticate(ctx, f.Username, f.Password)
	if err == nil {
		err = checkAuth(res)
	}
	if err != nil {
		msg := MsgLoginFailed
		if errors.Is(err, gateway.ErrUnavailable) {
			msg = MsgBackendUnavailable
		}
		c.Session.AuthFailed(msg)
		return err
	}
	c.Session.AuthSucceeded(res.User, res.Token)
	c.log.Info("signed in", "user_id", res.User.ID)
	return nil
}

// Register creates the account and signs the client in. The backend's own
// message is shown when it sent one.
func (c *Client) Register(ctx context.Context, f RegisterForm) error {
	if err := f.Validate(); err != nil {
		return err
	}
	c.Session.BeginAuth()
	res, err := c.gw.CreateAccount(ctx, f.Username, f.Email, f.Password)
	if err == nil {
		err = checkAuth(res)
	}
	if err != nil {
		msg := gateway.MessageOf(err)
		if msg == "" {
			msg = MsgRegisterFailed
		}
		c.Session.AuthFailed(msg)
		return err
	}
	c.Session.AuthSucceeded(res.User, res.Token)
	c.log.Info("registered", "user_id", res.User.ID)
	return nil
}

// checkAuth turns a success response that names no user or token into a
// backend failure.
func checkAuth(res gateway.AuthResult) error {
	if res.Complete() {
		return nil
	}
	return &gateway.Error{Kind: gateway.KindUnavailable, Err: errIncompleteAuth}
}

var errIncompleteAuth = errors.New("auth response without token or user")

func (c *Client) Logout() {
	c.Session.EndSession()
}

func (c *Client) Profile(ctx context.Context) (session.Principal, error) {
	if !c.Session.Snapshot().SignedIn() {
		return session.Principal{}, ErrNotSignedIn
	}
	return c.gw.FetchProfile(ctx)
}

// UpdateProfile saves the email and refreshes the signed-in principal.
func (c *Client) UpdateProfile(ctx context.Context, f ProfileForm) (session.Principal, error) {
	if err := f.Validate(); err != nil {
		return session.Principal{}, err
	}
	snap := c.Session.Snapshot()
	if !snap.SignedIn() {
		return session.Principal{}, ErrNotSignedIn
	}
	p, err := c.gw.UpdateProfile(ctx, gateway.ProfileUpdate{Email: f.Email})
	if err != nil {
		return session.Principal{}, err
	}
	c.Session.AuthSucceeded(p, snap.Token)
	return p, nil
}

// Products lists the active catalog, optionally narrowed by category or brand
// (category wins when both are given).
func (c *Client) Products(ctx context.Context, category, brand string) ([]catalog.Product, error) {
	variant, fetch := redisx.VariantAll(), c.gw.FetchProducts
	switch {
	case category != "":
		variant = redisx.VariantCategory(category)
		fetch = func(ctx context.Context) ([]catalog.Product, error) { return c.gw.FetchByCategory(ctx, category) }
	case brand != "":
		variant = redisx.VariantBrand(brand)
		fetch = func(ctx context.Context) ([]catalog.Product, error) { return c.gw.FetchByBrand(ctx, brand) }
	}
	if c.catalog == nil {
		return fetch(ctx)
	}
	return c.catalog.Load(ctx, variant, fetch)
}

func (c *Client) Product(ctx context.Context, id int64) (catalog.Product, error) {
	return c.gw.FetchProduct(ctx, id)
}

// AddToCart looks the product up so the line carries the backend's price and
// stock, then merges it into the cart.
func (c *Client) AddToCart(ctx context.Context, productID int64, quantity int) (cart.Cart, error) {
	if quantity <= 0 {
		return c.Cart.Snapshot(), nil
	}
	p, err := c.gw.FetchProduct(ctx, productID)
	if err != nil {
		return cart.Cart{}, err
	}
	if !p.Active {
		return cart.Cart{}, &gateway.Error{Kind: gateway.KindNotFound, Status: http.StatusNotFound, Message: "Product is no longer available"}
	}
	c.Cart.AddItem(p, quantity)
	return c.Cart.Snapshot(), nil
}

// Dashboard returns the admin mirror for this client.
func (c *Client) Dashboard() *Dashboard { return c.dash }

func (c *Client) invalidateCatalog(ctx context.Context) {
	if c.catalog == nil {
		return
	}
	if err := c.catalog.Invalidate(ctx); err != nil {
		c.log.Warn("catalog cache invalidate failed", "err", err)
	}
}
