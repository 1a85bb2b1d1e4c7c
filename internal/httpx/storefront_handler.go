package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ariefcatur/go-storefront.git/internal/cart"
	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-storefront.git/internal/gateway"
	"github.com/ariefcatur/go-storefront.git/internal/guard"
	"github.com/ariefcatur/go-storefront.git/internal/logger"
	"github.com/ariefcatur/go-storefront.git/internal/session"
	"github.com/ariefcatur/go-storefront.git/internal/storefront"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	ClientCookie    = "sf_client"
	clientCookieAge = 30 * 24 * time.Hour
)

// StorefrontHandler serves the browser-facing views. Each request is bound to
// one storefront.Client through the client cookie.
type StorefrontHandler struct {
	Registry     *storefront.Registry
	SecureCookie bool
}

type clientKey struct{}

func (h *StorefrontHandler) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.bindClient)

		r.Get("/", h.home)
		r.Get("/products", h.listProducts)
		r.Get("/products/{id}", h.getProduct)
		r.Get("/login", h.session)
		r.Post("/login", h.login)
		r.Post("/register", h.register)
		r.Post("/logout", h.logout)
		r.Get("/session", h.session)

		r.Group(func(r chi.Router) {
			r.Use(guard.RequireSignIn(sessionOf))
			r.Get("/cart", h.getCart)
			r.Post("/cart/items", h.addItem)
			r.Patch("/cart/items/{id}", h.setQuantity)
			r.Delete("/cart/items/{id}", h.removeItem)
			r.Delete("/cart", h.clearCart)
			r.Get("/profile", h.getProfile)
			r.Put("/profile", h.updateProfile)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(guard.RequireRole(sessionOf, session.RoleAdmin))
			r.Get("/products", h.adminList)
			r.Post("/products", h.adminCreate)
			r.Put("/products/{id}", h.adminUpdate)
			r.Delete("/products/{id}", h.adminDelete)
		})
	})
}

// bindClient resolves the client cookie, issuing a fresh id on first visit.
func (h *StorefrontHandler) bindClient(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(ClientCookie); err == nil {
			if _, err := uuid.Parse(c.Value); err == nil {
				id = c.Value
			}
		}
		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     ClientCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   int(clientCookieAge / time.Second),
				HttpOnly: true,
				Secure:   h.SecureCookie,
				SameSite: http.SameSiteLaxMode,
			})
		}
		ctx := logger.With(r.Context(), "client_id", id)
		c := h.Registry.Client(ctx, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(ctx, clientKey{}, c)))
	})
}

func clientOf(r *http.Request) *storefront.Client {
	return r.Context().Value(clientKey{}).(*storefront.Client)
}

func sessionOf(r *http.Request) session.Session {
	return clientOf(r).Session.Snapshot()
}

type sessionView struct {
	session.Session
	Status    session.Status `json:"status"`
	CartCount int            `json:"cartCount"`
}

func viewSession(c *storefront.Client) sessionView {
	s := c.Session.Snapshot()
	return sessionView{Session: s, Status: session.StatusOf(s), CartCount: c.Cart.Snapshot().Count()}
}

type lineView struct {
	Product  catalog.Product `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal string          `json:"subtotal"`
}

type cartView struct {
	Lines []lineView `json:"lines"`
	Total string     `json:"total"`
	Count int        `json:"count"`
}

func viewCart(c cart.Cart) cartView {
	v := cartView{Lines: make([]lineView, 0, len(c.Lines)), Total: c.TotalText(), Count: c.Count()}
	for _, l := range c.Lines {
		v.Lines = append(v.Lines, lineView{Product: l.Product, Quantity: l.Quantity, Subtotal: l.Subtotal().StringFixed(2)})
	}
	return v
}

func (h *StorefrontHandler) home(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c := clientOf(r)
	ps, err := c.Products(ctx, "", "")
	if err != nil {
		failView(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"session": viewSession(c), "products": ps})
}

func (h *StorefrontHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	q := r.URL.Query()
	ps, err := clientOf(r).Products(ctx, q.Get("category"), q.Get("brand"))
	if err != nil {
		failView(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *StorefrontHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := clientOf(r).Product(ctx, id)
	if err != nil {
		failView(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *StorefrontHandler) login(w http.ResponseWriter, r *http.Request) {
	var f storefront.LoginForm
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	c := clientOf(r)
	if err := c.Login(ctx, f); err != nil {
		failAuth(w, r, c, err)
		return
	}
	writeJSON(w, http.StatusOK, viewSession(c))
}

func (h *StorefrontHandler) register(w http.ResponseWriter, r *http.Request) {
	var f storefront.RegisterForm
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	c := clientOf(r)
	if err := c.Register(ctx, f); err != nil {
		failAuth(w, r, c, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewSession(c))
}

func (h *StorefrontHandler) logout(w http.ResponseWriter, r *http.Request) {
	c := clientOf(r)
	c.Logout()
	writeJSON(w, http.StatusOK, viewSession(c))
}

func (h *StorefrontHandler) session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, viewSession(clientOf(r)))
}

func (h *StorefrontHandler) getCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, viewCart(clientOf(r).Cart.Snapshot()))
}

func (h *StorefrontHandler) addItem(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProductID int64 `json:"productId"`
		Quantity  int   `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	snap, err := clientOf(r).AddToCart(ctx, req.ProductID, req.Quantity)
	if err != nil {
		failView(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewCart(snap))
}

func (h *StorefrontHandler) setQuantity(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	c := clientOf(r)
	c.Cart.SetQuantity(id, req.Quantity)
	writeJSON(w, http.StatusOK, viewCart(c.Cart.Snapshot()))
}

func (h *StorefrontHandler) removeItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c := clientOf(r)
	c.Cart.RemoveItem(id)
	writeJSON(w, http.StatusOK, viewCart(c.Cart.Snapshot()))
}

func (h *StorefrontHandler) clearCart(w http.ResponseWriter, r *http.Request) {
	c := clientOf(r)
	c.Cart.Clear()
	writeJSON(w, http.StatusOK, viewCart(c.Cart.Snapshot()))
}

func (h *StorefrontHandler) getProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := clientOf(r).Profile(ctx)
	if err != nil {
		failView(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *StorefrontHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	var f storefront.ProfileForm
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := clientOf(r).UpdateProfile(ctx, f)
	var vErr *catalog.ValidationError
	switch {
	case errors.As(err, &vErr):
		failView(w, r, err)
		return
	case err != nil:
		writeError(w, statusOf(err), storefront.MsgProfileFailed)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *StorefrontHandler) adminList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	ps, err := clientOf(r).Dashboard().Refresh(ctx)
	if err != nil {
		failView(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *StorefrontHandler) adminCreate(w http.ResponseWriter, r *http.Request) {
	h.adminSave(w, r, 0)
}

func (h *StorefrontHandler) adminUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.adminSave(w, r, id)
}

func (h *StorefrontHandler) adminSave(w http.ResponseWriter, r *http.Request, id int64) {
	var body productBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	d := clientOf(r).Dashboard()
	p, err := d.Save(ctx, id, body.product())
	if err != nil {
		failView(w, r, err)
		return
	}
	code := http.StatusOK
	if id == 0 {
		code = http.StatusCreated
	}
	writeJSON(w, code, map[string]any{"product": p, "products": d.Products()})
}

func (h *StorefrontHandler) adminDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	d := clientOf(r).Dashboard()
	if err := d.Delete(ctx, id); err != nil {
		failView(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": d.Products()})
}

// failAuth reports a login/register failure with the message the session store
// recorded, so the view and the store agree.
func failAuth(w http.ResponseWriter, r *http.Request, c *storefront.Client, err error) {
	var vErr *catalog.ValidationError
	if errors.As(err, &vErr) {
		failView(w, r, err)
		return
	}
	writeError(w, statusOf(err), c.Session.Snapshot().Error)
}

func failView(w http.ResponseWriter, r *http.Request, err error) {
	var vErr *catalog.ValidationError
	if errors.As(err, &vErr) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": vErr.Error(), "fields": vErr.Fields})
		return
	}
	code := statusOf(err)
	if code >= http.StatusInternalServerError {
		logger.From(r.Context()).Error("view failed", "path", r.URL.Path, "err", err)
	}
	msg := gateway.MessageOf(err)
	if msg == "" {
		msg = http.StatusText(code)
	}
	writeError(w, code, msg)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, storefront.ErrNotSignedIn), errors.Is(err, gateway.ErrAuthRejected):
		return http.StatusUnauthorized
	case errors.Is(err, gateway.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, gateway.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, gateway.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, gateway.ErrRejected):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
