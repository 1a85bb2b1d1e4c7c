package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-storefront.git/internal/session"
)

// TokenSource returns the bearer token to attach, or "" for an anonymous call.
type TokenSource func(ctx context.Context) (string, error)

// AuthResult is the backend's answer to login and registration.
type AuthResult struct {
	Token string            `json:"token"`
	User  session.Principal `json:"user"`
}

// Complete reports whether the result can sign someone in.
func (r AuthResult) Complete() bool {
	return r.Token != "" && r.User.ID != 0
}

// ProfileUpdate is a partial user; empty fields are left alone by the backend.
type ProfileUpdate struct {
	Email string `json:"email,omitempty"`
}

// Client talks to the catalog/account REST API. It never retries or queues:
// each call is one request and its outcome.
type Client struct {
	base   string
	http   *http.Client
	tokens TokenSource
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http = &http.Client{Timeout: d} }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// New builds a client for baseURL, e.g. "http://localhost:8080/api".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// WithTokens returns a copy of c that authenticates with ts. The underlying
// http.Client is shared.
func (c *Client) WithTokens(ts TokenSource) *Client {
	cp := *c
	cp.tokens = ts
	return &cp
}

func (c *Client) Authenticate(ctx context.Context, username, password string) (AuthResult, error) {
	var out AuthResult
	body := map[string]string{"username": username, "password": password}
	err := c.do(ctx, http.MethodPost, "/auth/login", body, &out)
	return out, err
}

func (c *Client) CreateAccount(ctx context.Context, username, email, password string) (AuthResult, error) {
	var out AuthResult
	body := map[string]string{"username": username, "email": email, "password": password}
	err := c.do(ctx, http.MethodPost, "/auth/register", body, &out)
	return out, err
}

func (c *Client) FetchProducts(ctx context.Context) ([]catalog.Product, error) {
	var out []catalog.Product
	err := c.do(ctx, http.MethodGet, "/products", nil, &out)
	return out, err
}

func (c *Client) FetchProduct(ctx context.Context, id int64) (catalog.Product, error) {
	var out catalog.Product
	err := c.do(ctx, http.MethodGet, productPath(id), nil, &out)
	return out, err
}

func (c *Client) FetchByCategory(ctx context.Context, category string) ([]catalog.Product, error) {
	var out []catalog.Product
	err := c.do(ctx, http.MethodGet, "/products/category/"+url.PathEscape(category), nil, &out)
	return out, err
}

func (c *Client) FetchByBrand(ctx context.Context, brand string) ([]catalog.Product, error) {
	var out []catalog.Product
	err := c.do(ctx, http.MethodGet, "/products/brand/"+url.PathEscape(brand), nil, &out)
	return out, err
}

func (c *Client) CreateProduct(ctx context.Context, p catalog.Product) (catalog.Product, error) {
	var out catalog.Product
	err := c.do(ctx, http.MethodPost, "/products", p, &out)
	return out, err
}

func (c *Client) UpdateProduct(ctx context.Context, id int64, p catalog.Product) (catalog.Product, error) {
	var out catalog.Product
	err := c.do(ctx, http.MethodPut, productPath(id), p, &out)
	return out, err
}

func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, productPath(id), nil, nil)
}

func (c *Client) FetchProfile(ctx context.Context) (session.Principal, error) {
	var out session.Principal
	err := c.do(ctx, http.MethodGet, "/users/profile", nil, &out)
	return out, err
}

func (c *Client) UpdateProfile(ctx context.Context, u ProfileUpdate) (session.Principal, error) {
	var out session.Principal
	err := c.do(ctx, http.MethodPut, "/users/profile", u, &out)
	return out, err
}

var errEmptyBody = errors.New("empty response body")

func productPath(id int64) string {
	return "/products/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		tok, err := c.tokens(ctx)
		if err != nil {
			return &Error{Kind: KindUnavailable, Err: fmt.Errorf("load token: %w", err)}
		}
		if tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindUnavailable, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &Error{
			Kind:    kindFor(resp.StatusCode),
			Status:  resp.StatusCode,
			Message: readMessage(resp.Body),
		}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			err = errEmptyBody
		}
		return &Error{Kind: KindUnavailable, Status: resp.StatusCode, Err: fmt.Errorf("decode %s %s: %w", method, path, err)}
	}
	return nil
}

// readMessage pulls {"error": "..."} (or {"message": "..."}) out of a failure body.
func readMessage(r io.Reader) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(io.LimitReader(r, 64<<10)).Decode(&body); err != nil {
		return ""
	}
	if body.Error != "" {
		return body.Error
	}
	return body.Message
}
