package storefront

import (
	"context"

	"github.com/ariefcatur/go-storefront.git/internal/cart"
	"github.com/ariefcatur/go-storefront.git/internal/catalog"
	"github.com/ariefcatur/go-storefront.git/internal/gateway"
	"github.com/ariefcatur/go-storefront.git/internal/session"
)

// Gateway is the remote catalog/account API as seen by one browser client.
type Gateway interface {
	Authenticate(ctx context.Context, username, password string) (gateway.AuthResult, error)
	CreateAccount(ctx context.Context, username, email, password string) (gateway.AuthResult, error)
	FetchProducts(ctx context.Context) ([]catalog.Product, error)
	FetchProduct(ctx context.Context, id int64) (catalog.Product, error)
	FetchByCategory(ctx context.Context, category string) ([]catalog.Product, error)
	FetchByBrand(ctx context.Context, brand string) ([]catalog.Product, error)
	CreateProduct(ctx context.Context, p catalog.Product) (catalog.Product, error)
	UpdateProduct(ctx context.Context, id int64, p catalog.Product) (catalog.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	FetchProfile(ctx context.Context) (session.Principal, error)
	UpdateProfile(ctx context.Context, u gateway.ProfileUpdate) (session.Principal, error)
}

// GatewayFactory builds a gateway that authenticates as clientID.
type GatewayFactory func(clientID string) Gateway

// Tokens persists one bearer token per client.
type Tokens interface {
	Get(ctx context.Context, clientID string) (string, error)
	Put(ctx context.Context, clientID, token string) error
	Delete(ctx context.Context, clientID string) error
}

// Carts persists cart lines per client.
type Carts interface {
	Load(ctx context.Context, clientID string) ([]cart.Line, error)
	Save(ctx context.Context, clientID string, c cart.Cart) error
}

// CatalogCache caches product listings by variant.
type CatalogCache interface {
	Load(ctx context.Context, variant string, fetch func(context.Context) ([]catalog.Product, error)) ([]catalog.Product, error)
	Invalidate(ctx context.Context) error
}
