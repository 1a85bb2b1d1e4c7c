package storefront

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/ariefcatur/go-storefront.git/internal/catalog"
)

// Dashboard is the admin's local mirror of the catalog. After every create,
// update or delete the mirror is re-fetched, whether the write succeeded or not,
// so a stale id never lingers on screen.
type Dashboard struct {
	gw    Gateway
	after func(context.Context)
	log   *slog.Logger

	mu       sync.Mutex
	products []catalog.Product
}

func NewDashboard(gw Gateway, log *slog.Logger) *Dashboard {
	if log == nil {
		log = slog.Default()
	}
	return &Dashboard{gw: gw, log: log}
}

// Products is a copy of the last fetched list.
func (d *Dashboard) Products() []catalog.Product {
	d.mu.Lock()
	defer d.mu.Unlock()
	return slices.Clone(d.products)
}

// Refresh replaces the mirror with the backend's current list. On failure the
// previous mirror is kept.
func (d *Dashboard) Refresh(ctx context.Context) ([]catalog.Product, error) {
	ps, err := d.gw.FetchProducts(ctx)
	if err != nil {
		d.log.Warn("dashboard refresh failed", "err", err)
		return d.Products(), err
	}
	d.mu.Lock()
	d.products = slices.Clone(ps)
	d.mu.Unlock()
	return ps, nil
}

// Save creates p when id is zero and overwrites product id otherwise. Form
// validation failures never reach the backend.
func (d *Dashboard) Save(ctx context.Context, id int64, p catalog.Product) (catalog.Product, error) {
	if err := catalog.Validate(p); err != nil {
		return catalog.Product{}, err
	}
	var (
		out catalog.Product
		err error
	)
	if id == 0 {
		out, err = d.gw.CreateProduct(ctx, p)
	} else {
		out, err = d.gw.UpdateProduct(ctx, id, p)
	}
	d.settle(ctx)
	return out, err
}

func (d *Dashboard) Delete(ctx context.Context, id int64) error {
	err := d.gw.DeleteProduct(ctx, id)
	d.settle(ctx)
	return err
}

func (d *Dashboard) settle(ctx context.Context) {
	if d.after != nil {
		d.after(ctx)
	}
	_, _ = d.Refresh(ctx)
}
