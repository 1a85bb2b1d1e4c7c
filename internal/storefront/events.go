package storefront

import (
	"context"
	"encoding/json"
	"log/slog"

	kafkax "github.com/ariefcatur/go-storefront.git/internal/kafka"
	"github.com/ariefcatur/go-storefront.git/internal/redisx"
	"github.com/ariefcatur/go-storefront.git/internal/shop"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// ProductEvents keeps the storefront in step with catalog writes made anywhere:
// cached listings are dropped and open carts pick up the new product data.
type ProductEvents struct {
	Registry *Registry
	Redis    redis.Cmdable
	Catalog  CatalogCache
	Service  string
	Log      *slog.Logger
}

// HandleProductChanged is installed as the consumer handler.
func (h *ProductEvents) HandleProductChanged(ctx context.Context, m kafkago.Message) error {
	var env shop.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != shop.EventProductChanged {
		return nil
	}
	p, err := kafkax.UnwrapPayload[shop.ProductChangedPayload](env.Payload)
	if err != nil {
		return err
	}

	seen, err := redisx.MarkSeen(ctx, h.Redis, h.Service, env.EventID)
	if err != nil {
		return err
	}
	if seen {
		return nil
	}

	if h.Catalog != nil {
		if err := h.Catalog.Invalidate(ctx); err != nil {
			h.logger().Warn("catalog cache invalidate failed", "err", err)
		}
	}
	h.Registry.Each(func(c *Client) {
		c.Cart.RefreshProduct(p.Product)
	})
	h.logger().Info("product change applied", "event_id", env.EventID, "product_id", p.Product.ID, "action", p.Action)
	return nil
}

func (h *ProductEvents) logger() *slog.Logger {
	if h.Log != nil {
		return h.Log
	}
	return slog.Default()
}
