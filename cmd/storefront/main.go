package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/ariefcatur/go-storefront.git/internal/cart"
	"github.com/ariefcatur/go-storefront.git/internal/config"
	"github.com/ariefcatur/go-storefront.git/internal/gateway"
	"github.com/ariefcatur/go-storefront.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-storefront.git/internal/kafka"
	"github.com/ariefcatur/go-storefront.git/internal/logger"
	"github.com/ariefcatur/go-storefront.git/internal/redisx"
	"github.com/ariefcatur/go-storefront.git/internal/shop"
	"github.com/ariefcatur/go-storefront.git/internal/shutdown"
	"github.com/ariefcatur/go-storefront.git/internal/storefront"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

const (
	sweepEvery = time.Minute
	idleAfter  = 30 * time.Minute
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log := logger.New(logger.Options{Service: cfg.ServiceName, Env: cfg.Env, Level: cfg.LogLevel})

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	tokens := &redisx.TokenStore{Redis: rdb}
	cache := &redisx.CatalogCache{Redis: rdb, TTL: cfg.CatalogCacheTTL}
	api := gateway.New(cfg.APIBaseURL, gateway.WithTimeout(cfg.GatewayTimeout))

	deps := storefront.Deps{
		Gateway: func(clientID string) storefront.Gateway {
			return api.WithTokens(func(ctx context.Context) (string, error) {
				return tokens.Get(ctx, clientID)
			})
		},
		Tokens:  tokens,
		Catalog: cache,
		Log:     log,
	}
	if cfg.CartPersist {
		deps.Carts = &redisx.CartStore{Redis: rdb}
	}
	if cfg.CartClampStock {
		deps.CartOptions = append(deps.CartOptions, cart.WithStockClamp())
	}
	registry := storefront.NewRegistry(deps)

	events := &storefront.ProductEvents{
		Registry: registry,
		Redis:    rdb,
		Catalog:  cache,
		Service:  cfg.ServiceName,
		Log:      log,
	}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroup, shop.TopicProductChanged, cfg.ConsumerWorkers, log)

	router := httpx.NewRouter(log)
	sh := &httpx.StorefrontHandler{Registry: registry, SecureCookie: cfg.Env == "prod"}
	sh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http listening", "addr", cfg.HTTPAddr, "api", cfg.APIBaseURL)
		return shutdown.Serve(gctx, srv, 5*time.Second)
	})
	g.Go(func() error {
		log.Info("consumer started", "group", cfg.KafkaGroup, "topic", shop.TopicProductChanged, "workers", cfg.ConsumerWorkers)
		return cons.Start(gctx, events.HandleProductChanged)
	})
	g.Go(func() error {
		return registry.RunSweeper(gctx, sweepEvery, idleAfter)
	})

	if err := g.Wait(); err != nil {
		log.Error("storefront exited", "err", err)
		os.Exit(1)
	}
	log.Info("storefront stopped")
}
