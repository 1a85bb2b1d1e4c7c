package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/ariefcatur/go-storefront.git/internal/config"
	"github.com/ariefcatur/go-storefront.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-storefront.git/internal/kafka"
	"github.com/ariefcatur/go-storefront.git/internal/logger"
	"github.com/ariefcatur/go-storefront.git/internal/postgres"
	"github.com/ariefcatur/go-storefront.git/internal/shop"
	"github.com/ariefcatur/go-storefront.git/internal/shutdown"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log := logger.New(logger.Options{Service: cfg.ServiceName, Env: cfg.Env, Level: cfg.LogLevel})

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PostgresMaxConns)
	if err != nil {
		log.Error("db connect", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := postgres.Migrate(ctx, db); err != nil {
		log.Error("db migrate", "err", err)
		os.Exit(1)
	}

	// Producer runs on its own context so it can flush after the HTTP server drains.
	pctx, pcancel := context.WithCancel(context.Background())
	prod := kafkax.NewProducer(cfg.KafkaBrokers, shop.TopicProductChanged, 1024, log)
	prod.Start(pctx)

	jwtm := shop.NewJWTManager(cfg.ServiceName, cfg.JWTSecret, cfg.TokenTTL)
	svc := &shop.Service{
		Users:    &shop.UserRepo{DB: db},
		Products: &shop.ProductRepo{DB: db},
		Tokens:   jwtm,
		Events:   shop.NewKafkaEvents(prod, cfg.ServiceName),
		Log:      log,
	}

	router := httpx.NewRouter(log)
	ah := &httpx.APIHandler{Service: svc, Tokens: jwtm}
	ah.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	log.Info("http listening", "addr", cfg.HTTPAddr)
	werr := shutdown.Serve(ctx, srv, 5*time.Second)
	pcancel()
	prod.WaitClosed()
	if werr != nil {
		log.Error("catalog-api exited", "err", werr)
		os.Exit(1)
	}
	log.Info("catalog-api stopped")
}
