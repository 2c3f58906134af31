package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/capycoin/perkstore/internal/auth"
	"github.com/capycoin/perkstore/internal/cart"
	"github.com/capycoin/perkstore/internal/catalog"
	"github.com/capycoin/perkstore/internal/config"
	"github.com/capycoin/perkstore/internal/credits"
	"github.com/capycoin/perkstore/internal/db"
	"github.com/capycoin/perkstore/internal/es"
	"github.com/capycoin/perkstore/internal/events"
	"github.com/capycoin/perkstore/internal/httpserver"
	"github.com/capycoin/perkstore/internal/inventory"
	"github.com/capycoin/perkstore/internal/logging"
	loggingmw "github.com/capycoin/perkstore/internal/middleware/logging"
	"github.com/capycoin/perkstore/internal/orders"
	"github.com/capycoin/perkstore/internal/redisx"
	"github.com/capycoin/perkstore/internal/search"
	"github.com/capycoin/perkstore/internal/users"
)

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmptyBytes(cfg.JWTRefreshSecret, "JWT_REFRESH_SECRET")

	logger := logging.New(os.Getenv("LOG_LEVEL")).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	var publisher events.Publisher = events.Nop{}
	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers, cfg.ServiceName)
		publisher = producer
	} else {
		logger.Warn("kafka brokers not configured, events disabled")
	}

	var productSearch *search.ES
	var indexer catalog.Indexer
	if cfg.ESURL != "" {
		esClient, err := es.NewClient(cfg)
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		productSearch = search.NewES(esClient)
		indexer = productSearch
	} else {
		logger.Warn("elasticsearch not configured, product search disabled")
	}

	var idem *redisx.Idempotency
	if cfg.RedisAddr != "" {
		idem = &redisx.Idempotency{RDB: redisx.NewClient(cfg.RedisAddr)}
	} else {
		logger.Warn("redis not configured, order idempotency disabled")
	}

	creditSvc := credits.NewService(gdb, publisher)
	orderSvc := orders.NewService(gdb, publisher)
	catalogSvc := catalog.NewService(gdb, publisher, indexer)
	inventorySvc := inventory.NewService(gdb)
	cartSvc := cart.NewService(gdb, catalogSvc, orderSvc)
	userSvc := users.NewService(gdb)
	authSvc := &auth.Service{
		DB:            gdb,
		Credits:       creditSvc,
		JWTSecret:     cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
	}

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		Auth: &httpserver.AuthHTTP{
			Svc:              authSvc,
			DevLoginEnabled:  !cfg.IsProduction(),
			DemoPasswordHash: cfg.DemoPasswordHash,
		},
		Products: &httpserver.ProductHTTP{Svc: catalogSvc, Inventory: inventorySvc, Search: productSearch},
		Cart:     &httpserver.CartHTTP{Svc: cartSvc},
		Orders:   &httpserver.OrderHTTP{Svc: orderSvc, Idem: idem},
		Credits:  &httpserver.CreditHTTP{Svc: creditSvc},
		Admin: &httpserver.AdminHTTP{
			Catalog:   catalogSvc,
			Orders:    orderSvc,
			Inventory: inventorySvc,
			Credits:   creditSvc,
			Users:     userSvc,
		},
		JWTSecret: cfg.JWTAccessSecret,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		log.Printf("%s listening on %s", cfg.ServiceName, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)

	if producer != nil {
		_ = producer.Close()
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Printf("%s stopped", cfg.ServiceName)
}
