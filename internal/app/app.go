package app

import (
	"context"
	"fmt"

	"github.com/speedsneakers/order-service/internal/config"
	"github.com/speedsneakers/order-service/internal/order/repository/postgres"
	"github.com/speedsneakers/order-service/internal/order/service"
	http "github.com/speedsneakers/order-service/internal/order/transport/http"
	"github.com/speedsneakers/order-service/internal/platform/db"
	server "github.com/speedsneakers/order-service/internal/platform/http"
	"github.com/speedsneakers/order-service/internal/platform/idempotency"
	"github.com/speedsneakers/order-service/internal/platform/log"
	"github.com/speedsneakers/order-service/internal/platform/observability"
	"github.com/speedsneakers/order-service/internal/product"
)

func Run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	observability.InitMetrics()
	shutdownTracer := observability.InitTracing(ctx, logger)
	defer shutdownTracer()

	pool, err := db.NewPostgresPool(ctx, cfg.DatabaseURL())
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer pool.Close()

	tx := db.NewTxManager(pool, logger)
	repo := postgres.New(pool, logger)
	catalog := product.NewClient(cfg.ProductServiceBaseURL, cfg.ProductServiceTimeout, logger)
	svc := service.New(repo, catalog, tx, logger)
	idem := idempotency.NewStore(pool, logger)

	api := http.NewHandler(svc, logger, idem)
	router := http.NewRouter(api, logger,
		http.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		http.WithReadinessPool(pool),
	)

	srv := server.New(router, cfg, logger)

	return srv.Run(ctx)
}
