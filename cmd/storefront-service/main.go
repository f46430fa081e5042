package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	cartapp "github.com/dmehra2102/storefront/internal/cart/application"
	carthttp "github.com/dmehra2102/storefront/internal/cart/infrastructure/http"
	catalogapp "github.com/dmehra2102/storefront/internal/catalog/application"
	cataloghttp "github.com/dmehra2102/storefront/internal/catalog/infrastructure/http"
	catalogstore "github.com/dmehra2102/storefront/internal/catalog/infrastructure/recordstore"
	"github.com/dmehra2102/storefront/internal/catalog/infrastructure/seed"
	checkoutapp "github.com/dmehra2102/storefront/internal/checkout/application"
	checkouthttp "github.com/dmehra2102/storefront/internal/checkout/infrastructure/http"
	orderapp "github.com/dmehra2102/storefront/internal/order/application"
	orderhttp "github.com/dmehra2102/storefront/internal/order/infrastructure/http"
	orderkafka "github.com/dmehra2102/storefront/internal/order/infrastructure/kafka"
	ordermemory "github.com/dmehra2102/storefront/internal/order/infrastructure/memory"
	orderpg "github.com/dmehra2102/storefront/internal/order/infrastructure/postgres"
	paymentapp "github.com/dmehra2102/storefront/internal/payment/application"
	"github.com/dmehra2102/storefront/internal/payment/infrastructure/gateway"
	paymentmemory "github.com/dmehra2102/storefront/internal/payment/infrastructure/memory"
	paymentpg "github.com/dmehra2102/storefront/internal/payment/infrastructure/postgres"
	wishlistapp "github.com/dmehra2102/storefront/internal/wishlist/application"
	wishlisthttp "github.com/dmehra2102/storefront/internal/wishlist/infrastructure/http"
	"github.com/dmehra2102/storefront/pkg/health"
	"github.com/dmehra2102/storefront/pkg/idempotency"
	"github.com/dmehra2102/storefront/pkg/kvstore"
	"github.com/dmehra2102/storefront/pkg/logging"
	"github.com/dmehra2102/storefront/pkg/outbox"
	"github.com/dmehra2102/storefront/pkg/recordstore"
	"github.com/dmehra2102/storefront/pkg/shutdown"
	"github.com/dmehra2102/storefront/pkg/tracing"
)

const idempotencyTTL = 24 * time.Hour

func main() {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	log := logging.New(env("LOG_LEVEL", "info"))
	if err := run(log); err != nil {
		log.Error("storefront-service failed", "err", err)
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	ctx, cancel := shutdown.WithSignals(context.Background(), log)
	defer cancel()

	// Configuration
	appName := env("APP_NAME", "vogue-threads")
	httpAddr := env("HTTP_ADDR", ":8080")
	grpcAddr := env("GRPC_ADDR", ":9090")
	dataDir := env("DATA_DIR", "data")
	redisAddr := env("REDIS_ADDR", "")
	pgURL := env("PG_URL", "")
	kafkaAddr := env("KAFKA_ADDR", "")
	outboxTopic := env("OUTBOX_TOPIC", "storefront.events")
	fulfillmentTopic := env("FULFILLMENT_TOPIC", "storefront.fulfillment")
	otelEndpoint := env("OTEL_ENDPOINT", "")
	catalogSeed := env("CATALOG_SEED", "configs/catalog.yaml")
	carrier := env("CARRIER", orderapp.DefaultCarrier)

	shippingFee, err := decimal.NewFromString(env("SHIPPING_FEE", "9.99"))
	if err != nil {
		return errors.New("SHIPPING_FEE: " + err.Error())
	}
	successRate, err := strconv.ParseFloat(env("PAYMENT_SUCCESS_RATE", "0.9"), 64)
	if err != nil {
		return errors.New("PAYMENT_SUCCESS_RATE: " + err.Error())
	}
	paymentDelay, err := time.ParseDuration(env("PAYMENT_DELAY", "0s"))
	if err != nil {
		return errors.New("PAYMENT_DELAY: " + err.Error())
	}
	sessionLimit, err := strconv.Atoi(env("CHECKOUT_SESSIONS", strconv.Itoa(checkoutapp.DefaultSessions)))
	if err != nil {
		return errors.New("CHECKOUT_SESSIONS: " + err.Error())
	}

	tp, err := tracing.Init(ctx, "storefront-service", otelEndpoint, log)
	if err != nil {
		return err
	}
	defer func() { _ = tp.Shutdown(context.Background()) }()

	// Local state and idempotency keys
	var kv kvstore.Store
	var idem idempotency.Keeper
	if redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: redisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return err
		}
		kv = kvstore.NewRedis(rdb)
		idem = idempotency.NewStore(rdb, idempotencyTTL)
		log.Info("using redis", "addr", redisAddr)
	} else {
		file, err := kvstore.NewFile(dataDir)
		if err != nil {
			return err
		}
		kv = file
		idem = idempotency.NewMemory(idempotencyTTL)
		log.Info("using local files", "dir", dataDir)
	}

	// Record store, orders and payments
	var (
		records  recordstore.Client
		orders   orderapp.OrderRepository
		ledger   paymentapp.Ledger
		outboxes *outbox.PostgresStore
	)
	if pgURL != "" {
		pool, err := pgxpool.New(ctx, pgURL)
		if err != nil {
			return err
		}
		defer pool.Close()

		pgRecords := recordstore.NewPostgres(log, pool)
		outboxes = outbox.NewPostgresStore(log, pool)
		pgOrders := orderpg.NewRepository(log, pool)
		pgLedger := paymentpg.NewLedger(log, pool)
		for _, ensure := range []func(context.Context) error{
			pgRecords.EnsureSchema, outboxes.EnsureSchema, pgOrders.EnsureSchema, pgLedger.EnsureSchema,
		} {
			if err := ensure(ctx); err != nil {
				return err
			}
		}
		records, orders, ledger = pgRecords, pgOrders, pgLedger
		log.Info("using postgres")
	} else {
		records, orders, ledger = recordstore.NewMemory(), ordermemory.NewRepository(), paymentmemory.NewLedger()
		log.Warn("PG_URL not set, orders and catalog are kept in memory")
	}

	if catalogSeed != "" {
		if err := seedCatalog(ctx, log, records, catalogSeed); err != nil {
			return err
		}
	}

	// Services
	cart := cartapp.NewService(ctx, log, kv, appName)
	wishlist := wishlistapp.NewService(log, kv, appName)
	products := catalogapp.NewService(catalogstore.NewProductSource(records))
	categories := catalogapp.NewCategoryService(catalogstore.NewCategoryRepository(records))
	payments := paymentapp.NewService(log,
		gateway.NewSimulated(successRate, gateway.WithDelay(paymentDelay)), ledger)
	orderSvc := orderapp.NewService(log, orders, payments, orderapp.WithCarrier(carrier))
	sessions, err := checkoutapp.NewSessions(log, sessionLimit, cart, orderSvc, shippingFee)
	if err != nil {
		return err
	}

	// Outbox relay and fulfillment updates
	if kafkaAddr != "" {
		brokers := []string{kafkaAddr}
		if outboxes != nil {
			writer := orderkafka.NewWriter(brokers)
			defer writer.Close()
			relay := outbox.NewRelay(log, outboxes, outbox.NewDispatcher(log, writer, outboxTopic), "storefront-relay")
			go func() {
				if err := relay.Run(ctx); err != nil {
					log.Error("relay stopped with error", "err", err)
				}
			}()
		}
		consumer := orderkafka.NewConsumer(log,
			orderkafka.NewReader(brokers, fulfillmentTopic, "storefront-fulfillment"), orderSvc, idem)
		go func() {
			if err := consumer.Run(ctx); err != nil {
				log.Error("fulfillment consumer stopped with error", "err", err)
			}
		}()
	}

	// Health
	hs, err := health.Run(grpcAddr)
	if err != nil {
		return err
	}
	defer hs.Stop()
	log.Info("grpc health listening", "addr", hs.Addr())

	// HTTP server
	r := chi.NewRouter()
	catalogHandler := cataloghttp.NewHandler(log, products, categories)
	r.Mount("/cart", carthttp.NewHandler(log, cart).Routes())
	r.Mount("/wishlist", wishlisthttp.NewHandler(log, wishlist).Routes())
	r.Mount("/products", catalogHandler.ProductRoutes())
	r.Mount("/categories", catalogHandler.CategoryRoutes())
	r.Mount("/orders", orderhttp.NewHandler(log, orderSvc, idem).Routes())
	r.Mount("/checkout", checkouthttp.NewHandler(log, sessions, idem).Routes())

	srv := &http.Server{
		Addr:         httpAddr,
		Handler:      otelhttp.NewHandler(r, "storefront"),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10*time.Second + paymentDelay,
	}

	go func() {
		log.Info("http listening", "addr", httpAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
			cancel()
		}
	}()

	<-ctx.Done()
	hs.SetServing("", false)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)
	log.Info("storefront-service shutdown complete")
	return nil
}

func seedCatalog(ctx context.Context, log *slog.Logger, records recordstore.Client, path string) error {
	c, err := seed.LoadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn("catalog seed not found, starting with the stored catalog", "path", path)
		return nil
	}
	if err != nil {
		return err
	}
	return seed.Apply(ctx, log, records, c)
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
