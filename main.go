package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-ordering/internal/analytics"
	"ms-ordering/internal/config"
	"ms-ordering/internal/database/migrations"
	"ms-ordering/internal/kafka"
	"ms-ordering/internal/logger"
	"ms-ordering/internal/menu"
	"ms-ordering/internal/order"
	orderdb "ms-ordering/internal/order/db"
	"ms-ordering/internal/order/order_api"
	"ms-ordering/internal/promo"
	"ms-ordering/internal/realtime"
	"ms-ordering/internal/table"
)

func verifyConnections(ctx context.Context, cfg *config.Config, log *logger.Logger) (*bun.DB, *redis.Client) {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.Database.DSN)
		if err == nil {
			err = sqldb.Ping()
		}
		if err == nil {
			break
		}
		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	log.Info("DATABASE", "PostgreSQL connection successful")
	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("Redis connection successful to %s", cfg.Redis.Addr))

	return bunDB, redisClient
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting ordering service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()

	ctx := context.Background()
	bunDB, redisClient := verifyConnections(ctx, cfg, log)
	defer bunDB.Close()
	defer redisClient.Close()

	runner := migrations.NewRunner(bunDB, migrations.DefaultOptions())
	if err := runner.Up(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
	}
	log.Info("DATABASE", "Migrations applied")

	feed := realtime.NewFeed()

	// The topic is a broadcast channel between instances: each instance
	// consumes under its own group id so every instance sees every event,
	// and stamps its id on outgoing events so it can skip its own echoes.
	instanceID := uuid.NewString()

	var kafkaProducer *kafka.Producer
	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{cfg.Kafka.Topics.OrderEvents}); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		kafkaProducer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.OrderEvents, instanceID)
		defer kafkaProducer.Close()
		log.Info("KAFKA", fmt.Sprintf("Kafka producer initialized (instance %s)", instanceID))

		groupID := cfg.Kafka.GroupID + "-" + instanceID
		consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.Topics.OrderEvents, groupID, instanceID, log)
		defer consumer.Close()
		go consumer.Start(ctx, feed.Publish)
	} else {
		log.Warn("KAFKA", "Kafka disabled, change events stay instance-local")
	}

	menuStore := menu.NewStore(bunDB)
	orderStore := &orderdb.DB{Bun: bunDB}

	var orderService *order.OrderService
	if kafkaProducer != nil {
		orderService = order.NewOrderService(orderStore, menuStore, feed, kafkaProducer, log)
	} else {
		orderService = order.NewOrderService(orderStore, menuStore, feed, nil, log)
	}

	var checkout *order.StripeCheckout
	if cfg.Stripe.SecretKey != "" {
		var err error
		checkout, err = order.NewStripeCheckout(orderService, cfg.Stripe, log)
		if err != nil {
			log.Fatal("STRIPE", fmt.Sprintf("Stripe initialization failed: %v", err))
		}
	} else {
		log.Warn("STRIPE", "STRIPE_SECRET_KEY not set, online checkout disabled")
	}

	tableService := table.NewService(bunDB, redisClient, cfg.App.ScanCacheTTL, log)
	promoService := promo.NewService(bunDB, redisClient, log)
	analyticsService := analytics.NewService(bunDB)

	orderHandler := &order_api.Handler{OrderService: orderService, Checkout: checkout, Logger: log}
	sseHandler := order_api.NewSSEHandler(log, feed)
	notificationsHandler := order_api.NewNotificationsHandler(log, feed, orderService, cfg.App.ReloadDebounce)
	tableHandler := &table.Handler{Service: tableService, BaseURL: cfg.App.BaseURL}
	menuHandler := &menu.Handler{Store: menuStore}
	promoHandler := &promo.Handler{Service: promoService}
	analyticsHandler := &analytics.Handler{Service: analyticsService}

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/orders", orderHandler.PlaceOrder)
		r.Get("/orders/{orderID}", orderHandler.GetOrder)
		r.Get("/orders/{orderID}/actions", orderHandler.Actions)
		r.Get("/orders/{orderID}/stream", sseHandler.StreamOrder)
		r.Get("/orders/{orderID}/notifications/stream", notificationsHandler.StreamOrderNotifications)
		r.Patch("/orders/{orderID}/status", orderHandler.UpdateStatus)
		r.Patch("/orders/{orderID}/payment", orderHandler.UpdatePayment)
		r.Post("/orders/{orderID}/payment-received", orderHandler.MarkPaymentReceived)
		r.Patch("/orders/{orderID}/waiter", orderHandler.AssignWaiter)
		r.Post("/orders/{orderID}/cancel", orderHandler.CancelOrder)

		r.Get("/restaurants/{restaurantID}/orders", orderHandler.ListRestaurantOrders)
		r.Get("/restaurants/{restaurantID}/orders/stream", sseHandler.StreamRestaurantOrders)
		r.Get("/restaurants/{restaurantID}/notifications/stream", notificationsHandler.StreamRestaurantNotifications)
		r.Get("/restaurants/{restaurantID}/menu", menuHandler.ListMenu)
		r.Get("/restaurants/{restaurantID}/tables", tableHandler.ListTables)
		r.Get("/restaurants/{restaurantID}/summary", analyticsHandler.RestaurantSummary)

		r.Get("/customers/{customerID}/orders", orderHandler.ListCustomerOrders)
		r.Get("/customers/{customerID}/orders/stream", sseHandler.StreamCustomerOrders)
		r.Get("/customers/{customerID}/notifications/stream", notificationsHandler.StreamCustomerNotifications)

		r.Post("/checkout", orderHandler.CreateCheckout)
		r.Get("/payments/verify", orderHandler.VerifyPayment)

		r.Post("/tables", tableHandler.CreateTable)
		r.Get("/scan/{code}", tableHandler.ResolveScan)
		r.Get("/scan/{code}/qr", tableHandler.QRCode)

		r.Post("/menu-items", menuHandler.CreateMenuItem)
		r.Patch("/menu-items/{itemID}", menuHandler.UpdateMenuItem)
		r.Delete("/menu-items/{itemID}", menuHandler.DeleteMenuItem)

		r.Post("/promotions/apply", promoHandler.ApplyToBill)
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("APP", fmt.Sprintf("Ordering service listening on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("APP", fmt.Sprintf("Server failed: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("APP", "Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("APP", fmt.Sprintf("Graceful shutdown failed: %v", err))
	}
}
