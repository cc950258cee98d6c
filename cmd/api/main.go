package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/greenbasket/storefront/internal/config"
	"github.com/greenbasket/storefront/internal/handler"
	"github.com/greenbasket/storefront/internal/middleware"
	"github.com/greenbasket/storefront/internal/payment"
	"github.com/greenbasket/storefront/internal/postal"
	"github.com/greenbasket/storefront/internal/remote"
	"github.com/greenbasket/storefront/internal/service"
	"github.com/greenbasket/storefront/internal/worker"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Redis")

	// RabbitMQ
	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		log.Error("connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()

	amqpCh, err := amqpConn.Channel()
	if err != nil {
		log.Error("open RabbitMQ channel", "error", err)
		os.Exit(1)
	}
	defer amqpCh.Close()

	if err := worker.SetupRabbitMQ(amqpCh); err != nil {
		log.Error("setup RabbitMQ", "error", err)
		os.Exit(1)
	}
	log.Info("connected to RabbitMQ")

	// Remote store + auth clients
	store := remote.NewRESTStore(cfg.Remote.BaseURL, cfg.Remote.APIKey)
	auth := remote.NewAuthClient(cfg.Remote.BaseURL, cfg.Remote.APIKey)

	// External collaborators
	gateway := payment.NewClient(cfg.Payment.BaseURL, cfg.Payment.KeyID, cfg.Payment.KeySecret, cfg.Payment.CallbackURL)
	postalClient := postal.New(cfg.Postal.BaseURL)

	// Services
	sessionSvc := service.NewSessionService(auth, store, log)
	cartSvc := service.NewCartService(store, sessionSvc, log)
	cartSvc.BindSessions()
	catalogSvc := service.NewCatalogService(store, redisClient, log)
	filterSvc := service.NewFilterService()
	guestGate := service.NewGuestGate(cartSvc, log)
	orderSvc := service.NewOrderService(store, cartSvc, gateway, amqpCh, log)

	// Handlers
	authH := handler.NewAuthHandler(sessionSvc, guestGate)
	productH := handler.NewProductHandler(catalogSvc, filterSvc)
	guestH := handler.NewGuestHandler(guestGate)
	cartH := handler.NewCartHandler(cartSvc)
	orderH := handler.NewOrderHandler(orderSvc, cartSvc)
	adminH := handler.NewAdminHandler(catalogSvc, sessionSvc)
	postalH := handler.NewPostalHandler(postalClient)
	healthH := handler.NewHealthHandler(redisClient, amqpConn)

	// Worker
	cleanupWorker := worker.NewCartCleanupWorker(amqpCh, store, redisClient, log)

	authRequired := middleware.AuthMiddleware(cfg.Remote.JWTSecret, sessionSvc)

	// Router
	router := gin.Default()
	router.GET("/healthz", healthH.Healthz)
	router.GET("/readyz", healthH.Readyz)

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		auth.POST("/register", authH.Register)
		auth.POST("/login", authH.Login)
		auth.POST("/logout", authRequired, authH.Logout)

		v1.GET("/products", productH.List)
		v1.GET("/filter", productH.GetFilter)
		v1.PUT("/filter", productH.SetFilter)
		v1.DELETE("/filter", productH.ResetFilter)

		v1.POST("/guest/actions", guestH.Capture)
		v1.DELETE("/guest/actions", guestH.Dismiss)

		v1.GET("/postal/:code", postalH.Lookup)

		cart := v1.Group("/cart", authRequired)
		cart.GET("", cartH.Get)
		cart.POST("/items", cartH.AddItem)
		cart.PUT("/items/:id", cartH.UpdateItem)
		cart.DELETE("/items/:id", cartH.DeleteItem)
		cart.DELETE("", cartH.Clear)

		orders := v1.Group("/orders", authRequired)
		orders.POST("", orderH.Create)
		orders.POST("/payment", orderH.CreatePayment)
		orders.POST("/payment/callback", orderH.PaymentCallback)

		admin := v1.Group("/admin", authRequired, middleware.AdminOnly(sessionSvc))
		admin.POST("/products", adminH.CreateProduct)
		admin.PUT("/products/:id", adminH.UpdateProduct)
		admin.DELETE("/products/:id", adminH.DeleteProduct)
		admin.GET("/users", adminH.ListUsers)
		admin.DELETE("/users/:id", adminH.DeleteUser)
	}

	if err := cleanupWorker.Start(ctx); err != nil {
		log.Error("start cleanup worker", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	cleanupWorker.Stop()
	time.Sleep(500 * time.Millisecond)
	cancel()
	log.Info("server stopped")
}
