package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/tina-boutique/store-service/internal/cart"
	"github.com/tina-boutique/store-service/internal/events"
	"github.com/tina-boutique/store-service/internal/handler"
	"github.com/tina-boutique/store-service/internal/payment"
	"github.com/tina-boutique/store-service/internal/repository"
	"github.com/tina-boutique/store-service/internal/service"
	"github.com/tina-boutique/store-service/pkg/config"
	"github.com/tina-boutique/store-service/pkg/middleware"
	pkgtls "github.com/tina-boutique/store-service/pkg/tls"
	"go.uber.org/zap"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	dynamoClient, err := repository.NewDynamoDBClient(cfg)
	if err != nil {
		log.Fatal("Failed to create DynamoDB client:", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	defer redisClient.Close()

	// Repositories
	productRepo := repository.NewProductRepository(dynamoClient, cfg.ProductTableName)
	orderRepo := repository.NewOrderRepository(dynamoClient, cfg.OrderTableName)
	categoryRepo := repository.NewCategoryRepository(dynamoClient, cfg.CategoryTableName)
	settingsRepo := repository.NewSettingsRepository(dynamoClient, cfg.SettingsTableName)
	cartRepo := repository.NewCartRepository(redisClient, cfg.CartTTL)

	var images *repository.ImageStore
	if cfg.ImageBucket != "" {
		s3Client, err := repository.NewS3Client(cfg)
		if err != nil {
			log.Fatal("Failed to create S3 client:", err)
		}
		images = repository.NewImageStore(s3Client, cfg.ImageBucket, logger)
	}

	var publisher service.OrderEventPublisher
	if cfg.KafkaBrokers != "" {
		kafkaProducer := events.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer kafkaProducer.Close()
		publisher = kafkaProducer
	}

	var payments service.PaymentClient
	if cfg.PaymentSessionURL != "" {
		payments = payment.NewClient(cfg.PaymentSessionURL)
	}

	// Services, cart manager, handlers
	catalogService := service.NewCatalogService(productRepo, categoryRepo, settingsRepo, images, logger)
	orderService := service.NewOrderService(orderRepo, logger)
	checkoutService := service.NewCheckoutService(productRepo, orderRepo, payments, publisher, cfg.CheckoutMaxRetries, logger)
	cartManager := cart.NewManager(cartRepo, logger)

	productHandler := handler.NewProductHandler(catalogService, logger)
	cartHandler := handler.NewCartHandler(cartManager, catalogService, logger)
	checkoutHandler := handler.NewCheckoutHandler(checkoutService, logger)
	orderHandler := handler.NewOrderHandler(orderService, logger)
	contentHandler := handler.NewContentHandler(catalogService, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.RequestID())

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", productHandler.ListProducts)
		v1.GET("/products/:id", productHandler.GetProduct)
		v1.GET("/products/:id/availability", productHandler.GetAvailability)
		v1.POST("/products", productHandler.CreateProduct)
		v1.PUT("/products/:id", productHandler.UpdateProduct)
		v1.DELETE("/products/:id", productHandler.DeleteProduct)

		v1.GET("/cart", cartHandler.GetCart)
		v1.POST("/cart/items", cartHandler.AddItem)
		v1.PUT("/cart/items/:id", cartHandler.UpdateQuantity)
		v1.DELETE("/cart/items/:id", cartHandler.RemoveItem)
		v1.DELETE("/cart", cartHandler.ClearCart)

		v1.POST("/checkout", checkoutHandler.Checkout)

		v1.GET("/orders", orderHandler.ListOrders)
		v1.GET("/orders/:id", orderHandler.GetOrder)
		v1.PATCH("/orders/:id/status", orderHandler.UpdateStatus)

		v1.GET("/categories", contentHandler.ListCategories)
		v1.POST("/categories", contentHandler.CreateCategory)
		v1.DELETE("/categories/:id", contentHandler.DeleteCategory)

		v1.GET("/hero", contentHandler.GetHero)
		v1.PUT("/hero", contentHandler.SaveHero)

		v1.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "healthy"})
		})
	}

	tlsConfig, tlsSource, err := pkgtls.Load(context.Background(), &cfg.TLS, logger)
	if err != nil {
		log.Fatal("Failed to load TLS config:", err)
	}
	defer tlsSource.Close()

	srv := &http.Server{
		Addr:      ":" + cfg.Port,
		Handler:   router,
		TLSConfig: tlsConfig,
	}

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Port))
		var err error
		if tlsConfig != nil {
			err = srv.ListenAndServeTLS("", "")
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited")
}
