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
	"go.uber.org/zap"

	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/config"
	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/database"
	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/kafka"
	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/logger"
	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/routes"
	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/services"
)

func main() {

	// Load environment configuration
	cfg := config.Load()

	logger.Initialize(cfg.Environment)
	defer logger.Log.Sync()

	// Durable keyed storage for carts and checkout staging state
	redisClient := database.NewRedisClient(cfg.RedisURL)
	store := database.NewRedisStore(redisClient)

	// Product catalog
	mongoClient, db, err := database.ConnectMongo(cfg.MongoURL, cfg.MongoDB)
	if err != nil {
		log.Fatalf("failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := database.CloseMongo(mongoClient); err != nil {
			logger.Log.Warn("mongo disconnect failed", zap.Error(err))
		}
	}()
	productService := services.NewProductService(database.NewProductRepository(db))

	// Checkout event producer
	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()

	cartService := services.NewCartService(store, cfg, logger.Log)
	stagingService := services.NewStagingService(store, cartService, producer, cfg, logger.Log)

	var stripeService *services.StripeService
	if cfg.StripeSecretKey != "" {
		stripeService = services.NewStripeService(cfg.StripeSecretKey, cfg.StripeWebhookKey)
	} else {
		logger.Log.Warn("Stripe not configured, checkout runs without payments")
	}

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	routes.Register(router, cfg, cartService, stagingService, productService, stripeService, logger.Log)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Log.Info("Storefront service is running", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Log.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Shutdown error: %v", err)
	}
	logger.Log.Info("Server shutdown complete.")
}
