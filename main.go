package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	apperrors "orderpro/common/errors"
	"orderpro/common/logger"
	commonmw "orderpro/common/middleware"
	"orderpro/controllers"
	"orderpro/database"
	aws_pkg "orderpro/pkg/aws"
	"orderpro/repository"
	"orderpro/repository/memory"
	"orderpro/routes"
	"orderpro/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	_ = godotenv.Load()

	log := logger.Initialize(os.Getenv("APP_ENV"))
	defer log.Sync() //nolint:errcheck

	cfg, err := LoadConfig(context.Background(), log)
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	store, closeStore := openStore(cfg, log)
	defer closeStore()

	var cache services.MetricsCache
	if cfg.RedisURL != "" {
		client, err := database.NewRedisClient(context.Background(), cfg.RedisURL)
		if err != nil {
			log.Warn("Redis unavailable, dashboard cache disabled", zap.Error(err))
		} else {
			defer client.Close() //nolint:errcheck
			cache = services.NewRedisMetricsCache(client, services.DefaultMetricsTTL, log)
			log.Info("Connected to Redis")
		}
	}

	var (
		snsClient aws_pkg.SNSPublisher
		metrics   *aws_pkg.MetricsClient
	)
	if cfg.NeedsAWS() {
		awsCfg, err := aws_pkg.LoadAWSConfig(context.Background())
		if err != nil {
			log.Warn("AWS config unavailable, events and metrics disabled", zap.Error(err))
		} else {
			if cfg.OrderEventsTopic != "" {
				snsClient = aws_pkg.NewSNSClient(awsCfg)
			}
			metrics = aws_pkg.NewMetricsClient(awsCfg, cfg.CloudWatchNS, cfg.CloudWatchEnabled)
		}
	}
	events := services.NewSNSEventPublisher(snsClient, cfg.OrderEventsTopic, log)

	limiter := commonmw.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst, 5*time.Minute)
	defer limiter.Close()

	r := newRouter(cfg, log, store, cache, events, metrics, limiter)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	log.Info("Order service started",
		zap.String("port", cfg.Port),
		zap.String("store", cfg.StoreDriver),
		zap.Bool("cache", cache != nil),
		zap.Bool("cloudwatch", metrics.IsEnabled()),
	)
	<-quit
	log.Info("Shutting down order service...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	log.Info("Server exited cleanly")
}

// openStore selects the storage backend. The returned func releases it.
func openStore(cfg *Config, log *zap.Logger) (*repository.Store, func()) {
	if cfg.StoreDriver == StoreMemory {
		log.Warn("Using in-memory store, data is lost on restart")
		return memory.New().Repositories(), func() {}
	}

	ctx := context.Background()
	client, db, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDBName, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	if err := database.EnsureIndexes(ctx, db); err != nil {
		log.Fatal("Failed to create indexes", zap.Error(err))
	}

	closeFn := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := database.CloseMongo(ctx, client); err != nil {
			log.Warn("MongoDB disconnect failed", zap.Error(err))
		}
	}
	return repository.NewMongoStore(client, db, cfg.MongoTransactions), closeFn
}

// newRouter wires services, controllers and the middleware chain. cache,
// events and metrics may be nil.
func newRouter(cfg *Config, log *zap.Logger, store *repository.Store, cache services.MetricsCache, events services.EventPublisher, metrics *aws_pkg.MetricsClient, limiter *commonmw.RateLimiter) *gin.Engine {
	orderSvc := services.NewOrderService(store, cache, events, log)
	deliverySvc := services.NewDeliveryService(store, cache, events, log)
	dashboardSvc := services.NewDashboardService(store, cache, log)
	if metrics.IsEnabled() {
		orderSvc.WithMetrics(metrics)
		deliverySvc.WithMetrics(metrics)
		dashboardSvc.WithMetrics(metrics)
	}
	customerSvc := services.NewCustomerService(store.Customers, cache, log)
	productSvc := services.NewProductService(store.Products, cache, log)

	r := gin.New()
	r.Use(gin.Recovery())
	if metrics.IsEnabled() {
		r.Use(commonmw.HTTPMetrics(metrics, "orderpro"))
	}
	r.Use(logger.RequestID())
	r.Use(commonmw.RequestLogger(log))
	r.Use(commonmw.SecurityHeaders())
	r.Use(commonmw.CORSMiddleware(cfg.AllowedOrigins))
	if limiter != nil {
		r.Use(commonmw.RateLimitMiddleware(limiter))
	}
	r.Use(commonmw.Timeout(30 * time.Second))
	r.Use(apperrors.ErrorMiddleware(log, cfg.IsProduction()))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "orderpro"})
	})

	routes.RegisterRoutes(r, []byte(cfg.JWTSecret), routes.Handlers{
		Orders:     controllers.NewOrderController(orderSvc, dashboardSvc),
		Deliveries: controllers.NewDeliveryController(deliverySvc),
		Customers:  controllers.NewCustomerController(customerSvc),
		Products:   controllers.NewProductController(productSvc),
	})

	return r
}
