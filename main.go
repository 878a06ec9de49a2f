package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"social-service/internal/config"
	"social-service/internal/db"
	grpcsvc "social-service/internal/grpc"
	"social-service/internal/handlers"
	"social-service/internal/logger"
	"social-service/internal/metrics"
	"social-service/internal/middleware"
	"social-service/internal/observability"
	"social-service/internal/rabbitmq"
	"social-service/internal/repositories"
	"social-service/internal/services"
	"social-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		zap.NewExample().Fatal("failed to load config", zap.Error(err))
	}

	log := logger.Build(logger.Config{
		Level:       cfg.LogLevel,
		Encoding:    cfg.LogEncoding,
		Development: cfg.Environment == "local",
	})
	defer log.Sync()
	defer logger.ReplaceGlobal(log)()
	log = log.With(zap.String("service", cfg.ServiceName), zap.String("env", cfg.Environment))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Connect(ctx, db.Options{
		DSN:             cfg.DBDSN,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnectAttempts: cfg.DBConnectAttempts,
		ConnectInterval: cfg.DBConnectInterval,
	}, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	auditPublisher := rabbitmq.NewPublisherOrNoop(cfg.AMQPURL, cfg.LogsExchange, log)
	defer auditPublisher.Close()

	observability.InitMetrics(prometheus.DefaultRegisterer)
	metrics.RegisterFriendMetrics()

	userRepo := repositories.NewUserRepository(database)
	tokenRepo := repositories.NewTokenRepository(database)
	friendRepo := repositories.NewFriendRepository(database)

	userService := services.NewUserService(userRepo, services.NewBcryptHasher(cfg.BcryptCost), log)
	tokenService := services.NewTokenService(tokenRepo)
	friendService := services.NewFriendshipService(friendRepo, userRepo, services.RateLimit{
		Max:    cfg.FriendRequestLimit,
		Window: cfg.FriendRequestWindow,
	}, log)

	if cfg.AdminEmail != "" {
		admin, created, err := userService.EnsureSuperuser(ctx, services.RegisterInput{
			Email:    cfg.AdminEmail,
			Name:     cfg.AdminName,
			Password: cfg.AdminPassword,
		})
		if err != nil {
			log.Fatal("failed to create superuser", zap.Error(err))
		}
		if created {
			log.Info("superuser created", zap.Int64("user_id", admin.ID))
		}
	}

	auditEmitter := telemetry.NewAuditEmitter(auditPublisher, cfg.ServiceName, cfg.Environment, log)
	pager := handlers.NewPaginator(cfg.PageSize)
	userHandler := handlers.NewUserHandler(userService, tokenService, pager, auditEmitter, log)
	friendHandler := handlers.NewFriendHandler(friendService, pager, auditEmitter, log)

	grpcServer := grpcsvc.NewFriendshipGRPCServer(friendService, userService)
	if _, err := grpcsvc.StartGRPCServer(ctx, cfg.GRPCAddr, grpcServer, log); err != nil {
		log.Fatal("failed to start gRPC server", zap.Error(err))
	}

	if cfg.Environment != "local" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.RequestLogger(log), middleware.Metrics())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", handlers.Health(database))
	r.POST("/login", userHandler.Login)
	r.POST("/user", userHandler.Register)

	auth := r.Group("", middleware.TokenAuth(tokenService, log))
	auth.GET("/search", userHandler.Search)
	auth.POST("/friend-request/send", friendHandler.SendRequest)
	auth.PATCH("/friend-request/:id", friendHandler.Decide)
	auth.GET("/friends", friendHandler.ListFriends)
	auth.GET("/pending-friend-requests", friendHandler.ListPending)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
}
