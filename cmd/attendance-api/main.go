package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-attendance-api/api/swagger"
	"github.com/noah-isme/sma-attendance-api/internal/handler"
	"github.com/noah-isme/sma-attendance-api/internal/middleware"
	"github.com/noah-isme/sma-attendance-api/internal/repository"
	"github.com/noah-isme/sma-attendance-api/internal/service"
	"github.com/noah-isme/sma-attendance-api/pkg/cache"
	"github.com/noah-isme/sma-attendance-api/pkg/config"
	"github.com/noah-isme/sma-attendance-api/pkg/database"
	"github.com/noah-isme/sma-attendance-api/pkg/jobs"
	"github.com/noah-isme/sma-attendance-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-attendance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-attendance-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-attendance-api/pkg/qrcode"
)

// @title School Attendance API
// @version 1.0.0
// @description Staff QR check-in and student roll tracking
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.EnsureSchema(ctx, db); err != nil {
			logr.Fatal("failed to apply schema", zap.Error(err))
		}
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, scan debounce disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	accountRepo := repository.NewAccountRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	staffRepo := repository.NewStaffAttendanceRepository(db)
	rollRepo := repository.NewStudentAttendanceRepository(db)
	scanGuard := repository.NewScanGuardRepository(redisClient)

	tokenSvc := service.NewTokenService(service.TokenConfig{
		Secret:     cfg.JWT.Secret,
		Issuer:     cfg.JWT.Issuer,
		SessionTTL: cfg.JWT.Expiration,
		QRTTL:      cfg.QR.TokenTTL,
	})
	policy := service.NewAccessPolicy(accountRepo)
	accountSvc := service.NewAccountService(accountRepo, validate, logr)
	authSvc := service.NewAuthService(accountRepo, tokenSvc, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, policy, validate, logr)
	attendanceSvc := service.NewAttendanceService(staffRepo, studentRepo, rollRepo, accountRepo, policy, service.AttendanceConfig{
		Location:       cfg.Attendance.Location(),
		LateThreshold:  cfg.Attendance.LateThreshold,
		EarlyThreshold: cfg.Attendance.EarlyThreshold,
	}, validate, metricsSvc, logr)
	reportSvc := service.NewReportService(staffRepo, rollRepo, policy, cfg.Attendance.Location(), logr)
	qrSvc := service.NewQRService(accountRepo, tokenSvc, qrcode.NewRenderer(cfg.QR.ImageSize), attendanceSvc, scanGuard, policy, cfg.Attendance.ScanDebounce, metricsSvc, logr)

	if _, err := accountSvc.EnsureBootstrapAdmin(ctx, service.BootstrapAdmin{
		Enabled:  cfg.Bootstrap.Enabled,
		UserID:   cfg.Bootstrap.UserID,
		Password: cfg.Bootstrap.Password,
		Name:     cfg.Bootstrap.Name,
		Email:    cfg.Bootstrap.Email,
	}); err != nil {
		logr.Fatal("failed to bootstrap administrator", zap.Error(err))
	}

	if cfg.Attendance.AbsenceSweepAt != "" {
		daily, err := jobs.NewDaily(cfg.Attendance.AbsenceSweepAt, cfg.Attendance.Location(), logr)
		if err != nil {
			logr.Fatal("invalid absence sweep time", zap.Error(err))
		}
		sweeps := jobs.NewQueue("absence-sweep", func(ctx context.Context, task jobs.Task[time.Time]) error {
			_, err := attendanceSvc.CloseDay(ctx, task.Payload)
			return err
		}, jobs.QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: time.Minute, Logger: logr})
		sweeps.Start(ctx)
		defer sweeps.Stop()
		go daily.Run(ctx, func(day time.Time) {
			if err := sweeps.Enqueue(jobs.Task[time.Time]{ID: day.Format("2006-01-02"), Payload: day}); err != nil {
				logr.Warn("failed to enqueue absence sweep", zap.Error(err))
			}
		})
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics(metricsSvc, "/health", "/ready", "/metrics"))
	}

	metricsHandler := handler.NewMetricsHandler(metricsSvc, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", metricsHandler.Prometheus)
	}
	if cfg.Docs.Enabled && cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r, cfg.APIPrefix, handler.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		Employees:  handler.NewEmployeeHandler(accountSvc),
		Students:   handler.NewStudentHandler(studentSvc),
		Attendance: handler.NewAttendanceHandler(attendanceSvc, policy),
		Reports:    handler.NewReportHandler(reportSvc),
		QR:         handler.NewQRHandler(qrSvc),
	}, tokenSvc)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
	logr.Info("server stopped")
}
