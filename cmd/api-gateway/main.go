package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/taller-adm-api/api/swagger"
	"github.com/noah-isme/taller-adm-api/internal/handler"
	"github.com/noah-isme/taller-adm-api/internal/middleware"
	"github.com/noah-isme/taller-adm-api/internal/repository"
	"github.com/noah-isme/taller-adm-api/internal/service"
	"github.com/noah-isme/taller-adm-api/pkg/cache"
	"github.com/noah-isme/taller-adm-api/pkg/config"
	"github.com/noah-isme/taller-adm-api/pkg/database"
	"github.com/noah-isme/taller-adm-api/pkg/jobs"
	"github.com/noah-isme/taller-adm-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/taller-adm-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/taller-adm-api/pkg/middleware/requestid"
	"github.com/noah-isme/taller-adm-api/pkg/storage"
)

// @title Taller ADM API
// @version 1.0.0
// @description Tuition billing and debt reconciliation API for workshop administration
// @BasePath /
// @schemes http

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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	locker := cache.NewLocker(redisClient, cfg.Billing.RegistrationLockTTL)

	studentRepo := repository.NewStudentRepository(db)
	workshopRepo := repository.NewWorkshopRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	priceRepo := repository.NewPriceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	validate := validator.New()

	signer := storage.NewSignedURLSigner(cfg.Notifications.SignedLinkSecret, cfg.Notifications.SignedLinkTTL)
	notificationSvc := service.NewNotificationService(nil, signer, logr, cfg.Notifications.Enabled)
	receiptQueue := jobs.NewQueue("receipt-delivery", notificationSvc.DeliveryHandler(), jobs.QueueConfig{
		Workers:    cfg.Notifications.WorkerConcurrency,
		MaxRetries: cfg.Notifications.WorkerRetries,
		Logger:     logr,
	})
	notificationSvc.SetQueue(receiptQueue)
	receiptQueue.Start(ctx)
	defer receiptQueue.Stop()

	metricsSvc := service.NewMetricsService()
	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	workshopSvc := service.NewWorkshopService(workshopRepo, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, workshopRepo, validate, logr)
	pricingSvc := service.NewPricingService(priceRepo, workshopRepo, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, workshopRepo, validate, logr)
	duesSvc := service.NewDuesService(studentRepo, enrollmentRepo, paymentRepo, priceRepo, logr)
	paymentSvc := service.NewPaymentService(paymentRepo, duesSvc, locker, notificationSvc, validate, logr, cfg.Billing.RevalidateOnCommit)

	studentHandler := handler.NewStudentHandler(studentSvc)
	workshopHandler := handler.NewWorkshopHandler(workshopSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	priceHandler := handler.NewPriceHandler(pricingSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc)
	billingHandler := handler.NewBillingHandler(duesSvc, paymentSvc, metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.Identity(cfg.JWT.Secret))
	{
		api.GET("/students", studentHandler.List)
		api.POST("/students", studentHandler.Create)
		api.GET("/students/:id", studentHandler.Find)
		api.PUT("/students/:id", studentHandler.Update)
		api.DELETE("/students/:id", studentHandler.Deactivate)
		api.POST("/students/:id/activate", studentHandler.Reactivate)
		api.GET("/students/:id/dues", billingHandler.StudentDues)
		api.GET("/students/:id/attendance", attendanceHandler.ForStudent)

		api.GET("/workshops", workshopHandler.List)
		api.POST("/workshops", workshopHandler.Create)
		api.GET("/workshops/:id", workshopHandler.Find)
		api.PATCH("/workshops/:id/state", workshopHandler.Transition)
		api.GET("/workshops/:id/attendance", attendanceHandler.Sheet)

		api.GET("/workshop-types", workshopHandler.ListTypes)
		api.GET("/workshop-types/:id/prices", priceHandler.History)
		api.POST("/workshop-types/:id/prices", priceHandler.Register)
		api.GET("/workshop-types/:id/prices/current", priceHandler.Current)

		api.GET("/enrollments", enrollmentHandler.List)
		api.POST("/enrollments", enrollmentHandler.Enroll)
		api.POST("/enrollments/:id/withdraw", enrollmentHandler.Withdraw)

		api.POST("/attendance", attendanceHandler.Record)

		api.POST("/billing/allocate", billingHandler.Allocate)
		api.GET("/reports/pending-dues", billingHandler.PendingReport)

		api.POST("/payments", billingHandler.RegisterPayment)
		api.GET("/payments", billingHandler.ListPayments)
		api.GET("/payments/:id", billingHandler.PaymentDetail)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
