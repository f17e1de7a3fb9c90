package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/eduport/center-api/internal/handler"
	"github.com/eduport/center-api/internal/repository"
	"github.com/eduport/center-api/internal/service"
	"github.com/eduport/center-api/pkg/cache"
	"github.com/eduport/center-api/pkg/config"
	"github.com/eduport/center-api/pkg/database"
	"github.com/eduport/center-api/pkg/export"
	"github.com/eduport/center-api/pkg/jobs"
	"github.com/eduport/center-api/pkg/logger"
	"github.com/eduport/center-api/pkg/storage"
)

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	var cacheStore *cache.Store
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
			redisClient = nil
		} else {
			cacheStore = cache.NewStore(redisClient)
			defer redisClient.Close() //nolint:errcheck
		}
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	centerRepo := repository.NewCenterRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	classRepo := repository.NewClassRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	markRepo := repository.NewMarkRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	resultRepo := repository.NewResultRepository(db)
	feeRepo := repository.NewFeeStructureRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	certificateRepo := repository.NewCertificateRepository(db)

	fileStore, err := storage.NewLocalStorage(cfg.Storage.BaseDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare storage", "error", err)
	}

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheStore, metricsSvc, cfg.Cache.SummaryTTL, logr, cacheStore != nil)

	authSvc := service.NewAuthService(userRepo, centerRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	centerSvc := service.NewCenterService(centerRepo, validate, logr)
	sessionSvc := service.NewSessionService(sessionRepo, validate, logr)
	classSvc := service.NewClassService(classRepo, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, classRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, markRepo, paymentRepo, certificateRepo, validate, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, studentRepo, classRepo, cacheSvc, cfg.Cache.SummaryTTL, validate, logr)
	markSvc := service.NewMarkService(markRepo, studentRepo, subjectRepo, validate, logr)
	paymentSvc := service.NewPaymentService(paymentRepo, studentRepo, validate, logr)
	resultSvc := service.NewResultService(resultRepo, markRepo, studentRepo, classRepo, cacheSvc, cfg.Cache.ResultTTL, validate, logr)
	feeSvc := service.NewFeeStructureService(feeRepo, classRepo, validate, logr)
	timetableSvc := service.NewTimetableService(timetableRepo, classRepo, fileStore, validate, logr)

	renderer := export.NewPDFRenderer()
	certificateSvc := service.NewCertificateService(certificateRepo, studentRepo, centerRepo, classRepo, sessionRepo, fileStore, renderer, nil, validate, logr)

	certQueue := jobs.NewQueue("certificates", certificateSvc.RenderJob, jobs.QueueConfig{
		Workers:    cfg.Certificates.WorkerConcurrency,
		MaxRetries: cfg.Certificates.WorkerRetries,
		RetryDelay: 5 * time.Second,
		Logger:     logr,
	})
	certificateSvc.SetQueue(certQueue)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	certQueue.Start(ctx)
	defer certQueue.Stop()

	handlers := handler.Handlers{
		Auth:         handler.NewAuthHandler(authSvc),
		Centers:      handler.NewCenterHandler(centerSvc),
		Sessions:     handler.NewSessionHandler(sessionSvc),
		Classes:      handler.NewClassHandler(classSvc),
		Subjects:     handler.NewSubjectHandler(subjectSvc),
		Students:     handler.NewStudentHandler(studentSvc),
		Attendance:   handler.NewAttendanceHandler(attendanceSvc),
		Marks:        handler.NewMarkHandler(markSvc),
		Payments:     handler.NewPaymentHandler(paymentSvc),
		Results:      handler.NewResultHandler(resultSvc),
		FeeStructure: handler.NewFeeStructureHandler(feeSvc),
		Timetables:   handler.NewTimetableHandler(timetableSvc),
		Certificates: handler.NewCertificateHandler(certificateSvc),
		Health:       handler.NewHealthHandler(db, redisClient),
		Metrics:      handler.NewMetricsHandler(metricsSvc),
	}

	router := handler.NewRouter(cfg, logr, authSvc, metricsSvc, handlers)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
}
