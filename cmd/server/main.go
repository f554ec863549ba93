package main // Entry point package

import (
	"log" // startup logging before zap is available

	"github.com/joho/godotenv"    // .env loading for local development
	"github.com/labstack/echo/v4" // Echo web framework
	"go.uber.org/zap"

	"github.com/einsicht/review-scheduler/internal/allocation"
	"github.com/einsicht/review-scheduler/internal/app"
	"github.com/einsicht/review-scheduler/internal/config"
	"github.com/einsicht/review-scheduler/internal/database"
	"github.com/einsicht/review-scheduler/internal/handler"
	appmw "github.com/einsicht/review-scheduler/internal/middleware"
	"github.com/einsicht/review-scheduler/internal/queue"
	"github.com/einsicht/review-scheduler/internal/repository"
	"github.com/einsicht/review-scheduler/internal/router"
)

func main() {
	// Load .env when present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	logger, err := app.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	if err := database.Migrate(db); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}

	// Redis is optional; when unreachable the cache and rate limiter
	// degrade to pass-through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unavailable; response cache and rate limiting disabled")
	}

	// Repositories.
	reviews := repository.NewReviewRepo(db)
	timeslots := repository.NewTimeslotRepo(db)
	students := repository.NewStudentRepo(db)
	employees := repository.NewEmployeeRepo(db)
	admins := repository.NewAdminRepo(db)
	tokens := repository.NewTokenRepo(db)

	// The allocation engine owns all capacity accounting.
	engine := allocation.NewEngine(repository.NewAllocationStore(db), logger)

	// Handlers.
	authH := handler.NewAuthHandler(cfg, students, employees, admins, tokens)
	publicH := &handler.PublicHandler{ReviewRepo: reviews, TimeslotRepo: timeslots}
	employeeH := handler.NewEmployeeHandler(reviews, timeslots, employees)
	studentH := handler.NewStudentHandler(engine, reviews, timeslots, students, logger)
	adminH := handler.NewAdminHandler(students, employees, admins, engine)

	// Background consumer for enrollment confirmations.
	go func() {
		if err := queue.StartEnrollmentConsumer(logger); err != nil {
			logger.Warn("enrollment consumer stopped", zap.Error(err))
		}
	}()

	e := echo.New()
	e.HideBanner = true

	e.Use(appmw.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, publicH, appmw.NewRedisCache(config.LoadCacheConfig(), rdb))
	router.RegisterEmployee(e, employeeH, cfg.JWTSecret)
	router.RegisterStudent(e, studentH, cfg.JWTSecret)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))

	if err := e.Start(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
