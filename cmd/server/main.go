package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jumpingkids/backend/internal/api"
	"jumpingkids/backend/internal/config"
	"jumpingkids/backend/internal/logger"
	"jumpingkids/backend/internal/metrics"
	"jumpingkids/backend/internal/repository"
	"jumpingkids/backend/internal/repository/memory"
	"jumpingkids/backend/internal/repository/mongo"
	"jumpingkids/backend/internal/service"
	"jumpingkids/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// repositories is everything the services need from the selected store.
type repositories struct {
	users        repository.UserRepository
	kids         repository.KidRepository
	exercises    repository.ExerciseRepository
	routines     repository.RoutineRepository
	assignments  repository.AssignmentRepository
	mediaUploads repository.MediaUploadRepository
	sessions     repository.TrainingSessionRepository
	tx           repository.Transactor
	close        func()
}

// @title JumpingKids API
// @version 1.0
// @description API for kid profiles, exercise routines, assignments and live training sessions.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		// No logger yet; fall back to a development one for this single line.
		zap.NewExample().Fatal("could not load config", zap.Error(err))
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		zap.NewExample().Fatal("could not build logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting jumpingkids server",
		zap.String("address", cfg.Server.Address),
		zap.String("driver", cfg.Database.Driver))
	if cfg.JWT.Secret == "" {
		log.Fatal("jwt.secret must be set")
	}

	gin.SetMode(cfg.Server.Mode)
	m := metrics.New()

	// --- Store ---
	repos, err := openRepositories(cfg.Database, log)
	if err != nil {
		log.Fatal("could not open store", zap.Error(err))
	}
	defer repos.close()

	// --- Initialize Storage ---
	initCtx, cancelInit := context.WithTimeout(context.Background(), 10*time.Second)
	fileStorage, err := storage.NewS3Storage(initCtx, cfg.S3, log.Named("storage"))
	cancelInit()
	if err != nil {
		log.Fatal("failed to initialize S3 storage", zap.Error(err))
	}

	// --- Initialize Services ---
	trainingService := service.NewTrainingService(repos.sessions, repos.kids, repos.routines, repos.assignments,
		repos.tx, cfg.Training.CascadeAttempts, m, log.Named("training"))
	svcs := api.Services{
		Auth:        service.NewAuthService(repos.users, cfg.JWT.Secret, cfg.JWT.Expiration, log.Named("auth")),
		Kids:        service.NewKidService(repos.kids, repos.assignments, repos.tx, log.Named("kids")),
		Exercises:   service.NewExerciseService(repos.exercises, repos.mediaUploads, fileStorage, log.Named("exercises")),
		Routines:    service.NewRoutineService(repos.routines, repos.exercises, log.Named("routines")),
		Assignments: service.NewAssignmentService(repos.assignments, repos.kids, repos.routines, repos.tx, log.Named("assignments")),
		Training:    trainingService,
	}

	router := api.NewRouter(api.RouterConfig{
		JWTSecret:      cfg.JWT.Secret,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		RateLimit:      cfg.RateLimit.MaxRequests,
		RateWindow:     cfg.RateLimit.Window,
	}, svcs, m, log)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("ListenAndServe error", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	log.Info("server exiting")
}

func openRepositories(cfg config.DatabaseConfig, log *zap.Logger) (*repositories, error) {
	if cfg.Driver == config.DriverMemory {
		log.Warn("using in-memory store, data is lost on restart")
		store := memory.New()
		return &repositories{
			users:        store.Users(),
			kids:         store.Kids(),
			exercises:    store.Exercises(),
			routines:     store.Routines(),
			assignments:  store.Assignments(),
			mediaUploads: store.MediaUploads(),
			sessions:     store.TrainingSessions(),
			tx:           store,
			close:        func() {},
		}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.ConnectDB(ctx, cfg.URI)
	if err != nil {
		return nil, err
	}
	db := client.Database(cfg.Name)
	log.Info("database connection established", zap.String("database", cfg.Name))

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		for collection, err := range mongo.EnsureIndexes(ctx, db) {
			log.Error("index creation failed", zap.String("collection", collection), zap.Error(err))
		}
		log.Info("index creation process completed")
	}()

	return &repositories{
		users:        mongo.NewMongoUserRepository(db),
		kids:         mongo.NewMongoKidRepository(db),
		exercises:    mongo.NewMongoExerciseRepository(db),
		routines:     mongo.NewMongoRoutineRepository(db),
		assignments:  mongo.NewMongoAssignmentRepository(db),
		mediaUploads: mongo.NewMongoMediaUploadRepository(db),
		sessions:     mongo.NewMongoTrainingSessionRepository(db),
		tx:           mongo.NewTransactor(client),
		close: func() {
			log.Info("disconnecting MongoDB")
			if err := mongo.DisconnectDB(client); err != nil {
				log.Error("failed to disconnect MongoDB", zap.Error(err))
			}
		},
	}, nil
}
