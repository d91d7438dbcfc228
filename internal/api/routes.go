package api

import (
	"net/http"
	"time"

	"jumpingkids/backend/internal/domain"
	"jumpingkids/backend/internal/metrics"
	"jumpingkids/backend/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const (
	serviceName    = "jumpingkids-backend"
	serviceVersion = "1.0.0"
)

// Services bundles what the route table needs.
type Services struct {
	Auth        service.AuthService
	Kids        service.KidService
	Exercises   service.ExerciseService
	Routines    service.RoutineService
	Assignments service.AssignmentService
	Training    service.TrainingService
}

// RouterConfig carries the transport-level settings.
type RouterConfig struct {
	JWTSecret      string
	AllowedOrigins []string
	RateLimit      int
	RateWindow     time.Duration
}

// NewRouter builds the gin engine with the shared middleware chain and every route.
func NewRouter(cfg RouterConfig, svcs Services, m *metrics.Metrics, log *zap.Logger) *gin.Engine {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(service.JSONFieldName)
	}

	router := gin.New()
	router.Use(
		gin.Recovery(),
		RequestLogger(log.Named("http")),
		m.Middleware(),
		CORSMiddleware(cfg.AllowedOrigins),
	)
	if cfg.RateLimit > 0 && cfg.RateWindow > 0 {
		router.Use(RateLimitMiddleware(cfg.RateLimit, cfg.RateWindow))
	}

	SetupRoutes(router, cfg.JWTSecret, svcs, m, log)
	return router
}

func SetupRoutes(router *gin.Engine, jwtSecret string, svcs Services, m *metrics.Metrics, log *zap.Logger) {
	authHandler := NewAuthHandler(svcs.Auth, log)
	kidHandler := NewKidHandler(svcs.Kids, log)
	exerciseHandler := NewExerciseHandler(svcs.Exercises, log)
	routineHandler := NewRoutineHandler(svcs.Routines, log)
	assignmentHandler := NewAssignmentHandler(svcs.Assignments, log)
	trainingHandler := NewTrainingHandler(svcs.Training, log)

	authMiddleware := AuthMiddleware(jwtSecret)
	tutorOnly := RoleMiddleware(domain.RoleTutor)

	// --- Operational ---
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/info", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"name": serviceName, "version": serviceVersion})
	})
	router.GET("/metrics", m.Handler())

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", authHandler.Me)

		// --- Kid profiles (owned by the caller, tutor or kid account) ---
		kidGroup := protected.Group("/kids")
		{
			kidGroup.POST("", kidHandler.CreateKid)
			kidGroup.GET("", kidHandler.ListKids)
			kidGroup.GET("/:kidId", kidHandler.GetKid)
			kidGroup.PUT("/:kidId", kidHandler.UpdateKid)
			kidGroup.DELETE("/:kidId", kidHandler.DeleteKid)
			kidGroup.GET("/:kidId/stats", kidHandler.GetKidStats)
			kidGroup.PUT("/:kidId/stats", kidHandler.UpdateKidStats)
		}

		// --- Catalog: readable by everyone, custom entries written by tutors ---
		exerciseGroup := protected.Group("/exercises")
		{
			exerciseGroup.POST("", tutorOnly, exerciseHandler.CreateExercise)
			exerciseGroup.GET("/:exerciseId", exerciseHandler.GetExercise)
			exerciseGroup.PUT("/:exerciseId", tutorOnly, exerciseHandler.UpdateExercise)
			exerciseGroup.DELETE("/:exerciseId", tutorOnly, exerciseHandler.DeleteExercise)

			exerciseGroup.POST("/:exerciseId/media/upload-url", tutorOnly, exerciseHandler.RequestUploadURL)
			exerciseGroup.POST("/:exerciseId/media/confirm", tutorOnly, exerciseHandler.ConfirmUpload)
			exerciseGroup.GET("/:exerciseId/media/:kind", exerciseHandler.GetMediaURL)
		}

		routineGroup := protected.Group("/routines")
		{
			routineGroup.POST("", tutorOnly, routineHandler.CreateRoutine)
			routineGroup.GET("/:routineId", routineHandler.GetRoutine)
			routineGroup.PUT("/:routineId", tutorOnly, routineHandler.UpdateRoutine)
			routineGroup.DELETE("/:routineId", tutorOnly, routineHandler.DeleteRoutine)
		}

		assignmentGroup := protected.Group("/assignments")
		{
			assignmentGroup.POST("", assignmentHandler.CreateAssignment)
			assignmentGroup.GET("/:assignmentId", assignmentHandler.GetAssignment)
			assignmentGroup.PUT("/:assignmentId/complete", assignmentHandler.CompleteAssignment)
		}

		// --- Training sessions ---
		trainingGroup := protected.Group("/training/sessions")
		{
			trainingGroup.POST("", trainingHandler.CreateSession)
			trainingGroup.GET("/:sessionId", trainingHandler.GetSession)
			trainingGroup.PUT("/:sessionId/exercise/complete", trainingHandler.CompleteExercise)
			trainingGroup.PUT("/:sessionId/complete", trainingHandler.CompleteSession)
		}
	}
}
