package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/campuskit/quiz-service/internal/config"
	"github.com/campuskit/quiz-service/internal/models"
	"github.com/campuskit/quiz-service/internal/repositories"
	"github.com/campuskit/quiz-service/internal/services"
	"github.com/campuskit/quiz-service/internal/utils"
)

type HandlerManager struct {
	attemptHandler *AttemptHandler
	gradingHandler *GradingHandler
	userHandler    *UserHandler
	authMiddleware *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	logger utils.Logger,
	casdoorConfig config.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		attemptHandler: NewAttemptHandler(serviceManager.Attempt(), logger),
		gradingHandler: NewGradingHandler(serviceManager.Grading(), logger),
		userHandler:    NewUserHandler(userRepo, logger),
		authMiddleware: authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Quiz-scoped attempt routes
		quizzes := v1.Group("/quizzes")
		{
			// Taking a quiz - any authenticated user; enrollment is
			// checked in the service layer.
			quizzes.POST("/:quiz_id/attempts/start", hm.attemptHandler.StartOrResume)

			// Reviewing submissions - Teachers and Admins only
			quizzes.GET("/:quiz_id/attempts", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.attemptHandler.ListAttempts)
		}

		// Attempt routes
		attempts := v1.Group("/attempts")
		{
			attempts.GET("/:id", hm.attemptHandler.GetAttempt)
			attempts.PUT("/:id/answers", hm.attemptHandler.SaveAnswers)
			attempts.POST("/:id/submit", hm.attemptHandler.Submit)
			attempts.GET("/:id/time-remaining", hm.attemptHandler.GetTimeRemaining)

			// Grading - Teachers and Admins only
			attempts.POST("/:id/grade", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.gradingHandler.GradeAttempt)
			attempts.PUT("/:id/grade", hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin), hm.gradingHandler.UpdateGrade)
		}

		// User routes
		users := v1.Group("/users")
		{
			users.GET("/:id", hm.userHandler.GetUser)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "quiz-service",
		})
	})
}
