package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/quiz-service/internal/models"
	"github.com/campuskit/quiz-service/internal/timing"
	"github.com/campuskit/quiz-service/internal/utils"
	"github.com/campuskit/quiz-service/internal/validator"
)

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse wraps non-entity success payloads.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// BaseHandler carries the pieces every handler shares.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	args = append(args,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", c.GetString("request_id"))
	h.logger.Info(msg, args...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string) {
	h.logger.Error(msg,
		"error", err,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", c.GetString("request_id"))
}

// parseIDParam parses a numeric path parameter. On failure it writes a
// 400 and returns 0; IDs in this service are never 0.
func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + param,
		})
		return 0
	}
	return uint(id)
}

// callerID returns the authenticated user's ID or writes a 401.
func (h *BaseHandler) callerID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return "", false
	}
	id, ok := userID.(string)
	if !ok || id == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return "", false
	}
	return id, true
}

// handleServiceError maps domain errors onto HTTP statuses.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	switch {
	case errors.Is(err, models.ErrAuthRequired):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Authentication required",
		})
	case errors.Is(err, models.ErrForbiddenResource):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Access denied",
		})
	case errors.Is(err, models.ErrNotEnrolled):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Not enrolled in this course",
		})
	case errors.Is(err, models.ErrQuizNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Quiz not found",
		})
	case errors.Is(err, models.ErrAttemptNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Attempt not found",
		})
	case errors.Is(err, models.ErrUserNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "User not found",
		})
	case errors.Is(err, models.ErrPastDueDate):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Quiz is past its due date",
		})
	case errors.Is(err, models.ErrAlreadySubmitted):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Attempt already submitted",
		})
	case errors.Is(err, models.ErrAlreadyStarted):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Attempt already started",
		})
	case errors.Is(err, models.ErrNotInProgress):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Attempt is not in progress",
		})
	case errors.Is(err, models.ErrNotSubmitted):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Attempt has not been submitted",
		})
	case errors.Is(err, models.ErrAlreadyGraded):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Attempt already graded; use the grade update endpoint",
		})
	case errors.Is(err, models.ErrResourceClosed):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Attempt is closed and no longer accepts answers",
		})
	case errors.Is(err, models.ErrConcurrentModification):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Attempt was modified concurrently, retry the operation",
		})
	case errors.Is(err, models.ErrInvalidGrade):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Grade out of range",
		})
	case errors.Is(err, timing.ErrInvalidTimeLimit):
		h.LogError(c, err, "Quiz has an invalid time limit")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Quiz configuration is invalid",
		})
	default:
		h.LogError(c, err, "Unexpected service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}
