package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/campuskit/quiz-service/internal/services"
	"github.com/campuskit/quiz-service/internal/utils"
)

type GradingHandler struct {
	BaseHandler
	gradingService services.GradingService
}

func NewGradingHandler(gradingService services.GradingService, logger utils.Logger) *GradingHandler {
	return &GradingHandler{
		BaseHandler:    NewBaseHandler(logger),
		gradingService: gradingService,
	}
}

// GradeAttempt applies the first grade to a submitted attempt
// @Summary Grade an attempt
// @Description Applies a per-question point vector; fails if a grade already exists
// @Tags grading
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param grade body services.GradeAttemptRequest true "Point vector and feedback"
// @Success 200 {object} services.GradeResult
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/grade [post]
func (h *GradingHandler) GradeAttempt(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	h.LogRequest(c, "Grading attempt", "attempt_id", attemptID)

	var req services.GradeAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	graderID, ok := h.callerID(c)
	if !ok {
		return
	}

	result, err := h.gradingService.GradeAttempt(c.Request.Context(), attemptID, graderID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// UpdateGrade revises an existing grade
// @Summary Update an attempt's grade
// @Description Replaces the grade with a new point vector; allowed any time after submission
// @Tags grading
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param grade body services.GradeAttemptRequest true "Point vector and feedback"
// @Success 200 {object} services.GradeResult
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/grade [put]
func (h *GradingHandler) UpdateGrade(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	h.LogRequest(c, "Updating grade", "attempt_id", attemptID)

	var req services.GradeAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	graderID, ok := h.callerID(c)
	if !ok {
		return
	}

	result, err := h.gradingService.UpdateGrade(c.Request.Context(), attemptID, graderID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
