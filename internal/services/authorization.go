package services

import (
	"context"
	"log/slog"

	"gorm.io/gorm"

	"github.com/campuskit/quiz-service/internal/models"
	"github.com/campuskit/quiz-service/internal/repositories"
)

// enrollmentPolicy gates quiz taking on course enrollment and grading on
// role.
type enrollmentPolicy struct {
	repo   repositories.Repository
	db     *gorm.DB
	logger *slog.Logger
}

func NewAuthorizationPolicy(repo repositories.Repository, db *gorm.DB, logger *slog.Logger) AuthorizationPolicy {
	return &enrollmentPolicy{
		repo:   repo,
		db:     db,
		logger: logger,
	}
}

func (p *enrollmentPolicy) CanSubmitQuiz(ctx context.Context, user *models.User, quiz *models.Quiz) error {
	if user == nil {
		return models.ErrAuthRequired
	}

	// Teachers and admins may open their own quizzes without enrollment.
	if user.CanGrade() {
		return nil
	}

	enrolled, err := p.repo.Enrollment().IsEnrolled(ctx, p.db, quiz.CourseID, user.ID)
	if err != nil {
		return err
	}
	if !enrolled {
		p.logger.Warn("Student not enrolled in course",
			"student_id", user.ID,
			"course_id", quiz.CourseID,
			"quiz_id", quiz.ID)
		return models.ErrNotEnrolled
	}

	return nil
}

func (p *enrollmentPolicy) CanGradeSubmissions(ctx context.Context, user *models.User, quiz *models.Quiz) error {
	if user == nil {
		return models.ErrAuthRequired
	}
	if !user.CanGrade() {
		return models.ErrForbiddenResource
	}
	return nil
}
