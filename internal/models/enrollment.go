package models

import "time"

type EnrollmentStatus string

const (
	EnrollmentActive  EnrollmentStatus = "active"
	EnrollmentDropped EnrollmentStatus = "dropped"
)

// Enrollment links a student to a course. Maintained by the enrollment
// flow elsewhere; this service only reads it for eligibility checks.
type Enrollment struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	CourseID  uint             `json:"course_id" gorm:"not null;uniqueIndex:idx_enrollments_course_student"`
	StudentID string           `json:"student_id" gorm:"not null;size:255;uniqueIndex:idx_enrollments_course_student"`
	Status    EnrollmentStatus `json:"status" gorm:"not null;default:active;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Enrollment) TableName() string {
	return "enrollments"
}
