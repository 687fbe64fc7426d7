package dto

import "time"

// LearnerDashboardResponse captures the aggregated learner dashboard payload.
type LearnerDashboardResponse struct {
	UserID       string                 `json:"userId"`
	Stats        LearnerStats           `json:"stats"`
	Courses      []DashboardCourse      `json:"courses"`
	Certificates []DashboardCertificate `json:"certificates"`
	GeneratedAt  time.Time              `json:"generatedAt"`
}

// LearnerStats summarises learning activity.
type LearnerStats struct {
	TotalEnrolled  int     `json:"totalEnrolled"`
	Completed      int     `json:"completed"`
	InProgress     int     `json:"inProgress"`
	Certificates   int     `json:"certificates"`
	HoursLearned   int     `json:"hoursLearned"`
	CompletionRate float64 `json:"completionRate"`
}

// DashboardCourse is one enrolled course with progress.
type DashboardCourse struct {
	EnrollmentID string    `json:"enrollmentId"`
	CourseID     string    `json:"courseId"`
	Title        string    `json:"title"`
	ImageURL     string    `json:"imageUrl"`
	Level        string    `json:"level"`
	Duration     string    `json:"duration"`
	Completed    bool      `json:"completed"`
	Progress     int       `json:"progress"`
	EnrolledAt   time.Time `json:"enrolledAt"`
}

// DashboardCertificate lists an earned certificate.
type DashboardCertificate struct {
	ID                string    `json:"id"`
	CourseID          string    `json:"courseId"`
	CourseTitle       string    `json:"courseTitle"`
	CertificateNumber string    `json:"certificateNumber"`
	IssuedAt          time.Time `json:"issuedAt"`
}
