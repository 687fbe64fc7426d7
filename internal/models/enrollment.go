package models

import "time"

// Enrollment links a learner to a course. (user_id, course_id) is unique.
type Enrollment struct {
	ID          string     `db:"id" json:"id"`
	UserID      string     `db:"user_id" json:"user_id"`
	CourseID    string     `db:"course_id" json:"course_id"`
	EnrolledAt  time.Time  `db:"enrolled_at" json:"enrolled_at"`
	Completed   bool       `db:"completed" json:"completed"`
	CompletedAt *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	PaymentID   *string    `db:"payment_id" json:"payment_id,omitempty"`
}

// EnrollmentDetail enriches Enrollment with course info for listings.
type EnrollmentDetail struct {
	Enrollment
	CourseTitle    string `db:"course_title" json:"course_title"`
	CourseImageURL string `db:"course_image_url" json:"course_image_url"`
	CourseLevel    string `db:"course_level" json:"course_level"`
	CourseDuration string `db:"course_duration" json:"course_duration"`
	CourseModules  int    `db:"course_modules" json:"course_modules"`
}

// EnrollmentOutcome names the result of an enroll request.
type EnrollmentOutcome string

// Enroll outcomes.
const (
	OutcomeEnrolled         EnrollmentOutcome = "enrolled"
	OutcomeAlreadyEnrolled  EnrollmentOutcome = "already_enrolled"
	OutcomeCheckoutRequired EnrollmentOutcome = "checkout_required"
)

// EnrollmentDecision tells the client what happened and where to go next.
type EnrollmentDecision struct {
	Outcome    EnrollmentOutcome `json:"outcome"`
	Notice     string            `json:"notice,omitempty"`
	Redirect   string            `json:"redirect"`
	Checkout   *CourseSummary    `json:"checkout,omitempty"`
	Enrollment *Enrollment       `json:"enrollment,omitempty"`
}
