package models

import "time"

// Certificate records a completed course.
type Certificate struct {
	ID                string    `db:"id" json:"id"`
	UserID            string    `db:"user_id" json:"user_id"`
	CourseID          string    `db:"course_id" json:"course_id"`
	CertificateNumber string    `db:"certificate_number" json:"certificate_number"`
	IssuedAt          time.Time `db:"issued_at" json:"issued_at"`
}

// CertificateDetail adds the course fields printed on the document.
type CertificateDetail struct {
	Certificate
	CourseTitle    string `db:"course_title" json:"course_title"`
	CourseDuration string `db:"course_duration" json:"course_duration"`
}

// CertificateLink is a signed, expiring download URL.
type CertificateLink struct {
	CertificateID string    `json:"certificate_id"`
	URL           string    `json:"url"`
	ExpiresAt     time.Time `json:"expires_at"`
}
