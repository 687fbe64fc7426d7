package dto

import "github.com/noah-isme/faxlab-academy-api/internal/models"

// CatalogQueryParams binds the browse query string.
type CatalogQueryParams struct {
	Search   string `form:"search"`
	Category string `form:"category"`
	Free     string `form:"free"`
	Sort     string `form:"sort"`
	Scope    string `form:"scope"`
}

// CourseDetailResponse is the detail view, with the caller's enrollment when signed in.
type CourseDetailResponse struct {
	Course     models.Course      `json:"course"`
	Enrolled   bool               `json:"enrolled"`
	Enrollment *models.Enrollment `json:"enrollment,omitempty"`
}
