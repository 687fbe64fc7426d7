package models

import (
	"strings"
	"time"
)

// CourseCategory enumerates catalog categories.
type CourseCategory string

// Known course categories. CategoryAll disables category filtering.
const (
	CategoryAll      CourseCategory = "all"
	CategoryBasics   CourseCategory = "basics"
	CategoryAdvanced CourseCategory = "advanced"
	CategoryEthics   CourseCategory = "ethics"
	CategoryCareer   CourseCategory = "career"
)

// ParseCategory normalises raw input to a known category. Empty input maps to CategoryAll.
func ParseCategory(raw string) (CourseCategory, bool) {
	switch c := CourseCategory(strings.ToLower(strings.TrimSpace(raw))); c {
	case "":
		return CategoryAll, true
	case CategoryAll, CategoryBasics, CategoryAdvanced, CategoryEthics, CategoryCareer:
		return c, true
	default:
		return "", false
	}
}

// CourseSort enumerates catalog orderings.
type CourseSort string

// Supported sort keys. SortPopular is the default.
const (
	SortPopular   CourseSort = "popular"
	SortRating    CourseSort = "rating"
	SortPriceLow  CourseSort = "price-low"
	SortPriceHigh CourseSort = "price-high"
)

// ParseSort normalises raw input to a known sort key. Empty input maps to SortPopular.
func ParseSort(raw string) (CourseSort, bool) {
	switch s := CourseSort(strings.ToLower(strings.TrimSpace(raw))); s {
	case "":
		return SortPopular, true
	case SortPopular, SortRating, SortPriceLow, SortPriceHigh:
		return s, true
	default:
		return "", false
	}
}

// Course is a catalog entry. Enrollments is the popularity figure counted over every enrollment of the course.
type Course struct {
	ID          string    `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Price       float64   `db:"price" json:"price"`
	IsFree      bool      `db:"is_free" json:"is_free"`
	Duration    string    `db:"duration" json:"duration"`
	Modules     int       `db:"modules" json:"modules"`
	Rating      float64   `db:"rating" json:"rating"`
	Category    string    `db:"category" json:"category"`
	Level       string    `db:"level" json:"level"`
	ImageURL    string    `db:"image_url" json:"image_url"`
	Enrollments int       `db:"enrollments" json:"enrollments"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// Free reports whether the course is enrolled into directly without checkout.
func (c Course) Free() bool {
	return c.Price == 0 || c.IsFree
}

// Summary returns the payload handed from course detail to checkout.
func (c Course) Summary() CourseSummary {
	return CourseSummary{ID: c.ID, Title: c.Title, Price: c.Price, Image: c.ImageURL}
}

// CourseSummary is the minimal course view carried through checkout.
type CourseSummary struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
	Image string  `json:"image"`
}

// CatalogQuery captures the browse controls.
type CatalogQuery struct {
	Search             string
	Category           CourseCategory
	FreeOnly           bool
	Sort               CourseSort
	IncludeDescription bool
}

// CourseStats mirrors the free_enrollments_stats view.
type CourseStats struct {
	CourseID         string `db:"course_id" json:"course_id"`
	Title            string `db:"title" json:"title"`
	TotalEnrollments int    `db:"total_enrollments" json:"total_enrollments"`
}
