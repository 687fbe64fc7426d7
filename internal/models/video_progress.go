package models

import "time"

// VideoProgress tracks playback of one course module.
type VideoProgress struct {
	ID            string     `db:"id" json:"id"`
	UserID        string     `db:"user_id" json:"user_id"`
	CourseID      string     `db:"course_id" json:"course_id"`
	ModuleID      string     `db:"module_id" json:"module_id"`
	VideoPosition int        `db:"video_position" json:"video_position"`
	Duration      int        `db:"duration" json:"duration"`
	Completed     bool       `db:"completed" json:"completed"`
	LastWatched   *time.Time `db:"last_watched" json:"last_watched,omitempty"`
}
