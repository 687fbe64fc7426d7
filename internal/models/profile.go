package models

import "time"

// Profile is the learner's public profile. ID equals the user id.
type Profile struct {
	ID        string    `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	FullName  string    `db:"full_name" json:"full_name"`
	AvatarURL string    `db:"avatar_url" json:"avatar_url,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// UpdateProfileRequest edits the only mutable profile field.
type UpdateProfileRequest struct {
	FullName string `json:"full_name" validate:"required,max=120"`
}
