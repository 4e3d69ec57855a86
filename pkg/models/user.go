package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an authenticated identity. One row per identity,
// created on first sign-in. Authentication itself happens upstream;
// this service only stores the profile and the YouTube refresh token
// captured during history ingestion.
type User struct {
	ID                  uuid.UUID `json:"id"`
	Email               string    `json:"email"`
	Name                string    `json:"name,omitempty"`
	Image               string    `json:"image,omitempty"`
	YouTubeRefreshToken string    `json:"-"` // Secret - never serialized
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
