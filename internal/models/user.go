package models

import "time"

// User represents a teacher account in the system
type User struct {
	ID            int64     `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	Name          string    `json:"name"`
	OAuthProvider string    `json:"-"`
	OAuthSubject  string    `json:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Session represents an authenticated session
type Session struct {
	ID           string
	UserID       int64
	ExpiresAt    time.Time
	CreatedAt    time.Time
	VisitCounted bool
}

// IsExpired checks if the session has expired
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Profile holds the one-shot onboarding answers collected after first sign-in
type Profile struct {
	UserID     int64     `json:"-"`
	SchoolName string    `json:"schoolName"`
	Region     string    `json:"region"`
	Role       string    `json:"role"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
