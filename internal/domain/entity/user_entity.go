package entity

import (
	"time"
)

// User is the aggregate root for the corporate account domain.
// PasswordHash always holds a bcrypt hash, never the plaintext.
// Active=false marks a soft-deleted account; the row is kept.
type User struct {
	ID           int64
	Email        string
	FullName     string
	PasswordHash string
	Department   *string
	JobTitle     *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicView is the projection of a user returned to clients.
// It unconditionally omits the password hash.
type PublicView struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"full_name"`
	Department *string   `json:"department"`
	JobTitle   *string   `json:"job_title"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Public returns the client-safe projection of the user.
func (u *User) Public() PublicView {
	return PublicView{
		ID:         u.ID,
		Email:      u.Email,
		FullName:   u.FullName,
		Department: u.Department,
		JobTitle:   u.JobTitle,
		Active:     u.Active,
		CreatedAt:  u.CreatedAt,
		UpdatedAt:  u.UpdatedAt,
	}
}
