package models

import "time"

// User roles recognised by the API.
const (
	RoleStudent   = "student"
	RoleProfessor = "professor"
)

// User represents an account belonging to a student or a professor.
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Username  string    `gorm:"size:128;uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"size:255;not null" json:"-"`
	Role      string    `gorm:"size:32;not null" json:"role"`
	ClassID   *uint     `json:"class_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsProfessor reports whether the user can manage classrooms and programs.
func (u User) IsProfessor() bool {
	return u.Role == RoleProfessor
}
