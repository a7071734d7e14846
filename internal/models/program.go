package models

import "time"

// Program is a reference coding exercise created by a professor. Its code is
// the canonical solution used as the grading oracle for student submissions
// and is never modified by the submission pipeline.
type Program struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Code        string    `gorm:"type:text;not null" json:"code"`
	ClassID     uint      `gorm:"not null" json:"class_id"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
