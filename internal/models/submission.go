package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission is one student attempt at a program. Feedback holds the
// AI-identified code errors as a JSON array. QuizID links the submission to
// the quiz generated in the same request so grading and feedback can be
// joined unambiguously even when a student retries a program.
type Submission struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ProgramID uint           `gorm:"not null;index" json:"program_id"`
	StudentID uint           `gorm:"not null;index" json:"student_id"`
	QuizID    uint           `gorm:"not null" json:"quiz_id"`
	Code      string         `gorm:"type:text;not null" json:"code"`
	HasError  bool           `gorm:"not null" json:"has_error"`
	Feedback  datatypes.JSON `json:"feedback"`
	CreatedAt time.Time      `json:"created_at"`
	Quiz      Quiz           `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
