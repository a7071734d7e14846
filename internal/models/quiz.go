package models

import (
	"time"

	"gorm.io/datatypes"
)

// Quiz is a generated multiple-choice assessment tied to one submission
// event. Questions and the answer key are stored as JSON documents. The
// answer key and the student's submitted answers live in separate columns so
// the key survives grading; a quiz is graded at most once.
type Quiz struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	ProgramID      uint           `gorm:"not null;index" json:"program_id"`
	StudentID      uint           `gorm:"not null;index" json:"student_id"`
	Questions      datatypes.JSON `gorm:"not null" json:"questions"`
	AnswerKey      datatypes.JSON `gorm:"not null" json:"answer_key"`
	StudentAnswers datatypes.JSON `json:"student_answers"`
	Marks          *int           `json:"marks"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// IsGraded reports whether the quiz already has a recorded score.
func (q Quiz) IsGraded() bool {
	return q.Marks != nil
}
