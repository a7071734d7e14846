package models

import "time"

// Summary is a translated explanation of a program in one natural language,
// paired with a hosted audio narration of the translated text.
type Summary struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProgramID uint      `gorm:"not null;index" json:"program_id"`
	Language  string    `gorm:"size:8;not null" json:"language"`
	Summary   string    `gorm:"type:text" json:"summary"`
	Algorithm string    `gorm:"type:text" json:"algorithm"`
	AudioURL  string    `gorm:"size:512" json:"audio_url"`
	CreatedAt time.Time `json:"created_at"`
}
