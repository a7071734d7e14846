package dto

import "github.com/sahayak-labs/paathshala-api/internal/models"

// CreateProgramRequest is the payload for creating a reference exercise.
type CreateProgramRequest struct {
	Title       string `json:"title" validate:"required,min=1,max=255"`
	Description string `json:"description"`
	Code        string `json:"code" validate:"required,min=1"`
	ClassID     uint   `json:"class_id" validate:"required,gt=0"`
}

// ProgramDetailResponse bundles a program with its generated summaries.
type ProgramDetailResponse struct {
	Program   models.Program   `json:"program"`
	Summaries []models.Summary `json:"summaries"`
}
