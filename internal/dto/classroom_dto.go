package dto

import "github.com/sahayak-labs/paathshala-api/internal/models"

// CreateClassroomRequest creates a classroom owned by the calling professor.
type CreateClassroomRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// ClassroomDetailResponse bundles a classroom with its students and programs.
type ClassroomDetailResponse struct {
	Classroom models.Classroom `json:"classroom"`
	Students  []UserResponse   `json:"students"`
	Programs  []models.Program `json:"programs"`
}
