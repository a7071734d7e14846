package dto

import "encoding/json"

// MarkQuizRequest carries a student's answers for grading. Answers stays raw
// so the service can reject any shape that is not an object mapping question
// indices to option letters.
type MarkQuizRequest struct {
	QuizID  uint            `json:"quiz_id" validate:"required,gt=0"`
	Answers json.RawMessage `json:"answers" validate:"required"`
}

// MarkQuizResponse reports the computed score.
type MarkQuizResponse struct {
	QuizID uint `json:"quiz_id"`
	Marks  int  `json:"marks"`
	Total  int  `json:"total"`
}
