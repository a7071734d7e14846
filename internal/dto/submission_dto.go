package dto

import "github.com/sahayak-labs/paathshala-api/pkg/ai"

// SubmitCodeRequest is the payload for submitting a program attempt. The
// student identity comes from the authenticated session, not the body.
type SubmitCodeRequest struct {
	ProgramID    uint   `json:"program_id" validate:"required,gt=0"`
	Code         string `json:"code" validate:"required,min=1"`
	LanguageID   int    `json:"language_id" validate:"required,gt=0"`
	QuizLanguage string `json:"quiz_language"`
}

// TestRunResult is the outcome of running the submitted code against one
// generated stdin. Never persisted; returned directly in the response.
type TestRunResult struct {
	Stdin         string `json:"stdin"`
	Stdout        string `json:"stdout"`
	Stderr        string `json:"stderr"`
	CompileOutput string `json:"compile_output"`
}

// SubmitCodeResponse aggregates everything produced by one submission.
type SubmitCodeResponse struct {
	ID      uint            `json:"id"`
	QuizID  uint            `json:"quiz_id"`
	Results []TestRunResult `json:"results"`
	Quiz    ai.QuizPayload  `json:"quiz"`
}
