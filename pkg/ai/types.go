package ai

import "context"

// QuizInput carries the artefacts embedded in the quiz-generation prompt.
// Language is the natural language for all generated values; JSON keys stay
// in English regardless (a binding contract with the provider).
type QuizInput struct {
	StudentCode   string
	ReferenceCode string
	Language      string
	// StrictJSON asks the provider to respond with bare minified JSON. Set on
	// the retry after a malformed first response.
	StrictJSON bool
}

// CodeError is one structured deviation found in the student's code.
type CodeError struct {
	ErrorType     string `json:"error_type"`
	Description   string `json:"description"`
	IncorrectCode string `json:"incorrect_code"`
	CorrectCode   string `json:"correct_code"`
}

// QuizQuestion is one multiple-choice question with four options.
type QuizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// QuizPayload is the validated quiz document produced by the provider.
type QuizPayload struct {
	CodeErrors  []CodeError       `json:"code_errors"`
	CodeCorrect bool              `json:"code_correct"`
	Quiz        []QuizQuestion    `json:"quiz"`
	AnswerKey   map[string]string `json:"answer_key"`
	TestInputs  []string          `json:"test_inputs"`
}

// SummaryPayload is the validated explanation document for one program.
type SummaryPayload struct {
	Explanation string `json:"explanation"`
	Translation string `json:"translation"`
	Algorithm   string `json:"algorithm"`
}

// QuizGenerator produces the raw quiz/error response for a submission.
// Parsing and validation are the caller's responsibility because the provider
// output is not guaranteed well-formed.
type QuizGenerator interface {
	GenerateQuiz(ctx context.Context, input QuizInput) (string, error)
}

// Summarizer produces the raw translated-explanation response for a program.
type Summarizer interface {
	Summarize(ctx context.Context, code, language string) (string, error)
}
