package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrMalformedResponse marks provider output that is not valid JSON or does
// not satisfy the expected schema. Callers treat it as reportable, never as a
// crash.
var ErrMalformedResponse = errors.New("malformed ai response")

const quizSchemaDoc = `{
  "type": "object",
  "required": ["quiz", "answer_key", "test_inputs"],
  "properties": {
    "code_errors": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "error_type": {"type": "string"},
          "description": {"type": "string"},
          "incorrect_code": {"type": "string"},
          "correct_code": {"type": "string"}
        }
      }
    },
    "code_correct": {"type": "boolean"},
    "quiz": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["question", "options"],
        "properties": {
          "question": {"type": "string"},
          "options": {"type": "array", "items": {"type": "string"}, "minItems": 2}
        }
      }
    },
    "answer_key": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    },
    "test_inputs": {
      "type": "array",
      "items": {"type": "string"}
    }
  }
}`

const summarySchemaDoc = `{
  "type": "object",
  "required": ["explanation", "translation", "algorithm"],
  "properties": {
    "explanation": {"type": "string"},
    "translation": {"type": "string"},
    "algorithm": {"type": "string"}
  }
}`

var (
	quizSchema    = mustCompileSchema("quiz.json", quizSchemaDoc)
	summarySchema = mustCompileSchema("summary.json", summarySchemaDoc)
)

func mustCompileSchema(name, doc string) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(doc)); err != nil {
		panic(err)
	}
	return compiler.MustCompile(name)
}

// StripFences removes a markdown code fence wrapping, if any, so fenced
// provider responses can still be parsed.
func StripFences(raw string) string {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}

func validate(schema *jsonschema.Schema, raw string) error {
	var doc interface{}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

// ParseQuizPayload strips fences, validates the document against the quiz
// schema, and decodes it. Absent code_correct defaults to true and absent
// code_errors to an empty list.
func ParseQuizPayload(raw string) (QuizPayload, error) {
	cleaned := StripFences(raw)
	if err := validate(quizSchema, cleaned); err != nil {
		return QuizPayload{}, err
	}

	payload := QuizPayload{CodeCorrect: true}
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return QuizPayload{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if payload.CodeErrors == nil {
		payload.CodeErrors = []CodeError{}
	}
	if payload.AnswerKey == nil {
		payload.AnswerKey = map[string]string{}
	}

	return payload, nil
}

// ParseSummaryPayload strips fences, validates, and decodes a summary
// document.
func ParseSummaryPayload(raw string) (SummaryPayload, error) {
	cleaned := StripFences(raw)
	if err := validate(summarySchema, cleaned); err != nil {
		return SummaryPayload{}, err
	}

	var payload SummaryPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return SummaryPayload{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return payload, nil
}
