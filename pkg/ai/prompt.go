package ai

import (
	"fmt"
	"strings"
)

// The object keys in both prompts are a fixed external-interface contract:
// whatever natural language the values are generated in, the keys stay in
// English so downstream parsing never depends on the requested language.

func buildQuizPrompt(input QuizInput) string {
	b := strings.Builder{}

	b.WriteString("<START OF ACTUAL CODE>")
	b.WriteString(input.ReferenceCode)
	b.WriteString("<END OF ACTUAL CODE>\n")
	b.WriteString("The above code is the correct version of the code, provided for reference. First, identify the goals of this actual code.\n\n")

	b.WriteString("<START OF USER ENTERED CODE>")
	b.WriteString(input.StudentCode)
	b.WriteString("<END OF USER ENTERED CODE>\n")
	b.WriteString("For the above code, identify any errors present in it, whether syntactical, logical, or semantic.\n")
	b.WriteString("Then identify whether this code actually follows the goals of the actual code. ")
	b.WriteString("If it deviates and does not have the exact functionality of the actual code, that is a functionality error and the code is not correct.\n\n")

	b.WriteString("If there are errors, generate a 10 multiple choice question quiz focusing 6 of them on the part with the error. ")
	b.WriteString("If there is no error, generate any 10 interesting MCQs on that topic while limiting time complexity questions to 1. ")
	b.WriteString("Give the answer key separately at the end. For the code to be correct, it must achieve what the provided actual code does.\n\n")

	fmt.Fprintf(&b, "Print everything in %s in JSON format, WITH JSON KEYS IN ENGLISH, specifically:\n", input.Language)
	fmt.Fprintf(&b, `{
  "code_errors": [{
    "error_type": "error type description in %[1]s",
    "description": "detailed explanation of the error in %[1]s",
    "incorrect_code": "snippet of wrong code",
    "correct_code": "corrected code snippet"
  }],
  "code_correct": true or false depending on whether the code matches closely the output of the actual code and is free from syntax, logical, and semantic errors,
  "quiz": [{
    "question": "Question text in %[1]s",
    "options": [
      "A) option one, options in %[1]s",
      "B) option two",
      "C) option three",
      "D) option four"
    ]
  }],
  "answer_key": {
    "0": "Correct option letter (just A or B or C or D)",
    "1": "Correct option letter (just A or B or C or D)"
  },
  "test_inputs": [
    "stdin input to the user generated code, lines separated by \\n",
    "generate 3 of these inputs, all of which must be appropriate and test the code for success"
  ]
}
`, input.Language)

	fmt.Fprintf(&b, "\nJSON keys must be in English, while values are in %s. ", input.Language)
	b.WriteString("Escape any double quotes that lie within a JSON string, and any other relevant characters.")

	if input.StrictJSON {
		b.WriteString("\nReturn ONLY the minified JSON object. No markdown fences, no commentary, nothing outside the JSON.")
	} else {
		b.WriteString("\nProvide the minified, escaped, and validated JSON output as described above.")
	}

	return b.String()
}

func buildSummaryPrompt(code, language string) string {
	b := strings.Builder{}

	b.WriteString(code)
	fmt.Fprintf(&b, "\n\nFor this code, give me a detailed paragraph explanation without highlighting any keywords, and translate it to very simple spoken %s while maintaining context and meaning. ", language)
	b.WriteString("Respond in JSON format. The JSON keys must remain in English (\"explanation\", \"translation\", \"algorithm\"):\n")
	fmt.Fprintf(&b, `{
  "explanation": "Detailed paragraph explanation of the given code, describing the code logic clearly and simply.",
  "translation": "Translated version of the explanation in simple %[1]s, keeping context and meaning intact. Words directly transliterated from English are enclosed in double quotes.",
  "algorithm": "In %[1]s, explain how the program works step by step, in simple words, thorough but not revealing the entire code. Bullet points separated by \\n."
}
`, language)
	b.WriteString("\nPlease ensure that the JSON is valid and the keys are in English.")

	return b.String()
}
