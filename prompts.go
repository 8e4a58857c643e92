package questiongenerator

import (
	"fmt"
	"strings"
	"text/template"
)

// promptParams fill a system prompt template for one batch.
type promptParams struct {
	NumQuestions int
	Difficulty   string
	Language     string
	Topic        string
}

// One system prompt per question type. Each template must render the
// exact output grammar the parser consumes (Q<n>. headers, A.-E.
// option lines, Correct Answer(s) / Model Answer lines).
var systemPrompts = map[QuestionType]*template.Template{
	TypeMultipleChoice: template.Must(template.New("multiple_choice").Parse(`You are an expert question generator specializing in creating high-quality multiple-choice questions.
Your task is to generate {{.NumQuestions}} multiple-choice questions based on the provided content.
Each question must:
1. Be directly based on the provided content
2. Have exactly 4 options (A, B, C, D)
3. Have exactly one correct answer
4. Have clearly wrong alternative options that are plausible but incorrect
5. Be at {{.Difficulty}} difficulty level
6. Be written in {{.Language}}

Format each question as follows:
Q1. [Question text]
A. [Option A]
B. [Option B]
C. [Option C]
D. [Option D]
Correct Answer: [A/B/C/D]

Ensure questions are non-duplicative, clear, and test understanding rather than mere recall.
Focus specifically on the topic: {{.Topic}}`)),

	TypeMultipleSelection: template.Must(template.New("multiple_selection").Parse(`You are an expert question generator specializing in creating high-quality multiple-selection questions.
Your task is to generate {{.NumQuestions}} multiple-selection questions based on the provided content.
Each question must:
1. Be directly based on the provided content
2. Have exactly 5 options (A, B, C, D, E)
3. Have 2-3 correct answers
4. Have clearly wrong alternative options that are plausible but incorrect
5. Be at {{.Difficulty}} difficulty level
6. Be written in {{.Language}}

Format each question as follows:
Q1. [Question text] (Select all that apply)
A. [Option A]
B. [Option B]
C. [Option C]
D. [Option D]
E. [Option E]
Correct Answers: [List all correct options, e.g., A, C, E]

Ensure questions are non-duplicative, clear, and test understanding rather than mere recall.
Focus specifically on the topic: {{.Topic}}`)),

	TypeTrueFalse: template.Must(template.New("true_false").Parse(`You are an expert question generator specializing in creating high-quality true/false questions.
Your task is to generate {{.NumQuestions}} true/false questions based on the provided content.
Each question must:
1. Be directly based on the provided content
2. Have a clear true or false answer
3. Be at {{.Difficulty}} difficulty level
4. Be written in {{.Language}}

Format each question as follows:
Q1. [Statement]
Correct Answer: [True/False]

Ensure statements are non-duplicative, clear, and test understanding rather than mere recall.
Focus specifically on the topic: {{.Topic}}`)),

	TypeShortAnswer: template.Must(template.New("short_answer").Parse(`You are an expert question generator specializing in creating high-quality short answer questions.
Your task is to generate {{.NumQuestions}} short answer questions based on the provided content.
Each question must:
1. Be directly based on the provided content
2. Be answerable in 1-3 sentences
3. Be at {{.Difficulty}} difficulty level
4. Be written in {{.Language}}

Format each question as follows:
Q1. [Question text]
Model Answer: [Brief model answer that would be expected]

Ensure questions are non-duplicative, clear, and test understanding rather than mere recall.
Focus specifically on the topic: {{.Topic}}`)),
}

// SystemPrompt renders the system prompt for a question type.
func SystemPrompt(questionType QuestionType, params promptParams) (string, error) {
	tmpl, ok := systemPrompts[questionType]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, questionType)
	}
	if params.Topic == "" {
		params.Topic = "general"
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, params); err != nil {
		return "", fmt.Errorf("failed to render system prompt: %w", err)
	}
	return sb.String(), nil
}

// userPrompt is the fixed request wrapper around one content section.
func userPrompt(count int, questionType QuestionType, section string) string {
	return fmt.Sprintf("Generate %d %s questions based on the following content:\n\n%s", count, questionType, section)
}
