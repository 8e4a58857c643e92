package questiongenerator

import (
	"encoding/json"
	"fmt"
	"time"
)

// QuestionType identifies one of the supported question kinds.
type QuestionType string

const (
	TypeMultipleChoice    QuestionType = "multiple_choice"
	TypeMultipleSelection QuestionType = "multiple_selection"
	TypeTrueFalse         QuestionType = "true_false"
	TypeShortAnswer       QuestionType = "short_answer"
)

// QuestionTypes lists every supported question type.
var QuestionTypes = []QuestionType{
	TypeMultipleChoice,
	TypeMultipleSelection,
	TypeTrueFalse,
	TypeShortAnswer,
}

// Option is a single labeled answer option (letter A-E plus text).
type Option struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

// Question is the common surface of all question kinds. Each kind is a
// concrete struct carrying only its own fields; code that needs
// kind-specific data type-switches over the concrete types.
type Question interface {
	// Text returns the question text (the statement for true/false).
	Text() string
	// Type returns the question kind.
	Type() QuestionType
	// Valid reports whether the record satisfies its kind's structural
	// requirements (field presence and option cardinality).
	Valid() bool
}

// MultipleChoice has exactly 4 options and a single correct letter.
type MultipleChoice struct {
	Prompt  string   `json:"question_text"`
	Options []Option `json:"options"`
	Answer  string   `json:"correct_answer"`
}

func (q *MultipleChoice) Text() string       { return q.Prompt }
func (q *MultipleChoice) Type() QuestionType { return TypeMultipleChoice }

func (q *MultipleChoice) Valid() bool {
	return q.Prompt != "" && len(q.Options) == 4 && q.Answer != ""
}

// MultipleSelection has exactly 5 options and multiple correct letters.
type MultipleSelection struct {
	Prompt  string   `json:"question_text"`
	Options []Option `json:"options"`
	Answers []string `json:"correct_answers"`
}

func (q *MultipleSelection) Text() string       { return q.Prompt }
func (q *MultipleSelection) Type() QuestionType { return TypeMultipleSelection }

func (q *MultipleSelection) Valid() bool {
	return q.Prompt != "" && len(q.Options) == 5 && len(q.Answers) > 0
}

// TrueFalse is a statement with a True/False answer and no options.
type TrueFalse struct {
	Prompt string `json:"question_text"`
	Answer string `json:"correct_answer"`
}

func (q *TrueFalse) Text() string       { return q.Prompt }
func (q *TrueFalse) Type() QuestionType { return TypeTrueFalse }

func (q *TrueFalse) Valid() bool {
	return q.Prompt != "" && q.Answer != ""
}

// ShortAnswer carries a free-text model answer.
type ShortAnswer struct {
	Prompt      string `json:"question_text"`
	ModelAnswer string `json:"model_answer"`
}

func (q *ShortAnswer) Text() string       { return q.Prompt }
func (q *ShortAnswer) Type() QuestionType { return TypeShortAnswer }

func (q *ShortAnswer) Valid() bool {
	return q.Prompt != "" && q.ModelAnswer != ""
}

// MarshalJSON tags the record with its kind so logs and stored rows
// stay self-describing.
func (q *MultipleChoice) MarshalJSON() ([]byte, error) {
	type alias MultipleChoice
	return json.Marshal(struct {
		Kind QuestionType `json:"question_type"`
		*alias
	}{q.Type(), (*alias)(q)})
}

func (q *MultipleSelection) MarshalJSON() ([]byte, error) {
	type alias MultipleSelection
	return json.Marshal(struct {
		Kind QuestionType `json:"question_type"`
		*alias
	}{q.Type(), (*alias)(q)})
}

func (q *TrueFalse) MarshalJSON() ([]byte, error) {
	type alias TrueFalse
	return json.Marshal(struct {
		Kind QuestionType `json:"question_type"`
		*alias
	}{q.Type(), (*alias)(q)})
}

func (q *ShortAnswer) MarshalJSON() ([]byte, error) {
	type alias ShortAnswer
	return json.Marshal(struct {
		Kind QuestionType `json:"question_type"`
		*alias
	}{q.Type(), (*alias)(q)})
}

// UnmarshalQuestion decodes a stored question body into the concrete
// type for its kind.
func UnmarshalQuestion(kind QuestionType, data []byte) (Question, error) {
	var q Question
	switch kind {
	case TypeMultipleChoice:
		q = &MultipleChoice{}
	case TypeMultipleSelection:
		q = &MultipleSelection{}
	case TypeTrueFalse:
		q = &TrueFalse{}
	case TypeShortAnswer:
		q = &ShortAnswer{}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, kind)
	}
	if err := json.Unmarshal(data, q); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s question: %w", kind, err)
	}
	return q, nil
}

// GenerationRequest describes one question synthesis run.
type GenerationRequest struct {
	Type         QuestionType `json:"question_type"`
	NumQuestions int          `json:"num_questions"`
	Topic        string       `json:"topic,omitempty"`
	Difficulty   string       `json:"difficulty,omitempty"`
	Language     string       `json:"language,omitempty"`
	Temperature  float32      `json:"temperature,omitempty"`
}

// withDefaults fills in the fields the prompts require.
func (r GenerationRequest) withDefaults() GenerationRequest {
	if r.Difficulty == "" {
		r.Difficulty = "medium"
	}
	if r.Language == "" {
		r.Language = "English"
	}
	if r.Temperature == 0 {
		r.Temperature = 0.7
	}
	return r
}

// Metadata reports the outcome of a generation run. RequestedCount,
// GeneratedCount and FilteredCount can legitimately disagree: the
// service may under-deliver and the filter may drop candidates.
type Metadata struct {
	SourceFile     string       `json:"source_file,omitempty"`
	QuestionType   QuestionType `json:"question_type"`
	Topic          string       `json:"topic,omitempty"`
	Difficulty     string       `json:"difficulty"`
	Language       string       `json:"language"`
	RequestedCount int          `json:"requested_count"`
	GeneratedCount int          `json:"generated_count"`
	FilteredCount  int          `json:"filtered_count"`
	Timestamp      time.Time    `json:"timestamp"`
}

// GenerationResult is the final output of a pipeline run.
type GenerationResult struct {
	Questions []Question `json:"questions"`
	Metadata  Metadata   `json:"metadata"`
	Quality   *Quality   `json:"quality,omitempty"`
}
