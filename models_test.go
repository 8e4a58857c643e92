package questiongenerator

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionJSONRoundTrip(t *testing.T) {
	questions := []Question{
		wellFormedMC("Which mechanism explains the observed seasonal variation?"),
		&MultipleSelection{
			Prompt: "Which of these are mammals?",
			Options: []Option{
				{Letter: "A", Text: "Dolphin"}, {Letter: "B", Text: "Shark"},
				{Letter: "C", Text: "Bat"}, {Letter: "D", Text: "Penguin"},
				{Letter: "E", Text: "Whale"},
			},
			Answers: []string{"A", "C", "E"},
		},
		&TrueFalse{Prompt: "Sound travels faster in water than in air.", Answer: "True"},
		&ShortAnswer{Prompt: "What causes tides?", ModelAnswer: "The gravitational pull of the Moon and Sun."},
	}

	for _, q := range questions {
		data, err := json.Marshal(q)
		require.NoError(t, err)

		// Every serialized question carries its kind.
		var tagged struct {
			Kind QuestionType `json:"question_type"`
		}
		require.NoError(t, json.Unmarshal(data, &tagged))
		assert.Equal(t, q.Type(), tagged.Kind)

		restored, err := UnmarshalQuestion(q.Type(), data)
		require.NoError(t, err)
		assert.Equal(t, q, restored)
	}
}

func TestUnmarshalQuestionUnknownKind(t *testing.T) {
	_, err := UnmarshalQuestion(QuestionType("essay"), []byte(`{}`))
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestQuestionValidity(t *testing.T) {
	assert.True(t, wellFormedMC("A perfectly reasonable question?").Valid())
	assert.False(t, (&MultipleChoice{Prompt: "No options"}).Valid())

	threeOptions := wellFormedMC("x")
	threeOptions.Options = threeOptions.Options[:3]
	assert.False(t, threeOptions.Valid())

	noAnswer := wellFormedMC("x")
	noAnswer.Answer = ""
	assert.False(t, noAnswer.Valid())

	fiveOptions := []Option{
		{Letter: "A", Text: "one"}, {Letter: "B", Text: "two"},
		{Letter: "C", Text: "three"}, {Letter: "D", Text: "four"},
		{Letter: "E", Text: "five"},
	}
	assert.True(t, (&MultipleSelection{Prompt: "Pick some", Options: fiveOptions, Answers: []string{"A", "C"}}).Valid())
	// Four options is never structurally valid for multiple selection.
	assert.False(t, (&MultipleSelection{Prompt: "Pick some", Options: fiveOptions[:4], Answers: []string{"A"}}).Valid())
	assert.False(t, (&MultipleSelection{Prompt: "Pick some", Options: fiveOptions}).Valid())

	assert.False(t, (&TrueFalse{Prompt: "Statement"}).Valid())
	assert.True(t, (&TrueFalse{Prompt: "Statement", Answer: "False"}).Valid())

	assert.False(t, (&ShortAnswer{Prompt: "Question?"}).Valid())
	assert.True(t, (&ShortAnswer{Prompt: "Question?", ModelAnswer: "Answer."}).Valid())
}

func TestGenerationRequestDefaults(t *testing.T) {
	req := GenerationRequest{Type: TypeMultipleChoice, NumQuestions: 5}.withDefaults()
	assert.Equal(t, "medium", req.Difficulty)
	assert.Equal(t, "English", req.Language)
	assert.InDelta(t, 0.7, float64(req.Temperature), 1e-6)

	req = GenerationRequest{Difficulty: "high", Language: "German", Temperature: 0.2}.withDefaults()
	assert.Equal(t, "high", req.Difficulty)
	assert.Equal(t, "German", req.Language)
	assert.InDelta(t, 0.2, float64(req.Temperature), 1e-6)
}
