package questiongenerator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemPromptRendersParams(t *testing.T) {
	prompt, err := SystemPrompt(TypeMultipleChoice, promptParams{
		NumQuestions: 7,
		Difficulty:   "high",
		Language:     "Spanish",
		Topic:        "photosynthesis",
	})
	require.NoError(t, err)

	assert.Contains(t, prompt, "generate 7 multiple-choice questions")
	assert.Contains(t, prompt, "high difficulty level")
	assert.Contains(t, prompt, "written in Spanish")
	assert.Contains(t, prompt, "topic: photosynthesis")
	// The prompt dictates the output grammar the parser expects.
	assert.Contains(t, prompt, "Q1.")
	assert.Contains(t, prompt, "Correct Answer:")
}

func TestSystemPromptDefaultsTopic(t *testing.T) {
	prompt, err := SystemPrompt(TypeTrueFalse, promptParams{
		NumQuestions: 3,
		Difficulty:   "medium",
		Language:     "English",
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "topic: general")
}

func TestSystemPromptGrammarPerType(t *testing.T) {
	params := promptParams{NumQuestions: 2, Difficulty: "medium", Language: "English"}

	prompt, err := SystemPrompt(TypeMultipleSelection, params)
	require.NoError(t, err)
	assert.Contains(t, prompt, "E. [Option E]")
	assert.Contains(t, prompt, "Correct Answers:")

	prompt, err = SystemPrompt(TypeShortAnswer, params)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Model Answer:")
}

func TestSystemPromptUnknownType(t *testing.T) {
	_, err := SystemPrompt(QuestionType("essay"), promptParams{})
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestUserPrompt(t *testing.T) {
	prompt := userPrompt(5, TypeTrueFalse, "the section text")
	assert.Equal(t, "Generate 5 true_false questions based on the following content:\n\nthe section text", prompt)
}
