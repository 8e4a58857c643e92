package questiongenerator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const photosynthesisContent = "Photosynthesis converts sunlight into chemical energy. " +
	"Plants absorb carbon dioxide through their leaves and release oxygen. " +
	"Chlorophyll pigments capture light inside chloroplasts."

func TestImportantWords(t *testing.T) {
	words := importantWords("Photosynthesis converts sunlight into energy, right?")
	// Short tokens and tokens with punctuation are excluded.
	assert.Equal(t, []string{"photosynthesis", "converts", "sunlight"}, words)
}

func TestVerifySupportedQuestion(t *testing.T) {
	checker := NewQuestionChecker()
	q := &ShortAnswer{
		Prompt:      "Photosynthesis converts sunlight into chemical energy",
		ModelAnswer: "Yes",
	}

	result := checker.Verify(q, photosynthesisContent)
	assert.True(t, result.Verified)
	assert.InDelta(t, 1.0, result.Confidence, 1e-9)
	assert.Equal(t, "content", result.Method)
	assert.Contains(t, result.Matches, "photosynthesis")
}

func TestVerifyUnsupportedQuestion(t *testing.T) {
	checker := NewQuestionChecker()
	q := &ShortAnswer{Prompt: "Describe quantum entanglement between distant particles", ModelAnswer: "x"}

	result := checker.Verify(q, photosynthesisContent)
	assert.False(t, result.Verified)
	assert.Less(t, result.Confidence, 0.5)
}

func TestVerifyNoImportantWords(t *testing.T) {
	checker := NewQuestionChecker()
	q := &TrueFalse{Prompt: "Is it so?", Answer: "True"}

	result := checker.Verify(q, photosynthesisContent)
	assert.Zero(t, result.Confidence)
	assert.False(t, result.Verified)
}

type stubFallback struct {
	result VerificationResult
	err    error
	calls  int
}

func (s *stubFallback) Check(q Question) (VerificationResult, error) {
	s.calls++
	return s.result, s.err
}

func TestVerifyFallbackAdoptedWhenMoreConfident(t *testing.T) {
	checker := NewQuestionChecker()
	fallback := &stubFallback{result: VerificationResult{Verified: true, Confidence: 0.95}}
	checker.SetFallback(fallback)

	q := &ShortAnswer{Prompt: "Describe quantum entanglement between distant particles", ModelAnswer: "x"}
	result := checker.Verify(q, photosynthesisContent)

	assert.Equal(t, 1, fallback.calls)
	assert.Equal(t, "fallback", result.Method)
	assert.InDelta(t, 0.95, result.Confidence, 1e-9)
	assert.True(t, result.Verified)
}

func TestVerifyFallbackIgnoredWhenLessConfident(t *testing.T) {
	checker := NewQuestionChecker()
	fallback := &stubFallback{result: VerificationResult{Confidence: 0.1}}
	checker.SetFallback(fallback)

	q := &ShortAnswer{Prompt: "Photosynthesis converts sunlight somehow apparently", ModelAnswer: "x"}
	result := checker.Verify(q, photosynthesisContent)

	assert.Equal(t, 1, fallback.calls)
	assert.Equal(t, "content", result.Method)
	assert.Greater(t, result.Confidence, 0.1)
}

func TestVerifyFallbackNotConsultedWhenConfident(t *testing.T) {
	checker := NewQuestionChecker()
	fallback := &stubFallback{result: VerificationResult{Confidence: 1}}
	checker.SetFallback(fallback)

	q := &ShortAnswer{Prompt: "Photosynthesis converts sunlight into chemical energy", ModelAnswer: "x"}
	result := checker.Verify(q, photosynthesisContent)

	assert.Zero(t, fallback.calls)
	assert.Equal(t, "content", result.Method)
}

func TestVerifyFallbackErrorSwallowed(t *testing.T) {
	checker := NewQuestionChecker()
	fallback := &stubFallback{err: errors.New("search unavailable")}
	checker.SetFallback(fallback)

	q := &ShortAnswer{Prompt: "Describe quantum entanglement between distant particles", ModelAnswer: "x"}
	result := checker.Verify(q, photosynthesisContent)

	assert.Equal(t, 1, fallback.calls)
	assert.Equal(t, "content", result.Method)
	assert.Equal(t, "search unavailable", result.FallbackError)
	assert.False(t, result.Verified)
}

func TestFilterDropsUnsupportedQuestions(t *testing.T) {
	checker := NewQuestionChecker()
	supported := &ShortAnswer{Prompt: "Photosynthesis converts sunlight into chemical energy", ModelAnswer: "x"}
	unsupported := &ShortAnswer{Prompt: "Explain volcanic eruption dynamics under pressure", ModelAnswer: "x"}

	kept := checker.Filter([]Question{supported, unsupported}, photosynthesisContent)
	require.Len(t, kept, 1)
	assert.Same(t, Question(supported), kept[0])
}

func TestFilterThresholdOverride(t *testing.T) {
	checker := NewQuestionChecker()
	checker.SetThreshold(0)

	q := &ShortAnswer{Prompt: "Photosynthesis happens somewhere probably", ModelAnswer: "x"}
	kept := checker.Filter([]Question{q}, photosynthesisContent)
	assert.Len(t, kept, 1)
}
