package questiongenerator

import (
	"strings"
	"unicode"
)

const (
	// defaultAcceptThreshold is the confidence a question must clear
	// to pass the filter.
	defaultAcceptThreshold = 0.7

	// fallbackConsultBelow: below this confidence the external
	// fallback check is consulted, when one is configured.
	fallbackConsultBelow = 0.8

	// importantWordMinLen: only alphabetic tokens longer than this
	// count as evidence when matching against the source content.
	importantWordMinLen = 4
)

// VerificationResult reports how well a question is supported by the
// source content.
type VerificationResult struct {
	Verified   bool     `json:"verified"`
	Confidence float64  `json:"confidence"`
	Method     string   `json:"verification_method"`
	Matches    []string `json:"content_matches,omitempty"`
	// FallbackError records a swallowed fallback-check failure.
	FallbackError string `json:"fallback_error,omitempty"`
}

// FallbackChecker is an injectable external verification capability
// (e.g. a web search). Its accuracy is not specified; the checker only
// adopts its result when it is strictly more confident, and any
// failure is recorded, never propagated.
type FallbackChecker interface {
	Check(q Question) (VerificationResult, error)
}

// QuestionChecker verifies question correctness against source content
// and filters out unsupported questions.
type QuestionChecker struct {
	fallback  FallbackChecker
	threshold float64
}

// NewQuestionChecker creates a checker with the default acceptance
// threshold and no fallback.
func NewQuestionChecker() *QuestionChecker {
	return &QuestionChecker{threshold: defaultAcceptThreshold}
}

// SetFallback installs the optional external verification capability.
func (qc *QuestionChecker) SetFallback(fc FallbackChecker) { qc.fallback = fc }

// SetThreshold overrides the filter acceptance threshold.
func (qc *QuestionChecker) SetThreshold(t float64) { qc.threshold = t }

// importantWords extracts the alphabetic tokens longer than
// importantWordMinLen characters from lowercased text.
func importantWords(text string) []string {
	var words []string
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if len(w) <= importantWordMinLen {
			continue
		}
		alpha := true
		for _, r := range w {
			if !unicode.IsLetter(r) {
				alpha = false
				break
			}
		}
		if alpha {
			words = append(words, w)
		}
	}
	return words
}

// Verify checks a question against the source content: confidence is
// the fraction of the question's important words found in the
// lowercased content, and the question is verified above 0.7. When
// confidence is below 0.8 and a fallback is configured, the fallback
// is consulted and its result adopted only if strictly more confident.
func (qc *QuestionChecker) Verify(q Question, content string) VerificationResult {
	result := VerificationResult{Method: "content"}

	words := importantWords(q.Text())
	contentLower := strings.ToLower(content)
	for _, w := range words {
		if strings.Contains(contentLower, w) {
			result.Matches = append(result.Matches, w)
		}
	}
	if len(words) > 0 {
		result.Confidence = float64(len(result.Matches)) / float64(len(words))
	}
	result.Verified = result.Confidence > defaultAcceptThreshold

	if result.Confidence < fallbackConsultBelow && qc.fallback != nil {
		fb, err := qc.fallback.Check(q)
		if err != nil {
			result.FallbackError = err.Error()
			VerboseLog("Fallback verification failed: %v", err)
		} else if fb.Confidence > result.Confidence {
			fb.Method = "fallback"
			fb.FallbackError = ""
			return fb
		}
	}
	return result
}

// Filter keeps only the questions whose verification confidence clears
// the acceptance threshold; questions about material absent from the
// source content are dropped.
func (qc *QuestionChecker) Filter(questions []Question, content string) []Question {
	var kept []Question
	for _, q := range questions {
		result := qc.Verify(q, content)
		if result.Confidence > qc.threshold {
			kept = append(kept, q)
		} else {
			VerboseLog("Dropping question (confidence %.2f): %s", result.Confidence, q.Text())
		}
	}
	return kept
}
