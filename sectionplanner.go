package questiongenerator

import (
	"strings"
)

const (
	// DefaultMaxSectionLength bounds one generation request's content.
	DefaultMaxSectionLength = 4000

	// DefaultMaxCombinedLength bounds topic-retrieved content before
	// section splitting.
	DefaultMaxCombinedLength = 4000

	// questionsPerSectionHint is the planning heuristic: one section
	// supports about this many questions.
	questionsPerSectionHint = 10

	// sectionOverlap carries context across consecutive sections.
	sectionOverlap = 200

	// boundaryLookback is how far a slice boundary may move backward
	// to land on a sentence terminator.
	boundaryLookback = 100
)

// SectionPlanner decides how much document content feeds the generator
// and how to slice it when it exceeds a single request's capacity.
type SectionPlanner struct {
	index             *ChunkIndex
	maxSectionLength  int
	maxCombinedLength int
}

// NewSectionPlanner creates a planner backed by a fitted chunk index.
func NewSectionPlanner(index *ChunkIndex) *SectionPlanner {
	return &SectionPlanner{
		index:             index,
		maxSectionLength:  DefaultMaxSectionLength,
		maxCombinedLength: DefaultMaxCombinedLength,
	}
}

// NumSections returns how many content sections a question count
// needs. Never zero, even for non-positive counts.
func NumSections(requestedCount int) int {
	n := (requestedCount + questionsPerSectionHint - 1) / questionsPerSectionHint
	if n < 1 {
		n = 1
	}
	return n
}

// Plan returns the ordered content sections for a generation run. With
// a topic it retrieves the most relevant chunks, falling back to the
// full text when retrieval yields nothing. Sections may overlap.
func (sp *SectionPlanner) Plan(fullText, topic string, requestedCount int) []string {
	numSections := NumSections(requestedCount)

	if strings.TrimSpace(topic) != "" && sp.index != nil && sp.index.Fitted() {
		k := 5 * numSections
		if k > sp.index.NumChunks() {
			k = sp.index.NumChunks()
		}
		content, err := sp.index.RetrieveForTopic(topic, k, sp.maxCombinedLength)
		if err != nil || content == "" {
			return sp.splitIntoSections(fullText, numSections)
		}
		if numSections > 1 {
			return sp.splitIntoSections(content, numSections)
		}
		return []string{content}
	}

	return sp.splitIntoSections(fullText, numSections)
}

// splitIntoSections cuts text into at most numSections near-equal
// slices with ~sectionOverlap characters of overlap, each slice ending
// on a sentence boundary when one is found within the lookback window.
func (sp *SectionPlanner) splitIntoSections(text string, numSections int) []string {
	if len(text) <= sp.maxSectionLength {
		return []string{text}
	}

	sectionLength := len(text) / numSections
	if sectionLength > sp.maxSectionLength {
		sectionLength = sp.maxSectionLength
	}

	var sections []string
	for i := 0; i < numSections; i++ {
		start := i * sectionLength
		if i > 0 {
			start -= sectionOverlap
			if start < 0 {
				start = 0
			}
		}

		end := start + sectionLength
		if end > len(text) {
			end = len(text)
		}
		if end < len(text) {
			end = snapToSentenceEnd(text, start, end)
		}

		sections = append(sections, text[start:end])
		if end >= len(text) {
			break
		}
	}
	return sections
}

// snapToSentenceEnd scans backward from end (at most boundaryLookback
// characters, never past start) for a sentence terminator followed by
// whitespace or end-of-text. Finding none leaves the cut point as-is;
// that is an accepted edge case, not an error.
func snapToSentenceEnd(text string, start, end int) int {
	limit := end - boundaryLookback
	if limit < start {
		limit = start
	}
	for j := end; j > limit; j-- {
		if j >= len(text) {
			continue
		}
		ch := text[j]
		if ch != '.' && ch != '!' && ch != '?' {
			continue
		}
		if j+1 == len(text) || isSpaceByte(text[j+1]) {
			return j + 1
		}
	}
	return end
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
