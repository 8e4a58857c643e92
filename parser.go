package questiongenerator

import (
	"fmt"
	"regexp"
	"strings"
)

// questionHeader matches the start of a question: "Q<digits>.<rest>".
var questionHeader = regexp.MustCompile(`^Q\d+\.`)

// ParseQuestions recovers structured question records from raw model
// output. Questions are paragraphs separated by a blank line whose
// first line matches "Q<n>."; lines that match no recognized prefix
// are ignored, and a question missing expected fields is still emitted
// (structural validity is checked downstream, not here).
func ParseQuestions(raw string, questionType QuestionType) ([]Question, error) {
	switch questionType {
	case TypeMultipleChoice, TypeMultipleSelection, TypeTrueFalse, TypeShortAnswer:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, questionType)
	}

	raw = strings.ReplaceAll(raw, "\r\n", "\n")

	var questions []Question
	for _, part := range strings.Split(raw, "\n\n") {
		lines := strings.Split(strings.TrimSpace(part), "\n")
		if len(lines) == 0 || !questionHeader.MatchString(lines[0]) {
			continue
		}

		_, rest, _ := strings.Cut(lines[0], ".")
		text := strings.TrimSpace(rest)
		body := lines[1:]

		switch questionType {
		case TypeMultipleChoice:
			questions = append(questions, parseMultipleChoice(text, body))
		case TypeMultipleSelection:
			questions = append(questions, parseMultipleSelection(text, body))
		case TypeTrueFalse:
			questions = append(questions, parseTrueFalse(text, body))
		case TypeShortAnswer:
			questions = append(questions, parseShortAnswer(text, body))
		}
	}
	return questions, nil
}

// optionLine parses "A. some text" style lines for the given letters.
func optionLine(line string, letters string) (Option, bool) {
	line = strings.TrimSpace(line)
	if len(line) < 2 || !strings.ContainsRune(letters, rune(line[0])) || line[1] != '.' {
		return Option{}, false
	}
	return Option{
		Letter: line[:1],
		Text:   strings.TrimSpace(line[2:]),
	}, true
}

// answerLine extracts the value of a "<prefix> value" line.
func answerLine(line, prefix string) (string, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, prefix) {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(line, prefix)), true
}

func parseMultipleChoice(text string, lines []string) *MultipleChoice {
	q := &MultipleChoice{Prompt: text}
	for _, line := range lines {
		if opt, ok := optionLine(line, "ABCD"); ok {
			q.Options = append(q.Options, opt)
			continue
		}
		if val, ok := answerLine(line, "Correct Answer:"); ok {
			q.Answer = val
		}
	}
	return q
}

func parseMultipleSelection(text string, lines []string) *MultipleSelection {
	q := &MultipleSelection{Prompt: text}
	for _, line := range lines {
		if opt, ok := optionLine(line, "ABCDE"); ok {
			q.Options = append(q.Options, opt)
			continue
		}
		if val, ok := answerLine(line, "Correct Answers:"); ok {
			for _, label := range strings.Split(val, ",") {
				if label = strings.TrimSpace(label); label != "" {
					q.Answers = append(q.Answers, label)
				}
			}
		}
	}
	return q
}

func parseTrueFalse(text string, lines []string) *TrueFalse {
	q := &TrueFalse{Prompt: text}
	for _, line := range lines {
		if val, ok := answerLine(line, "Correct Answer:"); ok {
			q.Answer = val
		}
	}
	return q
}

func parseShortAnswer(text string, lines []string) *ShortAnswer {
	q := &ShortAnswer{Prompt: text}
	for _, line := range lines {
		if val, ok := answerLine(line, "Model Answer:"); ok {
			q.ModelAnswer = val
		}
	}
	return q
}
