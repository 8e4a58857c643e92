package questiongenerator

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wellFormedMC(prompt string) *MultipleChoice {
	return &MultipleChoice{
		Prompt: prompt,
		Options: []Option{
			{Letter: "A", Text: "The first plausible option"},
			{Letter: "B", Text: "A second, rather different option"},
			{Letter: "C", Text: "Another distractor entirely"},
			{Letter: "D", Text: "The last choice on offer here"},
		},
		Answer: "A",
	}
}

func TestAnalyzeQualityWellFormedBatch(t *testing.T) {
	questions := []Question{
		wellFormedMC("Which mechanism explains the observed seasonal variation?"),
		wellFormedMC("What distinguishes supervised from unsupervised learning?"),
		wellFormedMC("Why does gradient descent require a differentiable loss?"),
	}

	quality := AnalyzeQuality(questions)
	assert.GreaterOrEqual(t, quality.Overall, 0)
	assert.LessOrEqual(t, quality.Overall, 100)

	// Healthy lengths and all-valid structure earn full sub-scores.
	assert.InDelta(t, 25, quality.Breakdown.LengthScore, 1e-9)
	assert.InDelta(t, 25, quality.Breakdown.StructureScore, 1e-9)
	// One question type out of four.
	assert.InDelta(t, 6.25, quality.Breakdown.DiversityScore, 1e-9)

	require.NotNil(t, quality.OptionQuality)
	assert.InDelta(t, 25, quality.Breakdown.OptionScore, 1e-9)
	assert.Equal(t, 26, quality.OptionQuality.MinLength)
	assert.InDelta(t, 1.0, quality.TypeDistribution[TypeMultipleChoice], 1e-9)
}

func TestAnalyzeQualityEmptyBatch(t *testing.T) {
	quality := AnalyzeQuality(nil)
	assert.Zero(t, quality.Overall)
	assert.Nil(t, quality.OptionQuality)
}

func TestAnalyzeQualityStructuralPenalty(t *testing.T) {
	valid := wellFormedMC("Which mechanism explains the observed seasonal variation?")
	// Multiple selection with only 4 options is structurally invalid.
	invalid := &MultipleSelection{
		Prompt:  "Select everything that applies to this situation here",
		Options: wellFormedMC("x").Options,
		Answers: []string{"A"},
	}

	quality := AnalyzeQuality([]Question{valid, invalid})
	assert.InDelta(t, 12.5, quality.Breakdown.StructureScore, 1e-9)
}

func TestAnalyzeQualityNonChoiceBatch(t *testing.T) {
	questions := []Question{
		&TrueFalse{Prompt: "Water boils at one hundred degrees Celsius at sea level.", Answer: "True"},
		&ShortAnswer{Prompt: "Explain why the sky appears blue during daytime.", ModelAnswer: "Rayleigh scattering."},
	}

	quality := AnalyzeQuality(questions)
	// Without options the option sub-score is flat mid-range credit.
	assert.InDelta(t, 15, quality.Breakdown.OptionScore, 1e-9)
	assert.Nil(t, quality.OptionQuality)
	// Two distinct types.
	assert.InDelta(t, 12.5, quality.Breakdown.DiversityScore, 1e-9)
}

func TestAnalyzeQualityShortQuestionsSuggestion(t *testing.T) {
	questions := []Question{
		&TrueFalse{Prompt: "Yes.", Answer: "True"},
		&TrueFalse{Prompt: "No.", Answer: "False"},
	}

	quality := AnalyzeQuality(questions)
	assert.Less(t, quality.Breakdown.LengthScore, 12.5)

	found := false
	for _, s := range quality.Suggestions {
		if strings.Contains(s, "too short") {
			found = true
		}
	}
	assert.True(t, found, "expected a too-short suggestion, got %v", quality.Suggestions)
}

func TestOptionStats(t *testing.T) {
	stats := optionStats([]int{10, 20, 30})
	assert.Equal(t, 10, stats.MinLength)
	assert.Equal(t, 30, stats.MaxLength)
	assert.InDelta(t, 20, stats.AverageLength, 1e-9)
	// Population variance.
	assert.InDelta(t, 200.0/3.0, stats.LengthVariance, 1e-9)

	single := optionStats([]int{7})
	assert.Zero(t, single.LengthVariance)
}

func TestMonitorLogGeneration(t *testing.T) {
	dir := t.TempDir()
	monitor, err := NewQuestionMonitor(dir)
	require.NoError(t, err)

	questions := []Question{
		wellFormedMC("Which mechanism explains the observed seasonal variation?"),
		wellFormedMC("What distinguishes supervised from unsupervised learning?"),
	}
	meta := Metadata{
		QuestionType:   TypeMultipleChoice,
		Difficulty:     "medium",
		Language:       "English",
		RequestedCount: 4,
		GeneratedCount: 3,
		FilteredCount:  2,
		Timestamp:      time.Now(),
	}

	path, err := monitor.LogGeneration(questions, meta)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "questions_"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var record LogRecord
	require.NoError(t, json.Unmarshal(data, &record))
	assert.Equal(t, 2, record.Metrics.QuestionCount)
	assert.InDelta(t, 0.5, record.Metrics.GenerationSuccessRate, 1e-9)
	assert.InDelta(t, 2.0/3.0, record.Metrics.FilterPassRate, 1e-9)
	assert.InDelta(t, 4, record.Metrics.AverageOptionsPerQuestion, 1e-9)
}

func TestMonitorMetricsWeightedAverages(t *testing.T) {
	monitor, err := NewQuestionMonitor(t.TempDir())
	require.NoError(t, err)

	// First batch: 2 questions averaging length 10.
	monitor.record(BatchMetrics{
		QuestionCount:         2,
		QuestionType:          TypeTrueFalse,
		Difficulty:            "medium",
		Language:              "English",
		AverageQuestionLength: 10,
	})
	// Second batch: 6 questions averaging length 30.
	monitor.record(BatchMetrics{
		QuestionCount:         6,
		QuestionType:          TypeMultipleChoice,
		Difficulty:            "high",
		Language:              "English",
		AverageQuestionLength: 30,
	})

	metrics := monitor.Snapshot()
	assert.Equal(t, 8, metrics.TotalQuestionsGenerated)
	assert.Equal(t, 2, metrics.QuestionsByType[TypeTrueFalse])
	assert.Equal(t, 6, metrics.QuestionsByType[TypeMultipleChoice])
	assert.Equal(t, 8, metrics.QuestionsByLanguage["English"])
	// (10*2 + 30*6) / 8 = 25
	assert.InDelta(t, 25, metrics.AverageQuestionLength, 1e-9)
}

func TestMonitorSnapshotIsACopy(t *testing.T) {
	monitor, err := NewQuestionMonitor(t.TempDir())
	require.NoError(t, err)

	monitor.record(BatchMetrics{QuestionCount: 1, QuestionType: TypeTrueFalse})
	snapshot := monitor.Snapshot()
	snapshot.QuestionsByType[TypeTrueFalse] = 99

	assert.Equal(t, 1, monitor.Snapshot().QuestionsByType[TypeTrueFalse])
}

func TestMonitorRecentLogs(t *testing.T) {
	monitor, err := NewQuestionMonitor(t.TempDir())
	require.NoError(t, err)

	meta := Metadata{QuestionType: TypeTrueFalse, RequestedCount: 1, GeneratedCount: 1}
	for i := 0; i < 3; i++ {
		_, err := monitor.LogGeneration([]Question{
			&TrueFalse{Prompt: "A statement.", Answer: "True"},
		}, meta)
		require.NoError(t, err)
	}

	records, err := monitor.RecentLogs(2)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	for _, r := range records {
		assert.NotEmpty(t, r.ID)
		assert.Equal(t, 1, r.Metrics.QuestionCount)
	}
}
