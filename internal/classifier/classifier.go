package classifier

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// DetectedItem is one classified unit found in a document's text.
type DetectedItem struct {
	Name          string
	Description   string
	Category      string
	Difficulty    string
	Confidence    float64 // 0.0 - 1.0
	LocationStart int     // rune offset into the source text
	LocationEnd   int
}

// ItemClassifier is stage 2 of the pipeline: text -> classified items. The
// embedding model behind it is an external collaborator.
type ItemClassifier interface {
	Classify(ctx context.Context, text string) ([]DetectedItem, error)
}

// TrainingParams carries the tunables of one retraining run.
type TrainingParams struct {
	ValidationSplit float64
	Epochs          int
	LearningRate    float64
}

type TrainingResult struct {
	ModelVersion string
	Accuracy     float64
}

// Trainer retrains the classification model from accumulated feedback.
type Trainer interface {
	Train(ctx context.Context, params TrainingParams, progress func(pct int, message string)) (TrainingResult, error)
}

// HeuristicClassifier is a deterministic, model-free ItemClassifier used in
// development and tests. It treats title-cased lines as item boundaries and
// classifies by keyword. Production deployments wire a model-backed
// implementation instead.
type HeuristicClassifier struct{}

func NewHeuristicClassifier() *HeuristicClassifier {
	return &HeuristicClassifier{}
}

var categoryKeywords = map[string][]string{
	"Card":      {"card", "deck", "shuffle"},
	"Coin":      {"coin", "palm"},
	"Mentalism": {"mind", "predict", "mental"},
	"Stage":     {"stage", "audience", "curtain"},
	"Close-Up":  {"table", "close-up", "closeup"},
}

func (c *HeuristicClassifier) Classify(ctx context.Context, text string) ([]DetectedItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var items []DetectedItem
	offset := 0
	for _, block := range strings.Split(text, "\n\n") {
		blockLen := len([]rune(block)) + 2
		trimmed := strings.TrimSpace(block)

		lines := strings.SplitN(trimmed, "\n", 2)
		if len(lines) < 2 || !isTitleLine(lines[0]) {
			offset += blockLen
			continue
		}

		name := strings.TrimSpace(lines[0])
		description := strings.TrimSpace(lines[1])
		if len(description) < 20 {
			offset += blockLen
			continue
		}

		items = append(items, DetectedItem{
			Name:          name,
			Description:   description,
			Category:      classifyCategory(description),
			Difficulty:    classifyDifficulty(description),
			Confidence:    descriptionConfidence(description),
			LocationStart: offset,
			LocationEnd:   offset + len([]rune(trimmed)),
		})
		offset += blockLen
	}

	return items, nil
}

func isTitleLine(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || len(line) > 80 {
		return false
	}
	words := strings.Fields(line)
	titleCased := 0
	for _, w := range words {
		r := []rune(w)[0]
		if unicode.IsUpper(r) || unicode.IsDigit(r) {
			titleCased++
		}
	}
	return titleCased*2 >= len(words)
}

func classifyCategory(description string) string {
	lower := strings.ToLower(description)
	best := "Other"
	bestHits := 0
	for _, category := range []string{"Card", "Coin", "Mentalism", "Stage", "Close-Up"} {
		hits := 0
		for _, kw := range categoryKeywords[category] {
			hits += strings.Count(lower, kw)
		}
		if hits > bestHits {
			best, bestHits = category, hits
		}
	}
	return best
}

func classifyDifficulty(description string) string {
	lower := strings.ToLower(description)
	switch {
	case strings.Contains(lower, "advanced") || strings.Contains(lower, "expert"):
		return "advanced"
	case strings.Contains(lower, "beginner") || strings.Contains(lower, "simple") || strings.Contains(lower, "easy"):
		return "beginner"
	default:
		return "intermediate"
	}
}

func descriptionConfidence(description string) float64 {
	// Longer descriptions give the keyword classifier more to work with.
	switch {
	case len(description) >= 400:
		return 0.9
	case len(description) >= 150:
		return 0.8
	default:
		return 0.7
	}
}

// StaticTrainer simulates a training run with deterministic output. Used in
// development; a real Trainer calls out to the model service.
type StaticTrainer struct{}

func NewStaticTrainer() *StaticTrainer {
	return &StaticTrainer{}
}

func (t *StaticTrainer) Train(ctx context.Context, params TrainingParams, progress func(pct int, message string)) (TrainingResult, error) {
	epochs := params.Epochs
	if epochs <= 0 {
		epochs = 10
	}

	for i := 1; i <= epochs; i++ {
		if err := ctx.Err(); err != nil {
			return TrainingResult{}, err
		}
		if progress != nil {
			progress(i*100/epochs, fmt.Sprintf("epoch %d/%d", i, epochs))
		}
	}

	return TrainingResult{
		ModelVersion: time.Now().UTC().Format("20060102.150405"),
		Accuracy:     0.85,
	}, nil
}
