package similarity

import (
	"math"
	"strings"
	"unicode"

	"github.com/shelfwise/cataloger/internal/store/model"
)

// Scorer computes a similarity score in [0.0, 1.0] between two catalog items.
// The embedding model behind a production Scorer is an external collaborator;
// TokenScorer is the deterministic default.
type Scorer interface {
	Score(a, b *model.CatalogItem) float64
}

// Thresholds map a raw score to a relationship kind. Duplicate, variation and
// similar are fixed; related is operator tunable.
type Thresholds struct {
	Related float64
}

const (
	duplicateThreshold = 0.90
	variationThreshold = 0.80
	similarThreshold   = 0.70
	DefaultRelated     = 0.60
)

// Classify maps a score to a relationship kind. Boundaries are inclusive on
// the lower bound: a score of exactly 0.90 is a duplicate. Scores below the
// related threshold produce no relationship and the second return is false.
func (t Thresholds) Classify(score float64) (string, bool) {
	related := t.Related
	if related <= 0 {
		related = DefaultRelated
	}

	switch {
	case score >= duplicateThreshold:
		return model.RelationshipDuplicate, true
	case score >= variationThreshold:
		return model.RelationshipVariation, true
	case score >= similarThreshold:
		return model.RelationshipSimilar, true
	case score >= related:
		return model.RelationshipRelated, true
	default:
		return "", false
	}
}

// TokenScorer scores items by cosine similarity over term-frequency vectors
// of their name and description. Deterministic and dependency free, which
// keeps reprocessing idempotent: same catalog in, same edges out.
type TokenScorer struct{}

func NewTokenScorer() *TokenScorer {
	return &TokenScorer{}
}

func (s *TokenScorer) Score(a, b *model.CatalogItem) float64 {
	va := termFrequencies(itemText(a))
	vb := termFrequencies(itemText(b))
	return cosine(va, vb)
}

// itemText weights the name by repeating it: two items with the same name but
// different descriptions should still score high.
func itemText(item *model.CatalogItem) string {
	return strings.Join([]string{item.Name, item.Name, item.Description}, " ")
}

func termFrequencies(text string) map[string]float64 {
	freq := make(map[string]float64)
	for _, token := range tokenize(text) {
		freq[token]++
	}
	return freq
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func cosine(a, b map[string]float64) float64 {
	var dot, normA, normB float64
	for token, fa := range a {
		normA += fa * fa
		if fb, ok := b[token]; ok {
			dot += fa * fb
		}
	}
	for _, fb := range b {
		normB += fb * fb
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
