package similarity

import (
	"github.com/google/uuid"

	"github.com/shelfwise/cataloger/internal/store/model"
)

// Engine turns raw similarity scores into cross-reference rows.
type Engine struct {
	scorer     Scorer
	thresholds Thresholds
}

func NewEngine(scorer Scorer, thresholds Thresholds) *Engine {
	return &Engine{scorer: scorer, thresholds: thresholds}
}

// Edges scores the freshly classified items against the rest of the catalog.
// Cross-references link items across documents, so pairs sharing a document
// are never scored. One row per qualifying pair. The result is deterministic
// for a given catalog, so reprocessing a document converges to the same edge
// set.
func (e *Engine) Edges(fresh []model.CatalogItem, catalog []model.CatalogItem) []model.CrossReference {
	var edges []model.CrossReference

	for i := range fresh {
		for j := range catalog {
			if fresh[i].DocumentID == catalog[j].DocumentID {
				continue
			}
			if edge, ok := e.edge(&fresh[i], &catalog[j]); ok {
				edges = append(edges, edge)
			}
		}
	}

	return edges
}

func (e *Engine) edge(source, target *model.CatalogItem) (model.CrossReference, bool) {
	score := e.scorer.Score(source, target)
	kind, ok := e.thresholds.Classify(score)
	if !ok {
		return model.CrossReference{}, false
	}
	return model.CrossReference{
		ID:               uuid.New(),
		SourceItemID:     source.ID,
		TargetItemID:     target.ID,
		RelationshipKind: kind,
		SimilarityScore:  score,
	}, true
}
