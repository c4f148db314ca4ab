// Package services provides business logic services for the repair log application.
package services

import (
	"context"
	"sort"

	"repairlog/internal/models"
	"repairlog/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

// MatcherService ranks catalogue faults against a technician-selected feature set.
type MatcherService struct {
	logger *observability.Logger
}

// NewMatcherService creates a new MatcherService instance.
func NewMatcherService(logger *observability.Logger) *MatcherService {
	if logger == nil {
		panic("NewMatcherService: logger is nil")
	}
	return &MatcherService{logger: logger}
}

// RankFaults scores each fault by how many of the selected features it lists
// and returns the matches ordered best-first. An empty selection means the
// technician has not picked anything yet, so no ranking is produced at all.
// Faults sharing no features with the selection are dropped rather than
// ranked at zero. Ties are broken by fault name so the order is stable
// across calls.
func RankFaults(faults []models.Fault, selectedFeatureIDs []int) []models.RankedFault {
	if len(selectedFeatureIDs) == 0 {
		return []models.RankedFault{}
	}

	selected := make(map[int]struct{}, len(selectedFeatureIDs))
	for _, id := range selectedFeatureIDs {
		selected[id] = struct{}{}
	}

	ranked := []models.RankedFault{}
	for _, fault := range faults {
		var matched []int
		for _, featureID := range fault.FeatureIDs {
			if _, ok := selected[featureID]; ok {
				matched = append(matched, featureID)
			}
		}
		if len(matched) == 0 {
			continue
		}
		sort.Ints(matched)
		ranked = append(ranked, models.RankedFault{
			Fault:             fault,
			MatchCount:        len(matched),
			MatchedFeatureIDs: matched,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].MatchCount != ranked[j].MatchCount {
			return ranked[i].MatchCount > ranked[j].MatchCount
		}
		return ranked[i].Fault.Name < ranked[j].Fault.Name
	})

	return ranked
}

// RankFaultsForProduct loads the fault catalogue for a product and ranks it
// against the selected features.
func (s *MatcherService) RankFaultsForProduct(ctx context.Context, catalog *CatalogService, productID int, selectedFeatureIDs []int) (result0 []models.RankedFault, err error) {
	ctx, span := observability.TraceMatcherFunction(ctx, "rank_faults_for_product",
		observability.AttributeProductID(productID),
		observability.AttributeFeatureCount(len(selectedFeatureIDs)),
	)
	defer observability.FinishSpan(span, &err)

	if len(selectedFeatureIDs) == 0 {
		return []models.RankedFault{}, nil
	}

	faults, err := catalog.ListFaults(ctx, productID)
	if err != nil {
		return nil, err
	}

	ranked := RankFaults(faults, selectedFeatureIDs)
	span.SetAttributes(attribute.Int("matcher.ranked_count", len(ranked)))
	return ranked, nil
}
