package capture

import (
	"testing"
	"time"

	"repairlog/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestMergeIsShallowAndNonMutating(t *testing.T) {
	base := Draft{"product_id": 5, "fault_features": []int{10}}
	merged := base.Merge(Draft{"fault_diagnosed": []int{7}})

	assert.Equal(t, Draft{"product_id": 5, "fault_features": []int{10}}, base)
	assert.Equal(t, 5, merged["product_id"])
	assert.Equal(t, []int{7}, merged["fault_diagnosed"])

	// Reusing a key overwrites the earlier value
	again := merged.Merge(Draft{"fault_features": []int{11}})
	assert.Equal(t, []int{11}, again["fault_features"])
	assert.Equal(t, []int{10}, merged["fault_features"])
}

func TestNormalizeDraftDerivesTypeTextDate(t *testing.T) {
	now := time.Date(2024, 3, 15, 23, 59, 0, 0, time.UTC)
	out := NormalizeDraft(Draft{"product_id": 5}, models.OutcomeNotRepaired, now)

	assert.Equal(t, "N", out["type"])
	assert.Equal(t, "Not repaired", out["text"])
	assert.Equal(t, "2024-03-15", out["date"])
}

func TestNormalizeDraftRenamesFeature(t *testing.T) {
	out := NormalizeDraft(Draft{"feature": []int{10, 11}}, models.OutcomeRepaired, time.Now())
	assert.Equal(t, []int{10, 11}, out["fault_features"])
	_, hasFeature := out["feature"]
	assert.False(t, hasFeature)

	// An existing fault_features wins; feature is still dropped
	out = NormalizeDraft(Draft{
		"feature":        []int{1},
		"fault_features": []int{10},
	}, models.OutcomeRepaired, time.Now())
	assert.Equal(t, []int{10}, out["fault_features"])
	_, hasFeature = out["feature"]
	assert.False(t, hasFeature)
}

func TestNormalizeDraftCollapsesFaultDiagnosed(t *testing.T) {
	out := NormalizeDraft(Draft{"fault_diagnosed": []int{7, 8}}, models.OutcomeRepaired, time.Now())
	assert.Equal(t, 7, out["fault_diagnosed"])

	out = NormalizeDraft(Draft{"fault_diagnosed": []int{}}, models.OutcomeRepaired, time.Now())
	assert.Nil(t, out["fault_diagnosed"])

	out = NormalizeDraft(Draft{"fault_diagnosed": []interface{}{float64(7)}}, models.OutcomeRepaired, time.Now())
	assert.Equal(t, float64(7), out["fault_diagnosed"])

	// Scalars pass through
	out = NormalizeDraft(Draft{"fault_diagnosed": 7}, models.OutcomeRepaired, time.Now())
	assert.Equal(t, 7, out["fault_diagnosed"])
}

func TestNormalizeDraftIsIdempotent(t *testing.T) {
	now := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	draft := Draft{
		"product_id":      5,
		"fault_features":  []int{10, 11},
		"fault_diagnosed": []int{7},
		"repair_action":   []int{20},
		"notes":           "ok",
	}

	first := NormalizeDraft(draft, models.OutcomePartiallyRepaired, now)
	// A later run with a different clock must not restamp anything
	later := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	second := NormalizeDraft(first, models.OutcomePartiallyRepaired, later)

	assert.Equal(t, first, second)
}

func TestNormalizeDraftDoesNotMutateInput(t *testing.T) {
	draft := Draft{"fault_diagnosed": []int{7, 8}, "feature": []int{1}}
	_ = NormalizeDraft(draft, models.OutcomeRepaired, time.Now())
	assert.Equal(t, Draft{"fault_diagnosed": []int{7, 8}, "feature": []int{1}}, draft)
}

func TestNormalizeDraftPreservesExistingTypeAndText(t *testing.T) {
	out := NormalizeDraft(Draft{"type": "R", "text": "Repaired", "date": "2020-01-01"}, models.OutcomeNotRepaired, time.Now())
	assert.Equal(t, "R", out["type"])
	assert.Equal(t, "Repaired", out["text"])
	assert.Equal(t, "2020-01-01", out["date"])
}
