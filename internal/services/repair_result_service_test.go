package services

import (
	"testing"
	"time"

	"repairlog/internal/capture"
	"repairlog/internal/models"
	contextutils "repairlog/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func normalizedDraft() capture.Draft {
	return capture.Draft{
		"product_id":          5,
		"type":                "P",
		"text":                "Partial repair",
		"date":                "2024-03-15",
		"notes":               "ok",
		"fault_diagnosed":     7,
		"fault_features":      []int{10, 11},
		"repair_action":       []int{20},
		"reason_not_repaired": []int{30, 31},
		"photo_id":            []int{3},
	}
}

func TestRepairResultFromDraft(t *testing.T) {
	record, err := RepairResultFromDraft(normalizedDraft())
	require.NoError(t, err)

	assert.Equal(t, 5, record.ProductID)
	assert.Equal(t, models.OutcomePartiallyRepaired, record.Type)
	assert.Equal(t, "Partial repair", record.Text)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), record.Date)
	assert.Equal(t, "ok", record.Notes.String)
	require.True(t, record.FaultDiagnosed.Valid)
	assert.Equal(t, int64(7), record.FaultDiagnosed.Int64)
	assert.Equal(t, []int{10, 11}, record.FaultFeatureIDs)
	assert.Equal(t, []int{20}, record.RepairActionIDs)
	assert.Equal(t, []int{30, 31}, record.ReasonNotRepairedIDs)
	assert.Equal(t, []int{3}, record.PhotoIDs)
}

func TestRepairResultFromDraftOptionalFieldsAbsent(t *testing.T) {
	record, err := RepairResultFromDraft(capture.Draft{
		"product_id": 5,
		"type":       "R",
		"text":       "Repaired",
		"date":       "2024-03-15",
	})
	require.NoError(t, err)

	assert.False(t, record.Notes.Valid)
	assert.False(t, record.FaultDiagnosed.Valid)
	assert.False(t, record.TimeToDiagnose.Valid)
	assert.Empty(t, record.FaultFeatureIDs)
}

func TestRepairResultFromDraftDurations(t *testing.T) {
	draft := normalizedDraft()
	draft["time_to_diagnose"] = "00:15:00"
	draft["time_to_repair"] = "01:30:00"

	record, err := RepairResultFromDraft(draft)
	require.NoError(t, err)
	assert.Equal(t, "00:15:00", record.TimeToDiagnose.String)
	assert.Equal(t, "01:30:00", record.TimeToRepair.String)
}

func TestRepairResultFromDraftRejectsBadDuration(t *testing.T) {
	draft := normalizedDraft()
	draft["time_to_repair"] = "ninety minutes"

	_, err := RepairResultFromDraft(draft)
	assert.Error(t, err)
}

func TestRepairResultFromDraftRejectsMissingProduct(t *testing.T) {
	_, err := RepairResultFromDraft(capture.Draft{"type": "R", "date": "2024-03-15"})
	assert.True(t, contextutils.IsError(err, contextutils.ErrInvalidInput))
}

func TestRepairResultFromDraftRejectsBadType(t *testing.T) {
	draft := normalizedDraft()
	draft["type"] = "Z"

	_, err := RepairResultFromDraft(draft)
	assert.True(t, contextutils.IsError(err, contextutils.ErrInvalidInput))
}

func TestRepairResultFromDraftRejectsBadDate(t *testing.T) {
	draft := normalizedDraft()
	draft["date"] = "15/03/2024"

	_, err := RepairResultFromDraft(draft)
	assert.True(t, contextutils.IsError(err, contextutils.ErrInvalidInput))
}

func TestRepairResultFromDraftJSONDecodedShapes(t *testing.T) {
	// A draft that went through JSON arrives with float64 and []interface{}
	record, err := RepairResultFromDraft(capture.Draft{
		"product_id":      float64(5),
		"type":            "R",
		"text":            "Repaired",
		"date":            "2024-03-15",
		"fault_diagnosed": float64(7),
		"fault_features":  []interface{}{float64(10), float64(11)},
	})
	require.NoError(t, err)
	assert.Equal(t, 5, record.ProductID)
	assert.Equal(t, int64(7), record.FaultDiagnosed.Int64)
	assert.Equal(t, []int{10, 11}, record.FaultFeatureIDs)
}
