package capture

import (
	"testing"
	"time"

	"repairlog/internal/models"
	contextutils "repairlog/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustStart(t *testing.T, productID int, outcome models.RepairOutcome) *Workflow {
	t.Helper()
	w, err := Start(productID, outcome)
	require.NoError(t, err)
	return w
}

func TestStartValidation(t *testing.T) {
	_, err := Start(0, models.OutcomeRepaired)
	assert.True(t, contextutils.IsError(err, contextutils.ErrInvalidInput))

	_, err = Start(5, models.RepairOutcome("X"))
	assert.True(t, contextutils.IsError(err, contextutils.ErrInvalidInput))

	w := mustStart(t, 5, models.OutcomeRepaired)
	assert.Equal(t, StateSelectingFeatures, w.State)
	assert.Equal(t, Draft{"product_id": 5}, w.Draft)
}

func TestRepairedPathNeverVisitsReasons(t *testing.T) {
	w := mustStart(t, 5, models.OutcomeRepaired)

	visited := []State{w.State}
	require.NoError(t, w.ApplySelection(Selection{IDs: []int{10}}))
	visited = append(visited, w.State)
	require.NoError(t, w.ApplySelection(Selection{IDs: []int{7}}))
	visited = append(visited, w.State)
	require.NoError(t, w.ApplySelection(Selection{IDs: []int{20}}))
	visited = append(visited, w.State)

	assert.Equal(t, []State{
		StateSelectingFeatures,
		StateSelectingFault,
		StateSelectingRepairAction,
		StateCollectingExtras,
	}, visited)
	assert.NotContains(t, visited, StateSelectingReasonsNotRepaired)
}

func TestNotRepairedPathNeverVisitsRepairActions(t *testing.T) {
	w := mustStart(t, 5, models.OutcomeNotRepaired)

	visited := []State{w.State}
	require.NoError(t, w.ApplySelection(Selection{IDs: []int{10}}))
	visited = append(visited, w.State)
	require.NoError(t, w.ApplySelection(Selection{IDs: []int{7}}))
	visited = append(visited, w.State)
	require.NoError(t, w.ApplySelection(Selection{IDs: []int{30}}))
	visited = append(visited, w.State)

	assert.Equal(t, []State{
		StateSelectingFeatures,
		StateSelectingFault,
		StateSelectingReasonsNotRepaired,
		StateCollectingExtras,
	}, visited)
	assert.NotContains(t, visited, StateSelectingRepairAction)
}

func TestPartiallyRepairedVisitsBothBranches(t *testing.T) {
	w := mustStart(t, 5, models.OutcomePartiallyRepaired)

	require.NoError(t, w.ApplySelection(Selection{IDs: []int{10, 11}}))
	assert.Equal(t, StateSelectingFault, w.State)
	require.NoError(t, w.ApplySelection(Selection{IDs: []int{7}}))
	assert.Equal(t, StateSelectingRepairAction, w.State)
	require.NoError(t, w.ApplySelection(Selection{IDs: []int{20}}))
	assert.Equal(t, StateSelectingReasonsNotRepaired, w.State)
	require.NoError(t, w.ApplySelection(Selection{IDs: []int{30, 31}}))
	assert.Equal(t, StateCollectingExtras, w.State)
}

func TestPartiallyRepairedScenarioRecord(t *testing.T) {
	w := mustStart(t, 5, models.OutcomePartiallyRepaired)

	require.NoError(t, w.ApplySelection(Selection{IDs: []int{10, 11}}))
	require.NoError(t, w.ApplySelection(Selection{IDs: []int{7}}))
	require.NoError(t, w.ApplySelection(Selection{IDs: []int{20}}))
	require.NoError(t, w.ApplySelection(Selection{IDs: []int{30, 31}}))

	now := time.Date(2024, 3, 15, 13, 45, 0, 0, time.UTC)
	record, err := w.ApplyExtras(Extras{Notes: "ok"}, now)
	require.NoError(t, err)

	assert.Equal(t, Draft{
		"product_id":          5,
		"fault_features":      []int{10, 11},
		"fault_diagnosed":     7,
		"repair_action":       []int{20},
		"reason_not_repaired": []int{30, 31},
		"notes":               "ok",
		"type":                "P",
		"text":                "Partial repair",
		"date":                "2024-03-15",
	}, record)
}

func TestFaultDiagnosedCollapsedToScalar(t *testing.T) {
	w := mustStart(t, 5, models.OutcomeRepaired)
	require.NoError(t, w.ApplySelection(Selection{IDs: []int{10}}))
	// Selector misbehaves and reports multiple faults
	require.NoError(t, w.ApplySelection(Selection{IDs: []int{7, 8, 9}}))
	require.NoError(t, w.ApplySelection(Selection{IDs: []int{20}}))

	record, err := w.ApplyExtras(Extras{}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 7, record["fault_diagnosed"])
}

func TestSelectionRejectedWhenIdleOrCollectingExtras(t *testing.T) {
	w := mustStart(t, 5, models.OutcomeRepaired)
	w.Cancel()
	err := w.ApplySelection(Selection{IDs: []int{1}})
	assert.True(t, contextutils.IsError(err, contextutils.ErrInvalidTransition))

	w = mustStart(t, 5, models.OutcomeRepaired)
	require.NoError(t, w.ApplySelection(Selection{IDs: []int{10}}))
	require.NoError(t, w.ApplySelection(Selection{IDs: []int{7}}))
	require.NoError(t, w.ApplySelection(Selection{IDs: []int{20}}))
	err = w.ApplySelection(Selection{IDs: []int{99}})
	assert.True(t, contextutils.IsError(err, contextutils.ErrInvalidTransition))
}

func TestExtrasRejectedBeforeFinalStep(t *testing.T) {
	w := mustStart(t, 5, models.OutcomeRepaired)
	_, err := w.ApplyExtras(Extras{Notes: "early"}, time.Now())
	assert.True(t, contextutils.IsError(err, contextutils.ErrInvalidTransition))
}

func TestCancelResetsDraft(t *testing.T) {
	w := mustStart(t, 5, models.OutcomeRepaired)
	require.NoError(t, w.ApplySelection(Selection{IDs: []int{10, 11}, PhotoIDs: []int{100}}))
	assert.Equal(t, StateSelectingFault, w.State)

	w.Cancel()
	assert.Equal(t, StateIdle, w.State)
	assert.Empty(t, w.Draft)

	// A fresh capture for the same product starts with an empty fault_features
	w2 := mustStart(t, 5, models.OutcomeRepaired)
	_, ok := w2.Draft["fault_features"]
	assert.False(t, ok)
}

func TestPhotoIDsMergedIntoDraft(t *testing.T) {
	w := mustStart(t, 5, models.OutcomePartiallyRepaired)
	require.NoError(t, w.ApplySelection(Selection{IDs: []int{10}, PhotoIDs: []int{100, 101}}))
	assert.Equal(t, []int{100, 101}, w.Draft["photo_id"])

	// A later step without photos leaves the earlier photo ids in place
	require.NoError(t, w.ApplySelection(Selection{IDs: []int{7}}))
	assert.Equal(t, []int{100, 101}, w.Draft["photo_id"])
}

func TestPendingFlagBlocksConcurrentStep(t *testing.T) {
	w := mustStart(t, 5, models.OutcomeRepaired)

	require.NoError(t, w.BeginStep())
	assert.True(t, w.Pending())
	err := w.BeginStep()
	assert.True(t, contextutils.IsError(err, contextutils.ErrSessionPending))

	w.EndStep()
	assert.False(t, w.Pending())
	require.NoError(t, w.BeginStep())
	w.EndStep()
}

func TestSubmissionFailureKeepsDraftForRetry(t *testing.T) {
	w := mustStart(t, 5, models.OutcomeRepaired)
	require.NoError(t, w.ApplySelection(Selection{IDs: []int{10}}))
	require.NoError(t, w.ApplySelection(Selection{IDs: []int{7}}))
	require.NoError(t, w.ApplySelection(Selection{IDs: []int{20}}))

	first, err := w.ApplyExtras(Extras{Notes: "ok"}, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// Sink failed: the workflow stays in CollectingExtras and a retry yields
	// the same record
	assert.Equal(t, StateCollectingExtras, w.State)
	second, err := w.ApplyExtras(Extras{}, time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, first["notes"], second["notes"])
	assert.Equal(t, first["type"], second["type"])

	w.Complete()
	assert.Equal(t, StateIdle, w.State)
	assert.Empty(t, w.Draft)
}

func TestStepDescriptors(t *testing.T) {
	w := mustStart(t, 5, models.OutcomePartiallyRepaired)

	desc, ok := w.Step()
	require.True(t, ok)
	assert.Equal(t, "/v1/features", desc.CatalogueEndpoint)
	assert.Equal(t, "fault_features", desc.StorageKey)
	assert.True(t, desc.MultiSelect)
	assert.True(t, desc.PhotoCapture)

	require.NoError(t, w.ApplySelection(Selection{IDs: []int{10}}))
	desc, ok = w.Step()
	require.True(t, ok)
	assert.Equal(t, "/v1/faults", desc.CatalogueEndpoint)
	assert.Equal(t, "fault_diagnosed", desc.StorageKey)
	assert.False(t, desc.MultiSelect)

	w.Cancel()
	_, ok = w.Step()
	assert.False(t, ok)
}
