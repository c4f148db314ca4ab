package models

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepairOutcome(t *testing.T) {
	assert.True(t, OutcomeRepaired.Valid())
	assert.True(t, OutcomePartiallyRepaired.Valid())
	assert.True(t, OutcomeNotRepaired.Valid())
	assert.False(t, RepairOutcome("X").Valid())
	assert.False(t, RepairOutcome("").Valid())

	assert.Equal(t, "Repaired", OutcomeRepaired.Label())
	assert.Equal(t, "Partial repair", OutcomePartiallyRepaired.Label())
	assert.Equal(t, "Not repaired", OutcomeNotRepaired.Label())
}

func TestProductMarshalJSON(t *testing.T) {
	p := Product{ID: 1, Name: "Kettle"}
	data, err := json.Marshal(p)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "Kettle", out["name"])
	assert.Nil(t, out["barcode_serial"])

	p.BarcodeSerial = sql.NullString{String: "SN-42", Valid: true}
	data, err = json.Marshal(p)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "SN-42", out["barcode_serial"])
}

func TestPhotoMarshalOmitsImage(t *testing.T) {
	photo := Photo{
		ID:          3,
		ProductID:   5,
		Title:       "Repair Photo 2024-01-02 15:04",
		ContentType: "image/jpeg",
		Image:       []byte{0xff, 0xd8},
		UploadedAt:  time.Now(),
	}
	data, err := json.Marshal(photo)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	_, hasImage := out["image"]
	assert.False(t, hasImage)
	assert.Nil(t, out["feature_id"])
	assert.Equal(t, float64(5), out["product_id"])

	photo.FeatureID = sql.NullInt64{Int64: 12, Valid: true}
	data, err = json.Marshal(photo)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, float64(12), out["feature_id"])
}

func TestFaultMarshalJSON(t *testing.T) {
	f := Fault{ID: 2, ProductID: 5, Name: "No heat", FeatureIDs: []int{10, 11}}
	data, err := json.Marshal(f)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Nil(t, out["description"])
	assert.Equal(t, []interface{}{float64(10), float64(11)}, out["feature_ids"])

	f.Description = sql.NullString{String: "element dead", Valid: true}
	data, err = json.Marshal(f)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "element dead", out["description"])
}

func TestRepairResultMarshalJSON(t *testing.T) {
	r := RepairResult{
		ID:              9,
		ProductID:       5,
		Text:            "Partial repair",
		Type:            OutcomePartiallyRepaired,
		Date:            time.Date(2024, 3, 15, 13, 45, 0, 0, time.UTC),
		Notes:           sql.NullString{String: "ok", Valid: true},
		FaultDiagnosed:  sql.NullInt64{Int64: 7, Valid: true},
		TimeToRepair:    sql.NullString{String: "00:45:00", Valid: true},
		FaultFeatureIDs: []int{10, 11},
		RepairActionIDs: []int{20},
	}
	data, err := json.Marshal(r)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "2024-03-15", out["date"])
	assert.Equal(t, "P", out["type"])
	assert.Equal(t, "ok", out["notes"])
	assert.Equal(t, float64(7), out["fault_diagnosed"])
	assert.Equal(t, "00:45:00", out["time_to_repair"])
	assert.Nil(t, out["time_to_diagnose"])
	assert.Equal(t, []interface{}{float64(10), float64(11)}, out["fault_features"])
	// nil slices render as empty arrays, not null
	assert.Equal(t, []interface{}{}, out["reason_not_repaired"])
	assert.Equal(t, []interface{}{}, out["photo_id"])
}
