package services

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"repairlog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCachedListingRoundTripsFeatures(t *testing.T) {
	created := time.Date(2024, 3, 15, 13, 45, 0, 0, time.UTC)
	features := []models.Feature{
		{ID: 1, ProductID: 5, Name: "Rattle", CreatedAt: created},
		{ID: 2, ProductID: 5, Name: "Flicker", Description: sql.NullString{String: "intermittent", Valid: true}, CreatedAt: created},
	}
	payload, err := json.Marshal(features)
	require.NoError(t, err)

	decoded := []models.Feature{}
	require.NoError(t, decodeCachedListing(payload, &decoded))
	assert.Equal(t, features, decoded)
}

func TestDecodeCachedListingRoundTripsFaultsAndProducts(t *testing.T) {
	created := time.Date(2024, 3, 15, 13, 45, 0, 0, time.UTC)

	faults := []models.Fault{
		{ID: 3, ProductID: 5, Name: "No heat", Description: sql.NullString{String: "element dead", Valid: true}, CreatedAt: created, FeatureIDs: []int{10, 11}},
	}
	payload, err := json.Marshal(faults)
	require.NoError(t, err)
	decodedFaults := []models.Fault{}
	require.NoError(t, decodeCachedListing(payload, &decodedFaults))
	assert.Equal(t, faults, decodedFaults)

	products := []models.Product{
		{ID: 5, Name: "Kettle", BarcodeSerial: sql.NullString{String: "SN-42", Valid: true}, CreatedAt: created, UpdatedAt: created},
	}
	payload, err = json.Marshal(products)
	require.NoError(t, err)
	decodedProducts := []models.Product{}
	require.NoError(t, decodeCachedListing(payload, &decodedProducts))
	assert.Equal(t, products, decodedProducts)
}

func TestDecodeCachedListingKeepsDestOnFailure(t *testing.T) {
	seeded := []models.Feature{{ID: 9, Name: "Existing"}}
	dest := append([]models.Feature{}, seeded...)

	err := decodeCachedListing([]byte(`{"not": "a listing"}`), &dest)
	require.Error(t, err)
	assert.Equal(t, seeded, dest)
}

// A failed decode must leave the caller's slice empty; the listing services
// append database rows onto that same slice when the cache misses, so a
// partially filled slice would double every entry.
func TestCacheDecodeFailureDoesNotDuplicateListing(t *testing.T) {
	features := []models.Feature{}
	err := decodeCachedListing([]byte(`[{"id": 1, "name": "Rattle"}, {"id": "bad"}]`), &features)
	require.Error(t, err)
	assert.Empty(t, features)

	features = append(features,
		models.Feature{ID: 1, Name: "Rattle"},
		models.Feature{ID: 2, Name: "Flicker"},
	)
	assert.Len(t, features, 2)
}

func TestDecodeCachedListingRejectsNonPointer(t *testing.T) {
	err := decodeCachedListing([]byte(`[]`), []models.Feature{})
	assert.Error(t, err)
}
