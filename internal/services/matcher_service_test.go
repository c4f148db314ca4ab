package services

import (
	"testing"

	"repairlog/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFaults() []models.Fault {
	return []models.Fault{
		{ID: 1, ProductID: 1, Name: "Audible rattle", FeatureIDs: []int{1, 2}},
		{ID: 2, ProductID: 1, Name: "Battery drain", FeatureIDs: []int{2}},
		{ID: 3, ProductID: 1, Name: "Cable wear", FeatureIDs: []int{1}},
		{ID: 4, ProductID: 1, Name: "Display flicker", FeatureIDs: []int{9}},
	}
}

func TestRankFaultsEmptySelection(t *testing.T) {
	ranked := RankFaults(testFaults(), nil)
	assert.Empty(t, ranked)

	ranked = RankFaults(testFaults(), []int{})
	assert.Empty(t, ranked)
	assert.NotNil(t, ranked, "empty selection should yield an empty list, not nil")
}

func TestRankFaultsNoIntersection(t *testing.T) {
	ranked := RankFaults(testFaults(), []int{100, 200})
	assert.Empty(t, ranked)
}

func TestRankFaultsOrderingAndTieBreak(t *testing.T) {
	faults := []models.Fault{
		{ID: 1, Name: "Audible rattle", FeatureIDs: []int{1, 2}},
		{ID: 2, Name: "Battery", FeatureIDs: []int{2}},
		{ID: 3, Name: "Cable", FeatureIDs: []int{1}},
	}

	ranked := RankFaults(faults, []int{1, 2})
	require.Len(t, ranked, 3)

	assert.Equal(t, "Audible rattle", ranked[0].Fault.Name)
	assert.Equal(t, 2, ranked[0].MatchCount)
	// Battery and Cable both match once; name order decides
	assert.Equal(t, "Battery", ranked[1].Fault.Name)
	assert.Equal(t, "Cable", ranked[2].Fault.Name)
}

func TestRankFaultsDropsZeroMatches(t *testing.T) {
	ranked := RankFaults(testFaults(), []int{1})
	require.Len(t, ranked, 2)
	for _, r := range ranked {
		assert.Positive(t, r.MatchCount)
	}
}

func TestRankFaultsCarriesMatchedFeatureIDs(t *testing.T) {
	ranked := RankFaults(testFaults(), []int{2, 9})
	require.Len(t, ranked, 3)

	byName := map[string][]int{}
	for _, r := range ranked {
		byName[r.Fault.Name] = r.MatchedFeatureIDs
	}
	assert.Equal(t, []int{2}, byName["Audible rattle"])
	assert.Equal(t, []int{2}, byName["Battery drain"])
	assert.Equal(t, []int{9}, byName["Display flicker"])
}

func TestRankFaultsIgnoresDuplicateSelection(t *testing.T) {
	ranked := RankFaults(testFaults(), []int{2, 2, 2})
	require.NotEmpty(t, ranked)
	assert.Equal(t, 1, ranked[0].MatchCount)
}

func TestRankFaultsDeterministic(t *testing.T) {
	first := RankFaults(testFaults(), []int{1, 2, 9})
	second := RankFaults(testFaults(), []int{1, 2, 9})
	assert.Equal(t, first, second)
}
