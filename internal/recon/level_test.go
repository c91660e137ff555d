package recon

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nanValue() float64 { return math.NaN() }

func mustBuild(t *testing.T, cs []Candidate) Hierarchy {
	t.Helper()
	h, err := BuildHierarchy(cs)
	require.NoError(t, err)
	return h
}

func reconcileAll(t *testing.T, h Hierarchy) map[Level]*LevelResult {
	t.Helper()
	out := make(map[Level]*LevelResult, len(Levels))
	for _, l := range Levels {
		lr, err := ReconcileLevel(h, l, time.Time{})
		require.NoError(t, err, l)
		out[l] = lr
	}
	return out
}

func TestBuildHierarchy(t *testing.T) {
	ch := mixedChannel()
	h := mustBuild(t, ch.Candidates)
	require.Len(t, h, len(Levels))
	assert.Len(t, h[LevelGlobal], 1)
	assert.EqualValues(t, 151, h[LevelGlobal]["GLOBAL"].TotalVotes)
	assert.Len(t, h[LevelGlobal]["GLOBAL"].Candidates, 7)

	tx := h[LevelProvince]["Texas"]
	require.NotNil(t, tx)
	assert.EqualValues(t, 24, tx.TotalVotes)
	// 平票时 id 小者在前，元数据取自该候选者
	assert.Equal(t, "n1", tx.Candidates[0].ID)
	assert.Equal(t, "US", tx.Metadata["countryCode"])

	gps := h[LevelGPS]["paris@48.85,2.35"]
	require.NotNil(t, gps)
	assert.Equal(t, 48.85, gps.Metadata["lat"])
	assert.Equal(t, "Paris", gps.Metadata["city"])
}

func TestReconcileLevelDetectsMismatch(t *testing.T) {
	h := mustBuild(t, europeChannel().Candidates)
	h[LevelCity]["Paris"].TotalVotes++

	_, err := ReconcileLevel(h, LevelCity, time.Time{})
	require.ErrorIs(t, err, ErrVoteMismatch)
	var re *Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, LevelCity, re.Level)
	assert.Equal(t, "Paris", re.ClusterKey)
	assert.EqualValues(t, 100, re.Actual)
	assert.EqualValues(t, 101, re.Expected)
	assert.Contains(t, err.Error(), "computed=100")
	assert.True(t, re.Kind.Internal())

	_, err = ReconcileLevel(h, LevelCountry, time.Time{})
	assert.NoError(t, err, "other levels are unaffected")
}

func TestReconcileLevelRejectsOverflowingCluster(t *testing.T) {
	h := mustBuild(t, europeChannel().Candidates)
	for _, c := range h[LevelCountry]["France"].Candidates {
		c.Votes = i64(math.MaxInt64)
	}
	_, err := ReconcileLevel(h, LevelCountry, time.Time{})
	require.ErrorIs(t, err, ErrInvalidVoteCount)
	var re *Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "France", re.ClusterKey)
	assert.Equal(t, "overflow", re.Value)
	assert.False(t, re.Kind.Internal())
}

func TestReconcileLevelMissing(t *testing.T) {
	h := mustBuild(t, europeChannel().Candidates)
	delete(h, LevelRegion)
	_, err := ReconcileLevel(h, LevelRegion, time.Time{})
	assert.ErrorIs(t, err, ErrIncompleteLevel)
}

func TestReconcileLevelZeroVoteCluster(t *testing.T) {
	ch := mixedChannel()
	lr, err := ReconcileLevel(mustBuild(t, ch.Candidates), LevelCountry, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 3, lr.ClusterCount)

	lr, err = ReconcileLevel(mustBuild(t, ch.Candidates), LevelCity, time.Time{})
	require.NoError(t, err)
	last := lr.Clusters[len(lr.Clusters)-1]
	assert.Equal(t, "Tokyo", last.ClusterKey)
	assert.Zero(t, last.TotalVotes)
}

func TestCentroidIgnoresInvalidLocations(t *testing.T) {
	a := candidate("a", "X", "X", "X", "XX", "X", 10, 20, 1)
	b := candidate("b", "X", "X", "X", "XX", "X", 0, 0, 1)
	b.Location = nil
	c := candidate("c", "X", "X", "X", "XX", "X", math.NaN(), 5, 1)

	got := centroidOf([]*Candidate{&a, &b, &c})
	assert.Equal(t, Centroid{Lat: 10, Lng: 20, ValidLocations: 1, TotalCandidates: 3}, got)

	got = centroidOf([]*Candidate{&b, &c})
	assert.Equal(t, Centroid{ValidLocations: 0, TotalCandidates: 2}, got)
}

func TestValidateReconciliation(t *testing.T) {
	fresh := func() map[Level]*LevelResult {
		return reconcileAll(t, mustBuild(t, europeChannel().Candidates))
	}
	require.NoError(t, ValidateReconciliation(fresh(), 175))

	t.Run("tampered level total", func(t *testing.T) {
		votes := fresh()
		votes[LevelCountry].TotalVotes -= 5
		err := ValidateReconciliation(votes, 175)
		require.ErrorIs(t, err, ErrVoteConservationViolation)
		var re *Error
		require.ErrorAs(t, err, &re)
		assert.Equal(t, LevelCountry, re.Level)
		assert.EqualValues(t, 175, re.Expected)
		assert.EqualValues(t, 170, re.Actual)
	})

	t.Run("consistent but lossy hierarchy", func(t *testing.T) {
		// 从国家层移除一个候选者并同步扣减桶总数：单层对账通过，跨层守恒失败
		h := mustBuild(t, europeChannel().Candidates)
		de := h[LevelCountry]["Germany"]
		de.Candidates = nil
		de.TotalVotes = 0
		votes := reconcileAll(t, h)
		err := ValidateReconciliation(votes, votes[LevelGPS].TotalVotes)
		require.ErrorIs(t, err, ErrVoteConservationViolation)
		var re *Error
		require.ErrorAs(t, err, &re)
		assert.Equal(t, LevelCountry, re.Level)
		assert.EqualValues(t, 150, re.Actual)
	})

	t.Run("missing level", func(t *testing.T) {
		votes := fresh()
		delete(votes, LevelGlobal)
		err := ValidateReconciliation(votes, 175)
		require.ErrorIs(t, err, ErrIncompleteLevel)
	})

	t.Run("incomplete level", func(t *testing.T) {
		votes := fresh()
		votes[LevelProvince].ReconciliationComplete = false
		var re *Error
		require.ErrorAs(t, ValidateReconciliation(votes, 175), &re)
		assert.Equal(t, KindIncompleteLevel, re.Kind)
		assert.Equal(t, LevelProvince, re.Level)
	})
}
