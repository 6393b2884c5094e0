package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/resale-group/backoffice-cli/internal/model"
)

func TestTimeProximityBonus(t *testing.T) {
	tests := []struct {
		name    string
		elapsed float64
		want    float64
	}{
		{"half hour", 0.5, 50},
		{"exactly one hour", 1, 50},
		{"three hours", 3, 45},
		{"exactly six hours", 6, 45},
		{"ten hours", 10, 40},
		{"thirty hours", 30, 30},
		{"sixty hours", 60, 20},
		{"exactly ninety six", 96, 20},
		{"beyond window", 100, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, timeProximityBonus(tt.elapsed))
		})
	}
}

func TestScoreCandidate(t *testing.T) {
	e := New(DefaultConfig())
	cand := testCandidate("P1", saleAt.Add(30*time.Minute))

	mc := e.scoreCandidate(cand, filterOutcome{passed: true, skuExact: true, elapsedHours: 0.5})

	// Base 100 + proximity 50 + exact SKU 10.
	assert.Equal(t, 160.0, mc.Score)
	assert.Equal(t, model.ConfidenceHigh, mc.Confidence)
	assert.False(t, mc.OverThreshold)
	assert.Contains(t, reasonCodes(mc.Reasons), model.ReasonTimeBonus)
	assert.Contains(t, reasonCodes(mc.Reasons), model.ReasonSKUExactBonus)
}

func TestScoreCandidate_PartialSKUBonus(t *testing.T) {
	e := New(DefaultConfig())
	cand := testCandidate("P1", saleAt.Add(10*time.Hour))

	mc := e.scoreCandidate(cand, filterOutcome{passed: true, skuPartial: true, elapsedHours: 10})

	assert.Equal(t, 145.0, mc.Score)
	assert.Contains(t, reasonCodes(mc.Reasons), model.ReasonSKUPartial)
}

func TestScoreCandidate_OverThreshold(t *testing.T) {
	e := New(DefaultConfig())
	cand := testCandidate("P1", saleAt.Add(120*time.Hour))

	mc := e.scoreCandidate(cand, filterOutcome{passed: true, elapsedHours: 120})

	// Base 100 + late bonus 5; over the window the tier is never high.
	assert.Equal(t, 105.0, mc.Score)
	assert.True(t, mc.OverThreshold)
	assert.Equal(t, model.ConfidenceMedium, mc.Confidence)
	assert.Contains(t, reasonCodes(mc.Reasons), model.ReasonOverThreshold)
}

func TestScoreCandidate_MonotonicInElapsedTime(t *testing.T) {
	e := New(DefaultConfig())

	prev := 1e9
	for _, elapsed := range []float64{0.5, 2, 12, 36, 72, 120, 500} {
		cand := testCandidate("P1", saleAt.Add(time.Duration(elapsed*float64(time.Hour))))
		mc := e.scoreCandidate(cand, filterOutcome{passed: true, elapsedHours: elapsed})
		assert.LessOrEqual(t, mc.Score, prev, "score must not increase with elapsed time")
		prev = mc.Score
	}
}

func TestScoreCandidate_NegativeElapsedClampedToZero(t *testing.T) {
	e := New(DefaultConfig())
	cand := testCandidate("P1", saleAt.Add(-4*time.Minute))

	mc := e.scoreCandidate(cand, filterOutcome{passed: true, elapsedHours: -0.066})

	assert.Equal(t, 0.0, mc.ElapsedHours)
	assert.Equal(t, 150.0, mc.Score)
}

func TestConfidenceFor(t *testing.T) {
	e := New(DefaultConfig())

	tests := []struct {
		name          string
		score         float64
		overThreshold bool
		want          model.Confidence
	}{
		{"high", 150, false, model.ConfidenceHigh},
		{"at high cutoff", 120, false, model.ConfidenceHigh},
		{"high score over threshold", 150, true, model.ConfidenceMedium},
		{"medium", 110, false, model.ConfidenceMedium},
		{"at medium cutoff", 100, false, model.ConfidenceMedium},
		{"low", 90, false, model.ConfidenceLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.confidenceFor(tt.score, tt.overThreshold))
		})
	}
}
