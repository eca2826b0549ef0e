package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPearson verifies the correlation coefficient on known series
func TestPearson(t *testing.T) {
	tests := []struct {
		name string
		a    []float64
		b    []float64
		want float64
	}{
		{
			name: "perfect positive",
			a:    []float64{1, 2, 3, 4, 5},
			b:    []float64{2, 4, 6, 8, 10},
			want: 1.0,
		},
		{
			name: "perfect negative",
			a:    []float64{1, 2, 3, 4, 5},
			b:    []float64{5, 4, 3, 2, 1},
			want: -1.0,
		},
		{
			name: "zero variance",
			a:    []float64{1, 1, 1, 1},
			b:    []float64{1, 2, 3, 4},
			want: 0.0,
		},
		{
			name: "too short",
			a:    []float64{1},
			b:    []float64{2},
			want: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, pearson(tt.a, tt.b), 1e-9)
		})
	}
}

// TestNewCorrelationMatrix verifies matrix symmetry and unit diagonal
func TestNewCorrelationMatrix(t *testing.T) {
	returns := map[string][]float64{
		"JPM": {0.01, -0.02, 0.03, 0.01, -0.01},
		"BAC": {0.02, -0.04, 0.06, 0.02, -0.02},
		"WFC": {-0.01, 0.02, -0.03, -0.01, 0.01},
	}

	m := NewCorrelationMatrix([]string{"JPM", "BAC", "WFC"}, returns)
	require.Len(t, m.Corr, 3)

	for i := range m.Corr {
		assert.InDelta(t, 1.0, m.Corr[i][i], 1e-9, "diagonal must be 1")
		for j := range m.Corr {
			assert.InDelta(t, m.Corr[i][j], m.Corr[j][i], 1e-9, "matrix must be symmetric")
		}
	}

	// BAC is JPM scaled by 2, WFC is JPM negated
	assert.InDelta(t, 1.0, m.Corr[0][1], 1e-9)
	assert.InDelta(t, -1.0, m.Corr[0][2], 1e-9)
}

// TestNewCorrelationMatrixUnequalLengths verifies alignment keeps the most
// recent common window
func TestNewCorrelationMatrixUnequalLengths(t *testing.T) {
	returns := map[string][]float64{
		// Longer series whose stale head would break the correlation if used
		"JPM": {9, -9, 0.01, 0.02, 0.03},
		"BAC": {0.01, 0.02, 0.03},
	}

	m := NewCorrelationMatrix([]string{"JPM", "BAC"}, returns)
	assert.InDelta(t, 1.0, m.Corr[0][1], 1e-9)
}

// TestStatsCompleteGraph verifies metrics on a fully connected basket
func TestStatsCompleteGraph(t *testing.T) {
	base := []float64{0.01, -0.02, 0.03, 0.01, -0.01, 0.02}
	returns := map[string][]float64{}
	tickers := []string{"JPM", "BAC", "WFC", "C", "GS"}
	for i, ticker := range tickers {
		scaled := make([]float64, len(base))
		for j, r := range base {
			scaled[j] = r * float64(i+1)
		}
		returns[ticker] = scaled
	}

	stats := NewCorrelationMatrix(tickers, returns).Stats()

	assert.InDelta(t, 1.0, stats.AvgCorrelation, 1e-9)
	assert.InDelta(t, 1.0, stats.Density, 1e-9)
	assert.InDelta(t, 1.0, stats.AvgClustering, 1e-9)
	// A complete graph has no dominant node
	assert.InDelta(t, 0.0, stats.Centralization, 1e-9)
}

// TestStatsEmptyGraph verifies metrics when no correlations cross the edge
// threshold
func TestStatsEmptyGraph(t *testing.T) {
	m := &CorrelationMatrix{
		Tickers: []string{"A", "B", "C"},
		Corr: [][]float64{
			{1.0, 0.1, 0.2},
			{0.1, 1.0, 0.3},
			{0.2, 0.3, 1.0},
		},
	}

	stats := m.Stats()
	assert.Equal(t, 0.0, stats.Density)
	assert.Equal(t, 0.0, stats.AvgClustering)
	assert.Equal(t, 0.0, stats.Centralization)
	assert.InDelta(t, 0.2, stats.AvgCorrelation, 1e-9)
}

// TestDegreeCentralizationStar verifies that a star graph is maximally
// centralized
func TestDegreeCentralizationStar(t *testing.T) {
	// Node 0 connected to all others, no other edges
	n := 5
	adj := make([][]bool, n)
	for i := range adj {
		adj[i] = make([]bool, n)
	}
	for i := 1; i < n; i++ {
		adj[0][i] = true
		adj[i][0] = true
	}

	assert.InDelta(t, 1.0, degreeCentralization(adj), 1e-9)
}
