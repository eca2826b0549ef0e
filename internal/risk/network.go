package risk

import "math"

// correlationEdgeThreshold is the absolute correlation above which two basket
// members are considered connected in the adjacency graph
const correlationEdgeThreshold = 0.7

// CorrelationMatrix holds a pairwise return correlation matrix for a basket
type CorrelationMatrix struct {
	Tickers []string
	Corr    [][]float64
}

// NetworkStats are graph metrics computed from a thresholded correlation matrix
type NetworkStats struct {
	AvgCorrelation float64 // mean absolute off-diagonal correlation
	Density        float64
	AvgClustering  float64
	Centralization float64
}

// NewCorrelationMatrix computes pairwise Pearson correlations of return
// series. Series are aligned from the most recent observation backwards and
// each pair is correlated over its common overlap.
func NewCorrelationMatrix(tickers []string, returns map[string][]float64) *CorrelationMatrix {
	n := len(tickers)
	corr := make([][]float64, n)
	for i := range corr {
		corr[i] = make([]float64, n)
		corr[i][i] = 1.0
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a, b := alignTail(returns[tickers[i]], returns[tickers[j]])
			rho := pearson(a, b)
			corr[i][j] = rho
			corr[j][i] = rho
		}
	}

	return &CorrelationMatrix{Tickers: tickers, Corr: corr}
}

// Stats computes network metrics over an adjacency graph built by
// thresholding absolute correlations at correlationEdgeThreshold
func (m *CorrelationMatrix) Stats() NetworkStats {
	n := len(m.Tickers)
	if n < 2 {
		return NetworkStats{}
	}

	adj := make([][]bool, n)
	for i := range adj {
		adj[i] = make([]bool, n)
	}
	var corrSum float64
	pairs := 0
	edges := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			corrSum += math.Abs(m.Corr[i][j])
			pairs++
			if math.Abs(m.Corr[i][j]) > correlationEdgeThreshold {
				adj[i][j] = true
				adj[j][i] = true
				edges++
			}
		}
	}

	return NetworkStats{
		AvgCorrelation: corrSum / float64(pairs),
		Density:        float64(edges) / float64(pairs),
		AvgClustering:  avgClustering(adj),
		Centralization: degreeCentralization(adj),
	}
}

// avgClustering computes the mean local clustering coefficient: for each
// node, the fraction of its neighbour pairs that are themselves connected
func avgClustering(adj [][]bool) float64 {
	n := len(adj)
	var total float64
	for i := 0; i < n; i++ {
		var neighbors []int
		for j := 0; j < n; j++ {
			if adj[i][j] {
				neighbors = append(neighbors, j)
			}
		}
		k := len(neighbors)
		if k < 2 {
			continue
		}
		links := 0
		for a := 0; a < k; a++ {
			for b := a + 1; b < k; b++ {
				if adj[neighbors[a]][neighbors[b]] {
					links++
				}
			}
		}
		total += float64(2*links) / float64(k*(k-1))
	}
	return total / float64(n)
}

// degreeCentralization computes Freeman degree centralization: how much the
// graph is dominated by its highest-degree node, normalized to [0, 1]
func degreeCentralization(adj [][]bool) float64 {
	n := len(adj)
	if n < 3 {
		return 0
	}

	degrees := make([]int, n)
	maxDegree := 0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if adj[i][j] {
				degrees[i]++
			}
		}
		if degrees[i] > maxDegree {
			maxDegree = degrees[i]
		}
	}

	var sum float64
	for _, d := range degrees {
		sum += float64(maxDegree - d)
	}

	// Maximum possible sum is achieved by a star graph
	denom := float64((n - 1) * (n - 2))
	if denom == 0 {
		return 0
	}
	return sum / denom
}

// alignTail truncates two series to a common length, keeping the most recent
// observations of each
func alignTail(a, b []float64) ([]float64, []float64) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	return a[len(a)-n:], b[len(b)-n:]
}

// pearson computes the Pearson correlation coefficient of two equal-length
// series. Returns 0 when either series has zero variance or fewer than two
// observations.
func pearson(a, b []float64) float64 {
	n := len(a)
	if n < 2 || n != len(b) {
		return 0
	}

	var sumA, sumB float64
	for i := 0; i < n; i++ {
		sumA += a[i]
		sumB += b[i]
	}
	meanA := sumA / float64(n)
	meanB := sumB / float64(n)

	var cov, varA, varB float64
	for i := 0; i < n; i++ {
		da := a[i] - meanA
		db := b[i] - meanB
		cov += da * db
		varA += da * da
		varB += db * db
	}

	if varA == 0 || varB == 0 {
		return 0
	}
	return cov / math.Sqrt(varA*varB)
}
