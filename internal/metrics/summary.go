package metrics

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary describes a sample of one metric across runs.
type Summary struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mean, std := stat.MeanStdDev(sorted, nil)
	if len(sorted) < 2 {
		std = 0
	}
	return Summary{
		N:      len(sorted),
		Mean:   mean,
		StdDev: std,
		Min:    sorted[0],
		Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
		Max:    sorted[len(sorted)-1],
	}
}

// Collect gathers the named metric from each result map.
func Collect(results []map[string]float64, name string) []float64 {
	out := make([]float64, 0, len(results))
	for _, r := range results {
		if v, ok := r[name]; ok {
			out = append(out, v)
		}
	}
	return out
}
