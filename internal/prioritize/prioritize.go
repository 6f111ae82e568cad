// Package prioritize ranks uncovered areas so the most urgent coverage
// gaps come first. The score and its tie-breaks form a total order, so
// identical inputs always produce identical rankings.
package prioritize

import (
	"math"
	"sort"

	"github.com/covgap/covgap/internal/correlate"
)

var complexityWeights = map[correlate.Complexity]int{
	correlate.ComplexityLow:    0,
	correlate.ComplexityMedium: 10,
	correlate.ComplexityHigh:   20,
}

// Score computes the priority of one area. Higher is more urgent:
// the share of missing lines dominates, complexity adds a tier weight,
// and larger units get a small capped bonus.
func Score(a correlate.UncoveredArea) int {
	span := a.LineEnd - a.LineStart + 1
	if span < 1 {
		span = 1
	}
	missingRatio := float64(len(a.MissingLines)) / float64(span)

	sizeBonus := a.LineEnd - a.LineStart
	if sizeBonus > 20 {
		sizeBonus = 20
	}

	return int(math.Round(100*missingRatio)) + complexityWeights[a.Complexity] + sizeBonus
}

// Prioritize returns the areas with Priority populated, sorted by
// descending priority. Ties go to the area with more missing lines,
// then the lexicographically smaller file path, then the smaller start
// line. The input slice is not modified.
func Prioritize(areas []correlate.UncoveredArea) []correlate.UncoveredArea {
	out := make([]correlate.UncoveredArea, len(areas))
	copy(out, areas)
	for i := range out {
		out[i].Priority = Score(out[i])
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if len(a.MissingLines) != len(b.MissingLines) {
			return len(a.MissingLines) > len(b.MissingLines)
		}
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		return a.LineStart < b.LineStart
	})
	return out
}
