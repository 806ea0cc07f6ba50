package entity

import "maps"

// ScoreBoard counts outcomes per label: a marker, ResultDraw or a player name.
type ScoreBoard struct {
	counts map[string]int
}

func NewScoreBoard(labels ...string) *ScoreBoard {
	counts := make(map[string]int, len(labels))
	for _, label := range labels {
		counts[label] = 0
	}

	return &ScoreBoard{counts: counts}
}

// Add credits n to label. Negative amounts are ignored, so counts never decrease.
func (that *ScoreBoard) Add(label string, n int) {
	if n < 0 {
		return
	}

	if that.counts == nil {
		that.counts = make(map[string]int)
	}

	that.counts[label] += n
}

func (that *ScoreBoard) Get(label string) int {
	return that.counts[label]
}

func (that *ScoreBoard) Snapshot() map[string]int {
	return maps.Clone(that.counts)
}

// Leader compares a and b. It returns the label with the higher count, or tie=true.
func (that *ScoreBoard) Leader(a, b string) (string, bool) {
	switch scoreA, scoreB := that.Get(a), that.Get(b); {
	case scoreA > scoreB:
		return a, false
	case scoreB > scoreA:
		return b, false
	default:
		return "", true
	}
}
