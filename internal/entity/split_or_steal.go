package entity

import (
	"fmt"
	"strings"
)

type Decision string

const (
	Split Decision = "split"
	Steal Decision = "steal"
)

const (
	bothSplitPoints = 50
	stealPoints     = 100
)

// ParseDecision reduces a model reply to a Decision, ignoring case and surrounding whitespace.
func ParseDecision(reply string) (Decision, bool) {
	switch Decision(strings.ToLower(strings.TrimSpace(reply))) {
	case Split:
		return Split, true
	case Steal:
		return Steal, true
	default:
		return "", false
	}
}

// ScoreRound applies the payoff table to one pair of simultaneous decisions.
func ScoreRound(a, b Decision) (int, int) {
	switch {
	case a == Split && b == Split:
		return bothSplitPoints, bothSplitPoints
	case a == Steal && b == Split:
		return stealPoints, 0
	case a == Split && b == Steal:
		return 0, stealPoints
	default:
		return 0, 0
	}
}

type RoundRecord struct {
	Round     int      `json:"round"`
	DecisionA Decision `json:"decision_a"`
	DecisionB Decision `json:"decision_b"`
	PointsA   int      `json:"points_a"`
	PointsB   int      `json:"points_b"`
	TotalA    int      `json:"total_a"`
	TotalB    int      `json:"total_b"`
	Result    string   `json:"result"`
}

// History is the append-only list of played rounds of one session.
type History []RoundRecord

// Format renders the history for a model prompt.
func (that History) Format(nameA, nameB string) string {
	if len(that) == 0 {
		return "No previous rounds played."
	}

	var sb strings.Builder
	sb.WriteString("Previous rounds:\n")
	for _, round := range that {
		fmt.Fprintf(&sb, "Round %d:\n", round.Round)
		fmt.Fprintf(&sb, "%s: %s\n", nameA, round.DecisionA)
		fmt.Fprintf(&sb, "%s: %s\n", nameB, round.DecisionB)
		fmt.Fprintf(&sb, "Result: %s\n", round.Result)
	}

	return sb.String()
}

// Mirror swaps the A and B sides, so each model reads the history from its own seat.
func (that History) Mirror() History {
	mirrored := make(History, 0, len(that))
	for _, round := range that {
		mirrored = append(mirrored, RoundRecord{
			Round:     round.Round,
			DecisionA: round.DecisionB,
			DecisionB: round.DecisionA,
			PointsA:   round.PointsB,
			PointsB:   round.PointsA,
			TotalA:    round.TotalB,
			TotalB:    round.TotalA,
			Result:    round.Result,
		})
	}

	return mirrored
}

type DecisionStats struct {
	SplitsA int `json:"splits_a"`
	StealsA int `json:"steals_a"`
	SplitsB int `json:"splits_b"`
	StealsB int `json:"steals_b"`
}

func (that History) Stats() DecisionStats {
	var stats DecisionStats
	for _, round := range that {
		if round.DecisionA == Steal {
			stats.StealsA++
		} else {
			stats.SplitsA++
		}

		if round.DecisionB == Steal {
			stats.StealsB++
		} else {
			stats.SplitsB++
		}
	}

	return stats
}
