package game

import (
	"sort"

	"github.com/google/uuid"
)

// Scoring constants. Non-final rounds split a pot proportionally to votes,
// with a sweep bonus for a unanimous match. The showcase (final) round pays
// a flat medal value per vote instead.
const (
	basePotFirstRound    = 1000
	basePotLaterRounds   = 2000
	sweepBonusFirstRound = 500
	sweepBonusLaterRound = 1000
	medalValue           = 500
)

// VoteCounts tallies per-candidate vote totals from a voter→candidate map.
func VoteCounts(tally map[uuid.UUID]uuid.UUID) map[uuid.UUID]int {
	counts := make(map[uuid.UUID]int, len(tally))
	for _, candidateID := range tally {
		counts[candidateID]++
	}
	return counts
}

// AwardPoints computes the point award per candidate for one resolved
// match. round is 1-based; final selects the showcase medal model. All
// awards are non-negative and a match with zero votes awards nothing.
func AwardPoints(counts map[uuid.UUID]int, round int, final bool) map[uuid.UUID]int {
	awards := make(map[uuid.UUID]int, len(counts))
	if final {
		for id, n := range counts {
			awards[id] = n * medalValue
		}
		return awards
	}

	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return awards
	}

	base, sweep := basePotFirstRound, sweepBonusFirstRound
	if round >= 2 {
		base, sweep = basePotLaterRounds, sweepBonusLaterRound
	}
	for id, n := range counts {
		award := base * n / total
		if n == total {
			award += sweep
		}
		awards[id] = award
	}
	return awards
}

// Winners returns the candidate ids sharing the top vote count, sorted for
// deterministic output. Empty when no votes were cast.
func Winners(counts map[uuid.UUID]int) []uuid.UUID {
	max := 0
	for _, n := range counts {
		if n > max {
			max = n
		}
	}
	if max == 0 {
		return nil
	}
	var winners []uuid.UUID
	for id, n := range counts {
		if n == max {
			winners = append(winners, id)
		}
	}
	sort.Slice(winners, func(i, j int) bool {
		return winners[i].String() < winners[j].String()
	})
	return winners
}
