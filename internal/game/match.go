package game

import (
	"math/rand"

	"github.com/quipset/quipset/internal/models"
)

// promptGroup collects every candidate answer submitted for one prompt, in
// first-seen assignment order.
type promptGroup struct {
	PromptText string
	Candidates []models.Candidate
}

// BuildMatches turns the round's answer groups into an ordered list of
// voteable matches under the grouping mode. The showcase (final) round
// always produces a single individual-style match over the full answer
// pool, regardless of the configured mode.
//
// Paired mode pairs shuffled candidates sequentially within each prompt
// group; an unpaired remainder is dropped, never merged into another match.
// Triadic mode chunks groups of three; a trailing chunk of exactly two is
// still a valid match, a trailing single is dropped.
func BuildMatches(groups []promptGroup, mode models.GroupingMode, final bool, rng *rand.Rand) []models.Match {
	if final || mode == models.GroupingIndividual {
		return buildIndividual(groups, rng)
	}

	var matches []models.Match
	for _, g := range groups {
		shuffled := shuffledCandidates(g.Candidates, rng)
		switch mode {
		case models.GroupingPaired:
			for i := 0; i+1 < len(shuffled); i += 2 {
				matches = append(matches, models.Match{
					Mode:       models.GroupingPaired,
					PromptText: g.PromptText,
					Candidates: shuffled[i : i+2 : i+2],
				})
			}
		case models.GroupingTriadic:
			for i := 0; i < len(shuffled); i += 3 {
				end := i + 3
				if end > len(shuffled) {
					end = len(shuffled)
				}
				if end-i < 2 {
					// Trailing single: nothing to vote between.
					break
				}
				matches = append(matches, models.Match{
					Mode:       models.GroupingTriadic,
					PromptText: g.PromptText,
					Candidates: shuffled[i:end:end],
				})
			}
		}
	}
	return matches
}

// buildIndividual flattens every group into one uniformly shuffled match.
func buildIndividual(groups []promptGroup, rng *rand.Rand) []models.Match {
	var all []models.Candidate
	promptText := ""
	for i, g := range groups {
		if i == 0 {
			promptText = g.PromptText
		} else if g.PromptText != promptText {
			promptText = ""
		}
		all = append(all, g.Candidates...)
	}
	if len(all) == 0 {
		return nil
	}
	return []models.Match{{
		Mode:       models.GroupingIndividual,
		PromptText: promptText,
		Candidates: shuffledCandidates(all, rng),
	}}
}

func shuffledCandidates(in []models.Candidate, rng *rand.Rand) []models.Candidate {
	out := make([]models.Candidate, len(in))
	copy(out, in)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	return out
}
