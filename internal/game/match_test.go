// internal/game/match_test.go
package game

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quipset/quipset/internal/models"
)

func testCandidates(n int) []models.Candidate {
	out := make([]models.Candidate, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.Candidate{
			ParticipantID: uuid.New(),
			Name:          fmt.Sprintf("player-%d", i),
			AnswerText:    fmt.Sprintf("answer-%d", i),
		})
	}
	return out
}

func collectParticipants(matches []models.Match) map[uuid.UUID]int {
	seen := make(map[uuid.UUID]int)
	for _, m := range matches {
		for _, c := range m.Candidates {
			seen[c.ParticipantID]++
		}
	}
	return seen
}

func TestBuildMatchesPaired(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	group := promptGroup{PromptText: "The worst superpower: ____", Candidates: testCandidates(4)}

	matches := BuildMatches([]promptGroup{group}, models.GroupingPaired, false, rng)
	require.Len(t, matches, 2)

	seen := collectParticipants(matches)
	assert.Len(t, seen, 4)
	for _, m := range matches {
		assert.Equal(t, models.GroupingPaired, m.Mode)
		assert.Len(t, m.Candidates, 2)
		assert.Equal(t, group.PromptText, m.PromptText)
	}
	for id, n := range seen {
		assert.Equal(t, 1, n, "candidate %s appears more than once", id)
	}
}

func TestBuildMatchesPairedDropsOddLeftover(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	group := promptGroup{PromptText: "p: ____", Candidates: testCandidates(5)}

	matches := BuildMatches([]promptGroup{group}, models.GroupingPaired, false, rng)
	require.Len(t, matches, 2)
	assert.Len(t, collectParticipants(matches), 4)
}

func TestBuildMatchesPairedNeverMergesGroups(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	g1 := promptGroup{PromptText: "first: ____", Candidates: testCandidates(3)}
	g2 := promptGroup{PromptText: "second: ____", Candidates: testCandidates(3)}

	matches := BuildMatches([]promptGroup{g1, g2}, models.GroupingPaired, false, rng)
	require.Len(t, matches, 2)
	for _, m := range matches {
		// Every match stays within a single prompt.
		for _, c := range m.Candidates[1:] {
			assert.Equal(t, m.PromptText, matchPromptOf(t, []promptGroup{g1, g2}, c))
		}
	}
}

func matchPromptOf(t *testing.T, groups []promptGroup, c models.Candidate) string {
	t.Helper()
	for _, g := range groups {
		for _, gc := range g.Candidates {
			if gc.ParticipantID == c.ParticipantID {
				return g.PromptText
			}
		}
	}
	t.Fatalf("candidate %s not found in any group", c.ParticipantID)
	return ""
}

func TestBuildMatchesTriadic(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	group := promptGroup{PromptText: "p: ____", Candidates: testCandidates(5)}

	matches := BuildMatches([]promptGroup{group}, models.GroupingTriadic, false, rng)
	require.Len(t, matches, 2)
	assert.Len(t, matches[0].Candidates, 3)
	// A trailing pair is still voteable.
	assert.Len(t, matches[1].Candidates, 2)
}

func TestBuildMatchesTriadicDropsTrailingSingle(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	group := promptGroup{PromptText: "p: ____", Candidates: testCandidates(4)}

	matches := BuildMatches([]promptGroup{group}, models.GroupingTriadic, false, rng)
	require.Len(t, matches, 1)
	assert.Len(t, matches[0].Candidates, 3)
}

func TestBuildMatchesShowcaseIsSingleIndividual(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	prompt := "The final word: ____"
	g1 := promptGroup{PromptText: prompt, Candidates: testCandidates(3)}

	// final overrides the configured mode.
	matches := BuildMatches([]promptGroup{g1}, models.GroupingPaired, true, rng)
	require.Len(t, matches, 1)
	assert.Equal(t, models.GroupingIndividual, matches[0].Mode)
	assert.Equal(t, prompt, matches[0].PromptText)
	assert.Len(t, matches[0].Candidates, 3)
}

func TestBuildMatchesEmpty(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	assert.Nil(t, BuildMatches(nil, models.GroupingPaired, false, rng))
	assert.Nil(t, BuildMatches(nil, models.GroupingPaired, true, rng))
}
