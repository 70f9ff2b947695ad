package game

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/quipset/quipset/internal/models"
)

// AssignShared draws one random prompt and assigns it to every participant.
// Used for the showcase (final) round so everyone answers the same prompt.
func AssignShared(pool []models.Prompt, participants []*models.Participant, rng *rand.Rand) []models.Assignment {
	if len(pool) == 0 || len(participants) == 0 {
		return nil
	}
	p := pool[rng.Intn(len(pool))]
	assignments := make([]models.Assignment, 0, len(participants))
	for _, part := range participants {
		assignments = append(assignments, models.Assignment{
			ParticipantID: part.ID,
			PromptID:      p.ID,
			Text:          p.Text,
		})
	}
	return assignments
}

// AssignRotatingPair draws one prompt per participant (cycling through the
// pool when it is smaller than the player count) and assigns prompt i to
// the adjacent pair (participant i, participant i+1 mod N). Each prompt is
// answered by exactly two participants and each participant answers the two
// prompts of its adjacent pairings.
func AssignRotatingPair(pool []models.Prompt, participants []*models.Participant, rng *rand.Rand) []models.Assignment {
	n := len(participants)
	if len(pool) == 0 || n == 0 {
		return nil
	}
	if n == 1 {
		// Degenerate single-player round: one prompt, one answer.
		return AssignShared(pool, participants, rng)
	}

	drawn := drawPrompts(pool, n, rng)
	assignments := make([]models.Assignment, 0, 2*n)
	for i, p := range drawn {
		a := participants[i]
		b := participants[(i+1)%n]
		assignments = append(assignments,
			models.Assignment{ParticipantID: a.ID, PromptID: p.ID, Text: p.Text},
			models.Assignment{ParticipantID: b.ID, PromptID: p.ID, Text: p.Text},
		)
	}
	return assignments
}

// drawPrompts picks n prompts without replacement, reusing the pool
// cyclically when it has fewer than n entries. Reused prompts get fresh ids
// so per-prompt answer grouping stays unambiguous within the round.
func drawPrompts(pool []models.Prompt, n int, rng *rand.Rand) []models.Prompt {
	order := rng.Perm(len(pool))
	out := make([]models.Prompt, 0, n)
	for i := 0; i < n; i++ {
		p := pool[order[i%len(order)]]
		if i >= len(order) {
			p.ID = uuid.New()
		}
		out = append(out, p)
	}
	return out
}
