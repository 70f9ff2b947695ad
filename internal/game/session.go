package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/quipset/quipset/internal/models"
	"github.com/quipset/quipset/internal/prompts"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionFull      = errors.New("session is full")
	ErrSessionClosed    = errors.New("session closed")
	ErrNotCreator       = errors.New("only the session creator may do that")
	ErrInvalidPhase     = errors.New("invalid phase for action")
	ErrNotEnoughPlayers = errors.New("not enough participants to start")
	ErrUnknownPrompt    = errors.New("no such prompt assigned")
	ErrUnknownCandidate = errors.New("no such candidate in the current match")
	ErrNotEligible      = errors.New("not an eligible voter")
	ErrAlreadyVoted     = errors.New("already voted for this match")
	ErrSelfVote         = errors.New("cannot vote for your own answer")
)

const (
	maxParticipants       = 8
	maxPromptPool         = 50
	minUsablePrompts      = 5
	promptFetchTimeout    = 10 * time.Second
	answerGenTimeout      = 5 * time.Second
	resultsDisplaySeconds = 5
	noAnswerText          = "[no answer]"
)

// answerKey identifies one required answer: unique per (participant, prompt).
type answerKey struct {
	ParticipantID uuid.UUID
	PromptID      uuid.UUID
}

// trigger is one unit of work for the session loop. Commands carry a reply
// channel so callers observe their result synchronously; deadline fires and
// synthetic-answer deliveries are fire-and-forget.
type trigger struct {
	fn    func()
	reply chan struct{}
}

// GameSession is the state machine for one room. All mutation runs on a
// single goroutine fed by the trigger channel, so commands and deadline
// fires for a room are serialized while different rooms proceed fully
// concurrently. Outbound notifications accumulate in the outbox; the
// transport drains it after each notify signal.
type GameSession struct {
	code      string
	creatorID uuid.UUID
	settings  models.Settings

	phase        Phase
	round        int
	participants []*models.Participant
	pool         []models.Prompt
	poolFetched  bool
	assignments  []models.Assignment
	answers      map[answerKey]string
	tally        map[uuid.UUID]uuid.UUID
	matches      []models.Match
	matchIx      int

	sched    *Scheduler
	armedSeq map[string]uint64
	source   prompts.Source
	rng    *rand.Rand
	log    *logrus.Entry

	outbox []Event
	notify chan struct{}

	triggers chan trigger
	done     chan struct{}
}

// NewGameSession allocates a session in phase Waiting with the creator as
// its first participant and starts the trigger loop. An empty creatorHandle
// means the creator has not connected yet; the first join under the creator
// name rebinds it.
func NewGameSession(code, creatorName, creatorHandle string, settings models.Settings, source prompts.Source, logger *logrus.Logger) *GameSession {
	creator := &models.Participant{
		ID:        uuid.New(),
		Name:      creatorName,
		Handle:    creatorHandle,
		Connected: creatorHandle != "",
	}
	s := &GameSession{
		code:         code,
		creatorID:    creator.ID,
		settings:     settings.Normalized(),
		phase:        PhaseWaiting,
		participants: []*models.Participant{creator},
		answers:      make(map[answerKey]string),
		tally:        make(map[uuid.UUID]uuid.UUID),
		armedSeq:     make(map[string]uint64),
		source:       source,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		log:          logger.WithField("room", code),
		notify:       make(chan struct{}, 1),
		triggers:     make(chan trigger, 16),
		done:         make(chan struct{}),
	}
	s.sched = NewScheduler(func(f deadlineFire) {
		s.enqueue(func() { s.handleDeadline(f) })
	})
	s.outbox = append(s.outbox, Event{
		Type: EventSessionCreated,
		Payload: map[string]interface{}{
			"code":      code,
			"creatorId": creator.ID.String(),
		},
	})
	go s.run()
	return s
}

func (s *GameSession) run() {
	for {
		select {
		case t := <-s.triggers:
			t.fn()
			if t.reply != nil {
				close(t.reply)
			}
			if len(s.outbox) > 0 {
				select {
				case s.notify <- struct{}{}:
				default:
				}
			}
		case <-s.done:
			return
		}
	}
}

// do executes fn on the session loop and waits for completion.
func (s *GameSession) do(fn func()) error {
	t := trigger{fn: fn, reply: make(chan struct{})}
	select {
	case s.triggers <- t:
	case <-s.done:
		return ErrSessionClosed
	}
	select {
	case <-t.reply:
		return nil
	case <-s.done:
		return ErrSessionClosed
	}
}

// enqueue posts fn to the session loop without waiting.
func (s *GameSession) enqueue(fn func()) {
	select {
	case s.triggers <- trigger{fn: fn}:
	case <-s.done:
	}
}

// Close cancels all deadlines and stops the trigger loop. Used by tests and
// process shutdown; normal play never closes a session.
func (s *GameSession) Close() {
	s.sched.CancelAll()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
}

// Notify signals that the outbox may be non-empty.
func (s *GameSession) Notify() <-chan struct{} { return s.notify }

// DrainOutbox returns and clears all pending outbound events.
func (s *GameSession) DrainOutbox() []Event {
	var out []Event
	s.do(func() {
		out = s.outbox
		s.outbox = nil
	})
	return out
}

// Code returns the room code.
func (s *GameSession) Code() string { return s.code }

// CreatorID returns the creator's participant id.
func (s *GameSession) CreatorID() uuid.UUID { return s.creatorID }

// Phase returns the current phase.
func (s *GameSession) Phase() Phase {
	var p Phase
	s.do(func() { p = s.phase })
	return p
}

// Round returns the current round number (0 before the first round).
func (s *GameSession) Round() int {
	var r int
	s.do(func() { r = s.round })
	return r
}

// Participants returns a snapshot copy of the participant list.
func (s *GameSession) Participants() []models.Participant {
	var out []models.Participant
	s.do(func() {
		out = make([]models.Participant, 0, len(s.participants))
		for _, p := range s.participants {
			out = append(out, *p)
		}
	})
	return out
}

// Assignments returns a snapshot of the current round's assignment list.
func (s *GameSession) Assignments() []models.Assignment {
	var out []models.Assignment
	s.do(func() {
		out = append(out, s.assignments...)
	})
	return out
}

// CurrentMatch returns the active match with its index and total count.
func (s *GameSession) CurrentMatch() (m models.Match, index, total int, ok bool) {
	s.do(func() {
		total = len(s.matches)
		index = s.matchIx
		if s.phase == PhaseVoting && s.matchIx < len(s.matches) {
			m = s.matches[s.matchIx]
			ok = true
		}
	})
	return m, index, total, ok
}

// Scores returns the scoreboard sorted by descending score.
func (s *GameSession) Scores() []ScoreEntry {
	var out []ScoreEntry
	s.do(func() { out = s.rankedScores() })
	return out
}

// Join binds a connection to a participant. A name matching an existing
// disconnected participant is a reconnection: the handle is rebound and the
// prior identity, score and round progress are preserved. A currently
// connected or unseen name allocates a fresh participant.
func (s *GameSession) Join(name, handle string) (models.Participant, error) {
	var (
		joined models.Participant
		err    error
	)
	s.do(func() {
		for _, p := range s.participants {
			if p.Name == name && !p.Connected && !p.Synthetic {
				p.Handle = handle
				p.Connected = true
				joined = *p
				s.emitJoined(p, true)
				return
			}
		}
		if len(s.participants) >= maxParticipants {
			err = ErrSessionFull
			return
		}
		p := &models.Participant{
			ID:        uuid.New(),
			Name:      name,
			Handle:    handle,
			Connected: true,
		}
		s.participants = append(s.participants, p)
		joined = *p
		s.emitJoined(p, false)
	})
	return joined, err
}

// Rebind reattaches a connection handle to a known participant id. Used by
// the creator-reconnect path where the identity is proven by token rather
// than by name.
func (s *GameSession) Rebind(participantID uuid.UUID, handle string) (models.Participant, error) {
	var (
		rebound models.Participant
		err     error
	)
	s.do(func() {
		p := s.participantByID(participantID)
		if p == nil {
			err = ErrNotEligible
			return
		}
		p.Handle = handle
		p.Connected = true
		rebound = *p
		s.emitJoined(p, true)
	})
	return rebound, err
}

// Disconnect flips the participant to disconnected. It never removes the
// participant, never clears in-flight answers or votes, and never ends the
// session.
func (s *GameSession) Disconnect(participantID uuid.UUID) {
	s.do(func() {
		if p := s.participantByID(participantID); p != nil {
			p.Connected = false
			p.Handle = ""
		}
	})
}

// AddSyntheticParticipant adds a bot player. Creator-only, Waiting only.
func (s *GameSession) AddSyntheticParticipant(requesterID uuid.UUID) (models.Participant, error) {
	var (
		bot models.Participant
		err error
	)
	s.do(func() {
		if requesterID != s.creatorID {
			err = ErrNotCreator
			return
		}
		if s.phase != PhaseWaiting {
			err = ErrInvalidPhase
			return
		}
		if len(s.participants) >= maxParticipants {
			err = ErrSessionFull
			return
		}
		n := 0
		for _, p := range s.participants {
			if p.Synthetic {
				n++
			}
		}
		p := &models.Participant{
			ID:        uuid.New(),
			Name:      fmt.Sprintf("Bot %d", n+1),
			Connected: true,
			Synthetic: true,
		}
		s.participants = append(s.participants, p)
		bot = *p
		s.emitJoined(p, false)
	})
	return bot, err
}

// RemoveSyntheticParticipant removes the most recently added bot.
// Creator-only, Waiting only.
func (s *GameSession) RemoveSyntheticParticipant(requesterID uuid.UUID) error {
	var err error
	s.do(func() {
		if requesterID != s.creatorID {
			err = ErrNotCreator
			return
		}
		if s.phase != PhaseWaiting {
			err = ErrInvalidPhase
			return
		}
		for i := len(s.participants) - 1; i >= 0; i-- {
			if s.participants[i].Synthetic {
				s.participants = append(s.participants[:i], s.participants[i+1:]...)
				return
			}
		}
		err = ErrNotEligible
	})
	return err
}

// Start begins the first round. Creator-only. Standard sessions need at
// least two participants; permissive sessions start with one.
func (s *GameSession) Start(requesterID uuid.UUID) error {
	var err error
	s.do(func() {
		if requesterID != s.creatorID {
			err = ErrNotCreator
			return
		}
		if s.phase != PhaseWaiting {
			err = ErrInvalidPhase
			return
		}
		min := 2
		if s.settings.Permissive {
			min = 1
		}
		if len(s.participants) < min {
			err = ErrNotEnoughPlayers
			return
		}
		s.ensurePool()
		s.round = 1
		s.beginRound()
	})
	return err
}

// SubmitAnswer records a participant's answer for an assigned prompt.
// Resubmitting overwrites. When the last required answer arrives the
// session transitions to Voting immediately.
func (s *GameSession) SubmitAnswer(participantID, promptID uuid.UUID, text string) error {
	var err error
	s.do(func() {
		err = s.acceptAnswer(participantID, promptID, text, false)
	})
	return err
}

// SubmitVote records a vote for the current match. Eligible voters are
// connected, non-synthetic participants; voting for one's own answer is
// rejected. When every eligible voter has voted the match resolves
// immediately.
func (s *GameSession) SubmitVote(voterID, candidateID uuid.UUID) error {
	var err error
	s.do(func() {
		if s.phase != PhaseVoting || s.matchIx >= len(s.matches) {
			err = ErrInvalidPhase
			return
		}
		voter := s.participantByID(voterID)
		if voter == nil || !voter.Connected || voter.Synthetic {
			err = ErrNotEligible
			return
		}
		if _, voted := s.tally[voterID]; voted {
			err = ErrAlreadyVoted
			return
		}
		match := s.matches[s.matchIx]
		found := false
		for _, c := range match.Candidates {
			if c.ParticipantID == candidateID {
				found = true
				break
			}
		}
		if !found {
			err = ErrUnknownCandidate
			return
		}
		if candidateID == voterID {
			err = ErrSelfVote
			return
		}
		s.tally[voterID] = candidateID
		if len(s.tally) >= s.eligibleVoterCount() {
			s.resolveMatch()
		}
	})
	return err
}

// --- internals: everything below runs on the session loop ---

func (s *GameSession) participantByID(id uuid.UUID) *models.Participant {
	for _, p := range s.participants {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (s *GameSession) eligibleVoterCount() int {
	n := 0
	for _, p := range s.participants {
		if p.Connected && !p.Synthetic {
			n++
		}
	}
	return n
}

func (s *GameSession) emit(ev Event) {
	s.outbox = append(s.outbox, ev)
}

func (s *GameSession) emitJoined(p *models.Participant, reconnected bool) {
	s.emit(Event{
		Type: EventParticipantJoined,
		Payload: map[string]interface{}{
			"participantId": p.ID.String(),
			"name":          p.Name,
			"synthetic":     p.Synthetic,
			"reconnected":   reconnected,
		},
	})
}

// arm schedules the named deadline and records its sequence number. A fire
// whose sequence no longer matches was queued behind a trigger that already
// advanced the phase; handleDeadline drops it.
func (s *GameSession) arm(name string, d time.Duration) {
	s.armedSeq[name] = s.sched.Arm(name, d)
}

func (s *GameSession) setPhase(next Phase) {
	if !s.phase.CanTransitionTo(next) {
		s.log.Warnf("illegal phase transition %s -> %s", s.phase, next)
	}
	s.phase = next
}

// ensurePool fetches the session's prompt pool on first start. Fetched
// strings are validated and capped; any failure or a too-small surviving
// set falls back to the builtin prompts. The pool is cached for the
// session's lifetime.
func (s *GameSession) ensurePool() {
	if s.poolFetched {
		return
	}
	s.poolFetched = true

	var texts []string
	if s.source != nil {
		ctx, cancel := context.WithTimeout(context.Background(), promptFetchTimeout)
		fetched, err := s.source.FetchPrompts(ctx, s.settings.PromptDifficultyTag)
		cancel()
		if err != nil {
			s.log.Warnf("prompt fetch failed, using builtin set: %v", err)
		} else {
			for _, t := range fetched {
				if prompts.Valid(t) {
					texts = append(texts, t)
					if len(texts) >= maxPromptPool {
						break
					}
				}
			}
		}
	}
	if len(texts) < minUsablePrompts {
		if len(texts) > 0 {
			s.log.Warnf("only %d usable prompts fetched, using builtin set", len(texts))
		}
		texts = prompts.Builtin()
	}
	s.pool = make([]models.Prompt, 0, len(texts))
	for _, t := range texts {
		s.pool = append(s.pool, models.Prompt{ID: uuid.New(), Text: t})
	}
}

// beginRound sets up the Answering phase for the current round number:
// fresh assignments, cleared answers, armed answer deadline, and async
// answer generation for synthetic participants.
func (s *GameSession) beginRound() {
	s.setPhase(PhaseAnswering)
	if s.round >= s.settings.MaxRounds {
		// Showcase round: everyone answers the same prompt.
		s.assignments = AssignShared(s.pool, s.participants, s.rng)
	} else {
		s.assignments = AssignRotatingPair(s.pool, s.participants, s.rng)
	}
	s.answers = make(map[answerKey]string)

	duration := time.Duration(s.settings.AnswerDurationSeconds) * time.Second
	s.arm(deadlineAnswer, duration)
	s.emit(Event{
		Type: EventPhaseDeadlineStarted,
		Payload: map[string]interface{}{
			"phase":    PhaseAnswering.String(),
			"duration": s.settings.AnswerDurationSeconds,
			"round":    s.round,
		},
	})

	perParticipant := make(map[uuid.UUID][]map[string]interface{})
	for i, a := range s.assignments {
		p := s.participantByID(a.ParticipantID)
		if p == nil {
			continue
		}
		if p.Synthetic {
			go s.generateSyntheticAnswer(a, i)
			continue
		}
		perParticipant[p.ID] = append(perParticipant[p.ID], map[string]interface{}{
			"promptId": a.PromptID.String(),
			"text":     a.Text,
		})
	}
	for id, list := range perParticipant {
		to := id
		s.emit(Event{
			Type: EventPromptsAssigned,
			To:   &to,
			Payload: map[string]interface{}{
				"round":   s.round,
				"prompts": list,
			},
		})
	}
}

// generateSyntheticAnswer runs off-loop: it asks the text service for an
// answer under a bounded timeout and posts the result (or the deterministic
// fallback) back through the trigger queue.
func (s *GameSession) generateSyntheticAnswer(a models.Assignment, seed int) {
	text := ""
	if s.source != nil {
		ctx, cancel := context.WithTimeout(context.Background(), answerGenTimeout)
		got, err := s.source.GenerateAnswer(ctx, a.Text)
		cancel()
		if err != nil {
			s.log.Debugf("synthetic answer generation failed: %v", err)
		} else {
			text = got
		}
	}
	if text == "" {
		text = prompts.FallbackAnswer(seed)
	}
	s.enqueue(func() {
		// The round may already have moved on; a late bot answer is dropped.
		if err := s.acceptAnswer(a.ParticipantID, a.PromptID, text, true); err != nil {
			s.log.Debugf("dropping late synthetic answer: %v", err)
		}
	})
}

func (s *GameSession) acceptAnswer(participantID, promptID uuid.UUID, text string, synthetic bool) error {
	if s.phase != PhaseAnswering {
		return ErrInvalidPhase
	}
	assigned := false
	for _, a := range s.assignments {
		if a.ParticipantID == participantID && a.PromptID == promptID {
			assigned = true
			break
		}
	}
	if !assigned {
		return ErrUnknownPrompt
	}
	s.answers[answerKey{participantID, promptID}] = text

	if !synthetic {
		remaining := 0
		for _, a := range s.assignments {
			if a.ParticipantID != participantID {
				continue
			}
			if _, ok := s.answers[answerKey{a.ParticipantID, a.PromptID}]; !ok {
				remaining++
			}
		}
		to := participantID
		s.emit(Event{
			Type: EventAnswerAcknowledged,
			To:   &to,
			Payload: map[string]interface{}{
				"remaining": remaining,
			},
		})
	}

	if s.allAnswered() {
		s.beginVoting()
	}
	return nil
}

func (s *GameSession) allAnswered() bool {
	for _, a := range s.assignments {
		if _, ok := s.answers[answerKey{a.ParticipantID, a.PromptID}]; !ok {
			return false
		}
	}
	return true
}

// beginVoting builds the match list for the round and starts the first
// match. Any missing answers have been sentinel-filled by the caller.
func (s *GameSession) beginVoting() {
	s.sched.Cancel(deadlineAnswer)
	s.setPhase(PhaseVoting)

	groups := s.groupAnswersByPrompt()
	final := s.round >= s.settings.MaxRounds
	s.matches = BuildMatches(groups, s.settings.VotingGroupingMode, final, s.rng)
	s.matchIx = 0
	s.tally = make(map[uuid.UUID]uuid.UUID)

	if len(s.matches) == 0 {
		// Nothing voteable this round (e.g. paired grouping with a lone
		// answer). Skip straight to aggregation.
		s.aggregateRound()
		return
	}
	s.startMatch()
}

// groupAnswersByPrompt collects candidates per prompt in first-seen
// assignment order.
func (s *GameSession) groupAnswersByPrompt() []promptGroup {
	index := make(map[uuid.UUID]int)
	var groups []promptGroup
	for _, a := range s.assignments {
		text, ok := s.answers[answerKey{a.ParticipantID, a.PromptID}]
		if !ok {
			continue
		}
		p := s.participantByID(a.ParticipantID)
		if p == nil {
			continue
		}
		gi, ok := index[a.PromptID]
		if !ok {
			gi = len(groups)
			index[a.PromptID] = gi
			groups = append(groups, promptGroup{PromptText: a.Text})
		}
		groups[gi].Candidates = append(groups[gi].Candidates, models.Candidate{
			ParticipantID: p.ID,
			Name:          p.Name,
			AnswerText:    text,
		})
	}
	return groups
}

func (s *GameSession) startMatch() {
	match := s.matches[s.matchIx]
	final := s.round >= s.settings.MaxRounds
	s.emit(Event{
		Type: EventVotingStarted,
		Payload: map[string]interface{}{
			"match":   match,
			"index":   s.matchIx,
			"total":   len(s.matches),
			"isFinal": final,
		},
	})
	s.emit(Event{
		Type: EventPhaseDeadlineStarted,
		Payload: map[string]interface{}{
			"phase":    PhaseVoting.String(),
			"duration": s.settings.VoteDurationSeconds,
		},
	})
	s.arm(deadlineVote, time.Duration(s.settings.VoteDurationSeconds)*time.Second)
}

// resolveMatch tallies the current match, applies awards, emits results and
// advances to the next match or to round aggregation.
func (s *GameSession) resolveMatch() {
	s.sched.Cancel(deadlineVote)

	counts := VoteCounts(s.tally)
	final := s.round >= s.settings.MaxRounds
	awards := AwardPoints(counts, s.round, final)
	for id, points := range awards {
		if p := s.participantByID(id); p != nil {
			p.Score += points
		}
	}

	votes := make(map[string]int, len(counts))
	for id, n := range counts {
		votes[id.String()] = n
	}
	winners := []string{}
	for _, id := range Winners(counts) {
		winners = append(winners, id.String())
	}
	s.emit(Event{
		Type: EventMatchResults,
		Payload: map[string]interface{}{
			"index":   s.matchIx,
			"votes":   votes,
			"winners": winners,
		},
	})

	s.tally = make(map[uuid.UUID]uuid.UUID)
	s.matchIx++
	if s.matchIx < len(s.matches) {
		s.startMatch()
		return
	}
	s.aggregateRound()
}

// aggregateRound emits cumulative scores and arms the fixed display delay
// before moving on to Intermission or Finished.
func (s *GameSession) aggregateRound() {
	final := s.round >= s.settings.MaxRounds
	s.emit(Event{
		Type: EventPhaseResults,
		Payload: map[string]interface{}{
			"aggregateScores": s.rankedScores(),
			"isFinal":         final,
		},
	})
	s.arm(deadlineResults, resultsDisplaySeconds*time.Second)
}

func (s *GameSession) rankedScores() []ScoreEntry {
	out := make([]ScoreEntry, 0, len(s.participants))
	for _, p := range s.participants {
		out = append(out, ScoreEntry{ParticipantID: p.ID, Name: p.Name, Score: p.Score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// handleDeadline runs on the session loop when a named deadline expires.
// The scheduler drops fires whose record was already replaced or cancelled,
// but a fire can still be queued behind a trigger that advances the phase
// and re-arms the same name (e.g. the last vote resolving a match while its
// deadline expires). The sequence check identifies the exact deadline that
// scheduled the fire; the phase checks below guard the remaining cases.
func (s *GameSession) handleDeadline(f deadlineFire) {
	if f.Seq != s.armedSeq[f.Name] {
		return
	}
	switch f.Name {
	case deadlineAnswer:
		if s.phase != PhaseAnswering {
			return
		}
		for _, a := range s.assignments {
			k := answerKey{a.ParticipantID, a.PromptID}
			if _, ok := s.answers[k]; !ok {
				s.answers[k] = noAnswerText
			}
		}
		s.beginVoting()

	case deadlineVote:
		if s.phase != PhaseVoting || s.matchIx >= len(s.matches) {
			return
		}
		s.resolveMatch()

	case deadlineResults:
		if s.phase != PhaseVoting || s.matchIx < len(s.matches) {
			return
		}
		if s.round >= s.settings.MaxRounds {
			s.setPhase(PhaseFinished)
			s.sched.CancelAll()
			s.emit(Event{
				Type: EventSessionFinished,
				Payload: map[string]interface{}{
					"rankedScores": s.rankedScores(),
				},
			})
			return
		}
		s.setPhase(PhaseIntermission)
		s.emit(Event{
			Type: EventIntermissionStarted,
			Payload: map[string]interface{}{
				"round":     s.round + 1,
				"maxRounds": s.settings.MaxRounds,
			},
		})
		s.arm(deadlineIntermission, time.Duration(s.settings.IntermissionDurationSeconds)*time.Second)

	case deadlineIntermission:
		if s.phase != PhaseIntermission {
			return
		}
		s.round++
		s.beginRound()
	}
}
