package game

// Phase is the single active state of a session's state machine.
type Phase string

const (
	PhaseWaiting      Phase = "Waiting"
	PhaseAnswering    Phase = "Answering"
	PhaseVoting       Phase = "Voting"
	PhaseIntermission Phase = "Intermission"
	PhaseFinished     Phase = "Finished"
)

func (p Phase) String() string { return string(p) }

// validTransitions is the exhaustive transition table. Voting repeats
// in-place per match; Finished is terminal.
var validTransitions = map[Phase][]Phase{
	PhaseWaiting:      {PhaseAnswering},
	PhaseAnswering:    {PhaseVoting},
	PhaseVoting:       {PhaseIntermission, PhaseFinished},
	PhaseIntermission: {PhaseAnswering},
	PhaseFinished:     {},
}

// CanTransitionTo reports whether the state machine permits moving from p
// to target.
func (p Phase) CanTransitionTo(target Phase) bool {
	for _, next := range validTransitions[p] {
		if next == target {
			return true
		}
	}
	return false
}
