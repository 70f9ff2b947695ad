package models

// GroupingMode selects how submitted answers are grouped into matches
// during the voting phase.
type GroupingMode string

const (
	GroupingIndividual GroupingMode = "individual"
	GroupingPaired     GroupingMode = "paired"
	GroupingTriadic    GroupingMode = "triadic"
)

// Settings captures the per-session configuration chosen at create time.
type Settings struct {
	MaxRounds                   int          `json:"maxRounds"`
	AnswerDurationSeconds       int          `json:"answerDurationSeconds"`
	VoteDurationSeconds         int          `json:"voteDurationSeconds"`
	IntermissionDurationSeconds int          `json:"intermissionDurationSeconds"`
	VotingGroupingMode          GroupingMode `json:"votingGroupingMode"`
	PromptDifficultyTag         string       `json:"promptDifficultyTag"`

	// Permissive allows starting with a single participant. Used for
	// testing/debug sessions; standard sessions require two players.
	Permissive bool `json:"permissive,omitempty"`
}

// DefaultSettings returns the standard session configuration.
func DefaultSettings() Settings {
	return Settings{
		MaxRounds:                   3,
		AnswerDurationSeconds:       60,
		VoteDurationSeconds:         30,
		IntermissionDurationSeconds: 10,
		VotingGroupingMode:          GroupingPaired,
		PromptDifficultyTag:         "normal",
	}
}

// Normalized fills zero or invalid fields with defaults so a partially
// specified create payload still yields a playable session.
func (s Settings) Normalized() Settings {
	def := DefaultSettings()
	if s.MaxRounds < 1 {
		s.MaxRounds = def.MaxRounds
	}
	if s.AnswerDurationSeconds <= 0 {
		s.AnswerDurationSeconds = def.AnswerDurationSeconds
	}
	if s.VoteDurationSeconds <= 0 {
		s.VoteDurationSeconds = def.VoteDurationSeconds
	}
	if s.IntermissionDurationSeconds <= 0 {
		s.IntermissionDurationSeconds = def.IntermissionDurationSeconds
	}
	switch s.VotingGroupingMode {
	case GroupingIndividual, GroupingPaired, GroupingTriadic:
	default:
		s.VotingGroupingMode = def.VotingGroupingMode
	}
	if s.PromptDifficultyTag == "" {
		s.PromptDifficultyTag = def.PromptDifficultyTag
	}
	return s
}
