package match

import (
	"fmt"

	"github.com/lox/rpsvision/internal/gesture"
)

// Rounds is the number of rounds in a match
const Rounds = 3

// Phase is the match's current decision state
type Phase int

const (
	AwaitingMove Phase = iota
	RoundResolved
	MatchEnded
)

func (p Phase) String() string {
	switch p {
	case AwaitingMove:
		return "awaiting_move"
	case RoundResolved:
		return "round_resolved"
	case MatchEnded:
		return "match_ended"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Result is the final result of a match
type Result int

const (
	// NoResult until the match has ended
	NoResult Result = iota
	UserWins
	ComputerWins
	Tie
)

func (r Result) String() string {
	switch r {
	case UserWins:
		return "user_wins"
	case ComputerWins:
		return "computer_wins"
	case Tie:
		return "draw"
	default:
		return "none"
	}
}

// RoundRecord is one resolved round
type RoundRecord struct {
	Round        int
	UserMove     gesture.Gesture
	ComputerMove gesture.Gesture
	Outcome      gesture.Outcome
}

// State is a snapshot of a match
type State struct {
	ID            string
	CurrentRound  int
	UserScore     int
	ComputerScore int
	Phase         Phase
	Result        Result

	// LastRound is the round just resolved; nil while awaiting a move
	LastRound *RoundRecord
	History   []RoundRecord
}

func newState(id string) State {
	return State{
		ID:           id,
		CurrentRound: 1,
		Phase:        AwaitingMove,
	}
}

// LastComputerMove returns the computer's move in the round just resolved,
// or Unknown if there is none
func (s State) LastComputerMove() gesture.Gesture {
	if s.LastRound == nil {
		return gesture.Unknown
	}
	return s.LastRound.ComputerMove
}

// LastOutcome returns the outcome of the round just resolved
func (s State) LastOutcome() (gesture.Outcome, bool) {
	if s.LastRound == nil {
		return gesture.Draw, false
	}
	return s.LastRound.Outcome, true
}

// Clone returns a deep copy of s
func (s State) Clone() State {
	c := s
	if s.LastRound != nil {
		last := *s.LastRound
		c.LastRound = &last
	}
	if s.History != nil {
		c.History = append([]RoundRecord(nil), s.History...)
	}
	return c
}

// Check verifies the match invariants
func (s State) Check() error {
	switch {
	case s.CurrentRound < 1:
		return fmt.Errorf("round %d below 1", s.CurrentRound)
	case s.CurrentRound > Rounds:
		return fmt.Errorf("round %d exceeds %d", s.CurrentRound, Rounds)
	case s.UserScore < 0 || s.ComputerScore < 0:
		return fmt.Errorf("negative score %d-%d", s.UserScore, s.ComputerScore)
	case s.UserScore+s.ComputerScore > s.CurrentRound:
		return fmt.Errorf("score %d-%d exceeds round %d", s.UserScore, s.ComputerScore, s.CurrentRound)
	case s.Phase == MatchEnded && s.Result == NoResult:
		return fmt.Errorf("ended match has no result")
	case s.Phase != MatchEnded && s.Result != NoResult:
		return fmt.Errorf("result %s set in phase %s", s.Result, s.Phase)
	}
	return nil
}

// finalResult compares cumulative scores
func finalResult(user, computer int) Result {
	switch {
	case user > computer:
		return UserWins
	case user < computer:
		return ComputerWins
	default:
		return Tie
	}
}
