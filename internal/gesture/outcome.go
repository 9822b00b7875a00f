package gesture

// Outcome is the result of a single round from the user's perspective
type Outcome int

const (
	Draw Outcome = iota
	Win
	Lose
)

// String returns the string representation of an outcome
func (o Outcome) String() string {
	switch o {
	case Win:
		return "win"
	case Lose:
		return "lose"
	default:
		return "draw"
	}
}

// Judge scores the user's move against the computer's. Rock beats
// scissors, scissors beats paper, paper beats rock, equal moves draw.
// Callers must not pass Unknown; it is treated as a draw.
func Judge(user, computer Gesture) Outcome {
	switch {
	case !user.Valid() || !computer.Valid() || user == computer:
		return Draw
	case user.beats(computer):
		return Win
	default:
		return Lose
	}
}
