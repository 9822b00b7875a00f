// Package gesture defines the hand shapes a player can show the camera and
// the rock-paper-scissors rule that scores them.
package gesture

import "strings"

// Gesture is a classified hand shape
type Gesture int

const (
	// Unknown means no confident classification yet. It never scores.
	Unknown Gesture = iota
	Rock
	Paper
	Scissors
)

// Playable lists the gestures that can take part in a round, in a fixed order.
var Playable = []Gesture{Rock, Paper, Scissors}

// String returns the canonical label of a gesture
func (g Gesture) String() string {
	switch g {
	case Rock:
		return "rock"
	case Paper:
		return "paper"
	case Scissors:
		return "scissors"
	default:
		return "unknown"
	}
}

// Symbol returns the glyph used when rendering a gesture
func (g Gesture) Symbol() string {
	switch g {
	case Rock:
		return "✊"
	case Paper:
		return "🖐"
	case Scissors:
		return "✌"
	default:
		return "❓"
	}
}

// Valid reports whether the gesture can be played
func (g Gesture) Valid() bool {
	return g == Rock || g == Paper || g == Scissors
}

// beats reports whether g defeats other
func (g Gesture) beats(other Gesture) bool {
	switch g {
	case Rock:
		return other == Scissors
	case Scissors:
		return other == Paper
	case Paper:
		return other == Rock
	}
	return false
}

// FromLabel maps a classifier label to a gesture. Anything outside the
// fixed table, including "none" and the empty string, is Unknown.
func FromLabel(label string) Gesture {
	switch strings.TrimSpace(label) {
	case "rock":
		return Rock
	case "paper":
		return Paper
	case "scissors":
		return Scissors
	default:
		return Unknown
	}
}

// Parse is like FromLabel but case-insensitive, for human input.
func Parse(s string) Gesture {
	return FromLabel(strings.ToLower(s))
}
