// Package match implements the three-round rock-paper-scissors match.
//
// The Machine owns a State value and mutates it only through three
// operations:
//
//	m := match.NewMachine(loop, logger)
//	rec, err := m.CommitMove()   // lock in the current gesture, resolve the round
//	st, err := m.AdvanceRound()  // next round, or end the match after round 3
//	st = m.Reset()               // fresh match
//
// # Deterministic Testing
//
// The computer's move comes from an injectable MoveSource. Use FixedMoves
// to replay an exact sequence, or RandomMoves with a seeded generator:
//
//	m := match.NewMachine(preds, logger,
//	    match.WithMoveSource(match.NewRandomMoves(randutil.New(42))))
//
// # Observing
//
// Presentation code reads snapshots with State or subscribes to the
// EventBus passed with WithEventBus. Snapshots are copies; mutating them
// has no effect on the match.
package match
