// Package tui renders the match and the live prediction in the terminal.
//
// The model never owns game state. It polls snapshots from the inference
// loop and the match machine on a short refresh tick and forwards key
// presses to the machine's three operations.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/lox/rpsvision/internal/gesture"
	"github.com/lox/rpsvision/internal/inference"
	"github.com/lox/rpsvision/internal/match"
)

// Mode selects what the TUI shows
type Mode int

const (
	ModeGame Mode = iota
	ModePractice
)

// Predictor exposes prediction snapshots
type Predictor interface {
	Current() inference.State
}

// Game is the presentation boundary of the match machine
type Game interface {
	State() match.State
	CommitMove() (match.RoundRecord, error)
	AdvanceRound() (match.State, error)
	Reset() match.State
}

// LabelSetter lets keys drive a stand-in classifier
type LabelSetter interface {
	Set(label string)
}

// Options configures a Model
type Options struct {
	Mode        Mode
	Predictions Predictor
	Game        Game
	// Labels is optional; when set, number keys choose the gesture
	Labels LabelSetter
	// SetupErr shows the setup error screen instead of the game
	SetupErr error
	// Refresh is how often snapshots are polled
	Refresh time.Duration
}

type refreshMsg struct{}

// Model is the Bubble Tea model for both game and practice mode
type Model struct {
	opts   Options
	logger *log.Logger
	keys   keyMap
	help   help.Model

	prediction inference.State
	state      match.State
	notice     string
	width      int
	quitting   bool
}

// New creates a TUI model
func New(opts Options, logger *log.Logger) *Model {
	if opts.Refresh <= 0 {
		opts.Refresh = 50 * time.Millisecond
	}
	m := &Model{
		opts:   opts,
		logger: logger.WithPrefix("tui"),
		keys:   newKeyMap(opts.Mode, opts.Labels != nil),
		help:   help.New(),
	}
	m.refresh()
	return m
}

// Init starts the refresh tick
func (m *Model) Init() tea.Cmd {
	if m.opts.SetupErr != nil {
		return nil
	}
	return m.tick()
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.opts.Refresh, func(time.Time) tea.Msg { return refreshMsg{} })
}

func (m *Model) refresh() {
	if m.opts.Predictions != nil {
		m.prediction = m.opts.Predictions.Current()
	}
	if m.opts.Game != nil && m.opts.Mode == ModeGame {
		m.state = m.opts.Game.State()
	}
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case refreshMsg:
		m.refresh()
		return m, m.tick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	if m.opts.SetupErr != nil {
		return m, nil
	}

	if m.opts.Labels != nil {
		switch {
		case key.Matches(msg, m.keys.Rock):
			m.opts.Labels.Set("rock")
		case key.Matches(msg, m.keys.Paper):
			m.opts.Labels.Set("paper")
		case key.Matches(msg, m.keys.Scissors):
			m.opts.Labels.Set("scissors")
		case key.Matches(msg, m.keys.Clear):
			m.opts.Labels.Set("none")
		}
	}

	if m.opts.Mode != ModeGame || m.opts.Game == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Commit):
		m.commit()
	case key.Matches(msg, m.keys.Next):
		m.advance()
	case key.Matches(msg, m.keys.Reset):
		m.opts.Game.Reset()
		m.notice = ""
	}
	m.refresh()
	return m, nil
}

// commit resolves the round. The key is inert outside AwaitingMove, so the
// machine's phase contract is never violated from here.
func (m *Model) commit() {
	if m.opts.Game.State().Phase != match.AwaitingMove {
		return
	}
	_, err := m.opts.Game.CommitMove()
	switch {
	case err == nil:
		m.notice = ""
	case errors.Is(err, match.ErrGestureNotRecognized):
		m.notice = "Can't recognise your hand. Try again."
	default:
		m.logger.Error("Commit failed", "error", err)
		m.notice = err.Error()
	}
}

func (m *Model) advance() {
	if m.opts.Game.State().Phase != match.RoundResolved {
		return
	}
	if _, err := m.opts.Game.AdvanceRound(); err != nil {
		m.logger.Error("Advance failed", "error", err)
		m.notice = err.Error()
	}
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	switch {
	case m.opts.SetupErr != nil:
		m.renderSetupError(&b)
	case m.opts.Mode == ModePractice:
		m.renderPractice(&b)
	case m.state.Phase == match.MatchEnded:
		m.renderResult(&b)
	default:
		m.renderGame(&b)
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderSetupError(b *strings.Builder) {
	b.WriteString(HeaderStyle.Render("Rock Paper Scissors"))
	b.WriteString("\n\n")
	b.WriteString(ErrorStyle.Render(m.opts.SetupErr.Error()))
	b.WriteString("\n")
	b.WriteString(InfoStyle.Render("Check that a camera is connected and access is allowed."))
	b.WriteString("\n")
}

func (m *Model) renderPrediction(b *strings.Builder, label string) {
	b.WriteString(label)
	b.WriteString(" ")
	if g := m.prediction.Gesture; g.Valid() {
		b.WriteString(GestureStyle.Render(fmt.Sprintf("%s %s", g.Symbol(), g)))
	} else {
		b.WriteString(InfoStyle.Render("detecting..."))
	}
	b.WriteString("\n")
	if m.prediction.Degraded {
		b.WriteString(WarningStyle.Render(fmt.Sprintf("Classifier is not responding (%d failures in a row)", m.prediction.ConsecutiveFailures)))
		b.WriteString("\n")
	}
}

func (m *Model) renderPractice(b *strings.Builder) {
	b.WriteString(HeaderStyle.Render("Practice"))
	b.WriteString("\n\n")
	m.renderPrediction(b, "Current hand:")
	b.WriteString("\n")

	guide := []struct {
		g    gesture.Gesture
		hint string
	}{
		{gesture.Rock, "make a fist"},
		{gesture.Paper, "open all your fingers"},
		{gesture.Scissors, "raise your index and middle fingers"},
	}
	var lines []string
	for _, item := range guide {
		lines = append(lines, fmt.Sprintf("%s %-8s %s", item.g.Symbol(), item.g, InfoStyle.Render(item.hint)))
	}
	b.WriteString(PanelStyle.Render(strings.Join(lines, "\n")))
	b.WriteString("\n")
}

func (m *Model) renderScoreboard(b *strings.Builder) {
	s := m.state
	b.WriteString(ScoreStyle.Render(fmt.Sprintf("You %d", s.UserScore)))
	b.WriteString("   ")
	b.WriteString(RoundStyle.Render(fmt.Sprintf("Round %d / %d", s.CurrentRound, match.Rounds)))
	b.WriteString("   ")
	b.WriteString(ScoreStyle.Render(fmt.Sprintf("Computer %d", s.ComputerScore)))
	b.WriteString("\n\n")
}

func (m *Model) renderGame(b *strings.Builder) {
	b.WriteString(HeaderStyle.Render("Rock Paper Scissors"))
	b.WriteString("\n\n")
	m.renderScoreboard(b)
	m.renderPrediction(b, "Your hand:")

	if rec := m.state.LastRound; rec != nil {
		b.WriteString("\n")
		fmt.Fprintf(b, "You: %s %s   Computer: %s %s\n",
			rec.UserMove.Symbol(), rec.UserMove, rec.ComputerMove.Symbol(), rec.ComputerMove)
		b.WriteString(outcomeLine(rec.Outcome))
		b.WriteString("\n")
		b.WriteString(InfoStyle.Render("Press n for the next round."))
		b.WriteString("\n")
	} else if m.prediction.Gesture.Valid() {
		b.WriteString(InfoStyle.Render("Press enter to lock in your move."))
		b.WriteString("\n")
	}

	if m.notice != "" {
		b.WriteString("\n")
		b.WriteString(WarningStyle.Render(m.notice))
		b.WriteString("\n")
	}
}

func (m *Model) renderResult(b *strings.Builder) {
	s := m.state
	b.WriteString(HeaderStyle.Render("Match over"))
	b.WriteString("\n\n")
	switch s.Result {
	case match.UserWins:
		b.WriteString(SuccessStyle.Render("🎉 You win!"))
	case match.ComputerWins:
		b.WriteString(ErrorStyle.Render("😢 You lose..."))
	default:
		b.WriteString(WarningStyle.Render("🤝 It's a draw!"))
	}
	b.WriteString("\n\n")
	fmt.Fprintf(b, "You: %d\nComputer: %d\n\n", s.UserScore, s.ComputerScore)
	for _, rec := range s.History {
		b.WriteString(InfoStyle.Render(fmt.Sprintf("Round %d: %s vs %s, %s", rec.Round, rec.UserMove, rec.ComputerMove, rec.Outcome)))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(InfoStyle.Render("Press r to play again."))
	b.WriteString("\n")
}

func outcomeLine(o gesture.Outcome) string {
	switch o {
	case gesture.Win:
		return SuccessStyle.Render("🎉 You win this round!")
	case gesture.Lose:
		return ErrorStyle.Render("😢 You lose this round...")
	default:
		return WarningStyle.Render("🤝 Draw!")
	}
}

// Quitting reports whether the user asked to quit
func (m *Model) Quitting() bool {
	return m.quitting
}
