package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"golang.org/x/sync/errgroup"

	"github.com/lox/rpsvision/cmd/rpsvision/shared"
	"github.com/lox/rpsvision/internal/camera"
	"github.com/lox/rpsvision/internal/classifier"
	"github.com/lox/rpsvision/internal/config"
	"github.com/lox/rpsvision/internal/inference"
	"github.com/lox/rpsvision/internal/match"
	"github.com/lox/rpsvision/internal/randutil"
	"github.com/lox/rpsvision/internal/tui"
)

// SessionFlags are shared by the interactive commands
type SessionFlags struct {
	Config     string `kong:"default='rpsvision.hcl',help='Path to HCL config file'"`
	Classifier string `kong:"default='',help='Gesture model WebSocket URL (keyboard stand-in when empty)'"`
	LogLevel   string `kong:"default='',help='Log level (debug, info, warn, error)'"`
	LogFile    string `kong:"default='',help='Log file path'"`
}

type PlayCmd struct {
	SessionFlags `embed:""`
	Seed         int64 `kong:"default='0',help='Seed for the computer moves (0 picks one)'"`
}

func (c *PlayCmd) Run() error {
	cfg, err := loadConfig(c.SessionFlags)
	if err != nil {
		return err
	}
	if c.Seed != 0 {
		cfg.Match.Seed = c.Seed
	}
	return run(cfg, tui.ModeGame)
}

type PracticeCmd struct {
	SessionFlags `embed:""`
}

func (c *PracticeCmd) Run() error {
	cfg, err := loadConfig(c.SessionFlags)
	if err != nil {
		return err
	}
	return run(cfg, tui.ModePractice)
}

func loadConfig(flags SessionFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.Config)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}

	// Apply command line overrides
	if flags.Classifier != "" {
		cfg.Classifier.URL = flags.Classifier
	}
	if flags.LogLevel != "" {
		cfg.UI.LogLevel = flags.LogLevel
	}
	if flags.LogFile != "" {
		cfg.UI.LogFile = flags.LogFile
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// app is one wired session: camera, classifier, inference loop and, in
// game mode, the match machine.
type app struct {
	logger   *log.Logger
	session  *camera.Session
	model    classifier.Classifier
	loop     *inference.Loop
	machine  *match.Machine
	setupErr error
	opts     tui.Options
	closers  []func() error
}

func newApp(ctx context.Context, cfg *config.Config, mode tui.Mode, opener camera.Opener, clock quartz.Clock, logger *log.Logger) (*app, error) {
	a := &app{logger: logger}

	var labels tui.LabelSetter
	if cfg.Classifier.URL != "" {
		remote, err := classifier.NewRemote(cfg.Classifier.URL, logger)
		if err != nil {
			return nil, err
		}
		a.model = remote
		a.closers = append(a.closers, remote.Close)
	} else {
		manual := classifier.NewManual()
		a.model, labels = manual, manual
	}

	a.session = camera.NewSession(opener, logger)
	a.closers = append(a.closers, a.session.Close)
	a.opts = tui.Options{Mode: mode, Labels: labels}

	source, err := a.session.Open(ctx)
	if err != nil {
		// The TUI explains the failure; nothing downstream is built
		a.setupErr = err
		a.opts.SetupErr = err
		return a, nil
	}

	a.loop = inference.New(source, a.model, clock, logger, cfg.InferenceConfig())
	a.opts.Predictions = a.loop

	if mode == tui.ModeGame {
		seed := randutil.Resolve(cfg.Match.Seed)
		a.machine = match.NewMachine(a.loop, logger,
			match.WithMoveSource(match.NewRandomMoves(randutil.New(seed))),
			match.WithClock(clock),
		)
		a.machine.EventBus().Subscribe(match.SubscriberFunc(a.logEvent))
		a.opts.Game = a.machine
		logger.Info("Match ready", "match", a.machine.State().ID, "seed", seed)
	}

	return a, nil
}

func (a *app) logEvent(e match.Event) {
	switch e.Type {
	case match.EventTypeMatchEnded:
		a.logger.Info("Match ended",
			"match", e.State.ID,
			"result", e.State.Result,
			"score", fmt.Sprintf("%d-%d", e.State.UserScore, e.State.ComputerScore))
	case match.EventTypeCommitRejected:
		a.logger.Debug("Gesture not recognised", "round", e.State.CurrentRound)
	default:
		a.logger.Debug("Match event", "type", e.Type, "round", e.State.CurrentRound, "phase", e.State.Phase)
	}
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("Close failed", "error", err)
		}
	}
}

// Run drives the inference loop and the TUI until the user quits or ctx
// is cancelled. A camera setup failure is returned after the user has
// seen it.
func (a *app) Run(ctx context.Context, programOpts ...tea.ProgramOption) error {
	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	g, gctx := errgroup.WithContext(runCtx)
	if a.loop != nil {
		g.Go(func() error { return a.loop.Run(gctx) })
	}
	g.Go(func() error {
		defer stop()
		program := tea.NewProgram(tui.New(a.opts, a.logger), append(programOpts, tea.WithContext(gctx))...)
		_, err := program.Run()
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	return a.setupErr
}

func run(cfg *config.Config, mode tui.Mode) error {
	logger, closeLog, err := shared.SetupFileLogger(cfg.UI.LogFile, cfg.UI.LogLevel)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := shared.SetupSignalHandler(logger)
	defer stop()

	clock := quartz.NewReal()
	cam := camera.Synthetic{
		Width:  cfg.Camera.Width,
		Height: cfg.Camera.Height,
		FPS:    cfg.Camera.FPS,
		Clock:  clock,
	}

	a, err := newApp(ctx, cfg, mode, cam.Open, clock, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Run(ctx, tea.WithAltScreen())
}
