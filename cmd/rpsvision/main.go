package main

import (
	"github.com/alecthomas/kong"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Version     kong.VersionFlag `short:"v" help:"Show version"`
	Play        PlayCmd          `cmd:"" default:"1" help:"Play a three round match against the computer"`
	Practice    PracticeCmd      `cmd:"" help:"Show the live prediction without scoring"`
	Judge       JudgeCmd         `cmd:"" help:"Print the outcome of one pair of moves"`
	ModelServer ModelServerCmd   `cmd:"model-server" help:"Serve a stand-in gesture model over WebSocket"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("rpsvision"),
		kong.Description("Rock paper scissors against the computer, played with your hand"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
