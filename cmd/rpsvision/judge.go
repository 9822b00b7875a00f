package main

import (
	"fmt"

	"github.com/lox/rpsvision/internal/gesture"
)

type JudgeCmd struct {
	User     string `arg:"" help:"Your move (rock, paper or scissors)"`
	Computer string `arg:"" help:"The computer's move"`
}

func (c *JudgeCmd) Run() error {
	out, err := judge(c.User, c.Computer)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func judge(user, computer string) (string, error) {
	u, cm := gesture.Parse(user), gesture.Parse(computer)
	if !u.Valid() {
		return "", fmt.Errorf("unknown move %q", user)
	}
	if !cm.Valid() {
		return "", fmt.Errorf("unknown move %q", computer)
	}
	return fmt.Sprintf("%s %s vs %s %s: %s", u.Symbol(), u, cm.Symbol(), cm, gesture.Judge(u, cm)), nil
}
