package main

import (
	"github.com/taigrr/glint/pkg/log"
	"github.com/urfave/cli"
)

var logger = log.New("glint")

// setupLogging applies --log-level, then lets -v/-vv raise the verbosity.
func setupLogging(ctx *cli.Context) error {
	if ctx.GlobalIsSet("log-level") {
		level, err := log.ParseLevel(ctx.GlobalString("log-level"))
		if err != nil {
			return err
		}
		log.SetLevel(level)
	}

	if ctx.GlobalBool("v") {
		log.SetLevel(min(log.CurrentLevel(), log.Info))
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
	return nil
}
