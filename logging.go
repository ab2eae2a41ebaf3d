package main

import (
	"github.com/chazu/hull/pkg/log"
	"github.com/urfave/cli"
)

var logger = log.New("hull")

func setupLogging(ctx *cli.Context) error {
	if name := ctx.GlobalString("log-level"); name != "" {
		level, err := log.ParseLevel(name)
		if err != nil {
			return cli.NewExitError(err.Error(), 2)
		}
		log.SetLevel(level)
	}

	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
	return nil
}
