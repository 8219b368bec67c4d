package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/jacoelho/eventify/internal/config"
	"github.com/jacoelho/eventify/internal/exit"
	"github.com/jacoelho/eventify/internal/logging"
)

func main() {
	exitCode := run()
	os.Exit(exitCode)
}

func run() int {
	cfg, exitResult := config.Parse(os.Args)
	if exitResult != nil {
		exitResult.Print()
		return exitResult.ExitCode
	}

	logging.Init(logging.Options{Verbose: cfg.Debug})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	r := newRunner(cfg, os.Stdin, os.Stdout, logrus.StandardLogger())
	if exitResult := exit.FromError(r.Run(ctx)); exitResult != nil {
		exitResult.Print()
		return exitResult.ExitCode
	}
	return exit.CodeSuccess
}
