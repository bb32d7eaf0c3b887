// Command pizzeria simulates one day of a pizzeria taking, cooking and
// delivering orders.
//
// Usage:
//
//	pizzeria [-config pizzeria.yaml] <customers> <seed>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"

	"pizzeria/internal/app"
	"pizzeria/internal/apperr"
	"pizzeria/internal/config"
	"pizzeria/internal/logging"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command and returns its exit code. The report goes to
// stdout; usage and setup errors go to stderr.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fs := flag.NewFlagSet("pizzeria", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a YAML configuration file")
	fs.Usage = func() {
		fmt.Fprintln(stderr, "usage: pizzeria [-config path] <customers> <seed>")
		fs.PrintDefaults()
	}
	flags, positional := splitArgs(args)
	if err := fs.Parse(flags); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return apperr.ExitOK
		}
		return apperr.ExitArgCount
	}

	customers, seed, err := parseArgs(append(fs.Args(), positional...))
	if err != nil {
		fmt.Fprint(stdout, failureMessage(err))
		return apperr.ExitCode(err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "pizzeria: %v\n", err)
		return apperr.ExitInternal
	}

	logger, err := logging.New(cfg.Logging.Logger())
	if err != nil {
		fmt.Fprintf(stderr, "pizzeria: logger: %v\n", err)
		return apperr.ExitInternal
	}
	defer func() { _ = logger.Sync() }()

	_, err = app.New(cfg, app.WithOutput(stdout), app.WithLogger(logger)).Run(ctx, customers, seed)
	if err != nil {
		logger.Error("run failed", zap.Error(err), zap.String("kind", apperr.Kind(err)))
		fmt.Fprint(stdout, failureMessage(err))
		return apperr.ExitCode(err)
	}
	return apperr.ExitOK
}

// splitArgs cuts args at the first negative number so that "-5" reaches
// parseArgs as a value instead of failing as an unknown flag.
func splitArgs(args []string) (flags, positional []string) {
	for i, a := range args {
		if len(a) > 1 && a[0] == '-' {
			if _, err := strconv.Atoi(a); err == nil {
				return args[:i], args[i:]
			}
		}
	}
	return args, nil
}

// parseArgs reads the customer count and the seed. Both must be positive
// decimal integers.
func parseArgs(args []string) (int, uint64, error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("got %d arguments: %w", len(args), apperr.ErrArgCount)
	}

	customers, err := strconv.Atoi(args[0])
	if err != nil || customers <= 0 {
		return 0, 0, fmt.Errorf("customers %q: %w", args[0], apperr.ErrInvalidArgument)
	}

	seed, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil || seed == 0 {
		return 0, 0, fmt.Errorf("seed %q: %w", args[1], apperr.ErrInvalidArgument)
	}

	return customers, seed, nil
}

// failureMessage is the line printed to the report for a failed run.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, apperr.ErrArgCount):
		return "Wrong number of arguments. Exiting...\n\n"
	case errors.Is(err, apperr.ErrInvalidArgument):
		return "Invalid argument.\n"
	case errors.Is(err, apperr.ErrOutOfMemory):
		return "OOM. Exiting...\n\n"
	case errors.Is(err, apperr.ErrWorkerSpawn):
		return "Unexpected error when creating new thread.\n"
	case errors.Is(err, apperr.ErrSynchronization):
		return "Unexpected error in a synchronization primitive.\n"
	case errors.Is(err, apperr.ErrWorkerJoin):
		return "Unexpected error when joining thread.\n"
	case errors.Is(err, apperr.ErrNoCalls):
		// The summary already said so.
		return ""
	default:
		return fmt.Sprintf("Unexpected error: %v\n", err)
	}
}
