// Package apperr classifies the errors that end a simulation run and maps
// them to process exit codes.
package apperr

import (
	"context"
	"errors"
)

var (
	ErrArgCount        = errors.New("wrong number of arguments")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrOutOfMemory     = errors.New("out of memory")
	ErrWorkerSpawn     = errors.New("worker creation failed")
	ErrWorkerJoin      = errors.New("worker join failed")
	ErrSynchronization = errors.New("synchronization primitive failure")
	ErrNoCalls         = errors.New("no calls recorded")
)

// Exit codes reported by the pizzeria binary.
const (
	ExitOK              = 0
	ExitInternal        = 1
	ExitArgCount        = 3
	ExitInvalidArgument = 4
	ExitOutOfMemory     = 5
	ExitWorkerSpawn     = 6
	ExitWorkerJoin      = 8
	ExitSynchronization = 9
	ExitNoCalls         = 66
)

// kinder is satisfied by domain errors that carry a classification kind.
type kinder interface {
	Kind() string
}

// Kind returns the classification of err.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	var k kinder
	if errors.As(err, &k) {
		return k.Kind()
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}

// IsOutcome reports whether err is an expected domain outcome (such as a
// declined payment) rather than a failure of the run.
func IsOutcome(err error) bool {
	var k kinder
	return errors.As(err, &k)
}

// ExitCode maps err to the process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK

	case errors.Is(err, ErrArgCount):
		return ExitArgCount

	case errors.Is(err, ErrInvalidArgument):
		return ExitInvalidArgument

	case errors.Is(err, ErrOutOfMemory):
		return ExitOutOfMemory

	case errors.Is(err, ErrWorkerSpawn):
		return ExitWorkerSpawn

	case errors.Is(err, ErrSynchronization):
		return ExitSynchronization

	case errors.Is(err, ErrWorkerJoin):
		return ExitWorkerJoin

	case errors.Is(err, ErrNoCalls):
		return ExitNoCalls

	default:
		return ExitInternal
	}
}
