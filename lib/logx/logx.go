/*
Package logx contains the two-tier error reporting used by the density
pipeline's main entry point. It is the only place allowed to call os.Exit;
every package under lib/ returns an *errs.Error instead and lets main decide
how to render and abort.
*/
package logx

import (
	"fmt"
	"log"
	"os"
	"runtime/debug"

	"github.com/lanl/vizaly-density/lib/errs"
)

// Logger writes rank-tagged messages to a per-rank file as well as (for
// rank 0) to stderr, matching the logs/<run>_rank_<n> convention of the
// original error-metric harness.
type Logger struct {
	rank int
	file *os.File
	std  *log.Logger
}

// Open creates (or appends to) logs/<run>_rank_<rank>.log and returns a
// Logger that writes to it. The caller must Close it before the process
// exits.
func Open(run string, rank int) (*Logger, error) {
	if err := os.MkdirAll("logs", 0o755); err != nil {
		return nil, err
	}
	path := fmt.Sprintf("logs/%s_rank_%d.log", run, rank)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &Logger{
		rank: rank,
		file: f,
		std:  log.New(f, fmt.Sprintf("[rank %d] ", rank), log.LstdFlags),
	}, nil
}

// Close flushes and closes the underlying log file.
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}

// External reports a user-fixable error (rank, kind, offending key) to the
// per-rank log and, if this is rank 0, to stderr as a single summary line
// with no stack trace. It should be used when an error is something a user
// could reasonably be expected to fix through changes in
// configuration/data/environment.
func (l *Logger) External(e *errs.Error) {
	msg := fmt.Sprintf("fatal (%s): %s", e.Kind, e.Message)
	if l != nil {
		l.std.Println(msg)
	}
	if l == nil || l.rank == 0 {
		fmt.Fprintln(os.Stderr, "density exited early with the following error:")
		fmt.Fprintln(os.Stderr, msg)
	}
}

// Internal reports an invariant-breach error to the per-rank log along with
// a stack trace. Unlike External, this is emitted on every rank, since an
// invariant breach is a code defect rather than a user mistake rank 0 can
// summarize on peers' behalf.
func (l *Logger) Internal(e *errs.Error) {
	msg := fmt.Sprintf("fatal (%s): %s", e.Kind, e.Message)
	if l != nil {
		l.std.Println(msg)
	}
	fmt.Fprintln(os.Stderr, "density exited early with the following error:")
	fmt.Fprintln(os.Stderr, msg)
	debug.PrintStack()
}

// Fatal renders e with External or Internal depending on its Kind and exits
// the process with status 1. It is the only function in the module allowed
// to call os.Exit outside of main.go itself.
func (l *Logger) Fatal(e *errs.Error) {
	if e.Kind == errs.Internal {
		l.Internal(e)
	} else {
		l.External(e)
	}
	l.Close()
	os.Exit(1)
}
