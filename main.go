/*
density runs the bulk-synchronous compression pipeline (C1-C11) over one
rank's share of one HACC partition, driven by a single JSON configuration
file.

Grounded on guppy.go's entry point: parse arguments, run the requested
work, and report any fatal error through a single External/Internal
rendering path rather than scattering os.Exit calls through the call
stack. Modes ("help"/"check"/"convert"/"confirm") collapse to a single
mode here since the core has one job, not four.
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/lanl/vizaly-density/lib/config"
	"github.com/lanl/vizaly-density/lib/errs"
	"github.com/lanl/vizaly-density/lib/logx"
	"github.com/lanl/vizaly-density/lib/mpi"
	"github.com/lanl/vizaly-density/lib/pipeline"
)

func main() {
	configPath := flag.String("config", "", "path to the pipeline's JSON configuration file")
	runName := flag.String("run", "density", "run name, used to namespace per-rank log files")
	flag.Parse()

	if *configPath == "" {
		fmt.Fprintln(os.Stderr, "usage: density -config <path> [-run <name>]")
		os.Exit(2)
	}

	if err := mpi.Init(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	comm := mpi.World()

	rank, err := comm.Rank()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		comm.Abort(1)
	}

	logger, err := logx.Open(*runName, rank)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		comm.Abort(1)
	}
	defer logger.Close()

	nbRanks, err := comm.Size()
	if err != nil {
		fatal(logger, comm, err)
	}

	cfg, err := config.Load(*configPath, nbRanks)
	if err != nil {
		fatal(logger, comm, err)
	}

	p, err := pipeline.New(cfg, comm, logger)
	if err != nil {
		fatal(logger, comm, err)
	}

	if err := p.Run(context.Background()); err != nil {
		fatal(logger, comm, err)
	}

	if err := comm.Barrier(); err != nil {
		fatal(logger, comm, err)
	}
	if err := mpi.Finalize(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// fatal renders err through logx's two-tier reporting and aborts every
// rank in comm, since a fatal error on one rank leaves the others stuck
// at the next collective.
func fatal(logger *logx.Logger, comm mpi.Comm, err error) {
	e, ok := err.(*errs.Error)
	if !ok {
		e = errs.Wrap(errs.Internal, err, nil)
	}
	comm.Abort(1)
	logger.Fatal(e)
}
