/*
Package pipeline drives the state machine (C11) that sequences every
other module for one rank's share of one configuration file:
INIT -> LOAD_PARTICLES -> LOAD_DENSITY -> BIN -> ALLOCATE_BITS ->
INDEX_AND_BUCKET -> COMPRESS(x6) -> WRITE -> DONE, with no back-edges.

Grounded on density.cpp's Density::run(): dumpHistogram right after the
binning stage, dumpBitsDistrib right after bit allocation, bucketParticles,
a per-component process() loop, then dump(). Design note 4 ("make the
pipeline a value, not a module-scope singleton") is applied literally:
Pipeline carries its config, communicator, logger, and registry as fields,
constructed once by main and never stored in a package-level variable -
unlike run.cpp's compress_manager/metrics_manager raw re-seated pointers.
*/
package pipeline

import (
	"context"

	"github.com/lanl/vizaly-density/lib/binning"
	"github.com/lanl/vizaly-density/lib/bitbudget"
	"github.com/lanl/vizaly-density/lib/bucket"
	"github.com/lanl/vizaly-density/lib/codec"
	"github.com/lanl/vizaly-density/lib/config"
	"github.com/lanl/vizaly-density/lib/density"
	"github.com/lanl/vizaly-density/lib/errs"
	"github.com/lanl/vizaly-density/lib/hacc"
	"github.com/lanl/vizaly-density/lib/logx"
	"github.com/lanl/vizaly-density/lib/mpi"
	"github.com/lanl/vizaly-density/lib/orchestrate"
	"github.com/lanl/vizaly-density/lib/particle"
	"github.com/lanl/vizaly-density/lib/report"
)

// Stage names the state machine's steps, in run order.
type Stage int

const (
	Init Stage = iota
	LoadParticles
	LoadDensity
	Bin
	AllocateBits
	IndexAndBucket
	Compress
	Write
	Done
)

func (s Stage) String() string {
	switch s {
	case Init:
		return "INIT"
	case LoadParticles:
		return "LOAD_PARTICLES"
	case LoadDensity:
		return "LOAD_DENSITY"
	case Bin:
		return "BIN"
	case AllocateBits:
		return "ALLOCATE_BITS"
	case IndexAndBucket:
		return "INDEX_AND_BUCKET"
	case Compress:
		return "COMPRESS"
	case Write:
		return "WRITE"
	case Done:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// Pipeline is constructed once per run and carries everything its stages
// need as fields rather than as package-level state.
type Pipeline struct {
	Config   *config.Config
	Comm     mpi.Comm
	Rank     int
	NbRanks  int
	Logger   *logx.Logger
	Registry *codec.Registry

	stage Stage
}

// New constructs a Pipeline ready to Run. rank/nbRanks are read once up
// front since every later stage (rank partitioning, reduce-to-root) needs
// them repeatedly.
func New(cfg *config.Config, comm mpi.Comm, logger *logx.Logger) (*Pipeline, error) {
	rank, err := comm.Rank()
	if err != nil {
		return nil, err
	}
	nbRanks, err := comm.Size()
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		Config:   cfg,
		Comm:     comm,
		Rank:     rank,
		NbRanks:  nbRanks,
		Logger:   logger,
		Registry: codec.NewRegistry(),
		stage:    Init,
	}, nil
}

// Stage reports the state machine's current stage, for diagnostics.
func (p *Pipeline) Stage() Stage { return p.stage }

// Run executes every stage in order for this rank's partition. It returns
// on the first error; main.go is responsible for rendering it fatally.
func (p *Pipeline) Run(ctx context.Context) error {
	p.stage = LoadParticles
	part, err := hacc.Load(p.Config.Hacc.Input)
	if err != nil {
		return err
	}

	p.stage = LoadDensity
	rankInputs := density.RankInputs(p.Config.Density.Inputs, p.Rank, p.NbRanks)
	rho, err := density.Load(rankInputs)
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return errs.Wrap(errs.Internal, err, nil)
	}

	p.stage = Bin
	bins, err := binning.Compute(p.Comm, rho, p.Config.Bins.Count, p.Config.Bins.Adaptive)
	if err != nil {
		return err
	}
	if p.Rank == 0 && p.Config.Plots.Density != "" {
		if err := report.WriteHistogram(p.Config.Plots.Density, bins, perBinDensity(bins, rho)); err != nil {
			return errs.Wrap(errs.IoFailed, err, nil)
		}
	}

	p.stage = AllocateBits
	bits := bitbudget.Allocate(bins.NbBins, p.Config.Bins.MinBits, p.Config.Bins.MaxBits,
		p.Config.Bins.Adaptive, bitbudget.LadderDefault)
	if p.Rank == 0 {
		if err := report.WriteBitsDistrib(bins, bits); err != nil {
			return errs.Wrap(errs.IoFailed, err, nil)
		}
	}

	p.stage = IndexAndBucket
	cellsPerAxis := p.Config.Density.CellsPerAxis()
	coordMin := part.PhysOrigin
	coordMax := [3]float64{
		part.PhysOrigin[0] + part.PhysScale[0],
		part.PhysOrigin[1] + part.PhysScale[1],
		part.PhysOrigin[2] + part.PhysScale[2],
	}
	positions := make([][3]float32, part.Len())
	for i := range positions {
		positions[i] = [3]float32{part.X[i], part.Y[i], part.Z[i]}
	}
	buckets, err := bucket.Assign(bins, rho, positions, coordMin, coordMax, cellsPerAxis)
	if err != nil {
		return err
	}
	counts, err := bucket.GlobalCounts(p.Comm, buckets, 0)
	if err != nil {
		return err
	}
	if p.Rank == 0 && p.Config.Plots.Buckets != "" {
		if err := report.WriteBucketDistrib(p.Config.Plots.Buckets, counts); err != nil {
			return errs.Wrap(errs.IoFailed, err, nil)
		}
	}

	p.stage = Compress
	statsByComponent := map[string]orchestrate.Stats{}
	for _, comp := range particle.Components {
		lossyName, losslessName := p.codecNames(comp)
		reconstructed, stats, err := orchestrate.Run(
			comp, part.Component(comp), buckets, bits, p.Registry, lossyName, losslessName)
		if err != nil {
			return err
		}
		part.SetComponent(comp, reconstructed)
		statsByComponent[comp] = stats
	}
	order := particle.OrderFromBuckets(buckets)
	part.PermuteID(order)

	for _, comp := range particle.Components {
		s := statsByComponent[comp]
		global, err := p.Comm.ReduceSumInt64Slice([]int64{s.LossyBytes, s.LosslessBytes, s.Uncompressed}, 0)
		if err != nil {
			return err
		}
		statsByComponent[comp] = orchestrate.Stats{LossyBytes: global[0], LosslessBytes: global[1], Uncompressed: global[2]}
	}

	if p.Rank == 0 {
		if err := report.WriteCompressionRatio("compression_ratio.csv", statsByComponent, particle.Components[:]); err != nil {
			return errs.Wrap(errs.IoFailed, err, nil)
		}
	}

	p.stage = Write
	if err := p.Comm.Barrier(); err != nil {
		return err
	}
	if _, err := p.Comm.CartCreate(part.RankGrid, [3]bool{false, false, false}, false); err != nil {
		return err
	}
	if err := hacc.Write(p.Config.Hacc.Output, part); err != nil {
		return err
	}

	p.stage = Done
	return nil
}

// codecNames resolves the lossy/lossless codec names for one physical
// scalar from the config's kernels list. The first kernel configured
// supplies the lossy codec; a second configured kernel (if any) supplies
// the lossless stage. The component is not consulted, so every component
// gets the same codec names.
func (p *Pipeline) codecNames(component string) (lossy, lossless string) {
	kernels := p.Config.Compress.Kernels
	if len(kernels) > 0 {
		lossy = kernels[0].Name
	}
	if len(kernels) > 1 {
		lossless = kernels[1].Name
	}
	if lossy == "" {
		lossy = "bitquant"
	}
	return lossy, lossless
}

// perBinDensity groups this rank's local density samples by bin, for the
// histogram report's supplemented mean-density column.
func perBinDensity(b *binning.Binning, rho []float32) [][]float64 {
	out := make([][]float64, b.NbBins)
	for _, v := range rho {
		fv := float64(v)
		var bin int
		if b.Adaptive {
			bin = binning.AdaptiveBucket(b.Ranges, fv)
		} else {
			bin = binning.UniformBucket(fv, b.RhoMin, b.Width, b.NbBins)
		}
		if bin < 0 || bin >= b.NbBins {
			continue
		}
		out[bin] = append(out[bin], fv)
	}
	return out
}
