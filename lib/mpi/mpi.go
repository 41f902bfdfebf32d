// This header is almost the same as the one used by
// github.com/marcusthierfelder/mpi, with the same changes guppy's own
// lib/mpi/mpi.go made to compilation and a few calling conventions. I'd
// import that package like normal, but those changes impact the underlying
// type system and compilation instructions, so that's not possible. As
// such, here is the license it was distributed under:
//
// Copyright (c) 2017 Marcus Thierfelder
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package mpi wraps the collective primitives the density pipeline needs:
// all-reduce, reduce-to-root, barrier, and Cartesian communicator creation.
// Unlike guppy's lib/mpi/mpi.go (a point-to-point/scatter-flavored demo
// living in package main), this is a real library built around a Comm
// value, and the call surface is narrowed to exactly the collectives
// spec.md section 5 requires - the core never redistributes particles
// across ranks, only reduces scalars and small arrays.
//
// NOTE: Use
// $ mpicc --showme:compile
// $ mpicc --showme:link
// to figure out CFLAGS and LDFLAGS, respectively, for the local MPI
// installation.
package mpi

/*
#cgo LDFLAGS: -pthread -L/usr/lib/x86_64-linux-gnu/openmpi/lib -lmpi
#cgo CFLAGS: -std=gnu99 -Wall -I/usr/lib/x86_64-linux-gnu/openmpi/include/openmpi -I/usr/lib/x86_64-linux-gnu/openmpi/include -pthread
#include <mpi.h>
#include <stdlib.h>

MPI_Comm get_MPI_COMM_WORLD() {
    return (MPI_Comm)(MPI_COMM_WORLD);
}

MPI_Datatype get_MPI_Datatype(int i) {
    switch(i) {
    case 0: return (MPI_Datatype)MPI_INT;
    case 1: return (MPI_Datatype)MPI_LONG_LONG;
    case 2: return (MPI_Datatype)MPI_FLOAT;
    case 3: return (MPI_Datatype)MPI_DOUBLE;
    }
    return NULL;
}

MPI_Op get_MPI_Op(int i) {
    switch(i) {
    case 0: return MPI_SUM;
    case 1: return MPI_MIN;
    case 2: return MPI_MAX;
    }
    return NULL;
}
*/
import "C"

import (
	"unsafe"

	"github.com/lanl/vizaly-density/lib/errs"
)

var (
	int64Type   C.MPI_Datatype = C.get_MPI_Datatype(1)
	float64Type C.MPI_Datatype = C.get_MPI_Datatype(3)

	sumOp C.MPI_Op = C.get_MPI_Op(0)
	minOp C.MPI_Op = C.get_MPI_Op(1)
	maxOp C.MPI_Op = C.get_MPI_Op(2)
)

// Init initializes the MPI runtime. It must be called exactly once, before
// any Comm is used.
func Init() error {
	return processError(C.MPI_Init(nil, nil))
}

// Finalize shuts down the MPI runtime. It must be called exactly once,
// after every Comm has gone out of use.
func Finalize() error {
	return processError(C.MPI_Finalize())
}

func processError(err C.int) error {
	if err == 0 {
		return nil
	}
	buf := make([]C.char, C.MPI_MAX_ERROR_STRING)
	n := C.int(0)
	C.MPI_Error_string(err, &buf[0], &n)
	return errs.New(errs.Internal, nil, "mpi: %s", C.GoString(&buf[0]))
}

// Comm is a thin handle around an MPI communicator.
type Comm struct {
	raw C.MPI_Comm
}

// World returns the global communicator (MPI_COMM_WORLD).
func World() Comm {
	return Comm{C.get_MPI_COMM_WORLD()}
}

// Rank returns this process's rank within comm.
func (c Comm) Rank() (int, error) {
	n := C.int(-1)
	if err := processError(C.MPI_Comm_rank(c.raw, &n)); err != nil {
		return 0, err
	}
	return int(n), nil
}

// Size returns the number of ranks sharing comm.
func (c Comm) Size() (int, error) {
	n := C.int(-1)
	if err := processError(C.MPI_Comm_size(c.raw, &n)); err != nil {
		return 0, err
	}
	return int(n), nil
}

// Barrier blocks until every rank sharing comm has called Barrier.
func (c Comm) Barrier() error {
	return processError(C.MPI_Barrier(c.raw))
}

// Abort aborts every rank sharing comm with the given exit code. Per
// spec.md section 7, this is how a fatal error on one rank is propagated
// to peers: a single-rank abort brings the whole communicator down.
func (c Comm) Abort(code int) error {
	return processError(C.MPI_Abort(c.raw, C.int(code)))
}

// AllReduceSumInt64 sums one int64 across all ranks and returns the total
// to every rank.
func (c Comm) AllReduceSumInt64(v int64) (int64, error) {
	send, recv := C.int64_t(v), C.int64_t(0)
	err := C.MPI_Allreduce(unsafe.Pointer(&send), unsafe.Pointer(&recv),
		1, int64Type, sumOp, c.raw)
	return int64(recv), processError(err)
}

// AllReduceMinFloat64 takes the minimum of one float64 across all ranks
// and returns it to every rank.
func (c Comm) AllReduceMinFloat64(v float64) (float64, error) {
	send, recv := C.double(v), C.double(0)
	err := C.MPI_Allreduce(unsafe.Pointer(&send), unsafe.Pointer(&recv),
		1, float64Type, minOp, c.raw)
	return float64(recv), processError(err)
}

// AllReduceMaxFloat64 takes the maximum of one float64 across all ranks
// and returns it to every rank.
func (c Comm) AllReduceMaxFloat64(v float64) (float64, error) {
	send, recv := C.double(v), C.double(0)
	err := C.MPI_Allreduce(unsafe.Pointer(&send), unsafe.Pointer(&recv),
		1, float64Type, maxOp, c.raw)
	return float64(recv), processError(err)
}

// AllReduceSumInt64Slice sums each element of v across all ranks
// elementwise, used for summing local histograms into a global one.
func (c Comm) AllReduceSumInt64Slice(v []int64) ([]int64, error) {
	if len(v) == 0 {
		return nil, nil
	}
	cSend := make([]C.int64_t, len(v))
	for i, x := range v {
		cSend[i] = C.int64_t(x)
	}
	cRecv := make([]C.int64_t, len(v))
	err := C.MPI_Allreduce(unsafe.Pointer(&cSend[0]), unsafe.Pointer(&cRecv[0]),
		C.int(len(v)), int64Type, sumOp, c.raw)
	recv := make([]int64, len(v))
	for i := range recv {
		recv[i] = int64(cRecv[i])
	}
	return recv, processError(err)
}

// ReduceSumInt64 sums one int64 across all ranks, with the total only
// meaningful on the root rank (every other rank gets zero).
func (c Comm) ReduceSumInt64(v int64, root int) (int64, error) {
	send, recv := C.int64_t(v), C.int64_t(0)
	err := C.MPI_Reduce(unsafe.Pointer(&send), unsafe.Pointer(&recv),
		1, int64Type, sumOp, C.int(root), c.raw)
	return int64(recv), processError(err)
}

// ReduceSumInt64Slice sums v elementwise across all ranks, with the
// result only meaningful on root. Used for the per-bin global bucket
// count table (C7's reduce-to-root).
func (c Comm) ReduceSumInt64Slice(v []int64, root int) ([]int64, error) {
	if len(v) == 0 {
		return nil, nil
	}
	cSend := make([]C.int64_t, len(v))
	for i, x := range v {
		cSend[i] = C.int64_t(x)
	}
	cRecv := make([]C.int64_t, len(v))
	err := C.MPI_Reduce(unsafe.Pointer(&cSend[0]), unsafe.Pointer(&cRecv[0]),
		C.int(len(v)), int64Type, sumOp, C.int(root), c.raw)
	recv := make([]int64, len(v))
	for i := range recv {
		recv[i] = int64(cRecv[i])
	}
	return recv, processError(err)
}

// CartCreate builds a new Cartesian communicator over comm with the given
// per-dimension extents. periods marks which dimensions wrap around;
// reorder allows MPI to renumber ranks for topology locality. Used by
// C10's partition writer to rebuild the rank-grid decomposition before
// committing the output file.
func (c Comm) CartCreate(dims [3]int, periods [3]bool, reorder bool) (Comm, error) {
	cDims := [3]C.int{C.int(dims[0]), C.int(dims[1]), C.int(dims[2])}
	cPeriods := [3]C.int{0, 0, 0}
	for i, p := range periods {
		if p {
			cPeriods[i] = 1
		}
	}
	cReorder := C.int(0)
	if reorder {
		cReorder = 1
	}

	var cartComm C.MPI_Comm
	err := C.MPI_Cart_create(c.raw, 3, &cDims[0], &cPeriods[0], cReorder, &cartComm)
	return Comm{cartComm}, processError(err)
}
