// Package errs defines the typed error kinds propagated out of the density
// pipeline. Every kind here is fatal: nothing in lib/ recovers from one
// locally, it is always passed up to main for rank-abort handling.
package errs

import "fmt"

// Kind identifies which of the pipeline's fatal error categories an Error
// belongs to.
type Kind int

const (
	// ConfigInvalid marks a missing required key, an out-of-range value, or
	// a rank/partition count mismatch in the configuration file.
	ConfigInvalid Kind = iota
	// IoFailed marks a missing file, a short read, or a permission error.
	IoFailed
	// InvalidRange marks degenerate global density extents (rho_max <= rho_min).
	InvalidRange
	// OutOfDomain marks a particle position outside the declared cell extents.
	OutOfDomain
	// CodecFailed marks a codec that returned zero bytes or a mis-sized
	// decompression.
	CodecFailed
	// Internal marks a breached invariant: out-of-range bin/cell index,
	// bucket overflow, or any other assertion the caller could not have
	// fixed through configuration.
	Internal
)

func (k Kind) String() string {
	switch k {
	case ConfigInvalid:
		return "ConfigInvalid"
	case IoFailed:
		return "IoFailed"
	case InvalidRange:
		return "InvalidRange"
	case OutOfDomain:
		return "OutOfDomain"
	case CodecFailed:
		return "CodecFailed"
	case Internal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Error is the structured error value every pipeline stage returns on
// failure. Fields carries offending keys/indices for the rank-local log,
// matching spec.md's "rank, kind, offending key or index" requirement.
type Error struct {
	Kind    Kind
	Message string
	Fields  map[string]interface{}
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s %v", e.Kind, e.Message, e.Fields)
}

// New builds an *Error of the given kind with an optional field set. fields
// may be nil.
func New(kind Kind, fields map[string]interface{}, format string, a ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, a...),
		Fields:  fields,
	}
}

// Wrap attaches a Kind to an existing error, used at I/O boundaries where a
// stdlib error (os.Open, io.ReadFull, ...) needs a structured kind before
// propagating further up the pipeline.
func Wrap(kind Kind, err error, fields map[string]interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: err.Error(), Fields: fields}
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
