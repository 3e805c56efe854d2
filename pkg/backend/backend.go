// Package backend defines the reconstruction backend contract and a CPU
// parallel-beam reference implementation.
//
// A backend exposes two operations over a tilt geometry described by
// projection descriptors: forward projection of a volume into a stack and
// tomographic reconstruction of a stack into a volume. Both run inside a
// session that owns the scratch resources of one run; callers must
// acquire a session, run, copy what they need and release it.
//
// Stacks follow the (row, tiltIndex, col) axis order. Detector pixel
// (row, col) samples the line d + (col-c)*u + (c-row)*v + s*ray with
// c = (n-1)/2, the orientation produced by the phase simulator.
package backend

import (
	"context"
	"errors"

	"magtomo/internal/models"
	"magtomo/pkg/projection"
)

// Algorithm names accepted by Reconstruct.
const (
	AlgorithmSIRT = "SIRT3D"
	AlgorithmCGLS = "CGLS3D"
	AlgorithmBP   = "BP3D"
)

// ErrSessionReleased is returned when a session is used after Release.
var ErrSessionReleased = errors.New("backend: session already released")

// Options selects the reconstruction algorithm and its controls.
// RegularizationWeight is the Tikhonov weight of CGLS3D and is ignored by
// the other algorithms.
type Options struct {
	Algorithm            string
	Iterations           int
	RegularizationWeight float64
}

// Backend creates sessions.
type Backend interface {
	Acquire(ctx context.Context) (Session, error)
}

// Session runs projection operations until released. Release is
// idempotent; every other method fails after it.
type Session interface {
	ForwardProject(ctx context.Context, vol *models.Volume, vectors []projection.Vector) (*models.ProjectionStack, error)
	Reconstruct(ctx context.Context, stack *models.ProjectionStack, vectors []projection.Vector, opts Options) (*models.Volume, error)
	Release() error
}
