// Package physics holds the physical constants shared by the phase
// simulation and the reconstruction pipeline.
package physics

import "math"

// Mu0 is the vacuum permeability in T m/A.
const Mu0 = 4 * math.Pi * 1e-7

// FluxQuantum is the magnetic flux quantum h/2e in Wb (CODATA).
const FluxQuantum = 2.067833848e-15

// PhaseConstant converts a projected vector potential component in T m^2
// into an electron phase shift in radians.
const PhaseConstant = -math.Pi / FluxQuantum / (2 * math.Pi)
