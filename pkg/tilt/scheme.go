// Package tilt generates multi-axis tilt schemes. A scheme is an ordered
// list of rotation triples (degrees about x, y and z) describing the
// acquisition geometry of a tilt series.
package tilt

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Triple is one tilt stop, rotations in degrees about the sample axes.
type Triple struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

// Mode selects the scheme family.
type Mode string

const (
	// ModeX is a single tilt series about x.
	ModeX Mode = "x"
	// ModeY is a single series about the secondary axis: a beta sweep,
	// or an x sweep at fixed gamma.
	ModeY Mode = "y"
	// ModeDual splits the stops between an x series and a secondary series.
	ModeDual Mode = "dual"
	// ModeQuad splits the stops across four series.
	ModeQuad Mode = "quad"
	// ModeRand draws every stop uniformly within the tilt ranges.
	ModeRand Mode = "rand"
	// ModeSync sweeps x and the secondary axis together, then repeats the
	// sweep with the secondary sign flipped.
	ModeSync Mode = "sync"
	// ModeSingleSync is one synchronous sweep using all stops.
	ModeSingleSync Mode = "sx"
	// ModeDist distributes DistN2 secondary stops around every primary stop.
	ModeDist Mode = "dist"
)

// Secondary selects the second tilt axis for the modes that use one.
type Secondary string

const (
	// SecondaryBeta tilts about y.
	SecondaryBeta Secondary = "beta"
	// SecondaryGamma rotates about z.
	SecondaryGamma Secondary = "gamma"
)

// Params configures a scheme. Alpha, Beta and Gamma are half-ranges in
// degrees. Seed makes ModeRand reproducible.
type Params struct {
	Mode      Mode
	NTilt     int
	Alpha     float64
	Beta      float64
	Gamma     float64
	DistN2    int
	Secondary Secondary
	Seed      int64
}

// DefaultParams mirrors the common acquisition defaults.
func DefaultParams() Params {
	return Params{
		Mode:      ModeX,
		NTilt:     40,
		Alpha:     70,
		Beta:      40,
		Gamma:     180,
		DistN2:    8,
		Secondary: SecondaryGamma,
	}
}

// Generate returns the ordered tilt stops for the given parameters.
// Integer series splits use floor division throughout.
func Generate(p Params) ([]Triple, error) {
	if p.NTilt <= 0 {
		return nil, fmt.Errorf("tilt: n_tilt must be positive, got %d", p.NTilt)
	}
	if p.Mode != ModeX {
		if p.Secondary != SecondaryBeta && p.Secondary != SecondaryGamma {
			return nil, fmt.Errorf("tilt: unknown secondary axis %q", p.Secondary)
		}
	}
	switch p.Mode {
	case ModeX:
		return xSeries(p.Alpha, p.NTilt, 0, 0), nil
	case ModeY:
		return ySeries(p), nil
	case ModeDual:
		return dualSeries(p), nil
	case ModeQuad:
		return quadSeries(p), nil
	case ModeRand:
		return randSeries(p), nil
	case ModeSync:
		return syncSeries(p, p.NTilt/2, true), nil
	case ModeSingleSync:
		return syncSeries(p, p.NTilt, false), nil
	case ModeDist:
		if p.DistN2 <= 0 {
			return nil, fmt.Errorf("tilt: dist mode needs a positive secondary count, got %d", p.DistN2)
		}
		return distSeries(p), nil
	default:
		return nil, fmt.Errorf("tilt: unknown mode %q", p.Mode)
	}
}

// linspace returns n evenly spaced stops from lo to hi inclusive.
func linspace(lo, hi float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{lo}
	default:
		return floats.Span(make([]float64, n), lo, hi)
	}
}

// clampGamma caps the fixed azimuth at 90 degrees.
func clampGamma(gamma float64) float64 {
	if gamma >= 90 {
		return 90
	}
	return gamma
}

func xSeries(alpha float64, n int, ay, az float64) []Triple {
	out := make([]Triple, 0, n)
	for _, a := range linspace(-alpha, alpha, n) {
		out = append(out, Triple{X: a, Y: ay, Z: az})
	}
	return out
}

func ySeries(p Params) []Triple {
	if p.Secondary == SecondaryBeta {
		out := make([]Triple, 0, p.NTilt)
		for _, b := range linspace(-p.Beta, p.Beta, p.NTilt) {
			out = append(out, Triple{Y: b})
		}
		return out
	}
	return xSeries(p.Alpha, p.NTilt, 0, clampGamma(p.Gamma))
}

func dualSeries(p Params) []Triple {
	half := p.NTilt / 2
	out := xSeries(p.Alpha, half, 0, 0)
	if p.Secondary == SecondaryBeta {
		for _, b := range linspace(-p.Beta, p.Beta, half) {
			out = append(out, Triple{Y: b})
		}
		return out
	}
	return append(out, xSeries(p.Alpha, half, 0, clampGamma(p.Gamma))...)
}

func quadSeries(p Params) []Triple {
	quarter := p.NTilt / 4
	var out []Triple
	if p.Secondary == SecondaryBeta {
		out = xSeries(p.Alpha, quarter, 0, 0)
		for _, b := range linspace(-p.Beta, p.Beta, quarter) {
			out = append(out, Triple{Y: b})
		}
		out = append(out, xSeries(p.Alpha, quarter, p.Beta, 0)...)
		return append(out, xSeries(p.Alpha, quarter, -p.Beta, 0)...)
	}
	var azs [4]float64
	if p.Gamma >= 90 {
		azs = [4]float64{0, 90, 45, -45}
	} else {
		azs = [4]float64{p.Gamma, -p.Gamma, p.Gamma / 3, -p.Gamma / 3}
	}
	for _, az := range azs {
		out = append(out, xSeries(p.Alpha, quarter, 0, az)...)
	}
	return out
}

func randSeries(p Params) []Triple {
	rng := rand.New(rand.NewSource(p.Seed))
	out := make([]Triple, 0, p.NTilt)
	for i := 0; i < p.NTilt; i++ {
		ax := rng.Float64()*p.Alpha*2 - p.Alpha
		if p.Secondary == SecondaryBeta {
			out = append(out, Triple{X: ax, Y: rng.Float64()*p.Beta*2 - p.Beta})
		} else {
			out = append(out, Triple{X: ax, Z: rng.Float64()*p.Gamma*2 - p.Gamma})
		}
	}
	return out
}

// syncSeries sweeps x together with the secondary axis over n stops.
// With mirror set the sweep is repeated with the secondary negated.
func syncSeries(p Params, n int, mirror bool) []Triple {
	ax := linspace(-p.Alpha, p.Alpha, n)
	var sec []float64
	if p.Secondary == SecondaryBeta {
		sec = linspace(-p.Beta, p.Beta, n)
	} else {
		sec = linspace(-p.Gamma, p.Gamma, n)
	}
	out := make([]Triple, 0, 2*n)
	for i, a := range ax {
		out = append(out, syncTriple(p.Secondary, a, sec[i]))
	}
	if mirror {
		for i, a := range ax {
			out = append(out, syncTriple(p.Secondary, a, -sec[i]))
		}
	}
	return out
}

func syncTriple(sec Secondary, ax, s float64) Triple {
	if sec == SecondaryBeta {
		return Triple{X: ax, Y: s}
	}
	return Triple{X: ax, Z: s}
}

// distSeries places DistN2 secondary stops at every primary stop. The
// boundary cases keep their historical quirks: a full +-90 primary range
// uses one extra stop and runs top down, and a secondary range reaching
// 90 drops its last stop to avoid duplicating the pole.
func distSeries(p Params) []Triple {
	primary := linspace(-p.Alpha, p.Alpha, p.NTilt/p.DistN2)
	if p.Alpha == 90 {
		primary = linspace(-90, 90, p.NTilt/p.DistN2+1)
		reverse(primary)
	}
	var sec []float64
	if p.Secondary == SecondaryBeta {
		sec = linspace(-p.Beta, p.Beta, p.DistN2)
	} else if p.Gamma < 90 {
		sec = linspace(-p.Gamma, p.Gamma, p.DistN2)
	} else {
		sec = linspace(-90, 90, p.DistN2+1)
		sec = sec[:len(sec)-1]
	}
	out := make([]Triple, 0, len(primary)*len(sec))
	for _, a := range primary {
		for _, s := range sec {
			out = append(out, syncTriple(p.Secondary, a, s))
		}
	}
	return out
}

func reverse(s []float64) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
