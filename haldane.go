package topoband

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/fumin/topoband/band"
	tbmat "github.com/fumin/topoband/mat"
)

const (
	sublatticeA = 0
	sublatticeB = 1
)

// Haldane is the Haldane model on a honeycomb ribbon that is open along x and periodic along y.
// Orbital 2x+s is sublattice s of unit cell x.
type Haldane struct {
	// T1 is the nearest neighbour hopping.
	T1 float64 `yaml:"t1"`
	// T2 is the next nearest neighbour hopping, which carries the phase Phi.
	T2  float64 `yaml:"t2"`
	Phi float64 `yaml:"phi"`
	// T0 is the sublattice potential, +T0/2 on A and -T0/2 on B.
	T0 float64 `yaml:"t0"`
	Nx int     `yaml:"nx"`
}

func DefaultHaldane() Haldane {
	return Haldane{T1: 1, T2: 0.3, Phi: math.Pi / 2, T0: 0.2, Nx: 40}
}

func (p Haldane) Validate() error {
	if p.Nx < 1 {
		return errors.Errorf("nx %d", p.Nx)
	}
	return nil
}

func (p Haldane) Dim() int {
	return 2 * p.Nx
}

// Hamiltonian returns the ribbon Hamiltonian at momentum ky.
func (p Haldane) Hamiltonian(ky float64) *mat.CDense {
	mustValid(p.Validate())

	index := func(x, sublattice int) int {
		return 2*x + sublattice
	}
	t1 := complex(-p.T1, 0)
	nnn := complex(-p.T2, 0) * cmplx.Exp(complex(0, p.Phi))

	h := tbmat.Zeros(p.Dim(), p.Dim())
	for x := range p.Nx {
		a, b := index(x, sublatticeA), index(x, sublatticeB)

		tbmat.AddAt(h, a, a, complex(p.T0/2, 0))
		tbmat.AddAt(h, b, b, complex(-p.T0/2, 0))

		tbmat.AddHoppingAt(h, a, b, t1)
		if x > 0 {
			prevB := index(x-1, sublatticeB)
			tbmat.AddHoppingAt(h, a, prevB, t1*cmplx.Exp(complex(0, -ky)))
			tbmat.AddHoppingAt(h, a, prevB, t1)
		}

		// Next nearest neighbours are reached from both cells, and so each bond is counted twice.
		if x < p.Nx-1 {
			tbmat.AddHoppingAt(h, a, index(x+1, sublatticeA), nnn)
			tbmat.AddHoppingAt(h, b, index(x+1, sublatticeB), nnn)
		}
		if x > 0 {
			tbmat.AddHoppingAt(h, a, index(x-1, sublatticeA), cmplx.Conj(nnn))
			tbmat.AddHoppingAt(h, b, index(x-1, sublatticeB), cmplx.Conj(nnn))
		}
	}
	return h
}

// Bands returns the band structure over samples momenta ky in [-π, π].
func (p Haldane) Bands(samples int, options ...band.Options) (*band.Bands, error) {
	if err := p.Validate(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	grid, err := momenta(samples)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	b, err := band.Sweep(grid, p.Hamiltonian, sweepOptions(options))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return b, nil
}

// SweepAxis returns the spectrum at momentum ky as the parameter axis runs over grid.
func (p Haldane) SweepAxis(axis Axis, grid []float64, ky float64, options ...band.Options) (*band.Bands, error) {
	if err := p.Validate(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	h := func(v float64) *mat.CDense {
		return axis.Set(p, v).Hamiltonian(ky)
	}
	b, err := band.Sweep(grid, h, sweepOptions(options))
	if err != nil {
		return nil, errors.Wrap(err, axis.String())
	}
	return b, nil
}

// Axis is a parameter of the Haldane model that can be swept.
type Axis int

const (
	AxisT0 Axis = iota
	AxisT1
	AxisT2
	AxisPhi
)

var axisNames = [...]string{"t0", "t1", "t2", "phi"}

func (a Axis) String() string {
	if a < AxisT0 || a > AxisPhi {
		return fmt.Sprintf("Axis(%d)", int(a))
	}
	return axisNames[a]
}

// Set returns p with the parameter a set to v.
func (a Axis) Set(p Haldane, v float64) Haldane {
	switch a {
	case AxisT0:
		p.T0 = v
	case AxisT1:
		p.T1 = v
	case AxisT2:
		p.T2 = v
	case AxisPhi:
		p.Phi = v
	default:
		panic(a.String())
	}
	return p
}

// Grid returns the default sweep range of a.
func (a Axis) Grid() []float64 {
	switch a {
	case AxisT0:
		return band.Linspace(0, 1, 50)
	case AxisT1:
		return band.Linspace(0, 2, 50)
	case AxisT2:
		return band.Linspace(0, 0.6, 50)
	case AxisPhi:
		return band.Linspace(0, 2*math.Pi, 60)
	}
	panic(a.String())
}

func ParseAxis(s string) (Axis, error) {
	for i, name := range axisNames {
		if s == name {
			return Axis(i), nil
		}
	}
	return 0, errors.Errorf("unknown axis %q", s)
}

func (a Axis) MarshalText() ([]byte, error) {
	if a < AxisT0 || a > AxisPhi {
		return nil, errors.Errorf("%d", int(a))
	}
	return []byte(a.String()), nil
}

func (a *Axis) UnmarshalText(b []byte) error {
	parsed, err := ParseAxis(string(b))
	if err != nil {
		return errors.Wrap(err, "")
	}
	*a = parsed
	return nil
}
