package topoband

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/fumin/topoband/band"
	tbmat "github.com/fumin/topoband/mat"
)

// bhzOrbitals is the number of degrees of freedom per site, spin times orbital.
const bhzOrbitals = 4

// Generator selects the orbital matrix of the spin mixing term of the BHZ model.
type Generator int

const (
	Tau0 Generator = iota
	TauX
	TauY
	TauZ
)

var generatorNames = [...]string{"tau_0", "tau_x", "tau_y", "tau_z"}

func (g Generator) String() string {
	if g < Tau0 || g > TauZ {
		return fmt.Sprintf("Generator(%d)", int(g))
	}
	return generatorNames[g]
}

// Matrix returns the 2x2 matrix of g.
func (g Generator) Matrix() *mat.CDense {
	switch g {
	case Tau0:
		return tbmat.Pauli0
	case TauX:
		return tbmat.PauliX
	case TauY:
		return tbmat.PauliY
	case TauZ:
		return tbmat.PauliZ
	}
	panic(g.String())
}

// ParseGenerator parses the names "tau_0", "tau_x", "tau_y" and "tau_z".
func ParseGenerator(s string) (Generator, error) {
	for i, name := range generatorNames {
		if s == name {
			return Generator(i), nil
		}
	}
	return 0, errors.Errorf("unknown generator %q", s)
}

func (g Generator) MarshalText() ([]byte, error) {
	if g < Tau0 || g > TauZ {
		return nil, errors.Errorf("%d", int(g))
	}
	return []byte(g.String()), nil
}

func (g *Generator) UnmarshalText(b []byte) error {
	parsed, err := ParseGenerator(string(b))
	if err != nil {
		return errors.Wrap(err, "")
	}
	*g = parsed
	return nil
}

// BHZ is the Bernevig-Hughes-Zhang model on a strip that is open along y and periodic along x.
// The basis at each site is spin ⊗ orbital.
type BHZ struct {
	// C is the strength of the spin mixing term σx ⊗ C·Generator.
	C         float64   `yaml:"c"`
	T0        float64   `yaml:"t0"`
	Generator Generator `yaml:"generator"`
	Sites     int       `yaml:"sites"`
}

// DefaultBHZ returns a strip in the topological phase with a weak τz spin mixing.
func DefaultBHZ() BHZ {
	return BHZ{C: 0.5, T0: -1.2, Generator: TauZ, Sites: 10}
}

func (p BHZ) Validate() error {
	if p.Sites < 1 {
		return errors.Errorf("sites %d", p.Sites)
	}
	if p.Generator < Tau0 || p.Generator > TauZ {
		return errors.Errorf("generator %d", int(p.Generator))
	}
	return nil
}

// Dim returns the dimension of the Hamiltonian.
func (p BHZ) Dim() int {
	return bhzOrbitals * p.Sites
}

// Hamiltonian returns the strip Hamiltonian at momentum kx.
func (p BHZ) Hamiltonian(kx float64) *mat.CDense {
	mustValid(p.Validate())

	onsite := tbmat.Add(
		tbmat.Kron(tbmat.Pauli0, tbmat.Scale(complex(p.T0+math.Cos(kx), 0), tbmat.PauliZ)),
		tbmat.Kron(tbmat.PauliZ, tbmat.Scale(complex(math.Sin(kx), 0), tbmat.PauliX)),
		tbmat.Kron(tbmat.PauliX, tbmat.Scale(complex(p.C, 0), p.Generator.Matrix())),
		// Mass shift from the hopping along y.
		tbmat.Kron(tbmat.Pauli0, tbmat.PauliZ),
	)
	hopY := tbmat.Kron(tbmat.Pauli0, tbmat.Add(tbmat.Scale(0.5, tbmat.PauliZ), tbmat.Scale(-0.5i, tbmat.PauliY)))

	h := tbmat.Zeros(p.Dim(), p.Dim())
	for i := range p.Sites {
		tbmat.SetBlock(h, i, i, onsite)
		if i < p.Sites-1 {
			tbmat.AddHopping(h, i, i+1, hopY)
		}
	}
	return h
}

// Bands returns the band structure over samples momenta kx in [-π, π],
// together with eigenvectors and edge flags.
func (p BHZ) Bands(samples int, options ...band.Options) (*band.Bands, error) {
	if err := p.Validate(); err != nil {
		return nil, errors.Wrap(err, "")
	}
	grid, err := momenta(samples)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	opt := sweepOptions(options).EdgeSites(p.Sites, bhzOrbitals)
	b, err := band.Sweep(grid, p.Hamiltonian, opt)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	return b, nil
}
