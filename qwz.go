package topoband

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/fumin/topoband/band"
	tbmat "github.com/fumin/topoband/mat"
)

// QWZRibbon is the Qi-Wu-Zhang model on a ribbon that is open along x and periodic along y.
// The first and last sites carry extra boundary potentials.
type QWZRibbon struct {
	Nx int     `yaml:"nx"`
	T0 float64 `yaml:"t0"`
	// Mu1 and MuN are the on-site potentials of the first and last site.
	Mu1 float64 `yaml:"mu1"`
	MuN float64 `yaml:"mun"`
	// H21 and H2N are the amplitudes of the cos(2ky) potentials of the first and last site.
	H21 float64 `yaml:"h2_1"`
	H2N float64 `yaml:"h2_n"`
}

func DefaultQWZRibbon() QWZRibbon {
	return QWZRibbon{Nx: 20, T0: 1}
}

func (p QWZRibbon) Validate() error {
	if p.Nx < 1 {
		return errors.Errorf("nx %d", p.Nx)
	}
	return nil
}

func (p QWZRibbon) Dim() int {
	return 2 * p.Nx
}

// Hamiltonian returns the ribbon Hamiltonian at momentum ky.
func (p QWZRibbon) Hamiltonian(ky float64) *mat.CDense {
	mustValid(p.Validate())

	hopX := tbmat.Scale(0.5, tbmat.Add(tbmat.PauliZ, tbmat.Scale(1i, tbmat.PauliX)))
	onsite := tbmat.Add(
		tbmat.Scale(complex(math.Cos(ky), 0), tbmat.PauliZ),
		tbmat.Scale(complex(math.Sin(ky), 0), tbmat.PauliY),
		tbmat.Scale(complex(p.T0, 0), tbmat.PauliZ),
	)

	h := tbmat.Zeros(p.Dim(), p.Dim())
	for x := range p.Nx {
		tbmat.AddBlock(h, x, x, onsite)
		if x < p.Nx-1 {
			tbmat.AddHopping(h, x, x+1, hopX)
		}
	}

	// With a single site, both boundaries act on it.
	left := p.Mu1 + p.H21*math.Cos(2*ky)
	tbmat.AddBlock(h, 0, 0, tbmat.Scale(complex(left, 0), tbmat.Pauli0))
	right := p.MuN + p.H2N*math.Cos(2*ky)
	tbmat.AddBlock(h, p.Nx-1, p.Nx-1, tbmat.Scale(complex(right, 0), tbmat.Pauli0))
	return h
}

// Bands returns the band structure over samples momenta ky in [-π, π].
func (p QWZRibbon) Bands(samples int, options ...band.Options) (*band.Bands, error) {
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

// QWZMultilayer is a stack of Qi-Wu-Zhang layers, each coupled to its neighbours by C times the identity.
// Bands are computed along ky at the fixed momentum Kx.
type QWZMultilayer struct {
	Layers int     `yaml:"layers"`
	C      float64 `yaml:"c"`
	T0     float64 `yaml:"t0"`
	Kx     float64 `yaml:"kx"`
}

func DefaultQWZMultilayer() QWZMultilayer {
	return QWZMultilayer{Layers: 3, C: 0.5, T0: 1}
}

func (p QWZMultilayer) Validate() error {
	if p.Layers < 1 {
		return errors.Errorf("layers %d", p.Layers)
	}
	return nil
}

func (p QWZMultilayer) Dim() int {
	return 2 * p.Layers
}

// Layer returns the Bloch Hamiltonian of a single layer.
func (p QWZMultilayer) Layer(kx, ky float64) *mat.CDense {
	return tbmat.Add(
		tbmat.Scale(complex(math.Cos(kx), 0), tbmat.PauliX),
		tbmat.Scale(complex(math.Cos(ky), 0), tbmat.PauliY),
		tbmat.Scale(complex(p.T0+math.Cos(kx)+math.Cos(ky), 0), tbmat.PauliZ),
	)
}

// Hamiltonian returns the stack Hamiltonian at momenta (Kx, ky).
func (p QWZMultilayer) Hamiltonian(ky float64) *mat.CDense {
	mustValid(p.Validate())

	layer := p.Layer(p.Kx, ky)
	coupling := tbmat.Scale(complex(p.C, 0), tbmat.Pauli0)

	h := tbmat.Zeros(p.Dim(), p.Dim())
	for d := range p.Layers {
		tbmat.SetBlock(h, d, d, layer)
		if d < p.Layers-1 {
			tbmat.AddHopping(h, d, d+1, coupling)
		}
	}
	return h
}

// Bands returns the band structure over samples momenta ky in [-π, π].
func (p QWZMultilayer) Bands(samples int, options ...band.Options) (*band.Bands, error) {
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
