// Package band sweeps a Hamiltonian over a grid of momenta or model parameters,
// diagonalizes it at every sample, and collects the sorted spectrum into bands.
package band

import (
	"fmt"
	"math"
	"runtime"

	"github.com/fumin/tensor"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	tbmat "github.com/fumin/topoband/mat"
)

const (
	// edgeThreshold is the probability on the two boundary sites above which a state is edge localized.
	edgeThreshold = 0.5
)

// Hamiltonian builds the Hamiltonian at sample x, with every other parameter held fixed.
type Hamiltonian func(x float64) *mat.CDense

// Options are options for Sweep.
type Options struct {
	vectors  bool
	workers  int
	sites    int
	orbitals int
}

// NewOptions returns the default sweep options, which compute eigenvalues only on all available CPUs.
func NewOptions() Options {
	opt := Options{}
	opt.workers = runtime.GOMAXPROCS(0)
	return opt
}

// Vectors sets whether eigenvectors are returned.
func (opt Options) Vectors(v bool) Options {
	opt.vectors = v
	return opt
}

// Workers sets the number of samples diagonalized concurrently.
func (opt Options) Workers(n int) Options {
	opt.workers = max(n, 1)
	return opt
}

// EdgeSites turns on edge classification of eigenstates, for a Hamiltonian of sites with orbitals degrees of freedom each.
// Edge classification needs eigenvectors, which are then returned as well.
func (opt Options) EdgeSites(sites, orbitals int) Options {
	opt.sites, opt.orbitals = sites, orbitals
	opt.vectors = true
	return opt
}

// Bands is the spectrum of a Hamiltonian along a sweep.
type Bands struct {
	// Grid are the sample points.
	Grid []float64
	// Energies has shape (len(Grid), dim), and each row is sorted in ascending order.
	Energies *mat.Dense
	// Vectors has shape (len(Grid), dim, dim), where Vectors[i, :, n] is the eigenvector of Energies[i, n].
	// Entries are stored as complex64, so they are accurate to about 1e-7 relative to the unit norm of a vector.
	// Vectors is nil unless requested.
	Vectors *tensor.Dense
	// Edge[i][n] reports whether the eigenstate of Energies[i, n] is localized on the boundary sites.
	// Edge is nil unless requested.
	Edge [][]bool
}

type sample struct {
	vals []float64
	vecs [][]complex128
	edge []bool
}

// Sweep diagonalizes h at every point of grid, which must be strictly increasing.
func Sweep(grid []float64, h Hamiltonian, options ...Options) (*Bands, error) {
	opt := NewOptions()
	if len(options) > 0 {
		opt = options[0]
	}
	if len(grid) == 0 {
		return nil, errors.Errorf("empty grid")
	}
	for i := 1; i < len(grid); i++ {
		if !(grid[i] > grid[i-1]) {
			return nil, errors.Errorf("grid not increasing %d %f %f", i, grid[i-1], grid[i])
		}
	}

	samples := make([]sample, len(grid))
	var g errgroup.Group
	g.SetLimit(max(opt.workers, 1))
	for i, x := range grid {
		g.Go(func() error {
			s, err := solve(h(x), opt)
			if err != nil {
				return errors.Wrap(err, fmt.Sprintf("%d %f", i, x))
			}
			samples[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Wrap(err, "")
	}

	dim := len(samples[0].vals)
	for i, s := range samples {
		if len(s.vals) != dim {
			return nil, errors.Errorf("%d %d %d", i, len(s.vals), dim)
		}
	}

	b := &Bands{Grid: grid, Energies: mat.NewDense(len(grid), dim, nil)}
	for i, s := range samples {
		b.Energies.SetRow(i, s.vals)
	}
	if opt.vectors {
		b.Vectors = tensor.Zeros(len(grid), dim, dim)
		for i, s := range samples {
			for n, vec := range s.vecs {
				for r, v := range vec {
					b.Vectors.SetAt([]int{i, r, n}, complex64(v))
				}
			}
		}
	}
	if opt.sites > 0 {
		b.Edge = make([][]bool, 0, len(grid))
		for _, s := range samples {
			b.Edge = append(b.Edge, s.edge)
		}
	}
	return b, nil
}

func solve(h *mat.CDense, opt Options) (sample, error) {
	if !opt.vectors {
		vals, err := tbmat.EigenValues(h)
		if err != nil {
			return sample{}, errors.Wrap(err, "")
		}
		return sample{vals: vals}, nil
	}

	vvs, err := tbmat.Eigen(h)
	if err != nil {
		return sample{}, errors.Wrap(err, "")
	}
	s := sample{vals: make([]float64, 0, len(vvs)), vecs: make([][]complex128, 0, len(vvs))}
	for _, vv := range vvs {
		s.vals = append(s.vals, vv.Val)
		s.vecs = append(s.vecs, vv.Vec)
	}

	if opt.sites > 0 {
		if opt.sites*opt.orbitals != len(vvs) {
			return sample{}, errors.Errorf("%d sites of %d orbitals for dimension %d", opt.sites, opt.orbitals, len(vvs))
		}
		s.edge = make([]bool, 0, len(vvs))
		for _, vec := range s.vecs {
			s.edge = append(s.edge, IsEdge(vec, opt.sites, opt.orbitals))
		}
	}
	return s, nil
}

// EdgeWeight returns the probability of vec on the first and last of its sites,
// where vec is laid out site by site with orbitals components each.
// A single site is counted once.
func EdgeWeight(vec []complex128, sites, orbitals int) float64 {
	if sites*orbitals != len(vec) {
		panic(fmt.Sprintf("%d %d %d", sites, orbitals, len(vec)))
	}
	prob := func(site int) float64 {
		var p float64
		for _, v := range vec[site*orbitals : (site+1)*orbitals] {
			p += real(v)*real(v) + imag(v)*imag(v)
		}
		return p
	}

	w := prob(0)
	if sites > 1 {
		w += prob(sites - 1)
	}
	return w
}

// IsEdge reports whether vec is localized on the boundary sites.
func IsEdge(vec []complex128, sites, orbitals int) bool {
	return EdgeWeight(vec, sites, orbitals) > edgeThreshold
}

// Samples returns the number of samples.
func (b *Bands) Samples() int {
	r, _ := b.Energies.Dims()
	return r
}

// Dim returns the number of bands.
func (b *Bands) Dim() int {
	_, c := b.Energies.Dims()
	return c
}

// At returns the spectrum at sample i.
func (b *Bands) At(i int) []float64 {
	return mat.Row(nil, i, b.Energies)
}

// Band returns the n-th lowest energy at every sample.
func (b *Bands) Band(n int) []float64 {
	return mat.Col(nil, n, b.Energies)
}

// Vector returns the eigenvector of Energies[i, n] in single precision.
func (b *Bands) Vector(i, n int) []complex64 {
	if b.Vectors == nil {
		panic("no eigenvectors")
	}
	dim := b.Dim()
	vec := make([]complex64, 0, dim)
	for r := range dim {
		vec = append(vec, b.Vectors.At(i, r, n))
	}
	return vec
}

// Bounds returns the lowest and highest energy of all bands.
func (b *Bands) Bounds() (float64, float64) {
	return mat.Min(b.Energies), mat.Max(b.Energies)
}

// EdgeFraction returns the fraction of eigenstates that are edge localized.
func (b *Bands) EdgeFraction() float64 {
	if b.Edge == nil {
		return math.NaN()
	}
	xs := make([]float64, 0, b.Samples()*b.Dim())
	for _, row := range b.Edge {
		for _, e := range row {
			var x float64
			if e {
				x = 1
			}
			xs = append(xs, x)
		}
	}
	return stat.Mean(xs, nil)
}

// Linspace returns n evenly spaced points from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	switch {
	case n < 1:
		panic(fmt.Sprintf("%d", n))
	case n == 1:
		return []float64{lo}
	}
	return floats.Span(make([]float64, n), lo, hi)
}

// Momenta returns n evenly spaced momenta over the Brillouin zone [-π, π].
func Momenta(n int) []float64 {
	return Linspace(-math.Pi, math.Pi, n)
}
