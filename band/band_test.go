package band

import (
	"flag"
	"fmt"
	"log"
	"math"
	"math/cmplx"
	"slices"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	tbmat "github.com/fumin/topoband/mat"
)

func TestLinspace(t *testing.T) {
	t.Parallel()
	tests := []struct {
		lo, hi float64
		n      int
		xs     []float64
	}{
		{lo: 0, hi: 1, n: 5, xs: []float64{0, 0.25, 0.5, 0.75, 1}},
		{lo: -1, hi: 1, n: 2, xs: []float64{-1, 1}},
		{lo: 3, hi: 7, n: 1, xs: []float64{3}},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%f %f %d", test.lo, test.hi, test.n), func(t *testing.T) {
			t.Parallel()
			xs := Linspace(test.lo, test.hi, test.n)
			if !floats.EqualApprox(xs, test.xs, 1e-15) {
				t.Fatalf("%v, expected %v", xs, test.xs)
			}
		})
	}

	ks := Momenta(201)
	if ks[0] != -math.Pi || math.Abs(ks[200]-math.Pi) > 1e-14 || math.Abs(ks[100]) > 1e-14 {
		t.Fatalf("%f %f %f", ks[0], ks[100], ks[200])
	}
}

// chain is a two band model with energies ±sqrt(m^2 + 2 + 2cos(k)) at every k.
func chain(m float64) Hamiltonian {
	return func(k float64) *mat.CDense {
		return tbmat.Add(
			tbmat.Scale(complex(m, 0), tbmat.PauliZ),
			tbmat.Scale(complex(1+math.Cos(k), 0), tbmat.PauliX),
			tbmat.Scale(complex(math.Sin(k), 0), tbmat.PauliY),
		)
	}
}

func TestSweep(t *testing.T) {
	t.Parallel()
	tests := []struct {
		m       float64
		workers int
		vectors bool
	}{
		{m: 0.5, workers: 1, vectors: false},
		{m: 0.5, workers: 4, vectors: true},
		{m: -2, workers: 3, vectors: true},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%f %d %t", test.m, test.workers, test.vectors), func(t *testing.T) {
			t.Parallel()
			h := chain(test.m)
			grid := Momenta(51)
			b, err := Sweep(grid, h, NewOptions().Workers(test.workers).Vectors(test.vectors))
			if err != nil {
				t.Fatalf("%+v", err)
			}
			if b.Samples() != len(grid) || b.Dim() != 2 {
				t.Fatalf("%d %d", b.Samples(), b.Dim())
			}
			if (b.Vectors != nil) != test.vectors {
				t.Fatalf("%v", b.Vectors)
			}
			if b.Edge != nil {
				t.Fatalf("%v", b.Edge)
			}

			for i, k := range grid {
				e := math.Sqrt(test.m*test.m + 2 + 2*math.Cos(k))
				if vals := b.At(i); !floats.EqualApprox(vals, []float64{-e, e}, 1e-10) {
					t.Fatalf("%d %v, expected %f", i, vals, e)
				}
				if !test.vectors {
					continue
				}

				// Check h v = λ v for the complex64 eigenvectors.
				hk := h(k)
				for n := range b.Dim() {
					vec := b.Vector(i, n)
					var norm float64
					for _, v := range vec {
						norm += real(complex128(v) * cmplx.Conj(complex128(v)))
					}
					if math.Abs(norm-1) > 1e-6 {
						t.Fatalf("%d %d %f", i, n, norm)
					}
					for r := range b.Dim() {
						var hv complex128
						for c, v := range vec {
							hv += hk.At(r, c) * complex128(v)
						}
						if cmplx.Abs(hv-complex(b.Energies.At(i, n), 0)*complex128(vec[r])) > 1e-5 {
							t.Fatalf("%d %d %d %v", i, n, r, hv)
						}
					}
				}
			}
			if shape := b.Vectors; test.vectors && !slices.Equal(shape.Shape(), []int{len(grid), 2, 2}) {
				t.Fatalf("%v", shape.Shape())
			}
		})
	}
}

func TestSweepOrder(t *testing.T) {
	t.Parallel()
	grid := Linspace(-3, 3, 97)
	h := func(x float64) *mat.CDense {
		return tbmat.Scale(complex(x, 0), tbmat.PauliZ)
	}
	serial, err := Sweep(grid, h, NewOptions().Workers(1))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	parallel, err := Sweep(grid, h, NewOptions().Workers(8))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !mat.Equal(serial.Energies, parallel.Energies) {
		t.Fatalf("%v\n%v", mat.Formatted(serial.Energies), mat.Formatted(parallel.Energies))
	}
	for i, x := range grid {
		if lo := parallel.Energies.At(i, 0); math.Abs(lo+math.Abs(x)) > 1e-12 {
			t.Fatalf("%d %f %f", i, x, lo)
		}
	}

	lo, hi := parallel.Bounds()
	if math.Abs(lo+3) > 1e-12 || math.Abs(hi-3) > 1e-12 {
		t.Fatalf("%f %f", lo, hi)
	}
	if band := parallel.Band(1); math.Abs(band[0]-3) > 1e-12 || math.Abs(band[48]) > 1e-12 {
		t.Fatalf("%v", band)
	}
}

func TestSweepErrors(t *testing.T) {
	t.Parallel()
	if _, err := Sweep(nil, chain(1)); err == nil {
		t.Fatalf("expected error for empty grid")
	}

	// The dimension must not change along the sweep.
	grow := func(x float64) *mat.CDense {
		return tbmat.Identity(1 + int(x))
	}
	if _, err := Sweep([]float64{0, 1, 2}, grow); err == nil {
		t.Fatalf("expected error for changing dimension")
	}

	if _, err := Sweep([]float64{0}, chain(1), NewOptions().EdgeSites(3, 1)); err == nil {
		t.Fatalf("expected error for wrong edge sites")
	}

	for _, grid := range [][]float64{{0, 2, 1}, {1, 1}, {0, math.NaN()}, {1, 0}} {
		if _, err := Sweep(grid, chain(1)); err == nil {
			t.Fatalf("expected error for grid %v", grid)
		}
	}
}

func TestEdge(t *testing.T) {
	t.Parallel()
	s := complex(1/math.Sqrt(2), 0)
	tests := []struct {
		vec      []complex128
		sites    int
		orbitals int
		weight   float64
		edge     bool
	}{
		{vec: []complex128{1, 0, 0, 0, 0, 0}, sites: 3, orbitals: 2, weight: 1, edge: true},
		{vec: []complex128{0, 0, s, s * 1i, 0, 0}, sites: 3, orbitals: 2, weight: 0, edge: false},
		{vec: []complex128{s, 0, 0, 0, 0, s}, sites: 3, orbitals: 2, weight: 1, edge: true},
		{vec: []complex128{0.5, 0.5, 0.5, 0.5}, sites: 4, orbitals: 1, weight: 0.5, edge: false},
		{vec: []complex128{0.6, 0, 0, 0.8i}, sites: 1, orbitals: 4, weight: 1, edge: true},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v", test.vec), func(t *testing.T) {
			t.Parallel()
			if w := EdgeWeight(test.vec, test.sites, test.orbitals); math.Abs(w-test.weight) > 1e-12 {
				t.Fatalf("%f, expected %f", w, test.weight)
			}
			if e := IsEdge(test.vec, test.sites, test.orbitals); e != test.edge {
				t.Fatalf("%t, expected %t", e, test.edge)
			}
		})
	}
}

func TestEdgeFraction(t *testing.T) {
	t.Parallel()
	// Two decoupled sites, each with a single orbital, are both boundary sites.
	h := func(x float64) *mat.CDense {
		return tbmat.Scale(complex(x, 0), tbmat.PauliZ)
	}
	b, err := Sweep([]float64{1, 2}, h, NewOptions().EdgeSites(2, 1))
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if b.Vectors == nil {
		t.Fatalf("expected eigenvectors")
	}
	if f := b.EdgeFraction(); f != 1 {
		t.Fatalf("%f", f)
	}

	b, err = Sweep([]float64{1, 2}, h)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if f := b.EdgeFraction(); !math.IsNaN(f) {
		t.Fatalf("%f", f)
	}
}

func TestMain(m *testing.M) {
	flag.Parse()
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	m.Run()
}
