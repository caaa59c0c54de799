// Package mat provides the small dense complex matrix operations used to assemble
// tight-binding Hamiltonians, and a Hermitian eigensolver built on gonum.
package mat

import (
	"cmp"
	"fmt"
	"math"
	"math/cmplx"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	// degenerateTol is the relative distance under which two eigenvalues are treated as one cluster.
	degenerateTol = 1e-8
	// independentTol is the smallest residual norm of a candidate eigenvector that still counts as a new direction.
	independentTol = 1e-6

	jacobiSweeps = 50
	// jacobiTol is the relative off-diagonal norm at which Jacobi iterations stop.
	jacobiTol = 1e-14
)

var (
	Pauli0 = M([][]complex128{
		{1, 0},
		{0, 1},
	})
	PauliX = M([][]complex128{
		{0, 1},
		{1, 0},
	})
	PauliY = M([][]complex128{
		{0, -1i},
		{1i, 0},
	})
	PauliZ = M([][]complex128{
		{1, 0},
		{0, -1},
	})
)

// M returns a dense matrix with the given rows.
func M(dense [][]complex128) *mat.CDense {
	rows, cols := len(dense), len(dense[0])
	data := make([]complex128, 0, rows*cols)
	for _, row := range dense {
		if len(row) != cols {
			panic(fmt.Sprintf("%d %d", len(row), cols))
		}
		data = append(data, row...)
	}
	return mat.NewCDense(rows, cols, data)
}

func Zeros(rows, cols int) *mat.CDense {
	return mat.NewCDense(rows, cols, nil)
}

func Identity(n int) *mat.CDense {
	m := Zeros(n, n)
	for i := range n {
		m.Set(i, i, 1)
	}
	return m
}

// Scale returns c*a.
func Scale(c complex128, a mat.CMatrix) *mat.CDense {
	rows, cols := a.Dims()
	b := Zeros(rows, cols)
	for i := range rows {
		for j := range cols {
			b.Set(i, j, c*a.At(i, j))
		}
	}
	return b
}

// Add returns the sum of ms, which must all have the same shape.
func Add(ms ...mat.CMatrix) *mat.CDense {
	rows, cols := ms[0].Dims()
	sum := Zeros(rows, cols)
	for _, m := range ms {
		AddScaled(sum, 1, m)
	}
	return sum
}

// AddScaled performs a += c*b.
func AddScaled(a *mat.CDense, c complex128, b mat.CMatrix) {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		panic(fmt.Sprintf("wrong dimensions %dx%d %dx%d", ar, ac, br, bc))
	}
	for i := range ar {
		for j := range ac {
			a.Set(i, j, a.At(i, j)+c*b.At(i, j))
		}
	}
}

// Dagger returns the conjugate transpose of a.
func Dagger(a mat.CMatrix) *mat.CDense {
	rows, cols := a.Dims()
	b := Zeros(cols, rows)
	for i := range rows {
		for j := range cols {
			b.Set(j, i, cmplx.Conj(a.At(i, j)))
		}
	}
	return b
}

// Kron returns the Kronecker product a⊗b.
func Kron(a, b mat.CMatrix) *mat.CDense {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	c := Zeros(ar*br, ac*bc)
	for ai := range ar {
		for aj := range ac {
			av := a.At(ai, aj)
			if av == 0 {
				continue
			}
			for bi := range br {
				for bj := range bc {
					c.Set(ai*br+bi, aj*bc+bj, av*b.At(bi, bj))
				}
			}
		}
	}
	return c
}

// SetBlock overwrites block (i, j) of h with b, where blocks have the shape of b.
func SetBlock(h *mat.CDense, i, j int, b mat.CMatrix) {
	br, bc := b.Dims()
	checkBlock(h, i, j, br, bc)
	for y := range br {
		for x := range bc {
			h.Set(i*br+y, j*bc+x, b.At(y, x))
		}
	}
}

// AddBlock adds b to block (i, j) of h.
func AddBlock(h *mat.CDense, i, j int, b mat.CMatrix) {
	br, bc := b.Dims()
	checkBlock(h, i, j, br, bc)
	for y := range br {
		for x := range bc {
			h.Set(i*br+y, j*bc+x, h.At(i*br+y, j*bc+x)+b.At(y, x))
		}
	}
}

// AddHopping adds the hopping block b from site j to site i, and its conjugate transpose from i to j.
func AddHopping(h *mat.CDense, i, j int, b mat.CMatrix) {
	if i == j {
		panic(fmt.Sprintf("hopping onto the same site %d", i))
	}
	AddBlock(h, i, j, b)
	AddBlock(h, j, i, Dagger(b))
}

// AddAt adds v to element (i, j).
func AddAt(h *mat.CDense, i, j int, v complex128) {
	h.Set(i, j, h.At(i, j)+v)
}

// AddHoppingAt adds v to element (i, j) and its conjugate to element (j, i).
func AddHoppingAt(h *mat.CDense, i, j int, v complex128) {
	if i == j {
		panic(fmt.Sprintf("hopping onto the same orbital %d", i))
	}
	AddAt(h, i, j, v)
	AddAt(h, j, i, cmplx.Conj(v))
}

func checkBlock(h *mat.CDense, i, j, br, bc int) {
	hr, hc := h.Dims()
	if i < 0 || j < 0 || (i+1)*br > hr || (j+1)*bc > hc {
		panic(fmt.Sprintf("block %d %d of %dx%d out of %dx%d", i, j, br, bc, hr, hc))
	}
}

// IsHermitian reports whether a equals its conjugate transpose within tol.
func IsHermitian(a mat.CMatrix, tol float64) bool {
	rows, cols := a.Dims()
	if rows != cols {
		return false
	}
	for i := range rows {
		for j := i; j < cols; j++ {
			if cmplx.Abs(a.At(i, j)-cmplx.Conj(a.At(j, i))) > tol {
				return false
			}
		}
	}
	return true
}

// EqualApprox reports whether a and b have the same shape and elements within tol.
func EqualApprox(a, b mat.CMatrix, tol float64) bool {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		return false
	}
	for i := range ar {
		for j := range ac {
			if cmplx.Abs(a.At(i, j)-b.At(i, j)) > tol {
				return false
			}
		}
	}
	return true
}

// Gershgorin returns an interval containing every eigenvalue of the Hermitian matrix m.
// Theorem A3, Bounds for the eigenvalues of a matrix, Kenneth R. Garren.
func Gershgorin(m mat.CMatrix) (float64, float64) {
	n := square(m)
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range n {
		var radius float64
		for j := range n {
			if j != i {
				radius += cmplx.Abs(m.At(i, j))
			}
		}
		center := real(m.At(i, i))
		lo = min(lo, center-radius)
		hi = max(hi, center+radius)
	}
	return lo, hi
}

type ValVec struct {
	Val float64
	Vec []complex128
}

// EigenValues returns the eigenvalues of the Hermitian matrix m in ascending order.
func EigenValues(m mat.CMatrix) ([]float64, error) {
	n := square(m)
	var eig mat.EigenSym
	if ok := eig.Factorize(realSymmetric(m), false); !ok {
		return nil, errors.Errorf("eigen factorization failed %dx%d", n, n)
	}
	doubled := eig.Values(nil)
	slices.Sort(doubled)

	// Every eigenvalue of m appears twice in its real embedding.
	vals := make([]float64, 0, n)
	for i := 0; i < len(doubled); i += 2 {
		vals = append(vals, doubled[i])
	}
	return vals, nil
}

// Eigen returns the eigenpairs of the Hermitian matrix m sorted by ascending eigenvalue.
// Eigenvectors are orthonormal, and their first non-negligible entry is real and positive.
//
// m = A + iB is diagonalized through its real embedding [[A, -B], [B, A]],
// whose eigenvector (x, y) corresponds to the eigenvector x + iy of m.
// Each eigenvalue of m appears twice in the embedding, and so the embedding spectrum is split into clusters of
// nearby eigenvalues, each cluster spanning a complex subspace of half its size.
// m is then diagonalized within every subspace by Jacobi rotations.
func Eigen(m mat.CMatrix) ([]ValVec, error) {
	n := square(m)
	var eig mat.EigenSym
	if ok := eig.Factorize(realSymmetric(m), true); !ok {
		return nil, errors.Errorf("eigen factorization failed %dx%d", n, n)
	}
	vals := eig.Values(nil)
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	order := make([]int, len(vals))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int { return cmp.Compare(vals[a], vals[b]) })

	vvs := make([]ValVec, 0, n)
	for start := 0; start < len(order); {
		end := start + 1
		for end < len(order) && vals[order[end]]-vals[order[end-1]] <= degenerateTol*max(1, math.Abs(vals[order[end]])) {
			end++
		}
		if (end-start)%2 != 0 {
			return nil, errors.Errorf("cluster of %d at %f", end-start, vals[order[start]])
		}

		candidates := make([][]complex128, 0, end-start)
		for _, k := range order[start:end] {
			vec := make([]complex128, n)
			for i := range n {
				vec[i] = complex(vecs.At(i, k), vecs.At(n+i, k))
			}
			candidates = append(candidates, vec)
		}
		basis, err := complexBasis(candidates, (end-start)/2, vvs)
		if err != nil {
			return nil, errors.Wrap(err, fmt.Sprintf("%f", vals[order[start]]))
		}
		vvs = append(vvs, ritz(m, basis)...)
		start = end
	}

	slices.SortStableFunc(vvs, func(a, b ValVec) int { return cmp.Compare(a.Val, b.Val) })
	for _, vv := range vvs {
		fixPhase(vv.Vec)
	}
	return vvs, nil
}

// complexBasis returns dim orthonormal vectors spanning vecs, all orthogonal to the vectors in taken.
// At each step the candidate with the largest component outside the vectors chosen so far is picked.
// vecs are overwritten.
func complexBasis(vecs [][]complex128, dim int, taken []ValVec) ([][]complex128, error) {
	for _, v := range vecs {
		for range 2 {
			for _, vv := range taken {
				project(v, vv.Vec)
			}
		}
	}

	basis := make([][]complex128, 0, dim)
	picked := make([]bool, len(vecs))
	for range dim {
		best, bestNorm := -1, 0.0
		for j, v := range vecs {
			if norm := norm2(v); !picked[j] && norm > bestNorm {
				best, bestNorm = j, norm
			}
		}
		if bestNorm < independentTol {
			return nil, errors.Errorf("%d independent vectors, expected %d", len(basis), dim)
		}
		picked[best] = true

		u := slices.Clone(vecs[best])
		for _, b := range basis {
			project(u, b)
		}
		norm := norm2(u)
		for i := range u {
			u[i] /= complex(norm, 0)
		}
		basis = append(basis, u)

		for j, v := range vecs {
			if !picked[j] {
				project(v, u)
			}
		}
	}
	return basis, nil
}

// project removes from v its component along the unit vector u.
func project(v, u []complex128) {
	c := dot(u, v)
	for i := range v {
		v[i] -= c * u[i]
	}
}

// ritz returns the eigenpairs of m restricted to the span of the orthonormal basis.
func ritz(m mat.CMatrix, basis [][]complex128) []ValVec {
	n := square(m)
	mb := make([][]complex128, 0, len(basis))
	for _, b := range basis {
		v := make([]complex128, n)
		for r := range n {
			var s complex128
			for c, bc := range b {
				s += m.At(r, c) * bc
			}
			v[r] = s
		}
		mb = append(mb, v)
	}
	proj := make([][]complex128, len(basis))
	for i, b := range basis {
		proj[i] = make([]complex128, len(basis))
		for j := range basis {
			proj[i][j] = dot(b, mb[j])
		}
	}

	vals, u := jacobi(proj)
	vvs := make([]ValVec, 0, len(basis))
	for j, val := range vals {
		vec := make([]complex128, n)
		for i, b := range basis {
			c := u[i][j]
			for r := range vec {
				vec[r] += c * b[r]
			}
		}
		vvs = append(vvs, ValVec{Val: val, Vec: vec})
	}
	return vvs
}

// jacobi diagonalizes the Hermitian matrix a by cyclic Jacobi rotations, overwriting a.
// It returns the eigenvalues, and the unitary matrix whose columns are the eigenvectors.
func jacobi(a [][]complex128) ([]float64, [][]complex128) {
	n := len(a)
	u := make([][]complex128, n)
	for i := range n {
		u[i] = make([]complex128, n)
		u[i][i] = 1
	}

	for range jacobiSweeps {
		var off, total float64
		for i := range n {
			for j := range n {
				x := real(a[i][j])*real(a[i][j]) + imag(a[i][j])*imag(a[i][j])
				total += x
				if i != j {
					off += x
				}
			}
		}
		if off <= jacobiTol*jacobiTol*total {
			break
		}
		for p := range n {
			for q := p + 1; q < n; q++ {
				rotate(a, u, p, q)
			}
		}
	}

	vals := make([]float64, n)
	for i := range n {
		vals[i] = real(a[i][i])
	}
	return vals, u
}

// rotate zeroes a[p][q] by a = R^H a R and accumulates u = u R,
// where R is a unitary rotation in the (p, q) plane.
func rotate(a, u [][]complex128, p, q int) {
	r := cmplx.Abs(a[p][q])
	if r == 0 {
		return
	}
	// The phase e turns a[p][q] into the real r, after which the real symmetric rotation applies.
	e := cmplx.Conj(a[p][q]) / complex(r, 0)
	theta := (real(a[q][q]) - real(a[p][p])) / (2 * r)
	t := math.Copysign(1/(math.Abs(theta)+math.Hypot(theta, 1)), theta)
	c := 1 / math.Sqrt(t*t+1)
	s := t * c
	rpp, rpq := complex(c, 0), complex(s, 0)
	rqp, rqq := complex(-s, 0)*e, complex(c, 0)*e

	for k := range a {
		akp, akq := a[k][p], a[k][q]
		a[k][p] = akp*rpp + akq*rqp
		a[k][q] = akp*rpq + akq*rqq
		ukp, ukq := u[k][p], u[k][q]
		u[k][p] = ukp*rpp + ukq*rqp
		u[k][q] = ukp*rpq + ukq*rqq
	}
	for k := range a {
		apk, aqk := a[p][k], a[q][k]
		a[p][k] = cmplx.Conj(rpp)*apk + cmplx.Conj(rqp)*aqk
		a[q][k] = cmplx.Conj(rpq)*apk + cmplx.Conj(rqq)*aqk
	}
	a[p][q], a[q][p] = 0, 0
	a[p][p] = complex(real(a[p][p]), 0)
	a[q][q] = complex(real(a[q][q]), 0)
}

// realSymmetric returns the real embedding [[A, -B], [B, A]] of m = A + iB.
func realSymmetric(m mat.CMatrix) *mat.SymDense {
	n := square(m)
	data := make([]float64, 4*n*n)
	for i := range n {
		for j := range n {
			v := m.At(i, j)
			data[i*2*n+j] = real(v)
			data[i*2*n+n+j] = -imag(v)
			data[(n+i)*2*n+j] = imag(v)
			data[(n+i)*2*n+n+j] = real(v)
		}
	}
	return mat.NewSymDense(2*n, data)
}

// fixPhase makes the first non-negligible entry of vec real and positive.
func fixPhase(vec []complex128) {
	var c complex128 = 1
	for _, v := range vec {
		if cmplx.Abs(v) > 1e-6 {
			c = v / complex(cmplx.Abs(v), 0)
			break
		}
	}
	for i := range vec {
		vec[i] /= c
	}
}

// dot returns the inner product <a|b>.
func dot(a, b []complex128) complex128 {
	var s complex128
	for i, av := range a {
		s += cmplx.Conj(av) * b[i]
	}
	return s
}

func norm2(a []complex128) float64 {
	var s float64
	for _, v := range a {
		s += real(v)*real(v) + imag(v)*imag(v)
	}
	return math.Sqrt(s)
}

func square(m mat.CMatrix) int {
	rows, cols := m.Dims()
	if rows != cols {
		panic(fmt.Sprintf("not square %dx%d", rows, cols))
	}
	return rows
}

// String formats m in aligned, tab separated columns.
func String(m mat.CMatrix) string {
	rows, cols := m.Dims()
	lines := make([]string, 0, rows)
	for i := range rows {
		cs := make([]string, 0, cols)
		for j := range cols {
			v := m.At(i, j)
			switch {
			case imag(v) == 0:
				cs = append(cs, format(real(v)))
			case real(v) == 0:
				cs = append(cs, format(imag(v))+"i")
			default:
				cs = append(cs, format(real(v))+"+"+format(imag(v))+"i")
			}
		}
		lines = append(lines, strings.Join(cs, "\t"))
	}
	return strings.Join(lines, "\n")
}

func format(v float64) string {
	// Print -0 as 0.
	if v == 0 {
		return " 0"
	}

	s := fmt.Sprintf("%.4g", v)

	// Add a space before non-negative numbers to align with other negative numbers in the same column.
	if v >= 0 {
		s = " " + s
	}

	return s
}
