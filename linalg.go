package zinc

import "math"

// Numeric tolerances matching the operator contracts.
const (
	// symmetryTolerance is the relative tolerance for warning about
	// eigenanalysis of a non-symmetric matrix.
	symmetryTolerance = 1.0e-6
	// singularTolerance is the pivot tolerance below which LU decomposition
	// reports a singular matrix.
	singularTolerance = 1.0e-12
	// jacobiMaxSweeps bounds the Jacobi eigenvalue iteration.
	jacobiMaxSweeps = 50
)

// matrixIsSymmetric reports whether the n x n row-major matrix a is symmetric
// within tolerance relative to its largest absolute entry.
func matrixIsSymmetric(n int, a []float64, tolerance float64) bool {
	maxAbs := 0.0
	for i := 0; i < n*n; i++ {
		if v := math.Abs(a[i]); v > maxAbs {
			maxAbs = v
		}
	}
	threshold := tolerance * maxAbs
	for i := 1; i < n; i++ {
		for j := 0; j < i; j++ {
			if math.Abs(a[i*n+j]-a[j*n+i]) > threshold {
				return false
			}
		}
	}
	return true
}

// jacobiEigenanalysis computes eigenvalues d and eigenvectors v (in columns)
// of the symmetric n x n row-major matrix a by cyclic Jacobi rotations.
// Entries of a above the diagonal are destroyed. Returns the number of
// rotations performed.
func jacobiEigenanalysis(n int, a, d, v []float64) (int, error) {
	b := make([]float64, n)
	z := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v[i*n+j] = 0.0
		}
		v[i*n+i] = 1.0
		b[i] = a[i*n+i]
		d[i] = a[i*n+i]
	}
	rotations := 0
	for sweep := 0; sweep < jacobiMaxSweeps; sweep++ {
		sum := 0.0
		for i := 0; i < n-1; i++ {
			for j := i + 1; j < n; j++ {
				sum += math.Abs(a[i*n+j])
			}
		}
		if sum == 0.0 {
			return rotations, nil
		}
		var threshold float64
		if sweep < 3 {
			threshold = 0.2 * sum / float64(n*n)
		}
		for i := 0; i < n-1; i++ {
			for j := i + 1; j < n; j++ {
				g := 100.0 * math.Abs(a[i*n+j])
				if sweep > 3 &&
					math.Abs(d[i])+g == math.Abs(d[i]) &&
					math.Abs(d[j])+g == math.Abs(d[j]) {
					a[i*n+j] = 0.0
					continue
				}
				if math.Abs(a[i*n+j]) <= threshold {
					continue
				}
				h := d[j] - d[i]
				var t float64
				if math.Abs(h)+g == math.Abs(h) {
					t = a[i*n+j] / h
				} else {
					theta := 0.5 * h / a[i*n+j]
					t = 1.0 / (math.Abs(theta) + math.Sqrt(1.0+theta*theta))
					if theta < 0.0 {
						t = -t
					}
				}
				c := 1.0 / math.Sqrt(1.0+t*t)
				s := t * c
				tau := s / (1.0 + c)
				h = t * a[i*n+j]
				z[i] -= h
				z[j] += h
				d[i] -= h
				d[j] += h
				a[i*n+j] = 0.0
				rotate := func(m []float64, p, q int) {
					g := m[p]
					h := m[q]
					m[p] = g - s*(h+g*tau)
					m[q] = h + s*(g-h*tau)
				}
				for k := 0; k < i; k++ {
					rotate(a, k*n+i, k*n+j)
				}
				for k := i + 1; k < j; k++ {
					rotate(a, i*n+k, k*n+j)
				}
				for k := j + 1; k < n; k++ {
					rotate(a, i*n+k, j*n+k)
				}
				for k := 0; k < n; k++ {
					rotate(v, k*n+i, k*n+j)
				}
				rotations++
			}
		}
		for i := 0; i < n; i++ {
			b[i] += z[i]
			d[i] = b[i]
			z[i] = 0.0
		}
	}
	return rotations, ErrConvergenceFailure
}

// eigensort reorders eigenvalues d into descending order of magnitude with
// the matching eigenvector columns of v, by straight insertion.
func eigensort(n int, d, v []float64) {
	for i := 0; i < n-1; i++ {
		k := i
		p := math.Abs(d[i])
		for j := i + 1; j < n; j++ {
			if math.Abs(d[j]) > p {
				k = j
				p = math.Abs(d[j])
			}
		}
		if k == i {
			continue
		}
		d[k], d[i] = d[i], d[k]
		for j := 0; j < n; j++ {
			v[j*n+i], v[j*n+k] = v[j*n+k], v[j*n+i]
		}
	}
}

// luDecompose replaces the n x n row-major matrix a with its LU
// decomposition using partial pivoting with implicit row scaling. indx
// records the row permutation; the returned parity is +1 or -1 with the
// number of row interchanges. Reports ErrSingularMatrix when a pivot falls
// below tolerance.
func luDecompose(n int, a []float64, indx []int, tolerance float64) (parity float64, err error) {
	scale := make([]float64, n)
	parity = 1.0
	for i := 0; i < n; i++ {
		big := 0.0
		for j := 0; j < n; j++ {
			if v := math.Abs(a[i*n+j]); v > big {
				big = v
			}
		}
		if big < tolerance {
			return parity, ErrSingularMatrix
		}
		scale[i] = 1.0 / big
	}
	for j := 0; j < n; j++ {
		for i := 0; i < j; i++ {
			sum := a[i*n+j]
			for k := 0; k < i; k++ {
				sum -= a[i*n+k] * a[k*n+j]
			}
			a[i*n+j] = sum
		}
		big := 0.0
		imax := j
		for i := j; i < n; i++ {
			sum := a[i*n+j]
			for k := 0; k < j; k++ {
				sum -= a[i*n+k] * a[k*n+j]
			}
			a[i*n+j] = sum
			if v := scale[i] * math.Abs(sum); v >= big {
				big = v
				imax = i
			}
		}
		if imax != j {
			for k := 0; k < n; k++ {
				a[imax*n+k], a[j*n+k] = a[j*n+k], a[imax*n+k]
			}
			parity = -parity
			scale[imax] = scale[j]
		}
		indx[j] = imax
		if math.Abs(a[j*n+j]) < tolerance {
			return parity, ErrSingularMatrix
		}
		if j < n-1 {
			pivotInverse := 1.0 / a[j*n+j]
			for i := j + 1; i < n; i++ {
				a[i*n+j] *= pivotInverse
			}
		}
	}
	return parity, nil
}

// luBacksubstitute solves the system with the LU decomposition from
// luDecompose, replacing b with the solution vector.
func luBacksubstitute(n int, a []float64, indx []int, b []float64) {
	ii := -1
	for i := 0; i < n; i++ {
		ip := indx[i]
		sum := b[ip]
		b[ip] = b[i]
		if ii >= 0 {
			for j := ii; j < i; j++ {
				sum -= a[i*n+j] * b[j]
			}
		} else if sum != 0.0 {
			ii = i
		}
		b[i] = sum
	}
	for i := n - 1; i >= 0; i-- {
		sum := b[i]
		for j := i + 1; j < n; j++ {
			sum -= a[i*n+j] * b[j]
		}
		b[i] = sum / a[i*n+i]
	}
}

// squareMatrixSize returns n when componentCount is n*n for positive n,
// otherwise 0.
func squareMatrixSize(componentCount int) int {
	n := 1
	for n*n < componentCount {
		n++
	}
	if n*n == componentCount {
		return n
	}
	return 0
}
