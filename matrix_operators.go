package zinc

import (
	"fmt"
	"log/slog"
)

// determinantCore computes the scalar determinant of a square matrix source
// with 1, 4 or 9 components, by closed-form expansion. Derivatives are not
// available.
type determinantCore struct{}

func (determinantCore) TypeName() string { return "determinant" }

func (determinantCore) Compare(other FieldCore) bool {
	_, ok := other.(determinantCore)
	return ok
}

func (determinantCore) Evaluate(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error {
	source, err := field.sourceFields[0].Evaluate(cache)
	if err != nil {
		return err
	}
	a := source.Values
	switch field.sourceFields[0].components {
	case 1:
		valueCache.Values[0] = a[0]
	case 4:
		valueCache.Values[0] = a[0]*a[3] - a[1]*a[2]
	case 9:
		valueCache.Values[0] =
			a[0]*(a[4]*a[8]-a[5]*a[7]) +
				a[1]*(a[5]*a[6]-a[3]*a[8]) +
				a[2]*(a[3]*a[7]-a[4]*a[6])
	default:
		return fmt.Errorf("%w: determinant needs a 1, 4 or 9 component source", ErrInvalidArgument)
	}
	return nil
}

// eigenScratch is the private workspace of an eigenvalues field: the working
// copy of the matrix and the eigenvector columns, read by a downstream
// eigenvectors field through the shared Fieldcache.
type eigenScratch struct {
	a []float64
	v []float64
}

// eigenvaluesCore computes the n eigenvalues of an n x n matrix source,
// sorted from largest to smallest magnitude. The matrix should be symmetric;
// a non-symmetric matrix is still processed, with a warning, but the result
// is unreliable.
type eigenvaluesCore struct{}

func (eigenvaluesCore) TypeName() string { return "eigenvalues" }

func (eigenvaluesCore) Compare(other FieldCore) bool {
	_, ok := other.(eigenvaluesCore)
	return ok
}

func (eigenvaluesCore) createValueCache(cache *Fieldcache, field *Field) *FieldValueCache {
	n := field.components
	vc := newFieldValueCache(n)
	vc.scratch = &eigenScratch{
		a: make([]float64, n*n),
		v: make([]float64, n*n),
	}
	return vc
}

func (eigenvaluesCore) Evaluate(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error {
	source, err := field.sourceFields[0].Evaluate(cache)
	if err != nil {
		return err
	}
	n := field.components
	scratch := valueCache.scratch.(*eigenScratch)
	copy(scratch.a, source.Values)
	if !matrixIsSymmetric(n, scratch.a, symmetryTolerance) {
		if field.manager != nil {
			field.manager.warn("eigenanalysis of non-symmetric matrix may be wrong",
				slog.String("field", field.sourceFields[0].name))
		}
	}
	if _, err := jacobiEigenanalysis(n, scratch.a, valueCache.Values, scratch.v); err != nil {
		return err
	}
	eigensort(n, valueCache.Values, scratch.v)
	return nil
}

// eigenvectorsCore extracts the eigenvectors matching a source eigenvalues
// field, one per row of the output matrix. It reads the eigenvector columns
// the eigenvalues field computed into its own value cache, so evaluating it
// evaluates the eigenvalues first.
type eigenvectorsCore struct{}

func (eigenvectorsCore) TypeName() string { return "eigenvectors" }

func (eigenvectorsCore) Compare(other FieldCore) bool {
	_, ok := other.(eigenvectorsCore)
	return ok
}

func (eigenvectorsCore) Evaluate(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error {
	source, err := field.sourceFields[0].Evaluate(cache)
	if err != nil {
		return err
	}
	scratch, ok := source.scratch.(*eigenScratch)
	if !ok {
		return fmt.Errorf("%w: eigenvectors source is not an eigenvalues field", ErrInvalidArgument)
	}
	n := field.sourceFields[0].components
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			valueCache.Values[i*n+j] = scratch.v[j*n+i]
		}
	}
	return nil
}

// invertScratch is the private workspace of a matrix_invert field: the LU
// working copy, a column buffer and the pivot index.
type invertScratch struct {
	a    []float64
	b    []float64
	indx []int
}

// matrixInvertCore computes the inverse of an n x n matrix source by LU
// decomposition with backsubstitution per identity column.
type matrixInvertCore struct{}

func (matrixInvertCore) TypeName() string { return "matrix_invert" }

func (matrixInvertCore) Compare(other FieldCore) bool {
	_, ok := other.(matrixInvertCore)
	return ok
}

func (matrixInvertCore) createValueCache(cache *Fieldcache, field *Field) *FieldValueCache {
	n := squareMatrixSize(field.components)
	vc := newFieldValueCache(field.components)
	vc.scratch = &invertScratch{
		a:    make([]float64, n*n),
		b:    make([]float64, n),
		indx: make([]int, n),
	}
	return vc
}

func (matrixInvertCore) Evaluate(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error {
	source, err := field.sourceFields[0].Evaluate(cache)
	if err != nil {
		return err
	}
	n := squareMatrixSize(field.components)
	scratch := valueCache.scratch.(*invertScratch)
	copy(scratch.a, source.Values)
	if _, err := luDecompose(n, scratch.a, scratch.indx, singularTolerance); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		// solve for one column of the identity
		for j := 0; j < n; j++ {
			scratch.b[j] = 0.0
		}
		scratch.b[i] = 1.0
		luBacksubstitute(n, scratch.a, scratch.indx, scratch.b)
		for j := 0; j < n; j++ {
			valueCache.Values[j*n+i] = scratch.b[j]
		}
	}
	return nil
}

// matrixMultiplyCore multiplies an (m x s) matrix source by an (s x n)
// matrix source, components changing along rows fastest. Derivatives use the
// product rule.
type matrixMultiplyCore struct {
	rows int
}

func (c *matrixMultiplyCore) TypeName() string { return "matrix_multiply" }

func (c *matrixMultiplyCore) Compare(other FieldCore) bool {
	o, ok := other.(*matrixMultiplyCore)
	return ok && o.rows == c.rows
}

func (c *matrixMultiplyCore) Evaluate(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error {
	source1, err := field.sourceFields[0].Evaluate(cache)
	if err != nil {
		return err
	}
	source2, err := field.sourceFields[1].Evaluate(cache)
	if err != nil {
		return err
	}
	m := c.rows
	s := field.sourceFields[0].components / m
	n := field.sourceFields[1].components / s
	a := source1.Values
	b := source2.Values
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			sum := 0.0
			for k := 0; k < s; k++ {
				sum += a[i*s+k] * b[k*n+j]
			}
			valueCache.Values[i*n+j] = sum
		}
	}
	numberOfXi := cache.requestedDerivatives
	if numberOfXi > 0 && source1.DerivativesValid && source2.DerivativesValid {
		derivatives := valueCache.ensureDerivatives(field.components, numberOfXi)
		ad := source1.Derivatives
		bd := source2.Derivatives
		for d := 0; d < numberOfXi; d++ {
			// product rule
			for i := 0; i < m; i++ {
				for j := 0; j < n; j++ {
					sum := 0.0
					for k := 0; k < s; k++ {
						sum += a[i*s+k]*bd[numberOfXi*(k*n+j)+d] +
							ad[numberOfXi*(i*s+k)+d]*b[k*n+j]
					}
					derivatives[numberOfXi*(i*n+j)+d] = sum
				}
			}
		}
		valueCache.DerivativesValid = true
	}
	return nil
}

func (c *matrixMultiplyCore) commandString(field *Field) string {
	return fmt.Sprintf(" number_of_rows %d", c.rows)
}

// transposeCore returns the n row x m column transpose of an m row x n
// column matrix source, values changing along rows fastest.
type transposeCore struct {
	sourceRows int
}

func (c *transposeCore) TypeName() string { return "transpose" }

func (c *transposeCore) Compare(other FieldCore) bool {
	o, ok := other.(*transposeCore)
	return ok && o.sourceRows == c.sourceRows
}

func (c *transposeCore) Evaluate(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error {
	source, err := field.sourceFields[0].Evaluate(cache)
	if err != nil {
		return err
	}
	m := c.sourceRows
	n := field.sourceFields[0].components / m
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			valueCache.Values[i*m+j] = source.Values[j*n+i]
		}
	}
	numberOfXi := cache.requestedDerivatives
	if numberOfXi > 0 && source.DerivativesValid {
		derivatives := valueCache.ensureDerivatives(field.components, numberOfXi)
		for i := 0; i < n; i++ {
			for j := 0; j < m; j++ {
				copy(derivatives[numberOfXi*(i*m+j):numberOfXi*(i*m+j+1)],
					source.Derivatives[numberOfXi*(j*n+i):numberOfXi*(j*n+i+1)])
			}
		}
		valueCache.DerivativesValid = true
	}
	return nil
}

func (c *transposeCore) commandString(field *Field) string {
	return fmt.Sprintf(" source_number_of_rows %d", c.sourceRows)
}

// projectionCore applies a homogeneous projection matrix to a coordinate
// source: the matrix has (components+1) rows by (source components+1)
// columns, the final row computing the perspective divisor. Derivatives use
// the quotient rule on the scaled coordinates.
type projectionCore struct {
	matrixRows    int
	matrixColumns int
}

func (c *projectionCore) TypeName() string { return "projection" }

func (c *projectionCore) Compare(other FieldCore) bool {
	o, ok := other.(*projectionCore)
	return ok && o.matrixRows == c.matrixRows && o.matrixColumns == c.matrixColumns
}

func (c *projectionCore) Evaluate(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error {
	source1, err := field.sourceFields[0].Evaluate(cache)
	if err != nil {
		return err
	}
	source2, err := field.sourceFields[1].Evaluate(cache)
	if err != nil {
		return err
	}
	coordinateComponents := field.sourceFields[0].components
	projectionMatrix := source2.Values
	columns := coordinateComponents + 1
	for i := 0; i < field.components; i++ {
		sum := 0.0
		for j := 0; j < coordinateComponents; j++ {
			sum += projectionMatrix[i*columns+j] * source1.Values[j]
		}
		// the homogeneous coordinate is fixed at 1
		valueCache.Values[i] = sum + projectionMatrix[i*columns+coordinateComponents]
	}
	perspective := 0.0
	for j := 0; j < coordinateComponents; j++ {
		perspective += projectionMatrix[field.components*columns+j] * source1.Values[j]
	}
	perspective += projectionMatrix[field.components*columns+coordinateComponents]
	if perspective == 0.0 {
		return fmt.Errorf("%w: zero perspective divisor", ErrNotDefinedAtLocation)
	}
	numberOfXi := cache.requestedDerivatives
	if numberOfXi > 0 && source1.DerivativesValid && source2.DerivativesValid {
		derivatives := valueCache.ensureDerivatives(field.components, numberOfXi)
		for k := 0; k < numberOfXi; k++ {
			// coordinate derivatives without perspective
			for i := 0; i < field.components; i++ {
				sum := 0.0
				for j := 0; j < coordinateComponents; j++ {
					sum += projectionMatrix[i*columns+j] * source1.Derivatives[j*numberOfXi+k]
				}
				derivatives[i*numberOfXi+k] = sum
			}
			dhdxi := 0.0
			for j := 0; j < coordinateComponents; j++ {
				dhdxi += projectionMatrix[field.components*columns+j] * source1.Derivatives[j*numberOfXi+k]
			}
			// chain rule on the perspective reciprocal
			dh1dxi := -dhdxi / (perspective * perspective)
			for i := 0; i < field.components; i++ {
				derivatives[i*numberOfXi+k] = derivatives[i*numberOfXi+k]/perspective +
					valueCache.Values[i]*dh1dxi
			}
		}
		valueCache.DerivativesValid = true
	}
	for i := 0; i < field.components; i++ {
		valueCache.Values[i] /= perspective
	}
	return nil
}

// assign inverts the projection for the 3 coordinate, 4 x 4 matrix case and
// assigns the unprojected coordinates to the source field.
func (c *projectionCore) assign(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error {
	if field.components != 3 || c.matrixRows != 4 || c.matrixColumns != 4 {
		return fmt.Errorf("%w: projection assign requires 3 components and a 4x4 matrix", ErrNotImplemented)
	}
	projectionSource, err := field.sourceFields[1].Evaluate(cache)
	if err != nil {
		return err
	}
	valueCache.DerivativesValid = false
	var luMatrix [16]float64
	copy(luMatrix[:], projectionSource.Values)
	var indx [4]int
	result := [4]float64{valueCache.Values[0], valueCache.Values[1], valueCache.Values[2], 1.0}
	if _, err := luDecompose(4, luMatrix[:], indx[:], singularTolerance); err != nil {
		return err
	}
	luBacksubstitute(4, luMatrix[:], indx[:], result[:])
	if result[3] == 0.0 {
		return fmt.Errorf("%w: zero homogeneous coordinate", ErrSingularMatrix)
	}
	coordinates := []float64{
		result[0] / result[3],
		result[1] / result[3],
		result[2] / result[3],
	}
	return field.sourceFields[0].Assign(cache, coordinates)
}
