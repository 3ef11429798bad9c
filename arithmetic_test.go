package zinc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArithmeticValues(t *testing.T) {
	fm := NewFieldmodule("test")
	cache := fm.CreateFieldcache()

	a, _ := fm.CreateFieldConstant([]float64{6, -2, 0.5})
	b, _ := fm.CreateFieldConstant([]float64{3, 4, 0.25})

	sum, err := fm.CreateFieldAdd(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{9, 2, 0.75}, evalReal(t, cache, sum))

	difference, err := fm.CreateFieldSubtract(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, -6, 0.25}, evalReal(t, cache, difference))

	product, err := fm.CreateFieldMultiply(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{18, -8, 0.125}, evalReal(t, cache, product))

	quotient, err := fm.CreateFieldDivide(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, -0.5, 2}, evalReal(t, cache, quotient))
}

func TestArithmeticRejectsMismatchedComponents(t *testing.T) {
	fm := NewFieldmodule("test")

	a, _ := fm.CreateFieldConstant([]float64{1, 2})
	b, _ := fm.CreateFieldConstant([]float64{1, 2, 3})
	_, err := fm.CreateFieldAdd(a, b)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestSumComponents(t *testing.T) {
	fm := NewFieldmodule("test")
	cache := fm.CreateFieldcache()

	a, _ := fm.CreateFieldConstant([]float64{1, 2, 3.5})
	total, err := fm.CreateFieldSumComponents(a)
	require.NoError(t, err)
	require.Equal(t, 1, total.NumberOfComponents())
	assert.InDelta(t, 6.5, evalReal(t, cache, total)[0], 1e-12)
}

func TestArithmeticDerivatives(t *testing.T) {
	domain := newTestDomain([][]float64{{0}, {0}, {0}, {0}})
	fm := NewFieldmodule("test")

	xi, err := fm.XiField()
	require.NoError(t, err)
	pair, err := fm.CreateFieldComponent(xi, []int{0, 1})
	require.NoError(t, err)
	shift, _ := fm.CreateFieldConstant([]float64{1, 2})
	shifted, err := fm.CreateFieldAdd(pair, shift)
	require.NoError(t, err)
	product, err := fm.CreateFieldMultiply(pair, shifted)
	require.NoError(t, err)
	quotient, err := fm.CreateFieldDivide(pair, shifted)
	require.NoError(t, err)

	cache := fm.CreateFieldcache()
	require.NoError(t, cache.SetRequestedDerivatives(2))
	xiValues := []float64{0.3, 0.6}
	require.NoError(t, cache.SetMeshLocation(domain.element, xiValues))

	for _, field := range []*Field{product, quotient} {
		analytic := evalDerivatives(t, cache, field)
		h := 1e-6
		for d := 0; d < 2; d++ {
			forward := append([]float64(nil), xiValues...)
			backward := append([]float64(nil), xiValues...)
			forward[d] += h
			backward[d] -= h
			require.NoError(t, cache.SetMeshLocation(domain.element, forward))
			plus := evalReal(t, cache, field)
			require.NoError(t, cache.SetMeshLocation(domain.element, backward))
			minus := evalReal(t, cache, field)
			for comp := 0; comp < 2; comp++ {
				fd := (plus[comp] - minus[comp]) / (2 * h)
				assert.InDelta(t, fd, analytic[comp*2+d], 1e-5,
					"%s component %d direction %d", field.TypeName(), comp, d)
			}
		}
		require.NoError(t, cache.SetMeshLocation(domain.element, xiValues))
	}
}

func TestDerivativesAllOrNothing(t *testing.T) {
	domain := newTestDomain([][]float64{{1}, {2}, {3}, {4}})
	fm := NewFieldmodule("test")

	// eigenvalues never yields derivatives, so neither does the sum above it
	matrix, _ := fm.CreateFieldConstant([]float64{2, 0, 0, 2})
	eigenvalues, _ := fm.CreateFieldEigenvalues(matrix)
	pairField, _ := fm.CreateFieldConstant([]float64{1, 1})
	sum, err := fm.CreateFieldAdd(eigenvalues, pairField)
	require.NoError(t, err)

	cache := fm.CreateFieldcache()
	require.NoError(t, cache.SetRequestedDerivatives(2))
	require.NoError(t, cache.SetMeshLocation(domain.element, []float64{0.5, 0.5}))

	out := make([]float64, 2)
	require.NoError(t, sum.EvaluateReal(cache, out))
	assert.Equal(t, []float64{3, 3}, out)

	derivatives := make([]float64, 4)
	err = sum.EvaluateDerivatives(cache, derivatives)
	assert.ErrorIs(t, err, ErrNotDefinedAtLocation)
}
