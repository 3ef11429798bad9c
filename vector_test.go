package zinc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDotProduct(t *testing.T) {
	fm := NewFieldmodule("test")
	cache := fm.CreateFieldcache()

	a, _ := fm.CreateFieldConstant([]float64{1, 2, 3})
	b, _ := fm.CreateFieldConstant([]float64{4, -5, 6})
	dot, err := fm.CreateFieldDotProduct(a, b)
	require.NoError(t, err)
	require.Equal(t, 1, dot.NumberOfComponents())
	assert.InDelta(t, 12.0, evalReal(t, cache, dot)[0], 1e-12)
}

func TestCrossProduct(t *testing.T) {
	fm := NewFieldmodule("test")
	cache := fm.CreateFieldcache()

	x, _ := fm.CreateFieldConstant([]float64{1, 0, 0})
	y, _ := fm.CreateFieldConstant([]float64{0, 1, 0})
	cross, err := fm.CreateFieldCrossProduct(x, y)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 1}, evalReal(t, cache, cross))

	// anti-commutative
	reversed, _ := fm.CreateFieldCrossProduct(y, x)
	assert.Equal(t, []float64{0, 0, -1}, evalReal(t, cache, reversed))
}

func TestCrossProductRequiresThreeComponents(t *testing.T) {
	fm := NewFieldmodule("test")

	a, _ := fm.CreateFieldConstant([]float64{1, 2})
	b, _ := fm.CreateFieldConstant([]float64{3, 4})
	_, err := fm.CreateFieldCrossProduct(a, b)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestMagnitudeAndNormalise(t *testing.T) {
	fm := NewFieldmodule("test")
	cache := fm.CreateFieldcache()

	a, _ := fm.CreateFieldConstant([]float64{3, 4})
	magnitude, err := fm.CreateFieldMagnitude(a)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, evalReal(t, cache, magnitude)[0], 1e-12)

	normalised, err := fm.CreateFieldNormalise(a)
	require.NoError(t, err)
	got := evalReal(t, cache, normalised)
	assert.InDelta(t, 0.6, got[0], 1e-12)
	assert.InDelta(t, 0.8, got[1], 1e-12)
}

func TestNormaliseZeroVector(t *testing.T) {
	fm := NewFieldmodule("test")
	cache := fm.CreateFieldcache()

	zero, _ := fm.CreateFieldConstant([]float64{0, 0, 0})
	normalised, _ := fm.CreateFieldNormalise(zero)
	out := make([]float64, 3)
	err := normalised.EvaluateReal(cache, out)
	assert.ErrorIs(t, err, ErrNotDefinedAtLocation)
}

func TestVectorDerivatives(t *testing.T) {
	domain := newTestDomain([][]float64{{0}, {0}, {0}, {0}})
	fm := NewFieldmodule("test")

	xi, err := fm.XiField()
	require.NoError(t, err)
	shift, _ := fm.CreateFieldConstant([]float64{0.5, 1, 2})
	vector, err := fm.CreateFieldAdd(xi, shift)
	require.NoError(t, err)
	magnitude, err := fm.CreateFieldMagnitude(vector)
	require.NoError(t, err)
	normalised, err := fm.CreateFieldNormalise(vector)
	require.NoError(t, err)
	other, _ := fm.CreateFieldConstant([]float64{1, -1, 0.5})
	dot, err := fm.CreateFieldDotProduct(vector, other)
	require.NoError(t, err)
	cross, err := fm.CreateFieldCrossProduct(vector, other)
	require.NoError(t, err)

	cache := fm.CreateFieldcache()
	require.NoError(t, cache.SetRequestedDerivatives(2))
	xiValues := []float64{0.3, 0.6}
	require.NoError(t, cache.SetMeshLocation(domain.element, xiValues))

	h := 1e-6
	for _, field := range []*Field{magnitude, normalised, dot, cross} {
		require.NoError(t, cache.SetMeshLocation(domain.element, xiValues))
		analytic := evalDerivatives(t, cache, field)
		components := field.NumberOfComponents()
		for d := 0; d < 2; d++ {
			forward := append([]float64(nil), xiValues...)
			backward := append([]float64(nil), xiValues...)
			forward[d] += h
			backward[d] -= h
			require.NoError(t, cache.SetMeshLocation(domain.element, forward))
			plus := evalReal(t, cache, field)
			require.NoError(t, cache.SetMeshLocation(domain.element, backward))
			minus := evalReal(t, cache, field)
			for comp := 0; comp < components; comp++ {
				fd := (plus[comp] - minus[comp]) / (2 * h)
				assert.InDelta(t, fd, analytic[comp*2+d], 1e-5,
					"%s component %d direction %d", field.TypeName(), comp, d)
			}
		}
	}
}

func TestMagnitudeDerivativeFormula(t *testing.T) {
	// for v = (xi0, xi1, 0) + (3, 4, 0) at xi = 0: d|v|/dxi0 = v0/|v|
	domain := newTestDomain([][]float64{{0}, {0}, {0}, {0}})
	fm := NewFieldmodule("test")

	xi, _ := fm.XiField()
	shift, _ := fm.CreateFieldConstant([]float64{3, 4, 0})
	vector, _ := fm.CreateFieldAdd(xi, shift)
	magnitude, _ := fm.CreateFieldMagnitude(vector)

	cache := fm.CreateFieldcache()
	require.NoError(t, cache.SetRequestedDerivatives(2))
	require.NoError(t, cache.SetMeshLocation(domain.element, []float64{0, 0}))
	derivatives := evalDerivatives(t, cache, magnitude)
	assert.InDelta(t, 3.0/5.0, derivatives[0], 1e-12)
	assert.InDelta(t, 4.0/5.0, derivatives[1], 1e-12)
}
