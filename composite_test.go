package zinc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComponentExtraction(t *testing.T) {
	fm := NewFieldmodule("test")
	cache := fm.CreateFieldcache()

	a, _ := fm.CreateFieldConstant([]float64{10, 20, 30, 40})
	picked, err := fm.CreateFieldComponent(a, []int{3, 1})
	require.NoError(t, err)
	require.Equal(t, 2, picked.NumberOfComponents())
	assert.Equal(t, []float64{40, 20}, evalReal(t, cache, picked))
}

func TestComponentRejectsOutOfRange(t *testing.T) {
	fm := NewFieldmodule("test")

	a, _ := fm.CreateFieldConstant([]float64{1, 2})
	_, err := fm.CreateFieldComponent(a, []int{2})
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = fm.CreateFieldComponent(a, []int{-1})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestConcatenate(t *testing.T) {
	fm := NewFieldmodule("test")
	cache := fm.CreateFieldcache()

	a, _ := fm.CreateFieldConstant([]float64{1, 2})
	b, _ := fm.CreateFieldConstant([]float64{3})
	c, _ := fm.CreateFieldConstant([]float64{4, 5})
	stacked, err := fm.CreateFieldConcatenate([]*Field{a, b, c})
	require.NoError(t, err)
	require.Equal(t, 5, stacked.NumberOfComponents())
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, evalReal(t, cache, stacked))
}

func TestIdentityFollowsSource(t *testing.T) {
	fm := NewFieldmodule("test")
	cache := fm.CreateFieldcache()

	a, _ := fm.CreateFieldConstant([]float64{1, 2})
	alias, err := fm.CreateFieldIdentity(a)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2}, evalReal(t, cache, alias))

	require.NoError(t, a.Assign(cache, []float64{8, 9}))
	assert.Equal(t, []float64{8, 9}, evalReal(t, cache, alias))
}

func TestIfSelectsPerComponent(t *testing.T) {
	fm := NewFieldmodule("test")
	cache := fm.CreateFieldcache()

	condition, _ := fm.CreateFieldConstant([]float64{1, 0, -0.5})
	whenTrue, _ := fm.CreateFieldConstant([]float64{10, 20, 30})
	whenFalse, _ := fm.CreateFieldConstant([]float64{-1, -2, -3})
	conditional, err := fm.CreateFieldIf(condition, whenTrue, whenFalse)
	require.NoError(t, err)
	// nonzero picks the first branch, including negative values
	assert.Equal(t, []float64{10, -2, 30}, evalReal(t, cache, conditional))
}

func TestIfSkipsUnselectedUndefinedBranch(t *testing.T) {
	fm := NewFieldmodule("test")
	cache := fm.CreateFieldcache()

	zero, _ := fm.CreateFieldConstant([]float64{0, 0})
	undefined, _ := fm.CreateFieldNormalise(zero)
	defined, _ := fm.CreateFieldConstant([]float64{7, 8})

	selectFirst, _ := fm.CreateFieldConstant([]float64{1, 1})
	conditional, err := fm.CreateFieldIf(selectFirst, defined, undefined)
	require.NoError(t, err)
	assert.Equal(t, []float64{7, 8}, evalReal(t, cache, conditional))

	// an undefined branch still fails where the condition selects it
	mixed, _ := fm.CreateFieldConstant([]float64{1, 0})
	partial, err := fm.CreateFieldIf(mixed, defined, undefined)
	require.NoError(t, err)
	out := make([]float64, 2)
	assert.ErrorIs(t, partial.EvaluateReal(cache, out), ErrNotDefinedAtLocation)
}

func TestIfRejectsMismatchedComponents(t *testing.T) {
	fm := NewFieldmodule("test")

	condition, _ := fm.CreateFieldConstant([]float64{1})
	a, _ := fm.CreateFieldConstant([]float64{1, 2})
	b, _ := fm.CreateFieldConstant([]float64{3, 4})
	_, err := fm.CreateFieldIf(condition, a, b)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
