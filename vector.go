package zinc

import (
	"gonum.org/v1/gonum/floats"
)

// dotProductCore computes the scalar product of two equal-length vector
// fields. Derivative by the product rule summed over components.
type dotProductCore struct{}

func (dotProductCore) TypeName() string { return "dot_product" }

func (dotProductCore) Compare(other FieldCore) bool {
	_, ok := other.(dotProductCore)
	return ok
}

func (dotProductCore) Evaluate(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error {
	source1, err := field.sourceFields[0].Evaluate(cache)
	if err != nil {
		return err
	}
	source2, err := field.sourceFields[1].Evaluate(cache)
	if err != nil {
		return err
	}
	valueCache.Values[0] = floats.Dot(source1.Values, source2.Values)
	n := cache.requestedDerivatives
	if n > 0 && source1.DerivativesValid && source2.DerivativesValid {
		derivatives := valueCache.ensureDerivatives(1, n)
		sourceComponents := field.sourceFields[0].components
		for d := 0; d < n; d++ {
			sum := 0.0
			for comp := 0; comp < sourceComponents; comp++ {
				sum += source1.Values[comp]*source2.Derivatives[comp*n+d] +
					source2.Values[comp]*source1.Derivatives[comp*n+d]
			}
			derivatives[d] = sum
		}
		valueCache.DerivativesValid = true
	}
	return nil
}

// crossProductCore computes the cross product of two 3-component fields.
type crossProductCore struct{}

func (crossProductCore) TypeName() string { return "cross_product" }

func (crossProductCore) Compare(other FieldCore) bool {
	_, ok := other.(crossProductCore)
	return ok
}

func (crossProductCore) Evaluate(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error {
	source1, err := field.sourceFields[0].Evaluate(cache)
	if err != nil {
		return err
	}
	source2, err := field.sourceFields[1].Evaluate(cache)
	if err != nil {
		return err
	}
	a := source1.Values
	b := source2.Values
	valueCache.Values[0] = a[1]*b[2] - a[2]*b[1]
	valueCache.Values[1] = a[2]*b[0] - a[0]*b[2]
	valueCache.Values[2] = a[0]*b[1] - a[1]*b[0]
	n := cache.requestedDerivatives
	if n > 0 && source1.DerivativesValid && source2.DerivativesValid {
		derivatives := valueCache.ensureDerivatives(3, n)
		da := source1.Derivatives
		db := source2.Derivatives
		for d := 0; d < n; d++ {
			derivatives[0*n+d] = da[1*n+d]*b[2] + a[1]*db[2*n+d] - da[2*n+d]*b[1] - a[2]*db[1*n+d]
			derivatives[1*n+d] = da[2*n+d]*b[0] + a[2]*db[0*n+d] - da[0*n+d]*b[2] - a[0]*db[2*n+d]
			derivatives[2*n+d] = da[0*n+d]*b[1] + a[0]*db[1*n+d] - da[1*n+d]*b[0] - a[1]*db[0*n+d]
		}
		valueCache.DerivativesValid = true
	}
	return nil
}

// magnitudeCore computes the Euclidean norm of its source vector.
// d|a|/dxi = (a . da/dxi) / |a|.
type magnitudeCore struct{}

func (magnitudeCore) TypeName() string { return "magnitude" }

func (magnitudeCore) Compare(other FieldCore) bool {
	_, ok := other.(magnitudeCore)
	return ok
}

func (magnitudeCore) Evaluate(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error {
	source, err := field.sourceFields[0].Evaluate(cache)
	if err != nil {
		return err
	}
	magnitude := floats.Norm(source.Values, 2)
	valueCache.Values[0] = magnitude
	n := cache.requestedDerivatives
	if n > 0 && source.DerivativesValid && magnitude > 0.0 {
		derivatives := valueCache.ensureDerivatives(1, n)
		sourceComponents := field.sourceFields[0].components
		for d := 0; d < n; d++ {
			sum := 0.0
			for comp := 0; comp < sourceComponents; comp++ {
				sum += source.Values[comp] * source.Derivatives[comp*n+d]
			}
			derivatives[d] = sum / magnitude
		}
		valueCache.DerivativesValid = true
	}
	return nil
}

// normaliseCore scales its source vector to unit magnitude. A zero vector is
// not defined. d(a/|a|)/dxi = da/|a| - a (a . da) / |a|^3.
type normaliseCore struct{}

func (normaliseCore) TypeName() string { return "normalise" }

func (normaliseCore) Compare(other FieldCore) bool {
	_, ok := other.(normaliseCore)
	return ok
}

func (normaliseCore) Evaluate(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error {
	source, err := field.sourceFields[0].Evaluate(cache)
	if err != nil {
		return err
	}
	magnitude := floats.Norm(source.Values, 2)
	if magnitude == 0.0 {
		return ErrNotDefinedAtLocation
	}
	scale := 1.0 / magnitude
	for comp := 0; comp < field.components; comp++ {
		valueCache.Values[comp] = source.Values[comp] * scale
	}
	n := cache.requestedDerivatives
	if n > 0 && source.DerivativesValid {
		derivatives := valueCache.ensureDerivatives(field.components, n)
		cube := scale * scale * scale
		for d := 0; d < n; d++ {
			dot := 0.0
			for comp := 0; comp < field.components; comp++ {
				dot += source.Values[comp] * source.Derivatives[comp*n+d]
			}
			for comp := 0; comp < field.components; comp++ {
				derivatives[comp*n+d] = source.Derivatives[comp*n+d]*scale -
					source.Values[comp]*dot*cube
			}
		}
		valueCache.DerivativesValid = true
	}
	return nil
}
