package zinc

import (
	"gonum.org/v1/gonum/floats"
)

// addCore computes the componentwise sum of two equal-length fields.
type addCore struct{}

func (addCore) TypeName() string { return "add" }

func (addCore) Compare(other FieldCore) bool {
	_, ok := other.(addCore)
	return ok
}

func (addCore) Evaluate(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error {
	source1, err := field.sourceFields[0].Evaluate(cache)
	if err != nil {
		return err
	}
	source2, err := field.sourceFields[1].Evaluate(cache)
	if err != nil {
		return err
	}
	floats.AddTo(valueCache.Values, source1.Values, source2.Values)
	n := cache.requestedDerivatives
	if n > 0 && source1.DerivativesValid && source2.DerivativesValid {
		count := field.components * n
		derivatives := valueCache.ensureDerivatives(field.components, n)
		floats.AddTo(derivatives, source1.Derivatives[:count], source2.Derivatives[:count])
		valueCache.DerivativesValid = true
	}
	return nil
}

// subtractCore computes the componentwise difference of two fields.
type subtractCore struct{}

func (subtractCore) TypeName() string { return "subtract" }

func (subtractCore) Compare(other FieldCore) bool {
	_, ok := other.(subtractCore)
	return ok
}

func (subtractCore) Evaluate(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error {
	source1, err := field.sourceFields[0].Evaluate(cache)
	if err != nil {
		return err
	}
	source2, err := field.sourceFields[1].Evaluate(cache)
	if err != nil {
		return err
	}
	floats.SubTo(valueCache.Values, source1.Values, source2.Values)
	n := cache.requestedDerivatives
	if n > 0 && source1.DerivativesValid && source2.DerivativesValid {
		count := field.components * n
		derivatives := valueCache.ensureDerivatives(field.components, n)
		floats.SubTo(derivatives, source1.Derivatives[:count], source2.Derivatives[:count])
		valueCache.DerivativesValid = true
	}
	return nil
}

// multiplyCore computes the componentwise product, with product rule
// derivatives.
type multiplyCore struct{}

func (multiplyCore) TypeName() string { return "multiply" }

func (multiplyCore) Compare(other FieldCore) bool {
	_, ok := other.(multiplyCore)
	return ok
}

func (multiplyCore) Evaluate(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error {
	source1, err := field.sourceFields[0].Evaluate(cache)
	if err != nil {
		return err
	}
	source2, err := field.sourceFields[1].Evaluate(cache)
	if err != nil {
		return err
	}
	floats.MulTo(valueCache.Values, source1.Values, source2.Values)
	n := cache.requestedDerivatives
	if n > 0 && source1.DerivativesValid && source2.DerivativesValid {
		derivatives := valueCache.ensureDerivatives(field.components, n)
		for comp := 0; comp < field.components; comp++ {
			for d := 0; d < n; d++ {
				derivatives[comp*n+d] = source1.Values[comp]*source2.Derivatives[comp*n+d] +
					source2.Values[comp]*source1.Derivatives[comp*n+d]
			}
		}
		valueCache.DerivativesValid = true
	}
	return nil
}

// divideCore computes the componentwise quotient, with quotient rule
// derivatives. Division by zero yields Inf or NaN in the usual floating point
// manner rather than an error.
type divideCore struct{}

func (divideCore) TypeName() string { return "divide" }

func (divideCore) Compare(other FieldCore) bool {
	_, ok := other.(divideCore)
	return ok
}

func (divideCore) Evaluate(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error {
	source1, err := field.sourceFields[0].Evaluate(cache)
	if err != nil {
		return err
	}
	source2, err := field.sourceFields[1].Evaluate(cache)
	if err != nil {
		return err
	}
	floats.DivTo(valueCache.Values, source1.Values, source2.Values)
	n := cache.requestedDerivatives
	if n > 0 && source1.DerivativesValid && source2.DerivativesValid {
		derivatives := valueCache.ensureDerivatives(field.components, n)
		for comp := 0; comp < field.components; comp++ {
			denominator := source2.Values[comp] * source2.Values[comp]
			for d := 0; d < n; d++ {
				derivatives[comp*n+d] = (source1.Derivatives[comp*n+d]*source2.Values[comp] -
					source1.Values[comp]*source2.Derivatives[comp*n+d]) / denominator
			}
		}
		valueCache.DerivativesValid = true
	}
	return nil
}

// sumComponentsCore reduces a field to the single-component sum of its
// components.
type sumComponentsCore struct{}

func (sumComponentsCore) TypeName() string { return "sum_components" }

func (sumComponentsCore) Compare(other FieldCore) bool {
	_, ok := other.(sumComponentsCore)
	return ok
}

func (sumComponentsCore) Evaluate(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error {
	source, err := field.sourceFields[0].Evaluate(cache)
	if err != nil {
		return err
	}
	valueCache.Values[0] = floats.Sum(source.Values)
	n := cache.requestedDerivatives
	if n > 0 && source.DerivativesValid {
		derivatives := valueCache.ensureDerivatives(1, n)
		sourceComponents := field.sourceFields[0].components
		for d := 0; d < n; d++ {
			sum := 0.0
			for comp := 0; comp < sourceComponents; comp++ {
				sum += source.Derivatives[comp*n+d]
			}
			derivatives[d] = sum
		}
		valueCache.DerivativesValid = true
	}
	return nil
}
