package zinc

import "fmt"

// constantCore yields fixed component values at every location, including the
// no-location state. Assignment rewrites the constant values, a definition
// change visible everywhere the field is used.
type constantCore struct{}

func (constantCore) TypeName() string { return "constant" }

func (constantCore) Compare(other FieldCore) bool {
	_, ok := other.(constantCore)
	return ok
}

func (constantCore) Evaluate(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error {
	copy(valueCache.Values, field.sourceValues)
	if n := cache.requestedDerivatives; n > 0 {
		derivatives := valueCache.ensureDerivatives(field.components, n)
		for i := range derivatives {
			derivatives[i] = 0.0
		}
		valueCache.DerivativesValid = true
	}
	return nil
}

func (constantCore) assign(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error {
	copy(field.sourceValues, valueCache.Values)
	if field.manager != nil {
		field.manager.recordChange(field, ChangeFlagDefinition)
	}
	// the new values are valid for this location despite the invalidation
	if n := cache.requestedDerivatives; n > 0 {
		derivatives := valueCache.ensureDerivatives(field.components, n)
		for i := range derivatives {
			derivatives[i] = 0.0
		}
		valueCache.DerivativesValid = true
	}
	return nil
}

// componentCore extracts selected components of its source field, in the
// given order.
type componentCore struct {
	indexes []int
}

func (c *componentCore) TypeName() string { return "component" }

func (c *componentCore) Compare(other FieldCore) bool {
	o, ok := other.(*componentCore)
	if !ok || len(o.indexes) != len(c.indexes) {
		return false
	}
	for i := range c.indexes {
		if c.indexes[i] != o.indexes[i] {
			return false
		}
	}
	return true
}

func (c *componentCore) Evaluate(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error {
	source, err := field.sourceFields[0].Evaluate(cache)
	if err != nil {
		return err
	}
	for i, index := range c.indexes {
		valueCache.Values[i] = source.Values[index]
	}
	n := cache.requestedDerivatives
	if n > 0 && source.DerivativesValid {
		derivatives := valueCache.ensureDerivatives(field.components, n)
		for i, index := range c.indexes {
			copy(derivatives[i*n:(i+1)*n], source.Derivatives[index*n:(index+1)*n])
		}
		valueCache.DerivativesValid = true
	}
	return nil
}

func (c *componentCore) commandString(field *Field) string {
	s := " components"
	for _, index := range c.indexes {
		s += fmt.Sprintf(" %d", index+1)
	}
	return s
}

// concatenateCore stacks the components of its source fields in order.
type concatenateCore struct{}

func (concatenateCore) TypeName() string { return "concatenate" }

func (concatenateCore) Compare(other FieldCore) bool {
	_, ok := other.(concatenateCore)
	return ok
}

func (concatenateCore) Evaluate(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error {
	n := cache.requestedDerivatives
	derivativesValid := n > 0
	offset := 0
	for _, sourceField := range field.sourceFields {
		source, err := sourceField.Evaluate(cache)
		if err != nil {
			return err
		}
		copy(valueCache.Values[offset:], source.Values)
		if derivativesValid && source.DerivativesValid {
			derivatives := valueCache.ensureDerivatives(field.components, n)
			copy(derivatives[offset*n:], source.Derivatives[:sourceField.components*n])
		} else {
			derivativesValid = false
		}
		offset += sourceField.components
	}
	valueCache.DerivativesValid = derivativesValid
	return nil
}

// identityCore passes its source through unchanged. Useful as a stable handle
// over a redefinable source.
type identityCore struct{}

func (identityCore) TypeName() string { return "identity" }

func (identityCore) Compare(other FieldCore) bool {
	_, ok := other.(identityCore)
	return ok
}

func (identityCore) Evaluate(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error {
	source, err := field.sourceFields[0].Evaluate(cache)
	if err != nil {
		return err
	}
	copy(valueCache.Values, source.Values)
	n := cache.requestedDerivatives
	if n > 0 && source.DerivativesValid {
		derivatives := valueCache.ensureDerivatives(field.components, n)
		copy(derivatives, source.Derivatives[:field.components*n])
		valueCache.DerivativesValid = true
	}
	return nil
}
