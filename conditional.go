package zinc

// ifCore selects per component between two branches on a condition field:
// nonzero condition picks the first branch. All three sources have the same
// component count.
//
// Only the branches the condition actually selects are evaluated, so the
// field remains defined where an unselected branch is not.
type ifCore struct{}

func (ifCore) TypeName() string { return "if" }

func (ifCore) Compare(other FieldCore) bool {
	_, ok := other.(ifCore)
	return ok
}

func (ifCore) Evaluate(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error {
	condition, err := field.sourceFields[0].Evaluate(cache)
	if err != nil {
		return err
	}
	needsFirst, needsSecond := false, false
	for comp := 0; comp < field.components; comp++ {
		if condition.Values[comp] != 0.0 {
			needsFirst = true
		} else {
			needsSecond = true
		}
	}
	var source1, source2 *FieldValueCache
	if needsFirst {
		if source1, err = field.sourceFields[1].Evaluate(cache); err != nil {
			return err
		}
	}
	if needsSecond {
		if source2, err = field.sourceFields[2].Evaluate(cache); err != nil {
			return err
		}
	}
	n := cache.requestedDerivatives
	withDerivatives := n > 0 &&
		(!needsFirst || source1.DerivativesValid) &&
		(!needsSecond || source2.DerivativesValid)
	var derivatives []float64
	if withDerivatives {
		derivatives = valueCache.ensureDerivatives(field.components, n)
	}
	for comp := 0; comp < field.components; comp++ {
		chosen := source2
		if condition.Values[comp] != 0.0 {
			chosen = source1
		}
		valueCache.Values[comp] = chosen.Values[comp]
		if withDerivatives {
			copy(derivatives[comp*n:(comp+1)*n], chosen.Derivatives[comp*n:(comp+1)*n])
		}
	}
	valueCache.DerivativesValid = withDerivatives
	return nil
}
