package zinc

import (
	"errors"
	"fmt"
)

type nodesetOp int

const (
	nodesetOpSum nodesetOp = iota
	nodesetOpMean
	nodesetOpMinimum
	nodesetOpMaximum
)

func (op nodesetOp) typeName() string {
	switch op {
	case nodesetOpSum:
		return "nodeset_sum"
	case nodesetOpMean:
		return "nodeset_mean"
	case nodesetOpMinimum:
		return "nodeset_minimum"
	case nodesetOpMaximum:
		return "nodeset_maximum"
	}
	return "nodeset_unknown"
}

// nodesetOperatorCore reduces its source field over all nodes of a nodeset.
// Evaluation iterates the nodeset in a child cache so the caller's location
// is untouched; nodes where the source is undefined are skipped. The result
// is the same at every location of the owning cache, and has no derivatives.
type nodesetOperatorCore struct {
	op      nodesetOp
	nodeset Nodeset
}

func (c *nodesetOperatorCore) TypeName() string { return c.op.typeName() }

func (c *nodesetOperatorCore) Compare(other FieldCore) bool {
	o, ok := other.(*nodesetOperatorCore)
	return ok && o.op == c.op && o.nodeset == c.nodeset
}

func (c *nodesetOperatorCore) Evaluate(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error {
	sourceField := field.sourceFields[0]
	components := field.components
	extra := cache.acquireExtraCache()
	defer cache.releaseExtraCache(extra)

	accumulator := make([]float64, components)
	values := make([]float64, components)
	definedNodes := 0
	var iterationErr error
	c.nodeset.ForEach(func(node Node) bool {
		if err := extra.SetNode(node); err != nil {
			iterationErr = err
			return false
		}
		if err := sourceField.EvaluateReal(extra, values); err != nil {
			if errors.Is(err, ErrNotDefinedAtLocation) {
				return true
			}
			iterationErr = err
			return false
		}
		if definedNodes == 0 {
			copy(accumulator, values)
		} else {
			switch c.op {
			case nodesetOpSum, nodesetOpMean:
				for comp := range accumulator {
					accumulator[comp] += values[comp]
				}
			case nodesetOpMinimum:
				for comp := range accumulator {
					if values[comp] < accumulator[comp] {
						accumulator[comp] = values[comp]
					}
				}
			case nodesetOpMaximum:
				for comp := range accumulator {
					if values[comp] > accumulator[comp] {
						accumulator[comp] = values[comp]
					}
				}
			}
		}
		definedNodes++
		return true
	})
	if iterationErr != nil {
		return iterationErr
	}
	if definedNodes == 0 {
		return fmt.Errorf("%w: source defined at no node of nodeset %q",
			ErrNotDefinedAtLocation, c.nodeset.Name())
	}
	if c.op == nodesetOpMean {
		scale := 1.0 / float64(definedNodes)
		for comp := range accumulator {
			accumulator[comp] *= scale
		}
	}
	copy(valueCache.Values, accumulator)
	return nil
}

func (c *nodesetOperatorCore) commandString(field *Field) string {
	return fmt.Sprintf(" nodeset %s", c.nodeset.Name())
}
