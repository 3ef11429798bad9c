package zinc

import "fmt"

// Node is one point entity of a domain. Implementations come from the mesh
// layer; field evaluation needs only identity.
type Node interface {
	Identifier() int
}

// Element is one chart entity of a mesh, parameterised by xi coordinates of
// its dimension.
type Element interface {
	Identifier() int
	Dimension() int
}

// FieldDomain supplies the interpolation data a finite element field reads:
// basis weights within elements and stored parameters at nodes. Fields never
// see mesh topology directly.
type FieldDomain interface {
	// EvaluateBasis returns per-node interpolation weights at xi within
	// element, and their derivatives with respect to xi laid out
	// dWeights[k*dimension+d] for node index k.
	EvaluateBasis(element Element, xi []float64) (weights, dWeights []float64, err error)

	// ElementNodes returns the nodes whose parameters element interpolates,
	// ordered to match EvaluateBasis weights.
	ElementNodes(element Element) ([]Node, error)

	// NodeParameter returns the stored value of one component at node and
	// time, or ok=false when the field is not defined there.
	NodeParameter(node Node, component int, time float64) (value float64, ok bool)
}

// NodeParameterSetter is implemented by domains whose node parameters can be
// written, enabling Field.Assign at node locations.
type NodeParameterSetter interface {
	SetNodeParameter(node Node, component int, time float64, value float64) error
}

// Nodeset is an iterable group of nodes, the domain of nodeset aggregate
// fields.
type Nodeset interface {
	Name() string
	Size() int
	// ForEach visits each node until fn returns false.
	ForEach(fn func(Node) bool)
}

// finiteElementCore interpolates stored node parameters: directly at a node
// location, through basis weights at a mesh location.
type finiteElementCore struct {
	domain FieldDomain
}

func (c *finiteElementCore) TypeName() string { return "finite_element" }

func (c *finiteElementCore) Compare(other FieldCore) bool {
	o, ok := other.(*finiteElementCore)
	return ok && o.domain == c.domain
}

func (c *finiteElementCore) Evaluate(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error {
	switch cache.locationKind {
	case LocationNode:
		node := cache.node
		for comp := 0; comp < field.components; comp++ {
			value, ok := c.domain.NodeParameter(node, comp, cache.time)
			if !ok {
				return fmt.Errorf("%w: node %d", ErrNotDefinedAtLocation, node.Identifier())
			}
			valueCache.Values[comp] = value
		}
		return nil
	case LocationMesh:
		return c.evaluateInElement(cache, field, valueCache)
	}
	return ErrNotDefinedAtLocation
}

func (c *finiteElementCore) evaluateInElement(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error {
	element := cache.element
	weights, dWeights, err := c.domain.EvaluateBasis(element, cache.xi)
	if err != nil {
		return err
	}
	nodes, err := c.domain.ElementNodes(element)
	if err != nil {
		return err
	}
	if len(weights) != len(nodes) {
		return fmt.Errorf("%w: %d basis weights for %d element nodes",
			ErrInvalidArgument, len(weights), len(nodes))
	}
	dimension := element.Dimension()
	derivativeCount := cache.requestedDerivatives
	var derivatives []float64
	if derivativeCount > 0 {
		derivatives = valueCache.ensureDerivatives(field.components, derivativeCount)
		for i := range derivatives {
			derivatives[i] = 0.0
		}
	}
	for comp := 0; comp < field.components; comp++ {
		sum := 0.0
		for k, node := range nodes {
			value, ok := c.domain.NodeParameter(node, comp, cache.time)
			if !ok {
				return fmt.Errorf("%w: node %d", ErrNotDefinedAtLocation, node.Identifier())
			}
			sum += weights[k] * value
			for d := 0; d < derivativeCount; d++ {
				if d < dimension {
					derivatives[comp*derivativeCount+d] += dWeights[k*dimension+d] * value
				}
			}
		}
		valueCache.Values[comp] = sum
	}
	if derivativeCount > 0 {
		valueCache.DerivativesValid = true
	}
	return nil
}

func (c *finiteElementCore) assign(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error {
	if cache.locationKind != LocationNode {
		return fmt.Errorf("%w: assign requires a node location", ErrInvalidArgument)
	}
	setter, ok := c.domain.(NodeParameterSetter)
	if !ok {
		return ErrNotImplemented
	}
	for comp := 0; comp < field.components; comp++ {
		if err := setter.SetNodeParameter(cache.node, comp, cache.time, valueCache.Values[comp]); err != nil {
			return err
		}
	}
	return nil
}

// xiCoordinatesCore exposes the element parametric coordinate as a field with
// three components, padding unused dimensions with zero.
type xiCoordinatesCore struct{}

func (xiCoordinatesCore) TypeName() string { return "xi_coordinates" }

func (xiCoordinatesCore) Compare(other FieldCore) bool {
	_, ok := other.(xiCoordinatesCore)
	return ok
}

func (xiCoordinatesCore) Evaluate(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error {
	if cache.locationKind != LocationMesh {
		return ErrNotDefinedAtLocation
	}
	for comp := 0; comp < field.components; comp++ {
		if comp < len(cache.xi) {
			valueCache.Values[comp] = cache.xi[comp]
		} else {
			valueCache.Values[comp] = 0.0
		}
	}
	n := cache.requestedDerivatives
	if n > 0 {
		derivatives := valueCache.ensureDerivatives(field.components, n)
		for comp := 0; comp < field.components; comp++ {
			for d := 0; d < n; d++ {
				if comp == d {
					derivatives[comp*n+d] = 1.0
				} else {
					derivatives[comp*n+d] = 0.0
				}
			}
		}
		valueCache.DerivativesValid = true
	}
	return nil
}

// timeValueCore exposes the cache's current time as a single component field,
// defined at any location. Its xi derivatives are zero.
type timeValueCore struct{}

func (timeValueCore) TypeName() string { return "time_value" }

func (timeValueCore) Compare(other FieldCore) bool {
	_, ok := other.(timeValueCore)
	return ok
}

func (timeValueCore) Evaluate(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error {
	valueCache.Values[0] = cache.time
	if n := cache.requestedDerivatives; n > 0 {
		derivatives := valueCache.ensureDerivatives(1, n)
		for d := 0; d < n; d++ {
			derivatives[d] = 0.0
		}
		valueCache.DerivativesValid = true
	}
	return nil
}
