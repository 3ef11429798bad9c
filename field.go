package zinc

import (
	"fmt"
	"strings"
)

// CoordinateSystem tags how a field's component values are interpreted
// geometrically. It does not affect evaluation.
type CoordinateSystem int

const (
	CoordinateSystemRectangularCartesian CoordinateSystem = iota
	CoordinateSystemCylindricalPolar
	CoordinateSystemSphericalPolar
	CoordinateSystemProlateSpheroidal
	CoordinateSystemOblateSpheroidal
	CoordinateSystemFibre
	CoordinateSystemNotApplicable
)

func (cs CoordinateSystem) String() string {
	switch cs {
	case CoordinateSystemRectangularCartesian:
		return "rectangular_cartesian"
	case CoordinateSystemCylindricalPolar:
		return "cylindrical_polar"
	case CoordinateSystemSphericalPolar:
		return "spherical_polar"
	case CoordinateSystemProlateSpheroidal:
		return "prolate_spheroidal"
	case CoordinateSystemOblateSpheroidal:
		return "oblate_spheroidal"
	case CoordinateSystemFibre:
		return "fibre"
	case CoordinateSystemNotApplicable:
		return "not_applicable"
	}
	return "unknown"
}

// FieldCore is the operator-specific behaviour of a field: one implementation
// per field type. Evaluate must be a pure function of the source field values
// and derivatives at the cache's current location, writing only to valueCache.
type FieldCore interface {
	// TypeName returns the field type identifier, e.g. "matrix_invert".
	TypeName() string

	// Compare reports whether other is the same concrete type with identical
	// operator-specific parameters. Source fields are compared separately by
	// identity.
	Compare(other FieldCore) bool

	// Evaluate computes values (and derivatives if requested and available)
	// into valueCache. Source fields are evaluated recursively against the
	// same cache.
	Evaluate(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error
}

// valueCacheCreator is implemented by cores needing operator-private scratch
// space in their value cache, sized once at cache creation.
type valueCacheCreator interface {
	createValueCache(cache *Fieldcache, field *Field) *FieldValueCache
}

// assigner is implemented by cores whose fields are settable.
type assigner interface {
	assign(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error
}

// commandStringer is implemented by cores with extra parameters to report in
// the field's command string.
type commandStringer interface {
	commandString(field *Field) string
}

// Field is one node in the evaluation graph: a computed quantity with a fixed
// number of real components. Fields are immutable once constructed; they are
// redefined, not mutated (see Fieldmodule.SetReplaceField).
//
// Ownership runs strictly downward: a field holds an access on each of its
// source fields. The reverse direction, the dependents set, is non-owning and
// exists only to drive change propagation.
type Field struct {
	name             string
	components       int
	coordinateSystem CoordinateSystem
	managed          bool
	accessCount      int
	sourceFields     []*Field
	sourceValues     []float64
	core             FieldCore
	manager          *Manager
	dependents       map[*Field]struct{}
}

func newField(components int, sourceFields []*Field, sourceValues []float64, core FieldCore) *Field {
	f := &Field{
		components:       components,
		coordinateSystem: CoordinateSystemRectangularCartesian,
		accessCount:      1,
		sourceFields:     make([]*Field, len(sourceFields)),
		sourceValues:     append([]float64(nil), sourceValues...),
		core:             core,
		dependents:       make(map[*Field]struct{}),
	}
	for i, source := range sourceFields {
		f.sourceFields[i] = source.Access()
		source.dependents[f] = struct{}{}
	}
	return f
}

// Access increments the field's reference count and returns the same field.
func (f *Field) Access() *Field {
	f.accessCount++
	return f
}

// Deaccess decrements the reference count of *fp and clears the caller's
// handle. The field is destroyed when the count reaches zero, or removed from
// its manager when unmanaged and only the manager's own hold remains.
func Deaccess(fp **Field) {
	f := *fp
	*fp = nil
	if f == nil {
		return
	}
	f.accessCount--
	if f.accessCount <= 0 {
		f.destroy()
		return
	}
	if f.manager != nil && !f.managed && f.accessCount == 1 {
		// only the manager's hold remains
		f.manager.removeField(f)
	}
}

func (f *Field) destroy() {
	for i := range f.sourceFields {
		delete(f.sourceFields[i].dependents, f)
		Deaccess(&f.sourceFields[i])
	}
	f.sourceFields = nil
	f.dependents = nil
	f.core = nil
}

// AccessCount returns the current reference count, for diagnostics.
func (f *Field) AccessCount() int {
	return f.accessCount
}

// Name returns the field's name, unique within its owning region.
func (f *Field) Name() string {
	return f.name
}

// SetName renames the field, reporting an identifier change. Fails if another
// field in the same region already has the name.
func (f *Field) SetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty field name", ErrInvalidArgument)
	}
	if name == f.name {
		return nil
	}
	if f.manager != nil {
		return f.manager.renameField(f, name)
	}
	f.name = name
	return nil
}

// NumberOfComponents returns the fixed component count.
func (f *Field) NumberOfComponents() int {
	return f.components
}

func (f *Field) CoordinateSystem() CoordinateSystem {
	return f.coordinateSystem
}

// SetCoordinateSystem changes the geometric interpretation tag, reporting a
// definition change.
func (f *Field) SetCoordinateSystem(cs CoordinateSystem) {
	if cs == f.coordinateSystem {
		return
	}
	f.coordinateSystem = cs
	if f.manager != nil {
		f.manager.recordChange(f, ChangeFlagDefinition)
	}
}

// IsManaged reports whether the field persists with no external references.
func (f *Field) IsManaged() bool {
	return f.managed
}

// SetManaged changes whether the field persists in its region with no
// external references. Unmanaging a field with no external references removes
// it immediately.
func (f *Field) SetManaged(managed bool) {
	if managed == f.managed {
		return
	}
	f.managed = managed
	if f.manager == nil {
		return
	}
	f.manager.recordChange(f, ChangeFlagMetadata)
	if !managed && f.accessCount == 1 {
		f.manager.removeField(f)
	}
}

// TypeName returns the field type identifier, e.g. "eigenvalues".
func (f *Field) TypeName() string {
	if f.core == nil {
		return ""
	}
	return f.core.TypeName()
}

// SourceFieldCount returns the number of operand fields.
func (f *Field) SourceFieldCount() int {
	return len(f.sourceFields)
}

// SourceField returns the operand field at index. The returned field is not
// additionally accessed.
func (f *Field) SourceField(index int) (*Field, error) {
	if index < 0 || index >= len(f.sourceFields) {
		return nil, fmt.Errorf("%w: source field index %d out of range [0,%d)",
			ErrInvalidArgument, index, len(f.sourceFields))
	}
	return f.sourceFields[index], nil
}

// SourceValueCount returns the number of numeric operator parameters.
func (f *Field) SourceValueCount() int {
	return len(f.sourceValues)
}

func (f *Field) SourceValue(index int) (float64, error) {
	if index < 0 || index >= len(f.sourceValues) {
		return 0, fmt.Errorf("%w: source value index %d out of range [0,%d)",
			ErrInvalidArgument, index, len(f.sourceValues))
	}
	return f.sourceValues[index], nil
}

// Compare reports whether other has the same concrete operator type with
// identical parameters, identical (by identity) source fields and the same
// component count. Used to detect "would create a duplicate field" when
// redefining; it is not structural hashing across distinct graphs.
func (f *Field) Compare(other *Field) bool {
	if f == nil || other == nil || f.core == nil || other.core == nil {
		return false
	}
	if f.components != other.components ||
		len(f.sourceFields) != len(other.sourceFields) ||
		len(f.sourceValues) != len(other.sourceValues) {
		return false
	}
	if !f.core.Compare(other.core) {
		return false
	}
	for i := range f.sourceFields {
		if f.sourceFields[i] != other.sourceFields[i] {
			return false
		}
	}
	for i := range f.sourceValues {
		if f.sourceValues[i] != other.sourceValues[i] {
			return false
		}
	}
	return true
}

// DependsOnField reports whether other is reachable from f through any chain
// of source fields, including f == other. Used for the construction-time
// cycle check on redefinition.
func (f *Field) DependsOnField(other *Field) bool {
	if f == other {
		return true
	}
	// iterative walk, diamond-safe
	visited := map[*Field]bool{}
	stack := make([]*Field, 0, 8)
	stack = append(stack, f.sourceFields...)
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[current] {
			continue
		}
		visited[current] = true
		if current == other {
			return true
		}
		stack = append(stack, current.sourceFields...)
	}
	return false
}

// Evaluate computes the field's value at the cache's current location,
// reusing the cached result when still valid for that location. Each field is
// computed at most once per location per cache.
func (f *Field) Evaluate(cache *Fieldcache) (*FieldValueCache, error) {
	if cache == nil {
		return nil, fmt.Errorf("%w: nil fieldcache", ErrInvalidArgument)
	}
	valueCache := cache.valueCache(f)
	if valueCache.stamp == cache.locationStamp {
		cache.record(f, EvaluationCached)
		return valueCache, nil
	}
	valueCache.DerivativesValid = false
	if err := f.core.Evaluate(cache, f, valueCache); err != nil {
		cache.record(f, EvaluationFailed)
		return nil, evaluateError(f, err, "evaluate")
	}
	valueCache.stamp = cache.locationStamp
	cache.record(f, EvaluationComputed)
	return valueCache, nil
}

// EvaluateReal evaluates the field and copies its component values into out,
// which must have length NumberOfComponents.
func (f *Field) EvaluateReal(cache *Fieldcache, out []float64) error {
	if len(out) != f.components {
		return fmt.Errorf("%w: out has %d values, field has %d components",
			ErrInvalidArgument, len(out), f.components)
	}
	valueCache, err := f.Evaluate(cache)
	if err != nil {
		return err
	}
	copy(out, valueCache.Values)
	return nil
}

// EvaluateDerivatives evaluates the field and copies its derivative values
// into out, laid out component-major: out[c*n+d] is the derivative of
// component c in direction d, with n the cache's requested derivative count.
// Fails if derivatives are not available at the location.
func (f *Field) EvaluateDerivatives(cache *Fieldcache, out []float64) error {
	if cache == nil {
		return fmt.Errorf("%w: nil fieldcache", ErrInvalidArgument)
	}
	n := cache.requestedDerivatives
	if n < 1 {
		return fmt.Errorf("%w: no derivatives requested on cache", ErrInvalidArgument)
	}
	if len(out) != f.components*n {
		return fmt.Errorf("%w: out has %d values, need %d", ErrInvalidArgument, len(out), f.components*n)
	}
	valueCache, err := f.Evaluate(cache)
	if err != nil {
		return err
	}
	if !valueCache.DerivativesValid {
		return evaluateError(f, ErrNotDefinedAtLocation, "derivatives not available")
	}
	copy(out, valueCache.Derivatives[:f.components*n])
	return nil
}

// Assign sets the field's value at the cache's current location for settable
// field types. The result is cached as the field's value at the location.
// Fields that are not settable return ErrNotImplemented.
func (f *Field) Assign(cache *Fieldcache, values []float64) error {
	if cache == nil {
		return fmt.Errorf("%w: nil fieldcache", ErrInvalidArgument)
	}
	if len(values) != f.components {
		return fmt.Errorf("%w: %d values for %d components", ErrInvalidArgument, len(values), f.components)
	}
	a, ok := f.core.(assigner)
	if !ok {
		return evaluateError(f, ErrNotImplemented, "assign")
	}
	valueCache := cache.valueCache(f)
	copy(valueCache.Values, values)
	valueCache.DerivativesValid = false
	if err := a.assign(cache, f, valueCache); err != nil {
		valueCache.stamp = 0
		return evaluateError(f, err, "assign")
	}
	valueCache.stamp = cache.locationStamp
	return nil
}

// CommandString returns a reproducible textual definition of the field:
// the type name followed by operator parameters and source field names.
func (f *Field) CommandString() string {
	var sb strings.Builder
	sb.WriteString(f.TypeName())
	if cs, ok := f.core.(commandStringer); ok {
		sb.WriteString(cs.commandString(f))
	}
	if len(f.sourceFields) > 0 {
		if len(f.sourceFields) == 1 {
			sb.WriteString(" field")
		} else {
			sb.WriteString(" fields")
		}
		for _, source := range f.sourceFields {
			sb.WriteString(" ")
			sb.WriteString(source.name)
		}
	}
	if len(f.sourceValues) > 0 {
		sb.WriteString(" values")
		for _, v := range f.sourceValues {
			fmt.Fprintf(&sb, " %g", v)
		}
	}
	return sb.String()
}

func (f *Field) String() string {
	return fmt.Sprintf("%s (%s, %d components)", f.name, f.TypeName(), f.components)
}
