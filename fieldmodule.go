package zinc

import (
	"fmt"
	"log/slog"
)

// Fieldmodule is the creation interface for fields of one region. It holds
// modal attributes applied to the next field created: the name to give it,
// its coordinate system, and optionally an existing field to redefine in
// place.
//
// Fieldmodules are lightweight; several may exist over the same region's
// manager.
type Fieldmodule struct {
	manager *Manager

	fieldName           string
	coordinateSystem    CoordinateSystem
	coordinateSystemSet bool
	replaceField        *Field
}

// FieldmoduleOption configures the region owned by a new Fieldmodule.
type FieldmoduleOption func(*fieldmoduleConfig)

type fieldmoduleConfig struct {
	logHandler slog.Handler
}

// WithLogger routes region warnings and change logging through handler.
// Without it the region is silent.
func WithLogger(handler slog.Handler) FieldmoduleOption {
	return func(cfg *fieldmoduleConfig) {
		cfg.logHandler = handler
	}
}

// NewFieldmodule creates a fieldmodule over a new region of the given name.
func NewFieldmodule(regionName string, opts ...FieldmoduleOption) *Fieldmodule {
	cfg := fieldmoduleConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	var logger *slog.Logger
	if cfg.logHandler != nil {
		logger = slog.New(cfg.logHandler)
	}
	return &Fieldmodule{manager: newManager(regionName, logger)}
}

// Manager returns the region's field manager.
func (fm *Fieldmodule) Manager() *Manager {
	return fm.manager
}

// Name returns the region's name.
func (fm *Fieldmodule) Name() string {
	return fm.manager.Name()
}

// BeginChange starts a change block on the region; see Manager.BeginChange.
func (fm *Fieldmodule) BeginChange() {
	fm.manager.BeginChange()
}

// EndChange closes a change block on the region; see Manager.EndChange.
func (fm *Fieldmodule) EndChange() error {
	return fm.manager.EndChange()
}

// FindFieldByName returns the named field accessed for the caller, or nil.
func (fm *Fieldmodule) FindFieldByName(name string) *Field {
	return fm.manager.FindFieldByName(name)
}

// CreateFieldcache creates an evaluation cache over the region's fields.
func (fm *Fieldmodule) CreateFieldcache(opts ...FieldcacheOption) *Fieldcache {
	return newFieldcache(fm.manager, opts...)
}

// CreateNotifier creates a notifier for the region's field change events.
func (fm *Fieldmodule) CreateNotifier() *Notifier {
	return fm.manager.createNotifier()
}

// SetFieldName sets the name given to the next field created. Cleared after
// one use; an empty name means an automatic temp_N name.
func (fm *Fieldmodule) SetFieldName(name string) {
	fm.fieldName = name
}

// SetCoordinateSystem sets the coordinate system given to the next field
// created. Cleared after one use.
func (fm *Fieldmodule) SetCoordinateSystem(cs CoordinateSystem) {
	fm.coordinateSystem = cs
	fm.coordinateSystemSet = true
}

// SetReplaceField arranges for the next field created to redefine target in
// place instead of making a new field: target keeps its name, handles and
// dependents while taking the new operator and sources. Cleared after one
// use. Pass nil to cancel.
func (fm *Fieldmodule) SetReplaceField(target *Field) error {
	if target != nil && target.manager != fm.manager {
		return fmt.Errorf("%w: replace field belongs to another region", ErrInvalidArgument)
	}
	fm.replaceField = target
	return nil
}

// createField is the single construction path behind every factory: it
// validates sources, applies then clears the modal attributes, and either
// redefines the replace field in place, returns an identically-defined
// existing field, or registers a new one.
func (fm *Fieldmodule) createField(components int, sourceFields []*Field, sourceValues []float64, core FieldCore) (*Field, error) {
	if components < 1 {
		return nil, fmt.Errorf("%w: field needs at least 1 component", ErrInvalidArgument)
	}
	for _, source := range sourceFields {
		if source == nil {
			return nil, fmt.Errorf("%w: nil source field", ErrInvalidArgument)
		}
		if source.manager != fm.manager {
			return nil, fmt.Errorf("%w: source field %q belongs to another region",
				ErrInvalidArgument, source.name)
		}
	}
	name := fm.fieldName
	coordinateSystem := fm.coordinateSystem
	coordinateSystemSet := fm.coordinateSystemSet
	replaceField := fm.replaceField
	fm.fieldName = ""
	fm.coordinateSystemSet = false
	fm.replaceField = nil

	if replaceField != nil {
		return fm.redefineField(replaceField, components, sourceFields, sourceValues, core)
	}

	fm.manager.BeginChange()
	defer fm.manager.EndChange()

	if name != "" {
		if existing := fm.manager.FindFieldByName(name); existing != nil {
			candidate := newField(components, sourceFields, sourceValues, core)
			same := existing.Compare(candidate)
			candidate.accessCount = 0
			candidate.destroy()
			if same {
				return existing, nil
			}
			Deaccess(&existing)
			return nil, fmt.Errorf("%w: field %q exists with a different definition",
				ErrInvalidArgument, name)
		}
	}
	field := newField(components, sourceFields, sourceValues, core)
	if coordinateSystemSet {
		field.coordinateSystem = coordinateSystem
	}
	if err := fm.manager.addField(field, name); err != nil {
		field.accessCount = 0
		field.destroy()
		return nil, err
	}
	return field, nil
}

// redefineField swaps target's definition for the new one, keeping its name
// and identity. The new sources must not depend on target.
func (fm *Fieldmodule) redefineField(target *Field, components int, sourceFields []*Field, sourceValues []float64, core FieldCore) (*Field, error) {
	if components != target.components {
		return nil, fmt.Errorf("%w: redefinition changes component count from %d to %d",
			ErrInvalidArgument, target.components, components)
	}
	for _, source := range sourceFields {
		if source.DependsOnField(target) {
			return nil, fmt.Errorf("%w: redefinition of %q through source %q would create a cycle",
				ErrInvalidArgument, target.name, source.name)
		}
	}
	fm.manager.BeginChange()
	defer fm.manager.EndChange()

	oldSources := target.sourceFields
	target.sourceFields = make([]*Field, len(sourceFields))
	for i, source := range sourceFields {
		target.sourceFields[i] = source.Access()
		source.dependents[target] = struct{}{}
	}
	target.sourceValues = append([]float64(nil), sourceValues...)
	target.core = core
	for i := range oldSources {
		delete(oldSources[i].dependents, target)
		Deaccess(&oldSources[i])
	}
	fm.manager.recordChange(target, ChangeFlagDefinition)
	return target.Access(), nil
}

// CreateFieldConstant creates a field with fixed values at every location,
// one component per value.
func (fm *Fieldmodule) CreateFieldConstant(values []float64) (*Field, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("%w: constant needs at least 1 value", ErrInvalidArgument)
	}
	return fm.createField(len(values), nil, values, constantCore{})
}

func (fm *Fieldmodule) createBinaryComponentwise(f1, f2 *Field, core FieldCore) (*Field, error) {
	if f1 == nil || f2 == nil {
		return nil, fmt.Errorf("%w: nil source field", ErrInvalidArgument)
	}
	if f1.components != f2.components {
		return nil, fmt.Errorf("%w: source fields have %d and %d components",
			ErrInvalidArgument, f1.components, f2.components)
	}
	return fm.createField(f1.components, []*Field{f1, f2}, nil, core)
}

// CreateFieldAdd creates the componentwise sum of two equal-length fields.
func (fm *Fieldmodule) CreateFieldAdd(f1, f2 *Field) (*Field, error) {
	return fm.createBinaryComponentwise(f1, f2, addCore{})
}

// CreateFieldSubtract creates the componentwise difference f1 - f2.
func (fm *Fieldmodule) CreateFieldSubtract(f1, f2 *Field) (*Field, error) {
	return fm.createBinaryComponentwise(f1, f2, subtractCore{})
}

// CreateFieldMultiply creates the componentwise product of two fields.
func (fm *Fieldmodule) CreateFieldMultiply(f1, f2 *Field) (*Field, error) {
	return fm.createBinaryComponentwise(f1, f2, multiplyCore{})
}

// CreateFieldDivide creates the componentwise quotient f1 / f2.
func (fm *Fieldmodule) CreateFieldDivide(f1, f2 *Field) (*Field, error) {
	return fm.createBinaryComponentwise(f1, f2, divideCore{})
}

// CreateFieldSumComponents creates the single-component sum of source's
// components.
func (fm *Fieldmodule) CreateFieldSumComponents(source *Field) (*Field, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: nil source field", ErrInvalidArgument)
	}
	return fm.createField(1, []*Field{source}, nil, sumComponentsCore{})
}

// CreateFieldComponent creates a field extracting the given zero-based
// components of source, in order.
func (fm *Fieldmodule) CreateFieldComponent(source *Field, indexes []int) (*Field, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: nil source field", ErrInvalidArgument)
	}
	if len(indexes) == 0 {
		return nil, fmt.Errorf("%w: component needs at least 1 index", ErrInvalidArgument)
	}
	for _, index := range indexes {
		if index < 0 || index >= source.components {
			return nil, fmt.Errorf("%w: component index %d out of range [0,%d)",
				ErrInvalidArgument, index, source.components)
		}
	}
	core := &componentCore{indexes: append([]int(nil), indexes...)}
	return fm.createField(len(indexes), []*Field{source}, nil, core)
}

// CreateFieldConcatenate creates a field stacking the components of the
// source fields in order.
func (fm *Fieldmodule) CreateFieldConcatenate(sourceFields []*Field) (*Field, error) {
	if len(sourceFields) == 0 {
		return nil, fmt.Errorf("%w: concatenate needs at least 1 source field", ErrInvalidArgument)
	}
	components := 0
	for _, source := range sourceFields {
		if source == nil {
			return nil, fmt.Errorf("%w: nil source field", ErrInvalidArgument)
		}
		components += source.components
	}
	return fm.createField(components, sourceFields, nil, concatenateCore{})
}

// CreateFieldIdentity creates a pass-through copy of source.
func (fm *Fieldmodule) CreateFieldIdentity(source *Field) (*Field, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: nil source field", ErrInvalidArgument)
	}
	return fm.createField(source.components, []*Field{source}, nil, identityCore{})
}

// CreateFieldIf creates a componentwise conditional: where condition is
// nonzero the result takes f1, elsewhere f2. All three fields need the same
// component count.
func (fm *Fieldmodule) CreateFieldIf(condition, f1, f2 *Field) (*Field, error) {
	if condition == nil || f1 == nil || f2 == nil {
		return nil, fmt.Errorf("%w: nil source field", ErrInvalidArgument)
	}
	if condition.components != f1.components || f1.components != f2.components {
		return nil, fmt.Errorf("%w: if needs equal component counts, has %d, %d and %d",
			ErrInvalidArgument, condition.components, f1.components, f2.components)
	}
	return fm.createField(f1.components, []*Field{condition, f1, f2}, nil, ifCore{})
}

// CreateFieldDotProduct creates the scalar product of two equal-length
// vector fields.
func (fm *Fieldmodule) CreateFieldDotProduct(f1, f2 *Field) (*Field, error) {
	if f1 == nil || f2 == nil {
		return nil, fmt.Errorf("%w: nil source field", ErrInvalidArgument)
	}
	if f1.components != f2.components {
		return nil, fmt.Errorf("%w: source fields have %d and %d components",
			ErrInvalidArgument, f1.components, f2.components)
	}
	return fm.createField(1, []*Field{f1, f2}, nil, dotProductCore{})
}

// CreateFieldCrossProduct creates the cross product of two 3-component
// fields.
func (fm *Fieldmodule) CreateFieldCrossProduct(f1, f2 *Field) (*Field, error) {
	if f1 == nil || f2 == nil {
		return nil, fmt.Errorf("%w: nil source field", ErrInvalidArgument)
	}
	if f1.components != 3 || f2.components != 3 {
		return nil, fmt.Errorf("%w: cross product needs 3-component sources", ErrInvalidArgument)
	}
	return fm.createField(3, []*Field{f1, f2}, nil, crossProductCore{})
}

// CreateFieldMagnitude creates the Euclidean norm of a vector field.
func (fm *Fieldmodule) CreateFieldMagnitude(source *Field) (*Field, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: nil source field", ErrInvalidArgument)
	}
	return fm.createField(1, []*Field{source}, nil, magnitudeCore{})
}

// CreateFieldNormalise creates source scaled to unit magnitude.
func (fm *Fieldmodule) CreateFieldNormalise(source *Field) (*Field, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: nil source field", ErrInvalidArgument)
	}
	return fm.createField(source.components, []*Field{source}, nil, normaliseCore{})
}

// CreateFieldDeterminant creates the scalar determinant of a square matrix
// field with 1, 4 or 9 components.
func (fm *Fieldmodule) CreateFieldDeterminant(source *Field) (*Field, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: nil source field", ErrInvalidArgument)
	}
	switch source.components {
	case 1, 4, 9:
	default:
		return nil, fmt.Errorf("%w: determinant needs a 1, 4 or 9 component source, has %d",
			ErrInvalidArgument, source.components)
	}
	return fm.createField(1, []*Field{source}, nil, determinantCore{})
}

// CreateFieldEigenvalues creates the n eigenvalues of an n x n matrix field,
// sorted from largest to smallest magnitude.
func (fm *Fieldmodule) CreateFieldEigenvalues(source *Field) (*Field, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: nil source field", ErrInvalidArgument)
	}
	n := squareMatrixSize(source.components)
	if n == 0 {
		return nil, fmt.Errorf("%w: eigenvalues needs a square matrix source, has %d components",
			ErrInvalidArgument, source.components)
	}
	return fm.createField(n, []*Field{source}, nil, eigenvaluesCore{})
}

// CreateFieldEigenvectors creates the n x n eigenvector matrix matching an
// eigenvalues field, one eigenvector per row.
func (fm *Fieldmodule) CreateFieldEigenvectors(eigenvalues *Field) (*Field, error) {
	if eigenvalues == nil {
		return nil, fmt.Errorf("%w: nil source field", ErrInvalidArgument)
	}
	if _, ok := eigenvalues.core.(eigenvaluesCore); !ok {
		return nil, fmt.Errorf("%w: eigenvectors source must be an eigenvalues field", ErrInvalidArgument)
	}
	n := eigenvalues.components
	return fm.createField(n*n, []*Field{eigenvalues}, nil, eigenvectorsCore{})
}

// CreateFieldMatrixInvert creates the inverse of an n x n matrix field.
func (fm *Fieldmodule) CreateFieldMatrixInvert(source *Field) (*Field, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: nil source field", ErrInvalidArgument)
	}
	if squareMatrixSize(source.components) == 0 {
		return nil, fmt.Errorf("%w: matrix invert needs a square matrix source, has %d components",
			ErrInvalidArgument, source.components)
	}
	return fm.createField(source.components, []*Field{source}, nil, matrixInvertCore{})
}

// CreateFieldMatrixMultiply creates the matrix product of f1 (rows x s, with
// s deduced from its component count) and f2 (s x n), components changing
// along rows fastest.
func (fm *Fieldmodule) CreateFieldMatrixMultiply(rows int, f1, f2 *Field) (*Field, error) {
	if f1 == nil || f2 == nil {
		return nil, fmt.Errorf("%w: nil source field", ErrInvalidArgument)
	}
	if rows < 1 || f1.components%rows != 0 {
		return nil, fmt.Errorf("%w: %d rows does not divide %d components",
			ErrInvalidArgument, rows, f1.components)
	}
	s := f1.components / rows
	if f2.components%s != 0 {
		return nil, fmt.Errorf("%w: matrix sizes %dx%d and ?x%d incompatible",
			ErrInvalidArgument, rows, s, f2.components)
	}
	n := f2.components / s
	return fm.createField(rows*n, []*Field{f1, f2}, nil, &matrixMultiplyCore{rows: rows})
}

// CreateFieldTranspose creates the transpose of a matrix field with the
// given number of source rows.
func (fm *Fieldmodule) CreateFieldTranspose(sourceRows int, source *Field) (*Field, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: nil source field", ErrInvalidArgument)
	}
	if sourceRows < 1 || source.components%sourceRows != 0 {
		return nil, fmt.Errorf("%w: %d rows does not divide %d components",
			ErrInvalidArgument, sourceRows, source.components)
	}
	return fm.createField(source.components, []*Field{source}, nil, &transposeCore{sourceRows: sourceRows})
}

// CreateFieldProjection creates the homogeneous projection of source through
// projectionMatrix, which must have (m+1) x (source components + 1)
// components for an m component result.
func (fm *Fieldmodule) CreateFieldProjection(source, projectionMatrix *Field) (*Field, error) {
	if source == nil || projectionMatrix == nil {
		return nil, fmt.Errorf("%w: nil source field", ErrInvalidArgument)
	}
	columns := source.components + 1
	components := projectionMatrix.components/columns - 1
	if components < 1 || (components+1)*columns != projectionMatrix.components {
		return nil, fmt.Errorf("%w: projection matrix has %d components, not a multiple of %d",
			ErrInvalidArgument, projectionMatrix.components, columns)
	}
	core := &projectionCore{matrixRows: components + 1, matrixColumns: columns}
	return fm.createField(components, []*Field{source, projectionMatrix}, nil, core)
}

// CreateFieldQuaternionToMatrix creates the 4 x 4 homogeneous transformation
// matrix of a 4-component (w, x, y, z) quaternion field.
func (fm *Fieldmodule) CreateFieldQuaternionToMatrix(source *Field) (*Field, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: nil source field", ErrInvalidArgument)
	}
	if source.components != 4 {
		return nil, fmt.Errorf("%w: quaternion to matrix needs a 4 component source, has %d",
			ErrInvalidArgument, source.components)
	}
	return fm.createField(16, []*Field{source}, nil, quaternionToMatrixCore{})
}

// CreateFieldMatrixToQuaternion creates the 4-component quaternion of a
// 16-component homogeneous transformation matrix field.
func (fm *Fieldmodule) CreateFieldMatrixToQuaternion(source *Field) (*Field, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: nil source field", ErrInvalidArgument)
	}
	if source.components != 16 {
		return nil, fmt.Errorf("%w: matrix to quaternion needs a 16 component source, has %d",
			ErrInvalidArgument, source.components)
	}
	return fm.createField(4, []*Field{source}, nil, matrixToQuaternionCore{})
}

// CreateFieldFiniteElement creates a field interpolating stored node
// parameters through domain.
func (fm *Fieldmodule) CreateFieldFiniteElement(domain FieldDomain, components int) (*Field, error) {
	if domain == nil {
		return nil, fmt.Errorf("%w: nil field domain", ErrInvalidArgument)
	}
	return fm.createField(components, nil, nil, &finiteElementCore{domain: domain})
}

// CreateFieldXiCoordinates creates a 3-component field of the element
// parametric coordinate, zero-padded above the element dimension.
func (fm *Fieldmodule) CreateFieldXiCoordinates() (*Field, error) {
	return fm.createField(3, nil, nil, xiCoordinatesCore{})
}

// CreateFieldTimeValue creates a single-component field of the cache's
// current time.
func (fm *Fieldmodule) CreateFieldTimeValue() (*Field, error) {
	return fm.createField(1, nil, nil, timeValueCore{})
}

func (fm *Fieldmodule) createNodesetOperator(op nodesetOp, source *Field, nodeset Nodeset) (*Field, error) {
	if source == nil {
		return nil, fmt.Errorf("%w: nil source field", ErrInvalidArgument)
	}
	if nodeset == nil {
		return nil, fmt.Errorf("%w: nil nodeset", ErrInvalidArgument)
	}
	core := &nodesetOperatorCore{op: op, nodeset: nodeset}
	return fm.createField(source.components, []*Field{source}, nil, core)
}

// CreateFieldNodesetSum creates the componentwise sum of source over the
// nodes of nodeset where it is defined.
func (fm *Fieldmodule) CreateFieldNodesetSum(source *Field, nodeset Nodeset) (*Field, error) {
	return fm.createNodesetOperator(nodesetOpSum, source, nodeset)
}

// CreateFieldNodesetMean creates the componentwise mean of source over the
// nodes of nodeset where it is defined.
func (fm *Fieldmodule) CreateFieldNodesetMean(source *Field, nodeset Nodeset) (*Field, error) {
	return fm.createNodesetOperator(nodesetOpMean, source, nodeset)
}

// CreateFieldNodesetMinimum creates the componentwise minimum of source over
// the nodes of nodeset where it is defined.
func (fm *Fieldmodule) CreateFieldNodesetMinimum(source *Field, nodeset Nodeset) (*Field, error) {
	return fm.createNodesetOperator(nodesetOpMinimum, source, nodeset)
}

// CreateFieldNodesetMaximum creates the componentwise maximum of source over
// the nodes of nodeset where it is defined.
func (fm *Fieldmodule) CreateFieldNodesetMaximum(source *Field, nodeset Nodeset) (*Field, error) {
	return fm.createNodesetOperator(nodesetOpMaximum, source, nodeset)
}

// XiField returns the region's "xi" coordinate field, creating it managed on
// first use.
func (fm *Fieldmodule) XiField() (*Field, error) {
	if existing := fm.manager.FindFieldByName("xi"); existing != nil {
		if _, ok := existing.core.(xiCoordinatesCore); ok {
			return existing, nil
		}
		Deaccess(&existing)
		return nil, fmt.Errorf("%w: field %q exists and is not the xi coordinate field",
			ErrInvalidArgument, "xi")
	}
	fm.SetFieldName("xi")
	field, err := fm.CreateFieldXiCoordinates()
	if err != nil {
		return nil, err
	}
	field.SetManaged(true)
	return field, nil
}
