package zinc

import (
	"testing"
)

func TestCreateFindsIdenticalExistingField(t *testing.T) {
	fm := NewFieldmodule("test")

	a, _ := fm.CreateFieldConstant([]float64{1})
	b, _ := fm.CreateFieldConstant([]float64{2})

	fm.SetFieldName("sum")
	first, err := fm.CreateFieldAdd(a, b)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	fm.SetFieldName("sum")
	second, err := fm.CreateFieldAdd(a, b)
	if err != nil {
		t.Fatalf("expected identical definition merged, got %v", err)
	}
	if first != second {
		t.Errorf("expected the existing field returned")
	}
	if fm.Manager().NumberOfFields() != 3 {
		t.Errorf("expected 3 fields, got %d", fm.Manager().NumberOfFields())
	}
}

func TestCreateRejectsConflictingName(t *testing.T) {
	fm := NewFieldmodule("test")

	a, _ := fm.CreateFieldConstant([]float64{1})
	b, _ := fm.CreateFieldConstant([]float64{2})

	fm.SetFieldName("taken")
	if _, err := fm.CreateFieldAdd(a, b); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	fm.SetFieldName("taken")
	if _, err := fm.CreateFieldSubtract(a, b); err == nil {
		t.Fatalf("expected error for conflicting definition under same name")
	}
}

func TestCoordinateSystemAppliedOnce(t *testing.T) {
	fm := NewFieldmodule("test")

	fm.SetCoordinateSystem(CoordinateSystemCylindricalPolar)
	a, _ := fm.CreateFieldConstant([]float64{1, 2, 3})
	if a.CoordinateSystem() != CoordinateSystemCylindricalPolar {
		t.Errorf("expected cylindrical polar, got %v", a.CoordinateSystem())
	}
	b, _ := fm.CreateFieldConstant([]float64{1})
	if b.CoordinateSystem() != CoordinateSystemRectangularCartesian {
		t.Errorf("expected modal attribute cleared after one use, got %v", b.CoordinateSystem())
	}
}

func TestReplaceFieldRedefines(t *testing.T) {
	fm := NewFieldmodule("test")

	a, _ := fm.CreateFieldConstant([]float64{1})
	b, _ := fm.CreateFieldConstant([]float64{2})
	fm.SetFieldName("result")
	result, _ := fm.CreateFieldAdd(a, b)
	consumer, _ := fm.CreateFieldMagnitude(result)

	cache := fm.CreateFieldcache()
	out := make([]float64, 1)
	if err := consumer.EvaluateReal(cache, out); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out[0] != 3 {
		t.Fatalf("expected 3, got %g", out[0])
	}

	if err := fm.SetReplaceField(result); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	redefined, err := fm.CreateFieldMultiply(a, b)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if redefined != result {
		t.Errorf("expected redefinition to keep field identity")
	}
	if result.Name() != "result" {
		t.Errorf("expected name kept, got %q", result.Name())
	}
	if result.TypeName() != "multiply" {
		t.Errorf("expected new operator type, got %q", result.TypeName())
	}

	// dependents see the redefinition through the same handle
	if err := consumer.EvaluateReal(cache, out); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out[0] != 2 {
		t.Errorf("expected dependent to recompute to 2, got %g", out[0])
	}
}

func TestReplaceFieldRejectsCycle(t *testing.T) {
	fm := NewFieldmodule("test")

	a, _ := fm.CreateFieldConstant([]float64{1})
	sum, _ := fm.CreateFieldAdd(a, a)
	doubled, _ := fm.CreateFieldAdd(sum, sum)

	// redefining sum in terms of doubled would make a cycle
	if err := fm.SetReplaceField(sum); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := fm.CreateFieldAdd(doubled, a); err == nil {
		t.Fatalf("expected cycle rejection")
	}
	if sum.TypeName() != "add" || sum.SourceFieldCount() != 2 {
		t.Errorf("expected target untouched after rejected redefinition")
	}
}

func TestReplaceFieldRejectsComponentChange(t *testing.T) {
	fm := NewFieldmodule("test")

	fm.SetFieldName("target")
	target, _ := fm.CreateFieldConstant([]float64{1, 2})
	if err := fm.SetReplaceField(target); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := fm.CreateFieldConstant([]float64{1, 2, 3}); err == nil {
		t.Fatalf("expected error changing component count")
	}
}

func TestCreateRejectsForeignSource(t *testing.T) {
	fm1 := NewFieldmodule("one")
	fm2 := NewFieldmodule("two")

	a, _ := fm1.CreateFieldConstant([]float64{1})
	b, _ := fm2.CreateFieldConstant([]float64{2})
	if _, err := fm2.CreateFieldAdd(a, b); err == nil {
		t.Fatalf("expected error for source from another region")
	}
}

func TestReplaceFieldRejectsForeignTarget(t *testing.T) {
	fm1 := NewFieldmodule("one")
	fm2 := NewFieldmodule("two")

	a, _ := fm1.CreateFieldConstant([]float64{1})
	if err := fm2.SetReplaceField(a); err == nil {
		t.Fatalf("expected error for replace target from another region")
	}
}
