package zinc

import (
	"errors"
	"testing"
)

// countingCore wraps a constant value and counts operator invocations.
type countingCore struct {
	value       float64
	evaluations *int
}

func (c *countingCore) TypeName() string { return "counting" }

func (c *countingCore) Compare(other FieldCore) bool {
	o, ok := other.(*countingCore)
	return ok && o == c
}

func (c *countingCore) Evaluate(cache *Fieldcache, field *Field, valueCache *FieldValueCache) error {
	*c.evaluations++
	valueCache.Values[0] = c.value
	return nil
}

func TestEvaluateAtMostOncePerLocation(t *testing.T) {
	fm := NewFieldmodule("test")

	evaluations := 0
	base, err := fm.createField(1, nil, nil, &countingCore{value: 3, evaluations: &evaluations})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	// diamond: both add operands share base
	sum, err := fm.CreateFieldAdd(base, base)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	cache := fm.CreateFieldcache()
	out := make([]float64, 1)
	if err := sum.EvaluateReal(cache, out); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out[0] != 6 {
		t.Errorf("expected 6, got %g", out[0])
	}
	if evaluations != 1 {
		t.Errorf("expected shared source evaluated once, got %d", evaluations)
	}

	// repeat at same location hits the cache
	if err := sum.EvaluateReal(cache, out); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if evaluations != 1 {
		t.Errorf("expected cached result reused, got %d evaluations", evaluations)
	}
}

func TestLocationChangeInvalidates(t *testing.T) {
	fm := NewFieldmodule("test")

	evaluations := 0
	base, _ := fm.createField(1, nil, nil, &countingCore{value: 1, evaluations: &evaluations})
	cache := fm.CreateFieldcache()

	out := make([]float64, 1)
	if err := base.EvaluateReal(cache, out); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	cache.SetTime(2.5)
	if err := base.EvaluateReal(cache, out); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if evaluations != 2 {
		t.Errorf("expected recomputation after time change, got %d evaluations", evaluations)
	}
}

func TestCachesAreIsolated(t *testing.T) {
	fm := NewFieldmodule("test")

	evaluations := 0
	base, _ := fm.createField(1, nil, nil, &countingCore{value: 1, evaluations: &evaluations})

	cache1 := fm.CreateFieldcache()
	cache2 := fm.CreateFieldcache()
	out := make([]float64, 1)
	if err := base.EvaluateReal(cache1, out); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := base.EvaluateReal(cache2, out); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if evaluations != 2 {
		t.Errorf("expected independent caches, got %d evaluations", evaluations)
	}
}

func TestDefinitionChangeInvalidatesCaches(t *testing.T) {
	fm := NewFieldmodule("test")

	a, _ := fm.CreateFieldConstant([]float64{1})
	sum, _ := fm.CreateFieldAdd(a, a)
	cache := fm.CreateFieldcache()

	out := make([]float64, 1)
	if err := sum.EvaluateReal(cache, out); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out[0] != 2 {
		t.Fatalf("expected 2, got %g", out[0])
	}

	if err := a.Assign(cache, []float64{5}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := sum.EvaluateReal(cache, out); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if out[0] != 10 {
		t.Errorf("expected dependent recomputed to 10, got %g", out[0])
	}
}

func TestConstantEvaluatesWithoutLocation(t *testing.T) {
	fm := NewFieldmodule("test")

	a, _ := fm.CreateFieldConstant([]float64{4})
	cache := fm.CreateFieldcache()
	if cache.LocationKind() != LocationNone {
		t.Fatalf("expected new cache to have no location")
	}
	out := make([]float64, 1)
	if err := a.EvaluateReal(cache, out); err != nil {
		t.Fatalf("expected constant evaluable with no location, got %v", err)
	}
}

func TestEvaluateErrorNamesOriginatingField(t *testing.T) {
	fm := NewFieldmodule("test")

	fm.SetFieldName("quat")
	zero, _ := fm.CreateFieldConstant([]float64{0, 0, 0, 0})
	fm.SetFieldName("rotation")
	rotation, err := fm.CreateFieldQuaternionToMatrix(zero)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	consumer, _ := fm.CreateFieldAdd(rotation, rotation)

	cache := fm.CreateFieldcache()
	out := make([]float64, 16)
	evalErr := consumer.EvaluateReal(cache, out)
	if evalErr == nil {
		t.Fatalf("expected evaluation failure for zero quaternion")
	}
	if !errors.Is(evalErr, ErrNotDefinedAtLocation) {
		t.Errorf("expected ErrNotDefinedAtLocation, got %v", evalErr)
	}
	var ee *EvaluateError
	if !errors.As(evalErr, &ee) {
		t.Fatalf("expected EvaluateError, got %T", evalErr)
	}
	if ee.FieldName != "rotation" {
		t.Errorf("expected originating field name, got %q", ee.FieldName)
	}
}

func TestEvaluationTrace(t *testing.T) {
	fm := NewFieldmodule("test")

	a, _ := fm.CreateFieldConstant([]float64{1})
	sum, _ := fm.CreateFieldAdd(a, a)
	cache := fm.CreateFieldcache(WithEvaluationTrace(16))

	out := make([]float64, 1)
	if err := sum.EvaluateReal(cache, out); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	records := cache.Trace().Records()
	// a computed, a cached (second operand), sum computed
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	cached := cache.Trace().Filter(func(r EvaluationRecord) bool {
		return r.Status == EvaluationCached
	})
	if len(cached) != 1 {
		t.Errorf("expected 1 cached record, got %d", len(cached))
	}
	for i, record := range records {
		if record.Sequence != uint64(i+1) {
			t.Errorf("expected sequence %d, got %d", i+1, record.Sequence)
		}
	}
}

func TestEvaluationTraceWraps(t *testing.T) {
	fm := NewFieldmodule("test")

	a, _ := fm.CreateFieldConstant([]float64{1})
	cache := fm.CreateFieldcache(WithEvaluationTrace(2))

	out := make([]float64, 1)
	for i := 0; i < 5; i++ {
		cache.SetTime(float64(i))
		if err := a.EvaluateReal(cache, out); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	}
	records := cache.Trace().Records()
	if len(records) != 2 {
		t.Fatalf("expected capacity-bounded trace of 2, got %d", len(records))
	}
	if records[0].Sequence != 4 || records[1].Sequence != 5 {
		t.Errorf("expected newest records 4 and 5, got %d and %d",
			records[0].Sequence, records[1].Sequence)
	}
}

func TestSetRequestedDerivativesValidation(t *testing.T) {
	fm := NewFieldmodule("test")
	cache := fm.CreateFieldcache()

	if err := cache.SetRequestedDerivatives(4); err == nil {
		t.Errorf("expected error for derivative count above 3")
	}
	if err := cache.SetRequestedDerivatives(-1); err == nil {
		t.Errorf("expected error for negative derivative count")
	}
	if err := cache.SetRequestedDerivatives(2); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}
