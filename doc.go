// Package zinc implements a computed field system: a lazily evaluated graph
// of numerical operators over spatial domains.
//
// A Fieldmodule creates and owns the fields of one region. Fields are
// immutable operator nodes wired to source fields; evaluating a field pulls
// values through its sources on demand. A Fieldcache binds an evaluation
// location (a node, or an element with parametric coordinates, plus a time)
// and memoises every field's result there, so shared subexpressions are
// computed at most once per location.
//
//	fm := zinc.NewFieldmodule("region")
//	a, _ := fm.CreateFieldConstant([]float64{2, 0, 0, 2})
//	det, _ := fm.CreateFieldDeterminant(a)
//
//	cache := fm.CreateFieldcache()
//	out := make([]float64, 1)
//	det.EvaluateReal(cache, out) // out[0] == 4
//
// Field changes, including in-place redefinition through
// Fieldmodule.SetReplaceField, propagate to dependent fields and invalidate
// affected cache entries, with batched notification via BeginChange and
// EndChange.
//
// The package is single-threaded by design: a Fieldmodule and its caches
// must be used from one goroutine.
package zinc
