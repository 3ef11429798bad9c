package zinc

// EvaluationStatus classifies one evaluation through a Fieldcache.
type EvaluationStatus int

const (
	// EvaluationComputed means the operator was invoked at this location.
	EvaluationComputed EvaluationStatus = iota
	// EvaluationCached means a valid result for this location was reused.
	EvaluationCached
	// EvaluationFailed means the operator reported no value at this location.
	EvaluationFailed
)

func (s EvaluationStatus) String() string {
	switch s {
	case EvaluationComputed:
		return "computed"
	case EvaluationCached:
		return "cached"
	case EvaluationFailed:
		return "failed"
	}
	return "unknown"
}

// EvaluationRecord is one entry in a cache's evaluation history.
type EvaluationRecord struct {
	Sequence  uint64
	FieldName string
	FieldType string
	Location  LocationKind
	Status    EvaluationStatus
}

// EvaluationTrace is a capacity-bounded ring of evaluation records, enabled
// per Fieldcache with WithEvaluationTrace. It exists for debugging evaluation
// order and cache behaviour; it never affects results.
type EvaluationTrace struct {
	capacity int
	records  []EvaluationRecord
	next     int
	wrapped  bool
	sequence uint64
}

func newEvaluationTrace(capacity int) *EvaluationTrace {
	if capacity < 1 {
		capacity = 1
	}
	return &EvaluationTrace{
		capacity: capacity,
		records:  make([]EvaluationRecord, 0, capacity),
	}
}

func (t *EvaluationTrace) add(field *Field, location LocationKind, status EvaluationStatus) {
	t.sequence++
	record := EvaluationRecord{
		Sequence:  t.sequence,
		FieldName: field.name,
		FieldType: field.TypeName(),
		Location:  location,
		Status:    status,
	}
	if len(t.records) < t.capacity {
		t.records = append(t.records, record)
		return
	}
	t.records[t.next] = record
	t.next = (t.next + 1) % t.capacity
	t.wrapped = true
}

// Records returns the retained records in evaluation order.
func (t *EvaluationTrace) Records() []EvaluationRecord {
	if !t.wrapped {
		return append([]EvaluationRecord(nil), t.records...)
	}
	out := make([]EvaluationRecord, 0, t.capacity)
	out = append(out, t.records[t.next:]...)
	out = append(out, t.records[:t.next]...)
	return out
}

// Filter returns the retained records matching pred, in evaluation order.
func (t *EvaluationTrace) Filter(pred func(EvaluationRecord) bool) []EvaluationRecord {
	var out []EvaluationRecord
	for _, record := range t.Records() {
		if pred(record) {
			out = append(out, record)
		}
	}
	return out
}

// Len returns the number of retained records.
func (t *EvaluationTrace) Len() int {
	return len(t.records)
}

// Clear discards all retained records.
func (t *EvaluationTrace) Clear() {
	t.records = t.records[:0]
	t.next = 0
	t.wrapped = false
}
