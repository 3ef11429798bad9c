package zinc

import (
	"fmt"

	"github.com/google/uuid"
)

// LocationKind identifies what kind of evaluation location a Fieldcache
// currently holds.
type LocationKind int

const (
	LocationNone LocationKind = iota
	LocationNode
	LocationMesh
)

func (k LocationKind) String() string {
	switch k {
	case LocationNode:
		return "node"
	case LocationMesh:
		return "mesh"
	}
	return "none"
}

// FieldValueCache holds one field's computed result at the owning cache's
// current location. It is created lazily on first evaluation and reused,
// not freed, when the location changes.
type FieldValueCache struct {
	Values           []float64
	Derivatives      []float64 // component-major: Derivatives[c*n+d], n = requested count
	DerivativesValid bool

	// stamp matches the owning cache's location stamp while the values are
	// valid for the current location; zero means never evaluated.
	stamp uint64

	// scratch is operator-private working space (eigen workspace, LU
	// buffers), allocated once with the value cache.
	scratch any
}

func newFieldValueCache(components int) *FieldValueCache {
	return &FieldValueCache{Values: make([]float64, components)}
}

// ensureDerivatives sizes the derivative store for components*count values,
// reusing existing capacity.
func (vc *FieldValueCache) ensureDerivatives(components, count int) []float64 {
	need := components * count
	if cap(vc.Derivatives) < need {
		vc.Derivatives = make([]float64, need)
	}
	vc.Derivatives = vc.Derivatives[:need]
	return vc.Derivatives
}

// valueCacheTable maps field identity to its value cache within one
// Fieldcache. Keyed by identity, not name: multiple fields may share a name
// transiently during rename.
type valueCacheTable struct {
	data map[*Field]*FieldValueCache
}

func newValueCacheTable() valueCacheTable {
	return valueCacheTable{data: make(map[*Field]*FieldValueCache)}
}

func (t valueCacheTable) Load(key *Field) (*FieldValueCache, bool) {
	vc, ok := t.data[key]
	return vc, ok
}

func (t valueCacheTable) Store(key *Field, value *FieldValueCache) {
	t.data[key] = value
}

func (t valueCacheTable) Delete(key *Field) {
	delete(t.data, key)
}

func (t valueCacheTable) Range(fn func(key *Field, value *FieldValueCache) bool) {
	for k, v := range t.data {
		if !fn(k, v) {
			return
		}
	}
}

func (t valueCacheTable) Size() int {
	return len(t.data)
}

func (t valueCacheTable) Clear() {
	for k := range t.data {
		delete(t.data, k)
	}
}

// Fieldcache binds an evaluation location (node, or element plus parametric
// coordinate, plus time) to per-field cached results. Each cache owns its
// value caches exclusively; caches are never shared between Fieldcaches.
//
// Changing location invalidates all held results without freeing them.
type Fieldcache struct {
	id      string
	manager *Manager

	locationKind         LocationKind
	node                 Node
	element              Element
	xi                   []float64
	time                 float64
	requestedDerivatives int

	// locationStamp increments on every location, time or derivative-request
	// change; value caches are valid while their stamp matches.
	locationStamp uint64

	caches valueCacheTable
	trace  *EvaluationTrace
	extras fieldcachePool
}

// FieldcacheOption configures a Fieldcache at creation.
type FieldcacheOption func(*Fieldcache)

// WithEvaluationTrace records every evaluation through the cache into a
// ring-buffered trace of the given capacity, for diagnostics.
func WithEvaluationTrace(capacity int) FieldcacheOption {
	return func(c *Fieldcache) {
		c.trace = newEvaluationTrace(capacity)
	}
}

func newFieldcache(manager *Manager, opts ...FieldcacheOption) *Fieldcache {
	c := &Fieldcache{
		id:            uuid.NewString(),
		manager:       manager,
		locationStamp: 1,
		caches:        newValueCacheTable(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if manager != nil {
		manager.registerCache(c)
	}
	return c
}

// ID returns the cache's unique diagnostic identifier.
func (c *Fieldcache) ID() string {
	return c.id
}

// Dispose detaches the cache from its manager. The cache must not be used
// afterwards.
func (c *Fieldcache) Dispose() {
	if c.manager != nil {
		c.manager.unregisterCache(c)
		c.manager = nil
	}
	c.caches.Clear()
}

// LocationKind returns the kind of location currently set.
func (c *Fieldcache) LocationKind() LocationKind {
	return c.locationKind
}

// Node returns the node location, or nil if not at a node.
func (c *Fieldcache) Node() Node {
	if c.locationKind != LocationNode {
		return nil
	}
	return c.node
}

// Element returns the element location, or nil if not in an element.
func (c *Fieldcache) Element() Element {
	if c.locationKind != LocationMesh {
		return nil
	}
	return c.element
}

// Xi returns the parametric coordinate within the current element, or nil.
// The returned slice is owned by the cache.
func (c *Fieldcache) Xi() []float64 {
	if c.locationKind != LocationMesh {
		return nil
	}
	return c.xi
}

func (c *Fieldcache) Time() float64 {
	return c.time
}

// SetTime changes the evaluation time, invalidating cached results.
func (c *Fieldcache) SetTime(time float64) {
	c.time = time
	c.locationStamp++
}

// SetNode sets a node location, keeping the current time.
func (c *Fieldcache) SetNode(node Node) error {
	if node == nil {
		return fmt.Errorf("%w: nil node", ErrInvalidArgument)
	}
	c.locationKind = LocationNode
	c.node = node
	c.element = nil
	c.xi = c.xi[:0]
	c.locationStamp++
	return nil
}

// SetMeshLocation sets an element + parametric coordinate location, keeping
// the current time. xi must have the element's dimension.
func (c *Fieldcache) SetMeshLocation(element Element, xi []float64) error {
	if element == nil {
		return fmt.Errorf("%w: nil element", ErrInvalidArgument)
	}
	if len(xi) != element.Dimension() {
		return fmt.Errorf("%w: xi has %d values for %d-dimensional element",
			ErrInvalidArgument, len(xi), element.Dimension())
	}
	c.locationKind = LocationMesh
	c.element = element
	c.xi = append(c.xi[:0], xi...)
	c.node = nil
	c.locationStamp++
	return nil
}

// ClearLocation returns the cache to the no-location state. Location-free
// fields (constants and expressions over them) remain evaluable.
func (c *Fieldcache) ClearLocation() {
	c.locationKind = LocationNone
	c.node = nil
	c.element = nil
	c.xi = c.xi[:0]
	c.locationStamp++
}

// RequestedDerivatives returns the number of independent derivative
// directions requested, 0 meaning values only.
func (c *Fieldcache) RequestedDerivatives() int {
	return c.requestedDerivatives
}

// SetRequestedDerivatives sets how many independent directions derivatives
// are computed for, normally the mesh dimension. Changing it invalidates
// cached results.
func (c *Fieldcache) SetRequestedDerivatives(count int) error {
	if count < 0 || count > 3 {
		return fmt.Errorf("%w: requested derivative count %d outside [0,3]", ErrInvalidArgument, count)
	}
	c.requestedDerivatives = count
	c.locationStamp++
	return nil
}

// valueCache looks up or lazily creates field's value cache. Cores needing
// private scratch provide it through the valueCacheCreator hook.
func (c *Fieldcache) valueCache(field *Field) *FieldValueCache {
	if vc, ok := c.caches.Load(field); ok {
		return vc
	}
	var vc *FieldValueCache
	if creator, ok := field.core.(valueCacheCreator); ok {
		vc = creator.createValueCache(c, field)
	} else {
		vc = newFieldValueCache(field.components)
	}
	c.caches.Store(field, vc)
	return vc
}

// invalidateField marks field's cached result stale without freeing it.
func (c *Fieldcache) invalidateField(field *Field) {
	if vc, ok := c.caches.Load(field); ok {
		vc.stamp = 0
		vc.DerivativesValid = false
	}
}

// dropField discards field's value cache entirely (field removed).
func (c *Fieldcache) dropField(field *Field) {
	c.caches.Delete(field)
}

func (c *Fieldcache) record(field *Field, status EvaluationStatus) {
	if c.trace != nil {
		c.trace.add(field, c.locationKind, status)
	}
}

// Trace returns the cache's evaluation trace, or nil if not enabled.
func (c *Fieldcache) Trace() *EvaluationTrace {
	return c.trace
}

// acquireExtraCache obtains a child cache for iteration-style operators
// (nodeset aggregates), inheriting time and derivative request. Must be
// returned with releaseExtraCache.
func (c *Fieldcache) acquireExtraCache() *Fieldcache {
	extra := c.extras.acquire(c.manager)
	extra.time = c.time
	extra.requestedDerivatives = 0
	return extra
}

func (c *Fieldcache) releaseExtraCache(extra *Fieldcache) {
	c.extras.release(extra)
}

// ExtraCacheMetrics reports pool reuse counts for child caches.
func (c *Fieldcache) ExtraCacheMetrics() (hits, misses uint64) {
	return c.extras.metrics()
}
