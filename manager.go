package zinc

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// ChangeFlags is a bit set summarising what changed about a field since the
// last notification.
type ChangeFlags uint32

const (
	// ChangeFlagAdd: the field was added to the region.
	ChangeFlagAdd ChangeFlags = 1 << iota
	// ChangeFlagRemove: the field was removed from the region.
	ChangeFlagRemove
	// ChangeFlagIdentifier: the field was renamed.
	ChangeFlagIdentifier
	// ChangeFlagDefinition: the field's own definition changed in a way that
	// affects its values.
	ChangeFlagDefinition
	// ChangeFlagDependency: a field this field transitively depends on has a
	// definition change.
	ChangeFlagDependency
	// ChangeFlagMetadata: an attribute not affecting values changed.
	ChangeFlagMetadata

	ChangeFlagNone ChangeFlags = 0

	// changeFlagsResult are the flags that mean cached values may be stale.
	changeFlagsResult = ChangeFlagDefinition | ChangeFlagDependency
)

func (cf ChangeFlags) String() string {
	if cf == ChangeFlagNone {
		return "none"
	}
	names := []struct {
		flag ChangeFlags
		name string
	}{
		{ChangeFlagAdd, "add"},
		{ChangeFlagRemove, "remove"},
		{ChangeFlagIdentifier, "identifier"},
		{ChangeFlagDefinition, "definition"},
		{ChangeFlagDependency, "dependency"},
		{ChangeFlagMetadata, "metadata"},
	}
	var parts []string
	for _, n := range names {
		if cf&n.flag != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// Event describes the accumulated field changes delivered to notifiers at the
// end of the outermost change block.
type Event struct {
	// Summary is the union of all per-field change flags in this event.
	Summary ChangeFlags

	fieldFlags map[*Field]ChangeFlags
}

// FieldChangeFlags returns the accumulated flags for one field, or
// ChangeFlagNone if it did not change.
func (e *Event) FieldChangeFlags(f *Field) ChangeFlags {
	return e.fieldFlags[f]
}

// ForEachField calls fn for every changed field. Iteration order is
// unspecified.
func (e *Event) ForEachField(fn func(f *Field, flags ChangeFlags)) {
	for f, flags := range e.fieldFlags {
		fn(f, flags)
	}
}

// NumberOfChangedFields returns how many fields this event covers.
func (e *Event) NumberOfChangedFields() int {
	return len(e.fieldFlags)
}

// Notifier delivers change events for one manager to a client callback.
// A notifier with no callback set silently discards events.
type Notifier struct {
	id       string
	manager  *Manager
	callback func(*Event)
}

// ID returns the notifier's unique identifier.
func (n *Notifier) ID() string {
	return n.id
}

// SetCallback installs the function invoked with each change event. Replaces
// any previous callback.
func (n *Notifier) SetCallback(callback func(*Event)) error {
	if callback == nil {
		return fmt.Errorf("%w: nil callback", ErrInvalidArgument)
	}
	n.callback = callback
	return nil
}

// ClearCallback removes the callback. Must be called before the client owning
// the callback is destroyed.
func (n *Notifier) ClearCallback() {
	n.callback = nil
}

// Dispose detaches the notifier from its manager.
func (n *Notifier) Dispose() {
	n.callback = nil
	if n.manager != nil {
		n.manager.removeNotifier(n)
		n.manager = nil
	}
}

// Manager owns all fields of one region: it enforces name uniqueness, holds
// one access on each field, accumulates change flags, and notifies clients
// once per outermost change block.
//
// Managers are not safe for concurrent use; all access must come from one
// goroutine, matching the single-threaded evaluation model.
type Manager struct {
	name   string
	fields map[string]*Field

	changeCacheDepth int
	pendingChanges   map[*Field]ChangeFlags

	notifiers map[string]*Notifier
	caches    map[*Fieldcache]struct{}

	logger          *slog.Logger
	tempNameCounter int
}

func newManager(name string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(SilentHandler{})
	}
	return &Manager{
		name:           name,
		fields:         make(map[string]*Field),
		pendingChanges: make(map[*Field]ChangeFlags),
		notifiers:      make(map[string]*Notifier),
		caches:         make(map[*Fieldcache]struct{}),
		logger:         logger,
	}
}

// Name returns the owning region's name.
func (m *Manager) Name() string {
	return m.name
}

// NumberOfFields returns how many fields the manager currently holds.
func (m *Manager) NumberOfFields() int {
	return len(m.fields)
}

// ForEachField calls fn for every field in the region. Iteration order is
// unspecified. fn must not add or remove fields.
func (m *Manager) ForEachField(fn func(*Field) bool) {
	for _, f := range m.fields {
		if !fn(f) {
			return
		}
	}
}

// BeginChange opens a change block: notifications are withheld until the
// matching EndChange. Blocks nest.
func (m *Manager) BeginChange() {
	m.changeCacheDepth++
}

// EndChange closes a change block. Closing the outermost block delivers a
// single event covering all accumulated changes.
func (m *Manager) EndChange() error {
	if m.changeCacheDepth <= 0 {
		return fmt.Errorf("%w: EndChange without matching BeginChange", ErrInvalidArgument)
	}
	m.changeCacheDepth--
	if m.changeCacheDepth == 0 {
		m.flush()
	}
	return nil
}

// recordChange accumulates flags for field, marks all transitive dependents
// with ChangeFlagDependency, and flushes immediately outside a change block.
func (m *Manager) recordChange(field *Field, flags ChangeFlags) {
	m.pendingChanges[field] |= flags
	if flags&changeFlagsResult != 0 {
		m.propagateDependencyChange(field)
	}
	if m.changeCacheDepth == 0 {
		m.flush()
	}
}

// propagateDependencyChange walks the dependents graph upward from origin,
// accumulating ChangeFlagDependency. Diamond dependencies are visited once.
func (m *Manager) propagateDependencyChange(origin *Field) {
	visited := map[*Field]bool{origin: true}
	stack := make([]*Field, 0, 8)
	for dependent := range origin.dependents {
		stack = append(stack, dependent)
	}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[current] {
			continue
		}
		visited[current] = true
		m.pendingChanges[current] |= ChangeFlagDependency
		for dependent := range current.dependents {
			stack = append(stack, dependent)
		}
	}
}

// flush turns accumulated changes into one event: invalidates registered
// caches for value-affecting changes, notifies, and clears the accumulator.
func (m *Manager) flush() {
	if len(m.pendingChanges) == 0 {
		return
	}
	event := &Event{fieldFlags: m.pendingChanges}
	m.pendingChanges = make(map[*Field]ChangeFlags)
	for field, flags := range event.fieldFlags {
		event.Summary |= flags
		if flags&ChangeFlagRemove != 0 {
			for cache := range m.caches {
				cache.dropField(field)
			}
			continue
		}
		if flags&changeFlagsResult != 0 {
			for cache := range m.caches {
				cache.invalidateField(field)
			}
		}
	}
	m.logger.Debug("field changes",
		slog.String("region", m.name),
		slog.String("summary", event.Summary.String()),
		slog.Int("fields", event.NumberOfChangedFields()))
	for _, notifier := range m.notifiers {
		if notifier.callback != nil {
			notifier.callback(event)
		}
	}
}

// addField registers field under a unique name, taking the manager's own
// access. Callers pass a field with a name already set, or empty for an
// automatic one.
func (m *Manager) addField(field *Field, name string) error {
	if name == "" {
		name = m.nextTempName()
	}
	if _, exists := m.fields[name]; exists {
		return fmt.Errorf("%w: field name %q already in use", ErrInvalidArgument, name)
	}
	field.name = name
	field.manager = m
	m.fields[name] = field.Access()
	m.recordChange(field, ChangeFlagAdd)
	return nil
}

// removeField takes field out of the region and releases the manager's
// access. Notified as a removal first so clients see the field while it still
// exists.
func (m *Manager) removeField(field *Field) {
	if m.fields[field.name] != field {
		return
	}
	m.recordChange(field, ChangeFlagRemove)
	delete(m.fields, field.name)
	field.manager = nil
	Deaccess(&field)
}

// renameField remaps field under the new unique name.
func (m *Manager) renameField(field *Field, name string) error {
	if _, exists := m.fields[name]; exists {
		return fmt.Errorf("%w: field name %q already in use", ErrInvalidArgument, name)
	}
	delete(m.fields, field.name)
	field.name = name
	m.fields[name] = field
	m.recordChange(field, ChangeFlagIdentifier)
	return nil
}

// FindFieldByName returns the field with the given name, accessed for the
// caller, or nil if no such field exists.
func (m *Manager) FindFieldByName(name string) *Field {
	if field, ok := m.fields[name]; ok {
		return field.Access()
	}
	return nil
}

func (m *Manager) nextTempName() string {
	for {
		m.tempNameCounter++
		name := fmt.Sprintf("temp_%d", m.tempNameCounter)
		if _, exists := m.fields[name]; !exists {
			return name
		}
	}
}

// createNotifier makes a new notifier for this manager's events.
func (m *Manager) createNotifier() *Notifier {
	n := &Notifier{id: uuid.NewString(), manager: m}
	m.notifiers[n.id] = n
	return n
}

func (m *Manager) removeNotifier(n *Notifier) {
	delete(m.notifiers, n.id)
}

func (m *Manager) registerCache(c *Fieldcache) {
	m.caches[c] = struct{}{}
}

func (m *Manager) unregisterCache(c *Fieldcache) {
	delete(m.caches, c)
}

func (m *Manager) warn(msg string, args ...any) {
	m.logger.Warn(msg, args...)
}
