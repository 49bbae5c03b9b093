package component

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/aretw0/weft/pkg/schema"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// SlotState describes where an input value currently comes from.
type SlotState int

const (
	// SlotUnset has no literal, no default and no wiring.
	SlotUnset SlotState = iota
	// SlotDefault holds the declared default.
	SlotDefault
	// SlotLiteral holds a value bound with Set.
	SlotLiteral
	// SlotPending is wired to an output that has not been computed yet.
	SlotPending
	// SlotResolved holds the value computed by the wired output.
	SlotResolved
)

func (s SlotState) String() string {
	switch s {
	case SlotUnset:
		return "unset"
	case SlotDefault:
		return "default"
	case SlotLiteral:
		return "literal"
	case SlotPending:
		return "pending"
	case SlotResolved:
		return "resolved"
	default:
		return fmt.Sprintf("SlotState(%d)", int(s))
	}
}

// Wired reports whether the slot is bound to another instance's output.
func (s SlotState) Wired() bool { return s == SlotPending || s == SlotResolved }

// Ref points at an output of another instance. Binding a Ref to an input
// creates an edge.
type Ref struct {
	Source *Instance
	Output string
}

func (r Ref) String() string {
	if r.Source == nil {
		return "<nil>." + r.Output
	}
	return domain.OutputKey(r.Source.id, r.Output)
}

// Binding is a wired input together with the output feeding it.
type Binding struct {
	Input string
	Ref   Ref
}

type slot struct {
	state SlotState
	value any
	ref   Ref
}

// Instance is one placement of a component inside a graph.
type Instance struct {
	id      string
	impl    Component
	def     Definition
	methods map[string]reflect.Value

	mu        sync.RWMutex
	slots     map[string]*slot
	status    any
	statusVer uint64
	env       Env
	owner     string
}

// New validates impl's declared contract and binds it to a fresh instance.
func New(id string, impl Component) (*Instance, error) {
	if id == "" {
		return nil, &domain.ComponentDefinitionError{Component: id, Reason: "empty instance id"}
	}
	// Outputs are keyed "id.output"; a dotted id could collide with another.
	if strings.Contains(id, ".") {
		return nil, &domain.ComponentDefinitionError{Component: id, Reason: "instance id must not contain '.'"}
	}
	if impl == nil || impl.base() == nil {
		return nil, &domain.ComponentDefinitionError{Component: id, Reason: "component does not embed component.Base"}
	}

	def := impl.Definition()
	inst := &Instance{
		id:      id,
		impl:    impl,
		def:     def,
		methods: make(map[string]reflect.Value, len(def.Outputs)),
		slots:   make(map[string]*slot, len(def.Inputs)),
	}

	for _, in := range def.Inputs {
		if in.Name == "" {
			return nil, &domain.ComponentDefinitionError{Component: id, Reason: "input with empty name"}
		}
		if _, dup := inst.slots[in.Name]; dup {
			return nil, &domain.ComponentDefinitionError{Component: id, Field: in.Name, Reason: "duplicate input"}
		}
		s := &slot{}
		if in.Value != nil {
			s.state, s.value = SlotDefault, in.Value
		}
		inst.slots[in.Name] = s
	}

	rv := reflect.ValueOf(impl)
	for _, out := range def.Outputs {
		if out.Name == "" {
			return nil, &domain.ComponentDefinitionError{Component: id, Reason: "output with empty name"}
		}
		if _, dup := inst.methods[out.Name]; dup {
			return nil, &domain.ComponentDefinitionError{Component: id, Field: out.Name, Reason: "duplicate output"}
		}
		m := rv.MethodByName(out.Method)
		if !m.IsValid() {
			return nil, &domain.ComponentDefinitionError{Component: id, Field: out.Method, Reason: "missing output method"}
		}
		if !validMethod(m.Type()) {
			return nil, &domain.ComponentDefinitionError{Component: id, Field: out.Method, Reason: "wrong signature for output method"}
		}
		inst.methods[out.Name] = m
	}

	impl.base().inst = inst
	return inst, nil
}

// MustNew is like New but panics on an invalid definition.
func MustNew(id string, impl Component) *Instance {
	inst, err := New(id, impl)
	if err != nil {
		panic(err)
	}
	return inst
}

func validMethod(t reflect.Type) bool {
	return t.NumIn() == 1 && t.In(0) == contextType &&
		t.NumOut() == 2 && t.Out(1) == errorType
}

// ID returns the instance id.
func (i *Instance) ID() string { return i.id }

// Definition returns the declared contract.
func (i *Instance) Definition() Definition { return i.def }

// Component returns the underlying implementation.
func (i *Instance) Component() Component { return i.impl }

// Output returns a reference to one of this instance's outputs for use with Set.
func (i *Instance) Output(name string) Ref {
	return Ref{Source: i, Output: name}
}

// HasOutput reports whether the output is declared.
func (i *Instance) HasOutput(name string) bool {
	_, ok := i.methods[name]
	return ok
}

// Set binds a literal value or a Ref to an input.
func (i *Instance) Set(name string, value any) error {
	in, ok := i.def.Input(name)
	if !ok {
		return fmt.Errorf("component %q: %w %q", i.id, domain.ErrUnknownInput, name)
	}

	var ref *Ref
	switch r := value.(type) {
	case Ref:
		ref = &r
	case *Ref:
		ref = r
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	s := i.slots[name]

	if ref != nil {
		if ref.Source == nil {
			return fmt.Errorf("component %q input %q: reference without source", i.id, name)
		}
		if !ref.Source.HasOutput(ref.Output) {
			return fmt.Errorf("component %q input %q: %w %q on %q", i.id, name, domain.ErrUnknownOutput, ref.Output, ref.Source.id)
		}
		*s = slot{state: SlotPending, ref: *ref}
		return nil
	}

	// A nil literal unbinds the input, so a required input left blank in a
	// flow file is reported as missing instead of reading as "".
	if value == nil {
		*s = slot{}
		if in.Value != nil {
			s.state, s.value = SlotDefault, in.Value
		}
		return nil
	}
	if err := schema.Check(name, in.Field, value); err != nil {
		return fmt.Errorf("component %q: %w", i.id, err)
	}
	*s = slot{state: SlotLiteral, value: value}
	return nil
}

// SetAll binds several inputs in sorted key order, stopping at the first error.
func (i *Instance) SetAll(values map[string]any) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := i.Set(k, values[k]); err != nil {
			return err
		}
	}
	return nil
}

// Lookup returns the input value and where it came from. A wired input whose
// producer has not run yet is reported as SlotPending with a nil value.
func (i *Instance) Lookup(name string) (any, SlotState) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	s, ok := i.slots[name]
	if !ok {
		return nil, SlotUnset
	}
	if s.state == SlotPending {
		return nil, SlotPending
	}
	return s.value, s.state
}

// Values returns a snapshot of every input that currently has a value.
func (i *Instance) Values() map[string]any {
	i.mu.RLock()
	defer i.mu.RUnlock()
	out := make(map[string]any, len(i.slots))
	for name, s := range i.slots {
		switch s.state {
		case SlotDefault, SlotLiteral, SlotResolved:
			out[name] = s.value
		}
	}
	return out
}

// Bindings returns the wired inputs in declared input order.
func (i *Instance) Bindings() []Binding {
	i.mu.RLock()
	defer i.mu.RUnlock()
	var out []Binding
	for _, in := range i.def.Inputs {
		s := i.slots[in.Name]
		if s.state.Wired() {
			out = append(out, Binding{Input: in.Name, Ref: s.ref})
		}
	}
	return out
}

// Resolve stores the computed value of a wired input.
func (i *Instance) Resolve(name string, value any) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	s, ok := i.slots[name]
	if !ok {
		return fmt.Errorf("component %q: %w %q", i.id, domain.ErrUnknownInput, name)
	}
	if !s.state.Wired() {
		return fmt.Errorf("component %q input %q is not wired", i.id, name)
	}
	s.state, s.value = SlotResolved, value
	return nil
}

// Invoke calls the method behind an output.
func (i *Instance) Invoke(ctx context.Context, output string) (any, error) {
	m, ok := i.methods[output]
	if !ok {
		return nil, fmt.Errorf("component %q: %w %q", i.id, domain.ErrUnknownOutput, output)
	}
	res := m.Call([]reflect.Value{reflect.ValueOf(ctx)})
	if errV := res[1]; !errV.IsNil() {
		return nil, errV.Interface().(error)
	}
	return res[0].Interface(), nil
}

// SetStatus stores the diagnostic status slot.
func (i *Instance) SetStatus(v any) {
	i.mu.Lock()
	i.status = v
	i.statusVer++
	i.mu.Unlock()
}

// StatusVersion counts SetStatus calls. The engine reads it around an
// output invocation to tell whether the component set its own status.
func (i *Instance) StatusVersion() uint64 {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.statusVer
}

// SetStatusIfUnchanged stores v unless SetStatus was called since version.
func (i *Instance) SetStatusIfUnchanged(version uint64, v any) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.statusVer != version {
		return false
	}
	i.status = v
	i.statusVer++
	return true
}

// Status returns the diagnostic status slot.
func (i *Instance) Status() any {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.status
}

// Claim reserves the instance for one run. Resolved inputs and the run
// environment live on the instance, so overlapping runs are refused until
// Release.
func (i *Instance) Claim(runID string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.owner != "" {
		return fmt.Errorf("component %q held by run %s: %w", i.id, i.owner, domain.ErrInstanceBusy)
	}
	i.owner = runID
	return nil
}

// Release ends the claim taken by runID. Claims held by other runs are kept.
func (i *Instance) Release(runID string) {
	i.mu.Lock()
	if i.owner == runID {
		i.owner = ""
	}
	i.mu.Unlock()
}

// Attach binds the run environment used by Base accessors.
func (i *Instance) Attach(env Env) {
	i.mu.Lock()
	i.env = env
	i.mu.Unlock()
}

// Env returns the attached run environment.
func (i *Instance) Env() Env {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.env
}
