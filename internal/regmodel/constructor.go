// Package regmodel holds the data structures that represent registrations:
// the constructor handle, single/multi/keyed registration records, and the
// builder accumulators that the public surface fills in before handing them
// to the container.
package regmodel

import (
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// Constructor is a runtime handle that, invoked with positional arguments,
// yields a new instance. It is always used as a pointer so identity equality
// for map-key use is ordinary Go pointer equality — two Provide calls
// wrapping the same function are two distinct handles, exactly like two
// tokens built from the same description.
type Constructor struct {
	ID         uuid.UUID
	Name       string
	fn         reflect.Value
	fnType     reflect.Type
	resultType reflect.Type
	hasError   bool

	// Extends lets the metadata store walk a prototype-chain-style lookup:
	// when it has no descriptor for this constructor it walks Extends
	// looking for one. Left nil for ordinary registrations; set by
	// WithExtends when one constructor is built by composing another.
	Extends *Constructor
}

// ConstructorOption configures a Constructor at creation time.
type ConstructorOption func(*Constructor)

// WithExtends marks parent as this constructor's metadata ancestor.
func WithExtends(parent *Constructor) ConstructorOption {
	return func(c *Constructor) { c.Extends = parent }
}

// WithName overrides the diagnostic name derived from the function's type.
func WithName(name string) ConstructorOption {
	return func(c *Constructor) { c.Name = name }
}

// NewConstructor wraps fn, which must be a function returning either T or
// (T, error), as a Constructor handle.
func NewConstructor(fn any, opts ...ConstructorOption) *Constructor {
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		panic(fmt.Sprintf("regmodel: Provide requires a function, got %T", fn))
	}
	switch t.NumOut() {
	case 1:
		// ok: func(...) T
	case 2:
		if !t.Out(1).Implements(errorType) {
			panic("regmodel: constructor's second return value must be error")
		}
	default:
		panic("regmodel: constructor must return T or (T, error)")
	}

	c := &Constructor{
		ID:         uuid.New(),
		Name:       t.String(),
		fn:         v,
		fnType:     t,
		resultType: t.Out(0),
		hasError:   t.NumOut() == 2,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// NumIn returns the constructor function's parameter count.
func (c *Constructor) NumIn() int {
	return c.fnType.NumIn()
}

// ResultType is the reflect.Type of the value the constructor produces.
func (c *Constructor) ResultType() reflect.Type {
	return c.resultType
}

// ParamType returns the declared Go type of parameter i, used for the
// type-based auto-wiring fallback when a dependency is declared without an
// explicit token.
func (c *Constructor) ParamType(i int) reflect.Type {
	return c.fnType.In(i)
}

// Invoke calls the wrapped constructor with args, which must already match
// the parameter count and be individually assignable to each parameter type.
func (c *Constructor) Invoke(args []any) (any, error) {
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		pt := c.fnType.In(i)
		if a == nil {
			in[i] = reflect.Zero(pt)
			continue
		}
		av := reflect.ValueOf(a)
		if !av.Type().AssignableTo(pt) {
			if av.Type().ConvertibleTo(pt) {
				av = av.Convert(pt)
			} else {
				return nil, fmt.Errorf("regmodel: argument %d of type %s is not assignable to parameter type %s for constructor %s", i, av.Type(), pt, c.Name)
			}
		}
		in[i] = av
	}

	out := c.fn.Call(in)
	if c.hasError {
		if errV := out[1]; !errV.IsNil() {
			return nil, errV.Interface().(error)
		}
	}
	return out[0].Interface(), nil
}

func (c *Constructor) String() string {
	return c.Name
}
