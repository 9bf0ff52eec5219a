package sqlfunc

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mattn/go-sqlite3"
)

// Type is the declared SQL-facing type of a parameter or return value.
type Type string

// Declared types.
const (
	TypeString  Type = "string"
	TypeInteger Type = "integer"
	TypeNumber  Type = "number"
	TypeBoolean Type = "boolean"
	TypeBlob    Type = "blob"
	TypeAny     Type = "any"
)

// Param is one declared function parameter.
type Param struct {
	Name string
	Type Type
}

// Function is one entry of the function table.
type Function struct {
	// Name is looked up case-insensitively and exposed upper-cased.
	Name string

	// Params must list every parameter of Impl, in order.
	Params []Param

	// Returns is the declared result type; empty means undeclared.
	Returns Type

	// Impl is the Go function. It returns one value, optionally followed
	// by an error which becomes a SQLite error.
	Impl any

	Doc string

	// Pure functions return the same result for the same arguments,
	// which lets SQLite optimise calls.
	Pure bool
}

// Registry is an immutable table of SQL functions.
type Registry struct {
	fns   []Function
	index map[string]int
}

// NewRegistry validates fns and builds a registry from them.
func NewRegistry(fns ...Function) (*Registry, error) {
	r := &Registry{}
	if err := r.add(fns...); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) add(fns ...Function) error {
	if r.index == nil {
		r.index = make(map[string]int, len(fns))
	}
	for _, fn := range fns {
		if err := check(fn); err != nil {
			return err
		}
		key := strings.ToLower(fn.Name)
		if _, dup := r.index[key]; dup {
			return fmt.Errorf("%w: %s registered twice", ErrRegistration, fn.Name)
		}
		r.index[key] = len(r.fns)
		r.fns = append(r.fns, fn)
	}
	return nil
}

// check verifies that fn's declaration matches its Go signature.
func check(fn Function) error {
	if fn.Name == "" {
		return fmt.Errorf("%w: function name is empty", ErrRegistration)
	}
	if fn.Impl == nil {
		return fmt.Errorf("%w: %s has no implementation", ErrRegistration, fn.Name)
	}

	typ := reflect.TypeOf(fn.Impl)
	if typ.Kind() != reflect.Func {
		return fmt.Errorf("%w: %s implementation is %s, not a function", ErrRegistration, fn.Name, typ.Kind())
	}
	if typ.IsVariadic() {
		return fmt.Errorf("%w: %s must not be variadic", ErrRegistration, fn.Name)
	}
	if typ.NumIn() != len(fn.Params) {
		return fmt.Errorf("%w: all %s arguments have to be declared (%d declared, %d taken)",
			ErrRegistration, fn.Name, len(fn.Params), typ.NumIn())
	}

	for i, p := range fn.Params {
		if p.Name == "" {
			return fmt.Errorf("%w: %s parameter %d has no name", ErrRegistration, fn.Name, i)
		}
		if !accepts(p.Type, typ.In(i)) {
			return fmt.Errorf("%w: %s parameter %s declared %s but takes %s",
				ErrRegistration, fn.Name, p.Name, p.Type, typ.In(i))
		}
	}

	switch typ.NumOut() {
	case 1:
	case 2: //nolint:mnd // value, error
		if typ.Out(1) != reflect.TypeOf((*error)(nil)).Elem() {
			return fmt.Errorf("%w: %s second result must be error", ErrRegistration, fn.Name)
		}
	default:
		return fmt.Errorf("%w: %s must return a value and optionally an error", ErrRegistration, fn.Name)
	}
	if fn.Returns != "" && !accepts(fn.Returns, typ.Out(0)) {
		return fmt.Errorf("%w: %s declared to return %s but returns %s",
			ErrRegistration, fn.Name, fn.Returns, typ.Out(0))
	}
	return nil
}

// accepts reports whether a Go value of type t can carry declared type d.
// The empty interface carries anything, including NULL.
func accepts(d Type, t reflect.Type) bool {
	if t.Kind() == reflect.Interface {
		return t.NumMethod() == 0
	}

	switch d {
	case TypeString:
		return t.Kind() == reflect.String
	case TypeInteger:
		switch t.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return true
		}
		return false
	case TypeNumber:
		return t.Kind() == reflect.Float64 || t.Kind() == reflect.Float32
	case TypeBoolean:
		return t.Kind() == reflect.Bool
	case TypeBlob:
		return t.Kind() == reflect.Slice && t.Elem().Kind() == reflect.Uint8
	default:
		return false
	}
}

// Install registers every function on conn.
// Installing twice on the same connection replaces the earlier definitions.
func (r *Registry) Install(conn *sqlite3.SQLiteConn) error {
	for _, fn := range r.fns {
		if err := conn.RegisterFunc(strings.ToUpper(fn.Name), fn.Impl, fn.Pure); err != nil {
			return fmt.Errorf("installing %s: %w", fn.Name, err)
		}
	}
	return nil
}

// Len returns the number of registered functions.
func (r *Registry) Len() int {
	return len(r.fns)
}

// Names returns the exposed (upper-cased) names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.fns))
	for i, fn := range r.fns {
		names[i] = strings.ToUpper(fn.Name)
	}
	return names
}

// Documentation returns the doc string of the named function.
func (r *Registry) Documentation(name string) (string, bool) {
	fn, ok := r.lookup(name)
	if !ok {
		return "", false
	}
	return fn.Doc, true
}

// Signature renders the named function's declaration, for example
// "(a<string>, b<number>) -> <string>".
func (r *Registry) Signature(name string) (string, bool) {
	fn, ok := r.lookup(name)
	if !ok {
		return "", false
	}

	params := make([]string, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = fmt.Sprintf("%s<%s>", p.Name, p.Type)
	}
	ret := string(fn.Returns)
	if ret == "" {
		ret = "none"
	}
	return fmt.Sprintf("(%s) -> <%s>", strings.Join(params, ", "), ret), true
}

func (r *Registry) lookup(name string) (Function, bool) {
	i, ok := r.index[strings.ToLower(name)]
	if !ok {
		return Function{}, false
	}
	return r.fns[i], true
}
