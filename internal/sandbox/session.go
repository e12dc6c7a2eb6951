// Package sandbox runs untrusted snippets inside an in-process interpreter
// and recovers "the" result from them: single expressions, multi-statement
// blocks, function definitions and deferred grouped aggregations. Every
// failure is captured and reported as data; nothing propagates to the caller.
package sandbox

import (
	"bytes"
	"context"
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"

	"github.com/nauqh/cseassessment/internal/table"
)

// Outcome is the structured result of one evaluation.
type Outcome struct {
	Success bool   `json:"success"`
	Output  any    `json:"output"`
	Stdout  string `json:"stdout,omitempty"`
	Err     string `json:"error,omitempty"`
}

// Session is a short-lived evaluation context. Each check or execution
// request owns its own session; sessions are never shared across grading
// passes.
type Session struct {
	interp *interp.Interpreter
	stdout *bytes.Buffer
}

// NewSession builds an interpreter with the stdlib loaded and the given
// values bound as top-level variables.
func NewSession(bindings map[string]any) (*Session, error) {
	buf := &bytes.Buffer{}
	i := interp.New(interp.Options{Stdout: buf, Stderr: buf})

	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("failed to load stdlib symbols: %w", err)
	}

	// Common packages are imported up front so one-line snippets can use
	// them without their own import block.
	if _, err := i.Eval(`import ("fmt"; "math"; "sort"; "strconv"; "strings")`); err != nil {
		return nil, fmt.Errorf("failed to import base packages: %w", err)
	}

	s := &Session{interp: i, stdout: buf}
	if err := s.bind(bindings); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Session) bind(bindings map[string]any) error {
	if len(bindings) == 0 {
		return nil
	}

	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	sort.Strings(names)

	symbols := make(map[string]reflect.Value, len(names))
	for n, name := range names {
		symbols["B"+strconv.Itoa(n)] = reflect.ValueOf(bindings[name])
	}

	if err := s.interp.Use(interp.Exports{"bindings/bindings": symbols}); err != nil {
		return fmt.Errorf("failed to export bindings: %w", err)
	}
	if _, err := s.interp.Eval(`import "bindings"`); err != nil {
		return fmt.Errorf("failed to import bindings: %w", err)
	}
	for n, name := range names {
		if _, err := s.interp.Eval(fmt.Sprintf("%s := bindings.B%d", name, n)); err != nil {
			return fmt.Errorf("failed to bind %q: %w", name, err)
		}
	}

	return nil
}

// Eval evaluates a snippet and returns its value. Interpreter panics are
// captured and returned as errors.
func (s *Session) Eval(src string) (res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("evaluation panicked: %v", r)
		}
	}()

	v, err := s.interp.Eval(src)
	if err != nil {
		return nil, err
	}
	if !v.IsValid() || !v.CanInterface() {
		return nil, nil
	}
	return v.Interface(), nil
}

// EvalContext evaluates a snippet under the given context, so callers can
// impose a wall-clock limit on runaway code.
func (s *Session) EvalContext(ctx context.Context, src string) (res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("evaluation panicked: %v", r)
		}
	}()

	v, err := s.interp.EvalWithContext(ctx, src)
	if err != nil {
		return nil, err
	}
	if !v.IsValid() || !v.CanInterface() {
		return nil, nil
	}
	return v.Interface(), nil
}

// Call invokes a function previously defined in the session by name,
// converting arguments to the parameter types where possible.
func (s *Session) Call(name string, args []any) (res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("call to %s panicked: %v", name, r)
		}
	}()

	v, err := s.interp.Eval(name)
	if err != nil {
		return nil, err
	}
	if v.Kind() != reflect.Func {
		return nil, fmt.Errorf("%s is not a function", name)
	}

	ft := v.Type()
	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		if arg == nil {
			if i < ft.NumIn() {
				in[i] = reflect.Zero(ft.In(i))
			} else {
				in[i] = reflect.Zero(reflect.TypeOf((*any)(nil)).Elem())
			}
			continue
		}
		av := reflect.ValueOf(arg)
		if i < ft.NumIn() && av.Type() != ft.In(i) && av.Type().ConvertibleTo(ft.In(i)) {
			av = av.Convert(ft.In(i))
		}
		in[i] = av
	}

	out := v.Call(in)
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return out[0].Interface(), nil
	default:
		results := make([]any, len(out))
		for i, o := range out {
			results[i] = o.Interface()
		}
		return results, nil
	}
}

// Drain returns everything the snippet printed so far and resets the buffer.
func (s *Session) Drain() string {
	out := s.stdout.String()
	s.stdout.Reset()
	return out
}

// TabularBindings returns the standard bindings for tabular-expression
// evaluation: the exam frame plus grouping and pivot helpers. The helpers
// panic on bad input; the session converts those panics into captured errors.
func TabularBindings(df dataframe.DataFrame) map[string]any {
	return map[string]any{
		"df": df,
		"groupAgg": func(d dataframe.DataFrame, by, values []string, agg string) table.Pivot {
			p, err := table.GroupAgg(d, by, values, table.Agg(agg))
			if err != nil {
				panic(err)
			}
			return p
		},
		"pivotTable": func(d dataframe.DataFrame, index []string, column string, values []string, agg string) table.Pivot {
			p, err := table.PivotTable(d, index, column, values, table.Agg(agg))
			if err != nil {
				panic(err)
			}
			return p
		},
		"colnames": func(d dataframe.DataFrame) table.Labels {
			return table.Labels(d.Names())
		},
	}
}
