// Package factstore holds fetched domain facts in memory and answers the
// type + field-equality queries the provenance generators make.
package factstore

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/roach88/mlprov/internal/domain"
)

// Store is an insertion-ordered collection of facts keyed by concrete type.
// A nil *Store is a valid empty store.
type Store struct {
	byType map[reflect.Type][]domain.Fact
	order  []domain.Fact
}

// New returns an empty store.
func New() *Store {
	return &Store{byType: make(map[reflect.Type][]domain.Fact)}
}

// Add appends facts to the store.
func (s *Store) Add(facts ...domain.Fact) {
	for _, f := range facts {
		t := reflect.TypeOf(f)
		s.byType[t] = append(s.byType[t], f)
		s.order = append(s.order, f)
	}
}

// All returns every fact in insertion order.
func (s *Store) All() []domain.Fact {
	if s == nil {
		return nil
	}
	return append([]domain.Fact(nil), s.order...)
}

// Len returns the number of facts held.
func (s *Store) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Filter selects facts of type T.
type Filter[T any] func(T) bool

// Where matches facts whose field equals want. The field is named by its
// json tag, e.g. "sha" or "lifecycle_stage". It panics if T has no such
// field.
func Where[T any](field string, want any) Filter[T] {
	idx := fieldIndex(reflect.TypeFor[T](), field)
	wv := reflect.ValueOf(want)
	return func(v T) bool {
		fv := reflect.ValueOf(v).FieldByIndex(idx)
		if wv.IsValid() && wv.Type() != fv.Type() && wv.Kind() == fv.Kind() && wv.Type().ConvertibleTo(fv.Type()) {
			return reflect.DeepEqual(fv.Interface(), wv.Convert(fv.Type()).Interface())
		}
		return reflect.DeepEqual(fv.Interface(), want)
	}
}

func fieldIndex(t reflect.Type, name string) []int {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if tag == name || f.Name == name {
			return f.Index
		}
	}
	panic(fmt.Sprintf("factstore: %s has no field %q", t, name))
}

// List returns every fact of type T matching all filters, in insertion order.
func List[T domain.Fact](s *Store, filters ...Filter[T]) []T {
	if s == nil {
		return nil
	}
	var out []T
	for _, f := range s.byType[reflect.TypeFor[T]()] {
		v := f.(T)
		if matches(v, filters) {
			out = append(out, v)
		}
	}
	return out
}

// Get returns the first fact of type T matching all filters.
func Get[T domain.Fact](s *Store, filters ...Filter[T]) (T, bool) {
	if s != nil {
		for _, f := range s.byType[reflect.TypeFor[T]()] {
			v := f.(T)
			if matches(v, filters) {
				return v, true
			}
		}
	}
	var zero T
	return zero, false
}

func matches[T any](v T, filters []Filter[T]) bool {
	for _, f := range filters {
		if !f(v) {
			return false
		}
	}
	return true
}
