package storage

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"

	"github.com/pixil98/go-errors"
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9-]*$`)

// ValidatingSpec is the body of an asset.
type ValidatingSpec interface {
	Validate() error
}

// Identifier names an asset. It is also the file name without extension.
type Identifier string

func (id Identifier) String() string {
	return string(id)
}

// Asset is the on-disk envelope of a spec.
type Asset[T ValidatingSpec] struct {
	Version    uint       `json:"version"`
	Identifier Identifier `json:"id"`
	Spec       T          `json:"spec"`
}

func (a *Asset[T]) Id() Identifier {
	return a.Identifier
}

func (a *Asset[T]) Validate() error {
	el := errors.NewErrorList()

	if a.Version == 0 {
		el.Add(fmt.Errorf("version must be set"))
	}

	if a.Identifier == "" {
		el.Add(fmt.Errorf("id must be set"))
	}

	if !identifierPattern.MatchString(a.Identifier.String()) {
		el.Add(fmt.Errorf("id must be alphanumeric"))
	}

	if isNil(a.Spec) {
		el.Add(fmt.Errorf("spec must be set"))
	} else {
		el.Add(a.Spec.Validate())
	}

	return el.Err()
}

// Ref is a reference from one asset to another, resolved after loading.
type Ref[T ValidatingSpec] struct {
	key Identifier
	val T
}

func NewRef[T ValidatingSpec](key Identifier) Ref[T] {
	return Ref[T]{key: key}
}

func NewResolvedRef[T ValidatingSpec](key Identifier, val T) Ref[T] {
	return Ref[T]{key: key, val: val}
}

func (r *Ref[T]) UnmarshalJSON(b []byte) error {
	return json.Unmarshal(b, &r.key)
}

func (r Ref[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.key)
}

// IsSet reports whether the reference names an asset.
func (r Ref[T]) IsSet() bool {
	return r.key != ""
}

// Resolve looks the key up in st. An unset reference resolves to nothing.
func (r *Ref[T]) Resolve(st Storer[T]) error {
	if !r.IsSet() {
		return nil
	}
	r.val = st.Get(r.key)
	if isNil(r.val) {
		var zero T
		return fmt.Errorf("%s %q not found", reflect.TypeOf(zero).Elem().Name(), r.key)
	}
	return nil
}

func (r Ref[T]) Key() Identifier {
	return r.key
}

// Get returns the resolved asset, or the zero value before Resolve.
func (r Ref[T]) Get() T {
	return r.val
}

func isNil(v any) bool {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Invalid:
		return true
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
