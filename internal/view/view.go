// Package view maps generic documents (the map[string]any trees produced by
// YAML, JSON and TOML decoders) onto Go structs and back.
//
// A struct is a view. Each exported field is bound to a document key by its
// `view:"name"` tag (the field name is used when the tag is missing, and
// `view:"-"` skips the field). Nested structs and slices of structs are
// decoded as nested views; scalar fields are coerced to the field type.
// Fields missing from a document keep whatever value the target already
// holds, so a target pre-populated with defaults behaves like a view with
// default values.
package view

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"
)

var (
	ErrWrongData     = errors.New("view: wrong data")
	ErrInvalidTarget = errors.New("view: target must be a non-nil pointer to a struct")
)

// UnknownFieldsError reports document keys the view does not declare.
type UnknownFieldsError struct {
	View   string
	Fields []string
}

func (e *UnknownFieldsError) Error() string {
	return fmt.Sprintf("%s doesn't contain properties: %s", e.View, strings.Join(e.Fields, ", "))
}

type DecodeOptions struct {
	// IgnoreNonExisting tolerates unknown keys and non-map input.
	IgnoreNonExisting bool
}

type EncodeOptions struct {
	// NullValues keeps nil fields (as nil) instead of dropping them.
	NullValues bool
}

var durationType = reflect.TypeOf(time.Duration(0))

type field struct {
	name  string
	index int
}

func fieldsOf(t reflect.Type) []field {
	fields := make([]field, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := sf.Name
		if tag, ok := sf.Tag.Lookup("view"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		fields = append(fields, field{name: name, index: i})
	}
	return fields
}

// Decode populates the struct dst points to from data.
func Decode(data any, dst any, opts DecodeOptions) error {
	target := reflect.ValueOf(dst)
	if target.Kind() != reflect.Pointer || target.IsNil() || target.Elem().Kind() != reflect.Struct {
		return ErrInvalidTarget
	}
	return decodeStruct(data, target.Elem(), opts)
}

func decodeStruct(data any, dst reflect.Value, opts DecodeOptions) error {
	obj, ok := asMap(data)
	if !ok {
		if opts.IgnoreNonExisting {
			return nil
		}
		return fmt.Errorf("%w: '%v' passed for '%s' deserialization", ErrWrongData, data, dst.Type().Name())
	}

	fields := fieldsOf(dst.Type())
	declared := make(map[string]field, len(fields))
	for _, f := range fields {
		declared[f.name] = f
	}

	if !opts.IgnoreNonExisting {
		unknown := []string{}
		for key := range obj {
			if _, ok := declared[key]; !ok {
				unknown = append(unknown, key)
			}
		}
		if len(unknown) > 0 {
			sort.Strings(unknown)
			return &UnknownFieldsError{View: dst.Type().Name(), Fields: unknown}
		}
	}

	for _, f := range fields {
		raw, ok := obj[f.name]
		if !ok {
			continue
		}
		if err := assign(dst.Field(f.index), raw, opts); err != nil {
			return fmt.Errorf("%s.%s: %w", dst.Type().Name(), f.name, err)
		}
	}
	return nil
}

func assign(dst reflect.Value, raw any, opts DecodeOptions) error {
	if raw == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}

	switch {
	case isView(dst.Type()):
		return decodeView(dst, raw, opts)
	case dst.Kind() == reflect.Slice && isView(dst.Type().Elem()):
		items, ok := asSlice(raw)
		if !ok {
			items = []any{raw}
		}
		out := reflect.MakeSlice(dst.Type(), len(items), len(items))
		for i, item := range items {
			if err := decodeView(out.Index(i), item, opts); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		dst.Set(out)
		return nil
	}
	return coerce(dst, raw)
}

func decodeView(dst reflect.Value, raw any, opts DecodeOptions) error {
	if dst.Kind() == reflect.Pointer {
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return decodeStruct(raw, dst.Elem(), opts)
	}
	return decodeStruct(raw, dst, opts)
}

func coerce(dst reflect.Value, raw any) error {
	if dst.Type() == durationType {
		d, err := cast.ToDurationE(raw)
		if err != nil {
			return err
		}
		dst.SetInt(int64(d))
		return nil
	}

	switch dst.Kind() {
	case reflect.Interface:
		rv := reflect.ValueOf(raw)
		if !rv.Type().AssignableTo(dst.Type()) {
			return fmt.Errorf("%T does not implement %s", raw, dst.Type())
		}
		dst.Set(rv)
	case reflect.String:
		s, err := cast.ToStringE(raw)
		if err != nil {
			return err
		}
		dst.SetString(s)
	case reflect.Bool:
		b, err := cast.ToBoolE(raw)
		if err != nil {
			return err
		}
		dst.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := cast.ToInt64E(raw)
		if err != nil {
			return err
		}
		if dst.OverflowInt(n) {
			return fmt.Errorf("value %d overflows %s", n, dst.Type())
		}
		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := cast.ToUint64E(raw)
		if err != nil {
			return err
		}
		if dst.OverflowUint(n) {
			return fmt.Errorf("value %d overflows %s", n, dst.Type())
		}
		dst.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := cast.ToFloat64E(raw)
		if err != nil {
			return err
		}
		dst.SetFloat(f)
	case reflect.Slice:
		items, ok := asSlice(raw)
		if !ok {
			items = []any{raw}
		}
		out := reflect.MakeSlice(dst.Type(), len(items), len(items))
		for i, item := range items {
			if err := assign(out.Index(i), item, DecodeOptions{}); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
		dst.Set(out)
	case reflect.Map:
		if dst.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("unsupported map key type %s", dst.Type().Key())
		}
		obj, ok := asMap(raw)
		if !ok {
			return fmt.Errorf("expected a mapping, got %T", raw)
		}
		out := reflect.MakeMapWithSize(dst.Type(), len(obj))
		for key, item := range obj {
			elem := reflect.New(dst.Type().Elem()).Elem()
			if err := assign(elem, item, DecodeOptions{}); err != nil {
				return fmt.Errorf("[%s]: %w", key, err)
			}
			out.SetMapIndex(reflect.ValueOf(key).Convert(dst.Type().Key()), elem)
		}
		dst.Set(out)
	case reflect.Pointer:
		elem := reflect.New(dst.Type().Elem())
		if err := assign(elem.Elem(), raw, DecodeOptions{}); err != nil {
			return err
		}
		dst.Set(elem)
	default:
		return fmt.Errorf("unsupported field type %s", dst.Type())
	}
	return nil
}

// Encode converts a view into a map. Unexported fields are never encoded.
func Encode(src any, opts EncodeOptions) (map[string]any, error) {
	v := reflect.ValueOf(src)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, ErrInvalidTarget
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, ErrInvalidTarget
	}
	return encodeStruct(v, opts), nil
}

func encodeStruct(v reflect.Value, opts EncodeOptions) map[string]any {
	ret := map[string]any{}
	for _, f := range fieldsOf(v.Type()) {
		fv := v.Field(f.index)
		if isNil(fv) {
			if opts.NullValues {
				ret[f.name] = nil
			}
			continue
		}

		switch {
		case isView(fv.Type()):
			ret[f.name] = encodeStruct(reflect.Indirect(fv), opts)
		case fv.Kind() == reflect.Slice && isView(fv.Type().Elem()):
			items := make([]any, 0, fv.Len())
			for i := 0; i < fv.Len(); i++ {
				item := fv.Index(i)
				if isNil(item) {
					continue
				}
				encoded := encodeStruct(reflect.Indirect(item), opts)
				if !opts.NullValues && len(encoded) == 0 {
					continue
				}
				items = append(items, encoded)
			}
			ret[f.name] = items
		default:
			ret[f.name] = fv.Interface()
		}
	}
	return ret
}

func isView(t reflect.Type) bool {
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct && t != reflect.TypeOf(time.Time{})
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
		return v.IsNil()
	default:
		return false
	}
}

func asMap(raw any) (map[string]any, bool) {
	switch m := raw.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[fmt.Sprint(k)] = v
		}
		return out, true
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

func asSlice(raw any) ([]any, bool) {
	if items, ok := raw.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(raw)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Type().Elem().Kind() == reflect.Uint8 {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}
