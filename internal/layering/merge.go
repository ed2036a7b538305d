// Package layering fills gaps in decoded save payloads from weaker layers,
// typically the payload of a fresh default save.
package layering

import "reflect"

// Merge composes values ordered from strongest to weakest. Set fields, map
// entries and non-nil slices of a stronger layer win; nil pointers, nil maps
// and nil slices fall through to the next layer. Maps merge key by key.
// The result shares no storage with the inputs.
func Merge[T any](layers ...T) T {
	var zero T
	if len(layers) == 0 {
		return zero
	}
	out := deepCopy(reflect.ValueOf(layers[len(layers)-1]))
	for i := len(layers) - 2; i >= 0; i-- {
		out = overlay(reflect.ValueOf(layers[i]), out)
	}
	if !out.IsValid() {
		return zero
	}
	target := reflect.TypeOf(zero)
	if target != nil && out.Type() != target {
		converted := reflect.New(target).Elem()
		converted.Set(out.Convert(target))
		return converted.Interface().(T)
	}
	return out.Interface().(T)
}

// FillPayload returns payload with every key missing from it copied from
// defaults, recursing into nested objects.
func FillPayload(payload, defaults map[string]any) map[string]any {
	if payload == nil {
		return Merge(defaults)
	}
	return Merge(payload, defaults)
}

func overlay(strong, weak reflect.Value) reflect.Value {
	if !strong.IsValid() {
		return deepCopy(weak)
	}
	switch strong.Kind() {
	case reflect.Pointer:
		return overlayPointer(strong, weak)
	case reflect.Interface:
		if strong.IsNil() {
			return deepCopy(weak)
		}
		var inner reflect.Value
		if weak.IsValid() && weak.Kind() == reflect.Interface && !weak.IsNil() {
			inner = weak.Elem()
		}
		return overlay(strong.Elem(), inner).Convert(strong.Type())
	case reflect.Struct:
		return overlayStruct(strong, weak)
	case reflect.Map:
		return overlayMap(strong, weak)
	case reflect.Slice:
		if strong.IsNil() {
			return deepCopy(weak)
		}
		return deepCopy(strong)
	case reflect.Array:
		out := reflect.New(strong.Type()).Elem()
		for i := 0; i < strong.Len(); i++ {
			var other reflect.Value
			if weak.IsValid() && weak.Kind() == reflect.Array && i < weak.Len() {
				other = weak.Index(i)
			}
			out.Index(i).Set(overlay(strong.Index(i), other))
		}
		return out
	default:
		return deepCopy(strong)
	}
}

func overlayPointer(strong, weak reflect.Value) reflect.Value {
	if strong.IsNil() {
		return deepCopy(weak)
	}
	var inner reflect.Value
	if weak.IsValid() && weak.Kind() == reflect.Pointer && !weak.IsNil() {
		inner = weak.Elem()
	}
	out := reflect.New(strong.Type().Elem())
	out.Elem().Set(overlay(strong.Elem(), inner))
	return out
}

func overlayStruct(strong, weak reflect.Value) reflect.Value {
	out := reflect.New(strong.Type()).Elem()
	sameType := weak.IsValid() && weak.Type() == strong.Type()
	for i := 0; i < strong.NumField(); i++ {
		field := out.Field(i)
		if !field.CanSet() {
			continue
		}
		var other reflect.Value
		if sameType {
			other = weak.Field(i)
		}
		field.Set(overlay(strong.Field(i), other))
	}
	return out
}

func overlayMap(strong, weak reflect.Value) reflect.Value {
	if strong.IsNil() {
		return deepCopy(weak)
	}
	out := reflect.MakeMapWithSize(strong.Type(), strong.Len())
	if weak.IsValid() && weak.Kind() == reflect.Map && !weak.IsNil() && weak.Type() == strong.Type() {
		for iter := weak.MapRange(); iter.Next(); {
			out.SetMapIndex(iter.Key(), deepCopy(iter.Value()))
		}
	}
	for iter := strong.MapRange(); iter.Next(); {
		key, value := iter.Key(), iter.Value()
		if existing := out.MapIndex(key); existing.IsValid() {
			out.SetMapIndex(key, overlay(value, existing))
			continue
		}
		out.SetMapIndex(key, deepCopy(value))
	}
	return out
}

func deepCopy(v reflect.Value) reflect.Value {
	if !v.IsValid() {
		return v
	}
	switch v.Kind() {
	case reflect.Pointer:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.New(v.Type().Elem())
		out.Elem().Set(deepCopy(v.Elem()))
		return out
	case reflect.Interface:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		return deepCopy(v.Elem()).Convert(v.Type())
	case reflect.Struct:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.NumField(); i++ {
			if field := out.Field(i); field.CanSet() {
				field.Set(deepCopy(v.Field(i)))
			}
		}
		return out
	case reflect.Map:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.MakeMapWithSize(v.Type(), v.Len())
		for iter := v.MapRange(); iter.Next(); {
			out.SetMapIndex(iter.Key(), deepCopy(iter.Value()))
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return reflect.Zero(v.Type())
		}
		out := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopy(v.Index(i)))
		}
		return out
	case reflect.Array:
		out := reflect.New(v.Type()).Elem()
		for i := 0; i < v.Len(); i++ {
			out.Index(i).Set(deepCopy(v.Index(i)))
		}
		return out
	default:
		return reflect.ValueOf(v.Interface())
	}
}
