package types

import (
	"encoding/json"
	"fmt"
)

// FromJSON implements the JSON -> Value half of the round-trip in §4.2 and
// §6: it requires a target type schema and produces the coerced value.
// Unknown JSON keys targeting a struct fail; missing required members fail.
func FromJSON(raw interface{}, target Type) (Value, error) {
	if raw == nil {
		if target.Optional || target.Kind == KindAny {
			return Null, nil
		}
		return Null, NewRuntimeError(fmt.Sprintf("null is not assignable to non-optional %s", target))
	}

	switch target.Kind {
	case KindAny:
		return fromJSONAny(raw)
	case KindBoolean:
		b, ok := raw.(bool)
		if !ok {
			return Null, NewRuntimeError("expected a JSON boolean")
		}
		return NewBoolean(b), nil
	case KindInt:
		n, ok := jsonNumber(raw)
		if !ok {
			return Null, NewRuntimeError("expected a JSON integer")
		}
		return NewInt(int64(n)), nil
	case KindFloat:
		n, ok := jsonNumber(raw)
		if !ok {
			return Null, NewRuntimeError("expected a JSON number")
		}
		return NewFloat(n), nil
	case KindString:
		s, ok := raw.(string)
		if !ok {
			return Null, NewRuntimeError("expected a JSON string")
		}
		return NewString(s), nil
	case KindFile:
		s, ok := raw.(string)
		if !ok {
			return Null, NewRuntimeError("expected a JSON string for File")
		}
		return NewFile(s), nil
	case KindDirectory:
		s, ok := raw.(string)
		if !ok {
			return Null, NewRuntimeError("expected a JSON string for Directory")
		}
		return NewDirectory(s), nil
	case KindArray:
		arr, ok := raw.([]interface{})
		if !ok {
			return Null, NewRuntimeError("expected a JSON array")
		}
		items := make([]Value, len(arr))
		for i, elem := range arr {
			v, err := FromJSON(elem, *target.Item)
			if err != nil {
				return Null, err
			}
			items[i] = v
		}
		if target.NonEmpty && len(items) == 0 {
			return Null, NewRuntimeError("non-empty array is empty")
		}
		return NewArrayValue(items, *target.Item), nil
	case KindMap:
		obj, ok := raw.(map[string]interface{})
		if !ok {
			return Null, NewRuntimeError("expected a JSON object")
		}
		m := NewOrderedMap()
		for _, k := range sortedKeys(obj) {
			v, err := FromJSON(obj[k], *target.Elem)
			if err != nil {
				return Null, err
			}
			m.Set(k, v)
		}
		return NewMapValue(m, *target.Key, *target.Elem), nil
	case KindPair:
		obj, ok := raw.(map[string]interface{})
		if !ok {
			return Null, NewRuntimeError("expected a JSON object with left/right for Pair")
		}
		left, err := FromJSON(obj["left"], *target.Left)
		if err != nil {
			return Null, err
		}
		right, err := FromJSON(obj["right"], *target.Right)
		if err != nil {
			return Null, err
		}
		return NewPairValue(left, right), nil
	case KindStruct:
		obj, ok := raw.(map[string]interface{})
		if !ok {
			return Null, NewRuntimeError(fmt.Sprintf("expected a JSON object for struct %s", target.StructName))
		}
		for k := range obj {
			if _, known := target.Members[k]; !known {
				return Null, NewRuntimeError(fmt.Sprintf("unknown member '%s' for struct %s", k, target.StructName))
			}
		}
		m := NewOrderedMap()
		for _, name := range target.MemberOrder {
			memberType := target.Members[name]
			raw, present := obj[name]
			if !present {
				if memberType.Optional {
					m.Set(name, Null)
					continue
				}
				return Null, NewRuntimeError(fmt.Sprintf("missing required member '%s' for struct %s", name, target.StructName))
			}
			v, err := FromJSON(raw, *memberType)
			if err != nil {
				return Null, err
			}
			m.Set(name, v)
		}
		return NewStructValue(target.StructName, target.MemberOrder, target.Members, m), nil
	default:
		return Null, NewRuntimeError(fmt.Sprintf("unsupported target type %s", target))
	}
}

func fromJSONAny(raw interface{}) (Value, error) {
	switch val := raw.(type) {
	case bool:
		return NewBoolean(val), nil
	case string:
		return NewString(val), nil
	case float64:
		if val == float64(int64(val)) {
			return NewInt(int64(val)), nil
		}
		return NewFloat(val), nil
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return NewInt(i), nil
		}
		f, err := val.Float64()
		if err != nil {
			return Null, NewRuntimeError("invalid JSON number")
		}
		return NewFloat(f), nil
	case []interface{}:
		items := make([]Value, len(val))
		itemType := Any(false)
		for i, elem := range val {
			v, err := fromJSONAny(elem)
			if err != nil {
				return Null, err
			}
			items[i] = v
			itemType = v.Type()
		}
		return NewArrayValue(items, itemType), nil
	case map[string]interface{}:
		m := NewOrderedMap()
		for _, k := range sortedKeys(val) {
			v, err := fromJSONAny(val[k])
			if err != nil {
				return Null, err
			}
			m.Set(k, v)
		}
		return NewMapValue(m, String(false), Any(false)), nil
	case nil:
		return Null, nil
	default:
		return Null, NewRuntimeError(fmt.Sprintf("unsupported JSON value %v", val))
	}
}

func jsonNumber(raw interface{}) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
