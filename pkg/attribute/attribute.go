package attribute

import "fmt"

// KeyValue represents a key-value pair attached to spans and metric
// observations.
type KeyValue struct {
	Key   string
	Value any
}

// String creates a string attribute.
func String(key, value string) KeyValue {
	return KeyValue{Key: key, Value: value}
}

// Int creates an integer attribute.
func Int(key string, value int) KeyValue {
	return KeyValue{Key: key, Value: value}
}

// Int64 creates an int64 attribute.
func Int64(key string, value int64) KeyValue {
	return KeyValue{Key: key, Value: value}
}

// Float64 creates a float64 attribute.
func Float64(key string, value float64) KeyValue {
	return KeyValue{Key: key, Value: value}
}

// Bool creates a boolean attribute.
func Bool(key string, value bool) KeyValue {
	return KeyValue{Key: key, Value: value}
}

// Any creates an attribute with any value type.
func Any(key string, value any) KeyValue {
	return KeyValue{Key: key, Value: value}
}

// ValueString renders an attribute value as a string. Scalar types render
// without reflection; anything else falls back to fmt.
func (kv KeyValue) ValueString() string {
	switch v := kv.Value.(type) {
	case string:
		return v
	case bool:
		if v {
			return "true"
		}
		return "false"
	case int:
		return fmt.Sprintf("%d", v)
	case int32:
		return fmt.Sprintf("%d", v)
	case int64:
		return fmt.Sprintf("%d", v)
	case uint64:
		return fmt.Sprintf("%d", v)
	case float32:
		return fmt.Sprintf("%g", v)
	case float64:
		return fmt.Sprintf("%g", v)
	case fmt.Stringer:
		return v.String()
	case error:
		return v.Error()
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}
