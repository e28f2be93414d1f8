package log

import "encoding/json"

// Field represents a structured log field with a key and value
type Field struct {
	Key   string
	Value interface{}
}

// Str creates a string field
func Str(key, value string) Field {
	return Field{Key: key, Value: value}
}

// Int creates an integer field
func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64 creates an int64 field
func Int64(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// Bool creates a boolean field
func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// Any creates a field with an arbitrary value
func Any(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Err creates an error field
func Err(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Json creates a field holding the JSON rendering of a value; values
// that fail to marshal are logged as their Go representation.
func Json(key string, value interface{}) Field {
	b, err := json.Marshal(value)
	if err != nil {
		return Field{Key: key, Value: value}
	}
	return Field{Key: key, Value: string(b)}
}
