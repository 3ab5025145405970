// internal/validate/output.go
package validate

import "fmt"

// Kind identifies a JSON value type in a Schema.
type Kind string

const (
	KindObject  Kind = "object"
	KindArray   Kind = "array"
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindNull    Kind = "null"
)

// Schema is a minimal structural description of expected output.
// Required and Properties are only enforced when Type is KindObject.
type Schema struct {
	Type       Kind
	Required   []string
	Properties map[string]Kind
}

// Output checks decoded JSON data against a schema. It collects one
// error per violation rather than stopping at the first.
func Output(data any, schema Schema) Result {
	if data == nil {
		if schema.Type == KindNull {
			return valid()
		}
		return invalid("output is null or missing")
	}

	got := kindOf(data)
	if schema.Type != "" && got != schema.Type {
		return invalid(fmt.Sprintf("expected type %s, got %s", schema.Type, got))
	}

	if schema.Type != KindObject {
		return valid()
	}

	obj, ok := data.(map[string]any)
	if !ok {
		return invalid(fmt.Sprintf("expected type object, got %s", got))
	}

	var errs []string
	for _, field := range schema.Required {
		if _, present := obj[field]; !present {
			errs = append(errs, fmt.Sprintf("missing required property: %s", field))
		}
	}
	for name, want := range schema.Properties {
		value, present := obj[name]
		if !present {
			continue
		}
		if got := kindOf(value); got != want {
			errs = append(errs, fmt.Sprintf("property %s should be type %s, got %s", name, want, got))
		}
	}

	if len(errs) > 0 {
		return invalid(errs...)
	}
	return valid()
}

// kindOf maps a decoded JSON value to its schema kind.
func kindOf(v any) Kind {
	switch v.(type) {
	case nil:
		return KindNull
	case map[string]any:
		return KindObject
	case []any:
		return KindArray
	case string:
		return KindString
	case bool:
		return KindBoolean
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindNumber
	default:
		return Kind(fmt.Sprintf("%T", v))
	}
}
