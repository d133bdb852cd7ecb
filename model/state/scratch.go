package state

import (
	"fmt"

	"github.com/viant/structology/conv"
	"github.com/viant/structology/visitor"
	"github.com/viant/toolbox"
)

// Scratch holds values collected by flow steps for a single conversation.
type Scratch map[string]interface{}

// Clone returns a deep copy of nested maps and slices.
func (s Scratch) Clone() Scratch {
	if s == nil {
		return nil
	}
	ret := make(Scratch, len(s))
	visit := visitor.MapVisitorOf[string, interface{}](s)
	_ = visit(func(key string, value interface{}) (bool, error) {
		ret[key] = cloneValue(value)
		return true, nil
	})
	return ret
}

// Merge adds or overwrites keys from payload; unrelated keys are kept.
func (s Scratch) Merge(payload map[string]interface{}) Scratch {
	if len(payload) == 0 {
		return s
	}
	if s == nil {
		s = make(Scratch, len(payload))
	}
	for k, v := range payload {
		s[k] = cloneValue(v)
	}
	return s
}

// Has returns true when key is present.
func (s Scratch) Has(key string) bool {
	_, ok := s[key]
	return ok
}

// Get returns value for the key.
func (s Scratch) Get(key string) (interface{}, bool) {
	v, ok := s[key]
	return v, ok
}

// String returns the string form of the value, or "" when absent.
func (s Scratch) String(key string) string {
	v, ok := s[key]
	if !ok || v == nil {
		return ""
	}
	return toolbox.AsString(v)
}

// Bool returns the boolean form of the value, or false when absent.
func (s Scratch) Bool(key string) bool {
	v, ok := s[key]
	if !ok || v == nil {
		return false
	}
	return toolbox.AsBoolean(v)
}

// Int returns the int form of the value, or 0 when absent.
func (s Scratch) Int(key string) int {
	v, ok := s[key]
	if !ok || v == nil {
		return 0
	}
	return toolbox.AsInt(v)
}

var converter = newConverter()

func newConverter() *conv.Converter {
	options := conv.DefaultOptions()
	options.IgnoreUnmapped = true
	return conv.NewConverter(options)
}

// Decode converts scratch into dest, which must be a pointer to a struct or map.
func (s Scratch) Decode(dest interface{}) error {
	if dest == nil {
		return fmt.Errorf("decode destination was nil")
	}
	if err := converter.Convert(map[string]interface{}(s), dest); err != nil {
		return fmt.Errorf("failed to decode scratch into %T: %w", dest, err)
	}
	return nil
}

func cloneValue(value interface{}) interface{} {
	switch actual := value.(type) {
	case map[string]interface{}:
		return map[string]interface{}(Scratch(actual).Clone())
	case Scratch:
		return actual.Clone()
	case []interface{}:
		ret := make([]interface{}, len(actual))
		for i, item := range actual {
			ret[i] = cloneValue(item)
		}
		return ret
	case []string:
		return append([]string(nil), actual...)
	default:
		return value
	}
}
