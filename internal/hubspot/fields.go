package hubspot

import (
	"math"
	"strings"

	"github.com/spf13/cast"

	"github.com/shohag/hsdest/internal/models"
)

// genericFieldPaths lists, per logical field, the message paths searched in
// order by GetFieldValueFromMessage.
var genericFieldPaths = map[string][]string{
	"email":  {"traits.email", "context.traits.email"},
	"traits": {"traits", "context.traits"},
}

// GetFieldValueFromMessage resolves a logical field against the message,
// returning the first truthy value found along the field's known paths.
// Unknown fields are looked up as a literal dotted path.
func GetFieldValueFromMessage(msg *models.Message, field string) any {
	paths, ok := genericFieldPaths[field]
	if !ok {
		paths = []string{field}
	}
	for _, p := range paths {
		if v := messagePath(msg, p); truthy(v) {
			return v
		}
	}
	return nil
}

// traitsOf returns the message traits, falling back to context.traits.
func traitsOf(msg *models.Message) map[string]any {
	traits, _ := GetFieldValueFromMessage(msg, "traits").(map[string]any)
	return traits
}

func messagePath(msg *models.Message, path string) any {
	root, rest, _ := strings.Cut(path, ".")
	var m map[string]any
	switch root {
	case "traits":
		m = msg.Traits
	case "properties":
		m = msg.Properties
	case "context":
		m = msg.Context
	default:
		return nil
	}
	if m == nil {
		return nil
	}
	if rest == "" {
		return m
	}
	v, _ := getPath(m, rest)
	return v
}

func getPath(m map[string]any, path string) (any, bool) {
	var cur any = m
	for _, seg := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// setPath assigns v at the dotted path, creating intermediate objects and
// replacing any non-object value standing in the way.
func setPath(m map[string]any, path string, v any) {
	segs := strings.Split(path, ".")
	cur := m
	for _, seg := range segs[:len(segs)-1] {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[seg] = next
		}
		cur = next
	}
	cur[segs[len(segs)-1]] = v
}

// truthy follows the collection layer's notion of a present value: nil,
// false, zero, NaN and the empty string are absent.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case map[string]any, []any:
		return true
	}
	if f, err := cast.ToFloat64E(v); err == nil {
		return f != 0 && !math.IsNaN(f)
	}
	return true
}

func stripNil(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if v != nil {
			out[k] = v
		}
	}
	return out
}
