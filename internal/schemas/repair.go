package schemas

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode/utf8"
)

// positionToken in an item default is replaced with the 1-based array position
const positionToken = "{n}"

// repairer walks a document alongside its JSON schema and restores
// structural conformance in place. It never removes fields it does not know.
type repairer struct {
	root    map[string]any
	changed bool
}

// repairDocument applies one repair pass to doc and reports whether it changed.
func repairDocument(schema map[string]any, doc map[string]any) bool {
	r := &repairer{root: schema}
	r.object(r.resolve(schema), doc, -1)
	return r.changed
}

// resolve follows internal "#/..." references
func (r *repairer) resolve(schema map[string]any) map[string]any {
	for depth := 0; depth < 8 && schema != nil; depth++ {
		ref, ok := schema["$ref"].(string)
		if !ok {
			return schema
		}
		target := r.lookup(ref)
		if target == nil {
			return schema
		}
		schema = target
	}
	return schema
}

func (r *repairer) lookup(ref string) map[string]any {
	if !strings.HasPrefix(ref, "#/") {
		return nil
	}
	var node any = r.root
	for _, part := range strings.Split(strings.TrimPrefix(ref, "#/"), "/") {
		m, ok := node.(map[string]any)
		if !ok {
			return nil
		}
		node = m[part]
	}
	m, _ := node.(map[string]any)
	return m
}

// value repairs a single value; index is the nearest enclosing array position or -1
func (r *repairer) value(schema map[string]any, v any, index int) any {
	schema = r.resolve(schema)
	if schema == nil {
		return v
	}

	switch schemaType(schema) {
	case "object":
		m, ok := v.(map[string]any)
		if !ok {
			if def, has := schema["default"]; has {
				r.changed = true
				return fillPosition(deepCopy(def), index)
			}
			return v
		}
		r.object(schema, m, index)
		return m
	case "array":
		arr, ok := v.([]any)
		if !ok {
			if def, has := schema["default"]; has {
				r.changed = true
				return deepCopy(def)
			}
			return v
		}
		return r.array(schema, arr)
	case "string":
		if s, ok := v.(string); ok {
			v = r.truncateString(schema, s)
		}
	case "number", "integer":
		v = r.clampNumber(schema, v)
	}

	return r.clampEnum(schema, v, index)
}

func (r *repairer) object(schema map[string]any, doc map[string]any, index int) {
	props, _ := schema["properties"].(map[string]any)

	for _, name := range stringList(schema["required"]) {
		if current, ok := doc[name]; ok && current != nil {
			continue
		}
		prop, _ := props[name].(map[string]any)
		prop = r.resolve(prop)
		if prop == nil {
			continue
		}
		if def, has := prop["default"]; has {
			doc[name] = deepCopy(def)
			r.changed = true
			continue
		}
		switch schemaType(prop) {
		case "array":
			doc[name] = []any{}
			r.changed = true
		case "object":
			doc[name] = map[string]any{}
			r.changed = true
		}
	}

	for name, prop := range props {
		current, ok := doc[name]
		if !ok || current == nil {
			continue
		}
		propSchema, _ := prop.(map[string]any)
		doc[name] = r.value(propSchema, current, index)
	}
}

func (r *repairer) array(schema map[string]any, arr []any) []any {
	if maxItems, ok := intKeyword(schema, "maxItems"); ok && len(arr) > maxItems {
		arr = arr[:maxItems]
		r.changed = true
	}

	items, _ := schema["items"].(map[string]any)
	items = r.resolve(items)
	if items == nil {
		return arr
	}

	for i := range arr {
		arr[i] = r.value(items, arr[i], i)
	}

	if minItems, ok := intKeyword(schema, "minItems"); ok && len(arr) < minItems {
		if def, has := items["default"]; has {
			for i := len(arr); i < minItems; i++ {
				arr = append(arr, fillPosition(deepCopy(def), i))
			}
			r.changed = true
		}
	}
	return arr
}

func (r *repairer) truncateString(schema map[string]any, s string) string {
	maxLen, ok := intKeyword(schema, "maxLength")
	if !ok || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r.changed = true
	return strings.TrimSpace(string([]rune(s)[:maxLen]))
}

func (r *repairer) clampNumber(schema map[string]any, v any) any {
	n, ok := v.(float64)
	if !ok {
		return v
	}
	if lo, ok := schema["minimum"].(float64); ok && n < lo {
		r.changed = true
		return lo
	}
	if hi, ok := schema["maximum"].(float64); ok && n > hi {
		r.changed = true
		return hi
	}
	return v
}

// clampEnum replaces a value outside its enum with a positional default
func (r *repairer) clampEnum(schema map[string]any, v any, index int) any {
	enum, ok := schema["enum"].([]any)
	if !ok || len(enum) == 0 {
		return v
	}
	switch v.(type) {
	case map[string]any, []any:
	default:
		for _, allowed := range enum {
			if allowed == v {
				return v
			}
		}
	}
	r.changed = true
	if index < 0 {
		return enum[0]
	}
	return enum[index%len(enum)]
}

func schemaType(schema map[string]any) string {
	switch t := schema["type"].(type) {
	case string:
		return t
	case []any:
		for _, candidate := range t {
			if s, ok := candidate.(string); ok && s != "null" {
				return s
			}
		}
	}
	if _, ok := schema["properties"]; ok {
		return "object"
	}
	return ""
}

func intKeyword(schema map[string]any, key string) (int, bool) {
	switch n := schema[key].(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil
	}
	return 0, false
}

func stringList(v any) []string {
	list, _ := v.([]any)
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// fillPosition replaces the position token in every string of v
func fillPosition(v any, index int) any {
	position := strconv.Itoa(index + 1)
	switch t := v.(type) {
	case string:
		return strings.ReplaceAll(t, positionToken, position)
	case map[string]any:
		for k, item := range t {
			t[k] = fillPosition(item, index)
		}
		return t
	case []any:
		for i, item := range t {
			t[i] = fillPosition(item, index)
		}
		return t
	default:
		return v
	}
}

func deepCopy(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return deepCopyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = deepCopy(item)
		}
		return out
	default:
		return v
	}
}

func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopy(v)
	}
	return out
}
