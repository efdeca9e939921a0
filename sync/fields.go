package sync

import (
	"fmt"
	"strings"
)

// Helpers for pulling values out of the dynamic JSON payloads the Spond API
// returns. Field names vary across endpoints and API revisions, so every
// lookup takes an ordered alias list and returns the first key present.

// pickField returns the first non-nil value for any of the given keys.
func pickField(doc map[string]interface{}, keys ...string) (interface{}, bool) {
	for _, key := range keys {
		if v, ok := doc[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// pickString returns the first non-empty string value for any of the keys.
// Non-string scalars are stringified; maps and slices yield "".
func pickString(doc map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		v, ok := doc[key]
		if !ok || v == nil {
			continue
		}
		if s := safeString(v); s != "" {
			return s
		}
	}
	return ""
}

// pickText is like pickString but flattens nested objects and arrays into
// their scalar string content. Spond models locations and similar fields as
// nested objects, and the keyword gate wants their text.
func pickText(doc map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		v, ok := doc[key]
		if !ok || v == nil {
			continue
		}
		var parts []string
		collectStrings(v, &parts)
		if joined := strings.TrimSpace(strings.Join(parts, " ")); joined != "" {
			return joined
		}
	}
	return ""
}

// collectStrings appends every scalar string nested under v, depth-first.
func collectStrings(v interface{}, out *[]string) {
	switch val := v.(type) {
	case string:
		if s := strings.TrimSpace(val); s != "" {
			*out = append(*out, s)
		}
	case map[string]interface{}:
		for _, nested := range val {
			collectStrings(nested, out)
		}
	case []interface{}:
		for _, nested := range val {
			collectStrings(nested, out)
		}
	}
}

// safeString converts a scalar JSON value to its string form.
func safeString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case bool:
		if val {
			return "true"
		}
		return "false"
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%d", int64(val))
		}
		return fmt.Sprintf("%v", val)
	case map[string]interface{}, []interface{}:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", val))
	}
}

// walkObjects visits every JSON object in the tree rooted at v, depth-first.
// Used to discover participant-shaped records wherever the event detail
// payload nests them.
func walkObjects(v interface{}, visit func(map[string]interface{})) {
	switch val := v.(type) {
	case map[string]interface{}:
		visit(val)
		for _, nested := range val {
			walkObjects(nested, visit)
		}
	case []interface{}:
		for _, nested := range val {
			walkObjects(nested, visit)
		}
	}
}
