package query

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// ParseFilter extracts the filter expression from URL values. A JSON
// "filter" parameter wins; otherwise bracket keys such as
// filter[status][_eq]=published are folded into a nested object. It returns
// nil when no filter is present.
func ParseFilter(values url.Values) (any, error) {
	if raw, ok := values[ParamFilter]; ok && len(raw) > 0 && raw[0] != "" {
		return decodeJSONFilter(raw[0])
	}
	return parseBracketFilter(values)
}

// decodeJSONFilter keeps numbers as json.Number so they are re-encoded exactly.
func decodeJSONFilter(raw string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid filter JSON: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("invalid filter JSON: trailing data")
	}
	return v, nil
}

func parseBracketFilter(values url.Values) (any, error) {
	prefix := ParamFilter + "["

	var keys []string
	for key := range values {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil, nil
	}
	sort.Strings(keys)

	root := make(map[string]any)
	for _, key := range keys {
		path, err := bracketPath(strings.TrimPrefix(key, ParamFilter))
		if err != nil {
			return nil, fmt.Errorf("invalid filter key %q: %w", key, err)
		}
		if err := setPath(root, path, values[key]); err != nil {
			return nil, fmt.Errorf("invalid filter key %q: %w", key, err)
		}
	}
	return root, nil
}

// bracketPath splits "[a][b][]" into ["a", "b", ""]. Only the final segment
// may be empty, marking a list value.
func bracketPath(s string) ([]string, error) {
	var path []string
	for s != "" {
		if s[0] != '[' {
			return nil, fmt.Errorf("expected '[' at %q", s)
		}
		end := strings.IndexByte(s, ']')
		if end < 0 {
			return nil, fmt.Errorf("unterminated bracket")
		}
		path = append(path, s[1:end])
		s = s[end+1:]
	}

	if len(path) == 0 || path[0] == "" {
		return nil, fmt.Errorf("missing field name")
	}
	for _, seg := range path[:len(path)-1] {
		if seg == "" {
			return nil, fmt.Errorf("empty segment before the last position")
		}
	}
	return path, nil
}

func setPath(root map[string]any, path []string, vals []string) error {
	asList := path[len(path)-1] == ""
	if asList {
		path = path[:len(path)-1]
	}

	node := root
	for _, seg := range path[:len(path)-1] {
		next, exists := node[seg]
		if !exists {
			child := make(map[string]any)
			node[seg] = child
			node = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("%q is both a value and an object", seg)
		}
		node = child
	}

	leaf := path[len(path)-1]
	if _, exists := node[leaf]; exists {
		return fmt.Errorf("%q is both a value and an object", leaf)
	}

	if asList || len(vals) > 1 {
		list := make([]any, len(vals))
		for i, v := range vals {
			list[i] = v
		}
		node[leaf] = list
	} else {
		node[leaf] = vals[0]
	}
	return nil
}

// EncodeFilter serializes a filter deterministically (object keys sorted)
// without HTML escaping.
func EncodeFilter(filter any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(filter); err != nil {
		return "", fmt.Errorf("failed to encode filter: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
