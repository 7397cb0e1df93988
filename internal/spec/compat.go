package spec

// Descriptor documents appear in two shapes: the keyed form, where the
// single top-level key is the endpoint name and its value is the
// descriptor body, and a flattened form carrying an explicit "name"
// member next to "url". canonicalDocument detects the shape and returns
// the endpoint name and body mapping.
func canonicalDocument(root *RawMap, fallback string) (string, *RawMap, *LoadError) {
	if _, ok := root.Get("url"); ok {
		name := fallback
		if s := asString(mustGet(root, "name")); s != "" {
			name = s
		}
		return name, root, nil
	}
	if root.Len() == 1 {
		key := root.Keys()[0]
		if body, ok := mapValue(root, key); ok {
			return key, body, nil
		}
	}
	return "", nil, &LoadError{
		Code:    Malformed,
		Message: "not an endpoint descriptor: expected a single named mapping or a flattened descriptor with a url member",
	}
}

func mustGet(m *RawMap, key string) any {
	v, _ := m.Get(key)
	return v
}

func asString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func mapValue(m *RawMap, key string) (*RawMap, bool) {
	v, ok := m.Get(key)
	if !ok {
		return nil, false
	}
	mm, ok := v.(*RawMap)
	return mm, ok
}

func listValue(m *RawMap, key string) ([]any, bool) {
	v, ok := m.Get(key)
	if !ok {
		return nil, false
	}
	l, ok := v.([]any)
	return l, ok
}

func stringValue(m *RawMap, key string) (string, bool) {
	v, ok := m.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
