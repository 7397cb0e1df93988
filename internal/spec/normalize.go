package spec

import (
	"fmt"
	"strings"
)

// NormalizeCode categorizes normalization errors.
type NormalizeCode string

const (
	// UnknownFragment means a parameter referenced a shared fragment
	// name absent from the fragment table.
	UnknownFragment NormalizeCode = "UnknownFragment"
	// UnknownKind means a parameter declared a value kind outside the
	// closed kind set.
	UnknownKind NormalizeCode = "UnknownKind"
	// UnresolvedPlaceholder means a URL pattern references a path
	// parameter that no variant declares.
	UnresolvedPlaceholder NormalizeCode = "UnresolvedPlaceholder"
	// NoVariants means the descriptor declares no URL shapes.
	NoVariants NormalizeCode = "NoVariants"
	// NoMethods means a URL shape accepts no HTTP method.
	NoMethods NormalizeCode = "NoMethods"
	// InvalidDescriptor covers structural problems inside an otherwise
	// well-formed document.
	InvalidDescriptor NormalizeCode = "InvalidDescriptor"
)

// NormalizeError is a structured per-endpoint normalization error.
type NormalizeError struct {
	Code     NormalizeCode
	Endpoint string
	// Name is the parameter, fragment, or placeholder the error refers
	// to, when one applies.
	Name    string
	Message string
	Cause   error
}

func (e *NormalizeError) Error() string {
	if e.Endpoint != "" {
		return e.Endpoint + ": " + e.Message
	}
	return e.Message
}

func (e *NormalizeError) Unwrap() error { return e.Cause }

// BuildFragmentTable converts the shared fragment document into a
// fragment table. The document either wraps its parameters in a
// "params" member or is a bare parameter mapping. A nil document yields
// an empty table.
func BuildFragmentTable(common *RawMap) (FragmentTable, error) {
	table := make(FragmentTable)
	if common == nil {
		return table, nil
	}
	params := common
	if wrapped, ok := mapValue(common, "params"); ok {
		params = wrapped
	}
	for _, name := range params.Keys() {
		value, _ := params.Get(name)
		p, err := parseParameter("_common", name, value, nil)
		if err != nil {
			return nil, err
		}
		table[name] = p
	}
	return table, nil
}

// Normalize converts one raw descriptor body into a typed EndpointSpec.
// Shared fragment references resolve through the given table; the table
// is consulted read-only.
func Normalize(name string, raw *RawMap, fragments FragmentTable) (*EndpointSpec, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &NormalizeError{Code: InvalidDescriptor, Message: "endpoint name is empty"}
	}
	namePath := strings.Split(name, ".")
	for _, seg := range namePath {
		if seg == "" {
			return nil, &NormalizeError{Code: InvalidDescriptor, Endpoint: name, Message: fmt.Sprintf("endpoint name %q has an empty segment", name)}
		}
	}

	ep := &EndpointSpec{
		Name:        name,
		NamePath:    namePath,
		Description: documentation(raw),
	}

	url, ok := mapValue(raw, "url")
	if !ok {
		return nil, &NormalizeError{Code: InvalidDescriptor, Endpoint: name, Message: "descriptor has no url member"}
	}

	defaultMethods, err := methodList(name, raw, "methods")
	if err != nil {
		return nil, err
	}

	paths, _ := listValue(url, "paths")
	if len(paths) == 0 {
		return nil, &NormalizeError{Code: NoVariants, Endpoint: name, Message: "url.paths declares no URL shapes"}
	}

	seenParts := make(map[string]bool)
	for i, entry := range paths {
		pm, ok := entry.(*RawMap)
		if !ok {
			return nil, &NormalizeError{Code: InvalidDescriptor, Endpoint: name, Message: fmt.Sprintf("url.paths[%d] is not a mapping", i)}
		}
		pattern, ok := stringValue(pm, "path")
		if !ok {
			return nil, &NormalizeError{Code: InvalidDescriptor, Endpoint: name, Message: fmt.Sprintf("url.paths[%d] has no path", i)}
		}
		segments := ParsePattern(pattern)

		if parts, ok := mapValue(pm, "parts"); ok {
			for _, partName := range parts.Keys() {
				if seenParts[partName] {
					continue
				}
				value, _ := parts.Get(partName)
				p, perr := parseParameter(name, partName, value, fragments)
				if perr != nil {
					return nil, perr
				}
				ep.PathParams = append(ep.PathParams, p)
				seenParts[partName] = true
			}
		}

		methods, merr := methodList(name, pm, "methods")
		if merr != nil {
			return nil, merr
		}
		if len(methods) == 0 {
			methods = append([]HttpMethod(nil), defaultMethods...)
		}
		if len(methods) == 0 {
			return nil, &NormalizeError{Code: NoMethods, Endpoint: name, Message: fmt.Sprintf("variant %s accepts no HTTP method", pattern)}
		}
		ep.Variants = append(ep.Variants, UrlVariant{
			Pattern:  pattern,
			Segments: segments,
			Methods:  methods,
		})
	}

	ep.Methods = unionMethods(ep.Variants)

	// Query parameters may sit under url.params or at the top level; the
	// top-level block wins on duplicate names.
	if err := appendQueryParams(ep, url, fragments); err != nil {
		return nil, err
	}
	if err := appendQueryParams(ep, raw, fragments); err != nil {
		return nil, err
	}

	if body, ok := raw.Get("body"); ok && body != nil {
		bm, ok := body.(*RawMap)
		if !ok {
			return nil, &NormalizeError{Code: InvalidDescriptor, Endpoint: name, Message: "body is not a mapping"}
		}
		spec := &BodySpec{Required: asBool(mustGet(bm, "required"))}
		spec.Description, _ = stringValue(bm, "description")
		ep.Body = spec
	}

	// Every placeholder must resolve to a declared path parameter.
	for _, v := range ep.Variants {
		for _, placeholder := range v.Params() {
			if _, ok := ep.PathParam(placeholder); !ok {
				return nil, &NormalizeError{
					Code:     UnresolvedPlaceholder,
					Endpoint: name,
					Name:     placeholder,
					Message:  fmt.Sprintf("pattern %s references undeclared path parameter %q", v.Pattern, placeholder),
				}
			}
		}
	}

	// Drop declared parts no variant references; they cannot influence
	// path construction.
	ep.PathParams = referencedParts(ep)

	return ep, nil
}

func documentation(raw *RawMap) string {
	if s, ok := stringValue(raw, "description"); ok {
		return strings.TrimSpace(s)
	}
	if doc, ok := raw.Get("documentation"); ok {
		switch d := doc.(type) {
		case string:
			return strings.TrimSpace(d)
		case *RawMap:
			if s, ok := stringValue(d, "description"); ok {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

// ParsePattern splits a URL pattern on "/" into literal and placeholder
// segments. "{name}" tokens become placeholders; everything else is
// literal text.
func ParsePattern(pattern string) []PathSegment {
	var segments []PathSegment
	for _, token := range strings.Split(pattern, "/") {
		if token == "" {
			continue
		}
		if strings.HasPrefix(token, "{") && strings.HasSuffix(token, "}") {
			segments = append(segments, PathSegment{Kind: SegmentParam, Value: token[1 : len(token)-1]})
			continue
		}
		segments = append(segments, PathSegment{Kind: SegmentLiteral, Value: token})
	}
	return segments
}

func methodList(endpoint string, m *RawMap, key string) ([]HttpMethod, error) {
	entries, ok := listValue(m, key)
	if !ok {
		return nil, nil
	}
	var methods []HttpMethod
	seen := make(map[HttpMethod]bool)
	for _, entry := range entries {
		s := strings.ToUpper(strings.TrimSpace(asString(entry)))
		method := HttpMethod(s)
		if methodRank(method) > 5 {
			return nil, &NormalizeError{Code: InvalidDescriptor, Endpoint: endpoint, Message: fmt.Sprintf("unsupported HTTP method %q", entry)}
		}
		if !seen[method] {
			methods = append(methods, method)
			seen[method] = true
		}
	}
	SortMethods(methods)
	return methods, nil
}

func unionMethods(variants []UrlVariant) []HttpMethod {
	var union []HttpMethod
	seen := make(map[HttpMethod]bool)
	for _, v := range variants {
		for _, m := range v.Methods {
			if !seen[m] {
				union = append(union, m)
				seen[m] = true
			}
		}
	}
	SortMethods(union)
	return union
}

func appendQueryParams(ep *EndpointSpec, m *RawMap, fragments FragmentTable) error {
	params, ok := mapValue(m, "params")
	if !ok {
		return nil
	}
	for _, paramName := range params.Keys() {
		value, _ := params.Get(paramName)
		p, err := parseParameter(ep.Name, paramName, value, fragments)
		if err != nil {
			return err
		}
		replaced := false
		for i := range ep.QueryParams {
			if ep.QueryParams[i].Name == paramName {
				ep.QueryParams[i] = p
				replaced = true
				break
			}
		}
		if !replaced {
			ep.QueryParams = append(ep.QueryParams, p)
		}
	}
	return nil
}

func parseParameter(endpoint, name string, value any, fragments FragmentTable) (ParameterSpec, *NormalizeError) {
	m, ok := value.(*RawMap)
	if !ok {
		return ParameterSpec{}, &NormalizeError{Code: InvalidDescriptor, Endpoint: endpoint, Name: name, Message: fmt.Sprintf("parameter %q is not a mapping", name)}
	}

	if ref, ok := stringValue(m, "$ref"); ok {
		resolved, found := fragments.Resolve(ref)
		if !found {
			return ParameterSpec{}, &NormalizeError{
				Code:     UnknownFragment,
				Endpoint: endpoint,
				Name:     ref,
				Message:  fmt.Sprintf("parameter %q references unknown shared fragment %q", name, ref),
			}
		}
		resolved.Name = name
		return resolved, nil
	}

	declared, _ := stringValue(m, "type")
	kind, known := mapKind(declared)
	if !known {
		return ParameterSpec{}, &NormalizeError{
			Code:     UnknownKind,
			Endpoint: endpoint,
			Name:     name,
			Message:  fmt.Sprintf("parameter %q declares unknown kind %q", name, declared),
		}
	}

	p := ParameterSpec{Name: name, Kind: kind}
	p.Description, _ = stringValue(m, "description")
	p.Default = mustGet(m, "default")
	if options, ok := listValue(m, "options"); ok {
		for _, o := range options {
			p.Options = append(p.Options, scalarString(o))
		}
	}
	return p, nil
}

// mapKind folds the descriptor corpus's kind aliases onto the closed
// kind set.
func mapKind(declared string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(declared)) {
	case "string", "text", "date", "time":
		return String, true
	case "enum":
		return Enum, true
	case "boolean":
		return Boolean, true
	case "number", "int", "long", "float", "double":
		return Number, true
	case "list":
		return List, true
	}
	return "", false
}

func scalarString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func referencedParts(ep *EndpointSpec) []ParameterSpec {
	used := make(map[string]bool)
	for _, v := range ep.Variants {
		for _, name := range v.Params() {
			used[name] = true
		}
	}
	var kept []ParameterSpec
	for _, p := range ep.PathParams {
		if used[p.Name] {
			kept = append(kept, p)
		}
	}
	return kept
}
