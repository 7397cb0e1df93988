package spec

import "sort"

// Typed endpoint model produced by the normalizer and consumed by the
// reconciler, namespace builder, and emitters.

type HttpMethod string

const (
	HEAD   HttpMethod = "HEAD"
	GET    HttpMethod = "GET"
	POST   HttpMethod = "POST"
	PUT    HttpMethod = "PUT"
	PATCH  HttpMethod = "PATCH"
	DELETE HttpMethod = "DELETE"
)

// methodRank orders methods HEAD < GET < POST < PUT < PATCH < DELETE,
// the order variant method lists are stored and resolved in.
func methodRank(m HttpMethod) int {
	switch m {
	case HEAD:
		return 0
	case GET:
		return 1
	case POST:
		return 2
	case PUT:
		return 3
	case PATCH:
		return 4
	case DELETE:
		return 5
	}
	return 6
}

// SortMethods sorts methods into canonical order in place.
func SortMethods(methods []HttpMethod) {
	sort.SliceStable(methods, func(i, j int) bool {
		return methodRank(methods[i]) < methodRank(methods[j])
	})
}

// Kind is the closed set of parameter value kinds.
type Kind string

const (
	String  Kind = "string"
	Enum    Kind = "enum"
	Boolean Kind = "boolean"
	Number  Kind = "number"
	List    Kind = "list"
)

// ParameterSpec describes one path or query parameter.
type ParameterSpec struct {
	Name        string
	Kind        Kind
	Options     []string // admissible values when Kind == Enum
	Default     any      // nil when the descriptor declares none
	Description string
}

type SegmentKind string

const (
	SegmentLiteral SegmentKind = "literal"
	SegmentParam   SegmentKind = "param"
)

// PathSegment is one element of a URL pattern: a literal token or a
// placeholder naming a path ParameterSpec.
type PathSegment struct {
	Kind  SegmentKind
	Value string
}

// UrlVariant is one concrete URL shape for an endpoint, with the HTTP
// methods accepted on that shape.
type UrlVariant struct {
	Pattern  string // source pattern, e.g. "/{index}/_search"
	Segments []PathSegment
	Methods  []HttpMethod // canonical order
}

// Params returns the placeholder names of the variant in segment order.
func (v UrlVariant) Params() []string {
	var names []string
	for _, seg := range v.Segments {
		if seg.Kind == SegmentParam {
			names = append(names, seg.Value)
		}
	}
	return names
}

// BodySpec records that an endpoint accepts a request body.
type BodySpec struct {
	Required    bool
	Description string
}

// EndpointSpec is the typed form of one endpoint descriptor.
type EndpointSpec struct {
	// Name is the full dotted endpoint name, e.g. "cat.indices".
	Name string
	// NamePath is Name split on ".", e.g. ["cat", "indices"]. The leading
	// segments are the owning namespace; the last is the method name.
	NamePath []string
	Variants []UrlVariant
	// Methods is the union of variant methods in canonical order.
	Methods []HttpMethod
	// PathParams holds the specs of all placeholders appearing in any
	// variant, in declaration order.
	PathParams []ParameterSpec
	// QueryParams holds the query parameters in declaration order.
	QueryParams []ParameterSpec
	Body        *BodySpec
	Description string
}

// SupportsBody reports whether generated code should expose a body
// setter: the descriptor declares a body, or a variant accepts POST or
// PUT.
func (e *EndpointSpec) SupportsBody() bool {
	if e.Body != nil {
		return true
	}
	for _, m := range e.Methods {
		if m == POST || m == PUT {
			return true
		}
	}
	return false
}

// PathParam returns the spec of the named path parameter.
func (e *EndpointSpec) PathParam(name string) (ParameterSpec, bool) {
	for _, p := range e.PathParams {
		if p.Name == name {
			return p, true
		}
	}
	return ParameterSpec{}, false
}

// FragmentTable maps shared fragment names to their parameter specs. It
// is built once from the common document and consulted read-only during
// normalization.
type FragmentTable map[string]ParameterSpec

// Resolve looks up a fragment by name.
func (t FragmentTable) Resolve(name string) (ParameterSpec, bool) {
	p, ok := t[name]
	return p, ok
}

// RawMap is a decoded mapping that remembers key declaration order.
// Descriptor documents decode into trees of *RawMap, []any, and scalar
// values; the normalizer is the only consumer.
type RawMap struct {
	keys   []string
	values map[string]any
}

func NewRawMap() *RawMap {
	return &RawMap{values: make(map[string]any)}
}

// Set stores a key, appending it to the declaration order on first use.
func (m *RawMap) Set(key string, value any) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key.
func (m *RawMap) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the keys in declaration order. The slice is shared; do
// not mutate it.
func (m *RawMap) Keys() []string {
	if m == nil {
		return nil
	}
	return m.keys
}

func (m *RawMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}
