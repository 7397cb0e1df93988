package spec

import (
	"errors"
	"testing"
)

// parseTestDescriptor decodes a descriptor document literal and returns
// the endpoint name and body the loader would hand to Normalize.
func parseTestDescriptor(t *testing.T, src string) (string, *RawMap) {
	t.Helper()
	root, perr := parseDocument("test.json", []byte(src))
	if perr != nil {
		t.Fatalf("parse: %v", perr)
	}
	name, body, serr := canonicalDocument(root, "test")
	if serr != nil {
		t.Fatalf("canonical shape: %v", serr)
	}
	return name, body
}

func TestNormalize_SearchShape(t *testing.T) {
	t.Parallel()
	name, raw := parseTestDescriptor(t, `{
  "search": {
    "documentation": {"description": "Returns results matching a query."},
    "url": {
      "paths": [
        {"path": "/_search", "methods": ["GET", "POST"]},
        {"path": "/{index}/_search", "parts": {"index": {"type": "list", "description": "Index names to search"}}, "methods": ["GET", "POST"]}
      ]
    },
    "params": {"q": {"type": "string", "description": "Query in the Lucene query string syntax"}},
    "body": {"required": false, "description": "The search definition"}
  }
}`)

	ep, err := Normalize(name, raw, nil)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if ep.Name != "search" || len(ep.NamePath) != 1 {
		t.Fatalf("expected root endpoint search, got %q %v", ep.Name, ep.NamePath)
	}
	if len(ep.Variants) != 2 {
		t.Fatalf("expected 2 variants, got %d", len(ep.Variants))
	}
	if got := ep.Variants[1].Params(); len(got) != 1 || got[0] != "index" {
		t.Fatalf("expected second variant to bind index, got %v", got)
	}
	if len(ep.PathParams) != 1 || ep.PathParams[0].Name != "index" || ep.PathParams[0].Kind != List {
		t.Fatalf("unexpected path params: %+v", ep.PathParams)
	}
	if len(ep.QueryParams) != 1 || ep.QueryParams[0].Name != "q" || ep.QueryParams[0].Kind != String {
		t.Fatalf("unexpected query params: %+v", ep.QueryParams)
	}
	if len(ep.Methods) != 2 || ep.Methods[0] != GET || ep.Methods[1] != POST {
		t.Fatalf("expected canonical method order [GET POST], got %v", ep.Methods)
	}
	if ep.Body == nil || ep.Body.Required {
		t.Fatalf("expected optional body, got %+v", ep.Body)
	}
	if !ep.SupportsBody() {
		t.Fatalf("expected SupportsBody")
	}
	if ep.Description == "" {
		t.Fatalf("expected description to be carried through")
	}
}

func TestNormalize_UnknownFragment(t *testing.T) {
	t.Parallel()
	name, raw := parseTestDescriptor(t, `{
  "search": {
    "url": {"paths": [{"path": "/_search", "methods": ["GET"]}]},
    "params": {"timeout": {"$ref": "common_timeout"}}
  }
}`)

	_, err := Normalize(name, raw, FragmentTable{})
	if err == nil {
		t.Fatalf("expected unresolved-fragment error")
	}
	var ne *NormalizeError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NormalizeError, got %T", err)
	}
	if ne.Code != UnknownFragment {
		t.Fatalf("expected UnknownFragment, got %v", ne.Code)
	}
	if ne.Endpoint != "search" || ne.Name != "common_timeout" {
		t.Fatalf("expected error to name endpoint and fragment, got endpoint=%q name=%q", ne.Endpoint, ne.Name)
	}
}

func TestNormalize_ResolvesFragments(t *testing.T) {
	t.Parallel()
	common, perr := parseDocument("_common.json", []byte(`{
  "params": {
    "timeout": {"type": "time", "description": "Operation timeout", "default": "30s"},
    "pretty": {"type": "boolean"}
  }
}`))
	if perr != nil {
		t.Fatalf("parse common: %v", perr)
	}
	table, err := BuildFragmentTable(common)
	if err != nil {
		t.Fatalf("fragment table: %v", err)
	}
	if len(table) != 2 {
		t.Fatalf("expected 2 fragments, got %d", len(table))
	}

	name, raw := parseTestDescriptor(t, `{
  "ping": {
    "url": {"paths": [{"path": "/", "methods": ["HEAD"]}]},
    "params": {"request_timeout": {"$ref": "timeout"}}
  }
}`)
	ep, err := Normalize(name, raw, table)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(ep.QueryParams) != 1 {
		t.Fatalf("expected 1 query param, got %d", len(ep.QueryParams))
	}
	p := ep.QueryParams[0]
	if p.Name != "request_timeout" {
		t.Fatalf("expected declared name to win, got %q", p.Name)
	}
	if p.Kind != String || p.Default != "30s" {
		t.Fatalf("expected fragment kind and default to carry over, got %+v", p)
	}
}

func TestNormalize_UnknownKind(t *testing.T) {
	t.Parallel()
	name, raw := parseTestDescriptor(t, `{
  "search": {
    "url": {"paths": [{"path": "/_search", "methods": ["GET"]}]},
    "params": {"q": {"type": "query_dsl"}}
  }
}`)

	_, err := Normalize(name, raw, nil)
	var ne *NormalizeError
	if !errors.As(err, &ne) || ne.Code != UnknownKind {
		t.Fatalf("expected UnknownKind, got %v", err)
	}
	if ne.Name != "q" {
		t.Fatalf("expected error to name the parameter, got %q", ne.Name)
	}
}

func TestMapKind_Aliases(t *testing.T) {
	t.Parallel()
	cases := map[string]Kind{
		"string":  String,
		"text":    String,
		"date":    String,
		"time":    String,
		"enum":    Enum,
		"boolean": Boolean,
		"number":  Number,
		"int":     Number,
		"long":    Number,
		"float":   Number,
		"double":  Number,
		"list":    List,
	}
	for declared, want := range cases {
		got, ok := mapKind(declared)
		if !ok || got != want {
			t.Fatalf("mapKind(%q) = %v/%v, want %v", declared, got, ok, want)
		}
	}
	if _, ok := mapKind("object"); ok {
		t.Fatalf("expected object to be rejected")
	}
}

func TestNormalize_UnresolvedPlaceholder(t *testing.T) {
	t.Parallel()
	name, raw := parseTestDescriptor(t, `{
  "indices.get": {
    "url": {"paths": [{"path": "/{index}", "methods": ["GET"]}]}
  }
}`)

	_, err := Normalize(name, raw, nil)
	var ne *NormalizeError
	if !errors.As(err, &ne) || ne.Code != UnresolvedPlaceholder {
		t.Fatalf("expected UnresolvedPlaceholder, got %v", err)
	}
	if ne.Name != "index" {
		t.Fatalf("expected placeholder name, got %q", ne.Name)
	}
}

func TestNormalize_NoVariants(t *testing.T) {
	t.Parallel()
	name, raw := parseTestDescriptor(t, `{"search": {"url": {"paths": []}}}`)
	_, err := Normalize(name, raw, nil)
	var ne *NormalizeError
	if !errors.As(err, &ne) || ne.Code != NoVariants {
		t.Fatalf("expected NoVariants, got %v", err)
	}
}

func TestNormalize_NoMethods(t *testing.T) {
	t.Parallel()
	name, raw := parseTestDescriptor(t, `{"search": {"url": {"paths": [{"path": "/_search"}]}}}`)
	_, err := Normalize(name, raw, nil)
	var ne *NormalizeError
	if !errors.As(err, &ne) || ne.Code != NoMethods {
		t.Fatalf("expected NoMethods, got %v", err)
	}
}

func TestNormalize_TopLevelMethodsFallback(t *testing.T) {
	t.Parallel()
	name, raw := parseTestDescriptor(t, `{
  "info": {
    "methods": ["GET"],
    "url": {"paths": [{"path": "/"}]}
  }
}`)
	ep, err := Normalize(name, raw, nil)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(ep.Variants[0].Methods) != 1 || ep.Variants[0].Methods[0] != GET {
		t.Fatalf("expected top-level methods to apply to the variant, got %v", ep.Variants[0].Methods)
	}
}

func TestNormalize_ParamOrderPreserved(t *testing.T) {
	t.Parallel()
	name, raw := parseTestDescriptor(t, `{
  "search": {
    "url": {"paths": [{"path": "/_search", "methods": ["GET"]}]},
    "params": {
      "zeta": {"type": "string"},
      "alpha": {"type": "string"},
      "mid": {"type": "boolean"}
    }
  }
}`)
	ep, err := Normalize(name, raw, nil)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := []string{"zeta", "alpha", "mid"}
	for i, p := range ep.QueryParams {
		if p.Name != want[i] {
			t.Fatalf("expected declaration order %v, got %+v", want, ep.QueryParams)
		}
	}
}

func TestNormalize_EnumOptions(t *testing.T) {
	t.Parallel()
	name, raw := parseTestDescriptor(t, `{
  "cat.indices": {
    "url": {"paths": [{"path": "/_cat/indices", "methods": ["GET"]}]},
    "params": {"format": {"type": "enum", "options": ["json", "yaml", "text"], "default": "text"}}
  }
}`)
	ep, err := Normalize(name, raw, nil)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	p := ep.QueryParams[0]
	if p.Kind != Enum || len(p.Options) != 3 || p.Options[1] != "yaml" {
		t.Fatalf("unexpected enum parameter: %+v", p)
	}
	if p.Default != "text" {
		t.Fatalf("expected default text, got %v", p.Default)
	}
	if len(ep.NamePath) != 2 || ep.NamePath[0] != "cat" || ep.NamePath[1] != "indices" {
		t.Fatalf("unexpected name path: %v", ep.NamePath)
	}
}

func TestNormalize_NullBody(t *testing.T) {
	t.Parallel()
	name, raw := parseTestDescriptor(t, `{
  "cat.health": {
    "url": {"paths": [{"path": "/_cat/health", "methods": ["GET"]}]},
    "body": null
  }
}`)
	ep, err := Normalize(name, raw, nil)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if ep.Body != nil {
		t.Fatalf("expected null body to mean no body, got %+v", ep.Body)
	}
	if ep.SupportsBody() {
		t.Fatalf("GET-only endpoint without body must not support one")
	}
}

func TestNormalize_DropsUnreferencedParts(t *testing.T) {
	t.Parallel()
	name, raw := parseTestDescriptor(t, `{
  "indices.get": {
    "url": {
      "paths": [
        {"path": "/{index}", "parts": {"index": {"type": "list"}, "feature": {"type": "string"}}, "methods": ["GET"]}
      ]
    }
  }
}`)
	ep, err := Normalize(name, raw, nil)
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if len(ep.PathParams) != 1 || ep.PathParams[0].Name != "index" {
		t.Fatalf("expected unreferenced parts to be dropped, got %+v", ep.PathParams)
	}
}
