package reconcile

import (
	"errors"
	"testing"

	"github.com/restforge/spec2client/internal/spec"
)

func variant(pattern string, methods ...spec.HttpMethod) spec.UrlVariant {
	return spec.UrlVariant{
		Pattern:  pattern,
		Segments: spec.ParsePattern(pattern),
		Methods:  methods,
	}
}

func searchEndpoint() spec.EndpointSpec {
	return spec.EndpointSpec{
		Name:     "search",
		NamePath: []string{"search"},
		Variants: []spec.UrlVariant{
			variant("/_search", spec.GET, spec.POST),
			variant("/{index}/_search", spec.GET, spec.POST),
		},
		Methods:     []spec.HttpMethod{spec.GET, spec.POST},
		PathParams:  []spec.ParameterSpec{{Name: "index", Kind: spec.List}},
		QueryParams: []spec.ParameterSpec{{Name: "q", Kind: spec.String}},
		Body:        &spec.BodySpec{},
	}
}

func TestReconcile_SearchClassification(t *testing.T) {
	t.Parallel()
	re, err := Reconcile(searchEndpoint())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(re.Parts) != 1 {
		t.Fatalf("expected 1 part, got %d", len(re.Parts))
	}
	part := re.Parts[0]
	if part.Always {
		t.Fatalf("index is bound by one of two variants; must be conditional")
	}
	if len(part.Variants) != 1 || part.Variants[0] != 1 {
		t.Fatalf("expected index bound by variant 1, got %v", part.Variants)
	}
	if len(re.Required()) != 0 {
		t.Fatalf("expected no required constructor arguments, got %v", re.Required())
	}
	if opt := re.Optional(); len(opt) != 1 || opt[0].Name != "index" {
		t.Fatalf("expected index optional, got %v", opt)
	}
	if re.Plans[0].Pattern != "/{index}/_search" || re.Plans[1].Pattern != "/_search" {
		t.Fatalf("expected most specific shape first, got %+v", re.Plans)
	}
}

func TestReconcile_Selection(t *testing.T) {
	t.Parallel()
	re, err := Reconcile(searchEndpoint())
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if got := re.Select(map[string]bool{"index": true}); got.Pattern != "/{index}/_search" {
		t.Fatalf("with index set expected /{index}/_search, got %s", got.Pattern)
	}
	if got := re.Select(nil); got.Pattern != "/_search" {
		t.Fatalf("without index expected /_search, got %s", got.Pattern)
	}
	// Deterministic and idempotent.
	supplied := map[string]bool{"index": true}
	first := re.Select(supplied)
	second := re.Select(supplied)
	if first.Index != second.Index {
		t.Fatalf("selection not idempotent: %d vs %d", first.Index, second.Index)
	}
}

func TestReconcile_AlwaysRequired(t *testing.T) {
	t.Parallel()
	ep := spec.EndpointSpec{
		Name:     "index",
		NamePath: []string{"index"},
		Variants: []spec.UrlVariant{
			variant("/{index}/_doc/{id}", spec.PUT, spec.POST),
			variant("/{index}/_doc", spec.POST),
		},
		Methods: []spec.HttpMethod{spec.POST, spec.PUT},
		PathParams: []spec.ParameterSpec{
			{Name: "index", Kind: spec.String},
			{Name: "id", Kind: spec.String},
		},
		Body: &spec.BodySpec{Required: true},
	}
	re, err := Reconcile(ep)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	req := re.Required()
	if len(req) != 1 || req[0].Name != "index" {
		t.Fatalf("expected index always required, got %v", req)
	}
	opt := re.Optional()
	if len(opt) != 1 || opt[0].Name != "id" {
		t.Fatalf("expected id conditional, got %v", opt)
	}

	// Closure property: every variant binds each always-required part.
	for _, part := range re.Parts {
		if !part.Always {
			continue
		}
		if len(part.Variants) != len(ep.Variants) {
			t.Fatalf("always-required %s not bound by every variant: %v", part.Param.Name, part.Variants)
		}
	}
}

func TestReconcile_DuplicateVariantShape(t *testing.T) {
	t.Parallel()
	ep := spec.EndpointSpec{
		Name:     "scroll",
		NamePath: []string{"scroll"},
		Variants: []spec.UrlVariant{
			variant("/_search/scroll/{scroll_id}", spec.GET),
			variant("/_search/scroll/{id}", spec.GET),
		},
		Methods: []spec.HttpMethod{spec.GET},
		PathParams: []spec.ParameterSpec{
			{Name: "scroll_id", Kind: spec.String},
			{Name: "id", Kind: spec.String},
		},
	}
	_, err := Reconcile(ep)
	if err == nil {
		t.Fatalf("expected duplicate-shape error")
	}
	var re *Error
	if !errors.As(err, &re) || re.Code != DuplicateVariantShape {
		t.Fatalf("expected DuplicateVariantShape, got %v", err)
	}
	if re.Pattern == "" || re.Existing == "" || re.Pattern == re.Existing {
		t.Fatalf("expected both conflicting patterns, got %q and %q", re.Pattern, re.Existing)
	}
}

func TestReconcile_EqualSpecificityKeepsDeclarationOrder(t *testing.T) {
	t.Parallel()
	ep := spec.EndpointSpec{
		Name:     "nodes.stats",
		NamePath: []string{"nodes", "stats"},
		Variants: []spec.UrlVariant{
			variant("/_nodes/{node_id}/stats", spec.GET),
			variant("/_nodes/stats/{metric}", spec.GET),
		},
		Methods: []spec.HttpMethod{spec.GET},
		PathParams: []spec.ParameterSpec{
			{Name: "node_id", Kind: spec.List},
			{Name: "metric", Kind: spec.List},
		},
	}
	re, err := Reconcile(ep)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	got := re.Select(map[string]bool{"node_id": true, "metric": true})
	if got.Index != 0 {
		t.Fatalf("equal specificity must fall back to declaration order, got variant %d", got.Index)
	}
}

func TestReconcile_OnePlanPerVariant(t *testing.T) {
	t.Parallel()
	ep := searchEndpoint()
	re, err := Reconcile(ep)
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if len(re.Plans) != len(ep.Variants) {
		t.Fatalf("reconcile dropped a variant: %d plans for %d variants", len(re.Plans), len(ep.Variants))
	}
	seen := make(map[int]bool)
	for _, plan := range re.Plans {
		if seen[plan.Index] {
			t.Fatalf("variant %d appears twice", plan.Index)
		}
		seen[plan.Index] = true
	}
}

func TestVariantPlan_Method(t *testing.T) {
	t.Parallel()
	plan := VariantPlan{Methods: []spec.HttpMethod{spec.GET, spec.POST}}
	if got := plan.Method(false); got != spec.GET {
		t.Fatalf("without body expected GET, got %s", got)
	}
	if got := plan.Method(true); got != spec.POST {
		t.Fatalf("with body expected POST, got %s", got)
	}

	headOnly := VariantPlan{Methods: []spec.HttpMethod{spec.HEAD}}
	if got := headOnly.Method(true); got != spec.HEAD {
		t.Fatalf("body with no POST/PUT must keep canonical first method, got %s", got)
	}

	putOnly := VariantPlan{Methods: []spec.HttpMethod{spec.GET, spec.PUT}}
	if got := putOnly.Method(true); got != spec.PUT {
		t.Fatalf("with body and PUT available expected PUT, got %s", got)
	}
}
