// Package reconcile merges an endpoint's URL variants into a single
// parameter-driven path construction plan.
package reconcile

import (
	"fmt"
	"sort"
	"strings"

	"github.com/restforge/spec2client/internal/spec"
)

// ErrorCode categorizes reconciliation errors.
type ErrorCode string

const (
	// DuplicateVariantShape means two variants share one literal-segment
	// skeleton, which makes variant selection ambiguous.
	DuplicateVariantShape ErrorCode = "DuplicateVariantShape"
)

// Error is a fatal reconciliation error. It aborts the whole run.
type Error struct {
	Code     ErrorCode
	Endpoint string
	// Pattern and Existing identify the two conflicting URL shapes.
	Pattern  string
	Existing string
	Message  string
}

func (e *Error) Error() string {
	if e.Endpoint != "" {
		return e.Endpoint + ": " + e.Message
	}
	return e.Message
}

// PartPlan classifies one path parameter across an endpoint's variants.
type PartPlan struct {
	Param spec.ParameterSpec
	// Always is true when every variant binds this parameter.
	Always bool
	// Variants lists the declaration indexes of the variants that bind
	// this parameter.
	Variants []int
}

// VariantPlan is one selectable URL shape, carrying what generated code
// needs to decide whether the shape applies.
type VariantPlan struct {
	// Index is the variant's declaration index in the endpoint.
	Index   int
	Pattern string
	// Params holds the placeholder names the shape binds, in segment
	// order.
	Params  []string
	Methods []spec.HttpMethod
}

// Satisfied reports whether every parameter the shape binds is in the
// supplied set.
func (p VariantPlan) Satisfied(supplied map[string]bool) bool {
	for _, name := range p.Params {
		if !supplied[name] {
			return false
		}
	}
	return true
}

// Method resolves the HTTP method generated code sends for this shape.
// A set body prefers POST, then PUT; otherwise the first method in
// canonical order wins.
func (p VariantPlan) Method(hasBody bool) spec.HttpMethod {
	if hasBody {
		for _, want := range []spec.HttpMethod{spec.POST, spec.PUT} {
			for _, m := range p.Methods {
				if m == want {
					return m
				}
			}
		}
	}
	return p.Methods[0]
}

// ReconciledEndpoint augments an EndpointSpec with the per-parameter
// requirement classification and the deterministic variant selection
// order. It is immutable once built.
type ReconciledEndpoint struct {
	Endpoint spec.EndpointSpec
	// Parts classifies the path parameters in declaration order.
	Parts []PartPlan
	// Plans lists the variants in selection order: most path parameters
	// bound first, ties in declaration order. The last plan is the
	// fallback shape generated code uses when nothing more specific
	// matches.
	Plans []VariantPlan
}

// Required returns the always-required path parameters in declaration
// order. They become non-optional constructor arguments.
func (r ReconciledEndpoint) Required() []spec.ParameterSpec {
	var out []spec.ParameterSpec
	for _, part := range r.Parts {
		if part.Always {
			out = append(out, part.Param)
		}
	}
	return out
}

// Optional returns the conditionally-required path parameters in
// declaration order. They become fluent setters.
func (r ReconciledEndpoint) Optional() []spec.ParameterSpec {
	var out []spec.ParameterSpec
	for _, part := range r.Parts {
		if !part.Always {
			out = append(out, part.Param)
		}
	}
	return out
}

// Select picks the variant for a supplied parameter set: the first plan
// in selection order whose bound parameters are all supplied, falling
// back to the least specific shape. Selection is deterministic and
// idempotent.
func (r ReconciledEndpoint) Select(supplied map[string]bool) VariantPlan {
	for _, plan := range r.Plans {
		if plan.Satisfied(supplied) {
			return plan
		}
	}
	return r.Plans[len(r.Plans)-1]
}

// Reconcile derives the path construction plan for one endpoint.
// Exactly one ReconciledEndpoint is produced per input; the only
// failure mode is two variants sharing a URL shape.
func Reconcile(ep spec.EndpointSpec) (ReconciledEndpoint, error) {
	shapes := make(map[string]string, len(ep.Variants))
	for _, v := range ep.Variants {
		skel := skeleton(v.Segments)
		if existing, ok := shapes[skel]; ok {
			return ReconciledEndpoint{}, &Error{
				Code:     DuplicateVariantShape,
				Endpoint: ep.Name,
				Pattern:  v.Pattern,
				Existing: existing,
				Message:  fmt.Sprintf("variants %s and %s share one URL shape", existing, v.Pattern),
			}
		}
		shapes[skel] = v.Pattern
	}

	re := ReconciledEndpoint{Endpoint: ep}

	for _, param := range ep.PathParams {
		var bound []int
		for i, v := range ep.Variants {
			for _, name := range v.Params() {
				if name == param.Name {
					bound = append(bound, i)
					break
				}
			}
		}
		re.Parts = append(re.Parts, PartPlan{
			Param:    param,
			Always:   len(bound) == len(ep.Variants),
			Variants: bound,
		})
	}

	for i, v := range ep.Variants {
		re.Plans = append(re.Plans, VariantPlan{
			Index:   i,
			Pattern: v.Pattern,
			Params:  v.Params(),
			Methods: v.Methods,
		})
	}
	sort.SliceStable(re.Plans, func(i, j int) bool {
		return len(re.Plans[i].Params) > len(re.Plans[j].Params)
	})

	return re, nil
}

// skeleton erases placeholder names from a segment list, keeping literal
// positions, so structurally identical shapes compare equal.
func skeleton(segments []spec.PathSegment) string {
	tokens := make([]string, 0, len(segments))
	for _, seg := range segments {
		if seg.Kind == spec.SegmentParam {
			tokens = append(tokens, "{}")
			continue
		}
		tokens = append(tokens, seg.Value)
	}
	return strings.Join(tokens, "/")
}
