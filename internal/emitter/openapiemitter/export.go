// Package openapiemitter projects the reconciled endpoint model onto an
// OpenAPI 3 document, one operation per URL shape and HTTP method.
package openapiemitter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/restforge/spec2client/internal/reconcile"
	"github.com/restforge/spec2client/internal/spec"
)

// Options controls the identity block of the exported document.
type Options struct {
	Title   string // info.title; defaults to "Generated API"
	Version string // info.version; defaults to "0.0.0"
}

// Export renders the endpoints as an OpenAPI document. Endpoints are
// visited in name order and variants in declaration order, so equal
// inputs produce equal documents.
func Export(endpoints []reconcile.ReconciledEndpoint, opts Options) (*openapi3.T, error) {
	title := strings.TrimSpace(opts.Title)
	if title == "" {
		title = "Generated API"
	}
	version := strings.TrimSpace(opts.Version)
	if version == "" {
		version = "0.0.0"
	}

	ordered := append([]reconcile.ReconciledEndpoint(nil), endpoints...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Endpoint.Name < ordered[j].Endpoint.Name
	})

	paths := openapi3.Paths{}
	claimed := map[string]string{}
	for _, re := range ordered {
		ep := re.Endpoint
		for vi, v := range ep.Variants {
			item := paths[v.Pattern]
			if item == nil {
				item = &openapi3.PathItem{}
				paths[v.Pattern] = item
			}
			for _, m := range v.Methods {
				key := string(m) + " " + v.Pattern
				if prev, ok := claimed[key]; ok {
					return nil, fmt.Errorf("openapiemitter: %s and %s both declare %s", prev, ep.Name, key)
				}
				claimed[key] = ep.Name
				item.SetOperation(string(m), operation(ep, v, vi, m))
			}
		}
	}

	return &openapi3.T{
		OpenAPI: "3.0.3",
		Info:    &openapi3.Info{Title: title, Version: version},
		Paths:   paths,
	}, nil
}

// operation builds the OpenAPI operation for one URL shape and method.
func operation(ep spec.EndpointSpec, v spec.UrlVariant, variantIndex int, m spec.HttpMethod) *openapi3.Operation {
	op := &openapi3.Operation{
		OperationID: operationID(ep, v, variantIndex, m),
		Summary:     ep.Description,
	}
	if len(ep.NamePath) > 1 {
		op.Tags = []string{strings.Join(ep.NamePath[:len(ep.NamePath)-1], ".")}
	}

	for _, name := range v.Params() {
		p, ok := ep.PathParam(name)
		if !ok {
			p = spec.ParameterSpec{Name: name, Kind: spec.String}
		}
		op.Parameters = append(op.Parameters, &openapi3.ParameterRef{Value: parameter(p, true)})
	}
	for _, p := range ep.QueryParams {
		op.Parameters = append(op.Parameters, &openapi3.ParameterRef{Value: parameter(p, false)})
	}

	if bodyMethod(m) && ep.SupportsBody() {
		body := &openapi3.RequestBody{
			Content: openapi3.NewContentWithJSONSchema(openapi3.NewObjectSchema()),
		}
		if ep.Body != nil {
			body.Description = ep.Body.Description
			body.Required = ep.Body.Required
		}
		op.RequestBody = &openapi3.RequestBodyRef{Value: body}
	}

	desc := "endpoint response"
	op.Responses = openapi3.Responses{
		"default": &openapi3.ResponseRef{Value: &openapi3.Response{Description: &desc}},
	}
	return op
}

// operationID derives a document-unique identifier: the dotted endpoint
// name, a variant suffix past the first shape, and the method when a
// shape accepts more than one.
func operationID(ep spec.EndpointSpec, v spec.UrlVariant, variantIndex int, m spec.HttpMethod) string {
	id := strings.ReplaceAll(ep.Name, ".", "_")
	if variantIndex > 0 {
		id += "_" + strconv.Itoa(variantIndex)
	}
	if len(v.Methods) > 1 {
		id += "_" + strings.ToLower(string(m))
	}
	return id
}

func bodyMethod(m spec.HttpMethod) bool {
	return m == spec.POST || m == spec.PUT || m == spec.PATCH
}

func parameter(p spec.ParameterSpec, inPath bool) *openapi3.Parameter {
	out := &openapi3.Parameter{
		Name:        p.Name,
		Description: p.Description,
		Schema:      paramSchema(p, inPath),
	}
	if inPath {
		out.In = openapi3.ParameterInPath
		out.Required = true
	} else {
		out.In = openapi3.ParameterInQuery
		if p.Kind == spec.List {
			out.Style = "form"
			out.Explode = openapi3.BoolPtr(false)
		}
	}
	return out
}

// paramSchema maps a parameter kind onto a schema. Path lists stay
// plain strings because their values are spliced into the URL
// comma-separated.
func paramSchema(p spec.ParameterSpec, inPath bool) *openapi3.SchemaRef {
	s := &openapi3.Schema{Default: p.Default}
	switch p.Kind {
	case spec.Enum:
		s.Type = "string"
		for _, o := range p.Options {
			s.Enum = append(s.Enum, o)
		}
	case spec.Boolean:
		s.Type = "boolean"
	case spec.Number:
		s.Type = "number"
	case spec.List:
		if inPath {
			s.Type = "string"
		} else {
			s.Type = "array"
			s.Items = openapi3.NewSchemaRef("", &openapi3.Schema{Type: "string"})
		}
	default:
		s.Type = "string"
	}
	return openapi3.NewSchemaRef("", s)
}
