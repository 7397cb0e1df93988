package goemitter

import (
	"go/ast"
	"go/token"
	"strings"

	"github.com/restforge/spec2client/internal/reconcile"
	"github.com/restforge/spec2client/internal/spec"
)

// goParam binds one descriptor parameter to the identifiers it uses in
// generated code.
type goParam struct {
	spec     spec.ParameterSpec
	field    string
	setter   string
	required bool
	isQuery  bool
}

// builder emits one endpoint's request type: the struct and
// constructor, the fluent setters, and the path, method, and Do
// methods.
type builder struct {
	re       reconcile.ReconciledEndpoint
	typeName string
	path     []goParam
	query    []goParam
	hasBody  bool
	enums    *enumRegistry
}

func newBuilder(re reconcile.ReconciledEndpoint, enums *enumRegistry) builder {
	b := builder{
		re:       re,
		typeName: exportedName(re.Endpoint.NamePath...) + "Request",
		hasBody:  re.Endpoint.SupportsBody(),
		enums:    enums,
	}

	setters := map[string]bool{"Do": true}
	if b.hasBody {
		setters["Body"] = true
	}
	claim := func(name string) string {
		if setters[name] {
			name += "Param"
		}
		setters[name] = true
		return name
	}

	for _, part := range re.Parts {
		b.path = append(b.path, goParam{
			spec:     part.Param,
			field:    fieldName(part.Param.Name),
			setter:   claim(exportedName(part.Param.Name)),
			required: part.Always,
		})
	}
	for _, p := range re.Endpoint.QueryParams {
		if _, shadowed := re.Endpoint.PathParam(p.Name); shadowed {
			continue
		}
		b.query = append(b.query, goParam{
			spec:    p,
			field:   fieldName(p.Name),
			setter:  claim(exportedName(p.Name)),
			isQuery: true,
		})
	}
	return b
}

// opName is the endpoint's dotted descriptor name, used in doc comments.
func (b builder) opName() string {
	return b.re.Endpoint.Name
}

// accessorName is the method name namespace groups expose the endpoint
// under.
func (b builder) accessorName() string {
	np := b.re.Endpoint.NamePath
	return exportedName(np[len(np)-1])
}

// requiredArgs returns the constructor parameters for always-required
// path parts, and the argument expressions call sites forward.
func (b builder) requiredArgs() ([]*ast.Field, []ast.Expr) {
	var fields []*ast.Field
	var args []ast.Expr
	for _, p := range b.path {
		if !p.required {
			continue
		}
		fields = append(fields, field(b.paramType(p.spec), p.field))
		args = append(args, id(p.field))
	}
	return fields, args
}

// decls returns every declaration of the request type, in reading
// order.
func (b builder) decls() []ast.Decl {
	decls := []ast.Decl{b.structDecl(), b.ctorDecl()}
	for _, p := range b.path {
		if !p.required {
			decls = append(decls, b.setterDecl(p))
		}
	}
	for _, p := range b.query {
		decls = append(decls, b.setterDecl(p))
	}
	if b.hasBody {
		decls = append(decls, b.bodySetterDecl())
	}
	decls = append(decls, b.pathDecl(), b.methodDecl(), b.doDecl())
	return decls
}

// collectImports records the packages the emitted declarations refer
// to.
func (b builder) collectImports(set map[string]bool) {
	set["context"] = true
	set["net/http"] = true
	if len(b.query) > 0 {
		set["net/url"] = true
	}
	if b.hasBody {
		set["io"] = true
	}
	all := append(append([]goParam(nil), b.path...), b.query...)
	for _, p := range all {
		switch p.spec.Kind {
		case spec.List:
			set["strings"] = true
		case spec.Boolean, spec.Number:
			set["strconv"] = true
		}
	}
}

func (b builder) paramType(p spec.ParameterSpec) ast.Expr {
	switch p.Kind {
	case spec.Enum:
		return id(b.enums.register(p))
	case spec.Boolean:
		return id("bool")
	case spec.Number:
		return id("float64")
	case spec.List:
		return sliceOf(id("string"))
	default:
		return id("string")
	}
}

// fieldType wraps optional scalars in a pointer so "unset" stays
// distinguishable from the zero value. Lists use nil slices instead.
func (b builder) fieldType(p goParam) ast.Expr {
	t := b.paramType(p.spec)
	if p.required || p.spec.Kind == spec.List {
		return t
	}
	return ptr(t)
}

func (b builder) recv() *ast.Field {
	return field(ptr(id(b.typeName)), "r")
}

func (b builder) self(name string) ast.Expr {
	return sel(id("r"), name)
}

func (b builder) structDecl() ast.Decl {
	fields := []*ast.Field{field(id("Transport"), "transport")}
	for _, p := range b.path {
		fields = append(fields, field(b.fieldType(p), p.field))
	}
	for _, p := range b.query {
		fields = append(fields, field(b.fieldType(p), p.field))
	}
	if b.hasBody {
		fields = append(fields, field(sel(id("io"), "Reader"), "body"))
	}

	lines := []string{b.typeName + " configures the " + b.opName() + " operation."}
	if d := b.re.Endpoint.Description; d != "" {
		lines = append(lines, "", sentence(d))
	}
	return typeDecl(doc(lines...), b.typeName, &ast.StructType{Fields: fieldList(fields...)})
}

func (b builder) ctorDecl() ast.Decl {
	params := []*ast.Field{field(id("Transport"), "transport")}
	required, _ := b.requiredArgs()
	params = append(params, required...)

	elts := []ast.Expr{kv("transport", id("transport"))}
	for _, p := range b.path {
		if p.required {
			elts = append(elts, kv(p.field, id(p.field)))
		}
	}

	name := "New" + b.typeName
	return funcDecl(
		doc(name+" returns a builder for the "+b.opName()+" operation."),
		nil, name,
		fieldList(params...),
		fieldList(field(ptr(id(b.typeName)))),
		ret(addr(composite(id(b.typeName), elts...))),
	)
}

func (b builder) setterDecl(p goParam) ast.Decl {
	role := "path"
	if p.isQuery {
		role = "query"
	}
	lines := []string{p.setter + " sets the " + p.spec.Name + " " + role + " parameter."}
	if d := p.spec.Description; d != "" {
		lines = append(lines, sentence(d))
	}

	var param *ast.Field
	var store ast.Stmt
	if p.spec.Kind == spec.List {
		param = &ast.Field{Names: []*ast.Ident{id("v")}, Type: &ast.Ellipsis{Elt: id("string")}}
		store = assign(b.self(p.field), token.ASSIGN, id("v"))
	} else {
		param = field(b.paramType(p.spec), "v")
		store = assign(b.self(p.field), token.ASSIGN, addr(id("v")))
	}

	return funcDecl(
		doc(lines...),
		b.recv(), p.setter,
		fieldList(param),
		fieldList(field(ptr(id(b.typeName)))),
		store,
		ret(id("r")),
	)
}

func (b builder) bodySetterDecl() ast.Decl {
	lines := []string{"Body sets the request body."}
	if b.re.Endpoint.Body != nil && b.re.Endpoint.Body.Description != "" {
		lines = append(lines, sentence(b.re.Endpoint.Body.Description))
	}
	return funcDecl(
		doc(lines...),
		b.recv(), "Body",
		fieldList(field(sel(id("io"), "Reader"), "v")),
		fieldList(field(ptr(id(b.typeName)))),
		assign(b.self("body"), token.ASSIGN, id("v")),
		ret(id("r")),
	)
}

// param looks up the binding for a placeholder name.
func (b builder) param(name string) goParam {
	for _, p := range b.path {
		if p.spec.Name == name {
			return p
		}
	}
	return goParam{spec: spec.ParameterSpec{Name: name}, field: fieldName(name)}
}

// setCheck is the "parameter is set" condition, or nil for required
// parameters.
func (b builder) setCheck(p goParam) ast.Expr {
	if p.required {
		return nil
	}
	if p.spec.Kind == spec.List {
		return binary(call(id("len"), b.self(p.field)), token.GTR, intLit(0))
	}
	return binary(b.self(p.field), token.NEQ, id("nil"))
}

// selectionChain renders the shared shape-selection skeleton: one
// branch per plan in selection order, guarded by that plan's optional
// parameters, with the least specific shape as the unguarded fallback.
func (b builder) selectionChain(stmtsFor func(reconcile.VariantPlan) []ast.Stmt) []ast.Stmt {
	var out []ast.Stmt
	for i, plan := range b.re.Plans {
		var conds []ast.Expr
		for _, name := range plan.Params {
			if c := b.setCheck(b.param(name)); c != nil {
				conds = append(conds, c)
			}
		}
		if len(conds) == 0 || i == len(b.re.Plans)-1 {
			out = append(out, stmtsFor(plan)...)
			break
		}
		cond := conds[0]
		for _, c := range conds[1:] {
			cond = binary(cond, token.LAND, c)
		}
		out = append(out, ifStmt(cond, stmtsFor(plan)...))
	}
	return out
}

// pathValue renders a path parameter as the string spliced into the
// URL.
func (b builder) pathValue(p goParam) ast.Expr {
	x := b.self(p.field)
	if p.spec.Kind == spec.List {
		return call(sel(id("strings"), "Join"), x, str(","))
	}
	var v ast.Expr = x
	if !p.required {
		v = deref(x)
	}
	switch p.spec.Kind {
	case spec.Enum:
		return call(id("string"), v)
	case spec.Boolean:
		return call(sel(id("strconv"), "FormatBool"), v)
	case spec.Number:
		return call(sel(id("strconv"), "FormatFloat"), v, charLit('f'), intLit(-1), intLit(64))
	default:
		return v
	}
}

// pathExpr renders one URL shape as a string concatenation.
func (b builder) pathExpr(v spec.UrlVariant) ast.Expr {
	if len(v.Segments) == 0 {
		return str("/")
	}
	var parts []ast.Expr
	lit := ""
	for _, seg := range v.Segments {
		if seg.Kind == spec.SegmentLiteral {
			lit += "/" + seg.Value
			continue
		}
		parts = append(parts, str(lit+"/"))
		lit = ""
		parts = append(parts, b.pathValue(b.param(seg.Value)))
	}
	if lit != "" {
		parts = append(parts, str(lit))
	}
	return concat(parts...)
}

func (b builder) pathDecl() ast.Decl {
	body := b.selectionChain(func(plan reconcile.VariantPlan) []ast.Stmt {
		return []ast.Stmt{ret(b.pathExpr(b.re.Endpoint.Variants[plan.Index]))}
	})
	return funcDecl(
		doc("path builds the request URL from the parameters that are set,", "preferring the most specific shape they satisfy."),
		b.recv(), "path",
		fieldList(),
		fieldList(field(id("string"))),
		body...,
	)
}

func methodExpr(m spec.HttpMethod) ast.Expr {
	names := map[spec.HttpMethod]string{
		spec.HEAD:   "MethodHead",
		spec.GET:    "MethodGet",
		spec.POST:   "MethodPost",
		spec.PUT:    "MethodPut",
		spec.PATCH:  "MethodPatch",
		spec.DELETE: "MethodDelete",
	}
	return sel(id("http"), names[m])
}

func (b builder) methodStmts(plan reconcile.VariantPlan) []ast.Stmt {
	noBody := plan.Method(false)
	withBody := plan.Method(true)
	if b.hasBody && withBody != noBody {
		return []ast.Stmt{
			ifStmt(binary(b.self("body"), token.NEQ, id("nil")), ret(methodExpr(withBody))),
			ret(methodExpr(noBody)),
		}
	}
	return []ast.Stmt{ret(methodExpr(noBody))}
}

func (b builder) methodDecl() ast.Decl {
	uniform := true
	first := b.re.Plans[0]
	for _, plan := range b.re.Plans[1:] {
		if plan.Method(false) != first.Method(false) || plan.Method(true) != first.Method(true) {
			uniform = false
			break
		}
	}

	var body []ast.Stmt
	if uniform {
		body = b.methodStmts(first)
	} else {
		body = b.selectionChain(b.methodStmts)
	}
	return funcDecl(
		nil,
		b.recv(), "method",
		fieldList(),
		fieldList(field(id("string"))),
		body...,
	)
}

// querySet renders the guarded url.Values assignment for one query
// parameter.
func (b builder) querySet(p goParam) ast.Stmt {
	var v ast.Expr
	switch p.spec.Kind {
	case spec.List:
		v = call(sel(id("strings"), "Join"), b.self(p.field), str(","))
	case spec.Enum:
		v = call(id("string"), deref(b.self(p.field)))
	case spec.Boolean:
		v = call(sel(id("strconv"), "FormatBool"), deref(b.self(p.field)))
	case spec.Number:
		v = call(sel(id("strconv"), "FormatFloat"), deref(b.self(p.field)), charLit('f'), intLit(-1), intLit(64))
	default:
		v = deref(b.self(p.field))
	}
	return ifStmt(
		b.setCheck(p),
		exprStmt(call(sel(id("params"), "Set"), str(p.spec.Name), v)),
	)
}

func (b builder) doDecl() ast.Decl {
	var body []ast.Stmt

	if len(b.query) > 0 {
		body = append(body, assign(id("params"), token.DEFINE, call(id("make"), sel(id("url"), "Values"))))
		for _, p := range b.query {
			body = append(body, b.querySet(p))
		}
	}

	body = append(body, assign(id("u"), token.DEFINE, call(b.self("path"))))
	if len(b.query) > 0 {
		body = append(body, ifStmt(
			binary(call(id("len"), id("params")), token.GTR, intLit(0)),
			assign(id("u"), token.ADD_ASSIGN, binary(str("?"), token.ADD, call(sel(id("params"), "Encode")))),
		))
	}

	bodyArg := ast.Expr(id("nil"))
	if b.hasBody {
		bodyArg = b.self("body")
	}
	body = append(body,
		&ast.AssignStmt{
			Lhs: []ast.Expr{id("req"), id("err")},
			Tok: token.DEFINE,
			Rhs: []ast.Expr{call(sel(id("http"), "NewRequestWithContext"), id("ctx"), call(b.self("method")), id("u"), bodyArg)},
		},
		ifStmt(binary(id("err"), token.NEQ, id("nil")), ret(id("nil"), id("err"))),
	)
	if b.hasBody {
		body = append(body, ifStmt(
			binary(b.self("body"), token.NEQ, id("nil")),
			exprStmt(call(sel(sel(id("req"), "Header"), "Set"), str("Content-Type"), str("application/json"))),
		))
	}
	body = append(body, ret(call(sel(b.self("transport"), "Perform"), id("req"))))

	return funcDecl(
		doc("Do sends the request through the transport and returns the raw", "HTTP response."),
		b.recv(), "Do",
		fieldList(field(sel(id("context"), "Context"), "ctx")),
		fieldList(field(ptr(sel(id("http"), "Response"))), field(id("error"))),
		body...,
	)
}

// sentence normalizes a descriptor description for a doc comment.
func sentence(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
	if s == "" {
		return s
	}
	if !strings.HasSuffix(s, ".") && !strings.HasSuffix(s, "!") && !strings.HasSuffix(s, "?") {
		s += "."
	}
	return s
}
