// Package goemitter renders a reconciled namespace tree into Go client
// source files: one file per namespace, a client entry point, the
// transport contract, and the shared enum types.
package goemitter

import (
	"fmt"
	"go/ast"
	"go/token"
	"sort"
	"strings"

	"github.com/restforge/spec2client/internal/namespace"
	"github.com/restforge/spec2client/internal/sink"
	"github.com/restforge/spec2client/internal/spec"
)

const defaultPackageName = "restapi"

// Header is the marker line every generated file starts with.
const Header = "// Code generated by spec2client. DO NOT EDIT."

// Options controls how the Go emitter renders a client.
type Options struct {
	PackageName string // package clause of the generated files; defaults to "restapi"
	ModulePath  string // when set, a go.mod with this module path is emitted beside the sources
}

// Emit renders the namespace tree. Output is deterministic: equal trees
// render byte-equal files in the same order.
func Emit(root *namespace.Node, opts Options) ([]sink.File, error) {
	if root == nil {
		return nil, fmt.Errorf("goemitter: nil namespace tree")
	}
	e := &emitter{pkg: sanitizePackageName(opts.PackageName), enums: newEnumRegistry()}

	files := []sink.File{e.clientFile(root)}
	if len(root.Endpoints) > 0 {
		files = append(files, e.rootFile(root))
	}

	var walk func(prefix []string, n *namespace.Node)
	walk = func(prefix []string, n *namespace.Node) {
		for _, child := range n.Children {
			path := append(append([]string(nil), prefix...), child.Name)
			files = append(files, e.nodeFile(path, child))
			walk(path, child)
		}
	}
	walk(nil, root)

	if len(e.enums.names) > 0 {
		files = append(files, e.enumsFile())
	}
	files = append(files, e.transportFile())
	if opts.ModulePath != "" {
		files = append(files, moduleFile(opts.ModulePath))
	}

	seen := make(map[string]bool, len(files))
	for _, f := range files {
		if seen[f.Path] {
			return nil, fmt.Errorf("goemitter: output file %q emitted twice; rename the colliding namespace", f.Path)
		}
		seen[f.Path] = true
	}
	return files, nil
}

type emitter struct {
	pkg   string
	enums *enumRegistry
}

// groupFile wraps declarations into one output file.
func (e *emitter) groupFile(path string, decls []ast.Decl, imports map[string]bool) sink.File {
	var all []ast.Decl
	if len(imports) > 0 {
		paths := make([]string, 0, len(imports))
		for p := range imports {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		all = append(all, importDecl(paths...))
	}
	all = append(all, decls...)
	return sink.File{
		Path:    path,
		Content: sink.GoSource{Header: Header, Tree: sourceFile(e.pkg, all...)},
	}
}

// clientFile declares the Client entry point and its namespace
// accessors.
func (e *emitter) clientFile(root *namespace.Node) sink.File {
	decls := []ast.Decl{
		typeDecl(
			doc("Client is the entry point of the generated API."),
			"Client",
			&ast.StructType{Fields: fieldList(field(id("Transport"), "transport"))},
		),
		funcDecl(
			doc("New returns a Client that sends its requests through transport."),
			nil, "New",
			fieldList(field(id("Transport"), "transport")),
			fieldList(field(ptr(id("Client")))),
			ret(addr(composite(id("Client"), kv("transport", id("transport"))))),
		),
	}
	for _, child := range root.Children {
		decls = append(decls, e.namespaceAccessor(nil, "Client", "c", child))
	}
	return e.groupFile("client.go", decls, nil)
}

// rootFile holds the builders of endpoints living at the namespace
// root, exposed directly on Client.
func (e *emitter) rootFile(root *namespace.Node) sink.File {
	var decls []ast.Decl
	imports := map[string]bool{}
	for _, re := range root.Endpoints {
		b := newBuilder(re, e.enums)
		b.collectImports(imports)
		decls = append(decls, e.accessorDecl("Client", "c", b))
		decls = append(decls, b.decls()...)
	}
	return e.groupFile("root.go", decls, imports)
}

// nodeFile declares one namespace group: its struct, accessors for its
// child namespaces, and an accessor plus builder per endpoint.
func (e *emitter) nodeFile(path []string, node *namespace.Node) sink.File {
	groupType := exportedName(path...)
	dotted := strings.Join(path, ".")

	decls := []ast.Decl{
		typeDecl(
			doc(groupType+" groups the "+dotted+" operations."),
			groupType,
			&ast.StructType{Fields: fieldList(field(id("Transport"), "transport"))},
		),
	}
	for _, child := range node.Children {
		decls = append(decls, e.namespaceAccessor(path, groupType, "n", child))
	}

	imports := map[string]bool{}
	for _, re := range node.Endpoints {
		b := newBuilder(re, e.enums)
		b.collectImports(imports)
		decls = append(decls, e.accessorDecl(groupType, "n", b))
		decls = append(decls, b.decls()...)
	}
	return e.groupFile(fileName(path), decls, imports)
}

// namespaceAccessor returns the method exposing a child namespace on
// its parent group.
func (e *emitter) namespaceAccessor(prefix []string, recvType, recvName string, child *namespace.Node) ast.Decl {
	path := append(append([]string(nil), prefix...), child.Name)
	childType := exportedName(path...)
	return funcDecl(
		doc(exportedName(child.Name)+" returns the "+strings.Join(path, ".")+" namespace."),
		field(ptr(id(recvType)), recvName),
		exportedName(child.Name),
		fieldList(),
		fieldList(field(ptr(id(childType)))),
		ret(addr(composite(id(childType), kv("transport", sel(id(recvName), "transport"))))),
	)
}

// accessorDecl returns the method exposing an endpoint builder on its
// owning group, forwarding the always-required arguments.
func (e *emitter) accessorDecl(recvType, recvName string, b builder) ast.Decl {
	required, args := b.requiredArgs()
	callArgs := append([]ast.Expr{sel(id(recvName), "transport")}, args...)
	return funcDecl(
		doc(b.accessorName()+" returns a builder for the "+b.opName()+" operation."),
		field(ptr(id(recvType)), recvName),
		b.accessorName(),
		fieldList(required...),
		fieldList(field(ptr(id(b.typeName)))),
		ret(call(id("New"+b.typeName), callArgs...)),
	)
}

// enumsFile declares one string type per enum parameter with a constant
// per admissible value. The first parameter claiming a type name
// defines it.
func (e *emitter) enumsFile() sink.File {
	names := append([]string(nil), e.enums.names...)
	sort.Strings(names)

	var decls []ast.Decl
	for _, name := range names {
		p := e.enums.specs[name]
		decls = append(decls, typeDecl(
			doc(name+" enumerates the admissible "+p.Name+" values."),
			name, id("string"),
		))

		cd := &ast.GenDecl{Tok: token.CONST, Lparen: token.Pos(1)}
		seen := map[string]bool{}
		for _, opt := range p.Options {
			if opt == "" {
				continue
			}
			cn := constName(name, opt)
			if seen[cn] {
				continue
			}
			seen[cn] = true
			cd.Specs = append(cd.Specs, &ast.ValueSpec{
				Names:  []*ast.Ident{id(cn)},
				Type:   id(name),
				Values: []ast.Expr{str(opt)},
			})
		}
		if len(cd.Specs) > 0 {
			decls = append(decls, cd)
		}

		decls = append(decls, funcDecl(
			nil,
			field(id(name), "e"), "String",
			fieldList(),
			fieldList(field(id("string"))),
			ret(call(id("string"), id("e"))),
		))
	}
	return e.groupFile("enums.go", decls, nil)
}

// transportFile declares the contract generated requests are executed
// through.
func (e *emitter) transportFile() sink.File {
	perform := &ast.Field{
		Names: []*ast.Ident{id("Perform")},
		Type: &ast.FuncType{
			Params:  fieldList(field(ptr(sel(id("http"), "Request")))),
			Results: fieldList(field(ptr(sel(id("http"), "Response"))), field(id("error"))),
		},
	}
	decl := typeDecl(
		doc("Transport sends a prepared HTTP request and returns its response.",
			"Implementations own connection handling and credentials."),
		"Transport",
		&ast.InterfaceType{Methods: fieldList(perform)},
	)
	return e.groupFile("transport.go", []ast.Decl{decl}, map[string]bool{"net/http": true})
}

// moduleFile scaffolds a go.mod so the output directory is usable as a
// standalone module. Generated clients import only the standard
// library, so there is no require block.
func moduleFile(path string) sink.File {
	return sink.File{
		Path:    "go.mod",
		Content: sink.TextFile{Data: []byte("module " + path + "\n\ngo 1.23\n")},
	}
}

// enumRegistry collects the enum parameters seen while emitting
// builders, keyed by generated type name.
type enumRegistry struct {
	names []string
	specs map[string]spec.ParameterSpec
}

func newEnumRegistry() *enumRegistry {
	return &enumRegistry{specs: make(map[string]spec.ParameterSpec)}
}

// register records the parameter under its type name and returns that
// name. The first claim defines the type; later parameters with the
// same name reuse it.
func (r *enumRegistry) register(p spec.ParameterSpec) string {
	name := exportedName(p.Name)
	if _, ok := r.specs[name]; !ok {
		r.names = append(r.names, name)
		r.specs[name] = p
	}
	return name
}
