package goemitter

import (
	"go/ast"
	"go/token"
	"strconv"
)

// Small constructors for the synthetic syntax trees the emitter builds.
// Positions stay zero except where the printer needs a hint, such as the
// Lparen of a grouped import declaration.

func id(name string) *ast.Ident {
	return ast.NewIdent(name)
}

func sel(x ast.Expr, name string) *ast.SelectorExpr {
	return &ast.SelectorExpr{X: x, Sel: id(name)}
}

func call(fn ast.Expr, args ...ast.Expr) *ast.CallExpr {
	return &ast.CallExpr{Fun: fn, Args: args}
}

func str(v string) *ast.BasicLit {
	return &ast.BasicLit{Kind: token.STRING, Value: strconv.Quote(v)}
}

func intLit(v int) ast.Expr {
	if v < 0 {
		return &ast.UnaryExpr{Op: token.SUB, X: intLit(-v)}
	}
	return &ast.BasicLit{Kind: token.INT, Value: strconv.Itoa(v)}
}

func charLit(r rune) *ast.BasicLit {
	return &ast.BasicLit{Kind: token.CHAR, Value: strconv.QuoteRune(r)}
}

func ptr(t ast.Expr) *ast.StarExpr {
	return &ast.StarExpr{X: t}
}

func deref(x ast.Expr) *ast.StarExpr {
	return &ast.StarExpr{X: x}
}

func addr(x ast.Expr) *ast.UnaryExpr {
	return &ast.UnaryExpr{Op: token.AND, X: x}
}

func sliceOf(elem ast.Expr) *ast.ArrayType {
	return &ast.ArrayType{Elt: elem}
}

func binary(x ast.Expr, op token.Token, y ast.Expr) *ast.BinaryExpr {
	return &ast.BinaryExpr{X: x, Op: op, Y: y}
}

// concat folds expressions into a left-associative string concatenation.
func concat(parts ...ast.Expr) ast.Expr {
	expr := parts[0]
	for _, p := range parts[1:] {
		expr = binary(expr, token.ADD, p)
	}
	return expr
}

func field(typ ast.Expr, names ...string) *ast.Field {
	f := &ast.Field{Type: typ}
	for _, n := range names {
		f.Names = append(f.Names, id(n))
	}
	return f
}

func fieldList(fields ...*ast.Field) *ast.FieldList {
	return &ast.FieldList{List: fields}
}

func block(stmts ...ast.Stmt) *ast.BlockStmt {
	return &ast.BlockStmt{List: stmts}
}

func ret(results ...ast.Expr) *ast.ReturnStmt {
	return &ast.ReturnStmt{Results: results}
}

func exprStmt(x ast.Expr) *ast.ExprStmt {
	return &ast.ExprStmt{X: x}
}

func assign(lhs ast.Expr, tok token.Token, rhs ast.Expr) *ast.AssignStmt {
	return &ast.AssignStmt{Lhs: []ast.Expr{lhs}, Tok: tok, Rhs: []ast.Expr{rhs}}
}

func ifStmt(cond ast.Expr, body ...ast.Stmt) *ast.IfStmt {
	return &ast.IfStmt{Cond: cond, Body: block(body...)}
}

func kv(key string, value ast.Expr) ast.Expr {
	return &ast.KeyValueExpr{Key: id(key), Value: value}
}

func composite(typ ast.Expr, elts ...ast.Expr) *ast.CompositeLit {
	return &ast.CompositeLit{Type: typ, Elts: elts}
}

func doc(lines ...string) *ast.CommentGroup {
	g := &ast.CommentGroup{}
	for _, l := range lines {
		text := "//"
		if l != "" {
			text = "// " + l
		}
		g.List = append(g.List, &ast.Comment{Text: text})
	}
	return g
}

func funcDecl(docGroup *ast.CommentGroup, recv *ast.Field, name string, params, results *ast.FieldList, body ...ast.Stmt) *ast.FuncDecl {
	d := &ast.FuncDecl{
		Doc:  docGroup,
		Name: id(name),
		Type: &ast.FuncType{Params: params, Results: results},
		Body: block(body...),
	}
	if recv != nil {
		d.Recv = fieldList(recv)
	}
	return d
}

func typeDecl(docGroup *ast.CommentGroup, name string, typ ast.Expr) *ast.GenDecl {
	return &ast.GenDecl{
		Doc: docGroup,
		Tok: token.TYPE,
		Specs: []ast.Spec{
			&ast.TypeSpec{Name: id(name), Type: typ},
		},
	}
}

// importDecl builds a grouped import block. Lparen carries a synthetic
// position so the printer keeps the parenthesized form.
func importDecl(paths ...string) *ast.GenDecl {
	d := &ast.GenDecl{Tok: token.IMPORT, Lparen: token.Pos(1)}
	for _, p := range paths {
		d.Specs = append(d.Specs, &ast.ImportSpec{Path: str(p)})
	}
	return d
}

func sourceFile(pkg string, decls ...ast.Decl) *ast.File {
	return &ast.File{Name: id(pkg), Decls: decls}
}
