package goemitter

import (
	"go/token"
	"strings"

	"github.com/iancoleman/strcase"
)

// exportedName converts dotted or snake_case descriptor names into an
// exported Go identifier: "cat.indices" -> "CatIndices".
func exportedName(parts ...string) string {
	var b strings.Builder
	for _, part := range parts {
		for _, seg := range strings.Split(part, ".") {
			b.WriteString(strcase.ToCamel(seg))
		}
	}
	return b.String()
}

// fieldName converts a parameter name into an unexported field name,
// keeping clear of Go keywords and the builder's own members.
func fieldName(name string) string {
	n := strcase.ToLowerCamel(name)
	if token.IsKeyword(n) || n == "transport" || n == "body" {
		return n + "_"
	}
	return n
}

// fileName converts a namespace path into an output file name:
// ["security","oidc"] -> "security_oidc.go".
func fileName(path []string) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = strcase.ToSnake(p)
	}
	return strings.Join(parts, "_") + ".go"
}

// constName builds an enum constant name from its type and value:
// ("Format", "json") -> "FormatJson".
func constName(typeName, value string) string {
	return typeName + strcase.ToCamel(value)
}

// sanitizePackageName lowers a requested package name onto the set of
// legal identifiers, falling back to the default when nothing is left.
func sanitizePackageName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || r == '_' || (r >= '0' && r <= '9' && b.Len() > 0) {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" || token.IsKeyword(out) {
		return defaultPackageName
	}
	return out
}
