package sink

import (
	"bytes"
	"encoding/json"
	"go/ast"
	"go/format"
	"go/token"
	"sort"

	"golang.org/x/tools/imports"
)

// WriteCode categorizes writer errors.
type WriteCode string

const (
	// TargetUnwritable means the sink rejected the write.
	TargetUnwritable WriteCode = "TargetUnwritable"
	// SerializationFailure means a tree could not be rendered. Emitters
	// only produce well-formed trees, so this is an internal invariant
	// violation.
	SerializationFailure WriteCode = "SerializationFailure"
)

// WriteError is a fatal writer error.
type WriteError struct {
	Code    WriteCode
	Path    string
	Message string
	Cause   error
}

func (e *WriteError) Error() string {
	if e.Path != "" {
		return e.Path + ": " + e.Message
	}
	return e.Message
}

func (e *WriteError) Unwrap() error { return e.Cause }

// Renderer serializes one generated document.
type Renderer interface {
	Render() ([]byte, error)
}

// File pairs a relative output path with renderable content.
type File struct {
	Path    string
	Content Renderer
}

// GoSource renders a Go syntax tree: the header line, the formatted
// tree, then an import-fixing pass so every emitted file is what the
// language formatter would produce.
type GoSource struct {
	// Header is written above the package clause, typically the
	// generated-code marker.
	Header string
	Tree   *ast.File
}

func (g GoSource) Render() ([]byte, error) {
	var buf bytes.Buffer
	if g.Header != "" {
		buf.WriteString(g.Header)
		buf.WriteString("\n\n")
	}
	if err := format.Node(&buf, token.NewFileSet(), g.Tree); err != nil {
		return nil, err
	}
	return imports.Process("generated.go", buf.Bytes(), &imports.Options{
		Comments:  true,
		TabIndent: true,
		TabWidth:  8,
	})
}

// JSONDocument renders a marshalable value as indented JSON.
type JSONDocument struct {
	Value any
}

func (d JSONDocument) Render() ([]byte, error) {
	data, err := json.MarshalIndent(d.Value, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// TextFile renders literal contents, for non-Go artifacts such as a
// generated go.mod.
type TextFile struct {
	Data []byte
}

func (t TextFile) Render() ([]byte, error) { return t.Data, nil }

// Options configures a write pass.
type Options struct {
	// DryRun renders everything but writes nothing.
	DryRun bool
}

// PlannedFile records one rendered output.
type PlannedFile struct {
	Path string
	Size int
}

// Result summarizes a write pass.
type Result struct {
	Planned []PlannedFile
}

// Write renders every file and hands the batch to the sink, sorted by
// path so run-to-run output ordering is stable. All files render before
// the first write, so a render failure leaves the target untouched.
func Write(files []File, out OutputSink, opts Options) (Result, error) {
	ordered := append([]File(nil), files...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Path < ordered[j].Path })

	var res Result
	rendered := make([][]byte, len(ordered))
	for i, f := range ordered {
		data, err := f.Content.Render()
		if err != nil {
			return res, &WriteError{Code: SerializationFailure, Path: f.Path, Message: "render: " + err.Error(), Cause: err}
		}
		rendered[i] = data
		res.Planned = append(res.Planned, PlannedFile{Path: f.Path, Size: len(data)})
	}
	if opts.DryRun {
		return res, nil
	}
	for i, f := range ordered {
		if err := out.WriteFile(f.Path, rendered[i]); err != nil {
			return res, &WriteError{Code: TargetUnwritable, Path: f.Path, Message: "write: " + err.Error(), Cause: err}
		}
	}
	return res, nil
}
