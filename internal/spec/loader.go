package spec

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrorCode categorizes loader errors for clearer handling and messaging.
type ErrorCode string

const (
	// Unreadable means the document (or the directory itself) could not
	// be read from the filesystem.
	Unreadable ErrorCode = "UnreadableError"
	// Encoding means the document bytes are not valid JSON/YAML.
	Encoding ErrorCode = "EncodingError"
	// Malformed means the document parsed but is not shaped like an
	// endpoint descriptor.
	Malformed ErrorCode = "MalformedError"
)

// LoadError is a structured per-document loader error.
type LoadError struct {
	Code    ErrorCode
	Path    string // file or directory the error is attributed to
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return e.Path + ": " + e.Message
	}
	return e.Message
}

func (e *LoadError) Unwrap() error { return e.Cause }

// Settings configures loader behavior.
type Settings struct {
	// Extensions lists the file suffixes treated as descriptor documents.
	Extensions []string
	// CommonName is the file stem of the shared fragment document.
	CommonName string
}

// DefaultSettings returns recommended defaults.
func DefaultSettings() Settings {
	return Settings{
		Extensions: []string{".json", ".yaml", ".yml"},
		CommonName: "_common",
	}
}

// Option mutates Settings.
type Option func(*Settings)

func WithExtensions(exts []string) Option { return func(s *Settings) { s.Extensions = exts } }
func WithCommonName(name string) Option   { return func(s *Settings) { s.CommonName = name } }

// Document pairs one descriptor document's identity with its decoded
// tree or its load error. Exactly one of Raw and Err is set.
type Document struct {
	// Path is the document's file name within the input directory.
	Path string
	// Name is the endpoint name, when one could be extracted.
	Name string
	Raw  *RawMap
	Err  error
}

// Corpus is the outcome of loading one descriptor directory.
type Corpus struct {
	// Documents holds one entry per endpoint document, sorted by path.
	// Documents that failed to load carry their error; loading never
	// stops early on a bad document.
	Documents []Document
	// Common is the decoded shared fragment document, nil when the
	// directory has none or it failed to load (reported in Documents).
	Common *RawMap
}

// Failed returns the documents that carry a load error.
func (c *Corpus) Failed() []Document {
	var out []Document
	for _, d := range c.Documents {
		if d.Err != nil {
			out = append(out, d)
		}
	}
	return out
}

// LoadDir reads every descriptor document in dir. Per-document failures
// are recorded on the returned Corpus; only an unreadable directory is
// returned as an error.
func LoadDir(ctx context.Context, dir string, opts ...Option) (*Corpus, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	settings := DefaultSettings()
	for _, opt := range opts {
		opt(&settings)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &LoadError{Code: Unreadable, Path: dir, Message: fmt.Sprintf("read directory: %v", err), Cause: err}
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !hasExtension(entry.Name(), settings.Extensions) {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	corpus := &Corpus{}
	for _, name := range names {
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		data, rerr := os.ReadFile(filepath.Join(dir, name))
		if rerr != nil {
			corpus.Documents = append(corpus.Documents, Document{
				Path: name,
				Name: stem,
				Err:  &LoadError{Code: Unreadable, Path: name, Message: fmt.Sprintf("read file: %v", rerr), Cause: rerr},
			})
			continue
		}

		root, perr := parseDocument(name, data)
		if perr != nil {
			corpus.Documents = append(corpus.Documents, Document{Path: name, Name: stem, Err: perr})
			continue
		}

		if stem == settings.CommonName {
			corpus.Common = root
			continue
		}

		epName, body, serr := canonicalDocument(root, stem)
		if serr != nil {
			serr.Path = name
			corpus.Documents = append(corpus.Documents, Document{Path: name, Name: stem, Err: serr})
			continue
		}
		corpus.Documents = append(corpus.Documents, Document{Path: name, Name: epName, Raw: body})
	}
	return corpus, nil
}

func hasExtension(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// parseDocument decodes one document into a RawMap tree, preserving key
// declaration order. JSON parses through the same decoder since YAML is
// a superset.
func parseDocument(path string, data []byte) (*RawMap, *LoadError) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, &LoadError{Code: Encoding, Path: path, Message: fmt.Sprintf("parse document: %v", err), Cause: err}
	}
	value, err := decodeNode(&node)
	if err != nil {
		return nil, &LoadError{Code: Encoding, Path: path, Message: err.Error(), Cause: err}
	}
	root, ok := value.(*RawMap)
	if !ok {
		return nil, &LoadError{Code: Malformed, Path: path, Message: "document root is not a mapping"}
	}
	return root, nil
}

func decodeNode(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return decodeNode(n.Content[0])
	case yaml.MappingNode:
		m := NewRawMap()
		for i := 0; i+1 < len(n.Content); i += 2 {
			var key string
			if err := n.Content[i].Decode(&key); err != nil {
				return nil, fmt.Errorf("mapping key at line %d: %w", n.Content[i].Line, err)
			}
			value, err := decodeNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Set(key, value)
		}
		return m, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			value, err := decodeNode(c)
			if err != nil {
				return nil, err
			}
			out = append(out, value)
		}
		return out, nil
	case yaml.AliasNode:
		return decodeNode(n.Alias)
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("scalar at line %d: %w", n.Line, err)
		}
		return v, nil
	}
}
