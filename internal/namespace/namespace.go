// Package namespace groups reconciled endpoints into the hierarchy the
// generated client's method chaining mirrors.
package namespace

import (
	"fmt"
	"sort"
	"strings"

	"github.com/restforge/spec2client/internal/reconcile"
)

// ErrorCode categorizes namespace errors.
type ErrorCode string

const (
	// NameCollision means one name would have to be both an endpoint and
	// a namespace (or two endpoints), making the API surface ambiguous.
	NameCollision ErrorCode = "NameCollision"
)

// Error is a fatal namespace error. It aborts the whole run.
type Error struct {
	Code ErrorCode
	// Name is the colliding dotted name.
	Name string
	// Endpoint and Other are the two conflicting identities.
	Endpoint string
	Other    string
	Message  string
}

func (e *Error) Error() string { return e.Message }

// Node is one level of the generated client hierarchy. A node may hold
// both endpoint leaves and child namespaces, as long as their names do
// not overlap. Children and endpoints are sorted by name.
type Node struct {
	// Name is the node's own segment; empty for the root.
	Name      string
	Children  []*Node
	Endpoints []reconcile.ReconciledEndpoint
}

// Walk visits every endpoint in the tree depth-first, children in
// sorted order, passing the namespace path of the owning node.
func (n *Node) Walk(fn func(path []string, ep reconcile.ReconciledEndpoint)) {
	n.walk(nil, fn)
}

func (n *Node) walk(path []string, fn func([]string, reconcile.ReconciledEndpoint)) {
	for _, ep := range n.Endpoints {
		fn(path, ep)
	}
	for _, child := range n.Children {
		child.walk(append(path, child.Name), fn)
	}
}

type builderNode struct {
	name      string
	children  map[string]*builderNode
	endpoints map[string]reconcile.ReconciledEndpoint
	// witness is the first endpoint whose name created this namespace,
	// kept for collision reporting.
	witness string
}

func newBuilderNode(name string) *builderNode {
	return &builderNode{
		name:      name,
		children:  make(map[string]*builderNode),
		endpoints: make(map[string]reconcile.ReconciledEndpoint),
	}
}

// Build inserts every endpoint at the node its dotted name walks to.
// The returned tree partitions the endpoint set: every endpoint appears
// under exactly one node. Any name that would be both an endpoint and a
// namespace aborts the build.
func Build(endpoints []reconcile.ReconciledEndpoint) (*Node, error) {
	ordered := append([]reconcile.ReconciledEndpoint(nil), endpoints...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Endpoint.Name < ordered[j].Endpoint.Name
	})

	root := newBuilderNode("")
	for _, ep := range ordered {
		if err := insert(root, ep); err != nil {
			return nil, err
		}
	}
	return materialize(root), nil
}

func insert(root *builderNode, ep reconcile.ReconciledEndpoint) error {
	path := ep.Endpoint.NamePath
	node := root
	for i, seg := range path[:len(path)-1] {
		prefix := strings.Join(path[:i+1], ".")
		if other, ok := node.endpoints[seg]; ok {
			return &Error{
				Code:     NameCollision,
				Name:     prefix,
				Endpoint: ep.Endpoint.Name,
				Other:    other.Endpoint.Name,
				Message:  fmt.Sprintf("%s: namespace of %q collides with endpoint %q", prefix, ep.Endpoint.Name, other.Endpoint.Name),
			}
		}
		child, ok := node.children[seg]
		if !ok {
			child = newBuilderNode(seg)
			child.witness = ep.Endpoint.Name
			node.children[seg] = child
		}
		node = child
	}

	leaf := path[len(path)-1]
	if child, ok := node.children[leaf]; ok {
		return &Error{
			Code:     NameCollision,
			Name:     ep.Endpoint.Name,
			Endpoint: ep.Endpoint.Name,
			Other:    child.witness,
			Message:  fmt.Sprintf("%s: endpoint collides with namespace of %q", ep.Endpoint.Name, child.witness),
		}
	}
	if other, ok := node.endpoints[leaf]; ok {
		return &Error{
			Code:     NameCollision,
			Name:     ep.Endpoint.Name,
			Endpoint: ep.Endpoint.Name,
			Other:    other.Endpoint.Name,
			Message:  fmt.Sprintf("%s: endpoint declared twice", ep.Endpoint.Name),
		}
	}
	node.endpoints[leaf] = ep
	return nil
}

func materialize(b *builderNode) *Node {
	n := &Node{Name: b.name}

	names := make([]string, 0, len(b.endpoints))
	for name := range b.endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		n.Endpoints = append(n.Endpoints, b.endpoints[name])
	}

	kids := make([]string, 0, len(b.children))
	for name := range b.children {
		kids = append(kids, name)
	}
	sort.Strings(kids)
	for _, name := range kids {
		n.Children = append(n.Children, materialize(b.children[name]))
	}
	return n
}
