// Package step executes ordered sequences of declarative traversal steps
// against parsed HTML trees, producing a single scalar extraction result.
package step

import (
	"errors"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Params holds the string parameters of a single step.
type Params map[string]string

// Step is one traversal or extraction operation in an ordered sequence.
type Step struct {
	Method string `json:"method" yaml:"method"`
	Params Params `json:"params,omitempty" yaml:"params,omitempty"`
}

var (
	// ErrNotFound is returned when a search step matches nothing.
	ErrNotFound = errors.New("no matching node")
	// ErrNoParent is returned by the parent step at the document root.
	ErrNoParent = errors.New("node has no parent")
	// ErrMissingAttribute is returned when a requested attribute is absent.
	ErrMissingAttribute = errors.New("attribute not present")
	// ErrNotElement is returned when a step needs an element node but the
	// current context is something else.
	ErrNotElement = errors.New("context is not an element")
	// ErrScalarContext is returned when a step follows a terminal step.
	ErrScalarContext = errors.New("step applied after a terminal step")
	// ErrMissingParam is returned when a step lacks a required parameter.
	ErrMissingParam = errors.New("missing step parameter")
	// ErrUnknownMethod is returned for method names that were never registered.
	ErrUnknownMethod = errors.New("unknown step method")
	// ErrBadSelector is returned for CSS selectors that fail to compile.
	ErrBadSelector = errors.New("invalid selector")
)

// Context is the value threaded through a step sequence: either a node in
// the parsed tree, or the scalar produced by a terminal step.
type Context struct {
	node   *html.Node
	value  string
	scalar bool
}

// NodeContext wraps a tree node as the current context.
func NodeContext(n *html.Node) *Context {
	return &Context{node: n}
}

// ScalarContext wraps a final string value as the current context.
func ScalarContext(v string) *Context {
	return &Context{value: v, scalar: true}
}

// Node returns the context's tree node, or nil for a scalar context.
func (c *Context) Node() *html.Node { return c.node }

// Value returns the scalar value. Valid only when Scalar reports true.
func (c *Context) Value() string { return c.value }

// Scalar reports whether the context holds a terminal scalar value.
func (c *Context) Scalar() bool { return c.scalar }

var innerSpace = regexp.MustCompile(`\s+`)

// Normalize collapses runs of whitespace and trims the result. All scalar
// results and all text comparisons go through this.
func Normalize(s string) string {
	return strings.TrimSpace(innerSpace.ReplaceAllString(s, " "))
}

// Text returns the normalized text content of a node's subtree.
func Text(n *html.Node) string {
	var b strings.Builder
	collectText(n, &b)
	return Normalize(b.String())
}

func collectText(n *html.Node, b *strings.Builder) {
	if n == nil {
		return
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}
