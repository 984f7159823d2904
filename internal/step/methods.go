package step

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// findText walks the context's subtree in document order and returns the
// first text node whose normalized content equals the "text" parameter.
func findText(ctx *Context, params Params) (*Context, error) {
	want, ok := params["text"]
	if !ok {
		return nil, fmt.Errorf("%w: text", ErrMissingParam)
	}
	var found *html.Node
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.TextNode && Normalize(n.Data) == Normalize(want) {
			found = n
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(ctx.Node())
	if found == nil {
		return nil, fmt.Errorf("%w: text %q", ErrNotFound, want)
	}
	return NodeContext(found), nil
}

func parentOf(ctx *Context, _ Params) (*Context, error) {
	p := ctx.Node().Parent
	if p == nil {
		return nil, ErrNoParent
	}
	return NodeContext(p), nil
}

func findNextSibling(ctx *Context, _ Params) (*Context, error) {
	for s := ctx.Node().NextSibling; s != nil; s = s.NextSibling {
		if s.Type == html.ElementNode {
			return NodeContext(s), nil
		}
	}
	return nil, fmt.Errorf("%w: no following element sibling", ErrNotFound)
}

func findPrevSibling(ctx *Context, _ Params) (*Context, error) {
	for s := ctx.Node().PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			return NodeContext(s), nil
		}
	}
	return nil, fmt.Errorf("%w: no preceding element sibling", ErrNotFound)
}

// selectCSS returns the first descendant matching the "selector" parameter.
func selectCSS(ctx *Context, params Params) (*Context, error) {
	sel, ok := params["selector"]
	if !ok {
		return nil, fmt.Errorf("%w: selector", ErrMissingParam)
	}
	matcher, err := cascadia.Compile(sel)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrBadSelector, sel, err)
	}
	found := goquery.NewDocumentFromNode(ctx.Node()).FindMatcher(matcher)
	if found.Length() == 0 {
		return nil, fmt.Errorf("%w: selector %q", ErrNotFound, sel)
	}
	return NodeContext(found.Nodes[0]), nil
}

// getAttribute yields the named attribute of the current element as the
// final scalar result.
func getAttribute(ctx *Context, params Params) (*Context, error) {
	name, ok := params["name"]
	if !ok {
		return nil, fmt.Errorf("%w: name", ErrMissingParam)
	}
	n := ctx.Node()
	if n.Type != html.ElementNode {
		return nil, ErrNotElement
	}
	for _, a := range n.Attr {
		if a.Key == name {
			return ScalarContext(Normalize(a.Val)), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrMissingAttribute, name)
}

// getText yields the normalized text content of the current node as the
// final scalar result.
func getText(ctx *Context, _ Params) (*Context, error) {
	return ScalarContext(Text(ctx.Node())), nil
}
