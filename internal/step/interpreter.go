package step

import (
	"errors"
	"fmt"

	"golang.org/x/net/html"
)

// Interpreter folds an ordered step sequence over a parsed HTML tree. The
// current context starts at the document root; each step operates on the
// output of the previous one.
type Interpreter struct {
	registry *Registry
}

func NewInterpreter(r *Registry) *Interpreter {
	return &Interpreter{registry: r}
}

// Registry returns the method registry the interpreter dispatches through.
func (it *Interpreter) Registry() *Registry { return it.registry }

// Run applies steps in list order and returns the final extraction result.
// Terminal steps yield their scalar directly; a sequence ending on a node
// yields the node's normalized text content. Any step failure aborts the
// whole extraction.
func (it *Interpreter) Run(root *html.Node, steps []Step) (string, error) {
	if len(steps) == 0 {
		return "", errors.New("empty step sequence")
	}
	ctx := NodeContext(root)
	for i, s := range steps {
		fn, err := it.registry.Get(s.Method)
		if err != nil {
			return "", fmt.Errorf("step %d: %w", i+1, err)
		}
		if ctx.Scalar() {
			return "", fmt.Errorf("step %d (%s): %w", i+1, s.Method, ErrScalarContext)
		}
		ctx, err = fn(ctx, s.Params)
		if err != nil {
			return "", fmt.Errorf("step %d (%s): %w", i+1, s.Method, err)
		}
	}
	if ctx.Scalar() {
		return ctx.Value(), nil
	}
	return Text(ctx.Node()), nil
}
