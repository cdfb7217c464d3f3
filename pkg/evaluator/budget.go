package evaluator

import (
	"fmt"

	"github.com/edwingeng/deque"

	"github.com/zanderlewis/weather/pkg/ast"
	"github.com/zanderlewis/weather/pkg/diagnostics"
)

// DefaultMaxCallDepth is the call depth limit used when none is configured.
const DefaultMaxCallDepth = 1000

// Budget holds the resource limits for a program execution.
type Budget struct {
	MaxCallDepth int
}

type frame struct {
	name string
	span ast.Span
}

// callStack tracks active user-function calls for the depth limit and tracebacks.
type callStack struct {
	frames deque.Deque
	max    int
}

func newCallStack(max int) *callStack {
	if max <= 0 {
		max = DefaultMaxCallDepth
	}
	return &callStack{frames: deque.NewDeque(), max: max}
}

func (c *callStack) push(name string, span ast.Span) error {
	if c.frames.Len() >= c.max {
		return &RuntimeError{
			Code:    diagnostics.ERecursion,
			Message: fmt.Sprintf("maximum call depth of %d exceeded calling '%s'", c.max, name),
			Span:    &span,
		}
	}
	c.frames.PushBack(frame{name: name, span: span})
	return nil
}

func (c *callStack) pop() {
	if !c.frames.Empty() {
		c.frames.PopBack()
	}
}

func (c *callStack) depth() int {
	return c.frames.Len()
}

// traceback lists active calls, innermost first. It cycles each frame from
// front to back once, leaving the stack as it found it.
func (c *callStack) traceback() []string {
	n := c.frames.Len()
	out := make([]string, n)
	for i := 0; i < n; i++ {
		f := c.frames.Front().(frame)
		c.frames.PopFront()
		c.frames.PushBack(f)
		out[n-1-i] = fmt.Sprintf("in %s at %s:%d:%d", f.name, f.span.File, f.span.StartLine, f.span.StartCol)
	}
	return out
}

// reset drops every frame; used after an error escapes to the top level.
func (c *callStack) reset() {
	for !c.frames.Empty() {
		c.frames.PopBack()
	}
}
