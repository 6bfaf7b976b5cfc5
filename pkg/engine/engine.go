// Package engine evaluates slabanim scene scripts. It wraps zygomys in a
// sandboxed environment and produces a Program: the solids to slice and
// the slicing parameters the script chose.
package engine

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/chazu/slabanim/pkg/kernel"
	"github.com/chazu/slabanim/pkg/slicer"
	zygo "github.com/glycerine/zygomys/zygo"
)

// EvalError represents a non-fatal error encountered during evaluation,
// such as a parse error or a runtime error in user code.
type EvalError struct {
	Line    int
	Col     int
	Message string
}

func (e EvalError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// ObjectDef is one solid declared with defobject.
type ObjectDef struct {
	Name  string
	Solid kernel.Solid
}

// Program is the outcome of evaluating a script.
type Program struct {
	// Objects are the declared solids, in declaration order.
	Objects []ObjectDef
	// Params holds the slab-anim settings, or nil when the script did not
	// call slab-anim.
	Params *slicer.Params
	// Warnings are non-fatal notes about the script.
	Warnings []string
}

// Lookup returns the object declared under name.
func (p *Program) Lookup(name string) (ObjectDef, bool) {
	for _, o := range p.Objects {
		if o.Name == name {
			return o, true
		}
	}
	return ObjectDef{}, false
}

// Engine wraps the zygomys interpreter. It is safe for concurrent use;
// each call to Evaluate creates a fresh sandboxed environment for
// determinism.
type Engine struct {
	kernel     kernel.Kernel
	defaults   slicer.Params
	mu         sync.Mutex
	generation uint64
}

// NewEngine creates an Engine that builds solids with k.
func NewEngine(k kernel.Kernel) *Engine {
	return &Engine{kernel: k, defaults: slicer.DefaultParams()}
}

// SetDefaults sets the parameters slab-anim starts from before applying
// its own keywords.
func (e *Engine) SetDefaults(p slicer.Params) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.defaults = p
}

// Evaluate runs a scene script with no deadline beyond EvalTimeout.
func (e *Engine) Evaluate(source string) (*Program, []EvalError, error) {
	return e.EvaluateContext(context.Background(), source)
}

// EvaluateContext runs a scene script, giving up when ctx ends.
//
// Return semantics:
//   - On success: returns program + nil errors + nil error
//   - On parse/eval failure: returns nil program + eval errors + nil error
//   - On fatal failure (timeout, panic, cancellation): returns nil + nil + error
func (e *Engine) EvaluateContext(ctx context.Context, source string) (*Program, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	defaults := e.defaults
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		p, evalErrs, err := e.evaluate(source, defaults)
		ch <- evalResult{program: p, errors: evalErrs, err: err}
	}()

	return e.await(ctx, ch, gen)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string, defaults slicer.Params) (*Program, []EvalError, error) {
	// Empty source is a valid program that declares nothing.
	if strings.TrimSpace(source) == "" {
		return &Program{}, nil, nil
	}

	// Sandbox mode prevents scripts from reaching the filesystem or syscalls.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	b := &builder{kernel: e.kernel, defaults: defaults, prog: &Program{}}
	registerBuiltins(env, b)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}
	return b.prog, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?i)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?i)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{Line: line, Message: strings.TrimSpace(m[2])}}
		}
	}

	// Fallback: no line info available.
	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
