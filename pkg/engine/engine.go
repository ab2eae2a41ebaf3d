// Package engine evaluates reconstruction job scripts. A job script is a
// small Lisp program run in a sandboxed zygomys environment whose builtins
// fill in a pipeline.Config.
//
//	(grid-size 64)
//	(bounds -1 1 -1 1 -1 1)
//	(view :front "shots/front.png")
//	(view :side "shots/side.png")
//	(view :top "shots/top.png")
//	(output "hull.stl")
package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chazu/hull/pkg/pipeline"
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

// Engine wraps the zygomys interpreter. It is safe for concurrent use; each
// call to Evaluate creates a fresh sandboxed environment for determinism.
type Engine struct {
	// BaseDir anchors relative image, output and preview paths named in a
	// script. Empty leaves them relative to the working directory.
	BaseDir string

	// Timeout bounds a single evaluation. Zero means EvalTimeout.
	Timeout time.Duration

	mu         sync.Mutex
	generation uint64
}

// NewEngine creates a new Engine instance.
func NewEngine() *Engine {
	return &Engine{}
}

// Evaluate runs a job script on top of pipeline.DefaultConfig and returns
// the resulting config.
//
// Return semantics:
//   - On success: returns config + nil errors + nil error
//   - On parse/eval failure: returns nil config + eval errors + nil error
//   - On fatal failure (timeout, panic): returns nil + nil + error
func (e *Engine) Evaluate(source string) (*pipeline.Config, []EvalError, error) {
	e.mu.Lock()
	e.generation++
	gen := e.generation
	e.mu.Unlock()

	ch := make(chan evalResult, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- evalResult{err: fmt.Errorf("panic during evaluation: %v", r)}
			}
		}()

		cfg, evalErrs, err := e.evaluate(source)
		ch <- evalResult{config: cfg, errors: evalErrs, err: err}
	}()

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = EvalTimeout
	}
	return waitWithTimeout(ch, gen, timeout, &e.mu, &e.generation)
}

// evaluate performs the actual zygomys evaluation in a fresh sandbox.
func (e *Engine) evaluate(source string) (*pipeline.Config, []EvalError, error) {
	cfg := pipeline.DefaultConfig()

	// Empty source is a valid job that keeps every default.
	if strings.TrimSpace(source) == "" {
		return &cfg, nil, nil
	}

	// Sandbox mode prevents scripts from touching the filesystem or
	// syscalls; builtins only record paths.
	env := zygo.NewZlispSandbox()
	defer env.Stop()

	registerBuiltins(env, &cfg, e.BaseDir)

	if err := env.LoadString(preprocessSource(source)); err != nil {
		return nil, parseZygomysError(err), nil
	}
	if _, err := env.Run(); err != nil {
		return nil, parseZygomysError(err), nil
	}
	return &cfg, nil, nil
}

// linePattern matches zygomys error messages that include "Error on line N: ..."
var linePattern = regexp.MustCompile(`(?is)(?:error )?on line (\d+):\s*(.*)`)

// linePatternShort matches simpler "line N: ..." patterns.
var linePatternShort = regexp.MustCompile(`(?is)^line (\d+):\s*(.*)`)

// parseZygomysError converts a zygomys error into one or more EvalError values.
// It attempts to extract line number information from the error message.
func parseZygomysError(err error) []EvalError {
	msg := err.Error()

	for _, re := range []*regexp.Regexp{linePattern, linePatternShort} {
		if m := re.FindStringSubmatch(msg); m != nil {
			line, _ := strconv.Atoi(m[1])
			return []EvalError{{
				Line:    line,
				Message: strings.TrimSpace(m[2]),
			}}
		}
	}

	return []EvalError{{Message: strings.TrimSpace(msg)}}
}
