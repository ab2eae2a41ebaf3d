package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/chazu/hull/pkg/carve"
	"github.com/chazu/hull/pkg/engine"
	"github.com/chazu/hull/pkg/export"
	"github.com/chazu/hull/pkg/pipeline"
	"github.com/chazu/hull/pkg/tessellate"
)

// App runs reconstruction jobs. It ties job script evaluation to the
// pipeline and reports failures in one flat list.
type App struct {
	engine *engine.Engine

	// Sink replaces the file sink named by the job. Tests set it to keep
	// meshes in memory.
	Sink export.Sink

	// Output, when set, replaces the output path named by a job script.
	Output string
}

// JobError is a job failure with the stage that raised it.
type JobError struct {
	Stage   string `json:"stage"`
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

func (e JobError) String() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s: line %d: %s", e.Stage, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

// JobResult is the outcome of a job. Result is nil whenever Errors is not
// empty.
type JobResult struct {
	Config *pipeline.Config
	Result *pipeline.Result
	Errors []JobError
}

// NewApp creates a new App with a job script engine.
func NewApp() *App {
	return &App{engine: engine.NewEngine()}
}

// Evaluate parses a job script and, when it is valid, reconstructs the hull
// it describes. Relative paths in the script are resolved against baseDir.
func (a *App) Evaluate(ctx context.Context, source, baseDir string) JobResult {
	a.engine.BaseDir = baseDir

	cfg, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		logger.Errorf("evaluate: %v", err)
		return JobResult{Errors: []JobError{{Stage: "eval", Message: err.Error()}}}
	}
	if len(evalErrs) > 0 {
		var result JobResult
		for _, e := range evalErrs {
			result.Errors = append(result.Errors, JobError{
				Stage:   "eval",
				Line:    e.Line,
				Col:     e.Col,
				Message: e.Message,
			})
		}
		return result
	}

	if a.Output != "" {
		cfg.Output = a.Output
	}
	return a.Reconstruct(ctx, *cfg)
}

// Reconstruct runs the pipeline for cfg.
func (a *App) Reconstruct(ctx context.Context, cfg pipeline.Config) JobResult {
	result := JobResult{Config: &cfg}

	p, err := pipeline.New(cfg)
	if err != nil {
		result.Errors = append(result.Errors, JobError{Stage: "config", Message: err.Error()})
		return result
	}

	res, err := p.Run(ctx, a.Sink)
	if err != nil {
		result.Errors = append(result.Errors, JobError{Stage: stageOf(err), Message: err.Error()})
		return result
	}
	result.Result = res
	return result
}

// stageOf names the pipeline stage an error came from.
func stageOf(err error) string {
	switch {
	case errors.Is(err, carve.ErrInputMismatch), errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return "carve"
	case errors.Is(err, tessellate.ErrDegenerateVolume), errors.Is(err, tessellate.ErrExtraction):
		return "tessellate"
	default:
		return "export"
	}
}
