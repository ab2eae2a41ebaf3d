package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/chazu/hull/pkg/pipeline"
)

// EvalTimeout is the default limit for a single evaluation.
const EvalTimeout = 5 * time.Second

// evalResult passes evaluation results through channels.
type evalResult struct {
	config *pipeline.Config
	errors []EvalError
	err    error
}

// waitWithTimeout waits for a result from ch, but returns a timeout error
// if the evaluation exceeds timeout. It uses a generation counter to
// discard stale results from previous evaluations.
//
// On timeout, the goroutine may still be running; the generation check
// ensures its result is discarded when it eventually completes.
func waitWithTimeout(
	ch <-chan evalResult,
	gen uint64,
	timeout time.Duration,
	mu *sync.Mutex,
	currentGen *uint64,
) (*pipeline.Config, []EvalError, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		mu.Lock()
		current := *currentGen
		mu.Unlock()

		if gen != current {
			return nil, nil, fmt.Errorf("evaluation superseded by newer request")
		}

		return res.config, res.errors, res.err

	case <-timer.C:
		return nil, nil, fmt.Errorf("evaluation timed out after %s", timeout)
	}
}
