package experiment

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/pricelearn/agent"
	"github.com/samuelfneumann/pricelearn/environment"
	ts "github.com/samuelfneumann/pricelearn/timestep"
)

// StepFunc is called by Rollout on every step with the step index, the
// action taken and the timestep it led to. Returning an error stops
// the rollout.
type StepFunc func(i int, action *mat.VecDense, step ts.TimeStep) error

// Rollout runs the greedy version of policy p on env for n steps,
// calling fn after each step. The environment is reset first and again
// whenever an episode ends. The policy is returned to training mode
// afterwards unless it was already in evaluation mode.
func Rollout(ctx context.Context, env environment.Environment,
	p agent.Policy, n int, fn StepFunc) error {
	if !p.IsEval() {
		p.Eval()
		defer p.Train()
	}

	step, err := env.Reset()
	if err != nil {
		return fmt.Errorf("rollout: %w", err)
	}

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		action := p.SelectAction(step)
		step, _, err = env.Step(action)
		if err != nil {
			return fmt.Errorf("rollout: %w", err)
		}
		if fn != nil {
			if err := fn(i, action, step); err != nil {
				return fmt.Errorf("rollout: %w", err)
			}
		}

		if step.Last() && i+1 < n {
			if step, err = env.Reset(); err != nil {
				return fmt.Errorf("rollout: %w", err)
			}
		}
	}
	return nil
}
