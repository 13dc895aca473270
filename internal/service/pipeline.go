package service

import (
	"errors"
	"fmt"
)

type State string

const (
	StateReceived   State = "received"
	StateNormalized State = "normalized"
	StateResolved   State = "resolved"
	StateOutcome    State = "outcome-determined"
	StateAttributed State = "attributed"
	StateRated      State = "rated"
	StateRolledUp   State = "rolled-up"
	StateDone       State = "done"
	StateFailed     State = "failed"
)

var stateOrder = []State{
	StateReceived,
	StateNormalized,
	StateResolved,
	StateOutcome,
	StateAttributed,
	StateRated,
	StateRolledUp,
	StateDone,
}

var ErrInvalidTransition = errors.New("invalid pipeline transition")

// Pipeline tracks one payload through the ingestion stages. Transitions are
// strictly sequential and no state is entered twice. Failed is reachable
// from any non-terminal state.
type Pipeline struct {
	state   State
	history []State
	err     error
}

func NewPipeline() *Pipeline {
	return &Pipeline{state: StateReceived, history: []State{StateReceived}}
}

func (p *Pipeline) State() State     { return p.state }
func (p *Pipeline) History() []State { return append([]State(nil), p.history...) }
func (p *Pipeline) Err() error       { return p.err }

func (p *Pipeline) terminal() bool {
	return p.state == StateDone || p.state == StateFailed
}

// Advance moves to the state immediately after the current one.
func (p *Pipeline) Advance(to State) error {
	if p.terminal() {
		return fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, p.state)
	}
	for i, s := range stateOrder {
		if s == p.state {
			if i+1 >= len(stateOrder) || stateOrder[i+1] != to {
				return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, p.state, to)
			}
			p.state = to
			p.history = append(p.history, to)
			return nil
		}
	}
	return fmt.Errorf("%w: unknown state %s", ErrInvalidTransition, p.state)
}

// AdvanceThrough walks every state up to and including to.
func (p *Pipeline) AdvanceThrough(to State) error {
	for p.state != to {
		next, err := p.next()
		if err != nil {
			return err
		}
		if err := p.Advance(next); err != nil {
			return err
		}
	}
	return nil
}

func (p *Pipeline) next() (State, error) {
	for i, s := range stateOrder {
		if s == p.state && i+1 < len(stateOrder) {
			return stateOrder[i+1], nil
		}
	}
	return "", fmt.Errorf("%w: nothing follows %s", ErrInvalidTransition, p.state)
}

// Fail records err and moves to the failed state. Failing a terminal
// pipeline is a no-op.
func (p *Pipeline) Fail(err error) {
	if p.terminal() {
		return
	}
	p.err = err
	p.state = StateFailed
	p.history = append(p.history, StateFailed)
}
