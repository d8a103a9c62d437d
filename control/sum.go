package control

import (
	"time"

	"github.com/pkg/errors"
)

type sumOperand rune

const (
	addition    sumOperand = '+'
	subtraction sumOperand = '-'
)

// Sum adds or subtracts the outputs of several controllers fed the same measurement and setpoint.
type Sum struct {
	terms     []Controller
	operation []sumOperand
}

// NewSum creates a Sum. sumString holds one '+' or '-' per term.
func NewSum(sumString string, terms ...Controller) (*Sum, error) {
	ops := []rune(sumString)
	if len(ops) != len(terms) {
		return nil, errors.Errorf("invalid number of inputs for sum, expected %d got %d", len(ops), len(terms))
	}
	s := &Sum{terms: terms, operation: make([]sumOperand, len(ops))}
	for i, c := range ops {
		if c != '+' && c != '-' {
			return nil, errors.Errorf("expected +/- for sum got %c", c)
		}
		s.operation[i] = sumOperand(c)
	}
	return s, nil
}

// Combine sums two controllers, typically a feedback loop and a bias.
func Combine(a, b Controller) *Sum {
	return &Sum{terms: []Controller{a, b}, operation: []sumOperand{addition, addition}}
}

// Update implements Controller. Every term is updated on every call.
func (s *Sum) Update(measurement, setpoint float64, dt time.Duration) float64 {
	y := 0.0
	for i, term := range s.terms {
		switch s.operation[i] {
		case addition:
			y += term.Update(measurement, setpoint, dt)
		case subtraction:
			y -= term.Update(measurement, setpoint, dt)
		}
	}
	return y
}

// CombineFeedforward adds a feedforward term to a feedback controller on the same axis. The
// feedforward is asked to reach the setpoint as a velocity.
type CombineFeedforward struct {
	Feedback    Controller
	Feedforward Feedforward
}

// Update implements Controller.
func (c *CombineFeedforward) Update(measurement, setpoint float64, dt time.Duration) float64 {
	return c.Feedback.Update(measurement, setpoint, dt) +
		c.Feedforward.Update(FeedforwardSetpoint{Velocity: setpoint}, dt)
}

var (
	_ Controller = (*Sum)(nil)
	_ Controller = (*CombineFeedforward)(nil)
)
