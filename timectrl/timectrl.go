package timectrl

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidPlan indicates that dt, maxTime and timeOut cannot produce a
// usable step schedule.
var ErrInvalidPlan = errors.New("invalid step plan")

// Plan is the fixed step schedule of one integration run.
type Plan struct {
	Dt      float64
	MaxTime float64
	TimeOut float64

	// StepMax is the number of integrator steps, round(maxTime/dt).
	StepMax int
	// StepOut is the sampling stride, round(StepMax·timeOut/maxTime).
	StepOut int
	// StepOutMax is the number of samples, floor(StepMax/StepOut). Steps past
	// the last sampling boundary are integrated but not sampled.
	StepOutMax int
}

// NewPlan derives the step schedule.
func NewPlan(dt, maxTime, timeOut float64) (Plan, error) {
	if !(dt > 0) || math.IsInf(dt, 0) {
		return Plan{}, fmt.Errorf("%w: dt must be positive and finite, got %v", ErrInvalidPlan, dt)
	}
	if !(maxTime > 0) || math.IsInf(maxTime, 0) {
		return Plan{}, fmt.Errorf("%w: max time must be positive and finite, got %v", ErrInvalidPlan, maxTime)
	}
	if !(timeOut > 0) || timeOut > maxTime {
		return Plan{}, fmt.Errorf("%w: output interval must be in (0, %v], got %v", ErrInvalidPlan, maxTime, timeOut)
	}

	stepMax := int(math.Round(maxTime / dt))
	if stepMax < 1 {
		return Plan{}, fmt.Errorf("%w: max time %v shorter than one step of %v", ErrInvalidPlan, maxTime, dt)
	}
	stepOut := int(math.Round(float64(stepMax) * timeOut / maxTime))
	if stepOut < 1 {
		return Plan{}, fmt.Errorf("%w: output interval %v shorter than one step of %v", ErrInvalidPlan, timeOut, dt)
	}

	return Plan{
		Dt:         dt,
		MaxTime:    maxTime,
		TimeOut:    timeOut,
		StepMax:    stepMax,
		StepOut:    stepOut,
		StepOutMax: stepMax / stepOut,
	}, nil
}

// Listener is invoked after every completed step with the zero-based step
// index. A non-nil error stops the controller.
type Listener func(step int) error

// StepController drives a fixed number of synchronous steps and notifies
// registered listeners after each one.
type StepController struct {
	plan      Plan
	step      int
	listeners []Listener
}

// NewStepController constructs a controller for plan.
func NewStepController(plan Plan) *StepController {
	return &StepController{plan: plan}
}

// Plan returns the schedule the controller runs.
func (c *StepController) Plan() Plan { return c.plan }

// Steps returns the number of steps completed so far.
func (c *StepController) Steps() int { return c.step }

// AddListener registers a callback invoked after every step.
func (c *StepController) AddListener(fn Listener) {
	c.listeners = append(c.listeners, fn)
}

// Run calls advance for each of the plan's steps, then the listeners. It
// stops at the first error and returns it unchanged together with the
// number of completed steps.
func (c *StepController) Run(advance func(step int) error) (int, error) {
	c.step = 0
	for n := 0; n < c.plan.StepMax; n++ {
		if err := advance(n); err != nil {
			return c.step, err
		}
		c.step++
		for _, fn := range c.listeners {
			if err := fn(n); err != nil {
				return c.step, err
			}
		}
	}
	return c.step, nil
}
