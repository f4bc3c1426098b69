// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spike

import "github.com/emer/emergent/v2/etime"

// spike.Context contains all the timing state and parameter information
// for running a model.  Timesteps are strictly sequential: step N+1 must
// not begin until step N's full kernel sequence has committed.
type Context struct {

	// accumulated amount of time the network has been running,
	// in simulation-time (not real world time), in seconds.
	Time float32

	// step counter within the current run, incremented by StepInc.
	Step int

	// total step count. this increments continuously from whenever
	// it was last reset.
	StepTot int

	// amount of time to increment per step.
	TimePerStep float32 `def:"0.001"`

	// current evaluation mode, e.g., Train, Test, etc
	Mode etime.Modes
}

// NewContext returns a new Context struct with default parameters
func NewContext() *Context {
	ctx := &Context{}
	ctx.Defaults()
	return ctx
}

// Defaults sets default values
func (ctx *Context) Defaults() {
	ctx.TimePerStep = 0.001
}

// Reset resets the counters all back to zero
func (ctx *Context) Reset() {
	ctx.Time = 0
	ctx.Step = 0
	ctx.StepTot = 0
	if ctx.TimePerStep == 0 {
		ctx.Defaults()
	}
}

// StepInc increments at the timestep level
func (ctx *Context) StepInc() {
	ctx.Step++
	ctx.StepTot++
	ctx.Time += ctx.TimePerStep
}
