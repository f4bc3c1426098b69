// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spike

import (
	"errors"
	"fmt"
	"sync"

	"github.com/emer/emergent/v2/params"
	"github.com/emer/emergent/v2/paths"
)

// Network sequences the per-timestep kernel invocations across a set of
// groups and pathways.  The order within one step is fixed:
//
//	1. threshold / reset kernels (per group) write the spikespaces
//	2. per pathway: queue Advance, Push of the sender's spikes, Peek,
//	   summation of delivered events into the pathway accumulator
//	3. per group: integrate pathway accumulators into GeRaw
//
// Steps are strictly sequential; within a step each phase may fan out
// across goroutines because the touched state is disjoint (a group's
// spikespace and a pathway's queue have exactly one writer).
type Network struct {

	// name of the network.
	Name string

	// backend selecting the kernel implementations for all groups and paths.
	Backend Backend

	// number of goroutines for fanning the per-phase work out across
	// groups / pathways; <= 1 runs everything on the calling goroutine.
	NThreads int

	// list of groups in the network.
	Groups []*Group

	// list of pathways in the network.
	Paths []*Path

	// map of groups by name for quick lookup.
	GrpMap map[string]*Group `display:"-"`

	// network-level wait group for synchronizing the per-phase workers.
	WaitGp sync.WaitGroup `display:"-"`
}

// NewNetwork returns a new network with the given name.
func NewNetwork(name string) *Network {
	nt := &Network{Name: name, NThreads: 1}
	nt.GrpMap = make(map[string]*Group)
	return nt
}

// AddGroup adds a new group of n neurons with the given name,
// with default parameters.
func (nt *Network) AddGroup(name string, n int) *Group {
	gp := &Group{Name: name, N: n}
	gp.Defaults()
	nt.Groups = append(nt.Groups, gp)
	nt.GrpMap[name] = gp
	return gp
}

// GroupByName returns the group with the given name, nil if not found.
func (nt *Network) GroupByName(name string) *Group {
	return nt.GrpMap[name]
}

// ConnectGroups connects the sending group to the receiving group with
// the given connectivity pattern, returning the new pathway with
// default parameters.
func (nt *Network) ConnectGroups(send, recv *Group, pat paths.Pattern) *Path {
	pt := &Path{}
	pt.Defaults()
	pt.Connect(send, recv, pat)
	send.SendPaths = append(send.SendPaths, pt)
	recv.RecvPaths = append(recv.RecvPaths, pt)
	nt.Paths = append(nt.Paths, pt)
	return pt
}

// Build constructs all groups (state arrays, spikespaces, threshold
// kernels) then all pathways (connectivity, synapses, delay queues,
// summation kernels).  All configuration errors are reported here.
func (nt *Network) Build() error {
	var errs []error
	for _, gp := range nt.Groups {
		if err := gp.Build(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, pt := range nt.Paths {
		if err := pt.Build(); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := pt.BuildQueue(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BuildQueues rebuilds every pathway's delay queue and summation kernel
// from the current per-synapse delays -- call after editing delays.
func (nt *Network) BuildQueues() error {
	var errs []error
	for _, pt := range nt.Paths {
		if err := pt.BuildQueue(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// InitState initializes all run state in groups and pathways, and
// resets every delay queue.  Does not touch weights or delays.
func (nt *Network) InitState() {
	for _, gp := range nt.Groups {
		gp.InitState()
	}
	for _, pt := range nt.Paths {
		pt.InitGInc()
	}
}

// ApplyParams applies the given parameter style Sheet to the groups and
// pathways in the network.
func (nt *Network) ApplyParams(pars *params.Sheet, setMsg bool) (bool, error) {
	applied := false
	var rerr error
	for _, gp := range nt.Groups {
		app, err := gp.ApplyParams(pars, setMsg)
		if app {
			applied = true
		}
		if err != nil {
			rerr = err
		}
	}
	return applied, rerr
}

// Step runs one full timestep in the required kernel order, then
// increments the context counters.  Any summation validation error is
// returned after the step's remaining pathways have been skipped.
func (nt *Network) Step(ctx *Context) error {
	nt.RunThresh(ctx)
	err := nt.QueueStep(ctx)
	if err != nil {
		return fmt.Errorf("spike.Network: %v: step %d: %w", nt.Name, ctx.Step, err)
	}
	nt.GFromInc(ctx)
	ctx.StepInc()
	return nil
}

// RunThresh runs the threshold / reset kernels, filling every group's
// spikespace for this step.
func (nt *Network) RunThresh(ctx *Context) {
	nt.thrGrpFun(func(gp *Group) {
		gp.RunThresh(nt.Backend, ctx)
	})
}

// QueueStep runs every pathway's Advance / Push / Peek / summation
// sequence for this step.
func (nt *Network) QueueStep(ctx *Context) error {
	errs := make([]error, len(nt.Paths))
	nt.thrPathFun(func(pi int, pt *Path) {
		errs[pi] = pt.QueueStep(nt.Backend)
	})
	return errors.Join(errs...)
}

// GFromInc integrates every group's received pathway accumulators into
// its GeRaw input array.
func (nt *Network) GFromInc(ctx *Context) {
	nt.thrGrpFun(func(gp *Group) {
		gp.GFromInc()
	})
}

// thrGrpFun calls function on each group, using go routine workers if
// NThreads > 1 and otherwise just iterating on the calling goroutine.
func (nt *Network) thrGrpFun(fun func(gp *Group)) {
	if nt.NThreads <= 1 {
		for _, gp := range nt.Groups {
			if gp.Off {
				continue
			}
			fun(gp)
		}
		return
	}
	for _, gp := range nt.Groups {
		if gp.Off {
			continue
		}
		nt.WaitGp.Add(1)
		go func(gp *Group) {
			defer nt.WaitGp.Done()
			fun(gp)
		}(gp)
	}
	nt.WaitGp.Wait()
}

// thrPathFun calls function on each pathway, using go routine workers
// if NThreads > 1 and otherwise just iterating on the calling goroutine.
func (nt *Network) thrPathFun(fun func(pi int, pt *Path)) {
	if nt.NThreads <= 1 {
		for pi, pt := range nt.Paths {
			if pt.Off {
				continue
			}
			fun(pi, pt)
		}
		return
	}
	for pi, pt := range nt.Paths {
		if pt.Off {
			continue
		}
		nt.WaitGp.Add(1)
		go func(pi int, pt *Path) {
			defer nt.WaitGp.Done()
			fun(pi, pt)
		}(pi, pt)
	}
	nt.WaitGp.Wait()
}
