// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spike

import (
	"fmt"
	"sync"
)

// SummParams are parameters for the weighted summation (scatter-add)
// kernel.
type SummParams struct {

	// number of worker goroutines used by the Chunk backend.
	NWorkers int `def:"4" min:"1"`

	// minimum number of events per worker -- below NWorkers * MinChunk
	// events the Chunk backend falls back to the single loop, where the
	// goroutine overhead exceeds the work.
	MinChunk int `def:"64"`
}

func (sp *SummParams) Defaults() {
	sp.NWorkers = 4
	sp.MinChunk = 64
	sp.Update()
}

func (sp *SummParams) Update() {
	if sp.NWorkers < 1 {
		sp.NWorkers = 1
	}
}

// SummKernel reduces a list of (target index, weight) pairs into one
// accumulated value per target: out[k] = sum of weights[j] where
// targets[j] == k, and 0 for targets with no events.  This is a full
// replace of the output array every call -- callers wanting persistence
// across steps must combine with prior state themselves.
//
// Summation order is unspecified: the Chunk backend accumulates into
// per-worker partials and reduces them at the end, so float results can
// differ from the Loop backend within epsilon.
type SummKernel struct {

	// parameters.
	Summ SummParams

	// length of the output array (number of distinct possible targets).
	L int

	// per-worker partial accumulators for the Chunk backend.
	partials [][]float32
}

// NewSummKernel returns a summation kernel producing outputs of length l.
func NewSummKernel(pars SummParams, l int) *SummKernel {
	pars.Update()
	sk := &SummKernel{Summ: pars, L: l}
	sk.partials = make([][]float32, pars.NWorkers)
	for wi := range sk.partials {
		sk.partials[wi] = make([]float32, l)
	}
	return sk
}

// Validate checks the kernel inputs: equal-length target / weight lists
// and every target within [0, L).  Out-of-range targets are contract
// violations reported to the caller -- never clamped or dropped.
func (sk *SummKernel) Validate(targets []int32, weights []float32, out []float32) error {
	if len(targets) != len(weights) {
		return fmt.Errorf("spike.SummKernel: targets len %d != weights len %d", len(targets), len(weights))
	}
	if len(out) != sk.L {
		return fmt.Errorf("spike.SummKernel: out len %d != L %d", len(out), sk.L)
	}
	for j, tg := range targets {
		if tg < 0 || int(tg) >= sk.L {
			return fmt.Errorf("spike.SummKernel: target index %d at event %d out of range [0, %d)", tg, j, sk.L)
		}
	}
	return nil
}

// Run executes the scatter-reduction on the given backend, rewriting out
// in full.  Zero events produce an all-zero output.  Returns the
// validation error, if any, before touching out.
func (sk *SummKernel) Run(bk Backend, targets []int32, weights []float32, out []float32) error {
	if err := sk.Validate(targets, weights, out); err != nil {
		return err
	}
	if bk == ChunkBackend && len(targets) >= sk.Summ.NWorkers*sk.Summ.MinChunk {
		sk.runChunk(targets, weights, out)
	} else {
		sk.runLoop(targets, weights, out)
	}
	return nil
}

func (sk *SummKernel) runLoop(targets []int32, weights []float32, out []float32) {
	for k := range out {
		out[k] = 0
	}
	for j, tg := range targets {
		out[tg] += weights[j]
	}
}

// runChunk splits the event list across workers, each scattering into
// its own partial accumulator, then reduces the partials into out.
// Per-worker accumulation is what makes concurrent scatter safe without
// atomics; the reduction reorders float addition, which the contract
// permits.
func (sk *SummKernel) runChunk(targets []int32, weights []float32, out []float32) {
	nw := sk.Summ.NWorkers
	m := len(targets)
	csz := (m + nw - 1) / nw
	var wg sync.WaitGroup
	for wi := 0; wi < nw; wi++ {
		st := wi * csz
		ed := st + csz
		if ed > m {
			ed = m
		}
		part := sk.partials[wi]
		for k := range part {
			part[k] = 0
		}
		if st >= ed {
			continue
		}
		wg.Add(1)
		go func(part []float32, st, ed int) {
			defer wg.Done()
			for j := st; j < ed; j++ {
				part[targets[j]] += weights[j]
			}
		}(part, st, ed)
	}
	wg.Wait()
	for k := range out {
		sum := float32(0)
		for wi := 0; wi < nw; wi++ {
			sum += sk.partials[wi][k]
		}
		out[k] = sum
	}
}
