// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spike

import (
	"fmt"
	"sync"
)

// ThreshParams are parameters for the threshold detection / reset kernel.
type ThreshParams struct {

	// enable refractory bookkeeping: every spiking neuron gets
	// NotRefractory cleared to 0 and LastSpike set to the current time.
	// The duration of the refractory period is enforced by whatever
	// computes the condition, not here.
	UsesRefractory bool

	// number of worker goroutines used by the Chunk backend.
	NWorkers int `def:"4" min:"1"`
}

func (tp *ThreshParams) Defaults() {
	tp.UsesRefractory = true
	tp.NWorkers = 4
	tp.Update()
}

func (tp *ThreshParams) Update() {
	if tp.NWorkers < 1 {
		tp.NWorkers = 1
	}
}

// Thresholder extracts the ascending list of indices where a per-neuron
// boolean condition holds, writing them plus the count into the shared
// spikespace buffer, and applies the refractory resets.  The condition
// itself is computed by the caller (the neuron dynamics evaluator) --
// this kernel only consumes its boolean result.
//
// Array handles are resolved once at construction; Run does no lookups
// and no allocation.
type Thresholder struct {

	// parameters, shared with the owning Group when there is one.
	Thresh ThreshParams

	// number of neurons; len of the condition array must equal this.
	N int

	// spikespace buffer written by Run.
	SS *SpikeSpace

	// resolved NotRefractory handle; may be nil when UsesRefractory is off.
	NotRefractory []float32

	// resolved LastSpike handle; may be nil when UsesRefractory is off.
	LastSpike []float32

	// per-worker index scratch for the Chunk backend.
	scratch [][]int32
}

// NewThresholder returns a thresholder over n neurons writing into the
// given spikespace.  notRefr and lastSpk must both be length n when
// pars.UsesRefractory is on; they are ignored otherwise.  Length
// mismatches are configuration errors.
func NewThresholder(pars ThreshParams, n int, ss *SpikeSpace, notRefr, lastSpk []float32) (*Thresholder, error) {
	pars.Update()
	if ss.N() != n {
		return nil, fmt.Errorf("spike.Thresholder: spikespace capacity %d != n %d", ss.N(), n)
	}
	if pars.UsesRefractory {
		if len(notRefr) != n || len(lastSpk) != n {
			return nil, fmt.Errorf("spike.Thresholder: refractory arrays len %d, %d != n %d", len(notRefr), len(lastSpk), n)
		}
	}
	th := &Thresholder{Thresh: pars, N: n, SS: ss, NotRefractory: notRefr, LastSpike: lastSpk}
	th.scratch = make([][]int32, pars.NWorkers)
	csz := n/pars.NWorkers + 1
	for wi := range th.scratch {
		th.scratch[wi] = make([]int32, 0, csz)
	}
	return th, nil
}

// Run executes the kernel on the given backend: cond is the per-neuron
// condition result (len must be N -- a violation is a caller bug), t is
// the current simulated time.  On return the spikespace holds the
// ascending true-indices and their count.
func (th *Thresholder) Run(bk Backend, cond []bool, t float32) {
	switch bk {
	case ChunkBackend:
		th.runChunk(cond, t)
	default:
		th.runLoop(cond, t)
	}
}

// runLoop is the natively-compiled-style single pass.
func (th *Thresholder) runLoop(cond []bool, t float32) {
	cnt := 0
	for ni := 0; ni < th.N; ni++ {
		if !cond[ni] {
			continue
		}
		th.SS.Buf[cnt] = int32(ni)
		cnt++
		if th.Thresh.UsesRefractory {
			th.NotRefractory[ni] = 0
			th.LastSpike[ni] = t
		}
	}
	th.SS.SetCount(cnt)
}

// runChunk scans disjoint contiguous chunks in parallel, then stitches
// the per-chunk index lists back in chunk order, which preserves the
// ascending-order contract.
func (th *Thresholder) runChunk(cond []bool, t float32) {
	nw := th.Thresh.NWorkers
	csz := (th.N + nw - 1) / nw
	var wg sync.WaitGroup
	for wi := 0; wi < nw; wi++ {
		st := wi * csz
		ed := st + csz
		if ed > th.N {
			ed = th.N
		}
		if st >= ed {
			th.scratch[wi] = th.scratch[wi][:0]
			continue
		}
		wg.Add(1)
		go func(wi, st, ed int) {
			defer wg.Done()
			sc := th.scratch[wi][:0]
			for ni := st; ni < ed; ni++ {
				if !cond[ni] {
					continue
				}
				sc = append(sc, int32(ni))
				if th.Thresh.UsesRefractory {
					th.NotRefractory[ni] = 0
					th.LastSpike[ni] = t
				}
			}
			th.scratch[wi] = sc
		}(wi, st, ed)
	}
	wg.Wait()
	cnt := 0
	for wi := 0; wi < nw; wi++ {
		cnt += copy(th.SS.Buf[cnt:], th.scratch[wi])
	}
	th.SS.SetCount(cnt)
}
