// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spike

import (
	"math/rand"
	"testing"
)

func threshBackends() []Backend {
	return []Backend{LoopBackend, ChunkBackend}
}

func TestThreshAscending(t *testing.T) {
	n := 100
	cond := make([]bool, n)
	rnd := rand.New(rand.NewSource(42))
	want := []int32{}
	for ni := 0; ni < n; ni++ {
		if rnd.Float32() < 0.3 {
			cond[ni] = true
			want = append(want, int32(ni))
		}
	}
	for _, bk := range threshBackends() {
		ss := NewSpikeSpace(n)
		pars := ThreshParams{UsesRefractory: false, NWorkers: 4}
		th, err := NewThresholder(pars, n, ss, nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		th.Run(bk, cond, 0)
		if ss.Count() != len(want) {
			t.Errorf("%v: count: got %v, want %v", bk, ss.Count(), len(want))
		}
		spks := ss.Spikes()
		for i, ni := range spks {
			if ni != want[i] {
				t.Errorf("%v: spike %v: got %v, want %v", bk, i, ni, want[i])
			}
			if i > 0 && spks[i-1] >= ni {
				t.Errorf("%v: spike list not strictly ascending at %v: %v >= %v", bk, i, spks[i-1], ni)
			}
		}
	}
}

func TestThreshCountSlot(t *testing.T) {
	n := 7
	cond := []bool{true, true, false, true, false, false, true}
	for _, bk := range threshBackends() {
		ss := NewSpikeSpace(n)
		pars := ThreshParams{UsesRefractory: false, NWorkers: 3}
		th, err := NewThresholder(pars, n, ss, nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		th.Run(bk, cond, 0)
		if ss.Buf[n] != 4 {
			t.Errorf("%v: spikespace count slot: got %v, want 4", bk, ss.Buf[n])
		}
		seen := map[int32]bool{}
		for _, ni := range ss.Spikes() {
			if seen[ni] {
				t.Errorf("%v: duplicate spike index %v", bk, ni)
			}
			seen[ni] = true
		}
	}
}

func TestThreshRefractory(t *testing.T) {
	// with refractory tracking, N=3, cond [T,F,T], t=5:
	// spikespace [0, 2, 2], NotRefractory and LastSpike updated at 0 and 2 only.
	for _, bk := range threshBackends() {
		n := 3
		vs := NewVarStore(n)
		notRefr := vs.Add("NotRefractory").Values
		lastSpk := vs.Add("LastSpike").Values
		for ni := 0; ni < n; ni++ {
			notRefr[ni] = 1
			lastSpk[ni] = -1
		}
		ss := NewSpikeSpace(n)
		pars := ThreshParams{UsesRefractory: true, NWorkers: 2}
		th, err := NewThresholder(pars, n, ss, notRefr, lastSpk)
		if err != nil {
			t.Fatal(err)
		}
		th.Run(bk, []bool{true, false, true}, 5.0)

		wantBuf := []int32{0, 2, 2}
		for i, wv := range wantBuf {
			if ss.Buf[i] != wv {
				t.Errorf("%v: spikespace[%v]: got %v, want %v", bk, i, ss.Buf[i], wv)
			}
		}
		CmprFloats(notRefr, []float32{0, 1, 0}, "NotRefractory", t)
		CmprFloats(lastSpk, []float32{5, -1, 5}, "LastSpike", t)
	}
}

func TestThreshEmptyAndFull(t *testing.T) {
	n := 10
	for _, bk := range threshBackends() {
		ss := NewSpikeSpace(n)
		pars := ThreshParams{UsesRefractory: false, NWorkers: 4}
		th, err := NewThresholder(pars, n, ss, nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		cond := make([]bool, n)
		th.Run(bk, cond, 0)
		if ss.Count() != 0 {
			t.Errorf("%v: no-spike count: got %v, want 0", bk, ss.Count())
		}
		for ni := range cond {
			cond[ni] = true
		}
		th.Run(bk, cond, 0)
		if ss.Count() != n {
			t.Errorf("%v: all-spike count: got %v, want %v", bk, ss.Count(), n)
		}
		for i := 0; i < n; i++ {
			if ss.Buf[i] != int32(i) {
				t.Errorf("%v: all-spike idx %v: got %v", bk, i, ss.Buf[i])
			}
		}
	}
}

func TestThreshReuse(t *testing.T) {
	// buffer is overwritten each call, not reallocated
	n := 5
	ss := NewSpikeSpace(n)
	pars := ThreshParams{UsesRefractory: false, NWorkers: 1}
	th, err := NewThresholder(pars, n, ss, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	buf0 := &ss.Buf[0]
	th.Run(LoopBackend, []bool{true, true, true, false, false}, 0)
	th.Run(LoopBackend, []bool{false, false, false, false, true}, 0)
	if &ss.Buf[0] != buf0 {
		t.Errorf("spikespace buffer was reallocated")
	}
	if ss.Count() != 1 || ss.Buf[0] != 4 {
		t.Errorf("second run: got count %v, idx %v", ss.Count(), ss.Buf[0])
	}
}

func TestThresholderValidate(t *testing.T) {
	ss := NewSpikeSpace(4)
	pars := ThreshParams{UsesRefractory: true, NWorkers: 1}
	_, err := NewThresholder(pars, 4, ss, make([]float32, 3), make([]float32, 4))
	if err == nil {
		t.Errorf("expected length-mismatch error for refractory arrays")
	}
	_, err = NewThresholder(pars, 5, ss, make([]float32, 5), make([]float32, 5))
	if err == nil {
		t.Errorf("expected capacity-mismatch error for spikespace")
	}
}
