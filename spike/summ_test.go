// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spike

import (
	"math/rand"
	"testing"
)

func TestSummScatter(t *testing.T) {
	// target list [0,1,0,2], weights [1,2,3,4], L=3 -> [4,2,4]
	targets := []int32{0, 1, 0, 2}
	weights := []float32{1.0, 2.0, 3.0, 4.0}
	want := []float32{4.0, 2.0, 4.0}
	for _, bk := range []Backend{LoopBackend, ChunkBackend} {
		sk := NewSummKernel(SummParams{NWorkers: 2, MinChunk: 1}, 3)
		out := make([]float32, 3)
		if err := sk.Run(bk, targets, weights, out); err != nil {
			t.Fatal(err)
		}
		CmprFloats(out, want, bk.String()+" scatter", t)
	}
}

func TestSummReplace(t *testing.T) {
	// full replace semantics: stale values and untargeted slots go to 0
	sk := NewSummKernel(SummParams{NWorkers: 1, MinChunk: 1}, 4)
	out := []float32{9, 9, 9, 9}
	if err := sk.Run(LoopBackend, []int32{2}, []float32{1.5}, out); err != nil {
		t.Fatal(err)
	}
	CmprFloats(out, []float32{0, 0, 1.5, 0}, "replace", t)
}

func TestSummEmpty(t *testing.T) {
	for _, bk := range []Backend{LoopBackend, ChunkBackend} {
		sk := NewSummKernel(SummParams{NWorkers: 4, MinChunk: 1}, 5)
		out := []float32{1, 2, 3, 4, 5}
		if err := sk.Run(bk, nil, nil, out); err != nil {
			t.Fatal(err)
		}
		CmprFloats(out, []float32{0, 0, 0, 0, 0}, bk.String()+" empty", t)
	}
}

func TestSummPermutationInvariant(t *testing.T) {
	// permuting the event list produces the same output within
	// float tolerance (summation order is unspecified)
	rnd := rand.New(rand.NewSource(7))
	m := 2000
	l := 17
	targets := make([]int32, m)
	weights := make([]float32, m)
	for j := 0; j < m; j++ {
		targets[j] = int32(rnd.Intn(l))
		weights[j] = rnd.Float32()*2 - 1
	}
	sk := NewSummKernel(SummParams{NWorkers: 4, MinChunk: 8}, l)
	base := make([]float32, l)
	if err := sk.Run(LoopBackend, targets, weights, base); err != nil {
		t.Fatal(err)
	}

	perm := rnd.Perm(m)
	ptg := make([]int32, m)
	pwt := make([]float32, m)
	for j, pj := range perm {
		ptg[j] = targets[pj]
		pwt[j] = weights[pj]
	}
	for _, bk := range []Backend{LoopBackend, ChunkBackend} {
		out := make([]float32, l)
		if err := sk.Run(bk, ptg, pwt, out); err != nil {
			t.Fatal(err)
		}
		CmprFloats(out, base, bk.String()+" permuted", t)
	}
}

func TestSummValidate(t *testing.T) {
	sk := NewSummKernel(SummParams{NWorkers: 1, MinChunk: 1}, 3)
	out := make([]float32, 3)
	if err := sk.Run(LoopBackend, []int32{0, 3}, []float32{1, 1}, out); err == nil {
		t.Errorf("expected out-of-range target error")
	}
	if err := sk.Run(LoopBackend, []int32{-1}, []float32{1}, out); err == nil {
		t.Errorf("expected negative target error")
	}
	if err := sk.Run(LoopBackend, []int32{0}, []float32{1, 2}, out); err == nil {
		t.Errorf("expected length mismatch error")
	}
	if err := sk.Run(LoopBackend, []int32{0}, []float32{1}, make([]float32, 2)); err == nil {
		t.Errorf("expected output length error")
	}
}
