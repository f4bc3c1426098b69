// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spike

import (
	"fmt"
	"sort"

	"cogentcore.org/core/tensor"
)

// Standard group state variables registered for every Group.
// NotRefractory is 1 when the neuron may spike and 0 during the
// refractory period; LastSpike holds the time of the most recent spike
// (-1 if never); GeRaw is the per-step excitatory input written by the
// summation kernels of the receiving pathways.
var GroupVars = []string{"NotRefractory", "LastSpike", "GeRaw"}

// VarStore is a registry of named per-neuron state arrays, all of one
// fixed length N.  Names are resolved to array handles once, at kernel
// construction time -- kernels hold the resolved []float32 slices and
// never look up by name during a step.  Boolean state is stored as
// float32 0 / 1 values, consistent with how all other unit variables
// are represented.
type VarStore struct {

	// number of elements in every array in the store.
	N int

	// map of variable name to its backing tensor.
	Vars map[string]*tensor.Float32
}

// NewVarStore returns a new store for arrays of length n.
func NewVarStore(n int) *VarStore {
	vs := &VarStore{N: n}
	vs.Vars = make(map[string]*tensor.Float32)
	return vs
}

// Add registers a new variable of length N under the given name and
// returns its backing tensor.  Re-adding an existing name returns the
// existing tensor, so callers can use Add idempotently during Build.
func (vs *VarStore) Add(name string) *tensor.Float32 {
	if tsr, ok := vs.Vars[name]; ok {
		return tsr
	}
	tsr := tensor.NewFloat32([]int{vs.N}, "Neurons")
	vs.Vars[name] = tsr
	return tsr
}

// Tensor returns the backing tensor for the given variable name,
// or an error if not registered.
func (vs *VarStore) Tensor(name string) (*tensor.Float32, error) {
	tsr, ok := vs.Vars[name]
	if !ok {
		return nil, fmt.Errorf("spike.VarStore: variable name: %v not registered", name)
	}
	return tsr, nil
}

// Values resolves the given variable name to its raw value slice.
// This is the handle kernels hold on to -- resolved once at Build.
func (vs *VarStore) Values(name string) ([]float32, error) {
	tsr, err := vs.Tensor(name)
	if err != nil {
		return nil, err
	}
	return tsr.Values, nil
}

// SetAll sets every element of the named variable to the given value.
func (vs *VarStore) SetAll(name string, val float32) error {
	vals, err := vs.Values(name)
	if err != nil {
		return err
	}
	for i := range vals {
		vals[i] = val
	}
	return nil
}

// VarNames returns the sorted list of registered variable names.
func (vs *VarStore) VarNames() []string {
	nms := make([]string, 0, len(vs.Vars))
	for nm := range vs.Vars {
		nms = append(nms, nm)
	}
	sort.Strings(nms)
	return nms
}
