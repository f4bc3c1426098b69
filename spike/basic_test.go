// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package spike

import (
	"testing"

	"cogentcore.org/core/math32"
	"cogentcore.org/core/tensor"
	"github.com/emer/emergent/v2/params"
	"github.com/emer/emergent/v2/paths"
)

// tolerance for comparing summed float values across backends, which may
// reorder the additions
const difTol = 1.0e-4

// Note: subsequent params applied after Base
var ParamSets = params.Sets{
	"Base": {
		{Sel: "Group", Desc: "group defaults",
			Params: params.Params{
				"Group.Thresh.UsesRefractory": "true",
			}},
		{Sel: "Path", Desc: "for reproducibility, identical weights",
			Params: params.Params{
				"Path.WtInit.Mean": "0.5",
				"Path.WtInit.Var":  "0",
			}},
	},
	"NoRefractory": {
		{Sel: "Group", Desc: "refractory tracking off",
			Params: params.Params{
				"Group.Thresh.UsesRefractory": "false",
			}},
	},
	"LongDelay": {
		{Sel: "Path", Desc: "two-step delay everywhere",
			Params: params.Params{
				"Path.DelayInit.Steps": "2",
			}},
	},
}

func CmprFloats(got, trg []float32, msg string, t *testing.T) {
	for i := range got {
		dif := math32.Abs(got[i] - trg[i])
		if dif > difTol { // allow for small numerical diffs
			t.Errorf("%v err: got: %v, trg: %v, dif: %v\n", msg, got[i], trg[i], dif)
		}
	}
}

// MakeTestNet builds a 1 -> 8 fully connected net with the two-synapse
// delivery scenario: delay 1 -> target 5 (wt 0.5), delay 2 -> target 7
// (wt 1.5), all other synapses delay 3 with weight 0.
func MakeTestNet(t *testing.T) *Network {
	testNet := NewNetwork("TestNet")
	in := testNet.AddGroup("Input", 1)
	out := testNet.AddGroup("Output", 8)
	pt := testNet.ConnectGroups(in, out, paths.NewFull())

	if err := testNet.Build(); err != nil {
		t.Fatal(err)
	}
	pt.SetWtsFunc(func(si, ri int, send, recv *tensor.Shape) float32 {
		switch ri {
		case 5:
			return 0.5
		case 7:
			return 1.5
		}
		return 0
	})
	pt.SetDelaysFunc(func(si, ri int, send, recv *tensor.Shape) int32 {
		switch ri {
		case 5:
			return 1
		case 7:
			return 2
		}
		return 3
	})
	if err := testNet.BuildQueues(); err != nil {
		t.Fatal(err)
	}
	testNet.InitState()
	return testNet
}

func TestNetDelivery(t *testing.T) {
	for _, bk := range []Backend{LoopBackend, ChunkBackend} {
		testNet := MakeTestNet(t)
		testNet.Backend = bk
		ctx := NewContext()
		in := testNet.GroupByName("Input")
		out := testNet.GroupByName("Output")

		// neuron 0 spikes on the first step only
		in.Cond[0] = true
		if err := testNet.Step(ctx); err != nil {
			t.Fatal(err)
		}
		in.Cond[0] = false
		CmprFloats(out.GeRaw, make([]float32, 8), bk.String()+" step 1 GeRaw", t)
		if in.SS.Count() != 1 {
			t.Errorf("%v: input spike count: got %v, want 1", bk, in.SS.Count())
		}

		// step 2: delay-1 synapse delivers to target 5 only
		if err := testNet.Step(ctx); err != nil {
			t.Fatal(err)
		}
		want := make([]float32, 8)
		want[5] = 0.5
		CmprFloats(out.GeRaw, want, bk.String()+" step 2 GeRaw", t)

		// step 3: delay-2 synapse delivers to target 7 only
		if err := testNet.Step(ctx); err != nil {
			t.Fatal(err)
		}
		want = make([]float32, 8)
		want[7] = 1.5
		CmprFloats(out.GeRaw, want, bk.String()+" step 3 GeRaw", t)

		// step 4: the zero-weight delay-3 synapses deliver nothing visible
		if err := testNet.Step(ctx); err != nil {
			t.Fatal(err)
		}
		CmprFloats(out.GeRaw, make([]float32, 8), bk.String()+" step 4 GeRaw", t)
	}
}

func TestNetRefractoryState(t *testing.T) {
	testNet := MakeTestNet(t)
	ctx := NewContext()
	ctx.Time = 5.0
	in := testNet.GroupByName("Input")

	in.Cond[0] = true
	if err := testNet.Step(ctx); err != nil {
		t.Fatal(err)
	}
	if in.NotRefractory[0] != 0 {
		t.Errorf("NotRefractory: got %v, want 0", in.NotRefractory[0])
	}
	if in.LastSpike[0] != 5.0 {
		t.Errorf("LastSpike: got %v, want 5", in.LastSpike[0])
	}
	if in.UnitValue("LastSpike", 0) != 5.0 {
		t.Errorf("UnitValue LastSpike: got %v, want 5", in.UnitValue("LastSpike", 0))
	}
}

func TestNetBackendsAgree(t *testing.T) {
	// both backends must produce the same deliveries over a multi-step
	// run driven by a deterministic condition function
	run := func(bk Backend) []float32 {
		testNet := MakeTestNet(t)
		testNet.Backend = bk
		testNet.NThreads = 2
		ctx := NewContext()
		in := testNet.GroupByName("Input")
		out := testNet.GroupByName("Output")
		in.CondFunc = func(ctx *Context, ni int) bool {
			return ctx.Step%2 == 0
		}
		sum := make([]float32, 8)
		for si := 0; si < 10; si++ {
			if err := testNet.Step(ctx); err != nil {
				t.Fatal(err)
			}
			for ri := range sum {
				sum[ri] += out.GeRaw[ri]
			}
		}
		return sum
	}
	CmprFloats(run(ChunkBackend), run(LoopBackend), "backend agreement", t)
}

func TestNetApplyParams(t *testing.T) {
	testNet := MakeTestNet(t)
	in := testNet.GroupByName("Input")
	out := testNet.GroupByName("Output")
	pt := out.RecvPaths[0]

	if _, err := testNet.ApplyParams(ParamSets["Base"], false); err != nil {
		t.Fatal(err)
	}
	if !in.Thresh.UsesRefractory {
		t.Errorf("Base params: UsesRefractory should be true")
	}
	if _, err := testNet.ApplyParams(ParamSets["NoRefractory"], false); err != nil {
		t.Fatal(err)
	}
	if in.Thresh.UsesRefractory || out.Thresh.UsesRefractory {
		t.Errorf("NoRefractory params: UsesRefractory should be false")
	}
	if _, err := testNet.ApplyParams(ParamSets["LongDelay"], false); err != nil {
		t.Fatal(err)
	}
	if pt.DelayInit.Steps != 2 {
		t.Errorf("LongDelay params: DelayInit.Steps: got %v, want 2", pt.DelayInit.Steps)
	}
}

func TestNetDelayCapacityError(t *testing.T) {
	testNet := NewNetwork("BadNet")
	in := testNet.AddGroup("Input", 1)
	out := testNet.AddGroup("Output", 1)
	pt := testNet.ConnectGroups(in, out, paths.NewOneToOne())
	pt.MaxDelay = 2
	pt.DelayInit.Steps = 5
	if err := testNet.Build(); err == nil {
		t.Errorf("expected delay-exceeds-capacity build error")
	}
}
