// Copyright (c) 2024, The Emergent Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package spike is the overall repository for the per-timestep spiking kernel
engine implemented in the Go language (golang).

This top-level of the repository has no functional code -- everything is
organized into the following sub-repositories:

* spike: the core kernels run once per simulation timestep: threshold
detection with refractory reset, the delay queue that schedules spike
delivery over per-synapse delays, and the weighted summation (scatter-add)
kernel that turns delivered events into per-neuron input. Each kernel has
two implementations sharing one contract: a plain index-loop version and a
chunked worker version, selected by Backend.

* monitor: spike and state recording during a run, with an in-memory store
and an optional SQLite-backed store (build with -tags sqlite).

* examples: these compile into runnable programs and provide the starting
point for your own simulations.
*/
package spike
