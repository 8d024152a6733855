// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package taint

import (
	"github.com/mirtaint/mirtaint/analysis/ir"
	"github.com/mirtaint/mirtaint/analysis/lattice"
)

// A GenKiller records the effect of one instruction on the abstract state: Gen declares that a
// local becomes tainted at this point, Kill that it becomes untainted. Tainted is a read-only
// membership query on the current state; it is a first-class part of the contract so that
// transfer rules never need to reach behind the abstraction to inspect the state they are
// refining.
type GenKiller interface {
	Gen(local ir.Local)
	Kill(local ir.Local)
	Tainted(local ir.Local) bool
}

// stateGenKill is a GenKiller that applies effects immediately to an evolving taint set. The
// engine replays the statements of a block in order, so immediate application is equivalent to
// batching per-instruction gen/kill sets and applying them in instruction order.
type stateGenKill struct {
	state *lattice.TaintSet
}

func (t stateGenKill) Gen(local ir.Local) {
	t.state.Set(int(local))
}

func (t stateGenKill) Kill(local ir.Local) {
	t.state.Clear(int(local))
}

func (t stateGenKill) Tainted(local ir.Local) bool {
	return t.state.Contains(int(local))
}
