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
	"time"

	"github.com/mirtaint/mirtaint/analysis/ir"
	"github.com/mirtaint/mirtaint/analysis/lattice"
)

// A Result holds the fixed point of one analysis run: per-block entry and exit taint sets over
// the analyzed body, plus the audit of approximated constructs. Results are immutable once
// returned; re-running the analysis on an unchanged body and seed yields equal sets.
type Result struct {
	// Body is the analyzed function body.
	Body *ir.Body

	entry []*lattice.TaintSet
	exit  []*lattice.TaintSet

	// Unsupported lists the constructs whose taint effect was approximated as "no effect",
	// one record per location.
	Unsupported []UnsupportedConstruct

	// Iterations is the number of block visits it took to reach the fixed point.
	Iterations int

	// Time is the duration of the run.
	Time time.Duration
}

// EntrySet returns the taint set on entry to block b: the join of the exit sets of its
// predecessors (plus the seed, for the entry block). The returned set must not be modified.
func (r *Result) EntrySet(b ir.BlockIndex) *lattice.TaintSet {
	return r.entry[b]
}

// ExitSet returns the taint set on exit from block b. The returned set must not be modified.
func (r *Result) ExitSet(b ir.BlockIndex) *lattice.TaintSet {
	return r.exit[b]
}

// TaintedAt returns true when local may be tainted immediately before the instruction at loc.
// The per-statement state is recovered by replaying the block's prefix on the block's entry set.
func (r *Result) TaintedAt(local ir.Local, loc ir.Location) bool {
	state := r.entry[loc.Block].Copy()
	block := r.Body.Blocks[loc.Block]
	for j := 0; j < loc.Index && j < len(block.Statements); j++ {
		applyStatement(state, block.Statements[j])
	}
	return state.Contains(int(local))
}

// TaintedOnExit returns true when local may be tainted when block b ends.
func (r *Result) TaintedOnExit(local ir.Local, b ir.BlockIndex) bool {
	return r.exit[b].Contains(int(local))
}
