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
	"fmt"
	"runtime"
	"time"

	"github.com/mirtaint/mirtaint/analysis/config"
	"github.com/mirtaint/mirtaint/analysis/ir"
	"github.com/mirtaint/mirtaint/analysis/lattice"
	"github.com/mirtaint/mirtaint/internal/funcutil"
	"github.com/mirtaint/mirtaint/internal/graphutil"
)

// An Analyzer runs the may-taint analysis over function bodies with a fixed configuration.
type Analyzer struct {
	logger *config.LogGroup
	cfg    *config.Config

	// CallReturn models the taint effect of call terminators. When nil, call destinations are
	// left untouched and recorded as approximated constructs.
	CallReturn CallReturnEffect
}

// NewAnalyzer returns an analyzer using the given logger and configuration.
func NewAnalyzer(logger *config.LogGroup, cfg *config.Config) *Analyzer {
	return &Analyzer{logger: logger, cfg: cfg}
}

// Analyze runs the analysis on body, seeding the entry state with the locals configured for the
// body's name (see config.TaintSpec). It either reaches a fixed point and returns complete
// per-block results, or returns an error; there is no partial success.
func (a *Analyzer) Analyze(body *ir.Body) (*Result, error) {
	seed := funcutil.Map(a.cfg.SeedFor(body.Name), func(l int) ir.Local { return ir.Local(l) })
	return a.AnalyzeSeeded(body, seed)
}

// AnalyzeSeeded runs the analysis on body with the given locals pre-tainted on entry.
func (a *Analyzer) AnalyzeSeeded(body *ir.Body, seedLocals []ir.Local) (*Result, error) {
	start := time.Now()
	if err := body.Validate(); err != nil {
		return nil, err
	}
	seed := lattice.Bottom(body.NumLocals)
	for _, l := range seedLocals {
		if l < 0 || int(l) >= body.NumLocals {
			return nil, fmt.Errorf("seed local _%d out of range [0, %d) in %s", l, body.NumLocals, body.Name)
		}
		seed.Set(int(l))
	}

	cfgView := graphutil.NewCFG(len(body.Blocks), func(i int) []int {
		return funcutil.Map(body.Blocks[i].Terminator.Successors(), func(b ir.BlockIndex) int { return int(b) })
	})
	if unreachable := graphutil.Unreachable(cfgView, int(body.Entry())); len(unreachable) > 0 {
		a.logger.Debugf("%s: %d block(s) unreachable from entry: %v", body.Name, len(unreachable), unreachable)
	}
	if loops := graphutil.Loops(cfgView); len(loops) > 0 {
		a.logger.Debugf("%s: %d loop(s) in the control flow graph", body.Name, len(loops))
	}

	state := &engineState{
		body:            body,
		logger:          a.logger,
		callReturn:      a.CallReturn,
		preds:           body.Preds(),
		priority:        graphutil.PriorityOrder(cfgView),
		seed:            seed,
		entry:           make([]*lattice.TaintSet, len(body.Blocks)),
		exit:            make([]*lattice.TaintSet, len(body.Blocks)),
		status:          make([]blockStatus, len(body.Blocks)),
		maxIterations:   a.maxIterationsFor(body),
		unsupportedSeen: make(map[ir.Location]bool),
	}
	for i := range body.Blocks {
		state.entry[i] = lattice.Bottom(body.NumLocals)
		state.exit[i] = lattice.Bottom(body.NumLocals)
	}

	if err := state.run(); err != nil {
		return nil, err
	}
	if a.cfg.Strict && len(state.unsupported) > 0 {
		return nil, &UnsupportedError{Constructs: state.unsupported}
	}

	a.logger.Debugf("%s: fixed point after %d block visit(s)", body.Name, state.iterations)
	return &Result{
		Body:        body,
		entry:       state.entry,
		exit:        state.exit,
		Unsupported: state.unsupported,
		Iterations:  state.iterations,
		Time:        time.Since(start),
	}, nil
}

// AnalyzeAll analyzes independent bodies in parallel. Each body gets its own domain and worklist;
// nothing is shared between the runs. The first error encountered is returned and the results of
// a failed run are discarded.
func (a *Analyzer) AnalyzeAll(bodies []*ir.Body) ([]*Result, error) {
	type outcome struct {
		res *Result
		err error
	}
	outcomes := funcutil.MapParallel(bodies, func(body *ir.Body) outcome {
		res, err := a.Analyze(body)
		return outcome{res: res, err: err}
	}, runtime.NumCPU())

	results := make([]*Result, len(outcomes))
	for i, o := range outcomes {
		if o.err != nil {
			return nil, o.err
		}
		results[i] = o.res
	}
	return results, nil
}

// maxIterationsFor returns the iteration cap for a body: the configured override, or a bound
// derived from the lattice height (each block's exit set can grow at most NumLocals times, each
// growth re-queues at most every block).
func (a *Analyzer) maxIterationsFor(body *ir.Body) int {
	if a.cfg.MaxIterations > 0 {
		return a.cfg.MaxIterations
	}
	nb := len(body.Blocks)
	return nb + nb*nb*(body.NumLocals+1)
}

// Analyze is a convenience entry point running a single body with the locals configured for its
// name pre-tainted.
func Analyze(logger *config.LogGroup, cfg *config.Config, body *ir.Body) (*Result, error) {
	return NewAnalyzer(logger, cfg).Analyze(body)
}

// blockStatus tracks where a block stands in the worklist iteration.
type blockStatus int8

const (
	blockUnvisited blockStatus = iota
	blockQueued
	blockProcessed
)

// engineState drives the forward worklist iteration for one body. It owns the worklist and the
// per-block state table; the transfer function only ever sees the working copy of one block's
// state.
type engineState struct {
	body       *ir.Body
	logger     *config.LogGroup
	callReturn CallReturnEffect

	// preds[i] lists the predecessor blocks of block i.
	preds [][]ir.BlockIndex

	// priority orders worklist pops so that a block tends to be processed after its forward
	// predecessors.
	priority []int

	// seed is the entry state of the entry block.
	seed *lattice.TaintSet

	// entry and exit hold the per-block states of the current approximation.
	entry []*lattice.TaintSet
	exit  []*lattice.TaintSet

	status   []blockStatus
	worklist []ir.BlockIndex

	maxIterations int
	iterations    int

	unsupported     []UnsupportedConstruct
	unsupportedSeen map[ir.Location]bool
}

// run iterates until the worklist empties. Termination is guaranteed by the finite monotone
// lattice; the iteration cap only guards against a transfer-function bug.
func (s *engineState) run() error {
	s.enqueue(s.body.Entry())
	for len(s.worklist) > 0 {
		s.iterations++
		if s.iterations > s.maxIterations {
			return &NonConvergenceError{Function: s.body.Name, Iterations: s.iterations - 1}
		}
		b := s.dequeue()
		s.status[b] = blockProcessed

		in := lattice.Bottom(s.body.NumLocals)
		if b == s.body.Entry() {
			in.Join(s.seed)
		}
		for _, p := range s.preds[b] {
			in.Join(s.exit[p])
		}
		s.entry[b] = in

		out := in.Copy()
		s.replayBlock(b, out)
		changed := !out.Equal(s.exit[b])
		if changed {
			s.exit[b] = out
		}
		s.logger.Tracef("%s bb%d: entry %v exit %v (changed=%t)", s.body.Name, b, in, out, changed)

		for _, succ := range s.body.Blocks[b].Terminator.Successors() {
			if changed || s.status[succ] == blockUnvisited {
				s.enqueue(succ)
			}
		}
	}
	return nil
}

func (s *engineState) enqueue(b ir.BlockIndex) {
	if s.status[b] == blockQueued {
		return
	}
	s.status[b] = blockQueued
	s.worklist = append(s.worklist, b)
}

// dequeue pops the queued block with the lowest priority.
func (s *engineState) dequeue() ir.BlockIndex {
	best := 0
	for i, b := range s.worklist {
		if s.priority[b] < s.priority[s.worklist[best]] {
			best = i
		}
	}
	b := s.worklist[best]
	s.worklist = append(s.worklist[:best], s.worklist[best+1:]...)
	return b
}

// replayBlock applies the transfer function to every statement and the terminator of block b, in
// order, mutating state in place.
func (s *engineState) replayBlock(b ir.BlockIndex, state *lattice.TaintSet) {
	block := s.body.Blocks[b]
	tf := transferFunction{trans: stateGenKill{state: state}}
	for j, stmt := range block.Statements {
		if construct := tf.visitStatement(stmt); construct != "" {
			s.recordUnsupported(ir.Location{Block: b, Index: j}, construct)
		}
	}
	if construct := tf.visitTerminator(block.Terminator, s.callReturn); construct != "" {
		s.recordUnsupported(ir.Location{Block: b, Index: len(block.Statements)}, construct)
	}
}

func (s *engineState) recordUnsupported(loc ir.Location, construct string) {
	if s.unsupportedSeen[loc] {
		return
	}
	s.unsupportedSeen[loc] = true
	u := UnsupportedConstruct{Function: s.body.Name, Loc: loc, Construct: construct}
	s.unsupported = append(s.unsupported, u)
	s.logger.Debugf("approximated as no-op: %s", u)
}
