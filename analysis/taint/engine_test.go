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
	"errors"
	"io"
	"testing"

	"github.com/mirtaint/mirtaint/analysis/config"
	"github.com/mirtaint/mirtaint/analysis/ir"
)

func testAnalyzer(cfg *config.Config) *Analyzer {
	logger := config.NewLogGroup(cfg)
	logger.SetAllOutput(io.Discard)
	return NewAnalyzer(logger, cfg)
}

func checkResultTainted(t *testing.T, res *Result, b ir.BlockIndex, local ir.Local, want bool) {
	t.Helper()
	if got := res.TaintedOnExit(local, b); got != want {
		t.Errorf("local _%d tainted on exit of bb%d = %t, want %t (exit %v)",
			local, b, got, want, res.ExitSet(b))
	}
}

// twoBlockScenario is the program: bb0 seeds x (local 0) as a source, assigns y (local 1) a
// constant, then falls to bb1 where z (local 2) is x + y, y is overwritten by x, and y is
// overwritten by a constant again.
func twoBlockScenario() *ir.Body {
	return &ir.Body{
		Name:      "scenario",
		NumLocals: 3,
		Blocks: []ir.BasicBlock{
			{
				Statements: []ir.Statement{
					ir.Assign(1, ir.Use(ir.Const())), // y := 5
				},
				Terminator: ir.Goto(1),
			},
			{
				Statements: []ir.Statement{
					ir.Assign(2, ir.BinaryOp("add", ir.Copy(0), ir.Copy(1))), // z := x + y
					ir.Assign(1, ir.Use(ir.Copy(0))),                        // y := x
					ir.Assign(1, ir.Use(ir.Const())),                        // y := 5
				},
				Terminator: ir.Return(),
			},
		},
	}
}

func TestEndToEndScenario(t *testing.T) {
	res, err := testAnalyzer(config.NewDefault()).AnalyzeSeeded(twoBlockScenario(), []ir.Local{0})
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}

	// x stays tainted throughout, z picks up x's taint, y ends clean
	checkResultTainted(t, res, 1, 0, true)
	checkResultTainted(t, res, 1, 2, true)
	checkResultTainted(t, res, 1, 1, false)

	// immediately after y := x (before the last statement), y is tainted
	if !res.TaintedAt(1, ir.Location{Block: 1, Index: 2}) {
		t.Errorf("y should be tainted between y := x and y := 5")
	}
	// before z := x + y, z is untainted
	if res.TaintedAt(2, ir.Location{Block: 1, Index: 0}) {
		t.Errorf("z should be untainted on entry to bb1")
	}
	if len(res.Unsupported) != 0 {
		t.Errorf("scenario has no approximated constructs, got %v", res.Unsupported)
	}
}

func TestJoinAtMergePoint(t *testing.T) {
	// local 0 seeded; local 1 tainted only along the bb1 arm; local 2 never tainted
	body := &ir.Body{
		Name:      "diamond",
		NumLocals: 3,
		Blocks: []ir.BasicBlock{
			{Terminator: ir.Branch(ir.Copy(0), 1, 2)},
			{
				Statements: []ir.Statement{ir.Assign(1, ir.Use(ir.Copy(0)))},
				Terminator: ir.Goto(3),
			},
			{
				Statements: []ir.Statement{ir.Assign(1, ir.Use(ir.Const()))},
				Terminator: ir.Goto(3),
			},
			{Terminator: ir.Return()},
		},
	}
	res, err := testAnalyzer(config.NewDefault()).AnalyzeSeeded(body, []ir.Local{0})
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	entry := res.EntrySet(3)
	if !entry.Contains(1) {
		t.Errorf("local tainted along one incoming edge should be tainted at the merge, entry %v", entry)
	}
	if entry.Contains(2) {
		t.Errorf("local tainted along neither edge should be untainted at the merge, entry %v", entry)
	}
}

func TestLoopReachesFixedPoint(t *testing.T) {
	// The chain 0 -> 1 -> 2 needs two passes over the loop body: bb1 copies 2 := 1 before
	// 1 := 0, so 2 only becomes tainted once the back edge replays the block.
	body := &ir.Body{
		Name:      "loop",
		NumLocals: 4,
		Blocks: []ir.BasicBlock{
			{Terminator: ir.Goto(1)},
			{
				Statements: []ir.Statement{
					ir.Assign(2, ir.Use(ir.Copy(1))),
					ir.Assign(1, ir.Use(ir.Copy(0))),
				},
				Terminator: ir.Branch(ir.Copy(3), 1, 2),
			},
			{Terminator: ir.Return()},
		},
	}
	res, err := testAnalyzer(config.NewDefault()).AnalyzeSeeded(body, []ir.Local{0})
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	for _, local := range []ir.Local{0, 1, 2} {
		checkResultTainted(t, res, 2, local, true)
	}
	checkResultTainted(t, res, 2, 3, false)
	// entry of bb1 is the join of the seed and the loop back edge
	if !res.EntrySet(1).Contains(2) {
		t.Errorf("back edge taint should reach the loop entry, entry %v", res.EntrySet(1))
	}
}

func TestIdempotence(t *testing.T) {
	a := testAnalyzer(config.NewDefault())
	body := twoBlockScenario()
	res1, err := a.AnalyzeSeeded(body, []ir.Local{0})
	if err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	res2, err := a.AnalyzeSeeded(body, []ir.Local{0})
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	for b := range body.Blocks {
		if !res1.EntrySet(ir.BlockIndex(b)).Equal(res2.EntrySet(ir.BlockIndex(b))) ||
			!res1.ExitSet(ir.BlockIndex(b)).Equal(res2.ExitSet(ir.BlockIndex(b))) {
			t.Errorf("bb%d: re-running on an unchanged body gave different results", b)
		}
	}
}

func TestSeedFromConfig(t *testing.T) {
	cfg := config.NewDefault()
	cfg.TaintProblems = []config.TaintSpec{{Function: "scenario", Seed: []int{0}}}
	res, err := testAnalyzer(cfg).Analyze(twoBlockScenario())
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	checkResultTainted(t, res, 1, 2, true)
}

func TestNoSeedMeansNothingTainted(t *testing.T) {
	res, err := testAnalyzer(config.NewDefault()).Analyze(twoBlockScenario())
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	for _, local := range []ir.Local{0, 1, 2} {
		checkResultTainted(t, res, 1, local, false)
	}
}

func TestSeedOutOfRangeRejected(t *testing.T) {
	_, err := testAnalyzer(config.NewDefault()).AnalyzeSeeded(twoBlockScenario(), []ir.Local{5})
	if err == nil {
		t.Errorf("out-of-range seed should be rejected")
	}
}

func TestInvalidBodyRejected(t *testing.T) {
	body := twoBlockScenario()
	body.Blocks[0].Terminator = ir.Goto(9)
	if _, err := testAnalyzer(config.NewDefault()).Analyze(body); err == nil {
		t.Errorf("invalid body should be rejected before the iteration starts")
	}
}

func TestNonConvergenceGuard(t *testing.T) {
	cfg := config.NewDefault()
	cfg.MaxIterations = 1
	_, err := testAnalyzer(cfg).AnalyzeSeeded(twoBlockScenario(), []ir.Local{0})
	if err == nil {
		t.Fatalf("cap of 1 visit should trip the guard on a two-block body")
	}
	var nonConv *NonConvergenceError
	if !errors.As(err, &nonConv) {
		t.Fatalf("expected a NonConvergenceError, got %T: %v", err, err)
	}
	if nonConv.Function != "scenario" {
		t.Errorf("error should name the function, got %q", nonConv.Function)
	}
}

func TestStrictModeRejectsApproximations(t *testing.T) {
	body := &ir.Body{
		Name:      "strict",
		NumLocals: 2,
		Blocks: []ir.BasicBlock{
			{
				Statements: []ir.Statement{ir.Assign(1, ir.Aggregate(ir.Copy(0)))},
				Terminator: ir.Return(),
			},
		},
	}

	cfg := config.NewDefault()
	res, err := testAnalyzer(cfg).Analyze(body)
	if err != nil {
		t.Fatalf("non-strict run should succeed: %v", err)
	}
	if len(res.Unsupported) != 1 || res.Unsupported[0].Construct != "aggregate rvalue" {
		t.Errorf("expected one aggregate audit record, got %v", res.Unsupported)
	}

	cfg.Strict = true
	_, err = testAnalyzer(cfg).Analyze(body)
	var unsupported *UnsupportedError
	if !errors.As(err, &unsupported) {
		t.Fatalf("strict run should fail with an UnsupportedError, got %T: %v", err, err)
	}
	if len(unsupported.Constructs) != 1 {
		t.Errorf("expected one recorded construct, got %v", unsupported.Constructs)
	}
}

func TestCallDestinationWithHook(t *testing.T) {
	body := &ir.Body{
		Name:      "call",
		NumLocals: 3,
		Blocks: []ir.BasicBlock{
			{Terminator: ir.Call("source", nil, 1, 1)},
			{
				Statements: []ir.Statement{ir.Assign(2, ir.Use(ir.Copy(1)))},
				Terminator: ir.Return(),
			},
		},
	}
	a := testAnalyzer(config.NewDefault())
	a.CallReturn = func(trans GenKiller, callee string, _ []ir.Operand, dest ir.Local) {
		if callee == "source" {
			trans.Gen(dest)
		} else {
			trans.Kill(dest)
		}
	}
	res, err := a.Analyze(body)
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	checkResultTainted(t, res, 1, 1, true)
	checkResultTainted(t, res, 1, 2, true)
	if len(res.Unsupported) != 0 {
		t.Errorf("hooked calls are fully modeled, got %v", res.Unsupported)
	}
}

func TestUnreachableBlockStaysBottom(t *testing.T) {
	body := &ir.Body{
		Name:      "unreachable",
		NumLocals: 1,
		Blocks: []ir.BasicBlock{
			{Terminator: ir.Return()},
			{
				Statements: []ir.Statement{ir.Assign(0, ir.Use(ir.Copy(0)))},
				Terminator: ir.Return(),
			},
		},
	}
	res, err := testAnalyzer(config.NewDefault()).AnalyzeSeeded(body, []ir.Local{0})
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	if res.EntrySet(1).Len() != 0 || res.ExitSet(1).Len() != 0 {
		t.Errorf("unreachable block should stay at bottom, entry %v exit %v",
			res.EntrySet(1), res.ExitSet(1))
	}
}

func TestAnalyzeAll(t *testing.T) {
	cfg := config.NewDefault()
	cfg.TaintProblems = []config.TaintSpec{{Function: "scenario", Seed: []int{0}}}
	bodies := []*ir.Body{
		twoBlockScenario(),
		{
			Name:      "clean",
			NumLocals: 1,
			Blocks:    []ir.BasicBlock{{Terminator: ir.Return()}},
		},
	}
	results, err := testAnalyzer(cfg).AnalyzeAll(bodies)
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Body.Name != "scenario" || results[1].Body.Name != "clean" {
		t.Errorf("results should keep the input order")
	}
	if !results[0].TaintedOnExit(2, 1) {
		t.Errorf("seeded body should propagate taint")
	}
	if results[1].ExitSet(0).Len() != 0 {
		t.Errorf("unseeded body should stay clean")
	}
}

func TestAnalyzeAllPropagatesErrors(t *testing.T) {
	bad := &ir.Body{Name: "bad", NumLocals: 1}
	if _, err := testAnalyzer(config.NewDefault()).AnalyzeAll([]*ir.Body{twoBlockScenario(), bad}); err == nil {
		t.Errorf("an invalid body should fail the whole batch")
	}
}
