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

	"github.com/mirtaint/mirtaint/analysis/ir"
	"github.com/mirtaint/mirtaint/analysis/lattice"
)

// A CallReturnEffect models the taint effect of a call terminator on its destination local. It is
// an extension point: once a source catalogue or inter-procedural summaries are wired in, the
// hook can gen the destination when the callee is a source or when a tainted argument flows to
// the return value. A nil hook means the default: the destination local is left untouched, which
// is unsound by omission and is recorded as an approximated construct on the result.
type CallReturnEffect func(trans GenKiller, callee string, args []ir.Operand, dest ir.Local)

// transferFunction applies the per-instruction taint propagation rules through a GenKiller. It is
// a pure function of the current state and the instruction; it performs no I/O and touches no
// global state.
type transferFunction struct {
	trans GenKiller
}

// propagate transfers taint from the old local to the new one: if old is currently tainted, new
// becomes tainted, otherwise new becomes untainted. The old local is never modified; in
// particular a move out of a tainted local leaves the source bit set, which over-approximates and
// is safe for a may-analysis.
func (tf transferFunction) propagate(old, new ir.Local) {
	if tf.trans.Tainted(old) {
		tf.trans.Gen(new)
	} else {
		tf.trans.Kill(new)
	}
}

// operandTainted returns true when the operand reads a currently tainted local. Constants never
// carry taint.
func (tf transferFunction) operandTainted(o ir.Operand) bool {
	if local, ok := o.AsLocal(); ok {
		return tf.trans.Tainted(local)
	}
	return false
}

// visitStatement applies the taint effect of stmt. It returns the name of the construct when the
// effect is only an approximation (the state is left as-is), and "" when the statement is fully
// modeled.
func (tf transferFunction) visitStatement(stmt ir.Statement) string {
	switch stmt.Kind {
	case ir.StatementNop:
		// non-assignment statements have no taint effect
		return ""
	case ir.StatementAssign:
		return tf.visitAssign(stmt.Target, stmt.Rvalue)
	default:
		panic(fmt.Sprintf("taint: invalid statement kind %d", stmt.Kind))
	}
}

func (tf transferFunction) visitAssign(target ir.Local, rv ir.Rvalue) string {
	switch rv.Kind {
	case ir.RvalueUse:
		if src, ok := rv.X.AsLocal(); ok {
			tf.propagate(src, target)
			return ""
		}
		// assigning a constant leaves the target clean
		tf.trans.Kill(target)
		return ""

	case ir.RvalueBinaryOp:
		_, xIsLocal := rv.X.AsLocal()
		_, yIsLocal := rv.Y.AsLocal()
		if !xIsLocal && !yIsLocal {
			tf.trans.Kill(target)
			return ""
		}
		// tainted iff at least one local operand is tainted
		if tf.operandTainted(rv.X) || tf.operandTainted(rv.Y) {
			tf.trans.Gen(target)
		} else {
			tf.trans.Kill(target)
		}
		return ""

	case ir.RvalueUnaryOp:
		if src, ok := rv.X.AsLocal(); ok {
			tf.propagate(src, target)
			return ""
		}
		return "unary op on constant"

	case ir.RvalueAggregate:
		return "aggregate rvalue"
	case ir.RvalueRef:
		return "reference-taking rvalue"
	case ir.RvalueCast:
		return "cast rvalue"
	default:
		panic(fmt.Sprintf("taint: invalid rvalue kind %d", rv.Kind))
	}
}

// visitTerminator applies the taint effect of term. No terminator kind generates or kills taint;
// the only approximation is the return value of a call when no CallReturnEffect is provided, in
// which case the name of the construct is returned for the audit.
func (tf transferFunction) visitTerminator(term ir.Terminator, callReturn CallReturnEffect) string {
	switch term.Kind {
	case ir.TerminatorGoto, ir.TerminatorBranch, ir.TerminatorReturn,
		ir.TerminatorAssert, ir.TerminatorUnreachable:
		return ""
	case ir.TerminatorCall:
		if callReturn != nil {
			callReturn(tf.trans, term.Callee, term.Args, term.Dest)
			return ""
		}
		return "call return value"
	default:
		panic(fmt.Sprintf("taint: invalid terminator kind %d", term.Kind))
	}
}

// applyStatement applies the taint effect of stmt directly to state, discarding the audit of
// approximated constructs. Used to replay block prefixes for per-statement queries.
func applyStatement(state *lattice.TaintSet, stmt ir.Statement) {
	transferFunction{trans: stateGenKill{state: state}}.visitStatement(stmt)
}
