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

package ir

import (
	"fmt"
	"strings"
)

// A Local is a dense index into the local slots of a function body. Locals are stable for the
// lifetime of a Body.
type Local int

// A BlockIndex identifies a basic block within a Body. The entry block always has index 0.
type BlockIndex int

// A Location identifies one instruction in a Body. Index values in [0, len(Statements)) refer to
// the statements of the block in order; Index == len(Statements) refers to the terminator.
type Location struct {
	Block BlockIndex
	Index int
}

func (l Location) String() string {
	return fmt.Sprintf("bb%d[%d]", l.Block, l.Index)
}

// OperandKind discriminates the variants of an Operand.
type OperandKind int

const (
	// OperandInvalid is the zero value, never valid in a well-formed Body.
	OperandInvalid OperandKind = iota
	// OperandConstant is a compile-time constant. Constants never carry taint.
	OperandConstant
	// OperandCopy is a non-destructive read of a local.
	OperandCopy
	// OperandMove is a destructive read of a local.
	OperandMove
)

// An Operand is a value as used on the right-hand side of a statement: a constant, or a copy or
// move out of a local. Only local operands can carry taint.
type Operand struct {
	Kind  OperandKind
	Local Local // meaningful only for OperandCopy and OperandMove
}

// Const returns a constant operand.
func Const() Operand {
	return Operand{Kind: OperandConstant}
}

// Copy returns an operand that reads local without consuming it.
func Copy(local Local) Operand {
	return Operand{Kind: OperandCopy, Local: local}
}

// Move returns an operand that reads local destructively.
func Move(local Local) Operand {
	return Operand{Kind: OperandMove, Local: local}
}

// AsLocal returns the local read by the operand and true when the operand is a copy or a move.
// Constants return false.
func (o Operand) AsLocal() (Local, bool) {
	switch o.Kind {
	case OperandCopy, OperandMove:
		return o.Local, true
	default:
		return 0, false
	}
}

func (o Operand) String() string {
	switch o.Kind {
	case OperandConstant:
		return "const"
	case OperandCopy:
		return fmt.Sprintf("copy(_%d)", o.Local)
	case OperandMove:
		return fmt.Sprintf("move(_%d)", o.Local)
	default:
		return "invalid"
	}
}

// RvalueKind discriminates the variants of an Rvalue.
type RvalueKind int

const (
	// RvalueInvalid is the zero value, never valid in a well-formed Body.
	RvalueInvalid RvalueKind = iota
	// RvalueUse evaluates a single operand.
	RvalueUse
	// RvalueBinaryOp combines two operands with a binary operator.
	RvalueBinaryOp
	// RvalueUnaryOp applies a unary operator to one operand.
	RvalueUnaryOp
	// RvalueAggregate builds a compound value out of several operands.
	RvalueAggregate
	// RvalueRef takes the address of a local.
	RvalueRef
	// RvalueCast converts an operand to another type.
	RvalueCast
)

// An Rvalue is the right-hand side of an assignment. The analysis handles Use, BinaryOp and
// UnaryOp; the remaining kinds exist so that the transfer function can name the construct it
// approximates instead of falling into a silent default.
type Rvalue struct {
	Kind RvalueKind
	Op   string  // operator name for RvalueBinaryOp and RvalueUnaryOp, informational
	X    Operand // first operand; unset for RvalueAggregate
	Y    Operand // second operand of RvalueBinaryOp

	// Operands holds the elements of an RvalueAggregate.
	Operands []Operand

	// Referent is the local whose address an RvalueRef takes.
	Referent Local
}

// Use returns an rvalue that evaluates x.
func Use(x Operand) Rvalue {
	return Rvalue{Kind: RvalueUse, X: x}
}

// BinaryOp returns an rvalue combining x and y with the named operator.
func BinaryOp(op string, x, y Operand) Rvalue {
	return Rvalue{Kind: RvalueBinaryOp, Op: op, X: x, Y: y}
}

// UnaryOp returns an rvalue applying the named operator to x.
func UnaryOp(op string, x Operand) Rvalue {
	return Rvalue{Kind: RvalueUnaryOp, Op: op, X: x}
}

// Aggregate returns an rvalue building a compound value from operands.
func Aggregate(operands ...Operand) Rvalue {
	return Rvalue{Kind: RvalueAggregate, Operands: operands}
}

// Ref returns an rvalue taking the address of local.
func Ref(local Local) Rvalue {
	return Rvalue{Kind: RvalueRef, Referent: local}
}

// Cast returns an rvalue converting x.
func Cast(x Operand) Rvalue {
	return Rvalue{Kind: RvalueCast, X: x}
}

func (r Rvalue) String() string {
	switch r.Kind {
	case RvalueUse:
		return r.X.String()
	case RvalueBinaryOp:
		return fmt.Sprintf("%s(%s, %s)", r.Op, r.X, r.Y)
	case RvalueUnaryOp:
		return fmt.Sprintf("%s(%s)", r.Op, r.X)
	case RvalueAggregate:
		elems := make([]string, len(r.Operands))
		for i, o := range r.Operands {
			elems[i] = o.String()
		}
		return fmt.Sprintf("aggregate(%s)", strings.Join(elems, ", "))
	case RvalueRef:
		return fmt.Sprintf("&_%d", r.Referent)
	case RvalueCast:
		return fmt.Sprintf("cast(%s)", r.X)
	default:
		return "invalid"
	}
}

// StatementKind discriminates the variants of a Statement.
type StatementKind int

const (
	// StatementInvalid is the zero value, never valid in a well-formed Body.
	StatementInvalid StatementKind = iota
	// StatementAssign writes an rvalue into a target local.
	StatementAssign
	// StatementNop covers non-assignment statements (storage markers and the like), which have
	// no effect on taint.
	StatementNop
)

// A Statement is one non-terminator instruction of a basic block.
type Statement struct {
	Kind   StatementKind
	Target Local // meaningful only for StatementAssign
	Rvalue Rvalue
}

// Assign returns a statement writing rv into target.
func Assign(target Local, rv Rvalue) Statement {
	return Statement{Kind: StatementAssign, Target: target, Rvalue: rv}
}

// Nop returns a statement with no taint effect.
func Nop() Statement {
	return Statement{Kind: StatementNop}
}

func (s Statement) String() string {
	switch s.Kind {
	case StatementAssign:
		return fmt.Sprintf("_%d := %s", s.Target, s.Rvalue)
	case StatementNop:
		return "nop"
	default:
		return "invalid"
	}
}

// TerminatorKind discriminates the variants of a Terminator.
type TerminatorKind int

const (
	// TerminatorInvalid is the zero value, never valid in a well-formed Body.
	TerminatorInvalid TerminatorKind = iota
	// TerminatorGoto is an unconditional jump to a single target.
	TerminatorGoto
	// TerminatorBranch is a multi-way branch on a discriminant operand.
	TerminatorBranch
	// TerminatorReturn leaves the function; it has no successors.
	TerminatorReturn
	// TerminatorCall invokes a callee and continues at a single target, writing the returned
	// value into a destination local.
	TerminatorCall
	// TerminatorAssert checks a condition and continues at a single target.
	TerminatorAssert
	// TerminatorUnreachable marks an unreachable block end; it has no successors.
	TerminatorUnreachable
)

// A Terminator ends a basic block and determines its successors.
type Terminator struct {
	Kind TerminatorKind

	// Targets are the successor blocks, in branch order. Empty for Return and Unreachable.
	Targets []BlockIndex

	// Cond is the discriminant of a Branch or the checked condition of an Assert.
	Cond Operand

	// Call fields.
	Callee string
	Args   []Operand
	Dest   Local // the local receiving the call's return value
}

// Goto returns an unconditional jump to target.
func Goto(target BlockIndex) Terminator {
	return Terminator{Kind: TerminatorGoto, Targets: []BlockIndex{target}}
}

// Branch returns a multi-way branch on cond with the given targets.
func Branch(cond Operand, targets ...BlockIndex) Terminator {
	return Terminator{Kind: TerminatorBranch, Cond: cond, Targets: targets}
}

// Return returns a function-exit terminator.
func Return() Terminator {
	return Terminator{Kind: TerminatorReturn}
}

// Call returns a call terminator invoking callee with args, writing the result into dest and
// continuing at target.
func Call(callee string, args []Operand, dest Local, target BlockIndex) Terminator {
	return Terminator{
		Kind:    TerminatorCall,
		Targets: []BlockIndex{target},
		Callee:  callee,
		Args:    args,
		Dest:    dest,
	}
}

// Assert returns a runtime-assertion terminator checking cond and continuing at target.
func Assert(cond Operand, target BlockIndex) Terminator {
	return Terminator{Kind: TerminatorAssert, Cond: cond, Targets: []BlockIndex{target}}
}

// Unreachable returns a terminator for blocks the IR provider knows cannot be reached.
func Unreachable() Terminator {
	return Terminator{Kind: TerminatorUnreachable}
}

// Successors returns the successor blocks of the terminator. The returned slice is owned by the
// terminator and must not be modified.
func (t Terminator) Successors() []BlockIndex {
	return t.Targets
}

func (t Terminator) String() string {
	switch t.Kind {
	case TerminatorGoto:
		return fmt.Sprintf("goto bb%d", t.Targets[0])
	case TerminatorBranch:
		targets := make([]string, len(t.Targets))
		for i, b := range t.Targets {
			targets[i] = fmt.Sprintf("bb%d", b)
		}
		return fmt.Sprintf("branch %s [%s]", t.Cond, strings.Join(targets, ", "))
	case TerminatorReturn:
		return "return"
	case TerminatorCall:
		args := make([]string, len(t.Args))
		for i, a := range t.Args {
			args[i] = a.String()
		}
		return fmt.Sprintf("_%d := %s(%s) -> bb%d", t.Dest, t.Callee, strings.Join(args, ", "), t.Targets[0])
	case TerminatorAssert:
		return fmt.Sprintf("assert %s -> bb%d", t.Cond, t.Targets[0])
	case TerminatorUnreachable:
		return "unreachable"
	default:
		return "invalid"
	}
}
