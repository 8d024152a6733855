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

// A BasicBlock is an ordered sequence of statements followed by exactly one terminator.
type BasicBlock struct {
	Statements []Statement
	Terminator Terminator
}

// A Body is the control-flow graph of one function: its basic blocks and the number of local
// slots. The analysis only reads a Body; ownership stays with the IR provider.
type Body struct {
	// Name identifies the function, used in diagnostics and to look up configuration.
	Name string

	// NumLocals is the number of local slots of the function. All locals referenced by the
	// blocks are in [0, NumLocals).
	NumLocals int

	// Blocks are the basic blocks, indexed by BlockIndex. Blocks[0] is the entry block.
	Blocks []BasicBlock
}

// Entry returns the index of the entry block.
func (b *Body) Entry() BlockIndex {
	return 0
}

// Preds computes the predecessor relation of the blocks: Preds()[i] lists the blocks with an edge
// into block i.
func (b *Body) Preds() [][]BlockIndex {
	preds := make([][]BlockIndex, len(b.Blocks))
	for i, block := range b.Blocks {
		for _, succ := range block.Terminator.Successors() {
			preds[succ] = append(preds[succ], BlockIndex(i))
		}
	}
	return preds
}

// Validate checks that the body is well formed: it has at least one block, every referenced local
// is in [0, NumLocals), every terminator is set and every branch target is a valid block index.
// The analysis requires a valid body; Validate lets an IR provider fail early instead of tripping
// a precondition panic in the middle of a run.
func (b *Body) Validate() error {
	if len(b.Blocks) == 0 {
		return fmt.Errorf("body %q has no blocks", b.Name)
	}
	if b.NumLocals < 0 {
		return fmt.Errorf("body %q has negative local count %d", b.Name, b.NumLocals)
	}
	for i, block := range b.Blocks {
		for j, stmt := range block.Statements {
			if err := b.checkStatement(stmt); err != nil {
				return fmt.Errorf("body %q, %v: %w", b.Name, Location{BlockIndex(i), j}, err)
			}
		}
		if err := b.checkTerminator(block.Terminator); err != nil {
			return fmt.Errorf("body %q, %v: %w", b.Name, Location{BlockIndex(i), len(block.Statements)}, err)
		}
	}
	return nil
}

func (b *Body) checkLocal(l Local) error {
	if l < 0 || int(l) >= b.NumLocals {
		return fmt.Errorf("local _%d out of range [0, %d)", l, b.NumLocals)
	}
	return nil
}

func (b *Body) checkOperand(o Operand) error {
	switch o.Kind {
	case OperandConstant:
		return nil
	case OperandCopy, OperandMove:
		return b.checkLocal(o.Local)
	default:
		return fmt.Errorf("invalid operand")
	}
}

func (b *Body) checkStatement(s Statement) error {
	switch s.Kind {
	case StatementNop:
		return nil
	case StatementAssign:
		if err := b.checkLocal(s.Target); err != nil {
			return err
		}
		return b.checkRvalue(s.Rvalue)
	default:
		return fmt.Errorf("invalid statement")
	}
}

func (b *Body) checkRvalue(r Rvalue) error {
	switch r.Kind {
	case RvalueUse, RvalueUnaryOp, RvalueCast:
		return b.checkOperand(r.X)
	case RvalueBinaryOp:
		if err := b.checkOperand(r.X); err != nil {
			return err
		}
		return b.checkOperand(r.Y)
	case RvalueAggregate:
		for _, o := range r.Operands {
			if err := b.checkOperand(o); err != nil {
				return err
			}
		}
		return nil
	case RvalueRef:
		return b.checkLocal(r.Referent)
	default:
		return fmt.Errorf("invalid rvalue")
	}
}

func (b *Body) checkTerminator(t Terminator) error {
	switch t.Kind {
	case TerminatorReturn, TerminatorUnreachable:
		return nil
	case TerminatorGoto:
	case TerminatorBranch, TerminatorAssert:
		if err := b.checkOperand(t.Cond); err != nil {
			return err
		}
	case TerminatorCall:
		for _, a := range t.Args {
			if err := b.checkOperand(a); err != nil {
				return err
			}
		}
		if err := b.checkLocal(t.Dest); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid terminator")
	}
	if len(t.Targets) == 0 {
		return fmt.Errorf("terminator %q has no targets", t)
	}
	for _, target := range t.Targets {
		if target < 0 || int(target) >= len(b.Blocks) {
			return fmt.Errorf("branch target bb%d out of range [0, %d)", target, len(b.Blocks))
		}
	}
	return nil
}

func (b *Body) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "fn %s (%d locals) {\n", b.Name, b.NumLocals)
	for i, block := range b.Blocks {
		fmt.Fprintf(&sb, "bb%d:\n", i)
		for _, stmt := range block.Statements {
			fmt.Fprintf(&sb, "\t%s\n", stmt)
		}
		fmt.Fprintf(&sb, "\t%s\n", block.Terminator)
	}
	sb.WriteString("}\n")
	return sb.String()
}
