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

// Package iryaml loads function bodies from a declarative YAML description. It exists for hosts
// and tests that want to state a control-flow graph in a file instead of building it in code; the
// analysis itself only ever sees the resulting ir.Body values.
package iryaml

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mirtaint/mirtaint/analysis/ir"
)

// Program describes a set of function bodies.
type Program struct {
	Functions []Function `yaml:"functions"`
}

// Function describes one function body.
type Function struct {
	Name   string  `yaml:"name"`
	Locals int     `yaml:"locals"`
	Blocks []Block `yaml:"blocks"`
}

// Block describes one basic block.
type Block struct {
	Statements []Statement `yaml:"statements"`
	Terminator Terminator  `yaml:"terminator"`
}

// Statement describes one statement. Exactly one alternative must be set.
type Statement struct {
	Assign *Assign `yaml:"assign"`
	Nop    bool    `yaml:"nop"`
}

// Assign describes an assignment statement.
type Assign struct {
	Target int    `yaml:"target"`
	Value  Rvalue `yaml:"value"`
}

// Rvalue describes the right-hand side of an assignment. Exactly one alternative must be set.
type Rvalue struct {
	Use       *Operand  `yaml:"use"`
	Binary    *Binary   `yaml:"binary"`
	Unary     *Unary    `yaml:"unary"`
	Aggregate []Operand `yaml:"aggregate"`
	Ref       *int      `yaml:"ref"`
	Cast      *Operand  `yaml:"cast"`
}

// Binary describes a binary operation rvalue.
type Binary struct {
	Op    string  `yaml:"op"`
	Left  Operand `yaml:"left"`
	Right Operand `yaml:"right"`
}

// Unary describes a unary operation rvalue.
type Unary struct {
	Op      string  `yaml:"op"`
	Operand Operand `yaml:"operand"`
}

// Operand describes a constant, copy or move operand. Exactly one alternative must be set.
type Operand struct {
	Const bool `yaml:"const"`
	Copy  *int `yaml:"copy"`
	Move  *int `yaml:"move"`
}

// Terminator describes a block terminator. Exactly one alternative must be set.
type Terminator struct {
	Goto        *int    `yaml:"goto"`
	Branch      *Branch `yaml:"branch"`
	Return      bool    `yaml:"return"`
	Call        *Call   `yaml:"call"`
	Assert      *Assert `yaml:"assert"`
	Unreachable bool    `yaml:"unreachable"`
}

// Branch describes a multi-way branch terminator.
type Branch struct {
	Cond    Operand `yaml:"cond"`
	Targets []int   `yaml:"targets"`
}

// Call describes a call terminator.
type Call struct {
	Callee string    `yaml:"callee"`
	Args   []Operand `yaml:"args"`
	Dest   int       `yaml:"dest"`
	Target int       `yaml:"target"`
}

// Assert describes a runtime-assertion terminator.
type Assert struct {
	Cond   Operand `yaml:"cond"`
	Target int     `yaml:"target"`
}

// Load reads and parses a program description from filename.
func Load(filename string) (*Program, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read program file: %w", err)
	}
	p := &Program{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("could not parse program file %s: %w", filename, err)
	}
	return p, nil
}

// Build converts the description into validated function bodies.
func (p *Program) Build() ([]*ir.Body, error) {
	var bodies []*ir.Body
	for _, f := range p.Functions {
		body, err := f.build()
		if err != nil {
			return nil, fmt.Errorf("function %q: %w", f.Name, err)
		}
		if err := body.Validate(); err != nil {
			return nil, err
		}
		bodies = append(bodies, body)
	}
	return bodies, nil
}

func (f Function) build() (*ir.Body, error) {
	body := &ir.Body{Name: f.Name, NumLocals: f.Locals}
	for i, b := range f.Blocks {
		var stmts []ir.Statement
		for j, s := range b.Statements {
			stmt, err := s.build()
			if err != nil {
				return nil, fmt.Errorf("block %d, statement %d: %w", i, j, err)
			}
			stmts = append(stmts, stmt)
		}
		term, err := b.Terminator.build()
		if err != nil {
			return nil, fmt.Errorf("block %d terminator: %w", i, err)
		}
		body.Blocks = append(body.Blocks, ir.BasicBlock{Statements: stmts, Terminator: term})
	}
	return body, nil
}

func (s Statement) build() (ir.Statement, error) {
	switch {
	case s.Assign != nil && !s.Nop:
		rv, err := s.Assign.Value.build()
		if err != nil {
			return ir.Statement{}, err
		}
		return ir.Assign(ir.Local(s.Assign.Target), rv), nil
	case s.Assign == nil && s.Nop:
		return ir.Nop(), nil
	default:
		return ir.Statement{}, fmt.Errorf("statement must be exactly one of assign, nop")
	}
}

func (r Rvalue) build() (ir.Rvalue, error) {
	set := 0
	for _, alt := range []bool{r.Use != nil, r.Binary != nil, r.Unary != nil,
		r.Aggregate != nil, r.Ref != nil, r.Cast != nil} {
		if alt {
			set++
		}
	}
	if set != 1 {
		return ir.Rvalue{}, fmt.Errorf("rvalue must be exactly one of use, binary, unary, aggregate, ref, cast")
	}
	switch {
	case r.Use != nil:
		x, err := r.Use.build()
		if err != nil {
			return ir.Rvalue{}, err
		}
		return ir.Use(x), nil
	case r.Binary != nil:
		x, err := r.Binary.Left.build()
		if err != nil {
			return ir.Rvalue{}, err
		}
		y, err := r.Binary.Right.build()
		if err != nil {
			return ir.Rvalue{}, err
		}
		return ir.BinaryOp(r.Binary.Op, x, y), nil
	case r.Unary != nil:
		x, err := r.Unary.Operand.build()
		if err != nil {
			return ir.Rvalue{}, err
		}
		return ir.UnaryOp(r.Unary.Op, x), nil
	case r.Aggregate != nil:
		var operands []ir.Operand
		for _, o := range r.Aggregate {
			x, err := o.build()
			if err != nil {
				return ir.Rvalue{}, err
			}
			operands = append(operands, x)
		}
		return ir.Aggregate(operands...), nil
	case r.Ref != nil:
		return ir.Ref(ir.Local(*r.Ref)), nil
	default:
		x, err := r.Cast.build()
		if err != nil {
			return ir.Rvalue{}, err
		}
		return ir.Cast(x), nil
	}
}

func (o Operand) build() (ir.Operand, error) {
	set := 0
	for _, alt := range []bool{o.Const, o.Copy != nil, o.Move != nil} {
		if alt {
			set++
		}
	}
	if set != 1 {
		return ir.Operand{}, fmt.Errorf("operand must be exactly one of const, copy, move")
	}
	switch {
	case o.Const:
		return ir.Const(), nil
	case o.Copy != nil:
		return ir.Copy(ir.Local(*o.Copy)), nil
	default:
		return ir.Move(ir.Local(*o.Move)), nil
	}
}

func (t Terminator) build() (ir.Terminator, error) {
	set := 0
	for _, alt := range []bool{t.Goto != nil, t.Branch != nil, t.Return,
		t.Call != nil, t.Assert != nil, t.Unreachable} {
		if alt {
			set++
		}
	}
	if set != 1 {
		return ir.Terminator{}, fmt.Errorf("terminator must be exactly one of goto, branch, return, call, assert, unreachable")
	}
	switch {
	case t.Goto != nil:
		return ir.Goto(ir.BlockIndex(*t.Goto)), nil
	case t.Branch != nil:
		cond, err := t.Branch.Cond.build()
		if err != nil {
			return ir.Terminator{}, err
		}
		targets := make([]ir.BlockIndex, len(t.Branch.Targets))
		for i, b := range t.Branch.Targets {
			targets[i] = ir.BlockIndex(b)
		}
		return ir.Branch(cond, targets...), nil
	case t.Return:
		return ir.Return(), nil
	case t.Call != nil:
		var args []ir.Operand
		for _, a := range t.Call.Args {
			x, err := a.build()
			if err != nil {
				return ir.Terminator{}, err
			}
			args = append(args, x)
		}
		return ir.Call(t.Call.Callee, args, ir.Local(t.Call.Dest), ir.BlockIndex(t.Call.Target)), nil
	case t.Assert != nil:
		cond, err := t.Assert.Cond.build()
		if err != nil {
			return ir.Terminator{}, err
		}
		return ir.Assert(cond, ir.BlockIndex(t.Assert.Target)), nil
	default:
		return ir.Unreachable(), nil
	}
}
